package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelpay/kestrel/internal/interfaces"
	"github.com/kestrelpay/kestrel/internal/models"
)

func staticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

func TestGetUser_SendsBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.User{
			Username:           "alice",
			RegistrationStatus: models.RegistrationApproved,
		})
	}))
	defer srv.Close()

	client := NewClient(staticToken("tok-123"), WithBaseURL(srv.URL))
	user, err := client.GetUser(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RegistrationApproved, user.RegistrationStatus)
}

func TestGetTransactions_QueryParams(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"transaction_list": []models.Transaction{
				{ID: 2, Amount: 1000, Currency: "XUS", Direction: models.DirectionSent},
				{ID: 1, Amount: 500, Currency: "XUS", Direction: models.DirectionReceived},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(staticToken("tok"), WithBaseURL(srv.URL))
	txs, err := client.GetTransactions(context.Background(),
		interfaces.WithTransactionLimit(10),
		interfaces.WithTransactionDirection(models.DirectionSent),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"10"}, gotQuery["limit"])
	assert.Equal(t, []string{"sent"}, gotQuery["direction"])
	require.Len(t, txs, 2)
	assert.Equal(t, int64(2), txs[0].ID)
}

func TestDo_Non2xxBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "invalid status transition", "code": 409})
	}))
	defer srv.Close()

	client := NewClient(staticToken("tok"), WithBaseURL(srv.URL))
	err := client.UpdateApprovalStatus(context.Background(), "fppa-1", models.ApprovalValid)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "invalid status transition", apiErr.Message)
	assert.False(t, apiErr.IsUnauthorized())
}

func TestDo_UnauthorizedIsDetectable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(staticToken("stale"), WithBaseURL(srv.URL))
	_, err := client.GetAccount(context.Background())
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsUnauthorized())
}

func TestUpdateApprovalStatus_PutsStatusBody(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(staticToken("tok"), WithBaseURL(srv.URL))
	err := client.UpdateApprovalStatus(context.Background(), "fppa-7", models.ApprovalRejected)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/offchain/funds_pull_pre_approvals/fppa-7", gotPath)
	assert.Equal(t, "rejected", gotBody["status"])
}

func TestRefreshUser_PostsRecomputeAction(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(staticToken("tok"), WithBaseURL(srv.URL))
	require.NoError(t, client.RefreshUser(context.Background()))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/user/actions/refresh", gotPath)
}

func TestGetRates_IndexesByPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rates": []models.Rate{
				{Pair: "XUS_USD", Price: 1_000_000},
				{Pair: "XUS_EUR", Price: 930_000},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(staticToken("tok"), WithBaseURL(srv.URL))
	rates, err := client.GetRates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1_000_000), rates["XUS_USD"])
	assert.Equal(t, int64(930_000), rates["XUS_EUR"])
}
