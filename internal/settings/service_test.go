package settings

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelpay/kestrel/internal/clients/wallet"
	"github.com/kestrelpay/kestrel/internal/common"
	"github.com/kestrelpay/kestrel/internal/interfaces"
	"github.com/kestrelpay/kestrel/internal/models"
)

// --- mock implementations ---

type mockBackend struct {
	user        *models.User
	userErr     error
	methods     []models.PaymentMethod
	methodsErr  error
	account     *models.Account
	accountErr  error
	rates       models.Rates
	ratesErr    error
	txs         []models.Transaction
	txsErr      error
	approvals   []models.Approval
	approvalErr error

	// onFetch runs at the start of every read so tests can interfere with
	// the call in flight, e.g. cancel its context.
	onFetch      func()
	refreshCalls int
}

func (m *mockBackend) fetch() {
	if m.onFetch != nil {
		m.onFetch()
	}
}

func (m *mockBackend) GetUser(context.Context) (*models.User, error) {
	m.fetch()
	if m.userErr != nil {
		return nil, m.userErr
	}
	u := *m.user
	return &u, nil
}

func (m *mockBackend) GetPaymentMethods(context.Context) ([]models.PaymentMethod, error) {
	m.fetch()
	return m.methods, m.methodsErr
}

func (m *mockBackend) GetAccount(context.Context) (*models.Account, error) {
	m.fetch()
	return m.account, m.accountErr
}

func (m *mockBackend) GetRates(context.Context) (models.Rates, error) {
	m.fetch()
	return m.rates, m.ratesErr
}

func (m *mockBackend) GetTransactions(context.Context, ...interfaces.TransactionsOption) ([]models.Transaction, error) {
	m.fetch()
	return m.txs, m.txsErr
}

func (m *mockBackend) GetAllFundsPullPreApprovals(context.Context) ([]models.Approval, error) {
	m.fetch()
	return m.approvals, m.approvalErr
}

func (m *mockBackend) UpdateApprovalStatus(context.Context, string, models.ApprovalStatus) error {
	return nil
}

func (m *mockBackend) RefreshUser(context.Context) error {
	m.refreshCalls++
	return nil
}

type memSessionStore struct {
	mu    sync.Mutex
	token string
	fiat  string
}

func (s *memSessionStore) GetAccessToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", fmt.Errorf("key 'access_token' not found")
	}
	return s.token, nil
}

func (s *memSessionStore) SetAccessToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *memSessionStore) RemoveAccessToken(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

func (s *memSessionStore) GetDefaultFiatCurrency(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fiat, nil
}

func (s *memSessionStore) SetDefaultFiatCurrency(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fiat = code
	return nil
}

func (s *memSessionStore) Close() error { return nil }

type recordingNavigator struct {
	mu     sync.Mutex
	roots  []interfaces.Screen
	pushes []string
}

func (n *recordingNavigator) SetStackRoot(screen interfaces.Screen) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.roots = append(n.roots, screen)
}

func (n *recordingNavigator) Push(screen interfaces.Screen, currency string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, string(screen)+":"+currency)
}

func (n *recordingNavigator) lastRoot() interfaces.Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.roots) == 0 {
		return ""
	}
	return n.roots[len(n.roots)-1]
}

func newTestService(backend *mockBackend) (*Service, *memSessionStore, *recordingNavigator) {
	container := NewContainer(common.NewSilentLogger(), "USD")
	sessions := &memSessionStore{token: "tok"}
	navigator := &recordingNavigator{}
	svc := NewService(container, backend, sessions, navigator, common.NewSilentLogger())
	return svc, sessions, navigator
}

// --- tests ---

func TestRefreshUser_MergesPaymentMethods(t *testing.T) {
	backend := &mockBackend{
		user: &models.User{Username: "alice", RegistrationStatus: models.RegistrationApproved},
		methods: []models.PaymentMethod{
			{ID: 1, Name: "Visa ****1111", Provider: "CreditCard"},
		},
	}
	svc, _, _ := newTestService(backend)

	require.NoError(t, svc.RefreshUser(context.Background()))

	snap := svc.Container().Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "alice", snap.User.Username)
	require.Len(t, snap.User.PaymentMethods, 1)
	assert.Equal(t, "Visa ****1111", snap.User.PaymentMethods[0].Name)
}

func TestRefreshUser_AllOrNothing(t *testing.T) {
	backend := &mockBackend{
		user: &models.User{Username: "alice", RegistrationStatus: models.RegistrationApproved},
		methods: []models.PaymentMethod{
			{ID: 1, Name: "Visa ****1111"},
		},
	}
	svc, _, _ := newTestService(backend)
	require.NoError(t, svc.RefreshUser(context.Background()))
	before := svc.Container().Snapshot()

	// Backend moves the user on, but the payment-methods call starts failing.
	backend.user = &models.User{Username: "alice", RegistrationStatus: models.RegistrationRejected}
	backend.methodsErr = fmt.Errorf("boom")

	err := svc.RefreshUser(context.Background())
	require.Error(t, err)

	after := svc.Container().Snapshot()
	assert.Equal(t, before.User, after.User, "failed refresh must not partially apply")
	assert.Equal(t, before.Revision, after.Revision)
}

func TestRefreshUser_UnauthorizedClearsSession(t *testing.T) {
	backend := &mockBackend{
		user:       &models.User{Username: "alice"},
		methodsErr: &wallet.APIError{StatusCode: http.StatusUnauthorized, Message: "token expired", Endpoint: "/user/payment-methods"},
	}
	svc, sessions, navigator := newTestService(backend)

	err := svc.RefreshUser(context.Background())
	require.Error(t, err)

	_, tokenErr := sessions.GetAccessToken(context.Background())
	assert.Error(t, tokenErr, "token must be removed")
	assert.Equal(t, interfaces.ScreenSignIn, navigator.lastRoot())

	snap := svc.Container().Snapshot()
	assert.Nil(t, snap.User, "no other state mutation on 401")
}

func TestRefreshUser_CanceledFeedDiscardsResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := &mockBackend{
		user:    &models.User{Username: "alice", RegistrationStatus: models.RegistrationApproved},
		onFetch: cancel,
	}
	svc, _, _ := newTestService(backend)
	before := svc.Container().Snapshot()

	err := svc.RefreshUser(ctx)
	require.ErrorIs(t, err, context.Canceled)

	after := svc.Container().Snapshot()
	assert.Nil(t, after.User, "result arriving after cancellation must not be published")
	assert.Equal(t, before.Revision, after.Revision)
}

func TestRefresh_CanceledFeedDiscardsResult(t *testing.T) {
	cases := []struct {
		name string
		run  func(ctx context.Context, svc *Service) error
	}{
		{"account", func(ctx context.Context, svc *Service) error { return svc.RefreshAccount(ctx) }},
		{"transactions", func(ctx context.Context, svc *Service) error { return svc.RefreshTransactions(ctx, 10) }},
		{"approvals", func(ctx context.Context, svc *Service) error { return svc.RefreshApprovals(ctx) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			backend := &mockBackend{
				account:   &models.Account{Balances: []models.Balance{{Currency: "XUS", Amount: 100}}},
				rates:     models.Rates{"XUS_USD": 1_000_000},
				txs:       []models.Transaction{{ID: 1, Amount: 100, Currency: "XUS"}},
				approvals: []models.Approval{{ID: "fppa-1", Status: models.ApprovalPending}},
				onFetch:   cancel,
			}
			svc, _, _ := newTestService(backend)
			before := svc.Container().Snapshot()

			require.ErrorIs(t, tc.run(ctx, svc), context.Canceled)
			assert.Equal(t, before.Revision, svc.Container().Snapshot().Revision,
				"canceled refresh must not touch shared state")
		})
	}
}

func TestRefreshUser_NudgesUnfinalizedRegistration(t *testing.T) {
	backend := &mockBackend{
		user: &models.User{Username: "alice", RegistrationStatus: models.RegistrationPending},
	}
	svc, _, _ := newTestService(backend)

	require.NoError(t, svc.RefreshUser(context.Background()))
	assert.Equal(t, 0, backend.refreshCalls, "no recompute before the first profile load")

	require.NoError(t, svc.RefreshUser(context.Background()))
	assert.Equal(t, 1, backend.refreshCalls, "pending registration is recomputed")

	backend.user = &models.User{Username: "alice", RegistrationStatus: models.RegistrationApproved}
	require.NoError(t, svc.RefreshUser(context.Background()))
	require.NoError(t, svc.RefreshUser(context.Background()))
	assert.Equal(t, 2, backend.refreshCalls, "approved registration is not recomputed")
}

func TestRefreshAccount_PublishesBalancesAndRates(t *testing.T) {
	backend := &mockBackend{
		account: &models.Account{Balances: []models.Balance{{Currency: "XUS", Amount: 500000}}},
		rates:   models.Rates{"XUS_USD": 1_000_000},
	}
	svc, _, _ := newTestService(backend)

	require.NoError(t, svc.RefreshAccount(context.Background()))

	snap := svc.Container().Snapshot()
	require.Len(t, snap.Balances, 1)
	assert.Equal(t, "0.50", snap.TotalFiatBalance().String())
}

func TestHandleUnauthorized_IgnoresOtherErrors(t *testing.T) {
	svc, sessions, navigator := newTestService(&mockBackend{})

	handled := svc.HandleUnauthorized(context.Background(), fmt.Errorf("network down"))
	assert.False(t, handled)

	handled = svc.HandleUnauthorized(context.Background(),
		fmt.Errorf("get user: %w", &wallet.APIError{StatusCode: http.StatusInternalServerError}))
	assert.False(t, handled)

	token, err := sessions.GetAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Empty(t, navigator.lastRoot())
}

func TestHandleUnauthorized_DetectsWrapped401(t *testing.T) {
	svc, _, navigator := newTestService(&mockBackend{})

	wrapped := fmt.Errorf("get approvals: %w", &wallet.APIError{StatusCode: http.StatusUnauthorized})
	assert.True(t, svc.HandleUnauthorized(context.Background(), wrapped))
	assert.Equal(t, interfaces.ScreenSignIn, navigator.lastRoot())
}

func TestSetDefaultFiatCurrency_RejectsUnknown(t *testing.T) {
	svc, sessions, _ := newTestService(&mockBackend{})

	require.Error(t, svc.SetDefaultFiatCurrency(context.Background(), "ZZZ"))

	require.NoError(t, svc.SetDefaultFiatCurrency(context.Background(), "EUR"))
	code, err := sessions.GetDefaultFiatCurrency(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)
	assert.Equal(t, "EUR", svc.Container().Snapshot().FiatCurrency)
}

func TestSignOut(t *testing.T) {
	backend := &mockBackend{user: &models.User{Username: "alice"}}
	svc, sessions, navigator := newTestService(backend)
	require.NoError(t, svc.RefreshUser(context.Background()))

	svc.SignOut(context.Background())

	_, err := sessions.GetAccessToken(context.Background())
	assert.Error(t, err)
	assert.Equal(t, interfaces.ScreenSignIn, navigator.lastRoot())
	assert.Nil(t, svc.Container().Snapshot().User)
}
