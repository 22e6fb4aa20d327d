// Package wallet provides a client for the wallet backend REST API
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kestrelpay/kestrel/internal/common"
	"github.com/kestrelpay/kestrel/internal/interfaces"
	"github.com/kestrelpay/kestrel/internal/models"
)

const (
	DefaultBaseURL   = "http://localhost:8080/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// TokenSource supplies the current access token for authenticated requests.
type TokenSource func(ctx context.Context) (string, error)

// Client implements the BackendClient interface
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new wallet backend client. The token source is consulted
// on every request so a cleared session takes effect immediately.
func NewClient(tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-2xx backend response
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wallet API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsUnauthorized reports whether the error is an authorization failure.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// do performs a rate-limited authenticated request
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokens(ctx)
	if err != nil {
		return fmt.Errorf("no access token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("url", path).Msg("Wallet API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			Endpoint:   path,
		}
	}

	if result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// errorMessage extracts the backend error text from an error envelope,
// falling back to the raw body.
func errorMessage(body []byte) string {
	var envelope struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return string(body)
}

// GetUser retrieves the signed-in user's profile
func (c *Client) GetUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPaymentMethods retrieves the user's funding sources
func (c *Client) GetPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var resp struct {
		PaymentMethods []models.PaymentMethod `json:"payment_methods"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/payment-methods", nil, &resp); err != nil {
		return nil, err
	}
	return resp.PaymentMethods, nil
}

// GetAccount retrieves the account balances
func (c *Client) GetAccount(ctx context.Context) (*models.Account, error) {
	var account models.Account
	if err := c.do(ctx, http.MethodGet, "/account", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetRates retrieves the published exchange rates
func (c *Client) GetRates(ctx context.Context) (models.Rates, error) {
	var resp struct {
		Rates []models.Rate `json:"rates"`
	}
	if err := c.do(ctx, http.MethodGet, "/account/rates", nil, &resp); err != nil {
		return nil, err
	}
	return models.RatesFromList(resp.Rates), nil
}

// GetTransactions retrieves a bounded, most-recent-first transaction page
func (c *Client) GetTransactions(ctx context.Context, opts ...interfaces.TransactionsOption) ([]models.Transaction, error) {
	params := interfaces.TransactionsParams{}
	for _, opt := range opts {
		opt(&params)
	}

	query := url.Values{}
	if !params.Start.IsZero() {
		query.Set("start", strconv.FormatInt(params.Start.Unix(), 10))
	}
	if !params.End.IsZero() {
		query.Set("end", strconv.FormatInt(params.End.Unix(), 10))
	}
	if params.Direction != "" {
		query.Set("direction", string(params.Direction))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}

	path := "/account/transactions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp struct {
		TransactionList []models.Transaction `json:"transaction_list"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.TransactionList, nil
}

// GetAllFundsPullPreApprovals retrieves every funds-pull pre-approval
func (c *Client) GetAllFundsPullPreApprovals(ctx context.Context) ([]models.Approval, error) {
	var resp struct {
		Approvals []models.Approval `json:"funds_pull_pre_approvals"`
	}
	if err := c.do(ctx, http.MethodGet, "/offchain/funds_pull_pre_approvals", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Approvals, nil
}

// UpdateApprovalStatus transitions a funds-pull pre-approval
func (c *Client) UpdateApprovalStatus(ctx context.Context, id string, status models.ApprovalStatus) error {
	body := map[string]string{"status": string(status)}
	path := fmt.Sprintf("/offchain/funds_pull_pre_approvals/%s", url.PathEscape(id))
	return c.do(ctx, http.MethodPut, path, body, nil)
}

// RefreshUser asks the backend to recompute the user's registration state
func (c *Client) RefreshUser(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/user/actions/refresh", nil, nil)
}

// Ensure Client implements BackendClient
var _ interfaces.BackendClient = (*Client)(nil)
