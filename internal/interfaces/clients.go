// Package interfaces defines collaborator contracts for Kestrel
package interfaces

import (
	"context"
	"time"

	"github.com/kestrelpay/kestrel/internal/models"
)

// BackendClient provides authenticated access to the wallet backend API.
// Every method fails with *wallet.APIError on a non-2xx response.
type BackendClient interface {
	// GetUser retrieves the signed-in user's profile
	GetUser(ctx context.Context) (*models.User, error)

	// GetPaymentMethods retrieves the user's funding sources
	GetPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)

	// GetAccount retrieves the account balances
	GetAccount(ctx context.Context) (*models.Account, error)

	// GetRates retrieves the published exchange rates
	GetRates(ctx context.Context) (models.Rates, error)

	// GetTransactions retrieves a bounded, most-recent-first transaction page
	GetTransactions(ctx context.Context, opts ...TransactionsOption) ([]models.Transaction, error)

	// GetAllFundsPullPreApprovals retrieves every funds-pull pre-approval
	GetAllFundsPullPreApprovals(ctx context.Context) ([]models.Approval, error)

	// UpdateApprovalStatus transitions a funds-pull pre-approval
	UpdateApprovalStatus(ctx context.Context, id string, status models.ApprovalStatus) error

	// RefreshUser asks the backend to recompute the user's registration state
	RefreshUser(ctx context.Context) error
}

// TransactionsOption configures a transaction page request
type TransactionsOption func(*TransactionsParams)

// TransactionsParams holds transaction query parameters
type TransactionsParams struct {
	Start     time.Time
	End       time.Time
	Direction models.TransactionDirection
	Limit     int
}

// WithTransactionRange bounds the page by timestamp
func WithTransactionRange(start, end time.Time) TransactionsOption {
	return func(p *TransactionsParams) {
		p.Start = start
		p.End = end
	}
}

// WithTransactionDirection filters by direction
func WithTransactionDirection(direction models.TransactionDirection) TransactionsOption {
	return func(p *TransactionsParams) {
		p.Direction = direction
	}
}

// WithTransactionLimit caps the page size
func WithTransactionLimit(limit int) TransactionsOption {
	return func(p *TransactionsParams) {
		p.Limit = limit
	}
}
