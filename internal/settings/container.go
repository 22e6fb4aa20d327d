// Package settings holds the session-scoped wallet state shared across the
// process: user profile, balances, rates, transactions, and approvals.
// Components read snapshots; all mutation goes through the named setters.
package settings

import (
	"sync"

	"github.com/kestrelpay/kestrel/internal/common"
	"github.com/kestrelpay/kestrel/internal/models"
)

// Snapshot is an immutable copy of the shared state at one revision.
type Snapshot struct {
	User             *models.User
	Balances         []models.Balance
	Rates            models.Rates
	Transactions     []models.Transaction
	Approvals        []models.Approval
	FiatCurrency     string
	SelectedCurrency string // pending currency selection, consumed after routing
	Revision         uint64
}

// TotalFiatBalance converts and sums the snapshot's balances into the
// snapshot's display fiat currency.
func (s Snapshot) TotalFiatBalance() models.FiatAmount {
	return models.TotalFiatBalance(s.Balances, s.FiatCurrency, s.Rates)
}

// Container is the shared state holder. Readers call Snapshot at any time;
// writers use the named setters, each of which bumps the revision and wakes
// change watchers.
type Container struct {
	mu      sync.RWMutex
	state   Snapshot
	changed chan struct{}
	logger  *common.Logger
}

// NewContainer creates an empty container with the given display currency.
func NewContainer(logger *common.Logger, fiatCurrency string) *Container {
	return &Container{
		state:   Snapshot{FiatCurrency: fiatCurrency, Rates: models.Rates{}},
		changed: make(chan struct{}),
		logger:  logger,
	}
}

// Snapshot returns a copy of the current state. Slices are copied so callers
// can never mutate shared state through a snapshot.
func (c *Container) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyLocked()
}

func (c *Container) copyLocked() Snapshot {
	out := c.state
	if c.state.User != nil {
		user := *c.state.User
		user.PaymentMethods = append([]models.PaymentMethod(nil), c.state.User.PaymentMethods...)
		out.User = &user
	}
	out.Balances = append([]models.Balance(nil), c.state.Balances...)
	out.Transactions = append([]models.Transaction(nil), c.state.Transactions...)
	out.Approvals = append([]models.Approval(nil), c.state.Approvals...)
	rates := make(models.Rates, len(c.state.Rates))
	for k, v := range c.state.Rates {
		rates[k] = v
	}
	out.Rates = rates
	return out
}

// Changes returns a channel closed on the next state mutation. Watchers
// re-arm by calling Changes again after each wake.
func (c *Container) Changes() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.changed
}

func (c *Container) publishLocked() {
	c.state.Revision++
	close(c.changed)
	c.changed = make(chan struct{})
}

// SetUser publishes a new user profile.
func (c *Container) SetUser(user *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.User = user
	c.publishLocked()
}

// SetBalances publishes new account balances.
func (c *Container) SetBalances(balances []models.Balance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Balances = balances
	c.publishLocked()
}

// SetRates publishes new exchange rates.
func (c *Container) SetRates(rates models.Rates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Rates = rates
	c.publishLocked()
}

// SetPaymentMethods merges payment methods onto the current user profile.
// No-op when no user is published yet.
func (c *Container) SetPaymentMethods(methods []models.PaymentMethod) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.User == nil {
		return
	}
	user := *c.state.User
	user.PaymentMethods = methods
	c.state.User = &user
	c.publishLocked()
}

// SetTransactions publishes a new transaction page.
func (c *Container) SetTransactions(txs []models.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Transactions = txs
	c.publishLocked()
}

// SetApprovals publishes a new approvals list.
func (c *Container) SetApprovals(approvals []models.Approval) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Approvals = approvals
	c.publishLocked()
}

// SetDefaultFiatCurrency changes the display currency.
func (c *Container) SetDefaultFiatCurrency(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.FiatCurrency = code
	c.publishLocked()
}

// SelectCurrency records a pending currency selection from the balances list.
func (c *Container) SelectCurrency(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SelectedCurrency = code
	c.publishLocked()
}

// ClearSelectedCurrency consumes the pending selection after routing.
func (c *Container) ClearSelectedCurrency() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.SelectedCurrency == "" {
		return
	}
	c.state.SelectedCurrency = ""
	c.publishLocked()
}

// Reset drops all session-scoped state, keeping the display currency.
// Called after sign-out.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fiat := c.state.FiatCurrency
	c.state = Snapshot{FiatCurrency: fiat, Rates: models.Rates{}, Revision: c.state.Revision}
	c.publishLocked()
	c.logger.Debug().Msg("Session state reset")
}
