package settings

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelpay/kestrel/internal/clients/wallet"
	"github.com/kestrelpay/kestrel/internal/common"
	"github.com/kestrelpay/kestrel/internal/interfaces"
	"github.com/kestrelpay/kestrel/internal/models"
)

// Service drives refreshes of the settings container against the backend and
// owns the authorization-failure recovery path.
type Service struct {
	container *Container
	client    interfaces.BackendClient
	sessions  interfaces.SessionStore
	navigator interfaces.Navigator
	logger    *common.Logger
	onSignOut func()
}

// NewService creates a settings service.
func NewService(container *Container, client interfaces.BackendClient, sessions interfaces.SessionStore, navigator interfaces.Navigator, logger *common.Logger) *Service {
	return &Service{
		container: container,
		client:    client,
		sessions:  sessions,
		navigator: navigator,
		logger:    logger,
	}
}

// Container returns the shared state container.
func (s *Service) Container() *Container {
	return s.container
}

// OnSignOut registers a callback invoked whenever the session is destroyed,
// explicitly or through an authorization failure. Must be set before the
// feeds start. The callback runs on the goroutine that detected the
// sign-out, so it must not block on feed shutdown.
func (s *Service) OnSignOut(fn func()) {
	s.onSignOut = fn
}

// RefreshUser fetches the user profile and payment methods concurrently,
// merges the methods onto the profile, and publishes the result. Either
// fetch failing aborts the refresh with no partial update. A 401 clears the
// session and routes to sign-in.
func (s *Service) RefreshUser(ctx context.Context) error {
	// The backend only recomputes registration status on demand, so nudge it
	// while the user is still moving through the verification pipeline.
	if snap := s.container.Snapshot(); snap.User != nil && !snap.User.RegistrationStatus.Finalized() {
		if err := s.client.RefreshUser(ctx); err != nil {
			if s.HandleUnauthorized(ctx, err) {
				return err
			}
			s.logger.Warn().Err(err).Msg("Registration status recompute failed")
		}
	}

	var (
		user    *models.User
		methods []models.PaymentMethod
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.client.GetUser(gctx)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		user = u
		return nil
	})
	g.Go(func() error {
		m, err := s.client.GetPaymentMethods(gctx)
		if err != nil {
			return fmt.Errorf("get payment methods: %w", err)
		}
		methods = m
		return nil
	})

	if err := g.Wait(); err != nil {
		if s.HandleUnauthorized(ctx, err) {
			return err
		}
		s.logger.Warn().Err(err).Msg("User refresh failed")
		return err
	}

	// A fetch that resolves while its feed is being stopped is discarded, not
	// published.
	if err := ctx.Err(); err != nil {
		return err
	}

	user.PaymentMethods = methods
	s.container.SetUser(user)
	return nil
}

// RefreshAccount fetches balances and rates and publishes both.
func (s *Service) RefreshAccount(ctx context.Context) error {
	account, err := s.client.GetAccount(ctx)
	if err != nil {
		if s.HandleUnauthorized(ctx, err) {
			return err
		}
		return fmt.Errorf("get account: %w", err)
	}

	rates, err := s.client.GetRates(ctx)
	if err != nil {
		if s.HandleUnauthorized(ctx, err) {
			return err
		}
		return fmt.Errorf("get rates: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.container.SetBalances(account.Balances)
	s.container.SetRates(rates)
	return nil
}

// RefreshTransactions fetches the most recent transaction page.
func (s *Service) RefreshTransactions(ctx context.Context, limit int) error {
	txs, err := s.client.GetTransactions(ctx, interfaces.WithTransactionLimit(limit))
	if err != nil {
		if s.HandleUnauthorized(ctx, err) {
			return err
		}
		return fmt.Errorf("get transactions: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.container.SetTransactions(txs)
	return nil
}

// RefreshApprovals fetches all funds-pull pre-approvals.
func (s *Service) RefreshApprovals(ctx context.Context) error {
	approvals, err := s.client.GetAllFundsPullPreApprovals(ctx)
	if err != nil {
		if s.HandleUnauthorized(ctx, err) {
			return err
		}
		return fmt.Errorf("get approvals: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.container.SetApprovals(approvals)
	return nil
}

// SetDefaultFiatCurrency persists and publishes the display currency.
func (s *Service) SetDefaultFiatCurrency(ctx context.Context, code string) error {
	c, ok := models.LookupCurrency(code)
	if !ok || !c.Fiat {
		return fmt.Errorf("unknown fiat currency '%s'", code)
	}
	if err := s.sessions.SetDefaultFiatCurrency(ctx, code); err != nil {
		return fmt.Errorf("persist fiat currency: %w", err)
	}
	s.container.SetDefaultFiatCurrency(code)
	return nil
}

// SignOut destroys the session and routes to sign-in.
func (s *Service) SignOut(ctx context.Context) {
	if err := s.sessions.RemoveAccessToken(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to remove access token")
	}
	s.container.Reset()
	s.navigator.SetStackRoot(interfaces.ScreenSignIn)
	if s.onSignOut != nil {
		s.onSignOut()
	}
}

// HandleUnauthorized recovers from an authorization failure: the session
// token is removed and the UI is routed to sign-in, with no other state
// mutation. Returns true when err was a 401.
func (s *Service) HandleUnauthorized(ctx context.Context, err error) bool {
	var apiErr *wallet.APIError
	if !errors.As(err, &apiErr) || !apiErr.IsUnauthorized() {
		return false
	}

	s.logger.Info().Str("endpoint", apiErr.Endpoint).Msg("Session expired, signing out")
	if rmErr := s.sessions.RemoveAccessToken(ctx); rmErr != nil {
		s.logger.Warn().Err(rmErr).Msg("Failed to remove access token")
	}
	s.navigator.SetStackRoot(interfaces.ScreenSignIn)
	if s.onSignOut != nil {
		s.onSignOut()
	}
	return true
}
