// Package app wires the wallet client core together: configuration, session
// store, backend client, shared state, polling feeds, and routing.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kestrelpay/kestrel/internal/approvals"
	"github.com/kestrelpay/kestrel/internal/clients/wallet"
	"github.com/kestrelpay/kestrel/internal/common"
	"github.com/kestrelpay/kestrel/internal/interfaces"
	"github.com/kestrelpay/kestrel/internal/navigation"
	"github.com/kestrelpay/kestrel/internal/poller"
	"github.com/kestrelpay/kestrel/internal/session"
	"github.com/kestrelpay/kestrel/internal/settings"
)

// transactionPageSize bounds the most-recent-first transaction page.
const transactionPageSize = 50

// App holds all initialized services for the wallet agent.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Sessions    interfaces.SessionStore
	Backend     interfaces.BackendClient
	Navigator   *navigation.StackNavigator
	Settings    *settings.Service
	Approvals   *approvals.Service
	Poller      *poller.Controller
	StartupTime time.Time

	watcherMu     sync.Mutex
	watcherCancel context.CancelFunc
	watcherDone   chan struct{}
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes the session store, backend client, state container,
// services, and polling feeds. configPath may be empty, in which case the
// default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Load configuration - check provided path, KESTREL_CONFIG, then binary
	// dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("KESTREL_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "kestrel.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/kestrel.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative session path to binary directory
	if config.Session.Path != "" && !filepath.IsAbs(config.Session.Path) {
		config.Session.Path = filepath.Join(binDir, config.Session.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	sessions, err := session.NewStore(logger, config.Session.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	backend := wallet.NewClient(sessions.GetAccessToken,
		wallet.WithBaseURL(config.Backend.BaseURL),
		wallet.WithLogger(logger),
		wallet.WithRateLimit(config.Backend.RateLimit),
		wallet.WithTimeout(config.Backend.GetTimeout()),
	)

	ctx := context.Background()

	// Display currency: persisted preference wins over config
	fiat := config.FiatCurrency
	if stored, err := sessions.GetDefaultFiatCurrency(ctx); err == nil && stored != "" {
		fiat = stored
	}

	navigator := navigation.New(logger, interfaces.ScreenSignIn)
	container := settings.NewContainer(logger, fiat)
	settingsSvc := settings.NewService(container, backend, sessions, navigator, logger)
	approvalsSvc := approvals.NewService(backend, settingsSvc, logger)

	controller := poller.NewController(logger)
	controller.Register(&poller.Feed{
		Name:     "user",
		Interval: config.Polling.GetUserInterval(),
		Refresh:  settingsSvc.RefreshUser,
	})
	controller.Register(&poller.Feed{
		Name:     "account",
		Interval: config.Polling.GetAccountInterval(),
		Refresh:  settingsSvc.RefreshAccount,
	})
	controller.Register(&poller.Feed{
		Name:     "transactions",
		Interval: config.Polling.GetTransactionsInterval(),
		Refresh: func(ctx context.Context) error {
			return settingsSvc.RefreshTransactions(ctx, transactionPageSize)
		},
	})
	controller.Register(&poller.Feed{
		Name:     "approvals",
		Interval: config.Polling.GetApprovalsInterval(),
		Refresh:  settingsSvc.RefreshApprovals,
	})

	a := &App{
		Config:      config,
		Logger:      logger,
		Sessions:    sessions,
		Backend:     backend,
		Navigator:   navigator,
		Settings:    settingsSvc,
		Approvals:   approvalsSvc,
		Poller:      controller,
		StartupTime: startupStart,
	}

	// Losing the session tears down the background work: parked on sign-in,
	// the agent polls nothing.
	settingsSvc.OnSignOut(a.stopPollingAsync)

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// stopPollingAsync halts the feeds and the redirect watcher without blocking
// the caller. Sign-out fires on a feed goroutine and Poller.Stop waits for
// feed goroutines to exit, so the stop has to run on its own goroutine.
func (a *App) stopPollingAsync() {
	go func() {
		a.Poller.Stop()
		a.stopRedirectWatcher()
	}()
}

// Start decides the initial screen from the stored session and begins
// polling when signed in. With no usable token the agent parks on the
// sign-in screen and polls nothing.
func (a *App) Start(ctx context.Context) {
	token, err := a.Sessions.GetAccessToken(ctx)
	if err != nil || session.TokenExpired(token, time.Now()) {
		if err == nil {
			// Stored token is already dead; drop it
			if rmErr := a.Sessions.RemoveAccessToken(ctx); rmErr != nil {
				a.Logger.Warn().Err(rmErr).Msg("Failed to remove expired token")
			}
		}
		a.Navigator.SetStackRoot(interfaces.ScreenSignIn)
		return
	}

	a.Navigator.SetStackRoot(interfaces.ScreenWallet)
	a.Poller.Start(ctx)
	a.startRedirectWatcher()
}

// SignIn stores a fresh token and brings the wallet up.
func (a *App) SignIn(ctx context.Context, token string) error {
	if err := a.Sessions.SetAccessToken(ctx, token); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	a.Navigator.SetStackRoot(interfaces.ScreenWallet)
	a.Poller.Start(ctx)
	a.startRedirectWatcher()
	return nil
}

// Close stops polling and releases all resources.
// Shutdown order: stop feeds, stop the redirect watcher, close the session store.
func (a *App) Close() {
	if a.Poller != nil {
		a.Poller.Stop()
	}
	a.stopRedirectWatcher()
	if a.Sessions != nil {
		if err := a.Sessions.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Session store close failed")
		}
		a.Sessions = nil
	}
}
