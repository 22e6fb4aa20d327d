package app

import (
	"context"

	"github.com/kestrelpay/kestrel/internal/router"
)

// startRedirectWatcher launches the goroutine that re-derives the navigation
// intent on every state revision. Starting twice is a no-op.
func (a *App) startRedirectWatcher() {
	a.watcherMu.Lock()
	defer a.watcherMu.Unlock()
	if a.watcherCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.watcherCancel = cancel
	a.watcherDone = make(chan struct{})
	done := a.watcherDone

	go func() {
		defer close(done)
		a.watchRedirects(ctx)
	}()
}

// stopRedirectWatcher cancels the watcher and waits for it to exit.
// Idempotent, and safe to call concurrently with start.
func (a *App) stopRedirectWatcher() {
	a.watcherMu.Lock()
	defer a.watcherMu.Unlock()
	if a.watcherCancel == nil {
		return
	}
	a.watcherCancel()
	<-a.watcherDone
	a.watcherCancel = nil
}

// watchRedirects applies router decisions as state changes. The currency
// selection is consumed once routed so the redirect does not repeat.
func (a *App) watchRedirects(ctx context.Context) {
	container := a.Settings.Container()

	for {
		changed := container.Changes()

		a.applyRedirect()

		select {
		case <-ctx.Done():
			a.Logger.Debug().Msg("Redirect watcher stopped")
			return
		case <-changed:
		}
	}
}

func (a *App) applyRedirect() {
	container := a.Settings.Container()
	decision := router.Decide(container.Snapshot())

	switch decision.Kind {
	case router.Verify:
		a.Navigator.SetStackRoot(decision.Screen)
	case router.CurrencyDetail:
		a.Navigator.Push(decision.Screen, decision.Currency)
		container.ClearSelectedCurrency()
	}
}
