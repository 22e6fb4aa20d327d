package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kestrelpay/kestrel/internal/app"
	"github.com/kestrelpay/kestrel/internal/common"
)

func main() {
	configPath := os.Getenv("KESTREL_CONFIG")

	a, err := app.NewApp(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	// A token handed in via environment takes effect before startup routing
	if token := os.Getenv("KESTREL_ACCESS_TOKEN"); token != "" {
		if err := a.SignIn(runCtx, token); err != nil {
			a.Logger.Error().Err(err).Msg("Sign-in with provided token failed")
		}
	} else {
		a.Start(runCtx)
	}

	mux := buildMux(a)

	host := a.Config.Server.Host
	port := a.Config.Server.Port

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		a.Logger.Info().Int("port", port).Msg("Starting status endpoint")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("Status endpoint failed")
		}
	}()

	a.Logger.Info().
		Str("backend", a.Config.Backend.BaseURL).
		Str("status", fmt.Sprintf("http://localhost:%d/status", port)).
		Msg("Agent ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.Logger.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("Status endpoint shutdown failed")
	}

	runCancel()
	a.Close()
	a.Logger.Info().Msg("Agent stopped")
}

// buildMux exposes health and status for operators; the wallet UI itself
// lives outside this repository.
func buildMux(a *app.App) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		snap := a.Settings.Container().Snapshot()

		type feedStatus struct {
			Name     string    `json:"name"`
			Runs     int64     `json:"runs"`
			Failures int64     `json:"failures"`
			LastRun  time.Time `json:"last_run"`
			Stale    bool      `json:"stale"`
		}

		feeds := []feedStatus{}
		for _, f := range a.Poller.Feeds() {
			feeds = append(feeds, feedStatus{
				Name:     f.Name,
				Runs:     f.Runs(),
				Failures: f.Failures(),
				LastRun:  f.LastRun(),
				Stale:    !common.IsFresh(f.LastRun(), 3*f.Interval),
			})
		}

		status := map[string]interface{}{
			"version":       common.GetFullVersion(),
			"uptime":        time.Since(a.StartupTime).String(),
			"screen":        a.Navigator.Current(),
			"polling":       a.Poller.Running(),
			"revision":      snap.Revision,
			"signed_in":     snap.User != nil,
			"fiat_currency": snap.FiatCurrency,
			"total_fiat":    snap.TotalFiatBalance().String(),
			"feeds":         feeds,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	return mux
}
