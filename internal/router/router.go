// Package router derives navigation intents from the shared wallet state.
// It holds no timers and no state of its own: Decide is a pure function and
// is re-evaluated on every state revision.
package router

import (
	"github.com/kestrelpay/kestrel/internal/interfaces"
	"github.com/kestrelpay/kestrel/internal/settings"
)

// Kind classifies a redirect decision.
type Kind int

const (
	// None leaves the current screen alone.
	None Kind = iota
	// Verify routes to the identity verification flow.
	Verify
	// CurrencyDetail routes to one currency's detail view.
	CurrencyDetail
)

// Redirect is a navigation intent derived from state.
type Redirect struct {
	Kind     Kind
	Screen   interfaces.Screen
	Currency string // set for CurrencyDetail
}

// Decide computes the redirect for a state snapshot. First match wins:
// an unverified user always goes to verification before anything else; a
// pending currency selection routes to that currency's detail view.
func Decide(snap settings.Snapshot) Redirect {
	if snap.User != nil && snap.User.RegistrationStatus.NeedsVerification() {
		return Redirect{Kind: Verify, Screen: interfaces.ScreenVerify}
	}

	if snap.SelectedCurrency != "" {
		return Redirect{
			Kind:     CurrencyDetail,
			Screen:   interfaces.ScreenCurrencyDetail,
			Currency: snap.SelectedCurrency,
		}
	}

	return Redirect{Kind: None}
}
