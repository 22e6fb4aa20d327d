// Package interfaces defines collaborator contracts for Kestrel
package interfaces

import "context"

// SessionStore persists the access token and user preferences across
// restarts.
type SessionStore interface {
	// GetAccessToken returns the stored token, or an error when absent
	GetAccessToken(ctx context.Context) (string, error)

	// SetAccessToken stores a token obtained at sign-in
	SetAccessToken(ctx context.Context, token string) error

	// RemoveAccessToken destroys the stored token
	RemoveAccessToken(ctx context.Context) error

	// GetDefaultFiatCurrency returns the persisted display currency, or ""
	GetDefaultFiatCurrency(ctx context.Context) (string, error)

	// SetDefaultFiatCurrency persists the display currency preference
	SetDefaultFiatCurrency(ctx context.Context, code string) error

	Close() error
}

// Screen names a navigation target. The wallet core never renders; it only
// asks the Navigator to move between named screens.
type Screen string

const (
	ScreenSignIn         Screen = "signin"
	ScreenVerify         Screen = "verify"
	ScreenWallet         Screen = "wallet"
	ScreenCurrencyDetail Screen = "currency_detail"
)

// Navigator moves the UI between screens. Implementations are outside this
// core; the in-repo one records and logs transitions.
type Navigator interface {
	// SetStackRoot replaces the navigation stack with the named screen
	SetStackRoot(screen Screen)

	// Push pushes a screen, optionally scoped to a currency code
	Push(screen Screen, currency string)
}
