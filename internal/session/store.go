// Package session persists the wallet session across restarts.
package session

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/timshannon/badgerhold/v4"

	"github.com/kestrelpay/kestrel/internal/common"
	"github.com/kestrelpay/kestrel/internal/interfaces"
)

const (
	keyAccessToken  = "access_token"
	keyFiatCurrency = "default_fiat_currency"
)

// Entry is a key-value pair stored in BadgerHold.
type Entry struct {
	Key   string `badgerhold:"key"`
	Value string
}

// Store is a BadgerHold-backed SessionStore.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens the session store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("Session store opened")

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) get(key string) (string, error) {
	var entry Entry
	err := s.db.Get(key, &entry)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return "", fmt.Errorf("key '%s' not found", key)
		}
		return "", fmt.Errorf("failed to get key '%s': %w", key, err)
	}
	return entry.Value, nil
}

func (s *Store) set(key, value string) error {
	entry := Entry{Key: key, Value: value}
	if err := s.db.Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to set key '%s': %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	err := s.db.Delete(key, Entry{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}
	return nil
}

// GetAccessToken returns the stored token, or an error when absent.
func (s *Store) GetAccessToken(_ context.Context) (string, error) {
	return s.get(keyAccessToken)
}

// SetAccessToken stores a token obtained at sign-in.
func (s *Store) SetAccessToken(_ context.Context, token string) error {
	if err := s.set(keyAccessToken, token); err != nil {
		return err
	}
	s.logger.Debug().Msg("Access token stored")
	return nil
}

// RemoveAccessToken destroys the stored token.
func (s *Store) RemoveAccessToken(_ context.Context) error {
	if err := s.delete(keyAccessToken); err != nil {
		return err
	}
	s.logger.Info().Msg("Access token removed")
	return nil
}

// GetDefaultFiatCurrency returns the persisted display currency, or "".
func (s *Store) GetDefaultFiatCurrency(_ context.Context) (string, error) {
	value, err := s.get(keyFiatCurrency)
	if err != nil {
		return "", nil
	}
	return value, nil
}

// SetDefaultFiatCurrency persists the display currency preference.
func (s *Store) SetDefaultFiatCurrency(_ context.Context, code string) error {
	return s.set(keyFiatCurrency, code)
}

// Close closes the session database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// TokenExpired inspects a JWT access token's exp claim without verifying the
// signature. The backend is the authority on token validity; this only lets
// the client skip calls with an obviously dead token. Opaque (non-JWT) tokens
// are never reported expired.
func TokenExpired(token string, now time.Time) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}

// Ensure Store implements SessionStore
var _ interfaces.SessionStore = (*Store)(nil)
