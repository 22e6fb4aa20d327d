// Package common provides shared utilities for Kestrel
package common

import "time"

// Default poll intervals for the data feeds
const (
	DefaultUserInterval         = 5 * time.Second
	DefaultTransactionsInterval = 5 * time.Second
	DefaultApprovalsInterval    = 5 * time.Second
	DefaultAccountInterval      = 10 * time.Second // balances + rates move slower
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
