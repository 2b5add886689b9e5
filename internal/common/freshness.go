// Package common provides shared utilities for the advisor
package common

import "time"

// Freshness windows for market data.
const (
	FreshnessMarketSnapshot = 2 * time.Hour // default staleness window for a quotes snapshot
	FreshnessPortfolioFile  = 24 * time.Hour
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}

// IsStale reports whether data timestamped asof is older than window as seen
// at now. Exactly window old is still fresh.
func IsStale(asof, now time.Time, window time.Duration) bool {
	return now.Sub(asof) > window
}
