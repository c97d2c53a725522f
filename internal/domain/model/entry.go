// Package model contains domain models passed between layers.
package model

// Entry is a stored leaderboard record. Entries are never updated in place.
type Entry struct {
	ID        int64  // storage-assigned, monotonically increasing
	Name      string // normalized display name
	Cash      int64
	Sales     int64
	Burn      int64
	CreatedAt string // storage timestamp, "YYYY-MM-DD HH:MM:SS" UTC
}

// Candidate is a validated entry that has not been stored yet.
type Candidate struct {
	Name  string
	Cash  int64
	Sales int64
	Burn  int64
}

// RanksBefore reports whether a is listed ahead of b on the leaderboard:
// cash DESC, sales DESC, burn ASC, then id ASC.
func RanksBefore(a, b Entry) bool {
	if a.Cash != b.Cash {
		return a.Cash > b.Cash
	}
	if a.Sales != b.Sales {
		return a.Sales > b.Sales
	}
	if a.Burn != b.Burn {
		return a.Burn < b.Burn
	}
	return a.ID < b.ID
}
