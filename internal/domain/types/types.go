// Package types contains the wire shapes shared by the HTTP API and its clients.
package types

// Entry is a leaderboard row as returned by GET /api/leaderboard.
type Entry struct {
	Name      string `json:"name"`
	Cash      int64  `json:"cash"`
	Sales     int64  `json:"sales"`
	Burn      int64  `json:"burn"`
	CreatedAt string `json:"createdAt"`
}

// Health is the body of GET /health.
type Health struct {
	OK bool `json:"ok"`
	DB bool `json:"db"`
}

// SubmitResponse is the body of a successful POST /api/leaderboard.
type SubmitResponse struct {
	OK bool  `json:"ok"`
	ID int64 `json:"id"`
}

// ResetResponse is the body of a successful DELETE /api/leaderboard.
type ResetResponse struct {
	OK      bool  `json:"ok"`
	Deleted int64 `json:"deleted"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
