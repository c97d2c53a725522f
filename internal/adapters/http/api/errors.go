package api

import "errors"

// Client-facing error messages. Raw internal errors never reach a response.
const (
	MsgNotReady        = "Database is not ready."
	MsgLoadFailed      = "Failed to load leaderboard."
	MsgSaveFailed      = "Failed to save leaderboard entry."
	MsgResetFailed     = "Failed to reset leaderboard."
	MsgInvalidJSON     = "Invalid JSON body."
	MsgBodyTooLarge    = "Request body too large."
	MsgNotFound        = "Not found."
	MsgInternalFailure = "Internal server error."
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBodyTooLarge = errors.New("request body too large")
)
