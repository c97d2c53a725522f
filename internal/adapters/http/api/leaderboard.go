package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/gauntlet/internal/domain/readiness"
	"github.com/okian/gauntlet/internal/domain/types"
	"github.com/okian/gauntlet/internal/domain/validation"
	"github.com/okian/gauntlet/pkg/logger"
)

// LeaderboardHandler serves /api/leaderboard.
type LeaderboardHandler struct {
	deps    Dependencies
	maxBody int64
	logger  logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies, maxBody int64) *LeaderboardHandler {
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &LeaderboardHandler{
		deps:    deps,
		maxBody: maxBody,
		logger:  logger.Named("http"),
	}
}

// HandleList handles GET /api/leaderboard.
func (h *LeaderboardHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.TopN(r.Context())
	if err != nil {
		h.fail(w, r, err, MsgLoadFailed)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleSubmit handles POST /api/leaderboard.
func (h *LeaderboardHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if !h.deps.IsReady() {
		writeError(w, http.StatusServiceUnavailable, MsgNotReady)
		return
	}

	doc, err := h.decodeBody(w, r)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	id, err := h.deps.Submit(r.Context(), validation.SubmissionFromJSON(doc))
	if err != nil {
		h.fail(w, r, err, MsgSaveFailed)
		return
	}
	writeJSON(w, http.StatusCreated, types.SubmitResponse{OK: true, ID: id})
}

// HandleReset handles DELETE /api/leaderboard.
func (h *LeaderboardHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.deps.Reset(r.Context())
	if err != nil {
		h.fail(w, r, err, MsgResetFailed)
		return
	}
	writeJSON(w, http.StatusOK, types.ResetResponse{OK: true, Deleted: deleted})
}

// decodeBody reads at most maxBody bytes and decodes a single JSON value.
// An empty body decodes to nil, which later fails validation on the name.
func (h *LeaderboardHandler) decodeBody(w http.ResponseWriter, r *http.Request) (any, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrBodyTooLarge
		}
		return nil, fmt.Errorf("%w: read body: %w", ErrBadRequest, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrBadRequest)
	}
	return doc, nil
}

// fail maps service errors onto the response contract.
func (h *LeaderboardHandler) fail(w http.ResponseWriter, r *http.Request, err error, storageMsg string) {
	ctx := r.Context()

	var ve *validation.ValidationError
	switch {
	case errors.Is(err, readiness.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, MsgNotReady)
	case errors.As(err, &ve):
		h.logger.Debug(ctx, "submission rejected",
			logger.String("requestId", RequestIDFromContext(ctx)),
			logger.String("reason", ve.Reason),
		)
		writeError(w, http.StatusBadRequest, ve.Message)
	default:
		h.logger.Error(ctx, storageMsg,
			logger.String("requestId", RequestIDFromContext(ctx)),
			logger.String("method", r.Method),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, storageMsg)
	}
}
