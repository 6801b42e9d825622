// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/runoff/audit"
	"github.com/danielhkuo/runoff/auth"
	"github.com/danielhkuo/runoff/cliparse"
	"github.com/danielhkuo/runoff/db"
	"github.com/danielhkuo/runoff/middleware"
	"github.com/danielhkuo/runoff/models"
	"github.com/danielhkuo/runoff/results"
)

type ResultsHandler struct {
	store   *db.Store
	cfg     cliparse.Config
	results *results.Service
}

func NewResultsHandler(store *db.Store, cfg cliparse.Config, svc *results.Service) *ResultsHandler {
	return &ResultsHandler{store: store, cfg: cfg, results: svc}
}

// remaining describes how long until a poll closes, or how long ago it did
func remaining(poll models.Poll, now time.Time) string {
	if poll.IsOpen(now) {
		return humanize.RelTime(now, poll.ClosesOn, "left", "")
	}
	return "closed " + humanize.RelTime(poll.ClosesOn, now, "ago", "")
}

// GetPoll handles GET /polls/{slug}
// Returns poll details and options, but NOT results (results are sealed until closed).
// A valid X-Voter-Token adds the caller's own ranking.
func (h *ResultsHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := pollBySlug(w, r, h.store)
	if !ok {
		return
	}

	ctx := r.Context()
	options, err := h.store.ListOptions(ctx, poll.PollID)
	if err != nil {
		writeStoreError(w, r, err, "query options")
		return
	}

	count, err := h.store.CountVoters(ctx, poll.PollID)
	if err != nil {
		writeStoreError(w, r, err, "count ballots")
		return
	}

	now := time.Now()
	view := models.PollView{
		Poll:        poll,
		Options:     options,
		Open:        poll.IsOpen(now),
		Remaining:   remaining(poll, now),
		BallotCount: count,
	}

	if token := r.Header.Get(VoterTokenHeader); token != "" && auth.ValidateVoterToken(token) == nil {
		h.addVoter(r, &view, token)
	}

	middleware.JSONResponse(w, http.StatusOK, view)
}

// addVoter fills in the caller's claimed name and ranking. Unknown tokens are ignored.
func (h *ResultsHandler) addVoter(r *http.Request, view *models.PollView, token string) {
	ctx := r.Context()
	name, err := h.store.Username(ctx, view.Poll.PollID, token)
	if errors.Is(err, db.ErrNotFound) {
		return
	}
	if err != nil {
		slog.Warn("failed to load username", "error", err, "poll_id", view.Poll.PollID)
		return
	}
	view.MyUsername = name

	ranks, err := h.store.VoterRanks(ctx, view.Poll.PollID, token)
	if err != nil {
		slog.Warn("failed to load voter ranks", "error", err, "poll_id", view.Poll.PollID)
		return
	}
	if len(ranks) > 0 {
		view.MyRanks = ranks
	}
}

// GetResults handles GET /polls/{slug}/results
// Returns 403 while the poll is open (results are sealed)
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	poll, ok := pollBySlug(w, r, h.store)
	if !ok {
		return
	}

	// Results are sealed while poll is open
	if poll.IsOpen(time.Now()) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until poll is closed")
		return
	}

	res, err := h.results.Compute(r.Context(), poll)
	if err != nil {
		slog.Error("failed to compute results", "error", err, "poll_id", poll.PollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, res)
}

// GetAudit handles GET /polls/{slug}/audit
// Publishes every ballot of a closed poll under anonymous voter IDs
func (h *ResultsHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
	poll, ok := pollBySlug(w, r, h.store)
	if !ok {
		return
	}

	if poll.IsOpen(time.Now()) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Ballots are hidden until poll is closed")
		return
	}

	ctx := r.Context()
	ballots, err := h.store.FetchBallots(ctx, poll.PollID)
	if err != nil {
		writeStoreError(w, r, err, "query ballots")
		return
	}
	options, err := h.store.ListOptions(ctx, poll.PollID)
	if err != nil {
		writeStoreError(w, r, err, "query options")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.AuditResponse{
		PollID:     poll.PollID,
		InputsHash: audit.Fingerprint(ballots),
		Ballots:    audit.Ballots(poll.PollID, ballots, options, h.cfg.AuditSalt),
	})
}

// GetBallotCount handles GET /polls/{slug}/ballot-count
// Returns the number of voters with a ballot (visible even while open)
func (h *ResultsHandler) GetBallotCount(w http.ResponseWriter, r *http.Request) {
	poll, ok := pollBySlug(w, r, h.store)
	if !ok {
		return
	}

	count, err := h.store.CountVoters(r.Context(), poll.PollID)
	if err != nil {
		writeStoreError(w, r, err, "count ballots")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.BallotCountResponse{BallotCount: count})
}

// GetPreview handles GET /polls/{slug}/preview
// Returns compact poll data for link previews
func (h *ResultsHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	poll, ok := pollBySlug(w, r, h.store)
	if !ok {
		return
	}

	ctx := r.Context()
	options, err := h.store.ListOptions(ctx, poll.PollID)
	if err != nil {
		writeStoreError(w, r, err, "query options")
		return
	}
	count, err := h.store.CountVoters(ctx, poll.PollID)
	if err != nil {
		writeStoreError(w, r, err, "count ballots")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollPreviewResponse{
		Title:       poll.Title,
		Status:      poll.Status(time.Now()),
		OptionCount: len(options),
		BallotCount: count,
	})
}
