// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/runoff/auth"
	"github.com/danielhkuo/runoff/cliparse"
	"github.com/danielhkuo/runoff/db"
	"github.com/danielhkuo/runoff/middleware"
	"github.com/danielhkuo/runoff/models"
	"github.com/danielhkuo/runoff/results"
)

const (
	maxTitleLen        = 200
	maxOptionNameLen   = 100
	maxOptions         = 50
	maxDurationMinutes = 30 * 24 * 60
)

type PollHandler struct {
	store   *db.Store
	cfg     cliparse.Config
	results *results.Service
}

func NewPollHandler(store *db.Store, cfg cliparse.Config, svc *results.Service) *PollHandler {
	return &PollHandler{store: store, cfg: cfg, results: svc}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if len(title) > maxTitleLen {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is too long")
		return
	}

	options, msg := cleanOptions(req.Options)
	if msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	duration := h.cfg.PollDuration
	switch {
	case req.DurationMinutes < 0 || req.DurationMinutes > maxDurationMinutes:
		middleware.ErrorResponse(w, http.StatusBadRequest, "duration_minutes must be between 1 and 43200")
		return
	case req.DurationMinutes > 0:
		duration = time.Duration(req.DurationMinutes) * time.Minute
	}

	now := time.Now()
	poll, _, err := h.store.CreatePoll(r.Context(), db.NewPoll{
		Title:     title,
		Options:   options,
		CreatedOn: now,
		ClosesOn:  now.Add(duration),
	}, h.cfg.PollSlugSalt)
	if err != nil {
		writeStoreError(w, r, err, "create poll")
		return
	}

	linkDevice(r, h.store, poll.PollID, models.RoleAdmin, "")

	slog.Info("poll created", "poll_id", poll.PollID, "share_slug", poll.ShareSlug, "options", len(options))

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		PollID:    poll.PollID,
		AdminKey:  auth.GenerateAdminKey(poll.PollID, h.cfg.AdminKeySalt),
		ShareSlug: poll.ShareSlug,
		ClosesOn:  poll.ClosesOn,
	})
}

// cleanOptions trims option names and returns a message when they are unusable
func cleanOptions(raw []string) ([]string, string) {
	if len(raw) > maxOptions {
		return nil, "too many options"
	}

	seen := make(map[string]bool, len(raw))
	options := make([]string, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			return nil, "option names cannot be blank"
		case len(name) > maxOptionNameLen:
			return nil, "option name is too long"
		case seen[strings.ToLower(name)]:
			return nil, "option names must be unique"
		}
		seen[strings.ToLower(name)] = true
		options = append(options, name)
	}

	if len(options) < 2 {
		return nil, "at least 2 options are required"
	}
	return options, ""
}

// GetPollAdmin handles GET /polls/{id}/admin
// Returns poll details for admin access using poll ID and admin key
func (h *PollHandler) GetPollAdmin(w http.ResponseWriter, r *http.Request) {
	pollID, ok := adminPollID(w, r, h.cfg.AdminKeySalt)
	if !ok {
		return
	}

	ctx := r.Context()
	poll, err := h.store.GetPoll(ctx, pollID)
	if err != nil {
		writeStoreError(w, r, err, "query poll")
		return
	}

	options, err := h.store.ListOptions(ctx, pollID)
	if err != nil {
		writeStoreError(w, r, err, "query options")
		return
	}

	count, err := h.store.CountVoters(ctx, pollID)
	if err != nil {
		writeStoreError(w, r, err, "count ballots")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollAdminView{
		Poll:        poll,
		Options:     options,
		Status:      poll.Status(time.Now()),
		BallotCount: count,
	})
}

// ClosePoll handles POST /polls/{id}/close
// Ends voting now and returns the final tabulation
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := adminPollID(w, r, h.cfg.AdminKeySalt)
	if !ok {
		return
	}

	poll, err := h.store.ClosePoll(r.Context(), pollID, time.Now())
	if err != nil {
		writeStoreError(w, r, err, "close poll")
		return
	}

	// any cached entry carries the old closes_on
	h.results.Forget(pollID)
	res, err := h.results.Compute(r.Context(), poll)
	if err != nil {
		slog.Error("failed to compute results", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}

	slog.Info("poll closed", "poll_id", pollID, "winner_id", res.Tabulation.Winner.OptionID)

	middleware.JSONResponse(w, http.StatusOK, models.ClosePollResponse{
		ClosedAt: poll.ClosesOn,
		Results:  res,
	})
}
