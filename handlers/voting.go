// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/runoff/auth"
	"github.com/danielhkuo/runoff/cliparse"
	"github.com/danielhkuo/runoff/db"
	"github.com/danielhkuo/runoff/middleware"
	"github.com/danielhkuo/runoff/models"
)

type VotingHandler struct {
	store *db.Store
	cfg   cliparse.Config
}

func NewVotingHandler(store *db.Store, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{store: store, cfg: cfg}
}

// ClaimUsername handles POST /polls/{slug}/claim-username
func (h *VotingHandler) ClaimUsername(w http.ResponseWriter, r *http.Request) {
	var req models.ClaimUsernameRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}
	if n := utf8.RuneCountInString(username); n < 2 || n > 50 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username must be 2-50 characters")
		return
	}

	poll, ok := pollBySlug(w, r, h.store)
	if !ok {
		return
	}

	voterID, err := h.store.ClaimUsername(r.Context(), poll.PollID, username, time.Now())
	if err != nil {
		writeStoreError(w, r, err, "claim username")
		return
	}

	linkDevice(r, h.store, poll.PollID, models.RoleVoter, voterID)

	slog.Info("username claimed", "poll_id", poll.PollID, "username", username)

	middleware.JSONResponse(w, http.StatusCreated, models.ClaimUsernameResponse{
		VoterToken: voterID,
	})
}

// SubmitBallot handles POST /polls/{slug}/ballots
// A later submission by the same voter replaces the earlier ballot.
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	token, ok := voterToken(w, r)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, ok := pollBySlug(w, r, h.store)
	if !ok {
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt)
	if err := h.store.CastVote(r.Context(), poll.PollID, token, req.Ranks, ipHash, time.Now()); err != nil {
		writeStoreError(w, r, err, "cast vote")
		return
	}

	linkDevice(r, h.store, poll.PollID, models.RoleVoter, token)

	slog.Info("ballot cast", "poll_id", poll.PollID, "ranked", len(req.Ranks))

	middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{
		Message: "Ballot recorded",
	})
}

// GetMyBallot handles GET /polls/{slug}/my-ballot
func (h *VotingHandler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	token, ok := voterToken(w, r)
	if !ok {
		return
	}

	poll, ok := pollBySlug(w, r, h.store)
	if !ok {
		return
	}

	exists, err := h.store.VoterExists(r.Context(), poll.PollID, token)
	if err != nil {
		writeStoreError(w, r, err, "verify voter token")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token for this poll")
		return
	}

	ranks, err := h.store.VoterRanks(r.Context(), poll.PollID, token)
	if err != nil {
		writeStoreError(w, r, err, "query ballot")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyBallotResponse{Ranks: ranks})
}
