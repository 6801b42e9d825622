// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/runoff/auth"
	"github.com/danielhkuo/runoff/db"
	"github.com/danielhkuo/runoff/middleware"
	"github.com/danielhkuo/runoff/models"
)

const (
	AdminKeyHeader   = "X-Admin-Key"
	VoterTokenHeader = "X-Voter-Token"
	DeviceUUIDHeader = "X-Device-UUID"
)

// writeStoreError maps db sentinel errors to HTTP status codes
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
	case errors.Is(err, db.ErrPollClosed):
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is closed")
	case errors.Is(err, db.ErrUsernameTaken):
		middleware.ErrorResponse(w, http.StatusConflict, "Username already taken")
	case errors.Is(err, db.ErrUnknownVoter):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token for this poll")
	case errors.Is(err, db.ErrEmptyBallot),
		errors.Is(err, db.ErrDuplicateOption),
		errors.Is(err, db.ErrInvalidOption):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("failed to "+action, "error", err, "request_id", middleware.RequestID(r.Context()))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}

// adminPollID parses {id} and checks X-Admin-Key against it.
// On failure the response is already written.
func adminPollID(w http.ResponseWriter, r *http.Request, salt string) (int64, bool) {
	pollID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id must be an integer")
		return 0, false
	}

	if err := auth.ValidateAdminKey(pollID, r.Header.Get(AdminKeyHeader), salt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return 0, false
	}
	return pollID, true
}

// pollBySlug loads the poll named by {slug}. On failure the response is already written.
func pollBySlug(w http.ResponseWriter, r *http.Request, store *db.Store) (models.Poll, bool) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return models.Poll{}, false
	}

	poll, err := store.GetPollBySlug(r.Context(), slug)
	if err != nil {
		writeStoreError(w, r, err, "query poll")
		return models.Poll{}, false
	}
	return poll, true
}

// voterToken reads and shape-checks X-Voter-Token. On failure the response is already written.
func voterToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.Header.Get(VoterTokenHeader)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token header required")
		return "", false
	}
	if err := auth.ValidateVoterToken(token); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token")
		return "", false
	}
	return token, true
}

// linkDevice records the calling device against a poll when X-Device-UUID is
// sent. Failures are logged and never fail the request.
func linkDevice(r *http.Request, store *db.Store, pollID int64, role, voterID string) {
	deviceUUID := r.Header.Get(DeviceUUIDHeader)
	if deviceUUID == "" {
		return
	}

	now := time.Now()
	deviceID, err := store.EnsureDevice(r.Context(), deviceUUID, now)
	if err != nil {
		slog.Warn("failed to get/create device", "error", err)
		return
	}
	if err := store.LinkDeviceToPoll(r.Context(), deviceID, pollID, role, voterID, now); err != nil {
		slog.Warn("failed to link device to poll", "error", err, "poll_id", pollID)
	}
}
