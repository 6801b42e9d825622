// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/runoff/cliparse"
	"github.com/danielhkuo/runoff/db"
	"github.com/danielhkuo/runoff/middleware"
	"github.com/danielhkuo/runoff/models"
)

type DeviceHandler struct {
	store *db.Store
	cfg   cliparse.Config
}

func NewDeviceHandler(store *db.Store, cfg cliparse.Config) *DeviceHandler {
	return &DeviceHandler{store: store, cfg: cfg}
}

// Register handles POST /devices/register
// Registers a device and returns its device_id (or finds existing)
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	deviceUUID := r.Header.Get(DeviceUUIDHeader)
	if deviceUUID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "X-Device-UUID header required")
		return
	}

	var req models.RegisterDeviceRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !isValidPlatform(req.Platform) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "platform must be one of: ios, macos, android, web")
		return
	}

	deviceID, isNew, err := h.store.RegisterDevice(r.Context(), deviceUUID, req.Platform, time.Now())
	if err != nil {
		slog.Error("failed to register device", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	slog.Info("device registered", "device_id", deviceID, "platform", req.Platform, "is_new", isNew)

	middleware.JSONResponse(w, status, models.RegisterDeviceResponse{
		DeviceID: deviceID,
		IsNew:    isNew,
	})
}

// device resolves X-Device-UUID and bumps last_seen. On failure the response is already written.
func (h *DeviceHandler) device(w http.ResponseWriter, r *http.Request) (models.DeviceInfo, bool) {
	deviceUUID := r.Header.Get(DeviceUUIDHeader)
	if deviceUUID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "X-Device-UUID header required")
		return models.DeviceInfo{}, false
	}

	info, err := h.store.GetDevice(r.Context(), deviceUUID)
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Device not registered")
		return models.DeviceInfo{}, false
	}
	if err != nil {
		slog.Error("failed to query device", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.DeviceInfo{}, false
	}

	now := time.Now()
	if err := h.store.TouchDevice(r.Context(), info.ID, now); err != nil {
		slog.Error("failed to update device last_seen", "error", err)
	} else {
		info.LastSeenAt = now.UTC().Truncate(time.Second)
	}
	return info, true
}

// GetMe handles GET /devices/me
func (h *DeviceHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	info, ok := h.device(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, info)
}

// GetMyPolls handles GET /devices/my-polls
// Returns polls where this device is admin or voter
func (h *DeviceHandler) GetMyPolls(w http.ResponseWriter, r *http.Request) {
	info, ok := h.device(w, r)
	if !ok {
		return
	}

	polls, err := h.store.ListDevicePolls(r.Context(), info.ID, time.Now())
	if err != nil {
		slog.Error("failed to query device polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.GetMyPollsResponse{Polls: polls})
}

func isValidPlatform(platform string) bool {
	switch platform {
	case models.PlatformIOS, models.PlatformMacOS, models.PlatformAndroid, models.PlatformWeb:
		return true
	}
	return false
}
