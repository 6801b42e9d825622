// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/runoff/models"
	"github.com/danielhkuo/runoff/results"
	"github.com/danielhkuo/runoff/testutil"
)

func TestDeviceRegister(t *testing.T) {
	store := testutil.SetupTestDB(t)
	handler := NewDeviceHandler(store, testutil.GetTestConfig())

	var firstID string
	tests := []struct {
		name           string
		deviceUUID     string
		platform       string
		expectedStatus int
		expectNew      bool
	}{
		{"new device registration", "uuid-1", models.PlatformIOS, http.StatusCreated, true},
		{"existing device registration", "uuid-1", models.PlatformMacOS, http.StatusOK, false},
		{"missing X-Device-UUID header", "", models.PlatformWeb, http.StatusBadRequest, false},
		{"invalid platform", "uuid-2", "windows", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.deviceUUID != "" {
				headers[DeviceUUIDHeader] = tt.deviceUUID
			}
			req := testutil.MakeRequest("POST", "/devices/register",
				models.RegisterDeviceRequest{Platform: tt.platform}, headers)
			w := httptest.NewRecorder()

			handler.Register(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus >= 300 {
				return
			}
			var resp models.RegisterDeviceResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.IsNew != tt.expectNew {
				t.Errorf("Expected is_new=%v, got %v", tt.expectNew, resp.IsNew)
			}
			if firstID == "" {
				firstID = resp.DeviceID
			} else if resp.DeviceID != firstID {
				t.Errorf("Expected same device_id %s, got %s", firstID, resp.DeviceID)
			}
		})
	}

	info, err := store.GetDevice(context.Background(), "uuid-1")
	if err != nil {
		t.Fatal(err)
	}
	if info.Platform != models.PlatformMacOS {
		t.Errorf("Expected platform updated to macos, got %s", info.Platform)
	}
}

func TestDeviceGetMe(t *testing.T) {
	store := testutil.SetupTestDB(t)
	handler := NewDeviceHandler(store, testutil.GetTestConfig())

	deviceID, _, err := store.RegisterDevice(context.Background(), "uuid-me", models.PlatformAndroid, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name           string
		deviceUUID     string
		expectedStatus int
	}{
		{"get existing device", "uuid-me", http.StatusOK},
		{"device not found", "uuid-unknown", http.StatusNotFound},
		{"missing header", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("GET", "/devices/me", nil, map[string]string{DeviceUUIDHeader: tt.deviceUUID})
			w := httptest.NewRecorder()

			handler.GetMe(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusOK {
				var info models.DeviceInfo
				testutil.AssertJSON(t, w, &info)
				if info.ID != deviceID || info.Platform != models.PlatformAndroid {
					t.Errorf("Unexpected device: %+v", info)
				}
				if !info.LastSeenAt.After(info.CreatedAt) {
					t.Error("Expected last_seen_at to be bumped")
				}
			}
		})
	}
}

func TestDeviceGetMyPolls(t *testing.T) {
	store := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewDeviceHandler(store, cfg)
	ctx := context.Background()

	deviceID, _, err := store.RegisterDevice(ctx, "uuid-polls", models.PlatformIOS, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	owned := testutil.CreateTestPoll(t, store, cfg, models.StatusOpen)
	voted := testutil.CreateTestPoll(t, store, cfg, models.StatusOpen)
	voter := testutil.CreateTestVoter(t, store, voted.PollID, "alice")
	testutil.CastTestVote(t, store, voted.PollID, voter, voted.OptionID(t, "Tacos"))
	testutil.ClosePoll(t, store, voted.PollID)

	now := time.Now()
	if err := store.LinkDeviceToPoll(ctx, deviceID, owned.PollID, models.RoleAdmin, "", now.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := store.LinkDeviceToPoll(ctx, deviceID, voted.PollID, models.RoleVoter, voter, now); err != nil {
		t.Fatal(err)
	}

	t.Run("get polls for device", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/devices/my-polls", nil, map[string]string{DeviceUUIDHeader: "uuid-polls"})
		w := httptest.NewRecorder()
		handler.GetMyPolls(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.GetMyPollsResponse
		testutil.AssertJSON(t, w, &resp)
		if len(resp.Polls) != 2 {
			t.Fatalf("Expected 2 polls, got %d", len(resp.Polls))
		}

		// Newest link first
		first, second := resp.Polls[0], resp.Polls[1]
		if first.PollID != voted.PollID || first.Role != models.RoleVoter {
			t.Errorf("Expected voter link first, got %+v", first)
		}
		if first.Status != models.StatusClosed || first.BallotCount != 1 {
			t.Errorf("Expected closed poll with 1 ballot, got %+v", first)
		}
		if first.Username == nil || *first.Username != "alice" {
			t.Errorf("Expected username alice, got %v", first.Username)
		}
		if second.PollID != owned.PollID || second.Role != models.RoleAdmin || second.Username != nil {
			t.Errorf("Expected admin link second, got %+v", second)
		}
	})

	t.Run("device not found", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/devices/my-polls", nil, map[string]string{DeviceUUIDHeader: "nope"})
		w := httptest.NewRecorder()
		handler.GetMyPolls(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("no polls", func(t *testing.T) {
		if _, _, err := store.RegisterDevice(ctx, "uuid-empty", models.PlatformWeb, time.Now()); err != nil {
			t.Fatal(err)
		}
		req := testutil.MakeRequest("GET", "/devices/my-polls", nil, map[string]string{DeviceUUIDHeader: "uuid-empty"})
		w := httptest.NewRecorder()
		handler.GetMyPolls(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.GetMyPollsResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Polls == nil || len(resp.Polls) != 0 {
			t.Errorf("Expected empty polls list, got %+v", resp.Polls)
		}
	})
}

func TestLinkDevice_KeepsAdminRole(t *testing.T) {
	store := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	polls := NewPollHandler(store, cfg, results.NewService(store, cfg.ResultsCacheTTL))
	voting := NewVotingHandler(store, cfg)
	headers := map[string]string{DeviceUUIDHeader: "uuid-both"}

	req := testutil.MakeRequest("POST", "/polls", models.CreatePollRequest{
		Title:   "Mine",
		Options: []string{"A", "B"},
	}, headers)
	w := httptest.NewRecorder()
	polls.CreatePoll(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created models.CreatePollResponse
	testutil.AssertJSON(t, w, &created)

	// The admin also votes from the same device
	req = testutil.MakeRequest("POST", "/polls/"+created.ShareSlug+"/claim-username",
		models.ClaimUsernameRequest{Username: "owner"}, headers)
	req.SetPathValue("slug", created.ShareSlug)
	w = httptest.NewRecorder()
	voting.ClaimUsername(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	ctx := context.Background()
	info, err := store.GetDevice(ctx, "uuid-both")
	if err != nil {
		t.Fatal(err)
	}
	if info.Platform != models.PlatformWeb {
		t.Errorf("Expected implicit web device, got %s", info.Platform)
	}

	linked, err := store.ListDevicePolls(ctx, info.ID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(linked) != 1 {
		t.Fatalf("Expected one link, got %d", len(linked))
	}
	if linked[0].Role != models.RoleAdmin {
		t.Errorf("Expected admin role to be kept, got %s", linked[0].Role)
	}
	if linked[0].Username == nil || *linked[0].Username != "owner" {
		t.Errorf("Expected voter id recorded on admin link, got %v", linked[0].Username)
	}
}
