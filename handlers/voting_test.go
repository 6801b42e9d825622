// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/runoff/auth"
	"github.com/danielhkuo/runoff/models"
	"github.com/danielhkuo/runoff/testutil"
)

func TestClaimUsername(t *testing.T) {
	store := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(store, cfg)

	open := testutil.CreateTestPoll(t, store, cfg, models.StatusOpen)
	closed := testutil.CreateTestPoll(t, store, cfg, models.StatusClosed)
	testutil.CreateTestVoter(t, store, open.PollID, "taken")

	tests := []struct {
		name           string
		slug           string
		username       string
		expectedStatus int
	}{
		{"valid claim", open.ShareSlug, "alice", http.StatusCreated},
		{"username taken", open.ShareSlug, "taken", http.StatusConflict},
		{"username too short", open.ShareSlug, "a", http.StatusBadRequest},
		{"blank username", open.ShareSlug, "   ", http.StatusBadRequest},
		{"closed poll", closed.ShareSlug, "bob", http.StatusConflict},
		{"unknown slug", "nope", "carol", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/polls/"+tt.slug+"/claim-username",
				models.ClaimUsernameRequest{Username: tt.username}, nil)
			req.SetPathValue("slug", tt.slug)
			w := httptest.NewRecorder()

			handler.ClaimUsername(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.ClaimUsernameResponse
				testutil.AssertJSON(t, w, &resp)
				if err := auth.ValidateVoterToken(resp.VoterToken); err != nil {
					t.Errorf("Expected well-formed voter token, got %q", resp.VoterToken)
				}
			}
		})
	}
}

func TestClaimUsername_LinksVoterDevice(t *testing.T) {
	store := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(store, cfg)
	poll := testutil.CreateTestPoll(t, store, cfg, models.StatusOpen)

	req := testutil.MakeRequest("POST", "/polls/"+poll.ShareSlug+"/claim-username",
		models.ClaimUsernameRequest{Username: "alice"}, map[string]string{DeviceUUIDHeader: "phone-1"})
	req.SetPathValue("slug", poll.ShareSlug)
	w := httptest.NewRecorder()
	handler.ClaimUsername(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	ctx := context.Background()
	info, err := store.GetDevice(ctx, "phone-1")
	if err != nil {
		t.Fatalf("Expected device to be created: %v", err)
	}
	polls, err := store.ListDevicePolls(ctx, info.ID, poll.CreatedOn)
	if err != nil {
		t.Fatal(err)
	}
	if len(polls) != 1 || polls[0].Username == nil || *polls[0].Username != "alice" {
		t.Errorf("Expected voter link with username alice, got %+v", polls)
	}
}

func TestSubmitBallot(t *testing.T) {
	store := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(store, cfg)

	poll := testutil.CreateTestPoll(t, store, cfg, models.StatusOpen)
	other := testutil.CreateTestPoll(t, store, cfg, models.StatusOpen, "X", "Y")
	voter := testutil.CreateTestVoter(t, store, poll.PollID, "alice")
	tacos, sushi := poll.OptionID(t, "Tacos"), poll.OptionID(t, "Sushi")

	stranger, _ := auth.GenerateVoterToken()

	tests := []struct {
		name           string
		token          string
		ranks          []int64
		expectedStatus int
	}{
		{"valid ballot", voter, []int64{sushi, tacos}, http.StatusOK},
		{"replacement ballot", voter, []int64{tacos}, http.StatusOK},
		{"missing token", "", []int64{tacos}, http.StatusUnauthorized},
		{"malformed token", "not-a-token", []int64{tacos}, http.StatusUnauthorized},
		{"unclaimed token", stranger, []int64{tacos}, http.StatusUnauthorized},
		{"empty ranks", voter, []int64{}, http.StatusBadRequest},
		{"duplicate option", voter, []int64{tacos, tacos}, http.StatusBadRequest},
		{"option from another poll", voter, []int64{other.OptionID(t, "X")}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.token != "" {
				headers[VoterTokenHeader] = tt.token
			}
			req := testutil.MakeRequest("POST", "/polls/"+poll.ShareSlug+"/ballots",
				models.CastVoteRequest{Ranks: tt.ranks}, headers)
			req.SetPathValue("slug", poll.ShareSlug)
			w := httptest.NewRecorder()

			handler.SubmitBallot(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	// Only the replacement survives
	ranks, err := store.VoterRanks(context.Background(), poll.PollID, voter)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranks) != 1 || ranks[0].OptionID != tacos {
		t.Errorf("Expected single Tacos rank, got %+v", ranks)
	}
}

func TestSubmitBallot_ClosedPoll(t *testing.T) {
	store := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(store, cfg)

	poll := testutil.CreateTestPoll(t, store, cfg, models.StatusOpen)
	voter := testutil.CreateTestVoter(t, store, poll.PollID, "alice")
	testutil.ClosePoll(t, store, poll.PollID)

	req := testutil.MakeRequest("POST", "/polls/"+poll.ShareSlug+"/ballots",
		models.CastVoteRequest{Ranks: []int64{poll.OptionID(t, "Tacos")}},
		map[string]string{VoterTokenHeader: voter})
	req.SetPathValue("slug", poll.ShareSlug)
	w := httptest.NewRecorder()

	handler.SubmitBallot(w, req)
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestGetMyBallot(t *testing.T) {
	store := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(store, cfg)

	poll := testutil.CreateTestPoll(t, store, cfg, models.StatusOpen)
	voter := testutil.CreateTestVoter(t, store, poll.PollID, "alice")
	silent := testutil.CreateTestVoter(t, store, poll.PollID, "bob")
	testutil.CastTestVote(t, store, poll.PollID, voter, poll.OptionID(t, "Pizza"), poll.OptionID(t, "Tacos"))
	stranger, _ := auth.GenerateVoterToken()

	get := func(token string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("GET", "/polls/"+poll.ShareSlug+"/my-ballot", nil,
			map[string]string{VoterTokenHeader: token})
		req.SetPathValue("slug", poll.ShareSlug)
		w := httptest.NewRecorder()
		handler.GetMyBallot(w, req)
		return w
	}

	w := get(voter)
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.MyBallotResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Ranks) != 2 || resp.Ranks[0].Name != "Pizza" || resp.Ranks[1].Name != "Tacos" {
		t.Errorf("Expected [Pizza Tacos], got %+v", resp.Ranks)
	}

	w = get(silent)
	testutil.AssertStatus(t, w, http.StatusOK)
	resp = models.MyBallotResponse{}
	testutil.AssertJSON(t, w, &resp)
	if resp.Ranks == nil || len(resp.Ranks) != 0 {
		t.Errorf("Expected empty ranks list, got %+v", resp.Ranks)
	}

	testutil.AssertStatus(t, get(stranger), http.StatusUnauthorized)
	testutil.AssertStatus(t, get(""), http.StatusUnauthorized)
}
