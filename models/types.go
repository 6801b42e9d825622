// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Poll status constants (derived from closes_on, never stored)
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Voting method constants
const (
	MethodIRV = "irv"
)

// Device roles
const (
	RoleVoter = "voter"
	RoleAdmin = "admin"
)

// Platforms
const (
	PlatformIOS     = "ios"
	PlatformMacOS   = "macos"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// Request types

type CreatePollRequest struct {
	Title           string   `json:"title"`
	Options         []string `json:"options"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
}

type ClaimUsernameRequest struct {
	Username string `json:"username"`
}

// Option IDs in preference order, first choice first
type CastVoteRequest struct {
	Ranks []int64 `json:"ranks"`
}

type RegisterDeviceRequest struct {
	Platform string `json:"platform"`
}

// Response types

type CreatePollResponse struct {
	PollID    int64     `json:"poll_id"`
	AdminKey  string    `json:"admin_key"`
	ShareSlug string    `json:"share_slug"`
	ClosesOn  time.Time `json:"closes_on"`
}

type ClaimUsernameResponse struct {
	VoterToken string `json:"voter_token"`
}

type CastVoteResponse struct {
	Message string `json:"message"`
}

type MyBallotResponse struct {
	Ranks []UserRank `json:"ranks"`
}

type ClosePollResponse struct {
	ClosedAt time.Time   `json:"closed_at"`
	Results  PollResults `json:"results"`
}

type BallotCountResponse struct {
	BallotCount int `json:"ballot_count"`
}

type PollPreviewResponse struct {
	Title       string `json:"title"`
	Status      string `json:"status"`
	OptionCount int    `json:"option_count"`
	BallotCount int    `json:"ballot_count"`
}

type RegisterDeviceResponse struct {
	DeviceID string `json:"device_id"`
	IsNew    bool   `json:"is_new"`
}

type GetMyPollsResponse struct {
	Polls []DevicePollSummary `json:"polls"`
}

// Domain types

type Poll struct {
	PollID    int64     `json:"poll_id"`
	Title     string    `json:"title"`
	ShareSlug string    `json:"share_slug"`
	CreatedOn time.Time `json:"created_on"`
	ClosesOn  time.Time `json:"closes_on"`
}

// IsOpen reports whether ballots are still accepted at now
func (p Poll) IsOpen(now time.Time) bool {
	return now.Before(p.ClosesOn)
}

// Status returns StatusOpen or StatusClosed at now
func (p Poll) Status(now time.Time) string {
	if p.IsOpen(now) {
		return StatusOpen
	}
	return StatusClosed
}

// Option is a poll choice. OptionID comes from an append-only sequence, so its
// ascending order is the poll's declared option order.
type Option struct {
	OptionID int64  `json:"option_id"`
	Name     string `json:"name"`
}

// RawRank is one line of a ranked ballot. Rank 0 is the first preference.
type RawRank struct {
	VoterID  string `json:"voter_id"`
	OptionID int64  `json:"option_id"`
	Rank     int    `json:"rank"`
}

type UserRank struct {
	Rank     int    `json:"rank"`
	OptionID int64  `json:"option_id"`
	Name     string `json:"name"`
}

type PollView struct {
	Poll        Poll       `json:"poll"`
	Options     []Option   `json:"options"`
	Open        bool       `json:"open"`
	Remaining   string     `json:"remaining"`
	BallotCount int        `json:"ballot_count"`
	MyUsername  string     `json:"my_username,omitempty"`
	MyRanks     []UserRank `json:"my_ranks,omitempty"`
}

type PollAdminView struct {
	Poll        Poll     `json:"poll"`
	Options     []Option `json:"options"`
	Status      string   `json:"status"`
	BallotCount int      `json:"ballot_count"`
}

// IRV Result Types

// TallyEntry is one option's vote count at a specific round
type TallyEntry struct {
	OptionID int64  `json:"option_id"`
	Name     string `json:"name"`
	Votes    int    `json:"votes"`
}

// Round is a snapshot of one elimination round
type Round struct {
	Round      int          `json:"round"`
	Tallies    []TallyEntry `json:"tallies"`
	Eliminated *TallyEntry  `json:"eliminated,omitempty"`
}

type TabulationResult struct {
	TotalVoters  int          `json:"total_voters"`
	Winner       TallyEntry   `json:"winner"`
	FinalRound   []TallyEntry `json:"final_round"`
	Eliminations []TallyEntry `json:"eliminations"`
	Rounds       []Round      `json:"rounds"`
}

type OptionRank struct {
	OptionID    int64   `json:"option_id"`
	Name        string  `json:"name"`
	AverageRank float64 `json:"average_rank"`
}

type PollResults struct {
	Poll         Poll             `json:"poll"`
	Method       string           `json:"method"`
	ComputedAt   time.Time        `json:"computed_at"`
	Tabulation   TabulationResult `json:"tabulation"`
	AverageRanks []OptionRank     `json:"average_ranks"`
	InputsHash   string           `json:"inputs_hash"` // Fingerprint of every ranked line
}

type AuditBallot struct {
	Voter string   `json:"voter"` // Anonymized per poll
	Ranks []string `json:"ranks"`
}

type AuditResponse struct {
	PollID     int64         `json:"poll_id"`
	InputsHash string        `json:"inputs_hash"`
	Ballots    []AuditBallot `json:"ballots"`
}

type DeviceInfo struct {
	ID         string    `json:"device_id"`
	Platform   string    `json:"platform"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

type DevicePollSummary struct {
	PollID      int64     `json:"poll_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	ShareSlug   string    `json:"share_slug"`
	Role        string    `json:"role"`
	Username    *string   `json:"username,omitempty"`
	LinkedAt    time.Time `json:"linked_at"`
	BallotCount int       `json:"ballot_count"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
