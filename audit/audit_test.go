// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package audit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/runoff/auth"
	"github.com/danielhkuo/runoff/models"
)

var options = []models.Option{
	{OptionID: 1, Name: "Tacos"},
	{OptionID: 2, Name: "Sushi"},
	{OptionID: 3, Name: "Pizza"},
}

func sampleBallots() []models.RawRank {
	return []models.RawRank{
		{VoterID: "alice", OptionID: 2, Rank: 0},
		{VoterID: "alice", OptionID: 1, Rank: 1},
		{VoterID: "bob", OptionID: 3, Rank: 0},
		{VoterID: "carol", OptionID: 1, Rank: 0},
		{VoterID: "carol", OptionID: 3, Rank: 1},
		{VoterID: "carol", OptionID: 2, Rank: 2},
	}
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	ballots := sampleBallots()
	want := Fingerprint(ballots)
	assert.NotEmpty(t, want)

	reversed := make([]models.RawRank, len(ballots))
	for i, b := range ballots {
		reversed[len(ballots)-1-i] = b
	}
	assert.Equal(t, want, Fingerprint(reversed))

	// Input slice is left alone
	assert.Equal(t, sampleBallots(), ballots)
}

func TestFingerprint_DetectsChanges(t *testing.T) {
	base := Fingerprint(sampleBallots())

	tests := []struct {
		name   string
		mutate func([]models.RawRank) []models.RawRank
	}{
		{"swapped ranks", func(b []models.RawRank) []models.RawRank {
			b[0].Rank, b[1].Rank = 1, 0
			return b
		}},
		{"different option", func(b []models.RawRank) []models.RawRank {
			b[2].OptionID = 1
			return b
		}},
		{"preference moved to another voter", func(b []models.RawRank) []models.RawRank {
			b[2].VoterID = "alice"
			b[2].Rank = 2
			return b
		}},
		{"dropped line", func(b []models.RawRank) []models.RawRank {
			return b[:len(b)-1]
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, Fingerprint(tt.mutate(sampleBallots())))
		})
	}
}

func TestFingerprint_IgnoresVoterIDs(t *testing.T) {
	ballots := sampleBallots()
	anonymized := make([]models.RawRank, len(ballots))
	for i, b := range ballots {
		b.VoterID = auth.AnonymizeVoter(7, b.VoterID, "salt")
		anonymized[i] = b
	}
	assert.Equal(t, Fingerprint(ballots), Fingerprint(anonymized))
}

func TestFingerprint_Empty(t *testing.T) {
	assert.Equal(t, Fingerprint(nil), Fingerprint([]models.RawRank{}))
}

func TestBallots(t *testing.T) {
	got := Ballots(7, sampleBallots(), options, "salt")
	require.Len(t, got, 3)

	byVoter := make(map[string][]string)
	for i, b := range got {
		if i > 0 {
			assert.Less(t, got[i-1].Voter, b.Voter, "ballots sorted by anonymous id")
		}
		assert.False(t, strings.Contains(b.Voter, "alice") || strings.Contains(b.Voter, "bob"))
		byVoter[b.Voter] = b.Ranks
	}

	assert.Equal(t, []string{"Sushi", "Tacos"}, byVoter[auth.AnonymizeVoter(7, "alice", "salt")])
	assert.Equal(t, []string{"Pizza"}, byVoter[auth.AnonymizeVoter(7, "bob", "salt")])
	assert.Equal(t, []string{"Tacos", "Pizza", "Sushi"}, byVoter[auth.AnonymizeVoter(7, "carol", "salt")])
}

func TestBallots_RanksOutOfOrderAndUnknownOption(t *testing.T) {
	got := Ballots(1, []models.RawRank{
		{VoterID: "v", OptionID: 99, Rank: 2},
		{VoterID: "v", OptionID: 1, Rank: 0},
		{VoterID: "v", OptionID: 3, Rank: 1},
	}, options, "salt")

	require.Len(t, got, 1)
	assert.Equal(t, []string{"Tacos", "Pizza", "(unknown)"}, got[0].Ranks)
}

func TestBallots_Empty(t *testing.T) {
	got := Ballots(1, nil, options, "salt")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
