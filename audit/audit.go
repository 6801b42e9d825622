// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package audit

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/danielhkuo/runoff/auth"
	"github.com/danielhkuo/runoff/irv"
	"github.com/danielhkuo/runoff/models"
)

// Fingerprint hashes a ballot set independent of input order and of voter
// identity. Each voter's preferences become one line of option IDs in rank
// order, and the sorted lines are hashed. Two parties holding the same ballots,
// under real or anonymized voter IDs, get the same hex string.
func Fingerprint(ballots []models.RawRank) string {
	byVoter := make(map[string][]models.RawRank)
	for _, b := range ballots {
		byVoter[b.VoterID] = append(byVoter[b.VoterID], b)
	}

	lines := make([]string, 0, len(byVoter))
	buf := make([]byte, 0, 64)
	for _, prefs := range byVoter {
		sort.Slice(prefs, func(i, j int) bool {
			if prefs[i].Rank != prefs[j].Rank {
				return prefs[i].Rank < prefs[j].Rank
			}
			return prefs[i].OptionID < prefs[j].OptionID
		})

		buf = buf[:0]
		for i, p := range prefs {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = strconv.AppendInt(buf, p.OptionID, 10)
		}
		lines = append(lines, string(buf))
	}
	sort.Strings(lines)

	d := xxhash.New()
	for _, l := range lines {
		d.WriteString(l)
		d.WriteString("\n")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// Ballots groups ranked lines per voter, swaps voter IDs for per-poll anonymous
// IDs and names each preference. Sorted by anonymous ID.
func Ballots(pollID int64, ballots []models.RawRank, options []models.Option, salt string) []models.AuditBallot {
	names := make(map[int64]string, len(options))
	for _, opt := range options {
		names[opt.OptionID] = opt.Name
	}

	byVoter := make(map[string][]models.RawRank)
	for _, b := range ballots {
		byVoter[b.VoterID] = append(byVoter[b.VoterID], b)
	}

	out := make([]models.AuditBallot, 0, len(byVoter))
	for voterID, lines := range byVoter {
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].Rank < lines[j].Rank })

		ranks := make([]string, len(lines))
		for i, l := range lines {
			name, ok := names[l.OptionID]
			if !ok {
				name = irv.UnknownName
			}
			ranks[i] = name
		}
		out = append(out, models.AuditBallot{
			Voter: auth.AnonymizeVoter(pollID, voterID, salt),
			Ranks: ranks,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Voter < out[j].Voter })
	return out
}
