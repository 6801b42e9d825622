// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package irv

import (
	"sort"

	"github.com/danielhkuo/runoff/models"
)

const (
	// UnknownName labels option IDs that ballots reference but the poll does not declare
	UnknownName = "(unknown)"
	// ErrorName labels the sentinel winner returned when no votes were cast
	ErrorName = "(error)"
)

type state int

const (
	stateTallying state = iota
	stateEliminating
	stateDone
)

// ballot is one voter's remaining preferences, first choice first
type ballot []int64

// Tabulate runs instant-runoff elimination over ballots and returns the winner,
// the final round, and the elimination history.
func Tabulate(ballots []models.RawRank, options []models.Option) models.TabulationResult {
	names := make(map[int64]string, len(options))
	for _, opt := range options {
		names[opt.OptionID] = opt.Name
	}
	nameOf := func(optionID int64) string {
		if name, ok := names[optionID]; ok {
			return name
		}
		return UnknownName
	}

	active, contenders := groupBallots(ballots)
	totalVoters := len(active)

	remaining := make(map[int64]bool, len(contenders))
	for _, id := range contenders {
		remaining[id] = true
	}

	var (
		tallies      []models.TallyEntry
		rounds       []models.Round
		eliminations []models.TallyEntry
	)

	st := stateTallying
	for st != stateDone {
		switch st {
		case stateTallying:
			if len(active) == 0 || len(remaining) == 0 {
				st = stateDone
				continue
			}

			tallies = tally(active, remaining, nameOf)
			rounds = append(rounds, models.Round{Round: len(rounds) + 1, Tallies: tallies})

			best, worst := tallies[0], tallies[len(tallies)-1]
			cast := 0
			for _, t := range tallies {
				cast += t.Votes
			}

			switch {
			case best.Votes == worst.Votes:
				// every remaining option is tied
				st = stateDone
			case best.Votes*2 > cast:
				st = stateDone
			default:
				st = stateEliminating
			}

		case stateEliminating:
			loser := lowest(tallies)
			eliminations = append(eliminations, loser)
			rounds[len(rounds)-1].Eliminated = &loser

			delete(remaining, loser.OptionID)
			active = without(active, loser.OptionID)
			st = stateTallying
		}
	}

	return shape(totalVoters, tallies, eliminations, rounds, contenders, options)
}

// groupBallots partitions raw ranks per voter, ordered by rank. Voters keep their
// first-seen order so repeated runs over the same input are identical.
func groupBallots(ranks []models.RawRank) ([]ballot, []int64) {
	byVoter := make(map[string][]models.RawRank)
	var voters []string
	seen := make(map[int64]bool)
	var contenders []int64

	for _, r := range ranks {
		if _, ok := byVoter[r.VoterID]; !ok {
			voters = append(voters, r.VoterID)
		}
		byVoter[r.VoterID] = append(byVoter[r.VoterID], r)

		if !seen[r.OptionID] {
			seen[r.OptionID] = true
			contenders = append(contenders, r.OptionID)
		}
	}

	ballots := make([]ballot, 0, len(voters))
	for _, voterID := range voters {
		lines := byVoter[voterID]
		sort.SliceStable(lines, func(i, j int) bool {
			return lines[i].Rank < lines[j].Rank
		})

		prefs := make(ballot, len(lines))
		for i, line := range lines {
			prefs[i] = line.OptionID
		}
		ballots = append(ballots, prefs)
	}

	sort.Slice(contenders, func(i, j int) bool { return contenders[i] < contenders[j] })
	return ballots, contenders
}

// tally counts first preferences and sorts descending by votes, then by
// option ID ascending. Options nobody ranks first still get a zero entry.
func tally(active []ballot, remaining map[int64]bool, nameOf func(int64) string) []models.TallyEntry {
	counts := make(map[int64]int, len(remaining))
	for id := range remaining {
		counts[id] = 0
	}
	for _, prefs := range active {
		counts[prefs[0]]++
	}

	tallies := make([]models.TallyEntry, 0, len(counts))
	for id, votes := range counts {
		tallies = append(tallies, models.TallyEntry{
			OptionID: id,
			Name:     nameOf(id),
			Votes:    votes,
		})
	}

	sort.Slice(tallies, func(i, j int) bool {
		a, b := tallies[i], tallies[j]
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		return a.OptionID < b.OptionID
	})
	return tallies
}

// lowest picks the option to eliminate. When several share the lowest count, the
// one declared last (highest option ID) goes first.
func lowest(tallies []models.TallyEntry) models.TallyEntry {
	var (
		tied  []models.TallyEntry
		least int
	)
	for i, t := range tallies {
		switch {
		case i == 0 || t.Votes < least:
			least = t.Votes
			tied = []models.TallyEntry{t}
		case t.Votes == least:
			tied = append(tied, t)
		}
	}

	if len(tied) == 0 {
		panic("irv: no lowest tally while eliminating")
	}

	loser := tied[0]
	for _, t := range tied[1:] {
		if t.OptionID > loser.OptionID {
			loser = t
		}
	}
	return loser
}

// without returns fresh copies of the ballots with optionID removed, dropping
// ballots that run out of preferences.
func without(active []ballot, optionID int64) []ballot {
	next := make([]ballot, 0, len(active))
	for _, prefs := range active {
		filtered := make(ballot, 0, len(prefs))
		for _, id := range prefs {
			if id != optionID {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) > 0 {
			next = append(next, filtered)
		}
	}
	return next
}

func shape(
	totalVoters int,
	finalRound []models.TallyEntry,
	eliminations []models.TallyEntry,
	rounds []models.Round,
	contenders []int64,
	options []models.Option,
) models.TabulationResult {
	result := models.TabulationResult{
		TotalVoters:  totalVoters,
		Winner:       models.TallyEntry{OptionID: -1, Name: ErrorName, Votes: 0},
		FinalRound:   make([]models.TallyEntry, 0, len(options)),
		Eliminations: make([]models.TallyEntry, 0, len(eliminations)),
		Rounds:       rounds,
	}
	if result.Rounds == nil {
		result.Rounds = []models.Round{}
	}

	// index 0 is the runner-up closest to winning
	for i := len(eliminations) - 1; i >= 0; i-- {
		result.Eliminations = append(result.Eliminations, eliminations[i])
	}

	if len(finalRound) > 0 {
		result.Winner = finalRound[0]
		result.FinalRound = append(result.FinalRound, finalRound[1:]...)
	}

	ranked := make(map[int64]bool, len(contenders))
	for _, id := range contenders {
		ranked[id] = true
	}
	var neverVoted []models.TallyEntry
	for _, opt := range options {
		if !ranked[opt.OptionID] {
			neverVoted = append(neverVoted, models.TallyEntry{OptionID: opt.OptionID, Name: opt.Name})
		}
	}
	sort.SliceStable(neverVoted, func(i, j int) bool {
		return neverVoted[i].OptionID < neverVoted[j].OptionID
	})

	if len(eliminations) == 0 {
		result.FinalRound = append(result.FinalRound, neverVoted...)
	} else {
		result.Eliminations = append(result.Eliminations, neverVoted...)
	}

	return result
}
