// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package irv

import (
	"sort"

	"github.com/danielhkuo/runoff/models"
)

// AverageRanks returns the mean 0-based rank each option received across the
// ballots that ranked it, best first. Options nobody ranked get len(options),
// one past the worst possible rank. Ranks naming undeclared options are ignored.
func AverageRanks(ballots []models.RawRank, options []models.Option) []models.OptionRank {
	sums := make(map[int64]int, len(options))
	counts := make(map[int64]int, len(options))
	for _, r := range ballots {
		sums[r.OptionID] += r.Rank
		counts[r.OptionID]++
	}

	ranks := make([]models.OptionRank, 0, len(options))
	for _, opt := range options {
		avg := float64(len(options))
		if n := counts[opt.OptionID]; n > 0 {
			avg = float64(sums[opt.OptionID]) / float64(n)
		}
		ranks = append(ranks, models.OptionRank{
			OptionID:    opt.OptionID,
			Name:        opt.Name,
			AverageRank: avg,
		})
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].AverageRank != ranks[j].AverageRank {
			return ranks[i].AverageRank < ranks[j].AverageRank
		}
		return ranks[i].OptionID < ranks[j].OptionID
	})
	return ranks
}
