// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package irv implements Instant-Runoff Voting tabulation.

Tabulate is a pure function from a ballot set and an option set to a
TabulationResult. It performs no I/O and holds no state, so it is safe to call
concurrently as long as callers do not mutate the slices they pass in.

	result := irv.Tabulate(ballots, options)
	fmt.Println(result.Winner.Name)

# Rounds

Ballots are grouped by voter and ordered by rank. Each round counts every
voter's first remaining preference. The round ends the loop when:

  - every remaining option has the same count (full tie), or
  - the leader has more than half of the votes cast that round.

Otherwise the option with the fewest votes is eliminated and removed from every
ballot. Ballots left with no preferences drop out and do not count toward later
majority thresholds.

# Tie-breaking

Option IDs come from an append-only sequence, so lower IDs were declared first.

  - Comparisons sort by votes descending, then option ID ascending.
  - Among options tied for fewest votes, the highest option ID is eliminated.

# Result Shape

  - winner: top of the final round, or {-1, "(error)", 0} when no votes exist
  - final_round: the rest of the final round, best first
  - eliminations: most recently eliminated first
  - rounds: every round's tallies with the option eliminated after it

Options no ballot ranked at all are appended in option ID order to
final_round when nothing was eliminated, and to eliminations otherwise.

# Average Rank

AverageRanks reports each option's mean rank as a secondary display order.
It does not affect the winner.
*/
package irv
