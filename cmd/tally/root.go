// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/runoff/audit"
	"github.com/danielhkuo/runoff/ballotfile"
	"github.com/danielhkuo/runoff/irv"
	"github.com/danielhkuo/runoff/models"
)

var errFingerprintMismatch = errors.New("ballots do not match the published inputs_hash")

// newRootCmd builds the tally CLI. Output goes to the command's out writer.
func newRootCmd() *cobra.Command {
	var flagJSON bool

	cmd := &cobra.Command{
		Use:   "tally <ballot-file>",
		Short: "Recount a ranked-choice poll offline",
		Long: "tally runs instant-runoff tabulation over a ballot file and prints every round, " +
			"the eliminations and the winner. When the file carries an inputs_hash it is checked " +
			"against the ballots.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ballotfile.Load(args[0])
			if err != nil {
				return err
			}

			res := irv.Tabulate(e.Ballots, e.Options)
			if flagJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else if err := printResult(cmd.OutOrStdout(), e, res); err != nil {
				return err
			}

			if e.InputsHash != "" && audit.Fingerprint(e.Ballots) != e.InputsHash {
				return errFingerprintMismatch
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagJSON, "json", false, "emit the tabulation as JSON")
	cmd.AddCommand(newFingerprintCmd())
	return cmd
}

func newFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <ballot-file>",
		Short: "Print the ballot fingerprint published as inputs_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ballotfile.Load(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), audit.Fingerprint(e.Ballots))
			return err
		},
	}
}

func printResult(w io.Writer, e *ballotfile.Election, res models.TabulationResult) error {
	if e.Title != "" {
		fmt.Fprintf(w, "%s\n\n", e.Title)
	}

	if len(res.Rounds) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header("Round", "Option", "Votes", "Status")
		for _, round := range res.Rounds {
			for _, t := range round.Tallies {
				status := ""
				if round.Eliminated != nil && round.Eliminated.OptionID == t.OptionID {
					status = "eliminated"
				}
				if err := table.Append([]string{
					strconv.Itoa(round.Round),
					t.Name,
					strconv.Itoa(t.Votes),
					status,
				}); err != nil {
					return err
				}
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if len(res.Eliminations) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header("Place", "Option", "Votes")
		for i, t := range res.Eliminations {
			// winner is first, then whoever is left in the final round
			place := 2 + len(res.FinalRound) + i
			if err := table.Append([]string{strconv.Itoa(place), t.Name, strconv.Itoa(t.Votes)}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if res.Winner.OptionID == -1 {
		fmt.Fprintln(w, "No winner: no ballots were cast")
	} else {
		fmt.Fprintf(w, "Winner: %s (%d of %d votes in the final round, %d voters)\n",
			res.Winner.Name, res.Winner.Votes, finalVotes(res), res.TotalVoters)
	}

	fp := audit.Fingerprint(e.Ballots)
	switch {
	case e.InputsHash == "":
		fmt.Fprintf(w, "Fingerprint: %s\n", fp)
	case e.InputsHash == fp:
		fmt.Fprintf(w, "Fingerprint: %s (matches inputs_hash)\n", fp)
	default:
		fmt.Fprintf(w, "Fingerprint: %s (inputs_hash is %s)\n", fp, e.InputsHash)
	}
	return nil
}

func finalVotes(res models.TabulationResult) int {
	total := res.Winner.Votes
	for _, t := range res.FinalRound {
		total += t.Votes
	}
	return total
}
