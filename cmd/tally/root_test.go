// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/runoff/audit"
	"github.com/danielhkuo/runoff/ballotfile"
	"github.com/danielhkuo/runoff/models"
)

// 4x[A,B,C], 3x[B,C,A], 3x[C,A,B]: B and C tie low, C goes, A wins 7-3
const tieBreak = `
title: Tie break
options:
  - {option_id: 1, name: A}
  - {option_id: 2, name: B}
  - {option_id: 3, name: C}
ballots:
  - ranks: [A, B, C]
  - ranks: [A, B, C]
  - ranks: [A, B, C]
  - ranks: [A, B, C]
  - ranks: [B, C, A]
  - ranks: [B, C, A]
  - ranks: [B, C, A]
  - ranks: [C, A, B]
  - ranks: [C, A, B]
  - ranks: [C, A, B]
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ballots.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fingerprintOf(t *testing.T, content string) string {
	t.Helper()
	e, err := ballotfile.Parse([]byte(content))
	require.NoError(t, err)
	return audit.Fingerprint(e.Ballots)
}

func TestTally_Text(t *testing.T) {
	out, err := run(t, writeFile(t, tieBreak))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Tie break\n"))
	assert.Contains(t, out, "eliminated")
	assert.Contains(t, out, "Winner: A (7 of 10 votes in the final round, 10 voters)")
	assert.Contains(t, out, "Fingerprint: "+fingerprintOf(t, tieBreak)+"\n")
}

func TestTally_JSON(t *testing.T) {
	out, err := run(t, "--json", writeFile(t, tieBreak))
	require.NoError(t, err)

	var res models.TabulationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	assert.Equal(t, 10, res.TotalVoters)
	assert.Equal(t, models.TallyEntry{OptionID: 1, Name: "A", Votes: 7}, res.Winner)
	assert.Equal(t, []models.TallyEntry{{OptionID: 2, Name: "B", Votes: 3}}, res.FinalRound)
	assert.Equal(t, []models.TallyEntry{{OptionID: 3, Name: "C", Votes: 3}}, res.Eliminations)
	require.Len(t, res.Rounds, 2)
	require.NotNil(t, res.Rounds[0].Eliminated)
	assert.Equal(t, int64(3), res.Rounds[0].Eliminated.OptionID)
}

func TestTally_InputsHash(t *testing.T) {
	fp := fingerprintOf(t, tieBreak)

	out, err := run(t, writeFile(t, "inputs_hash: \""+fp+"\"\n"+tieBreak))
	require.NoError(t, err)
	assert.Contains(t, out, "(matches inputs_hash)")

	out, err = run(t, writeFile(t, "inputs_hash: deadbeef\n"+tieBreak))
	assert.ErrorIs(t, err, errFingerprintMismatch)
	assert.Contains(t, out, "inputs_hash is deadbeef")
}

func TestTally_NoBallots(t *testing.T) {
	out, err := run(t, writeFile(t, "options: [{option_id: 1, name: A}, {option_id: 2, name: B}]\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "No winner")
}

func TestFingerprint(t *testing.T) {
	out, err := run(t, "fingerprint", writeFile(t, tieBreak))
	require.NoError(t, err)
	assert.Equal(t, fingerprintOf(t, tieBreak)+"\n", out)
}

func TestTally_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no file", nil},
		{"missing file", []string{filepath.Join(t.TempDir(), "nope.yaml")}},
		{"invalid file", []string{writeFile(t, "title: only\n")}},
		{"fingerprint missing file", []string{"fingerprint", filepath.Join(t.TempDir(), "nope.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
