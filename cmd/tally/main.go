// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command tally recounts a poll from a ballot file.
//
//	tally ballots.yaml
//	tally --json ballots.yaml
//	tally fingerprint ballots.yaml
//
// See package ballotfile for the file format. Exit status is 1 on any error,
// including ballots that do not match the file's inputs_hash.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
