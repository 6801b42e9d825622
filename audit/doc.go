// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package audit lets third parties check a closed poll's tabulation.
//
// Fingerprint is an xxhash digest over every ballot's option IDs in rank order,
// with the ballots sorted so neither input order nor voter IDs matter. Ballots
// publishes every ballot with voters replaced by auth.AnonymizeVoter IDs, so
// anyone can rerun irv.Tabulate on the same input and compare fingerprints.
package audit
