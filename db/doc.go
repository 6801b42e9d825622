// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections, schema creation and every query the server runs.

# Connecting

	conn, err := db.Open(db.SQLite, "file:runoff.db")
	conn, err := db.Open(db.Postgres, "postgres://...")

PostgreSQL uses lib/pq, SQLite uses the pure Go modernc.org/sqlite driver.
Queries are written with $n placeholders and rebound to ?n for SQLite.

# Schema Creation

	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - poll: Title, share slug, created_on and closes_on (unix seconds)
  - option: Append-only; option_id order is declared order
  - username_claim: Maps usernames to voter IDs
  - vote: One line per (voter, option) with its 0-based rank
  - device: Registered devices
  - device_poll: Links devices to polls

A poll is open while now is before closes_on. Closing early rewrites closes_on.

# Relationships

	poll 1──* option
	poll 1──* username_claim
	poll 1──* vote
	option 1──* vote
	device *──* poll (via device_poll)

# Store

	store := db.NewStore(conn, db.SQLite)
	poll, options, err := store.CreatePoll(ctx, db.NewPoll{...}, slugSalt)
	err = store.CastVote(ctx, poll.PollID, voterID, []int64{3, 1}, ipHash, time.Now())
	ballots, err := store.FetchBallots(ctx, poll.PollID)

The vote table's unique constraints on (poll_id, voter_id, option_id) and
(poll_id, voter_id, vote_rank) keep malformed ballots out of tabulation.
CastVote replaces a voter's earlier ballot atomically.

# Errors

Lookups return ErrNotFound. Writes return ErrPollClosed, ErrUsernameTaken,
ErrUnknownVoter, ErrInvalidOption, ErrDuplicateOption or ErrEmptyBallot; test
with errors.Is.
*/
package db
