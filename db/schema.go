// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(conn *sql.DB, dialect Dialect) error {
	serial := "BIGSERIAL PRIMARY KEY"
	if dialect == SQLite {
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	// One statement per Exec; lib/pq accepts batches, SQLite drivers vary.
	for _, stmt := range strings.Split(strings.ReplaceAll(schema, "{{serial}}", serial), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// Timestamps are unix seconds so both dialects store and compare them the same way.
const schema = `
CREATE TABLE IF NOT EXISTS poll (
    poll_id {{serial}},
    title TEXT NOT NULL,
    share_slug TEXT UNIQUE,
    created_on BIGINT NOT NULL,
    closes_on BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_share_slug ON poll(share_slug);

CREATE TABLE IF NOT EXISTS option (
    option_id {{serial}},
    poll_id BIGINT NOT NULL REFERENCES poll(poll_id) ON DELETE CASCADE,
    name TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_option_poll_id ON option(poll_id);

CREATE TABLE IF NOT EXISTS username_claim (
    poll_id BIGINT NOT NULL REFERENCES poll(poll_id) ON DELETE CASCADE,
    username TEXT NOT NULL,
    voter_id TEXT NOT NULL,
    created_on BIGINT NOT NULL,
    PRIMARY KEY (poll_id, voter_id),
    UNIQUE (poll_id, username)
);

CREATE TABLE IF NOT EXISTS vote (
    poll_id BIGINT NOT NULL REFERENCES poll(poll_id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    option_id BIGINT NOT NULL REFERENCES option(option_id) ON DELETE CASCADE,
    vote_rank INTEGER NOT NULL CHECK (vote_rank >= 0),
    cast_on BIGINT NOT NULL,
    ip_hash TEXT,
    UNIQUE (poll_id, voter_id, option_id),
    UNIQUE (poll_id, voter_id, vote_rank)
);

CREATE INDEX IF NOT EXISTS idx_vote_poll_id ON vote(poll_id);

CREATE TABLE IF NOT EXISTS device (
    device_id TEXT PRIMARY KEY,
    device_uuid TEXT NOT NULL UNIQUE,
    platform TEXT NOT NULL,
    created_on BIGINT NOT NULL,
    last_seen_on BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS device_poll (
    device_id TEXT NOT NULL REFERENCES device(device_id) ON DELETE CASCADE,
    poll_id BIGINT NOT NULL REFERENCES poll(poll_id) ON DELETE CASCADE,
    voter_id TEXT,
    role TEXT NOT NULL DEFAULT 'voter' CHECK (role IN ('voter', 'admin')),
    linked_on BIGINT NOT NULL,
    PRIMARY KEY (device_id, poll_id)
);

CREATE INDEX IF NOT EXISTS idx_device_poll_device ON device_poll(device_id);
`
