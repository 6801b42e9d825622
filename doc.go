// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the runoff API server.

runoff is a group polling service where voters rank options and the winner is
found by instant-runoff voting: the option with the fewest first preferences is
eliminated round by round until one holds a majority of the ballots still in play.
Results stay sealed until the poll closes, and every closed poll publishes its
anonymized ballots with a fingerprint so anyone can recount.

# Starting the Server

With no configuration the server uses a local SQLite file:

	go run .

Or against PostgreSQL:

	DATABASE_TYPE=postgres DATABASE_URL=postgres://... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

A .env file in the working directory is loaded first if present.

# Configuration

Precedence is flags, then environment, then the YAML file given by -c / CONFIG_FILE,
then defaults.

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string (required for postgres)
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - POLL_SLUG_SALT (-slug-salt): Secret for share slug generation
  - AUDIT_SALT (-audit-salt): Secret for anonymous audit ids (default: admin salt)
  - POLL_DURATION (-duration): Default voting window (default: 24h)
  - RESULTS_CACHE_TTL (-cache-ttl): How long closed results stay cached (default: 1h)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (polls, voting, results, devices)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, request ids, logging, JSON helpers
  - models: Request/response types
  - irv: Instant-runoff tabulation
  - results: Tabulation service with a closed-poll cache
  - audit: Ballot fingerprint and anonymized ballot export
  - auth: Token generation and validation
  - db: Schema and store for PostgreSQL and SQLite
  - cliparse: Configuration parsing

The cmd/tally command recounts an exported ballot file offline.

See package documentation for each component.
*/
package main
