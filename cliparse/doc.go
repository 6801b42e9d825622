// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - DatabaseURL: connection string (default for sqlite: file:runoff.db)
  - AdminKeySalt: Secret for admin key HMAC (required)
  - PollSlugSalt: Secret for share slug generation (required)
  - AuditSalt: Secret for voter anonymization (default: AdminKeySalt)
  - PollDuration: How long new polls accept ballots (default: 24h)
  - ResultsCacheTTL: How long closed poll results stay memoized (default: 1h)

# Sources

Each value is resolved in order, first non-empty wins:

	CLI flag → environment variable → YAML config file → default

	-p            PORT
	-d            DATABASE_URL
	-t            DATABASE_TYPE
	-c            CONFIG_FILE
	--admin-salt  ADMIN_KEY_SALT
	--slug-salt   POLL_SLUG_SALT
	--audit-salt  AUDIT_SALT
	--duration    POLL_DURATION
	--cache-ttl   RESULTS_CACHE_TTL

# Config File

	port: 3318
	database_type: postgres
	database_url: postgres://runoff@localhost/runoff?sslmode=disable
	poll_duration: 24h
	results_cache_ttl: 1h

Secrets may be placed in the file but the environment is preferred.
*/
package cliparse
