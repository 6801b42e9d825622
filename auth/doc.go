// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and voter anonymization.

All derived values are HMAC-SHA256 over a purpose prefix and the inputs, so an
admin key, a share slug and an anonymous voter ID computed from the same poll
never collide or reveal each other.

# Admin Keys

	adminKey := auth.GenerateAdminKey(pollID, salt)
	err := auth.ValidateAdminKey(pollID, adminKey, salt)

URL-safe base64 without padding. Deterministic, so never stored.

# Voter Tokens

	token, err := auth.GenerateVoterToken()

Random 24-byte secrets handed out when a voter claims a username. The token is
the voter_id recorded on every ranked line.

# Share Slugs

	slug := auth.GenerateShareSlug(pollID, salt)

Base62, derived from the poll ID.

# Voter Anonymization

	anon := auth.AnonymizeVoter(pollID, voterID, salt)

Used by the audit endpoint. The same voter always maps to the same ID within a
poll. No uniqueness is promised across polls.

# IP Hashing

	hash := auth.HashIP(ipAddress, salt)

First 8 bytes (16 hex chars) of the HMAC.
*/
package auth
