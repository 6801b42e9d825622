// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: title, options, duration_minutes
  - ClaimUsernameRequest: username
  - CastVoteRequest: ranks (option IDs, first preference first)
  - RegisterDeviceRequest: platform

# Response Types

  - CreatePollResponse: poll_id, admin_key, share_slug, closes_on
  - ClaimUsernameResponse: voter_token
  - CastVoteResponse: message
  - MyBallotResponse: ranks
  - ClosePollResponse: closed_at, results
  - ErrorResponse: error, message

# Domain Types

  - Poll: poll metadata; open until closes_on
  - Option: option_id + name, option_id order is the declared order
  - RawRank: one ballot line (voter_id, option_id, rank)

# Tabulation Types

The field names of these types are the public contract of the results and
audit endpoints:

  - TallyEntry: option_id, name, votes
  - Round: round, tallies, eliminated
  - TabulationResult: total_voters, winner, final_round, eliminations, rounds
  - OptionRank: option_id, name, average_rank
  - PollResults: tabulation plus average ranks and inputs_hash
  - AuditBallot: anonymized voter with ranked option names

# Constants

Status values (derived from closes_on):

	StatusOpen   = "open"
	StatusClosed = "closed"

Voting method:

	MethodIRV = "irv"

Device roles:

	RoleVoter = "voter"
	RoleAdmin = "admin"
*/
package models
