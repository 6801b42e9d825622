// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the runoff API.

# Handler Types

Each handler is a struct with store and config dependencies:

  - PollHandler: Poll lifecycle (create, admin view, close)
  - VotingHandler: Username claims and ranked ballot submission
  - ResultsHandler: Poll info, sealed results and the ballot audit
  - DeviceHandler: Device registration and poll history

Handlers are created via constructor functions that accept a *db.Store and Config.
Handlers that tabulate share one *results.Service so closed results are cached once:

	svc := results.NewService(store, cfg.ResultsCacheTTL)
	pollHandler := handlers.NewPollHandler(store, cfg, svc)

# Poll Lifecycle

A poll is created open with its full option list and closes when closes_on
passes or when the admin closes it early:

	POST /polls              → CreatePoll (returns admin_key and share_slug)
	GET  /polls/{id}/admin   → GetPollAdmin
	POST /polls/{id}/close   → ClosePoll (tabulates and returns results)

Admin operations require the X-Admin-Key header.

# Voting Flow

Voters interact via the share slug:

	POST /polls/{slug}/claim-username → ClaimUsername (returns voter_token)
	POST /polls/{slug}/ballots        → SubmitBallot (create or replace)
	GET  /polls/{slug}/my-ballot      → GetMyBallot

A ballot is a list of option IDs, first preference first. Submitting again
replaces the whole ranking. Voter operations require the X-Voter-Token header.

# Results

Results and the audit are sealed while the poll is open (403):

	GET /polls/{slug}/results → GetResults (instant-runoff tabulation)
	GET /polls/{slug}/audit   → GetAudit (anonymized ballots + inputs_hash)

The inputs_hash in both responses fingerprints every ranked line, so anyone
holding the audit can rerun the tabulation and compare.

# Device Tracking

Optional device tracking for native apps:

	POST /devices/register → Register
	GET /devices/me        → GetMe
	GET /devices/my-polls  → GetMyPolls

Device operations require the X-Device-UUID header. CreatePoll and
ClaimUsername link the sending device to the poll when the header is present.

# Errors

Store errors are mapped to status codes in one place (writeStoreError):
not found is 404, closed polls and taken usernames are 409, unclaimed voter
tokens are 401 and malformed ballots are 400.
*/
package handlers
