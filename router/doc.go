// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the runoff API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(store, cfg)

# Endpoints

Health:

	GET /health - 200 OK, or 503 when the database does not answer a ping

Poll management (admin, requires X-Admin-Key):

	POST /polls            - Create poll with its options
	GET  /polls/{id}/admin - Get poll details
	POST /polls/{id}/close - Close early and tabulate

Voting (public, uses share slug):

	POST /polls/{slug}/claim-username - Claim voter identity
	GET  /polls/{slug}/my-ballot      - Caller's current ranking
	POST /polls/{slug}/ballots        - Submit/replace ranked ballot

Results (public):

	GET /polls/{slug}              - Poll info and options
	GET /polls/{slug}/results      - Instant-runoff results (closed only)
	GET /polls/{slug}/audit        - Anonymized ballots (closed only)
	GET /polls/{slug}/ballot-count - Voter count
	GET /polls/{slug}/preview      - Compact preview data

Device management:

	POST /devices/register - Register device
	GET  /devices/me       - Get device info
	GET  /devices/my-polls - List device's polls

# Handler Initialization

The router creates handler instances with dependency injection. The results
service is shared so a close fills the cache that later result reads use:

	svc := results.NewService(store, cfg.ResultsCacheTTL)
	pollHandler := handlers.NewPollHandler(store, cfg, svc)
	resultsHandler := handlers.NewResultsHandler(store, cfg, svc)

Every API route is wrapped in middleware.WithLogging.
*/
package router
