// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package results turns stored ballots into published poll results.

	svc := results.NewService(store, cfg.ResultsCacheTTL)
	res, err := svc.Compute(ctx, poll)

Compute runs irv.Tabulate and irv.AverageRanks over the poll's ballots and
stamps the audit fingerprint of the inputs. Closed polls are memoized in an
in-process go-cache; open polls are always recomputed.
*/
package results
