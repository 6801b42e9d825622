// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballotfile reads ballot documents for offline recounts.

A document declares the poll's options and then its ballots, either as raw
ranked lines or in compact form:

	title: Lunch
	inputs_hash: 9c1e0f3a2b7d4e58
	options:
	  - {option_id: 1, name: Tacos}
	  - {option_id: 2, name: Sushi}
	  - {option_id: 3, name: Pizza}
	ranks:
	  - {voter_id: v1, option_id: 2, rank: 0}
	ballots:
	  - voter: alice
	    ranks: [Sushi, Tacos]
	  - ranks: [3, 1]

Compact preferences are option names or option IDs, first choice first.
Unnamed compact ballots get "ballot-N" voters. Keys match the API's JSON, so
the audit export of a closed poll is already a valid document once the poll's
options are added. JSON input works too since JSON is valid YAML.
*/
package ballotfile
