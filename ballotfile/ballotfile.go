// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballotfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/runoff/models"
)

var (
	ErrNoOptions       = errors.New("no options declared")
	ErrDuplicateOption = errors.New("duplicate option")
	ErrUnknownOption   = errors.New("unknown option")
	ErrDuplicateVoter  = errors.New("duplicate voter")
	ErrEmptyBallot     = errors.New("empty ballot")
)

// file mirrors the on-disk document. Keys match the API's JSON names so an
// audit export plus the poll's options can be fed back in unchanged.
type file struct {
	Title      string   `yaml:"title"`
	PollID     int64    `yaml:"poll_id"`
	InputsHash string   `yaml:"inputs_hash"`
	Options    []option `yaml:"options"`
	Ranks      []rank   `yaml:"ranks"`
	Ballots    []ballot `yaml:"ballots"`
}

type option struct {
	OptionID int64  `yaml:"option_id"`
	Name     string `yaml:"name"`
}

type rank struct {
	VoterID  string `yaml:"voter_id"`
	OptionID int64  `yaml:"option_id"`
	Rank     int    `yaml:"rank"`
}

// ballot is the compact form: preferences first to last, each an option
// name or an option ID
type ballot struct {
	Voter string   `yaml:"voter"`
	Ranks []string `yaml:"ranks"`
}

// Election is a decoded ballot file, ready for irv.Tabulate
type Election struct {
	Title      string
	PollID     int64
	InputsHash string // Published fingerprint to check against, if any
	Options    []models.Option
	Ballots    []models.RawRank
}

// Load reads and parses a ballot file
func Load(path string) (*Election, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	e, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// Parse decodes a YAML (or JSON) ballot document. Raw ranks are kept as given;
// compact ballots expand to ranks 0..n-1.
func Parse(data []byte) (*Election, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid ballot file: %w", err)
	}

	if len(f.Options) == 0 {
		return nil, ErrNoOptions
	}

	e := &Election{
		Title:      f.Title,
		PollID:     f.PollID,
		InputsHash: f.InputsHash,
		Options:    make([]models.Option, 0, len(f.Options)),
		Ballots:    make([]models.RawRank, 0, len(f.Ranks)),
	}

	byName := make(map[string]int64, len(f.Options))
	byID := make(map[int64]bool, len(f.Options))
	for _, o := range f.Options {
		if byID[o.OptionID] {
			return nil, fmt.Errorf("%w: id %d", ErrDuplicateOption, o.OptionID)
		}
		if _, ok := byName[o.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateOption, o.Name)
		}
		byID[o.OptionID] = true
		byName[o.Name] = o.OptionID
		e.Options = append(e.Options, models.Option{OptionID: o.OptionID, Name: o.Name})
	}

	seen := make(map[string]bool)
	for _, r := range f.Ranks {
		seen[r.VoterID] = true
		e.Ballots = append(e.Ballots, models.RawRank{
			VoterID:  r.VoterID,
			OptionID: r.OptionID,
			Rank:     r.Rank,
		})
	}

	for i, b := range f.Ballots {
		voter := b.Voter
		if voter == "" {
			voter = "ballot-" + strconv.Itoa(i+1)
		}
		if seen[voter] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVoter, voter)
		}
		seen[voter] = true

		if len(b.Ranks) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyBallot, voter)
		}

		used := make(map[int64]bool, len(b.Ranks))
		for pos, ref := range b.Ranks {
			id, err := resolve(ref, byName, byID)
			if err != nil {
				return nil, fmt.Errorf("ballot %s: %w", voter, err)
			}
			if used[id] {
				return nil, fmt.Errorf("ballot %s: %w: %q ranked twice", voter, ErrDuplicateOption, ref)
			}
			used[id] = true
			e.Ballots = append(e.Ballots, models.RawRank{VoterID: voter, OptionID: id, Rank: pos})
		}
	}

	return e, nil
}

// resolve maps a compact preference to an option ID. Names win over numeric IDs
// so an option literally named "2" still resolves by name.
func resolve(ref string, byName map[string]int64, byID map[int64]bool) (int64, error) {
	if id, ok := byName[ref]; ok {
		return id, nil
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil && byID[id] {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOption, ref)
}
