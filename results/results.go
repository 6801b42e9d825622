// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/danielhkuo/runoff/audit"
	"github.com/danielhkuo/runoff/irv"
	"github.com/danielhkuo/runoff/models"
)

// Source is the subset of db.Store the service reads from
type Source interface {
	FetchBallots(ctx context.Context, pollID int64) ([]models.RawRank, error)
	ListOptions(ctx context.Context, pollID int64) ([]models.Option, error)
}

type Service struct {
	src   Source
	cache *cache.Cache
	now   func() time.Time
}

// NewService memoizes closed poll results for ttl
func NewService(src Source, ttl time.Duration) *Service {
	return &Service{
		src:   src,
		cache: cache.New(ttl, 2*ttl),
		now:   time.Now,
	}
}

// Compute tabulates a poll. Results for closed polls cannot change, so they are
// served from cache after the first call.
func (s *Service) Compute(ctx context.Context, poll models.Poll) (models.PollResults, error) {
	now := s.now()
	closed := !poll.IsOpen(now)
	key := strconv.FormatInt(poll.PollID, 10)

	if closed {
		if cached, ok := s.cache.Get(key); ok {
			return cached.(models.PollResults), nil
		}
	}

	ballots, err := s.src.FetchBallots(ctx, poll.PollID)
	if err != nil {
		return models.PollResults{}, fmt.Errorf("fetch ballots: %w", err)
	}
	options, err := s.src.ListOptions(ctx, poll.PollID)
	if err != nil {
		return models.PollResults{}, fmt.Errorf("list options: %w", err)
	}

	res := models.PollResults{
		Poll:         poll,
		Method:       models.MethodIRV,
		ComputedAt:   now,
		Tabulation:   irv.Tabulate(ballots, options),
		AverageRanks: irv.AverageRanks(ballots, options),
		InputsHash:   audit.Fingerprint(ballots),
	}

	slog.Info("results computed",
		"poll_id", poll.PollID,
		"voters", res.Tabulation.TotalVoters,
		"winner_id", res.Tabulation.Winner.OptionID,
		"rounds", len(res.Tabulation.Rounds),
		"closed", closed,
	)

	if closed {
		s.cache.SetDefault(key, res)
	}
	return res, nil
}

// Forget drops a poll's cached results
func (s *Service) Forget(pollID int64) {
	s.cache.Delete(strconv.FormatInt(pollID, 10))
}
