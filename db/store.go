// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/runoff/auth"
	"github.com/danielhkuo/runoff/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrPollClosed      = errors.New("poll is closed")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrUnknownVoter    = errors.New("voter has not claimed a username")
	ErrInvalidOption   = errors.New("option does not belong to poll")
	ErrDuplicateOption = errors.New("option ranked more than once")
	ErrEmptyBallot     = errors.New("ballot ranks no options")
)

// Store wraps every query the server runs
type Store struct {
	conn    *sql.DB
	dialect Dialect
}

func NewStore(conn *sql.DB, dialect Dialect) *Store {
	return &Store{conn: conn, dialect: dialect}
}

// DB exposes the underlying connection for health checks and tests
func (s *Store) DB() *sql.DB {
	return s.conn
}

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) exec(ctx context.Context, q queryer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, rebind(s.dialect, query), args...)
}

func (s *Store) query(ctx context.Context, q queryer, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, rebind(s.dialect, query), args...)
}

func (s *Store) queryRow(ctx context.Context, q queryer, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, rebind(s.dialect, query), args...)
}

func unix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// isUniqueViolation matches both lib/pq and SQLite constraint errors
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// NewPoll describes a poll to create. Options keep their given order.
type NewPoll struct {
	Title     string
	Options   []string
	CreatedOn time.Time
	ClosesOn  time.Time
}

// CreatePoll inserts the poll and its options in one transaction. The share slug
// is derived from the new poll ID.
func (s *Store) CreatePoll(ctx context.Context, np NewPoll, slugSalt string) (models.Poll, []models.Option, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Poll{}, nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	poll := models.Poll{
		Title:     np.Title,
		CreatedOn: unix(np.CreatedOn.Unix()),
		ClosesOn:  unix(np.ClosesOn.Unix()),
	}

	err = s.queryRow(ctx, tx, `
		INSERT INTO poll (title, created_on, closes_on)
		VALUES ($1, $2, $3)
		RETURNING poll_id
	`, np.Title, np.CreatedOn.Unix(), np.ClosesOn.Unix()).Scan(&poll.PollID)
	if err != nil {
		return models.Poll{}, nil, fmt.Errorf("insert poll: %w", err)
	}

	poll.ShareSlug = auth.GenerateShareSlug(poll.PollID, slugSalt)
	if _, err := s.exec(ctx, tx, `UPDATE poll SET share_slug = $1 WHERE poll_id = $2`, poll.ShareSlug, poll.PollID); err != nil {
		return models.Poll{}, nil, fmt.Errorf("set share slug: %w", err)
	}

	options := make([]models.Option, 0, len(np.Options))
	for _, name := range np.Options {
		opt := models.Option{Name: name}
		err := s.queryRow(ctx, tx, `
			INSERT INTO option (poll_id, name)
			VALUES ($1, $2)
			RETURNING option_id
		`, poll.PollID, name).Scan(&opt.OptionID)
		if err != nil {
			return models.Poll{}, nil, fmt.Errorf("insert option: %w", err)
		}
		options = append(options, opt)
	}

	if err := tx.Commit(); err != nil {
		return models.Poll{}, nil, fmt.Errorf("commit: %w", err)
	}

	return poll, options, nil
}

const pollColumns = `poll_id, title, COALESCE(share_slug, ''), created_on, closes_on`

func scanPoll(row *sql.Row) (models.Poll, error) {
	var p models.Poll
	var createdOn, closesOn int64
	err := row.Scan(&p.PollID, &p.Title, &p.ShareSlug, &createdOn, &closesOn)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, ErrNotFound
	}
	if err != nil {
		return models.Poll{}, err
	}
	p.CreatedOn = unix(createdOn)
	p.ClosesOn = unix(closesOn)
	return p, nil
}

func (s *Store) GetPoll(ctx context.Context, pollID int64) (models.Poll, error) {
	return scanPoll(s.queryRow(ctx, s.conn, `SELECT `+pollColumns+` FROM poll WHERE poll_id = $1`, pollID))
}

func (s *Store) GetPollBySlug(ctx context.Context, slug string) (models.Poll, error) {
	return scanPoll(s.queryRow(ctx, s.conn, `SELECT `+pollColumns+` FROM poll WHERE share_slug = $1`, slug))
}

// ListOptions returns a poll's options in declared order
func (s *Store) ListOptions(ctx context.Context, pollID int64) ([]models.Option, error) {
	rows, err := s.query(ctx, s.conn, `
		SELECT option_id, name
		FROM option
		WHERE poll_id = $1
		ORDER BY option_id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	options := []models.Option{}
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.OptionID, &opt.Name); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

// ClaimUsername registers a username on an open poll and returns a fresh voter ID
func (s *Store) ClaimUsername(ctx context.Context, pollID int64, username string, now time.Time) (string, error) {
	poll, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return "", err
	}
	if !poll.IsOpen(now) {
		return "", ErrPollClosed
	}

	voterID, err := auth.GenerateVoterToken()
	if err != nil {
		return "", fmt.Errorf("generate voter token: %w", err)
	}

	_, err = s.exec(ctx, s.conn, `
		INSERT INTO username_claim (poll_id, username, voter_id, created_on)
		VALUES ($1, $2, $3, $4)
	`, pollID, username, voterID, now.Unix())
	if isUniqueViolation(err) {
		return "", ErrUsernameTaken
	}
	if err != nil {
		return "", fmt.Errorf("insert username claim: %w", err)
	}

	return voterID, nil
}

func (s *Store) VoterExists(ctx context.Context, pollID int64, voterID string) (bool, error) {
	var n int
	err := s.queryRow(ctx, s.conn, `
		SELECT COUNT(*) FROM username_claim WHERE poll_id = $1 AND voter_id = $2
	`, pollID, voterID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query username claim: %w", err)
	}
	return n > 0, nil
}

// Username returns the name a voter claimed on a poll
func (s *Store) Username(ctx context.Context, pollID int64, voterID string) (string, error) {
	var name string
	err := s.queryRow(ctx, s.conn, `
		SELECT username FROM username_claim WHERE poll_id = $1 AND voter_id = $2
	`, pollID, voterID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return name, err
}

// CastVote records a voter's ranking, first choice first, replacing any earlier
// ballot from the same voter. Validation and the write share one transaction.
func (s *Store) CastVote(ctx context.Context, pollID int64, voterID string, ranks []int64, ipHash string, now time.Time) error {
	if len(ranks) == 0 {
		return ErrEmptyBallot
	}
	seen := make(map[int64]bool, len(ranks))
	for _, id := range ranks {
		if seen[id] {
			return ErrDuplicateOption
		}
		seen[id] = true
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	poll, err := scanPoll(s.queryRow(ctx, tx, `SELECT `+pollColumns+` FROM poll WHERE poll_id = $1`, pollID))
	if err != nil {
		return err
	}
	if !poll.IsOpen(now) {
		return ErrPollClosed
	}

	var claims int
	err = s.queryRow(ctx, tx, `
		SELECT COUNT(*) FROM username_claim WHERE poll_id = $1 AND voter_id = $2
	`, pollID, voterID).Scan(&claims)
	if err != nil {
		return fmt.Errorf("query username claim: %w", err)
	}
	if claims == 0 {
		return ErrUnknownVoter
	}

	valid, err := s.optionSet(ctx, tx, pollID)
	if err != nil {
		return err
	}
	for _, id := range ranks {
		if !valid[id] {
			return fmt.Errorf("%w: %d", ErrInvalidOption, id)
		}
	}

	if _, err := s.exec(ctx, tx, `DELETE FROM vote WHERE poll_id = $1 AND voter_id = $2`, pollID, voterID); err != nil {
		return fmt.Errorf("delete previous ballot: %w", err)
	}

	var ip sql.NullString
	if ipHash != "" {
		ip = sql.NullString{String: ipHash, Valid: true}
	}
	for rank, optionID := range ranks {
		_, err := s.exec(ctx, tx, `
			INSERT INTO vote (poll_id, voter_id, option_id, vote_rank, cast_on, ip_hash)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, pollID, voterID, optionID, rank, now.Unix(), ip)
		if err != nil {
			return fmt.Errorf("insert vote: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) optionSet(ctx context.Context, q queryer, pollID int64) (map[int64]bool, error) {
	rows, err := s.query(ctx, q, `SELECT option_id FROM option WHERE poll_id = $1`, pollID)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	set := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		set[id] = true
	}
	return set, rows.Err()
}

// VoterRanks returns one voter's ballot with option names, first choice first
func (s *Store) VoterRanks(ctx context.Context, pollID int64, voterID string) ([]models.UserRank, error) {
	rows, err := s.query(ctx, s.conn, `
		SELECT v.vote_rank, v.option_id, o.name
		FROM vote v
		JOIN option o ON o.option_id = v.option_id
		WHERE v.poll_id = $1 AND v.voter_id = $2
		ORDER BY v.vote_rank
	`, pollID, voterID)
	if err != nil {
		return nil, fmt.Errorf("query voter ranks: %w", err)
	}
	defer rows.Close()

	ranks := []models.UserRank{}
	for rows.Next() {
		var r models.UserRank
		if err := rows.Scan(&r.Rank, &r.OptionID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan voter rank: %w", err)
		}
		ranks = append(ranks, r)
	}
	return ranks, rows.Err()
}

// FetchBallots returns every ranked line cast on a poll
func (s *Store) FetchBallots(ctx context.Context, pollID int64) ([]models.RawRank, error) {
	rows, err := s.query(ctx, s.conn, `
		SELECT voter_id, option_id, vote_rank
		FROM vote
		WHERE poll_id = $1
		ORDER BY voter_id, vote_rank
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("query ballots: %w", err)
	}
	defer rows.Close()

	ballots := []models.RawRank{}
	for rows.Next() {
		var r models.RawRank
		if err := rows.Scan(&r.VoterID, &r.OptionID, &r.Rank); err != nil {
			return nil, fmt.Errorf("scan ballot: %w", err)
		}
		ballots = append(ballots, r)
	}
	return ballots, rows.Err()
}

// CountVoters returns the number of distinct voters with a ballot on the poll
func (s *Store) CountVoters(ctx context.Context, pollID int64) (int, error) {
	var n int
	err := s.queryRow(ctx, s.conn, `
		SELECT COUNT(DISTINCT voter_id) FROM vote WHERE poll_id = $1
	`, pollID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count voters: %w", err)
	}
	return n, nil
}

// ClosePoll moves closes_on to now. Closing an already closed poll is ErrPollClosed.
func (s *Store) ClosePoll(ctx context.Context, pollID int64, now time.Time) (models.Poll, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Poll{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	poll, err := scanPoll(s.queryRow(ctx, tx, `SELECT `+pollColumns+` FROM poll WHERE poll_id = $1`, pollID))
	if err != nil {
		return models.Poll{}, err
	}
	if !poll.IsOpen(now) {
		return models.Poll{}, ErrPollClosed
	}

	if _, err := s.exec(ctx, tx, `UPDATE poll SET closes_on = $1 WHERE poll_id = $2`, now.Unix(), pollID); err != nil {
		return models.Poll{}, fmt.Errorf("close poll: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Poll{}, fmt.Errorf("commit: %w", err)
	}

	poll.ClosesOn = unix(now.Unix())
	return poll, nil
}
