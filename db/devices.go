// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/runoff/auth"
	"github.com/danielhkuo/runoff/models"
)

// RegisterDevice finds the device for a client UUID or creates it.
// Existing devices get their platform and last_seen_on refreshed.
func (s *Store) RegisterDevice(ctx context.Context, deviceUUID, platform string, now time.Time) (string, bool, error) {
	var deviceID string
	err := s.queryRow(ctx, s.conn, `SELECT device_id FROM device WHERE device_uuid = $1`, deviceUUID).Scan(&deviceID)
	if err == nil {
		_, err = s.exec(ctx, s.conn, `
			UPDATE device SET platform = $1, last_seen_on = $2 WHERE device_id = $3
		`, platform, now.Unix(), deviceID)
		if err != nil {
			return "", false, fmt.Errorf("update device: %w", err)
		}
		return deviceID, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("query device: %w", err)
	}

	deviceID, err = auth.GenerateID(16)
	if err != nil {
		return "", false, fmt.Errorf("generate device ID: %w", err)
	}

	_, err = s.exec(ctx, s.conn, `
		INSERT INTO device (device_id, device_uuid, platform, created_on, last_seen_on)
		VALUES ($1, $2, $3, $4, $4)
	`, deviceID, deviceUUID, platform, now.Unix())
	if err != nil {
		return "", false, fmt.Errorf("insert device: %w", err)
	}

	return deviceID, true, nil
}

// EnsureDevice returns the device ID for a UUID, creating a web device if unknown.
// The real platform is set later through RegisterDevice.
func (s *Store) EnsureDevice(ctx context.Context, deviceUUID string, now time.Time) (string, error) {
	info, err := s.GetDevice(ctx, deviceUUID)
	if err == nil {
		return info.ID, s.TouchDevice(ctx, info.ID, now)
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}
	deviceID, _, err := s.RegisterDevice(ctx, deviceUUID, models.PlatformWeb, now)
	return deviceID, err
}

func (s *Store) GetDevice(ctx context.Context, deviceUUID string) (models.DeviceInfo, error) {
	var info models.DeviceInfo
	var createdOn, lastSeenOn int64
	err := s.queryRow(ctx, s.conn, `
		SELECT device_id, platform, created_on, last_seen_on
		FROM device
		WHERE device_uuid = $1
	`, deviceUUID).Scan(&info.ID, &info.Platform, &createdOn, &lastSeenOn)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DeviceInfo{}, ErrNotFound
	}
	if err != nil {
		return models.DeviceInfo{}, fmt.Errorf("query device: %w", err)
	}
	info.CreatedAt = unix(createdOn)
	info.LastSeenAt = unix(lastSeenOn)
	return info, nil
}

func (s *Store) TouchDevice(ctx context.Context, deviceID string, now time.Time) error {
	_, err := s.exec(ctx, s.conn, `UPDATE device SET last_seen_on = $1 WHERE device_id = $2`, now.Unix(), deviceID)
	if err != nil {
		return fmt.Errorf("touch device: %w", err)
	}
	return nil
}

// LinkDeviceToPoll associates a device with a poll. An admin link is never
// downgraded and the first voter ID recorded is kept.
func (s *Store) LinkDeviceToPoll(ctx context.Context, deviceID string, pollID int64, role, voterID string, now time.Time) error {
	var vid sql.NullString
	if voterID != "" {
		vid = sql.NullString{String: voterID, Valid: true}
	}

	_, err := s.exec(ctx, s.conn, `
		INSERT INTO device_poll (device_id, poll_id, voter_id, role, linked_on)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id, poll_id) DO UPDATE SET
			role = CASE WHEN device_poll.role = 'admin' THEN 'admin' ELSE excluded.role END,
			voter_id = COALESCE(device_poll.voter_id, excluded.voter_id)
	`, deviceID, pollID, vid, role, now.Unix())
	if err != nil {
		return fmt.Errorf("link device: %w", err)
	}
	return nil
}

// ListDevicePolls returns the polls a device administers or voted in, newest link first
func (s *Store) ListDevicePolls(ctx context.Context, deviceID string, now time.Time) ([]models.DevicePollSummary, error) {
	rows, err := s.query(ctx, s.conn, `
		SELECT
			p.poll_id,
			p.title,
			COALESCE(p.share_slug, ''),
			p.closes_on,
			dp.role,
			uc.username,
			dp.linked_on,
			(SELECT COUNT(DISTINCT v.voter_id) FROM vote v WHERE v.poll_id = p.poll_id)
		FROM device_poll dp
		JOIN poll p ON p.poll_id = dp.poll_id
		LEFT JOIN username_claim uc ON uc.poll_id = dp.poll_id AND uc.voter_id = dp.voter_id
		WHERE dp.device_id = $1
		ORDER BY dp.linked_on DESC, p.poll_id DESC
	`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("query device polls: %w", err)
	}
	defer rows.Close()

	polls := []models.DevicePollSummary{}
	for rows.Next() {
		var summary models.DevicePollSummary
		var closesOn, linkedOn int64
		var username sql.NullString
		if err := rows.Scan(
			&summary.PollID,
			&summary.Title,
			&summary.ShareSlug,
			&closesOn,
			&summary.Role,
			&username,
			&linkedOn,
			&summary.BallotCount,
		); err != nil {
			return nil, fmt.Errorf("scan device poll: %w", err)
		}

		summary.LinkedAt = unix(linkedOn)
		summary.Status = models.Poll{ClosesOn: unix(closesOn)}.Status(now)
		if username.Valid {
			name := username.String
			summary.Username = &name
		}
		polls = append(polls, summary)
	}
	return polls, rows.Err()
}
