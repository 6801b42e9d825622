// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid token format")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// mac returns HMAC-SHA256 of the parts joined by ':'
func mac(salt string, parts ...string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(strings.Join(parts, ":")))
	return h.Sum(nil)
}

func pollKey(pollID int64) string {
	return strconv.FormatInt(pollID, 10)
}

// GenerateAdminKey creates an HMAC-based admin key for a poll.
// Deterministic, so it never needs to be stored.
func GenerateAdminKey(pollID int64, salt string) string {
	sum := mac(salt, "admin", pollKey(pollID))
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the poll
func ValidateAdminKey(pollID int64, adminKey, salt string) error {
	expected := GenerateAdminKey(pollID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateVoterToken creates a random secure token for a voter.
// The token doubles as the voter_id on every ranked line the voter casts.
func GenerateVoterToken() (string, error) {
	b := make([]byte, 24) // 192 bits
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate voter token: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// ValidateVoterToken rejects tokens that GenerateVoterToken could not have produced
func ValidateVoterToken(token string) error {
	if len(token) != 32 {
		return ErrInvalidToken
	}
	if _, err := base64.RawURLEncoding.DecodeString(token); err != nil {
		return ErrInvalidToken
	}
	return nil
}

// GenerateShareSlug creates a short, deterministic URL slug for a poll
func GenerateShareSlug(pollID int64, salt string) string {
	sum := mac(salt, "slug", pollKey(pollID))
	return base62Encode(sum[:8])
}

// base62Encode converts up to 8 bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// HashIP creates a one-way hash of an IP address for privacy
func HashIP(ip, salt string) string {
	sum := mac(salt, "ip", ip)
	return hex.EncodeToString(sum[:8])
}

// AnonymizeVoter maps a voter ID to an opaque ID for audit display. The same
// voter in the same poll always gets the same ID; IDs from different polls
// cannot be linked without the salt.
func AnonymizeVoter(pollID int64, voterID, salt string) string {
	sum := mac(salt, "voter", pollKey(pollID), voterID)
	return hex.EncodeToString(sum[:8])
}
