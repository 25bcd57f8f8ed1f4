// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidStaffKey = errors.New("invalid staff key")
	ErrMissingStaff    = errors.New("missing staff credentials")
)

// NewID returns a random UUID string for database records
func NewID() string {
	return uuid.NewString()
}

// GenerateStaffKey creates an HMAC-based key for a staff member
// This is deterministic and verifiable without storing the key
func GenerateStaffKey(staffID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(staffID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateStaffKey checks if the provided key is valid for the staff ID
func ValidateStaffKey(staffID, staffKey, salt string) error {
	if staffID == "" || staffKey == "" {
		return ErrMissingStaff
	}
	expected := GenerateStaffKey(staffID, salt)
	if !hmac.Equal([]byte(staffKey), []byte(expected)) {
		return ErrInvalidStaffKey
	}
	return nil
}

// ValidateBootstrapKey compares the supplied key with the configured
// bootstrap key in constant time. An empty configured key never matches.
func ValidateBootstrapKey(supplied, configured string) bool {
	if configured == "" {
		return false
	}
	return hmac.Equal([]byte(supplied), []byte(configured))
}

// HashIP creates a one-way hash of an IP address for the activity log
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// First 16 hex chars are enough to correlate requests
	return hex.EncodeToString(sum[:8])
}
