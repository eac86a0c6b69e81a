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
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/openballot/campus-vote/models"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrNoIdentity      = errors.New("missing voter identity headers")
)

// adminSubject is the fixed HMAC subject for the service-wide admin key.
const adminSubject = "campus-vote/admin"

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAdminKey derives the service admin key from the configured salt.
// This is deterministic and verifiable, so operators can re-derive it
// without the key ever being stored.
func GenerateAdminKey(salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(adminSubject))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks the provided admin key against the salt
func ValidateAdminKey(adminKey, salt string) error {
	expected := GenerateAdminKey(salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// VoterFromRequest extracts the authenticated voter identity attached by
// the upstream gateway. The service trusts these headers completely;
// authentication itself happens outside this process.
func VoterFromRequest(r *http.Request) (models.VoterIdentity, error) {
	id := r.Header.Get("X-Voter-ID")
	if id == "" {
		return models.VoterIdentity{}, ErrNoIdentity
	}
	return models.VoterIdentity{
		ID:       id,
		Email:    r.Header.Get("X-Voter-Email"),
		Name:     r.Header.Get("X-Voter-Name"),
		Verified: r.Header.Get("X-Voter-Verified") == "true",
	}, nil
}

// NewReceiptID creates an opaque receipt identifier for a vote
// confirmation. The receipt is user-facing only; deduplication comes from
// the ledger constraint, never from this value.
func NewReceiptID() string {
	return "RCPT-" + strings.ToUpper(uuid.NewString()[:8])
}

// NewVoteID creates the primary key for a ledger entry.
func NewVoteID() string {
	return uuid.NewString()
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
