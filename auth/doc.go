// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin-key validation, trusted-identity extraction,
and ID generation.

# Admin Keys

The service admin key uses HMAC-SHA256 over a fixed subject with a
configured salt, producing a deterministic, verifiable key that is never
stored:

	adminKey := auth.GenerateAdminKey(salt)
	err := auth.ValidateAdminKey(adminKey, salt)

The key is URL-safe base64 encoded without padding. Administrative
endpoints require it in the X-Admin-Key header.

# Voter Identity

Voters are authenticated upstream; the gateway attaches identity headers
which this service trusts completely:

	voter, err := auth.VoterFromRequest(r)

Headers: X-Voter-ID (required), X-Voter-Email, X-Voter-Name,
X-Voter-Verified ("true" for eligible voters).

# Receipts and IDs

Vote receipts are opaque confirmation strings; they play no role in
deduplication:

	receipt := auth.NewReceiptID() // "RCPT-3F1A09B2"

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

For privacy-preserving audit trails on ledger rows:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
