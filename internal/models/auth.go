package models

import "time"

// RevocationEntry marks a token id as revoked until its natural expiry.
// It lives in the shared key-value store keyed by TokenID and auto-expires,
// so the revocation set never grows unboundedly.
type RevocationEntry struct {
	TokenID   string    `json:"tokenId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VerifiedCredential is what auth gateway's Verify returns on success.
type VerifiedCredential struct {
	UserRef UserRef
	TokenID string
	Exp     time.Time
}
