package cache

import "time"

// Key namespaces used against the Redis-backed platform.KeyValueStore, per
// spec.md §6. Each owning package builds its own keys under these prefixes
// (internal/presence, internal/authgateway, internal/resilience); this list
// exists so the namespaces are documented in one place rather than
// rediscovered by grepping for string literals.
const (
	PresenceKeyPrefix      = "presence:"       // presence:<hiveID>:<userID>
	PresenceGraceKeyPrefix = "presence-grace:" // presence-grace:<hiveID>:<userID>
	RosterKeyPrefix        = "roster:"         // roster:<hiveID>
	RevocationKeyPrefix    = "revoke:"         // revoke:<jti>
	AuthVerdictKeyPrefix   = "authverdict:"    // authverdict:<tokenHash>
	RateLimitKeyPrefix     = "ratelimit:"      // ratelimit:<resource>:<identity>
)

const (
	PresenceTTL     = 45 * time.Second
	VerdictCacheTTL = 5 * time.Minute
)
