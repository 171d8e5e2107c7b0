// Package bootstrap wires the FocusHive backend's core components —
// authgateway, resilience, presence, timer, buddy, and broadcast — from
// config.Config, a database connection, and a Redis client, grounded on
// the teacher's InitRuntime (DB connect + Redis init) generalized from a
// dev-root-admin/seed bootstrap into component construction.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"sanctum/internal/authgateway"
	"sanctum/internal/broadcast"
	"sanctum/internal/buddy"
	"sanctum/internal/cache"
	"sanctum/internal/config"
	"sanctum/internal/database"
	"sanctum/internal/platform"
	"sanctum/internal/presence"
	"sanctum/internal/repository"
	"sanctum/internal/resilience"
	"sanctum/internal/timer"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Runtime holds every component the server needs once InitRuntime returns.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client

	AuthGateway *authgateway.Gateway
	Resilience  *resilience.Fabric
	Presence    *presence.Core
	Timer       *timer.Core
	Buddy       *buddy.Core
	Broadcast   *broadcast.Bus

	Scheduler *platform.RealScheduler
}

// InitRuntime connects to DB and Redis and wires every core component from
// cfg, per spec.md §6's configuration surface.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()
	if redisClient == nil {
		return nil, fmt.Errorf("redis connection failed: REDIS_URL=%q unreachable", cfg.RedisURL)
	}
	kv := platform.NewRedisKVStore(redisClient)

	clock := platform.SystemClock{}
	scheduler := platform.NewRealScheduler(ctx)

	bus := broadcast.NewBus(nil, clock)
	publisher := bus.AsPublisher()

	jwks := authgateway.NewJWKSCache(cfg.JWKSURL, nil)
	var keys authgateway.KeyResolver = jwks
	if cfg.JWKSURL == "" {
		keys = authgateway.StaticKeyResolver{}
	}
	gatewayCfg := authgateway.Config{
		Issuer:          cfg.JWTIssuer,
		ClockSkew:       time.Duration(cfg.JWTClockSkewSec) * time.Second,
		LegacySecret:    cfg.JWTLegacySecret,
		VerdictCacheTTL: cache.VerdictCacheTTL,
	}
	gateway := authgateway.NewGateway(gatewayCfg, keys, kv, clock)

	fabric := resilience.NewFabric(cfg)

	presenceCfg := presence.Config{
		HeartbeatInterval: time.Duration(cfg.PresenceHeartbeatSec) * time.Second,
		StaleAfter:        time.Duration(cfg.PresenceStaleSec) * time.Second,
		DisconnectGrace:   time.Duration(cfg.PresenceGraceSec) * time.Second,
	}
	presenceCore := presence.NewCore(presenceCfg, kv, scheduler, publisher, clock)

	sessions := repository.NewFocusSessionRepository(db)
	timerCore := timer.NewCore(sessions, scheduler, publisher, clock)

	partnerships := repository.NewPartnershipRepository(db)
	buddyCfg := buddy.Config{
		PendingTTL:          time.Duration(cfg.PartnershipPendingTTLHours) * time.Hour,
		CheckinGapTolerance: time.Duration(cfg.CheckinGapToleranceHours) * time.Hour,
	}
	buddyCore := buddy.NewCore(buddyCfg, partnerships, publisher, clock)

	return &Runtime{
		DB:          db,
		Redis:       redisClient,
		AuthGateway: gateway,
		Resilience:  fabric,
		Presence:    presenceCore,
		Timer:       timerCore,
		Buddy:       buddyCore,
		Broadcast:   bus,
		Scheduler:   scheduler,
	}, nil
}
