package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focushive_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "focushive_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PresenceRosterSize is the gauge of online users per hive.
	PresenceRosterSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "focushive_presence_roster_size",
		Help: "Number of users present in a hive",
	}, []string{"hive_id"})

	// PresenceDevicesActive is the gauge of live device sessions.
	PresenceDevicesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "focushive_presence_devices_active",
		Help: "Total number of active device sessions across all hives",
	})

	// PresenceStaleSwept counts device sessions removed by the stale sweep.
	PresenceStaleSwept = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focushive_presence_stale_swept_total",
		Help: "Total number of device sessions removed by the stale sweep",
	}, []string{"hive_id"})

	// BroadcastEventsTotal counts deltas published on the broadcast bus by kind.
	BroadcastEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focushive_broadcast_events_total",
		Help: "Total broadcast bus deltas published by kind",
	}, []string{"kind"})

	// BroadcastBackpressureDrops counts deltas dropped from a subscriber's
	// bounded queue by topic and reason.
	BroadcastBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focushive_broadcast_backpressure_drops_total",
		Help: "Total number of broadcast deltas dropped due to backpressure",
	}, []string{"topic", "reason"})

	// TimerSessionsActive is the gauge of currently RUNNING FocusSessions.
	TimerSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "focushive_timer_sessions_active",
		Help: "Number of FocusSessions currently in RUNNING state",
	})

	// TimerTransitionsTotal counts FocusSession state transitions by target state.
	TimerTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focushive_timer_transitions_total",
		Help: "Total FocusSession state transitions by resulting state",
	}, []string{"state"})

	// CircuitBreakerState is the gauge of breaker state by dependency
	// (0=closed, 1=half_open, 2=open), consulted by the resilience fabric.
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "focushive_circuit_breaker_state",
		Help: "Circuit breaker state per dependency: 0=closed, 1=half_open, 2=open",
	}, []string{"dependency"})

	// ResilienceCallsTotal counts resilience-fabric-wrapped calls by
	// dependency and outcome (success, retry, breaker_open, bulkhead_reject,
	// timeout, fallback).
	ResilienceCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focushive_resilience_calls_total",
		Help: "Total calls through the resilience fabric by dependency and outcome",
	}, []string{"dependency", "outcome"})

	// PartnershipsActive is the gauge of partnerships currently not in the
	// terminal ENDED state (PENDING, ACTIVE, or PAUSED).
	PartnershipsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "focushive_partnerships_active",
		Help: "Number of partnerships not yet ended",
	})

	// PartnershipPendingExpiredTotal counts PENDING partnerships the sweep
	// auto-expired after spec.md's 72h TTL.
	PartnershipPendingExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focushive_partnership_pending_expired_total",
		Help: "Total PENDING partnerships auto-expired by the stale-request sweep",
	})

	// GoalsCompletedTotal counts goals that reached 100% progress.
	GoalsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focushive_goals_completed_total",
		Help: "Total goals auto-transitioned to COMPLETED",
	})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}

// PresenceMetrics tracks per-hive roster counts.
type PresenceMetrics struct {
	rosterCounts map[string]int
}

// NewPresenceMetrics returns a new PresenceMetrics instance.
func NewPresenceMetrics() *PresenceMetrics {
	return &PresenceMetrics{rosterCounts: make(map[string]int)}
}

// IncrementRoster records a user joining hiveID's roster.
func (m *PresenceMetrics) IncrementRoster(hiveID string) {
	m.rosterCounts[hiveID]++
	PresenceRosterSize.WithLabelValues(hiveID).Inc()
	PresenceDevicesActive.Inc()
}

// DecrementRoster records a user leaving hiveID's roster.
func (m *PresenceMetrics) DecrementRoster(hiveID string) {
	if m.rosterCounts[hiveID] > 0 {
		m.rosterCounts[hiveID]--
	}
	PresenceRosterSize.WithLabelValues(hiveID).Dec()
	PresenceDevicesActive.Dec()
}

// RosterCount returns the current roster count for hiveID.
func (m *PresenceMetrics) RosterCount(hiveID string) int {
	return m.rosterCounts[hiveID]
}

// RecordStaleSweep increments the stale-sweep counter for hiveID.
func (*PresenceMetrics) RecordStaleSweep(hiveID string) {
	PresenceStaleSwept.WithLabelValues(hiveID).Inc()
}

// BroadcastMetrics records broadcast-bus event and backpressure metrics.
type BroadcastMetrics struct{}

// NewBroadcastMetrics returns a new BroadcastMetrics instance.
func NewBroadcastMetrics() *BroadcastMetrics {
	return &BroadcastMetrics{}
}

// RecordEvent increments the published-events counter for kind.
func (*BroadcastMetrics) RecordEvent(kind string) {
	BroadcastEventsTotal.WithLabelValues(kind).Inc()
}

// RecordDrop increments the backpressure-drop counter for topic/reason.
func (*BroadcastMetrics) RecordDrop(topic, reason string) {
	BroadcastBackpressureDrops.WithLabelValues(topic, reason).Inc()
}

// TracingContextKey is the type for context keys used in tracing.
type TracingContextKey string

const (
	// TraceIDKey is the context key for trace ID.
	TraceIDKey TracingContextKey = "trace_id"
	// SpanIDKey is the context key for span ID.
	SpanIDKey TracingContextKey = "span_id"
	// CorrelationIDKey is the context key for correlation ID.
	CorrelationIDKey TracingContextKey = "correlation_id"
)

// ExtractTraceID returns the trace ID from the context if set.
func ExtractTraceID(ctx context.Context) string {
	if id := ctx.Value(TraceIDKey); id != nil {
		return id.(string)
	}
	return ""
}

// ExtractCorrelationIDFromTracing returns the correlation ID from the context if set.
func ExtractCorrelationIDFromTracing(ctx context.Context) string {
	if id := ctx.Value(CorrelationIDKey); id != nil {
		return id.(string)
	}
	return ""
}

// NewSpanContext returns a context with trace and span ID values set.
func NewSpanContext(traceID, spanID string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, TraceIDKey, traceID)
	ctx = context.WithValue(ctx, SpanIDKey, spanID)
	return ctx
}

// WithCorrelationIDFromTracing returns a context with the correlation ID set.
func WithCorrelationIDFromTracing(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// GenerateTraceID returns a new trace ID string.
func GenerateTraceID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}

// GenerateSpanID returns a new span ID string.
func GenerateSpanID() string {
	return strconv.FormatInt(time.Now().UnixNano()%10000000000, 36)
}
