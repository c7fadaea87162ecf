package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	pointsAwarded     *CounterVec
	milestonesCrossed *CounterVec
	badgesCompleted   *Counter
	quizAttempts      *CounterVec
	notifications     *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	scrapeInterval time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics registry. It returns nil when disabled;
// every method is safe on a nil receiver.
func Init(log *logger.Logger, enabled bool, scrapeInterval time.Duration) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics(scrapeInterval)
		if log != nil {
			log.Info("metrics enabled", "scrape_interval", instance.scrapeInterval.String())
		}
	})
	return instance
}

func newMetrics(scrapeInterval time.Duration) *Metrics {
	if scrapeInterval <= 0 {
		scrapeInterval = 10 * time.Second
	}
	return &Metrics{
		apiRequests: NewCounterVec("tm_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"tm_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("tm_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("tm_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("tm_api_requests_error_total", "Total API requests with 5xx status."),

		aggregateOps: NewCounterVec("tm_aggregate_operations_total", "Aggregate write operations by name/status.", []string{"op", "status"}),
		aggregateLatency: NewHistogramVec(
			"tm_aggregate_operation_duration_seconds",
			"Aggregate write latency in seconds by name/status.",
			[]string{"op", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		),
		aggregateConflicts: NewCounterVec("tm_aggregate_conflicts_total", "Aggregate conflicts by operation.", []string{"op"}),
		aggregateRetries:   NewCounterVec("tm_aggregate_retryable_total", "Aggregate retryable failures by operation.", []string{"op"}),

		pointsAwarded:     NewCounterVec("tm_points_awarded_total", "Points appended to the ledger by source.", []string{"source"}),
		milestonesCrossed: NewCounterVec("tm_milestones_crossed_total", "Rank milestones awarded by threshold.", []string{"threshold"}),
		badgesCompleted:   NewCounter("tm_badges_completed_total", "Badges moved to COMPLETED."),
		quizAttempts:      NewCounterVec("tm_quiz_attempts_total", "Quiz submissions by outcome.", []string{"outcome"}),
		notifications:     NewCounterVec("tm_notifications_total", "Notification deliveries by status.", []string{"status"}),

		dbStats:   NewGaugeVec("tm_db_pool_stats", "database/sql pool stats.", []string{"stat"}),
		redisUp:   NewGauge("tm_redis_up", "1 when the last Redis ping succeeded."),
		redisPing: NewGauge("tm_redis_ping_seconds", "Duration of the last successful Redis ping."),

		scrapeInterval: scrapeInterval,
	}
}

func (m *Metrics) writers() []interface{ WritePrometheus(io.Writer) error } {
	return []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
		m.pointsAwarded, m.milestonesCrossed, m.badgesCompleted, m.quizAttempts, m.notifications,
		m.dbStats, m.redisUp, m.redisPing,
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, mw := range m.writers() {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.aggregateOps.Inc(op, status)
	m.aggregateLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(op)
}

func (m *Metrics) AddPoints(source string, amount int) {
	if m == nil || amount == 0 {
		return
	}
	m.pointsAwarded.Add(float64(amount), strings.ToLower(strings.TrimSpace(source)))
}

func (m *Metrics) IncMilestone(threshold string) {
	if m == nil {
		return
	}
	m.milestonesCrossed.Inc(threshold)
}

func (m *Metrics) IncBadgeCompleted() {
	if m == nil {
		return
	}
	m.badgesCompleted.Inc()
}

func (m *Metrics) IncQuizAttempt(passed bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	m.quizAttempts.Inc(outcome)
}

func (m *Metrics) IncNotification(status string) {
	if m == nil {
		return
	}
	m.notifications.Inc(status)
}

// StartDBCollector samples pool stats until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings rdb on the scrape interval until ctx is done.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	if len(status) < 3 {
		return false
	}
	return status[0] == '5'
}
