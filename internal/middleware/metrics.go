package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores pipeline counters
type Metrics struct {
	RequestsTotal          uint64
	CompletionsTotal       uint64
	RecommendationFailures uint64
	RecoveriesTotal        uint64
	RecoveryFailures       uint64
	EmailsSent             uint64
	EmailsFailed           uint64
	StartTime              time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

// IncrementCompletions counts completed assessments
func IncrementCompletions() {
	atomic.AddUint64(&globalMetrics.CompletionsTotal, 1)
}

// IncrementRecommendationFailures counts skipped/failed AI generations
func IncrementRecommendationFailures() {
	atomic.AddUint64(&globalMetrics.RecommendationFailures, 1)
}

// IncrementRecoveries counts artifact recovery attempts
func IncrementRecoveries() {
	atomic.AddUint64(&globalMetrics.RecoveriesTotal, 1)
}

// IncrementRecoveryFailures counts recovery attempts that failed
func IncrementRecoveryFailures() {
	atomic.AddUint64(&globalMetrics.RecoveryFailures, 1)
}

// IncrementEmailsSent counts delivered completion mails
func IncrementEmailsSent() {
	atomic.AddUint64(&globalMetrics.EmailsSent, 1)
}

// IncrementEmailsFailed counts failed completion mails
func IncrementEmailsFailed() {
	atomic.AddUint64(&globalMetrics.EmailsFailed, 1)
}

// CountRequests is the middleware hooking the request counter.
func CountRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		next.ServeHTTP(w, r)
	})
}

// MetricsHandler exposes the counters plus runtime stats as JSON.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	out := map[string]any{
		"uptime_seconds":          time.Since(globalMetrics.StartTime).Seconds(),
		"requests_total":          atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"completions_total":       atomic.LoadUint64(&globalMetrics.CompletionsTotal),
		"recommendation_failures": atomic.LoadUint64(&globalMetrics.RecommendationFailures),
		"recoveries_total":        atomic.LoadUint64(&globalMetrics.RecoveriesTotal),
		"recovery_failures":       atomic.LoadUint64(&globalMetrics.RecoveryFailures),
		"emails_sent":             atomic.LoadUint64(&globalMetrics.EmailsSent),
		"emails_failed":           atomic.LoadUint64(&globalMetrics.EmailsFailed),
		"goroutines":              runtime.NumGoroutine(),
		"heap_alloc_bytes":        mem.HeapAlloc,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
