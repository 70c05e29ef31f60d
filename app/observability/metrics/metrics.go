package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	PlanRequestsTotal        metric.Int64Counter
	PlanDurationSeconds      metric.Float64Histogram
	FetchBranchFailuresTotal metric.Int64Counter
	CacheHitsTotal           metric.Int64Counter
	CacheMissesTotal         metric.Int64Counter
	SynthesisFallbacksTotal  metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TripWeaver")
		var err error
		m := &AppMetrics{}

		m.PlanRequestsTotal, err = meter.Int64Counter(
			"plan_requests_total",
			metric.WithDescription("Total number of trip plan requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_requests_total: %v", err)
		}

		m.PlanDurationSeconds, err = meter.Float64Histogram(
			"plan_duration_seconds",
			metric.WithDescription("Duration of trip plan pipeline runs in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_duration_seconds: %v", err)
		}

		m.FetchBranchFailuresTotal, err = meter.Int64Counter(
			"fetch_branch_failures_total",
			metric.WithDescription("Total number of live-data branches that fell back"),
			metric.WithUnit("{failure}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create fetch_branch_failures_total: %v", err)
		}

		m.CacheHitsTotal, err = meter.Int64Counter(
			"live_cache_hits_total",
			metric.WithDescription("Total number of fresh live-data cache reads"),
			metric.WithUnit("{hit}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create live_cache_hits_total: %v", err)
		}

		m.CacheMissesTotal, err = meter.Int64Counter(
			"live_cache_misses_total",
			metric.WithDescription("Total number of stale or empty live-data cache reads"),
			metric.WithUnit("{miss}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create live_cache_misses_total: %v", err)
		}

		m.SynthesisFallbacksTotal, err = meter.Int64Counter(
			"synthesis_fallbacks_total",
			metric.WithDescription("Total number of plans served from the template fallback"),
			metric.WithUnit("{fallback}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create synthesis_fallbacks_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		log.Panic("Metrics: InitAppMetrics must be called before Get")
	}
	return appMetrics
}
