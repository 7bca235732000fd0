// Package metrics exposes the process-wide prometheus registry for
// tier_stats resolutions (spec.md §3) and Cache Layer hit/miss/eviction
// counts.
//
// Grounded on kraklabs-cie/pkg/ingestion/metrics.go's sync.Once-guarded
// registration idiom: a package-level struct of prometheus collectors,
// registered exactly once on first use, with small package functions
// as the recording surface so callers never touch prometheus types
// directly.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type collectors struct {
	once sync.Once

	tierResolutions *prometheus.CounterVec // label "tier": 0, 1, 2
	tierConflicts   prometheus.Counter

	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter

	expansions        prometheus.Counter
	expansionFailures prometheus.Counter
}

var m collectors

func (c *collectors) init() {
	c.once.Do(func() {
		c.tierResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typesugar_binding_tier_resolutions_total",
			Help: "safe_ref resolutions by File Binding Cache tier",
		}, []string{"tier"})
		c.tierConflicts = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typesugar_binding_tier_conflicts_total",
			Help: "safe_ref resolutions that required aliasing to avoid a shadow conflict",
		})

		c.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typesugar_cache_hits_total",
			Help: "Expansion cache lookups that found a valid entry",
		})
		c.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typesugar_cache_misses_total",
			Help: "Expansion cache lookups that found no valid entry",
		})
		c.cacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typesugar_cache_evictions_total",
			Help: "Expansion cache entries evicted under the LRU max_entries bound",
		})

		c.expansions = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typesugar_expansions_total",
			Help: "Successful macro expansions across all dispatch kinds",
		})
		c.expansionFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typesugar_expansion_failures_total",
			Help: "Macro callback invocations that returned an error",
		})

		prometheus.MustRegister(
			c.tierResolutions, c.tierConflicts,
			c.cacheHits, c.cacheMisses, c.cacheEvictions,
			c.expansions, c.expansionFailures,
		)
	})
}

// RecordTierResolution increments the counter for the given File
// Binding Cache tier (0, 1, or 2).
func RecordTierResolution(tier int) {
	m.init()
	m.tierResolutions.WithLabelValues(tierLabel(tier)).Inc()
}

func tierLabel(tier int) string {
	switch tier {
	case 0:
		return "0"
	case 1:
		return "1"
	default:
		return "2"
	}
}

// RecordTierConflict increments the alias-required-conflict counter.
func RecordTierConflict() { m.init(); m.tierConflicts.Inc() }

// RecordCacheHit increments the cache-hit counter.
func RecordCacheHit() { m.init(); m.cacheHits.Inc() }

// RecordCacheMiss increments the cache-miss counter.
func RecordCacheMiss() { m.init(); m.cacheMisses.Inc() }

// RecordCacheEviction increments the cache-eviction counter.
func RecordCacheEviction() { m.init(); m.cacheEvictions.Inc() }

// RecordExpansion increments the successful-expansion counter.
func RecordExpansion() { m.init(); m.expansions.Inc() }

// RecordExpansionFailure increments the failed-callback counter.
func RecordExpansionFailure() { m.init(); m.expansionFailures.Inc() }
