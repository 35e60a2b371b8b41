// Prometheus collectors for cache behavior. Hit ratio and eviction volume
// are the two signals that tell you whether the TTL and MaxSize settings
// fit the workload; the size gauge backs the dashboard's usage bar.
package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	// cacheHits counts Get calls answered from the store.
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_cache_hits_total",
		Help: "Total number of analysis cache hits.",
	})

	// cacheMisses counts Get calls that found no valid entry, including
	// degraded-mode calls when the store is unavailable.
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_cache_misses_total",
		Help: "Total number of analysis cache misses.",
	})

	// cacheEvictions counts entries removed by the eviction pass (expired
	// and LRU combined).
	cacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_cache_evictions_total",
		Help: "Total number of cache entries evicted.",
	})

	// cacheSizeBytes tracks the stored byte total after each mutation or
	// status read.
	cacheSizeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "analysis_cache_size_bytes",
		Help: "Current total size of cached analysis results in bytes.",
	})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses, cacheEvictions, cacheSizeBytes)
}
