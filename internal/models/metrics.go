package models

import "time"

// ServiceMetrics is a point-in-time summary of service activity.
type ServiceMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	GenerationRuns           uint64    `json:"generationRuns"`
	PerfectSolutions         uint64    `json:"perfectSolutions"`
	AverageGenerationMs      float64   `json:"averageGenerationMs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
