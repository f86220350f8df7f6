package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/specnock/specnock/internal/models"
)

// Collector aggregates activation outcomes per endpoint host.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	endpoints map[string]*endpointCounter

	mismatches int64 // activations that resolved to no endpoint
}

type endpointCounter struct {
	host         string
	activations  int64
	intercepts   int64
	notFound     int64
	synthFailed  int64
	lastActivity time.Time
}

// NewCollector creates a new statistics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		endpoints: make(map[string]*endpointCounter),
	}
}

// RecordOutcome records one activation outcome. host is empty for
// endpoint mismatches.
func (c *Collector) RecordOutcome(host, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if outcome == models.OutcomeEndpointMismatch {
		c.mismatches++
		return
	}

	counter, ok := c.endpoints[host]
	if !ok {
		counter = &endpointCounter{host: host}
		c.endpoints[host] = counter
	}

	counter.activations++
	counter.lastActivity = time.Now()

	switch outcome {
	case models.OutcomeIntercepted:
		counter.intercepts++
	case models.OutcomeSpecNotFound:
		counter.notFound++
	case models.OutcomeSynthFailed:
		counter.synthFailed++
	}
}

// GlobalStats returns an aggregate snapshot.
func (c *Collector) GlobalStats() *models.GlobalStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := &models.GlobalStats{
		TotalMismatches: c.mismatches,
		StartTime:       c.startTime,
		Uptime:          formatDuration(time.Since(c.startTime)),
	}

	for _, counter := range c.endpoints {
		stats.TotalActivations += counter.activations
		stats.TotalIntercepts += counter.intercepts
		stats.TotalNotFound += counter.notFound
		stats.TotalSynthFailed += counter.synthFailed

		ep := models.EndpointStat{
			Host:        counter.host,
			Activations: counter.activations,
			Intercepts:  counter.intercepts,
			NotFound:    counter.notFound,
			SynthFailed: counter.synthFailed,
		}
		if !counter.lastActivity.IsZero() {
			ep.LastActivity = counter.lastActivity.Format(time.RFC3339)
		}
		stats.Endpoints = append(stats.Endpoints, ep)
	}
	stats.TotalActivations += c.mismatches

	sort.Slice(stats.Endpoints, func(i, j int) bool {
		return stats.Endpoints[i].Host < stats.Endpoints[j].Host
	})

	return stats
}

// EndpointStats returns the snapshot for one endpoint host.
func (c *Collector) EndpointStats(host string) (models.EndpointStat, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counter, ok := c.endpoints[host]
	if !ok {
		return models.EndpointStat{}, false
	}

	ep := models.EndpointStat{
		Host:        counter.host,
		Activations: counter.activations,
		Intercepts:  counter.intercepts,
		NotFound:    counter.notFound,
		SynthFailed: counter.synthFailed,
	}
	if !counter.lastActivity.IsZero() {
		ep.LastActivity = counter.lastActivity.Format(time.RFC3339)
	}
	return ep, true
}

// Reset clears all counters, keeping the start time.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endpoints = make(map[string]*endpointCounter)
	c.mismatches = 0
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return d.String()
}
