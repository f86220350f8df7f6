package models

import "time"

// GlobalStats represents aggregate activation statistics
type GlobalStats struct {
	TotalActivations int64          `json:"totalActivations"`
	TotalIntercepts  int64          `json:"totalIntercepts"`
	TotalMismatches  int64          `json:"totalMismatches"`
	TotalNotFound    int64          `json:"totalNotFound"`
	TotalSynthFailed int64          `json:"totalSynthFailed"`
	StartTime        time.Time      `json:"startTime"`
	Uptime           string         `json:"uptime"`
	Endpoints        []EndpointStat `json:"endpoints"`
}

// EndpointStat represents activation statistics for one endpoint host
type EndpointStat struct {
	Host         string `json:"host"`
	Activations  int64  `json:"activations"`
	Intercepts   int64  `json:"intercepts"`
	NotFound     int64  `json:"notFound"`
	SynthFailed  int64  `json:"synthFailed"`
	LastActivity string `json:"lastActivity,omitempty"`
}
