package models

import (
	"fmt"
	"net/url"
)

// Endpoint is a configured base URL plus the ordered list of OpenAPI
// specification sources (directories or files) describing its surface.
// Endpoints are created at configuration time and immutable thereafter.
type Endpoint struct {
	BaseURL string   `json:"baseUrl" yaml:"baseUrl"`
	Specs   []string `json:"specs" yaml:"specs"`
}

// Host returns the host component of the endpoint's base URL.
// Endpoint identity is the base URL's host.
func (e Endpoint) Host() (string, error) {
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", e.BaseURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base URL %q has no host", e.BaseURL)
	}
	return u.Host, nil
}

// RequestDetails describes one outgoing request to be intercepted.
// Ephemeral: one per activation call, never persisted.
type RequestDetails struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// State is a read-only snapshot of a repository, recomputed on demand.
type State struct {
	ActiveIntercepts int        `json:"activeIntercepts"`
	Endpoints        []Endpoint `json:"endpoints"`
	SpecCount        int        `json:"specCount"`
}

// SpecInfo describes one loaded specification, for observability.
type SpecInfo struct {
	Endpoint string `json:"endpoint"` // endpoint host, empty for header-driven specs
	Key      string `json:"key"`
	Source   string `json:"source"`
	Title    string `json:"title,omitempty"`
	Version  string `json:"version,omitempty"`
}
