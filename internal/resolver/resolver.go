// Package resolver maps outgoing request URLs to configured endpoints.
package resolver

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/specnock/specnock/internal/models"
)

// ErrEndpointMismatch is returned when a request host matches no configured
// endpoint. Recoverable: the caller proceeds without installing an intercept.
var ErrEndpointMismatch = errors.New("request host matches no configured endpoint")

// Resolver finds the configured endpoint an outgoing request belongs to.
type Resolver struct {
	endpoints []models.Endpoint
	hosts     []string // parsed once, index-aligned with endpoints
}

// New creates a resolver over the configured endpoints. Endpoints with an
// unparsable base URL were rejected at configuration time, so parsing here
// cannot fail.
func New(endpoints []models.Endpoint) *Resolver {
	r := &Resolver{endpoints: endpoints}
	for _, ep := range endpoints {
		host, _ := ep.Host()
		r.hosts = append(r.hosts, host)
	}
	return r
}

// Resolve parses the request URL and compares its host against each
// configured endpoint's base-URL host, exact match, first match in
// configuration order wins.
func (r *Resolver) Resolve(rawURL string) (models.Endpoint, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return models.Endpoint{}, fmt.Errorf("invalid request URL %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return models.Endpoint{}, fmt.Errorf("request URL %q has no host", rawURL)
	}

	for i, host := range r.hosts {
		if host == u.Host {
			return r.endpoints[i], nil
		}
	}
	return models.Endpoint{}, fmt.Errorf("%w: %s", ErrEndpointMismatch, u.Host)
}
