// Package gateway installs and serves network interceptions. The gateway is
// an http.RoundTripper the code under test is given: round trips matching an
// installed intercept receive the synthesized response without touching the
// network, everything else flows to the next transport.
package gateway

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Intercept is one installed interception handle. Single-use unless
// persistent; owned by the gateway's in-process list from installation until
// RestoreAll.
type Intercept struct {
	ID         string `json:"id"`
	Host       string `json:"host"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode int    `json:"statusCode"`
	Persistent bool   `json:"persistent"`

	body []byte
}

// Gateway tracks active intercepts and answers matching round trips.
type Gateway struct {
	mu         sync.Mutex
	next       http.RoundTripper
	intercepts []*Intercept
}

// New creates a gateway. Requests matching no intercept flow to next;
// nil means http.DefaultTransport.
func New(next http.RoundTripper) *Gateway {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Gateway{next: next}
}

// Install registers an interception bound to the base URL's host and the
// exact request path for the given method, replying with the given status
// and JSON body on the next matching call.
func (g *Gateway) Install(baseURL, method, path string, statusCode int, body []byte, persistent bool) (*Intercept, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", baseURL)
	}

	ic := &Intercept{
		ID:         uuid.New().String(),
		Host:       u.Host,
		Method:     strings.ToUpper(method),
		Path:       path,
		StatusCode: statusCode,
		Persistent: persistent,
		body:       body,
	}

	g.mu.Lock()
	g.intercepts = append(g.intercepts, ic)
	g.mu.Unlock()

	return ic, nil
}

// RoundTrip serves the first active intercept matching the request's method,
// host and path, consuming it unless persistent. Non-matching requests go to
// the next transport.
func (g *Gateway) RoundTrip(req *http.Request) (*http.Response, error) {
	g.mu.Lock()
	for i, ic := range g.intercepts {
		if ic.Method != req.Method || ic.Host != req.URL.Host || ic.Path != req.URL.Path {
			continue
		}
		if !ic.Persistent {
			g.intercepts = append(g.intercepts[:i], g.intercepts[i+1:]...)
		}
		g.mu.Unlock()
		return mockResponse(req, ic), nil
	}
	g.mu.Unlock()

	return g.next.RoundTrip(req)
}

// RestoreAll disables persistence on every handle and clears the registry.
// Idempotent: safe to call any number of times, active or not.
func (g *Gateway) RestoreAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, ic := range g.intercepts {
		ic.Persistent = false
	}
	g.intercepts = nil
}

// ActiveCount returns the number of currently active intercepts.
func (g *Gateway) ActiveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.intercepts)
}

// Active returns a snapshot of the active intercept handles.
func (g *Gateway) Active() []Intercept {
	g.mu.Lock()
	defer g.mu.Unlock()

	result := make([]Intercept, len(g.intercepts))
	for i, ic := range g.intercepts {
		result[i] = *ic
	}
	return result
}

func mockResponse(req *http.Request, ic *Intercept) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", ic.StatusCode, http.StatusText(ic.StatusCode)),
		StatusCode:    ic.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(ic.body)),
		ContentLength: int64(len(ic.body)),
		Request:       req,
	}
}
