// Package specnock is a test-double library for HTTP clients: given OpenAPI
// specifications and a set of configured base-URL endpoints, it intercepts
// outgoing requests made during test execution and answers them with
// schema-derived mock responses, so test suites can exercise client code
// without reaching a real network.
//
// A Repository is constructed explicitly and threaded through test
// setup/teardown; there is no process-wide singleton. The code under test is
// given Client() or Transport(), and each ActivateForRequest call installs
// one interception for the next matching outgoing call.
package specnock

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/specnock/specnock/internal/gateway"
	"github.com/specnock/specnock/internal/matcher"
	"github.com/specnock/specnock/internal/models"
	"github.com/specnock/specnock/internal/registry"
	"github.com/specnock/specnock/internal/resolver"
	"github.com/specnock/specnock/internal/stats"
	"github.com/specnock/specnock/internal/synth"
	"github.com/specnock/specnock/internal/tracing"
)

// Re-exported configuration and snapshot types.
type (
	Endpoint       = models.Endpoint
	RequestDetails = models.RequestDetails
	State          = models.State
	ValueFunc      = synth.ValueFunc
)

// Config is the back-compatible configuration shape: endpoints plus an
// optional header-driven spec map (header name -> header value -> spec
// source), layered on top of the endpoint-based lookup.
type Config struct {
	Endpoints []Endpoint                   `json:"endpoints" yaml:"endpoints"`
	SpecMap   map[string]map[string]string `json:"specMap,omitempty" yaml:"specMap,omitempty"`
}

// Errors surfaced by the repository. Per-request conditions (endpoint
// mismatch, no matching spec, unusable response) are swallowed by
// ActivateForRequest and only show up in traces and logs.
var (
	ErrInvalidEndpoints = errors.New("endpoints must be a non-empty list of {baseUrl, specs}")
	ErrNotConfigured    = errors.New("repository not configured")

	ErrEndpointMismatch = resolver.ErrEndpointMismatch
	ErrSpecNotFound     = matcher.ErrSpecNotFound
	ErrNoUsableResponse = synth.ErrNoUsableResponse
)

type options struct {
	next            http.RoundTripper
	valueFn         ValueFunc
	defaultBasePath string
	logger          *log.Logger
	traceBuffer     int
	persistent      bool
}

// Option configures a Repository.
type Option func(*options)

// WithNext sets the transport unmatched requests flow to. Defaults to
// http.DefaultTransport.
func WithNext(next http.RoundTripper) Option {
	return func(o *options) { o.next = next }
}

// WithValueFunc replaces the leaf-value generation strategy used when
// synthesizing bodies from schemas.
func WithValueFunc(fn ValueFunc) Option {
	return func(o *options) { o.valueFn = fn }
}

// WithDefaultBasePath sets the base path assumed for specifications that
// declare no server URL. Defaults to "/".
func WithDefaultBasePath(basePath string) Option {
	return func(o *options) { o.defaultBasePath = basePath }
}

// WithLogger sets the logger for recoverable warnings. Defaults to
// log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTraceBuffer sets how many activation traces are retained.
func WithTraceBuffer(n int) Option {
	return func(o *options) { o.traceBuffer = n }
}

// WithPersistentIntercepts makes installed intercepts answer every matching
// call instead of only the next one. Restore still clears them.
func WithPersistentIntercepts(persistent bool) Option {
	return func(o *options) { o.persistent = persistent }
}

// Repository owns the loaded specifications and the active interceptions
// for one test suite. Not safe for concurrent mutation; it assumes a single
// synchronous caller, the test's setup/teardown hooks.
type Repository struct {
	logger      *log.Logger
	store       *registry.Store
	matcher     *matcher.Matcher
	synthesizer *synth.Synthesizer
	gateway     *gateway.Gateway
	collector   *stats.Collector
	tracer      *tracing.Service
	persistent  bool

	mu        sync.RWMutex
	endpoints []Endpoint
	resolver  *resolver.Resolver
}

// New creates an empty repository. Initialize or Configure must be called
// before activating requests.
func New(opts ...Option) *Repository {
	o := options{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Repository{
		logger:      o.logger,
		store:       registry.NewStore(o.logger),
		matcher:     matcher.New(o.defaultBasePath),
		synthesizer: synth.New(o.valueFn),
		gateway:     gateway.New(o.next),
		collector:   stats.NewCollector(),
		tracer:      tracing.NewService(o.traceBuffer),
		persistent:  o.persistent,
	}
}

// Initialize validates the endpoint list and loads every declared
// specification source. An invalid shape fails synchronously and loads
// nothing; individual unreadable or malformed spec files are skipped with a
// warning.
func (r *Repository) Initialize(endpoints []Endpoint) error {
	if err := validateEndpoints(endpoints); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.Reset()
	r.endpoints = nil
	r.resolver = nil

	for _, ep := range endpoints {
		if err := r.store.Load(ep); err != nil {
			return err
		}
	}

	r.endpoints = append([]Endpoint(nil), endpoints...)
	r.resolver = resolver.New(r.endpoints)
	return nil
}

// Configure is the back-compatible wrapper around Initialize, additionally
// registering header-driven spec-map entries.
func (r *Repository) Configure(cfg Config) error {
	if err := r.Initialize(cfg.Endpoints); err != nil {
		return err
	}
	for header, values := range cfg.SpecMap {
		for value, source := range values {
			r.store.LoadHeaderSpec(header, value, source)
		}
	}
	return nil
}

// ActivateForRequest performs resolve, match, synthesize and install for one
// outgoing request. Ordinary no-match conditions never return an error: they
// are logged, recorded and skipped, and the request will simply proceed
// unmocked. Errors are returned only for malformed input or an unconfigured
// repository.
func (r *Repository) ActivateForRequest(req RequestDetails) error {
	r.mu.RLock()
	res := r.resolver
	r.mu.RUnlock()

	if res == nil {
		return ErrNotConfigured
	}

	trace, err := r.activate(res, req, true)
	if err != nil {
		return err
	}

	r.collector.RecordOutcome(trace.Endpoint, trace.Outcome)
	r.tracer.RecordTrace(trace)
	return nil
}

// Preview runs resolve, match and synthesize for a request without
// installing an intercept or touching stats. Used by the debug API and the
// CLI dry-run command.
func (r *Repository) Preview(req RequestDetails) (*models.Trace, error) {
	r.mu.RLock()
	res := r.resolver
	r.mu.RUnlock()

	if res == nil {
		return nil, ErrNotConfigured
	}
	return r.activate(res, req, false)
}

// activate implements the resolve -> match -> synthesize -> install pipeline,
// returning the outcome as a trace.
func (r *Repository) activate(res *resolver.Resolver, req RequestDetails, install bool) (*models.Trace, error) {
	trace := &models.Trace{
		Method: strings.ToUpper(req.Method),
		URL:    req.URL,
	}

	ep, err := res.Resolve(req.URL)
	if err != nil {
		if errors.Is(err, ErrEndpointMismatch) {
			r.logger.Printf("WARN: %v, request proceeds unmocked", err)
			trace.Outcome = models.OutcomeEndpointMismatch
			trace.Error = err.Error()
			return trace, nil
		}
		return nil, err
	}

	host, err := ep.Host()
	if err != nil {
		return nil, err
	}
	trace.Endpoint = host

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %q: %w", req.URL, err)
	}
	requestPath := u.Path
	if requestPath == "" {
		requestPath = "/"
	}

	entries := r.entriesFor(host, req.Headers)

	m, err := r.matcher.Match(entries, requestPath, req.Method)
	if err != nil {
		r.logger.Printf("WARN: %v on endpoint %s, request proceeds unmocked", err, host)
		trace.Outcome = models.OutcomeSpecNotFound
		trace.Error = err.Error()
		return trace, nil
	}
	trace.SpecKey = m.SpecKey
	trace.Template = m.Template
	trace.Score = m.Score

	result, err := r.synthesizer.Synthesize(m.Operation, req.Method, seedFor(m, req))
	if err != nil {
		r.logger.Printf("WARN: mock synthesis failed for %s %s: %v", trace.Method, requestPath, err)
		trace.Outcome = models.OutcomeSynthFailed
		trace.Error = err.Error()
		return trace, nil
	}

	body, err := json.Marshal(result.Body)
	if err != nil {
		return nil, fmt.Errorf("mock body not JSON-serializable: %w", err)
	}

	trace.Outcome = models.OutcomeIntercepted
	trace.StatusCode = result.StatusCode
	trace.Body = string(body)

	if install {
		if _, err := r.gateway.Install(ep.BaseURL, req.Method, requestPath, result.StatusCode, body, r.persistent); err != nil {
			return nil, err
		}
	}
	return trace, nil
}

// entriesFor returns the specifications to search: the endpoint's loaded
// set, with any header-mapped spec placed first so header-driven selection
// wins ties and scores alike.
func (r *Repository) entriesFor(host string, headers map[string]string) []*registry.Entry {
	entries := r.store.Specs(host)
	for name, value := range headers {
		if entry, ok := r.store.HeaderSpec(name, value); ok {
			return append([]*registry.Entry{entry}, entries...)
		}
	}
	return entries
}

// seedFor returns the request body as generation seed data for POST/PUT
// operations that declare a request schema.
func seedFor(m *matcher.Match, req RequestDetails) string {
	method := strings.ToUpper(req.Method)
	if method != http.MethodPost && method != http.MethodPut {
		return ""
	}
	if req.Body == "" || m.Operation.RequestBody == nil {
		return ""
	}
	return req.Body
}

// Restore disables persistence on every active intercept and clears the
// interception registry. Idempotent, safe to call in any teardown pattern.
func (r *Repository) Restore() {
	r.gateway.RestoreAll()
}

// GetState returns a read-only snapshot of the repository.
func (r *Repository) GetState() State {
	r.mu.RLock()
	endpoints := append([]Endpoint(nil), r.endpoints...)
	r.mu.RUnlock()

	return State{
		ActiveIntercepts: r.gateway.ActiveCount(),
		Endpoints:        endpoints,
		SpecCount:        r.store.Count(),
	}
}

// Transport returns the interception round tripper to inject into the code
// under test.
func (r *Repository) Transport() http.RoundTripper {
	return r.gateway
}

// Client returns an http.Client wired to the interception transport.
func (r *Repository) Client() *http.Client {
	return &http.Client{Transport: r.gateway}
}

// Intercepts returns a snapshot of the active intercept handles.
func (r *Repository) Intercepts() []gateway.Intercept {
	return r.gateway.Active()
}

// Specs returns a snapshot describing every loaded specification.
func (r *Repository) Specs() []models.SpecInfo {
	return r.store.Overview()
}

// Stats returns aggregate activation statistics.
func (r *Repository) Stats() *models.GlobalStats {
	return r.collector.GlobalStats()
}

// Traces returns recorded activation traces matching the filter, newest
// first.
func (r *Repository) Traces(filter *models.TraceFilter) []*models.Trace {
	return r.tracer.GetTraces(filter)
}

// TraceService exposes the trace service for the debug API's live stream.
func (r *Repository) TraceService() *tracing.Service {
	return r.tracer
}

func validateEndpoints(endpoints []Endpoint) error {
	if len(endpoints) == 0 {
		return ErrInvalidEndpoints
	}
	for i, ep := range endpoints {
		if ep.BaseURL == "" {
			return fmt.Errorf("%w: endpoint %d has no baseUrl", ErrInvalidEndpoints, i)
		}
		if _, err := ep.Host(); err != nil {
			return fmt.Errorf("%w: endpoint %d: %v", ErrInvalidEndpoints, i, err)
		}
		if ep.Specs == nil {
			return fmt.Errorf("%w: endpoint %d has no specs list", ErrInvalidEndpoints, i)
		}
	}
	return nil
}
