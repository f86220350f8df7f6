package tracing

import (
	"fmt"
	"testing"

	"github.com/specnock/specnock/internal/models"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name        string
		maxTraces   int
		expectedMax int
	}{
		{"positive max", 500, 500},
		{"zero max defaults to 1000", 0, 1000},
		{"negative max defaults to 1000", -1, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.maxTraces)
			if s == nil {
				t.Fatal("NewService returned nil")
			}
			if s.maxTraces != tt.expectedMax {
				t.Errorf("Expected maxTraces %d, got %d", tt.expectedMax, s.maxTraces)
			}
		})
	}
}

func TestRecordTrace(t *testing.T) {
	s := NewService(100)

	trace := &models.Trace{
		Method:   "GET",
		URL:      "https://api.example.com/users",
		Outcome:  models.OutcomeIntercepted,
		Endpoint: "api.example.com",
	}

	s.RecordTrace(trace)

	// Verify ID was generated
	if trace.ID == "" {
		t.Error("Expected trace ID to be generated")
	}

	// Verify timestamp was set
	if trace.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}

	traces := s.GetTraces(nil)
	if len(traces) != 1 {
		t.Errorf("Expected 1 trace, got %d", len(traces))
	}
}

func TestRecordTrace_MaxLimit(t *testing.T) {
	s := NewService(5)

	for i := 0; i < 10; i++ {
		s.RecordTrace(&models.Trace{
			Method: "GET",
			URL:    fmt.Sprintf("https://api.example.com/users/%d", i),
		})
	}

	traces := s.GetTraces(nil)
	if len(traces) != 5 {
		t.Errorf("Expected 5 traces after trimming, got %d", len(traces))
	}

	// Newest first
	if traces[0].URL != "https://api.example.com/users/9" {
		t.Errorf("Expected newest trace first, got %s", traces[0].URL)
	}
}

func TestGetTracesFilter(t *testing.T) {
	s := NewService(100)

	s.RecordTrace(&models.Trace{Method: "GET", Outcome: models.OutcomeIntercepted, Endpoint: "a.example.com"})
	s.RecordTrace(&models.Trace{Method: "POST", Outcome: models.OutcomeSpecNotFound, Endpoint: "a.example.com"})
	s.RecordTrace(&models.Trace{Method: "GET", Outcome: models.OutcomeIntercepted, Endpoint: "b.example.com"})

	byOutcome := s.GetTraces(&models.TraceFilter{Outcome: models.OutcomeIntercepted})
	if len(byOutcome) != 2 {
		t.Errorf("Expected 2 intercepted traces, got %d", len(byOutcome))
	}

	byEndpoint := s.GetTraces(&models.TraceFilter{Endpoint: "b.example.com"})
	if len(byEndpoint) != 1 {
		t.Errorf("Expected 1 trace for b.example.com, got %d", len(byEndpoint))
	}

	limited := s.GetTraces(&models.TraceFilter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %d traces", len(limited))
	}
}

func TestGetTrace(t *testing.T) {
	s := NewService(100)

	trace := &models.Trace{Method: "GET", URL: "https://api.example.com/x"}
	s.RecordTrace(trace)

	found := s.GetTrace(trace.ID)
	if found == nil {
		t.Fatal("Expected trace to be found by ID")
	}
	if found.URL != trace.URL {
		t.Errorf("Expected URL %s, got %s", trace.URL, found.URL)
	}

	if s.GetTrace("missing") != nil {
		t.Error("Expected nil for unknown trace ID")
	}
}

func TestSubscribe(t *testing.T) {
	s := NewService(100)

	id, ch := s.Subscribe()
	if id == "" {
		t.Fatal("Expected subscription ID")
	}

	s.RecordTrace(&models.Trace{Method: "GET"})

	select {
	case trace := <-ch:
		if trace.Method != "GET" {
			t.Errorf("Expected GET trace, got %s", trace.Method)
		}
	default:
		t.Error("Expected trace on subscription channel")
	}

	s.Unsubscribe(id)

	// Channel should be closed after unsubscribe
	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed")
	}
}

func TestClearTraces(t *testing.T) {
	s := NewService(100)

	s.RecordTrace(&models.Trace{Method: "GET"})
	s.ClearTraces()

	if len(s.GetTraces(nil)) != 0 {
		t.Error("Expected no traces after clear")
	}
}
