package gateway

import (
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockedTransport fails every round trip, proving nothing reaches the
// network in these tests.
type blockedTransport struct {
	calls int
}

func (b *blockedTransport) RoundTrip(*http.Request) (*http.Response, error) {
	b.calls++
	return nil, errors.New("network blocked")
}

func newRequest(t *testing.T, method, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	return req
}

func TestInstallAndRoundTrip(t *testing.T) {
	next := &blockedTransport{}
	g := New(next)

	ic, err := g.Install("https://api.example.com", "POST", "/items", 201, []byte(`{"id":"1"}`), false)
	require.NoError(t, err)
	assert.NotEmpty(t, ic.ID)
	assert.Equal(t, 1, g.ActiveCount())

	resp, err := g.RoundTrip(newRequest(t, "POST", "https://api.example.com/items"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(body))

	assert.Zero(t, next.calls)
}

func TestOneShotInterceptIsConsumed(t *testing.T) {
	next := &blockedTransport{}
	g := New(next)

	_, err := g.Install("https://api.example.com", "GET", "/items", 200, []byte(`{}`), false)
	require.NoError(t, err)

	resp, err := g.RoundTrip(newRequest(t, "GET", "https://api.example.com/items"))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Zero(t, g.ActiveCount())

	_, err = g.RoundTrip(newRequest(t, "GET", "https://api.example.com/items"))
	assert.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestPersistentInterceptAnswersRepeatedly(t *testing.T) {
	g := New(&blockedTransport{})

	_, err := g.Install("https://api.example.com", "GET", "/items", 200, []byte(`{}`), true)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		resp, err := g.RoundTrip(newRequest(t, "GET", "https://api.example.com/items"))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, 200, resp.StatusCode)
	}
	assert.Equal(t, 1, g.ActiveCount())
}

func TestNonMatchingRequestFallsThrough(t *testing.T) {
	next := &blockedTransport{}
	g := New(next)

	_, err := g.Install("https://api.example.com", "GET", "/items", 200, []byte(`{}`), false)
	require.NoError(t, err)

	tests := []struct {
		method string
		url    string
	}{
		{"POST", "https://api.example.com/items"},   // wrong method
		{"GET", "https://other.example.com/items"},  // wrong host
		{"GET", "https://api.example.com/articles"}, // wrong path
	}

	for _, tt := range tests {
		_, err := g.RoundTrip(newRequest(t, tt.method, tt.url))
		assert.Error(t, err, "%s %s", tt.method, tt.url)
	}
	assert.Equal(t, len(tests), next.calls)
	assert.Equal(t, 1, g.ActiveCount())
}

func TestRestoreAllIsIdempotent(t *testing.T) {
	g := New(&blockedTransport{})

	// Safe with nothing active
	g.RestoreAll()
	assert.Zero(t, g.ActiveCount())

	_, err := g.Install("https://api.example.com", "GET", "/a", 200, nil, true)
	require.NoError(t, err)
	_, err = g.Install("https://api.example.com", "GET", "/b", 200, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 2, g.ActiveCount())

	g.RestoreAll()
	g.RestoreAll()
	g.RestoreAll()
	assert.Zero(t, g.ActiveCount())
}

func TestInstallRejectsInvalidBaseURL(t *testing.T) {
	g := New(&blockedTransport{})

	_, err := g.Install("not-a-url", "GET", "/a", 200, nil, false)
	assert.Error(t, err)
	assert.Zero(t, g.ActiveCount())
}

func TestActiveSnapshot(t *testing.T) {
	g := New(&blockedTransport{})

	_, err := g.Install("https://api.example.com", "get", "/a", 200, nil, false)
	require.NoError(t, err)

	active := g.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "GET", active[0].Method)
	assert.Equal(t, "api.example.com", active[0].Host)
	assert.Equal(t, "/a", active[0].Path)
}
