package liveconnect

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testTokenJSON is the canonical token endpoint response for tests.
const testTokenJSON = `{
	"access_token": "test-access-token",
	"expires_in": 3600,
	"refresh_token": "test-refresh-token",
	"scope": "wl.skydrive",
	"token_type": "bearer"
}`

const testRedirectURL = "https://oauth.live.com/desktop"

// testConfig returns config JSON for a confidential client.
func testConfig(t *testing.T, refreshToken string) string {
	t.Helper()

	cfg := &Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Scopes:       "wl.offline_access wl.skydrive",
		RefreshToken: refreshToken,
	}

	text, err := cfg.encode()
	require.NoError(t, err)

	return text
}

// mockService fakes the token endpoint and the REST API on one server.
type mockService struct {
	srv        *httptest.Server
	tokenCalls atomic.Int32
	apiCalls   atomic.Int32

	mu          sync.Mutex
	tokenParams []url.Values
}

// newMockService starts a fake service. A nil tokenHandler answers with
// testTokenJSON; a nil apiHandler answers {} to everything.
func newMockService(t *testing.T, tokenHandler, apiHandler http.HandlerFunc) *mockService {
	t.Helper()

	m := &mockService{}

	if tokenHandler == nil {
		tokenHandler = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=UTF-8")
			_, _ = w.Write([]byte(testTokenJSON))
		}
	}

	if apiHandler == nil {
		apiHandler = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=UTF-8")
			_, _ = w.Write([]byte(`{}`))
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /token", func(w http.ResponseWriter, r *http.Request) {
		m.tokenCalls.Add(1)
		m.mu.Lock()
		m.tokenParams = append(m.tokenParams, r.URL.Query())
		m.mu.Unlock()
		tokenHandler(w, r)
	})
	mux.HandleFunc("/v5.0/", func(w http.ResponseWriter, r *http.Request) {
		m.apiCalls.Add(1)
		apiHandler(w, r)
	})

	m.srv = httptest.NewServer(mux)
	t.Cleanup(m.srv.Close)

	return m
}

func (m *mockService) endpoints() Endpoints {
	return Endpoints{
		AuthorizeURL: m.srv.URL + "/authorize",
		TokenURL:     m.srv.URL + "/token",
		RedirectURL:  testRedirectURL,
		APIBase:      m.srv.URL + "/v5.0",
	}
}

func (m *mockService) lastTokenParams() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.tokenParams) == 0 {
		return nil
	}

	return m.tokenParams[len(m.tokenParams)-1]
}

// testClock is a settable clock for validity-window tests.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestClock() *testClock {
	return &testClock{now: time.Date(2011, 6, 1, 12, 0, 0, 0, time.UTC)}
}

// newTestClient builds a Client against m with a fixed clock.
func newTestClient(t *testing.T, m *mockService, store ConfigStore, consent ConsentFunc) (*Client, *testClock) {
	t.Helper()

	c, err := NewClient(store, Options{
		HTTPClient: m.srv.Client(),
		Consent:    consent,
		Endpoints:  m.endpoints(),
		Logger:     slog.Default(),
	})
	require.NoError(t, err)

	clock := newTestClock()
	c.engine.nowFunc = clock.Now

	return c, clock
}

// staticConsent returns a ConsentFunc that records the authorize URL and
// answers with redirect.
func staticConsent(redirect string, seen *string) ConsentFunc {
	return func(_ context.Context, authorizeURL string) (string, error) {
		if seen != nil {
			*seen = authorizeURL
		}

		return redirect, nil
	}
}
