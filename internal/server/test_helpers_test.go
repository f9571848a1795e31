package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"title-party/internal/config"
	"title-party/internal/game"
	"title-party/internal/notify"
	"title-party/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testApp struct {
	srv    *Server
	engine *game.Engine
	clock  *testClock
	ts     *httptest.Server
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.PublicURL = "https://party.example"
	cfg.RateLimitPerSecond = 0
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config, opts ...Option) *testApp {
	t.Helper()
	repo := store.NewMemory()
	cards := make([]game.WordCard, 0, 40)
	for i := 0; i < 40; i++ {
		cards = append(cards, game.WordCard{ID: fmt.Sprintf("card-%02d", i), Word: fmt.Sprintf("w%02d", i)})
	}
	repo.SeedCatalog(cards, []game.Theme{{ID: "theme-1", Name: "夏"}, {ID: "theme-2", Name: "冬"}})

	clock := &testClock{now: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
	bus := notify.NewBus()
	engine := game.NewEngine(repo, cfg.GameRules(),
		game.WithNotifier(bus),
		game.WithClock(clock.Now),
		game.WithRand(rand.New(rand.NewPCG(3, 4))),
	)
	srv := New(engine, bus, cfg, nil, opts...)
	app := &testApp{srv: srv, engine: engine, clock: clock}
	app.ts = newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		app.ts.Close()
	})
	return app
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, ts.URL+path, &body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func expectStatus(t *testing.T, resp *http.Response, want int) map[string]any {
	t.Helper()
	body := decodeBody(t, resp)
	require.Equal(t, want, resp.StatusCode, "body: %v", body)
	return body
}
