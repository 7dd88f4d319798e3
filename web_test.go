/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/greenlight/roster"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, players int) (*httptest.Server, *roster.Store) {
	t.Helper()

	cfg := &Config{
		players:    players,
		port:       8080,
		storage:    "memory",
		storageKey: roster.DefaultKey,
	}

	store, closeStorage, err := openStore(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 64)
	go drainErrors(cfg, errs)

	h := newHub(store)
	go h.run(ctx, cfg)

	srv := httptest.NewServer(newRouter(cfg, store, h, errs))

	t.Cleanup(func() {
		cancel()
		srv.Close()
		store.Close()
		_ = closeStorage()
	})

	return srv, store
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer resp.Body.Close()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{players: 16, port: 8080, storage: "memory", storageKey: "k"}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.port = 0 }, true},
		{"no players", func(c *Config) { c.players = 0 }, true},
		{"unknown storage", func(c *Config) { c.storage = "redis" }, true},
		{"file without path", func(c *Config) { c.storage = "file" }, true},
		{"sqlite with path", func(c *Config) { c.storage = "sqlite"; c.storagePath = "/tmp/x.db" }, false},
		{"lonely cert", func(c *Config) { c.tlsCert = "cert.pem" }, true},
		{"empty key", func(c *Config) { c.storageKey = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			if err := c.validate(); (err != nil) != tt.wantErr {
				t.Fatalf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigReadsEnvironment(t *testing.T) {
	t.Setenv("GREENLIGHT_PLAYERS", "16")
	t.Setenv("GREENLIGHT_STORAGE", "sqlite")

	cfg := &Config{}
	newCmd(cfg)

	if cfg.players != 16 {
		t.Fatalf("players = %d, want 16", cfg.players)
	}
	if cfg.storage != "sqlite" {
		t.Fatalf("storage = %q, want sqlite", cfg.storage)
	}
	if cfg.storageKey != roster.DefaultKey {
		t.Fatalf("storage key = %q, want default", cfg.storageKey)
	}
}

func TestRosterEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, 16)

	resp, err := http.Get(srv.URL + "/api/players")
	if err != nil {
		t.Fatalf("get roster: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	players := decodeBody[roster.Roster](t, resp)
	if len(players) != 16 {
		t.Fatalf("len = %d, want 16", len(players))
	}
	if players[0].Name != "Player 001" || !players[0].Alive {
		t.Fatalf("first player = %+v", players[0])
	}
}

func TestPlayerEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, 16)

	tests := []struct {
		path string
		want int
	}{
		{"/api/players/5", http.StatusOK},
		{"/api/players/17", http.StatusNotFound},
		{"/api/players/five", http.StatusBadRequest},
	}

	for _, tt := range tests {
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatalf("get %s: %v", tt.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Fatalf("%s status = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestToggleEndpoint(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t, 16)

	for _, id := range []string{"3", "7", "3"} {
		resp, err := http.Post(srv.URL+"/api/players/"+id+"/toggle", "application/json", nil)
		if err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("toggle %s status = %d", id, resp.StatusCode)
		}
	}

	resp, err := http.Post(srv.URL+"/api/players/99/toggle", "application/json", nil)
	if err != nil {
		t.Fatalf("toggle unknown: %v", err)
	}
	summary := decodeBody[roster.Summary](t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unknown toggle status = %d, want 200", resp.StatusCode)
	}
	if summary.Eliminated != 1 || summary.MostRecentlyEliminated.ID != 7 {
		t.Fatalf("summary = %d eliminated, latest %d", summary.Eliminated, summary.MostRecentlyEliminated.ID)
	}

	count, err := store.EliminatedCount()
	if err != nil {
		t.Fatalf("eliminated count: %v", err)
	}
	if count != 1 {
		t.Fatalf("eliminated = %d, want 1", count)
	}

	resp, err = http.Post(srv.URL+"/api/players/x/toggle", "application/json", nil)
	if err != nil {
		t.Fatalf("toggle bad id: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", resp.StatusCode)
	}
}

func TestSummaryEndpointSentinel(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, 16)

	resp, err := http.Get(srv.URL + "/api/summary")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), `"id":"none"`) {
		t.Fatalf("summary without sentinel: %s", body)
	}
}

func TestResetEndpoint(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t, 16)

	for _, id := range []int{1, 2} {
		if err := store.Toggle(id); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}

	resp, err := http.Post(srv.URL+"/api/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	summary := decodeBody[roster.Summary](t, resp)
	if summary.Alive != 16 || summary.Eliminated != 0 {
		t.Fatalf("after reset alive=%d eliminated=%d", summary.Alive, summary.Eliminated)
	}
}

func TestStaticRoutes(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, 16)

	tests := []struct {
		path        string
		contentType string
	}{
		{"/controller", "text/html"},
		{"/display", "text/html"},
		{"/assets/board.js", "text/javascript"},
		{"/assets/app.css", "text/css"},
		{"/favicon.svg", "image/svg+xml"},
		{"/controller/qr", "image/png"},
		{"/healthz", "text/plain"},
		{"/version", "text/plain"},
		{"/robots.txt", "text/plain"},
	}

	for _, tt := range tests {
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatalf("get %s: %v", tt.path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", tt.path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
			t.Fatalf("%s content type = %q, want %q", tt.path, ct, tt.contentType)
		}
	}

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", resp.StatusCode)
	}
}

func TestControllerURL(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		proto string
		want  string
	}{
		"no header":      {"", "http://board.local/greenlight/controller"},
		"https":          {"https", "https://board.local/greenlight/controller"},
		"upper case":     {"HTTPS", "https://board.local/greenlight/controller"},
		"unknown scheme": {"javascript", "http://board.local/greenlight/controller"},
		"injected path":  {"https://evil.example/x?", "http://board.local/greenlight/controller"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://board.local/greenlight/controller/qr", nil)
			if tt.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tt.proto)
			}

			if got := controllerURL(r); got != tt.want {
				t.Fatalf("controllerURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func readSummary(t *testing.T, conn *websocket.Conn) SummaryMessage {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	for {
		var msg SummaryMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read websocket: %v", err)
		}
		if msg.Type == "summary" {
			return msg
		}
	}
}

func dialBoard(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestWebsocketToggleReachesEveryPage(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, 16)

	controller := dialBoard(t, srv)
	display := dialBoard(t, srv)

	if msg := readSummary(t, controller); msg.Source != "connect" || msg.Total != 16 {
		t.Fatalf("controller hello = %+v", msg)
	}
	if msg := readSummary(t, display); msg.Source != "connect" || msg.Alive != 16 {
		t.Fatalf("display hello = %+v", msg)
	}

	if err := controller.WriteJSON(ClientMessage{Type: "toggle", ID: 9}); err != nil {
		t.Fatalf("send toggle: %v", err)
	}

	for name, conn := range map[string]*websocket.Conn{"controller": controller, "display": display} {
		msg := readSummary(t, conn)
		if msg.Source != "local" {
			t.Fatalf("%s source = %q, want local", name, msg.Source)
		}
		if msg.Eliminated != 1 || msg.MostRecentlyEliminated.ID != 9 {
			t.Fatalf("%s summary eliminated=%d latest=%d", name, msg.Eliminated, msg.MostRecentlyEliminated.ID)
		}
	}
}

func TestHTTPToggleReachesWebsocket(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, 16)

	display := dialBoard(t, srv)
	readSummary(t, display)

	resp, err := http.Post(srv.URL+"/api/players/4/toggle", "application/json", nil)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	resp.Body.Close()

	msg := readSummary(t, display)
	if msg.Eliminated != 1 {
		t.Fatalf("eliminated = %d, want 1", msg.Eliminated)
	}
	p, ok := msg.Players.Find(4)
	if !ok || p.Alive {
		t.Fatalf("player 4 = %+v, want eliminated", p)
	}
}
