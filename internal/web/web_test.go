package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"calstrip/internal/calendar"
	"calstrip/internal/config"
	"calstrip/internal/ics"
)

var today = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.Snapshot.Path = filepath.Join(t.TempDir(), "preview.png")
	if mutate != nil {
		mutate(cfg)
	}
	session, err := calendar.New(calendar.OptionsFromConfig(cfg, today))
	if err != nil {
		t.Fatalf("calendar.New: %v", err)
	}
	t.Cleanup(session.Close)
	return NewServer(cfg, session)
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) calendar.Snapshot {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var snap calendar.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return snap
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/health")
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("health = %d %q", w.Code, w.Body.String())
	}
}

func TestIndexRendersWindow(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`data-ready="false"`, "width: 73000px", "height: 365000px", "Event 1", "Monday, October 19, 2026"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}

	if w := do(t, s, http.MethodGet, "/nope"); w.Code != http.StatusNotFound {
		t.Errorf("/nope status = %d", w.Code)
	}
}

func TestClickThenEcho(t *testing.T) {
	s := newTestServer(t, nil)

	snap := decodeSnapshot(t, do(t, s, http.MethodPost, "/api/strip/click?index=10"))
	if snap.SelectedDay != "2026-10-29" {
		t.Errorf("selected = %s", snap.SelectedDay)
	}
	if snap.Feed.ScrollTo == nil || *snap.Feed.ScrollTo != 5000 {
		t.Fatalf("feed scroll_to = %v", snap.Feed.ScrollTo)
	}

	// The browser applies scrollTop and reports it back.
	snap = decodeSnapshot(t, do(t, s, http.MethodPost, "/api/feed/scroll?offset=5000"))
	if snap.Feed.ScrollTo != nil || snap.Strip.ScrollTo != nil {
		t.Errorf("echo produced scroll commands: %+v / %+v", snap.Feed.ScrollTo, snap.Strip.ScrollTo)
	}
	if snap.SelectedDay != "2026-10-29" || snap.Feed.State != "idle" {
		t.Errorf("after echo: %s %s", snap.SelectedDay, snap.Feed.State)
	}
}

func TestFeedScrollMovesStrip(t *testing.T) {
	s := newTestServer(t, nil)
	snap := decodeSnapshot(t, do(t, s, http.MethodPost, "/api/feed/scroll?offset=12300"))
	if snap.SelectedDay != "2026-11-12" { // index 123 -> day 24
		t.Errorf("selected = %s", snap.SelectedDay)
	}
	if snap.Strip.ScrollTo == nil || *snap.Strip.ScrollTo != 2400 {
		t.Errorf("strip scroll_to = %v", snap.Strip.ScrollTo)
	}
	if snap.ScrollRequest != nil {
		t.Errorf("scroll request left pending: %s", *snap.ScrollRequest)
	}
}

func TestDomainErrorsAreIgnored(t *testing.T) {
	s := newTestServer(t, nil)
	for _, target := range []string{
		"/api/strip/click?index=9999",
		"/api/select?day=2099-01-01",
		"/api/select?day=2026-10-18",
	} {
		snap := decodeSnapshot(t, do(t, s, http.MethodPost, target))
		if snap.SelectedDay != "2026-10-19" {
			t.Errorf("%s: selected = %s", target, snap.SelectedDay)
		}
		if snap.Strip.ScrollTo != nil || snap.Feed.ScrollTo != nil {
			t.Errorf("%s: produced scroll commands", target)
		}
		highlighted := 0
		for _, c := range snap.Strip.Cells {
			if c.Selected {
				highlighted++
			}
		}
		if highlighted != 1 {
			t.Errorf("%s: highlighted cells = %d, want 1", target, highlighted)
		}
	}
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		method, target string
		want           int
	}{
		{http.MethodPost, "/api/strip/click?index=abc", http.StatusBadRequest},
		{http.MethodPost, "/api/feed/scroll", http.StatusBadRequest},
		{http.MethodPost, "/api/select?day=31.12.2026", http.StatusBadRequest},
		{http.MethodPost, "/api/viewport?axis=diagonal&size=10", http.StatusBadRequest},
		{http.MethodGet, "/api/events.ics?from=tomorrow", http.StatusBadRequest},
		{http.MethodGet, "/api/strip/click?index=1", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		if w := do(t, s, tt.method, tt.target); w.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.target, w.Code, tt.want)
		}
	}
}

func TestSelectAndViewport(t *testing.T) {
	s := newTestServer(t, nil)

	snap := decodeSnapshot(t, do(t, s, http.MethodPost, "/api/viewport?axis=vertical&size=400"))
	if snap.Feed.Viewport != 400 {
		t.Errorf("feed viewport = %d", snap.Feed.Viewport)
	}

	snap = decodeSnapshot(t, do(t, s, http.MethodPost, "/api/select?day=2026-12-25"))
	if snap.SelectedDay != "2026-12-25" {
		t.Errorf("selected = %s", snap.SelectedDay)
	}
	if snap.Feed.ScrollTo == nil || *snap.Feed.ScrollTo != 67*5*100 {
		t.Errorf("feed scroll_to = %v", snap.Feed.ScrollTo)
	}
	if snap.Strip.ScrollTo == nil || *snap.Strip.ScrollTo != 6700 {
		t.Errorf("strip scroll_to = %v", snap.Strip.ScrollTo)
	}
}

func TestEventsICS(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/api/events.ics?from=2026-10-20&days=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}

	events, err := ics.Decode(w.Body.Bytes(), time.UTC)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(events) != 10 {
		t.Fatalf("events = %d, want 10", len(events))
	}
	if events[0].ID != "2026-10-20T00:00:00Z-0" {
		t.Errorf("first event = %s", events[0].ID)
	}

	// Cached response is reused verbatim within the TTL.
	again := do(t, s, http.MethodGet, "/api/events.ics?from=2026-10-20&days=2")
	if again.Body.String() != w.Body.String() {
		t.Error("cached export differs")
	}
}

func TestEventsICSDefaultsToSelectedDay(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/api/strip/click?index=3")

	w := do(t, s, http.MethodGet, "/api/events.ics")
	events, err := ics.Decode(w.Body.Bytes(), time.UTC)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(events) != 35 {
		t.Errorf("events = %d, want 35", len(events))
	}
	if events[0].ID != "2026-10-22T00:00:00Z-0" {
		t.Errorf("first event = %s", events[0].ID)
	}
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, nil)
	if w := do(t, s, http.MethodGet, "/preview.png"); w.Code != http.StatusNotFound {
		t.Errorf("missing preview status = %d", w.Code)
	}
	if err := os.WriteFile(s.cfg.Snapshot.Path, []byte("\x89PNG"), 0o644); err != nil {
		t.Fatal(err)
	}
	if w := do(t, s, http.MethodGet, "/preview.png"); w.Code != http.StatusOK {
		t.Errorf("preview status = %d", w.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	})

	if w := do(t, s, http.MethodGet, "/health"); w.Code != http.StatusOK {
		t.Errorf("health behind auth: %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/api/state"); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated state: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.SetBasicAuth("admin", "secret")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated state: %d", w.Code)
	}
}

func TestEventsICSCachePrunesExpired(t *testing.T) {
	s := newTestServer(t, nil)
	clock := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	for _, from := range []string{"2026-10-20", "0001-01-01", "9999-12-31"} {
		if w := do(t, s, http.MethodGet, "/api/events.ics?from="+from); w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", from, w.Code)
		}
	}
	if n := len(s.icsCache); n != 3 {
		t.Fatalf("cache entries = %d, want 3", n)
	}

	clock = clock.Add(icsCacheTTL)
	do(t, s, http.MethodGet, "/api/events.ics?from=2026-10-21")
	if n := len(s.icsCache); n != 1 {
		t.Errorf("cache entries after TTL = %d, want 1", n)
	}
}

func TestCapturePageIsReadOnly(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/api/strip/click?index=10")

	w := do(t, s, http.MethodGet, CapturePath)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`data-capture="true"`, `data-feed-offset="5000"`, "October 29, 2026"} {
		if !strings.Contains(body, want) {
			t.Errorf("capture page missing %q", want)
		}
	}
	if strings.Contains(do(t, s, http.MethodGet, "/").Body.String(), `data-capture="true"`) {
		t.Error("regular page rendered in capture mode")
	}

	// Rendering the page leaves the queued feed scroll for the live tab.
	snap := decodeSnapshot(t, do(t, s, http.MethodGet, "/api/state"))
	if snap.Feed.ScrollTo == nil || *snap.Feed.ScrollTo != 5000 {
		t.Errorf("feed scroll_to = %v after page loads", snap.Feed.ScrollTo)
	}
}

func TestPageScriptRendersViewportResponses(t *testing.T) {
	s := newTestServer(t, nil)
	body := do(t, s, http.MethodGet, "/").Body.String()
	for _, want := range []string{
		`post("/api/viewport?axis=horizontal&size="`,
		`post("/api/viewport?axis=vertical&size="`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page script missing %s", want)
		}
	}
}
