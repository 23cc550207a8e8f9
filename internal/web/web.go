package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"calstrip/internal/calendar"
	"calstrip/internal/config"
	"calstrip/internal/day"
	"calstrip/internal/ics"
	appLog "calstrip/internal/log"
	"calstrip/internal/window"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// CapturePath is the page URL path a headless capture should load.
const CapturePath = "/?capture=1"

const (
	defaultICSDays = 7
	icsCacheTTL    = 30 * time.Second
)

// Server exposes the calendar session over HTTP: the HTML page, a JSON API
// the page drives, an ICS export and the last captured preview.
type Server struct {
	cfg     *config.Config
	session *calendar.Session
	mux     *http.ServeMux

	// ICS documents for the same range never change during the process
	// lifetime except for DTSTAMP, so a short TTL cache is enough.
	icsMu    sync.RWMutex
	icsCache map[icsKey]icsEntry

	now func() time.Time
}

type icsKey struct {
	from string
	days int
}

type icsEntry struct {
	body      []byte
	updatedAt time.Time
}

// NewServer constructs a new Server around an existing session.
func NewServer(cfg *config.Config, session *calendar.Session) *Server {
	s := &Server{
		cfg:      cfg,
		session:  session,
		mux:      http.NewServeMux(),
		icsCache: make(map[icsKey]icsEntry),
		now:      time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// 빈 사용자명 또는 비밀번호가 설정된 경우에는 비활성화로 취급한다.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="calstrip", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)

	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/strip/click", s.handleStripClick)
	s.mux.HandleFunc("POST /api/strip/scroll", s.handleStripScroll)
	s.mux.HandleFunc("POST /api/feed/scroll", s.handleFeedScroll)
	s.mux.HandleFunc("POST /api/select", s.handleSelect)
	s.mux.HandleFunc("POST /api/viewport", s.handleViewport)
	s.mux.HandleFunc("GET /api/events.ics", s.handleEventsICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// indexPage is the template data for GET /.
type indexPage struct {
	calendar.Snapshot
	// Capture turns the page script read-only so a headless capture never
	// reports its own viewport or scroll offsets into the live session.
	Capture bool
}

// handleIndex renders the page with the current window already laid out,
// so the first paint (and a capture without JS) shows real content.
// Pending programmatic scrolls stay queued for the page's first API call.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{
		Snapshot: s.session.Peek(),
		Capture:  r.URL.Query().Get("capture") == "1",
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, page); err != nil {
		appLog.Error("failed to render index", err)
	}
}

// handlePreview serves the last PNG written by the capture pipeline.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Snapshot.Path)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleStripClick: POST /api/strip/click?index=N
func (s *Server) handleStripClick(w http.ResponseWriter, r *http.Request) {
	index, ok := requireInt(w, r, "index")
	if !ok {
		return
	}
	ignoreDomainError("strip click", s.session.ClickDay(index), "index", index)
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleStripScroll: POST /api/strip/scroll?offset=N
func (s *Server) handleStripScroll(w http.ResponseWriter, r *http.Request) {
	offset, ok := requireInt(w, r, "offset")
	if !ok {
		return
	}
	s.session.ScrollStrip(offset)
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleFeedScroll: POST /api/feed/scroll?offset=N
func (s *Server) handleFeedScroll(w http.ResponseWriter, r *http.Request) {
	offset, ok := requireInt(w, r, "offset")
	if !ok {
		return
	}
	s.session.ScrollFeed(offset)
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleSelect: POST /api/select?day=YYYY-MM-DD
//
// Malformed days are still a 400: they can only come from a hand-written
// request, not from the page.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	d, err := day.Parse(r.URL.Query().Get("day"), s.session.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ignoreDomainError("select day", s.session.SelectDay(d), "day", d.Format(day.ISOLayout))
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleViewport: POST /api/viewport?axis=horizontal|vertical&size=N
func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	axis, err := window.ParseAxis(r.URL.Query().Get("axis"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	size, ok := requireInt(w, r, "size")
	if !ok {
		return
	}
	s.session.Resize(axis, size)
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleEventsICS exports a range of the feed as text/calendar.
//
// GET /api/events.ics?from=2026-10-19&days=7
//   - from: first day (default: selected day)
//   - days: number of days (default 7, capped at the strip length)
func (s *Server) handleEventsICS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := s.session.SelectedDay()
	if v := q.Get("from"); v != "" {
		d, err := day.Parse(v, s.session.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		from = d
	}
	days := parseIntDefault(q.Get("days"), defaultICSDays)
	if days <= 0 {
		days = defaultICSDays
	}
	if days > s.cfg.Days {
		days = s.cfg.Days
	}

	key := icsKey{from: from.Format(day.ISOLayout), days: days}
	now := s.now()

	s.icsMu.RLock()
	entry, hit := s.icsCache[key]
	s.icsMu.RUnlock()

	if !hit || now.Sub(entry.updatedAt) >= icsCacheTTL {
		events := s.session.Events(from, days*s.session.EventsPerDay())
		entry = icsEntry{
			body:      ics.Export(events, "calstrip "+key.from, now),
			updatedAt: now,
		}
		s.icsMu.Lock()
		for k, e := range s.icsCache {
			if now.Sub(e.updatedAt) >= icsCacheTTL {
				delete(s.icsCache, k)
			}
		}
		s.icsCache[key] = entry
		s.icsMu.Unlock()

		appLog.Info("ics export", "from", key.from, "days", days, "event_count", len(events))
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calstrip-`+key.from+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(entry.body)
}

// ignoreDomainError drops the recoverable errors the page can trigger
// (out-of-range clicks, invalid dates); they leave the session untouched.
func ignoreDomainError(op string, err error, kv ...any) {
	if err == nil {
		return
	}
	if errors.Is(err, window.ErrOutOfRange) || errors.Is(err, day.ErrInvalidDate) {
		appLog.Debug(op+" ignored", append(kv, "reason", err.Error())...)
		return
	}
	appLog.Error(op+" failed", err, kv...)
}

func requireInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	n, err := strconv.Atoi(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name+": "+strconv.Quote(v))
		return 0, false
	}
	return n, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
