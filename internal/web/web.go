// Package web exposes a calendar session over HTTP. The server is the host
// of the calendar state: it renders pages as JSON and HTML, forwards
// selection and navigation commands into the state and acts as its pager.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"jcal/internal/calendar"
	"jcal/internal/config"
	"jcal/internal/ics"
	appLog "jcal/internal/log"
	"jcal/internal/model"
	"jcal/internal/snapshot"
)

// Server serves one calendar.State. All access to the state goes through mu
// since the state itself is single-threaded.
type Server struct {
	cfg     *config.Config
	overlay *ics.Overlay
	mux     *http.ServeMux

	mu    sync.Mutex
	state *calendar.State
	pager *pager
}

// pager is the server-side page control. Scroll requests are recorded as
// pending and settle after the command that issued them returns, the way an
// animated pager reports arrival later.
type pager struct {
	current int
	pending int
	moving  bool
}

func (p *pager) CurrentPage() int { return p.current }

func (p *pager) ScrollToPage(index int) {
	p.pending = index
	p.moving = true
}

// NewServer binds a pager to state and registers routes. overlay may be nil.
func NewServer(cfg *config.Config, state *calendar.State, overlay *ics.Overlay) *Server {
	s := &Server{
		cfg:     cfg,
		overlay: overlay,
		mux:     http.NewServeMux(),
		state:   state,
		pager:   &pager{current: state.ScrollPosition()},
	}
	state.BindPager(s.pager)
	state.ReportPageChanged(s.pager.current)
	s.registerRoutes()
	return s
}

// Handler returns the root handler, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down gracefully.
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects every route except /health.
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
			w.Header().Set("WWW-Authenticate", `Basic realm="jcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /calendar", s.handleCalendarPage)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("POST /api/select", s.handleSelect)
	s.mux.HandleFunc("POST /api/month", s.handleMonth)
	s.mux.HandleFunc("POST /api/page", s.handlePage)
	s.mux.HandleFunc("POST /api/scroll", s.handleScroll)
	s.mux.HandleFunc("POST /api/jump", s.handleJump)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCalendar renders the visible page.
//
// GET /api/calendar?all=1
//   - all: include every page instead of only the visible one
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("all") == "1"

	s.mu.Lock()
	resp := s.render(all)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	fields := snapshot.Encode(s.state)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, fields)
}

// POST /api/select?date=YYYY-MM-DD
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	d, err := model.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	s.command(w, func(st *calendar.State) { st.SelectDay(model.Day{Date: d}) })
}

// POST /api/month?month=YYYY-MM
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	ym, err := model.ParseYearMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}
	s.command(w, func(st *calendar.State) { st.SelectMonth(ym) })
}

// POST /api/page?index=N reports that a client-side pager settled on N.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}
	s.mu.Lock()
	if idx < 0 || idx >= s.state.PageCount() {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "index out of range")
		return
	}
	s.mu.Unlock()

	s.command(w, func(st *calendar.State) {
		s.pager.current = idx
		st.ReportPageChanged(idx)
	})
}

// POST /api/scroll?dir=forward|back
func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	var move func(*calendar.State) bool
	switch r.URL.Query().Get("dir") {
	case "forward":
		move = (*calendar.State).ScrollForward
	case "back":
		move = (*calendar.State).ScrollBack
	default:
		writeError(w, http.StatusBadRequest, "dir must be forward or back")
		return
	}
	s.command(w, func(st *calendar.State) { move(st) })
}

// POST /api/jump?month=YYYY-MM
func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	ym, err := model.ParseYearMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}
	s.command(w, func(st *calendar.State) { st.JumpToMonth(ym) })
}

// command runs fn against the state, lets any requested page transition
// settle, and responds with the visible page.
func (s *Server) command(w http.ResponseWriter, fn func(*calendar.State)) {
	s.mu.Lock()
	fn(s.state)
	s.settle()
	resp := s.render(false)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// settle completes a pending page transition and reports it to the state.
func (s *Server) settle() {
	if !s.pager.moving {
		return
	}
	s.pager.current = s.pager.pending
	s.pager.moving = false
	s.state.ReportPageChanged(s.pager.current)
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
