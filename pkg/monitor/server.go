// Package monitor serves the web console: an HTML page and JSON
// API over a console.Console, live state pushed over a websocket
// and server-sent events, and workflow statistics.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"digital.vasic.testconsole/pkg/console"
	"digital.vasic.testconsole/pkg/logging"
	"digital.vasic.testconsole/pkg/metrics"
	"digital.vasic.testconsole/pkg/render"
	"digital.vasic.testconsole/pkg/testcase"
)

const writeWait = 10 * time.Second

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logging.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics exposes m on /metrics.
func WithMetrics(m *metrics.PrometheusMetrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithCollector replaces the event collector.
func WithCollector(c *EventCollector) ServerOption {
	return func(s *Server) {
		if c != nil {
			s.collector = c
		}
	}
}

// Server is the web console.
type Server struct {
	addr      string
	console   *console.Console
	collector *EventCollector
	dashboard *DashboardData
	metrics   *metrics.PrometheusMetrics
	renderer  *render.HTMLRenderer
	logger    logging.Logger
	hub       *hub
	upgrader  websocket.Upgrader
	router    chi.Router
	detach    []func()

	mu     sync.Mutex
	server *http.Server
}

// NewServer creates a web console for con listening on addr. It
// subscribes to con immediately; call Stop to unsubscribe.
func NewServer(addr string, con *console.Console, opts ...ServerOption) *Server {
	s := &Server{
		addr:      addr,
		console:   con,
		collector: NewEventCollector(),
		dashboard: NewDashboardData(uuid.NewString()),
		renderer:  render.NewHTMLRenderer(),
		logger:    logging.NullLogger{},
		hub:       newHub(),
	}
	for _, o := range opts {
		o(s)
	}

	s.collector.OnEvent(s.dashboard.UpdateFromEvent)
	s.detach = append(s.detach,
		s.collector.Attach(con),
		con.Subscribe(s.push),
	)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/metrics", s.handleMetrics)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/events", s.handleSSE)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/events", s.handleEvents)
		r.Get("/dashboard", s.handleDashboard)
		r.Post("/actions/{action}", s.handleAction)
	})
	return r
}

// Handler returns the HTTP handler of the web console.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Collector returns the event collector.
func (s *Server) Collector() *EventCollector {
	return s.collector
}

// Dashboard returns the live dashboard data.
func (s *Server) Dashboard() *DashboardData {
	return s.dashboard
}

// Start serves until ctx is done or the server fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	s.logger.Info("web console listening", logging.StringField("addr", s.addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("monitor server: %w", err)
	}
	return nil
}

// Stop shuts the server down, disconnects live clients and
// unsubscribes from the console.
func (s *Server) Stop(ctx context.Context) error {
	for _, fn := range s.detach {
		fn()
	}
	s.detach = nil
	s.hub.close()

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) push(ev console.Event) {
	we := FromConsoleEvent(ev)
	s.hub.broadcast(StreamMessage{
		Type:  "state",
		Event: &we,
		State: render.NewDocument(ev.State, true),
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.renderer.WritePage(w, s.console.State())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, render.NewDocument(s.console.State(), true))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.Events())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dashboard.Snapshot())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.metrics.WriteTo(w)
}

// actionResponse is the JSON reply to an action request.
type actionResponse struct {
	State render.Document `json:"state"`
	Error string          `json:"error,omitempty"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	req := console.Request{Action: console.Action(chi.URLParam(r, "action"))}
	if id := r.FormValue("id"); id != "" {
		req.ID = testcase.ID(id)
	}
	if raw := r.FormValue("index"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "index must be an integer", http.StatusBadRequest)
			return
		}
		req.Index = n
	}

	// The workflow outlives a client that disconnects mid-request.
	ctx := context.WithoutCancel(r.Context())
	state, err := s.console.Dispatch(ctx, req)

	code := http.StatusOK
	switch {
	case errors.Is(err, console.ErrUnknownAction):
		code = http.StatusNotFound
	case errors.Is(err, console.ErrControlDisabled):
		code = http.StatusConflict
	case errors.Is(err, console.ErrMissingID), errors.Is(err, console.ErrNotToggleable):
		code = http.StatusBadRequest
	}

	if wantsJSON(r) {
		resp := actionResponse{State: render.NewDocument(state, true)}
		if err != nil {
			resp.Error = err.Error()
		}
		writeJSON(w, code, resp)
		return
	}
	if code != http.StatusOK {
		http.Error(w, err.Error(), code)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.ErrorField(err))
		return
	}
	defer conn.Close()

	ch := s.hub.add()
	if ch == nil {
		return
	}
	defer s.hub.remove(ch)

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(StreamMessage{
		Type:  "snapshot",
		State: render.NewDocument(s.console.State(), true),
	}); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-ch:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.hub.add()
	if ch == nil {
		http.Error(w, "server stopping", http.StatusServiceUnavailable)
		return
	}
	defer s.hub.remove(ch)

	// Send initial dashboard state
	if data, err := json.Marshal(s.dashboard.Snapshot()); err == nil {
		fmt.Fprintf(w, "event: dashboard\ndata: %s\n\n", data)
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(msg.Event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: workflow\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "json" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
