package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"hugbridge/pkg/config"
	"hugbridge/pkg/queue"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = 18791

	shutdownTimeout = 5 * time.Second
)

// Server exposes liveness, readiness, and Prometheus metrics over HTTP. It
// doubles as the keep-alive listener some hosting platforms require.
type Server struct {
	cfg   config.StatusConfig
	queue *queue.Queue
	log   *slog.Logger

	mu            sync.RWMutex
	startedAt     time.Time
	channelStates map[string]ChannelState
}

// ChannelState reflects whether an inbound channel's receive loop is running.
type ChannelState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Status        string                  `json:"status"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	QueueDepth    int                     `json:"queue_depth"`
	Channels      map[string]ChannelState `json:"channels"`
}

func NewServer(cfg config.StatusConfig, q *queue.Queue, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		cfg:           cfg,
		queue:         q,
		log:           log.With("component", "status"),
		channelStates: make(map[string]ChannelState),
	}
}

// SetChannelState records the running state of a named inbound channel.
// Readiness requires at least one running channel.
func (s *Server) SetChannelState(name string, running bool, err error) {
	state := ChannelState{Running: running}
	if err != nil {
		state.Error = err.Error()
	}

	s.mu.Lock()
	s.channelStates[name] = state
	s.mu.Unlock()
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	server := &http.Server{
		Addr:              s.address(),
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("Status server shutdown error", "error", err)
		}
	}()

	s.log.Info("Status server started", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start status server: %w", err)
	}

	<-shutdownDone
	return nil
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) address() string {
	host := strings.TrimSpace(s.cfg.Host)
	if host == "" {
		host = defaultHost
	}

	port := s.cfg.Port
	if port <= 0 {
		port = defaultPort
	}

	return host + ":" + strconv.Itoa(port)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Server) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Server) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	depth := 0
	if s.queue != nil {
		depth = s.queue.Depth()
	}

	channels := make(map[string]ChannelState, len(s.channelStates))
	for name, state := range s.channelStates {
		channels[name] = state
	}

	return statusResponse{
		Status:        status,
		UptimeSeconds: uptime,
		QueueDepth:    depth,
		Channels:      channels,
	}
}

func (s *Server) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, state := range s.channelStates {
		if state.Running {
			return true
		}
	}

	return false
}
