package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/bastionworks/garrison/internal/engine"
	"github.com/bastionworks/garrison/internal/scheduler"
)

const (
	DefaultPort            = 8080
	DefaultMaxHeartbeatTTL = 5 * time.Minute

	shutdownTimeout = 10 * time.Second
)

// Server exposes the engine over HTTP. One handler per engine operation;
// all the interesting rules live below, the handlers only translate.
type Server struct {
	game  *engine.Engine
	sched *scheduler.Scheduler

	port           int
	maxHeartbeatMS int64
	limiters       *limiterPool
}

type ServerOpt func(*Server)

func WithPort(port int) ServerOpt {
	return func(s *Server) {
		s.port = port
	}
}

// WithRateLimit bounds requests per player to rps with the given burst.
func WithRateLimit(rps float64, burst int) ServerOpt {
	return func(s *Server) {
		s.limiters = newLimiterPool(rps, burst)
	}
}

func WithMaxHeartbeatTTL(d time.Duration) ServerOpt {
	return func(s *Server) {
		s.maxHeartbeatMS = d.Milliseconds()
	}
}

func NewServer(game *engine.Engine, sched *scheduler.Scheduler, opts ...ServerOpt) *Server {
	s := &Server{
		game:           game,
		sched:          sched,
		port:           DefaultPort,
		maxHeartbeatMS: DefaultMaxHeartbeatTTL.Milliseconds(),
		limiters:       newLimiterPool(defaultRateRPS, defaultRateBurst),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the full route table. Split from Start so tests can mount
// it on httptest servers.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.limitPlayer)

	r.HandleFunc("/api/worlds/{player_id}", s.handleCreateWorld).Methods(http.MethodPost)
	r.HandleFunc("/api/worlds/{player_id}", s.handleGetWorld).Methods(http.MethodGet)
	r.HandleFunc("/api/worlds/{player_id}/sync", s.handleSync).Methods(http.MethodGet)
	r.HandleFunc("/api/worlds/{player_id}/heartbeat", s.handleHeartbeat).Methods(http.MethodPost)
	r.HandleFunc("/api/worlds/{player_id}/pause", s.handlePause).Methods(http.MethodPost)
	r.HandleFunc("/api/worlds/{player_id}/resume", s.handleResume).Methods(http.MethodPost)
	r.HandleFunc("/api/worlds/{player_id}/decision", s.handleDecision).Methods(http.MethodPost)
	r.HandleFunc("/api/worlds/{player_id}/ceremony", s.handleCeremony).Methods(http.MethodPost)
	r.HandleFunc("/api/worlds/{player_id}/mission", s.handleMission).Methods(http.MethodPost)
	r.HandleFunc("/api/worlds/{player_id}/timescale", s.handleTimeScale).Methods(http.MethodPost)
	r.HandleFunc("/api/worlds/{player_id}/reset", s.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/api/worlds/{player_id}/dispatch", s.handleDispatch).Methods(http.MethodGet)
	r.HandleFunc("/api/worlds/{player_id}/troopers/{slot:[0-9]+}/history", s.handleTrooperHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/scheduler/stats", s.handleSchedulerStats).Methods(http.MethodGet)

	return r
}

// Start serves until the context is cancelled, then drains in-flight
// requests before returning.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	slog.InfoContext(ctx, "listening for http", "port", s.port)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	}
}
