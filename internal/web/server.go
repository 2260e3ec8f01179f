// Package web serves read-only league data and Prometheus metrics over HTTP.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/unrolled/render"

	"github.com/omarshaarawi/leaguebot/internal/models"
)

// League is the read side of the engine the API needs.
type League interface {
	Leaderboard(ctx context.Context) ([]models.RatingRecord, error)
	Matchups(ctx context.Context, week int) ([]models.Match, error)
	Unscheduled(ctx context.Context) ([]models.Match, error)
	CurrentWeek(ctx context.Context) (int, error)
}

type Server struct {
	server *http.Server
}

func NewServer(addr string, league League, metrics http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(league, metrics),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

const apiTimeout = 10 * time.Second

func NewRouter(league League, metrics http.Handler) *mux.Router {
	return newRouter(league, metrics, apiTimeout)
}

func newRouter(league League, metrics http.Handler, timeout time.Duration) *mux.Router {
	h := &handlers{league: league, render: render.New(render.Options{IndentJSON: true})}

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Timeout(timeout))
	api.HandleFunc("/leaderboard", h.leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/unscheduled", h.unscheduled).Methods(http.MethodGet)
	api.HandleFunc("/weeks/current/matches", h.currentMatches).Methods(http.MethodGet)
	api.HandleFunc("/weeks/{week:[0-9]+}/matches", h.weekMatches).Methods(http.MethodGet)
	return r
}

// Run serves until ctx is cancelled, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Web server listening", "addr", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
