// Package web serves the catalogs as JSON: DataTable listings, CRUD with
// soft delete, login with a signed cookie or an API key.
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"perseo/internal/auth"
	"perseo/internal/db"
	"perseo/internal/metrics"
	"perseo/internal/repository"
)

type Server struct {
	db     *db.DB
	store  *repository.Store
	signer *auth.Signer
	log    *zap.Logger
	loc    *time.Location
	now    func() time.Time
	mux    *http.ServeMux
}

// New wires every route. loc is the local zone shown by /perfil.
func New(d *db.DB, signer *auth.Signer, log *zap.Logger, loc *time.Location) *Server {
	if loc == nil {
		loc = time.UTC
	}
	s := &Server{
		db:     d,
		store:  repository.New(&d.Conn),
		signer: signer,
		log:    log,
		loc:    loc,
		now:    time.Now,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.healthz)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{
		ErrorLog:      zap.NewStdLog(s.log),
		ErrorHandling: promhttp.ContinueOnError,
	}))

	s.mux.HandleFunc("POST /login", s.login)
	s.mux.Handle("GET /logout", s.require("", 0, s.logout))
	s.mux.Handle("GET /perfil", s.require("", 0, s.perfil))

	for _, r := range repository.Resources {
		s.resourceRoutes(r)
	}
}

// ServeHTTP counts every request by matched pattern and status.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	route := r.Pattern
	if route == "" {
		route = "unmatched"
	}
	metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.SQL.PingContext(r.Context()); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Serve runs the server until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		log.Info("http shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
