// Package server exposes a decoded bitmap as JSON over HTTP and serves
// static files next to it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/anas-shakeel/bmp-parser/internal/bmp"
	"github.com/anas-shakeel/bmp-parser/internal/config"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler http.Handler
}

func New(cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{cfg: cfg, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+cfg.APIPrefix+"/bmp", s.handleBitmap)
	mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))

	var h http.Handler = mux
	if cfg.Gzip {
		h = gzhttp.GzipHandler(h)
	}
	s.handler = s.logRequests(h)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe blocks until ctx is cancelled, then shuts the server down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.cfg.Addr, "image", s.cfg.Image)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleBitmap(w http.ResponseWriter, r *http.Request) {
	bitmap, err := bmp.Read(s.cfg.Image)
	if err != nil {
		status := statusFor(err)
		s.logger.Error("couldn't decode bitmap", "path", s.cfg.Image, "status", status, "err", err)
		s.writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, bitmap)
}

func statusFor(err error) int {
	var (
		formatErr      bmp.FormatError
		unsupportedErr bmp.UnsupportedError
	)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, bmp.ErrShortRead), errors.As(err, &formatErr), errors.As(err, &unsupportedErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("couldn't encode response", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug("couldn't write response", "err", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
