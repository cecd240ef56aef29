// Package web wires the HTTP surface of the publisher.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/gosom/social-publisher/web/handlers"
)

// Server is the HTTP server exposing the publish and integration endpoints.
type Server struct {
	srv *http.Server
	lg  *zap.Logger
}

func New(group *handlers.Group, addr string, lg *zap.Logger) *Server {
	router := mux.NewRouter()

	router.Use(loggingMiddleware(lg), recoverMiddleware(lg))

	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/publish-due", group.Publish.HandlePublishDue).Methods(http.MethodPost)
	router.HandleFunc("/oauth/start", group.OAuth.HandleStart).Methods(http.MethodGet)
	router.HandleFunc("/oauth/callback", group.OAuth.HandleCallback).Methods(http.MethodGet)
	router.HandleFunc("/telegram/verify", group.Telegram.HandleVerify).Methods(http.MethodPost)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		lg: lg,
	}
}

// Handler exposes the configured router.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = s.srv.Shutdown(shutdownCtx)
	}()

	s.lg.Info("http server listening", zap.String("addr", s.srv.Addr))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func loggingMiddleware(lg *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t0 := time.Now()

			next.ServeHTTP(w, r)

			lg.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("duration", time.Since(t0)),
			)
		})
	}
}

func recoverMiddleware(lg *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					lg.Error("panic in handler",
						zap.String("path", r.URL.Path),
						zap.Any("panic", rec),
					)

					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
