package httpapp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Options struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Middlewares run inside recovery and logging, before routing.
	Middlewares []func(http.Handler) http.Handler
	// Metrics, when set, is served on /metrics.
	Metrics http.Handler
}

type HTTPApp struct {
	log    *zap.Logger
	server *http.Server
	router chi.Router
	addr   string
}

func New(log *zap.Logger, opts Options, register func(chi.Router)) *HTTPApp {
	if log == nil {
		log = zap.NewNop()
	}
	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(recoveryMiddleware(log))
	r.Use(loggingMiddleware(log))
	for _, mw := range opts.Middlewares {
		r.Use(mw)
	}

	r.Get("/healthz", healthHandler)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}
	register(r)

	return &HTTPApp{
		log:    log,
		router: r,
		addr:   addr,
		server: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
	}
}

// Handler exposes the fully wired router.
func (a *HTTPApp) Handler() http.Handler {
	return a.router
}

func (a *HTTPApp) Run() error {
	const op = "httpapp.Run"

	l, err := net.Listen("tcp", a.addr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("http server started", zap.String("addr", l.Addr().String()))

	if err := a.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *HTTPApp) Stop(ctx context.Context) {
	a.log.Info("stopping http server", zap.String("addr", a.addr))
	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("http shutdown error", zap.Error(err))
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func loggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			}
			if ww.Status() >= http.StatusInternalServerError {
				log.Error("http request failed", fields...)
				return
			}
			log.Info("http request", fields...)
		})
	}
}

func recoveryMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic recovered", zap.Any("panic", rec), zap.String("path", r.URL.Path))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal error"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
