package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"text-vectorizer/internal/app"
	"text-vectorizer/internal/httputil"
	"text-vectorizer/internal/metrics"
	"text-vectorizer/internal/vectorizer"
)

const (
	shutdownTimeout = 15 * time.Second

	internalErrorMessage = "Vectorization failed due to an internal error"
	timeoutMessage       = "Vectorization timed out"
)

type vectorsRequest struct {
	Text *string `json:"text" validate:"required"`
}

type vectorsResponse struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
	Dim    int       `json:"dim"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, app.Build); err != nil {
		slog.Default().Error("vectorizer failed", "err", err)
		stop()
		os.Exit(1)
	}
}

// run builds the dependencies, serves until ctx is done and releases the
// dependencies on every return path.
func run(ctx context.Context, build func(context.Context) (app.Deps, error)) error {
	// The model is loaded before the listener opens, so probes never see a
	// half-initialized process.
	deps, err := build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("failed to close dependencies", "err", err)
		}
	}()

	if err := serve(ctx, deps); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func serve(ctx context.Context, deps app.Deps) error {
	addr := net.JoinHostPort(deps.Config.Host, strconv.Itoa(deps.Config.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("vectorizer listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		deps.Log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(deps app.Deps) *chi.Mux {
	r := httputil.NewRouter(deps.Log, deps.Config.RequestTimeout)

	r.Get("/.well-known/live", httputil.NoContentHandler())
	r.Get("/.well-known/ready", httputil.NoContentHandler())
	r.Get("/meta", metaHandler(deps))
	r.Post("/vectors", vectorsHandler(deps))
	if deps.Config.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}
	return r
}

func metaHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, deps.Meta.Info())
	}
}

func vectorsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req vectorsRequest
		if err := httputil.DecodeJSON(w, r, deps.Config.MaxBodySize, &req); err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusUnprocessableEntity)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		vec, err := deps.Vectorizer.Vectorize(r.Context(), req.Text)
		if err != nil {
			if errors.Is(err, vectorizer.ErrInvalidInput) {
				httputil.Fail(deps.Log, w, err.Error(), err, http.StatusUnprocessableEntity)
				return
			}
			message := err.Error()
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				message = timeoutMessage
			case message == "":
				message = internalErrorMessage
			}
			httputil.Fail(deps.Log, w, message, err, http.StatusInternalServerError)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, vectorsResponse{
			Text:   *req.Text,
			Vector: vec,
			Dim:    len(vec),
		})
	}
}
