package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/The-Vigil/DAT-vs-market-Rate/internal/job"
	"github.com/The-Vigil/DAT-vs-market-Rate/internal/pipeline"
)

var servePort int

// Job statuses reported in the /runsync envelope.
const (
	statusCompleted = "COMPLETED"
	statusFailed    = "FAILED"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the synchronous job server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		handler := job.NewHandler(pipeline.New(cfg, newRateviewClient()))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: buildRouter(handler),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// syncResponse is the envelope returned by /runsync.
type syncResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Output        any    `json:"output"`
	ExecutionTime int64  `json:"executionTime"`
}

// buildRouter wires the job endpoints.
func buildRouter(h *job.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/runsync", func(w http.ResponseWriter, req *http.Request) {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read request body"})
			return
		}

		jobReq, err := job.ParseRequest(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job request"})
			return
		}

		id := jobReq.ID
		if id == "" {
			id = uuid.NewString()
		}

		start := time.Now()
		out := h.Handle(req.Context(), jobReq.Input)

		status := statusCompleted
		if _, failed := out.(job.ErrorOutput); failed {
			status = statusFailed
		}

		writeJSON(w, http.StatusOK, syncResponse{
			ID:            id,
			Status:        status,
			Output:        out,
			ExecutionTime: time.Since(start).Milliseconds(),
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request, tagged with the chi request ID.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
