package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/monitoring"
	"github.com/sells-group/preview-pipeline/internal/queue"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the preview API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		q := queue.New(env.Store, env.Pipeline, cfg.Queue.Workers)
		go func() {
			if err := q.Start(ctx); err != nil {
				zap.L().Error("queue stopped", zap.Error(err))
			}
		}()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Handle("/metrics", monitoring.Handler())

		r.Post("/previews", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				URL string `json:"url"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			if req.URL == "" {
				http.Error(w, `{"error":"url is required"}`, http.StatusBadRequest)
				return
			}

			job, err := q.Enqueue(r.Context(), req.URL)
			if err != nil {
				zap.L().Error("enqueue failed", zap.String("url", req.URL), zap.Error(err))
				http.Error(w, `{"error":"could not queue job"}`, http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, http.StatusAccepted, job)
		})

		r.Get("/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
			job, err := q.Status(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				http.Error(w, `{"error":"job not found"}`, http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, job)
		})

		r.Get("/previews", func(w http.ResponseWriter, r *http.Request) {
			url := r.URL.Query().Get("url")
			if url == "" {
				http.Error(w, `{"error":"url query parameter is required"}`, http.StatusBadRequest)
				return
			}
			record, err := env.Cache.Get(r.Context(), url)
			if err != nil {
				http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
				return
			}
			if record == nil {
				http.Error(w, `{"error":"no preview cached for url"}`, http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, record)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
