package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/address-classifier/internal/config"
	"github.com/sells-group/address-classifier/internal/pipeline"
	"github.com/sells-group/address-classifier/internal/store"
)

const maxRequestBody = 1 << 20

var servePort int

// addressClassifier is the part of the classifier the HTTP handlers use.
type addressClassifier interface {
	Classify(ctx context.Context, address string) (*pipeline.Classification, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the classification HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initClassifier(ctx, config.ModeServe)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(env.Classifier, env.Store, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the API routes. st may be nil, in which case the history
// endpoint reports 503.
func buildRouter(clf addressClassifier, st store.Store, origins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/classify", handleClassify(clf))
		r.Get("/classifications", handleHistory(st))
	})

	return r
}

func handleClassify(clf addressClassifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Address string `json:"address"`
		}
		// An unreadable body is treated the same as a missing address.
		_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req)

		if strings.TrimSpace(req.Address) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing 'address'"})
			return
		}
		if clf == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "classifier not configured"})
			return
		}

		out, err := clf.Classify(r.Context(), req.Address)
		if errors.Is(err, pipeline.ErrEmptyAddress) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing 'address'"})
			return
		}
		if err != nil {
			zap.L().Error("classify request failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "classification failed"})
			return
		}

		writeJSON(w, http.StatusOK, out.Classification)
	}
}

func handleHistory(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history store not configured"})
			return
		}

		limit := store.DefaultListLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		records, err := st.List(r.Context(), limit)
		if err != nil {
			zap.L().Error("list classifications failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list classifications"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"classifications": records})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
