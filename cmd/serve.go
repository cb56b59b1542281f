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

	"github.com/affimark/verifier/internal/model"
	"github.com/affimark/verifier/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/api/analyze", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				URL         string            `json:"url"`
				UserContext model.UserContext `json:"user_context"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if body.URL == "" {
				writeError(w, http.StatusBadRequest, "url is required")
				return
			}

			resp, err := env.Orchestrator.Analyze(req.Context(), body.URL, body.UserContext)
			if err != nil {
				zap.L().Error("api: analyze failed", zap.String("url", body.URL), zap.Error(err))
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Post("/api/rerank", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				SessionID string         `json:"session_id"`
				Mode      model.RankMode `json:"mode"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}

			resp, err := env.Orchestrator.Rerank(req.Context(), body.SessionID, body.Mode)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Get("/api/sessions", func(w http.ResponseWriter, req *http.Request) {
			sessions, err := env.Store.ListSessions(req.Context(), store.SessionFilter{
				Status: model.SessionStatus(req.URL.Query().Get("status")),
				URL:    req.URL.Query().Get("url"),
			})
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, sessions)
		})

		r.Get("/api/sessions/{id}", func(w http.ResponseWriter, req *http.Request) {
			sess, err := env.Store.GetSession(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, sess)
		})

		r.Post("/api/playbook", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				SessionID string `json:"session_id"`
				ProgramID string `json:"program_id"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}

			playbook, err := env.Orchestrator.BuildPlaybook(req.Context(), body.SessionID, body.ProgramID)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, playbook)
		})

		r.Post("/api/watchlist", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				SessionID string `json:"session_id"`
				ProgramID string `json:"program_id"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}

			if err := env.Orchestrator.Watchlist(req.Context(), body.SessionID, body.ProgramID); err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
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
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
