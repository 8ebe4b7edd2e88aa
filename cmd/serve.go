package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/sidecar"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a local HTTP server exposing documents and live state events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// Seed the hub from the library so list/detail work immediately.
		sidecarPaths := map[string]string{}
		records, err := env.Library.ListDocuments(ctx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			f, err := sidecar.Load(rec.SidecarPath)
			if err != nil {
				zap.L().Warn("skipping unreadable sidecar",
					zap.String("path", rec.SidecarPath),
					zap.Error(err),
				)
				continue
			}
			env.Hub.Put(f.App)
			sidecarPaths[f.App.ID] = rec.SidecarPath
		}

		// One batch at a time per document.
		var processMu sync.Mutex

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /documents", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, env.Hub.List())
		})

		mux.HandleFunc("GET /documents/{id}", func(w http.ResponseWriter, r *http.Request) {
			doc, ok := env.Hub.Get(r.PathValue("id"))
			if !ok {
				http.Error(w, `{"error":"document not found"}`, http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, doc)
		})

		mux.HandleFunc("POST /documents/{id}/process", func(w http.ResponseWriter, r *http.Request) {
			id := r.PathValue("id")
			path, ok := sidecarPaths[id]
			if !ok {
				http.Error(w, `{"error":"document not found"}`, http.StatusNotFound)
				return
			}

			go func() {
				processMu.Lock()
				defer processMu.Unlock()

				f, err := sidecar.Load(path)
				if err != nil {
					zap.L().Error("load sidecar for processing", zap.String("id", id), zap.Error(err))
					return
				}
				p := env.processor()
				p.Persist = sidecarSaver{path: path}
				if err := p.RunBatch(ctx, f); err != nil {
					zap.L().Error("batch failed", zap.String("id", id), zap.Error(err))
				}
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "document": id})
		})

		mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
			flusher, ok := w.(http.Flusher)
			if !ok {
				http.Error(w, "streaming unsupported", http.StatusInternalServerError)
				return
			}
			events, cancel := env.Hub.Subscribe()
			defer cancel()

			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			flusher.Flush()

			for {
				select {
				case <-r.Context().Done():
					return
				case ev, ok := <-events:
					if !ok {
						return
					}
					payload, err := json.Marshal(ev.Document)
					if err != nil {
						continue
					}
					fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload)
					flusher.Flush()
				}
			}
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
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
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
