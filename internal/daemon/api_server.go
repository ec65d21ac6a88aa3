package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"iris/internal/api"
	"iris/internal/config"
	"iris/internal/logging"
	"iris/internal/services"
)

// maxPayloadBytes bounds one submission body.
const maxPayloadBytes = 512 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/process", srv.handleProcess)
	mux.HandleFunc("/api/jobs/", srv.handleJob)
	mux.HandleFunc("/api/status", srv.handleStatus)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// handleProcess accepts a raw payload and synchronously processes it.
// Classification hints arrive as query parameters (filename, type) and the
// Content-Type header; X-Meta-* headers become caller-defined metadata.
func (s *apiServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read payload: "+err.Error())
		return
	}
	if len(payload) > maxPayloadBytes {
		s.writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	meta := map[string]string{}
	if filename := r.URL.Query().Get("filename"); filename != "" {
		meta["filename"] = filename
	}
	if typeHint := r.URL.Query().Get("type"); typeHint != "" {
		meta["type"] = typeHint
	}
	if contentType := r.Header.Get("Content-Type"); contentType != "" && contentType != "application/octet-stream" {
		meta["mimeType"] = contentType
	}
	for name, values := range r.Header {
		if key, ok := strings.CutPrefix(http.CanonicalHeaderKey(name), "X-Meta-"); ok && len(values) > 0 {
			meta[strings.ToLower(key)] = values[0]
		}
	}

	response, err := s.daemon.orch.ProcessContent(r.Context(), payload, meta)
	if err != nil {
		status := http.StatusInternalServerError
		if isInputError(err) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, err.Error())
		return
	}

	if s.daemon.store != nil {
		if saveErr := s.daemon.store.SaveResult(r.Context(), response.JobID, response.Results); saveErr != nil {
			s.logger.Warn("result archive write failed",
				logging.String(logging.FieldJobID, response.JobID),
				logging.Error(saveErr),
			)
		}
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	status := s.daemon.orch.GetJobStatus(id)
	if status == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.orch.GetSystemStatus())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("api response encode failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func isInputError(err error) bool {
	return errors.Is(err, services.ErrInput)
}
