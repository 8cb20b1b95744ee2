// Package server exposes the job API over HTTP: submit, poll, cancel.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/enerdoc/docingest/internal/common"
	"github.com/enerdoc/docingest/internal/pipeline"
)

// StatusServer serves the job status payload and accepts submissions and
// cancellations. Polling clients depend on the exact JSON field names in
// progress.Status.
type StatusServer struct {
	svc    *pipeline.Service
	logger *slog.Logger
	srv    *http.Server
}

func NewStatusServer(svc *pipeline.Service, addr string, logger *slog.Logger) *StatusServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &StatusServer{svc: svc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", s.handleSubmit)
	mux.HandleFunc("GET /jobs/{id}", s.handleStatus)
	mux.HandleFunc("POST /jobs/{id}/cancel", s.handleCancel)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

func (s *StatusServer) ListenAndServe() error {
	s.logger.Info("status server listening", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *StatusServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "body must be {\"path\": ...}")
		return
	}

	jobID, err := s.svc.SubmitAsync(r.Context(), req.Path, nil)
	if err != nil {
		s.logger.Error("server.submit.failed", "path", req.Path, "error", err)
		writeError(w, statusFor(err), common.ErrorCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.GetStatus(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, common.ErrorCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *StatusServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Cancel(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, common.ErrorCode(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrDocumentUnreadable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	writeJSON(w, code, map[string]string{"error": errCode, "message": message})
}
