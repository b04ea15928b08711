package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/log"
)

type turnRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type logResponse struct {
	SessionID string               `json:"session_id"`
	Entries   []core.LongTermEntry `json:"entries"`
}

func (s *Server) submitTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req turnRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	// The handler owns the turn deadline so exactly one response is written.
	ctx := r.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	reply, err := s.convs.SubmitTurn(ctx, sessionID, req.Text)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := s.convs.CloseSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) longTermLog(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	entries, err := s.convs.LongTermLog(r.Context(), sessionID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if entries == nil {
		entries = []core.LongTermEntry{}
	}
	writeJSON(w, http.StatusOK, logResponse{SessionID: sessionID, Entries: entries})
}

// statusFor maps orchestrator errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTurnInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrTurnAborted), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.FromCtx(ctx).Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
