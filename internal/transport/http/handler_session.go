package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"companion-world/internal/session"
	"companion-world/internal/sim"
)

const commandTimeout = 10 * time.Second

type SessionHandlers struct {
	mgr *session.Manager
}

func NewSessionHandlers(mgr *session.Manager) *SessionHandlers {
	return &SessionHandlers{mgr: mgr}
}

type openSessionRequest struct {
	Username string `json:"username"`
}

type openSessionResponse struct {
	UserID   string       `json:"user_id"`
	Username string       `json:"username"`
	Snapshot sim.Snapshot `json:"snapshot"`
}

func (h *SessionHandlers) Open() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricSessionOpenTotal.Add(1)
		var body openSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			metricSessionOpenErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		s, err := h.mgr.Open(r.Context(), body.Username)
		if err != nil {
			metricSessionOpenErrors.Add(1)
			writeMappedError(w, err)
			return
		}
		snap, err := s.Snapshot(r.Context())
		if err != nil {
			metricSessionOpenErrors.Add(1)
			writeMappedError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, openSessionResponse{UserID: s.UserID, Username: s.Username, Snapshot: snap})
	}
}

func (h *SessionHandlers) Close() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.mgr.Close(chi.URLParam(r, "user_id")); err != nil {
			writeMappedError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *SessionHandlers) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.mgr.Get(chi.URLParam(r, "user_id"))
		if err != nil {
			writeMappedError(w, err)
			return
		}
		snap, err := s.Snapshot(r.Context())
		if err != nil {
			writeMappedError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, snap)
	}
}

func (h *SessionHandlers) Commands() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricCommandSubmitTotal.Add(1)
		s, err := h.mgr.Get(chi.URLParam(r, "user_id"))
		if err != nil {
			metricCommandSubmitErrors.Add(1)
			writeMappedError(w, err)
			return
		}
		var cmd sim.Command
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			metricCommandSubmitErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
		defer cancel()
		res, err := s.Submit(ctx, cmd)
		if err != nil {
			metricCommandSubmitErrors.Add(1)
			writeMappedError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "result": res})
	}
}

// RemoveAgent is the REST form of the remove_agent command.
func (h *SessionHandlers) RemoveAgent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricCommandSubmitTotal.Add(1)
		s, err := h.mgr.Get(chi.URLParam(r, "user_id"))
		if err != nil {
			metricCommandSubmitErrors.Add(1)
			writeMappedError(w, err)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
		defer cancel()
		cmd := sim.Command{Type: sim.CmdRemoveAgent, AgentID: chi.URLParam(r, "agent_id")}
		if _, err := s.Submit(ctx, cmd); err != nil {
			metricCommandSubmitErrors.Add(1)
			writeMappedError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}
