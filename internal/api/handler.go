package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opensource-safety/decoy/internal/domain"
	"github.com/opensource-safety/decoy/internal/llm"
	"github.com/opensource-safety/decoy/internal/rules"
	"github.com/opensource-safety/decoy/internal/session"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	service   *session.Service
	engine    *rules.Engine
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	rulesPath string
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(service *session.Service, engine *rules.Engine, repo domain.Repository, cache domain.Cache, bus domain.EventBus, rulesPath, version string) *Handler {
	return &Handler{
		service:   service,
		engine:    engine,
		repo:      repo,
		cache:     cache,
		bus:       bus,
		rulesPath: rulesPath,
		version:   version,
	}
}

// CreateRoomRequest is the request body for POST /rooms.
type CreateRoomRequest struct {
	Scenario string `json:"scenario"`
}

// CreateRoomResponse is the response for POST /rooms.
type CreateRoomResponse struct {
	RoomID       string `json:"roomId"`
	Scenario     string `json:"scenario"`
	ScenarioType string `json:"scenarioType"`
	FirstMessage string `json:"firstMessage"`
}

// CreateRoom handles POST /rooms: starts a session and returns the scammer's
// opening message.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.Scenario == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "scenario is required",
		})
		return
	}

	room, first, err := h.service.CreateRoom(r.Context(), req.Scenario)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateRoomResponse{
		RoomID:       room.ID,
		Scenario:     req.Scenario,
		ScenarioType: room.ScenarioType,
		FirstMessage: first,
	})
}

// ChatRequest is the request body for POST /rooms/{id}/messages.
type ChatRequest struct {
	Message string `json:"message"`
}

// Chat handles POST /rooms/{id}/messages: one conversation turn.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "message is required",
		})
		return
	}

	result, err := h.service.Chat(r.Context(), roomID, req.Message)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListMessages handles GET /rooms/{id}/messages: the full transcript.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	msgs, err := h.service.Messages(r.Context(), roomID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"roomId":   roomID,
		"messages": msgs,
		"count":    len(msgs),
	})
}

// EndRoom handles POST /rooms/{id}/end: finalizes the session and returns
// the feedback report.
func (h *Handler) EndRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	report, err := h.service.End(r.Context(), roomID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// EvaluateRequest is the request body for POST /evaluate.
type EvaluateRequest struct {
	Message  string `json:"message"`
	Scenario string `json:"scenario"`
}

// Evaluate handles POST /evaluate: stateless scoring of one message without
// a session. Useful for rule tuning and client-side previews.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.Message == "" || req.Scenario == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "message and scenario are required",
		})
		return
	}

	eval, err := h.engine.Evaluate(req.Message, req.Scenario)
	if err != nil {
		if errors.Is(err, rules.ErrUnknownScenario) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "unknown scenario: " + req.Scenario,
			})
			return
		}
		slog.Error("evaluation failed", "scenario", req.Scenario, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "evaluation failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scenario":   req.Scenario,
		"evaluation": eval,
	})
}

// ListScenarios handles GET /scenarios: the persona catalog.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	keys := h.engine.Scenarios()

	type scenarioEntry struct {
		Key         string `json:"key"`
		Type        string `json:"type"`
		Description string `json:"description"`
	}

	entries := make([]scenarioEntry, 0, len(keys))
	for _, key := range keys {
		s, ok := domain.Scenarios[key]
		if !ok {
			continue
		}
		entries = append(entries, scenarioEntry{
			Key:         s.Key,
			Type:        s.Type,
			Description: s.Description,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scenarios": entries,
		"count":     len(entries),
	})
}

// ListRules handles GET /rules: the loaded rule table and how each event's
// detector resolved.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	table := h.engine.Table()

	writeJSON(w, http.StatusOK, map[string]any{
		"groups":    table.Groups,
		"detectors": h.engine.Detectors(),
	})
}

// ReloadRules handles POST /rules/reload: re-reads the rule table from disk
// and hot-swaps it into the engine.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	table, err := rules.LoadTable(h.rulesPath)
	if err != nil {
		slog.Error("failed to load rule table", "path", h.rulesPath, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rules: " + err.Error(),
		})
		return
	}

	if err := h.engine.Reload(table); err != nil {
		slog.Error("failed to reload rules into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rules: " + err.Error(),
		})
		return
	}

	slog.Info("rules reloaded", "scenarios", len(h.engine.Scenarios()))
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "rules reloaded successfully",
		"scenarios": h.engine.Scenarios(),
	})
}

// ListSummaries handles GET /summaries: the digest worker's output, newest
// first.
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a non-negative integer",
			})
			return
		}
		limit = parsed
	}

	summaries, err := h.repo.ListSummaries(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list summaries", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list summaries",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summaries": summaries,
		"count":     len(summaries),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// writeServiceError maps session errors onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var unavailable *llm.ErrProviderUnavailable

	switch {
	case errors.Is(err, session.ErrRoomNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "room not found",
		})
	case errors.Is(err, session.ErrUnknownScenario):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown scenario",
		})
	case errors.Is(err, session.ErrThrottled):
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "message rate limit exceeded",
		})
	case errors.As(err, &unavailable):
		slog.Error("generator unavailable", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "reply generation failed",
		})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
