package client

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcdev12/housecup/go/internal/models"
	"github.com/rs/zerolog/log"
)

// View is what the HTTP adapter needs from a session
type View interface {
	State() models.AggregateState
	SelectWindow(window models.TimeWindow) error
	ToggleLive() error
	Refresh() error
	SelectCategory(category *models.Category) error
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status     string                 `json:"status"`
	Connection models.ConnectionState `json:"connection"`
	Stream     models.StreamState     `json:"stream"`
	Version    uint64                 `json:"version"`
}

// StateHandler exposes a session to an external renderer over HTTP
type StateHandler struct {
	view    View
	metrics http.Handler
}

// NewStateHandler creates a new state handler. metrics may be nil.
func NewStateHandler(view View, metrics http.Handler) *StateHandler {
	return &StateHandler{
		view:    view,
		metrics: metrics,
	}
}

// HandleGetState handles GET /api/state
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.view.State())
}

// HandleSelectWindow handles POST /api/window?window=W
func (h *StateHandler) HandleSelectWindow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	window := r.URL.Query().Get("window")
	if window == "" {
		http.Error(w, "window is required", http.StatusBadRequest)
		return
	}

	if err := h.view.SelectWindow(models.TimeWindow(window)); err != nil {
		h.writeRequestError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleToggleLive handles POST /api/live/toggle
func (h *StateHandler) HandleToggleLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.view.ToggleLive(); err != nil {
		h.writeRequestError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleRefresh handles POST /api/refresh
func (h *StateHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.view.Refresh(); err != nil {
		h.writeRequestError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleSelectCategory handles POST /api/category?category=C. An empty
// category clears the selection.
func (h *StateHandler) HandleSelectCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var category *models.Category
	if value := r.URL.Query().Get("category"); value != "" {
		c := models.Category(value)
		category = &c
	}
	if err := h.view.SelectCategory(category); err != nil {
		h.writeRequestError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleHealth handles GET /health
func (h *StateHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	state := h.view.State()
	resp := HealthResponse{
		Status:     "ok",
		Connection: state.Connection,
		Stream:     state.Stream,
		Version:    state.Version,
	}

	status := http.StatusOK
	if state.Connection == models.ConnectionStateDisconnected {
		resp.Status = "disconnected"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (h *StateHandler) writeRequestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidWindow):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSessionClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Msg("view request failed")
		http.Error(w, "Request failed", http.StatusInternalServerError)
	}
}

// RegisterRoutes registers the view routes
func (h *StateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", h.HandleGetState)
	mux.HandleFunc("/api/window", h.HandleSelectWindow)
	mux.HandleFunc("/api/live/toggle", h.HandleToggleLive)
	mux.HandleFunc("/api/refresh", h.HandleRefresh)
	mux.HandleFunc("/api/category", h.HandleSelectCategory)
	mux.HandleFunc("/health", h.HandleHealth)
	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
