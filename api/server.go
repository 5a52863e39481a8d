package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/reserve-solitaire/game/engine"
	"github.com/wricardo/reserve-solitaire/game/service"
	"github.com/wricardo/reserve-solitaire/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	version string
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub, version string) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		version: version,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/undo", s.handleUndo).Methods("POST")
	api.HandleFunc("/sessions/{id}/hint", s.handleHint).Methods("POST")
	api.HandleFunc("/sessions/{id}/autoplay", s.handleAutoPlay).Methods("POST")
	api.HandleFunc("/sessions/{id}/give-up", s.handleGiveUp).Methods("POST")
	api.HandleFunc("/sessions/{id}/new-game", s.handleNewGame).Methods("POST")
	api.HandleFunc("/sessions/{id}/check", s.handleCheck).Methods("POST")

	// Selection
	api.HandleFunc("/sessions/{id}/select", s.handleSelect).Methods("POST")
	api.HandleFunc("/sessions/{id}/select", s.handleClearSelection).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/drop", s.handleDrop).Methods("POST")

	// Transfer, clock and preferences
	api.HandleFunc("/sessions/{id}/export", s.handleExport).Methods("GET")
	api.HandleFunc("/sessions/{id}/import", s.handleImport).Methods("POST")
	api.HandleFunc("/sessions/{id}/presence", s.handlePresence).Methods("POST")
	api.HandleFunc("/sessions/{id}/preferences", s.handlePreferences).Methods("PUT")

	// Stats
	api.HandleFunc("/stats", s.handleGetStats).Methods("GET")
	api.HandleFunc("/stats", s.handleResetStats).Methods("DELETE")

	// Profiles
	api.HandleFunc("/profiles", s.handleListProfiles).Methods("GET")
	api.HandleFunc("/profiles", s.handleCreateProfile).Methods("POST")
	api.HandleFunc("/profiles/{name}", s.handleGetProfile).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto status codes
func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUnknownMoveKind),
		errors.Is(err, service.ErrMissingTarget),
		errors.Is(err, engine.ErrCorruptSnapshot):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrAutoMoveDisabled):
		status = http.StatusConflict
	}
	respondError(w, status, err.Error())
}

// decodeBody decodes an optional JSON body; an empty body leaves v untouched
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// publish pushes a result to the session's websocket clients
func (s *Server) publish(sessionID string, result *service.MoveResult) {
	if s.hub == nil || result == nil {
		return
	}
	s.hub.BroadcastToSession(sessionID, result.GameState)
	for _, ev := range result.Events {
		if ev.Outcome != nil {
			s.hub.BroadcastEvent(sessionID, websocket.EventOutcome, ev)
		}
	}
}

func (s *Server) broadcastState(sessionID string, state *engine.GameState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfileID string `json:"profile_id,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.CreateSession(r.Context(), req.ProfileID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default)
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Move(r.Context(), sessionID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.publish(sessionID, result)

	// Compact server log for observability
	status := "FAIL"
	if result.Success {
		status = "OK"
	}
	to := "-"
	if req.To != nil {
		to = fmt.Sprintf("%s:%d", req.To.Kind, req.To.Index)
	}
	moves := 0
	if result.GameState != nil {
		moves = result.GameState.MoveCount
	}
	logrus.Infof("[MOVE] session=%s kind=%s from=%s:%d/%d to=%s moves=%d status=%s game=%s",
		sessionID, req.Kind, req.From.Kind, req.From.Index, req.From.CardIndex, to,
		moves, status, result.Status)

	respondJSON(w, http.StatusOK, result)
}

// resultHandler adapts a session operation returning a MoveResult
func (s *Server) resultHandler(op func(r *http.Request, sessionID string) (*service.MoveResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["id"]
		result, err := op(r, sessionID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		s.publish(sessionID, result)
		respondJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.resultHandler(func(r *http.Request, id string) (*service.MoveResult, error) {
		return s.service.Undo(r.Context(), id)
	})(w, r)
}

func (s *Server) handleAutoPlay(w http.ResponseWriter, r *http.Request) {
	s.resultHandler(func(r *http.Request, id string) (*service.MoveResult, error) {
		result, err := s.service.AutoPlay(r.Context(), id)
		if err == nil {
			logrus.Infof("[AUTO] session=%s moved=%d status=%s", id, result.Moved, result.Status)
		}
		return result, err
	})(w, r)
}

func (s *Server) handleGiveUp(w http.ResponseWriter, r *http.Request) {
	s.resultHandler(func(r *http.Request, id string) (*service.MoveResult, error) {
		return s.service.GiveUp(r.Context(), id)
	})(w, r)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	s.resultHandler(func(r *http.Request, id string) (*service.MoveResult, error) {
		return s.service.CheckState(r.Context(), id)
	})(w, r)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seed *int64 `json:"seed,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.resultHandler(func(r *http.Request, id string) (*service.MoveResult, error) {
		return s.service.NewGame(r.Context(), id, req.Seed)
	})(w, r)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	hint, err := s.service.Hint(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, hint)
}

// Selection Handlers

type locationRequest struct {
	Location engine.Location `json:"location"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Select(r.Context(), mux.Vars(r)["id"], req.Location)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearSelection(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, service.SelectionResult{Accepted: true})
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.resultHandler(func(r *http.Request, id string) (*service.MoveResult, error) {
		return s.service.Drop(r.Context(), id, req.Location)
	})(w, r)
}

// Transfer, Clock and Preference Handlers

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	blob, err := s.service.Export(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"data": blob})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Data string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Data) == "" {
		respondError(w, http.StatusBadRequest, "Request body must contain data")
		return
	}

	state, err := s.service.Import(r.Context(), sessionID, strings.TrimSpace(req.Data))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, state)
	respondJSON(w, http.StatusOK, map[string]any{
		"message":    "Game imported",
		"game_state": state,
	})
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Present bool `json:"present"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.SetPresence(r.Context(), mux.Vars(r)["id"], req.Present)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"present":    req.Present,
		"elapsed_ms": state.ElapsedMs,
	})
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs service.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := s.service.SetPreferences(r.Context(), mux.Vars(r)["id"], prefs)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			respondServiceError(w, err)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// Stats Handlers

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.GetStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleResetStats(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ResetStats(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Stats cleared"})
}

// Profile Handlers

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.service.ListProfiles(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	profile, err := s.service.LoadProfile(r.Context(), name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	profile := engine.DefaultProfile()
	profile.Name = ""
	profile.Description = ""

	if err := json.NewDecoder(r.Body).Decode(profile); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if profile.Name == "" {
		respondError(w, http.StatusBadRequest, "Profile name is required")
		return
	}

	if err := s.service.SaveProfile(r.Context(), profile.Name, profile); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to save profile: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":    "Profile saved successfully",
		"profile_id": profile.Name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}
	if s.hub == nil {
		http.Error(w, "websocket hub not configured", http.StatusServiceUnavailable)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}
