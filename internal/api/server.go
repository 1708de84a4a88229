// Package api exposes the deconfliction engine over HTTP. Handlers are
// thin: they decode requests, call the registry, and map engine errors
// onto status codes.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Megha-ldce/uav-deconfliction/internal/deconflict"
	"github.com/Megha-ldce/uav-deconfliction/internal/geom"
	"github.com/Megha-ldce/uav-deconfliction/internal/monitoring"
	"github.com/Megha-ldce/uav-deconfliction/internal/storage/sqlite"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	registry *deconflict.Registry
	store    *sqlite.CheckStore
}

// NewServer creates an HTTP server over the given registry. The store may
// be nil, in which case check results are not persisted and /api/runs
// reports not found.
func NewServer(registry *deconflict.Registry, store *sqlite.CheckStore) *Server {
	return &Server{
		registry: registry,
		store:    store,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/missions", s.missionsHandler)
	mux.HandleFunc("/api/check", s.checkMission)
	mux.HandleFunc("/api/check/all", s.checkAll)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

// missionRequest is the wire form of a mission submission.
type missionRequest struct {
	DroneID   string          `json:"drone_id"`
	Waypoints []geom.Waypoint `json:"waypoints"`
	StartTime float64         `json:"start_time"`
	EndTime   float64         `json:"end_time"`
	Speed     float64         `json:"speed"`
}

// missionSummary is the wire form of a registered mission.
type missionSummary struct {
	DroneID      string  `json:"drone_id"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	Speed        float64 `json:"speed"`
	NumWaypoints int     `json:"num_waypoints"`
}

// checkResponse is the wire form of a check verdict.
type checkResponse struct {
	RunID     string                `json:"run_id,omitempty"`
	Candidate string                `json:"candidate,omitempty"`
	IsSafe    bool                  `json:"is_safe"`
	Conflicts []deconflict.Conflict `json:"conflicts"`
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeEngineError maps engine sentinel errors onto HTTP status codes.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, deconflict.ErrInvalidMission),
		errors.Is(err, deconflict.ErrInvalidConfiguration),
		errors.Is(err, deconflict.ErrBudgetExceeded):
		status = http.StatusBadRequest
	case errors.Is(err, deconflict.ErrDuplicateDroneID):
		status = http.StatusConflict
	}
	s.writeJSONError(w, status, err.Error())
}

func decodeMission(r *http.Request) (*deconflict.Mission, error) {
	var req missionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: malformed request body: %v", deconflict.ErrInvalidMission, err)
	}
	return deconflict.NewMission(req.DroneID, req.Waypoints, req.StartTime, req.EndTime, req.Speed)
}

func summarize(m *deconflict.Mission) missionSummary {
	return missionSummary{
		DroneID:      m.DroneID(),
		StartTime:    m.StartTime(),
		EndTime:      m.EndTime(),
		Speed:        m.Speed(),
		NumWaypoints: m.NumWaypoints(),
	}
}

func (s *Server) missionsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		missions := s.registry.Missions()
		summaries := make([]missionSummary, 0, len(missions))
		for _, m := range missions {
			summaries = append(summaries, summarize(m))
		}
		if err := json.NewEncoder(w).Encode(summaries); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to write missions")
		}
	case http.MethodPost:
		m, err := decodeMission(r)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		if err := s.registry.Register(m); err != nil {
			s.writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(summarize(m))
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// checkMission validates a candidate mission against every registered
// mission without registering it. The result is persisted when a store is
// configured.
func (s *Server) checkMission(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	candidate, err := decodeMission(r)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	result, err := s.registry.CheckMission(candidate)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	resp := checkResponse{
		Candidate: candidate.DroneID(),
		IsSafe:    result.IsSafe,
		Conflicts: result.Conflicts,
	}
	if resp.Conflicts == nil {
		resp.Conflicts = []deconflict.Conflict{}
	}
	if s.store != nil {
		runID, err := s.persist(candidate.DroneID(), result)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to persist check run: %v", err))
			return
		}
		resp.RunID = runID
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write check result")
	}
}

// checkAll runs the all-pairs check over the registered missions.
func (s *Server) checkAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	result, err := s.registry.CheckAll()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	resp := checkResponse{
		IsSafe:    result.IsSafe,
		Conflicts: result.Conflicts,
	}
	if resp.Conflicts == nil {
		resp.Conflicts = []deconflict.Conflict{}
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write check result")
	}
}

// listRuns returns persisted runs newest first, or a single run with its
// conflicts when ?id= is given.
func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.store == nil {
		s.writeJSONError(w, http.StatusNotFound, "Persistence is not enabled")
		return
	}

	if id := r.URL.Query().Get("id"); id != "" {
		run, err := s.store.GetRun(id)
		if err != nil {
			s.writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		conflicts, err := s.store.ConflictsForRun(id)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to load conflicts: %v", err))
			return
		}
		if conflicts == nil {
			conflicts = []deconflict.Conflict{}
		}
		json.NewEncoder(w).Encode(struct {
			Run       *sqlite.CheckRun      `json:"run"`
			Conflicts []deconflict.Conflict `json:"conflicts"`
		}{Run: run, Conflicts: conflicts})
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []*sqlite.CheckRun{}
	}
	if err := json.NewEncoder(w).Encode(runs); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write runs")
	}
}

// showConfig reports the engine configuration the registry was built with.
func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cfg := s.registry.Config()
	config := map[string]interface{}{
		"safety_buffer":     cfg.SafetyBuffer,
		"time_resolution":   cfg.TimeResolution,
		"merge_threshold":   cfg.MergeThreshold,
		"workers":           cfg.Workers,
		"max_total_samples": cfg.MaxTotalSamples,
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}

func (s *Server) persist(candidate string, result deconflict.CheckResult) (string, error) {
	cfg := s.registry.Config()
	run := &sqlite.CheckRun{
		CandidateDrone: candidate,
		IsSafe:         result.IsSafe,
		SafetyBuffer:   cfg.SafetyBuffer,
		TimeResolution: cfg.TimeResolution,
		MergeThreshold: cfg.MergeThreshold,
	}
	if err := s.store.InsertRun(run, result.Conflicts); err != nil {
		return "", err
	}
	return run.RunID, nil
}
