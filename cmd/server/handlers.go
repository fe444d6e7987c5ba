package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/himanishpuri/beatforge/internal/runstore"
	"github.com/himanishpuri/beatforge/pkg/beatforge/pipeline"
	"github.com/himanishpuri/beatforge/pkg/beatforge/themes"
	"github.com/himanishpuri/beatforge/pkg/logger"
)

// Server encapsulates the HTTP server and its dependencies.
type Server struct {
	store  *runstore.DBClient
	config *ServerConfig
	log    *logger.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	AllowedOrigins []string
}

func NewServer(store *runstore.DBClient, config *ServerConfig) *Server {
	return &Server{
		store:  store,
		config: config,
		log:    logger.GetLogger(),
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "beatforge API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":  "GET /health",
			"metrics": "GET /api/health/metrics",
			"themes":  "GET /api/themes",
			"render":  "POST /api/render",
			"runs":    "GET /api/runs",
			"run":     "GET /api/runs/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(0)
	if err != nil {
		s.log.Errorf("Failed to get run count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		RunCount:     len(runs),
	})
}

// handleThemes handles GET /api/themes
func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(themes.Catalog))
	for name := range themes.Catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	dtos := make([]ThemeDTO, 0, len(names))
	for _, name := range names {
		theme := themes.Catalog[name]
		dtos = append(dtos, ThemeDTO{
			Name:     name,
			BPMRange: theme.BPMRange,
			RootNote: theme.RootNote,
		})
	}
	s.respondJSON(w, http.StatusOK, ListThemesResponse{Themes: dtos, Count: len(dtos)})
}

// handleListRuns handles GET /api/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(50)
	if err != nil {
		s.log.Errorf("Failed to list runs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = RunDTO{
			ID:            run.ID,
			BPM:           run.BPM,
			TempoFallback: run.TempoFallback,
			EventsDropped: run.EventsDropped,
			CreatedAt:     run.CreatedAt.Format(time.RFC3339),
		}
	}
	s.respondJSON(w, http.StatusOK, ListRunsResponse{Runs: dtos, Count: len(dtos)})
}

// handleGetRun handles GET /api/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request, id string) {
	run, err := s.store.GetRun(id)
	if err != nil {
		s.log.Warnf("Run not found: %s", id)
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Run %q not found", id))
		return
	}
	s.respondJSON(w, http.StatusOK, RunDTO{
		ID:              run.ID,
		BPM:             run.BPM,
		TempoFallback:   run.TempoFallback,
		EventsDropped:   run.EventsDropped,
		CreatedAt:       run.CreatedAt.Format(time.RFC3339),
		Parameters:      jsonRawOrNil(run.ParametersJSON),
		DecisionRecords: jsonRawOrNil(run.DecisionRecordsJSON),
	})
}

// jsonRawOrNil wraps a stored JSON blob as json.RawMessage, or returns nil
// for an empty/never-populated column so it's omitted from the response.
func jsonRawOrNil(raw string) json.RawMessage {
	if raw == "" {
		return nil
	}
	return json.RawMessage(raw)
}

// handleRender handles POST /api/render (multipart file upload plus a JSON
// "params" field carrying a RenderRequest).
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(50 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	var req RenderRequest
	if raw := r.FormValue("params"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid params JSON")
			return
		}
	}
	if req.Theme == "" {
		req.Theme = "blade_runner"
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		s.log.Errorf("Failed to get audio file: %v", err)
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	pcmBytes, err := io.ReadAll(file)
	if err != nil {
		s.log.Errorf("Failed to read audio: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to read uploaded audio")
		return
	}

	s.log.Infof("Rendering audio upload with theme=%s template=%s", req.Theme, req.Template)
	params := req.ToParameters()
	result, err := pipeline.Run(ctx, pcmBytes, params)
	if err != nil {
		s.log.Errorf("Pipeline failed: %v", err)
		s.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Pipeline failed: %v", err))
		return
	}

	runID := uuid.New().String()
	midiPath := filepath.Join(s.config.TempDir, runID+".mid")
	wavPath := filepath.Join(s.config.TempDir, runID+".wav")
	if err := os.WriteFile(midiPath, result.MidiBytes, 0644); err != nil {
		s.log.Errorf("Failed to write MIDI: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to persist MIDI output")
		return
	}
	if err := os.WriteFile(wavPath, result.WavBytes, 0644); err != nil {
		s.log.Errorf("Failed to write WAV: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to persist WAV output")
		return
	}

	parametersJSON, err := json.Marshal(params)
	if err != nil {
		s.log.Warnf("Failed to marshal parameters for history: %v", err)
	}
	decisionRecordsJSON, err := json.Marshal(result.DecisionRecords)
	if err != nil {
		s.log.Warnf("Failed to marshal decision records for history: %v", err)
	}

	if err := s.store.SaveRun(runstore.Run{
		ID:                  runID,
		ParametersJSON:       string(parametersJSON),
		DecisionRecordsJSON:  string(decisionRecordsJSON),
		MidiPath:             midiPath,
		WavPath:              wavPath,
		BPM:                  result.Arrangement.BPM,
		TempoFallback:        result.TempoFallback,
		EventsDropped:        result.EventsDropped,
		CreatedAt:            time.Now(),
	}); err != nil {
		s.log.Warnf("Failed to record run history: %v", err)
	}

	s.log.Infof("Render complete: run=%s bpm=%.1f dropped=%d", runID, result.Arrangement.BPM, result.EventsDropped)
	s.respondJSON(w, http.StatusCreated, RenderResponse{
		RunID:           runID,
		BPM:             result.Arrangement.BPM,
		TempoFallback:   result.TempoFallback,
		EventsDropped:   result.EventsDropped,
		BarCount:        result.Arrangement.BarCount,
		DecisionRecords: result.DecisionRecords,
		MidiURL:       fmt.Sprintf("/api/runs/%s/midi", runID),
		WavURL:        fmt.Sprintf("/api/runs/%s/wav", runID),
	})
}

// handleRunArtifact handles GET /api/runs/{id}/midi and /api/runs/{id}/wav.
func (s *Server) handleRunArtifact(w http.ResponseWriter, r *http.Request, id, kind string) {
	run, err := s.store.GetRun(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Run %q not found", id))
		return
	}

	path := run.MidiPath
	contentType := "audio/midi"
	if kind == "wav" {
		path = run.WavPath
		contentType = "audio/wav"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Artifact no longer available")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
