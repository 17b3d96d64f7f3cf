package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/physioform/internal/document"
	"github.com/ppiankov/physioform/internal/extract"
	"github.com/ppiankov/physioform/internal/model"
)

// ProcessTextRequest is the body of /process-text and /generate-document
type ProcessTextRequest struct {
	Text                 string `json:"text"`
	ActivityTypeOverride string `json:"activity_type_override,omitempty"`
	DateOverride         string `json:"date_override,omitempty"`
	// Format is "plain" (default) or "html"
	Format string `json:"format,omitempty"`
}

const (
	detailEmptyText      = "Text cannot be empty"
	detailNoParticipants = "No participant information found in the text. Please check the text format or try with more detailed information."
)

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// decodeText reads the request body and returns the text to extract from
func (s *Server) decodeText(w http.ResponseWriter, r *http.Request) (ProcessTextRequest, string, bool) {
	var req ProcessTextRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return req, "", false
	}

	text := req.Text
	switch strings.ToLower(strings.TrimSpace(req.Format)) {
	case "", "plain", "text":
	case "html":
		plain, err := extract.PlainText(text)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid HTML")
			return req, "", false
		}
		text = plain
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown format %q", req.Format))
		return req, "", false
	}

	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, detailEmptyText)
		return req, "", false
	}
	return req, text, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	status := s.orchestrator.Status()
	ai := "disabled"
	if status.AIExtraction {
		ai = "enabled"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Hebrew Physiotherapy Workshops Form Generator API",
		"version":        s.info.Version,
		"ai_integration": ai,
		"provider":       s.info.Provider,
		"model":          s.info.Model,
		"environment":    s.info.Environment,
		"endpoints": map[string]string{
			"POST /process-text":      "Process Hebrew text and extract participant information",
			"POST /generate-document": "Generate and download the participant roster (XLSX)",
			"GET /health":             "Health check",
			"GET /setup-help":         "AI provider setup instructions",
		},
		"features": []string{
			"AI-powered Hebrew text extraction",
			"Pattern-based fallback extraction",
			"Participant roster generation",
			"Activity type detection",
			"Right-to-left document layout",
		},
	})
}

func (s *Server) handleProcessText(w http.ResponseWriter, r *http.Request) {
	_, text, ok := s.decodeText(w, r)
	if !ok {
		return
	}

	result := s.orchestrator.Extract(r.Context(), text)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGenerateDocument(w http.ResponseWriter, r *http.Request) {
	req, text, ok := s.decodeText(w, r)
	if !ok {
		return
	}

	activity := (*model.ActivityType)(nil)
	if override := strings.TrimSpace(req.ActivityTypeOverride); override != "" {
		a, ok := model.ParseActivityType(override)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown activity type %q", override))
			return
		}
		activity = model.ActivityPtr(a)
	}

	result := s.orchestrator.Extract(r.Context(), text)
	if len(result.Participants) == 0 {
		writeError(w, http.StatusBadRequest, detailNoParticipants)
		return
	}
	if activity == nil {
		activity = result.ActivityType
	}

	data, err := s.documents.Render(result.Participants, activity, req.DateOverride)
	switch {
	case errors.Is(err, document.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "Invalid date_override, expected YYYY-MM-DD")
		return
	case err != nil:
		s.logger.Error("document generation failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Error generating document")
		return
	}

	w.Header().Set("Content-Type", document.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+s.documents.Filename(activity))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.orchestrator.Recheck(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": s.info.Environment,
		"provider":    s.info.Provider,
		"capabilities": map[string]bool{
			"hebrew_processing":   true,
			"ai_extraction":       status.AIExtraction,
			"regex_fallback":      status.RegexFallback,
			"document_generation": true,
		},
		"checked_at": status.CheckedAt,
	})
}

func (s *Server) handleSetupHelp(w http.ResponseWriter, r *http.Request) {
	guide := s.setup()
	status := s.orchestrator.Status()

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  guide.Message,
		"provider": guide.Provider,
		"steps":    guide.Steps,
		"current_status": map[string]any{
			"api_key_set":        guide.APIKeySet,
			"ai_extraction":      status.AIExtraction,
			"fallback_available": status.RegexFallback,
			"environment":        s.info.Environment,
		},
		"note":  guide.FallbackNote,
		"model": guide.Model,
	})
}
