package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/physioform/internal/document"
	"github.com/ppiankov/physioform/internal/llm"
	"github.com/ppiankov/physioform/internal/model"
	"github.com/ppiankov/physioform/internal/pipeline"
)

const structuredText = "התעמלות לאחר לידה - יוני 2024\n\n" +
	"שם: ליאת ישראלי\nתעודת זהות: 321654987\nמספר קבלה: 98765\nסכום ששולם: 200 ש״ח\n\n" +
	"שם: נועה גולדברג\nתעודת זהות: 147258369\nמספר קבלה: 55555\nסכום ששולם: 225 ₪\n"

// stubAI is an AI extractor whose availability can be switched
type stubAI struct {
	available bool
}

func (s *stubAI) Extract(ctx context.Context, text string) (*llm.Extraction, error) {
	return &llm.Extraction{
		ActivityType: model.ActivityPtr(model.ActivityPregnancy),
		Participants: []model.ParticipantRecord{{Name: "שרה כהן", NationalID: "123456789", Amount: "280"}},
	}, nil
}

func (s *stubAI) ProviderName() string                 { return "stub" }
func (s *stubAI) Model() string                        { return "stub-model" }
func (s *stubAI) IsAvailable(ctx context.Context) bool { return s.available }

func newTestServer(t *testing.T, orchestrator *pipeline.Orchestrator) *Server {
	t.Helper()
	if orchestrator == nil {
		orchestrator = pipeline.NewOrchestrator(nil, nil, nil)
	}
	cfg := model.DefaultConfig().Server
	return New(orchestrator, document.NewGenerator(), nil, cfg, Info{
		Version:     "test",
		Environment: "testing",
		Provider:    "groq",
	})
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(s, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, "disabled", body["ai_integration"])
	assert.Equal(t, "testing", body["environment"])
	assert.Contains(t, body["endpoints"], "POST /process-text")
}

func TestProcessText(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postJSON(t, s, "/process-text", ProcessTextRequest{Text: structuredText})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var result model.ExtractionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalParticipants)
	assert.Equal(t, model.MethodDeterministic, result.Method)
	require.NotNil(t, result.ActivityType)
	assert.Equal(t, model.ActivityPostBirth, *result.ActivityType)
	assert.Equal(t, model.ParticipantRecord{
		Name: "ליאת ישראלי", NationalID: "321654987", ReceiptNumber: "98765", Amount: "200",
	}, result.Participants[0])
}

func TestProcessText_NothingFoundIsStillOK(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postJSON(t, s, "/process-text", ProcessTextRequest{Text: "--- *** ---"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"participants":[]`)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestProcessText_HTML(t *testing.T) {
	s := newTestServer(t, nil)
	html := "<html><body><p>שם: רחל כהן</p><p>תעודת זהות: 123456789</p>" +
		"<p>מספר קבלה: 12345</p><p>סכום ששולם: 250 ש״ח</p><script>var x = 1;</script></body></html>"

	rec := postJSON(t, s, "/process-text", ProcessTextRequest{Text: html, Format: "html"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result model.ExtractionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Participants, 1)
	assert.Equal(t, model.ParticipantRecord{
		Name: "רחל כהן", NationalID: "123456789", ReceiptNumber: "12345", Amount: "250",
	}, result.Participants[0])
}

func TestProcessText_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postJSON(t, s, "/process-text", ProcessTextRequest{Text: "   \n "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, detailEmptyText, detail(t, rec))

	rec = postJSON(t, s, "/process-text", ProcessTextRequest{Text: "שם: רחל", Format: "pdf"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/process-text", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", detail(t, rec))
}

func TestGenerateDocument(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postJSON(t, s, "/generate-document", ProcessTextRequest{Text: structuredText, DateOverride: "2024-06-01"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, document.ContentType, rec.Header().Get("Content-Type"))
	disposition := rec.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, "attachment; filename=physiotherapy_form_post_birth_"), disposition)
	assert.True(t, strings.HasSuffix(disposition, ".xlsx"), disposition)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	title, err := f.GetCellValue(document.SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "ליאת ישראלי - יוני", title)
}

func TestGenerateDocument_ActivityOverride(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postJSON(t, s, "/generate-document", ProcessTextRequest{Text: structuredText, ActivityTypeOverride: "pregnancy"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "physiotherapy_form_pregnancy_")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	label, err := f.GetCellValue(document.SheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, string(model.ActivityPregnancy), label)
}

func TestGenerateDocument_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postJSON(t, s, "/generate-document", ProcessTextRequest{Text: "--- *** ---"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, detailNoParticipants, detail(t, rec))

	rec = postJSON(t, s, "/generate-document", ProcessTextRequest{Text: structuredText, DateOverride: "next week"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, s, "/generate-document", ProcessTextRequest{Text: structuredText, ActivityTypeOverride: "yoga"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, s, "/generate-document", ProcessTextRequest{Text: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, detailEmptyText, detail(t, rec))
}

func TestHealth_Reprobes(t *testing.T) {
	ai := &stubAI{}
	strategy := pipeline.NewAIStrategy(ai, nil, 0)
	orchestrator := pipeline.NewOrchestrator(strategy, nil, pipeline.NewAvailability(strategy))
	s := newTestServer(t, orchestrator)

	ai.available = true
	rec := get(s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status       string          `json:"status"`
		Capabilities map[string]bool `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.True(t, body.Capabilities["ai_extraction"])
	assert.True(t, body.Capabilities["regex_fallback"])
	assert.True(t, body.Capabilities["document_generation"])

	rec = postJSON(t, s, "/process-text", ProcessTextRequest{Text: structuredText})
	var result model.ExtractionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, model.MethodAI, result.Method)
}

func TestSetupHelp(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	s := newTestServer(t, nil)

	rec := get(s, "/setup-help")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Steps         []string       `json:"steps"`
		Model         string         `json:"model"`
		CurrentStatus map[string]any `json:"current_status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Steps)
	assert.Equal(t, "llama-3.3-70b-versatile", body.Model)
	assert.Equal(t, true, body.CurrentStatus["fallback_available"])
	assert.Equal(t, false, body.CurrentStatus["api_key_set"])
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(s, "/")
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, id)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/process-text", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
