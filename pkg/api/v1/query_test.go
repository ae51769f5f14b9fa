package apiv1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/drivelens/drivelens/pkg/auth"
	"github.com/drivelens/drivelens/pkg/limiter"
	"github.com/drivelens/drivelens/pkg/llm"
	"github.com/drivelens/drivelens/pkg/query"
	"github.com/drivelens/drivelens/pkg/repository"
	"github.com/drivelens/drivelens/pkg/types"
)

type scriptedChatClient struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedChatClient) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", nil
}

func newQueryGroup(t *testing.T, client llm.ChatClient, configured bool, rateLimit int) (*echo.Echo, *repository.FileMemoryRepository) {
	t.Helper()

	e := echo.New()
	files := repository.NewFileMemoryRepository()
	NewQueryGroup(
		e.Group("/api/query"),
		query.NewClassifier(client),
		query.NewExecutor(files),
		query.NewAnswerer(client),
		limiter.New(rateLimit, time.Minute),
		configured,
	)
	return e, files
}

func askAs(e *echo.Echo, accountID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if accountID != "" {
		req = req.WithContext(auth.WithAccountID(req.Context(), accountID))
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAskRequiresAuth(t *testing.T) {
	e, _ := newQueryGroup(t, &scriptedChatClient{}, true, 10)

	rec := askAs(e, "", `{"question":"how many files?"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAskValidatesQuestion(t *testing.T) {
	e, _ := newQueryGroup(t, &scriptedChatClient{}, true, 10)

	for _, body := range []string{`{}`, `{"question":"   "}`, `{"question":42}`} {
		rec := askAs(e, "user@example.com", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAskUnconfiguredProvider(t *testing.T) {
	e, _ := newQueryGroup(t, &scriptedChatClient{}, false, 10)

	rec := askAs(e, "user@example.com", `{"question":"anything"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestAskRateLimited(t *testing.T) {
	client := &scriptedChatClient{responses: []string{`{"type":"count"}`, "Zero files.", `{"type":"count"}`, "Zero files."}}
	e, _ := newQueryGroup(t, client, true, 1)

	if rec := askAs(e, "user@example.com", `{"question":"count my files"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected first query to pass, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := askAs(e, "user@example.com", `{"question":"count my files"}`); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
}

func TestAskPipeline(t *testing.T) {
	client := &scriptedChatClient{responses: []string{
		`{"type":"search","query":"budget"}`,
		"You have one budget file.",
	}}
	e, files := newQueryGroup(t, client, true, 10)

	modified := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	files.UpsertFiles(context.Background(), "user@example.com", []types.FileRecord{
		{FileID: "f1", Name: "Budget 2025", MimeType: "application/pdf", ModifiedTime: &modified},
	})

	rec := askAs(e, "user@example.com", `{"question":"do I have a budget?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Question string                 `json:"question"`
		Answer   string                 `json:"answer"`
		Intent   string                 `json:"intent"`
		Files    []types.FileProjection `json:"files"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Intent != "search" {
		t.Errorf("unexpected intent: %q", body.Intent)
	}
	if body.Answer != "You have one budget file." {
		t.Errorf("unexpected answer: %q", body.Answer)
	}
	if len(body.Files) != 1 || body.Files[0].FileID != "f1" {
		t.Errorf("unexpected files: %+v", body.Files)
	}

	// Search produces neither a count nor summary stats, so the keys are absent
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if _, ok := raw["total"]; ok {
		t.Error("expected total to be omitted for search results")
	}
	if _, ok := raw["stats"]; ok {
		t.Error("expected stats to be omitted for search results")
	}
}

func TestAskInvalidIntentFallsBackToSummary(t *testing.T) {
	client := &scriptedChatClient{responses: []string{
		`{"type":"drop_table"}`,
		"Your Drive is empty.",
	}}
	e, _ := newQueryGroup(t, client, true, 10)

	rec := askAs(e, "user@example.com", `{"question":"destroy everything"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Intent string `json:"intent"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Intent != "summary" {
		t.Errorf("expected summary fallback, got %q", body.Intent)
	}
}
