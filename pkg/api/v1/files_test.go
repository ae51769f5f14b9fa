package apiv1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/drivelens/drivelens/pkg/auth"
	"github.com/drivelens/drivelens/pkg/drive"
	"github.com/drivelens/drivelens/pkg/repository"
	"github.com/drivelens/drivelens/pkg/types"
)

type fakeRemote struct {
	renamed map[string]string
	trashed map[string]bool
	err     error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{renamed: make(map[string]string), trashed: make(map[string]bool)}
}

func (f *fakeRemote) Rename(ctx context.Context, token, fileID, name string) (*drive.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.renamed[fileID] = name
	return &drive.File{ID: fileID, Name: name, ModifiedTime: "2025-06-01T12:00:00Z"}, nil
}

func (f *fakeRemote) Trash(ctx context.Context, token, fileID string) error {
	if f.err != nil {
		return f.err
	}
	f.trashed[fileID] = true
	return nil
}

type staticTokens struct{}

func (staticTokens) AccessToken(ctx context.Context, accountID string) (string, error) {
	return "access-token", nil
}

func newFileGroup(t *testing.T) (*echo.Echo, *repository.FileMemoryRepository, *fakeRemote) {
	t.Helper()

	e := echo.New()
	files := repository.NewFileMemoryRepository()
	remote := newFakeRemote()
	NewFileGroup(e.Group("/api/files"), files, remote, staticTokens{})

	modified := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	records := []types.FileRecord{
		{FileID: "f1", Name: "alpha report", MimeType: "application/pdf", ModifiedTime: &modified},
		{FileID: "f2", Name: "beta notes", MimeType: "text/plain"},
	}
	for i := 3; i <= 30; i++ {
		records = append(records, types.FileRecord{FileID: fmt.Sprintf("f%d", i), Name: fmt.Sprintf("file %d", i), MimeType: "text/plain"})
	}
	if err := files.UpsertFiles(context.Background(), "user@example.com", records); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return e, files, remote
}

func doAs(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(auth.WithAccountID(req.Context(), "user@example.com"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListFilesPagination(t *testing.T) {
	e, _, _ := newFileGroup(t)

	rec := doAs(e, http.MethodGet, "/api/files?page=2&limit=25", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Files []types.FileProjection `json:"files"`
		Total int64                  `json:"total"`
		Page  int                    `json:"page"`
		Limit int                    `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 30 {
		t.Errorf("expected total 30, got %d", body.Total)
	}
	if len(body.Files) != 5 {
		t.Errorf("expected 5 files on page 2, got %d", len(body.Files))
	}
	if body.Page != 2 || body.Limit != 25 {
		t.Errorf("unexpected paging echo: page=%d limit=%d", body.Page, body.Limit)
	}
}

func TestListFilesSearch(t *testing.T) {
	e, _, _ := newFileGroup(t)

	rec := doAs(e, http.MethodGet, "/api/files?search=ALPHA", "")
	var body struct {
		Files []types.FileProjection `json:"files"`
		Total int64                  `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 || len(body.Files) != 1 || body.Files[0].FileID != "f1" {
		t.Errorf("unexpected search result: %+v", body)
	}
}

func TestGetFileNotFound(t *testing.T) {
	e, _, _ := newFileGroup(t)

	rec := doAs(e, http.MethodGet, "/api/files/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestRenameWritesThrough(t *testing.T) {
	e, files, remote := newFileGroup(t)

	rec := doAs(e, http.MethodPut, "/api/files/f1", `{"name":"  renamed.pdf  "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if remote.renamed["f1"] != "renamed.pdf" {
		t.Errorf("expected trimmed name sent to remote, got %q", remote.renamed["f1"])
	}

	record, _ := files.GetFile(context.Background(), "user@example.com", "f1")
	if record.Name != "renamed.pdf" {
		t.Errorf("expected local mirror updated, got %q", record.Name)
	}
	if record.ModifiedTime == nil || record.ModifiedTime.Format(time.RFC3339) != "2025-06-01T12:00:00Z" {
		t.Errorf("expected remote modified time mirrored, got %v", record.ModifiedTime)
	}
}

func TestRenameValidation(t *testing.T) {
	e, _, _ := newFileGroup(t)

	if rec := doAs(e, http.MethodPut, "/api/files/f1", `{"name":"   "}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank name, got %d", rec.Code)
	}
	if rec := doAs(e, http.MethodPut, "/api/files/missing", `{"name":"x"}`); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown file, got %d", rec.Code)
	}
}

func TestTrashWritesThrough(t *testing.T) {
	e, files, remote := newFileGroup(t)

	rec := doAs(e, http.MethodDelete, "/api/files/f2", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if !remote.trashed["f2"] {
		t.Error("expected remote trash call")
	}

	record, _ := files.GetFile(context.Background(), "user@example.com", "f2")
	if !record.Trashed {
		t.Error("expected local record marked trashed")
	}

	// Trashed files drop out of listings
	count, _ := files.CountFiles(context.Background(), "user@example.com", types.FileQuery{})
	if count != 29 {
		t.Errorf("expected 29 listed files, got %d", count)
	}
}

func TestRemoteFailureDoesNotTouchMirror(t *testing.T) {
	e, files, remote := newFileGroup(t)
	remote.err = fmt.Errorf("remote down")

	rec := doAs(e, http.MethodPut, "/api/files/f1", `{"name":"new"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	record, _ := files.GetFile(context.Background(), "user@example.com", "f1")
	if record.Name != "alpha report" {
		t.Errorf("expected mirror untouched, got %q", record.Name)
	}
}

func TestRemoteAuthFailureRequiresReauth(t *testing.T) {
	e, files, remote := newFileGroup(t)
	remote.err = &types.ProviderError{StatusCode: http.StatusUnauthorized, Body: `{"error":{"message":"Invalid Credentials"}}`}

	rec := doAs(e, http.MethodPut, "/api/files/f1", `{"name":"new"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "reconnect") {
		t.Errorf("expected re-authorization message, got %s", rec.Body.String())
	}

	rec = doAs(e, http.MethodDelete, "/api/files/f1", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on trash, got %d", rec.Code)
	}

	record, _ := files.GetFile(context.Background(), "user@example.com", "f1")
	if record.Trashed {
		t.Error("expected mirror untouched after rejected trash")
	}
}
