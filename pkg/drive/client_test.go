package drive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drivelens/drivelens/pkg/types"
)

func TestListPagePagination(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header: %q", got)
		}
		// No q filter: trashed files must come back so the mirror sees them
		if got := r.URL.Query().Get("q"); got != "" {
			t.Errorf("unexpected list filter: %q", got)
		}
		requests = append(requests, r.URL.Query().Get("pageToken"))

		page := Page{
			Files: []File{{ID: "f1", Name: "report.pdf", MimeType: "application/pdf", Size: "1024"}},
		}
		if r.URL.Query().Get("pageToken") == "" {
			page.NextPageToken = "page-2"
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)

	first, err := client.ListPage(context.Background(), "test-token", "", 100)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if first.NextPageToken != "page-2" {
		t.Errorf("expected continuation token, got %q", first.NextPageToken)
	}
	if len(first.Files) != 1 || first.Files[0].ID != "f1" {
		t.Errorf("unexpected files: %+v", first.Files)
	}

	second, err := client.ListPage(context.Background(), "test-token", first.NextPageToken, 100)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if second.NextPageToken != "" {
		t.Errorf("expected final page, got token %q", second.NextPageToken)
	}

	if len(requests) != 2 || requests[1] != "page-2" {
		t.Errorf("unexpected request sequence: %v", requests)
	}
}

func TestRenameSendsPatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "renamed.txt" {
			t.Errorf("unexpected body: %v", body)
		}
		json.NewEncoder(w).Encode(File{ID: "f1", Name: "renamed.txt", ModifiedTime: "2025-06-01T10:00:00Z"})
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)

	file, err := client.Rename(context.Background(), "token", "f1", "renamed.txt")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if file.Name != "renamed.txt" {
		t.Errorf("unexpected name: %q", file.Name)
	}
}

func TestProviderErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid Credentials"}}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)

	_, err := client.ListPage(context.Background(), "stale-token", "", 100)
	if err == nil {
		t.Fatal("expected error")
	}

	var provErr *types.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if provErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("unexpected status: %d", provErr.StatusCode)
	}
	if !provErr.IsAuthError() {
		t.Error("expected auth error classification")
	}
}
