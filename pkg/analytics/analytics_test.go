package analytics

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/drivelens/drivelens/pkg/repository"
	"github.com/drivelens/drivelens/pkg/types"
)

const testAccount = "user@example.com"

func TestComputeAggregates(t *testing.T) {
	files := repository.NewFileMemoryRepository()

	mustTime := func(s string) *time.Time {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t.Fatalf("parse time: %v", err)
		}
		return &parsed
	}

	records := []types.FileRecord{
		{FileID: "f1", Name: "a", MimeType: "application/pdf", Size: big.NewInt(10), OwnerEmail: "alice@example.com", ModifiedTime: mustTime("2025-03-01T00:00:00Z")},
		{FileID: "f2", Name: "b", MimeType: "application/pdf", Size: big.NewInt(20), OwnerEmail: "alice@example.com", ModifiedTime: mustTime("2025-03-15T00:00:00Z")},
		{FileID: "f3", Name: "c", MimeType: "text/plain", Size: big.NewInt(40), OwnerEmail: "alice@example.com", ModifiedTime: mustTime("2025-04-01T00:00:00Z")},
		{FileID: "f4", Name: "d", MimeType: "application/vnd.google-apps.document", Size: nil, OwnerEmail: "alice@example.com", ModifiedTime: mustTime("2025-04-02T00:00:00Z")},
		{FileID: "f5", Name: "e", MimeType: "text/plain", Size: big.NewInt(0), OwnerEmail: "alice@example.com", ModifiedTime: nil},
	}
	if err := files.UpsertFiles(context.Background(), testAccount, records); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := NewService(files).Compute(context.Background(), testAccount)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if result.TotalFiles != 5 {
		t.Errorf("expected 5 total files, got %d", result.TotalFiles)
	}
	if result.TotalSize != 70 {
		t.Errorf("expected total size 70, got %v", result.TotalSize)
	}
	if result.UniqueOwners != 1 {
		t.Errorf("expected 1 unique owner, got %d", result.UniqueOwners)
	}
	if len(result.TopTypes) != 3 {
		t.Fatalf("expected 3 types, got %d", len(result.TopTypes))
	}
	if result.TopTypes[0].Count != 2 {
		t.Errorf("expected top type count 2, got %d", result.TopTypes[0].Count)
	}
	if len(result.ActivityByMonth) != 2 {
		t.Fatalf("expected 2 activity months, got %d", len(result.ActivityByMonth))
	}
	if result.ActivityByMonth[0].Month != "2025-03" || result.ActivityByMonth[0].Count != 2 {
		t.Errorf("unexpected first month: %+v", result.ActivityByMonth[0])
	}
	if result.LastMonth() != "2025-04" {
		t.Errorf("expected last month 2025-04, got %q", result.LastMonth())
	}

	// Storage ordered by bytes descending
	if result.StorageByType[0].Type != "text/plain" || result.StorageByType[0].Bytes != 40 {
		t.Errorf("unexpected storage leader: %+v", result.StorageByType[0])
	}
}

func TestComputeTwoTypeCorpus(t *testing.T) {
	files := repository.NewFileMemoryRepository()

	records := []types.FileRecord{
		{FileID: "f1", Name: "a", MimeType: "application/pdf", Size: big.NewInt(10), OwnerEmail: "alice@example.com"},
		{FileID: "f2", Name: "b", MimeType: "application/pdf", Size: big.NewInt(20), OwnerEmail: "alice@example.com"},
		{FileID: "f3", Name: "c", MimeType: "application/pdf", Size: big.NewInt(30), OwnerEmail: "alice@example.com"},
		{FileID: "f4", Name: "d", MimeType: "text/plain", Size: big.NewInt(5), OwnerEmail: "alice@example.com"},
		{FileID: "f5", Name: "e", MimeType: "text/plain", Size: big.NewInt(5), OwnerEmail: "alice@example.com"},
	}
	if err := files.UpsertFiles(context.Background(), testAccount, records); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := NewService(files).Compute(context.Background(), testAccount)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if result.TotalFiles != 5 {
		t.Errorf("expected 5 total files, got %d", result.TotalFiles)
	}
	if result.TotalSize != 70 {
		t.Errorf("expected total size 70, got %v", result.TotalSize)
	}
	if result.UniqueOwners != 1 {
		t.Errorf("expected 1 unique owner, got %d", result.UniqueOwners)
	}
	if len(result.TopTypes) != 2 {
		t.Fatalf("expected 2 types, got %d", len(result.TopTypes))
	}
	if result.TopTypes[0].Type != "application/pdf" || result.TopTypes[0].Count != 3 {
		t.Errorf("unexpected top type: %+v", result.TopTypes[0])
	}
	if result.TopTypes[1].Type != "text/plain" || result.TopTypes[1].Count != 2 {
		t.Errorf("unexpected second type: %+v", result.TopTypes[1])
	}
}

func TestComputeEmptyCorpus(t *testing.T) {
	files := repository.NewFileMemoryRepository()

	result, err := NewService(files).Compute(context.Background(), testAccount)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if result.TotalFiles != 0 || result.TotalSize != 0 || result.UniqueOwners != 0 {
		t.Errorf("expected zero aggregate, got %+v", result)
	}
	if result.LastMonth() != "" {
		t.Errorf("expected empty last month, got %q", result.LastMonth())
	}
}

func TestFingerprint(t *testing.T) {
	data := &types.AnalyticsResult{
		TotalFiles:   5,
		TotalSize:    70,
		UniqueOwners: 1,
		ActivityByMonth: []types.MonthCount{
			{Month: "2025-03", Count: 2},
			{Month: "2025-04", Count: 2},
		},
	}

	got := Fingerprint(testAccount, data)
	want := "user@example.com:5:70:1:2025-04"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// No dated files means an empty trailing component
	empty := &types.AnalyticsResult{}
	if got := Fingerprint(testAccount, empty); got != "user@example.com:0:0:0:" {
		t.Errorf("unexpected empty fingerprint: %q", got)
	}
}
