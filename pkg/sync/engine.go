package sync

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/drivelens/drivelens/pkg/drive"
	"github.com/drivelens/drivelens/pkg/oauth"
	"github.com/drivelens/drivelens/pkg/repository"
	"github.com/drivelens/drivelens/pkg/types"
)

const (
	defaultPageSize  = 1000
	defaultChunkSize = 100

	fallbackName     = "Untitled"
	fallbackMimeType = "application/octet-stream"
)

// Lister fetches pages of file metadata from the remote provider
type Lister interface {
	ListPage(ctx context.Context, token, pageToken string, pageSize int) (*drive.Page, error)
}

// TokenRefresher exchanges a refresh token for a fresh access token
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*types.CredentialUpdate, error)
}

// Result summarizes one completed sync run
type Result struct {
	FilesSynced int       `json:"filesSynced"`
	Pages       int       `json:"pages"`
	StartedAt   time.Time `json:"startedAt"`
	Duration    string    `json:"duration"`
}

// Engine mirrors the full remote file listing for an account into local
// storage. Runs are full-corpus: every remote file is upserted exactly once
// per run, including trashed ones so a remote trash marks the local record.
type Engine struct {
	credentials repository.CredentialRepository
	files       repository.FileRepository
	lister      Lister
	refresher   TokenRefresher
	pageSize    int
	chunkSize   int
}

// NewEngine creates a sync engine
func NewEngine(credentials repository.CredentialRepository, files repository.FileRepository, lister Lister, refresher TokenRefresher, cfg types.SyncConfig) *Engine {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Engine{
		credentials: credentials,
		files:       files,
		lister:      lister,
		refresher:   refresher,
		pageSize:    pageSize,
		chunkSize:   chunkSize,
	}
}

// Run performs a full sync for the account. The stored credential is
// refreshed and persisted before any listing begins, so a mid-run expiry
// cannot leave the run half-authorized.
func (e *Engine) Run(ctx context.Context, accountID string) (*Result, error) {
	runID := uuid.New().String()
	startedAt := time.Now()

	token, err := e.accessToken(ctx, accountID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("run_id", runID).
		Str("account_id", accountID).
		Msg("starting drive sync")

	seen := make(map[string]bool)
	var chunk []types.FileRecord
	synced := 0
	pages := 0
	pageToken := ""

	for {
		page, err := e.lister.ListPage(ctx, token, pageToken, e.pageSize)
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
		pages++

		for i := range page.Files {
			record := transform(&page.Files[i], accountID, startedAt)
			if seen[record.FileID] {
				continue
			}
			seen[record.FileID] = true

			chunk = append(chunk, record)
			if len(chunk) >= e.chunkSize {
				if err := e.files.UpsertFiles(ctx, accountID, chunk); err != nil {
					return nil, fmt.Errorf("upsert files: %w", err)
				}
				synced += len(chunk)
				chunk = chunk[:0]
			}
		}

		log.Info().
			Str("run_id", runID).
			Int("page_count", len(page.Files)).
			Int("total_so_far", len(seen)).
			Msg("fetched drive files page")

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if len(chunk) > 0 {
		if err := e.files.UpsertFiles(ctx, accountID, chunk); err != nil {
			return nil, fmt.Errorf("upsert files: %w", err)
		}
		synced += len(chunk)
	}

	duration := time.Since(startedAt)
	log.Info().
		Str("run_id", runID).
		Str("account_id", accountID).
		Int("synced", synced).
		Int("pages", pages).
		Dur("duration", duration).
		Msg("drive sync completed")

	return &Result{
		FilesSynced: synced,
		Pages:       pages,
		StartedAt:   startedAt,
		Duration:    duration.Round(time.Millisecond).String(),
	}, nil
}

// AccessToken returns a valid access token for the account, refreshing and
// persisting the stored credential first when it is close to expiry.
func (e *Engine) AccessToken(ctx context.Context, accountID string) (string, error) {
	return e.accessToken(ctx, accountID)
}

func (e *Engine) accessToken(ctx context.Context, accountID string) (string, error) {
	cred, err := e.credentials.GetCredential(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("get credential: %w", err)
	}
	if cred == nil {
		return "", types.ErrCredentialNotFound
	}

	if !oauth.NeedsRefresh(cred) {
		return cred.AccessToken, nil
	}

	update, err := e.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh credential: %w", err)
	}

	// Persist before use so a later run never sees the stale token
	cred, err = e.credentials.UpsertCredential(ctx, accountID, *update)
	if err != nil {
		return "", fmt.Errorf("persist refreshed credential: %w", err)
	}

	log.Info().Str("account_id", accountID).Msg("refreshed drive credential")
	return cred.AccessToken, nil
}

// transform maps a remote file to its local record shape
func transform(f *drive.File, accountID string, syncedAt time.Time) types.FileRecord {
	record := types.FileRecord{
		AccountID:    accountID,
		FileID:       f.ID,
		Name:         f.Name,
		MimeType:     f.MimeType,
		WebViewLink:  f.WebViewLink,
		Trashed:      f.Trashed,
		LastSyncedAt: syncedAt,
	}

	if record.Name == "" {
		record.Name = fallbackName
	}
	if record.MimeType == "" {
		record.MimeType = fallbackMimeType
	}

	if f.Size != "" {
		if size, ok := new(big.Int).SetString(f.Size, 10); ok {
			record.Size = size
		}
	}

	if len(f.Owners) > 0 {
		record.OwnerEmail = f.Owners[0].EmailAddress
		record.OwnerName = f.Owners[0].DisplayName
	}

	if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		record.CreatedTime = &t
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		record.ModifiedTime = &t
	}

	return record
}
