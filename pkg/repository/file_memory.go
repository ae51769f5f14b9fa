package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/drivelens/drivelens/pkg/types"
)

// FileMemoryRepository implements FileRepository using in-memory storage.
// Used by tests and anywhere Postgres is unavailable.
type FileMemoryRepository struct {
	mu    sync.RWMutex
	files map[string]map[string]*types.FileRecord // account -> file id -> record
}

var _ FileRepository = (*FileMemoryRepository)(nil)

// NewFileMemoryRepository creates a new in-memory file repository
func NewFileMemoryRepository() *FileMemoryRepository {
	return &FileMemoryRepository{
		files: make(map[string]map[string]*types.FileRecord),
	}
}

func (r *FileMemoryRepository) UpsertFiles(ctx context.Context, accountID string, files []types.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.files[accountID]
	if !ok {
		account = make(map[string]*types.FileRecord)
		r.files[accountID] = account
	}
	for i := range files {
		f := files[i]
		f.AccountID = accountID
		account[f.FileID] = &f
	}
	return nil
}

func (r *FileMemoryRepository) GetFile(ctx context.Context, accountID, fileID string) (*types.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.files[accountID][fileID]
	if !ok {
		return nil, nil
	}
	copied := *f
	return &copied, nil
}

func (r *FileMemoryRepository) ListFiles(ctx context.Context, accountID string, q types.FileQuery) ([]types.FileRecord, error) {
	r.mu.RLock()
	matched := r.match(accountID, q)
	r.mu.RUnlock()

	sortFiles(matched, q.SortBy, q.Order)

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (r *FileMemoryRepository) CountFiles(ctx context.Context, accountID string, q types.FileQuery) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.match(accountID, q))), nil
}

func (r *FileMemoryRepository) UpdateFileName(ctx context.Context, accountID, fileID, name string, modifiedTime *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[accountID][fileID]
	if !ok {
		return types.ErrFileNotFound
	}
	f.Name = name
	if modifiedTime != nil {
		f.ModifiedTime = modifiedTime
	}
	f.LastSyncedAt = time.Now()
	return nil
}

func (r *FileMemoryRepository) MarkFileTrashed(ctx context.Context, accountID, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[accountID][fileID]
	if !ok {
		return types.ErrFileNotFound
	}
	f.Trashed = true
	f.LastSyncedAt = time.Now()
	return nil
}

func (r *FileMemoryRepository) SyncStatus(ctx context.Context, accountID string) (int64, *time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	var last *time.Time
	for _, f := range r.files[accountID] {
		if !f.Trashed {
			count++
		}
		if last == nil || f.LastSyncedAt.After(*last) {
			t := f.LastSyncedAt
			last = &t
		}
	}
	return count, last, nil
}

// match returns copies of the non-trashed records matching the query filters.
// Callers must hold at least a read lock.
func (r *FileMemoryRepository) match(accountID string, q types.FileQuery) []types.FileRecord {
	var matched []types.FileRecord
	for _, f := range r.files[accountID] {
		if f.Trashed {
			continue
		}
		if q.NameContains != "" && !containsFold(f.Name, q.NameContains) {
			continue
		}
		if q.TypeContains != "" && !containsFold(f.MimeType, q.TypeContains) {
			continue
		}
		if q.OwnerContains != "" && !containsFold(f.OwnerEmail, q.OwnerContains) && !containsFold(f.OwnerName, q.OwnerContains) {
			continue
		}
		if q.ModifiedAfter != nil && (f.ModifiedTime == nil || f.ModifiedTime.Before(*q.ModifiedAfter)) {
			continue
		}
		if q.ModifiedBefore != nil && (f.ModifiedTime == nil || f.ModifiedTime.After(*q.ModifiedBefore)) {
			continue
		}
		matched = append(matched, *f)
	}
	return matched
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortFiles orders records by the requested key, nil values last, matching
// the Postgres NULLS LAST behavior
func sortFiles(files []types.FileRecord, sortBy, order string) {
	asc := order == types.OrderAsc

	less := func(i, j int) bool {
		a, b := &files[i], &files[j]
		switch sortBy {
		case types.SortBySize:
			if a.Size == nil || b.Size == nil {
				return b.Size == nil && a.Size != nil
			}
			cmp := a.Size.Cmp(b.Size)
			if asc {
				return cmp < 0
			}
			return cmp > 0
		case types.SortByName:
			if asc {
				return a.Name < b.Name
			}
			return a.Name > b.Name
		case types.SortByMimeType:
			if asc {
				return a.MimeType < b.MimeType
			}
			return a.MimeType > b.MimeType
		case types.SortByOwnerEmail:
			if asc {
				return a.OwnerEmail < b.OwnerEmail
			}
			return a.OwnerEmail > b.OwnerEmail
		case types.SortByCreatedTime:
			return lessTime(a.CreatedTime, b.CreatedTime, asc)
		default:
			return lessTime(a.ModifiedTime, b.ModifiedTime, asc)
		}
	}
	sort.SliceStable(files, less)
}

func lessTime(a, b *time.Time, asc bool) bool {
	if a == nil || b == nil {
		return b == nil && a != nil
	}
	if asc {
		return a.Before(*b)
	}
	return a.After(*b)
}
