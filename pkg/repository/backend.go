package repository

import (
	"context"
	"time"

	"github.com/drivelens/drivelens/pkg/types"
)

// CredentialRepository persists one OAuth credential record per connected
// account. Lookups return (nil, nil) when no credential is stored.
type CredentialRepository interface {
	// GetCredential returns the stored credential for an account
	GetCredential(ctx context.Context, accountID string) (*types.Credential, error)

	// UpsertCredential applies a field-level token update. The refresh token
	// is only overwritten when the update carries a new one, so concurrent
	// refreshes cannot blank it out.
	UpsertCredential(ctx context.Context, accountID string, update types.CredentialUpdate) (*types.Credential, error)

	// DeleteCredential removes the credential on explicit disconnect
	DeleteCredential(ctx context.Context, accountID string) error
}

// FileRepository is the keyed store for mirrored file records. It supports the
// filter/sort/paginate reads the query executor needs and the chunked
// transactional upserts the sync engine needs.
type FileRepository interface {
	// UpsertFiles applies one chunk of records inside a single transaction,
	// keyed by (account, file id). Idempotent: reapplying an unchanged chunk
	// leaves the table unchanged.
	UpsertFiles(ctx context.Context, accountID string, files []types.FileRecord) error

	// GetFile returns one record, or (nil, nil) when unknown
	GetFile(ctx context.Context, accountID, fileID string) (*types.FileRecord, error)

	// ListFiles returns non-trashed records matching the query
	ListFiles(ctx context.Context, accountID string, q types.FileQuery) ([]types.FileRecord, error)

	// CountFiles returns how many non-trashed records match the query's filters
	CountFiles(ctx context.Context, accountID string, q types.FileQuery) (int64, error)

	// UpdateFileName renames a record after a remote rename, refreshing its
	// modified time and last-synced marker
	UpdateFileName(ctx context.Context, accountID, fileID, name string, modifiedTime *time.Time) error

	// MarkFileTrashed flags a record after a remote trash. The record stays.
	MarkFileTrashed(ctx context.Context, accountID, fileID string) error

	// SyncStatus returns the non-trashed record count and the most recent
	// last-synced timestamp for an account
	SyncStatus(ctx context.Context, accountID string) (int64, *time.Time, error)
}
