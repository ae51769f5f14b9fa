package types

import (
	"math/big"
	"time"
)

// FileRecord mirrors one remote Drive file in local storage.
// FileID is the provider-issued identifier and is unique per account.
// Records are never deleted on remote deletion; they are marked trashed
// and excluded from normal listings.
type FileRecord struct {
	AccountID    string
	FileID       string
	Name         string
	MimeType     string
	Size         *big.Int // nil when the provider reports no size (folders, Google Docs)
	OwnerEmail   string
	OwnerName    string
	CreatedTime  *time.Time
	ModifiedTime *time.Time
	WebViewLink  string
	Trashed      bool
	LastSyncedAt time.Time
}

// Credential holds the OAuth tokens for one connected account.
// AccessToken is never empty once stored.
type Credential struct {
	AccountID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CredentialUpdate carries the token fields to persist after an exchange or
// refresh. RefreshToken is only overwritten when non-empty, since Google does
// not reissue it on every grant.
type CredentialUpdate struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Sort fields accepted by FileQuery. Anything else falls back to modified time.
const (
	SortBySize         = "size"
	SortByModifiedTime = "modifiedTime"
	SortByCreatedTime  = "createdTime"
	SortByName         = "name"
	SortByMimeType     = "mimeType"
	SortByOwnerEmail   = "ownerEmail"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// FileQuery describes a filtered, sorted, paginated read of non-trashed
// records for one account. Zero values mean "no constraint"; Limit 0 means
// unbounded.
type FileQuery struct {
	NameContains   string
	TypeContains   string
	OwnerContains  string
	ModifiedAfter  *time.Time
	ModifiedBefore *time.Time
	SortBy         string
	Order          string
	Limit          int
	Offset         int
}

// FileProjection is the API-boundary shape of a FileRecord. Size is converted
// from the arbitrary-precision internal value to a plain float64; the
// precision loss is acceptable for display, not for exact accounting.
type FileProjection struct {
	FileID       string     `json:"fileId"`
	Name         string     `json:"name"`
	MimeType     string     `json:"mimeType"`
	Size         *float64   `json:"size"`
	OwnerEmail   string     `json:"ownerEmail,omitempty"`
	OwnerName    string     `json:"ownerName,omitempty"`
	CreatedTime  *time.Time `json:"createdTime,omitempty"`
	ModifiedTime *time.Time `json:"modifiedTime,omitempty"`
	WebViewLink  string     `json:"webViewLink,omitempty"`
	Trashed      bool       `json:"trashed,omitempty"`
}

// Project converts a record to its API shape
func (f *FileRecord) Project() FileProjection {
	return FileProjection{
		FileID:       f.FileID,
		Name:         f.Name,
		MimeType:     f.MimeType,
		Size:         SizeToNumber(f.Size),
		OwnerEmail:   f.OwnerEmail,
		OwnerName:    f.OwnerName,
		CreatedTime:  f.CreatedTime,
		ModifiedTime: f.ModifiedTime,
		WebViewLink:  f.WebViewLink,
		Trashed:      f.Trashed,
	}
}

// SizeToNumber converts an arbitrary-precision size to a plain number for
// serialization. Values beyond float64 precision degrade gracefully.
func SizeToNumber(size *big.Int) *float64 {
	if size == nil {
		return nil
	}
	f, _ := new(big.Float).SetInt(size).Float64()
	return &f
}
