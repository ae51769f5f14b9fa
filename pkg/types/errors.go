package types

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialNotFound is returned when no OAuth credential is stored
	// for an account. The caller must re-authorize; there is no retry.
	ErrCredentialNotFound = errors.New("no credential on record for account")

	// ErrFileNotFound is returned when a file id has no local record
	ErrFileNotFound = errors.New("file not found")
)

// ProviderError wraps a non-2xx response from the storage provider's API
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("drive API error %d: %s", e.StatusCode, e.Body)
}

// IsAuthError reports whether the provider rejected our token
func (e *ProviderError) IsAuthError() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
