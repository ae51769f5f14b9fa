package repository

import (
	"context"
	"sync"
	"time"

	"github.com/drivelens/drivelens/pkg/types"
)

// CredentialMemoryRepository implements CredentialRepository using in-memory storage.
type CredentialMemoryRepository struct {
	mu          sync.RWMutex
	credentials map[string]*types.Credential
}

var _ CredentialRepository = (*CredentialMemoryRepository)(nil)

// NewCredentialMemoryRepository creates a new in-memory credential repository
func NewCredentialMemoryRepository() *CredentialMemoryRepository {
	return &CredentialMemoryRepository{
		credentials: make(map[string]*types.Credential),
	}
}

func (r *CredentialMemoryRepository) GetCredential(ctx context.Context, accountID string) (*types.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.credentials[accountID]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *CredentialMemoryRepository) UpsertCredential(ctx context.Context, accountID string, update types.CredentialUpdate) (*types.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	c, ok := r.credentials[accountID]
	if !ok {
		c = &types.Credential{
			AccountID: accountID,
			CreatedAt: now,
		}
		r.credentials[accountID] = c
	}
	c.AccessToken = update.AccessToken
	if update.RefreshToken != "" {
		c.RefreshToken = update.RefreshToken
	}
	c.ExpiresAt = update.ExpiresAt
	c.UpdatedAt = now

	copied := *c
	return &copied, nil
}

func (r *CredentialMemoryRepository) DeleteCredential(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.credentials, accountID)
	return nil
}
