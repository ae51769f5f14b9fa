package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/drivelens/drivelens/pkg/types"
)

func (b *PostgresBackend) GetCredential(ctx context.Context, accountID string) (*types.Credential, error) {
	query := `
		SELECT account_id, access_token, refresh_token, expires_at, created_at, updated_at
		FROM oauth_credential WHERE account_id = $1
	`

	var c types.Credential
	err := b.db.QueryRowContext(ctx, query, accountID).Scan(
		&c.AccountID, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &c, nil
}

func (b *PostgresBackend) UpsertCredential(ctx context.Context, accountID string, update types.CredentialUpdate) (*types.Credential, error) {
	// Field-level upsert: the refresh token is kept unless a new one arrives,
	// so out-of-order refreshes for the same account cannot corrupt state.
	query := `
		INSERT INTO oauth_credential (account_id, access_token, refresh_token, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			expires_at = EXCLUDED.expires_at,
			refresh_token = CASE
				WHEN EXCLUDED.refresh_token <> '' THEN EXCLUDED.refresh_token
				ELSE oauth_credential.refresh_token
			END,
			updated_at = CURRENT_TIMESTAMP
		RETURNING account_id, access_token, refresh_token, expires_at, created_at, updated_at
	`

	var c types.Credential
	err := b.db.QueryRowContext(ctx, query, accountID, update.AccessToken, update.RefreshToken, update.ExpiresAt).Scan(
		&c.AccountID, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert credential: %w", err)
	}
	return &c, nil
}

func (b *PostgresBackend) DeleteCredential(ctx context.Context, accountID string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM oauth_credential WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
