package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/drivelens/drivelens/pkg/types"
)

const fileColumns = `account_id, file_id, name, mime_type, size, owner_email, owner_name,
	created_time, modified_time, web_view_link, trashed, last_synced_at`

// sortColumns is the allow-list of sortable fields. Unknown keys fall back to
// modified time.
var sortColumns = map[string]string{
	types.SortBySize:         "size",
	types.SortByModifiedTime: "modified_time",
	types.SortByCreatedTime:  "created_time",
	types.SortByName:         "name",
	types.SortByMimeType:     "mime_type",
	types.SortByOwnerEmail:   "owner_email",
}

func (b *PostgresBackend) UpsertFiles(ctx context.Context, accountID string, files []types.FileRecord) error {
	if len(files) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO drive_file (account_id, file_id, name, mime_type, size, owner_email, owner_name,
			created_time, modified_time, web_view_link, trashed, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (account_id, file_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			mime_type = EXCLUDED.mime_type,
			size = EXCLUDED.size,
			owner_email = EXCLUDED.owner_email,
			owner_name = EXCLUDED.owner_name,
			created_time = EXCLUDED.created_time,
			modified_time = EXCLUDED.modified_time,
			web_view_link = EXCLUDED.web_view_link,
			trashed = EXCLUDED.trashed,
			last_synced_at = EXCLUDED.last_synced_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range files {
		f := &files[i]
		_, err := stmt.ExecContext(ctx,
			accountID, f.FileID, f.Name, f.MimeType, sizeValue(f.Size),
			nullString(f.OwnerEmail), nullString(f.OwnerName),
			nullTime(f.CreatedTime), nullTime(f.ModifiedTime),
			f.WebViewLink, f.Trashed, f.LastSyncedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert file %s: %w", f.FileID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert tx: %w", err)
	}
	return nil
}

func (b *PostgresBackend) GetFile(ctx context.Context, accountID, fileID string) (*types.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM drive_file WHERE account_id = $1 AND file_id = $2`, fileColumns)

	f, err := scanFile(b.db.QueryRowContext(ctx, query, accountID, fileID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return f, nil
}

func (b *PostgresBackend) ListFiles(ctx context.Context, accountID string, q types.FileQuery) ([]types.FileRecord, error) {
	where, args := buildFileWhere(accountID, q)

	sortCol, ok := sortColumns[q.SortBy]
	if !ok {
		sortCol = "modified_time"
	}
	dir := "DESC"
	if q.Order == types.OrderAsc {
		dir = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM drive_file WHERE %s ORDER BY %s %s NULLS LAST`,
		fileColumns, where, sortCol, dir)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []types.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

func (b *PostgresBackend) CountFiles(ctx context.Context, accountID string, q types.FileQuery) (int64, error) {
	where, args := buildFileWhere(accountID, q)

	var total int64
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drive_file WHERE `+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return total, nil
}

func (b *PostgresBackend) UpdateFileName(ctx context.Context, accountID, fileID, name string, modifiedTime *time.Time) error {
	query := `
		UPDATE drive_file
		SET name = $3, modified_time = COALESCE($4, modified_time), last_synced_at = CURRENT_TIMESTAMP
		WHERE account_id = $1 AND file_id = $2
	`
	result, err := b.db.ExecContext(ctx, query, accountID, fileID, name, nullTime(modifiedTime))
	if err != nil {
		return fmt.Errorf("update file name: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return types.ErrFileNotFound
	}
	return nil
}

func (b *PostgresBackend) MarkFileTrashed(ctx context.Context, accountID, fileID string) error {
	query := `
		UPDATE drive_file
		SET trashed = TRUE, last_synced_at = CURRENT_TIMESTAMP
		WHERE account_id = $1 AND file_id = $2
	`
	result, err := b.db.ExecContext(ctx, query, accountID, fileID)
	if err != nil {
		return fmt.Errorf("mark file trashed: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return types.ErrFileNotFound
	}
	return nil
}

func (b *PostgresBackend) SyncStatus(ctx context.Context, accountID string) (int64, *time.Time, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE NOT trashed), MAX(last_synced_at)
		FROM drive_file WHERE account_id = $1
	`

	var count int64
	var last sql.NullTime
	if err := b.db.QueryRowContext(ctx, query, accountID).Scan(&count, &last); err != nil {
		return 0, nil, fmt.Errorf("sync status: %w", err)
	}
	if !last.Valid {
		return count, nil, nil
	}
	return count, &last.Time, nil
}

// buildFileWhere renders the query filters into a WHERE clause. Every read
// path is scoped to one account and excludes trashed records.
func buildFileWhere(accountID string, q types.FileQuery) (string, []any) {
	where := "account_id = $1 AND trashed = FALSE"
	args := []any{accountID}

	if q.NameContains != "" {
		args = append(args, "%"+q.NameContains+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if q.TypeContains != "" {
		args = append(args, "%"+q.TypeContains+"%")
		where += fmt.Sprintf(" AND mime_type ILIKE $%d", len(args))
	}
	if q.OwnerContains != "" {
		args = append(args, "%"+q.OwnerContains+"%")
		where += fmt.Sprintf(" AND (owner_email ILIKE $%d OR owner_name ILIKE $%d)", len(args), len(args))
	}
	if q.ModifiedAfter != nil {
		args = append(args, *q.ModifiedAfter)
		where += fmt.Sprintf(" AND modified_time >= $%d", len(args))
	}
	if q.ModifiedBefore != nil {
		args = append(args, *q.ModifiedBefore)
		where += fmt.Sprintf(" AND modified_time <= $%d", len(args))
	}

	return where, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*types.FileRecord, error) {
	var f types.FileRecord
	var size sql.NullString
	var ownerEmail, ownerName sql.NullString
	var createdTime, modifiedTime sql.NullTime

	err := row.Scan(
		&f.AccountID, &f.FileID, &f.Name, &f.MimeType, &size, &ownerEmail, &ownerName,
		&createdTime, &modifiedTime, &f.WebViewLink, &f.Trashed, &f.LastSyncedAt,
	)
	if err != nil {
		return nil, err
	}

	if size.Valid {
		n, ok := new(big.Int).SetString(size.String, 10)
		if !ok {
			return nil, fmt.Errorf("invalid numeric size %q for file %s", size.String, f.FileID)
		}
		f.Size = n
	}
	f.OwnerEmail = ownerEmail.String
	f.OwnerName = ownerName.String
	if createdTime.Valid {
		f.CreatedTime = &createdTime.Time
	}
	if modifiedTime.Valid {
		f.ModifiedTime = &modifiedTime.Time
	}
	return &f, nil
}

func sizeValue(size *big.Int) any {
	if size == nil {
		return nil
	}
	return size.String()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
