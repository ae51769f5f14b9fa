package backend_postgres_migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upInitial, downInitial)
}

func upInitial(tx *sql.Tx) error {
	createStatements := []string{
		// One OAuth credential per connected account
		`CREATE TABLE IF NOT EXISTS oauth_credential (
			id SERIAL PRIMARY KEY,
			account_id VARCHAR(320) NOT NULL UNIQUE,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);`,

		// Mirrored Drive files; size is NUMERIC because Drive reports sizes
		// as arbitrary-precision decimal strings
		`CREATE TABLE IF NOT EXISTS drive_file (
			id SERIAL PRIMARY KEY,
			account_id VARCHAR(320) NOT NULL,
			file_id VARCHAR(255) NOT NULL,
			name TEXT NOT NULL,
			mime_type VARCHAR(255) NOT NULL,
			size NUMERIC,
			owner_email VARCHAR(320),
			owner_name VARCHAR(255),
			created_time TIMESTAMP WITH TIME ZONE,
			modified_time TIMESTAMP WITH TIME ZONE,
			web_view_link TEXT NOT NULL DEFAULT '',
			trashed BOOLEAN NOT NULL DEFAULT FALSE,
			last_synced_at TIMESTAMP WITH TIME ZONE NOT NULL,
			UNIQUE (account_id, file_id)
		);`,

		// Indexes
		`CREATE INDEX idx_drive_file_account_trashed ON drive_file(account_id, trashed);`,
		`CREATE INDEX idx_drive_file_modified_time ON drive_file(modified_time DESC);`,
		`CREATE INDEX idx_drive_file_mime_type ON drive_file(mime_type);`,
	}

	for _, stmt := range createStatements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func downInitial(tx *sql.Tx) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS drive_file;`,
		`DROP TABLE IF EXISTS oauth_credential;`,
	}

	for _, stmt := range dropStatements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
