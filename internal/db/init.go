// Package db opens the PostgreSQL connection, creates the schema and runs
// background maintenance over it.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS app_users (
    id BIGSERIAL PRIMARY KEY,
    username VARCHAR(50) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS qr_codes (
    id BIGSERIAL PRIMARY KEY,
    content VARCHAR(1000) NOT NULL,
    qr_code_base64 TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_qr (
    user_id BIGINT NOT NULL REFERENCES app_users(id) ON DELETE CASCADE,
    qr_id BIGINT NOT NULL REFERENCES qr_codes(id) ON DELETE CASCADE,
    PRIMARY KEY (user_id, qr_id)
);

CREATE INDEX IF NOT EXISTS user_qr_qr_id_idx ON user_qr (qr_id);
`

func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}
