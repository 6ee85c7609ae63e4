package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateUsers, downCreateUsers)
}

func upCreateUsers(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE users (
	  id BIGSERIAL PRIMARY KEY,
	  first_name TEXT NOT NULL,
	  last_name TEXT NOT NULL DEFAULT '',
	  email TEXT NOT NULL UNIQUE,
	  phone TEXT NOT NULL UNIQUE,
	  password BYTEA NOT NULL,
	  avatar_url TEXT,
	  is_active BOOLEAN NOT NULL DEFAULT false,
	  refresh_token TEXT NOT NULL DEFAULT '',
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE TABLE user_invitations (
	  token TEXT PRIMARY KEY,
	  user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	  expiry TIMESTAMP WITH TIME ZONE NOT NULL
	);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateUsers(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP TABLE IF EXISTS user_invitations;
	DROP TABLE IF EXISTS users;
	`)
	return err
}
