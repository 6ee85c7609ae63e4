package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateUserPushTokens, downCreateUserPushTokens)
}

func upCreateUserPushTokens(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE user_push_tokens (
	  id BIGSERIAL PRIMARY KEY,
	  user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	  expo_push_token TEXT NOT NULL,
	  device_info JSONB,
	  last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  UNIQUE (user_id, expo_push_token)
	);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateUserPushTokens(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS user_push_tokens;`)
	return err
}
