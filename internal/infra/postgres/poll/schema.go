package infra_postgres_poll

import (
	"context"
	"fmt"
)

// Responses are keyed by (poll_id, student_id): the primary key is what makes
// AppendVote an append-if-absent.
const schema = `
CREATE TABLE IF NOT EXISTS polls (
	id          UUID PRIMARY KEY,
	question    TEXT NOT NULL,
	created_by  TEXT NOT NULL,
	expires_at  TIMESTAMPTZ NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS polls_created_at_idx ON polls (created_at);

CREATE TABLE IF NOT EXISTS poll_options (
	poll_id  UUID NOT NULL REFERENCES polls (id),
	idx      INT NOT NULL,
	text     TEXT NOT NULL,
	votes    INT NOT NULL DEFAULT 0 CHECK (votes >= 0),
	PRIMARY KEY (poll_id, idx)
);

CREATE TABLE IF NOT EXISTS poll_responses (
	poll_id     UUID NOT NULL REFERENCES polls (id),
	student_id  TEXT NOT NULL,
	option_idx  INT NOT NULL,
	seq         BIGSERIAL,
	PRIMARY KEY (poll_id, student_id)
);
`

func (d *Driver) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
