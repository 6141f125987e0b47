package sqlite

// Schema defines the SQLite tables for the short-term tier and the audit
// trail. Applied on every open; all statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS short_term_memories (
    id          TEXT NOT NULL,
    user_id     TEXT NOT NULL,
    content     TEXT NOT NULL,
    type        TEXT NOT NULL DEFAULT 'user_message',
    metadata    TEXT,
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, id)
);

CREATE INDEX IF NOT EXISTS idx_short_term_user_created
    ON short_term_memories(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS audit_events (
    id          TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    event_type  TEXT NOT NULL,
    user_id     TEXT NOT NULL,
    level       TEXT NOT NULL DEFAULT 'info',
    details     TEXT,
    memory_ref  TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_user_time
    ON audit_events(user_id, occurred_at DESC);
`
