package postgres

// Schema defines the long-term tier table. All statements are idempotent so
// the schema can be applied on every open.
const Schema = `
CREATE TABLE IF NOT EXISTS long_term_memories (
    id          TEXT NOT NULL,
    user_id     TEXT NOT NULL,
    content     TEXT NOT NULL,
    type        TEXT NOT NULL DEFAULT 'user_message',
    metadata    JSONB,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, id)
);

CREATE INDEX IF NOT EXISTS idx_long_term_user_created
    ON long_term_memories(user_id, created_at DESC);
`

// MigrationPgvector adds the embedding column and its index. Applied only when
// the pgvector extension is available.
const MigrationPgvector = `
ALTER TABLE long_term_memories ADD COLUMN IF NOT EXISTS embedding vector(1536);

CREATE INDEX IF NOT EXISTS idx_long_term_embedding_cosine
    ON long_term_memories USING ivfflat (embedding vector_cosine_ops);
`
