// Package postgres provides the PostgreSQL implementation of the long-term
// storage tier, with optional pgvector semantic retrieval.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"

	"github.com/keepsake-ai/keepsake/internal/llm"
	"github.com/keepsake-ai/keepsake/internal/storage"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

// LongTermStore implements storage.LongTermStore using PostgreSQL. When the
// pgvector extension is present and an embedding generator is configured,
// Query performs cosine-similarity retrieval; otherwise it degrades to an
// ILIKE keyword scan.
type LongTermStore struct {
	db                *sql.DB
	embedder          llm.EmbeddingGenerator
	log               zerolog.Logger
	pgvectorAvailable bool
}

// NewLongTermStore opens the long-term tier. embedder may be nil; the store
// then skips embedding writes and uses keyword retrieval only.
func NewLongTermStore(dsn string, embedder llm.EmbeddingGenerator, log zerolog.Logger) (*LongTermStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	s := &LongTermStore{
		db:       db,
		embedder: embedder,
		log:      log.With().Str("component", "postgres").Logger(),
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to apply schema: %w", err)
	}

	// pgvector may not be installed on the server. Retrieval degrades to a
	// keyword scan rather than failing the open.
	if _, err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		s.log.Warn().Err(err).Msg("pgvector extension not available, semantic retrieval disabled")
	} else if _, err := db.Exec(MigrationPgvector); err != nil {
		s.log.Warn().Err(err).Msg("pgvector migration failed, semantic retrieval disabled")
	} else {
		s.pgvectorAvailable = true
	}

	return s, nil
}

// Put stores or updates a memory item (upsert semantics). The embedding is
// recomputed on every write so anonymized content never retains the vector of
// its pre-redaction form.
func (s *LongTermStore) Put(ctx context.Context, item *types.MemoryItem) error {
	if item == nil {
		return storage.ErrInvalidInput
	}
	if item.ID == "" {
		return fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}
	if item.UserID == "" {
		return fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}

	var metadataJSON []byte
	if item.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(item.Metadata)
		if err != nil {
			return fmt.Errorf("postgres: failed to marshal metadata: %w", err)
		}
	}

	now := time.Now().UTC()
	created := item.Timestamp
	if created.IsZero() {
		created = now
	}

	// The embedding column only exists once the pgvector migration has run.
	var err error
	if s.pgvectorAvailable {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO long_term_memories (id, user_id, content, type, metadata, created_at, updated_at, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (user_id, id) DO UPDATE SET
				content = EXCLUDED.content,
				type = EXCLUDED.type,
				metadata = EXCLUDED.metadata,
				updated_at = EXCLUDED.updated_at,
				embedding = EXCLUDED.embedding
		`, item.ID, item.UserID, item.Content, item.Type, nullableJSON(metadataJSON), created, now,
			s.embed(ctx, item.Content))
	} else {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO long_term_memories (id, user_id, content, type, metadata, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (user_id, id) DO UPDATE SET
				content = EXCLUDED.content,
				type = EXCLUDED.type,
				metadata = EXCLUDED.metadata,
				updated_at = EXCLUDED.updated_at
		`, item.ID, item.UserID, item.Content, item.Type, nullableJSON(metadataJSON), created, now)
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to store memory: %w", err)
	}
	return nil
}

// Get retrieves a single item.
func (s *LongTermStore) Get(ctx context.Context, userID, id string) (*types.MemoryItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, content, type, metadata, created_at, updated_at
		FROM long_term_memories
		WHERE user_id = $1 AND id = $2
	`, userID, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to get memory: %w", err)
	}
	return item, nil
}

// ListByUser returns the user's items, most recent first.
func (s *LongTermStore) ListByUser(ctx context.Context, userID string) ([]*types.MemoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, content, type, metadata, created_at, updated_at
		FROM long_term_memories
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list memories: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// Query returns the items most relevant to the query text. Cosine similarity
// over embeddings when available, ILIKE keyword scan otherwise. An empty
// query lists the most recent items.
func (s *LongTermStore) Query(ctx context.Context, userID, query string, limit int) ([]*types.MemoryItem, error) {
	if limit <= 0 {
		limit = 10
	}

	if query == "" {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, user_id, content, type, metadata, created_at, updated_at
			FROM long_term_memories
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, userID, limit)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to query memories: %w", err)
		}
		defer rows.Close()
		return collectItems(rows)
	}

	if s.pgvectorAvailable {
		if vec := s.embed(ctx, query); vec != nil {
			rows, err := s.db.QueryContext(ctx, `
				SELECT id, user_id, content, type, metadata, created_at, updated_at
				FROM long_term_memories
				WHERE user_id = $1 AND embedding IS NOT NULL
				ORDER BY embedding <=> $2
				LIMIT $3
			`, userID, vec, limit)
			if err != nil {
				return nil, fmt.Errorf("postgres: failed to run vector query: %w", err)
			}
			defer rows.Close()
			return collectItems(rows)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, content, type, metadata, created_at, updated_at
		FROM long_term_memories
		WHERE user_id = $1 AND content ILIKE '%' || $2 || '%'
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to run keyword query: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// Delete removes an item, reporting whether a row was actually deleted.
func (s *LongTermStore) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM long_term_memories WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return false, fmt.Errorf("postgres: failed to delete memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ClearByUser removes all of a user's items.
func (s *LongTermStore) ClearByUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM long_term_memories WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("postgres: failed to clear memories: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *LongTermStore) Close() error {
	return s.db.Close()
}

// embed computes the content embedding, returning nil (rather than an error)
// when no embedder is configured or the call fails. Storage must never fail
// because the embedding provider is down.
func (s *LongTermStore) embed(ctx context.Context, text string) interface{} {
	if s.embedder == nil || !s.pgvectorAvailable || text == "" {
		return nil
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil || len(vec) == 0 {
		if err != nil {
			s.log.Warn().Err(err).Msg("embedding failed, storing without vector")
		}
		return nil
	}
	return pgvector.NewVector(vec)
}

func scanItem(row *sql.Row) (*types.MemoryItem, error) {
	var (
		item         types.MemoryItem
		metadataJSON sql.NullString
	)
	if err := row.Scan(&item.ID, &item.UserID, &item.Content, &item.Type,
		&metadataJSON, &item.Timestamp, &item.UpdatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalMetadata(metadataJSON, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]*types.MemoryItem, error) {
	var items []*types.MemoryItem
	for rows.Next() {
		var (
			item         types.MemoryItem
			metadataJSON sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.UserID, &item.Content, &item.Type,
			&metadataJSON, &item.Timestamp, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan memory: %w", err)
		}
		if err := unmarshalMetadata(metadataJSON, &item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func unmarshalMetadata(raw sql.NullString, item *types.MemoryItem) error {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw.String), &item.Metadata); err != nil {
		return fmt.Errorf("postgres: failed to unmarshal metadata: %w", err)
	}
	return nil
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
