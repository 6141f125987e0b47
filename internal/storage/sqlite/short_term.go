package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/keepsake-ai/keepsake/internal/storage"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

// ShortTermStore implements storage.ShortTermStore on SQLite. Capacity is
// enforced per user: inserting beyond maxPerUser evicts the oldest rows.
// Rows older than the TTL are purged lazily on read and write.
type ShortTermStore struct {
	db         *sql.DB
	maxPerUser int
	ttl        time.Duration

	now func() time.Time
}

// NewShortTermStore creates a SQLite-backed short-term store. maxPerUser <= 0
// disables the capacity bound; ttl <= 0 disables expiry.
func NewShortTermStore(dsn string, maxPerUser int, ttl time.Duration) (*ShortTermStore, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	return &ShortTermStore{db: db, maxPerUser: maxPerUser, ttl: ttl, now: time.Now}, nil
}

// WrapDB builds a short-term store over an already-open handle. The caller
// keeps ownership of the handle; Close is a no-op.
func WrapDB(db *sql.DB, maxPerUser int, ttl time.Duration) *ShortTermStore {
	return &ShortTermStore{db: db, maxPerUser: maxPerUser, ttl: ttl, now: time.Now}
}

// Put stores or updates a memory item (upsert semantics), then enforces the
// per-user capacity bound.
func (s *ShortTermStore) Put(ctx context.Context, item *types.MemoryItem) error {
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
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	now := s.now()
	created := item.Timestamp
	if created.IsZero() {
		created = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO short_term_memories (id, user_id, content, type, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			content = excluded.content,
			type = excluded.type,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, item.ID, item.UserID, item.Content, item.Type, nullableString(metadataJSON), created, now)
	if err != nil {
		return fmt.Errorf("failed to store memory: %w", err)
	}

	if err := s.purgeExpired(ctx, item.UserID); err != nil {
		return err
	}
	return s.enforceBound(ctx, item.UserID)
}

// Get retrieves a single item, treating expired rows as absent.
func (s *ShortTermStore) Get(ctx context.Context, userID, id string) (*types.MemoryItem, error) {
	if err := s.purgeExpired(ctx, userID); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, content, type, metadata, created_at, updated_at
		FROM short_term_memories
		WHERE user_id = ? AND id = ?
	`, userID, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	return item, nil
}

// ListByUser returns the user's items, most recent first.
func (s *ShortTermStore) ListByUser(ctx context.Context, userID string) ([]*types.MemoryItem, error) {
	if err := s.purgeExpired(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, content, type, metadata, created_at, updated_at
		FROM short_term_memories
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	var items []*types.MemoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Delete removes an item, reporting whether a row was actually deleted.
func (s *ShortTermStore) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM short_term_memories WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ClearByUser removes all of a user's items.
func (s *ShortTermStore) ClearByUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM short_term_memories WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear memories: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *ShortTermStore) Close() error {
	return s.db.Close()
}

func (s *ShortTermStore) purgeExpired(ctx context.Context, userID string) error {
	if s.ttl <= 0 {
		return nil
	}
	cutoff := s.now().Add(-s.ttl)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM short_term_memories WHERE user_id = ? AND created_at < ?`,
		userID, cutoff); err != nil {
		return fmt.Errorf("failed to purge expired memories: %w", err)
	}
	return nil
}

func (s *ShortTermStore) enforceBound(ctx context.Context, userID string) error {
	if s.maxPerUser <= 0 {
		return nil
	}
	// Delete everything outside the newest maxPerUser rows for this user.
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM short_term_memories
		WHERE user_id = ? AND id NOT IN (
			SELECT id FROM short_term_memories
			WHERE user_id = ?
			ORDER BY created_at DESC, updated_at DESC
			LIMIT ?
		)
	`, userID, userID, s.maxPerUser); err != nil {
		return fmt.Errorf("failed to enforce capacity bound: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*types.MemoryItem, error) {
	var (
		item         types.MemoryItem
		metadataJSON sql.NullString
	)
	if err := row.Scan(&item.ID, &item.UserID, &item.Content, &item.Type,
		&metadataJSON, &item.Timestamp, &item.UpdatedAt); err != nil {
		return nil, err
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &item.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &item, nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
