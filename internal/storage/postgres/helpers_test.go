package postgres

import (
	"context"
	"fmt"
)

// TruncateForTest removes all rows from the long-term table. Test-only; it
// lives in the postgres package so it can reach the unexported db field.
func (s *LongTermStore) TruncateForTest(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "TRUNCATE TABLE long_term_memories")
	if err != nil {
		return fmt.Errorf("postgres: failed to truncate long_term_memories: %w", err)
	}
	return nil
}
