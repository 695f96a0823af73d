package sqlstore

import (
	"context"
	"fmt"
	"time"
)

// Change is one persisted field change as recorded by the audit worker.
type Change struct {
	ID         string
	Key        string
	Value      string
	Op         string
	OccurredAt time.Time
	RecordedAt time.Time
}

const (
	insertChange = `INSERT INTO field_changes (id, name, value, op, occurred_at, recorded_at)
VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`
	selectRecentChanges = `SELECT id, name, value, op, occurred_at, recorded_at
FROM field_changes ORDER BY occurred_at DESC, id LIMIT ?`
)

// RecordChange inserts c. Redelivered messages carry the same ID and are
// ignored, so the call is idempotent.
func (s *Store) RecordChange(ctx context.Context, c Change) error {
	recorded := c.RecordedAt
	if recorded.IsZero() {
		recorded = s.now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(insertChange),
		c.ID, c.Key, c.Value, c.Op, c.OccurredAt.UnixMilli(), recorded.UnixMilli())
	if err != nil {
		return fmt.Errorf("record change %s: %w", c.ID, err)
	}
	return nil
}

// RecentChanges returns up to limit changes, newest first.
func (s *Store) RecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(selectRecentChanges), limit)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var (
			c                  Change
			occurred, recorded int64
		)
		if err := rows.Scan(&c.ID, &c.Key, &c.Value, &c.Op, &occurred, &recorded); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c.OccurredAt = time.UnixMilli(occurred)
		c.RecordedAt = time.UnixMilli(recorded)
		out = append(out, c)
	}
	return out, rows.Err()
}
