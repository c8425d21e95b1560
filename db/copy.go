// ABOUTME: Whole-store copy between databases, e.g. moving a local SQLite book to MySQL
// ABOUTME: Copies rows table by table inside one destination transaction
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Tables lists every table in copy order.
var Tables = []string{"integrations", "appointments", "notifications", "sync_state"}

// CountRows returns the row count of every table.
func (s *Store) CountRows(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// CopyTo copies every row into dst. dst must be empty unless replace is set,
// in which case its rows are deleted first. Nothing is written if any table fails.
func (s *Store) CopyTo(ctx context.Context, dst *Store, replace bool) (map[string]int, error) {
	if !replace {
		existing, err := dst.CountRows(ctx)
		if err != nil {
			return nil, err
		}
		for _, table := range Tables {
			if existing[table] > 0 {
				return nil, fmt.Errorf("destination table %s already has %d rows", table, existing[table])
			}
		}
	}

	tx, err := dst.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	copied := make(map[string]int, len(Tables))
	for _, table := range Tables {
		if replace {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return nil, fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		n, err := s.copyTable(ctx, tx, table)
		if err != nil {
			return nil, err
		}
		copied[table] = n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit copy: %w", err)
	}
	return copied, nil
}

func (s *Store) copyTable(ctx context.Context, tx *sql.Tx, table string) (int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders)

	n := 0
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return n, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, insert, vals...); err != nil {
			return n, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		n++
	}
	return n, rows.Err()
}
