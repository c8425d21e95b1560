// ABOUTME: Database operations for the sync_state table
// ABOUTME: Records per-service sync status and last error for pull, push, and import cycles
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harperreed/shadecal/models"
)

// GetSyncState retrieves the sync state for a service, or nil if it never ran.
func (s *Store) GetSyncState(ctx context.Context, service string) (*models.SyncState, error) {
	var state models.SyncState
	var lastSyncTime sql.NullTime
	var status sql.NullString
	var errorMessage sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT service, last_sync_time, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE service = ?
	`, service).Scan(
		&state.Service,
		&lastSyncTime,
		&status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	state.Status = status.String
	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}

	return &state, nil
}

// UpdateSyncStatus updates the sync status for a service. A successful
// transition to idle also stamps last_sync_time.
func (s *Store) UpdateSyncStatus(ctx context.Context, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, s.upsertSyncStateSQL(), service, status, errorMsgVal, status)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

func (s *Store) upsertSyncStateSQL() string {
	if s.dialect == DialectMySQL {
		return `
		INSERT INTO sync_state (service, status, error_message, last_sync_time, created_at, updated_at)
		VALUES (?, ?, ?, CASE WHEN ? = 'idle' THEN CURRENT_TIMESTAMP ELSE NULL END, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			error_message = VALUES(error_message),
			last_sync_time = COALESCE(VALUES(last_sync_time), last_sync_time),
			updated_at = CURRENT_TIMESTAMP
	`
	}
	return `
		INSERT INTO sync_state (service, status, error_message, last_sync_time, created_at, updated_at)
		VALUES (?, ?, ?, CASE WHEN ? = 'idle' THEN CURRENT_TIMESTAMP ELSE NULL END, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			last_sync_time = COALESCE(excluded.last_sync_time, sync_state.last_sync_time),
			updated_at = CURRENT_TIMESTAMP
	`
}

// GetAllSyncStates retrieves the sync state for all services.
func (s *Store) GetAllSyncStates(ctx context.Context) ([]models.SyncState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT service, last_sync_time, status, error_message, created_at, updated_at
		FROM sync_state
		ORDER BY service
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []models.SyncState
	for rows.Next() {
		var state models.SyncState
		var lastSyncTime sql.NullTime
		var status sql.NullString
		var errorMessage sql.NullString

		err := rows.Scan(
			&state.Service,
			&lastSyncTime,
			&status,
			&errorMessage,
			&state.CreatedAt,
			&state.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}

		state.Status = status.String
		if lastSyncTime.Valid {
			state.LastSyncTime = &lastSyncTime.Time
		}
		if errorMessage.Valid {
			state.ErrorMessage = &errorMessage.String
		}

		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync states: %w", err)
	}

	return states, nil
}
