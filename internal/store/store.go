// Package store persists registry snapshots into a sqlite database, so
// task handles survive between CLI invocations. The remote server stays
// authoritative: a rehydrated handle is only as live as the next
// reconciliation says.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

// Row is one persisted task handle.
type Row struct {
	Endpoint string
	TaskID   string
	Target   string
}

func InitDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS tasks (
			endpoint TEXT NOT NULL,
			task_id TEXT NOT NULL,
			target_url TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (endpoint, task_id)
		)`,
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Save replaces the persisted snapshot with rows. The whole swap runs
// in one transaction, a failed save leaves the previous snapshot.
func Save(ctx context.Context, db *sql.DB, rows []Row) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(ctx context.Context) {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.ErrorContext(ctx, "Calling `tx.Rollback()` failed.")
		}
	}(ctx)

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("executing sql delete failed: %w", err)
	}
	for _, row := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (endpoint, task_id, target_url) VALUES (?,?,?);`,
			row.Endpoint, row.TaskID, row.Target,
		)
		if err != nil {
			return fmt.Errorf("executing sql insert failed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction failed: %w", err)
	}
	return nil
}

// Load returns every persisted task handle.
func Load(ctx context.Context, db *sql.DB) ([]Row, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT endpoint, task_id, target_url FROM tasks ORDER BY endpoint, task_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("executing sql query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.Endpoint, &row.TaskID, &row.Target); err != nil {
			return nil, fmt.Errorf("scanning sql row failed: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sql rows failed: %w", err)
	}
	return out, nil
}

// Delete removes one persisted handle,
// ErrNotFound when no such (endpoint, task_id) row exists.
func Delete(ctx context.Context, db *sql.DB, endpoint, taskID string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM tasks WHERE endpoint=? AND task_id=?`, endpoint, taskID,
	)
	if err != nil {
		return fmt.Errorf("executing sql delete failed: %w", err)
	}

	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("fetching affected rows failed: %w", err)
	}
	if ra != 1 {
		return ErrNotFound
	}
	return nil
}
