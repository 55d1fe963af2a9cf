package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// WithSavepoint runs fn inside a savepoint on the given transaction.  When
// fn fails the transaction is rolled back to the savepoint and fn's error is
// returned for logging, leaving the surrounding transaction intact.  This is
// how best-effort side writes (notifications) are isolated from the primary
// transition: their failure must never abort a booking.
func WithSavepoint(ctx context.Context, tx *sql.Tx, name string, fn func() error) error {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("savepoint %s: %w", name, err)
	}
	if err := fn(); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("rollback to savepoint %s after %v: %w", name, err, rbErr)
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint %s: %w", name, err)
	}
	return nil
}
