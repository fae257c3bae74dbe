package repository

import (
	"context"
	"database/sql"
)

// IncrementCounter advances the per-year correlative counter and returns
// the freshly issued number.  The counter row is locked with
// SELECT ... FOR UPDATE for the whole read-increment-write sequence, so
// the issued numbers stay gapless and unique even when several processes
// share the database.  The row is created lazily with value 0 on the first
// issuance request for a year.
func (s *Store) IncrementCounter(ctx context.Context, year int) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, mapStorageErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var last int
	err = tx.QueryRowContext(ctx,
		`SELECT last_issued_number FROM year_counters WHERE year = ? FOR UPDATE`,
		year).Scan(&last)
	if err == sql.ErrNoRows {
		// First issuance for this year.  A concurrent creator may win the
		// insert race; in that case fall back to locking the row it made.
		if _, ierr := tx.ExecContext(ctx,
			`INSERT INTO year_counters (year, last_issued_number) VALUES (?, 0)`,
			year); ierr != nil && !isDuplicateKey(ierr) {
			return 0, mapStorageErr(ierr)
		}
		err = tx.QueryRowContext(ctx,
			`SELECT last_issued_number FROM year_counters WHERE year = ? FOR UPDATE`,
			year).Scan(&last)
	}
	if err != nil {
		return 0, mapStorageErr(err)
	}

	next := last + 1
	if _, err := tx.ExecContext(ctx,
		`UPDATE year_counters SET last_issued_number = ? WHERE year = ?`,
		next, year); err != nil {
		return 0, mapStorageErr(err)
	}
	if err := tx.Commit(); err != nil {
		return 0, mapStorageErr(err)
	}
	committed = true
	return next, nil
}
