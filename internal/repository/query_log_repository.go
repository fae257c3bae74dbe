package repository

import (
	"context"
	"database/sql"

	"github.com/notaryops/travel-permits/internal/model"
)

// QueryLogRepo appends to and reads the assistant audit log.  The table is
// append-only: entries are never updated or deleted.
type QueryLogRepo struct{ DB *sql.DB }

func NewQueryLogRepo(db *sql.DB) *QueryLogRepo { return &QueryLogRepo{DB: db} }

// Append records one question/answer pair.
func (r *QueryLogRepo) Append(ctx context.Context, userID uint64, question, answer string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO query_log (user_id, question, answer) VALUES (?,?,?)",
		userID, question, answer)
	return err
}

// Recent returns the latest n entries, newest first.
func (r *QueryLogRepo) Recent(ctx context.Context, n int) ([]model.QueryLogEntry, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, question, answer, created_at FROM query_log ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.QueryLogEntry{}
	for rows.Next() {
		var e model.QueryLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Question, &e.Answer, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
