package model

import "time"

// QueryLogEntry is one row of the append-only assistant audit log.  Every
// free-text question routed through the query assistant is recorded
// together with the answer that was returned.
type QueryLogEntry struct {
	ID        uint64    // query_log.id
	UserID    uint64    // query_log.user_id
	Question  string    // query_log.question
	Answer    string    // query_log.answer
	CreatedAt time.Time // query_log.created_at
}
