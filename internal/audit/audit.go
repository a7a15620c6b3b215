package audit

import (
	"context"
	"time"
)

// Log is one append-only audit row. Rows are never updated; the only delete
// path is the administrative purge.
type Log struct {
	ID         int64     `json:"id" db:"id"`
	UserID     *int64    `json:"user_id,omitempty" db:"user_id"`
	APITokenID *int64    `json:"api_token_id,omitempty" db:"api_token_id"`
	Action     string    `json:"action" db:"action"`
	Details    string    `json:"details,omitempty" db:"details"`
	IP         string    `json:"ip,omitempty" db:"ip"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// Entry is what callers hand to the recorder; the timestamp is assigned
// server-side at insert.
type Entry struct {
	UserID     *int64
	APITokenID *int64
	Action     string
	Details    string
	IP         string
}

// Query carries the shared filter surface of the view and purge endpoints.
// Zero values mean "no filter". IP and Details match as substrings.
type Query struct {
	Action     string
	UserID     *int64
	APITokenID *int64
	IP         string
	Details    string
	From       *time.Time
	To         *time.Time
}

// QueryLimit bounds view responses. Purge is uncapped.
const QueryLimit = 500

type Repository interface {
	Insert(ctx context.Context, log *Log) error
	// Search returns matching rows newest-first, at most limit.
	Search(ctx context.Context, q Query, limit int) ([]Log, error)
	// Purge deletes matching rows and returns how many were removed.
	Purge(ctx context.Context, q Query) (int64, error)
}

// Recorder is the write-side interface consumed by the other services.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}
