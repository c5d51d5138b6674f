package db

import (
	"database/sql"
	"time"
)

// Job statuses.
const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

type EnrichmentJob struct {
	ID            string         `db:"id"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	Status        string         `db:"status"`
	RequestRef    string         `db:"request_ref"`
	ResultRef     sql.NullString `db:"result_ref"`
	QuestionCount int64          `db:"question_count"`
	Approved      int64          `db:"approved"`
	NeedsReview   int64          `db:"needs_review"`
	Discarded     int64          `db:"discarded"`
	Error         sql.NullString `db:"error"`
}
