package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"validation-enricher/internal/enrich"
)

var ErrJobNotFound = errors.New("enrichment job not found")

// Jobs persists enrichment jobs in the enrichment_jobs table.
type Jobs struct {
	DB *sqlx.DB
}

func NewJobs(db *sqlx.DB) *Jobs { return &Jobs{DB: db} }

func (j *Jobs) Create(ctx context.Context, job *EnrichmentJob) error {
	return WithTx(ctx, j.DB, func(tx *sqlx.Tx) error {
		rows, err := tx.NamedQuery(
			`insert into enrichment_jobs(id, status, request_ref, question_count)
			 values(:id, :status, :request_ref, :question_count)
			 returning created_at, updated_at`, job)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		defer rows.Close()
		if rows.Next() {
			if err := rows.Scan(&job.CreatedAt, &job.UpdatedAt); err != nil {
				return err
			}
		}
		return rows.Err()
	})
}

func (j *Jobs) Get(ctx context.Context, id string) (*EnrichmentJob, error) {
	var job EnrichmentJob
	err := j.DB.GetContext(ctx, &job, `select * from enrichment_jobs where id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return &job, nil
}

// MarkRunning moves any job that is not done to running. A done job is
// left alone and reported as ErrJobNotFound.
func (j *Jobs) MarkRunning(ctx context.Context, id string) error {
	res, err := j.DB.ExecContext(ctx,
		`update enrichment_jobs set status='running', error=null, updated_at=now()
		 where id=$1 and status in ('queued', 'failed', 'running')`, id)
	if err != nil {
		return fmt.Errorf("mark job %s running: %w", id, err)
	}
	return expectOne(res)
}

func (j *Jobs) Complete(ctx context.Context, id, resultRef string, s enrich.Summary) error {
	res, err := j.DB.ExecContext(ctx,
		`update enrichment_jobs set status='done', result_ref=$2, question_count=$3,
		   approved=$4, needs_review=$5, discarded=$6, error=null, updated_at=now()
		 where id=$1`,
		id, resultRef, s.Total, s.Approved, s.NeedsReview, s.Discarded)
	if err != nil {
		return fmt.Errorf("complete job %s: %w", id, err)
	}
	return expectOne(res)
}

func (j *Jobs) Fail(ctx context.Context, id, msg string) error {
	_, err := j.DB.ExecContext(ctx,
		`update enrichment_jobs set status='failed', error=$2, updated_at=now() where id=$1`, id, msg)
	if err != nil {
		return fmt.Errorf("fail job %s: %w", id, err)
	}
	return nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}
