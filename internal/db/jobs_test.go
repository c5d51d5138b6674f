package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"validation-enricher/internal/enrich"
	"validation-enricher/internal/migrations"
)

// openTestDB connects to TEST_DATABASE_URL, skipping when it is unset.
func openTestDB(t *testing.T) *Jobs {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, migrations.Run(dsn))

	db, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewJobs(db)
}

func TestJobs_Lifecycle(t *testing.T) {
	jobs := openTestDB(t)
	ctx := context.Background()

	job := &EnrichmentJob{
		ID:            uuid.NewString(),
		Status:        JobQueued,
		RequestRef:    "s3://bucket/requests/x.json",
		QuestionCount: 3,
	}
	require.NoError(t, jobs.Create(ctx, job))
	assert.False(t, job.CreatedAt.IsZero())

	require.NoError(t, jobs.MarkRunning(ctx, job.ID))
	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobRunning, got.Status)

	summary := enrich.Summary{Total: 3, Approved: 1, NeedsReview: 1, Discarded: 1}
	require.NoError(t, jobs.Complete(ctx, job.ID, "s3://bucket/results/x.json", summary))

	got, err = jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobDone, got.Status)
	assert.Equal(t, "s3://bucket/results/x.json", got.ResultRef.String)
	assert.Equal(t, int64(1), got.Discarded)
	assert.False(t, got.Error.Valid)

	assert.ErrorIs(t, jobs.MarkRunning(ctx, job.ID), ErrJobNotFound)
}

func TestJobs_Fail(t *testing.T) {
	jobs := openTestDB(t)
	ctx := context.Background()

	job := &EnrichmentJob{ID: uuid.NewString(), Status: JobQueued, RequestRef: "s3://b/k"}
	require.NoError(t, jobs.Create(ctx, job))
	require.NoError(t, jobs.Fail(ctx, job.ID, "boom"))

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobFailed, got.Status)
	assert.Equal(t, "boom", got.Error.String)
}

func TestJobs_GetUnknown(t *testing.T) {
	jobs := openTestDB(t)

	_, err := jobs.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrJobNotFound)
}
