package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"validation-enricher/internal/db"
	"validation-enricher/internal/schemas"
	"validation-enricher/internal/storage"
	"validation-enricher/internal/testutil"
)

func newServer(t *testing.T) (*Server, *testutil.MemJobs, *testutil.MemBlobs) {
	t.Helper()
	jobs := testutil.NewMemJobs()
	blobs := testutil.NewMemBlobs()
	return &Server{Jobs: jobs, Blobs: blobs, Log: zerolog.Nop()}, jobs, blobs
}

func queueJob(t *testing.T, jobs *testutil.MemJobs, blobs *testutil.MemBlobs, id string, req any) {
	t.Helper()
	ctx := context.Background()
	ref, err := blobs.PutJSON(ctx, storage.PrefixRequests, req)
	require.NoError(t, err)
	require.NoError(t, jobs.Create(ctx, &db.EnrichmentJob{ID: id, Status: db.JobQueued, RequestRef: ref}))
}

func TestHandleEnrich_CompletesJob(t *testing.T) {
	srv, jobs, blobs := newServer(t)
	queueJob(t, jobs, blobs, "job-1", map[string]any{
		"params": map[string]any{
			"questions": []any{map[string]any{"text": "Q1"}, map[string]any{"text": "Q2"}, map[string]any{"text": "Q3"}},
			"validation_results": []any{
				map[string]any{"valid": true, "score": 9},
				map[string]any{"valid": true, "score": 4},
			},
			"original_scores": []any{nil, 4},
		},
	})

	err := srv.handleEnrich(context.Background(), NewEnrichTask("job-1"))
	require.NoError(t, err)

	job, err := jobs.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, db.JobDone, job.Status)
	assert.Equal(t, int64(3), job.QuestionCount)
	assert.Equal(t, int64(1), job.Approved)
	assert.Equal(t, int64(1), job.NeedsReview)
	assert.Equal(t, int64(1), job.Discarded)

	var env schemas.Envelope
	require.NoError(t, blobs.GetJSON(context.Background(), job.ResultRef.String, &env))
	assert.True(t, env.Status)
	assert.Equal(t, "Enriched 3 questions with validation metadata.", env.Message)
	require.Len(t, env.Data.EnrichedQuestions, 3)
	assert.Equal(t, "discarded", env.Data.EnrichedQuestions[1]["validation-status"])
}

func TestHandleEnrich_BadRequestMarksFailed(t *testing.T) {
	srv, jobs, blobs := newServer(t)
	queueJob(t, jobs, blobs, "job-2", map[string]any{
		"params": map[string]any{"questions": []any{42}},
	})

	require.NoError(t, srv.handleEnrich(context.Background(), NewEnrichTask("job-2")))

	job, err := jobs.Get(context.Background(), "job-2")
	require.NoError(t, err)
	assert.Equal(t, db.JobFailed, job.Status)
	assert.Equal(t, "question 0: expected object, got number", job.Error.String)
}

func TestHandleEnrich_StoreFailureMarksFailed(t *testing.T) {
	srv, jobs, blobs := newServer(t)
	queueJob(t, jobs, blobs, "job-3", map[string]any{"params": map[string]any{}})
	blobs.PutErr = errors.New("bucket gone")

	require.NoError(t, srv.handleEnrich(context.Background(), NewEnrichTask("job-3")))

	job, _ := jobs.Get(context.Background(), "job-3")
	assert.Equal(t, db.JobFailed, job.Status)
	assert.Equal(t, "store result: bucket gone", job.Error.String)
}

func TestHandleEnrich_UnknownJobSkipsRetry(t *testing.T) {
	srv, _, _ := newServer(t)

	err := srv.handleEnrich(context.Background(), NewEnrichTask("missing"))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = srv.handleEnrich(context.Background(), NewEnrichTask(""))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleEnrich_DoneJobIsNotRerun(t *testing.T) {
	srv, jobs, blobs := newServer(t)
	queueJob(t, jobs, blobs, "job-4", map[string]any{"params": map[string]any{}})
	require.NoError(t, srv.handleEnrich(context.Background(), NewEnrichTask("job-4")))
	first, _ := jobs.Get(context.Background(), "job-4")

	require.NoError(t, srv.handleEnrich(context.Background(), NewEnrichTask("job-4")))

	second, _ := jobs.Get(context.Background(), "job-4")
	assert.Equal(t, first.ResultRef, second.ResultRef)
	assert.Len(t, blobs.Objects, 2)
}

func TestMux_RoutesEnrichTask(t *testing.T) {
	srv, jobs, blobs := newServer(t)
	queueJob(t, jobs, blobs, "job-5", map[string]any{})

	require.NoError(t, srv.Mux().ProcessTask(context.Background(), NewEnrichTask("job-5")))

	job, _ := jobs.Get(context.Background(), "job-5")
	assert.Equal(t, db.JobDone, job.Status)
	assert.Equal(t, int64(0), job.QuestionCount)
}
