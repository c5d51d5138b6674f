package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"validation-enricher/internal/db"
	"validation-enricher/internal/schemas"
	"validation-enricher/internal/testutil"
	"validation-enricher/internal/worker"
)

const token = "dev-secret-token"

type fixture struct {
	handler http.Handler
	jobs    *testutil.MemJobs
	blobs   *testutil.MemBlobs
	queue   *testutil.Queue
	srv     *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		jobs:  testutil.NewMemJobs(),
		blobs: testutil.NewMemBlobs(),
		queue: &testutil.Queue{},
	}
	f.srv = &Server{
		Jobs:     f.jobs,
		Blobs:    f.blobs,
		Queue:    f.queue,
		DB:       testutil.Pinger{},
		APIToken: token,
		Log:      zerolog.Nop(),
	}
	f.handler = f.srv.Routes()
	return f
}

func (f *fixture) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

const exampleBody = `{"params": {
  "questions": [{"text": "Q1"}, {"text": "Q2"}],
  "validation_results": [
    {"valid": true, "score": 10, "issues": []},
    {"valid": false, "score": 3, "issues": ["too vague"]}
  ],
  "original_scores": []
}}`

func TestInvoke_EndToEnd(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/enrich", exampleBody, token)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
	  "status": true,
	  "message": "Enriched 2 questions with validation metadata.",
	  "data": {"enriched_questions": [
	    {"text": "Q1", "validation-status": "approved", "validation-score": 10, "validation-issues": []},
	    {"text": "Q2", "validation-status": "needs_review", "validation-score": 3, "validation-issues": ["too vague"]}
	  ]}
	}`, rec.Body.String())
}

func TestInvoke_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		bearer   string
		wantCode int
		wantErr  string
	}{
		{name: "missing token", body: exampleBody, wantCode: http.StatusUnauthorized, wantErr: "unauthorized"},
		{name: "wrong token", body: exampleBody, bearer: "nope", wantCode: http.StatusUnauthorized, wantErr: "unauthorized"},
		{name: "bad json", body: `{"params":`, bearer: token, wantCode: http.StatusBadRequest},
		{name: "non-object question", body: `{"params":{"questions":[[1]]}}`, bearer: token, wantCode: http.StatusBadRequest, wantErr: "question 0: expected object, got array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newFixture(t).do(http.MethodPost, "/enrich", tt.body, tt.bearer)
			assert.Equal(t, tt.wantCode, rec.Code)
			var e errResp
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, e.Error)
			} else {
				assert.NotEmpty(t, e.Error)
			}
		})
	}
}

func TestInvoke_EmptyBody(t *testing.T) {
	rec := newFixture(t).do(http.MethodPost, "/enrich", "", token)

	require.Equal(t, http.StatusOK, rec.Code)
	var env schemas.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Enriched 0 questions with validation metadata.", env.Message)
	assert.Empty(t, env.Data.EnrichedQuestions)
}

func TestSubmitAndGetJob(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/enrichments", exampleBody, token)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var sub schemas.SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, db.JobQueued, sub.Status)
	require.Len(t, f.queue.Tasks, 1)
	assert.Equal(t, worker.TypeEnrich, f.queue.Tasks[0].Type())
	assert.Equal(t, sub.JobID, string(f.queue.Tasks[0].Payload()))

	rec = f.do(http.MethodGet, "/enrichments/"+sub.JobID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var queued schemas.JobOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queued))
	assert.Equal(t, db.JobQueued, queued.Status)
	assert.Nil(t, queued.Result)

	w := &worker.Server{Jobs: f.jobs, Blobs: f.blobs, Log: zerolog.Nop()}
	require.NoError(t, w.Mux().ProcessTask(context.Background(), f.queue.Tasks[0]))

	rec = f.do(http.MethodGet, "/enrichments/"+sub.JobID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var done schemas.JobOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &done))
	assert.Equal(t, db.JobDone, done.Status)
	require.NotNil(t, done.Summary)
	assert.Equal(t, 2, done.Summary.Total)
	assert.Equal(t, 1, done.Summary.Approved)
	assert.Equal(t, 1, done.Summary.NeedsReview)
	require.NotNil(t, done.Result)
	assert.Equal(t, "Enriched 2 questions with validation metadata.", done.Result.Message)
}

func TestSubmit_RejectsNonObjectQuestion(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/enrichments", `{"params":{"questions":["x"]}}`, token)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.queue.Tasks)
	assert.Empty(t, f.jobs.Jobs)
}

func TestSubmit_QueueFailure(t *testing.T) {
	f := newFixture(t)
	f.queue.Err = errors.New("redis down")

	rec := f.do(http.MethodPost, "/enrichments", exampleBody, token)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis down")
}

func TestGetJob_NotFound(t *testing.T) {
	rec := newFixture(t).do(http.MethodGet, "/enrichments/unknown", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	f.srv.DB = testutil.Pinger{Err: testutil.ErrUnavailable}
	rec = f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
