// Package testutil holds in-memory stand-ins for the job store, blob store
// and task queue.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"validation-enricher/internal/db"
	"validation-enricher/internal/enrich"
	"validation-enricher/internal/storage"
)

type MemJobs struct {
	mu   sync.Mutex
	Jobs map[string]*db.EnrichmentJob
}

func NewMemJobs() *MemJobs {
	return &MemJobs{Jobs: map[string]*db.EnrichmentJob{}}
}

func (m *MemJobs) Create(_ context.Context, job *db.EnrichmentJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Jobs[job.ID]; ok {
		return fmt.Errorf("duplicate job %s", job.ID)
	}
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	cp := *job
	m.Jobs[job.ID] = &cp
	return nil
}

func (m *MemJobs) Get(_ context.Context, id string) (*db.EnrichmentJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.Jobs[id]
	if !ok {
		return nil, db.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *MemJobs) MarkRunning(_ context.Context, id string) error {
	return m.update(id, func(j *db.EnrichmentJob) error {
		if j.Status == db.JobDone {
			return db.ErrJobNotFound
		}
		j.Status = db.JobRunning
		j.Error.Valid = false
		return nil
	})
}

func (m *MemJobs) Complete(_ context.Context, id, resultRef string, s enrich.Summary) error {
	return m.update(id, func(j *db.EnrichmentJob) error {
		j.Status = db.JobDone
		j.ResultRef.String, j.ResultRef.Valid = resultRef, true
		j.QuestionCount = int64(s.Total)
		j.Approved = int64(s.Approved)
		j.NeedsReview = int64(s.NeedsReview)
		j.Discarded = int64(s.Discarded)
		j.Error.Valid = false
		return nil
	})
}

func (m *MemJobs) Fail(_ context.Context, id, msg string) error {
	return m.update(id, func(j *db.EnrichmentJob) error {
		j.Status = db.JobFailed
		j.Error.String, j.Error.Valid = msg, true
		return nil
	})
}

func (m *MemJobs) update(id string, fn func(*db.EnrichmentJob) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.Jobs[id]
	if !ok {
		return db.ErrJobNotFound
	}
	if err := fn(job); err != nil {
		return err
	}
	job.UpdatedAt = time.Now().UTC()
	return nil
}

// MemBlobs keeps marshalled documents keyed by their s3:// ref.
type MemBlobs struct {
	mu      sync.Mutex
	Bucket  string
	Objects map[string][]byte
	PutErr  error
	seq     int
}

func NewMemBlobs() *MemBlobs {
	return &MemBlobs{Bucket: "test", Objects: map[string][]byte{}}
}

func (m *MemBlobs) PutJSON(_ context.Context, prefix string, v any) (string, error) {
	if m.PutErr != nil {
		return "", m.PutErr
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ref := storage.Ref(m.Bucket, fmt.Sprintf("%s/%d.json", prefix, m.seq))
	m.Objects[ref] = b
	return ref, nil
}

func (m *MemBlobs) GetJSON(_ context.Context, ref string, out any) error {
	m.mu.Lock()
	b, ok := m.Objects[ref]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no object at %s", ref)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(out)
}

// Queue records enqueued tasks instead of sending them to redis.
type Queue struct {
	mu    sync.Mutex
	Tasks []*asynq.Task
	Err   error
}

func (q *Queue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.Err != nil {
		return nil, q.Err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Tasks = append(q.Tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(q.Tasks)), Type: task.Type(), Payload: task.Payload()}, nil
}

// Pinger reports Err on every ping.
type Pinger struct{ Err error }

func (p Pinger) PingContext(context.Context) error { return p.Err }

var ErrUnavailable = errors.New("unavailable")
