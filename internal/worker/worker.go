package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"validation-enricher/internal/db"
	"validation-enricher/internal/enrich"
	"validation-enricher/internal/schemas"
	"validation-enricher/internal/storage"
)

// TypeEnrich is the asynq task type; its payload is the job id.
const TypeEnrich = "enrich_validation_metadata"

func NewEnrichTask(jobID string) *asynq.Task {
	return asynq.NewTask(TypeEnrich, []byte(jobID))
}

type JobStore interface {
	Get(ctx context.Context, id string) (*db.EnrichmentJob, error)
	MarkRunning(ctx context.Context, id string) error
	Complete(ctx context.Context, id, resultRef string, s enrich.Summary) error
	Fail(ctx context.Context, id, msg string) error
}

type BlobStore interface {
	PutJSON(ctx context.Context, prefix string, v any) (string, error)
	GetJSON(ctx context.Context, ref string, out any) error
}

type Server struct {
	Jobs  JobStore
	Blobs BlobStore
	Log   zerolog.Logger
}

func (s *Server) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEnrich, s.handleEnrich)
	return mux
}

func (s *Server) handleEnrich(ctx context.Context, t *asynq.Task) error {
	id := string(t.Payload())
	if id == "" {
		return fmt.Errorf("empty job id: %w", asynq.SkipRetry)
	}
	log := s.Log.With().Str("job_id", id).Logger()
	log.Info().Msg("starting enrichment")

	job, err := s.Jobs.Get(ctx, id)
	if errors.Is(err, db.ErrJobNotFound) {
		return fmt.Errorf("job %s: %w", id, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}
	if job.Status == db.JobDone {
		log.Info().Msg("job already done, skipping")
		return nil
	}
	if err := s.Jobs.MarkRunning(ctx, id); err != nil {
		return err
	}

	var req schemas.EnrichRequest
	if err := s.Blobs.GetJSON(ctx, job.RequestRef, &req); err != nil {
		return s.fail(ctx, log, id, fmt.Errorf("load request: %w", err))
	}
	env, err := schemas.Run(req)
	if err != nil {
		return s.fail(ctx, log, id, err)
	}
	ref, err := s.Blobs.PutJSON(ctx, storage.PrefixResults, env)
	if err != nil {
		return s.fail(ctx, log, id, fmt.Errorf("store result: %w", err))
	}

	summary := enrich.Summarize(env.Data.EnrichedQuestions)
	if err := s.Jobs.Complete(ctx, id, ref, summary); err != nil {
		return err
	}
	log.Info().
		Int("total", summary.Total).
		Int("approved", summary.Approved).
		Int("needs_review", summary.NeedsReview).
		Int("discarded", summary.Discarded).
		Str("result_ref", ref).
		Msg(env.Message)
	return nil
}

// fail records err on the job and reports the task as handled so asynq
// does not retry it.
func (s *Server) fail(ctx context.Context, log zerolog.Logger, id string, err error) error {
	log.Error().Err(err).Msg("enrichment failed")
	if ferr := s.Jobs.Fail(ctx, id, err.Error()); ferr != nil {
		return ferr
	}
	return nil
}

type Options struct {
	RedisAddr   string
	Concurrency int
}

func Run(opts Options, srv *Server) error {
	as := asynq.NewServer(asynq.RedisClientOpt{Addr: opts.RedisAddr}, asynq.Config{
		Concurrency: opts.Concurrency,
		Logger:      asynqLogger{srv.Log.With().Str("component", "asynq").Logger()},
	})
	return as.Run(srv.Mux())
}
