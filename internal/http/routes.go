package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"validation-enricher/internal/db"
	"validation-enricher/internal/enrich"
	applog "validation-enricher/internal/log"
	"validation-enricher/internal/schemas"
	"validation-enricher/internal/storage"
	"validation-enricher/internal/worker"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 16 << 20

type JobStore interface {
	Create(ctx context.Context, job *db.EnrichmentJob) error
	Get(ctx context.Context, id string) (*db.EnrichmentJob, error)
}

type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	Jobs     JobStore
	Blobs    worker.BlobStore
	Queue    Enqueuer
	DB       Pinger
	APIToken string
	Log      zerolog.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, applog.Requests(s.Log), m.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(RequireAPIToken(s.APIToken))
		r.Post("/enrich", s.invoke)
		r.Post("/enrichments", s.submit)
		r.Get("/enrichments/{id}", s.getJob)
	})

	r.Get("/healthz", s.healthz)
	return r
}

func NewServer(addr string, s *Server) *http.Server {
	return &http.Server{Addr: addr, Handler: s.Routes()}
}

type errResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (schemas.EnrichRequest, bool) {
	req, err := schemas.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return schemas.EnrichRequest{}, false
	}
	return req, true
}

// invoke enriches synchronously and answers with the envelope.
func (s *Server) invoke(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	env, err := schemas.Run(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// submit stores the request and queues it for the worker.
func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if _, _, _, err := req.Inputs(); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}

	ctx := r.Context()
	ref, err := s.Blobs.PutJSON(ctx, storage.PrefixRequests, req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	job := &db.EnrichmentJob{
		ID:            uuid.NewString(),
		Status:        db.JobQueued,
		RequestRef:    ref,
		QuestionCount: int64(len(req.Params.Questions)),
	}
	if err := s.Jobs.Create(ctx, job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	if _, err := s.Queue.EnqueueContext(ctx, worker.NewEnrichTask(job.ID), asynq.MaxRetry(0)); err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	s.Log.Info().Str("job_id", job.ID).Int64("questions", job.QuestionCount).Msg("enrichment queued")
	writeJSON(w, http.StatusAccepted, schemas.SubmitResponse{JobID: job.ID, Status: job.Status})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.Jobs.Get(r.Context(), id)
	if errors.Is(err, db.ErrJobNotFound) {
		writeJSON(w, http.StatusNotFound, errResp{"not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}

	out := schemas.JobOut{
		JobID:     job.ID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
		Error:     job.Error.String,
	}
	if job.Status == db.JobDone {
		out.Summary = &enrich.Summary{
			Total:       int(job.QuestionCount),
			Approved:    int(job.Approved),
			NeedsReview: int(job.NeedsReview),
			Discarded:   int(job.Discarded),
		}
		if job.ResultRef.Valid {
			var env schemas.Envelope
			if err := s.Blobs.GetJSON(r.Context(), job.ResultRef.String, &env); err != nil {
				writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
				return
			}
			out.Result = &env
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "db error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
