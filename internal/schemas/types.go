package schemas

import (
	"fmt"
	"time"

	"validation-enricher/internal/enrich"
)

// EnrichParams mirrors the "params" object of an invoke request. Entries are
// kept loosely typed so that malformed validation results and scores can be
// coerced to their defaults instead of failing the whole request.
type EnrichParams struct {
	Questions         []any `json:"questions" yaml:"questions"`
	ValidationResults List  `json:"validation_results" yaml:"validation_results"`
	OriginalScores    List  `json:"original_scores" yaml:"original_scores"`
}

type EnrichRequest struct {
	Params EnrichParams `json:"params" yaml:"params"`
}

// Inputs converts the request into the typed inputs of enrich.Enrich.
// It fails only when a question entry is not an object.
func (r EnrichRequest) Inputs() ([]enrich.Question, []enrich.ValidationResult, []*float64, error) {
	questions := make([]enrich.Question, 0, len(r.Params.Questions))
	for i, q := range r.Params.Questions {
		m, ok := asMap(q)
		if !ok {
			return nil, nil, nil, fmt.Errorf("question %d: expected object, got %s", i, typeName(q))
		}
		questions = append(questions, enrich.Question(normalizeMap(m)))
	}

	results := make([]enrich.ValidationResult, 0, len(r.Params.ValidationResults))
	for _, v := range r.Params.ValidationResults {
		results = append(results, ValidationResultFrom(v))
	}

	scores := make([]*float64, 0, len(r.Params.OriginalScores))
	for _, s := range r.Params.OriginalScores {
		if f, ok := toFloat(s); ok {
			scores = append(scores, enrich.Score(f))
		} else {
			scores = append(scores, nil)
		}
	}
	return questions, results, scores, nil
}

type EnrichData struct {
	EnrichedQuestions []enrich.Question `json:"enriched_questions" yaml:"enriched_questions"`
}

// Envelope is the response of an enrichment invocation. It has no failure
// variant: Status is always true.
type Envelope struct {
	Status  bool       `json:"status" yaml:"status"`
	Message string     `json:"message" yaml:"message"`
	Data    EnrichData `json:"data" yaml:"data"`
}

func NewEnvelope(enriched []enrich.Question) Envelope {
	if enriched == nil {
		enriched = []enrich.Question{}
	}
	return Envelope{
		Status:  true,
		Message: fmt.Sprintf("Enriched %d questions with validation metadata.", len(enriched)),
		Data:    EnrichData{EnrichedQuestions: enriched},
	}
}

// Run decodes the inputs, enriches them and wraps the result.
func Run(req EnrichRequest) (Envelope, error) {
	questions, results, scores, err := req.Inputs()
	if err != nil {
		return Envelope{}, err
	}
	return NewEnvelope(enrich.Enrich(questions, results, scores)), nil
}

type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type JobOut struct {
	JobID     string          `json:"job_id"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Summary   *enrich.Summary `json:"summary,omitempty"`
	Error     string          `json:"error,omitempty"`
	Result    *Envelope       `json:"result,omitempty"`
}
