// Package enrich annotates generated questions with validation metadata.
package enrich

// Status is the classification assigned to an enriched question.
type Status string

const (
	StatusApproved    Status = "approved"
	StatusNeedsReview Status = "needs_review"
	StatusDiscarded   Status = "discarded"
)

// Enrich joins questions with results and original scores by position and
// returns one enriched question per input question, in order.
//
// results and original may be shorter or longer than questions. A missing
// result behaves like ValidationResult{}; a missing or nil original score
// means the question is not from a regeneration pass.
func Enrich(questions []Question, results []ValidationResult, original []*float64) []Question {
	out := make([]Question, 0, len(questions))
	for i, q := range questions {
		validation, _ := at(results, i)

		var old *float64
		if s, ok := at(original, i); ok {
			old = s
		}

		status := Classify(old, validation.Score, validation.Valid)
		out = append(out, q.Merge(map[string]any{
			KeyStatus: string(status),
			KeyScore:  validation.Score,
			KeyIssues: validation.issues(),
		}))
	}
	return out
}

// Classify decides the status of one question. A regenerated question
// (old != nil) that did not strictly beat its old score is discarded,
// whatever its validity.
func Classify(old *float64, score float64, valid bool) Status {
	if old != nil && score <= *old {
		return StatusDiscarded
	}
	if valid {
		return StatusApproved
	}
	return StatusNeedsReview
}

// at returns s[i] and true when i indexes s, the zero value and false otherwise.
func at[T any](s []T, i int) (T, bool) {
	if i < 0 || i >= len(s) {
		var zero T
		return zero, false
	}
	return s[i], true
}
