package enrich

import "maps"

// Keys merged into every enriched question.
const (
	KeyStatus = "validation-status"
	KeyScore  = "validation-score"
	KeyIssues = "validation-issues"
)

// Question is an open-ended generated question record. Only the validation
// keys above are ever written by this package.
type Question map[string]any

// Merge returns a copy of q with every key of extra set on it. Keys already
// present in q are overwritten. q itself is left untouched.
func (q Question) Merge(extra map[string]any) Question {
	out := make(Question, len(q)+len(extra))
	maps.Copy(out, q)
	maps.Copy(out, extra)
	return out
}
