package enrich

// ValidationResult is the upstream validator's verdict for one question.
// The zero value is the default used when no verdict exists.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

func (v ValidationResult) issues() []string {
	if v.Issues == nil {
		return []string{}
	}
	return v.Issues
}

// Score returns a pointer to s, for building original score lists.
func Score(s float64) *float64 { return &s }
