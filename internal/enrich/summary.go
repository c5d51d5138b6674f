package enrich

// Summary counts enriched questions per status.
type Summary struct {
	Total       int `json:"total"`
	Approved    int `json:"approved"`
	NeedsReview int `json:"needs_review"`
	Discarded   int `json:"discarded"`
}

func Summarize(enriched []Question) Summary {
	s := Summary{Total: len(enriched)}
	for _, q := range enriched {
		switch StatusOf(q) {
		case StatusApproved:
			s.Approved++
		case StatusNeedsReview:
			s.NeedsReview++
		case StatusDiscarded:
			s.Discarded++
		}
	}
	return s
}

// StatusOf reads the validation status back from an enriched question.
func StatusOf(q Question) Status {
	switch v := q[KeyStatus].(type) {
	case Status:
		return v
	case string:
		return Status(v)
	}
	return ""
}
