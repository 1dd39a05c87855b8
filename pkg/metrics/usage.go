package metrics

// RunStats captures what a single summarization run processed.
type RunStats struct {
	Sentences         int    `json:"sentences"`
	SignificantLemmas int    `json:"significantLemmas"`
	Edges             int    `json:"edges"`
	Iterations        int    `json:"iterations"`
	Selected          int    `json:"selected"`
	Budget            int    `json:"budget"`
	BudgetUsed        int    `json:"budgetUsed"`
	LengthUnit        string `json:"lengthUnit,omitempty"`
	Degraded          bool   `json:"degraded,omitempty"`
}

// IsZero reports whether nothing was processed.
func (s RunStats) IsZero() bool {
	return s.Sentences == 0 && s.Selected == 0 && s.BudgetUsed == 0
}
