package history

import "time"

// Run records one balance or generate invocation.
type Run struct {
	ID           string         `json:"id"`
	Command      string         `json:"command"`
	Technique    string         `json:"technique,omitempty"`
	Diversity    string         `json:"diversity,omitempty"`
	Input        string         `json:"input"`
	Output       string         `json:"output,omitempty"`
	TargetColumn string         `json:"target_column"`
	Minority     string         `json:"minority,omitempty"`
	Majority     string         `json:"majority,omitempty"`
	Ratio        float64        `json:"ratio,omitempty"`
	Before       map[string]int `json:"before,omitempty"`
	After        map[string]int `json:"after,omitempty"`
	Requested    int            `json:"synthetic_requested"`
	Generated    int            `json:"synthetic_generated"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Shortfall is how many requested synthetic records were not produced.
func (r *Run) Shortfall() int {
	if n := r.Requested - r.Generated; n > 0 {
		return n
	}
	return 0
}
