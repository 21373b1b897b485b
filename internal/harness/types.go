package harness

import "github.com/roach88/marqant/internal/format"

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Document is the encoded output.
	Document []byte `json:"document"`

	// Decoded is the result of decoding Document, nil if decoding failed.
	Decoded []byte `json:"decoded,omitempty"`

	// Metadata is read from Document. Unset for demo scenarios.
	Metadata format.Metadata `json:"metadata"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
