package materialize

import (
	"errors"
	"fmt"
)

// Failure stages.
const (
	StageCreate  = "create"
	StageLink    = "link"
	StageLabel   = "label"
	StageChild   = "child"
	StageComment = "comment"
)

// Result is one issue that was created.
type Result struct {
	ItemID    string `json:"item_id,omitempty"`
	Key       string `json:"key"`
	Kind      string `json:"kind"`
	Summary   string `json:"summary"`
	ParentKey string `json:"parent_key,omitempty"`
}

// Failure is one tracker write that did not go through. Key is set when the
// issue itself exists and only a follow-up step failed.
type Failure struct {
	ItemID  string `json:"item_id,omitempty"`
	Summary string `json:"summary"`
	Stage   string `json:"stage"`
	Key     string `json:"key,omitempty"`
	Err     error  `json:"-"`
	Message string `json:"error"`
}

func (f Failure) Error() string {
	who := f.Summary
	if f.Key != "" {
		who = f.Key + " (" + f.Summary + ")"
	}
	return fmt.Sprintf("%s %s: %v", f.Stage, who, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report is the outcome of one batch.
type Report struct {
	SourceKey string    `json:"source_key"`
	Results   []Result  `json:"created"`
	Failures  []Failure `json:"failures,omitempty"`
	// KeyByID maps item ids from the output to the keys created for them.
	KeyByID map[string]string `json:"key_by_id,omitempty"`
	// Skipped is set when the output held nothing to write.
	Skipped bool `json:"skipped,omitempty"`
}

// Created returns how many issues were created, children included.
func (r *Report) Created() int { return len(r.Results) }

// Failed returns how many writes failed.
func (r *Report) Failed() int { return len(r.Failures) }

// Err joins every failure, or returns nil for a clean batch.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

func (r *Report) created(res Result) {
	r.Results = append(r.Results, res)
}

func (r *Report) failed(f Failure) {
	if f.Err != nil {
		f.Message = f.Err.Error()
	}
	r.Failures = append(r.Failures, f)
}
