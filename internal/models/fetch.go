package models

import (
	"fmt"
	"net/http"
	"time"
)

// FetchRequest is everything needed to fetch one include.
type FetchRequest struct {
	Spec        IncludeSpec
	URL         string
	Destination string // absolute
	Headers     http.Header
}

// FetchFailure describes why an item did not reach disk.
type FetchFailure struct {
	Cause      ErrorKind `json:"cause"`
	Detail     string    `json:"detail"`
	StatusCode int       `json:"status_code,omitempty"`
}

func (f *FetchFailure) Error() string {
	return fmt.Sprintf("%s: %s", f.Cause, f.Detail)
}

// FetchOutcome is the result of fetching one include. Failure is nil on success,
// in which case Destination holds the fully written file.
type FetchOutcome struct {
	Destination string        `json:"destination,omitempty"`
	Failure     *FetchFailure `json:"failure,omitempty"`
	Attempts    int           `json:"attempts"`
	Bytes       int64         `json:"bytes"`
	DurationSec float64       `json:"duration_sec"`
}

// Succeeded reports whether the item was fully written.
func (o FetchOutcome) Succeeded() bool {
	return o.Failure == nil
}

// Success builds a successful outcome.
func Success(destination string, bytes int64) FetchOutcome {
	return FetchOutcome{Destination: destination, Bytes: bytes}
}

// Failure builds a failed outcome.
func Failure(cause ErrorKind, format string, args ...any) FetchOutcome {
	return FetchOutcome{Failure: &FetchFailure{Cause: cause, Detail: fmt.Sprintf(format, args...)}}
}

// StatusFailure builds an ErrHTTPStatus outcome for the given response status.
func StatusFailure(code int, url string) FetchOutcome {
	return FetchOutcome{Failure: &FetchFailure{
		Cause:      ErrHTTPStatus,
		Detail:     fmt.Sprintf("%d %s: %s", code, http.StatusText(code), url),
		StatusCode: code,
	}}
}

// BatchResult holds one outcome per requested include.
type BatchResult struct {
	Repo       string                       `json:"repo"`
	Ref        string                       `json:"ref"`
	Commit     string                       `json:"commit,omitempty"` // set when the ref was pinned
	OutputRoot string                       `json:"output_root"`
	Requested  []IncludeSpec                `json:"requested"`
	Outcomes   map[IncludeSpec]FetchOutcome `json:"-"`
	StartedAt  time.Time                    `json:"started_at"`
	EndedAt    time.Time                    `json:"ended_at"`
}

// Outcome returns the outcome recorded for spec.
func (r *BatchResult) Outcome(spec IncludeSpec) (FetchOutcome, bool) {
	o, ok := r.Outcomes[spec]
	return o, ok
}

// Succeeded returns the destinations of successful items in request order.
func (r *BatchResult) Succeeded() []string {
	var out []string
	for _, spec := range r.Requested {
		if o, ok := r.Outcomes[spec]; ok && o.Succeeded() {
			out = append(out, o.Destination)
		}
	}
	return out
}

// Failed returns the failed specs in request order.
func (r *BatchResult) Failed() []IncludeSpec {
	var out []IncludeSpec
	for _, spec := range r.Requested {
		if o, ok := r.Outcomes[spec]; ok && !o.Succeeded() {
			out = append(out, spec)
		}
	}
	return out
}

// FailedCount returns the number of failed items.
func (r *BatchResult) FailedCount() int {
	return len(r.Failed())
}

// FileListing is the set of regular files found under the output root,
// absolute and sorted.
type FileListing []string
