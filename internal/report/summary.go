// Package report turns a finished run into a human-readable summary: a
// terminal table, a GitHub step summary, and an optional JSON document.
package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spachava753/rawfetch/internal/models"
)

// FailedItem is one include that did not end up on disk.
type FailedItem struct {
	Remote     string           `json:"remote"`
	Local      string           `json:"local"`
	Cause      models.ErrorKind `json:"cause"`
	Detail     string           `json:"detail"`
	StatusCode int              `json:"status_code,omitempty"`
	Attempts   int              `json:"attempts"`
}

// Summary is the renderer-agnostic view of one run.
type Summary struct {
	RunID       string       `json:"run_id"`
	Repo        string       `json:"repo"`
	Ref         string       `json:"ref"`
	Commit      string       `json:"commit,omitempty"`
	OutputRoot  string       `json:"output_root"`
	Requested   int          `json:"requested"`
	Downloaded  []string     `json:"downloaded"`
	Failed      []FailedItem `json:"failed"`
	Files       []string     `json:"files"`
	StartedAt   time.Time    `json:"started_at"`
	EndedAt     time.Time    `json:"ended_at"`
	DurationSec float64      `json:"duration_sec"`
}

// Row is one Description/Result pair of the summary table.
type Row struct {
	Description string
	Result      string
}

// Build assembles a Summary. Downloaded lists successful destinations in
// request order; Files is the reconciled listing of the output root.
func Build(runID string, cfg models.RunConfig, result *models.BatchResult, listing models.FileListing) Summary {
	s := Summary{
		RunID:      runID,
		Repo:       cfg.Repo,
		Ref:        cfg.Ref,
		OutputRoot: cfg.OutputDirectory,
		Downloaded: []string{},
		Failed:     []FailedItem{},
		Files:      []string{},
	}
	if listing != nil {
		s.Files = append(s.Files, listing...)
	}
	if result == nil {
		return s
	}

	s.Commit = result.Commit
	if result.OutputRoot != "" {
		s.OutputRoot = result.OutputRoot
	}
	s.Requested = len(result.Requested)
	s.Downloaded = append(s.Downloaded, result.Succeeded()...)
	s.StartedAt = result.StartedAt
	s.EndedAt = result.EndedAt
	if !result.EndedAt.IsZero() {
		s.DurationSec = result.EndedAt.Sub(result.StartedAt).Seconds()
	}

	for _, spec := range result.Requested {
		outcome, ok := result.Outcome(spec)
		if !ok || outcome.Failure == nil {
			continue
		}
		s.Failed = append(s.Failed, FailedItem{
			Remote:     spec.RemotePath,
			Local:      spec.LocalPath,
			Cause:      outcome.Failure.Cause,
			Detail:     outcome.Failure.Detail,
			StatusCode: outcome.Failure.StatusCode,
			Attempts:   outcome.Attempts,
		})
	}
	return s
}

// HasFailures reports whether any include failed.
func (s Summary) HasFailures() bool {
	return len(s.Failed) > 0
}

// Rows returns the table rows shared by every renderer. Paths are shown
// relative to the output root when possible.
func (s Summary) Rows() []Row {
	rows := []Row{
		{"Repo", s.Repo},
		{"Ref", s.Ref},
	}
	if s.Commit != "" {
		rows = append(rows, Row{"Commit", s.Commit})
	}
	for _, dest := range s.Downloaded {
		rows = append(rows, Row{"Downloaded", s.rel(dest)})
	}
	failed := append([]FailedItem(nil), s.Failed...)
	sort.SliceStable(failed, func(i, j int) bool { return failed[i].Remote < failed[j].Remote })
	for _, f := range failed {
		rows = append(rows, Row{"Failed", fmt.Sprintf("%s (%s: %s)", f.Remote, f.Cause, f.Detail)})
	}
	for _, file := range s.Files {
		rows = append(rows, Row{"Files", s.rel(file)})
	}
	return rows
}

func (s Summary) rel(path string) string {
	if s.OutputRoot == "" {
		return path
	}
	root, err := filepath.Abs(s.OutputRoot)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}
