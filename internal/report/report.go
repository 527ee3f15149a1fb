// Package report defines the per-story and per-cycle records the crawler
// produces for operator inspection.
package report

import (
	"encoding/json"
	"fmt"
	"time"
)

// StoryStatus is the lifecycle state of one story's processing.
type StoryStatus string

// Story lifecycle. InProcess and NewsSaved are transient; OK and Failed are
// terminal.
const (
	StatusInProcess StoryStatus = "in_process"
	StatusNewsSaved StoryStatus = "news_saved"
	StatusOK        StoryStatus = "ok"
	StatusFailed    StoryStatus = "failed"
)

// Story aggregates everything that happened while processing one story.
// CommentFiles may contain the same URL's file twice when a link appears in
// multiple comments; each entry represents a distinct fetch attempt.
type Story struct {
	StoryID      string      `json:"story_id"`
	Title        string      `json:"title"`
	URL          string      `json:"url"`
	Status       StoryStatus `json:"status"`
	Directory    string      `json:"directory"`
	NewsFile     string      `json:"news_file,omitempty"`
	CommentFiles []string    `json:"comment_files"`

	FetchTotalCount int     `json:"fetch_total_count"`
	FetchOKCount    int     `json:"fetch_ok_count"`
	FetchTotalTime  float64 `json:"fetch_total_time"`
	FetchTotalSize  int     `json:"fetch_total_size"`

	Errors []string `json:"errors"`
}

// Terminal reports whether the story reached a final status.
func (s Story) Terminal() bool {
	return s.Status == StatusOK || s.Status == StatusFailed
}

// Run is the report for one poll cycle: stories keyed by ID plus a results
// log interleaving story IDs (success) and error strings (failure) in
// submission order.
type Run struct {
	RunID      string           `json:"run_id"`
	Cycle      int              `json:"cycle"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Stories    map[string]Story `json:"stories"`
	Results    []string         `json:"results"`
}

// NewRun builds an empty run report.
func NewRun(runID string, cycle int, startedAt time.Time) *Run {
	return &Run{
		RunID:     runID,
		Cycle:     cycle,
		StartedAt: startedAt,
		Stories:   make(map[string]Story),
		Results:   []string{},
	}
}

// Add records one terminal story report, appending to the results log.
func (r *Run) Add(story Story) {
	r.Stories[story.StoryID] = story
	if story.Status == StatusOK {
		r.Results = append(r.Results, story.StoryID)
		return
	}
	cause := "unknown"
	if len(story.Errors) > 0 {
		cause = story.Errors[0]
	}
	r.Results = append(r.Results, fmt.Sprintf("%s: %s", story.StoryID, cause))
}

// JSON renders the report as indented JSON.
func (r *Run) JSON() ([]byte, error) {
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal run report: %w", err)
	}
	return payload, nil
}
