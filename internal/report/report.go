// Package report serializes the outcome of a single fitting run.
package report

import (
	"encoding/json"
	"os"
	"time"
)

// SupportedReportVersion is the current schema version.
const SupportedReportVersion = 1

// Report is the JSON summary a run can write alongside its output.
type Report struct {
	Version     int    `json:"version"`
	GeneratedAt string `json:"generated_at"`
	Source      Source `json:"source"`
	Target      Target `json:"target"`
	Output      Output `json:"output"`
	Post        *Post  `json:"post,omitempty"`
}

// Source identifies where the raw image came from.
type Source struct {
	URL   string `json:"url,omitempty"`  // final attribution URL for fetched photos
	Path  string `json:"path,omitempty"` // local path for offline fits
	Bytes int64  `json:"bytes"`
}

// Target echoes the requested fit parameters.
type Target struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	ByteBudget int `json:"byte_budget"`
}

// Output describes the fitted JPEG.
type Output struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Bytes      int    `json:"bytes"`
	Quality    int    `json:"quality"`
	ScaleRound int    `json:"scale_round"`    // 0 = full target resolution
	Hash       string `json:"hash"`           // first 16 hex chars of xxhash64
	Path       string `json:"path,omitempty"` // written file, when any
}

// Post records the published record when the run posted.
type Post struct {
	URI    string `json:"uri"`
	Handle string `json:"handle"`
}

// New creates a report stamped with the current time.
func New() *Report {
	return &Report{
		Version:     SupportedReportVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// WriteJSON serializes the report to a JSON file.
func WriteJSON(r *Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
