// Package session owns one run's I/O: its event timeline, metrics,
// human-readable log, status file, and per-step artifacts (§4.7).
package session

import "github.com/keboola/osiris/pkg/runindex"

// Status is a run's terminal status, shared with the run index's
// Record.Status (§3 Run Record).
type Status = runindex.Status

const (
	StatusCompleted = runindex.StatusCompleted
	StatusFailed    = runindex.StatusFailed
	StatusCancelled = runindex.StatusCancelled
)

// Totals is the rolled-up metrics block written to status.json at
// close and mirrored into the run index Record.
type Totals = runindex.Totals

// StatusDocument is the shape of status.json (§4.7 write_status).
type StatusDocument struct {
	Status    Status `json:"status"`
	Totals    Totals `json:"totals"`
	UpdatedAt string `json:"updated_at"`
}
