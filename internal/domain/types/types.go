// Package types contains common types used across the application
package types

import "time"

// Report is the durable record of one reconciliation pass. It is produced
// even when the pass failed part way or some writes were rejected.
type Report struct {
	PassID     string    `json:"pass_id"`
	Job        string    `json:"job"`
	Table      string    `json:"table"`
	DryRun     bool      `json:"dry_run"`
	State      string    `json:"state"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	SourceRows    int            `json:"source_rows"`
	CanonicalRows int            `json:"canonical_rows"`
	LedgerRows    int            `json:"ledger_rows"`
	Matched       map[string]int `json:"matched"`
	Unmatched     int            `json:"unmatched"`

	Ambiguous  []AmbiguousMatch  `json:"ambiguous,omitempty"`
	Conflicts  []Conflict        `json:"conflicts,omitempty"`
	Collisions []Collision       `json:"identity_collisions,omitempty"`
	Invalid    []ValidationIssue `json:"invalid,omitempty"`

	PlansGenerated int       `json:"plans_generated"`
	Creates        int       `json:"creates"`
	Applied        int       `json:"applied"`
	Succeeded      int       `json:"succeeded"`
	Failed         int       `json:"failed"`
	Failures       []Failure `json:"failures,omitempty"`

	DuplicateGroups   int `json:"duplicate_groups"`
	DuplicatesFlagged int `json:"duplicates_flagged"`
}

// NewReport starts a report for job.
func NewReport(passID, job, table string, started time.Time) *Report {
	return &Report{
		PassID:    passID,
		Job:       job,
		Table:     table,
		StartedAt: started,
		Matched:   make(map[string]int),
	}
}

// MatchedTotal sums matches over all key kinds.
func (r *Report) MatchedTotal() int {
	n := 0
	for _, c := range r.Matched {
		n += c
	}
	return n
}

// Duration is the wall time of the pass, zero until it finished.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failure is one rejected write.
type Failure struct {
	RecordID  string         `json:"record_id,omitempty"`
	SourceID  string         `json:"source_id,omitempty"`
	Attempted map[string]any `json:"attempted"`
	Error     string         `json:"error"`
}

// AmbiguousMatch notes a source entity whose winning key was shared by
// several ledger records. The first in fetch order was used.
type AmbiguousMatch struct {
	SourceID   string   `json:"source_id"`
	Kind       string   `json:"kind"`
	Key        string   `json:"key"`
	RecordID   string   `json:"record_id"`
	Candidates []string `json:"candidates"`
}

// Conflict is a ledger record claimed by more than one source entity.
// SourceIDs[0] is the winning claim, the one that was diffed; the rest
// follow in source order.
type Conflict struct {
	RecordID  string   `json:"record_id"`
	SourceIDs []string `json:"source_ids"`
}

// Collision is an employee id stored on more than one ledger record.
type Collision struct {
	EmployeeID string   `json:"employee_id"`
	RecordIDs  []string `json:"record_ids"`
}

// ValidationIssue is a source row skipped before matching.
type ValidationIssue struct {
	SourceID string `json:"source_id"`
	Field    string `json:"field"`
	Reason   string `json:"reason"`
}
