package domain

import "time"

// RunState is a state of the ingestion state machine.
type RunState string

const (
	RunStateInit              RunState = "init"
	RunStateLoadingIndex      RunState = "loading_index"
	RunStateIteratingAgencies RunState = "iterating_agencies"
	RunStateProcessingTitle   RunState = "processing_title"
	RunStateDone              RunState = "done"
	RunStateFailed            RunState = "failed"
)

// RunOptions tunes a single ingestion run.
type RunOptions struct {
	// Fresh ignores and clears any existing checkpoint.
	Fresh bool

	// Titles restricts processing to these title numbers. Empty means all.
	Titles []int
}

// WantsTitle reports whether n passes the title filter.
func (o RunOptions) WantsTitle(n int) bool {
	if len(o.Titles) == 0 {
		return true
	}
	for _, t := range o.Titles {
		if t == n {
			return true
		}
	}
	return false
}

// RunStats holds counters for a run.
type RunStats struct {
	AgenciesSeen      int `json:"agencies_seen"`
	AgenciesProcessed int `json:"agencies_processed"`
	AgenciesSkipped   int `json:"agencies_skipped"`
	TitlesProcessed   int `json:"titles_processed"`
	TitlesSkipped     int `json:"titles_skipped"`
	TitlesNoContent   int `json:"titles_no_content"`
	TitlesChanged     int `json:"titles_changed"`
	VersionsCreated   int `json:"versions_created"`
	ChangesFailed     int `json:"changes_failed"`
	ReferencesWritten int `json:"references_written"`
	ReferencesFailed  int `json:"references_failed"`
}

// RunResult is the outcome of an ingestion run.
type RunResult struct {
	State    RunState `json:"state"`
	Stats    RunStats `json:"stats"`
	Duration float64  `json:"duration_seconds"`
	Error    string   `json:"error,omitempty"`
}

// StoreCounts summarises persisted rows.
type StoreCounts struct {
	Agencies int `json:"agencies"`
	Titles   int `json:"titles"`
	Versions int `json:"versions"`
	Sections int `json:"sections"`
}

// IngestStatus is reported by the status command and the ops server.
type IngestStatus struct {
	Checkpoint *Checkpoint `json:"checkpoint,omitempty"`
	Counts     StoreCounts `json:"counts"`
	CheckedAt  time.Time   `json:"checked_at"`
}
