package domain

import "time"

// Checkpoint is the durable record of ingestion progress.
// LastTitleNumber is only meaningful for LastAgencyID and is reset to nil
// whenever processing advances to a new agency.
type Checkpoint struct {
	LastAgencyID    *string   `json:"lastAgencyId"`
	LastTitleNumber *int      `json:"lastTitleNumber"`
	Timestamp       time.Time `json:"timestamp"`
	Progress        Progress  `json:"progress"`
}

// Progress holds cumulative counters for a run.
type Progress struct {
	AgenciesProcessed int `json:"agenciesProcessed"`
	TitlesProcessed   int `json:"titlesProcessed"`
}

// Clone returns a deep copy.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	out := *c
	if c.LastAgencyID != nil {
		id := *c.LastAgencyID
		out.LastAgencyID = &id
	}
	if c.LastTitleNumber != nil {
		n := *c.LastTitleNumber
		out.LastTitleNumber = &n
	}
	return &out
}

// AgencyID returns the last agency or "".
func (c *Checkpoint) AgencyID() string {
	if c == nil || c.LastAgencyID == nil {
		return ""
	}
	return *c.LastAgencyID
}
