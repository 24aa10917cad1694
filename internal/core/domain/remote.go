package domain

import "time"

// TitleContent is everything fetched for one title in a single unit of work.
type TitleContent struct {
	Title      *Title
	Root       *StructureNode
	Body       string
	Authority  string
	Source     string
	Versions   []*ContentVersion
	SourceDate time.Time
}

// ContentVersion is one entry of the remote version history of a title.
type ContentVersion struct {
	Date          time.Time `json:"date"`
	AmendmentDate time.Time `json:"amendment_date"`
	IssueDate     time.Time `json:"issue_date"`
	Identifier    string    `json:"identifier"`
	Name          string    `json:"name"`
	Part          string    `json:"part"`
	Subpart       string    `json:"subpart,omitempty"`
	Substantive   bool      `json:"substantive"`
	Removed       bool      `json:"removed"`
	Type          string    `json:"type"`
}

// Correction is an entry of the remote corrections feed.
type Correction struct {
	ID               int       `json:"id"`
	CFRReferences    []string  `json:"cfr_references"`
	CorrectiveAction string    `json:"corrective_action"`
	ErrorCorrected   time.Time `json:"error_corrected"`
	ErrorOccurred    time.Time `json:"error_occurred"`
	FRCitation       string    `json:"fr_citation"`
	Position         int       `json:"position"`
	DisplayInTOC     bool      `json:"display_in_toc"`
	Title            int       `json:"title"`
	Year             int       `json:"year"`
	LastModified     time.Time `json:"last_modified"`
}

// SearchResult is one hit from the remote search facade.
type SearchResult struct {
	StartsOn        string            `json:"starts_on"`
	EndsOn          string            `json:"ends_on,omitempty"`
	Type            string            `json:"type"`
	Hierarchy       map[string]string `json:"hierarchy"`
	Headings        map[string]string `json:"headings"`
	FullTextExcerpt string            `json:"full_text_excerpt"`
	Score           float64           `json:"score"`
	StructureIndex  int               `json:"structure_index"`
}
