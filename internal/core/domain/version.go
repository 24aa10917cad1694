package domain

import (
	"strings"
	"time"
)

// Version is an immutable snapshot of a title's content. Content and
// WordCount are filled in once, immediately after creation.
type Version struct {
	ID            string      `json:"id"`
	TitleNumber   int         `json:"title_number"`
	Content       string      `json:"content,omitempty"`
	WordCount     int         `json:"word_count"`
	AmendmentDate *time.Time  `json:"amendment_date,omitempty"`
	EffectiveDate *time.Time  `json:"effective_date,omitempty"`
	PublishedDate *time.Time  `json:"published_date,omitempty"`
	Authority     string      `json:"authority,omitempty"`
	Source        string      `json:"source,omitempty"`
	Citations     []*Citation `json:"citations,omitempty"`
	Changes       []*Change   `json:"changes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// ChangeType is the kind of mutation a Change records.
type ChangeType string

const (
	ChangeTypeAdd     ChangeType = "ADD"
	ChangeTypeModify  ChangeType = "MODIFY"
	ChangeTypeRemove  ChangeType = "REMOVE"
	ChangeTypeReserve ChangeType = "RESERVE"
)

// ParseChangeType converts a string to a ChangeType, defaulting to MODIFY.
func ParseChangeType(s string) ChangeType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADD", "ADDED":
		return ChangeTypeAdd
	case "REMOVE", "REMOVED", "DELETE":
		return ChangeTypeRemove
	case "RESERVE", "RESERVED":
		return ChangeTypeReserve
	default:
		return ChangeTypeModify
	}
}

// Change records one mutation within a version.
type Change struct {
	ID          string     `json:"id"`
	VersionID   string     `json:"version_id"`
	Type        ChangeType `json:"type"`
	Section     string     `json:"section"`
	Description string     `json:"description"`
	FRVolume    *int       `json:"fr_volume,omitempty"`
	FRPage      *int       `json:"fr_page,omitempty"`
	FRDate      *time.Time `json:"fr_date,omitempty"`
}

// Citation is a Federal Register citation attached to a version.
type Citation struct {
	ID        string     `json:"id"`
	VersionID string     `json:"version_id"`
	Volume    int        `json:"volume"`
	Page      int        `json:"page"`
	Date      *time.Time `json:"date,omitempty"`
	Type      string     `json:"type"`
	URL       string     `json:"url"`
}

// ChangeResult reports the outcome of inserting one Change.
type ChangeResult struct {
	Change *Change
	Err    error
}

// VersionMeta is everything needed to create a Version before its content
// is known.
type VersionMeta struct {
	AmendmentDate *time.Time
	EffectiveDate *time.Time
	PublishedDate *time.Time
	Authority     string
	Source        string
	Citations     []*Citation
	Changes       []*Change
}
