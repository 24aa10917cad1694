package domain

import "time"

// Agency is a rule-making body. Agencies form a tree via ParentSlug;
// agencies without a parent are roots.
type Agency struct {
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	ShortName    string    `json:"short_name,omitempty"`
	DisplayName  string    `json:"display_name"`
	SortableName string    `json:"sortable_name"`
	ParentSlug   *string   `json:"parent_slug,omitempty"`
	TitleNumbers []int     `json:"title_numbers,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsRoot reports whether the agency has no parent
func (a *Agency) IsRoot() bool {
	return a.ParentSlug == nil
}

// ActivityMetrics is a dated estimate of how much an agency's regulations
// changed between two successive versions of one of its titles.
type ActivityMetrics struct {
	ID            string    `json:"id"`
	AgencySlug    string    `json:"agency_slug"`
	TitleNumber   int       `json:"title_number"`
	Date          time.Time `json:"date"`
	NewWords      int       `json:"new_words"`
	ModifiedWords int       `json:"modified_words"`
	DeletedWords  int       `json:"deleted_words"`
	TotalWords    int       `json:"total_words"`
}

// NewActivityMetrics derives activity from two total word counts.
// Modified is the absolute delta and therefore overlaps New/Deleted.
func NewActivityMetrics(agencySlug string, titleNumber, oldTotal, newTotal int, at time.Time) *ActivityMetrics {
	delta := newTotal - oldTotal
	m := &ActivityMetrics{
		AgencySlug:  agencySlug,
		TitleNumber: titleNumber,
		Date:        at,
		TotalWords:  newTotal,
	}
	if delta > 0 {
		m.NewWords = delta
		m.ModifiedWords = delta
	} else {
		m.DeletedWords = -delta
		m.ModifiedWords = -delta
	}
	return m
}

// WordCount is a dated total-word snapshot for an agency.
type WordCount struct {
	ID          string    `json:"id"`
	AgencySlug  string    `json:"agency_slug"`
	TitleNumber int       `json:"title_number"`
	Date        time.Time `json:"date"`
	TotalWords  int       `json:"total_words"`
}
