package ecfr

import (
	"strings"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

const dateLayout = "2006-01-02"

// agenciesResponse is the body of /api/admin/v1/agencies.json.
// Agencies is raw so a non-list payload is detected as a malformed index.
type agenciesResponse struct {
	Agencies *[]agencyDTO `json:"agencies"`
}

type agencyDTO struct {
	Name          string         `json:"name"`
	ShortName     string         `json:"short_name"`
	DisplayName   string         `json:"display_name"`
	SortableName  string         `json:"sortable_name"`
	Slug          string         `json:"slug"`
	Children      []agencyDTO    `json:"children"`
	CFRReferences []cfrReference `json:"cfr_references"`
}

type cfrReference struct {
	Title   int    `json:"title"`
	Chapter string `json:"chapter,omitempty"`
	Part    string `json:"part,omitempty"`
}

// titlesResponse is the body of /api/versioner/v1/titles.json.
type titlesResponse struct {
	Titles *[]titleDTO `json:"titles"`
}

type titleDTO struct {
	Number          int    `json:"number"`
	Name            string `json:"name"`
	LatestAmendedOn string `json:"latest_amended_on"`
	LatestIssueDate string `json:"latest_issue_date"`
	UpToDateAsOf    string `json:"up_to_date_as_of"`
	Reserved        bool   `json:"reserved"`
}

// versionsResponse is the body of /api/versioner/v1/versions/title-{n}.json.
type versionsResponse struct {
	ContentVersions []versionDTO `json:"content_versions"`
}

type versionDTO struct {
	Date          string `json:"date"`
	AmendmentDate string `json:"amendment_date"`
	IssueDate     string `json:"issue_date"`
	Identifier    string `json:"identifier"`
	Name          string `json:"name"`
	Part          string `json:"part"`
	Subpart       string `json:"subpart"`
	Substantive   bool   `json:"substantive"`
	Removed       bool   `json:"removed"`
	Type          string `json:"type"`
}

type ancestryResponse struct {
	Ancestors []*domain.StructureNode `json:"ancestors"`
}

type correctionsResponse struct {
	ECFRCorrections []correctionDTO `json:"ecfr_corrections"`
}

type correctionDTO struct {
	ID               int             `json:"id"`
	CFRReferences    []correctionRef `json:"cfr_references"`
	CorrectiveAction string          `json:"corrective_action"`
	ErrorCorrected   string          `json:"error_corrected"`
	ErrorOccurred    string          `json:"error_occurred"`
	FRCitation       string          `json:"fr_citation"`
	Position         int             `json:"position"`
	DisplayInTOC     bool            `json:"display_in_toc"`
	Title            int             `json:"title"`
	Year             int             `json:"year"`
	LastModified     string          `json:"last_modified"`
}

type correctionRef struct {
	CFRReference string `json:"cfr_reference"`
}

type searchResponse struct {
	Results []*domain.SearchResult `json:"results"`
}

type countResponse struct {
	Meta struct {
		TotalCount int `json:"total_count"`
	} `json:"meta"`
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) > len(dateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, true
		}
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseDatePtr(s string) *time.Time {
	t, ok := parseDate(s)
	if !ok {
		return nil
	}
	return &t
}

func (d titleDTO) toDomain() *domain.Title {
	return &domain.Title{
		Number:          d.Number,
		Name:            d.Name,
		Type:            "title",
		Reserved:        d.Reserved,
		LatestAmendedOn: parseDatePtr(d.LatestAmendedOn),
		LatestIssueDate: parseDatePtr(d.LatestIssueDate),
		UpToDateAsOf:    parseDatePtr(d.UpToDateAsOf),
	}
}

func (d versionDTO) toDomain() *domain.ContentVersion {
	v := &domain.ContentVersion{
		Identifier:  d.Identifier,
		Name:        d.Name,
		Part:        d.Part,
		Subpart:     d.Subpart,
		Substantive: d.Substantive,
		Removed:     d.Removed,
		Type:        d.Type,
	}
	v.Date, _ = parseDate(d.Date)
	v.AmendmentDate, _ = parseDate(d.AmendmentDate)
	v.IssueDate, _ = parseDate(d.IssueDate)
	return v
}

func (d correctionDTO) toDomain() *domain.Correction {
	c := &domain.Correction{
		ID:               d.ID,
		CorrectiveAction: d.CorrectiveAction,
		FRCitation:       d.FRCitation,
		Position:         d.Position,
		DisplayInTOC:     d.DisplayInTOC,
		Title:            d.Title,
		Year:             d.Year,
	}
	for _, r := range d.CFRReferences {
		c.CFRReferences = append(c.CFRReferences, r.CFRReference)
	}
	c.ErrorCorrected, _ = parseDate(d.ErrorCorrected)
	c.ErrorOccurred, _ = parseDate(d.ErrorOccurred)
	c.LastModified, _ = parseDate(d.LastModified)
	return c
}

// flattenAgencies lists agencies depth-first, parents before children, with
// ParentSlug set on children.
func flattenAgencies(in []agencyDTO, parent *string, out []*driven.RemoteAgency) []*driven.RemoteAgency {
	for _, a := range in {
		ra := &driven.RemoteAgency{
			Agency: &domain.Agency{
				Slug:         a.Slug,
				Name:         a.Name,
				ShortName:    a.ShortName,
				DisplayName:  a.DisplayName,
				SortableName: a.SortableName,
				ParentSlug:   parent,
			},
		}
		for _, ref := range a.CFRReferences {
			ra.References = append(ra.References, driven.TitleReference{
				Title:   ref.Title,
				Chapter: ref.Chapter,
				Part:    ref.Part,
			})
		}
		out = append(out, ra)

		if len(a.Children) > 0 {
			var p *string
			if a.Slug != "" {
				slug := a.Slug
				p = &slug
			}
			out = flattenAgencies(a.Children, p, out)
		}
	}
	return out
}
