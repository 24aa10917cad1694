package ecfr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

const agenciesJSON = `{
  "agencies": [
    {
      "name": "Department of Agriculture",
      "short_name": "USDA",
      "display_name": "Department of Agriculture",
      "sortable_name": "Agriculture, Department of",
      "slug": "agriculture-department",
      "children": [
        {
          "name": "Forest Service",
          "slug": "forest-service",
          "sortable_name": "Forest Service",
          "children": [],
          "cfr_references": [{"title": 36, "chapter": "II"}]
        }
      ],
      "cfr_references": [{"title": 2, "chapter": "IV"}, {"title": 7, "chapter": "I"}]
    },
    {
      "name": "Environmental Protection Agency",
      "slug": "environmental-protection-agency",
      "children": [],
      "cfr_references": [{"title": 40, "chapter": "I"}]
    }
  ]
}`

const titlesJSON = `{
  "titles": [
    {"number": 1, "name": "General Provisions", "latest_amended_on": "2022-12-29", "latest_issue_date": "2024-05-17", "up_to_date_as_of": "2024-06-03", "reserved": false},
    {"number": 35, "name": "Reserved", "reserved": true}
  ],
  "meta": {"date": "2024-06-03"}
}`

const structureJSON = `{
  "identifier": "40", "label": "Title 40 - Protection of Environment", "type": "title",
  "children": [{
    "identifier": "I", "label": "Chapter I - Environmental Protection Agency", "type": "chapter",
    "children": [{
      "identifier": "100", "label": "Part 100 - Test Part", "type": "part",
      "children": [{
        "identifier": "A", "label": "Subpart A - General", "type": "subpart",
        "children": [{"identifier": "100.1", "label": "§ 100.1 Scope.", "label_description": "Scope.", "type": "section"}]
      }]
    }]
  }]
}`

const fullXML = `<?xml version="1.0"?>
<ECFR>
 <DIV1 N="40" TYPE="TITLE">
  <HEAD>Title 40</HEAD>
  <DIV5 N="100" TYPE="PART">
   <HEAD>PART 100 - TEST PART</HEAD>
   <AUTH><HED>Authority:</HED><PSPACE>42 U.S.C. 7401</PSPACE></AUTH>
   <SOURCE><HED>Source:</HED><PSPACE>[88 FR 1234, Jan. 5, 2023]</PSPACE></SOURCE>
   <DIV8 N="§ 100.1" TYPE="SECTION">
    <HEAD>§ 100.1 Scope.</HEAD>
    <P>This part applies to <I>everything</I>.</P>
    <P>See 40 CFR 100.5 for details.</P>
   </DIV8>
  </DIV5>
 </DIV1>
</ECFR>`

const versionsJSON = `{
  "content_versions": [
    {"date": "2024-01-01", "amendment_date": "2024-01-01", "issue_date": "2024-01-02", "identifier": "100.1", "name": "§ 100.1 Scope.", "part": "100", "substantive": true, "removed": false, "type": "section"}
  ]
}`

func newTestClient(t *testing.T, routes map[string]string) *Client {
	t.Helper()

	mux := http.NewServeMux()
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c := NewClient(Config{
		BaseURL:   server.URL,
		BaseDelay: time.Nanosecond,
		MaxDelay:  time.Nanosecond,
	})
	c.fetcher.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func TestClient_ListAgencies_FlattensChildren(t *testing.T) {
	c := newTestClient(t, map[string]string{"/api/admin/v1/agencies.json": agenciesJSON})

	agencies, err := c.ListAgencies(context.Background())
	require.NoError(t, err)
	require.Len(t, agencies, 3)

	assert.Equal(t, "agriculture-department", agencies[0].Agency.Slug)
	assert.Nil(t, agencies[0].Agency.ParentSlug)
	assert.Equal(t, "USDA", agencies[0].Agency.ShortName)
	assert.Len(t, agencies[0].References, 2)

	assert.Equal(t, "forest-service", agencies[1].Agency.Slug)
	require.NotNil(t, agencies[1].Agency.ParentSlug)
	assert.Equal(t, "agriculture-department", *agencies[1].Agency.ParentSlug)
	assert.Equal(t, 36, agencies[1].References[0].Title)

	assert.Equal(t, "environmental-protection-agency", agencies[2].Agency.Slug)
}

func TestClient_ListAgencies_MalformedIndex(t *testing.T) {
	c := newTestClient(t, map[string]string{"/api/admin/v1/agencies.json": `{"other": []}`})

	_, err := c.ListAgencies(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformedIndex)
}

func TestClient_ListAgencies_NotAList(t *testing.T) {
	c := newTestClient(t, map[string]string{"/api/admin/v1/agencies.json": `{"agencies": {"slug": "x"}}`})

	_, err := c.ListAgencies(context.Background())
	assert.Equal(t, domain.FetchMalformed, domain.FetchErrorKindOf(err))
}

func TestClient_ListTitles(t *testing.T) {
	c := newTestClient(t, map[string]string{"/api/versioner/v1/titles.json": titlesJSON})

	titles, err := c.ListTitles(context.Background())
	require.NoError(t, err)
	require.Len(t, titles, 2)

	assert.Equal(t, 1, titles[0].Number)
	assert.Equal(t, "General Provisions", titles[0].Name)
	require.NotNil(t, titles[0].UpToDateAsOf)
	assert.Equal(t, "2024-06-03", titles[0].UpToDateAsOf.Format(dateLayout))
	assert.True(t, titles[1].Reserved)
	assert.Nil(t, titles[1].LatestAmendedOn)
}

func TestClient_TitleContent_AttachesSectionText(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/api/versioner/v1/structure/2024-06-03/title-40.json": structureJSON,
		"/api/versioner/v1/full/2024-06-03/title-40.xml":       fullXML,
		"/api/versioner/v1/versions/title-40.json":             versionsJSON,
	})

	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	title := &domain.Title{Number: 40, UpToDateAsOf: &date}

	content, err := c.TitleContent(context.Background(), title, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, date, content.SourceDate)
	assert.Equal(t, "Authority: 42 U.S.C. 7401", content.Authority)
	assert.Contains(t, content.Source, "88 FR 1234")
	assert.Contains(t, content.Body, "This part applies to everything.")
	require.Len(t, content.Versions, 1)
	assert.Equal(t, "100.1", content.Versions[0].Identifier)
	assert.True(t, content.Versions[0].Substantive)

	var section *domain.StructureNode
	content.Root.Walk(func(n *domain.StructureNode) {
		if n.Type == "section" {
			section = n
		}
	})
	require.NotNil(t, section)
	assert.Contains(t, section.Content, "See 40 CFR 100.5 for details.")
}

func TestClient_TitleContent_NotFound(t *testing.T) {
	c := newTestClient(t, map[string]string{})

	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	_, err := c.TitleContent(context.Background(), &domain.Title{Number: 99}, date)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "err = %v", err)
}

func TestClient_SectionAndCorrections(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/api/versioner/v1/structure/latest/title-40/section-100.1.json": `{"identifier": "100.1", "label": "§ 100.1 Scope.", "type": "section"}`,
		"/api/admin/v1/corrections/title/40.json": `{"ecfr_corrections": [{"id": 7, "cfr_references": [{"cfr_reference": "40 CFR 100.1"}], "fr_citation": "89 FR 100", "error_corrected": "2024-02-01", "title": 40, "year": 2024}]}`,
	})

	node, err := c.Section(context.Background(), 40, "100.1")
	require.NoError(t, err)
	assert.Equal(t, "100.1", node.Identifier)

	corrections, err := c.Corrections(context.Background(), 40)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	assert.Equal(t, []string{"40 CFR 100.1"}, corrections[0].CFRReferences)
	assert.Equal(t, 2024, corrections[0].ErrorCorrected.Year())
}

func TestClient_SearchFacet_RejectsUnknownFacet(t *testing.T) {
	c := newTestClient(t, map[string]string{})

	_, err := c.SearchFacet(context.Background(), "nope", "q")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
