package ecfr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// DefaultBaseURL is the public eCFR API.
const DefaultBaseURL = "https://www.ecfr.gov"

// Verify interface compliance
var _ driven.RegulationSource = (*Client)(nil)

// Client provides typed access to the eCFR API.
type Client struct {
	fetcher *Fetcher
	baseURL string
	logger  *slog.Logger
}

// Config holds configuration for the eCFR client.
type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Metrics    driven.IngestMetrics
	Logger     *slog.Logger
}

// NewClient creates a new eCFR client. One client owns one rate limiter;
// share the client, not the limiter.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	fetcher := NewFetcher(FetcherConfig{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Limiter:    NewRateLimiter(cfg.BaseDelay, cfg.MaxDelay),
		MaxRetries: cfg.MaxRetries,
		UserAgent:  cfg.UserAgent,
		Metrics:    cfg.Metrics,
		Logger:     cfg.Logger,
	})

	return &Client{
		fetcher: fetcher,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  cfg.Logger,
	}
}

// Fetcher returns the underlying fetcher.
func (c *Client) Fetcher() *Fetcher {
	return c.fetcher
}

func (c *Client) url(format string, args ...any) string {
	return c.baseURL + fmt.Sprintf(format, args...)
}

// ListAgencies returns every agency, children flattened after their parent.
func (c *Client) ListAgencies(ctx context.Context) ([]*driven.RemoteAgency, error) {
	var resp agenciesResponse
	if err := c.fetcher.GetJSON(ctx, "agencies", c.url("/api/admin/v1/agencies.json"), &resp); err != nil {
		return nil, fmt.Errorf("list agencies: %w", err)
	}
	if resp.Agencies == nil {
		return nil, fmt.Errorf("list agencies: %w", domain.ErrMalformedIndex)
	}
	return flattenAgencies(*resp.Agencies, nil, nil), nil
}

// ListTitles returns the full title index.
func (c *Client) ListTitles(ctx context.Context) ([]*domain.Title, error) {
	var resp titlesResponse
	if err := c.fetcher.GetJSON(ctx, "titles", c.url("/api/versioner/v1/titles.json"), &resp); err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	if resp.Titles == nil {
		return nil, fmt.Errorf("list titles: %w", domain.ErrMalformedIndex)
	}

	titles := make([]*domain.Title, 0, len(*resp.Titles))
	for _, t := range *resp.Titles {
		titles = append(titles, t.toDomain())
	}
	return titles, nil
}

// TitleVersions returns the version history of a title.
func (c *Client) TitleVersions(ctx context.Context, titleNumber int) ([]*domain.ContentVersion, error) {
	var resp versionsResponse
	u := c.url("/api/versioner/v1/versions/title-%d.json", titleNumber)
	if err := c.fetcher.GetJSON(ctx, "versions", u, &resp); err != nil {
		return nil, fmt.Errorf("title %d versions: %w", titleNumber, err)
	}

	versions := make([]*domain.ContentVersion, 0, len(resp.ContentVersions))
	for _, v := range resp.ContentVersions {
		versions = append(versions, v.toDomain())
	}
	return versions, nil
}

// Structure returns the structure tree of a title as of date.
func (c *Client) Structure(ctx context.Context, titleNumber int, date time.Time) (*domain.StructureNode, error) {
	var root domain.StructureNode
	u := c.url("/api/versioner/v1/structure/%s/title-%d.json", date.Format(dateLayout), titleNumber)
	if err := c.fetcher.GetJSON(ctx, "structure", u, &root); err != nil {
		return nil, fmt.Errorf("title %d structure: %w", titleNumber, err)
	}
	return &root, nil
}

// Chapter returns the latest structure of a single chapter.
func (c *Client) Chapter(ctx context.Context, titleNumber int, chapter string) (*domain.StructureNode, error) {
	return c.latestNode(ctx, "chapter", titleNumber, chapter)
}

// Part returns the latest structure of a single part.
func (c *Client) Part(ctx context.Context, titleNumber int, part string) (*domain.StructureNode, error) {
	return c.latestNode(ctx, "part", titleNumber, part)
}

// Section returns the latest structure of a single section.
func (c *Client) Section(ctx context.Context, titleNumber int, section string) (*domain.StructureNode, error) {
	return c.latestNode(ctx, "section", titleNumber, section)
}

func (c *Client) latestNode(ctx context.Context, kind string, titleNumber int, id string) (*domain.StructureNode, error) {
	var node domain.StructureNode
	u := c.url("/api/versioner/v1/structure/latest/title-%d/%s-%s.json", titleNumber, kind, url.PathEscape(id))
	if err := c.fetcher.GetJSON(ctx, kind, u, &node); err != nil {
		return nil, fmt.Errorf("title %d %s %s: %w", titleNumber, kind, id, err)
	}
	return &node, nil
}

// Ancestry returns the ancestor chain of a node. An empty id means the title.
func (c *Client) Ancestry(ctx context.Context, titleNumber int, date time.Time, id string) ([]*domain.StructureNode, error) {
	var resp ancestryResponse
	if err := c.fetcher.GetJSON(ctx, "ancestry", c.scopedURL("ancestry", titleNumber, date, id, "json"), &resp); err != nil {
		return nil, fmt.Errorf("title %d ancestry: %w", titleNumber, err)
	}
	return resp.Ancestors, nil
}

// FullXML returns the raw XML body of a title or one of its nodes.
func (c *Client) FullXML(ctx context.Context, titleNumber int, date time.Time, id string) ([]byte, error) {
	body, err := c.fetcher.GetRaw(ctx, "full", c.scopedURL("full", titleNumber, date, id, "xml"))
	if err != nil {
		return nil, fmt.Errorf("title %d full text: %w", titleNumber, err)
	}
	return body, nil
}

func (c *Client) scopedURL(kind string, titleNumber int, date time.Time, id, ext string) string {
	u := c.url("/api/versioner/v1/%s/%s/title-%d", kind, date.Format(dateLayout), titleNumber)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u + "." + ext
}

// TitleContent fetches the structure tree, the full XML text and the version
// history of a title as of date, and attaches section text to the tree.
// A zero date means the title's up-to-date-as-of date.
func (c *Client) TitleContent(ctx context.Context, title *domain.Title, date time.Time) (*domain.TitleContent, error) {
	if date.IsZero() {
		date = contentDate(title)
	}

	root, err := c.Structure(ctx, title.Number, date)
	if err != nil {
		return nil, err
	}

	raw, err := c.FullXML(ctx, title.Number, date, "")
	if err != nil {
		return nil, err
	}
	text, err := ExtractText(raw)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchMalformed, URL: c.scopedURL("full", title.Number, date, "", "xml"), Err: err}
	}

	root.Walk(func(n *domain.StructureNode) {
		if n.Type != "section" {
			return
		}
		if s, ok := text.Sections[n.Identifier]; ok {
			n.Content = s
		}
	})

	versions, err := c.TitleVersions(ctx, title.Number)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetched title content",
		"title_number", title.Number,
		"date", date.Format(dateLayout),
		"sections", len(text.Sections),
		"versions", len(versions))

	return &domain.TitleContent{
		Title:      title,
		Root:       root,
		Body:       text.Body,
		Authority:  text.Authority,
		Source:     text.Source,
		Versions:   versions,
		SourceDate: date,
	}, nil
}

func contentDate(title *domain.Title) time.Time {
	switch {
	case title.UpToDateAsOf != nil:
		return *title.UpToDateAsOf
	case title.LatestIssueDate != nil:
		return *title.LatestIssueDate
	case title.LatestAmendedOn != nil:
		return *title.LatestAmendedOn
	}
	return time.Now().UTC()
}

// Corrections lists corrections, for one title when titleNumber > 0.
func (c *Client) Corrections(ctx context.Context, titleNumber int) ([]*domain.Correction, error) {
	u := c.url("/api/admin/v1/corrections.json")
	if titleNumber > 0 {
		u = c.url("/api/admin/v1/corrections/title/%d.json", titleNumber)
	}

	var resp correctionsResponse
	if err := c.fetcher.GetJSON(ctx, "corrections", u, &resp); err != nil {
		return nil, fmt.Errorf("list corrections: %w", err)
	}

	out := make([]*domain.Correction, 0, len(resp.ECFRCorrections))
	for _, d := range resp.ECFRCorrections {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Search runs a full-text search.
func (c *Client) Search(ctx context.Context, query string) ([]*domain.SearchResult, error) {
	var resp searchResponse
	if err := c.fetcher.GetJSON(ctx, "search", c.searchURL("results", query), &resp); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return resp.Results, nil
}

// SearchCount returns the number of hits for a query.
func (c *Client) SearchCount(ctx context.Context, query string) (int, error) {
	var resp countResponse
	if err := c.fetcher.GetJSON(ctx, "search", c.searchURL("count", query), &resp); err != nil {
		return 0, fmt.Errorf("search count: %w", err)
	}
	return resp.Meta.TotalCount, nil
}

// SearchFacet returns one of the untyped search facets: "counts/{groupBy}",
// "summary" or "suggestions".
func (c *Client) SearchFacet(ctx context.Context, facet, query string) (map[string]any, error) {
	switch {
	case facet == "summary", facet == "suggestions", strings.HasPrefix(facet, "counts/"):
	default:
		return nil, fmt.Errorf("search facet %q: %w", facet, domain.ErrInvalidInput)
	}

	var resp map[string]any
	if err := c.fetcher.GetJSON(ctx, "search", c.searchURL(facet, query), &resp); err != nil {
		return nil, fmt.Errorf("search %s: %w", facet, err)
	}
	return resp, nil
}

func (c *Client) searchURL(kind, query string) string {
	return c.url("/api/search/v1/%s?%s", kind, url.Values{"query": {query}}.Encode())
}
