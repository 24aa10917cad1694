package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

// CitationTypeFR marks Federal Register citations.
const CitationTypeFR = "FR"

// FederalRegisterURL is the citation lookup base.
const FederalRegisterURL = "https://www.federalregister.gov/citation"

var frCitation = regexp.MustCompile(`(\d+)\s+FR\s+(\d+)(?:,\s*([A-Z][a-z]{2,4})\.?\s+(\d{1,2}),\s+(\d{4}))?`)

// ExtractCitations parses Federal Register citations such as
// "[88 FR 1234, Jan. 5, 2023]" from source notes. Repeats of the same
// volume and page are dropped.
func ExtractCitations(source string) []*domain.Citation {
	var out []*domain.Citation
	seen := make(map[string]bool)

	for _, m := range frCitation.FindAllStringSubmatch(source, -1) {
		volume, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		page, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		key := m[1] + "-" + m[2]
		if seen[key] {
			continue
		}
		seen[key] = true

		c := &domain.Citation{
			ID:     uuid.NewString(),
			Volume: volume,
			Page:   page,
			Type:   CitationTypeFR,
			URL:    fmt.Sprintf("%s/%d-FR-%d", FederalRegisterURL, volume, page),
		}
		if m[3] != "" {
			c.Date = parseCitationDate(m[3], m[4], m[5])
		}
		out = append(out, c)
	}
	return out
}

func parseCitationDate(month, day, year string) *time.Time {
	if len(month) < 3 {
		return nil
	}
	t, err := time.Parse("Jan 2 2006", strings.ToUpper(month[:1])+strings.ToLower(month[1:3])+" "+day+" "+year)
	if err != nil {
		return nil
	}
	return &t
}
