package ecfr

import (
	"strings"
	"testing"
)

func TestExtractText(t *testing.T) {
	text, err := ExtractText([]byte(fullXML))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}

	section, ok := text.Sections["100.1"]
	if !ok {
		t.Fatalf("missing section 100.1 in %v", text.Sections)
	}
	if !strings.HasPrefix(section, "§ 100.1 Scope.") {
		t.Errorf("section text = %q", section)
	}
	if !strings.Contains(section, "This part applies to everything.") {
		t.Errorf("section text missing body: %q", section)
	}

	if text.Authority != "Authority: 42 U.S.C. 7401" {
		t.Errorf("Authority = %q", text.Authority)
	}
	if text.Source != "Source: [88 FR 1234, Jan. 5, 2023]" {
		t.Errorf("Source = %q", text.Source)
	}

	lines := strings.Split(text.Body, "\n")
	if lines[0] != "Title 40" {
		t.Errorf("first body line = %q, want Title 40", lines[0])
	}
}

func TestSectionKey(t *testing.T) {
	cases := map[string]string{
		"§ 100.1":                     "100.1",
		"100.1":                       "100.1",
		" §  1.2 Scope":               "1.2",
		"§§ 100.10-100.15 [Reserved]": "100.10-100.15",
		"":                            "",
	}
	for in, want := range cases {
		if got := sectionKey(in); got != want {
			t.Errorf("sectionKey(%q) = %q, want %q", in, got, want)
		}
	}
}
