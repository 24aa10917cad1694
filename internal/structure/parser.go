// Package structure converts the remote structure tree of a title into the
// canonical chapter→part→subpart→section skeleton.
package structure

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

// SectionMarker prefixes every section label.
const SectionMarker = "§"

// Classify discriminates a raw node by its label prefix.
func Classify(n *domain.StructureNode) domain.NodeKind {
	if n == nil {
		return domain.NodeKindOther
	}
	label := strings.TrimSpace(n.Label)
	lower := strings.ToLower(label)
	switch {
	case strings.HasPrefix(lower, "chapter"):
		return domain.NodeKindChapter
	case strings.HasPrefix(lower, "part"):
		return domain.NodeKindPart
	case strings.HasPrefix(lower, "subpart"):
		return domain.NodeKindSubpart
	case strings.HasPrefix(label, SectionMarker):
		return domain.NodeKindSection
	}
	return domain.NodeKindOther
}

// isContainer reports nodes that only group their children (subchapters and
// subject groups). Their children are read as if they were siblings.
func isContainer(n *domain.StructureNode) bool {
	lower := strings.ToLower(strings.TrimSpace(n.Label))
	return strings.HasPrefix(lower, "subchapter") || n.Type == "subchapter" || n.Type == "subject_group"
}

// Parse builds the canonical structure in one top-down pass. Nodes that do
// not match the expected label at their level are dropped, as are chapters
// and parts whose number cannot be read. The result carries no identifiers;
// call AssignIDs before persisting.
func Parse(root *domain.StructureNode) *domain.Structure {
	out := &domain.Structure{}
	if root == nil {
		return out
	}

	for _, node := range root.Children {
		if Classify(node) != domain.NodeKindChapter {
			continue
		}
		number, ok := LabelNumber(node.Label)
		if !ok {
			continue
		}
		chapter := &domain.Chapter{Number: number, Name: nodeName(node)}
		for _, pn := range flatten(node.Children) {
			if part := parsePart(pn); part != nil {
				chapter.Parts = append(chapter.Parts, part)
			}
		}
		out.Chapters = append(out.Chapters, chapter)
	}
	return out
}

func parsePart(node *domain.StructureNode) *domain.Part {
	if Classify(node) != domain.NodeKindPart {
		return nil
	}
	number, ok := LabelNumber(node.Label)
	if !ok {
		return nil
	}
	part := &domain.Part{Number: number, Name: nodeName(node)}
	for _, sn := range node.Children {
		if Classify(sn) != domain.NodeKindSubpart {
			continue
		}
		subpart := &domain.Subpart{Name: strings.TrimSpace(sn.Label)}
		for _, sec := range flatten(sn.Children) {
			if Classify(sec) != domain.NodeKindSection {
				continue
			}
			subpart.Sections = append(subpart.Sections, &domain.Section{
				Number:  SectionNumber(sec.Label),
				Name:    sectionName(sec),
				Content: sec.Content,
			})
		}
		part.Subparts = append(part.Subparts, subpart)
	}
	return part
}

func flatten(nodes []*domain.StructureNode) []*domain.StructureNode {
	var out []*domain.StructureNode
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if isContainer(n) {
			out = append(out, flatten(n.Children)...)
			continue
		}
		out = append(out, n)
	}
	return out
}

// LabelNumber reads the number following the first space of a label.
// "Part 100" gives 100, "Chapter IV - Foo" gives 4.
func LabelNumber(label string) (int, bool) {
	label = strings.TrimSpace(label)
	i := strings.IndexFunc(label, unicode.IsSpace)
	if i < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(label[i:])
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(rest); err == nil {
		return n, true
	}
	return parseRoman(rest)
}

// SectionNumber strips the section marker: "§ 100.1 Scope." gives "100.1"
// and the range "§§ 100.10-100.15 [Reserved]" gives "100.10-100.15".
func SectionNumber(label string) string {
	rest := trimMarker(label)
	if fields := strings.Fields(rest); len(fields) > 0 {
		return fields[0]
	}
	return rest
}

func sectionName(n *domain.StructureNode) string {
	if d := strings.TrimSpace(n.Description); d != "" {
		return d
	}
	rest := trimMarker(n.Label)
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		return strings.TrimSpace(rest[i:])
	}
	return ""
}

// trimMarker drops leading section markers, single or doubled.
func trimMarker(label string) string {
	return strings.TrimLeft(strings.TrimSpace(label), SectionMarker+" ")
}

// nodeName prefers the description, then whatever follows the number.
func nodeName(n *domain.StructureNode) string {
	if d := strings.TrimSpace(n.Description); d != "" {
		return d
	}
	label := strings.TrimSpace(n.Label)
	if i := strings.IndexAny(label, "-—–"); i >= 0 {
		return strings.TrimSpace(strings.TrimLeft(label[i:], "-—– "))
	}
	return label
}

var romanValues = map[rune]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

func parseRoman(s string) (int, bool) {
	s = strings.ToUpper(s)
	total, prev := 0, 0
	for i := len(s) - 1; i >= 0; i-- {
		v, ok := romanValues[rune(s[i])]
		if !ok {
			return 0, false
		}
		if v < prev {
			total -= v
		} else {
			total += v
			prev = v
		}
	}
	return total, total > 0
}
