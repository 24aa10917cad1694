package domain

import (
	"fmt"
	"time"
)

// Title is one numbered title of the regulation corpus.
type Title struct {
	Number          int        `json:"number"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Reserved        bool       `json:"reserved"`
	LatestAmendedOn *time.Time `json:"latest_amended_on,omitempty"`
	LatestIssueDate *time.Time `json:"latest_issue_date,omitempty"`
	UpToDateAsOf    *time.Time `json:"up_to_date_as_of,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Structure is the canonical chapter→part→subpart→section tree of a title.
type Structure struct {
	Chapters []*Chapter `json:"chapters"`
}

// Chapter is the top level of a title's structure.
type Chapter struct {
	ID     string  `json:"id"`
	Number int     `json:"number"`
	Name   string  `json:"name"`
	Parts  []*Part `json:"parts"`
}

// Part belongs to exactly one Chapter.
type Part struct {
	ID       string     `json:"id"`
	Number   int        `json:"number"`
	Name     string     `json:"name"`
	Subparts []*Subpart `json:"subparts"`
}

// Subpart has a name but no number.
type Subpart struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Sections []*Section `json:"sections"`
}

// Section is a leaf holding raw text.
type Section struct {
	ID      string `json:"id"`
	Number  string `json:"number"`
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
}

// Counts returns the number of nodes at each level.
func (s *Structure) Counts() (chapters, parts, subparts, sections int) {
	if s == nil {
		return
	}
	for _, c := range s.Chapters {
		chapters++
		for _, p := range c.Parts {
			parts++
			for _, sp := range p.Subparts {
				subparts++
				sections += len(sp.Sections)
			}
		}
	}
	return
}

// AssignIDs derives every node identifier from its parent identifier and its
// own local number or name. Identifiers are positional, so a title's subtree
// is only ever replaced as a whole.
func (s *Structure) AssignIDs(titleNumber int) {
	if s == nil {
		return
	}
	for _, c := range s.Chapters {
		c.ID = fmt.Sprintf("title-%d/chapter-%d", titleNumber, c.Number)
		for _, p := range c.Parts {
			p.ID = fmt.Sprintf("%s/part-%d", c.ID, p.Number)
			for _, sp := range p.Subparts {
				sp.ID = fmt.Sprintf("%s/subpart-%s", p.ID, sp.Name)
				for _, sec := range sp.Sections {
					sec.ID = fmt.Sprintf("%s/section-%s", sp.ID, sec.Number)
				}
			}
		}
	}
}

// NodeKind discriminates a raw structure node by its label prefix.
type NodeKind string

const (
	NodeKindChapter NodeKind = "chapter"
	NodeKindPart    NodeKind = "part"
	NodeKindSubpart NodeKind = "subpart"
	NodeKindSection NodeKind = "section"
	NodeKindOther   NodeKind = "other"
)

// StructureNode is one node of the heterogeneous tree returned by the remote
// structure endpoint. Content is attached from the full-text body.
type StructureNode struct {
	Identifier  string           `json:"identifier"`
	Label       string           `json:"label"`
	Description string           `json:"label_description,omitempty"`
	Type        string           `json:"type,omitempty"`
	Reserved    bool             `json:"reserved,omitempty"`
	Content     string           `json:"-"`
	Children    []*StructureNode `json:"children,omitempty"`
}

// Walk visits n and all descendants depth-first.
func (n *StructureNode) Walk(fn func(*StructureNode)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
