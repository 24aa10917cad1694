package ecfr

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// FullText is the text content extracted from a full-title XML document.
type FullText struct {
	// Sections maps a section number ("100.1") to its normalized text.
	Sections map[string]string
	// Body is the whole document as text, one block per line.
	Body string
	// Authority joins every AUTH note.
	Authority string
	// Source joins every SOURCE and CITA note.
	Source string
}

var blockElements = map[string]bool{
	"P": true, "FP": true, "HEAD": true, "HED": true, "PSPACE": true,
	"CITA": true, "AUTH": true, "SOURCE": true, "NOTE": true, "EXTRACT": true,
	"GPOTABLE": true, "ROW": true,
}

type divFrame struct {
	name    string
	section string
	text    strings.Builder
}

// ExtractText walks the full-title XML and collects section text, the whole
// body, and authority/source notes. DIV elements with TYPE="SECTION" delimit
// sections.
func ExtractText(data []byte) (*FullText, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	out := &FullText{Sections: make(map[string]string)}

	var (
		body      strings.Builder
		line      strings.Builder
		authority []string
		source    []string
		note      strings.Builder
		noteKind  string
		noteDepth int
		stack     []*divFrame
	)

	flushLine := func() {
		if s := normalizeSpace(line.String()); s != "" {
			body.WriteString(s)
			body.WriteByte('\n')
		}
		line.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := strings.ToUpper(t.Name.Local)
			if isDiv(name) {
				frame := &divFrame{name: name}
				if strings.EqualFold(attr(t, "TYPE"), "SECTION") {
					frame.section = sectionKey(attr(t, "N"))
				}
				stack = append(stack, frame)
			}
			if name == "AUTH" || name == "SOURCE" || name == "CITA" {
				if noteDepth == 0 {
					noteKind = name
					note.Reset()
				}
				noteDepth++
			}

		case xml.EndElement:
			name := strings.ToUpper(t.Name.Local)
			if blockElements[name] || isDiv(name) {
				flushLine()
				for _, f := range stack {
					f.text.WriteByte(' ')
				}
				note.WriteByte(' ')
			}
			if name == "AUTH" || name == "SOURCE" || name == "CITA" {
				noteDepth--
				if noteDepth == 0 {
					if s := normalizeSpace(note.String()); s != "" {
						if noteKind == "AUTH" {
							authority = append(authority, s)
						} else {
							source = append(source, s)
						}
					}
				}
			}
			if isDiv(name) && len(stack) > 0 {
				frame := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if frame.section != "" {
					out.Sections[frame.section] = normalizeSpace(frame.text.String())
				}
			}

		case xml.CharData:
			text := string(t)
			line.WriteString(text)
			if noteDepth > 0 {
				note.WriteString(text)
			}
			for _, f := range stack {
				if f.section != "" {
					f.text.WriteString(text)
				}
			}
		}
	}
	flushLine()

	out.Body = strings.TrimRight(body.String(), "\n")
	out.Authority = strings.Join(authority, "\n")
	out.Source = strings.Join(source, "\n")
	return out, nil
}

func isDiv(name string) bool {
	return len(name) == 4 && strings.HasPrefix(name, "DIV") && name[3] >= '1' && name[3] <= '9'
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value
		}
	}
	return ""
}

func sectionKey(n string) string {
	n = strings.TrimLeft(strings.TrimSpace(n), "§ ")
	if fields := strings.Fields(n); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
