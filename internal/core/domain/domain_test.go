package domain

import (
	"math"
	"testing"
	"time"
)

func TestNewActivityMetrics(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name                         string
		oldTotal, newTotal           int
		wantNew, wantMod, wantDelete int
	}{
		{"growth", 100, 150, 50, 50, 0},
		{"shrink", 150, 100, 0, 50, 50},
		{"unchanged", 100, 100, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewActivityMetrics("epa", 40, tt.oldTotal, tt.newTotal, now)
			if m.NewWords != tt.wantNew {
				t.Errorf("NewWords = %d, want %d", m.NewWords, tt.wantNew)
			}
			if m.ModifiedWords != tt.wantMod {
				t.Errorf("ModifiedWords = %d, want %d", m.ModifiedWords, tt.wantMod)
			}
			if m.DeletedWords != tt.wantDelete {
				t.Errorf("DeletedWords = %d, want %d", m.DeletedWords, tt.wantDelete)
			}
			if m.TotalWords != tt.newTotal {
				t.Errorf("TotalWords = %d, want %d", m.TotalWords, tt.newTotal)
			}
		})
	}
}

func TestTextMetrics_Defined(t *testing.T) {
	ok := &TextMetrics{AvgWordLength: 4.2, AvgSentenceLength: 12}
	if !ok.Defined() {
		t.Error("expected finite metrics to be defined")
	}

	nan := &TextMetrics{AvgWordLength: math.NaN(), AvgSentenceLength: 3}
	if nan.Defined() {
		t.Error("expected NaN average to be undefined")
	}

	inf := &TextMetrics{AvgWordLength: 3, AvgSentenceLength: math.Inf(1)}
	if inf.Defined() {
		t.Error("expected infinite average to be undefined")
	}
}

func TestStructure_AssignIDs(t *testing.T) {
	s := &Structure{Chapters: []*Chapter{{
		Number: 1,
		Parts: []*Part{{
			Number: 100,
			Subparts: []*Subpart{{
				Name:     "A",
				Sections: []*Section{{Number: "100.1"}},
			}},
		}},
	}}}

	s.AssignIDs(40)

	ch := s.Chapters[0]
	if ch.ID != "title-40/chapter-1" {
		t.Errorf("chapter id = %s", ch.ID)
	}
	part := ch.Parts[0]
	if part.ID != "title-40/chapter-1/part-100" {
		t.Errorf("part id = %s", part.ID)
	}
	sub := part.Subparts[0]
	if sub.ID != "title-40/chapter-1/part-100/subpart-A" {
		t.Errorf("subpart id = %s", sub.ID)
	}
	if sub.Sections[0].ID != "title-40/chapter-1/part-100/subpart-A/section-100.1" {
		t.Errorf("section id = %s", sub.Sections[0].ID)
	}

	c, p, sp, sec := s.Counts()
	if c != 1 || p != 1 || sp != 1 || sec != 1 {
		t.Errorf("counts = %d %d %d %d", c, p, sp, sec)
	}
}

func TestCheckpoint_Clone(t *testing.T) {
	id := "epa"
	n := 40
	cp := &Checkpoint{LastAgencyID: &id, LastTitleNumber: &n, Progress: Progress{AgenciesProcessed: 2}}

	clone := cp.Clone()
	*clone.LastAgencyID = "doe"
	*clone.LastTitleNumber = 10
	clone.Progress.AgenciesProcessed = 9

	if cp.AgencyID() != "epa" || *cp.LastTitleNumber != 40 || cp.Progress.AgenciesProcessed != 2 {
		t.Error("clone must not alias the original")
	}

	var nilCP *Checkpoint
	if nilCP.Clone() != nil {
		t.Error("clone of nil is nil")
	}
	if nilCP.AgencyID() != "" {
		t.Error("nil checkpoint has no agency")
	}
}

func TestParseChangeType(t *testing.T) {
	tests := map[string]ChangeType{
		"add":      ChangeTypeAdd,
		"Removed":  ChangeTypeRemove,
		"reserved": ChangeTypeReserve,
		"modify":   ChangeTypeModify,
		"":         ChangeTypeModify,
	}
	for in, want := range tests {
		if got := ParseChangeType(in); got != want {
			t.Errorf("ParseChangeType(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestRunOptions_WantsTitle(t *testing.T) {
	all := RunOptions{}
	if !all.WantsTitle(7) {
		t.Error("empty filter accepts every title")
	}

	some := RunOptions{Titles: []int{1, 40}}
	if !some.WantsTitle(40) || some.WantsTitle(7) {
		t.Error("filter must accept only listed titles")
	}
}
