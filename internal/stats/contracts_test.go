package stats

import (
	"testing"
	"time"

	"github.com/mdyrsy/kalbar-cm/internal/model"
)

func TestWindowMonth(t *testing.T) {
	start, end := Window(2024, 2)

	wantStart := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestWindowDecemberRollsIntoNextYear(t *testing.T) {
	start, end := Window(2024, 12)

	if start.Month() != time.December || start.Year() != 2024 {
		t.Errorf("start = %v, want December 2024", start)
	}
	if end.Month() != time.January || end.Year() != 2025 {
		t.Errorf("end = %v, want January 2025", end)
	}
}

func TestWindowFullYear(t *testing.T) {
	start, end := Window(2024, 0)

	if !start.Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v, want 2024-01-01", start)
	}
	if !end.Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want 2025-01-01", end)
	}
}

// The window is start-inclusive and end-exclusive: a contract created at
// exactly the first instant of the month belongs to that month, one
// created at the first instant of the next month does not.
func TestWindowBoundaryMembership(t *testing.T) {
	start, end := Window(2024, 3)

	atStart := start
	atEnd := end

	inWindow := func(ts time.Time) bool {
		return !ts.Before(start) && ts.Before(end)
	}

	if !inWindow(atStart) {
		t.Error("contract created at window start must be included")
	}
	if inWindow(atEnd) {
		t.Error("contract created at window end must be excluded")
	}
}

func TestSummarize(t *testing.T) {
	contracts := []model.Contract{
		{Segment: model.SegmentPRQ, ContractValue: 100},
		{Segment: model.SegmentGovernment, ContractValue: 200},
		{Segment: "unknown", ContractValue: 50},
	}

	summary := Summarize(contracts)

	if summary.Total.Count != 3 {
		t.Errorf("total count = %d, want 3", summary.Total.Count)
	}
	if summary.Total.Sum != 350 {
		t.Errorf("total sum = %v, want 350", summary.Total.Sum)
	}

	if len(summary.PerSegment) != len(model.Segments) {
		t.Fatalf("per_segment has %d entries, want %d", len(summary.PerSegment), len(model.Segments))
	}

	want := map[string]SegmentTotals{
		model.SegmentGovernment: {Segment: model.SegmentGovernment, Count: 1, Sum: 200},
		model.SegmentBusiness:   {Segment: model.SegmentBusiness, Count: 0, Sum: 0},
		model.SegmentEnterprise: {Segment: model.SegmentEnterprise, Count: 0, Sum: 0},
		model.SegmentPRQ:        {Segment: model.SegmentPRQ, Count: 1, Sum: 100},
	}

	for _, entry := range summary.PerSegment {
		expected, ok := want[entry.Segment]
		if !ok {
			t.Errorf("unexpected segment %q in breakdown", entry.Segment)
			continue
		}
		if entry != expected {
			t.Errorf("segment %s = %+v, want %+v", entry.Segment, entry, expected)
		}
	}

	// The unknown segment is in the grand total but no bucket.
	var bucketed int64
	for _, entry := range summary.PerSegment {
		bucketed += entry.Count
	}
	if bucketed != 2 {
		t.Errorf("bucketed count = %d, want 2", bucketed)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	if summary.Total.Count != 0 || summary.Total.Sum != 0 {
		t.Errorf("empty summary total = %+v, want zeros", summary.Total)
	}
	if len(summary.PerSegment) != len(model.Segments) {
		t.Errorf("empty summary still lists %d segments, want %d", len(summary.PerSegment), len(model.Segments))
	}
	for _, entry := range summary.PerSegment {
		if entry.Count != 0 || entry.Sum != 0 {
			t.Errorf("segment %s not zeroed: %+v", entry.Segment, entry)
		}
	}
}
