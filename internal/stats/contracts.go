package stats

import (
	"time"

	"github.com/mdyrsy/kalbar-cm/internal/model"
)

// Window returns the [start, end) reporting period for contract
// statistics. A month of 0 selects the whole calendar year; otherwise
// the window covers that single month. Boundaries are UTC midnights,
// start inclusive and end exclusive.
func Window(year, month int) (start, end time.Time) {
	if month != 0 {
		start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		return start, end
	}
	start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(1, 0, 0)
	return start, end
}

// Totals is a contract count plus summed contract value.
type Totals struct {
	Count int64   `json:"count_contract"`
	Sum   float64 `json:"sum_contract_value"`
}

// SegmentTotals is the per-segment breakdown entry.
type SegmentTotals struct {
	Segment string  `json:"segment"`
	Count   int64   `json:"count_contract"`
	Sum     float64 `json:"sum_contract_value"`
}

// Summary is the aggregation result for one reporting period.
type Summary struct {
	Total      Totals          `json:"total"`
	PerSegment []SegmentTotals `json:"per_segment"`
}

// Summarize folds the period's contracts into a grand total and a
// per-segment breakdown in a single pass. Every known segment appears
// in the breakdown even when zero-valued. Contracts tagged with an
// unrecognized segment count toward the grand total but land in no
// per-segment bucket.
func Summarize(contracts []model.Contract) Summary {
	buckets := make(map[string]*SegmentTotals, len(model.Segments))
	perSegment := make([]SegmentTotals, len(model.Segments))
	for i, seg := range model.Segments {
		perSegment[i] = SegmentTotals{Segment: seg}
		buckets[seg] = &perSegment[i]
	}

	var total Totals
	for _, contract := range contracts {
		total.Count++
		total.Sum += contract.ContractValue

		if bucket, ok := buckets[contract.Segment]; ok {
			bucket.Count++
			bucket.Sum += contract.ContractValue
		}
	}

	return Summary{Total: total, PerSegment: perSegment}
}
