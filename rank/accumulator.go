package rank

import (
	"strings"

	"github.com/use-agent/serprank/models"
)

// Accumulator holds the ranked results of one query across pages.
// It is owned by a single query and is not safe for concurrent use.
type Accumulator struct {
	records []models.ResultRecord
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append ranks one page of entries after everything accumulated so far and
// returns the newly created records. Call it once per parsed page, in page
// order.
func (a *Accumulator) Append(entries []models.Entry) []models.ResultRecord {
	start := len(a.records)
	for i, e := range entries {
		a.records = append(a.records, models.ResultRecord{
			Title: e.Title,
			URL:   e.URL,
			Rank:  start + 1 + i,
		})
	}
	added := make([]models.ResultRecord, len(entries))
	copy(added, a.records[start:])
	return added
}

// FindTarget returns the lowest-ranked record whose url contains target.
// Matching is plain case-sensitive substring containment.
func (a *Accumulator) FindTarget(target string) (models.ResultRecord, bool) {
	for _, r := range a.records {
		if strings.Contains(r.URL, target) {
			return r, true
		}
	}
	return models.ResultRecord{}, false
}

// CountTop10 counts records ranked 10 or better whose url contains target.
func (a *Accumulator) CountTop10(target string) int {
	n := 0
	for _, r := range a.records {
		if r.Rank > models.Top10Rank {
			break
		}
		if strings.Contains(r.URL, target) {
			n++
		}
	}
	return n
}

// Len returns the number of accumulated records.
func (a *Accumulator) Len() int {
	return len(a.records)
}

// Records returns a copy of the accumulated records in rank order.
func (a *Accumulator) Records() []models.ResultRecord {
	out := make([]models.ResultRecord, len(a.records))
	copy(out, a.records)
	return out
}
