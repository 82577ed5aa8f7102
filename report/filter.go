/*
Package report turns collections of leave records into filtered views,
statistics and exports.

PURPOSE:
  Everything here is a free function over plain data. Records come in as a
  slice fetched from the backend; nothing is cached, locked or mutated.
  Callers re-run Filter/Aggregate after every refresh.

DATA FLOW:
  []leave.Record --Filter(criteria)--> []leave.Record --Aggregate--> Statistics
                                                      \--RecordRows--> WriteCSV / WriteXLSX

SEE ALSO:
  - aggregate.go: Statistics engine
  - report.go: Full report assembly
  - export.go: CSV and XLSX writers
*/
package report

import (
	"github.com/warp/leave-portal/leave"
)

// All is the criteria sentinel meaning "do not filter on this field".
const All = "all"

// Criteria narrows a record collection. Empty strings behave like All.
type Criteria struct {
	Department string     `json:"department"`
	Status     string     `json:"status"`
	StartDate  leave.Date `json:"startDate"`
	EndDate    leave.Date `json:"endDate"`
}

// HasDateRange reports whether the date predicate is active. Both ends must
// be supplied; a single bound means no date filtering at all.
func (c Criteria) HasDateRange() bool {
	return !c.StartDate.IsZero() && !c.EndDate.IsZero()
}

// Match reports whether r satisfies every active predicate.
func (c Criteria) Match(r leave.Record) bool {
	if active(c.Department) && r.Teacher.Department != c.Department {
		return false
	}
	if active(c.Status) && string(r.Status) != c.Status {
		return false
	}
	if c.HasDateRange() {
		// Day granularity: EndDate includes the whole day.
		if r.StartDate.Before(c.StartDate) || r.StartDate.After(c.EndDate) {
			return false
		}
	}
	return true
}

// Filter returns the records matching c, in input order.
// The input slice is never modified.
func Filter(records []leave.Record, c Criteria) []leave.Record {
	out := make([]leave.Record, 0, len(records))
	for _, r := range records {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func active(v string) bool {
	return v != "" && v != All
}
