package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-portal/leave"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// TrendMonths is how many of the most recent months present in the data
	// are kept in MonthlyTrend. Empty months are absent, not zero-filled.
	TrendMonths = 6

	// TopTeachersLimit caps the TopTeachers ranking.
	TopTeachersLimit = 10

	// UnassignedDepartment groups records whose teacher has no department.
	UnassignedDepartment = "Unassigned"

	monthLabelLayout = "Jan 2006"
)

// =============================================================================
// STATISTICS - Result of Aggregate
// =============================================================================

type Statistics struct {
	TotalLeaves    int `json:"totalLeaves"`
	ApprovedLeaves int `json:"approvedLeaves"`
	PendingLeaves  int `json:"pendingLeaves"`
	RejectedLeaves int `json:"rejectedLeaves"`

	// ApprovalRate is a whole percentage, 0 for an empty input.
	ApprovalRate int `json:"approvalRate"`

	// UsedDays sums approved records only; TotalDays sums every record.
	UsedDays  int `json:"usedDays"`
	TotalDays int `json:"totalDays"`

	MonthlyTrend    []MonthBucket    `json:"monthlyTrend"`
	DepartmentStats []DepartmentStat `json:"departmentStats"`
	LeaveTypeStats  []LeaveTypeStat  `json:"leaveTypeStats"`
	TopTeachers     []TeacherStat    `json:"topTeachers"`
}

type MonthBucket struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Label string     `json:"label"`
	Count int        `json:"count"`
}

type DepartmentStat struct {
	Department string `json:"department"`
	Total      int    `json:"total"`
	Approved   int    `json:"approved"`
	Pending    int    `json:"pending"`
}

type LeaveTypeStat struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type TeacherStat struct {
	Teacher        string `json:"teacher"`
	Department     string `json:"department"`
	TotalLeaves    int    `json:"totalLeaves"`
	ApprovedLeaves int    `json:"approvedLeaves"`
	TotalDays      int    `json:"totalDays"`
}

// =============================================================================
// AGGREGATE
// =============================================================================

// Aggregate reduces records to Statistics in one pass plus per-group sorts.
//
// Counts and sums do not depend on input order. Group order is first
// appearance in the input, and every sort is stable, so the same input
// always produces the same output.
func Aggregate(records []leave.Record) Statistics {
	stats := Statistics{
		MonthlyTrend:    []MonthBucket{},
		DepartmentStats: []DepartmentStat{},
		LeaveTypeStats:  []LeaveTypeStat{},
		TopTeachers:     []TeacherStat{},
	}

	months := map[monthKey]int{}
	departments := map[string]int{}
	types := map[string]int{}
	teachers := map[string]int{}

	for _, r := range records {
		stats.TotalLeaves++
		stats.TotalDays += r.TotalDays

		approved := r.Status == leave.StatusApproved
		pending := r.Status == leave.StatusPending
		switch r.Status {
		case leave.StatusApproved:
			stats.ApprovedLeaves++
			stats.UsedDays += r.TotalDays
		case leave.StatusPending:
			stats.PendingLeaves++
		case leave.StatusRejected:
			stats.RejectedLeaves++
		}

		if !r.AppliedDate.IsZero() {
			k := monthKey{r.AppliedDate.Year(), r.AppliedDate.Month()}
			i, ok := months[k]
			if !ok {
				i = len(stats.MonthlyTrend)
				months[k] = i
				stats.MonthlyTrend = append(stats.MonthlyTrend, MonthBucket{
					Year:  k.year,
					Month: k.month,
					Label: time.Date(k.year, k.month, 1, 0, 0, 0, 0, time.UTC).Format(monthLabelLayout),
				})
			}
			stats.MonthlyTrend[i].Count++
		}

		dept := r.Teacher.Department
		if dept == "" {
			dept = UnassignedDepartment
		}
		i, ok := departments[dept]
		if !ok {
			i = len(stats.DepartmentStats)
			departments[dept] = i
			stats.DepartmentStats = append(stats.DepartmentStats, DepartmentStat{Department: dept})
		}
		stats.DepartmentStats[i].Total++
		if approved {
			stats.DepartmentStats[i].Approved++
		}
		if pending {
			stats.DepartmentStats[i].Pending++
		}

		i, ok = types[r.LeaveTypeCode]
		if !ok {
			i = len(stats.LeaveTypeStats)
			types[r.LeaveTypeCode] = i
			stats.LeaveTypeStats = append(stats.LeaveTypeStats, LeaveTypeStat{Type: r.LeaveTypeCode})
		}
		stats.LeaveTypeStats[i].Count++

		key := r.Teacher.Key()
		i, ok = teachers[key]
		if !ok {
			i = len(stats.TopTeachers)
			teachers[key] = i
			stats.TopTeachers = append(stats.TopTeachers, TeacherStat{
				Teacher:    r.Teacher.Name,
				Department: r.Teacher.Department,
			})
		}
		stats.TopTeachers[i].TotalLeaves++
		stats.TopTeachers[i].TotalDays += r.TotalDays
		if approved {
			stats.TopTeachers[i].ApprovedLeaves++
		}
	}

	stats.ApprovalRate = approvalRate(stats.ApprovedLeaves, stats.TotalLeaves)
	stats.MonthlyTrend = lastMonths(stats.MonthlyTrend, TrendMonths)
	stats.TopTeachers = rankTeachers(stats.TopTeachers, TopTeachersLimit)

	return stats
}

type monthKey struct {
	year  int
	month time.Month
}

// approvalRate rounds half away from zero, so 2/3 -> 67 and 1/8 -> 13.
func approvalRate(approved, total int) int {
	if total == 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(approved)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(0)
	return int(rate.IntPart())
}

func lastMonths(buckets []MonthBucket, n int) []MonthBucket {
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Year != buckets[j].Year {
			return buckets[i].Year < buckets[j].Year
		}
		return buckets[i].Month < buckets[j].Month
	})
	if len(buckets) > n {
		buckets = buckets[len(buckets)-n:]
	}
	return buckets
}

func rankTeachers(ts []TeacherStat, n int) []TeacherStat {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].TotalDays != ts[j].TotalDays {
			return ts[i].TotalDays > ts[j].TotalDays
		}
		return ts[i].TotalLeaves > ts[j].TotalLeaves
	})
	if len(ts) > n {
		ts = ts[:n]
	}
	return ts
}
