package report

import "github.com/warp/leave-portal/leave"

// =============================================================================
// REPORT - Filter then aggregate, shaped for the admin report screen
// =============================================================================

// Report is the assembled admin report. The backend's GET /reports/summary
// returns the same shape when aggregation is delegated to it.
type Report struct {
	Summary         Summary          `json:"summary"`
	DepartmentStats []DepartmentStat `json:"departmentStats"`
	MonthlyTrend    []MonthBucket    `json:"monthlyTrend"`
	LeaveTypeStats  []LeaveTypeStat  `json:"leaveTypeStats"`
	TopTeachers     []TeacherStat    `json:"topTeachers"`
	TimePeriod      TimePeriod       `json:"timePeriod"`
}

type Summary struct {
	TotalLeaves    int `json:"totalLeaves"`
	ApprovedLeaves int `json:"approvedLeaves"`
	PendingLeaves  int `json:"pendingLeaves"`
	RejectedLeaves int `json:"rejectedLeaves"`
	ApprovalRate   int `json:"approvalRate"`
	UsedDays       int `json:"usedDays"`
	TotalDays      int `json:"totalDays"`
}

// TimePeriod echoes the criteria the report was built with.
type TimePeriod struct {
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Department string `json:"department"`
}

const allTime = "All time"

// Build filters records by c and aggregates the result.
func Build(records []leave.Record, c Criteria) Report {
	stats := Aggregate(Filter(records, c))
	return Report{
		Summary: Summary{
			TotalLeaves:    stats.TotalLeaves,
			ApprovedLeaves: stats.ApprovedLeaves,
			PendingLeaves:  stats.PendingLeaves,
			RejectedLeaves: stats.RejectedLeaves,
			ApprovalRate:   stats.ApprovalRate,
			UsedDays:       stats.UsedDays,
			TotalDays:      stats.TotalDays,
		},
		DepartmentStats: stats.DepartmentStats,
		MonthlyTrend:    stats.MonthlyTrend,
		LeaveTypeStats:  stats.LeaveTypeStats,
		TopTeachers:     stats.TopTeachers,
		TimePeriod:      periodOf(c),
	}
}

func periodOf(c Criteria) TimePeriod {
	p := TimePeriod{StartDate: allTime, EndDate: allTime, Department: c.Department}
	if c.HasDateRange() {
		p.StartDate = c.StartDate.String()
		p.EndDate = c.EndDate.String()
	}
	if !active(p.Department) {
		p.Department = "All departments"
	}
	return p
}

// =============================================================================
// FILTERED VIEW - Records plus the status cards above the table
// =============================================================================

type View struct {
	Records  []leave.Record `json:"records"`
	Total    int            `json:"total"`
	Pending  int            `json:"pending"`
	Approved int            `json:"approved"`
	Rejected int            `json:"rejected"`
}

// NewView filters records and counts the result by status.
func NewView(records []leave.Record, c Criteria) View {
	filtered := Filter(records, c)
	v := View{Records: filtered, Total: len(filtered)}
	for _, r := range filtered {
		switch r.Status {
		case leave.StatusPending:
			v.Pending++
		case leave.StatusApproved:
			v.Approved++
		case leave.StatusRejected:
			v.Rejected++
		}
	}
	return v
}
