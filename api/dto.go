/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures exchanged with the browser. Leave records and
  requests keep the backend's field names (leaveType, _id) so the SPA can
  treat portal and backend payloads alike.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done by leave.Validate and the portal service, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/warp/leave-portal/leave"
	"github.com/warp/leave-portal/report"
	"github.com/warp/leave-portal/session"
)

// =============================================================================
// SESSION
// =============================================================================

type SessionDTO struct {
	Teacher   leave.TeacherRef `json:"teacher"`
	IsAdmin   bool             `json:"isAdmin"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

func toSessionDTO(s session.Session) SessionDTO {
	return SessionDTO{
		Teacher:   s.Teacher,
		IsAdmin:   s.Teacher.IsAdmin(),
		ExpiresAt: s.ExpiresAt,
	}
}

// =============================================================================
// LEAVE TYPES AND FORM HELPERS
// =============================================================================

type DaysRequest struct {
	StartDate leave.Date `json:"startDate"`
	EndDate   leave.Date `json:"endDate"`
}

type DaysResponse struct {
	TotalDays int `json:"totalDays"`
}

type ValidateResponse struct {
	OK       bool           `json:"ok"`
	Advisory leave.Advisory `json:"advisory"`
}

// FormRequest applies one action to a form state.
type FormRequest struct {
	State  leave.FormState `json:"state"`
	Action json.RawMessage `json:"action"`
}

type FormResponse struct {
	State leave.FormState   `json:"state"`
	Usage *leave.LimitUsage `json:"usage,omitempty"`
}

// =============================================================================
// LEAVES
// =============================================================================

// LeaveDTO is a record plus catalog display metadata.
type LeaveDTO struct {
	leave.Record
	LeaveTypeLabel string `json:"leaveTypeLabel"`
	Color          string `json:"color,omitempty"`
	Icon           string `json:"icon,omitempty"`
}

type LeavesResponse struct {
	Leaves []LeaveDTO `json:"leaves"`
}

type ApplyResponse struct {
	Message  string         `json:"message"`
	Leave    LeaveDTO       `json:"leave"`
	Advisory leave.Advisory `json:"advisory"`
}

type ReviewResponse struct {
	Message string   `json:"message"`
	Leave   LeaveDTO `json:"leave"`
}

// FilterRequest mirrors report.Criteria with plain strings so an empty
// date field in the form decodes cleanly.
type FilterRequest struct {
	Department string `json:"department"`
	Status     string `json:"status"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

type FilterResponse struct {
	Leaves   []LeaveDTO `json:"leaves"`
	Total    int        `json:"total"`
	Pending  int        `json:"pending"`
	Approved int        `json:"approved"`
	Rejected int        `json:"rejected"`
}

type StatisticsResponse struct {
	Statistics report.Statistics `json:"statistics"`
}

type ReportResponse struct {
	Report report.Report `json:"report"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toLeaveDTO(catalog *leave.Catalog, r leave.Record) LeaveDTO {
	dto := LeaveDTO{Record: r, LeaveTypeLabel: r.LeaveTypeCode}
	if def, ok := catalog.Resolve(r.LeaveTypeCode); ok {
		dto.LeaveTypeLabel = def.DisplayName
		dto.Color = def.Color
		dto.Icon = def.Icon
	}
	return dto
}

func toLeaveDTOs(catalog *leave.Catalog, records []leave.Record) []LeaveDTO {
	out := make([]LeaveDTO, len(records))
	for i, r := range records {
		out[i] = toLeaveDTO(catalog, r)
	}
	return out
}

func (f FilterRequest) criteria() (report.Criteria, error) {
	start, err := leave.ParseDate(f.StartDate)
	if err != nil {
		return report.Criteria{}, err
	}
	end, err := leave.ParseDate(f.EndDate)
	if err != nil {
		return report.Criteria{}, err
	}
	return report.Criteria{
		Department: f.Department,
		Status:     f.Status,
		StartDate:  start,
		EndDate:    end,
	}, nil
}
