/*
Package leave provides the staff leave policy and validation core.

PURPOSE:
  This package holds the pure, side-effect free rules of the leave portal:
  which leave types exist and how long they may be, whether a candidate
  request may be submitted, how many days a date range covers, and which
  review decisions are legal. Nothing here performs I/O or logs.

KEY CONCEPTS IN THIS FILE (types.go):
  - LeaveTypeDefinition: A catalog entry (code, cap, documentation flag)
  - Request: A candidate request being filled in by a teacher
  - Record: A submitted leave as owned and returned by the backend
  - Status: Pending, Approved or Rejected

DATA FLOW:
  Request --Validate--> backend --> Record --report.Filter--> report.Aggregate

SEE ALSO:
  - catalog.go: Static leave type catalog
  - validator.go: Request validation
  - form.go: Form state reducer
  - status.go: Review transitions
*/
package leave

import (
	"encoding/json"
	"strings"
)

// =============================================================================
// LEAVE TYPE DEFINITION - Catalog entry
// =============================================================================

// LeaveTypeDefinition is immutable once the catalog is loaded.
type LeaveTypeDefinition struct {
	Code                  string `json:"code" yaml:"code"`
	DisplayName           string `json:"displayName" yaml:"display_name"`
	MaxDays               int    `json:"maxDays" yaml:"max_days"`
	RequiresDocumentation bool   `json:"requiresDocumentation" yaml:"requires_documentation"`
	Description           string `json:"description" yaml:"description"`

	// Display metadata for the rendering layer.
	Color string `json:"color,omitempty" yaml:"color"`
	Icon  string `json:"icon,omitempty" yaml:"icon"`
}

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// StatusAll is the filter sentinel meaning "any status".
const StatusAll = "all"

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// =============================================================================
// TEACHER REFERENCE
// =============================================================================

// TeacherRef is the subset of the teacher profile embedded in records.
type TeacherRef struct {
	ID         string `json:"_id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department"`
	Role       string `json:"role,omitempty"`
}

// Key identifies a teacher for grouping. Falls back to email, then name,
// for records that arrive without an id.
func (t TeacherRef) Key() string {
	switch {
	case t.ID != "":
		return t.ID
	case t.Email != "":
		return strings.ToLower(t.Email)
	default:
		return t.Name
	}
}

// UnmarshalJSON accepts a populated profile or, for unpopulated records,
// a bare id string.
func (t *TeacherRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*t = TeacherRef{ID: id}
		return nil
	}
	type plain TeacherRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = TeacherRef(p)
	return nil
}

// IsAdmin reports whether the backend marked this profile as an administrator.
func (t TeacherRef) IsAdmin() bool {
	return t.Role == "admin"
}

// =============================================================================
// REQUEST - Candidate leave, before submission
// =============================================================================

// Request is consumed exactly once by Validate, then either discarded or
// sent to the backend.
type Request struct {
	LeaveTypeCode string `json:"leaveType"`
	StartDate     Date   `json:"startDate"`
	EndDate       Date   `json:"endDate"`
	TotalDays     int    `json:"totalDays"`
	Reason        string `json:"reason"`
}

// =============================================================================
// RECORD - Submitted leave, owned by the backend
// =============================================================================

// Record is read-only here. Status transitions happen through the backend.
type Record struct {
	ID            string     `json:"_id"`
	Teacher       TeacherRef `json:"teacher"`
	LeaveTypeCode string     `json:"leaveType"`
	StartDate     Date       `json:"startDate"`
	EndDate       Date       `json:"endDate"`
	TotalDays     int        `json:"totalDays"`
	Reason        string     `json:"reason"`
	Status        Status     `json:"status"`
	AppliedDate   Date       `json:"appliedDate"`
	ReviewedBy    *Reviewer  `json:"reviewedBy,omitempty"`
	ReviewNotes   *string    `json:"reviewNotes,omitempty"`
}

// Reviewer is the admin who decided a record. The backend sends either a
// bare id or a populated profile object.
type Reviewer struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"name,omitempty"`
}

func (r *Reviewer) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Reviewer{ID: id}
		return nil
	}
	type plain Reviewer
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Reviewer(p)
	return nil
}
