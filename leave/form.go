/*
form.go - Immutable leave application form state

PURPOSE:
  Replaces per-field setters scattered through UI handlers with a single
  value plus a pure reducer: Reduce(state, action) returns a new state and
  never mutates its input. Validation stays in Validate; the reducer only
  keeps the fields mutually consistent while the user types.

RULES APPLIED BY THE REDUCER:
  SelectLeaveType  caps TotalDays at the new type's MaxDays
  SetStartDate     clears EndDate if it is now before start,
                   otherwise recomputes TotalDays from the range
  SetEndDate       recomputes TotalDays when start is set and end >= start
  SetTotalDays     clamps to [1, MaxDays of the selected type]
  SetReason        replaces the reason text
  ResetForm        returns NewFormState()

  Every recomputed day count is capped at the selected type's MaxDays.

EXAMPLE:
  r := leave.FormReducer{Catalog: leave.DefaultCatalog()}
  s := leave.NewFormState()
  s = r.Reduce(s, leave.SelectLeaveType{Code: "SICK"})
  s = r.Reduce(s, leave.SetStartDate{Date: tomorrow})
  s = r.Reduce(s, leave.SetEndDate{Date: tomorrow.AddDays(9)})
  // s.TotalDays == 7 (capped)
*/
package leave

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// FormState is the full content of the application form.
type FormState struct {
	LeaveTypeCode string `json:"leaveType"`
	StartDate     Date   `json:"startDate"`
	EndDate       Date   `json:"endDate"`
	TotalDays     int    `json:"totalDays"`
	Reason        string `json:"reason"`
}

// NewFormState returns the empty form (one day, nothing selected).
func NewFormState() FormState {
	return FormState{TotalDays: 1}
}

// Request converts the form into a candidate request for Validate.
func (s FormState) Request() Request {
	return Request{
		LeaveTypeCode: s.LeaveTypeCode,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		TotalDays:     s.TotalDays,
		Reason:        s.Reason,
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

// FormAction is one user edit. The set of actions is closed.
type FormAction interface {
	formAction()
}

type (
	SelectLeaveType struct{ Code string }
	SetStartDate    struct{ Date Date }
	SetEndDate      struct{ Date Date }
	SetTotalDays    struct{ Days int }
	SetReason       struct{ Text string }
	ResetForm       struct{}
)

func (SelectLeaveType) formAction() {}
func (SetStartDate) formAction()    {}
func (SetEndDate) formAction()      {}
func (SetTotalDays) formAction()    {}
func (SetReason) formAction()       {}
func (ResetForm) formAction()       {}

// ActionEnvelope is the JSON shape of an action:
//
//	{"type": "set_start_date", "date": "2025-03-10"}
type ActionEnvelope struct {
	Type string `json:"type"`
	Code string `json:"code,omitempty"`
	Date Date   `json:"date,omitempty"`
	Days int    `json:"days,omitempty"`
	Text string `json:"text,omitempty"`
}

// DecodeAction turns a JSON action into a FormAction.
func DecodeAction(data []byte) (FormAction, error) {
	var env ActionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid form action: %w", err)
	}
	return env.Action()
}

func (e ActionEnvelope) Action() (FormAction, error) {
	switch e.Type {
	case "select_leave_type":
		return SelectLeaveType{Code: e.Code}, nil
	case "set_start_date":
		return SetStartDate{Date: e.Date}, nil
	case "set_end_date":
		return SetEndDate{Date: e.Date}, nil
	case "set_total_days":
		return SetTotalDays{Days: e.Days}, nil
	case "set_reason":
		return SetReason{Text: e.Text}, nil
	case "reset":
		return ResetForm{}, nil
	default:
		return nil, fmt.Errorf("unknown form action %q", e.Type)
	}
}

// =============================================================================
// REDUCER
// =============================================================================

// FormReducer applies actions using the catalog for day caps.
type FormReducer struct {
	Catalog *Catalog
}

// Reduce returns the state after applying action. s is not modified.
func (r FormReducer) Reduce(s FormState, action FormAction) FormState {
	next := s

	switch a := action.(type) {
	case SelectLeaveType:
		next.LeaveTypeCode = a.Code
		next.TotalDays = r.capDays(next.LeaveTypeCode, next.TotalDays)

	case SetStartDate:
		next.StartDate = a.Date
		if !next.EndDate.IsZero() && next.EndDate.Before(next.StartDate) {
			next.EndDate = Date{}
		} else if !next.EndDate.IsZero() && !next.StartDate.IsZero() {
			next.TotalDays = r.capDays(next.LeaveTypeCode, InclusiveDays(next.StartDate, next.EndDate))
		}

	case SetEndDate:
		next.EndDate = a.Date
		if !next.StartDate.IsZero() && !next.EndDate.IsZero() && !next.EndDate.Before(next.StartDate) {
			next.TotalDays = r.capDays(next.LeaveTypeCode, InclusiveDays(next.StartDate, next.EndDate))
		}

	case SetTotalDays:
		days := a.Days
		if days < 1 {
			days = 1
		}
		next.TotalDays = r.capDays(next.LeaveTypeCode, days)

	case SetReason:
		next.Reason = a.Text

	case ResetForm:
		next = NewFormState()
	}

	return next
}

// capDays limits days to the type's cap. Unknown or empty types leave the
// value alone; Validate reports them.
func (r FormReducer) capDays(code string, days int) int {
	if r.Catalog == nil || code == "" {
		return days
	}
	def, err := r.Catalog.Lookup(code)
	if err != nil {
		return days
	}
	if days > def.MaxDays {
		return def.MaxDays
	}
	return days
}

// =============================================================================
// LIMIT USAGE - "5 / 7 days, 71% of limit"
// =============================================================================

type LimitUsage struct {
	Days     int  `json:"days"`
	MaxDays  int  `json:"maxDays"`
	Percent  int  `json:"percent"`
	Exceeded bool `json:"exceeded"`
}

// LimitUsage reports how much of the selected type's cap the form uses.
// ok is false when no known type is selected.
func (s FormState) LimitUsage(catalog *Catalog) (usage LimitUsage, ok bool) {
	def, err := catalog.Lookup(s.LeaveTypeCode)
	if err != nil {
		return LimitUsage{}, false
	}
	pct := decimal.NewFromInt(int64(s.TotalDays)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(def.MaxDays))).
		Round(0)
	return LimitUsage{
		Days:     s.TotalDays,
		MaxDays:  def.MaxDays,
		Percent:  int(pct.IntPart()),
		Exceeded: s.TotalDays > def.MaxDays,
	}, true
}
