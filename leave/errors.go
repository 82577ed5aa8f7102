/*
errors.go - Error taxonomy for leave validation and review

PURPOSE:
  All validation failures are local, recoverable and user-correctable.
  They are returned as *ValidationError values whose Error() text is shown
  verbatim to the user, and which unwrap to a sentinel for errors.Is.

ERROR CATEGORIES:
  1. Request validation - MissingLeaveType .. MissingReason (order matters)
  2. Catalog lookup     - UnknownLeaveType (also returned by Lookup)
  3. Review             - invalid status transition, missing rejection notes

USAGE:
  if _, err := leave.Validate(req, catalog, leave.Today()); err != nil {
      var verr *leave.ValidationError
      if errors.As(err, &verr) && verr.Kind == leave.KindExceedsMaxDays {
          fmt.Println(verr.Requested, verr.Allowed)
      }
  }

SEE ALSO:
  - validator.go: Produces ValidationError
  - status.go: Produces review errors
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrMissingLeaveType   = errors.New("missing leave type")
	ErrUnknownLeaveType   = errors.New("unknown leave type")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrStartDateNotFuture = errors.New("start date not in the future")
	ErrInvalidDayCount    = errors.New("invalid day count")
	ErrExceedsMaxDays     = errors.New("exceeds maximum days")
	ErrMissingReason      = errors.New("missing reason")

	// ErrInvalidTransition is returned for any status change other than
	// Pending -> Approved or Pending -> Rejected.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrReviewNotesRequired is returned when rejecting without notes.
	ErrReviewNotesRequired = errors.New("review notes required for rejection")
)

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// Kind identifies a validation failure. The string value is the stable
// machine-readable code sent to clients.
type Kind string

const (
	KindMissingLeaveType   Kind = "missing_leave_type"
	KindUnknownLeaveType   Kind = "unknown_leave_type"
	KindInvalidDateRange   Kind = "invalid_date_range"
	KindStartDateNotFuture Kind = "start_date_not_future"
	KindInvalidDayCount    Kind = "invalid_day_count"
	KindExceedsMaxDays     Kind = "exceeds_max_days"
	KindMissingReason      Kind = "missing_reason"
)

var kindSentinels = map[Kind]error{
	KindMissingLeaveType:   ErrMissingLeaveType,
	KindUnknownLeaveType:   ErrUnknownLeaveType,
	KindInvalidDateRange:   ErrInvalidDateRange,
	KindStartDateNotFuture: ErrStartDateNotFuture,
	KindInvalidDayCount:    ErrInvalidDayCount,
	KindExceedsMaxDays:     ErrExceedsMaxDays,
	KindMissingReason:      ErrMissingReason,
}

// ValidationError describes why a request was refused.
type ValidationError struct {
	Kind Kind

	// LeaveType is the code (or, once resolved, the display name) involved.
	LeaveType string

	// Requested and Allowed are set for KindExceedsMaxDays.
	Requested int
	Allowed   int
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMissingLeaveType:
		return "Please select a leave type."
	case KindUnknownLeaveType:
		return "Invalid leave type selected."
	case KindInvalidDateRange:
		return "Please select a valid date range: end date must be on or after start date."
	case KindStartDateNotFuture:
		return "Leave must start after today."
	case KindInvalidDayCount:
		return "Total days must be at least 1."
	case KindExceedsMaxDays:
		return fmt.Sprintf("%s cannot exceed %d days.", e.LeaveType, e.Allowed)
	case KindMissingReason:
		return "Please provide a reason for your leave."
	default:
		return string(e.Kind)
	}
}

func (e *ValidationError) Unwrap() error {
	return kindSentinels[e.Kind]
}

func newValidationError(kind Kind) *ValidationError {
	return &ValidationError{Kind: kind}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsReviewError reports whether err is a local review rule violation.
func IsReviewError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrReviewNotesRequired)
}
