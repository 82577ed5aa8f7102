package leave

import "strings"

// =============================================================================
// VALIDATOR - Gate between a candidate Request and the backend
// =============================================================================

// Advisory is the non-blocking metadata produced for an accepted request.
type Advisory struct {
	LeaveType LeaveTypeDefinition `json:"leaveType"`

	// RequiresDocumentation never blocks submission; the UI shows a notice.
	RequiresDocumentation bool `json:"requiresDocumentation"`

	// ExpectedDays is InclusiveDays(start, end). DaysOverridden is set when
	// the user typed a different TotalDays (allowed, up to the cap).
	ExpectedDays   int  `json:"expectedDays"`
	DaysOverridden bool `json:"daysOverridden"`
}

// Validate checks req against the catalog as of today.
//
// Checks run in a fixed order and stop at the first failure, because the
// first message is the one shown to the user:
//
//  1. leave type present          -> KindMissingLeaveType
//  2. leave type in catalog       -> KindUnknownLeaveType
//  3. both dates set, end >= start -> KindInvalidDateRange
//  4. start strictly after today  -> KindStartDateNotFuture
//  5. total days >= 1             -> KindInvalidDayCount
//  6. total days <= type cap      -> KindExceedsMaxDays
//  7. reason not blank            -> KindMissingReason
//
// Validate is pure: the same inputs always give the same answer.
func Validate(req Request, catalog *Catalog, today Date) (Advisory, error) {
	if strings.TrimSpace(req.LeaveTypeCode) == "" {
		return Advisory{}, newValidationError(KindMissingLeaveType)
	}

	def, err := catalog.Lookup(req.LeaveTypeCode)
	if err != nil {
		return Advisory{}, err
	}

	if req.StartDate.IsZero() || req.EndDate.IsZero() || req.EndDate.Before(req.StartDate) {
		return Advisory{}, newValidationError(KindInvalidDateRange)
	}

	if !req.StartDate.After(today) {
		return Advisory{}, newValidationError(KindStartDateNotFuture)
	}

	if req.TotalDays < 1 {
		return Advisory{}, newValidationError(KindInvalidDayCount)
	}

	if req.TotalDays > def.MaxDays {
		return Advisory{}, &ValidationError{
			Kind:      KindExceedsMaxDays,
			LeaveType: def.DisplayName,
			Requested: req.TotalDays,
			Allowed:   def.MaxDays,
		}
	}

	if strings.TrimSpace(req.Reason) == "" {
		return Advisory{}, newValidationError(KindMissingReason)
	}

	expected := InclusiveDays(req.StartDate, req.EndDate)
	return Advisory{
		LeaveType:             def,
		RequiresDocumentation: def.RequiresDocumentation,
		ExpectedDays:          expected,
		DaysOverridden:        expected != req.TotalDays,
	}, nil
}
