package leave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-portal/leave"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var today = leave.MustParseDate("2025-03-01")

func validRequest() leave.Request {
	return leave.Request{
		LeaveTypeCode: "SICK",
		StartDate:     leave.MustParseDate("2025-03-10"),
		EndDate:       leave.MustParseDate("2025-03-12"),
		TotalDays:     3,
		Reason:        "Flu",
	}
}

func requireKind(t *testing.T, err error, kind leave.Kind) *leave.ValidationError {
	t.Helper()
	var verr *leave.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, kind, verr.Kind)
	return verr
}

// =============================================================================
// ACCEPTANCE
// =============================================================================

func TestValidate_ValidRequest_Accepted(t *testing.T) {
	// GIVEN: A 3-day sick leave starting after today
	// WHEN: Validating
	// THEN: Accepted, with the definition and expected day count attached

	adv, err := leave.Validate(validRequest(), leave.DefaultCatalog(), today)

	require.NoError(t, err)
	assert.Equal(t, "SICK", adv.LeaveType.Code)
	assert.Equal(t, 3, adv.ExpectedDays)
	assert.False(t, adv.DaysOverridden)
	assert.False(t, adv.RequiresDocumentation)
}

func TestValidate_DocumentationFlag_IsAdvisoryOnly(t *testing.T) {
	// GIVEN: A maternity request (documentation required)
	// WHEN: Validating
	// THEN: Accepted; the flag is reported, not enforced

	req := validRequest()
	req.LeaveTypeCode = "MATERNITY"

	adv, err := leave.Validate(req, leave.DefaultCatalog(), today)

	require.NoError(t, err)
	assert.True(t, adv.RequiresDocumentation)
}

func TestValidate_ManualDayOverride_FlaggedNotRejected(t *testing.T) {
	// GIVEN: A 3-day range but the user typed 2 days
	// WHEN: Validating
	// THEN: Accepted with DaysOverridden set

	req := validRequest()
	req.TotalDays = 2

	adv, err := leave.Validate(req, leave.DefaultCatalog(), today)

	require.NoError(t, err)
	assert.Equal(t, 3, adv.ExpectedDays)
	assert.True(t, adv.DaysOverridden)
}

func TestValidate_ExactlyMaxDays_Accepted(t *testing.T) {
	req := validRequest()
	req.EndDate = req.StartDate.AddDays(6)
	req.TotalDays = 7

	_, err := leave.Validate(req, leave.DefaultCatalog(), today)
	assert.NoError(t, err)
}

// =============================================================================
// REJECTIONS
// =============================================================================

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *leave.Request)
		kind   leave.Kind
		target error
	}{
		{"missing type", func(r *leave.Request) { r.LeaveTypeCode = "  " }, leave.KindMissingLeaveType, leave.ErrMissingLeaveType},
		{"unknown type", func(r *leave.Request) { r.LeaveTypeCode = "SABBATICAL" }, leave.KindUnknownLeaveType, leave.ErrUnknownLeaveType},
		{"missing start", func(r *leave.Request) { r.StartDate = leave.Date{} }, leave.KindInvalidDateRange, leave.ErrInvalidDateRange},
		{"missing end", func(r *leave.Request) { r.EndDate = leave.Date{} }, leave.KindInvalidDateRange, leave.ErrInvalidDateRange},
		{"end before start", func(r *leave.Request) { r.EndDate = r.StartDate.AddDays(-1) }, leave.KindInvalidDateRange, leave.ErrInvalidDateRange},
		{"start is today", func(r *leave.Request) { r.StartDate = today; r.EndDate = today.AddDays(1) }, leave.KindStartDateNotFuture, leave.ErrStartDateNotFuture},
		{"start in past", func(r *leave.Request) { r.StartDate = today.AddDays(-3) }, leave.KindStartDateNotFuture, leave.ErrStartDateNotFuture},
		{"zero days", func(r *leave.Request) { r.TotalDays = 0 }, leave.KindInvalidDayCount, leave.ErrInvalidDayCount},
		{"negative days", func(r *leave.Request) { r.TotalDays = -2 }, leave.KindInvalidDayCount, leave.ErrInvalidDayCount},
		{"blank reason", func(r *leave.Request) { r.Reason = " \t\n" }, leave.KindMissingReason, leave.ErrMissingReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := leave.Validate(req, leave.DefaultCatalog(), today)

			requireKind(t, err, tt.kind)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, leave.IsValidationError(err))
		})
	}
}

func TestValidate_SickEightDays_ExceedsMaxDays(t *testing.T) {
	// GIVEN: An 8-day sick leave (cap is 7)
	// WHEN: Validating
	// THEN: ExceedsMaxDays with requested 8, allowed 7 and a readable message

	req := validRequest()
	req.EndDate = req.StartDate.AddDays(7)
	req.TotalDays = 8

	_, err := leave.Validate(req, leave.DefaultCatalog(), today)

	verr := requireKind(t, err, leave.KindExceedsMaxDays)
	assert.Equal(t, 8, verr.Requested)
	assert.Equal(t, 7, verr.Allowed)
	assert.Equal(t, "Sick Leave cannot exceed 7 days.", err.Error())
}

func TestValidate_CheckOrder_FirstFailureWins(t *testing.T) {
	// GIVEN: A request that is wrong in several ways at once
	// WHEN: Validating
	// THEN: Only the earliest failing check is reported

	req := leave.Request{
		LeaveTypeCode: "SICK",
		StartDate:     today.AddDays(-1),
		EndDate:       today.AddDays(-5),
		TotalDays:     0,
		Reason:        "",
	}
	_, err := leave.Validate(req, leave.DefaultCatalog(), today)
	requireKind(t, err, leave.KindInvalidDateRange)

	req.EndDate = today.AddDays(20)
	_, err = leave.Validate(req, leave.DefaultCatalog(), today)
	requireKind(t, err, leave.KindStartDateNotFuture)

	req.StartDate = today.AddDays(1)
	_, err = leave.Validate(req, leave.DefaultCatalog(), today)
	requireKind(t, err, leave.KindInvalidDayCount)

	req.TotalDays = 40
	_, err = leave.Validate(req, leave.DefaultCatalog(), today)
	requireKind(t, err, leave.KindExceedsMaxDays)

	req.TotalDays = 5
	_, err = leave.Validate(req, leave.DefaultCatalog(), today)
	requireKind(t, err, leave.KindMissingReason)
}

func TestValidate_IsDeterministic(t *testing.T) {
	req := validRequest()
	req.TotalDays = 99

	_, err1 := leave.Validate(req, leave.DefaultCatalog(), today)
	_, err2 := leave.Validate(req, leave.DefaultCatalog(), today)

	assert.Equal(t, err1, err2)
}
