package leave_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-portal/leave"
)

func TestInclusiveDays(t *testing.T) {
	d := leave.NewDate(2024, time.February, 27)

	assert.Equal(t, 1, leave.InclusiveDays(d, d))
	assert.Equal(t, 3, leave.InclusiveDays(d, d.AddDays(2)))
	// leap year: Feb 27 .. Mar 1 2024
	assert.Equal(t, 4, leave.InclusiveDays(d, leave.NewDate(2024, time.March, 1)))
}

func TestInclusiveDays_AcrossDSTBoundary(t *testing.T) {
	start := leave.MustParseDate("2025-03-08")
	end := leave.MustParseDate("2025-03-10")

	assert.Equal(t, 3, leave.InclusiveDays(start, end))
}

func TestInclusiveDays_CenturiesApart(t *testing.T) {
	// One Gregorian 400-year cycle is 146097 days.
	start := leave.MustParseDate("1700-01-01")
	end := leave.MustParseDate("2100-01-01")

	assert.Equal(t, 146097, leave.DaysBetween(start, end))
	assert.Equal(t, 146098, leave.InclusiveDays(start, end))
}

func TestParseDate(t *testing.T) {
	d, err := leave.ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", d.String())

	d, err = leave.ParseDate("2024-03-15T22:30:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", d.String())

	d, err = leave.ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = leave.ParseDate("15/03/2024")
	assert.Error(t, err)
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		Start leave.Date `json:"start"`
		End   leave.Date `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-01-05T00:00:00Z","end":null}`), &v))

	assert.Equal(t, leave.NewDate(2024, time.January, 5), v.Start)
	assert.True(t, v.End.IsZero())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-01-05","end":null}`, string(out))
}
