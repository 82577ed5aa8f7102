package leave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-portal/leave"
)

func TestDefaultCatalog_Contents(t *testing.T) {
	c := leave.DefaultCatalog()

	want := map[string]int{
		"SICK": 7, "CASUAL": 5, "ANNUAL": 30, "MATERNITY": 90,
		"PATERNITY": 14, "STUDY": 30, "BEREAVEMENT": 5, "EMERGENCY": 3,
	}
	require.Equal(t, len(want), c.Len())
	for code, max := range want {
		def, err := c.Lookup(code)
		require.NoError(t, err, code)
		assert.Equal(t, max, def.MaxDays, code)
	}

	for _, code := range []string{"MATERNITY", "PATERNITY", "STUDY"} {
		def, _ := c.Lookup(code)
		assert.True(t, def.RequiresDocumentation, code)
	}
	sick, _ := c.Lookup("SICK")
	assert.False(t, sick.RequiresDocumentation)
}

func TestCatalog_Lookup_IsStrict(t *testing.T) {
	// GIVEN: A code that is not in the catalog
	// WHEN: Looking it up
	// THEN: UnknownLeaveType, never a default cap

	_, err := leave.DefaultCatalog().Lookup("Sick Leave")

	assert.ErrorIs(t, err, leave.ErrUnknownLeaveType)
}

func TestCatalog_Resolve_MatchesCodeThenLabel(t *testing.T) {
	c := leave.DefaultCatalog()

	byCode, ok := c.Resolve("ANNUAL")
	require.True(t, ok)
	byLabel, ok := c.Resolve(byCode.DisplayName)
	require.True(t, ok)
	assert.Equal(t, byCode, byLabel)

	_, ok = c.Resolve("nope")
	assert.False(t, ok)
}

func TestCatalog_All_ReturnsCopy(t *testing.T) {
	c := leave.DefaultCatalog()

	all := c.All()
	all[0].MaxDays = 999

	def, _ := c.Lookup(all[0].Code)
	assert.NotEqual(t, 999, def.MaxDays)
}

func TestNewCatalog_RejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name string
		defs []leave.LeaveTypeDefinition
	}{
		{"empty code", []leave.LeaveTypeDefinition{{Code: "", MaxDays: 1}}},
		{"zero cap", []leave.LeaveTypeDefinition{{Code: "X", MaxDays: 0}}},
		{"duplicate", []leave.LeaveTypeDefinition{{Code: "X", MaxDays: 1}, {Code: "X", MaxDays: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := leave.NewCatalog(tt.defs)
			assert.Error(t, err)
		})
	}
}

func TestParseCatalog_YAML(t *testing.T) {
	doc := []byte(`
leave_types:
  - code: REMOTE
    display_name: Remote Day
    max_days: 2
    requires_documentation: false
`)
	c, err := leave.ParseCatalog(doc)
	require.NoError(t, err)

	def, err := c.Lookup("REMOTE")
	require.NoError(t, err)
	assert.Equal(t, "Remote Day", def.DisplayName)
	assert.Equal(t, 2, def.MaxDays)
}
