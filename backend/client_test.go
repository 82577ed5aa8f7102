package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-portal/backend"
	"github.com/warp/leave-portal/leave"
	"github.com/warp/leave-portal/report"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestClient(t *testing.T, h http.HandlerFunc) *backend.Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return backend.NewClient(srv.URL+"/api/", 5*time.Second, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// SUCCESS PATHS
// =============================================================================

func TestClient_Login(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var creds backend.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "ann@school.edu", creds.Email)

		writeJSON(w, http.StatusOK, map[string]any{
			"token":   "tok",
			"teacher": map[string]any{"_id": "t1", "name": "Ann", "department": "Math", "role": "teacher"},
		})
	})

	res, err := client.Login(context.Background(), backend.Credentials{Email: "ann@school.edu", Password: "x"})

	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "Math", res.Teacher.Department)
	assert.False(t, res.Teacher.IsAdmin())
}

func TestClient_ApplyLeave_SendsTokenAndWireFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SICK", body["leaveType"])
		assert.Equal(t, "2025-03-10", body["startDate"])

		writeJSON(w, http.StatusCreated, map[string]any{
			"leave": map[string]any{"_id": "l1", "leaveType": "SICK", "status": "Pending", "startDate": "2025-03-10T00:00:00.000Z"},
		})
	})

	rec, err := client.ApplyLeave(context.Background(), "tok", leave.Request{
		LeaveTypeCode: "SICK",
		StartDate:     leave.MustParseDate("2025-03-10"),
		EndDate:       leave.MustParseDate("2025-03-11"),
		TotalDays:     2,
		Reason:        "flu",
	})

	require.NoError(t, err)
	assert.Equal(t, "l1", rec.ID)
	assert.Equal(t, leave.StatusPending, rec.Status)
	assert.Equal(t, "2025-03-10", rec.StartDate.String())
}

func TestClient_MyLeaves_MissingListIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	leaves, err := client.MyLeaves(context.Background(), "tok")

	require.NoError(t, err)
	assert.NotNil(t, leaves)
	assert.Empty(t, leaves)
}

func TestClient_MyLeaves_UnpopulatedTeacher(t *testing.T) {
	// GIVEN: A backend that returns the teacher as a bare id on one record
	// WHEN: The list is loaded
	// THEN: Every record decodes; the bare id lands in Teacher.ID

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"leaves": []map[string]any{
			{"_id": "l1", "teacher": "64f0c2", "leaveType": "SICK", "status": "Pending", "totalDays": 2},
			{"_id": "l2", "teacher": map[string]any{"_id": "t1", "name": "Ann", "department": "Math"}, "leaveType": "CASUAL", "status": "Approved", "totalDays": 1},
		}})
	})

	leaves, err := client.MyLeaves(context.Background(), "tok")

	require.NoError(t, err)
	require.Len(t, leaves, 2)
	assert.Equal(t, leave.TeacherRef{ID: "64f0c2"}, leaves[0].Teacher)
	assert.Equal(t, "Math", leaves[1].Teacher.Department)

	stats := report.Aggregate(leaves)
	require.Len(t, stats.DepartmentStats, 2)
	assert.Equal(t, report.UnassignedDepartment, stats.DepartmentStats[0].Department)
}

func TestClient_UpdateLeaveStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/admin/leaves/l1/status", r.URL.Path)

		var review leave.Review
		require.NoError(t, json.NewDecoder(r.Body).Decode(&review))
		assert.Equal(t, leave.StatusRejected, review.Status)
		assert.Equal(t, "exams", review.Notes)

		writeJSON(w, http.StatusOK, map[string]any{
			"leave": map[string]any{"_id": "l1", "status": "Rejected", "reviewedBy": "admin-1", "reviewNotes": "exams"},
		})
	})

	rec, err := client.UpdateLeaveStatus(context.Background(), "tok", "l1", leave.Review{Status: leave.StatusRejected, Notes: "exams"})

	require.NoError(t, err)
	require.NotNil(t, rec.ReviewedBy)
	assert.Equal(t, "admin-1", rec.ReviewedBy.ID)
}

func TestClient_SummaryReport_EncodesCriteria(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2024-01-01", q.Get("startDate"))
		assert.Equal(t, "2024-01-31", q.Get("endDate"))
		assert.Equal(t, "Math", q.Get("department"))
		assert.False(t, q.Has("status"), "the all sentinel is not sent")

		writeJSON(w, http.StatusOK, map[string]any{
			"report": map[string]any{"summary": map[string]any{"totalLeaves": 4, "approvalRate": 50}},
		})
	})

	rep, err := client.SummaryReport(context.Background(), "tok", report.Criteria{
		Department: "Math",
		Status:     report.All,
		StartDate:  leave.MustParseDate("2024-01-01"),
		EndDate:    leave.MustParseDate("2024-01-31"),
	})

	require.NoError(t, err)
	assert.Equal(t, 4, rep.Summary.TotalLeaves)
	assert.Equal(t, 50, rep.Summary.ApprovalRate)
}

func TestClient_ExportCSV_ReturnsRawBytes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	})

	data, err := client.ExportCSV(context.Background(), "tok", report.Criteria{})

	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

// =============================================================================
// FAILURE PATHS
// =============================================================================

func TestClient_ErrorMessageDerivation(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		message string
	}{
		{"error field wins", http.StatusBadRequest, map[string]string{"error": "Overlapping leave", "message": "ignored"}, "Overlapping leave"},
		{"message field", http.StatusBadRequest, map[string]string{"message": "Invalid dates"}, "Invalid dates"},
		{"bare 500", http.StatusInternalServerError, nil, "Server error (500)."},
		{"other status", http.StatusNotFound, nil, "Request failed with status code 404."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.body == nil {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, tt.body)
			})

			_, err := client.ApplyLeave(context.Background(), "tok", leave.Request{})

			var rerr *backend.RemoteError
			require.ErrorAs(t, err, &rerr)
			assert.ErrorIs(t, err, backend.ErrRemoteOperationFailed)
			assert.Equal(t, tt.status, rerr.StatusCode)
			assert.Equal(t, tt.message, rerr.Message)
			assert.Equal(t, "Failed to submit leave application. "+tt.message, err.Error())
		})
	}
}

func TestClient_NoResponse(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := backend.NewClient(srv.URL, time.Second, nil)

	_, err := client.AllLeaves(context.Background(), "tok")

	var rerr *backend.RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.True(t, rerr.NoResponse)
	assert.Zero(t, rerr.StatusCode)
}

func TestClient_NoRetry(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.PendingLeaves(context.Background(), "tok")

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expired"})
	})

	_, err := client.MyLeaves(context.Background(), "stale")

	assert.True(t, backend.IsUnauthorized(err))
}
