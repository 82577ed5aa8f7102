/*
handlers.go - HTTP API handlers for the leave portal

PURPOSE:
  Exposes the leave core and the portal service to the browser. Handles
  HTTP request/response and JSON serialization, and delegates everything
  else to leave, report and portal.

ENDPOINTS:
  Catalog and form helpers (no session):
    GET    /api/leave-types               List leave types
    GET    /api/leave-types/{code}        One leave type
    POST   /api/days                      Inclusive day count for a range
    POST   /api/leaves/validate           Validate a candidate request
    POST   /api/leaves/form               Apply a form action

  Auth:
    POST   /api/auth/login                Log in, set session cookie
    POST   /api/auth/register             Register, set session cookie
    POST   /api/auth/logout               End session
    GET    /api/auth/me                   Current session

  Teacher (session):
    POST   /api/leaves/apply              Validate locally, then submit
    GET    /api/leaves/mine               Own leaves
    GET    /api/leaves/mine/statistics    Own dashboard statistics

  Admin (session; the backend authorizes):
    GET    /api/admin/leaves/pending      Pending leaves
    GET    /api/admin/leaves/all          All leaves
    PUT    /api/admin/leaves/{id}/status  Approve or reject
    GET    /api/admin/reports/summary     Aggregated report
    POST   /api/admin/reports/filter      Filtered table with counts
    GET    /api/admin/reports/export.csv  CSV download
    GET    /api/admin/reports/export.xlsx XLSX download

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: No session, expired session, token rejected by the backend
  - 404: Unknown leave type
  - 409: Review of a record that is no longer pending
  - 422: Nothing to export
  - 502: Backend failure (message passed through)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - middleware.go: Session and logging middleware
  - server.go: Router setup
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/leave-portal/backend"
	"github.com/warp/leave-portal/leave"
	"github.com/warp/leave-portal/portal"
	"github.com/warp/leave-portal/report"
	"github.com/warp/leave-portal/session"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *portal.Service

	// CookieName is the session cookie. SecureCookie marks it Secure.
	CookieName   string
	SecureCookie bool

	// Health reports storage readiness for /healthz. Optional.
	Health func(ctx context.Context) error

	logger *zap.Logger
}

// NewHandler creates a handler. A nil logger disables logging.
func NewHandler(svc *portal.Service, cookieName string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cookieName == "" {
		cookieName = "leave_session"
	}
	return &Handler{
		Service:    svc,
		CookieName: cookieName,
		logger:     logger.Named("api"),
	}
}

func (h *Handler) catalog() *leave.Catalog {
	return h.Service.Catalog
}

// =============================================================================
// CATALOG AND FORM HANDLERS
// =============================================================================

// ListLeaveTypes returns the catalog in display order.
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog().All())
}

// GetLeaveType returns one catalog entry by code.
func (h *Handler) GetLeaveType(w http.ResponseWriter, r *http.Request) {
	def, err := h.catalog().Lookup(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Leave type not found", string(leave.KindUnknownLeaveType), nil)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// CountDays returns the inclusive day count for a date range.
func (h *Handler) CountDays(w http.ResponseWriter, r *http.Request) {
	var req DaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() || req.EndDate.Before(req.StartDate) {
		verr := &leave.ValidationError{Kind: leave.KindInvalidDateRange}
		writeError(w, http.StatusBadRequest, verr.Error(), string(verr.Kind), nil)
		return
	}
	writeJSON(w, http.StatusOK, DaysResponse{TotalDays: leave.InclusiveDays(req.StartDate, req.EndDate)})
}

// ValidateLeave runs the validator without submitting.
func (h *Handler) ValidateLeave(w http.ResponseWriter, r *http.Request) {
	var req leave.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	adv, err := leave.Validate(req, h.catalog(), h.Service.Today())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ValidateResponse{OK: true, Advisory: adv})
}

// ReduceForm applies one action to a form state and returns the new state.
func (h *Handler) ReduceForm(w http.ResponseWriter, r *http.Request) {
	var req FormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	action, err := leave.DecodeAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form action", "invalid_action", err)
		return
	}

	state := leave.FormReducer{Catalog: h.catalog()}.Reduce(req.State, action)
	resp := FormResponse{State: state}
	if usage, ok := state.LimitUsage(h.catalog()); ok {
		resp.Usage = &usage
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds backend.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	s, err := h.Service.Login(r.Context(), creds)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.setSessionCookie(w, s)
	writeJSON(w, http.StatusOK, toSessionDTO(s))
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var reg backend.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	s, err := h.Service.Register(r.Context(), reg)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.setSessionCookie(w, s)
	writeJSON(w, http.StatusCreated, toSessionDTO(s))
}

// Logout ends the session if there is one. It always clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.CookieName); err == nil {
		if err := h.Service.Logout(r.Context(), session.Session{ID: c.Value}); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSessionDTO(sessionFrom(r.Context())))
}

// =============================================================================
// TEACHER HANDLERS
// =============================================================================

// ApplyLeave validates locally and forwards the request to the backend.
func (h *Handler) ApplyLeave(w http.ResponseWriter, r *http.Request) {
	var req leave.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	rec, adv, err := h.Service.Submit(r.Context(), sessionFrom(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ApplyResponse{
		Message:  "Leave application submitted successfully!",
		Leave:    toLeaveDTO(h.catalog(), rec),
		Advisory: adv,
	})
}

func (h *Handler) MyLeaves(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.MyLeaves(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LeavesResponse{Leaves: toLeaveDTOs(h.catalog(), records)})
}

func (h *Handler) MyStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.MyStatistics(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatisticsResponse{Statistics: stats})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

func (h *Handler) PendingLeaves(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.PendingLeaves(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LeavesResponse{Leaves: toLeaveDTOs(h.catalog(), records)})
}

func (h *Handler) AllLeaves(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.AllLeaves(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LeavesResponse{Leaves: toLeaveDTOs(h.catalog(), records)})
}

// UpdateLeaveStatus approves or rejects a pending leave.
func (h *Handler) UpdateLeaveStatus(w http.ResponseWriter, r *http.Request) {
	var review leave.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	rec, err := h.Service.Review(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"), review)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ReviewResponse{
		Message: leave.ReviewMessage(review.Status),
		Leave:   toLeaveDTO(h.catalog(), rec),
	})
}

// SummaryReport builds the report from query parameters
// (department, status, startDate, endDate).
func (h *Handler) SummaryReport(w http.ResponseWriter, r *http.Request) {
	c, err := criteriaFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", "invalid_date", err)
		return
	}
	rep, err := h.Service.Report(r.Context(), sessionFrom(r.Context()), c)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReportResponse{Report: rep})
}

func (h *Handler) FilterReport(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	c, err := req.criteria()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", "invalid_date", err)
		return
	}

	view, err := h.Service.Filter(r.Context(), sessionFrom(r.Context()), c)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FilterResponse{
		Leaves:   toLeaveDTOs(h.catalog(), view.Records),
		Total:    view.Total,
		Pending:  view.Pending,
		Approved: view.Approved,
		Rejected: view.Rejected,
	})
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, portal.FormatCSV)
}

func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, portal.FormatXLSX)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, format string) {
	c, err := criteriaFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", "invalid_date", err)
		return
	}
	out, err := h.Service.Export(r.Context(), sessionFrom(r.Context()), c, format)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Data)
}

// =============================================================================
// HEALTH
// =============================================================================

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Storage unavailable", "unhealthy", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.Service.Sessions.Count(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func criteriaFromQuery(r *http.Request) (report.Criteria, error) {
	q := r.URL.Query()
	return FilterRequest{
		Department: q.Get("department"),
		Status:     q.Get("status"),
		StartDate:  q.Get("startDate"),
		EndDate:    q.Get("endDate"),
	}.criteria()
}

// writeServiceError maps domain and remote errors to HTTP responses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *leave.ValidationError
	var rerr *backend.RemoteError

	switch {
	case errors.As(err, &verr):
		var details any
		if verr.Kind == leave.KindExceedsMaxDays {
			details = map[string]int{"requested": verr.Requested, "allowed": verr.Allowed}
		}
		writeError(w, http.StatusBadRequest, verr.Error(), string(verr.Kind), details)

	case errors.Is(err, leave.ErrReviewNotesRequired):
		writeError(w, http.StatusBadRequest, "Please provide review notes for rejection.", "review_notes_required", nil)

	case errors.Is(err, leave.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Only pending leaves can be reviewed.", "invalid_transition", err)

	case errors.Is(err, portal.ErrMissingField), errors.Is(err, portal.ErrUnsupportedFormat),
		errors.Is(err, portal.ErrInvalidDecision):
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_input", nil)

	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrSessionExpired),
		errors.Is(err, session.ErrEmptyToken), errors.Is(err, session.ErrTokenExpired):
		h.clearSessionCookie(w)
		writeError(w, http.StatusUnauthorized, "Please log in again.", "unauthenticated", nil)

	case errors.Is(err, report.ErrNoData):
		writeError(w, http.StatusUnprocessableEntity, "No data to export", "no_data", nil)

	case errors.As(err, &rerr):
		if rerr.StatusCode == http.StatusUnauthorized {
			h.clearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, rerr.Error(), "unauthenticated", nil)
			return
		}
		writeError(w, http.StatusBadGateway, rerr.Error(), "remote_operation_failed", map[string]any{
			"operation":  rerr.Operation,
			"status":     rerr.StatusCode,
			"noResponse": rerr.NoResponse,
		})

	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error", "internal", nil)
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, s session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    s.ID,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string, details any) {
	resp := ErrorResponse{Error: message, Code: code}
	if err, ok := details.(error); ok {
		resp.Details = err.Error()
	} else if details != nil {
		resp.Details = details
	}
	writeJSON(w, status, resp)
}
