/*
Package backend is the HTTP client for the external leave API.

PURPOSE:
  The backend owns persistence, authentication and authorization. This
  package only moves JSON to and from it and turns every failure into a
  *RemoteError. Nothing is retried: a failure is logged once at Warn and
  returned to the caller.

ENDPOINTS (relative to BaseURL):
  POST /auth/login                  {email, password}      -> {token, teacher}
  POST /auth/register               {name, email, ...}     -> {token, teacher}
  POST /leaves/apply                leave.Request          -> {leave}
  GET  /leaves/my-leaves                                   -> {leaves}
  GET  /admin/leaves/pending                               -> {leaves}
  GET  /admin/leaves/all                                   -> {leaves}
  PUT  /admin/leaves/{id}/status    {status, reviewNotes}  -> {leave}
  GET  /reports/summary             ?startDate&endDate...  -> {report}
  GET  /reports/export/csv          ?startDate&endDate...  -> raw CSV

AUTH:
  Calls that need a session take the backend token and send it as
  "Authorization: Bearer <token>". Every request carries a fresh
  X-Request-ID.

SEE ALSO:
  - errors.go: RemoteError and message derivation
  - portal/service.go: The only caller
*/
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-portal/leave"
	"github.com/warp/leave-portal/report"
	"go.uber.org/zap"
)

// DefaultBaseURL is the hosted backend.
const DefaultBaseURL = "https://teacher-leave-backend.onrender.com/api"

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for baseURL. A nil logger disables logging.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("backend"),
	}
}

// =============================================================================
// AUTH
// =============================================================================

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

// AuthResult is the backend's answer to login and register.
type AuthResult struct {
	Token   string           `json:"token"`
	Teacher leave.TeacherRef `json:"teacher"`
}

func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, OpLogin, http.MethodPost, "/auth/login", "", nil, creds, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, reg Registration) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, OpRegister, http.MethodPost, "/auth/register", "", nil, reg, &out)
	return out, err
}

// =============================================================================
// LEAVES
// =============================================================================

type leaveEnvelope struct {
	Leave leave.Record `json:"leave"`
}

type leavesEnvelope struct {
	Leaves []leave.Record `json:"leaves"`
}

// ApplyLeave submits a request that already passed leave.Validate.
func (c *Client) ApplyLeave(ctx context.Context, token string, req leave.Request) (leave.Record, error) {
	var out leaveEnvelope
	err := c.do(ctx, OpApplyLeave, http.MethodPost, "/leaves/apply", token, nil, req, &out)
	return out.Leave, err
}

func (c *Client) MyLeaves(ctx context.Context, token string) ([]leave.Record, error) {
	return c.listLeaves(ctx, OpMyLeaves, "/leaves/my-leaves", token)
}

func (c *Client) PendingLeaves(ctx context.Context, token string) ([]leave.Record, error) {
	return c.listLeaves(ctx, OpPendingLeaves, "/admin/leaves/pending", token)
}

func (c *Client) AllLeaves(ctx context.Context, token string) ([]leave.Record, error) {
	return c.listLeaves(ctx, OpAllLeaves, "/admin/leaves/all", token)
}

func (c *Client) listLeaves(ctx context.Context, op Operation, path, token string) ([]leave.Record, error) {
	var out leavesEnvelope
	if err := c.do(ctx, op, http.MethodGet, path, token, nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Leaves == nil {
		out.Leaves = []leave.Record{}
	}
	return out.Leaves, nil
}

// UpdateLeaveStatus sends an admin decision. The backend enforces the
// transition rules; callers check them locally with leave.Review.Check first.
func (c *Client) UpdateLeaveStatus(ctx context.Context, token, id string, review leave.Review) (leave.Record, error) {
	var out leaveEnvelope
	path := "/admin/leaves/" + url.PathEscape(id) + "/status"
	err := c.do(ctx, OpUpdateStatus, http.MethodPut, path, token, nil, review, &out)
	return out.Leave, err
}

// =============================================================================
// REPORTS
// =============================================================================

type reportEnvelope struct {
	Report report.Report `json:"report"`
}

// SummaryReport asks the backend to filter and aggregate server-side.
func (c *Client) SummaryReport(ctx context.Context, token string, criteria report.Criteria) (report.Report, error) {
	var out reportEnvelope
	err := c.do(ctx, OpSummaryReport, http.MethodGet, "/reports/summary", token, criteriaQuery(criteria), nil, &out)
	return out.Report, err
}

// ExportCSV returns the backend-generated CSV unchanged.
func (c *Client) ExportCSV(ctx context.Context, token string, criteria report.Criteria) ([]byte, error) {
	var out []byte
	err := c.do(ctx, OpExportCSV, http.MethodGet, "/reports/export/csv", token, criteriaQuery(criteria), nil, &out)
	return out, err
}

func criteriaQuery(c report.Criteria) url.Values {
	q := url.Values{}
	if c.HasDateRange() {
		q.Set("startDate", c.StartDate.String())
		q.Set("endDate", c.EndDate.String())
	}
	if c.Department != "" && c.Department != report.All {
		q.Set("department", c.Department)
	}
	if c.Status != "" && c.Status != report.All {
		q.Set("status", c.Status)
	}
	return q
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one request. out may be a pointer to a JSON target or a
// *[]byte for raw bodies.
func (c *Client) do(ctx context.Context, op Operation, method, path, token string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend unreachable",
			zap.String("operation", string(op)),
			zap.String("request_id", requestID),
			zap.Error(err))
		return noResponse(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return noResponse(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(respBody, &eb)
		rerr := &RemoteError{
			Operation:  op,
			Message:    messageFor(resp.StatusCode, eb),
			StatusCode: resp.StatusCode,
		}
		c.logger.Warn("backend call failed",
			zap.String("operation", string(op)),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", rerr.Message))
		return rerr
	}

	c.logger.Debug("backend call",
		zap.String("operation", string(op)),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	switch v := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*v = respBody
		return nil
	default:
		if len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return &RemoteError{
				Operation:  op,
				Message:    "Unexpected response from server.",
				StatusCode: resp.StatusCode,
			}
		}
		return nil
	}
}
