/*
Package portal orchestrates the leave core, the backend client and the
session store for the HTTP layer.

PURPOSE:
  Handlers stay thin: they decode, call one Service method and encode.
  The Service decides what runs locally (validation, filtering,
  aggregation, exports) and what is delegated to the backend.

FLOWS:
  Submit:  leave.Validate --ok--> Backend.ApplyLeave
                          --err-> *leave.ValidationError (backend not called)
  Review:  leave.Review.Check --ok--> Backend.UpdateLeaveStatus
  Report:  ServerSideReports ? Backend.SummaryReport
                             : Backend.AllLeaves -> report.Build
  Export:  ServerSideReports && csv ? Backend.ExportCSV (raw bytes)
                                    : Backend.AllLeaves -> report.Filter -> Write{CSV,XLSX}

TOKEN EXPIRY:
  When the backend answers 401 the caller's session is ended, so the next
  request is treated as logged out instead of failing the same way again.

SEE ALSO:
  - api/handlers.go: HTTP handlers
  - backend/client.go: Backend implementation
*/
package portal

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/warp/leave-portal/backend"
	"github.com/warp/leave-portal/leave"
	"github.com/warp/leave-portal/report"
	"github.com/warp/leave-portal/session"
	"go.uber.org/zap"
)

// Backend is the subset of the backend client the portal needs.
type Backend interface {
	Login(ctx context.Context, creds backend.Credentials) (backend.AuthResult, error)
	Register(ctx context.Context, reg backend.Registration) (backend.AuthResult, error)
	ApplyLeave(ctx context.Context, token string, req leave.Request) (leave.Record, error)
	MyLeaves(ctx context.Context, token string) ([]leave.Record, error)
	PendingLeaves(ctx context.Context, token string) ([]leave.Record, error)
	AllLeaves(ctx context.Context, token string) ([]leave.Record, error)
	UpdateLeaveStatus(ctx context.Context, token, id string, review leave.Review) (leave.Record, error)
	SummaryReport(ctx context.Context, token string, criteria report.Criteria) (report.Report, error)
	ExportCSV(ctx context.Context, token string, criteria report.Criteria) ([]byte, error)
}

var _ Backend = (*backend.Client)(nil)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidDecision   = errors.New("review status must be Approved or Rejected")
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Service is safe for concurrent use.
type Service struct {
	Catalog  *leave.Catalog
	Backend  Backend
	Sessions *session.Manager

	// ServerSideReports delegates report aggregation and CSV export to the
	// backend instead of computing them from AllLeaves.
	ServerSideReports bool

	// Today is the validation clock; tests replace it.
	Today func() leave.Date

	logger *zap.Logger
}

// NewService wires a service. A nil logger disables logging.
func NewService(catalog *leave.Catalog, b Backend, sessions *session.Manager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Catalog:  catalog,
		Backend:  b,
		Sessions: sessions,
		Today:    leave.Today,
		logger:   logger.Named("portal"),
	}
}

// =============================================================================
// AUTH
// =============================================================================

// Login authenticates with the backend and opens a session.
func (s *Service) Login(ctx context.Context, creds backend.Credentials) (session.Session, error) {
	if creds.Email == "" || creds.Password == "" {
		return session.Session{}, fmt.Errorf("%w: email and password", ErrMissingField)
	}
	res, err := s.Backend.Login(ctx, creds)
	if err != nil {
		return session.Session{}, err
	}
	return s.Sessions.Login(ctx, res.Token, res.Teacher)
}

// Register creates the account on the backend and opens a session.
func (s *Service) Register(ctx context.Context, reg backend.Registration) (session.Session, error) {
	if reg.Name == "" || reg.Email == "" || reg.Password == "" || reg.Department == "" {
		return session.Session{}, fmt.Errorf("%w: name, email, password and department", ErrMissingField)
	}
	res, err := s.Backend.Register(ctx, reg)
	if err != nil {
		return session.Session{}, err
	}
	return s.Sessions.Login(ctx, res.Token, res.Teacher)
}

func (s *Service) Logout(ctx context.Context, sess session.Session) error {
	return s.Sessions.Logout(ctx, sess.ID)
}

// =============================================================================
// TEACHER OPERATIONS
// =============================================================================

// Submit validates req locally and forwards it only when it passes.
func (s *Service) Submit(ctx context.Context, sess session.Session, req leave.Request) (leave.Record, leave.Advisory, error) {
	adv, err := leave.Validate(req, s.Catalog, s.Today())
	if err != nil {
		return leave.Record{}, leave.Advisory{}, err
	}

	rec, err := s.Backend.ApplyLeave(ctx, sess.Token, req)
	if err != nil {
		return leave.Record{}, adv, s.remoteFailure(ctx, sess, err)
	}

	s.logger.Info("leave submitted",
		zap.String("teacher", sess.Teacher.Key()),
		zap.String("leave_type", req.LeaveTypeCode),
		zap.Int("total_days", req.TotalDays),
		zap.Bool("requires_documentation", adv.RequiresDocumentation))
	return rec, adv, nil
}

func (s *Service) MyLeaves(ctx context.Context, sess session.Session) ([]leave.Record, error) {
	records, err := s.Backend.MyLeaves(ctx, sess.Token)
	if err != nil {
		return nil, s.remoteFailure(ctx, sess, err)
	}
	return records, nil
}

// MyStatistics aggregates the caller's own records for the dashboard cards.
func (s *Service) MyStatistics(ctx context.Context, sess session.Session) (report.Statistics, error) {
	records, err := s.MyLeaves(ctx, sess)
	if err != nil {
		return report.Statistics{}, err
	}
	return report.Aggregate(records), nil
}

// =============================================================================
// ADMIN OPERATIONS
// =============================================================================

func (s *Service) PendingLeaves(ctx context.Context, sess session.Session) ([]leave.Record, error) {
	records, err := s.Backend.PendingLeaves(ctx, sess.Token)
	if err != nil {
		return nil, s.remoteFailure(ctx, sess, err)
	}
	return records, nil
}

func (s *Service) AllLeaves(ctx context.Context, sess session.Session) ([]leave.Record, error) {
	records, err := s.Backend.AllLeaves(ctx, sess.Token)
	if err != nil {
		return nil, s.remoteFailure(ctx, sess, err)
	}
	return records, nil
}

// Review records an admin decision. Decisions are made from the pending
// list, so the local check assumes a Pending record; the backend rejects
// anything else.
func (s *Service) Review(ctx context.Context, sess session.Session, id string, review leave.Review) (leave.Record, error) {
	if id == "" {
		return leave.Record{}, fmt.Errorf("%w: leave id", ErrMissingField)
	}
	if !review.Status.Valid() || review.Status == leave.StatusPending {
		return leave.Record{}, fmt.Errorf("%w, got %q", ErrInvalidDecision, review.Status)
	}
	if err := review.Check(leave.StatusPending); err != nil {
		return leave.Record{}, err
	}

	rec, err := s.Backend.UpdateLeaveStatus(ctx, sess.Token, id, review)
	if err != nil {
		return leave.Record{}, s.remoteFailure(ctx, sess, err)
	}

	s.logger.Info("leave reviewed",
		zap.String("leave_id", id),
		zap.String("status", string(review.Status)),
		zap.String("reviewer", sess.Teacher.Key()))
	return rec, nil
}

// Report builds the admin report for c.
func (s *Service) Report(ctx context.Context, sess session.Session, c report.Criteria) (report.Report, error) {
	if s.ServerSideReports {
		rep, err := s.Backend.SummaryReport(ctx, sess.Token, c)
		if err != nil {
			return report.Report{}, s.remoteFailure(ctx, sess, err)
		}
		return rep, nil
	}

	records, err := s.AllLeaves(ctx, sess)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(records, c), nil
}

// Filter returns the filtered record table with its status counts.
func (s *Service) Filter(ctx context.Context, sess session.Session, c report.Criteria) (report.View, error) {
	records, err := s.AllLeaves(ctx, sess)
	if err != nil {
		return report.View{}, err
	}
	return report.NewView(records, c), nil
}

// =============================================================================
// EXPORT
// =============================================================================

// Export is a ready-to-download file.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

var contentTypes = map[string]string{
	FormatCSV:  "text/csv; charset=utf-8",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Export renders the records matching c. An empty selection returns
// report.ErrNoData and no file.
func (s *Service) Export(ctx context.Context, sess session.Session, c report.Criteria, format string) (Export, error) {
	contentType, ok := contentTypes[format]
	if !ok {
		return Export{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	out := Export{
		Filename:    report.Filename(s.Today(), format),
		ContentType: contentType,
	}

	if s.ServerSideReports && format == FormatCSV {
		data, err := s.Backend.ExportCSV(ctx, sess.Token, c)
		if err != nil {
			return Export{}, s.remoteFailure(ctx, sess, err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return Export{}, report.ErrNoData
		}
		out.Data = data
		return out, nil
	}

	records, err := s.AllLeaves(ctx, sess)
	if err != nil {
		return Export{}, err
	}
	rows := report.RecordRows(report.Filter(records, c), s.Catalog)

	var buf bytes.Buffer
	switch format {
	case FormatCSV:
		err = report.WriteCSV(&buf, rows)
	case FormatXLSX:
		err = report.WriteXLSX(&buf, rows)
	}
	if err != nil {
		return Export{}, err
	}
	out.Data = buf.Bytes()

	s.logger.Info("report exported",
		zap.String("format", format),
		zap.Int("rows", len(rows)))
	return out, nil
}

// remoteFailure ends the session when the backend no longer accepts its
// token, then returns err unchanged.
func (s *Service) remoteFailure(ctx context.Context, sess session.Session, err error) error {
	if backend.IsUnauthorized(err) && sess.ID != "" {
		if lerr := s.Sessions.Logout(ctx, sess.ID); lerr != nil {
			s.logger.Warn("failed to end rejected session", zap.String("session_id", sess.ID), zap.Error(lerr))
		}
	}
	return err
}
