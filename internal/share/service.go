package share

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/sparlo/reportd/internal/store"
)

// ShareTTL is how long an issued share link stays valid.
const ShareTTL = 30 * 24 * time.Hour

// RateLimits caps how many share links a user may issue. Zero disables the
// corresponding ceiling.
type RateLimits struct {
	PerHour int
	PerDay  int
}

// Info describes an active share link.
type Info struct {
	ReportID  string    `json:"report_id"`
	URL       string    `json:"url"`
	Token     string    `json:"share_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service issues and revokes share links for reports.
type Service struct {
	store   *store.Store
	baseURL string
	limits  RateLimits
	log     *logrus.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

func NewService(st *store.Store, baseURL string, limits RateLimits, log *logrus.Logger) *Service {
	return &Service{
		store:   st,
		baseURL: strings.TrimRight(baseURL, "/"),
		limits:  limits,
		log:     log,
		tracer:  otel.Tracer("reportd/share"),
		now:     time.Now,
	}
}

// GenerateShareLink verifies the caller can read the report, enforces the
// rate ceilings, and upserts the share row with a fresh 30-day expiry.
// Repeated calls return the same token.
func (s *Service) GenerateShareLink(ctx context.Context, ownerID, reportID string) (*Info, error) {
	ctx, span := s.tracer.Start(ctx, "share.generate")
	defer span.End()

	if err := validateReportID(reportID); err != nil {
		return nil, err
	}

	// Access check fails closed: no row means no link.
	if _, err := s.store.GetReport(ctx, ownerID, reportID); err != nil {
		return nil, s.mapStoreError(err)
	}

	if err := s.checkRateLimit(ctx, ownerID); err != nil {
		return nil, err
	}

	row, err := s.store.UpsertShare(ctx, reportID, ownerID, newToken(), s.now().Add(ShareTTL))
	if err != nil {
		return nil, s.mapStoreError(err)
	}
	if err := s.store.RecordShareEvent(ctx, ownerID, s.now()); err != nil {
		// Accounting failure must not take the issued link away from the user.
		s.log.WithError(err).Warn("share: recording share event failed")
	}
	span.AddEvent("share_link_issued")
	return s.info(row), nil
}

// RevokeShareLink deletes the share row. Ownership is enforced by the
// creator-scoped delete.
func (s *Service) RevokeShareLink(ctx context.Context, ownerID, reportID string) error {
	ctx, span := s.tracer.Start(ctx, "share.revoke")
	defer span.End()

	if err := validateReportID(reportID); err != nil {
		return err
	}
	if err := s.store.DeleteShare(ctx, ownerID, reportID); err != nil {
		if errors.Is(err, store.ErrNoShare) {
			return errNotFound()
		}
		return s.mapStoreError(err)
	}
	return nil
}

// GetShareInfo reads the existing share row if any. A missing row returns
// (nil, nil); only real query failures are errors.
func (s *Service) GetShareInfo(ctx context.Context, ownerID, reportID string) (*Info, error) {
	if err := validateReportID(reportID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetReport(ctx, ownerID, reportID); err != nil {
		return nil, s.mapStoreError(err)
	}
	row, err := s.store.GetShare(ctx, reportID)
	if errors.Is(err, store.ErrNoShare) {
		return nil, nil
	}
	if err != nil {
		return nil, s.mapStoreError(err)
	}
	return s.info(row), nil
}

// checkRateLimit enforces the hourly/daily ceilings. An error in the check
// itself is logged and ignored so a broken counter never blocks the user;
// an exceeded ceiling fails closed.
func (s *Service) checkRateLimit(ctx context.Context, ownerID string) error {
	type window struct {
		span  time.Duration
		limit int
	}
	windows := []window{
		{time.Hour, s.limits.PerHour},
		{24 * time.Hour, s.limits.PerDay},
	}
	for _, w := range windows {
		if w.limit <= 0 {
			continue
		}
		n, err := s.store.CountShareEvents(ctx, ownerID, s.now().Add(-w.span))
		if err != nil {
			s.log.WithError(err).Warn("share: rate limit check failed, allowing request")
			continue
		}
		if n >= w.limit {
			return errRateLimited()
		}
	}
	return nil
}

func (s *Service) info(row *store.ShareRow) *Info {
	exp, _ := time.Parse(time.RFC3339, row.ExpiresAt)
	return &Info{
		ReportID:  row.ReportID,
		URL:       fmt.Sprintf("%s/shared/%s", s.baseURL, row.ShareToken),
		Token:     row.ShareToken,
		ExpiresAt: exp,
	}
}

func (s *Service) mapStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errNotFound()
	case store.IsConflictError(err):
		return errConflict()
	case store.IsSchemaError(err):
		s.log.WithError(err).Error("share: database schema out of date")
		return errSchemaOutOfDate()
	default:
		s.log.WithError(err).Error("share: store failure")
		return errInternal()
	}
}

func validateReportID(reportID string) error {
	if _, err := uuid.Parse(reportID); err != nil {
		return errValidation("reportId must be a UUID")
	}
	return nil
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
