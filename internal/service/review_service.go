package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kingstar-club/membership-api/internal/dto"
	"github.com/kingstar-club/membership-api/internal/models"
	"github.com/kingstar-club/membership-api/internal/repository"
	appErrors "github.com/kingstar-club/membership-api/pkg/errors"
	"github.com/kingstar-club/membership-api/pkg/export"
	"github.com/kingstar-club/membership-api/pkg/storage"
)

type reviewMemberRepository interface {
	List(ctx context.Context, filter models.MemberFilter) ([]models.Member, int, error)
	FindByID(ctx context.Context, id string) (*models.Member, error)
	ExistsByPhone(ctx context.Context, phone string, excludeID string) (bool, error)
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id string) error
}

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
	ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

type allocationLocker interface {
	Acquire(ctx context.Context) (func(), error)
}

// AuditContext carries the actor identity attached to audit entries.
type AuditContext struct {
	Actor     string
	IPAddress string
	UserAgent string
}

// ReviewService is the administrator-facing workflow over the approval state
// machine and the identifier allocator.
type ReviewService struct {
	repo         reviewMemberRepository
	audit        auditWriter
	allocator    *IDAllocator
	lock         allocationLocker
	files        storage.Provider
	csv          *export.CSVExporter
	validator    *validator.Validate
	logger       *zap.Logger
	metrics      *MetricsService
	allocRetries int
}

// NewReviewService constructs the review workflow service.
func NewReviewService(
	repo reviewMemberRepository,
	audit auditWriter,
	allocator *IDAllocator,
	lock allocationLocker,
	files storage.Provider,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
	allocRetries int,
) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if allocRetries <= 0 {
		allocRetries = 3
	}
	return &ReviewService{
		repo:         repo,
		audit:        audit,
		allocator:    allocator,
		lock:         lock,
		files:        files,
		csv:          export.NewCSVExporter(),
		validator:    validate,
		logger:       logger,
		metrics:      metrics,
		allocRetries: allocRetries,
	}
}

// ListPending returns records awaiting review, most recent first.
func (s *ReviewService) ListPending(ctx context.Context, page, pageSize int) ([]models.Member, *models.Pagination, error) {
	filter := models.MemberFilter{
		Statuses: []models.MembershipStatus{models.StatusPendingApproval, models.StatusRegistered},
		Page:     page,
		PageSize: pageSize,
	}
	return s.list(ctx, filter)
}

// ListAll returns every record, most recent first.
func (s *ReviewService) ListAll(ctx context.Context, search string, page, pageSize int) ([]models.Member, *models.Pagination, error) {
	return s.list(ctx, models.MemberFilter{Search: search, Page: page, PageSize: pageSize})
}

func (s *ReviewService) list(ctx context.Context, filter models.MemberFilter) ([]models.Member, *models.Pagination, error) {
	members, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return members, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Approve runs the approve transition: allocate an identifier when the
// record has none, stamp approval and expiry, and persist. Allocation is
// serialised by the global mutex; an identifier collision at the database
// triggers a rescan and retry.
func (s *ReviewService) Approve(ctx context.Context, id string, audit AuditContext) (*models.Member, error) {
	release, err := s.lock.Acquire(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrLockNotAcquired) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "another approval is in progress, please retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire allocation lock")
	}
	defer release()

	for attempt := 0; attempt < s.allocRetries; attempt++ {
		member, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}

		var allocated string
		if member.MembershipID == nil || *member.MembershipID == "" {
			allocated, err = s.allocator.Next(ctx)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate membership id")
			}
		}

		if err := applyApproval(member, allocated, time.Now()); err != nil {
			return nil, err
		}

		err = s.repo.Update(ctx, member)
		if err == nil {
			s.metrics.ObserveDecision("approved")
			s.recordAudit(ctx, audit, models.AuditActionApprove, member.ID, map[string]interface{}{
				"membership_id": member.MembershipID,
				"status":        member.Status,
			})
			return member, nil
		}
		if errors.Is(err, repository.ErrDuplicateMembershipID) {
			s.metrics.ObserveAllocationRetry()
			s.logger.Warn("membership id collision, rescanning", zap.String("member_id", id), zap.Int("attempt", attempt+1))
			continue
		}
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, appErrors.ErrConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist approval")
	}
	return nil, appErrors.ErrAllocationFailed
}

// Reject runs the reject transition. The membership identifier and approval
// timestamps are kept, so a later re-approval reuses the same identifier.
func (s *ReviewService) Reject(ctx context.Context, id string, audit AuditContext) (*models.Member, error) {
	member, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyRejection(member); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, member); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, appErrors.ErrConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist rejection")
	}
	s.metrics.ObserveDecision("rejected")
	s.recordAudit(ctx, audit, models.AuditActionReject, member.ID, map[string]interface{}{"status": member.Status})
	return member, nil
}

// Edit overwrites the whitelisted demographic fields. Status, membership
// identifier, and attachment references are never touched regardless of the
// payload.
func (s *ReviewService) Edit(ctx context.Context, id string, req dto.EditMemberRequest, audit AuditContext) (*models.Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid edit payload")
	}

	member, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		member.FullName = *req.FullName
	}
	if req.Nickname != nil {
		member.Nickname = *req.Nickname
	}
	if req.FatherName != nil {
		member.FatherName = req.FatherName
	}
	if req.Email != nil {
		member.Email = req.Email
	}
	if req.Phone != nil {
		phone, err := normalizePhone(*req.Phone)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid phone number")
		}
		if phone != member.Phone {
			exists, err := s.repo.ExistsByPhone(ctx, phone, member.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate phone")
			}
			if exists {
				return nil, appErrors.ErrDuplicatePhone
			}
			member.Phone = phone
		}
	}
	if req.Whatsapp != nil {
		whatsapp, err := normalizePhone(*req.Whatsapp)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid whatsapp number")
		}
		member.Whatsapp = &whatsapp
	}
	if req.Age != nil {
		member.Age = req.Age
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date of birth")
		}
		member.DateOfBirth = &dob
	}
	if req.BloodGroup != nil {
		bloodGroup := normalizeBloodGroup(*req.BloodGroup)
		if !models.ValidBloodGroup(bloodGroup) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid blood group")
		}
		member.BloodGroup = bloodGroup
	}
	if req.Address != nil {
		member.Address = *req.Address
	}

	if err := s.repo.Update(ctx, member); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			return nil, appErrors.ErrConflict
		case errors.Is(err, repository.ErrDuplicatePhone):
			return nil, appErrors.ErrDuplicatePhone
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist edit")
	}
	s.recordAudit(ctx, audit, models.AuditActionEdit, member.ID, nil)
	return member, nil
}

// Delete permanently removes the record and releases its attachments from
// the file-storage provider.
func (s *ReviewService) Delete(ctx context.Context, id string, audit AuditContext) error {
	member, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete member")
	}

	for _, publicID := range []*string{member.PhotoID, member.PaymentProofID} {
		if publicID == nil || *publicID == "" {
			continue
		}
		if err := s.files.Delete(context.WithoutCancel(ctx), *publicID); err != nil {
			s.logger.Warn("failed to release attachment", zap.String("public_id", *publicID), zap.Error(err))
		}
	}

	s.recordAudit(ctx, audit, models.AuditActionDelete, member.ID, map[string]interface{}{"phone": member.Phone})
	return nil
}

// ExportRoster renders the full member roster as CSV.
func (s *ReviewService) ExportRoster(ctx context.Context) ([]byte, error) {
	headers := []string{"membership_id", "name", "nickname", "phone", "blood_group", "status", "approved_at", "expiry_date"}
	rows := make([]map[string]string, 0)

	for page := 1; ; page++ {
		members, pagination, err := s.ListAll(ctx, "", page, 100)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			row := map[string]string{
				"name":        m.FullName,
				"nickname":    m.Nickname,
				"phone":       m.Phone,
				"blood_group": m.BloodGroup,
				"status":      string(m.Status),
			}
			if m.MembershipID != nil {
				row["membership_id"] = *m.MembershipID
			}
			if m.ApprovedAt != nil {
				row["approved_at"] = m.ApprovedAt.Format(time.RFC3339)
			}
			if m.ExpiryDate != nil {
				row["expiry_date"] = m.ExpiryDate.Format(time.RFC3339)
			}
			rows = append(rows, row)
		}
		if len(rows) >= pagination.TotalCount || len(members) == 0 {
			break
		}
	}

	data, err := s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
	}
	return data, nil
}

// RecentActivity returns the newest audit entries, up to limit.
func (s *ReviewService) RecentActivity(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	logs, err := s.audit.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, nil
}

func (s *ReviewService) load(ctx context.Context, id string) (*models.Member, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	return member, nil
}

func (s *ReviewService) recordAudit(ctx context.Context, audit AuditContext, action, resourceID string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	var payload []byte
	if details != nil {
		payload, _ = json.Marshal(details)
	}
	entry := &models.AuditLog{
		Actor:      audit.Actor,
		Action:     action,
		Resource:   "member",
		ResourceID: &resourceID,
		Details:    payload,
		IPAddress:  audit.IPAddress,
		UserAgent:  audit.UserAgent,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log",
			zap.String("action", action),
			zap.String("resource_id", resourceID),
			zap.Error(err))
	}
}
