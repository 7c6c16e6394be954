package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kingstar-club/membership-api/internal/dto"
	"github.com/kingstar-club/membership-api/internal/models"
	"github.com/kingstar-club/membership-api/internal/repository"
	appErrors "github.com/kingstar-club/membership-api/pkg/errors"
	"github.com/kingstar-club/membership-api/pkg/storage"
)

const (
	photoFolder = "members/photos"
	proofFolder = "members/payment-proofs"
)

var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

type memberRepository interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
	ExistsByPhone(ctx context.Context, phone string, excludeID string) (bool, error)
	Create(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, member *models.Member) error
}

// UploadPolicy bounds what attachment uploads are accepted.
type UploadPolicy struct {
	MaxFileSize  int64
	AllowedMIMEs []string
}

// Check validates an upload against the policy.
func (p UploadPolicy) Check(file *dto.FileUpload) error {
	if file == nil || len(file.Data) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "empty upload")
	}
	if p.MaxFileSize > 0 && int64(len(file.Data)) > p.MaxFileSize {
		return appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit")
	}
	if len(p.AllowedMIMEs) == 0 {
		return nil
	}
	for _, allowed := range p.AllowedMIMEs {
		if strings.EqualFold(allowed, file.ContentType) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, "unsupported file type")
}

// MemberService handles registration and member self-service use-cases.
type MemberService struct {
	repo      memberRepository
	files     storage.Provider
	policy    UploadPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMemberService constructs the member service.
func NewMemberService(repo memberRepository, files storage.Provider, policy UploadPolicy, validate *validator.Validate, logger *zap.Logger) *MemberService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{repo: repo, files: files, policy: policy, validator: validate, logger: logger}
}

// Register creates a new application record. When payment proof accompanies
// the registration the record starts in pending_approval, otherwise in
// registered. A storage failure mid-way deletes whatever was already
// uploaded before the error is surfaced.
func (s *MemberService) Register(ctx context.Context, req dto.RegisterRequest, photo, proof *dto.FileUpload) (*models.Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if req.Age == 0 && req.DateOfBirth == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "either age or date of birth is required")
	}

	bloodGroup := normalizeBloodGroup(req.BloodGroup)
	if !models.ValidBloodGroup(bloodGroup) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid blood group")
	}

	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid phone number")
	}
	var whatsapp *string
	if req.Whatsapp != "" {
		w, err := normalizePhone(req.Whatsapp)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid whatsapp number")
		}
		whatsapp = &w
	}

	exists, err := s.repo.ExistsByPhone(ctx, phone, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate phone")
	}
	if exists {
		return nil, appErrors.ErrDuplicatePhone
	}

	for _, file := range []*dto.FileUpload{photo, proof} {
		if file != nil {
			if err := s.policy.Check(file); err != nil {
				return nil, err
			}
		}
	}

	var uploaded []string
	rollback := func() {
		for _, publicID := range uploaded {
			if err := s.files.Delete(context.WithoutCancel(ctx), publicID); err != nil {
				s.logger.Warn("failed to roll back upload", zap.String("public_id", publicID), zap.Error(err))
			}
		}
	}

	member := &models.Member{
		FullName:   req.FullName,
		Nickname:   req.Nickname,
		Phone:      phone,
		Whatsapp:   whatsapp,
		BloodGroup: bloodGroup,
		Address:    req.Address,
		Status:     models.StatusRegistered,
	}
	if req.FatherName != "" {
		member.FatherName = &req.FatherName
	}
	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		member.Email = &email
	}
	if req.Age > 0 {
		age := req.Age
		member.Age = &age
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date of birth")
		}
		member.DateOfBirth = &dob
	}

	if photo != nil {
		stored, err := s.files.Upload(ctx, photo.Data, photoFolder, photo.Filename)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, "failed to store photo")
		}
		uploaded = append(uploaded, stored.PublicID)
		member.PhotoURL = &stored.URL
		member.PhotoID = &stored.PublicID
	}
	if proof != nil {
		stored, err := s.files.Upload(ctx, proof.Data, proofFolder, proof.Filename)
		if err != nil {
			rollback()
			return nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, "failed to store payment proof")
		}
		uploaded = append(uploaded, stored.PublicID)
		member.PaymentProofURL = &stored.URL
		member.PaymentProofID = &stored.PublicID
		member.Status = models.StatusPendingApproval
	}

	if err := s.repo.Create(ctx, member); err != nil {
		rollback()
		if errors.Is(err, repository.ErrDuplicatePhone) {
			return nil, appErrors.ErrDuplicatePhone
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create member")
	}
	return member, nil
}

// SubmitPayment attaches a payment-proof upload to an existing record and
// moves it into pending review.
func (s *MemberService) SubmitPayment(ctx context.Context, id string, proof *dto.FileUpload) (*models.Member, error) {
	if err := s.policy.Check(proof); err != nil {
		return nil, err
	}

	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	if !CanTransition(member.Status, models.StatusPendingApproval) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment proof cannot be submitted from status "+string(member.Status))
	}

	previousProofID := member.PaymentProofID

	stored, err := s.files.Upload(ctx, proof.Data, proofFolder, proof.Filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, "failed to store payment proof")
	}

	if err := applyPaymentProof(member, stored); err != nil {
		s.deleteQuietly(ctx, stored.PublicID)
		return nil, err
	}

	if err := s.repo.Update(ctx, member); err != nil {
		s.deleteQuietly(ctx, stored.PublicID)
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, appErrors.ErrConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update member")
	}

	if previousProofID != nil && *previousProofID != "" && *previousProofID != stored.PublicID {
		s.deleteQuietly(ctx, *previousProofID)
	}
	return member, nil
}

// Get returns a member record for self-service reads.
func (s *MemberService) Get(ctx context.Context, id string) (*models.Member, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	return member, nil
}

func (s *MemberService) deleteQuietly(ctx context.Context, publicID string) {
	if err := s.files.Delete(context.WithoutCancel(ctx), publicID); err != nil {
		s.logger.Warn("failed to delete stored file", zap.String("public_id", publicID), zap.Error(err))
	}
}

// normalizePhone strips everything but digits, keeps the trailing ten, and
// validates the result against the Indian mobile pattern.
func normalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	if !phonePattern.MatchString(digits) {
		return "", errors.New("invalid phone number")
	}
	return digits, nil
}

func normalizeBloodGroup(raw string) string {
	value := strings.TrimSpace(raw)
	if strings.EqualFold(value, models.BloodGroupNil) {
		return models.BloodGroupNil
	}
	return strings.ToUpper(value)
}
