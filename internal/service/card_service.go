package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kingstar-club/membership-api/internal/models"
	appErrors "github.com/kingstar-club/membership-api/pkg/errors"
	"github.com/kingstar-club/membership-api/pkg/export"
)

type cardMemberRepository interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
}

// CardBranding holds the static club text printed on every card.
type CardBranding struct {
	ClubName     string
	ClubTagline  string
	RegistryLine string
}

// MembershipCard is a rendered card ready for download.
type MembershipCard struct {
	Filename string
	Data     []byte
}

// CardService renders membership cards for approved members.
type CardService struct {
	repo     cardMemberRepository
	renderer *export.CardRenderer
	branding CardBranding
	logger   *zap.Logger
}

// NewCardService constructs the card service.
func NewCardService(repo cardMemberRepository, branding CardBranding, logger *zap.Logger) *CardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardService{repo: repo, renderer: export.NewCardRenderer(), branding: branding, logger: logger}
}

// Render produces the membership card PDF for an approved member.
func (s *CardService) Render(ctx context.Context, memberID string) (*MembershipCard, error) {
	member, err := s.repo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	if member.Status != models.StatusApproved || member.MembershipID == nil {
		return nil, appErrors.ErrNotApproved
	}

	data := export.CardData{
		ClubName:     s.branding.ClubName,
		ClubTagline:  s.branding.ClubTagline,
		RegistryLine: s.branding.RegistryLine,
		MemberName:   member.FullName,
		MembershipID: *member.MembershipID,
		Phone:        member.Phone,
		BloodGroup:   member.BloodGroup,
	}
	if member.ExpiryDate != nil {
		data.ValidUpto = member.ExpiryDate.Format("02/01/2006")
	}

	rendered, err := s.renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render membership card")
	}
	return &MembershipCard{
		Filename: fmt.Sprintf("MembershipCard_%s.pdf", *member.MembershipID),
		Data:     rendered,
	}, nil
}
