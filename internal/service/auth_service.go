package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kingstar-club/membership-api/internal/models"
	appErrors "github.com/kingstar-club/membership-api/pkg/errors"
)

type authMemberRepository interface {
	FindByCredentials(ctx context.Context, phone, membershipID string) (*models.Member, error)
}

// CredentialStore verifies administrator credentials. The default backing is
// a single static entry from configuration, but the workflow only ever sees
// this interface.
type CredentialStore interface {
	Verify(ctx context.Context, username, password string) error
}

// StaticCredentialStore holds one bcrypt-hashed administrator credential.
type StaticCredentialStore struct {
	username     string
	passwordHash string
}

// NewStaticCredentialStore builds the single-entry credential store.
func NewStaticCredentialStore(username, passwordHash string) *StaticCredentialStore {
	return &StaticCredentialStore{username: username, passwordHash: passwordHash}
}

// Verify checks the supplied credentials against the stored entry.
func (s *StaticCredentialStore) Verify(_ context.Context, username, password string) error {
	if s.passwordHash == "" || username != s.username {
		return appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return appErrors.ErrInvalidCredentials
	}
	return nil
}

// AuthConfig defines token issuance parameters.
type AuthConfig struct {
	Secret           string
	AdminExpiration  time.Duration
	MemberExpiration time.Duration
	Issuer           string
}

// AuthService issues and validates access tokens for administrators and
// approved members.
type AuthService struct {
	members     authMemberRepository
	credentials CredentialStore
	validator   *validator.Validate
	logger      *zap.Logger
	config      AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(members authMemberRepository, credentials CredentialStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{members: members, credentials: credentials, validator: validate, logger: logger, config: config}
}

// AdminLogin authenticates the administrator shared credential and issues an
// admin token.
func (s *AuthService) AdminLogin(ctx context.Context, req models.AdminLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	if err := s.credentials.Verify(ctx, req.Username, req.Password); err != nil {
		return nil, appErrors.FromError(err)
	}
	return s.issueToken(req.Username, models.RoleAdmin, s.config.AdminExpiration, "")
}

// MemberLogin authenticates an approved member by phone and membership
// identifier.
func (s *AuthService) MemberLogin(ctx context.Context, req models.MemberLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid phone number or membership id")
	}
	member, err := s.members.FindByCredentials(ctx, phone, req.MembershipID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid phone number or membership id")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	if member.Status != models.StatusApproved {
		return nil, appErrors.ErrNotApproved
	}
	return s.issueToken(member.ID, models.RoleMember, s.config.MemberExpiration, member.ID)
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.ErrUnauthorized
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) issueToken(subject string, role models.Role, expiry time.Duration, memberID string) (*models.LoginResponse, error) {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	now := time.Now().UTC()
	claims := &models.JWTClaims{
		SubjectID: subject,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(expiry.Seconds()),
		Role:        role,
		MemberID:    memberID,
		IssuedAt:    now,
	}, nil
}
