package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role represents the access roles recognised by the API.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// AdminLoginRequest holds the shared-secret administrator credentials.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// MemberLoginRequest authenticates an approved member by phone and
// membership identifier.
type MemberLoginRequest struct {
	Phone        string `json:"phone" validate:"required"`
	MembershipID string `json:"membership_id" validate:"required"`
}

// LoginResponse returns the issued token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Role        Role      `json:"role"`
	MemberID    string    `json:"member_id,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	SubjectID string `json:"subject_id"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}
