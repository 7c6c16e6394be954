package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kingstar-club/membership-api/internal/models"
	appErrors "github.com/kingstar-club/membership-api/pkg/errors"
	"github.com/kingstar-club/membership-api/pkg/response"
)

// LoginService defines the subset of the auth service used by the handler.
type LoginService interface {
	AdminLogin(ctx context.Context, req models.AdminLoginRequest) (*models.LoginResponse, error)
	MemberLogin(ctx context.Context, req models.MemberLoginRequest) (*models.LoginResponse, error)
}

// AuthHandler exposes login endpoints.
type AuthHandler struct {
	auth LoginService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth LoginService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// AdminLogin godoc
// @Summary Administrator login
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.AdminLoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /admin/login [post]
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.auth.AdminLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MemberLogin godoc
// @Summary Member login by phone and membership ID
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.MemberLoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /member/login [post]
func (h *AuthHandler) MemberLogin(c *gin.Context) {
	var req models.MemberLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.auth.MemberLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
