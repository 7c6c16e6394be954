package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kingstar-club/membership-api/internal/dto"
	"github.com/kingstar-club/membership-api/internal/models"
	appErrors "github.com/kingstar-club/membership-api/pkg/errors"
	"github.com/kingstar-club/membership-api/pkg/response"
)

// MemberRegistrationService defines the subset of the member service used by
// the handler.
type MemberRegistrationService interface {
	Register(ctx context.Context, req dto.RegisterRequest, photo, proof *dto.FileUpload) (*models.Member, error)
	Get(ctx context.Context, id string) (*models.Member, error)
	SubmitPayment(ctx context.Context, id string, proof *dto.FileUpload) (*models.Member, error)
}

// MemberHandler exposes registration and member self-service endpoints.
type MemberHandler struct {
	members     MemberRegistrationService
	maxFileSize int64
}

// NewMemberHandler constructs MemberHandler.
func NewMemberHandler(members MemberRegistrationService, maxFileSize int64) *MemberHandler {
	return &MemberHandler{members: members, maxFileSize: maxFileSize}
}

// Register godoc
// @Summary Register a membership application
// @Tags Members
// @Accept mpfd
// @Produce json
// @Param name formData string true "Full name"
// @Param nickname formData string true "Nickname"
// @Param phone formData string true "Phone number"
// @Param blood_group formData string true "Blood group"
// @Param address formData string true "Address"
// @Param photo formData file false "Profile photo"
// @Param paymentProof formData file false "Payment proof"
// @Success 201 {object} response.Envelope
// @Router /auth/register [post]
func (h *MemberHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	photo, err := h.formUpload(c, "photo")
	if err != nil {
		response.Error(c, err)
		return
	}
	proof, err := h.formUpload(c, "paymentProof")
	if err != nil {
		response.Error(c, err)
		return
	}

	member, err := h.members.Register(c.Request.Context(), req, photo, proof)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Get godoc
// @Summary Get a member record
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /user/{id} [get]
func (h *MemberHandler) Get(c *gin.Context) {
	member, err := h.members.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// SubmitPayment godoc
// @Summary Upload payment proof for an existing application
// @Tags Members
// @Accept mpfd
// @Produce json
// @Param id path string true "Member ID"
// @Param paymentProof formData file true "Payment proof"
// @Success 200 {object} response.Envelope
// @Router /user/{id}/payment-proof [post]
func (h *MemberHandler) SubmitPayment(c *gin.Context) {
	proof, err := h.formUpload(c, "paymentProof")
	if err != nil {
		response.Error(c, err)
		return
	}
	if proof == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "payment proof file is required"))
		return
	}

	member, err := h.members.SubmitPayment(c.Request.Context(), c.Param("id"), proof)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// formUpload reads an optional multipart file into memory, bounding the read
// by the configured maximum size.
func (h *MemberHandler) formUpload(c *gin.Context, field string) (*dto.FileUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		// absent files are fine; the service decides whether they are required
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		if errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "malformed multipart body")
	}
	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit")
	}

	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload")
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload")
	}

	return &dto.FileUpload{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}
