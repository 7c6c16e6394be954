package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kingstar-club/membership-api/internal/models"
	appErrors "github.com/kingstar-club/membership-api/pkg/errors"
	"github.com/kingstar-club/membership-api/pkg/response"
	"github.com/kingstar-club/membership-api/pkg/storage"
)

type attachmentMemberFinder interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
}

// AttachmentHandler issues signed download links for a member's stored
// attachments and serves the files back when presented with a valid token.
type AttachmentHandler struct {
	members attachmentMemberFinder
	files   *storage.LocalProvider
	signer  *storage.SignedURLSigner
}

// NewAttachmentHandler constructs AttachmentHandler.
func NewAttachmentHandler(members attachmentMemberFinder, files *storage.LocalProvider, signer *storage.SignedURLSigner) *AttachmentHandler {
	return &AttachmentHandler{members: members, files: files, signer: signer}
}

// SignedLinks godoc
// @Summary Issue signed download links for a member's attachments
// @Tags Admin
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/{id}/attachments [get]
func (h *AttachmentHandler) SignedLinks(c *gin.Context) {
	member, err := h.members.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "member not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member"))
		return
	}

	links := gin.H{}
	for kind, publicID := range map[string]*string{
		"photo":         member.PhotoID,
		"payment_proof": member.PaymentProofID,
	} {
		if publicID == nil || *publicID == "" {
			continue
		}
		token, expiresAt, err := h.signer.Generate(*publicID)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign attachment link"))
			return
		}
		links[kind] = gin.H{
			"url":        "/files/" + token,
			"expires_at": expiresAt,
		}
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// Download godoc
// @Summary Download an attachment using a signed token
// @Tags Files
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Router /files/{token} [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	publicID, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired link"))
		return
	}
	c.File(h.files.Path(publicID))
}
