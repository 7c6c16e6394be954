package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kingstar-club/membership-api/internal/dto"
	"github.com/kingstar-club/membership-api/internal/middleware"
	"github.com/kingstar-club/membership-api/internal/models"
	"github.com/kingstar-club/membership-api/internal/service"
	appErrors "github.com/kingstar-club/membership-api/pkg/errors"
	"github.com/kingstar-club/membership-api/pkg/response"
)

// ReviewWorkflowService defines the subset of the review service used by the
// handler.
type ReviewWorkflowService interface {
	ListPending(ctx context.Context, page, pageSize int) ([]models.Member, *models.Pagination, error)
	ListAll(ctx context.Context, search string, page, pageSize int) ([]models.Member, *models.Pagination, error)
	Approve(ctx context.Context, id string, audit service.AuditContext) (*models.Member, error)
	Reject(ctx context.Context, id string, audit service.AuditContext) (*models.Member, error)
	Edit(ctx context.Context, id string, req dto.EditMemberRequest, audit service.AuditContext) (*models.Member, error)
	Delete(ctx context.Context, id string, audit service.AuditContext) error
	ExportRoster(ctx context.Context) ([]byte, error)
	RecentActivity(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AdminHandler exposes the review workflow to administrators.
type AdminHandler struct {
	review ReviewWorkflowService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(review ReviewWorkflowService) *AdminHandler {
	return &AdminHandler{review: review}
}

// ListPending godoc
// @Summary List applications awaiting review
// @Tags Admin
// @Produce json
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/pending-users [get]
func (h *AdminHandler) ListPending(c *gin.Context) {
	page, size := pageParams(c)
	members, pagination, err := h.review.ListPending(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, pagination)
}

// ListAll godoc
// @Summary List every member record
// @Tags Admin
// @Produce json
// @Param search query string false "Match against name, nickname, phone or membership id"
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/all-users [get]
func (h *AdminHandler) ListAll(c *gin.Context) {
	page, size := pageParams(c)
	members, pagination, err := h.review.ListAll(c.Request.Context(), c.Query("search"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, pagination)
}

// Approve godoc
// @Summary Approve an application
// @Tags Admin
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/approve/{id} [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	member, err := h.review.Approve(c.Request.Context(), c.Param("id"), auditContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Reject godoc
// @Summary Reject an application
// @Tags Admin
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/reject/{id} [post]
func (h *AdminHandler) Reject(c *gin.Context) {
	member, err := h.review.Reject(c.Request.Context(), c.Param("id"), auditContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Edit godoc
// @Summary Edit a member's demographic fields
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param payload body dto.EditMemberRequest true "Fields to overwrite"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/{id} [put]
func (h *AdminHandler) Edit(c *gin.Context) {
	var req dto.EditMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.review.Edit(c.Request.Context(), c.Param("id"), req, auditContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Delete godoc
// @Summary Delete a member record and its attachments
// @Tags Admin
// @Produce json
// @Param id path string true "Member ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.review.Delete(c.Request.Context(), c.Param("id"), auditContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportRoster godoc
// @Summary Download the member roster as CSV
// @Tags Admin
// @Produce text/csv
// @Success 200 {file} file
// @Security BearerAuth
// @Router /admin/export [get]
func (h *AdminHandler) ExportRoster(c *gin.Context) {
	data, err := h.review.ExportRoster(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := "members_" + time.Now().Format("20060102") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// AuditLogs godoc
// @Summary List recent administrative actions
// @Tags Admin
// @Produce json
// @Param limit query int false "Maximum number of entries" default(50)
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/audit-logs [get]
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.review.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}

func auditContext(c *gin.Context) service.AuditContext {
	audit := service.AuditContext{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if claims := middleware.Claims(c); claims != nil {
		audit.Actor = claims.SubjectID
	}
	return audit
}
