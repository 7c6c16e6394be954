package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kingstar-club/membership-api/internal/service"
	"github.com/kingstar-club/membership-api/pkg/response"
)

// CardRenderService defines the subset of the card service used by the
// handler.
type CardRenderService interface {
	Render(ctx context.Context, memberID string) (*service.MembershipCard, error)
}

// CardHandler serves generated membership card PDFs.
type CardHandler struct {
	cards CardRenderService
}

// NewCardHandler constructs CardHandler.
func NewCardHandler(cards CardRenderService) *CardHandler {
	return &CardHandler{cards: cards}
}

// Download godoc
// @Summary Download the membership card PDF
// @Tags Cards
// @Produce application/pdf
// @Param id path string true "Member ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /membership-card/{id} [get]
func (h *CardHandler) Download(c *gin.Context) {
	card, err := h.cards.Render(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+card.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", card.Data)
}
