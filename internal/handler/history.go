package handler

import (
	"net/http"
	"strings"
	"time"

	"stocktrace/internal/apierror"
	"stocktrace/internal/dto"
	"stocktrace/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HistoryHandler serves the read side of the audit engine: consumption
// trees, event archives and instance code resolution.
type HistoryHandler struct {
	history      service.HistoryService
	reservations service.ReservationService
}

func NewHistoryHandler(history service.HistoryService, reservations service.ReservationService) *HistoryHandler {
	return &HistoryHandler{history: history, reservations: reservations}
}

// GetHistory godoc
// @Summary Reconstructed consumption trees of a component, newest first
// @Tags history
// @Produce json
// @Param id path string true "Component ID"
// @Success 200 {array} dto.ConsumptionTree
// @Failure 404 {object} apierror.APIError
// @Router /v1/components/{id}/history [get]
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid component id"))
		return
	}
	trees, err := h.history.GetHistory(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trees)
}

// ListEvents godoc
// @Summary Audit event archive for a component's instances, newest first
// @Tags history
// @Produce json
// @Param id path string true "Component ID"
// @Success 200 {array} dto.AuditEventRecord
// @Failure 404 {object} apierror.APIError
// @Router /v1/components/{id}/events [get]
func (h *HistoryHandler) ListEvents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid component id"))
		return
	}
	events, err := h.history.ListEvents(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]dto.AuditEventRecord, 0, len(events))
	for _, ev := range events {
		out = append(out, dto.AuditEventRecord{
			ID:        ev.ID.String(),
			Code:      ev.Code,
			Action:    ev.Action,
			Meta:      ev.Meta,
			CreatedAt: ev.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

// ResolveCode godoc
// @Summary Resolve an instance code to its item, box, reservation and events
// @Tags history
// @Produce json
// @Param code path string true "Instance code (pipe-delimited)"
// @Success 200 {object} dto.CodeResolution
// @Failure 404 {object} apierror.APIError
// @Router /v1/codes/{code} [get]
func (h *HistoryHandler) ResolveCode(c *gin.Context) {
	// Wildcard params keep their leading slash; instance codes also travel
	// pipe-delimited, so no further unescaping is needed.
	code := strings.TrimPrefix(c.Param("code"), "/")
	if code == "" {
		c.JSON(http.StatusBadRequest, apierror.New("missing code"))
		return
	}
	resp, err := h.reservations.ResolveCode(c.Request.Context(), code)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
