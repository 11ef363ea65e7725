package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"stocktrace/internal/apierror"
	"stocktrace/internal/dto"
	"stocktrace/internal/middleware"
	"stocktrace/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StockHandler serves availability, manual intake and threshold alerts.
type StockHandler struct {
	explosion service.ExplosionService
	loads     service.LoadService
	alerts    service.AlertService
	rdb       *redis.Client
	cacheTTL  time.Duration
}

func NewStockHandler(
	explosion service.ExplosionService,
	loads service.LoadService,
	alerts service.AlertService,
	rdb *redis.Client,
	cacheTTL time.Duration,
) *StockHandler {
	return &StockHandler{
		explosion: explosion,
		loads:     loads,
		alerts:    alerts,
		rdb:       rdb,
		cacheTTL:  cacheTTL,
	}
}

// Availability godoc
// @Summary Buildable, reserved and available unit counts for a composite
// @Tags stock
// @Produce json
// @Param id path string true "Component ID"
// @Success 200 {object} dto.AvailabilityResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/components/{id}/availability [get]
func (h *StockHandler) Availability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid component id"))
		return
	}
	ctx := c.Request.Context()
	cacheKey := "availability:" + id.String()

	// Availability is recomputed from the whole BOM; serve a short-lived
	// cached copy when one exists.
	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.AvailabilityResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	buildable, err := h.explosion.BuildableUnits(ctx, id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	reserved, err := h.explosion.ReservedUnits(ctx, id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	available := buildable - reserved
	if available < 0 {
		available = 0
	}

	resp := dto.AvailabilityResponse{
		ComponentID: id.String(),
		Buildable:   buildable,
		Reserved:    reserved,
		Available:   available,
	}

	// Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, h.cacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}

// Intake godoc
// @Summary Manual stock intake for a component
// @Tags stock
// @Accept json
// @Produce json
// @Param id path string true "Component ID"
// @Param request body dto.StockIntakeRequest true "Intake"
// @Success 200 {object} dto.StockResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/components/{id}/stock [post]
func (h *StockHandler) Intake(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid component id"))
		return
	}
	var req dto.StockIntakeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.loads.ManualIntake(c.Request.Context(), id, req.Quantity, middleware.GetActor(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	// Stock moved; drop the stale availability entry.
	_ = h.rdb.Del(c.Request.Context(), "availability:"+id.String()).Err()
	c.JSON(http.StatusOK, resp)
}

// Alerts godoc
// @Summary Components below their stock threshold
// @Tags stock
// @Produce json
// @Success 200 {array} dto.AlertResponse
// @Router /v1/alerts [get]
func (h *StockHandler) Alerts(c *gin.Context) {
	resp, err := h.alerts.ListAlerts(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
