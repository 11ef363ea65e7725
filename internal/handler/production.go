package handler

import (
	"net/http"

	"stocktrace/internal/apierror"
	"stocktrace/internal/dto"
	"stocktrace/internal/infra"
	"stocktrace/internal/middleware"
	"stocktrace/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductionHandler serves the reservation, loading, association and build
// endpoints — the write side of the engine.
type ProductionHandler struct {
	reservations service.ReservationService
	loads        service.LoadService
	builds       service.BuildService
	associations service.AssociationService
	history      service.HistoryService
	pdfPath      string
}

func NewProductionHandler(
	reservations service.ReservationService,
	loads service.LoadService,
	builds service.BuildService,
	associations service.AssociationService,
	history service.HistoryService,
	pdfPath string,
) *ProductionHandler {
	return &ProductionHandler{
		reservations: reservations,
		loads:        loads,
		builds:       builds,
		associations: associations,
		history:      history,
		pdfPath:      pdfPath,
	}
}

// CreateReservation godoc
// @Summary Create a reservation with production boxes and coded stock items
// @Tags production
// @Accept json
// @Produce json
// @Param request body dto.ReservationRequest true "Reservation"
// @Success 201 {object} dto.ReservationResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/reservations [post]
func (h *ProductionHandler) CreateReservation(c *gin.Context) {
	var req dto.ReservationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.reservations.CreateReservation(c.Request.Context(), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetBox godoc
// @Summary Get a production box with its stock items
// @Tags production
// @Produce json
// @Param id path string true "Box ID"
// @Success 200 {object} dto.BoxResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/boxes/{id} [get]
func (h *ProductionHandler) GetBox(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid box id"))
		return
	}
	resp, err := h.reservations.GetBox(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LoadBox godoc
// @Summary Load a whole box or a single item into the warehouse
// @Tags production
// @Accept json
// @Produce json
// @Param id path string true "Box ID"
// @Param request body dto.LoadRequest false "Optional single item"
// @Success 200 {object} dto.LoadResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/boxes/{id}/load [post]
func (h *ProductionHandler) LoadBox(c *gin.Context) {
	boxID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid box id"))
		return
	}
	var req dto.LoadRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	var itemID *uuid.UUID
	if req.ItemID != nil {
		id, err := uuid.Parse(*req.ItemID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid item id"))
			return
		}
		itemID = &id
	}
	resp, err := h.loads.LoadBox(c.Request.Context(), boxID, itemID, middleware.GetActor(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Associate godoc
// @Summary Link a component stock instance to its parent assembly code
// @Tags production
// @Accept json
// @Produce json
// @Param request body dto.AssociateRequest true "Association"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.RejectionError
// @Router /v1/associate [post]
func (h *ProductionHandler) Associate(c *gin.Context) {
	var req dto.AssociateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	err := h.associations.Associate(c.Request.Context(), req.ComponentCode, req.ParentCode, middleware.GetActor(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AttemptBuild godoc
// @Summary Execute a build transaction
// @Tags production
// @Accept json
// @Produce json
// @Param request body dto.BuildRequest true "Build"
// @Success 201 {object} dto.BuildResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.RejectionError
// @Router /v1/builds [post]
func (h *ProductionHandler) AttemptBuild(c *gin.Context) {
	var req dto.BuildRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.builds.AttemptBuild(c.Request.Context(), req, middleware.GetActor(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// BuildReport godoc
// @Summary Download the consumption tree of a build as PDF
// @Tags production
// @Produce application/pdf
// @Param id path string true "Build ID"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Router /v1/builds/{id}/report.pdf [get]
func (h *ProductionHandler) BuildReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid build id"))
		return
	}
	tree, err := h.history.ReconstructBuild(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	path, err := infra.GenerateBuildReportPDF(tree, h.pdfPath)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.FileAttachment(path, "build_"+tree.BuildID+".pdf")
}
