package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gracepoint-labs/checkin-api/internal/dto"
	"github.com/gracepoint-labs/checkin-api/internal/middleware"
	"github.com/gracepoint-labs/checkin-api/internal/models"
	"github.com/gracepoint-labs/checkin-api/internal/service"
	appErrors "github.com/gracepoint-labs/checkin-api/pkg/errors"
	"github.com/gracepoint-labs/checkin-api/pkg/response"
)

// CheckInHandler wires the kiosk check-in endpoints to the coordinator.
type CheckInHandler struct {
	checkIn *service.CheckInService
	labels  *service.LabelService
}

// NewCheckInHandler creates a new handler.
func NewCheckInHandler(checkIn *service.CheckInService, labels *service.LabelService) *CheckInHandler {
	return &CheckInHandler{checkIn: checkIn, labels: labels}
}

func kioskClaims(c *gin.Context) (*models.KioskClaims, bool) {
	raw, ok := c.Get(middleware.ContextKioskKey)
	if !ok {
		return nil, false
	}
	claims, ok := raw.(*models.KioskClaims)
	return claims, ok
}

// Search godoc
// @Summary Search families
// @Description Resolve a search term into families with their members
// @Tags CheckIn
// @Produce json
// @Param term query string true "Search term"
// @Param campus_id query string false "Preferred campus"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /checkin/search [post]
func (h *CheckInHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search payload"))
		return
	}

	campusID := req.CampusID
	if claims, ok := kioskClaims(c); ok && campusID == "" {
		campusID = claims.CampusID
	}

	results, err := h.checkIn.SearchFamilies(c.Request.Context(), req.Term, campusID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, results, nil)
}

// FamilyCheckIn godoc
// @Summary Resolve family check-in options
// @Description Build filtered check-in options for every member of a family
// @Tags CheckIn
// @Accept json
// @Produce json
// @Param payload body service.FamilyCheckInRequest true "Family check-in payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /checkin/family [post]
func (h *CheckInHandler) FamilyCheckIn(c *gin.Context) {
	var req service.FamilyCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid check-in payload"))
		return
	}
	if claims, ok := kioskClaims(c); ok {
		req.KioskID = claims.KioskID
	}

	result, err := h.checkIn.FamilyCheckIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// PersonCheckIn godoc
// @Summary Resolve single-person check-in options
// @Description Build filtered check-in options for one person
// @Tags CheckIn
// @Accept json
// @Produce json
// @Param payload body service.PersonCheckInRequest true "Person check-in payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /checkin/person [post]
func (h *CheckInHandler) PersonCheckIn(c *gin.Context) {
	var req service.PersonCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid check-in payload"))
		return
	}
	if claims, ok := kioskClaims(c); ok {
		req.KioskID = claims.KioskID
	}

	result, err := h.checkIn.PersonCheckIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Current godoc
// @Summary List current attendance
// @Description List open attendance rows still eligible for check-out
// @Tags CheckIn
// @Produce json
// @Param person_ids query []string true "Person ids"
// @Success 200 {object} response.Envelope
// @Router /checkin/current [get]
func (h *CheckInHandler) Current(c *gin.Context) {
	var req dto.CurrentAttendanceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	var kioskID string
	if claims, ok := kioskClaims(c); ok {
		kioskID = claims.KioskID
	}

	rows, err := h.checkIn.CurrentAttendance(c.Request.Context(), req.PersonIDs, kioskID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows, nil)
}

// Labels godoc
// @Summary Print name tags
// @Description Render name tags for people currently checked in
// @Tags CheckIn
// @Accept json
// @Produce application/pdf
// @Param payload body dto.LabelRequest true "Label payload"
// @Success 200 {file} binary
// @Failure 422 {object} response.Envelope
// @Router /checkin/labels [post]
func (h *CheckInHandler) Labels(c *gin.Context) {
	var req dto.LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid label payload"))
		return
	}

	var kioskID string
	if claims, ok := kioskClaims(c); ok {
		kioskID = claims.KioskID
	}

	switch req.Format {
	case "csv":
		data, err := h.labels.RosterCSV(c.Request.Context(), req.PersonIDs, kioskID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="roster.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
		return
	case "roster":
		data, err := h.labels.RosterPDF(c.Request.Context(), req.PersonIDs, kioskID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="roster.pdf"`)
		c.Data(http.StatusOK, "application/pdf", data)
		return
	}

	data, err := h.labels.RenderLabels(c.Request.Context(), req.PersonIDs, kioskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="labels.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
