package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gracepoint-labs/checkin-api/internal/models"
	"github.com/gracepoint-labs/checkin-api/internal/service"
	appErrors "github.com/gracepoint-labs/checkin-api/pkg/errors"
	"github.com/gracepoint-labs/checkin-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the device auth service.
type AuthHandler struct {
	service *service.DeviceAuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.DeviceAuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate kiosk
// @Description Authenticate a kiosk device by id and PIN
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.KioskLoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/kiosk/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.KioskLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
