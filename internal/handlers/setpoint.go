package handlers

import (
	"errors"
	"net/http"

	"pitwatch/internal/heatermeter"
	"pitwatch/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusSetpointSent   = "setpoint_sent"
	statusPasswordStored = "password_stored"

	errSetpointFailed = "failed to send setpoint"
)

// SetpointRequest is the POST /setpoint payload.
type SetpointRequest struct {
	// Target pit temperature in degrees.
	Setpoint *int `json:"setpoint" binding:"required" example:"225"`
}

// DevicePasswordRequest is the POST /device/password payload.
type DevicePasswordRequest struct {
	// Admin password of the controller's web UI.
	Password string `json:"password" binding:"required"`
}

// @Summary      Change pit setpoint
// @Description  Forwards the setpoint to the device. Requires an admin password in the config and an established device session.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body      SetpointRequest  true  "Setpoint payload"
// @Success      200   {object}  map[string]interface{}  "status, setpoint"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/setpoint [post]
// @Security     BearerAuth
func (h *Handler) postSetpoint(c *gin.Context) {
	var req SetpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	err := h.services.Setpoint.ChangeSetpoint(c.Request.Context(), *req.Setpoint)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": statusSetpointSent, "setpoint": *req.Setpoint})
	case errors.Is(err, service.ErrSetpointOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSetpointUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, heatermeter.ErrNotAuthenticated):
		c.JSON(http.StatusConflict, gin.H{"error": "device session not established yet"})
	default:
		h.logAndJSONError(c, http.StatusBadGateway, errSetpointFailed, "setpoint_failed", err, "setpoint", *req.Setpoint)
	}
}

// @Summary      Set device admin password
// @Description  Replaces the controller admin password; the next poll logs in with it and the result shows up in /status.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body      DevicePasswordRequest  true  "Password payload"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/device/password [post]
// @Security     BearerAuth
func (h *Handler) postDevicePassword(c *gin.Context) {
	var req DevicePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	if err := h.services.Setpoint.SetDevicePassword(c.Request.Context(), req.Password); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusPasswordStored})
}
