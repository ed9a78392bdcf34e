package handlers

import (
	"errors"
	"net/http"

	"pitwatch"
	"pitwatch/internal/alarm"

	"github.com/gin-gonic/gin"
)

const errSaveAlarms = "failed to save alarm settings"

var (
	errAlarmFormsMixed = errors.New("send either lo/hi or probes, not both")
	errAlarmFormsEmpty = errors.New("lo and hi, or probes, are required")
	errAlarmProbeCount = errors.New("probes must list every probe")
)

// AlarmRequest is the PUT /alarms payload. Thresholds come either packed
// (positive enabled, negative disabled) or decoded per probe.
type AlarmRequest struct {
	Lo     *[pitwatch.NumProbes]int `json:"lo,omitempty" example:"-70,-70,-70,-70"`
	Hi     *[pitwatch.NumProbes]int `json:"hi,omitempty" example:"250,-200,-200,-200"`
	Probes []ProbeAlarm             `json:"probes,omitempty"`
}

// ProbeAlarm is the decoded form of one probe's thresholds.
type ProbeAlarm struct {
	Lo alarm.Bound `json:"lo"`
	Hi alarm.Bound `json:"hi"`
}

func (r AlarmRequest) settings() (alarm.Settings, error) {
	packed := r.Lo != nil || r.Hi != nil
	switch {
	case packed && len(r.Probes) > 0:
		return alarm.Settings{}, errAlarmFormsMixed
	case packed:
		if r.Lo == nil || r.Hi == nil {
			return alarm.Settings{}, errAlarmFormsEmpty
		}
		return alarm.Settings{Lo: *r.Lo, Hi: *r.Hi}, nil
	case len(r.Probes) == 0:
		return alarm.Settings{}, errAlarmFormsEmpty
	case len(r.Probes) != pitwatch.NumProbes:
		return alarm.Settings{}, errAlarmProbeCount
	}

	var s alarm.Settings
	for p, pa := range r.Probes {
		s.Lo[p] = alarm.Encode(pa.Lo)
		s.Hi[p] = alarm.Encode(pa.Hi)
	}
	return s, nil
}

// @Summary      Get alarm settings
// @Tags         alarms
// @Produce      json
// @Success      200  {object}  service.AlarmView
// @Router       /api/v1/alarms [get]
func (h *Handler) getAlarms(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Alarms.Get())
}

// @Summary      Replace alarm settings
// @Description  Accepts packed lo/hi arrays or decoded per-probe bounds. Settings are persisted.
// @Tags         alarms
// @Accept       json
// @Produce      json
// @Param        body  body      AlarmRequest  true  "Alarm thresholds"
// @Success      200   {object}  service.AlarmView
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/alarms [put]
// @Security     BearerAuth
func (h *Handler) putAlarms(c *gin.Context) {
	var req AlarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	s, err := req.settings()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	view, err := h.services.Alarms.Update(c.Request.Context(), s)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveAlarms, "alarms_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Evaluate alarms now
// @Description  Runs the alarm check against the latest sample without recording an event.
// @Tags         alarms
// @Produce      json
// @Success      200  {object}  alarm.Report
// @Router       /api/v1/alarms/check [get]
func (h *Handler) checkAlarms(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Alarms.Check())
}
