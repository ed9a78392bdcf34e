package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"pitwatch"
	"pitwatch/internal/service"

	"github.com/gin-gonic/gin"
)

var queryTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// logQuery is the query string of GET /logs.
type logQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
	Type string `form:"type"`
}

// filter validates the query. A date-only 'to' covers the whole day.
func (q logQuery) filter() (service.LogFilter, error) {
	var f service.LogFilter
	var err error
	if q.From != "" {
		if f.From, _, err = parseQueryTime(q.From); err != nil {
			return f, fmt.Errorf("invalid 'from': %w", err)
		}
	}
	if q.To != "" {
		var dateOnly bool
		if f.To, dateOnly, err = parseQueryTime(q.To); err != nil {
			return f, fmt.Errorf("invalid 'to': %w", err)
		}
		if dateOnly {
			f.To = f.To.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, errors.New("'from' must be <= 'to'")
	}
	if typ := strings.ToUpper(strings.TrimSpace(q.Type)); typ != "" {
		if !slices.Contains(pitwatch.EventTypes, typ) {
			return f, fmt.Errorf("unknown event type %q, expected one of %s", q.Type, strings.Join(pitwatch.EventTypes, ", "))
		}
		f.Type = typ
	}
	return f, nil
}

// @Summary      List logs
// @Description  Events recorded by the poller, the alarm check and control requests. A date-only 'to' is inclusive to the end of that day (UTC).
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2026-08-01)
// @Param        to    query   string  false  "End of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2026-08-31)
// @Param        type  query   string  false  "Event type"  Enums(SYNC,STATUS,NO_DATA,AUTH,SETPOINT,ALARM)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
func (h *Handler) getLogs(c *gin.Context) {
	var q logQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := q.filter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("logs_list_failed", "err", err, "from", f.From, "to", f.To, "type", f.Type)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// parseQueryTime accepts the layouts in queryTimeLayouts and returns UTC.
// dateOnly reports whether s carried no time of day.
func parseQueryTime(s string) (t time.Time, dateOnly bool, err error) {
	for i, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), i == len(queryTimeLayouts)-1, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%q is not RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'", s)
}
