package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errExport          = "failed to export samples"
	errInvalidBodyPref = "invalid body: "

	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Latest status
// @Description  Latest sample with per-probe alarm and rate texts. status_message is returned once after a login attempt.
// @Tags         samples
// @Produce      json
// @Success      200  {object}  service.StatusView
// @Router       /api/v1/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Status(c.Request.Context()))
}

// @Summary      Sample series
// @Tags         samples
// @Produce      json
// @Success      200  {object}  service.SamplesView
// @Router       /api/v1/samples [get]
func (h *Handler) getSamples(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Samples(c.Request.Context()))
}

// @Summary      Export samples as CSV
// @Description  Same format the device serves from /luci/lm/hist, so the file can be loaded back as saved history.
// @Tags         samples
// @Produce      text/csv
// @Success      200  {string}  string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/samples/export.csv [get]
func (h *Handler) exportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.services.Monitoring.ExportCSV(&buf); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errExport, "export_csv_failed", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="samples.csv"`)
	c.Data(http.StatusOK, mimeCSV, buf.Bytes())
}

// @Summary      Export samples as XLSX
// @Tags         samples
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    file
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/samples/export.xlsx [get]
func (h *Handler) exportXLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.services.Monitoring.ExportXLSX(&buf); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errExport, "export_xlsx_failed", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="samples.xlsx"`)
	c.Data(http.StatusOK, mimeXLSX, buf.Bytes())
}
