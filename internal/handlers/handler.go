package handlers

import (
	"net/http"

	"pitwatch/internal/logger"
	"pitwatch/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	metrics  http.Handler
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies. metrics may be
// nil, in which case /metrics is not registered.
func NewHandler(services *service.Service, metrics http.Handler, log *logger.Logger) *Handler {
	return &Handler{services: services, metrics: metrics, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Live sample push, one message per applied tick.
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/status", h.getStatus)
		h.registerSampleRoutes(api)
		h.registerAlarmRoutes(api)
		api.GET("/logs", h.getLogs)
	}

	protected := api.Group("", h.requireOperator)
	{
		protected.PUT("/alarms", h.putAlarms)
		// Body example: {"setpoint":225}
		protected.POST("/setpoint", h.postSetpoint)
		protected.POST("/device/password", h.postDevicePassword)
	}
}

func (h *Handler) registerSampleRoutes(api *gin.RouterGroup) {
	samples := api.Group("/samples")
	{
		samples.GET("", h.getSamples)
		samples.GET("/export.csv", h.exportCSV)
		samples.GET("/export.xlsx", h.exportXLSX)
	}
}

func (h *Handler) registerAlarmRoutes(api *gin.RouterGroup) {
	alarms := api.Group("/alarms")
	{
		alarms.GET("", h.getAlarms)
		alarms.GET("/check", h.checkAlarms)
	}
}
