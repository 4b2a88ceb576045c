package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/backoffice/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Version is the build version reported by the system info endpoint.
// Overridden at build time via -ldflags "-X ...handler.Version=...".
var Version = "1.0.0"

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	appName     string
	environment string
	startTime   time.Time
}

// NewSystemHandler creates a new SystemHandler. appName and environment come
// from the application config and fall back to sensible defaults when empty.
func NewSystemHandler(appName, environment string) *SystemHandler {
	if appName == "" {
		appName = "backoffice-backend"
	}
	if environment == "" {
		environment = "development"
	}
	return &SystemHandler{
		appName:     appName,
		environment: environment,
		startTime:   time.Now(),
	}
}

// SystemInfoResponse represents the system information response
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name        string `json:"name" example:"backoffice-backend"`
	Version     string `json:"version" example:"1.0.0"`
	Environment string `json:"environment" example:"production"`
	GoVersion   string `json:"go_version" example:"go1.25.5"`
	Goroutines  int    `json:"goroutines" example:"12"`
	Uptime      string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version, environment and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:        h.appName,
		Version:     Version,
		Environment: h.environment,
		GoVersion:   runtime.Version(),
		Goroutines:  runtime.NumGoroutine(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
// @name HandlerPingResponse
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}
