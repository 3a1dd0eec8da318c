package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status  string    `json:"status"`
	Service string    `json:"service"`
	Version string    `json:"version"`
	Time    time.Time `json:"time"`
}

// SystemHandler serves liveness
type SystemHandler struct {
	service string
	version string
	now     func() time.Time
}

// NewSystemHandler creates a SystemHandler
func NewSystemHandler(service, version string) *SystemHandler {
	return &SystemHandler{service: service, version: version, now: time.Now}
}

// Health reports that the server is up
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: h.service,
		Version: h.version,
		Time:    h.now().UTC(),
	})
}
