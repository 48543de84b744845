package reports

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"practicum-portal/portal-backend/internal/compliance"
)

// Handler serves compliance report downloads
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/:userId/compliance/export", h.ExportUser)
	rg.GET("/compliance/export", h.ExportRoster)
}

func (h *Handler) ExportUser(c *gin.Context) {
	format, err := ParseFormat(c.DefaultQuery("format", string(FormatXLSX)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.ExportUser(c.Request.Context(), c.Param("userId"), format)
	if err != nil {
		h.fail(c, "Failed to export compliance report", err)
		return
	}
	h.send(c, report)
}

func (h *Handler) ExportRoster(c *gin.Context) {
	format, err := ParseFormat(c.DefaultQuery("format", string(FormatXLSX)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.ExportRoster(c.Request.Context(), format)
	if err != nil {
		h.fail(c, "Failed to export roster report", err)
		return
	}
	h.send(c, report)
}

func (h *Handler) send(c *gin.Context, report *Report) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	c.Data(http.StatusOK, report.ContentType, report.Data)
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status := compliance.StatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		h.logger.Warn(msg, zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
