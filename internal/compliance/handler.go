package compliance

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for compliance views and reviews
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users/:userId")
	{
		users.GET("/compliance", h.GetSummary)
		users.GET("/compliance/groups/:documentTypeId", h.GetDoseGroup)
		users.POST("/documents/:documentTypeId/review", h.Review)
	}

	rg.POST("/compliance/resolve", h.Resolve)
	rg.POST("/document-types/group", h.GroupDocumentTypes)
}

func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.service.GetSummary(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, "Failed to build compliance summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetDoseGroup(c *gin.Context) {
	group, err := h.service.GetDoseGroup(c.Request.Context(), c.Param("userId"), c.Param("documentTypeId"))
	if err != nil {
		h.fail(c, "Failed to resolve dose group", err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (h *Handler) Resolve(c *gin.Context) {
	var bundle ProfileBundle
	if err := c.ShouldBindJSON(&bundle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.Resolve(bundle))
}

func (h *Handler) GroupDocumentTypes(c *gin.Context) {
	var defs []DocumentTypeDefinition
	if err := c.ShouldBindJSON(&defs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GroupDocumentTypes(defs))
}

func (h *Handler) Review(c *gin.Context) {
	var req struct {
		Action     string     `json:"action" binding:"required"`
		DoseNumber FlexNumber `json:"doseNumber"`
		Comments   string     `json:"comments"`
		ReviewerID string     `json:"reviewerId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.ReviewDocument(c.Request.Context(), ReviewRequest{
		UserID:         c.Param("userId"),
		DocumentTypeID: c.Param("documentTypeId"),
		DoseNumber:     req.DoseNumber,
		Action:         req.Action,
		Comments:       req.Comments,
		ReviewerID:     req.ReviewerID,
	})
	if err != nil {
		h.fail(c, "Failed to review document", err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		h.logger.Warn(msg, zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusCode maps service errors to HTTP status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidAction), errors.Is(err, ErrCommentRequired), errors.Is(err, ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrTransitionNotAllowed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
