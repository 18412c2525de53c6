package export

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parishkit/chms-api/internal/handler"
	"github.com/parishkit/chms-api/internal/middleware"
	"github.com/parishkit/chms-api/internal/service/export"
)

type Handler struct {
	service export.ExportService
}

func NewHandler(service export.ExportService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/export/cards", h.ExportCards)
}

// ExportCards streams reviewed cards as a CSV download. Query params:
// format (planning_center, breeze, generic), from and to (YYYY-MM-DD,
// both optional).
func (h *Handler) ExportCards(c *gin.Context) {
	format := c.Query("format")
	if format == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("format is required"))
		return
	}

	from, ok := parseDay(c, "from")
	if !ok {
		return
	}
	to, ok := parseDay(c, "to")
	if !ok {
		return
	}

	res, err := h.service.ExportCards(c.Request.Context(), middleware.ViewerFromContext(c), format, from, to)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(res.Content))
}

func parseDay(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(fmt.Sprintf("invalid %s date, expected YYYY-MM-DD", name)))
		return time.Time{}, false
	}
	return day, true
}
