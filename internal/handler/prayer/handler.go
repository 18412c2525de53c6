package prayer

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parishkit/chms-api/internal/handler"
	"github.com/parishkit/chms-api/internal/middleware"
	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/service/prayer"
)

type Handler struct {
	service prayer.PrayerService
}

func NewHandler(service prayer.PrayerService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	prayers := r.Group("/prayer-requests")
	{
		prayers.POST("", h.Create)
		prayers.GET("", h.List)
		prayers.GET("/:id", h.Get)
		prayers.PUT("/:id/assign", h.Assign)
		prayers.PUT("/:id/status", h.UpdateStatus)
	}
	r.GET("/batches/:id/prayer-requests", h.GetBatchWithRequests)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreatePrayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.service.Create(c.Request.Context(), middleware.ViewerFromContext(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prayer request ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), middleware.ViewerFromContext(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) List(c *gin.Context) {
	var filter model.PrayerFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	reqs, err := h.service.List(c.Request.Context(), middleware.ViewerFromContext(c), &filter)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(reqs))
}

func (h *Handler) GetBatchWithRequests(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid batch ID"))
		return
	}

	batch, err := h.service.GetBatchWithRequests(c.Request.Context(), middleware.ViewerFromContext(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(batch))
}

func (h *Handler) Assign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prayer request ID"))
		return
	}

	var req model.AssignPrayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	assigneeID, err := uuid.Parse(req.AssignedToID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid assignee ID"))
		return
	}

	if err := h.service.Assign(c.Request.Context(), middleware.ViewerFromContext(c), id, assigneeID); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prayer request ID"))
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), middleware.ViewerFromContext(c), id, req.Status); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
