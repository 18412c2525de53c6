package card

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parishkit/chms-api/internal/handler"
	"github.com/parishkit/chms-api/internal/middleware"
	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/service/card"
	"github.com/parishkit/chms-api/internal/storage"
)

type Handler struct {
	service card.CardService
	store   storage.Store
}

func NewHandler(service card.CardService, store storage.Store) *Handler {
	return &Handler{service: service, store: store}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	cards := r.Group("/cards")
	{
		cards.POST("", h.CreateCard)
		cards.GET("", h.ListCards)
		cards.GET("/:id", h.GetCard)
		cards.PUT("/:id", h.UpdateCard)
		cards.PUT("/:id/review", h.ReviewCard)
		cards.GET("/:id/scan-url", h.GetCardScanURL)
		cards.DELETE("/:id", h.DeleteCard)
	}
	batches := r.Group("/batches")
	{
		batches.POST("/active", h.GetOrCreateActiveBatch)
		batches.GET("", h.ListBatches)
		batches.GET("/:id", h.GetBatch)
		batches.PUT("/:id/status", h.UpdateBatchStatus)
	}
}

func (h *Handler) CreateCard(c *gin.Context) {
	var req model.CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.service.CreateCard(c.Request.Context(), middleware.ViewerFromContext(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetCard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid card ID"))
		return
	}

	found, err := h.service.GetCard(c.Request.Context(), middleware.ViewerFromContext(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

// GetCardScanURL resolves a card's scan key to a time-limited download
// URL. Scope checks ride on the card lookup.
func (h *Handler) GetCardScanURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid card ID"))
		return
	}

	found, err := h.service.GetCard(c.Request.Context(), middleware.ViewerFromContext(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	if found.ScanKey == nil || *found.ScanKey == "" {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("card has no scan"))
		return
	}

	if path, ok := storage.ResolvePlaceholder(*found.ScanKey); ok {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"url": path}))
		return
	}

	url, err := h.store.URL(c.Request.Context(), *found.ScanKey)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"url": url}))
}

func (h *Handler) ListCards(c *gin.Context) {
	var filter model.CardFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	cards, err := h.service.ListCards(c.Request.Context(), middleware.ViewerFromContext(c), &filter)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(cards))
}

func (h *Handler) UpdateCard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid card ID"))
		return
	}

	var req model.UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.UpdateCard(c.Request.Context(), middleware.ViewerFromContext(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) ReviewCard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid card ID"))
		return
	}

	var req model.UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	reviewed, err := h.service.ReviewCard(c.Request.Context(), middleware.ViewerFromContext(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(reviewed))
}

func (h *Handler) DeleteCard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid card ID"))
		return
	}

	if err := h.service.DeleteCard(c.Request.Context(), middleware.ViewerFromContext(c), id); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

type activeBatchRequest struct {
	LocationID string `json:"location_id"`
}

// GetOrCreateActiveBatch returns today's open batch for the caller's
// location, creating it if none exists. Concurrent calls converge on
// one batch; a 409 means the caller should retry.
func (h *Handler) GetOrCreateActiveBatch(c *gin.Context) {
	var req activeBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var locID *uuid.UUID
	if req.LocationID != "" {
		parsed, err := uuid.Parse(req.LocationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid location ID"))
			return
		}
		locID = &parsed
	}

	batch, err := h.service.GetOrCreateActiveBatch(c.Request.Context(), middleware.ViewerFromContext(c), locID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(batch))
}

func (h *Handler) GetBatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid batch ID"))
		return
	}

	batch, err := h.service.GetBatch(c.Request.Context(), middleware.ViewerFromContext(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(batch))
}

func (h *Handler) ListBatches(c *gin.Context) {
	batches, err := h.service.ListBatches(c.Request.Context(), middleware.ViewerFromContext(c), c.Query("status"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(batches))
}

type batchStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING IN_REVIEW COMPLETED"`
}

func (h *Handler) UpdateBatchStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid batch ID"))
		return
	}

	var req batchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.UpdateBatchStatus(c.Request.Context(), middleware.ViewerFromContext(c), id, req.Status); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
