package organization

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parishkit/chms-api/internal/handler"
	"github.com/parishkit/chms-api/internal/middleware"
	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/service/organization"
)

type Handler struct {
	service organization.OrganizationService
}

func NewHandler(service organization.OrganizationService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	orgs := r.Group("/organizations")
	{
		orgs.POST("", h.CreateOrganization)
		orgs.GET("/:id", h.GetOrganization)
		orgs.PUT("/:id", auth.RequireManager(), h.UpdateOrganization)
		orgs.DELETE("/:id", auth.RequireManager(), h.DeleteOrganization)
	}
	locs := r.Group("/locations")
	{
		locs.POST("", auth.RequireManager(), h.CreateLocation)
		locs.GET("", h.ListLocations)
		locs.GET("/:id", h.GetLocation)
		locs.PUT("/:id", auth.RequireManager(), h.UpdateLocation)
		locs.DELETE("/:id", auth.RequireManager(), h.DeleteLocation)
	}
}

func (h *Handler) CreateOrganization(c *gin.Context) {
	var req model.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	org, err := h.service.CreateOrganization(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(org))
}

func (h *Handler) GetOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid organization ID"))
		return
	}

	org, err := h.service.GetOrganization(c.Request.Context(), middleware.ViewerFromContext(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(org))
}

func (h *Handler) UpdateOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid organization ID"))
		return
	}

	viewer := middleware.ViewerFromContext(c)
	org, err := h.service.GetOrganization(c.Request.Context(), viewer, id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	if err := c.ShouldBindJSON(org); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	org.ID = id

	if err := h.service.UpdateOrganization(c.Request.Context(), viewer, org); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(org))
}

func (h *Handler) DeleteOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid organization ID"))
		return
	}

	if err := h.service.DeleteOrganization(c.Request.Context(), middleware.ViewerFromContext(c), id); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) CreateLocation(c *gin.Context) {
	var req model.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	loc, err := h.service.CreateLocation(c.Request.Context(), middleware.ViewerFromContext(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(loc))
}

func (h *Handler) ListLocations(c *gin.Context) {
	viewer := middleware.ViewerFromContext(c)
	locs, err := h.service.ListLocations(c.Request.Context(), viewer.Scope.OrganizationID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(locs))
}

func (h *Handler) GetLocation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid location ID"))
		return
	}

	loc, err := h.service.GetLocation(c.Request.Context(), middleware.ViewerFromContext(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(loc))
}

func (h *Handler) UpdateLocation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid location ID"))
		return
	}

	viewer := middleware.ViewerFromContext(c)
	loc, err := h.service.GetLocation(c.Request.Context(), viewer, id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	if err := c.ShouldBindJSON(loc); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	loc.ID = id

	if err := h.service.UpdateLocation(c.Request.Context(), viewer, loc); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(loc))
}

func (h *Handler) DeleteLocation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid location ID"))
		return
	}

	if err := h.service.DeleteLocation(c.Request.Context(), middleware.ViewerFromContext(c), id); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
