package handler

import (
	"net/http"

	"fms/internal/lifecycle"
	"fms/internal/middleware"
	"fms/internal/service"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

type AreaHandler struct {
	areaService service.AreaService
}

func NewAreaHandler(areaService service.AreaService) *AreaHandler {
	return &AreaHandler{areaService: areaService}
}

func (h *AreaHandler) RegisterRoutes(router *gin.RouterGroup) {
	areas := router.Group("/areas")
	{
		areas.GET("", middleware.Require(lifecycle.ActionView, lifecycle.EntitySpace), h.ListAreas)
		areas.POST("", middleware.Require(lifecycle.ActionCreate, lifecycle.EntitySpace), h.CreateArea)
		areas.DELETE("/:id", middleware.Require(lifecycle.ActionDelete, lifecycle.EntitySpace), h.DeleteArea)
	}
}

// ListAreas returns facility areas
// @Summary      List facility areas
// @Tags         areas
// @Produce      json
// @Security     BearerAuth
// @Param        bookable  query     bool  false  "Only bookable areas"
// @Success      200       {object}  response.Response{data=[]model.FacilityArea}
// @Router       /areas [get]
func (h *AreaHandler) ListAreas(c *gin.Context) {
	areas, err := h.areaService.ListAreas(c.Request.Context(), middleware.ActorFrom(c), c.Query("bookable") == "true")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, areas))
}

// CreateArea adds a facility area
// @Summary      Create a facility area
// @Tags         areas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateAreaRequest  true  "Area"
// @Success      201      {object}  response.Response{data=model.FacilityArea}
// @Failure      400      {object}  response.Response
// @Router       /areas [post]
func (h *AreaHandler) CreateArea(c *gin.Context) {
	var req service.CreateAreaRequest
	if !bindJSON(c, &req) {
		return
	}
	area, err := h.areaService.CreateArea(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, area))
}

// DeleteArea removes an unused facility area
// @Summary      Delete a facility area
// @Tags         areas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Area ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /areas/{id} [delete]
func (h *AreaHandler) DeleteArea(c *gin.Context) {
	if err := h.areaService.DeleteArea(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Area deleted"))
}
