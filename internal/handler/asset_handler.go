package handler

import (
	"net/http"
	"strconv"

	"fms/internal/lifecycle"
	"fms/internal/middleware"
	"fms/internal/service"
	"fms/pkg/apperror"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

type AssetHandler struct {
	assetService service.AssetService
}

func NewAssetHandler(assetService service.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

func (h *AssetHandler) RegisterRoutes(router *gin.RouterGroup) {
	assets := router.Group("/assets")
	view := middleware.Require(lifecycle.ActionView, lifecycle.EntityAsset)
	{
		assets.GET("", view, h.ListAssets)
		assets.POST("", middleware.Require(lifecycle.ActionCreate, lifecycle.EntityAsset), h.CreateAsset)
		assets.DELETE("/:id", middleware.Require(lifecycle.ActionDelete, lifecycle.EntityAsset), h.DeleteAsset)
		assets.GET("/maintenance-due", view, h.DueSchedules)
		assets.GET("/:id/schedules", view, h.ListSchedules)
		assets.POST("/:id/schedules", middleware.Require(lifecycle.ActionCreate, lifecycle.EntityAsset), h.CreateSchedule)
	}
}

// ListAssets returns the asset inventory
// @Summary      List assets
// @Tags         assets
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  false  "Category filter"
// @Param        area_id   query     string  false  "Area filter"
// @Param        page      query     int     false  "Page"
// @Param        limit     query     int     false  "Page size"
// @Success      200       {object}  response.Response{data=pagination.Page}
// @Router       /assets [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
	_, p := listQuery(c)
	assets, total, err := h.assetService.ListAssets(c.Request.Context(), middleware.ActorFrom(c), service.AssetQuery{
		Category: c.Query("category"),
		AreaID:   c.Query("area_id"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(assets, total)))
}

// CreateAsset registers an asset with an optional image and documents
// @Summary      Create an asset
// @Tags         assets
// @Accept       mpfd,json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateAssetRequest  true  "Asset"
// @Success      201      {object}  response.Response{data=service.AssetResponse}
// @Failure      400      {object}  response.Response
// @Router       /assets [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var req service.CreateAssetRequest
	if !bindForm(c, &req) {
		return
	}
	image, doneImage, err := formFile(c, "image")
	defer doneImage()
	if err != nil {
		fail(c, err)
		return
	}
	docs, doneDocs, err := formFiles(c, "documents")
	defer doneDocs()
	if err != nil {
		fail(c, err)
		return
	}

	asset, err := h.assetService.CreateAsset(c.Request.Context(), middleware.ActorFrom(c), req, image, docs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, asset))
}

// DeleteAsset removes an asset and its schedules
// @Summary      Delete an asset
// @Tags         assets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Asset ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /assets/{id} [delete]
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	if err := h.assetService.DeleteAsset(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Asset deleted"))
}

// ListSchedules returns the maintenance plan of an asset
// @Summary      List maintenance schedules
// @Tags         assets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Asset ID"
// @Success      200  {object}  response.Response{data=[]service.ScheduleResponse}
// @Router       /assets/{id}/schedules [get]
func (h *AssetHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.assetService.ListSchedules(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, schedules))
}

// CreateSchedule adds a maintenance schedule to an asset
// @Summary      Create a maintenance schedule
// @Tags         assets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Asset ID"
// @Param        payload  body      service.CreateScheduleRequest  true  "Schedule"
// @Success      201      {object}  response.Response{data=service.ScheduleResponse}
// @Router       /assets/{id}/schedules [post]
func (h *AssetHandler) CreateSchedule(c *gin.Context) {
	var req service.CreateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.assetService.CreateSchedule(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, schedule))
}

// DueSchedules lists maintenance falling due soon
// @Summary      Maintenance due
// @Tags         assets
// @Produce      json
// @Security     BearerAuth
// @Param        days  query     int  false  "Look-ahead in days (default 30)"
// @Success      200   {object}  response.Response{data=[]service.ScheduleResponse}
// @Router       /assets/maintenance-due [get]
func (h *AssetHandler) DueSchedules(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil {
		fail(c, apperror.Validation("days must be a number"))
		return
	}
	schedules, err := h.assetService.DueSchedules(c.Request.Context(), middleware.ActorFrom(c), days)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, schedules))
}
