package handler

import (
	"net/http"

	"fms/internal/lifecycle"
	"fms/internal/middleware"
	"fms/internal/service"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

type SupplyRequestHandler struct {
	supplyService service.SupplyRequestService
}

func NewSupplyRequestHandler(supplyService service.SupplyRequestService) *SupplyRequestHandler {
	return &SupplyRequestHandler{supplyService: supplyService}
}

func (h *SupplyRequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/supply-requests")
	{
		requests.GET("", middleware.Require(lifecycle.ActionView, lifecycle.EntitySupplyRequest), h.ListSupplyRequests)
		requests.GET("/:id", middleware.Require(lifecycle.ActionView, lifecycle.EntitySupplyRequest), h.GetSupplyRequest)
		requests.POST("", middleware.Require(lifecycle.ActionCreate, lifecycle.EntitySupplyRequest), h.CreateSupplyRequest)
		requests.PUT("/:id/status", h.UpdateStatus)
	}
}

// ListSupplyRequests returns supply requests with their items
// @Summary      List supply requests
// @Tags         supply-requests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=pagination.Page}
// @Router       /supply-requests [get]
func (h *SupplyRequestHandler) ListSupplyRequests(c *gin.Context) {
	q, p := listQuery(c)
	requests, total, err := h.supplyService.ListSupplyRequests(c.Request.Context(), middleware.ActorFrom(c), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(requests, total)))
}

// GetSupplyRequest returns one supply request
// @Summary      Get a supply request
// @Tags         supply-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Supply request ID"
// @Success      200  {object}  response.Response{data=service.SupplyRequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /supply-requests/{id} [get]
func (h *SupplyRequestHandler) GetSupplyRequest(c *gin.Context) {
	req, err := h.supplyService.GetSupplyRequest(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// CreateSupplyRequest submits a request and its items in one transaction
// @Summary      Submit a supply request
// @Tags         supply-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateSupplyRequestRequest  true  "Supply request"
// @Success      201      {object}  response.Response{data=service.SupplyRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /supply-requests [post]
func (h *SupplyRequestHandler) CreateSupplyRequest(c *gin.Context) {
	var req service.CreateSupplyRequestRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.supplyService.CreateSupplyRequest(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// UpdateStatus reviews a supply request
// @Summary      Change supply request status
// @Description  partially_approved requires approved_item_ids
// @Tags         supply-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Supply request ID"
// @Param        payload  body      service.StatusRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=service.SupplyRequestResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /supply-requests/{id}/status [put]
func (h *SupplyRequestHandler) UpdateStatus(c *gin.Context) {
	var req service.StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.supplyService.UpdateStatus(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, updated))
}
