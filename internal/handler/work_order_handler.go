package handler

import (
	"net/http"

	"fms/internal/lifecycle"
	"fms/internal/middleware"
	"fms/internal/service"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

type WorkOrderHandler struct {
	workOrderService service.WorkOrderService
}

func NewWorkOrderHandler(workOrderService service.WorkOrderService) *WorkOrderHandler {
	return &WorkOrderHandler{workOrderService: workOrderService}
}

func (h *WorkOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/work-orders")
	{
		orders.GET("", middleware.Require(lifecycle.ActionView, lifecycle.EntityWorkOrder), h.ListWorkOrders)
		orders.GET("/:id", middleware.Require(lifecycle.ActionView, lifecycle.EntityWorkOrder), h.GetWorkOrder)
		orders.POST("", middleware.Require(lifecycle.ActionCreate, lifecycle.EntityWorkOrder), h.CreateWorkOrder)
		// The action depends on the target status, so the service gates it.
		orders.PUT("/:id/status", h.UpdateStatus)
	}
}

// CreateWorkOrder files a maintenance request
// @Summary      Submit a work order
// @Description  Accepts JSON, or multipart/form-data with one or more "photos"
// @Tags         work-orders
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateWorkOrderRequest  true  "Work order"
// @Success      201      {object}  response.Response{data=service.WorkOrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /work-orders [post]
func (h *WorkOrderHandler) CreateWorkOrder(c *gin.Context) {
	var req service.CreateWorkOrderRequest
	if !bindForm(c, &req) {
		return
	}
	photos, done, err := formFiles(c, "photos")
	defer done()
	if err != nil {
		fail(c, err)
		return
	}

	order, err := h.workOrderService.CreateWorkOrder(c.Request.Context(), middleware.ActorFrom(c), req, photos)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListWorkOrders returns work orders visible to the caller
// @Summary      List work orders
// @Description  Reviewers see every work order, everyone else their own
// @Tags         work-orders
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=pagination.Page}
// @Router       /work-orders [get]
func (h *WorkOrderHandler) ListWorkOrders(c *gin.Context) {
	q, p := listQuery(c)
	orders, total, err := h.workOrderService.ListWorkOrders(c.Request.Context(), middleware.ActorFrom(c), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(orders, total)))
}

// GetWorkOrder returns one work order
// @Summary      Get a work order
// @Tags         work-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Work order ID"
// @Success      200  {object}  response.Response{data=service.WorkOrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /work-orders/{id} [get]
func (h *WorkOrderHandler) GetWorkOrder(c *gin.Context) {
	order, err := h.workOrderService.GetWorkOrder(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateStatus moves a work order through its lifecycle
// @Summary      Change work order status
// @Description  409 means the row changed since it was read; reload before retrying
// @Tags         work-orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Work order ID"
// @Param        payload  body      service.StatusRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=service.WorkOrderResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /work-orders/{id}/status [put]
func (h *WorkOrderHandler) UpdateStatus(c *gin.Context) {
	var req service.StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.workOrderService.UpdateStatus(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
