package handler

import (
	"net/http"

	"fms/internal/lifecycle"
	"fms/internal/middleware"
	"fms/internal/service"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	contractService service.ContractService
}

func NewContractHandler(contractService service.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

func (h *ContractHandler) RegisterRoutes(router *gin.RouterGroup) {
	contracts := router.Group("/contracts")
	{
		contracts.GET("", middleware.Require(lifecycle.ActionView, lifecycle.EntityContract), h.ListContracts)
		contracts.POST("", middleware.RequireRole(lifecycle.RoleAdmin), h.CreateContract)
		contracts.POST("/expire-due", middleware.RequireRole(lifecycle.RoleAdmin), h.ExpireDue)
		contracts.PUT("/:id/status", h.UpdateStatus)
	}
}

// ListContracts returns vendor contracts
// @Summary      List contracts
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=pagination.Page}
// @Router       /contracts [get]
func (h *ContractHandler) ListContracts(c *gin.Context) {
	q, p := listQuery(c)
	contracts, total, err := h.contractService.ListContracts(c.Request.Context(), middleware.ActorFrom(c), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(contracts, total)))
}

// CreateContract adds a vendor contract
// @Summary      Create a contract
// @Description  Admin only
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateContractRequest  true  "Contract"
// @Success      201      {object}  response.Response{data=service.ContractResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /contracts [post]
func (h *ContractHandler) CreateContract(c *gin.Context) {
	var req service.CreateContractRequest
	if !bindJSON(c, &req) {
		return
	}
	contract, err := h.contractService.CreateContract(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, contract))
}

// UpdateStatus moves a contract through its lifecycle
// @Summary      Change contract status
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Contract ID"
// @Param        payload  body      service.StatusRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=service.ContractResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /contracts/{id}/status [put]
func (h *ContractHandler) UpdateStatus(c *gin.Context) {
	var req service.StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	contract, err := h.contractService.UpdateStatus(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}

// ExpireDue expires contracts whose end date has passed
// @Summary      Expire lapsed contracts
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ExpireResult}
// @Router       /contracts/expire-due [post]
func (h *ContractHandler) ExpireDue(c *gin.Context) {
	res, err := h.contractService.ExpireDue(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
