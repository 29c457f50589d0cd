package handler

import (
	"net/http"

	"fms/internal/lifecycle"
	"fms/internal/middleware"
	"fms/internal/service"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct {
	expenseService service.ExpenseService
}

func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	expenses := router.Group("/expenses")
	{
		expenses.GET("", middleware.Require(lifecycle.ActionView, lifecycle.EntityExpense), h.GetExpenses)
		expenses.POST("", middleware.Require(lifecycle.ActionCreate, lifecycle.EntityExpense), h.CreateExpense)
		expenses.PUT("/:id/status", h.UpdateStatus)
	}
}

// GetExpenses returns expense claims visible to the caller
// @Summary      List expenses
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=pagination.Page}
// @Router       /expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	q, p := listQuery(c)
	expenses, total, err := h.expenseService.GetExpenses(c.Request.Context(), middleware.ActorFrom(c), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(expenses, total)))
}

// CreateExpense files an expense claim with an optional receipt
// @Summary      Submit an expense
// @Tags         expenses
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateExpenseRequest  true  "Expense"
// @Success      201      {object}  response.Response{data=service.ExpenseResponse}
// @Failure      400      {object}  response.Response
// @Router       /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req service.CreateExpenseRequest
	if !bindForm(c, &req) {
		return
	}
	receipt, done, err := formFile(c, "receipt")
	defer done()
	if err != nil {
		fail(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), middleware.ActorFrom(c), req, receipt)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

// UpdateStatus reviews an expense claim
// @Summary      Change expense status
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Expense ID"
// @Param        payload  body      service.StatusRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=service.ExpenseResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /expenses/{id}/status [put]
func (h *ExpenseHandler) UpdateStatus(c *gin.Context) {
	var req service.StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	expense, err := h.expenseService.UpdateStatus(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}
