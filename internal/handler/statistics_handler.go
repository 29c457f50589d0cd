package handler

import (
	"fmt"
	"net/http"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/middleware"
	"fms/internal/service"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports", middleware.Require(lifecycle.ActionView, lifecycle.EntityReport))
	{
		reports.GET("/dashboard", h.Dashboard)
		reports.GET("/charts", h.Charts)
		reports.GET("/export", h.Export)
	}
}

// Dashboard returns the headline figures
// @Summary      Dashboard figures
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardResponse}
// @Router       /reports/dashboard [get]
func (h *StatisticsHandler) Dashboard(c *gin.Context) {
	res, err := h.statisticsService.Dashboard(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Charts returns chart bars
// @Summary      Report charts
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ChartsResponse}
// @Router       /reports/charts [get]
func (h *StatisticsHandler) Charts(c *gin.Context) {
	res, err := h.statisticsService.Charts(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Export downloads the charts as a workbook
// @Summary      Export reports
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200  {file}  file
// @Router       /reports/export [get]
func (h *StatisticsHandler) Export(c *gin.Context) {
	data, err := h.statisticsService.Export(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	name := fmt.Sprintf("fms-report-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
