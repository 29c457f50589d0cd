package handler

import (
	"net/http"

	"fms/internal/lifecycle"
	"fms/internal/middleware"
	"fms/internal/service"
	"fms/pkg/pagination"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

type VendorHandler struct {
	vendorService service.VendorService
}

func NewVendorHandler(vendorService service.VendorService) *VendorHandler {
	return &VendorHandler{vendorService: vendorService}
}

func (h *VendorHandler) RegisterRoutes(router *gin.RouterGroup) {
	vendors := router.Group("/vendors")
	{
		vendors.GET("", middleware.Require(lifecycle.ActionView, lifecycle.EntityVendor), h.ListVendors)
		vendors.POST("", middleware.Require(lifecycle.ActionCreate, lifecycle.EntityVendor), h.CreateVendor)
		vendors.GET("/:id/payments", middleware.Require(lifecycle.ActionView, lifecycle.EntityVendor), h.ListPayments)
		vendors.POST("/:id/payments", middleware.Require(lifecycle.ActionApprove, lifecycle.EntityVendor), h.RecordPayment)
	}
}

// ListVendors returns vendors with their contacts
// @Summary      List vendors
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Company name contains"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=pagination.Page}
// @Router       /vendors [get]
func (h *VendorHandler) ListVendors(c *gin.Context) {
	p := pagination.Parse(c)
	vendors, total, err := h.vendorService.ListVendors(c.Request.Context(), middleware.ActorFrom(c), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(vendors, total)))
}

// CreateVendor registers a vendor and its contacts in one transaction
// @Summary      Create a vendor
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateVendorRequest  true  "Vendor"
// @Success      201      {object}  response.Response{data=service.VendorResponse}
// @Failure      400      {object}  response.Response
// @Router       /vendors [post]
func (h *VendorHandler) CreateVendor(c *gin.Context) {
	var req service.CreateVendorRequest
	if !bindJSON(c, &req) {
		return
	}
	vendor, err := h.vendorService.CreateVendor(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vendor))
}

// ListPayments returns payments made to a vendor
// @Summary      List vendor payments
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Vendor ID"
// @Success      200  {object}  response.Response{data=[]service.PaymentResponse}
// @Router       /vendors/{id}/payments [get]
func (h *VendorHandler) ListPayments(c *gin.Context) {
	payments, err := h.vendorService.ListPayments(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}

// RecordPayment records a payment against a vendor
// @Summary      Record a vendor payment
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Vendor ID"
// @Param        payload  body      service.RecordPaymentRequest  true  "Payment"
// @Success      201      {object}  response.Response{data=service.PaymentResponse}
// @Failure      400      {object}  response.Response
// @Router       /vendors/{id}/payments [post]
func (h *VendorHandler) RecordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	payment, err := h.vendorService.RecordPayment(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}
