package handler

import (
	"net/http"

	"fms/internal/lifecycle"
	"fms/internal/middleware"
	"fms/internal/service"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func (h *BookingHandler) RegisterRoutes(router *gin.RouterGroup) {
	bookings := router.Group("/bookings")
	{
		bookings.GET("", middleware.Require(lifecycle.ActionView, lifecycle.EntitySpaceBooking), h.ListBookings)
		bookings.POST("", middleware.Require(lifecycle.ActionCreate, lifecycle.EntitySpaceBooking), h.CreateBooking)
		bookings.PUT("/:id/status", h.UpdateStatus)
	}
}

// ListBookings returns space bookings visible to the caller
// @Summary      List space bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=pagination.Page}
// @Router       /bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	q, p := listQuery(c)
	bookings, total, err := h.bookingService.ListBookings(c.Request.Context(), middleware.ActorFrom(c), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(bookings, total)))
}

// CreateBooking requests a bookable space
// @Summary      Request a space booking
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateBookingRequest  true  "Booking"
// @Success      201      {object}  response.Response{data=service.BookingResponse}
// @Failure      400      {object}  response.Response
// @Router       /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	booking, err := h.bookingService.CreateBooking(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, booking))
}

// UpdateStatus approves, denies or cancels a booking
// @Summary      Change booking status
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Booking ID"
// @Param        payload  body      service.StatusRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=service.BookingResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /bookings/{id}/status [put]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req service.StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, booking))
}
