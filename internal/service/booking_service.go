package service

import (
	"context"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/pkg/apperror"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateBookingRequest struct {
	FacilityAreaID    string `json:"facility_area_id" binding:"required,uuid"`
	BookingDate       string `json:"booking_date" binding:"required,date"`
	StartTime         string `json:"start_time" binding:"required,clock"`
	EndTime           string `json:"end_time" binding:"required,clock"`
	Purpose           string `json:"purpose" binding:"required"`
	ExpectedAttendees int    `json:"expected_attendees" binding:"required,min=1"`
	SetupRequirements string `json:"setup_requirements"`
}

type BookingResponse struct {
	ID                string  `json:"id"`
	FacilityAreaID    string  `json:"facility_area_id"`
	AreaName          string  `json:"area_name"`
	RequestedBy       string  `json:"requested_by"`
	RequesterName     string  `json:"requester_name"`
	BookingDate       string  `json:"booking_date"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time"`
	Purpose           string  `json:"purpose"`
	ExpectedAttendees int     `json:"expected_attendees"`
	SetupRequirements string  `json:"setup_requirements,omitempty"`
	Status            string  `json:"status"`
	ApprovedBy        *string `json:"approved_by"`
	ApprovedAt        *string `json:"approved_at"`
	DecisionReason    string  `json:"decision_reason,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

// --- Interface ---

type BookingService interface {
	CreateBooking(ctx context.Context, actor lifecycle.Actor, req CreateBookingRequest) (BookingResponse, error)
	ListBookings(ctx context.Context, actor lifecycle.Actor, q ListQuery) ([]BookingResponse, int64, error)
	UpdateStatus(ctx context.Context, actor lifecycle.Actor, id string, req StatusRequest) (BookingResponse, error)
}

type bookingService struct {
	bookings repository.BookingRepository
	areas    repository.AreaRepository
	audit    repository.AuditRepository
	tx       repository.TransactionManager
	reviewer *reviewer
	now      func() time.Time
}

func NewBookingService(bookings repository.BookingRepository, areas repository.AreaRepository, deps Deps) BookingService {
	return &bookingService{
		bookings: bookings,
		areas:    areas,
		audit:    deps.Audit,
		tx:       deps.Tx,
		reviewer: deps.reviewer(),
		now:      time.Now,
	}
}

// --- Implementation ---

func (s *bookingService) CreateBooking(ctx context.Context, actor lifecycle.Actor, req CreateBookingRequest) (BookingResponse, error) {
	if err := gate(actor, lifecycle.ActionCreate, lifecycle.EntitySpaceBooking); err != nil {
		return BookingResponse{}, err
	}
	areaID, err := parseID(req.FacilityAreaID, "facility_area_id")
	if err != nil {
		return BookingResponse{}, err
	}
	date, err := parseDate(req.BookingDate, "booking_date")
	if err != nil {
		return BookingResponse{}, err
	}
	if date.Before(today(s.now())) {
		return BookingResponse{}, apperror.Validation("booking_date cannot be in the past")
	}
	start, err := parseClock(req.StartTime, "start_time")
	if err != nil {
		return BookingResponse{}, err
	}
	end, err := parseClock(req.EndTime, "end_time")
	if err != nil {
		return BookingResponse{}, err
	}
	if !end.After(start) {
		return BookingResponse{}, apperror.Validation("end_time must be after start_time")
	}

	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return BookingResponse{}, err
	}
	if !area.IsBookable {
		return BookingResponse{}, apperror.Validation("%s cannot be booked", area.Name)
	}
	if area.Capacity > 0 && req.ExpectedAttendees > area.Capacity {
		return BookingResponse{}, apperror.Validation("%s holds at most %d people", area.Name, area.Capacity)
	}

	initial, _ := lifecycle.InitialStatus(lifecycle.EntitySpaceBooking)
	booking := model.SpaceBooking{
		ID:                uuid.New(),
		FacilityAreaID:    area.ID,
		RequestedBy:       actor.UserID,
		BookingDate:       date,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Purpose:           req.Purpose,
		ExpectedAttendees: req.ExpectedAttendees,
		SetupRequirements: req.SetupRequirements,
		Status:            initial,
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.bookings.Create(txCtx, &booking); err != nil {
			return err
		}
		return s.audit.Log(txCtx, auditEntry(actor, model.ActionCreateBooking, lifecycle.EntitySpaceBooking, booking.ID, area.Name, map[string]interface{}{
			"date":  req.BookingDate,
			"start": req.StartTime,
			"end":   req.EndTime,
		}))
	})
	if err != nil {
		return BookingResponse{}, err
	}

	booking.Area = area
	booking.Requester = &model.User{FullName: actor.FullName}
	return toBookingResponse(&booking), nil
}

func (s *bookingService) ListBookings(ctx context.Context, actor lifecycle.Actor, q ListQuery) ([]BookingResponse, int64, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntitySpaceBooking); err != nil {
		return nil, 0, err
	}
	bookings, total, err := s.bookings.List(ctx, listFilter(actor, lifecycle.EntitySpaceBooking, q))
	if err != nil {
		return nil, 0, err
	}
	res := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		res = append(res, toBookingResponse(&bookings[i]))
	}
	return res, total, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, actor lifecycle.Actor, id string, req StatusRequest) (BookingResponse, error) {
	bookingID, err := parseID(id, "id")
	if err != nil {
		return BookingResponse{}, err
	}
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return BookingResponse{}, err
	}

	to := lifecycle.Status(req.Status)
	if err := gate(actor, lifecycle.ActionFor(to), lifecycle.EntitySpaceBooking); err != nil {
		return BookingResponse{}, err
	}
	if to == lifecycle.BookingCancelled && booking.Status != to && today(s.now()).After(booking.BookingDate) {
		return BookingResponse{}, apperror.InvalidTransition(string(lifecycle.EntitySpaceBooking), string(booking.Status), string(to))
	}

	name := ""
	if booking.Area != nil {
		name = booking.Area.Name + " on " + booking.BookingDate.Format(dateLayout)
	}
	d, err := s.reviewer.apply(ctx, actor, reviewStep{
		Entity: lifecycle.EntitySpaceBooking,
		Label:  "booking",
		ID:     booking.ID,
		Name:   name,
		Owner:  booking.RequestedBy,
		From:   booking.Status,
		To:     to,
		Reason: req.Reason,
		Stamps: map[lifecycle.Status][2]string{
			lifecycle.BookingApproved: {"approved_by", "approved_at"},
		},
		ReasonColumn: "decision_reason",
		Update: func(ctx context.Context, from lifecycle.Status, f map[string]interface{}) error {
			return s.bookings.UpdateStatus(ctx, booking.ID, from, f)
		},
	})
	if err != nil {
		return BookingResponse{}, err
	}
	if d.NoOp {
		return toBookingResponse(booking), nil
	}

	updated, err := s.bookings.GetByID(ctx, booking.ID)
	if err != nil {
		return BookingResponse{}, err
	}
	return toBookingResponse(updated), nil
}

// --- Helpers ---

func parseClock(raw, field string) (time.Time, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return time.Time{}, apperror.Validation("%s must be HH:MM", field)
	}
	return t, nil
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toBookingResponse(b *model.SpaceBooking) BookingResponse {
	res := BookingResponse{
		ID:                b.ID.String(),
		FacilityAreaID:    b.FacilityAreaID.String(),
		RequestedBy:       b.RequestedBy.String(),
		BookingDate:       b.BookingDate.Format(dateLayout),
		StartTime:         b.StartTime,
		EndTime:           b.EndTime,
		Purpose:           b.Purpose,
		ExpectedAttendees: b.ExpectedAttendees,
		SetupRequirements: b.SetupRequirements,
		Status:            string(b.Status),
		ApprovedBy:        idString(b.ApprovedBy),
		ApprovedAt:        formatTime(b.ApprovedAt),
		DecisionReason:    b.DecisionReason,
		CreatedAt:         b.CreatedAt.Format(timeLayout),
	}
	if b.Area != nil {
		res.AreaName = b.Area.Name
	}
	if b.Requester != nil {
		res.RequesterName = b.Requester.FullName
	}
	return res
}
