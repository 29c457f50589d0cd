package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/repository"
	"fms/pkg/aggregate"
	"fms/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const trendMonths = 6

// --- DTOs ---

type DashboardResponse struct {
	OpenWorkOrders    int                `json:"open_work_orders"`
	PendingApprovals  int                `json:"pending_approvals"`
	UpcomingBookings  int                `json:"upcoming_bookings"`
	MonthlySpend      decimal.Decimal    `json:"monthly_spend"`
	WorkOrderTrend    []aggregate.Bucket `json:"work_order_trend"`
	ExpenseByCategory []aggregate.Bucket `json:"expense_by_category"`
}

type ChartsResponse struct {
	WorkOrdersByCategory []aggregate.Bar `json:"work_orders_by_category"`
	ExpensesByCategory   []aggregate.Bar `json:"expenses_by_category"`
	BookingsBySpace      []aggregate.Bar `json:"bookings_by_space"`
}

// --- Interface ---

type StatisticsService interface {
	Dashboard(ctx context.Context, actor lifecycle.Actor) (DashboardResponse, error)
	Charts(ctx context.Context, actor lifecycle.Actor) (ChartsResponse, error)
	// Export renders the charts as an XLSX workbook, one sheet per chart.
	Export(ctx context.Context, actor lifecycle.Actor) ([]byte, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
	now  func() time.Time
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo, now: time.Now}
}

// --- Implementation ---

var openWorkOrder = map[lifecycle.Status]bool{
	lifecycle.WorkOrderSubmitted:       true,
	lifecycle.WorkOrderPendingApproval: true,
	lifecycle.WorkOrderApproved:        true,
	lifecycle.WorkOrderInProgress:      true,
}

func (s *statisticsService) Dashboard(ctx context.Context, actor lifecycle.Actor) (DashboardResponse, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityReport); err != nil {
		return DashboardResponse{}, err
	}
	now := s.now()
	day := today(now)

	orders, err := s.repo.WorkOrderFacts(ctx, time.Time{})
	if err != nil {
		return DashboardResponse{}, err
	}
	expenses, err := s.repo.ExpenseFacts(ctx, time.Time{})
	if err != nil {
		return DashboardResponse{}, err
	}
	bookings, err := s.repo.BookingFacts(ctx, day)
	if err != nil {
		return DashboardResponse{}, err
	}

	months := aggregate.LastMonths(now, trendMonths)
	return DashboardResponse{
		OpenWorkOrders: aggregate.Count(orders, func(o model.WorkOrderFact) bool {
			return openWorkOrder[o.Status]
		}),
		PendingApprovals: aggregate.Count(orders, func(o model.WorkOrderFact) bool {
			return o.Status == lifecycle.WorkOrderPendingApproval
		}),
		UpcomingBookings: aggregate.Count(bookings, func(b model.BookingFact) bool {
			return !b.BookingDate.Before(day) &&
				(b.Status == lifecycle.BookingPending || b.Status == lifecycle.BookingApproved)
		}),
		MonthlySpend: aggregate.SumBy(
			aggregate.Filter(expenses, func(e model.ExpenseFact) bool { return aggregate.InMonth(e.ExpenseDate, now) }),
			func(e model.ExpenseFact) decimal.Decimal { return e.Amount },
		),
		WorkOrderTrend:    aggregate.Trend(orders, months, func(o model.WorkOrderFact) time.Time { return o.CreatedAt }),
		ExpenseByCategory: expenseByCategory(expenses),
	}, nil
}

func (s *statisticsService) Charts(ctx context.Context, actor lifecycle.Actor) (ChartsResponse, error) {
	if err := gate(actor, lifecycle.ActionView, lifecycle.EntityReport); err != nil {
		return ChartsResponse{}, err
	}
	orders, err := s.repo.WorkOrderFacts(ctx, time.Time{})
	if err != nil {
		return ChartsResponse{}, err
	}
	expenses, err := s.repo.ExpenseFacts(ctx, time.Time{})
	if err != nil {
		return ChartsResponse{}, err
	}
	bookings, err := s.repo.BookingFacts(ctx, time.Time{})
	if err != nil {
		return ChartsResponse{}, err
	}

	return ChartsResponse{
		WorkOrdersByCategory: aggregate.Bars(aggregate.GroupCount(orders, func(o model.WorkOrderFact) string { return o.Category })),
		ExpensesByCategory:   aggregate.Bars(expenseByCategory(expenses)),
		BookingsBySpace:      aggregate.Bars(aggregate.GroupCount(bookings, func(b model.BookingFact) string { return b.AreaName })),
	}, nil
}

func (s *statisticsService) Export(ctx context.Context, actor lifecycle.Actor) ([]byte, error) {
	charts, err := s.Charts(ctx, actor)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name   string
		header string
		bars   []aggregate.Bar
	}{
		{"Work Orders", "Category", charts.WorkOrdersByCategory},
		{"Expenses", "Category", charts.ExpensesByCategory},
		{"Bookings", "Space", charts.BookingsBySpace},
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, apperror.Internal(err, "failed to build report")
	}
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return nil, apperror.Internal(err, "failed to build report")
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, apperror.Internal(err, "failed to build report")
		}
		if err := writeBars(f, sh.name, sh.header, sh.bars, bold); err != nil {
			return nil, apperror.Internal(err, "failed to build report")
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, apperror.Internal(err, "failed to write report")
	}
	return buf.Bytes(), nil
}

// --- Helpers ---

func expenseByCategory(expenses []model.ExpenseFact) []aggregate.Bucket {
	return aggregate.GroupSum(expenses,
		func(e model.ExpenseFact) string { return e.Category },
		func(e model.ExpenseFact) decimal.Decimal { return e.Amount },
	)
}

func writeBars(f *excelize.File, sheet, label string, bars []aggregate.Bar, headerStyle int) error {
	header := []interface{}{label, "Value", "Percent"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", headerStyle); err != nil {
		return err
	}
	for i, b := range bars {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{b.Label, b.Value.InexactFloat64(), b.Percent}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 30); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}
