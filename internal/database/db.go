package database

import (
	"context"
	"fmt"
	"time"

	"fms/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection opens the pool, migrates the gorm models and then applies
// the SQL-only migrations (CHECK constraints, counters).
func NewConnection(ctx context.Context, dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	if err := Migrate(ctx, sqlDB); err != nil {
		return nil, err
	}
	log.Info("database ready")
	return db, nil
}

// Models lists every gorm model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.RefreshToken{},
		&model.FacilityArea{},
		&model.Vendor{},
		&model.VendorContact{},
		&model.WorkOrder{},
		&model.Asset{},
		&model.AssetMaintenanceSchedule{},
		&model.Contract{},
		&model.VendorPayment{},
		&model.SpaceBooking{},
		&model.SupplyRequest{},
		&model.SupplyRequestItem{},
		&model.Expense{},
		&model.Notification{},
		&model.AuditLog{},
	}
}
