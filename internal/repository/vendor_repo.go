package repository

import (
	"context"

	"fms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VendorRepository interface {
	Create(ctx context.Context, vendor *model.Vendor) error
	CreateContacts(ctx context.Context, contacts []model.VendorContact) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Vendor, int64, error)

	CreatePayment(ctx context.Context, payment *model.VendorPayment) error
	ListPayments(ctx context.Context, vendorID uuid.UUID) ([]model.VendorPayment, error)
}

type vendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepository{db: db}
}

// Create inserts the vendor row only; contacts go through CreateContacts.
func (r *vendorRepository) Create(ctx context.Context, vendor *model.Vendor) error {
	return translate(GetDB(ctx, r.db).Omit("Contacts").Create(vendor).Error, "vendor")
}

func (r *vendorRepository) CreateContacts(ctx context.Context, contacts []model.VendorContact) error {
	if len(contacts) == 0 {
		return nil
	}
	return translate(GetDB(ctx, r.db).Create(&contacts).Error, "vendor contact")
}

func (r *vendorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := GetDB(ctx, r.db).Preload("Contacts").First(&vendor, "id = ?", id).Error; err != nil {
		return nil, translate(err, "vendor")
	}
	return &vendor, nil
}

func (r *vendorRepository) List(ctx context.Context, search string, page, limit int) ([]model.Vendor, int64, error) {
	var vendors []model.Vendor
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if search != "" {
			db = db.Where("company_name ILIKE ? OR service_category ILIKE ?", "%"+search+"%", "%"+search+"%")
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Vendor{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "vendor")
	}
	lf := ListFilter{Page: page, Limit: limit}
	err := db.Scopes(scope).Preload("Contacts").Order("company_name").
		Offset(lf.offset()).Limit(lf.limit()).Find(&vendors).Error
	if err != nil {
		return nil, 0, translate(err, "vendor")
	}
	return vendors, total, nil
}

func (r *vendorRepository) CreatePayment(ctx context.Context, payment *model.VendorPayment) error {
	return translate(GetDB(ctx, r.db).Create(payment).Error, "vendor payment")
}

func (r *vendorRepository) ListPayments(ctx context.Context, vendorID uuid.UUID) ([]model.VendorPayment, error) {
	var payments []model.VendorPayment
	err := GetDB(ctx, r.db).Where("vendor_id = ?", vendorID).Order("payment_date DESC").Find(&payments).Error
	return payments, translate(err, "vendor payment")
}
