package service

import (
	"context"
	"errors"
	"testing"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vendorRequest(contacts ...ContactPayload) CreateVendorRequest {
	return CreateVendorRequest{
		CompanyName:     "Brightline Cleaning",
		ServiceCategory: "cleaning",
		Contacts:        contacts,
	}
}

func TestCreateVendorWithContacts(t *testing.T) {
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	fx := newFixture(manager)
	vendors := &fakeVendors{vendors: map[uuid.UUID]*model.Vendor{}}
	svc := NewVendorService(vendors, newFakeContracts(), newFakeWorkOrders(), fx.deps())

	res, err := svc.CreateVendor(context.Background(), actorOf(manager), vendorRequest(
		ContactPayload{Name: "Ana", Email: "ana@brightline.test", IsPrimary: true},
		ContactPayload{Name: "Ben", Phone: "555-0101"},
	))
	require.NoError(t, err)
	assert.Equal(t, "Brightline Cleaning", res.CompanyName)
	require.Len(t, res.Contacts, 2)
	assert.True(t, res.Contacts[0].IsPrimary)
	assert.Len(t, vendors.vendors, 1)
	assert.Len(t, vendors.contacts, 2)
	for _, c := range vendors.contacts {
		assert.Equal(t, res.ID, c.VendorID)
	}
	assert.Equal(t, []string{model.ActionCreateVendor}, fx.audit.actions())
}

func TestCreateVendorRejections(t *testing.T) {
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	supervisor := newUser(lifecycle.RoleCleaningSupervisor, "Cleo Supervisor")
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	fx := newFixture(manager, supervisor, staff)
	vendors := &fakeVendors{vendors: map[uuid.UUID]*model.Vendor{}}
	svc := NewVendorService(vendors, newFakeContracts(), newFakeWorkOrders(), fx.deps())
	ctx := context.Background()
	six := 6

	tests := []struct {
		name  string
		actor lifecycle.Actor
		req   CreateVendorRequest
		kind  apperror.Kind
	}{
		{"staff", actorOf(staff), vendorRequest(), apperror.KindUnauthorized},
		{"supervisor", actorOf(supervisor), vendorRequest(), apperror.KindUnauthorized},
		{"two primaries", actorOf(manager), vendorRequest(
			ContactPayload{Name: "Ana", IsPrimary: true},
			ContactPayload{Name: "Ben", IsPrimary: true},
		), apperror.KindValidation},
		{"rating out of range", actorOf(manager), CreateVendorRequest{CompanyName: "X", ServiceCategory: "hvac", Rating: &six}, apperror.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateVendor(ctx, tt.actor, tt.req)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}
	assert.Empty(t, vendors.vendors)
	assert.Empty(t, fx.audit.actions())
}

func TestCreateVendorRollsBackWhenContactsFail(t *testing.T) {
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	fx := newFixture(manager)
	vendors := &fakeVendors{
		vendors:     map[uuid.UUID]*model.Vendor{},
		contactsErr: apperror.StoreUnavailable(errors.New("connection reset")),
	}
	deps := fx.deps()
	deps.Tx = undoTx{}
	svc := NewVendorService(vendors, newFakeContracts(), newFakeWorkOrders(), deps)

	_, err := svc.CreateVendor(context.Background(), actorOf(manager), vendorRequest(
		ContactPayload{Name: "Ana", IsPrimary: true},
	))
	assert.ErrorIs(t, err, apperror.ErrStoreUnavailable)
	assert.Empty(t, vendors.vendors)
	assert.Empty(t, vendors.contacts)
	assert.Empty(t, fx.audit.actions())
}

func TestRecordPayment(t *testing.T) {
	manager := newUser(lifecycle.RoleFacilityManager, "Fran Manager")
	supervisor := newUser(lifecycle.RoleCleaningSupervisor, "Cleo Supervisor")
	staff := newUser(lifecycle.RoleStaff, "Sam Staff")
	fx := newFixture(manager, supervisor, staff)

	vendor := &model.Vendor{ID: uuid.New(), CompanyName: "Acme HVAC"}
	other := &model.Vendor{ID: uuid.New(), CompanyName: "Other Co"}
	own := &model.Contract{ID: uuid.New(), VendorID: vendor.ID, Status: lifecycle.ContractActive}
	foreign := &model.Contract{ID: uuid.New(), VendorID: other.ID, Status: lifecycle.ContractActive}
	vendors := &fakeVendors{vendors: map[uuid.UUID]*model.Vendor{vendor.ID: vendor, other.ID: other}}
	svc := NewVendorService(vendors, newFakeContracts(own, foreign), newFakeWorkOrders(), fx.deps())
	ctx := context.Background()

	valid := RecordPaymentRequest{
		ContractID:       own.ID.String(),
		Amount:           "1500.255",
		InvoiceReference: "INV-0042",
		PaymentMethod:    "bank_transfer",
		PaymentDate:      "2026-03-15",
	}

	tests := []struct {
		name   string
		actor  lifecycle.Actor
		mutate func(r *RecordPaymentRequest)
		kind   apperror.Kind
	}{
		{"staff", actorOf(staff), nil, apperror.KindUnauthorized},
		{"supervisor", actorOf(supervisor), nil, apperror.KindUnauthorized},
		{"contract of another vendor", actorOf(manager), func(r *RecordPaymentRequest) { r.ContractID = foreign.ID.String() }, apperror.KindValidation},
		{"zero amount", actorOf(manager), func(r *RecordPaymentRequest) { r.Amount = "0" }, apperror.KindValidation},
		{"unknown work order", actorOf(manager), func(r *RecordPaymentRequest) { r.WorkOrderID = uuid.NewString() }, apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			_, err := svc.RecordPayment(ctx, tt.actor, vendor.ID.String(), req)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}
	assert.Empty(t, vendors.payments)

	res, err := svc.RecordPayment(ctx, actorOf(manager), vendor.ID.String(), valid)
	require.NoError(t, err)
	assert.Equal(t, "1500.26", res.Amount)
	assert.Equal(t, "2026-03-15", res.PaymentDate)
	require.NotNil(t, res.ContractID)
	assert.Equal(t, own.ID.String(), *res.ContractID)
	assert.Equal(t, manager.ID, res.RecordedBy)
	assert.Equal(t, []string{model.ActionRecordPayment}, fx.audit.actions())

	payments, err := svc.ListPayments(ctx, actorOf(manager), vendor.ID.String())
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, res.ID, payments[0].ID)

	payments, err = svc.ListPayments(ctx, actorOf(manager), other.ID.String())
	require.NoError(t, err)
	assert.Empty(t, payments)
}
