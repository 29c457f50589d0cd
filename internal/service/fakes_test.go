package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"
	"fms/internal/queue"
	"fms/internal/repository"
	"fms/internal/storage"
	"fms/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// passThroughTx runs the unit of work without a database.
type passThroughTx struct{}

func (passThroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type undoKey struct{}

type undoLog struct {
	fns []func()
}

// undoTx replays the undo steps fakes registered with onRollback when the
// unit of work fails, newest first.
type undoTx struct{}

func (undoTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	log := &undoLog{}
	if err := fn(context.WithValue(ctx, undoKey{}, log)); err != nil {
		for i := len(log.fns) - 1; i >= 0; i-- {
			log.fns[i]()
		}
		return err
	}
	return nil
}

func onRollback(ctx context.Context, undo func()) {
	if log, ok := ctx.Value(undoKey{}).(*undoLog); ok {
		log.fns = append(log.fns, undo)
	}
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (f *fakeAudit) Log(ctx context.Context, entry *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.entries)
	f.entries = append(f.entries, *entry)
	onRollback(ctx, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.entries = f.entries[:n]
	})
	return nil
}

func (f *fakeAudit) List(_ context.Context, _ repository.AuditFilter) ([]model.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AuditLog(nil), f.entries...), int64(len(f.entries)), nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeNotifications struct {
	mu    sync.Mutex
	notes []model.Notification
}

func (f *fakeNotifications) Create(_ context.Context, notes []model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, notes...)
	return nil
}

func (f *fakeNotifications) ListForUser(_ context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Notification
	for _, n := range f.notes {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNotifications) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, note := range f.notes {
		if note.UserID == userID && !note.IsRead {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notes {
		if f.notes[i].ID == id && f.notes[i].UserID == userID {
			f.notes[i].IsRead = true
			return nil
		}
	}
	return apperror.NotFound("notification")
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.notes {
		if f.notes[i].UserID == userID && !f.notes[i].IsRead {
			f.notes[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) forUser(id uuid.UUID) []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Notification
	for _, n := range f.notes {
		if n.UserID == id {
			out = append(out, n)
		}
	}
	return out
}

type fakeUsers struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*model.User
	refresh map[string]model.RefreshToken
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{users: map[uuid.UUID]*model.User{}, refresh: map[string]model.RefreshToken{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user already exists")
		}
	}
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (f *fakeUsers) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, int64(len(out)), nil
}

func (f *fakeUsers) ListByRoles(_ context.Context, roles ...lifecycle.Role) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, u := range f.users {
		for _, r := range roles {
			if u.Role == r && u.IsActive {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (f *fakeUsers) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user")
	}
	u.IsActive = active
	return nil
}

func (f *fakeUsers) SaveRefreshToken(_ context.Context, token *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[token.TokenHash] = *token
	return nil
}

func (f *fakeUsers) FindRefreshToken(_ context.Context, hash string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.refresh[hash]
	if !ok {
		return nil, apperror.NotFound("refresh token")
	}
	return &t, nil
}

func (f *fakeUsers) DeleteRefreshToken(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.refresh, hash)
	return nil
}

func (f *fakeUsers) DeleteRefreshTokensForUser(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, t := range f.refresh {
		if t.UserID == userID {
			delete(f.refresh, h)
		}
	}
	return nil
}

func (f *fakeUsers) tokenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refresh)
}

type fakeAreas struct {
	areas map[uuid.UUID]*model.FacilityArea
}

func newFakeAreas(areas ...*model.FacilityArea) *fakeAreas {
	f := &fakeAreas{areas: map[uuid.UUID]*model.FacilityArea{}}
	for _, a := range areas {
		f.areas[a.ID] = a
	}
	return f
}

func (f *fakeAreas) Create(_ context.Context, area *model.FacilityArea) error {
	f.areas[area.ID] = area
	return nil
}

func (f *fakeAreas) GetByID(_ context.Context, id uuid.UUID) (*model.FacilityArea, error) {
	a, ok := f.areas[id]
	if !ok {
		return nil, apperror.NotFound("facility area")
	}
	return a, nil
}

func (f *fakeAreas) List(_ context.Context, bookableOnly bool) ([]model.FacilityArea, error) {
	var out []model.FacilityArea
	for _, a := range f.areas {
		if !bookableOnly || a.IsBookable {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAreas) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.areas[id]; !ok {
		return apperror.NotFound("facility area")
	}
	delete(f.areas, id)
	return nil
}

type fakeVendors struct {
	vendors     map[uuid.UUID]*model.Vendor
	contacts    []model.VendorContact
	payments    []model.VendorPayment
	contactsErr error
}

func (f *fakeVendors) Create(ctx context.Context, vendor *model.Vendor) error {
	f.vendors[vendor.ID] = vendor
	onRollback(ctx, func() { delete(f.vendors, vendor.ID) })
	return nil
}

func (f *fakeVendors) CreateContacts(ctx context.Context, contacts []model.VendorContact) error {
	if f.contactsErr != nil {
		return f.contactsErr
	}
	n := len(f.contacts)
	f.contacts = append(f.contacts, contacts...)
	onRollback(ctx, func() { f.contacts = f.contacts[:n] })
	return nil
}

func (f *fakeVendors) GetByID(_ context.Context, id uuid.UUID) (*model.Vendor, error) {
	v, ok := f.vendors[id]
	if !ok {
		return nil, apperror.NotFound("vendor")
	}
	return v, nil
}

func (f *fakeVendors) List(_ context.Context, _ string, _, _ int) ([]model.Vendor, int64, error) {
	return nil, 0, nil
}

func (f *fakeVendors) CreatePayment(_ context.Context, p *model.VendorPayment) error {
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakeVendors) ListPayments(_ context.Context, vendorID uuid.UUID) ([]model.VendorPayment, error) {
	var out []model.VendorPayment
	for _, p := range f.payments {
		if p.VendorID == vendorID {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeWorkOrders enforces the number uniqueness and the status
// compare-and-swap the database provides.
type fakeWorkOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.WorkOrder
}

func newFakeWorkOrders() *fakeWorkOrders {
	return &fakeWorkOrders{orders: map[uuid.UUID]*model.WorkOrder{}}
}

func (f *fakeWorkOrders) Create(_ context.Context, wo *model.WorkOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.WorkOrderNumber == wo.WorkOrderNumber {
			return lifecycle.ErrNumberTaken
		}
	}
	now := time.Now()
	wo.CreatedAt, wo.UpdatedAt = now, now
	cp := *wo
	f.orders[wo.ID] = &cp
	return nil
}

func (f *fakeWorkOrders) GetByID(_ context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, apperror.NotFound("work order")
	}
	cp := *o
	return &cp, nil
}

func (f *fakeWorkOrders) List(_ context.Context, filter repository.ListFilter) ([]model.WorkOrder, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.WorkOrder
	for _, o := range f.orders {
		if filter.OwnerID != nil && o.SubmittedBy != *filter.OwnerID {
			continue
		}
		if filter.Status != "" && string(o.Status) != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeWorkOrders) UpdateStatus(_ context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return apperror.Conflict("work order was changed by someone else, reload and try again")
	}
	for k, v := range fields {
		switch k {
		case "status":
			o.Status = v.(lifecycle.Status)
		case "rejection_reason":
			o.RejectionReason = v.(string)
		case "approved_by":
			id := v.(uuid.UUID)
			o.ApprovedBy = &id
		case "approved_at":
			t := v.(time.Time)
			o.ApprovedAt = &t
		case "completed_by":
			id := v.(uuid.UUID)
			o.CompletedBy = &id
		case "completed_at":
			t := v.(time.Time)
			o.CompletedAt = &t
		case "assigned_to_user":
			id := v.(uuid.UUID)
			o.AssignedToUser = &id
		case "assigned_to_vendor":
			id := v.(uuid.UUID)
			o.AssignedToVendor = &id
		case "updated_at":
			o.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

type fakeExpenses struct {
	mu       sync.Mutex
	expenses map[uuid.UUID]*model.Expense
}

func newFakeExpenses(expenses ...*model.Expense) *fakeExpenses {
	f := &fakeExpenses{expenses: map[uuid.UUID]*model.Expense{}}
	for _, e := range expenses {
		f.expenses[e.ID] = e
	}
	return f
}

func (f *fakeExpenses) Create(_ context.Context, e *model.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.expenses[e.ID] = &cp
	return nil
}

func (f *fakeExpenses) FindByID(_ context.Context, id uuid.UUID) (*model.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[id]
	if !ok {
		return nil, apperror.NotFound("expense")
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExpenses) List(_ context.Context, filter repository.ListFilter) ([]model.Expense, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Expense
	for _, e := range f.expenses {
		if filter.OwnerID != nil && e.SubmittedBy != *filter.OwnerID {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (f *fakeExpenses) UpdateStatus(_ context.Context, id uuid.UUID, from lifecycle.Status, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[id]
	if !ok || e.Status != from {
		return apperror.Conflict("expense was changed by someone else, reload and try again")
	}
	if s, ok := fields["status"].(lifecycle.Status); ok {
		e.Status = s
	}
	if r, ok := fields["rejection_reason"].(string); ok {
		e.RejectionReason = r
	}
	return nil
}

type counterSequence struct {
	mu   sync.Mutex
	next map[int]int64
}

func (c *counterSequence) Next(_ context.Context, year int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.next == nil {
		c.next = map[int]int64{}
	}
	c.next[year]++
	return c.next[year], nil
}

type fakeFiles struct {
	saved     []string
	discarded []string
}

func (f *fakeFiles) Discard(_ context.Context, urls ...string) {
	for _, u := range urls {
		if u != "" {
			f.discarded = append(f.discarded, u)
		}
	}
}

func (f *fakeFiles) Save(_ context.Context, prefix string, file storage.File) (string, error) {
	url := fmt.Sprintf("/uploads/%s/%s", prefix, file.Name)
	f.saved = append(f.saved, url)
	return url, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []queue.EmailMessage
}

func (p *recordingPublisher) PublishEmail(_ context.Context, msg queue.EmailMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	return nil
}

// fixture bundles the shared collaborators of a service under test.
type fixture struct {
	users         *fakeUsers
	audit         *fakeAudit
	notifications *fakeNotifications
	publisher     *recordingPublisher
	files         *fakeFiles
}

func newFixture(users ...*model.User) *fixture {
	return &fixture{
		users:         newFakeUsers(users...),
		audit:         &fakeAudit{},
		notifications: &fakeNotifications{},
		publisher:     &recordingPublisher{},
		files:         &fakeFiles{},
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Tx:            passThroughTx{},
		Audit:         f.audit,
		Users:         f.users,
		Notifications: f.notifications,
		Publisher:     f.publisher,
		Files:         f.files,
		Log:           zap.NewNop(),
	}
}

func newUser(role lifecycle.Role, name string) *model.User {
	return &model.User{
		ID:       uuid.New(),
		FullName: name,
		Email:    fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Role:     role,
		IsActive: true,
	}
}

func actorOf(u *model.User) lifecycle.Actor {
	return lifecycle.Actor{UserID: u.ID, Role: u.Role, FullName: u.FullName, Email: u.Email}
}
