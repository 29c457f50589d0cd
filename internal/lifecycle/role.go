// Package lifecycle holds the pure request-lifecycle rules: the role gate,
// the per-entity transition tables and work order numbering.
package lifecycle

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin              Role = "admin"
	RoleFacilityManager    Role = "facility_manager"
	RoleCleaningSupervisor Role = "cleaning_supervisor"
	RoleStaff              Role = "staff"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleFacilityManager, RoleCleaningSupervisor, RoleStaff}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFacilityManager, RoleCleaningSupervisor, RoleStaff:
		return true
	}
	return false
}

type Action string

const (
	ActionCreate  Action = "create"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionDelete  Action = "delete"
	ActionView    Action = "view"
)

var Actions = []Action{ActionCreate, ActionApprove, ActionReject, ActionDelete, ActionView}

type Entity string

const (
	EntityWorkOrder     Entity = "work_order"
	EntitySupplyRequest Entity = "supply_request"
	EntitySpaceBooking  Entity = "space_booking"
	EntityExpense       Entity = "expense"
	EntityContract      Entity = "contract"
	EntityVendor        Entity = "vendor"
	EntityAsset         Entity = "asset"
	EntitySpace         Entity = "space"
	EntityUser          Entity = "user"
	EntitySettings      Entity = "settings"
	EntityNotification  Entity = "notification"
	EntityReport        Entity = "report"
)

var Entities = []Entity{
	EntityWorkOrder, EntitySupplyRequest, EntitySpaceBooking, EntityExpense, EntityContract,
	EntityVendor, EntityAsset, EntitySpace, EntityUser, EntitySettings, EntityNotification, EntityReport,
}

type grantSet map[Entity]map[Action]bool

func grant(set grantSet, entities []Entity, actions ...Action) {
	for _, e := range entities {
		if set[e] == nil {
			set[e] = make(map[Action]bool)
		}
		for _, a := range actions {
			set[e][a] = true
		}
	}
}

// grants is the complete rule table. Anything absent is denied; admin is
// handled separately in Can.
var grants = func() map[Role]grantSet {
	fm := grantSet{}
	grant(fm, []Entity{EntityWorkOrder, EntitySupplyRequest, EntitySpaceBooking, EntityVendor, EntityContract, EntityAsset},
		ActionCreate, ActionApprove, ActionReject, ActionView)
	grant(fm, []Entity{EntityAsset, EntitySpace}, ActionCreate, ActionDelete)
	grant(fm, []Entity{EntitySpace, EntityReport, EntityNotification}, ActionView)

	cs := grantSet{}
	grant(cs, []Entity{EntityAsset, EntitySupplyRequest, EntityExpense}, ActionCreate, ActionView)
	grant(cs, []Entity{EntitySpace, EntityNotification}, ActionView)

	st := grantSet{}
	grant(st, []Entity{EntityWorkOrder, EntityExpense, EntitySpaceBooking}, ActionCreate, ActionView)
	grant(st, []Entity{EntitySpace, EntityNotification}, ActionView)

	return map[Role]grantSet{
		RoleFacilityManager:    fm,
		RoleCleaningSupervisor: cs,
		RoleStaff:              st,
	}
}()

// Can reports whether role may perform action on entity.
func Can(role Role, action Action, entity Entity) bool {
	if role == RoleAdmin {
		return knownEntity(entity) && knownAction(action)
	}
	set, ok := grants[role]
	if !ok {
		return false
	}
	return set[entity][action]
}

// SeesAll reports whether role reads every record of entity rather than
// only the ones it submitted.
func SeesAll(role Role, entity Entity) bool {
	return Can(role, ActionApprove, entity)
}

func knownEntity(e Entity) bool {
	for _, x := range Entities {
		if x == e {
			return true
		}
	}
	return false
}

func knownAction(a Action) bool {
	for _, x := range Actions {
		if x == a {
			return true
		}
	}
	return false
}

// Actor is the authenticated caller, resolved once per request.
type Actor struct {
	UserID   uuid.UUID
	Role     Role
	FullName string
	Email    string
}

func (a Actor) Can(action Action, entity Entity) bool {
	return Can(a.Role, action, entity)
}

func (a Actor) SeesAll(entity Entity) bool {
	return SeesAll(a.Role, entity)
}

func (a Actor) IsZero() bool {
	return a.UserID == uuid.Nil
}
