package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type triple struct {
	role   Role
	action Action
	entity Entity
}

func expectedGrants() map[triple]bool {
	allowed := map[triple]bool{}
	add := func(role Role, entities []Entity, actions ...Action) {
		for _, e := range entities {
			for _, a := range actions {
				allowed[triple{role, a, e}] = true
			}
		}
	}

	add(RoleAdmin, Entities, Actions...)

	add(RoleFacilityManager,
		[]Entity{EntityWorkOrder, EntitySupplyRequest, EntitySpaceBooking, EntityVendor, EntityContract, EntityAsset},
		ActionCreate, ActionApprove, ActionReject, ActionView)
	add(RoleFacilityManager, []Entity{EntityAsset, EntitySpace}, ActionCreate, ActionDelete)
	add(RoleFacilityManager, []Entity{EntitySpace, EntityReport, EntityNotification}, ActionView)

	add(RoleCleaningSupervisor, []Entity{EntityAsset, EntitySupplyRequest, EntityExpense}, ActionCreate, ActionView)
	add(RoleCleaningSupervisor, []Entity{EntitySpace, EntityNotification}, ActionView)

	add(RoleStaff, []Entity{EntityWorkOrder, EntityExpense, EntitySpaceBooking}, ActionCreate, ActionView)
	add(RoleStaff, []Entity{EntitySpace, EntityNotification}, ActionView)
	return allowed
}

func TestCanMatchesRuleTableExactly(t *testing.T) {
	allowed := expectedGrants()
	for _, role := range Roles {
		for _, action := range Actions {
			for _, entity := range Entities {
				want := allowed[triple{role, action, entity}]
				assert.Equal(t, want, Can(role, action, entity), "%s %s %s", role, action, entity)
			}
		}
	}
}

func TestCanDeniesUnknownInputs(t *testing.T) {
	assert.False(t, Can(Role("janitor"), ActionView, EntityWorkOrder))
	assert.False(t, Can(Role(""), ActionCreate, EntityExpense))
	assert.False(t, Can(RoleAdmin, Action("export"), EntityWorkOrder))
	assert.False(t, Can(RoleAdmin, ActionView, Entity("payroll")))
	assert.False(t, Can(RoleStaff, ActionView, Entity("payroll")))
}

func TestNonAdminsNeverManageUsersOrSettings(t *testing.T) {
	for _, role := range []Role{RoleFacilityManager, RoleCleaningSupervisor, RoleStaff} {
		for _, action := range Actions {
			assert.False(t, Can(role, action, EntityUser), "%s %s user", role, action)
			assert.False(t, Can(role, action, EntitySettings), "%s %s settings", role, action)
		}
	}
}

func TestSeesAll(t *testing.T) {
	assert.True(t, SeesAll(RoleFacilityManager, EntityWorkOrder))
	assert.True(t, SeesAll(RoleAdmin, EntityExpense))
	assert.False(t, SeesAll(RoleFacilityManager, EntityExpense))
	assert.False(t, SeesAll(RoleStaff, EntityWorkOrder))
	assert.False(t, SeesAll(RoleCleaningSupervisor, EntitySupplyRequest))
}

func TestRoleValid(t *testing.T) {
	for _, r := range Roles {
		assert.True(t, r.Valid())
	}
	assert.False(t, Role("manager").Valid())
}
