package lifecycle

import (
	"fmt"

	"fms/pkg/apperror"
)

type Status string

// Work order statuses.
const (
	WorkOrderSubmitted       Status = "submitted"
	WorkOrderPendingApproval Status = "pending_approval"
	WorkOrderApproved        Status = "approved"
	WorkOrderInProgress      Status = "in_progress"
	WorkOrderCompleted       Status = "completed"
	WorkOrderRejected        Status = "rejected"
	WorkOrderOnHold          Status = "on_hold"
)

// Supply request statuses.
const (
	SupplyPending           Status = "pending"
	SupplyApproved          Status = "approved"
	SupplyPartiallyApproved Status = "partially_approved"
	SupplyRejected          Status = "rejected"
	SupplyFulfilled         Status = "fulfilled"
)

// Space booking statuses.
const (
	BookingPending   Status = "pending"
	BookingApproved  Status = "approved"
	BookingDenied    Status = "denied"
	BookingCancelled Status = "cancelled"
)

// Expense statuses.
const (
	ExpensePending                Status = "pending"
	ExpenseApproved               Status = "approved"
	ExpenseDenied                 Status = "denied"
	ExpenseReimbursed             Status = "reimbursed"
	ExpenseClarificationRequested Status = "clarification_requested"
)

// Contract statuses.
const (
	ContractActive      Status = "active"
	ContractExpired     Status = "expired"
	ContractUnderReview Status = "under_review"
	ContractTerminated  Status = "terminated"
)

type machine struct {
	initial   Status
	edges     map[Status][]Status
	reviewers []Role
}

var reviewersFM = []Role{RoleFacilityManager, RoleAdmin}

var machines = map[Entity]machine{
	EntityWorkOrder: {
		initial: WorkOrderSubmitted,
		edges: map[Status][]Status{
			WorkOrderSubmitted:       {WorkOrderPendingApproval, WorkOrderApproved, WorkOrderRejected, WorkOrderOnHold},
			WorkOrderPendingApproval: {WorkOrderApproved, WorkOrderRejected, WorkOrderOnHold},
			WorkOrderApproved:        {WorkOrderInProgress, WorkOrderOnHold},
			WorkOrderInProgress:      {WorkOrderCompleted, WorkOrderOnHold},
			WorkOrderOnHold:          {WorkOrderPendingApproval, WorkOrderApproved, WorkOrderInProgress, WorkOrderRejected},
			WorkOrderCompleted:       nil,
			WorkOrderRejected:        nil,
		},
		reviewers: reviewersFM,
	},
	EntitySupplyRequest: {
		initial: SupplyPending,
		edges: map[Status][]Status{
			SupplyPending:           {SupplyApproved, SupplyPartiallyApproved, SupplyRejected},
			SupplyApproved:          {SupplyFulfilled},
			SupplyPartiallyApproved: {SupplyFulfilled},
			SupplyRejected:          nil,
			SupplyFulfilled:         nil,
		},
		reviewers: reviewersFM,
	},
	EntitySpaceBooking: {
		initial: BookingPending,
		edges: map[Status][]Status{
			BookingPending:   {BookingApproved, BookingDenied},
			BookingApproved:  {BookingCancelled},
			BookingDenied:    nil,
			BookingCancelled: nil,
		},
		reviewers: reviewersFM,
	},
	EntityExpense: {
		initial: ExpensePending,
		edges: map[Status][]Status{
			ExpensePending:                {ExpenseApproved, ExpenseDenied, ExpenseReimbursed, ExpenseClarificationRequested},
			ExpenseClarificationRequested: {ExpenseApproved, ExpenseDenied},
			ExpenseApproved:               {ExpenseReimbursed},
			ExpenseDenied:                 nil,
			ExpenseReimbursed:             nil,
		},
		reviewers: []Role{RoleAdmin},
	},
	EntityContract: {
		initial: ContractActive,
		edges: map[Status][]Status{
			ContractActive:      {ContractExpired, ContractUnderReview, ContractTerminated},
			ContractUnderReview: {ContractActive, ContractExpired, ContractTerminated},
			ContractExpired:     nil,
			ContractTerminated:  nil,
		},
		reviewers: reviewersFM,
	},
}

// Decision is the outcome of an accepted transition.
type Decision struct {
	From, To      Status
	NoOp          bool
	Action        Action
	StampReviewer bool
	RecordReason  bool
}

// ActionFor maps a target status to the gate action it requires.
func ActionFor(to Status) Action {
	switch to {
	case WorkOrderRejected, BookingDenied, BookingCancelled, ContractTerminated:
		return ActionReject
	}
	return ActionApprove
}

func stamps(to Status) bool {
	switch to {
	case WorkOrderApproved, SupplyPartiallyApproved, WorkOrderCompleted, SupplyFulfilled, ExpenseReimbursed:
		return true
	}
	return false
}

func carriesReason(to Status) bool {
	switch to {
	case WorkOrderRejected, BookingDenied, BookingCancelled, ExpenseClarificationRequested:
		return true
	}
	return false
}

// InitialStatus returns the status a freshly submitted entity starts in.
func InitialStatus(entity Entity) (Status, bool) {
	m, ok := machines[entity]
	return m.initial, ok
}

// Known reports whether status belongs to entity's state table.
func Known(entity Entity, status Status) bool {
	m, ok := machines[entity]
	if !ok {
		return false
	}
	_, ok = m.edges[status]
	return ok
}

// Statuses returns every status of entity's state table.
func Statuses(entity Entity) []Status {
	m := machines[entity]
	out := make([]Status, 0, len(m.edges))
	for s := range m.edges {
		out = append(out, s)
	}
	return out
}

func Terminal(entity Entity, status Status) bool {
	m, ok := machines[entity]
	if !ok {
		return false
	}
	next, ok := m.edges[status]
	return ok && len(next) == 0
}

// Allowed reports whether from -> to is an edge of entity's table.
func Allowed(entity Entity, from, to Status) bool {
	for _, s := range machines[entity].edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsReviewer reports whether role may drive transitions on entity.
func IsReviewer(entity Entity, role Role) bool {
	for _, r := range machines[entity].reviewers {
		if r == role {
			return true
		}
	}
	return false
}

// Validate decides whether role may move an entity from one status to
// another. A self-transition is accepted as a no-op.
func Validate(entity Entity, from, to Status, role Role) (Decision, error) {
	if _, ok := machines[entity]; !ok {
		return Decision{}, apperror.Validation("%s has no lifecycle", entity)
	}
	if !Known(entity, from) || !Known(entity, to) {
		return Decision{}, apperror.InvalidTransition(string(entity), string(from), string(to))
	}
	if from == to {
		return Decision{From: from, To: to, NoOp: true, Action: ActionFor(to)}, nil
	}
	if !Allowed(entity, from, to) {
		return Decision{}, apperror.InvalidTransition(string(entity), string(from), string(to))
	}
	if !IsReviewer(entity, role) {
		return Decision{}, apperror.Unauthorized(fmt.Sprintf("role %s cannot review %s", role, entity))
	}
	return Decision{
		From:          from,
		To:            to,
		Action:        ActionFor(to),
		StampReviewer: stamps(to),
		RecordReason:  carriesReason(to),
	}, nil
}

// Authorize runs the role gate for the transition's action and then
// validates the edge. It is the single entry point for status changes.
func Authorize(actor Actor, entity Entity, from, to Status) (Decision, error) {
	action := ActionFor(to)
	if !actor.Can(action, entity) {
		return Decision{}, apperror.Unauthorized(fmt.Sprintf("role %s may not %s %s", actor.Role, action, entity))
	}
	return Validate(entity, from, to, actor.Role)
}
