package escrow

import (
	"fmt"

	"kiwi/internal/models"
)

// Role is who is asking for a transition, relative to the contract.
type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
	RoleSystem Role = "system"
)

type edge struct {
	from models.ContractStatus
	to   models.ContractStatus
}

// Forward transitions along the happy path and dispute resolution, with the
// roles allowed to request each. DISPUTED and REFUNDED have wildcard sources
// and are handled in allowedRoles.
var transitions = map[edge][]Role{
	{models.ContractDraft, models.ContractAwaitingPayment}:     {RoleSeller},
	{models.ContractAwaitingPayment, models.ContractLocked}:    {RoleBuyer},
	{models.ContractLocked, models.ContractInTransit}:          {RoleSeller},
	{models.ContractLocked, models.ContractReleased}:           {RoleBuyer},
	{models.ContractInTransit, models.ContractReleased}:        {RoleBuyer},
	{models.ContractReleased, models.ContractCompleted}:        {RoleSystem, RoleSeller},
	{models.ContractDisputed, models.ContractReleased}:         {RoleSystem},
	{models.ContractDisputed, models.ContractRefunded}:         {RoleSystem},
}

func allowedRoles(from, to models.ContractStatus) []Role {
	switch to {
	case models.ContractDisputed:
		if from.IsTerminal() || from == models.ContractDisputed {
			return nil
		}
		return []Role{RoleBuyer, RoleSeller}
	case models.ContractRefunded:
		if from.IsTerminal() {
			return nil
		}
		return []Role{RoleSystem}
	case models.ContractReleased:
		// DISPUTED resolves to RELEASED only via the system.
		if from == models.ContractDisputed {
			return transitions[edge{from, to}]
		}
	}
	return transitions[edge{from, to}]
}

// CanTransition reports whether actor may move a contract from current to target.
func CanTransition(current, target models.ContractStatus, actor Role) bool {
	for _, role := range allowedRoles(current, target) {
		if role == actor {
			return true
		}
	}
	return false
}

// Transition validates a requested status change. A request whose target
// equals the current status is treated as an idempotent success: changed is
// false and no notification should be emitted. Any other undefined edge or
// role mismatch fails with ErrIllegalTransition and the contract must stay
// untouched.
func Transition(current, target models.ContractStatus, actor Role) (changed bool, err error) {
	if current == target {
		return false, nil
	}
	if !CanTransition(current, target, actor) {
		return false, fmt.Errorf("%w: %s cannot move %s to %s", ErrIllegalTransition, actor, current, target)
	}
	return true, nil
}
