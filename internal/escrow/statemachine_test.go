package escrow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kiwi/internal/models"
)

func TestTransitionHappyPath(t *testing.T) {
	steps := []struct {
		from  models.ContractStatus
		to    models.ContractStatus
		actor Role
	}{
		{models.ContractDraft, models.ContractAwaitingPayment, RoleSeller},
		{models.ContractAwaitingPayment, models.ContractLocked, RoleBuyer},
		{models.ContractLocked, models.ContractInTransit, RoleSeller},
		{models.ContractInTransit, models.ContractReleased, RoleBuyer},
		{models.ContractReleased, models.ContractCompleted, RoleSeller},
	}

	for _, step := range steps {
		changed, err := Transition(step.from, step.to, step.actor)
		assert.NoError(t, err, "%s -> %s as %s", step.from, step.to, step.actor)
		assert.True(t, changed)
	}
}

func TestTransitionReleaseDirectlyFromLocked(t *testing.T) {
	// In-person handoffs release without a shipment step.
	changed, err := Transition(models.ContractLocked, models.ContractReleased, RoleBuyer)
	assert.NoError(t, err)
	assert.True(t, changed)
}

func TestTransitionWrongRole(t *testing.T) {
	_, err := Transition(models.ContractLocked, models.ContractInTransit, RoleBuyer)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = Transition(models.ContractInTransit, models.ContractReleased, RoleSeller)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestTransitionUndefinedEdge(t *testing.T) {
	_, err := Transition(models.ContractDraft, models.ContractReleased, RoleBuyer)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	// No backwards movement.
	_, err = Transition(models.ContractReleased, models.ContractLocked, RoleBuyer)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestTransitionIdempotentSameStatus(t *testing.T) {
	changed, err := Transition(models.ContractLocked, models.ContractLocked, RoleBuyer)
	assert.NoError(t, err)
	assert.False(t, changed)

	// Even a role that could never take the edge succeeds as a no-op.
	changed, err = Transition(models.ContractCompleted, models.ContractCompleted, RoleBuyer)
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestTransitionDisputeFromAnyActiveStatus(t *testing.T) {
	for _, from := range []models.ContractStatus{
		models.ContractAwaitingPayment,
		models.ContractLocked,
		models.ContractInTransit,
		models.ContractReleased,
	} {
		changed, err := Transition(from, models.ContractDisputed, RoleBuyer)
		assert.NoError(t, err, "from %s", from)
		assert.True(t, changed)

		changed, err = Transition(from, models.ContractDisputed, RoleSeller)
		assert.NoError(t, err, "from %s", from)
		assert.True(t, changed)
	}
}

func TestTransitionNoDisputeFromTerminal(t *testing.T) {
	_, err := Transition(models.ContractCompleted, models.ContractDisputed, RoleBuyer)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = Transition(models.ContractRefunded, models.ContractDisputed, RoleSeller)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestTransitionDisputeResolutionIsSystemOnly(t *testing.T) {
	for _, target := range []models.ContractStatus{models.ContractReleased, models.ContractRefunded} {
		changed, err := Transition(models.ContractDisputed, target, RoleSystem)
		assert.NoError(t, err, "to %s", target)
		assert.True(t, changed)

		_, err = Transition(models.ContractDisputed, target, RoleBuyer)
		assert.ErrorIs(t, err, ErrIllegalTransition, "to %s as buyer", target)

		_, err = Transition(models.ContractDisputed, target, RoleSeller)
		assert.ErrorIs(t, err, ErrIllegalTransition, "to %s as seller", target)
	}
}

func TestTransitionRefundOnlyBySystem(t *testing.T) {
	changed, err := Transition(models.ContractLocked, models.ContractRefunded, RoleSystem)
	assert.NoError(t, err)
	assert.True(t, changed)

	_, err = Transition(models.ContractLocked, models.ContractRefunded, RoleBuyer)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, models.ContractCompleted.IsTerminal())
	assert.True(t, models.ContractRefunded.IsTerminal())
	assert.False(t, models.ContractDisputed.IsTerminal())
	assert.False(t, models.ContractReleased.IsTerminal())
}
