package escrow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kiwi/internal/models"
)

func TestTimelineActiveStep(t *testing.T) {
	steps, halted := Timeline(models.ContractInTransit)
	assert.False(t, halted)
	assert.Len(t, steps, 5)

	assert.Equal(t, StepCompleted, steps[0].State) // created
	assert.Equal(t, StepCompleted, steps[1].State) // paid
	assert.Equal(t, StepActive, steps[2].State)    // shipped
	assert.Equal(t, StepPending, steps[3].State)   // received
	assert.Equal(t, StepPending, steps[4].State)   // completed
}

func TestTimelineCompleted(t *testing.T) {
	steps, halted := Timeline(models.ContractCompleted)
	assert.False(t, halted)
	for i, step := range steps[:4] {
		assert.Equal(t, StepCompleted, step.State, "step %d", i)
	}
	assert.Equal(t, StepActive, steps[4].State)
}

func TestTimelineHaltedStatuses(t *testing.T) {
	for _, status := range []models.ContractStatus{models.ContractDisputed, models.ContractRefunded} {
		steps, halted := Timeline(status)
		assert.True(t, halted, "status %s", status)
		for i, step := range steps {
			assert.Equal(t, StepPending, step.State, "status %s step %d", status, i)
		}
	}
}

func TestRank(t *testing.T) {
	r, ok := rank(models.ContractLocked)
	assert.True(t, ok)
	assert.Equal(t, 2, r)

	_, ok = rank(models.ContractDisputed)
	assert.False(t, ok)
	_, ok = rank(models.ContractRefunded)
	assert.False(t, ok)
}

func TestPermittedActionsPerStatus(t *testing.T) {
	actions := PermittedActions(models.ContractAwaitingPayment)
	assert.True(t, actions.CanPay)
	assert.False(t, actions.CanConfirmShipment)
	assert.False(t, actions.CanReleaseFunds)
	assert.True(t, actions.CanReportProblem)

	actions = PermittedActions(models.ContractLocked)
	assert.False(t, actions.CanPay)
	assert.True(t, actions.CanConfirmShipment)
	assert.True(t, actions.CanReleaseFunds)

	actions = PermittedActions(models.ContractInTransit)
	assert.False(t, actions.CanConfirmShipment)
	assert.True(t, actions.CanReleaseFunds)

	actions = PermittedActions(models.ContractReleased)
	assert.True(t, actions.CanComplete)
	assert.True(t, actions.CanReportProblem)
}

func TestPermittedActionsReportProblem(t *testing.T) {
	// Disputes stay open for re-reporting until the contract settles.
	assert.True(t, PermittedActions(models.ContractDisputed).CanReportProblem)

	assert.False(t, PermittedActions(models.ContractDraft).CanReportProblem)
	assert.False(t, PermittedActions(models.ContractCompleted).CanReportProblem)
	assert.False(t, PermittedActions(models.ContractRefunded).CanReportProblem)
}

func TestPermittedActionsTerminalAllOff(t *testing.T) {
	for _, status := range []models.ContractStatus{models.ContractCompleted, models.ContractRefunded} {
		actions := PermittedActions(status)
		assert.False(t, actions.CanPay, "status %s", status)
		assert.False(t, actions.CanConfirmShipment, "status %s", status)
		assert.False(t, actions.CanReleaseFunds, "status %s", status)
		assert.False(t, actions.CanComplete, "status %s", status)
		assert.False(t, actions.CanReportProblem, "status %s", status)
	}
}
