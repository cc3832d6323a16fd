package escrow

import (
	"kiwi/internal/models"
)

type StepState string

const (
	StepCompleted StepState = "completed"
	StepActive    StepState = "active"
	StepPending   StepState = "pending"
)

// TimelineStep is one entry of the tracking screen's progress list.
type TimelineStep struct {
	ID          string                `json:"id"`
	Status      models.ContractStatus `json:"status"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Number      int                   `json:"number"`
	State       StepState             `json:"state"`
}

// Actions is the per-status set of controls the client may enable.
type Actions struct {
	CanPay             bool `json:"can_pay"`
	CanConfirmShipment bool `json:"can_confirm_shipment"`
	CanReleaseFunds    bool `json:"can_release_funds"`
	CanComplete        bool `json:"can_complete"`
	CanReportProblem   bool `json:"can_report_problem"`
}

var statusRank = map[models.ContractStatus]int{
	models.ContractDraft:           0,
	models.ContractAwaitingPayment: 1,
	models.ContractLocked:          2,
	models.ContractInTransit:       3,
	models.ContractReleased:        4,
	models.ContractCompleted:       5,
}

var timelineSteps = []TimelineStep{
	{ID: "created", Status: models.ContractAwaitingPayment, Title: "Creado", Description: "El vendedor ha listado el producto.", Number: 1},
	{ID: "paid", Status: models.ContractLocked, Title: "Pagado", Description: "Tu pago está seguro en Kiwi.", Number: 2},
	{ID: "shipped", Status: models.ContractInTransit, Title: "Enviado", Description: "El vendedor ha despachado el producto.", Number: 3},
	{ID: "received", Status: models.ContractReleased, Title: "Recibido", Description: "Confirma que el producto está de acuerdo con el contrato.", Number: 4},
	{ID: "completed", Status: models.ContractCompleted, Title: "Fondos liberados", Description: "El pago se enviará al vendedor.", Number: 5},
}

// rank returns the position of a status in the canonical happy-path ordering.
// DISPUTED and REFUNDED have no rank; ok is false for them.
func rank(status models.ContractStatus) (int, bool) {
	r, ok := statusRank[status]
	return r, ok
}

// Timeline derives the progress steps for a status. For DISPUTED and REFUNDED
// halted is true and every step is returned pending: those statuses sit
// outside the ordering and must not be interpolated into it.
func Timeline(status models.ContractStatus) (steps []TimelineStep, halted bool) {
	current, ok := statusRank[status]

	steps = make([]TimelineStep, len(timelineSteps))
	copy(steps, timelineSteps)

	if !ok {
		for i := range steps {
			steps[i].State = StepPending
		}
		return steps, true
	}

	for i := range steps {
		stepRank := statusRank[steps[i].Status]
		switch {
		case stepRank < current:
			steps[i].State = StepCompleted
		case stepRank == current:
			steps[i].State = StepActive
		default:
			steps[i].State = StepPending
		}
	}
	return steps, false
}

// PermittedActions derives which controls a status allows. Screens consume
// this instead of re-deriving it from the raw status string.
func PermittedActions(status models.ContractStatus) Actions {
	return Actions{
		CanPay:             status == models.ContractAwaitingPayment,
		CanConfirmShipment: status == models.ContractLocked,
		CanReleaseFunds:    status == models.ContractLocked || status == models.ContractInTransit,
		CanComplete:        status == models.ContractReleased,
		CanReportProblem: status != models.ContractCompleted &&
			status != models.ContractRefunded &&
			status != models.ContractDraft,
	}
}
