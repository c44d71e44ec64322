package barcode

import (
	"fmt"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// ScanState tracks the downstream workflow of a scan result.
type ScanState string

const (
	StateScanned         ScanState = "SCANNED"
	StateProductFound    ScanState = "PRODUCT_FOUND"
	StateTemplateFound   ScanState = "TEMPLATE_FOUND"
	StateCreationPending ScanState = "CREATION_PENDING"
	StateCreated         ScanState = "CREATED"
	StateNotFound        ScanState = "NOT_FOUND"
	StateManualEntry     ScanState = "MANUAL_ENTRY"
)

var scanTransitions = map[ScanState][]ScanState{
	StateScanned:         {StateProductFound, StateTemplateFound, StateNotFound},
	StateTemplateFound:   {StateCreationPending},
	StateCreationPending: {StateCreated},
	StateNotFound:        {StateManualEntry},
}

// Workflow is the scan state machine. PRODUCT_FOUND, CREATED and
// MANUAL_ENTRY are terminal.
type Workflow struct {
	state ScanState
}

// NewWorkflow starts a workflow in SCANNED.
func NewWorkflow() *Workflow {
	return &Workflow{state: StateScanned}
}

// State returns the current state.
func (w *Workflow) State() ScanState {
	return w.state
}

// Terminal reports whether no further transition is allowed.
func (w *Workflow) Terminal() bool {
	return len(scanTransitions[w.state]) == 0
}

// Advance moves to the next state, rejecting illegal transitions.
func (w *Workflow) Advance(next ScanState) error {
	for _, allowed := range scanTransitions[w.state] {
		if allowed == next {
			w.state = next
			return nil
		}
	}
	return fmt.Errorf("barcode: illegal scan transition %s -> %s: %w", w.state, next, shared.ErrValidation)
}

// StateForResult maps a lookup result type onto the first transition.
func StateForResult(t ResultType) ScanState {
	switch t {
	case ResultProduct:
		return StateProductFound
	case ResultTemplate:
		return StateTemplateFound
	default:
		return StateNotFound
	}
}
