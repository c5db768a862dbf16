package checkout

import (
	"errors"
	"fmt"
)

// Step is one phase of the client checkout flow.
type Step string

const (
	StepForm    Step = "form"
	StepPayment Step = "payment"
	StepSuccess Step = "success"
)

var ErrFlowDone = errors.New("checkout flow already completed")

// Flow models the multi-step checkout: form -> payment -> success. A flow
// resumed via the processor's success redirect skips the payment step
// entirely. Failed transitions leave the flow where it is; there is no
// explicit cancellation, abandoning the form simply strands a pending order.
type Flow struct {
	step Step
}

// NewFlow starts a checkout flow. resumedSuccess is true when the client
// returns from the processor redirect with a success flag.
func NewFlow(resumedSuccess bool) *Flow {
	if resumedSuccess {
		return &Flow{step: StepSuccess}
	}
	return &Flow{step: StepForm}
}

func (f *Flow) Step() Step { return f.step }

// BeginPayment moves form -> payment after a successful intent creation.
func (f *Flow) BeginPayment() error {
	switch f.step {
	case StepForm:
		f.step = StepPayment
		return nil
	case StepSuccess:
		return ErrFlowDone
	default:
		return fmt.Errorf("cannot begin payment from step %q", f.step)
	}
}

// CompletePayment moves payment -> success on the widget's reported
// outcome. Both "succeeded" and the transient "processing" count as success
// for the client; anything else keeps the flow on the payment step.
func (f *Flow) CompletePayment(widgetStatus string) error {
	if f.step == StepSuccess {
		return ErrFlowDone
	}
	if f.step != StepPayment {
		return fmt.Errorf("cannot complete payment from step %q", f.step)
	}
	switch widgetStatus {
	case "succeeded", "processing":
		f.step = StepSuccess
		return nil
	default:
		return fmt.Errorf("payment not completed, widget status %q", widgetStatus)
	}
}
