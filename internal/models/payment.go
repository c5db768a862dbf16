package models

type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusPaid       PaymentStatus = "paid"
	StatusFailed     PaymentStatus = "failed"
)

// IntentParams are the inputs for creating a payment intent at the gateway.
// Amount is always the tier's canonical price in minor units, never taken
// from client input.
type IntentParams struct {
	AmountCents int64
	Currency    string
	CustomerID  string
	Metadata    map[string]string
}

// PaymentIntent is the gateway-side view of one attempted charge.
type PaymentIntent struct {
	ID                 string
	ClientSecret       string
	Status             string
	AmountCents        int64
	Currency           string
	PaymentMethodTypes []string
}

// PaymentMethodLabel returns the first reported payment method type, or
// empty when the processor has not reported one yet.
func (pi *PaymentIntent) PaymentMethodLabel() string {
	if len(pi.PaymentMethodTypes) == 0 {
		return ""
	}
	return pi.PaymentMethodTypes[0]
}
