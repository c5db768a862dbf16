package mirror

import (
	"ela-checkout/internal/models"
)

// Store is the best-effort relational mirror for orders and leads. It is
// populated by the same write paths as the primary store and never read
// back into the checkout flow.
type Store interface {
	InsertOrder(order *models.Order) error
	UpdateOrderStatus(intentID string, status models.PaymentStatus, paymentMethod string) error
	InsertLead(lead *models.Lead) error

	// Health and maintenance
	Close() error
	HealthCheck() error
}
