package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ela-checkout/internal/logger"
	"ela-checkout/internal/mirror"
	"ela-checkout/internal/models"

	"github.com/google/uuid"
)

// PaymentGateway wraps the payment processor calls the checkout flow needs.
type PaymentGateway interface {
	FindOrCreateCustomer(ctx context.Context, email, name, phone string) (string, error)
	CreateIntent(ctx context.Context, params models.IntentParams) (*models.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error)
}

// OrderStore is the primary store, the system of record for orders and leads.
type OrderStore interface {
	CreateOrder(order *models.Order) error
	GetOrderByIntentID(intentID string) (*models.Order, error)
	UpdateStatusByIntentID(intentID string, status models.PaymentStatus, paymentMethod string) error
	CreateLead(lead *models.Lead) error
}

// EventPublisher streams order lifecycle events, fire-and-forget.
type EventPublisher interface {
	PublishOrderCreated(order models.Order) error
	PublishOrderStatusChanged(order models.Order) error
}

// TicketEncoder renders an order reference as a scannable ticket image.
type TicketEncoder interface {
	Encode(order *models.Order) ([]byte, error)
}

type CheckoutService struct {
	Gateway  PaymentGateway
	Store    OrderStore
	Mirror   mirror.Store   // nil when mirroring is disabled
	Events   EventPublisher // nil when Kafka is disabled
	Tickets  TicketEncoder
	Tiers    *TierCatalog
	Currency string
	logger   *logger.Logger
}

func NewCheckoutService(gateway PaymentGateway, store OrderStore, replica mirror.Store, events EventPublisher, tickets TicketEncoder, tiers *TierCatalog, currency string, log *logger.Logger) *CheckoutService {
	return &CheckoutService{
		Gateway:  gateway,
		Store:    store,
		Mirror:   replica,
		Events:   events,
		Tickets:  tickets,
		Tiers:    tiers,
		Currency: currency,
		logger:   log,
	}
}

// digits strips everything but decimal digits, the same normalization the
// masked form inputs apply client-side.
func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *CheckoutService) validateIntentRequest(req models.IntentRequest) (Tier, error) {
	switch {
	case req.Tier == "":
		return Tier{}, &ValidationError{Field: "tier", Reason: "required"}
	case req.FullName == "":
		return Tier{}, &ValidationError{Field: "fullName", Reason: "required"}
	case req.Email == "":
		return Tier{}, &ValidationError{Field: "email", Reason: "required"}
	case req.Phone == "":
		return Tier{}, &ValidationError{Field: "phone", Reason: "required"}
	}

	if req.PrimaryID != "" && len(digits(req.PrimaryID)) != 11 {
		return Tier{}, &ValidationError{Field: "primaryId", Reason: "CPF must contain 11 digits"}
	}
	if req.SecondaryID != "" && len(digits(req.SecondaryID)) != 14 {
		return Tier{}, &ValidationError{Field: "secondaryId", Reason: "CNPJ must contain 14 digits"}
	}

	tier, ok := s.Tiers.Resolve(req.Tier)
	if !ok {
		return Tier{}, &ValidationError{Field: "tier", Reason: fmt.Sprintf("unknown tier %q", req.Tier)}
	}
	return tier, nil
}

// CreateIntent validates the checkout form, finds or creates the processor
// customer, creates a payment intent for the tier's canonical amount and
// persists a pending order. A store failure does not fail the call: the
// intent is still usable even when no local order record exists, so the
// client secret is returned regardless.
func (s *CheckoutService) CreateIntent(ctx context.Context, req models.IntentRequest) (*models.IntentResponse, error) {
	tier, err := s.validateIntentRequest(req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("CHECKOUT", fmt.Sprintf("Creating payment intent: tier=%s amount=%d email=%s", tier.ID, tier.AmountCents, req.Email))

	customerID, err := s.Gateway.FindOrCreateCustomer(ctx, req.Email, req.FullName, req.Phone)
	if err != nil {
		s.logger.Error("CHECKOUT", fmt.Sprintf("Customer lookup failed for %s: %v", req.Email, err))
		return nil, &GatewayError{Op: "customer lookup", Err: err}
	}

	metadata := map[string]string{
		"tier":     tier.ID,
		"fullName": req.FullName,
		"email":    req.Email,
		"phone":    req.Phone,
	}
	if req.BirthDate != "" {
		metadata["birthDate"] = req.BirthDate
	}
	if req.PrimaryID != "" {
		metadata["cpf"] = req.PrimaryID
	}
	if req.SecondaryID != "" {
		metadata["cnpj"] = req.SecondaryID
	}
	if req.Category != "" {
		metadata["areaAtuacao"] = req.Category
	}

	intent, err := s.Gateway.CreateIntent(ctx, models.IntentParams{
		AmountCents: tier.AmountCents,
		Currency:    s.Currency,
		CustomerID:  customerID,
		Metadata:    metadata,
	})
	if err != nil {
		s.logger.Error("CHECKOUT", fmt.Sprintf("Payment intent creation failed: %v", err))
		return nil, &GatewayError{Op: "create intent", Err: err}
	}

	s.logger.Info("CHECKOUT", fmt.Sprintf("Payment intent created: %s amount=%d", intent.ID, intent.AmountCents))

	order := models.Order{
		ID:                    uuid.NewString(),
		FullName:              req.FullName,
		Email:                 req.Email,
		Phone:                 req.Phone,
		BirthDate:             req.BirthDate,
		CPF:                   req.PrimaryID,
		CNPJ:                  req.SecondaryID,
		AreaAtuacao:           req.Category,
		Tier:                  tier.ID,
		AmountCents:           tier.AmountCents,
		PaymentStatus:         models.StatusPending,
		StripePaymentIntentID: intent.ID,
		StripeCustomerID:      customerID,
		CreatedAt:             time.Now().UTC(),
	}

	orderID := order.ID
	if err := s.Store.CreateOrder(&order); err != nil {
		// Do not fail the payment flow if order creation fails.
		perr := &PersistenceError{Store: "primary", Op: "create order", Err: err}
		s.logger.Error("CHECKOUT", perr.Error())
		orderID = ""
	}

	s.mirrorInsert(&order)
	s.publishCreated(order)

	return &models.IntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		OrderID:         orderID,
	}, nil
}

// MapIntentStatus maps a processor intent status onto the local order
// status. Anything the table does not know collapses to pending, since the
// processor remains the source of truth and status can be re-derived.
func MapIntentStatus(stripeStatus string) models.PaymentStatus {
	switch stripeStatus {
	case "succeeded":
		return models.StatusPaid
	case "processing":
		return models.StatusProcessing
	case "requires_payment_method", "requires_confirmation", "requires_action":
		return models.StatusPending
	case "canceled":
		return models.StatusFailed
	default:
		return models.StatusPending
	}
}

// Confirm re-reads the intent's current status from the processor, maps it
// and writes it to both stores. The two writes are independently fallible
// and independently logged; neither rolls back the other, and the mapped
// status is returned to the caller either way. Calls may repeat for the
// same intent; each one simply re-reads and re-writes (last write wins, no
// state-transition guard).
func (s *CheckoutService) Confirm(ctx context.Context, paymentIntentID string) (*models.ConfirmResponse, error) {
	if paymentIntentID == "" {
		return nil, &ValidationError{Field: "paymentIntentId", Reason: "required"}
	}

	intent, err := s.Gateway.GetIntent(ctx, paymentIntentID)
	if err != nil {
		s.logger.Error("CONFIRM", fmt.Sprintf("Failed to retrieve intent %s: %v", paymentIntentID, err))
		return nil, &GatewayError{Op: "retrieve intent", Err: err}
	}

	mapped := MapIntentStatus(intent.Status)
	method := intent.PaymentMethodLabel()
	s.logger.Info("CONFIRM", fmt.Sprintf("Intent %s status=%s mapped=%s", paymentIntentID, intent.Status, mapped))

	if err := s.Store.UpdateStatusByIntentID(paymentIntentID, mapped, method); err != nil {
		perr := &PersistenceError{Store: "primary", Op: "update status", Err: err}
		s.logger.Error("CONFIRM", perr.Error())
	}
	if s.Mirror != nil {
		if err := s.Mirror.UpdateOrderStatus(paymentIntentID, mapped, method); err != nil {
			perr := &PersistenceError{Store: "mirror", Op: "update status", Err: err}
			s.logger.Error("CONFIRM", perr.Error())
		}
	}

	if s.Events != nil {
		if order, err := s.Store.GetOrderByIntentID(paymentIntentID); err == nil {
			order.PaymentStatus = mapped
			order.PaymentMethod = method
			if err := s.Events.PublishOrderStatusChanged(*order); err != nil {
				s.logger.Warn("KAFKA", fmt.Sprintf("Failed to publish status change for %s: %v", paymentIntentID, err))
			}
		}
	}

	return &models.ConfirmResponse{
		Status:        intent.Status,
		PaymentStatus: mapped,
		Amount:        intent.AmountCents,
		Currency:      intent.Currency,
	}, nil
}

// CaptureLead stores a pre-sale contact in the primary store and mirrors it
// best-effort.
func (s *CheckoutService) CaptureLead(ctx context.Context, req models.LeadRequest) (*models.LeadResponse, error) {
	if req.Email == "" {
		return nil, &ValidationError{Field: "email", Reason: "required"}
	}
	if req.Phone == "" {
		return nil, &ValidationError{Field: "phone", Reason: "required"}
	}

	lead := models.Lead{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Store.CreateLead(&lead); err != nil {
		perr := &PersistenceError{Store: "primary", Op: "create lead", Err: err}
		s.logger.Error("LEAD", perr.Error())
		return nil, perr
	}

	if s.Mirror != nil {
		if err := s.Mirror.InsertLead(&lead); err != nil {
			s.logger.Error("LEAD", (&PersistenceError{Store: "mirror", Op: "insert lead", Err: err}).Error())
		}
	}

	s.logger.Info("LEAD", fmt.Sprintf("Lead captured: %s", lead.ID))
	return &models.LeadResponse{Success: true, LeadID: lead.ID, Message: "lead saved"}, nil
}

// TicketQR renders the door ticket for a paid order. Orders in any other
// status are refused.
func (s *CheckoutService) TicketQR(ctx context.Context, paymentIntentID string) ([]byte, error) {
	if paymentIntentID == "" {
		return nil, &ValidationError{Field: "paymentIntentId", Reason: "required"}
	}

	order, err := s.Store.GetOrderByIntentID(paymentIntentID)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	if order.PaymentStatus != models.StatusPaid {
		return nil, fmt.Errorf("%w: order %s has status %s", ErrTicketNotPaid, order.ID, order.PaymentStatus)
	}

	return s.Tickets.Encode(order)
}

func (s *CheckoutService) mirrorInsert(order *models.Order) {
	if s.Mirror == nil {
		return
	}
	if err := s.Mirror.InsertOrder(order); err != nil {
		perr := &PersistenceError{Store: "mirror", Op: "insert order", Err: err}
		s.logger.Error("CHECKOUT", perr.Error())
	}
}

func (s *CheckoutService) publishCreated(order models.Order) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishOrderCreated(order); err != nil {
		s.logger.Warn("KAFKA", fmt.Sprintf("Failed to publish order created for %s: %v", order.ID, err))
	}
}
