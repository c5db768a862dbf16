package gateway

import (
	"context"
	"errors"
	"fmt"

	"ela-checkout/internal/logger"
	"ela-checkout/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

// StripeGateway handles integration with the Stripe payment processor.
type StripeGateway struct {
	client *client.API
	cache  *CustomerCache
	log    *logger.Logger
}

// NewStripeGateway creates a new gateway from a secret key. cache may be nil
// when Redis is not configured.
func NewStripeGateway(secretKey string, cache *CustomerCache, log *logger.Logger) (*StripeGateway, error) {
	if secretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY environment variable not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(secretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{client: sc, cache: cache, log: log}, nil
}

// FindOrCreateCustomer looks a customer up by email, first-found-wins, and
// creates one when absent. There is no deduplication beyond matching on
// email. Lookups hit the Redis cache first; cache failures are non-fatal.
func (g *StripeGateway) FindOrCreateCustomer(ctx context.Context, email, name, phone string) (string, error) {
	if id, ok := g.cache.Get(ctx, email); ok {
		g.log.Debug("STRIPE", fmt.Sprintf("Customer cache hit for %s: %s", email, id))
		return id, nil
	}

	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := g.client.Customers.List(listParams)
	if iter.Next() {
		id := iter.Customer().ID
		g.log.Info("STRIPE", fmt.Sprintf("Existing customer found: %s", id))
		g.cache.Put(ctx, email, id)
		return id, nil
	}
	if err := iter.Err(); err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Customer list failed: %v", err))
		return "", err
	}

	createParams := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
		Phone: stripe.String(phone),
	}
	createParams.Context = ctx
	createParams.AddMetadata("source", "ela_event")

	cust, err := g.client.Customers.New(createParams)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Customer creation failed: %v", err))
		return "", err
	}

	g.log.Info("STRIPE", fmt.Sprintf("New customer created: %s", cust.ID))
	g.cache.Put(ctx, email, cust.ID)
	return cust.ID, nil
}

// CreateIntent creates a card payment intent with the customer metadata
// attached for audit and reconciliation.
func (g *StripeGateway) CreateIntent(ctx context.Context, p models.IntentParams) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(p.AmountCents),
		Currency:           stripe.String(p.Currency),
		Customer:           stripe.String(p.CustomerID),
		PaymentMethodTypes: []*string{stripe.String("card")},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent: %v", err))
		return nil, err
	}

	g.log.Info("STRIPE", fmt.Sprintf("Payment intent created: %s amount=%d", pi.ID, pi.Amount))
	return fromStripeIntent(pi), nil
}

// GetIntent retrieves the current processor-side state of an intent.
func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.client.PaymentIntents.Get(id, params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to retrieve payment intent %s: %v", id, err))
		return nil, err
	}

	return fromStripeIntent(pi), nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *models.PaymentIntent {
	types := make([]string, 0, len(pi.PaymentMethodTypes))
	types = append(types, pi.PaymentMethodTypes...)

	return &models.PaymentIntent{
		ID:                 pi.ID,
		ClientSecret:       pi.ClientSecret,
		Status:             string(pi.Status),
		AmountCents:        pi.Amount,
		Currency:           string(pi.Currency),
		PaymentMethodTypes: types,
	}
}
