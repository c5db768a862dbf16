package checkout_test

import (
	"context"
	"errors"
	"testing"

	"ela-checkout/internal/checkout"
	"ela-checkout/internal/logger"
	"ela-checkout/internal/models"

	"github.com/stretchr/testify/assert"
)

// Mock implementations for testing

type MockGateway struct {
	customers     map[string]string
	intents       map[string]*models.PaymentIntent
	lastParams    models.IntentParams
	customerCalls int
	intentCalls   int
	shouldFailOn  string
	errorMsg      string
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		customers: make(map[string]string),
		intents:   make(map[string]*models.PaymentIntent),
	}
}

func (m *MockGateway) FindOrCreateCustomer(ctx context.Context, email, name, phone string) (string, error) {
	m.customerCalls++
	if m.shouldFailOn == "FindOrCreateCustomer" {
		return "", errors.New(m.errorMsg)
	}
	if id, exists := m.customers[email]; exists {
		return id, nil
	}
	id := "cus_" + email
	m.customers[email] = id
	return id, nil
}

func (m *MockGateway) CreateIntent(ctx context.Context, params models.IntentParams) (*models.PaymentIntent, error) {
	m.intentCalls++
	if m.shouldFailOn == "CreateIntent" {
		return nil, errors.New(m.errorMsg)
	}
	m.lastParams = params
	intent := &models.PaymentIntent{
		ID:                 "pi_test_1",
		ClientSecret:       "pi_test_1_secret_abc",
		Status:             "requires_payment_method",
		AmountCents:        params.AmountCents,
		Currency:           params.Currency,
		PaymentMethodTypes: []string{"card"},
	}
	m.intents[intent.ID] = intent
	return intent, nil
}

func (m *MockGateway) GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	if m.shouldFailOn == "GetIntent" {
		return nil, errors.New(m.errorMsg)
	}
	intent, exists := m.intents[id]
	if !exists {
		return nil, errors.New("no such payment intent")
	}
	return intent, nil
}

type MockOrderStore struct {
	orders       map[string]*models.Order
	leads        map[string]*models.Lead
	shouldFailOn string
	errorMsg     string
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		orders: make(map[string]*models.Order),
		leads:  make(map[string]*models.Lead),
	}
}

func (m *MockOrderStore) CreateOrder(order *models.Order) error {
	if m.shouldFailOn == "CreateOrder" {
		return errors.New(m.errorMsg)
	}
	m.orders[order.StripePaymentIntentID] = order
	return nil
}

func (m *MockOrderStore) GetOrderByIntentID(intentID string) (*models.Order, error) {
	if m.shouldFailOn == "GetOrderByIntentID" {
		return nil, errors.New(m.errorMsg)
	}
	order, exists := m.orders[intentID]
	if !exists {
		return nil, errors.New("order not found")
	}
	return order, nil
}

func (m *MockOrderStore) UpdateStatusByIntentID(intentID string, status models.PaymentStatus, paymentMethod string) error {
	if m.shouldFailOn == "UpdateStatusByIntentID" {
		return errors.New(m.errorMsg)
	}
	order, exists := m.orders[intentID]
	if !exists {
		return errors.New("order not found")
	}
	order.PaymentStatus = status
	order.PaymentMethod = paymentMethod
	return nil
}

func (m *MockOrderStore) CreateLead(lead *models.Lead) error {
	if m.shouldFailOn == "CreateLead" {
		return errors.New(m.errorMsg)
	}
	m.leads[lead.ID] = lead
	return nil
}

type MockMirror struct {
	orders       map[string]*models.Order
	leads        map[string]*models.Lead
	shouldFailOn string
	errorMsg     string
}

func NewMockMirror() *MockMirror {
	return &MockMirror{
		orders: make(map[string]*models.Order),
		leads:  make(map[string]*models.Lead),
	}
}

func (m *MockMirror) InsertOrder(order *models.Order) error {
	if m.shouldFailOn == "InsertOrder" {
		return errors.New(m.errorMsg)
	}
	copied := *order
	m.orders[order.StripePaymentIntentID] = &copied
	return nil
}

func (m *MockMirror) UpdateOrderStatus(intentID string, status models.PaymentStatus, paymentMethod string) error {
	if m.shouldFailOn == "UpdateOrderStatus" {
		return errors.New(m.errorMsg)
	}
	order, exists := m.orders[intentID]
	if !exists {
		return errors.New("order not found")
	}
	order.PaymentStatus = status
	order.PaymentMethod = paymentMethod
	return nil
}

func (m *MockMirror) InsertLead(lead *models.Lead) error {
	if m.shouldFailOn == "InsertLead" {
		return errors.New(m.errorMsg)
	}
	copied := *lead
	m.leads[lead.ID] = &copied
	return nil
}

func (m *MockMirror) Close() error       { return nil }
func (m *MockMirror) HealthCheck() error { return nil }

type MockPublisher struct {
	created       []models.Order
	statusChanged []models.Order
	shouldFailOn  string
	errorMsg      string
}

func (m *MockPublisher) PublishOrderCreated(order models.Order) error {
	if m.shouldFailOn == "PublishOrderCreated" {
		return errors.New(m.errorMsg)
	}
	m.created = append(m.created, order)
	return nil
}

func (m *MockPublisher) PublishOrderStatusChanged(order models.Order) error {
	if m.shouldFailOn == "PublishOrderStatusChanged" {
		return errors.New(m.errorMsg)
	}
	m.statusChanged = append(m.statusChanged, order)
	return nil
}

type MockEncoder struct {
	shouldFail bool
}

func (m *MockEncoder) Encode(order *models.Order) ([]byte, error) {
	if m.shouldFail {
		return nil, errors.New("encode failed")
	}
	return []byte("png-bytes-" + order.ID), nil
}

func setupService() (*checkout.CheckoutService, *MockGateway, *MockOrderStore, *MockMirror, *MockPublisher) {
	gateway := NewMockGateway()
	store := NewMockOrderStore()
	replica := NewMockMirror()
	publisher := &MockPublisher{}
	log := logger.NewLogger()

	service := checkout.NewCheckoutService(
		gateway, store, replica, publisher, &MockEncoder{},
		checkout.DefaultTiers(), "brl", log,
	)
	return service, gateway, store, replica, publisher
}

func validRequest() models.IntentRequest {
	return models.IntentRequest{
		Tier:     "basico",
		FullName: "Maria Silva",
		Email:    "maria@example.com",
		Phone:    "(11) 98765-4321",
	}
}

func TestCreateIntent(t *testing.T) {
	service, gateway, store, replica, publisher := setupService()

	resp, err := service.CreateIntent(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if resp.ClientSecret == "" {
		t.Error("Expected a non-empty client secret")
	}
	if resp.PaymentIntentID != "pi_test_1" {
		t.Errorf("Expected payment intent ID pi_test_1, got %s", resp.PaymentIntentID)
	}
	if resp.OrderID == "" {
		t.Error("Expected a non-empty order ID")
	}

	// Tier basico is charged at its canonical amount regardless of any
	// client-supplied value.
	if gateway.lastParams.AmountCents != 50000 {
		t.Errorf("Expected amount 50000, got %d", gateway.lastParams.AmountCents)
	}
	if gateway.lastParams.Currency != "brl" {
		t.Errorf("Expected currency brl, got %s", gateway.lastParams.Currency)
	}

	// Order persisted as pending in both stores.
	order, err := store.GetOrderByIntentID("pi_test_1")
	if err != nil {
		t.Fatalf("Failed to retrieve order: %v", err)
	}
	if order.PaymentStatus != models.StatusPending {
		t.Errorf("Expected status pending, got %s", order.PaymentStatus)
	}
	if order.AmountCents != 50000 {
		t.Errorf("Expected order amount 50000, got %d", order.AmountCents)
	}
	if _, exists := replica.orders["pi_test_1"]; !exists {
		t.Error("Expected order to be mirrored")
	}

	if len(publisher.created) != 1 {
		t.Errorf("Expected 1 order created event, got %d", len(publisher.created))
	}
}

func TestCreateIntentLegacyTierAlias(t *testing.T) {
	service, gateway, _, _, _ := setupService()

	req := validRequest()
	req.Tier = "vip"

	_, err := service.CreateIntent(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// vip is a legacy alias for intermediario.
	if gateway.lastParams.AmountCents != 55000 {
		t.Errorf("Expected amount 55000, got %d", gateway.lastParams.AmountCents)
	}
}

func TestCreateIntentUnknownTier(t *testing.T) {
	service, gateway, _, _, _ := setupService()

	req := validRequest()
	req.Tier = "platinum"

	_, err := service.CreateIntent(context.Background(), req)
	if err == nil {
		t.Fatal("Expected error for unknown tier, got nil")
	}

	var verr *checkout.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if verr.Field != "tier" {
		t.Errorf("Expected field tier, got %s", verr.Field)
	}

	// The gateway must never be reached for a rejected request.
	if gateway.customerCalls != 0 || gateway.intentCalls != 0 {
		t.Errorf("Expected no gateway calls, got customer=%d intent=%d", gateway.customerCalls, gateway.intentCalls)
	}
}

func TestCreateIntentMissingFields(t *testing.T) {
	service, _, _, _, _ := setupService()

	cases := []struct {
		name   string
		mutate func(*models.IntentRequest)
		field  string
	}{
		{"missing tier", func(r *models.IntentRequest) { r.Tier = "" }, "tier"},
		{"missing fullName", func(r *models.IntentRequest) { r.FullName = "" }, "fullName"},
		{"missing email", func(r *models.IntentRequest) { r.Email = "" }, "email"},
		{"missing phone", func(r *models.IntentRequest) { r.Phone = "" }, "phone"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)

			_, err := service.CreateIntent(context.Background(), req)

			var verr *checkout.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestCreateIntentDocumentValidation(t *testing.T) {
	service, _, _, _, _ := setupService()

	t.Run("masked CPF accepted", func(t *testing.T) {
		req := validRequest()
		req.PrimaryID = "123.456.789-09"

		_, err := service.CreateIntent(context.Background(), req)
		assert.NoError(t, err)
	})

	t.Run("short CPF rejected", func(t *testing.T) {
		req := validRequest()
		req.PrimaryID = "123456"

		_, err := service.CreateIntent(context.Background(), req)
		var verr *checkout.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
		assert.Equal(t, "primaryId", verr.Field)
	})

	t.Run("masked CNPJ accepted", func(t *testing.T) {
		req := validRequest()
		req.SecondaryID = "12.345.678/0001-95"

		_, err := service.CreateIntent(context.Background(), req)
		assert.NoError(t, err)
	})

	t.Run("short CNPJ rejected", func(t *testing.T) {
		req := validRequest()
		req.SecondaryID = "12345678"

		_, err := service.CreateIntent(context.Background(), req)
		var verr *checkout.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
		assert.Equal(t, "secondaryId", verr.Field)
	})
}

func TestCreateIntentStoreFailureStillReturnsSecret(t *testing.T) {
	service, _, store, _, _ := setupService()
	store.shouldFailOn = "CreateOrder"
	store.errorMsg = "db down"

	resp, err := service.CreateIntent(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Expected no error when store fails, got %v", err)
	}

	if resp.ClientSecret == "" {
		t.Error("Expected client secret even when order persistence fails")
	}
	if resp.OrderID != "" {
		t.Errorf("Expected empty order ID when persistence fails, got %s", resp.OrderID)
	}
}

func TestCreateIntentGatewayFailure(t *testing.T) {
	service, gateway, _, _, _ := setupService()
	gateway.shouldFailOn = "CreateIntent"
	gateway.errorMsg = "stripe unavailable"

	_, err := service.CreateIntent(context.Background(), validRequest())
	if err == nil {
		t.Fatal("Expected error when gateway fails, got nil")
	}

	var gerr *checkout.GatewayError
	if !errors.As(err, &gerr) {
		t.Fatalf("Expected GatewayError, got %T", err)
	}
}

func TestCreateIntentReusesCustomer(t *testing.T) {
	service, gateway, _, _, _ := setupService()
	gateway.customers["maria@example.com"] = "cus_existing"

	_, err := service.CreateIntent(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if gateway.lastParams.CustomerID != "cus_existing" {
		t.Errorf("Expected existing customer cus_existing, got %s", gateway.lastParams.CustomerID)
	}
}

func TestMapIntentStatus(t *testing.T) {
	cases := map[string]models.PaymentStatus{
		"succeeded":               models.StatusPaid,
		"processing":              models.StatusProcessing,
		"requires_payment_method": models.StatusPending,
		"requires_confirmation":   models.StatusPending,
		"requires_action":         models.StatusPending,
		"canceled":                models.StatusFailed,
		"something_new":           models.StatusPending,
	}

	for stripeStatus, want := range cases {
		got := checkout.MapIntentStatus(stripeStatus)
		if got != want {
			t.Errorf("MapIntentStatus(%q) = %s, want %s", stripeStatus, got, want)
		}
	}
}

func TestConfirm(t *testing.T) {
	service, gateway, store, replica, publisher := setupService()

	if _, err := service.CreateIntent(context.Background(), validRequest()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	gateway.intents["pi_test_1"].Status = "succeeded"

	resp, err := service.Confirm(context.Background(), "pi_test_1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	assert.Equal(t, "succeeded", resp.Status)
	assert.Equal(t, models.StatusPaid, resp.PaymentStatus)
	assert.Equal(t, int64(50000), resp.Amount)
	assert.Equal(t, "brl", resp.Currency)

	// Both stores updated.
	order, _ := store.GetOrderByIntentID("pi_test_1")
	if order.PaymentStatus != models.StatusPaid {
		t.Errorf("Expected primary status paid, got %s", order.PaymentStatus)
	}
	if order.PaymentMethod != "card" {
		t.Errorf("Expected payment method card, got %s", order.PaymentMethod)
	}
	if replica.orders["pi_test_1"].PaymentStatus != models.StatusPaid {
		t.Errorf("Expected mirror status paid, got %s", replica.orders["pi_test_1"].PaymentStatus)
	}

	if len(publisher.statusChanged) != 1 {
		t.Errorf("Expected 1 status change event, got %d", len(publisher.statusChanged))
	}
}

func TestConfirmCanceledIntent(t *testing.T) {
	service, gateway, store, replica, _ := setupService()

	if _, err := service.CreateIntent(context.Background(), validRequest()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	gateway.intents["pi_test_1"].Status = "canceled"

	resp, err := service.Confirm(context.Background(), "pi_test_1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	assert.Equal(t, models.StatusFailed, resp.PaymentStatus)

	order, _ := store.GetOrderByIntentID("pi_test_1")
	assert.Equal(t, models.StatusFailed, order.PaymentStatus)
	assert.Equal(t, models.StatusFailed, replica.orders["pi_test_1"].PaymentStatus)
}

func TestConfirmEmptyIntentID(t *testing.T) {
	service, _, _, _, _ := setupService()

	_, err := service.Confirm(context.Background(), "")

	var verr *checkout.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestConfirmGatewayFailure(t *testing.T) {
	service, gateway, _, _, _ := setupService()
	gateway.shouldFailOn = "GetIntent"
	gateway.errorMsg = "stripe unavailable"

	_, err := service.Confirm(context.Background(), "pi_test_1")

	var gerr *checkout.GatewayError
	if !errors.As(err, &gerr) {
		t.Fatalf("Expected GatewayError, got %v", err)
	}
}

func TestConfirmStoreFailuresAreSwallowed(t *testing.T) {
	service, gateway, store, replica, _ := setupService()

	if _, err := service.CreateIntent(context.Background(), validRequest()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	gateway.intents["pi_test_1"].Status = "succeeded"

	store.shouldFailOn = "UpdateStatusByIntentID"
	store.errorMsg = "primary down"
	replica.shouldFailOn = "UpdateOrderStatus"
	replica.errorMsg = "mirror down"

	resp, err := service.Confirm(context.Background(), "pi_test_1")
	if err != nil {
		t.Fatalf("Expected no error when stores fail, got %v", err)
	}
	assert.Equal(t, models.StatusPaid, resp.PaymentStatus)
}

func TestConfirmIsRepeatable(t *testing.T) {
	service, gateway, store, _, _ := setupService()

	if _, err := service.CreateIntent(context.Background(), validRequest()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	gateway.intents["pi_test_1"].Status = "succeeded"

	for i := 0; i < 3; i++ {
		resp, err := service.Confirm(context.Background(), "pi_test_1")
		if err != nil {
			t.Fatalf("Confirm #%d failed: %v", i+1, err)
		}
		assert.Equal(t, models.StatusPaid, resp.PaymentStatus)
	}

	order, _ := store.GetOrderByIntentID("pi_test_1")
	assert.Equal(t, models.StatusPaid, order.PaymentStatus)
}

func TestCaptureLead(t *testing.T) {
	service, _, store, replica, _ := setupService()

	resp, err := service.CaptureLead(context.Background(), models.LeadRequest{
		Email: "lead@example.com",
		Phone: "11999998888",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !resp.Success {
		t.Error("Expected success true")
	}
	if resp.LeadID == "" {
		t.Error("Expected a non-empty lead ID")
	}

	if _, exists := store.leads[resp.LeadID]; !exists {
		t.Error("Expected lead in primary store")
	}
	if _, exists := replica.leads[resp.LeadID]; !exists {
		t.Error("Expected lead in mirror")
	}
}

func TestCaptureLeadValidation(t *testing.T) {
	service, _, _, _, _ := setupService()

	_, err := service.CaptureLead(context.Background(), models.LeadRequest{Phone: "11999998888"})
	var verr *checkout.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError for missing email, got %v", err)
	}

	_, err = service.CaptureLead(context.Background(), models.LeadRequest{Email: "lead@example.com"})
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError for missing phone, got %v", err)
	}
}

func TestCaptureLeadPrimaryFailure(t *testing.T) {
	service, _, store, _, _ := setupService()
	store.shouldFailOn = "CreateLead"
	store.errorMsg = "db down"

	_, err := service.CaptureLead(context.Background(), models.LeadRequest{
		Email: "lead@example.com",
		Phone: "11999998888",
	})

	var perr *checkout.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected PersistenceError, got %v", err)
	}
}

func TestCaptureLeadMirrorFailureIsSwallowed(t *testing.T) {
	service, _, _, replica, _ := setupService()
	replica.shouldFailOn = "InsertLead"
	replica.errorMsg = "mirror down"

	resp, err := service.CaptureLead(context.Background(), models.LeadRequest{
		Email: "lead@example.com",
		Phone: "11999998888",
	})
	if err != nil {
		t.Fatalf("Expected no error when mirror fails, got %v", err)
	}
	assert.True(t, resp.Success)
}

func TestTicketQR(t *testing.T) {
	service, gateway, _, _, _ := setupService()

	if _, err := service.CreateIntent(context.Background(), validRequest()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	// Unpaid order is refused.
	_, err := service.TicketQR(context.Background(), "pi_test_1")
	if !errors.Is(err, checkout.ErrTicketNotPaid) {
		t.Fatalf("Expected ErrTicketNotPaid, got %v", err)
	}

	gateway.intents["pi_test_1"].Status = "succeeded"
	if _, err := service.Confirm(context.Background(), "pi_test_1"); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	png, err := service.TicketQR(context.Background(), "pi_test_1")
	if err != nil {
		t.Fatalf("Expected no error for paid order, got %v", err)
	}
	if len(png) == 0 {
		t.Error("Expected ticket bytes")
	}
}

func TestTicketQRUnknownOrder(t *testing.T) {
	service, _, _, _, _ := setupService()

	_, err := service.TicketQR(context.Background(), "pi_missing")
	if !errors.Is(err, checkout.ErrOrderNotFound) {
		t.Fatalf("Expected ErrOrderNotFound, got %v", err)
	}
}

func TestServiceWithoutMirrorAndEvents(t *testing.T) {
	gateway := NewMockGateway()
	store := NewMockOrderStore()
	log := logger.NewLogger()

	service := checkout.NewCheckoutService(
		gateway, store, nil, nil, &MockEncoder{},
		checkout.DefaultTiers(), "brl", log,
	)

	resp, err := service.CreateIntent(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Expected no error without mirror/events, got %v", err)
	}
	assert.NotEmpty(t, resp.ClientSecret)

	gateway.intents["pi_test_1"].Status = "succeeded"
	if _, err := service.Confirm(context.Background(), "pi_test_1"); err != nil {
		t.Fatalf("Confirm failed without mirror/events: %v", err)
	}
}
