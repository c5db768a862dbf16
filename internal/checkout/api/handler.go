package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ela-checkout/internal/checkout"
	"ela-checkout/internal/logger"
	"ela-checkout/internal/models"

	"github.com/go-chi/chi/v5"
)

// CheckoutService is the surface the handlers drive.
type CheckoutService interface {
	CreateIntent(ctx context.Context, req models.IntentRequest) (*models.IntentResponse, error)
	Confirm(ctx context.Context, paymentIntentID string) (*models.ConfirmResponse, error)
	CaptureLead(ctx context.Context, req models.LeadRequest) (*models.LeadResponse, error)
	TicketQR(ctx context.Context, paymentIntentID string) ([]byte, error)
}

type Handler struct {
	Service CheckoutService
	Logger  *logger.Logger
}

func NewHandler(service CheckoutService, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// CreatePaymentIntent handles POST /api/v1/payment-intents.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req models.IntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreatePaymentIntent: failed to decode request body: %v", err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.CreateIntent(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreatePaymentIntent: %v", err))
		h.writeServiceError(w, err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("CreatePaymentIntent: intent %s created", resp.PaymentIntentID))
	h.writeJSON(w, http.StatusOK, resp)
}

// ConfirmPayment handles POST /api/v1/payment-intents/confirm.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req models.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ConfirmPayment: failed to decode request body: %v", err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Confirm(r.Context(), req.PaymentIntentID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ConfirmPayment: %v", err))
		h.writeServiceError(w, err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("ConfirmPayment: intent %s status=%s", req.PaymentIntentID, resp.PaymentStatus))
	h.writeJSON(w, http.StatusOK, resp)
}

// CaptureLead handles POST /api/v1/leads.
func (h *Handler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	var req models.LeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CaptureLead: failed to decode request body: %v", err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.CaptureLead(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CaptureLead: %v", err))
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// TicketQR handles GET /api/v1/orders/{paymentIntentId}/ticket.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	intentID := chi.URLParam(r, "paymentIntentId")

	png, err := h.Service.TicketQR(r.Context(), intentID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("TicketQR: %v", err))
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("TicketQR: failed to write response: %v", err))
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to encode response: %v", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Persistence errors never surface here on the write paths; the service
// swallows them so a paying customer is never blocked on a mirror write.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		h.writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	if errors.Is(err, checkout.ErrOrderNotFound) {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if errors.Is(err, checkout.ErrTicketNotPaid) {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.writeError(w, http.StatusInternalServerError, err.Error())
}
