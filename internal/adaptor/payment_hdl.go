package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/dto/request"
	"marketplace-booking/internal/dto/response"
	"marketplace-booking/internal/usecase"
	"marketplace-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// Verify handles POST /api/payments/verify
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	h.verify(w, r, req.Reference, req.Provider)
}

// Callback handles GET /api/payments/callback, the provider return URL
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	reference := query.Get("reference")
	if reference == "" {
		reference = query.Get("trxref")
	}

	h.verify(w, r, reference, query.Get("provider"))
}

func (h *PaymentHandler) verify(w http.ResponseWriter, r *http.Request, reference, provider string) {
	if provider == "" {
		provider = string(entity.PaymentProviderPaystack)
	}

	result, err := h.service.Verify(r.Context(), reference, entity.PaymentProvider(provider))
	if err != nil {
		respondServiceError(w, h.log, err, "verify payment")
		return
	}

	utils.ResponseSuccess(w, result.Message, response.VerificationResponse{
		Verified: result.Verified,
		State:    string(result.State),
		Payment:  response.PaymentToResponse(result.Payment),
		Message:  result.Message,
	})
}

// PaystackWebhook handles POST /api/payments/webhook/paystack
func (h *PaymentHandler) PaystackWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	err = h.service.HandlePaystackWebhook(r.Context(), body, r.Header.Get("X-Paystack-Signature"))
	if err != nil {
		respondServiceError(w, h.log, err, "handle paystack webhook")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// SendConfirmation handles POST /api/notifications/confirmation
func (h *PaymentHandler) SendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req request.ConfirmationEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	sent, err := h.service.SendConfirmation(r.Context(), entity.BookingKind(req.BookingType), uuid.MustParse(req.BookingID))
	if err != nil {
		if errors.Is(err, usecase.ErrBookingNotFound) {
			utils.ResponseNotFound(w, "Booking not found")
			return
		}
		h.log.Error("Failed to send confirmation email",
			zap.Error(err),
			zap.String("booking_id", req.BookingID))
		utils.ResponseBadGateway(w, "Email service unavailable")
		return
	}

	utils.ResponseSuccess(w, "success", response.ConfirmationEmailResponse{Sent: sent})
}
