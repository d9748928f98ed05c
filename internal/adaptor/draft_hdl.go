package adaptor

import (
	"encoding/json"
	"net/http"
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/dto/request"
	"marketplace-booking/internal/dto/response"
	"marketplace-booking/internal/usecase"
	"marketplace-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DraftHandler struct {
	service usecase.DraftService
	loc     *time.Location
	log     *zap.Logger
}

func NewDraftHandler(service usecase.DraftService, loc *time.Location, log *zap.Logger) *DraftHandler {
	return &DraftHandler{
		service: service,
		loc:     loc,
		log:     log.With(zap.String("handler", "draft")),
	}
}

// Create handles POST /api/drafts (guest or authenticated)
func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	state, err := h.service.Create(r.Context(), entity.BookingKind(req.Kind), uuid.MustParse(req.ResourceID), utils.UserIDPtr(r.Context()))
	if err != nil {
		respondServiceError(w, h.log, err, "create draft")
		return
	}

	utils.ResponseCreated(w, "success", draftToResponse(state))
}

// Get handles GET /api/drafts/{id}
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	state, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log, err, "get draft")
		return
	}

	utils.ResponseSuccess(w, "success", draftToResponse(state))
}

// SetDates handles PUT /api/drafts/{id}/dates
func (h *DraftHandler) SetDates(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	var req request.DraftDatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseUnprocessable(w, "Validation failed", validationErrors)
		return
	}

	checkIn, err := parseDateParam(req.CheckIn, h.loc)
	if err != nil {
		utils.ResponseUnprocessable(w, "Validation failed", map[string]string{"check_in": "Must be a date in 2006-01-02 format"})
		return
	}
	checkOut, err := parseDateParam(req.CheckOut, h.loc)
	if err != nil {
		utils.ResponseUnprocessable(w, "Validation failed", map[string]string{"check_out": "Must be a date in 2006-01-02 format"})
		return
	}

	state, err := h.service.SetDates(r.Context(), id, usecase.DatesInput{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   req.Guests,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondServiceError(w, h.log, err, "set draft dates")
		return
	}

	utils.ResponseSuccess(w, "success", draftToResponse(state))
}

// SetContact handles PUT /api/drafts/{id}/contact
func (h *DraftHandler) SetContact(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	var req request.DraftContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	state, err := h.service.SetContact(r.Context(), id, usecase.Contact{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		respondServiceError(w, h.log, err, "set draft contact")
		return
	}

	utils.ResponseSuccess(w, "success", draftToResponse(state))
}

// Back handles POST /api/drafts/{id}/back
func (h *DraftHandler) Back(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	state, err := h.service.Back(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log, err, "step back draft")
		return
	}

	utils.ResponseSuccess(w, "success", draftToResponse(state))
}

// Submit handles POST /api/drafts/{id}/submit
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := draftID(w, r)
	if !ok {
		return
	}

	var req request.SubmitDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseUnprocessable(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.Submit(r.Context(), id, entity.PaymentMethod(req.PaymentMethod))
	if err != nil {
		respondServiceError(w, h.log, err, "submit draft")
		return
	}

	utils.ResponseCreated(w, "success", submitToResponse(result))
}

func draftID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid draft ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func draftToResponse(state *usecase.DraftState) response.DraftResponse {
	d := state.Draft
	resp := response.DraftResponse{
		ID:             d.ID.String(),
		Kind:           d.Kind,
		ResourceID:     d.ResourceID.String(),
		Step:           string(d.Step),
		Guests:         d.Guests,
		Quantity:       d.Quantity,
		Total:          d.Total,
		PaymentMethods: state.PaymentMethods,
		ExpiresAt:      state.ExpiresAt,
	}
	if resp.PaymentMethods == nil {
		resp.PaymentMethods = []entity.PaymentMethod{}
	}
	if d.CheckIn != nil {
		resp.CheckIn = d.CheckIn.Format(utils.DateLayout)
	}
	if d.CheckOut != nil {
		resp.CheckOut = d.CheckOut.Format(utils.DateLayout)
	}
	if d.CheckIn != nil && d.CheckOut != nil {
		resp.Nights = d.Stay().Nights()
	}
	if d.EventDate != nil {
		resp.EventDate = d.EventDate.Format(utils.DateLayout)
	}
	if d.Contact != (usecase.Contact{}) {
		resp.Contact = &response.ContactResponse{
			Name:  d.Contact.Name,
			Email: d.Contact.Email,
			Phone: d.Contact.Phone,
		}
	}
	if d.Result != nil {
		submitted := submitToResponse(d.Result)
		resp.Result = &submitted
	}
	return resp
}

func submitToResponse(result *usecase.SubmitResult) response.SubmitResponse {
	return response.SubmitResponse{
		BookingID:     result.BookingID.String(),
		Kind:          result.Kind,
		Reference:     result.Reference,
		RedirectURL:   result.RedirectURL,
		Total:         result.Total,
		PaymentMethod: result.PaymentMethod,
	}
}
