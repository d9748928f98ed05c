package adaptor

import (
	"net/http"
	"time"

	"marketplace-booking/internal/dto/request"
	"marketplace-booking/internal/dto/response"
	"marketplace-booking/internal/usecase"
	"marketplace-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AvailabilityHandler struct {
	service usecase.AvailabilityService
	loc     *time.Location
	log     *zap.Logger
}

func NewAvailabilityHandler(service usecase.AvailabilityService, loc *time.Location, log *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		loc:     loc,
		log:     log.With(zap.String("handler", "availability")),
	}
}

// Rooms handles GET /api/availability/rooms
func (h *AvailabilityHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := request.RoomAvailabilityRequest{
		RoomTypeID: query.Get("room_type_id"),
		CheckIn:    query.Get("check_in"),
		CheckOut:   query.Get("check_out"),
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	stay, ok := h.stay(w, req.CheckIn, req.CheckOut)
	if !ok {
		return
	}

	avail, err := h.service.AvailableRooms(r.Context(), uuid.MustParse(req.RoomTypeID), stay)
	if err != nil {
		respondServiceError(w, h.log, err, "check room availability")
		return
	}

	rooms := make([]response.RoomResponse, len(avail.Rooms))
	for i, room := range avail.Rooms {
		rooms[i] = response.RoomToResponse(room)
	}
	nights := stay.Nights()

	utils.ResponseSuccess(w, "success", response.RoomAvailabilityResponse{
		RoomTypeID:     avail.RoomType.ID.String(),
		RoomTypeName:   avail.RoomType.Name,
		HotelName:      avail.RoomType.HotelName,
		CheckIn:        req.CheckIn,
		CheckOut:       req.CheckOut,
		Nights:         nights,
		PricePerNight:  avail.RoomType.BasePrice,
		TotalPrice:     avail.RoomType.BasePrice * float64(nights),
		AvailableCount: len(rooms),
		Rooms:          rooms,
	})
}

// Apartment handles GET /api/availability/apartments/{id}
func (h *AvailabilityHandler) Apartment(w http.ResponseWriter, r *http.Request) {
	apartmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid apartment ID", nil)
		return
	}

	query := r.URL.Query()
	req := request.ApartmentAvailabilityRequest{
		CheckIn:  query.Get("check_in"),
		CheckOut: query.Get("check_out"),
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	stay, ok := h.stay(w, req.CheckIn, req.CheckOut)
	if !ok {
		return
	}

	avail, err := h.service.ApartmentAvailable(r.Context(), apartmentID, stay)
	if err != nil {
		respondServiceError(w, h.log, err, "check apartment availability")
		return
	}

	nights := stay.Nights()
	utils.ResponseSuccess(w, "success", response.ApartmentAvailabilityResponse{
		ApartmentID:   avail.Apartment.ID.String(),
		Name:          avail.Apartment.Name,
		City:          avail.Apartment.City,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		Nights:        nights,
		PricePerNight: avail.Apartment.PricePerNight,
		TotalPrice:    avail.Apartment.PricePerNight * float64(nights),
		MaxGuests:     avail.Apartment.MaxGuests,
		Available:     avail.Available,
	})
}

// Event handles GET /api/availability/events/{id}
func (h *AvailabilityHandler) Event(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid event ID", nil)
		return
	}

	req := request.EventAvailabilityRequest{
		Quantity: utils.ParseInt(r.URL.Query().Get("quantity"), 1),
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	avail, err := h.service.EventTicketsAvailable(r.Context(), eventID, req.Quantity)
	if err != nil {
		respondServiceError(w, h.log, err, "check event availability")
		return
	}

	utils.ResponseSuccess(w, "success", response.EventAvailabilityResponse{
		EventID:     avail.Event.ID.String(),
		Title:       avail.Event.Title,
		Venue:       avail.Event.Venue,
		EventDate:   avail.Event.EventDate.Format(utils.DateLayout),
		TicketPrice: avail.Event.TicketPrice,
		Quantity:    avail.Quantity,
		Remaining:   avail.Remaining,
		Available:   avail.Available,
	})
}

func (h *AvailabilityHandler) stay(w http.ResponseWriter, checkIn, checkOut string) (usecase.Stay, bool) {
	in, err := utils.ParseDate(checkIn, h.loc)
	if err != nil {
		utils.ResponseBadRequest(w, "Validation failed", map[string]string{"check_in": "Must be a date in 2006-01-02 format"})
		return usecase.Stay{}, false
	}
	out, err := utils.ParseDate(checkOut, h.loc)
	if err != nil {
		utils.ResponseBadRequest(w, "Validation failed", map[string]string{"check_out": "Must be a date in 2006-01-02 format"})
		return usecase.Stay{}, false
	}
	return usecase.Stay{CheckIn: in, CheckOut: out}, true
}
