package usecase

import (
	"context"
	"fmt"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/data/repository"
	"marketplace-booking/internal/dto/request"
	"marketplace-booking/internal/dto/response"
	"marketplace-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	// GetUserBookings lists a customer's bookings newest first, optionally restricted to one kind.
	GetUserBookings(ctx context.Context, userID string, req *request.UserBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)
}

type bookingService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewBookingService(repo *repository.Repository, log *zap.Logger) BookingService {
	return &bookingService{
		repo: repo,
		log:  log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID string, req *request.UserBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("User bookings validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	limit := req.Limit()
	offset := req.Offset()

	var (
		bookings []*entity.Booking
		total    int64
	)
	if req.Kind != "" {
		bookings, total, err = s.listByKind(ctx, entity.BookingKind(req.Kind), userUUID, limit, offset)
	} else {
		bookings, total, err = s.listAll(ctx, userUUID, limit, offset)
	}
	if err != nil {
		s.log.Error("Failed to get user bookings",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("kind", req.Kind),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage),
		)
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	bookingResponses := make([]response.BookingResponse, len(bookings))
	for i, b := range bookings {
		bookingResponses[i] = response.BookingToResponse(b)
	}

	s.log.Info("User bookings retrieved",
		zap.String("user_id", userID),
		zap.Int("count", len(bookings)),
		zap.Int64("total", total),
		zap.Int("page", req.Page),
		zap.Int("per_page", req.PerPage),
	)

	return response.NewPaginatedResponse(bookingResponses, req.Page, limit, total), nil
}

func (s *bookingService) listByKind(ctx context.Context, kind entity.BookingKind, userID uuid.UUID, limit, offset int) ([]*entity.Booking, int64, error) {
	var bookings []*entity.Booking

	switch kind {
	case entity.BookingKindHotel:
		rows, err := s.repo.HotelBooking.FindByUserID(ctx, userID, limit, offset)
		if err != nil {
			return nil, 0, err
		}
		for _, b := range rows {
			bookings = append(bookings, entity.NewHotelBookingVariant(b))
		}
	case entity.BookingKindApartment:
		rows, err := s.repo.ApartmentBooking.FindByUserID(ctx, userID, limit, offset)
		if err != nil {
			return nil, 0, err
		}
		for _, b := range rows {
			bookings = append(bookings, entity.NewApartmentBookingVariant(b))
		}
	case entity.BookingKindEvent:
		rows, err := s.repo.EventBooking.FindByUserID(ctx, userID, limit, offset)
		if err != nil {
			return nil, 0, err
		}
		for _, b := range rows {
			bookings = append(bookings, entity.NewEventBookingVariant(b))
		}
	default:
		return nil, 0, fmt.Errorf("unknown booking kind %q", kind)
	}

	var (
		total int64
		err   error
	)
	switch kind {
	case entity.BookingKindHotel:
		total, err = s.repo.HotelBooking.CountByUserID(ctx, userID)
	case entity.BookingKindApartment:
		total, err = s.repo.ApartmentBooking.CountByUserID(ctx, userID)
	case entity.BookingKindEvent:
		total, err = s.repo.EventBooking.CountByUserID(ctx, userID)
	}
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

func (s *bookingService) listAll(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, int64, error) {
	entries, err := s.repo.BookingIndex.FindByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	bookings := make([]*entity.Booking, 0, len(entries))
	for _, e := range entries {
		b, err := loadBooking(ctx, s.repo, e.Kind, e.ID)
		if err != nil {
			return nil, 0, err
		}
		if b != nil {
			bookings = append(bookings, b)
		}
	}

	total, err := s.repo.BookingIndex.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}
