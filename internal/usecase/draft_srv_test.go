package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/pkg/gateway"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var janeDoe = Contact{Name: "Jane Doe", Email: "jane@x.com", Phone: "08012345678"}

// submitHotel walks a hotel draft for 2025-06-01 to 2025-06-03 through every step.
func submitHotel(t *testing.T, env *testEnv, roomTypeID uuid.UUID, method entity.PaymentMethod) *SubmitResult {
	t.Helper()
	ctx := context.Background()

	st, err := env.svc.Draft.Create(ctx, entity.BookingKindHotel, roomTypeID, nil)
	require.NoError(t, err)
	id := st.Draft.ID

	_, err = env.svc.Draft.SetDates(ctx, id, DatesInput{
		CheckIn:  ptr(date(2025, 6, 1)),
		CheckOut: ptr(date(2025, 6, 3)),
		Guests:   2,
	})
	require.NoError(t, err)

	_, err = env.svc.Draft.SetContact(ctx, id, janeDoe)
	require.NoError(t, err)

	result, err := env.svc.Draft.Submit(ctx, id, method)
	require.NoError(t, err)
	return result
}

func TestDraftService_HotelCheckoutToConfirmation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC))
	rt, rooms := env.db.addRoomType(50000, 2, "101")

	st, err := env.svc.Draft.Create(ctx, entity.BookingKindHotel, rt.ID, nil)
	require.NoError(t, err)
	id := st.Draft.ID

	st, err = env.svc.Draft.SetDates(ctx, id, DatesInput{
		CheckIn:  ptr(date(2025, 6, 1)),
		CheckOut: ptr(date(2025, 6, 3)),
		Guests:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 100000.0, st.Draft.Total)
	assert.Equal(t, StepContactDetails, st.Draft.Step)

	st, err = env.svc.Draft.SetContact(ctx, id, janeDoe)
	require.NoError(t, err)
	assert.Equal(t, StepPaymentMethod, st.Draft.Step)
	assert.Equal(t, []entity.PaymentMethod{entity.PaymentMethodCard, entity.PaymentMethodCrypto}, st.PaymentMethods)

	result, err := env.svc.Draft.Submit(ctx, id, entity.PaymentMethodCard)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.test/abc", result.RedirectURL)
	assert.Equal(t, 100000.0, result.Total)
	assert.True(t, strings.HasPrefix(result.Reference, "HOTEL_"+result.BookingID.String()+"_"))

	booking := env.db.bookingCommon(entity.BookingKindHotel, result.BookingID)
	assert.Equal(t, entity.BookingStatusPending, booking.BookingStatus)
	assert.Equal(t, entity.PaymentStatusPending, booking.PaymentStatus)
	assert.Equal(t, "jane@x.com", booking.GuestEmail)
	assert.Equal(t, entity.RoomStatusReserved, env.db.room(rooms[0].ID).Status)

	require.Len(t, env.card.inits, 1)
	assert.Equal(t, 100000.0, env.card.inits[0].Amount)
	assert.Contains(t, env.card.inits[0].CallbackURL, "reference="+result.Reference)
	assert.Equal(t, result.BookingID.String(), env.card.inits[0].Metadata["booking_id"])

	// a repeated submit hands back the recorded result
	again, err := env.svc.Draft.Submit(ctx, id, entity.PaymentMethodCard)
	require.NoError(t, err)
	assert.Equal(t, result, again)
	assert.Len(t, env.card.inits, 1)

	env.card.status = &gateway.StatusResult{Status: "success", Outcome: gateway.OutcomeSuccess, Terminal: true, Amount: 100000, Currency: "NGN"}

	verified, err := env.svc.Payment.Verify(ctx, result.Reference, entity.PaymentProviderPaystack)
	require.NoError(t, err)
	env.svc.Payment.Wait()

	assert.True(t, verified.Verified)
	assert.Equal(t, StateSuccess, verified.State)

	booking = env.db.bookingCommon(entity.BookingKindHotel, result.BookingID)
	assert.Equal(t, entity.BookingStatusConfirmed, booking.BookingStatus)
	assert.Equal(t, entity.PaymentStatusCompleted, booking.PaymentStatus)
	assert.Equal(t, entity.PaymentStatusCompleted, env.db.payment(result.Reference).Status)
	assert.Equal(t, 1, env.notifier.count())
	assert.Equal(t, result.Reference, env.notifier.sent[0].Reference)

	// the confirmed stay now blocks the room by date
	assert.Equal(t, entity.RoomStatusAvailable, env.db.room(rooms[0].ID).Status)
	avail, err := env.svc.Availability.AvailableRooms(ctx, rt.ID, Stay{CheckIn: date(2025, 6, 2), CheckOut: date(2025, 6, 4)})
	require.NoError(t, err)
	assert.Empty(t, avail.Rooms)

	avail, err = env.svc.Availability.AvailableRooms(ctx, rt.ID, Stay{CheckIn: date(2025, 6, 3), CheckOut: date(2025, 6, 4)})
	require.NoError(t, err)
	assert.Len(t, avail.Rooms, 1)
}

func TestDraftService_LastRoomGoesToFirstSubmit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC))
	rt, _ := env.db.addRoomType(50000, 2, "101")

	// both customers pass the dates step while the room is still free
	prepare := func() uuid.UUID {
		st, err := env.svc.Draft.Create(ctx, entity.BookingKindHotel, rt.ID, nil)
		require.NoError(t, err)
		_, err = env.svc.Draft.SetDates(ctx, st.Draft.ID, DatesInput{
			CheckIn:  ptr(date(2025, 6, 1)),
			CheckOut: ptr(date(2025, 6, 3)),
			Guests:   1,
		})
		require.NoError(t, err)
		_, err = env.svc.Draft.SetContact(ctx, st.Draft.ID, janeDoe)
		require.NoError(t, err)
		return st.Draft.ID
	}
	first, second := prepare(), prepare()

	_, err := env.svc.Draft.Submit(ctx, first, entity.PaymentMethodCard)
	require.NoError(t, err)

	_, err = env.svc.Draft.Submit(ctx, second, entity.PaymentMethodCard)
	assert.ErrorIs(t, err, ErrUnitNoLongerAvailable)

	// the failed draft is released, not stuck in flight
	st, err := env.svc.Draft.Get(ctx, second)
	require.NoError(t, err)
	assert.False(t, st.Draft.Submitting)
	assert.Equal(t, StepPaymentMethod, st.Draft.Step)
	assert.Len(t, env.card.inits, 1)
}

func TestDraftService_RoomClaimChecksOverlappingStays(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC))
	rt, rooms := env.db.addRoomType(50000, 2, "101")

	prepare := func(in, out time.Time) uuid.UUID {
		st, err := env.svc.Draft.Create(ctx, entity.BookingKindHotel, rt.ID, nil)
		require.NoError(t, err)
		_, err = env.svc.Draft.SetDates(ctx, st.Draft.ID, DatesInput{CheckIn: ptr(in), CheckOut: ptr(out), Guests: 1})
		require.NoError(t, err)
		_, err = env.svc.Draft.SetContact(ctx, st.Draft.ID, janeDoe)
		require.NoError(t, err)
		return st.Draft.ID
	}
	first := prepare(date(2025, 6, 1), date(2025, 6, 3))
	overlapping := prepare(date(2025, 6, 2), date(2025, 6, 4))
	adjacent := prepare(date(2025, 6, 3), date(2025, 6, 5))

	_, err := env.svc.Draft.Submit(ctx, first, entity.PaymentMethodCard)
	require.NoError(t, err)

	// the room row reads available again while the first stay is still held
	env.db.mu.Lock()
	room := env.db.rooms[rooms[0].ID]
	room.Status = entity.RoomStatusAvailable
	env.db.rooms[rooms[0].ID] = room
	env.db.mu.Unlock()

	_, err = env.svc.Draft.Submit(ctx, overlapping, entity.PaymentMethodCard)
	assert.ErrorIs(t, err, ErrUnitNoLongerAvailable)

	// check-out day is free for the next check-in
	result, err := env.svc.Draft.Submit(ctx, adjacent, entity.PaymentMethodCard)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPending, env.db.bookingCommon(entity.BookingKindHotel, result.BookingID).BookingStatus)
	assert.Len(t, env.db.hotelBookings(), 2)
}

func TestDraftService_RetryAfterGatewayFailureReusesBooking(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC))
	rt, _ := env.db.addRoomType(50000, 2, "101")

	st, err := env.svc.Draft.Create(ctx, entity.BookingKindHotel, rt.ID, nil)
	require.NoError(t, err)
	id := st.Draft.ID
	_, err = env.svc.Draft.SetDates(ctx, id, DatesInput{CheckIn: ptr(date(2025, 6, 1)), CheckOut: ptr(date(2025, 6, 2)), Guests: 1})
	require.NoError(t, err)
	_, err = env.svc.Draft.SetContact(ctx, id, janeDoe)
	require.NoError(t, err)

	env.card.initErr = errors.New("paystack: 503")
	_, err = env.svc.Draft.Submit(ctx, id, entity.PaymentMethodCard)
	require.ErrorIs(t, err, ErrPaymentInitFailed)

	require.Len(t, env.card.inits, 1)
	failedRef := env.card.inits[0].Reference
	assert.Equal(t, entity.PaymentStatusFailed, env.db.payment(failedRef).Status)

	env.card.initErr = nil
	env.clock.Advance(time.Second)

	result, err := env.svc.Draft.Submit(ctx, id, entity.PaymentMethodCard)
	require.NoError(t, err)
	assert.NotEqual(t, failedRef, result.Reference)

	env.db.mu.Lock()
	hotelBookings := len(env.db.hotel)
	env.db.mu.Unlock()
	assert.Equal(t, 1, hotelBookings)
}

// hotelBookings returns the stored hotel bookings.
func (db *memDB) hotelBookings() []entity.HotelBooking {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]entity.HotelBooking, 0, len(db.hotel))
	for _, b := range db.hotel {
		out = append(out, b)
	}
	return out
}

func TestDraftService_EditAfterFailedSubmitReservesAgain(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC))
	rt, rooms := env.db.addRoomType(50000, 2, "101")

	st, err := env.svc.Draft.Create(ctx, entity.BookingKindHotel, rt.ID, nil)
	require.NoError(t, err)
	id := st.Draft.ID
	_, err = env.svc.Draft.SetDates(ctx, id, DatesInput{CheckIn: ptr(date(2025, 6, 1)), CheckOut: ptr(date(2025, 6, 2)), Guests: 1})
	require.NoError(t, err)
	_, err = env.svc.Draft.SetContact(ctx, id, janeDoe)
	require.NoError(t, err)

	env.card.initErr = errors.New("paystack: 503")
	_, err = env.svc.Draft.Submit(ctx, id, entity.PaymentMethodCard)
	require.ErrorIs(t, err, ErrPaymentInitFailed)
	require.Len(t, env.db.hotelBookings(), 1)
	first := env.db.hotelBookings()[0]
	assert.Equal(t, entity.RoomStatusReserved, env.db.room(rooms[0].ID).Status)

	env.card.initErr = nil
	env.clock.Advance(time.Minute)

	_, err = env.svc.Draft.Back(ctx, id)
	require.NoError(t, err)
	_, err = env.svc.Draft.Back(ctx, id)
	require.NoError(t, err)

	// a five night stay; the only room must be free again for the quote
	st, err = env.svc.Draft.SetDates(ctx, id, DatesInput{CheckIn: ptr(date(2025, 6, 10)), CheckOut: ptr(date(2025, 6, 15)), Guests: 1})
	require.NoError(t, err)
	assert.Equal(t, 250000.0, st.Draft.Total)
	assert.Equal(t, 1, st.Draft.Attempt)
	assert.Nil(t, st.Draft.Reserved)
	assert.Equal(t, entity.BookingStatusCancelled, env.db.bookingCommon(entity.BookingKindHotel, first.ID).BookingStatus)

	_, err = env.svc.Draft.SetContact(ctx, id, janeDoe)
	require.NoError(t, err)

	result, err := env.svc.Draft.Submit(ctx, id, entity.PaymentMethodCard)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, result.BookingID)
	assert.Equal(t, 250000.0, result.Total)
	require.Len(t, env.card.inits, 2)
	assert.Equal(t, 250000.0, env.card.inits[1].Amount)
	assert.Equal(t, 250000.0, env.db.payment(result.Reference).Amount)

	var fresh entity.HotelBooking
	for _, b := range env.db.hotelBookings() {
		if b.ID == result.BookingID {
			fresh = b
		}
	}
	assert.Equal(t, date(2025, 6, 10), fresh.CheckIn)
	assert.Equal(t, date(2025, 6, 15), fresh.CheckOut)
	assert.Equal(t, id.String()+"-1", fresh.IdempotencyKey)
	assert.Len(t, env.db.hotelBookings(), 2)
	assert.Equal(t, entity.RoomStatusReserved, env.db.room(rooms[0].ID).Status)
}

func TestDraftService_RetryAfterHoldLapsedReservesAgain(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC))
	rt, rooms := env.db.addRoomType(50000, 2, "101")

	st, err := env.svc.Draft.Create(ctx, entity.BookingKindHotel, rt.ID, nil)
	require.NoError(t, err)
	id := st.Draft.ID
	_, err = env.svc.Draft.SetDates(ctx, id, DatesInput{CheckIn: ptr(date(2025, 6, 1)), CheckOut: ptr(date(2025, 6, 2)), Guests: 1})
	require.NoError(t, err)
	_, err = env.svc.Draft.SetContact(ctx, id, janeDoe)
	require.NoError(t, err)

	env.card.initErr = errors.New("paystack: 503")
	_, err = env.svc.Draft.Submit(ctx, id, entity.PaymentMethodCard)
	require.ErrorIs(t, err, ErrPaymentInitFailed)
	first := env.db.hotelBookings()[0]

	// the hold was taken long enough ago for the sweeper to drop it
	env.db.mu.Lock()
	env.db.commonLocked(entity.BookingKindHotel, first.ID, func(c *entity.BookingCommon) bool {
		c.CreatedAt = c.CreatedAt.Add(-31 * time.Minute)
		return true
	})
	env.db.mu.Unlock()

	n, err := env.svc.Expiry.SweepOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, entity.RoomStatusAvailable, env.db.room(rooms[0].ID).Status)

	env.card.initErr = nil
	result, err := env.svc.Draft.Submit(ctx, id, entity.PaymentMethodCard)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, result.BookingID)
	assert.Equal(t, entity.BookingStatusPending, env.db.bookingCommon(entity.BookingKindHotel, result.BookingID).BookingStatus)
	assert.Equal(t, entity.BookingStatusCancelled, env.db.bookingCommon(entity.BookingKindHotel, first.ID).BookingStatus)
	assert.Equal(t, entity.RoomStatusReserved, env.db.room(rooms[0].ID).Status)
	assert.Len(t, env.db.hotelBookings(), 2)

	st, err = env.svc.Draft.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Draft.Attempt)
}

func TestDraftService_PanicDuringSubmitReleasesDraft(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC))
	rt, _ := env.db.addRoomType(50000, 2, "101")

	st, err := env.svc.Draft.Create(ctx, entity.BookingKindHotel, rt.ID, nil)
	require.NoError(t, err)
	id := st.Draft.ID
	_, err = env.svc.Draft.SetDates(ctx, id, DatesInput{CheckIn: ptr(date(2025, 6, 1)), CheckOut: ptr(date(2025, 6, 2)), Guests: 1})
	require.NoError(t, err)
	_, err = env.svc.Draft.SetContact(ctx, id, janeDoe)
	require.NoError(t, err)

	env.card.initPanic = true
	require.Panics(t, func() {
		_, _ = env.svc.Draft.Submit(ctx, id, entity.PaymentMethodCard)
	})

	st, err = env.svc.Draft.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, st.Draft.Submitting)
	require.NotNil(t, st.Draft.Reserved)

	env.card.initPanic = false
	result, err := env.svc.Draft.Submit(ctx, id, entity.PaymentMethodCard)
	require.NoError(t, err)
	assert.Equal(t, st.Draft.Reserved.ID, result.BookingID)
	assert.Len(t, env.db.hotelBookings(), 1)
}

func TestDraftService_EventChecks(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(now)

	past := env.db.addEvent(10000, 50, 0, now.AddDate(0, 0, -1))
	nearlyFull := env.db.addEvent(10000, 50, 49, now.AddDate(0, 1, 0))

	st, err := env.svc.Draft.Create(ctx, entity.BookingKindEvent, past.ID, nil)
	require.NoError(t, err)
	_, err = env.svc.Draft.SetDates(ctx, st.Draft.ID, DatesInput{Quantity: 1})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "event_date")

	st, err = env.svc.Draft.Create(ctx, entity.BookingKindEvent, nearlyFull.ID, nil)
	require.NoError(t, err)
	_, err = env.svc.Draft.SetDates(ctx, st.Draft.ID, DatesInput{Quantity: 2})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Only 1 tickets left", vErr.Fields["quantity"])

	_, err = env.svc.Draft.Create(ctx, entity.BookingKindEvent, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestDraftService_GuestLimit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC))
	apt := env.db.addApartment(40000, 2)

	st, err := env.svc.Draft.Create(ctx, entity.BookingKindApartment, apt.ID, nil)
	require.NoError(t, err)

	_, err = env.svc.Draft.SetDates(ctx, st.Draft.ID, DatesInput{
		CheckIn:  ptr(date(2025, 6, 1)),
		CheckOut: ptr(date(2025, 6, 4)),
		Guests:   3,
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Maximum 2 guests for this apartment", vErr.Fields["guests"])

	st, err = env.svc.Draft.SetDates(ctx, st.Draft.ID, DatesInput{
		CheckIn:  ptr(date(2025, 6, 1)),
		CheckOut: ptr(date(2025, 6, 4)),
		Guests:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 120000.0, st.Draft.Total)
}
