package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/data/repository"
	"marketplace-booking/pkg/gateway"
	"marketplace-booking/pkg/notify"
	"marketplace-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock { return &fixedClock{now: now} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// inlineTx runs fn without a database; memDB serialises its own writes.
type inlineTx struct{ calls int }

func (t *inlineTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// memDB is an in-memory stand-in for every repository the usecases touch.
type memDB struct {
	mu sync.Mutex

	roomTypes  map[uuid.UUID]entity.RoomType
	rooms      map[uuid.UUID]entity.Room
	apartments map[uuid.UUID]entity.Apartment
	events     map[uuid.UUID]entity.Event

	hotel     map[uuid.UUID]entity.HotelBooking
	apartment map[uuid.UUID]entity.ApartmentBooking
	event     map[uuid.UUID]entity.EventBooking

	payments      map[uuid.UUID]entity.Payment
	notifications map[string]bool

	probes int
}

func newMemDB() *memDB {
	return &memDB{
		roomTypes:     map[uuid.UUID]entity.RoomType{},
		rooms:         map[uuid.UUID]entity.Room{},
		apartments:    map[uuid.UUID]entity.Apartment{},
		events:        map[uuid.UUID]entity.Event{},
		hotel:         map[uuid.UUID]entity.HotelBooking{},
		apartment:     map[uuid.UUID]entity.ApartmentBooking{},
		event:         map[uuid.UUID]entity.EventBooking{},
		payments:      map[uuid.UUID]entity.Payment{},
		notifications: map[string]bool{},
	}
}

func (db *memDB) repository() *repository.Repository {
	return &repository.Repository{
		RoomType:         fakeRoomTypes{db},
		Room:             fakeRooms{db},
		Apartment:        fakeApartments{db},
		Event:            fakeEvents{db},
		HotelBooking:     fakeHotelBookings{db},
		ApartmentBooking: fakeApartmentBookings{db},
		EventBooking:     fakeEventBookings{db},
		BookingIndex:     fakeBookingIndex{db},
		Payment:          fakePayments{db},
		Notification:     fakeNotifications{db},
	}
}

func (db *memDB) addRoomType(price float64, maxGuests int, roomNumbers ...string) (entity.RoomType, []entity.Room) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rt := entity.RoomType{
		Base:      entity.Base{ID: uuid.New()},
		HotelID:   uuid.New(),
		HotelName: "Eko Suites",
		Name:      "Deluxe",
		BasePrice: price,
		MaxGuests: maxGuests,
	}
	db.roomTypes[rt.ID] = rt

	var rooms []entity.Room
	for _, n := range roomNumbers {
		room := entity.Room{
			Base:       entity.Base{ID: uuid.New()},
			RoomTypeID: rt.ID,
			RoomNumber: n,
			Status:     entity.RoomStatusAvailable,
		}
		db.rooms[room.ID] = room
		rooms = append(rooms, room)
	}
	return rt, rooms
}

func (db *memDB) addApartment(price float64, maxGuests int) entity.Apartment {
	db.mu.Lock()
	defer db.mu.Unlock()

	apt := entity.Apartment{
		Base:          entity.Base{ID: uuid.New()},
		VendorID:      uuid.New(),
		Name:          "Lekki Loft",
		City:          "Lagos",
		PricePerNight: price,
		MaxGuests:     maxGuests,
		Status:        entity.ListingStatusActive,
	}
	db.apartments[apt.ID] = apt
	return apt
}

func (db *memDB) addEvent(price float64, capacity, sold int, date time.Time) entity.Event {
	db.mu.Lock()
	defer db.mu.Unlock()

	ev := entity.Event{
		Base:        entity.Base{ID: uuid.New()},
		VendorID:    uuid.New(),
		Title:       "Afrobeats Live",
		Venue:       "Eko Convention Centre",
		EventDate:   date,
		TicketPrice: price,
		Capacity:    capacity,
		TicketsSold: sold,
	}
	db.events[ev.ID] = ev
	return ev
}

func (db *memDB) room(id uuid.UUID) entity.Room {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.rooms[id]
}

func (db *memDB) eventRow(id uuid.UUID) entity.Event {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.events[id]
}

func (db *memDB) payment(reference string) entity.Payment {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, p := range db.payments {
		if p.Reference == reference {
			return p
		}
	}
	return entity.Payment{}
}

func (db *memDB) bookingCommon(kind entity.BookingKind, id uuid.UUID) entity.BookingCommon {
	db.mu.Lock()
	defer db.mu.Unlock()
	switch kind {
	case entity.BookingKindHotel:
		return db.hotel[id].BookingCommon
	case entity.BookingKindApartment:
		return db.apartment[id].BookingCommon
	}
	return db.event[id].BookingCommon
}

func (db *memDB) probeCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.probes
}

// commonLocked applies fn to the shared columns of a stored booking. Caller holds mu.
func (db *memDB) commonLocked(kind entity.BookingKind, id uuid.UUID, fn func(c *entity.BookingCommon) bool) bool {
	switch kind {
	case entity.BookingKindHotel:
		b, ok := db.hotel[id]
		if !ok || !fn(&b.BookingCommon) {
			return false
		}
		db.hotel[id] = b
	case entity.BookingKindApartment:
		b, ok := db.apartment[id]
		if !ok || !fn(&b.BookingCommon) {
			return false
		}
		db.apartment[id] = b
	case entity.BookingKindEvent:
		b, ok := db.event[id]
		if !ok || !fn(&b.BookingCommon) {
			return false
		}
		db.event[id] = b
	}
	return true
}

func (db *memDB) confirmIfPending(kind entity.BookingKind, id uuid.UUID) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.commonLocked(kind, id, func(c *entity.BookingCommon) bool {
		if c.BookingStatus != entity.BookingStatusPending {
			return false
		}
		c.BookingStatus = entity.BookingStatusConfirmed
		c.PaymentStatus = entity.PaymentStatusCompleted
		return true
	}), nil
}

func (db *memDB) updatePaymentStatus(kind entity.BookingKind, id uuid.UUID, status entity.PaymentStatus) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.commonLocked(kind, id, func(c *entity.BookingCommon) bool {
		c.PaymentStatus = status
		return true
	})
	return nil
}

func (db *memDB) cancelIfUnpaid(kind entity.BookingKind, id uuid.UUID) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.commonLocked(kind, id, func(c *entity.BookingCommon) bool {
		if c.BookingStatus != entity.BookingStatusPending || c.PaymentStatus == entity.PaymentStatusCompleted {
			return false
		}
		c.BookingStatus = entity.BookingStatusCancelled
		return true
	}), nil
}

func containsStatus(statuses []entity.BookingStatus, s entity.BookingStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && aOut.After(bIn)
}

type fakeRoomTypes struct{ db *memDB }

func (f fakeRoomTypes) FindByID(_ context.Context, id uuid.UUID) (*entity.RoomType, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	rt, ok := f.db.roomTypes[id]
	if !ok {
		return nil, nil
	}
	return &rt, nil
}

type fakeRooms struct{ db *memDB }

func (f fakeRooms) FindByID(_ context.Context, id uuid.UUID) (*entity.Room, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	room, ok := f.db.rooms[id]
	if !ok {
		return nil, nil
	}
	return &room, nil
}

func (f fakeRooms) FindByRoomType(_ context.Context, roomTypeID uuid.UUID) ([]*entity.Room, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	rooms := []*entity.Room{}
	for _, room := range f.db.rooms {
		if room.RoomTypeID == roomTypeID {
			r := room
			rooms = append(rooms, &r)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomNumber < rooms[j].RoomNumber })
	return rooms, nil
}

func (f fakeRooms) ReserveIfAvailable(_ context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, statuses []entity.BookingStatus) (bool, error) {
	f.db.mu.Lock()
	for _, b := range f.db.hotel {
		if b.RoomID == roomID && containsStatus(statuses, b.BookingStatus) && overlaps(checkIn, checkOut, b.CheckIn, b.CheckOut) {
			f.db.mu.Unlock()
			return false, nil
		}
	}
	f.db.mu.Unlock()
	return f.flip(roomID, entity.RoomStatusAvailable, entity.RoomStatusReserved), nil
}

func (f fakeRooms) Release(_ context.Context, roomID uuid.UUID) (bool, error) {
	return f.flip(roomID, entity.RoomStatusReserved, entity.RoomStatusAvailable), nil
}

func (f fakeRooms) flip(id uuid.UUID, from, to entity.RoomStatus) bool {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	room, ok := f.db.rooms[id]
	if !ok || room.Status != from {
		return false
	}
	room.Status = to
	f.db.rooms[id] = room
	return true
}

type fakeApartments struct{ db *memDB }

func (f fakeApartments) FindByID(_ context.Context, id uuid.UUID) (*entity.Apartment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	apt, ok := f.db.apartments[id]
	if !ok {
		return nil, nil
	}
	return &apt, nil
}

func (f fakeApartments) LockByID(ctx context.Context, id uuid.UUID) (*entity.Apartment, error) {
	return f.FindByID(ctx, id)
}

func (f fakeApartments) HasOverlap(_ context.Context, apartmentID uuid.UUID, checkIn, checkOut time.Time, statuses []entity.BookingStatus) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, b := range f.db.apartment {
		if b.ApartmentID == apartmentID && containsStatus(statuses, b.BookingStatus) &&
			overlaps(checkIn, checkOut, b.CheckIn, b.CheckOut) {
			return true, nil
		}
	}
	return false, nil
}

type fakeEvents struct{ db *memDB }

func (f fakeEvents) FindByID(_ context.Context, id uuid.UUID) (*entity.Event, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ev, ok := f.db.events[id]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

func (f fakeEvents) ClaimTickets(_ context.Context, eventID uuid.UUID, quantity int) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ev, ok := f.db.events[eventID]
	if !ok || ev.TicketsSold+quantity > ev.Capacity {
		return false, nil
	}
	ev.TicketsSold += quantity
	f.db.events[eventID] = ev
	return true, nil
}

func (f fakeEvents) ReleaseTickets(_ context.Context, eventID uuid.UUID, quantity int) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ev := f.db.events[eventID]
	ev.TicketsSold -= quantity
	if ev.TicketsSold < 0 {
		ev.TicketsSold = 0
	}
	f.db.events[eventID] = ev
	return nil
}

type fakeHotelBookings struct{ db *memDB }

func (f fakeHotelBookings) Create(_ context.Context, b *entity.HotelBooking) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.hotel[b.ID] = *b
	return nil
}

func (f fakeHotelBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.HotelBooking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.hotel[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (f fakeHotelBookings) FindByIdempotencyKey(_ context.Context, key string) (*entity.HotelBooking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, b := range f.db.hotel {
		if b.IdempotencyKey == key {
			return &b, nil
		}
	}
	return nil, nil
}

func (f fakeHotelBookings) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.HotelBooking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*entity.HotelBooking
	for _, b := range f.db.hotel {
		if b.UserID != nil && *b.UserID == userID {
			c := b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (f fakeHotelBookings) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	all, _ := f.FindByUserID(ctx, userID, 1000, 0)
	return int64(len(all)), nil
}

func (f fakeHotelBookings) FindUnpaidBefore(_ context.Context, before time.Time, limit int) ([]*entity.HotelBooking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*entity.HotelBooking
	for _, b := range f.db.hotel {
		if b.BookingStatus == entity.BookingStatusPending && b.PaymentStatus != entity.PaymentStatusCompleted && b.CreatedAt.Before(before) {
			c := b
			out = append(out, &c)
		}
	}
	return page(out, limit, 0), nil
}

func (f fakeHotelBookings) FindBookedRoomIDs(_ context.Context, roomTypeID uuid.UUID, checkIn, checkOut time.Time, statuses []entity.BookingStatus) ([]uuid.UUID, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.probes++
	var ids []uuid.UUID
	for _, b := range f.db.hotel {
		if b.RoomTypeID == roomTypeID && containsStatus(statuses, b.BookingStatus) &&
			overlaps(checkIn, checkOut, b.CheckIn, b.CheckOut) {
			ids = append(ids, b.RoomID)
		}
	}
	return ids, nil
}

func (f fakeHotelBookings) ConfirmIfPending(_ context.Context, id uuid.UUID) (bool, error) {
	return f.db.confirmIfPending(entity.BookingKindHotel, id)
}

func (f fakeHotelBookings) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status entity.PaymentStatus) error {
	return f.db.updatePaymentStatus(entity.BookingKindHotel, id, status)
}

func (f fakeHotelBookings) CancelIfUnpaid(_ context.Context, id uuid.UUID) (bool, error) {
	return f.db.cancelIfUnpaid(entity.BookingKindHotel, id)
}

type fakeApartmentBookings struct{ db *memDB }

func (f fakeApartmentBookings) Create(_ context.Context, b *entity.ApartmentBooking) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.apartment[b.ID] = *b
	return nil
}

func (f fakeApartmentBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.ApartmentBooking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.apartment[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (f fakeApartmentBookings) FindByIdempotencyKey(_ context.Context, key string) (*entity.ApartmentBooking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, b := range f.db.apartment {
		if b.IdempotencyKey == key {
			return &b, nil
		}
	}
	return nil, nil
}

func (f fakeApartmentBookings) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.ApartmentBooking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*entity.ApartmentBooking
	for _, b := range f.db.apartment {
		if b.UserID != nil && *b.UserID == userID {
			c := b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (f fakeApartmentBookings) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	all, _ := f.FindByUserID(ctx, userID, 1000, 0)
	return int64(len(all)), nil
}

func (f fakeApartmentBookings) FindUnpaidBefore(_ context.Context, before time.Time, limit int) ([]*entity.ApartmentBooking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*entity.ApartmentBooking
	for _, b := range f.db.apartment {
		if b.BookingStatus == entity.BookingStatusPending && b.PaymentStatus != entity.PaymentStatusCompleted && b.CreatedAt.Before(before) {
			c := b
			out = append(out, &c)
		}
	}
	return page(out, limit, 0), nil
}

func (f fakeApartmentBookings) ConfirmIfPending(_ context.Context, id uuid.UUID) (bool, error) {
	return f.db.confirmIfPending(entity.BookingKindApartment, id)
}

func (f fakeApartmentBookings) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status entity.PaymentStatus) error {
	return f.db.updatePaymentStatus(entity.BookingKindApartment, id, status)
}

func (f fakeApartmentBookings) CancelIfUnpaid(_ context.Context, id uuid.UUID) (bool, error) {
	return f.db.cancelIfUnpaid(entity.BookingKindApartment, id)
}

type fakeEventBookings struct{ db *memDB }

func (f fakeEventBookings) Create(_ context.Context, b *entity.EventBooking) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.event[b.ID] = *b
	return nil
}

func (f fakeEventBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.EventBooking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.event[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (f fakeEventBookings) FindByIdempotencyKey(_ context.Context, key string) (*entity.EventBooking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, b := range f.db.event {
		if b.IdempotencyKey == key {
			return &b, nil
		}
	}
	return nil, nil
}

func (f fakeEventBookings) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.EventBooking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*entity.EventBooking
	for _, b := range f.db.event {
		if b.UserID != nil && *b.UserID == userID {
			c := b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (f fakeEventBookings) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	all, _ := f.FindByUserID(ctx, userID, 1000, 0)
	return int64(len(all)), nil
}

func (f fakeEventBookings) FindUnpaidBefore(_ context.Context, before time.Time, limit int) ([]*entity.EventBooking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*entity.EventBooking
	for _, b := range f.db.event {
		if b.BookingStatus == entity.BookingStatusPending && b.PaymentStatus != entity.PaymentStatusCompleted && b.CreatedAt.Before(before) {
			c := b
			out = append(out, &c)
		}
	}
	return page(out, limit, 0), nil
}

func (f fakeEventBookings) ConfirmIfPending(_ context.Context, id uuid.UUID) (bool, error) {
	return f.db.confirmIfPending(entity.BookingKindEvent, id)
}

func (f fakeEventBookings) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status entity.PaymentStatus) error {
	return f.db.updatePaymentStatus(entity.BookingKindEvent, id, status)
}

func (f fakeEventBookings) CancelIfUnpaid(_ context.Context, id uuid.UUID) (bool, error) {
	return f.db.cancelIfUnpaid(entity.BookingKindEvent, id)
}

type fakeBookingIndex struct{ db *memDB }

func (f fakeBookingIndex) ResolveKind(_ context.Context, id uuid.UUID) (entity.BookingKind, bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.probes++
	if _, ok := f.db.event[id]; ok {
		return entity.BookingKindEvent, true, nil
	}
	if _, ok := f.db.hotel[id]; ok {
		return entity.BookingKindHotel, true, nil
	}
	if _, ok := f.db.apartment[id]; ok {
		return entity.BookingKindApartment, true, nil
	}
	return "", false, nil
}

func (f fakeBookingIndex) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]repository.BookingIndexEntry, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []repository.BookingIndexEntry
	add := func(c entity.BookingCommon, kind entity.BookingKind) {
		if c.UserID != nil && *c.UserID == userID {
			out = append(out, repository.BookingIndexEntry{ID: c.ID, Kind: kind, CreatedAt: c.CreatedAt})
		}
	}
	for _, b := range f.db.event {
		add(b.BookingCommon, entity.BookingKindEvent)
	}
	for _, b := range f.db.hotel {
		add(b.BookingCommon, entity.BookingKindHotel)
	}
	for _, b := range f.db.apartment {
		add(b.BookingCommon, entity.BookingKindApartment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (f fakeBookingIndex) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	all, _ := f.FindByUserID(ctx, userID, 1000, 0)
	return int64(len(all)), nil
}

type fakePayments struct{ db *memDB }

func (f fakePayments) Create(_ context.Context, p *entity.Payment) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.payments[p.ID] = *p
	return nil
}

func (f fakePayments) FindByReference(_ context.Context, reference string) (*entity.Payment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, p := range f.db.payments {
		if p.Reference == reference {
			return &p, nil
		}
	}
	return nil, nil
}

func (f fakePayments) FindLatestByBooking(_ context.Context, kind entity.BookingKind, bookingID uuid.UUID) (*entity.Payment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var latest *entity.Payment
	for _, p := range f.db.payments {
		if p.BookingKind == kind && p.BookingID() == bookingID {
			if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
				c := p
				latest = &c
			}
		}
	}
	return latest, nil
}

func (f fakePayments) SetProviderReference(_ context.Context, id uuid.UUID, ref string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p := f.db.payments[id]
	p.ProviderReference = &ref
	f.db.payments[id] = p
	return nil
}

func (f fakePayments) TransitionStatus(_ context.Context, id uuid.UUID, from []entity.PaymentStatus, to entity.PaymentStatus) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.payments[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if p.Status == s {
			p.Status = to
			f.db.payments[id] = p
			return true, nil
		}
	}
	return false, nil
}

type fakeNotifications struct{ db *memDB }

func (f fakeNotifications) Claim(_ context.Context, bookingID uuid.UUID, kind entity.NotificationKind) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	key := bookingID.String() + "/" + string(kind)
	if f.db.notifications[key] {
		return false, nil
	}
	f.db.notifications[key] = true
	return true, nil
}

func (f fakeNotifications) Release(_ context.Context, bookingID uuid.UUID, kind entity.NotificationKind) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	delete(f.db.notifications, bookingID.String()+"/"+string(kind))
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type fakeGateway struct {
	mu sync.Mutex

	redirectURL string
	providerRef string
	initErr     error
	initPanic   bool
	status      *gateway.StatusResult
	statusErr   error

	inits        []gateway.InitRequest
	statusChecks int
}

func (g *fakeGateway) Initialize(_ context.Context, req gateway.InitRequest) (*gateway.InitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inits = append(g.inits, req)
	if g.initPanic {
		panic("gateway client bug")
	}
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &gateway.InitResult{RedirectURL: g.redirectURL, ProviderReference: g.providerRef}, nil
}

func (g *fakeGateway) Status(_ context.Context, _, _ string) (*gateway.StatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusChecks++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	if g.status == nil {
		// nothing was paid against the reference yet
		return nil, gateway.ErrReferenceNotFound
	}
	st := *g.status
	return &st, nil
}

func (g *fakeGateway) setStatus(status string, outcome gateway.Outcome, terminal bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = &gateway.StatusResult{Status: status, Outcome: outcome, Terminal: terminal}
	g.statusErr = nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.ConfirmationMessage
	err  error
}

func (n *fakeNotifier) SendConfirmation(_ context.Context, msg notify.ConfirmationMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakeWebhook struct{ valid bool }

func (w fakeWebhook) VerifySignature(_ []byte, _ string) bool { return w.valid }

type testEnv struct {
	db       *memDB
	clock    *fixedClock
	tx       *inlineTx
	card     *fakeGateway
	crypto   *fakeGateway
	notifier *fakeNotifier
	drafts   DraftStore
	svc      *Service
}

func newTestEnv(now time.Time) *testEnv {
	env := &testEnv{
		db:       newMemDB(),
		clock:    newFixedClock(now),
		tx:       &inlineTx{},
		card:     &fakeGateway{redirectURL: "https://checkout.paystack.test/abc", providerRef: "ACC_1"},
		crypto:   &fakeGateway{redirectURL: "https://nowpayments.test/invoice/55", providerRef: "5501"},
		notifier: &fakeNotifier{},
		drafts:   NewMemoryDraftStore(30 * time.Minute),
	}

	config := &utils.Config{
		App: utils.AppConfig{TimeZone: "UTC"},
		Payment: utils.PaymentConfig{
			Currency:        "NGN",
			CallbackURL:     "https://shop.test/payment/callback",
			CryptoMinAmount: 50000,
		},
		Booking: utils.BookingConfig{
			HoldMinutes:          30,
			SweepIntervalSeconds: 60,
			DraftTTLMinutes:      30,
		},
	}

	env.svc = NewService(env.db.repository(), Dependencies{
		Tx: env.tx,
		Gateways: map[entity.PaymentProvider]gateway.Gateway{
			entity.PaymentProviderPaystack:    env.card,
			entity.PaymentProviderNowPayments: env.crypto,
		},
		Webhook:  fakeWebhook{valid: true},
		Notifier: env.notifier,
		Drafts:   env.drafts,
		Clock:    env.clock,
	}, config, zap.NewNop())

	return env
}
