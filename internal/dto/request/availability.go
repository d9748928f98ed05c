package request

type RoomAvailabilityRequest struct {
	RoomTypeID string `json:"room_type_id" validate:"required,uuid4"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

type ApartmentAvailabilityRequest struct {
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

type EventAvailabilityRequest struct {
	Quantity int `json:"quantity" validate:"min=1,max=100"`
}
