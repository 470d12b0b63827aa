package entities

type ReservationRequest struct {
	SessionID    int    `json:"sessionId" validate:"required,gt=0"`
	Plate        string `json:"plate" validate:"required,min=5"`
	Date         string `json:"date" validate:"required"`
	StartTime    string `json:"startTime" validate:"required"`
	EndTime      string `json:"endTime" validate:"required"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
}

// ReservationBatchRequest books several one-hour windows on one session and
// date in a single all-or-nothing call.
type ReservationBatchRequest struct {
	SessionID    int      `json:"sessionId" validate:"required,gt=0"`
	Plate        string   `json:"plate" validate:"required,min=5"`
	Date         string   `json:"date" validate:"required"`
	StartTimes   []string `json:"startTimes" validate:"required,min=1,unique"`
	ContactEmail string   `json:"contactEmail" validate:"omitempty,email"`
}

type PlateVerificationRequest struct {
	Plate     string `json:"plate" validate:"required"`
	SessionID int    `json:"sessionId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type PlateMatchRequest struct {
	Plate     string `json:"plate" validate:"required"`
	Timestamp string `json:"timestamp" validate:"required"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
