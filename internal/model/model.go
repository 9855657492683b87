package model

import "time"

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the stored statuses.
func (s Status) Valid() bool {
	return s == StatusBooked || s == StatusCompleted
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Appointment is a single reservation. Date is a civil date (YYYY-MM-DD)
// interpreted in the shop's time zone; Time is one of the slot strings.
type Appointment struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	Date        string    `json:"appointment_date"`
	Time        string    `json:"appointment_time"`
	BeardTrim   bool      `json:"beard_trim"`
	HairWash    bool      `json:"hair_wash"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ChangeOp string

const (
	ChangeInsert ChangeOp = "INSERT"
	ChangeUpdate ChangeOp = "UPDATE"
	ChangeDelete ChangeOp = "DELETE"
)

// Change is one mutation of the appointment set, as reported by the
// database trigger.
type Change struct {
	Op ChangeOp  `json:"op"`
	ID string    `json:"id"`
	At time.Time `json:"at"`
}
