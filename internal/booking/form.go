package booking

import (
	"strings"

	"barbershop-booking/internal/slots"
)

// Form is the booking widget state as a client holds it between calls. A
// slot goes through two steps before it is submittable: Pick holds it
// tentatively, Confirm commits it to Time. Servers only fill the committed
// fields and hand the form to Service.Submit.
type Form struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	BeardTrim   bool
	HairWash    bool

	// Website is the hidden honeypot field. People never fill it.
	Website string

	Date string
	Time string

	pending string
}

// SelectDate switches the form to date. Changing the date drops both the
// tentative and the confirmed slot.
func (f *Form) SelectDate(date string) {
	if date == f.Date {
		return
	}
	f.Date = date
	f.Time = ""
	f.pending = ""
}

// Pick tentatively selects s. Disabled slots cannot be picked.
func (f *Form) Pick(s slots.Slot) error {
	if !slots.Valid(s.Time) {
		return slots.ErrUnknownSlot
	}
	if s.Disabled {
		return ErrSlotUnavailable
	}
	f.pending = s.Time
	return nil
}

func (f *Form) Pending() string { return f.pending }

// Confirm moves the tentative slot into the submittable state.
func (f *Form) Confirm() error {
	if f.pending == "" {
		return ErrNoSlotPicked
	}
	f.Time = f.pending
	f.pending = ""
	return nil
}

// CancelPick discards the tentative slot and keeps the confirmed one.
func (f *Form) CancelPick() { f.pending = "" }

func (f *Form) Reset() { *f = Form{} }

// complete reports whether every required field is present.
func (f *Form) complete() bool {
	for _, v := range []string{f.FirstName, f.LastName, f.PhoneNumber, f.Date, f.Time} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
