// Package appointments holds the shared appointment domain model: the
// status machine, the wire types both roles exchange with the remote
// service, and the pure partitioning helpers the views are built from.
package appointments

import (
	"sort"
	"strings"
	"time"
)

// Status is the server-authoritative lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
)

// Action is a requested status transition.
type Action string

const (
	ActionConfirm Action = "confirm"
	ActionDecline Action = "decline"
	ActionCancel  Action = "cancel"
)

// CanTransition reports whether an action is legal from the given status.
// Confirm and decline apply to pending appointments only; cancel applies to
// pending and confirmed ones. Declined and cancelled are terminal.
func CanTransition(from Status, action Action) bool {
	switch action {
	case ActionConfirm, ActionDecline:
		return from == StatusPending
	case ActionCancel:
		return from == StatusPending || from == StatusConfirmed
	default:
		return false
	}
}

// Terminal reports whether no further transition can apply.
func Terminal(s Status) bool {
	return s == StatusDeclined || s == StatusCancelled
}

// Applied returns the status an action produces.
func (a Action) Applied() Status {
	switch a {
	case ActionConfirm:
		return StatusConfirmed
	case ActionDecline:
		return StatusDeclined
	case ActionCancel:
		return StatusCancelled
	default:
		return ""
	}
}

// VitalsSummary is the subset of intake vitals the service attaches to an
// appointment. A missing or malformed summary decodes to the zero value and
// renders as "Not provided" rather than failing.
type VitalsSummary struct {
	Allergies []string `json:"allergies,omitempty"`
	BMI       float64  `json:"bmi,omitempty"`
}

// AllergiesLine renders the allergy list for display.
func (v VitalsSummary) AllergiesLine() string {
	if len(v.Allergies) == 0 {
		return "Not provided"
	}
	return strings.Join(v.Allergies, ", ")
}

// Appointment is the shared record both roles poll. Status is mutated only
// by the remote service.
type Appointment struct {
	AppointmentID        string        `json:"appointmentId"`
	PatientID            string        `json:"patientId"`
	DoctorID             string        `json:"doctorId"`
	SlotISO              string        `json:"slotISO"`
	ChiefComplaint       string        `json:"chiefComplaint"`
	RecommendedSpecialty string        `json:"recommendedSpecialty"`
	VitalsSummary        VitalsSummary `json:"vitalsSummary,omitempty"`
	Status               Status        `json:"status"`
}

// DoctorProfile is a doctor's published directory entry. AvailSlots is
// append-only published availability; clients filter but never write it.
type DoctorProfile struct {
	Specialty  string   `json:"specialty"`
	City       string   `json:"city"`
	Languages  []string `json:"languages"`
	AvailSlots []string `json:"availSlots"`
}

// DoctorRecord is one searchable doctor.
type DoctorRecord struct {
	UserID    string        `json:"userId"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Profile   DoctorProfile `json:"doctorProfile"`
}

// FullName joins the name parts, falling back to "Doctor" when both are
// blank.
func (d DoctorRecord) FullName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{d.FirstName, d.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Doctor"
	}
	return strings.Join(parts, " ")
}

// Partition splits a list into the doctor view's buckets.
func Partition(appts []Appointment) (pending, confirmed []Appointment) {
	for _, a := range appts {
		switch a.Status {
		case StatusPending:
			pending = append(pending, a)
		case StatusConfirmed:
			confirmed = append(confirmed, a)
		}
	}
	return pending, confirmed
}

// SortBySlot orders appointments ascending by slot time for the patient
// view. Unparseable slots sort by their raw string, which keeps the sort
// stable instead of failing.
func SortBySlot(appts []Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		ti, erri := time.Parse(time.RFC3339, appts[i].SlotISO)
		tj, errj := time.Parse(time.RFC3339, appts[j].SlotISO)
		if erri != nil || errj != nil {
			return appts[i].SlotISO < appts[j].SlotISO
		}
		return ti.Before(tj)
	})
}

// FutureSlots filters published slots to those strictly after now,
// preserving published order and capping the result at max. A max of zero
// or less means no cap.
func FutureSlots(slots []string, now time.Time, max int) []string {
	var out []string
	for _, s := range slots {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			continue
		}
		if !ts.After(now) {
			continue
		}
		out = append(out, s)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
