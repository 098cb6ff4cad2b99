// Package directory finds bookable doctors for a completed intake: it
// scopes the search to the recommended specialty, applies optional city and
// language refinements, and partitions each doctor's published slots into
// the future-bookable subset.
package directory

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/careloop/clinic-booking/internal/apiclient"
	"github.com/careloop/clinic-booking/internal/appointments"
	"github.com/careloop/clinic-booking/internal/intake"
	"github.com/careloop/clinic-booking/pkg/logging"
)

// maxDisplaySlots caps how many future slots a doctor card shows.
const maxDisplaySlots = 12

var (
	// ErrIntakeRequired is returned when a search is attempted before an
	// intake has been assembled; the specialty scope comes from it.
	ErrIntakeRequired = errors.New("directory: complete the intake form before searching")

	// ErrUnknownSlot is returned when a slot selection does not match the
	// current listings.
	ErrUnknownSlot = errors.New("directory: slot not in current results")

	// ErrNoSelection is returned when a booking request is built without a
	// selected slot.
	ErrNoSelection = errors.New("directory: no slot selected")
)

// SearchService is the directory slice of the appointment service API.
type SearchService interface {
	SearchDoctors(ctx context.Context, q apiclient.DoctorQuery) ([]appointments.DoctorRecord, error)
}

// Filters are the optional refinements on top of the intake's specialty.
type Filters struct {
	City     string
	Language string
}

// Listing is one doctor search result with the bookable subset of its
// published slots, in published order.
type Listing struct {
	Doctor      appointments.DoctorRecord
	FutureSlots []string
}

// Selection is the slot a patient picked for booking.
type Selection struct {
	DoctorID string
	SlotISO  string
}

// Searcher holds the patient's search context: the assembled intake, the
// latest results, and the in-progress slot selection.
type Searcher struct {
	svc    SearchService
	logger *logging.Logger
	now    func() time.Time

	mu        stdsync.Mutex
	payload   *intake.Payload
	listings  []Listing
	selection Selection
	selected  bool
}

type SearcherConfig struct {
	Service SearchService
	Logger  *logging.Logger
	Now     func() time.Time
}

func NewSearcher(cfg SearcherConfig) (*Searcher, error) {
	if cfg.Service == nil {
		return nil, errors.New("directory: searcher requires a service")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Searcher{svc: cfg.Service, logger: logger, now: now}, nil
}

// SetIntake binds an assembled intake to the search context. It clears any
// previous results and selection, since the specialty scope may change.
func (s *Searcher) SetIntake(p *intake.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = p
	s.listings = nil
	s.clearSelectionLocked()
}

// Search queries the directory scoped to the intake's recommended
// specialty. Every search resets the in-progress slot selection, including
// re-filtering by city or language.
func (s *Searcher) Search(ctx context.Context, f Filters) ([]Listing, error) {
	s.mu.Lock()
	payload := s.payload
	s.mu.Unlock()
	if payload == nil {
		return nil, ErrIntakeRequired
	}

	records, err := s.svc.SearchDoctors(ctx, apiclient.DoctorQuery{
		Specialty: payload.RecommendedSpecialty,
		City:      f.City,
		Language:  f.Language,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	listings := make([]Listing, 0, len(records))
	for _, rec := range records {
		listings = append(listings, Listing{
			Doctor:      rec,
			FutureSlots: appointments.FutureSlots(rec.Profile.AvailSlots, now, maxDisplaySlots),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings = listings
	s.clearSelectionLocked()
	s.logger.Debug("doctor search applied", "specialty", payload.RecommendedSpecialty, "results", len(listings))
	return append([]Listing(nil), listings...), nil
}

// SelectSlot records the patient's slot choice. The slot must be one of the
// future slots in the current results.
func (s *Searcher) SelectSlot(doctorID, slotISO string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listings {
		if l.Doctor.UserID != doctorID {
			continue
		}
		for _, slot := range l.FutureSlots {
			if slot == slotISO {
				s.selection = Selection{DoctorID: doctorID, SlotISO: slotISO}
				s.selected = true
				return nil
			}
		}
	}
	return ErrUnknownSlot
}

// Selection returns the current slot choice, if any.
func (s *Searcher) Selection() (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection, s.selected
}

// BookingRequest composes the booking payload for the selected slot from
// the bound intake.
func (s *Searcher) BookingRequest() (apiclient.BookingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payload == nil {
		return apiclient.BookingRequest{}, ErrIntakeRequired
	}
	if !s.selected {
		return apiclient.BookingRequest{}, ErrNoSelection
	}
	return apiclient.BookingRequest{
		DoctorID:             s.selection.DoctorID,
		SlotISO:              s.selection.SlotISO,
		ChiefComplaint:       s.payload.ChiefComplaint,
		RecommendedSpecialty: s.payload.RecommendedSpecialty,
		Vitals:               s.payload.Vitals,
	}, nil
}

// ClearSelection resets the in-progress slot choice, e.g. after a booking
// resolves.
func (s *Searcher) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSelectionLocked()
}

func (s *Searcher) clearSelectionLocked() {
	s.selection = Selection{}
	s.selected = false
}
