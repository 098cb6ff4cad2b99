package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/careloop/clinic-booking/internal/apiclient"
	"github.com/careloop/clinic-booking/internal/appointments"
	"github.com/careloop/clinic-booking/pkg/logging"
)

// PatientService is the slice of the appointment service API the patient
// board consumes.
type PatientService interface {
	PatientAppointments(ctx context.Context) ([]appointments.Appointment, error)
	BookAppointment(ctx context.Context, req apiclient.BookingRequest) (*appointments.Appointment, error)
	CancelAppointment(ctx context.Context, appointmentID string) error
	HealthIndex(ctx context.Context, patientID string) ([]apiclient.HealthRecord, error)
}

// PatientView is an immutable snapshot of the patient board.
type PatientView struct {
	Appointments []appointments.Appointment
	HealthIndex  []apiclient.HealthRecord
	LastUpdated  time.Time
}

// PatientBoard reconciles the patient's chronological appointment list and
// recent intake history.
type PatientBoard struct {
	svc       PatientService
	patientID string
	logger    *logging.Logger
	metrics   *Metrics
	now       func() time.Time
	actions   *tracker

	mu          stdsync.Mutex
	issuedSeq   uint64
	appliedSeq  uint64
	refreshing  bool
	appts       []appointments.Appointment
	healthIndex []apiclient.HealthRecord
	lastUpdated time.Time
}

type PatientBoardConfig struct {
	Service   PatientService
	PatientID string
	Logger    *logging.Logger
	Metrics   *Metrics
	Now       func() time.Time
}

func NewPatientBoard(cfg PatientBoardConfig) (*PatientBoard, error) {
	if cfg.Service == nil {
		return nil, errors.New("sync: patient board requires a service")
	}
	if cfg.PatientID == "" {
		return nil, errors.New("sync: patient board requires a patient id")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &PatientBoard{
		svc:       cfg.Service,
		patientID: cfg.PatientID,
		logger:    logger,
		metrics:   cfg.Metrics,
		now:       now,
		actions:   newTracker(),
	}, nil
}

// Refresh fetches the patient's appointment list and applies it sorted
// ascending by slot time, discarding strictly-older superseded responses.
func (b *PatientBoard) Refresh(ctx context.Context) error {
	ctx, span := syncTracer.Start(ctx, "sync.patient.refresh")
	defer span.End()

	b.mu.Lock()
	b.issuedSeq++
	seq := b.issuedSeq
	b.refreshing = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.refreshing = false
		b.mu.Unlock()
	}()

	items, err := b.svc.PatientAppointments(ctx)
	if err != nil {
		span.RecordError(err)
		b.metrics.observeRefresh("patient", "error")
		return err
	}
	appointments.SortBySlot(items)

	b.mu.Lock()
	if seq <= b.appliedSeq {
		b.mu.Unlock()
		b.metrics.observeStale("patient")
		b.logger.Debug("discarding superseded refresh", "role", "patient", "seq", seq)
		return nil
	}
	b.appliedSeq = seq
	b.appts = items
	b.lastUpdated = b.now()
	b.mu.Unlock()

	b.metrics.observeRefresh("patient", "ok")
	span.SetAttributes(attribute.Int("sync.items", len(items)))
	return nil
}

// RefreshHealthIndex reloads the patient's recent intake records. Failures
// degrade to an empty panel rather than blocking the appointment list.
func (b *PatientBoard) RefreshHealthIndex(ctx context.Context) error {
	records, err := b.svc.HealthIndex(ctx, b.patientID)
	if err != nil {
		b.mu.Lock()
		b.healthIndex = nil
		b.mu.Unlock()
		return err
	}
	b.mu.Lock()
	b.healthIndex = records
	b.mu.Unlock()
	return nil
}

// Book submits a validated intake for the chosen doctor and slot, then
// re-fetches the canonical list and health index. The (doctor, slot) pair
// is the in-flight guard key, so double-submitting the same slot is
// rejected until the first attempt resolves.
func (b *PatientBoard) Book(ctx context.Context, req apiclient.BookingRequest) (*appointments.Appointment, error) {
	key := "book:" + req.DoctorID + ":" + req.SlotISO
	if !b.actions.begin(key) {
		return nil, ErrActionInFlight
	}
	defer b.actions.end(key)

	ctx, span := syncTracer.Start(ctx, "sync.patient.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("sync.doctor_id", req.DoctorID),
		attribute.String("sync.slot", req.SlotISO),
	)

	appt, err := b.svc.BookAppointment(ctx, req)
	if err != nil {
		span.RecordError(err)
		b.metrics.observeAction("book", "error")
		return nil, err
	}
	b.metrics.observeAction("book", "ok")
	b.logger.Info("appointment requested", "appointment_id", appt.AppointmentID, "slot", req.SlotISO)

	if err := b.Refresh(ctx); err != nil {
		return appt, err
	}
	if err := b.RefreshHealthIndex(ctx); err != nil {
		b.logger.Warn("health index refresh failed", "error", err)
	}
	return appt, nil
}

// Cancel requests cancellation of one appointment, then re-fetches.
func (b *PatientBoard) Cancel(ctx context.Context, appointmentID string) error {
	if !b.actions.begin(appointmentID) {
		return ErrActionInFlight
	}
	defer b.actions.end(appointmentID)

	ctx, span := syncTracer.Start(ctx, "sync.patient.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("sync.appointment_id", appointmentID))

	if err := b.svc.CancelAppointment(ctx, appointmentID); err != nil {
		span.RecordError(err)
		b.metrics.observeAction("cancel", "error")
		return err
	}
	b.metrics.observeAction("cancel", "ok")
	return b.Refresh(ctx)
}

// Refreshing reports whether a list fetch is outstanding.
func (b *PatientBoard) Refreshing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshing
}

// ActionInFlight reports whether an action for the appointment is pending.
func (b *PatientBoard) ActionInFlight(appointmentID string) bool {
	return b.actions.busy(appointmentID)
}

// Snapshot returns a copy of the current view.
func (b *PatientBoard) Snapshot() PatientView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return PatientView{
		Appointments: append([]appointments.Appointment(nil), b.appts...),
		HealthIndex:  append([]apiclient.HealthRecord(nil), b.healthIndex...),
		LastUpdated:  b.lastUpdated,
	}
}
