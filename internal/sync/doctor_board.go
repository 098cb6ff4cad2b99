// Package sync keeps each role's view of the shared appointment list
// consistent with the remote service. Consistency is polling-based: both
// roles independently re-fetch the server-authoritative list, and the
// client never flips an appointment status locally.
package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/careloop/clinic-booking/internal/apiclient"
	"github.com/careloop/clinic-booking/internal/appointments"
	"github.com/careloop/clinic-booking/pkg/logging"
)

var syncTracer = otel.Tracer("clinicbooking.internal.sync")

// ErrUnknownAppointment is returned when a selection targets an appointment
// that is not in the current view.
var ErrUnknownAppointment = errors.New("sync: appointment not in current view")

// DoctorService is the slice of the appointment service API the doctor
// board consumes.
type DoctorService interface {
	DoctorAppointments(ctx context.Context) ([]appointments.Appointment, error)
	ConfirmAppointment(ctx context.Context, appointmentID string) error
	DeclineAppointment(ctx context.Context, appointmentID string) error
	CancelAppointment(ctx context.Context, appointmentID string) error
	HealthSummary(ctx context.Context, patientID, appointmentID string) ([]apiclient.HealthRecord, error)
}

// DoctorView is an immutable snapshot of the doctor board for rendering.
type DoctorView struct {
	Pending     []appointments.Appointment
	Confirmed   []appointments.Appointment
	LastUpdated time.Time
	SelectedID  string
	Summary     []apiclient.HealthRecord
}

// DoctorBoard reconciles the doctor's triage view: pending requests,
// confirmed schedule, and the selected appointment's health summary.
type DoctorBoard struct {
	svc     DoctorService
	logger  *logging.Logger
	metrics *Metrics
	now     func() time.Time
	actions *tracker

	mu stdsync.Mutex
	// issuedSeq/appliedSeq order concurrent fetches by issuance: a response
	// may only be applied while no later-issued response has been, so
	// out-of-order arrivals are discarded rather than overwriting newer
	// state.
	issuedSeq   uint64
	appliedSeq  uint64
	refreshing  bool
	pending     []appointments.Appointment
	confirmed   []appointments.Appointment
	lastUpdated time.Time
	selectedID  string
	summary     []apiclient.HealthRecord
}

type DoctorBoardConfig struct {
	Service DoctorService
	Logger  *logging.Logger
	Metrics *Metrics
	Now     func() time.Time
}

func NewDoctorBoard(cfg DoctorBoardConfig) (*DoctorBoard, error) {
	if cfg.Service == nil {
		return nil, errors.New("sync: doctor board requires a service")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &DoctorBoard{
		svc:     cfg.Service,
		logger:  logger,
		metrics: cfg.Metrics,
		now:     now,
		actions: newTracker(),
	}, nil
}

// Refresh fetches the full doctor appointment list and reconciles the
// buckets. Strictly-older responses arriving after a newer one has been
// applied are discarded. When the selected appointment disappears from the
// list the selection is cleared silently and the summary emptied.
func (b *DoctorBoard) Refresh(ctx context.Context) error {
	ctx, span := syncTracer.Start(ctx, "sync.doctor.refresh")
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

	items, err := b.svc.DoctorAppointments(ctx)
	if err != nil {
		span.RecordError(err)
		b.metrics.observeRefresh("doctor", "error")
		return err
	}

	b.mu.Lock()
	if seq <= b.appliedSeq {
		b.mu.Unlock()
		b.metrics.observeStale("doctor")
		b.logger.Debug("discarding superseded refresh", "role", "doctor", "seq", seq)
		return nil
	}
	b.appliedSeq = seq
	b.pending, b.confirmed = appointments.Partition(items)
	b.lastUpdated = b.now()

	selected := b.selectedID
	if selected != "" && findAppointment(items, selected) == nil {
		// The selection vanished from the canonical list (cancelled or
		// reassigned). Reconcile silently to an empty selection.
		b.selectedID = ""
		b.summary = nil
		selected = ""
	}
	b.mu.Unlock()

	b.metrics.observeRefresh("doctor", "ok")
	span.SetAttributes(attribute.Int("sync.items", len(items)))

	if selected != "" {
		if err := b.loadSummary(ctx, selected); err != nil {
			// The list itself refreshed fine; keep the previous summary.
			b.logger.Warn("health summary refresh failed", "appointment_id", selected, "error", err)
		}
	}
	return nil
}

// Select marks one appointment for detail viewing and loads its patient
// health summary.
func (b *DoctorBoard) Select(ctx context.Context, appointmentID string) error {
	b.mu.Lock()
	appt := findAppointment(append(b.pending[:len(b.pending):len(b.pending)], b.confirmed...), appointmentID)
	if appt == nil {
		b.mu.Unlock()
		return ErrUnknownAppointment
	}
	b.selectedID = appointmentID
	b.mu.Unlock()

	return b.loadSummary(ctx, appointmentID)
}

func (b *DoctorBoard) loadSummary(ctx context.Context, appointmentID string) error {
	b.mu.Lock()
	appt := findAppointment(append(b.pending[:len(b.pending):len(b.pending)], b.confirmed...), appointmentID)
	b.mu.Unlock()
	if appt == nil {
		return ErrUnknownAppointment
	}

	records, err := b.svc.HealthSummary(ctx, appt.PatientID, appointmentID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.selectedID != appointmentID {
		// Selection changed while the summary was in flight.
		return nil
	}
	b.summary = records
	return nil
}

// Confirm requests the pending -> confirmed transition, then re-fetches the
// canonical list.
func (b *DoctorBoard) Confirm(ctx context.Context, appointmentID string) error {
	return b.act(ctx, appointmentID, appointments.ActionConfirm, b.svc.ConfirmAppointment)
}

// Decline requests the pending -> declined transition, then re-fetches.
func (b *DoctorBoard) Decline(ctx context.Context, appointmentID string) error {
	return b.act(ctx, appointmentID, appointments.ActionDecline, b.svc.DeclineAppointment)
}

// Cancel requests cancellation, then re-fetches.
func (b *DoctorBoard) Cancel(ctx context.Context, appointmentID string) error {
	return b.act(ctx, appointmentID, appointments.ActionCancel, b.svc.CancelAppointment)
}

func (b *DoctorBoard) act(ctx context.Context, appointmentID string, action appointments.Action, request func(context.Context, string) error) error {
	if !b.actions.begin(appointmentID) {
		return ErrActionInFlight
	}
	defer b.actions.end(appointmentID)

	ctx, span := syncTracer.Start(ctx, "sync.doctor."+string(action))
	defer span.End()
	span.SetAttributes(attribute.String("sync.appointment_id", appointmentID))

	if err := request(ctx, appointmentID); err != nil {
		span.RecordError(err)
		b.metrics.observeAction(string(action), "error")
		return err
	}
	b.metrics.observeAction(string(action), "ok")
	b.logger.Info("appointment action applied", "action", action, "appointment_id", appointmentID)

	// Never flip status locally: pick up the server-authoritative state,
	// including effects of concurrent patient actions.
	return b.Refresh(ctx)
}

// Refreshing reports whether a list fetch is outstanding, for "refreshing"
// hints in renderers and for poll coalescing checks.
func (b *DoctorBoard) Refreshing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshing
}

// ActionInFlight reports whether an action for the appointment is pending,
// so renderers can keep the triggering control disabled.
func (b *DoctorBoard) ActionInFlight(appointmentID string) bool {
	return b.actions.busy(appointmentID)
}

// Snapshot returns a copy of the current view.
func (b *DoctorBoard) Snapshot() DoctorView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return DoctorView{
		Pending:     append([]appointments.Appointment(nil), b.pending...),
		Confirmed:   append([]appointments.Appointment(nil), b.confirmed...),
		LastUpdated: b.lastUpdated,
		SelectedID:  b.selectedID,
		Summary:     append([]apiclient.HealthRecord(nil), b.summary...),
	}
}

func findAppointment(appts []appointments.Appointment, id string) *appointments.Appointment {
	for i := range appts {
		if appts[i].AppointmentID == id {
			return &appts[i]
		}
	}
	return nil
}
