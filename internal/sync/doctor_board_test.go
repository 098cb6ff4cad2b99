package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/clinic-booking/internal/apiclient"
	"github.com/careloop/clinic-booking/internal/appointments"
)

type fakeDoctorService struct {
	mu        stdsync.Mutex
	items     []appointments.Appointment
	listErr   error
	listCalls int

	confirmErr   error
	confirmCalls int
	declineCalls int
	cancelCalls  int
	confirmGate  chan struct{}

	summary      []apiclient.HealthRecord
	summaryErr   error
	summaryCalls int
}

func (f *fakeDoctorService) DoctorAppointments(ctx context.Context) ([]appointments.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]appointments.Appointment(nil), f.items...), f.listErr
}

func (f *fakeDoctorService) ConfirmAppointment(ctx context.Context, id string) error {
	if f.confirmGate != nil {
		<-f.confirmGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmCalls++
	if f.confirmErr != nil {
		return f.confirmErr
	}
	for i := range f.items {
		if f.items[i].AppointmentID == id {
			f.items[i].Status = appointments.StatusConfirmed
		}
	}
	return nil
}

func (f *fakeDoctorService) DeclineAppointment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declineCalls++
	for i := range f.items {
		if f.items[i].AppointmentID == id {
			f.items[i].Status = appointments.StatusDeclined
		}
	}
	return nil
}

func (f *fakeDoctorService) CancelAppointment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	for i := range f.items {
		if f.items[i].AppointmentID == id {
			f.items[i].Status = appointments.StatusCancelled
		}
	}
	return nil
}

func (f *fakeDoctorService) HealthSummary(ctx context.Context, patientID, appointmentID string) ([]apiclient.HealthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls++
	return f.summary, f.summaryErr
}

func (f *fakeDoctorService) setItems(items []appointments.Appointment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
}

func newDoctorBoard(t *testing.T, svc DoctorService) *DoctorBoard {
	t.Helper()
	board, err := NewDoctorBoard(DoctorBoardConfig{
		Service: svc,
		Metrics: NewMetrics(prometheus.NewRegistry()),
		Now:     func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return board
}

func TestDoctorBoardRefreshPartitions(t *testing.T) {
	svc := &fakeDoctorService{items: []appointments.Appointment{
		{AppointmentID: "a1", Status: appointments.StatusPending},
		{AppointmentID: "a2", Status: appointments.StatusConfirmed},
		{AppointmentID: "a3", Status: appointments.StatusCancelled},
	}}
	board := newDoctorBoard(t, svc)

	require.NoError(t, board.Refresh(context.Background()))

	view := board.Snapshot()
	require.Len(t, view.Pending, 1)
	assert.Equal(t, "a1", view.Pending[0].AppointmentID)
	require.Len(t, view.Confirmed, 1)
	assert.Equal(t, "a2", view.Confirmed[0].AppointmentID)
	assert.False(t, view.LastUpdated.IsZero())
}

func TestDoctorBoardRefreshErrorKeepsState(t *testing.T) {
	svc := &fakeDoctorService{items: []appointments.Appointment{
		{AppointmentID: "a1", Status: appointments.StatusPending},
	}}
	board := newDoctorBoard(t, svc)
	require.NoError(t, board.Refresh(context.Background()))

	svc.mu.Lock()
	svc.listErr = errors.New("service unavailable")
	svc.mu.Unlock()

	err := board.Refresh(context.Background())
	assert.Error(t, err)

	view := board.Snapshot()
	assert.Len(t, view.Pending, 1, "failed refresh must not clobber the last good state")
}

// gatedDoctorService lets the test decide when each list fetch resolves,
// to exercise out-of-order arrivals.
type gatedDoctorService struct {
	fakeDoctorService
	entered chan chan []appointments.Appointment
}

func (g *gatedDoctorService) DoctorAppointments(ctx context.Context) ([]appointments.Appointment, error) {
	release := make(chan []appointments.Appointment)
	g.entered <- release
	return <-release, nil
}

func TestDoctorBoardDiscardsSupersededResponse(t *testing.T) {
	svc := &gatedDoctorService{entered: make(chan chan []appointments.Appointment)}
	reg := prometheus.NewRegistry()
	board, err := NewDoctorBoard(DoctorBoardConfig{Service: svc, Metrics: NewMetrics(reg)})
	require.NoError(t, err)

	ctx := context.Background()
	var wg stdsync.WaitGroup

	// Fetch A is issued first.
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = board.Refresh(ctx)
	}()
	releaseA := <-svc.entered

	// Fetch B is issued second.
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = board.Refresh(ctx)
	}()
	releaseB := <-svc.entered

	// B resolves first and is applied.
	releaseB <- []appointments.Appointment{{AppointmentID: "b", Status: appointments.StatusPending}}
	waitFor(t, time.Second, func() bool {
		v := board.Snapshot()
		return len(v.Pending) == 1 && v.Pending[0].AppointmentID == "b"
	})

	// A resolves late; its response must be discarded, not applied.
	releaseA <- []appointments.Appointment{{AppointmentID: "a", Status: appointments.StatusPending}}
	wg.Wait()

	view := board.Snapshot()
	require.Len(t, view.Pending, 1)
	assert.Equal(t, "b", view.Pending[0].AppointmentID, "rendered state must reflect the later-issued fetch")

	stale := testutil.ToFloat64(board.metrics.staleDiscardedTotal.WithLabelValues("doctor"))
	assert.Equal(t, 1.0, stale)
}

func TestDoctorBoardSelectLoadsSummary(t *testing.T) {
	svc := &fakeDoctorService{
		items: []appointments.Appointment{
			{AppointmentID: "a1", PatientID: "pat-1", Status: appointments.StatusPending},
		},
		summary: []apiclient.HealthRecord{{RecordID: "rec-1"}},
	}
	board := newDoctorBoard(t, svc)
	require.NoError(t, board.Refresh(context.Background()))

	require.NoError(t, board.Select(context.Background(), "a1"))

	view := board.Snapshot()
	assert.Equal(t, "a1", view.SelectedID)
	require.Len(t, view.Summary, 1)
	assert.Equal(t, "rec-1", view.Summary[0].RecordID)
}

func TestDoctorBoardSelectUnknownAppointment(t *testing.T) {
	svc := &fakeDoctorService{}
	board := newDoctorBoard(t, svc)
	require.NoError(t, board.Refresh(context.Background()))

	err := board.Select(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownAppointment)
}

func TestDoctorBoardClearsStaleSelection(t *testing.T) {
	svc := &fakeDoctorService{
		items: []appointments.Appointment{
			{AppointmentID: "a1", PatientID: "pat-1", Status: appointments.StatusPending},
		},
		summary: []apiclient.HealthRecord{{RecordID: "rec-1"}},
	}
	board := newDoctorBoard(t, svc)
	require.NoError(t, board.Refresh(context.Background()))
	require.NoError(t, board.Select(context.Background(), "a1"))

	// The appointment vanishes from the next poll (cancelled by the
	// patient). The selection reconciles silently, no error.
	svc.setItems(nil)
	require.NoError(t, board.Refresh(context.Background()))

	view := board.Snapshot()
	assert.Empty(t, view.SelectedID)
	assert.Empty(t, view.Summary)
}

func TestDoctorBoardConfirmRefetchesCanonicalState(t *testing.T) {
	svc := &fakeDoctorService{items: []appointments.Appointment{
		{AppointmentID: "a1", Status: appointments.StatusPending},
	}}
	board := newDoctorBoard(t, svc)
	require.NoError(t, board.Refresh(context.Background()))

	require.NoError(t, board.Confirm(context.Background(), "a1"))

	// The new status comes from the re-fetched list, never a local flip.
	view := board.Snapshot()
	assert.Empty(t, view.Pending)
	require.Len(t, view.Confirmed, 1)
	assert.Equal(t, appointments.StatusConfirmed, view.Confirmed[0].Status)
	assert.GreaterOrEqual(t, svc.listCalls, 2)
}

func TestDoctorBoardActionMutualExclusion(t *testing.T) {
	gate := make(chan struct{})
	svc := &fakeDoctorService{
		items:       []appointments.Appointment{{AppointmentID: "a1", Status: appointments.StatusPending}},
		confirmGate: gate,
	}
	board := newDoctorBoard(t, svc)
	require.NoError(t, board.Refresh(context.Background()))

	done := make(chan error, 1)
	go func() { done <- board.Confirm(context.Background(), "a1") }()

	waitFor(t, time.Second, func() bool { return board.ActionInFlight("a1") })

	// Same control is disabled while the first request is in flight.
	assert.ErrorIs(t, board.Confirm(context.Background(), "a1"), ErrActionInFlight)
	// A different appointment is unaffected.
	assert.False(t, board.ActionInFlight("a2"))

	close(gate)
	require.NoError(t, <-done)
	assert.False(t, board.ActionInFlight("a1"))
}

func TestDoctorBoardActionErrorReenablesControl(t *testing.T) {
	svc := &fakeDoctorService{
		items:      []appointments.Appointment{{AppointmentID: "a1", Status: appointments.StatusPending}},
		confirmErr: errors.New("appointment is not pending"),
	}
	board := newDoctorBoard(t, svc)
	require.NoError(t, board.Refresh(context.Background()))
	listCallsBefore := svc.listCalls

	err := board.Confirm(context.Background(), "a1")
	assert.Error(t, err)
	assert.False(t, board.ActionInFlight("a1"), "control re-enables on failure")
	assert.Equal(t, listCallsBefore, svc.listCalls, "no refetch after a failed action")
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
