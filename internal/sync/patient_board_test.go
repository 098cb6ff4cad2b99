package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/clinic-booking/internal/apiclient"
	"github.com/careloop/clinic-booking/internal/appointments"
)

type fakePatientService struct {
	mu        stdsync.Mutex
	items     []appointments.Appointment
	listCalls int

	bookErr   error
	bookCalls int
	bookGate  chan struct{}

	cancelCalls int

	index      []apiclient.HealthRecord
	indexErr   error
	indexCalls int
}

func (f *fakePatientService) PatientAppointments(ctx context.Context) ([]appointments.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]appointments.Appointment(nil), f.items...), nil
}

func (f *fakePatientService) BookAppointment(ctx context.Context, req apiclient.BookingRequest) (*appointments.Appointment, error) {
	if f.bookGate != nil {
		<-f.bookGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookCalls++
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	appt := appointments.Appointment{
		AppointmentID: "appt-new",
		DoctorID:      req.DoctorID,
		SlotISO:       req.SlotISO,
		Status:        appointments.StatusPending,
	}
	f.items = append(f.items, appt)
	return &appt, nil
}

func (f *fakePatientService) CancelAppointment(ctx context.Context, id string) error {
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

func (f *fakePatientService) HealthIndex(ctx context.Context, patientID string) ([]apiclient.HealthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexCalls++
	return f.index, f.indexErr
}

func newPatientBoard(t *testing.T, svc PatientService) *PatientBoard {
	t.Helper()
	board, err := NewPatientBoard(PatientBoardConfig{
		Service:   svc,
		PatientID: "pat-1",
		Metrics:   NewMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return board
}

func TestPatientBoardRefreshSortsChronologically(t *testing.T) {
	svc := &fakePatientService{items: []appointments.Appointment{
		{AppointmentID: "late", SlotISO: "2026-09-10T10:00:00Z", Status: appointments.StatusPending},
		{AppointmentID: "early", SlotISO: "2026-09-02T09:00:00Z", Status: appointments.StatusConfirmed},
	}}
	board := newPatientBoard(t, svc)

	require.NoError(t, board.Refresh(context.Background()))

	view := board.Snapshot()
	require.Len(t, view.Appointments, 2)
	assert.Equal(t, "early", view.Appointments[0].AppointmentID)
	assert.Equal(t, "late", view.Appointments[1].AppointmentID)
}

func TestPatientBoardBookRefetchesListAndIndex(t *testing.T) {
	svc := &fakePatientService{index: []apiclient.HealthRecord{{RecordID: "rec-1"}}}
	board := newPatientBoard(t, svc)

	appt, err := board.Book(context.Background(), apiclient.BookingRequest{
		DoctorID: "doc-1",
		SlotISO:  "2026-09-07T09:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "appt-new", appt.AppointmentID)

	view := board.Snapshot()
	require.Len(t, view.Appointments, 1)
	assert.Equal(t, appointments.StatusPending, view.Appointments[0].Status)
	require.Len(t, view.HealthIndex, 1)
	assert.Equal(t, 1, svc.bookCalls)
	assert.Equal(t, 1, svc.listCalls)
	assert.Equal(t, 1, svc.indexCalls)
}

func TestPatientBoardBookFailureDoesNotRefetch(t *testing.T) {
	svc := &fakePatientService{bookErr: errors.New("slot is in the past")}
	board := newPatientBoard(t, svc)

	_, err := board.Book(context.Background(), apiclient.BookingRequest{DoctorID: "doc-1", SlotISO: "2020-01-01T09:00:00Z"})
	assert.Error(t, err)
	assert.Zero(t, svc.listCalls)
	assert.False(t, board.ActionInFlight("book:doc-1:2020-01-01T09:00:00Z"))
}

func TestPatientBoardBookMutualExclusionPerSlot(t *testing.T) {
	gate := make(chan struct{})
	svc := &fakePatientService{bookGate: gate}
	board := newPatientBoard(t, svc)

	req := apiclient.BookingRequest{DoctorID: "doc-1", SlotISO: "2026-09-07T09:00:00Z"}
	done := make(chan error, 1)
	go func() {
		_, err := board.Book(context.Background(), req)
		done <- err
	}()

	waitFor(t, time.Second, func() bool { return board.ActionInFlight("book:doc-1:2026-09-07T09:00:00Z") })

	_, err := board.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrActionInFlight)

	close(gate)
	require.NoError(t, <-done)
}

func TestPatientBoardCancelRefetches(t *testing.T) {
	svc := &fakePatientService{items: []appointments.Appointment{
		{AppointmentID: "a1", SlotISO: "2026-09-07T09:00:00Z", Status: appointments.StatusConfirmed},
	}}
	board := newPatientBoard(t, svc)
	require.NoError(t, board.Refresh(context.Background()))

	require.NoError(t, board.Cancel(context.Background(), "a1"))

	view := board.Snapshot()
	require.Len(t, view.Appointments, 1)
	assert.Equal(t, appointments.StatusCancelled, view.Appointments[0].Status)
}

func TestPatientBoardHealthIndexFailureDegrades(t *testing.T) {
	svc := &fakePatientService{index: []apiclient.HealthRecord{{RecordID: "rec-1"}}}
	board := newPatientBoard(t, svc)
	require.NoError(t, board.RefreshHealthIndex(context.Background()))
	require.Len(t, board.Snapshot().HealthIndex, 1)

	svc.mu.Lock()
	svc.indexErr = errors.New("index unavailable")
	svc.mu.Unlock()

	err := board.RefreshHealthIndex(context.Background())
	assert.Error(t, err)
	assert.Empty(t, board.Snapshot().HealthIndex, "failed index renders empty, not stale")
}
