package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/clinic-booking/internal/appointments"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	c, err := New(Config{BaseURL: ts.URL, Token: "token-1"})
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestBookAppointment(t *testing.T) {
	var gotPath, gotAuth, gotIdem string
	var gotBody map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotIdem = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(appointments.Appointment{
			AppointmentID: "appt-1",
			DoctorID:      "doc-1",
			SlotISO:       "2026-09-07T09:00:00Z",
			Status:        appointments.StatusPending,
		})
	})

	appt, err := c.BookAppointment(context.Background(), BookingRequest{
		DoctorID:             "doc-1",
		SlotISO:              "2026-09-07T09:00:00Z",
		ChiefComplaint:       "Fever/cold/flu",
		RecommendedSpecialty: "General Practice",
		Vitals:               map[string]any{"heightCm": 180.0, "allergies": []string{"NONE"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "POST /appointments", gotPath)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.NotEmpty(t, gotIdem)
	assert.Equal(t, "Fever/cold/flu", gotBody["chiefComplaint"])
	assert.Equal(t, "appt-1", appt.AppointmentID)
	assert.Equal(t, appointments.StatusPending, appt.Status)
}

func TestTransitionPaths(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	ctx := context.Background()
	require.NoError(t, c.ConfirmAppointment(ctx, "appt-1"))
	require.NoError(t, c.DeclineAppointment(ctx, "appt-2"))
	require.NoError(t, c.CancelAppointment(ctx, "appt-3"))

	assert.Equal(t, []string{
		"POST /appointments/appt-1/confirm",
		"POST /appointments/appt-2/decline",
		"POST /appointments/appt-3/cancel",
	}, paths)
}

func TestTransitionRequiresID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	assert.Error(t, c.ConfirmAppointment(context.Background(), "  "))
}

func TestListAppointments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appointments/doctor", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"appointmentId": "a1", "status": "PENDING"},
				{"appointmentId": "a2", "status": "CONFIRMED"},
			},
		})
	})

	items, err := c.DoctorAppointments(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, appointments.StatusConfirmed, items[1].Status)
}

func TestSearchDoctorsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "General Practice", q.Get("specialty"))
		assert.Equal(t, "Lyon", q.Get("city"))
		assert.Equal(t, "", q.Get("language"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"userId":    "doc-1",
				"firstName": "Ana",
				"lastName":  "Silva",
				"doctorProfile": map[string]any{
					"specialty":  "General Practice",
					"city":       "Lyon",
					"languages":  []string{"French", "English"},
					"availSlots": []string{"2026-09-07T09:00:00Z"},
				},
			}},
		})
	})

	doctors, err := c.SearchDoctors(context.Background(), DoctorQuery{Specialty: "General Practice", City: "Lyon"})
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Ana Silva", doctors[0].FullName())
	assert.Equal(t, []string{"2026-09-07T09:00:00Z"}, doctors[0].Profile.AvailSlots)
}

func TestHealthSummaryQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/patient/pat-1/health/summary", r.URL.Path)
		assert.Equal(t, "appt-1", r.URL.Query().Get("appointmentId"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"recordId": "rec-1", "summary": map[string]any{"bmi": 25.0}}},
		})
	})

	records, err := c.HealthSummary(context.Background(), "pat-1", "appt-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rec-1", records[0].RecordID)
}

func TestAPIErrorMessageExtraction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "appointment is not pending"})
	})

	err := c.ConfirmAppointment(context.Background(), "appt-1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "appointment is not pending", apiErr.Message)
}

func TestAPIErrorFallsBackToRawBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := c.PatientAppointments(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}
