// Package stub is an in-memory reference implementation of the appointment
// service wire contract. It backs local development and end-to-end tests;
// the production service lives elsewhere.
package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	stdsync "sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/careloop/clinic-booking/internal/appointments"
	"github.com/careloop/clinic-booking/internal/session"
	"github.com/careloop/clinic-booking/pkg/logging"
)

// Server holds the in-memory state behind the sandbox endpoints.
type Server struct {
	secret string
	logger *logging.Logger
	now    func() time.Time

	mu      stdsync.Mutex
	appts   map[string]*appointments.Appointment
	order   []string
	doctors []appointments.DoctorRecord
	health  map[string][]healthRecord
}

type healthRecord struct {
	RecordID       string         `json:"recordId"`
	AppointmentID  string         `json:"appointmentId,omitempty"`
	ChiefComplaint string         `json:"chiefComplaint,omitempty"`
	UpdatedAt      string         `json:"updatedAt"`
	Summary        map[string]any `json:"summary"`
}

type Config struct {
	Secret string
	Logger *logging.Logger
	Now    func() time.Time
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		secret: cfg.Secret,
		logger: logger,
		now:    now,
		appts:  make(map[string]*appointments.Appointment),
		health: make(map[string][]healthRecord),
	}
}

// Handler builds the sandbox router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/appointments", s.handleBook)
	r.Post("/appointments/{id}/confirm", s.handleAction(appointments.ActionConfirm))
	r.Post("/appointments/{id}/decline", s.handleAction(appointments.ActionDecline))
	r.Post("/appointments/{id}/cancel", s.handleAction(appointments.ActionCancel))
	r.Get("/appointments/doctor", s.handleDoctorList)
	r.Get("/appointments/patient", s.handlePatientList)
	r.Get("/doctors", s.handleDoctorSearch)
	r.Get("/patient/{id}/health/summary", s.handleHealthSummary)
	r.Get("/patient/{id}/health/index", s.handleHealthIndex)

	return r
}

// AddDoctor registers one searchable doctor.
func (s *Server) AddDoctor(d appointments.DoctorRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors = append(s.doctors, d)
}

func (s *Server) authenticate(r *http.Request) (*session.Session, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, session.ErrInvalidToken
	}
	return session.Parse(token, s.secret)
}

func (s *Server) requireRole(w http.ResponseWriter, r *http.Request, roles ...string) *session.Session {
	sess, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "sign in to continue")
		return nil
	}
	if !session.RequireRole(sess, roles...) {
		writeError(w, http.StatusForbidden, "not allowed for this role")
		return nil
	}
	return sess
}

type bookRequest struct {
	DoctorID             string         `json:"doctorId"`
	SlotISO              string         `json:"slotISO"`
	ChiefComplaint       string         `json:"chiefComplaint"`
	RecommendedSpecialty string         `json:"recommendedSpecialty"`
	Vitals               map[string]any `json:"vitals"`
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, session.RolePatient)
	if sess == nil {
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DoctorID == "" {
		writeError(w, http.StatusBadRequest, "doctorId is required")
		return
	}
	slot, err := time.Parse(time.RFC3339, req.SlotISO)
	if err != nil {
		writeError(w, http.StatusBadRequest, "slotISO must be an RFC 3339 timestamp")
		return
	}
	if !slot.After(s.now()) {
		writeError(w, http.StatusBadRequest, "slot is in the past")
		return
	}

	appt := &appointments.Appointment{
		AppointmentID:        uuid.NewString(),
		PatientID:            sess.Sub,
		DoctorID:             req.DoctorID,
		SlotISO:              req.SlotISO,
		ChiefComplaint:       req.ChiefComplaint,
		RecommendedSpecialty: req.RecommendedSpecialty,
		VitalsSummary:        summarize(req.Vitals),
		Status:               appointments.StatusPending,
	}

	s.mu.Lock()
	s.appts[appt.AppointmentID] = appt
	s.order = append(s.order, appt.AppointmentID)
	s.health[sess.Sub] = append(s.health[sess.Sub], healthRecord{
		RecordID:       fmt.Sprintf("intake-%s", appt.AppointmentID),
		AppointmentID:  appt.AppointmentID,
		ChiefComplaint: req.ChiefComplaint,
		UpdatedAt:      s.now().Format(time.RFC3339),
		Summary:        req.Vitals,
	})
	s.mu.Unlock()

	s.logger.Info("sandbox appointment created", "appointment_id", appt.AppointmentID, "doctor_id", req.DoctorID)
	writeJSON(w, http.StatusCreated, appt)
}

// summarize cuts intake vitals down to the summary the service attaches to
// an appointment.
func summarize(vitals map[string]any) appointments.VitalsSummary {
	var summary appointments.VitalsSummary
	if raw, ok := vitals["allergies"]; ok {
		switch list := raw.(type) {
		case []string:
			summary.Allergies = list
		case []any:
			for _, v := range list {
				if sv, ok := v.(string); ok {
					summary.Allergies = append(summary.Allergies, sv)
				}
			}
		}
	}
	if bmi, ok := vitals["bmi"].(float64); ok {
		summary.BMI = bmi
	}
	return summary
}

func (s *Server) handleAction(action appointments.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var roles []string
		switch action {
		case appointments.ActionConfirm, appointments.ActionDecline:
			roles = []string{session.RoleDoctor}
		default:
			roles = []string{session.RoleDoctor, session.RolePatient}
		}
		sess := s.requireRole(w, r, roles...)
		if sess == nil {
			return
		}

		id := chi.URLParam(r, "id")
		s.mu.Lock()
		defer s.mu.Unlock()

		appt, ok := s.appts[id]
		if !ok {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		if !owns(sess, appt) {
			writeError(w, http.StatusForbidden, "appointment belongs to someone else")
			return
		}
		if !appointments.CanTransition(appt.Status, action) {
			writeError(w, http.StatusConflict, fmt.Sprintf("cannot %s an appointment that is %s", action, strings.ToLower(string(appt.Status))))
			return
		}
		appt.Status = action.Applied()
		writeJSON(w, http.StatusOK, appt)
	}
}

func owns(sess *session.Session, appt *appointments.Appointment) bool {
	switch sess.Role {
	case session.RoleDoctor:
		return appt.DoctorID == sess.Sub
	case session.RolePatient:
		return appt.PatientID == sess.Sub
	default:
		return false
	}
}

func (s *Server) handleDoctorList(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, session.RoleDoctor)
	if sess == nil {
		return
	}
	s.listAppointments(w, func(a *appointments.Appointment) bool { return a.DoctorID == sess.Sub })
}

func (s *Server) handlePatientList(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, session.RolePatient)
	if sess == nil {
		return
	}
	s.listAppointments(w, func(a *appointments.Appointment) bool { return a.PatientID == sess.Sub })
}

func (s *Server) listAppointments(w http.ResponseWriter, match func(*appointments.Appointment) bool) {
	s.mu.Lock()
	items := make([]appointments.Appointment, 0)
	for _, id := range s.order {
		if a := s.appts[id]; match(a) {
			items = append(items, *a)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleDoctorSearch(w http.ResponseWriter, r *http.Request) {
	if sess := s.requireRole(w, r, session.RolePatient, session.RoleDoctor); sess == nil {
		return
	}

	q := r.URL.Query()
	specialty, city, language := q.Get("specialty"), q.Get("city"), q.Get("language")

	s.mu.Lock()
	items := make([]appointments.DoctorRecord, 0)
	for _, d := range s.doctors {
		if specialty != "" && d.Profile.Specialty != specialty {
			continue
		}
		if city != "" && d.Profile.City != city {
			continue
		}
		if language != "" && !contains(d.Profile.Languages, language) {
			continue
		}
		items = append(items, d)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func (s *Server) handleHealthSummary(w http.ResponseWriter, r *http.Request) {
	if sess := s.requireRole(w, r, session.RoleDoctor, session.RolePatient); sess == nil {
		return
	}

	patientID := chi.URLParam(r, "id")
	appointmentID := r.URL.Query().Get("appointmentId")

	s.mu.Lock()
	items := make([]healthRecord, 0)
	for _, rec := range s.health[patientID] {
		if appointmentID != "" && rec.AppointmentID != appointmentID {
			continue
		}
		items = append(items, rec)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleHealthIndex(w http.ResponseWriter, r *http.Request) {
	if sess := s.requireRole(w, r, session.RolePatient, session.RoleDoctor); sess == nil {
		return
	}

	patientID := chi.URLParam(r, "id")

	s.mu.Lock()
	records := s.health[patientID]
	items := make([]healthRecord, 0, len(records))
	// Most recent first.
	for i := len(records) - 1; i >= 0; i-- {
		items = append(items, records[i])
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
