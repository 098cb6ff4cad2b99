// Package apiclient is the JSON HTTP client for the remote appointment
// service. It owns the wire contract; higher layers never touch HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/careloop/clinic-booking/internal/appointments"
	"github.com/careloop/clinic-booking/pkg/logging"
)

const defaultTimeout = 15 * time.Second

var clientTracer = otel.Tracer("clinicbooking.internal.apiclient")

// APIError carries the service's HTTP status and human-readable message for
// a non-2xx response. Callers surface Message as a transient notification.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apiclient: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the appointment service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logging.Logger
}

// Config configures a Client. HTTPClient is optional and defaults to a
// client with a 15s timeout.
type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// New creates an appointment service client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("apiclient: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		token:      strings.TrimSpace(cfg.Token),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type listEnvelope[T any] struct {
	Items []T `json:"items"`
}

// BookingRequest is the POST /appointments body assembled from a validated
// intake payload plus the chosen doctor and slot.
type BookingRequest struct {
	DoctorID             string         `json:"doctorId"`
	SlotISO              string         `json:"slotISO"`
	ChiefComplaint       string         `json:"chiefComplaint"`
	RecommendedSpecialty string         `json:"recommendedSpecialty"`
	Vitals               map[string]any `json:"vitals"`
}

// DoctorQuery filters the doctor directory. Specialty comes from the
// intake; city and language are optional refinements.
type DoctorQuery struct {
	Specialty string
	City      string
	Language  string
}

// HealthRecord is one entry of a patient's health summary or index.
type HealthRecord struct {
	RecordID       string         `json:"recordId,omitempty"`
	ChiefComplaint string         `json:"chiefComplaint,omitempty"`
	UpdatedAt      string         `json:"updatedAt,omitempty"`
	Summary        map[string]any `json:"summary,omitempty"`
}

// BookAppointment creates a pending appointment for the given doctor and
// slot. The request carries an idempotency key so a retried submit cannot
// double-book.
func (c *Client) BookAppointment(ctx context.Context, req BookingRequest) (*appointments.Appointment, error) {
	ctx, span := clientTracer.Start(ctx, "apiclient.book")
	defer span.End()
	span.SetAttributes(attribute.String("booking.doctor_id", req.DoctorID), attribute.String("booking.slot", req.SlotISO))

	var out appointments.Appointment
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	if err := c.do(ctx, http.MethodPost, "/appointments", nil, req, headers, &out); err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.logger.Info("appointment requested", "appointment_id", out.AppointmentID, "doctor_id", req.DoctorID, "slot", req.SlotISO)
	return &out, nil
}

// ConfirmAppointment requests the pending -> confirmed transition.
func (c *Client) ConfirmAppointment(ctx context.Context, appointmentID string) error {
	return c.transition(ctx, appointmentID, appointments.ActionConfirm)
}

// DeclineAppointment requests the pending -> declined transition.
func (c *Client) DeclineAppointment(ctx context.Context, appointmentID string) error {
	return c.transition(ctx, appointmentID, appointments.ActionDecline)
}

// CancelAppointment requests cancellation from pending or confirmed.
func (c *Client) CancelAppointment(ctx context.Context, appointmentID string) error {
	return c.transition(ctx, appointmentID, appointments.ActionCancel)
}

func (c *Client) transition(ctx context.Context, appointmentID string, action appointments.Action) error {
	if strings.TrimSpace(appointmentID) == "" {
		return errors.New("apiclient: appointment id is required")
	}
	ctx, span := clientTracer.Start(ctx, "apiclient."+string(action))
	defer span.End()
	span.SetAttributes(attribute.String("booking.appointment_id", appointmentID))

	path := fmt.Sprintf("/appointments/%s/%s", url.PathEscape(appointmentID), action)
	if err := c.do(ctx, http.MethodPost, path, nil, struct{}{}, nil, nil); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// DoctorAppointments fetches the authenticated doctor's full list.
func (c *Client) DoctorAppointments(ctx context.Context) ([]appointments.Appointment, error) {
	return c.list(ctx, "/appointments/doctor")
}

// PatientAppointments fetches the authenticated patient's full list.
func (c *Client) PatientAppointments(ctx context.Context) ([]appointments.Appointment, error) {
	return c.list(ctx, "/appointments/patient")
}

func (c *Client) list(ctx context.Context, path string) ([]appointments.Appointment, error) {
	ctx, span := clientTracer.Start(ctx, "apiclient.list")
	defer span.End()
	span.SetAttributes(attribute.String("booking.path", path))

	var out listEnvelope[appointments.Appointment]
	if err := c.do(ctx, http.MethodGet, path, nil, nil, nil, &out); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out.Items, nil
}

// SearchDoctors queries the doctor directory.
func (c *Client) SearchDoctors(ctx context.Context, q DoctorQuery) ([]appointments.DoctorRecord, error) {
	ctx, span := clientTracer.Start(ctx, "apiclient.search_doctors")
	defer span.End()
	span.SetAttributes(attribute.String("booking.specialty", q.Specialty))

	params := url.Values{}
	if q.Specialty != "" {
		params.Set("specialty", q.Specialty)
	}
	if q.City != "" {
		params.Set("city", q.City)
	}
	if q.Language != "" {
		params.Set("language", q.Language)
	}

	var out listEnvelope[appointments.DoctorRecord]
	if err := c.do(ctx, http.MethodGet, "/doctors", params, nil, nil, &out); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out.Items, nil
}

// HealthSummary fetches the health records attached to one appointment.
func (c *Client) HealthSummary(ctx context.Context, patientID, appointmentID string) ([]HealthRecord, error) {
	params := url.Values{}
	if appointmentID != "" {
		params.Set("appointmentId", appointmentID)
	}
	return c.health(ctx, fmt.Sprintf("/patient/%s/health/summary", url.PathEscape(patientID)), params)
}

// HealthIndex fetches a patient's recent intake history.
func (c *Client) HealthIndex(ctx context.Context, patientID string) ([]HealthRecord, error) {
	return c.health(ctx, fmt.Sprintf("/patient/%s/health/index", url.PathEscape(patientID)), nil)
}

func (c *Client) health(ctx context.Context, path string, params url.Values) ([]HealthRecord, error) {
	ctx, span := clientTracer.Start(ctx, "apiclient.health")
	defer span.End()

	var out listEnvelope[HealthRecord]
	if err := c.do(ctx, http.MethodGet, path, params, nil, nil, &out); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, headers map[string]string, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("apiclient: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("apiclient: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("apiclient: unmarshal response: %w", err)
	}
	return nil
}

// errorMessage extracts the service's message field, falling back to the
// truncated raw body.
func errorMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "request failed"
	}
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
