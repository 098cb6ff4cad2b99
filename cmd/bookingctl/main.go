package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/careloop/clinic-booking/internal/apiclient"
	appconfig "github.com/careloop/clinic-booking/internal/config"
	"github.com/careloop/clinic-booking/internal/directory"
	"github.com/careloop/clinic-booking/internal/intake"
	"github.com/careloop/clinic-booking/internal/session"
	"github.com/careloop/clinic-booking/internal/sync"
	"github.com/careloop/clinic-booking/pkg/logging"
)

func main() {
	role := flag.String("role", session.RolePatient, "PATIENT or DOCTOR")
	user := flag.String("user", "", "user id to act as")
	intakePath := flag.String("intake", "", "path to an intake form JSON file (patient role)")
	city := flag.String("city", "", "optional city filter for doctor search")
	language := flag.String("language", "", "optional language filter for doctor search")
	watch := flag.Duration("watch", time.Minute, "how long to watch the doctor board")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if *user == "" {
		logger.Error("missing required -user flag")
		os.Exit(1)
	}

	token := cfg.AuthToken
	if token == "" {
		signed, err := session.Sign(*user, *role, cfg.SessionSecret)
		if err != nil {
			logger.Error("failed to sign session token", "error", err)
			os.Exit(1)
		}
		token = signed
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL:    cfg.ServiceBaseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to build API client", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *role {
	case session.RolePatient:
		err = runPatient(ctx, cfg, logger, client, *user, *intakePath, directory.Filters{City: *city, Language: *language})
	case session.RoleDoctor:
		err = runDoctor(ctx, cfg, logger, client, *watch)
	default:
		err = fmt.Errorf("unknown role %q", *role)
	}
	if err != nil {
		logger.Error("bookingctl failed", "error", err)
		os.Exit(1)
	}
}

// runPatient walks the full booking flow once: assemble the intake, search
// doctors on the recommended specialty, pick the first bookable slot, book,
// then show the refreshed board.
func runPatient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, client *apiclient.Client, patientID, intakePath string, filters directory.Filters) error {
	if intakePath == "" {
		return fmt.Errorf("patient role requires -intake")
	}
	raw, err := os.ReadFile(intakePath)
	if err != nil {
		return fmt.Errorf("read intake form: %w", err)
	}
	var form intake.Form
	if err := json.Unmarshal(raw, &form); err != nil {
		return fmt.Errorf("parse intake form: %w", err)
	}

	payload, fieldErrs := intake.Assemble(form)
	if len(fieldErrs) > 0 {
		for field, msg := range fieldErrs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
		}
		return fmt.Errorf("intake form has %d invalid field(s)", len(fieldErrs))
	}
	logger.Info("intake assembled",
		"chief_complaint", payload.ChiefComplaint,
		"specialty", payload.RecommendedSpecialty,
	)

	searcher, err := directory.NewSearcher(directory.SearcherConfig{Service: client, Logger: logger})
	if err != nil {
		return err
	}
	searcher.SetIntake(payload)

	listings, err := searcher.Search(ctx, filters)
	if err != nil {
		return fmt.Errorf("search doctors: %w", err)
	}
	if len(listings) == 0 {
		return fmt.Errorf("no doctors available for %s", payload.RecommendedSpecialty)
	}
	for _, l := range listings {
		fmt.Printf("%s (%s, %s) slots: %d\n", l.Doctor.FullName(), l.Doctor.Profile.Specialty, l.Doctor.Profile.City, len(l.FutureSlots))
	}

	first := listings[0]
	if len(first.FutureSlots) == 0 {
		return fmt.Errorf("doctor %s has no future slots", first.Doctor.FullName())
	}
	if err := searcher.SelectSlot(first.Doctor.UserID, first.FutureSlots[0]); err != nil {
		return err
	}
	req, err := searcher.BookingRequest()
	if err != nil {
		return err
	}

	board, err := sync.NewPatientBoard(sync.PatientBoardConfig{
		Service:   client,
		PatientID: patientID,
		Logger:    logger,
		Metrics:   sync.NewMetrics(nil),
	})
	if err != nil {
		return err
	}

	appt, err := board.Book(ctx, req)
	if err != nil {
		return fmt.Errorf("book appointment: %w", err)
	}
	fmt.Printf("booked %s with %s at %s (%s)\n", appt.AppointmentID, first.Doctor.FullName(), appt.SlotISO, appt.Status)

	view := board.Snapshot()
	fmt.Printf("you have %d appointment(s):\n", len(view.Appointments))
	for _, a := range view.Appointments {
		fmt.Printf("  %s  %-9s  %s\n", a.SlotISO, a.Status, a.ChiefComplaint)
	}
	return nil
}

// runDoctor polls the doctor board and prints the triage buckets whenever
// the lists change, until the watch window or an interrupt ends it.
func runDoctor(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, client *apiclient.Client, watch time.Duration) error {
	board, err := sync.NewDoctorBoard(sync.DoctorBoardConfig{
		Service: client,
		Logger:  logger,
		Metrics: sync.NewMetrics(nil),
	})
	if err != nil {
		return err
	}
	poller, err := sync.NewPoller(sync.PollerConfig{
		Target:   board,
		Interval: cfg.PollInterval,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	watchCtx, cancel := context.WithTimeout(ctx, watch)
	defer cancel()
	stop := poller.Run(watchCtx)
	defer stop()

	var lastShown time.Time
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-watchCtx.Done():
			return nil
		case <-ticker.C:
			view := board.Snapshot()
			if !view.LastUpdated.After(lastShown) {
				continue
			}
			lastShown = view.LastUpdated
			fmt.Printf("-- %s  pending %d  confirmed %d\n", view.LastUpdated.Format(time.RFC3339), len(view.Pending), len(view.Confirmed))
			for _, a := range view.Pending {
				fmt.Printf("  PENDING    %s  %s  %s\n", a.AppointmentID, a.SlotISO, a.ChiefComplaint)
			}
			for _, a := range view.Confirmed {
				fmt.Printf("  CONFIRMED  %s  %s  %s\n", a.AppointmentID, a.SlotISO, a.ChiefComplaint)
			}
		}
	}
}
