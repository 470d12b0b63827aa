package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"evcharging/internal/api"
	"evcharging/internal/auth"
	"evcharging/internal/db"
	"evcharging/internal/repository"
	"evcharging/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
)

const defaultRetentionDays = 180

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	conn, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := conn.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	if err := db.EnsureSchema(conn); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	reservationRepo := repository.NewReservationRepository(conn)
	sessionRepo := repository.NewSessionRepository(conn)
	adminRepo := repository.NewAdminAuthRepository(conn)

	backfill, err := reservationRepo.BackfillUTC()
	if err != nil {
		log.Fatalf("UTC backfill failed: %v", err)
	}
	log.Printf("UTC backfill: %d checked, %d updated, %d slots added, %d skipped",
		backfill.Checked, backfill.Updated, backfill.SlotsAdded, backfill.SkippedRows)

	if isTruthy(os.Getenv("AUTO_SEED_SESSIONS")) {
		names := make([]string, 0, 4)
		for idx := 1; idx <= 4; idx++ {
			names = append(names, fmt.Sprintf("Session %d", idx))
		}
		if err := sessionRepo.EnsureBaseSessions(names); err != nil {
			log.Fatalf("Failed to seed charging sessions: %v", err)
		}
		log.Println("Auto-seeded default charging sessions.")
	}

	sender := service.NewSenderService(
		os.Getenv("SENDGRID_API_KEY"),
		os.Getenv("SENDGRID_FROM_EMAIL"),
		os.Getenv("SENDGRID_FROM_NAME"),
	)
	svc := service.NewReservationService(reservationRepo, sessionRepo, sender)
	adminAuthSvc := service.NewAdminAuthService(adminRepo)
	batterySvc := service.NewBatteryService()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword != "" {
		if err := adminAuthSvc.EnsureAdmin(adminEmail, adminPassword); err != nil {
			log.Fatalf("Failed to seed admin account: %v", err)
		}
	}

	jobSvc := service.NewJobService(reservationRepo, retentionDays())
	c := cron.New()
	retentionSpec := os.Getenv("RETENTION_CRON")
	if retentionSpec == "" {
		retentionSpec = "0 4 * * *"
	}
	if _, err := c.AddFunc(retentionSpec, func() {
		if err := jobSvc.PurgeExpiredReservations(); err != nil {
			log.Printf("Retention job failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid RETENTION_CRON %q: %v", retentionSpec, err)
	}
	c.Start()

	userHandler := api.NewUserReservationHandler(svc)
	plateHandler := api.NewPlateHandler(svc)
	adminHandler := api.NewAdminHandler(svc, adminAuthSvc)
	batteryHandler := api.NewBatteryHandler(batterySvc)

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Public endpoints
	r.HandleFunc("/api/sessions", userHandler.ListSessions).Methods("GET")
	r.HandleFunc("/api/reservations/by-session", userHandler.ReservationsBySession).Methods("GET")
	r.HandleFunc("/api/reservations", userHandler.CreateReservation).Methods("POST")
	r.HandleFunc("/api/reservations/batch", userHandler.CreateReservationsBatch).Methods("POST")
	r.HandleFunc("/api/reservations/my", userHandler.MyReservations).Methods("GET")
	r.HandleFunc("/api/reservations/{id}", userHandler.DeleteMyReservation).Methods("DELETE")
	r.HandleFunc("/api/plates/verify", plateHandler.VerifyPlate).Methods("POST")
	r.HandleFunc("/api/plates/match", plateHandler.MatchPlate).Methods("POST")
	r.HandleFunc("/api/battery/now", batteryHandler.Now).Methods("GET")

	// Admin endpoints (protected)
	r.HandleFunc("/api/admin/login", adminHandler.Login).Methods("POST")
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware)
	admin.HandleFunc("/reservations/by-session", adminHandler.ReservationsBySession).Methods("GET")
	admin.HandleFunc("/reservations/{id}", adminHandler.DeleteReservation).Methods("DELETE")
	admin.HandleFunc("/reservations/{id}/cancel", adminHandler.CancelReservation).Methods("POST")

	var handler http.Handler = r
	if origins := corsOrigins(); len(origins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
			handlers.AllowCredentials(),
		)(r)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}

func corsOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return nil
	}
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func retentionDays() int {
	raw := os.Getenv("RETENTION_DAYS")
	if raw == "" {
		return defaultRetentionDays
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		log.Printf("Invalid RETENTION_DAYS %q, using %d", raw, defaultRetentionDays)
		return defaultRetentionDays
	}
	return days
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
