package service

import (
	"fmt"
	"log"
	"time"

	"evcharging/internal/repository"
)

type JobService struct {
	Repo          *repository.ReservationRepository
	RetentionDays int
}

func NewJobService(repo *repository.ReservationRepository, retentionDays int) *JobService {
	return &JobService{Repo: repo, RetentionDays: retentionDays}
}

// PurgeExpiredReservations deletes reservations whose window ended before the
// retention cutoff. Status is always derived at read time, so this job only
// reclaims storage; it never touches the status of anything it keeps.
func (s *JobService) PurgeExpiredReservations() error {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.RetentionDays)
	deleted, err := s.Repo.DeleteReservationsEndedBefore(cutoff)
	if err != nil {
		return fmt.Errorf("retention job: %w", err)
	}
	if deleted > 0 {
		log.Printf("Retention job: purged %d reservations ended before %s", deleted, cutoff.Format(time.RFC3339))
	}
	return nil
}
