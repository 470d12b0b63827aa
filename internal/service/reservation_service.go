package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"evcharging/internal/apperrors"
	"evcharging/internal/db"
	"evcharging/internal/entities"
	"evcharging/internal/repository"
	"evcharging/internal/schedule"
	"evcharging/internal/timeutil"
)

type ReservationService struct {
	Repo     *repository.ReservationRepository
	Sessions *repository.SessionRepository
	Sender   *SenderService
}

func NewReservationService(repo *repository.ReservationRepository, sessions *repository.SessionRepository, sender *SenderService) *ReservationService {
	return &ReservationService{Repo: repo, Sessions: sessions, Sender: sender}
}

// CreateReservation books one window supplied as business-local date and
// wall-clock bounds.
func (s *ReservationService) CreateReservation(req entities.ReservationRequest) (*entities.ReservationResponse, error) {
	loc := timeutil.BusinessLocation()
	start, end, err := buildWindow(req.Date, req.StartTime, req.EndTime, loc)
	if err != nil {
		return nil, err
	}

	res, err := s.Repo.CreateReservation(repository.CreateParams{
		SessionID:    req.SessionID,
		Plate:        req.Plate,
		StartTime:    start,
		EndTime:      end,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		return nil, err
	}

	s.Sender.SendReservationEmail(res, "confirmed")
	return toReservationResponse(res, loc), nil
}

// CreateReservationsBatch books several one-hour windows on one session and
// date in a single transaction; the first failure undoes all of them.
func (s *ReservationService) CreateReservationsBatch(req entities.ReservationBatchRequest) ([]entities.ReservationResponse, error) {
	loc := timeutil.BusinessLocation()
	date, err := timeutil.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}

	starts := make([]time.Time, 0, len(req.StartTimes))
	for _, raw := range req.StartTimes {
		hour, minute, err := timeutil.ParseClock(raw)
		if err != nil {
			return nil, apperrors.Validation("%v", err)
		}
		startLocal := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
		if !schedule.OnSlotGrid(startLocal) {
			return nil, apperrors.Validation("reservations must start on %d-minute slot boundaries", schedule.SlotIntervalMinutes)
		}
		starts = append(starts, startLocal)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	for i := 1; i < len(starts); i++ {
		prev, cur := starts[i-1], starts[i]
		if schedule.Overlaps(prev, prev.Add(time.Hour), cur, cur.Add(time.Hour)) {
			return nil, apperrors.Validation("startTimes contain overlapping one-hour windows")
		}
	}

	params := make([]repository.CreateParams, 0, len(starts))
	for _, startLocal := range starts {
		params = append(params, repository.CreateParams{
			SessionID:    req.SessionID,
			Plate:        req.Plate,
			StartTime:    startLocal.UTC(),
			EndTime:      startLocal.Add(time.Hour).UTC(),
			ContactEmail: req.ContactEmail,
		})
	}

	created, err := s.Repo.CreateReservationsBatch(params)
	if err != nil {
		return nil, err
	}

	responses := make([]entities.ReservationResponse, 0, len(created))
	for _, res := range created {
		s.Sender.SendReservationEmail(res, "confirmed")
		responses = append(responses, *toReservationResponse(res, loc))
	}
	return responses, nil
}

// ListSessions returns every charging session with all of its reservations.
func (s *ReservationService) ListSessions() ([]entities.SessionReservations, error) {
	loc := timeutil.BusinessLocation()
	sessions, err := s.Sessions.ListSessions()
	if err != nil {
		return nil, err
	}
	payload := make([]entities.SessionReservations, 0, len(sessions))
	for _, cs := range sessions {
		reservations, err := s.Repo.ReservationsBySession(cs.ID)
		if err != nil {
			return nil, err
		}
		payload = append(payload, entities.SessionReservations{
			SessionID:    cs.ID,
			Name:         cs.Name,
			Reservations: toReservationResponses(reservations, loc),
		})
	}
	return payload, nil
}

// ReservationsBoard returns each session's reservations for one business-local
// calendar day.
func (s *ReservationService) ReservationsBoard(dateStr string) (*entities.SessionsResponse, error) {
	loc := timeutil.BusinessLocation()
	date, err := timeutil.ParseDate(dateStr)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	dayStart, dayEnd := timeutil.DayBoundsUTC(date, loc)

	sessions, err := s.Sessions.ListSessions()
	if err != nil {
		return nil, err
	}
	payload := make([]entities.SessionReservations, 0, len(sessions))
	for _, cs := range sessions {
		reservations, err := s.Repo.ReservationsBySessionAndDay(cs.ID, dayStart, dayEnd)
		if err != nil {
			return nil, err
		}
		payload = append(payload, entities.SessionReservations{
			SessionID:    cs.ID,
			Name:         cs.Name,
			Reservations: toReservationResponses(reservations, loc),
		})
	}
	return &entities.SessionsResponse{Sessions: payload}, nil
}

// VerifyPlate checks whether the plate already holds a reservation. With a
// full window it restricts to live reservations intersecting it; without one
// it is a plain duplicate-plate lookup.
func (s *ReservationService) VerifyPlate(req entities.PlateVerificationRequest) (*entities.PlateVerificationResponse, error) {
	loc := timeutil.BusinessLocation()
	normalized := schedule.NormalizePlate(req.Plate)

	var startPtr, endPtr *time.Time
	if req.Date != "" && req.StartTime != "" && req.EndTime != "" {
		startLocal, endLocal, err := combineWindow(req.Date, req.StartTime, req.EndTime, loc)
		if err != nil {
			return nil, err
		}
		start := startLocal.UTC()
		end := endLocal.UTC()
		startPtr, endPtr = &start, &end
	}

	conflict, err := s.Repo.FindConflictingByPlate(normalized, startPtr, endPtr)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return &entities.PlateVerificationResponse{
			Valid:                  false,
			Conflict:               true,
			Message:                "This vehicle already has a reservation in the requested time range.",
			ConflictingReservation: toReservationResponse(conflict, loc),
		}, nil
	}
	return &entities.PlateVerificationResponse{
		Valid:   true,
		Message: "The plate is available for booking.",
	}, nil
}

// MatchPlate answers whether a detected plate is authorized at the given
// instant: the single live reservation containing it, if any.
func (s *ReservationService) MatchPlate(req entities.PlateMatchRequest) (*entities.PlateMatchResponse, error) {
	at, err := parseTimestamp(req.Timestamp)
	if err != nil {
		return nil, err
	}
	res, err := s.Repo.FindActiveByPlateAt(schedule.NormalizePlate(req.Plate), at)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &entities.PlateMatchResponse{Plate: req.Plate, Match: false}, nil
	}
	return &entities.PlateMatchResponse{
		Plate:       req.Plate,
		Match:       true,
		Reservation: toReservationResponse(res, timeutil.BusinessLocation()),
	}, nil
}

// UserReservations lists reservations by contact email and/or plate, newest
// first.
func (s *ReservationService) UserReservations(email, plate string) ([]entities.ReservationResponse, error) {
	var plateNorm string
	if plate != "" {
		plateNorm = schedule.NormalizePlate(plate)
	}
	reservations, err := s.Repo.ReservationsForUser(email, plateNorm)
	if err != nil {
		return nil, err
	}
	return toReservationResponses(reservations, timeutil.BusinessLocation()), nil
}

// DeleteForOwner removes a reservation only when it matches the caller's
// contact email and/or plate.
func (s *ReservationService) DeleteForOwner(id, email, plate string) (bool, error) {
	var plateNorm string
	if plate != "" {
		plateNorm = schedule.NormalizePlate(plate)
	}
	return s.Repo.DeleteReservationForOwner(id, email, plateNorm)
}

// AdminDeleteReservation removes any reservation by id.
func (s *ReservationService) AdminDeleteReservation(id string) (bool, error) {
	return s.Repo.DeleteReservation(id)
}

// AdminCancelReservation marks a reservation CANCELLED, frees its slots and
// notifies the contact.
func (s *ReservationService) AdminCancelReservation(id string) error {
	res, err := s.Repo.GetReservation(id)
	if err != nil {
		return err
	}
	if err := s.Repo.CancelReservation(id); err != nil {
		return err
	}
	res.Status = schedule.StatusCancelled
	s.Sender.SendReservationEmail(res, "cancelled")
	return nil
}

// parseTimestamp accepts RFC 3339 (with or without a trailing Z) or a unix
// epoch in seconds or milliseconds, the formats camera clients send.
func parseTimestamp(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, apperrors.Validation("timestamp must not be empty")
	}
	if epoch, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if epoch > 1_000_000_000_000 {
			return time.UnixMilli(epoch).UTC(), nil
		}
		return time.Unix(epoch, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, apperrors.Validation("invalid timestamp %q", raw)
	}
	return t.UTC(), nil
}

func toReservationResponse(res *db.Reservation, loc *time.Location) *entities.ReservationResponse {
	startLocal := res.StartTime.In(loc)
	endLocal := res.EndTime.In(loc)
	return &entities.ReservationResponse{
		ID:           res.ID,
		SessionID:    res.SessionID,
		Plate:        res.Plate,
		Date:         startLocal.Format("2006-01-02"),
		StartTime:    startLocal.Format("15:04"),
		EndTime:      endLocal.Format("15:04"),
		Status:       schedule.ResolveStatus(res.Status, res.StartTime, res.EndTime, time.Now().UTC()),
		ContactEmail: res.ContactEmail,
	}
}

func toReservationResponses(reservations []*db.Reservation, loc *time.Location) []entities.ReservationResponse {
	out := make([]entities.ReservationResponse, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, *toReservationResponse(res, loc))
	}
	return out
}
