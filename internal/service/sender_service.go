package service

import (
	"fmt"
	"log"
	"time"

	"evcharging/internal/db"
	"evcharging/internal/timeutil"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SenderService struct {
	APIKey    string
	FromEmail string
	FromName  string
}

func NewSenderService(apiKey, fromEmail, fromName string) *SenderService {
	if fromName == "" {
		fromName = "EV Charging Hub"
	}
	return &SenderService{APIKey: apiKey, FromEmail: fromEmail, FromName: fromName}
}

// SendReservationEmail notifies the reservation's contact about a lifecycle
// event ("confirmed", "cancelled"). Sends asynchronously; a failure is
// logged, never surfaced, so notification problems cannot fail a booking.
func (s *SenderService) SendReservationEmail(res *db.Reservation, event string) {
	if res.ContactEmail == "" {
		return
	}
	loc := timeutil.BusinessLocation()

	subject := fmt.Sprintf("Your charging reservation is %s - %s", event, res.Plate)
	body := fmt.Sprintf(
		"Hello,\n\nYour charging reservation has been %s.\n\n"+
			"Reservation Details:\n"+
			"Charging session: %d\n"+
			"Vehicle plate: %s\n"+
			"Start: %s\n"+
			"End: %s\n\n"+
			"Thank you for using the EV Charging Hub.",
		event,
		res.SessionID,
		res.Plate,
		res.StartTime.In(loc).Format("02 Jan 2006 15:04 MST"),
		res.EndTime.In(loc).Format("02 Jan 2006 15:04 MST"),
	)

	go func(toEmail, subject, body, reservationID string) {
		if err := s.sendWithSendGrid(toEmail, subject, body); err != nil {
			log.Printf("Failed to send %s email for reservation %s: %v", event, reservationID, err)
		}
	}(res.ContactEmail, subject, body, res.ID)
}

func (s *SenderService) sendWithSendGrid(toEmail, subject, body string) error {
	if s.APIKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY is not configured")
	}
	if s.FromEmail == "" {
		return fmt.Errorf("SENDGRID_FROM_EMAIL is not configured")
	}

	from := mail.NewEmail(s.FromName, s.FromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, body)

	client := sendgrid.NewSendClient(s.APIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("send email via SendGrid: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("SendGrid returned status %d: %s", response.StatusCode, response.Body)
	}
	log.Printf("Email sent to %s (subject: %s) at %s", toEmail, subject, time.Now().UTC().Format(time.RFC3339))
	return nil
}
