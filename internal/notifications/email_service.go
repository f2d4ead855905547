package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"text/template"

	"dejair/internal/bookings"
	"dejair/internal/payments"
	"dejair/internal/shared/config"
	"dejair/pkg/logger"
)

// EmailService interface for sending emails
type EmailService interface {
	SendBookingNotification(ctx context.Context, to, name string, notification *BookingNotification) error
}

// subjects by event type; unknown types fall back to a generic line.
var emailSubjects = map[string]string{
	bookings.EventBookingCreated:       "Your DejAir booking is confirmed as received",
	bookings.EventNegotiationRequested: "We received your price negotiation request",
	bookings.EventNegotiationCountered: "Your counter offer has been submitted",
	bookings.EventNegotiationAccepted:  "Your negotiated price has been accepted",
	bookings.EventNegotiationRejected:  "Update on your price negotiation",
	payments.EventPaymentSuccess:       "Payment received - your flight is booked",
	payments.EventPaymentFailed:        "Your payment could not be completed",
}

var bodyTemplate = template.Must(template.New("body").Parse(`Hello {{.Name}},

{{.Line}}

Booking reference: {{.BookingID}}
{{if .Amount}}Amount: KES {{.Amount}}
{{end}}{{if .Reason}}Details: {{.Reason}}
{{end}}
Thank you for flying with DejAir.
`))

var emailLines = map[string]string{
	bookings.EventBookingCreated:       "We have received your charter booking request. Our team will review it shortly.",
	bookings.EventNegotiationRequested: "Your price negotiation request has been logged and is awaiting review.",
	bookings.EventNegotiationCountered: "Your counter offer has been logged and is awaiting review.",
	bookings.EventNegotiationAccepted:  "Good news: the negotiated price has been accepted. You can now proceed to payment.",
	bookings.EventNegotiationRejected:  "Unfortunately your negotiation request was not accepted and the booking has been closed.",
	payments.EventPaymentSuccess:       "We have received your payment. Your charter flight is confirmed.",
	payments.EventPaymentFailed:        "Your payment attempt did not complete. You can retry payment from your booking page.",
}

// SMTPEmailService sends booking emails over SMTP with STARTTLS.
type SMTPEmailService struct {
	cfg config.EmailConfig
	log *logger.Logger
}

func NewSMTPEmailService(cfg config.EmailConfig) *SMTPEmailService {
	return &SMTPEmailService{
		cfg: cfg,
		log: logger.GetDefault(),
	}
}

func (s *SMTPEmailService) SendBookingNotification(ctx context.Context, to, name string, notification *BookingNotification) error {
	subject, ok := emailSubjects[notification.Type]
	if !ok {
		subject = "Update on your DejAir booking"
	}

	var body bytes.Buffer
	data := struct {
		Name      string
		Line      string
		BookingID string
		Amount    *int64
		Reason    string
	}{
		Name:      name,
		Line:      emailLines[notification.Type],
		BookingID: notification.BookingID.String(),
		Amount:    notification.Amount,
		Reason:    notification.Reason,
	}
	if err := bodyTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email body: %w", err)
	}

	message := s.buildMessage(to, subject, body.String())
	if err := s.send(to, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.Debug("notification email sent", "to", to, "type", notification.Type)
	return nil
}

func (s *SMTPEmailService) buildMessage(to, subject, body string) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: DejAir <%s>\r\n", s.cfg.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return msg.Bytes()
}

// send delivers the message with STARTTLS, which is what Gmail and most
// relays expect on port 587.
func (s *SMTPEmailService) send(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}
	if err = client.StartTLS(tlsconfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	if err = client.Mail(s.cfg.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}
