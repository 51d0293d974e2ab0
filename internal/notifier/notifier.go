// Package notifier turns booking lifecycle events into customer emails.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"ceramico/pkg/kafka"
	"ceramico/pkg/logger"
	"ceramico/pkg/mailer"
	"ceramico/pkg/model"
)

var confirmedTmpl = template.Must(template.New("confirmed").Parse(`
<p>Hi {{.Name}},</p>
<p>Your spot in <strong>{{.WorkshopTitle}}</strong> on {{.SessionDate}} is confirmed.</p>
<p>We look forward to seeing you at the studio.</p>
`))

var cancelledTmpl = template.Must(template.New("cancelled").Parse(`
<p>Hi {{.Name}},</p>
<p>Your booking for <strong>{{.WorkshopTitle}}</strong> on {{.SessionDate}} has been cancelled.</p>
{{if .Refunded}}<p>Your payment has been refunded and should arrive within a few business days.</p>{{end}}
`))

type emailData struct {
	Name          string
	WorkshopTitle string
	SessionDate   string
	Refunded      bool
}

// Notifier consumes booking events and emails the affected customer.
// Returning an error hands the message back to the consumer's retry and DLQ
// policy; the booking ledger itself is never touched from here.
type Notifier struct {
	sender mailer.Sender
	log    *logger.Logger
}

func New(sender mailer.Sender, log *logger.Logger) *Notifier {
	return &Notifier{sender: sender, log: log}
}

// HandleMessage is the kafka.MessageHandler for the booking-events topic.
func (n *Notifier) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event model.BookingEvent
	if err := msg.Decode(&event); err != nil {
		// Malformed payloads are permanent failures; let the DLQ keep them.
		return fmt.Errorf("decoding booking event: %w", err)
	}

	if event.UserEmail == "" {
		n.log.Warn("Booking event has no recipient, skipping",
			"booking_id", event.BookingID,
			"type", event.Type,
		)
		return nil
	}

	subject, body, err := render(event)
	if err != nil {
		return err
	}
	if subject == "" {
		n.log.Debug("Ignoring unhandled event type", "type", event.Type)
		return nil
	}

	if err := n.sender.Send(ctx, event.UserEmail, subject, body); err != nil {
		return fmt.Errorf("sending %s email for booking %s: %w", event.Type, event.BookingID, err)
	}

	n.log.Info("Notification sent",
		"booking_id", event.BookingID,
		"type", event.Type,
		"to", event.UserEmail,
	)
	return nil
}

func render(event model.BookingEvent) (subject, body string, err error) {
	name := event.UserName
	if name == "" {
		name = "there"
	}

	data := emailData{
		Name:          name,
		WorkshopTitle: event.WorkshopTitle,
		SessionDate:   event.SessionDate.Format("Monday, 2 January 2006 at 15:04"),
		Refunded:      event.PaymentStatus == model.PaymentRefunded,
	}

	var tmpl *template.Template
	switch event.Type {
	case model.EventBookingConfirmed:
		subject = fmt.Sprintf("You're booked: %s", event.WorkshopTitle)
		tmpl = confirmedTmpl
	case model.EventBookingCancelled:
		subject = fmt.Sprintf("Booking cancelled: %s", event.WorkshopTitle)
		tmpl = cancelledTmpl
	default:
		return "", "", nil
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("rendering %s email: %w", event.Type, err)
	}
	return subject, buf.String(), nil
}
