package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"ceramico/pkg/kafka"
	"ceramico/pkg/logger"
	"ceramico/pkg/model"
)

type mockSender struct {
	to      string
	subject string
	body    string
	calls   int
	err     error
}

func (m *mockSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.calls++
	m.to = to
	m.subject = subject
	m.body = htmlBody
	return m.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
}

func eventMessage(t *testing.T, event model.BookingEvent) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return kafka.Message{
		Key:     event.BookingID,
		Value:   payload,
		Headers: map[string]string{kafka.HeaderEventType: event.Type},
	}
}

func TestHandleMessage_ConfirmationEmail(t *testing.T) {
	sender := &mockSender{}
	n := New(sender, testLogger())

	event := model.BookingEvent{
		Type:          model.EventBookingConfirmed,
		BookingID:     "65f0000000000000000000aa",
		UserEmail:     "alice@example.com",
		UserName:      "Alice",
		WorkshopTitle: "Glazing Techniques",
		SessionDate:   time.Date(2024, 5, 6, 18, 30, 0, 0, time.UTC),
	}

	if err := n.HandleMessage(context.Background(), eventMessage(t, event)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sender.to != "alice@example.com" {
		t.Errorf("wrong recipient: %s", sender.to)
	}
	if !strings.Contains(sender.subject, "Glazing Techniques") {
		t.Errorf("subject missing workshop title: %s", sender.subject)
	}
	if !strings.Contains(sender.body, "Alice") {
		t.Errorf("body missing recipient name: %s", sender.body)
	}
}

func TestHandleMessage_CancellationMentionsRefund(t *testing.T) {
	sender := &mockSender{}
	n := New(sender, testLogger())

	event := model.BookingEvent{
		Type:          model.EventBookingCancelled,
		BookingID:     "65f0000000000000000000ab",
		UserEmail:     "bob@example.com",
		WorkshopTitle: "Handbuilding 101",
		SessionDate:   time.Date(2024, 5, 7, 10, 0, 0, 0, time.UTC),
		PaymentStatus: model.PaymentRefunded,
	}

	if err := n.HandleMessage(context.Background(), eventMessage(t, event)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(sender.body, "refunded") {
		t.Errorf("refund note missing from body: %s", sender.body)
	}
}

func TestHandleMessage_SendFailurePropagates(t *testing.T) {
	sender := &mockSender{err: fmt.Errorf("smtp unavailable")}
	n := New(sender, testLogger())

	event := model.BookingEvent{
		Type:      model.EventBookingConfirmed,
		BookingID: "65f0000000000000000000ac",
		UserEmail: "carol@example.com",
	}

	if err := n.HandleMessage(context.Background(), eventMessage(t, event)); err == nil {
		t.Fatal("expected send failure to propagate for retry")
	}
}

func TestHandleMessage_MissingRecipientSkipped(t *testing.T) {
	sender := &mockSender{}
	n := New(sender, testLogger())

	event := model.BookingEvent{
		Type:      model.EventBookingConfirmed,
		BookingID: "65f0000000000000000000ad",
	}

	if err := n.HandleMessage(context.Background(), eventMessage(t, event)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.calls != 0 {
		t.Errorf("no email should be sent without a recipient, got %d calls", sender.calls)
	}
}
