package notify

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func testRequest() *model.ExpansionRequest {
	id := "5d1c3b3e-8e0f-11ef-b864-0242ac120002"
	company := "Example Lab"
	return &model.ExpansionRequest{
		ID:             &id,
		Identity:       "192.0.2.10",
		ContactEmail:   "researcher@example.org",
		ContactName:    "A. Researcher",
		Organization:   &company,
		Justification:  "We need to archive a large collection of scanned records.",
		RequestedLimit: 100,
		Status:         model.RequestPending,
		CreatedAt:      time.Date(2025, 8, 27, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(testRequest(), "admin@example.org")
	if msg.To != "admin@example.org" || msg.RequestedLimit != 100 || msg.Organization != "Example Lab" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	for _, want := range []string{
		"Request ID: 5d1c3b3e-8e0f-11ef-b864-0242ac120002",
		"IP address: 192.0.2.10",
		"Requested limit: 100 conversions per day",
		"Submitted at: 2025-08-27T12:00:00Z",
		"scanned records",
	} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("expected the body to contain %q:\n%s", want, msg.Body)
		}
	}
}

func TestLogNotifier(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := &LogNotifier{AdminEmail: "admin@example.org", Logger: logrus.NewEntry(logger)}

	if err := n.Notify(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry := hook.Entries[0]
	if entry.Level != logrus.InfoLevel || !strings.Contains(entry.Message, "A. Researcher") {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
	if entry.Data["request"] != "5d1c3b3e-8e0f-11ef-b864-0242ac120002" {
		t.Fatalf("expected the request ID to be logged: %v", entry.Data)
	}
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.subject = subject
	p.data = data
	return p.err
}

func TestNATSNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNATSNotifier(pub, "pdfa.expansion.requested", "admin@example.org")
	if err := n.Notify(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.subject != "pdfa.expansion.requested" {
		t.Fatalf("unexpected subject: %s", pub.subject)
	}
	var msg Message
	if err := json.Unmarshal(pub.data, &msg); err != nil {
		t.Fatalf("unable to decode the message: %v", err)
	}
	if msg.RequestID != "5d1c3b3e-8e0f-11ef-b864-0242ac120002" || msg.IPAddress != "192.0.2.10" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	pub.err = errors.New("connection closed")
	if err := n.Notify(context.Background(), testRequest()); err == nil {
		t.Fatalf("expected publish failures to be returned")
	}
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, *model.ExpansionRequest) error {
	c.calls++
	return c.err
}

func TestMulti(t *testing.T) {
	failing := &countingNotifier{err: errors.New("boom")}
	ok := &countingNotifier{}
	err := Multi{failing, ok}.Notify(context.Background(), testRequest())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected the failure to be reported, got %v", err)
	}
	if failing.calls != 1 || ok.calls != 1 {
		t.Fatalf("every notifier should be called")
	}
}
