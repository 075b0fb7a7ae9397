// Package notify tells administrators about new expansion requests.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "notify"})

// Notifier delivers a notification about an expansion request.
type Notifier interface {
	Notify(ctx context.Context, req *model.ExpansionRequest) error
}

// Message is the notification sent for a new expansion request.
type Message struct {
	To             string    `json:"to"`
	Subject        string    `json:"subject"`
	RequestID      string    `json:"request_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Organization   string    `json:"company,omitempty"`
	IPAddress      string    `json:"ip_address"`
	RequestedLimit int       `json:"requested_limit"`
	Justification  string    `json:"justification"`
	SubmittedAt    time.Time `json:"submitted_at"`
	Body           string    `json:"body"`
}

// NewMessage builds the notification for a request.
func NewMessage(req *model.ExpansionRequest, adminEmail string) Message {
	msg := Message{
		To:             adminEmail,
		Subject:        fmt.Sprintf("New quota expansion request from %s", req.ContactName),
		RequestID:      req.RequestID(),
		Name:           req.ContactName,
		Email:          req.ContactEmail,
		IPAddress:      req.Identity,
		RequestedLimit: req.RequestedLimit,
		Justification:  req.Justification,
		SubmittedAt:    req.CreatedAt.UTC(),
	}
	if req.Organization != nil {
		msg.Organization = *req.Organization
	}
	msg.Body = msg.body()
	return msg
}

func (m Message) body() string {
	organization := m.Organization
	if organization == "" {
		organization = "not provided"
	}

	var sb strings.Builder
	sb.WriteString("A new daily limit expansion request has been submitted.\n\n")
	fmt.Fprintf(&sb, "Request ID: %s\n", m.RequestID)
	fmt.Fprintf(&sb, "Name: %s\n", m.Name)
	fmt.Fprintf(&sb, "Email: %s\n", m.Email)
	fmt.Fprintf(&sb, "Company: %s\n", organization)
	fmt.Fprintf(&sb, "IP address: %s\n", m.IPAddress)
	fmt.Fprintf(&sb, "Requested limit: %d conversions per day\n", m.RequestedLimit)
	fmt.Fprintf(&sb, "Submitted at: %s\n\n", m.SubmittedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Justification:\n%s\n", m.Justification)
	return sb.String()
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	AdminEmail string
	Logger     *logrus.Entry
}

// NewLogNotifier creates a notifier that logs each notification.
func NewLogNotifier(adminEmail string) *LogNotifier {
	return &LogNotifier{AdminEmail: adminEmail, Logger: log}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, req *model.ExpansionRequest) error {
	msg := NewMessage(req, n.AdminEmail)
	n.Logger.WithFields(logrus.Fields{
		"context":         "expansion request notification",
		"to":              msg.To,
		"request":         msg.RequestID,
		"requested_limit": msg.RequestedLimit,
	}).Info(msg.Subject)
	n.Logger.Debug(msg.Body)
	return nil
}

// Multi sends every notification to all of its notifiers.
type Multi []Notifier

// Notify implements Notifier. Every notifier is called even if an earlier one fails.
func (m Multi) Notify(ctx context.Context, req *model.ExpansionRequest) error {
	var failures []string
	for _, n := range m {
		if err := n.Notify(ctx, req); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return errors.Errorf("%d notifiers failed: %s", len(failures), strings.Join(failures, "; "))
	}
	return nil
}
