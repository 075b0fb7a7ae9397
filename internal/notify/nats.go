package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cyverse/pdfa/config"
	"github.com/cyverse/pdfa/internal/model"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// Connect establishes the connection to the NATS cluster.
func Connect(spec *config.Specification) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(config.ServiceName),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(spec.MaxReconnects),
		nats.ReconnectWait(time.Duration(spec.ReconnectWait) * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Errorf("disconnected from nats: %s", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			if err := nc.LastError(); err != nil {
				log.Errorf("connection closed: %s", err.Error())
			}
		}),
	}
	if spec.CredsPath != "" {
		opts = append(opts, nats.UserCredentials(spec.CredsPath))
	}
	if spec.CACertPath != "" {
		opts = append(opts, nats.RootCAs(spec.CACertPath))
	}
	if spec.TLSCertPath != "" && spec.TLSKeyPath != "" {
		opts = append(opts, nats.ClientCert(spec.TLSCertPath, spec.TLSKeyPath))
	}

	nc, err := nats.Connect(spec.NatsCluster, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to nats")
	}

	log.Infof("configured servers: %s", strings.Join(nc.Servers(), " "))
	log.Infof("connected to NATS host: %s", nc.ConnectedServerName())

	return nc, nil
}

// Publisher is the part of a NATS connection used to send notifications.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes notifications as JSON messages.
type NATSNotifier struct {
	conn       Publisher
	subject    string
	adminEmail string
}

// NewNATSNotifier creates a notifier that publishes to the given subject.
func NewNATSNotifier(conn Publisher, subject, adminEmail string) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject, adminEmail: adminEmail}
}

// Notify implements Notifier.
func (n *NATSNotifier) Notify(_ context.Context, req *model.ExpansionRequest) error {
	data, err := json.Marshal(NewMessage(req, n.adminEmail))
	if err != nil {
		return errors.Wrap(err, "unable to encode the notification")
	}
	if err = n.conn.Publish(n.subject, data); err != nil {
		return errors.Wrapf(err, "unable to publish to %s", n.subject)
	}
	return nil
}
