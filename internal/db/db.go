// Package db contains the PostgreSQL implementations of the quota, job and expansion request repositories.
package db

import (
	"database/sql"
	"net/url"

	"github.com/cyverse-de/dbutil"
	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/logging"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "db"})

// PendingRequestIndex is the name of the partial unique index that allows at most one pending expansion request per
// address.
const PendingRequestIndex = "expansion_requests_one_pending_per_ip"

// Postgres error codes that have special meaning to the repositories.
const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

// withUTC adds the time zone parameter to a database URI. Usage days are stored as dates, so the session time zone
// has to be UTC for dates and timestamps to agree.
func withUTC(databaseURI string) string {
	u, err := url.Parse(databaseURI)
	if err != nil || u.Scheme == "" {
		return databaseURI
	}
	q := u.Query()
	if q.Get("timezone") == "" {
		q.Set("timezone", "UTC")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Init establishes the database connection and wraps it in a GORM session with tracing enabled.
func Init(driverName, databaseURI string) (*sql.DB, *gorm.DB, error) {
	wrapMsg := "unable to initialize the database"

	connector, err := dbutil.NewDefaultConnector("1m")
	if err != nil {
		return nil, nil, errors.Wrap(err, wrapMsg)
	}

	db, err := connector.Connect(driverName, withUTC(databaseURI))
	if err != nil {
		return nil, nil, errors.Wrap(err, wrapMsg)
	}

	gormdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		return nil, nil, errors.Wrap(err, wrapMsg)
	}

	if err = gormdb.Use(otelgorm.NewPlugin()); err != nil {
		return nil, nil, errors.Wrap(err, wrapMsg)
	}

	log.Info("connected to the database")

	return db, gormdb, nil
}

// translate converts database errors to the errors used by the rest of the service.
func translate(err error, wrapMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(model.ErrNotFound, wrapMsg)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			if pqErr.Constraint == PendingRequestIndex {
				return model.ErrDuplicatePending
			}
		case invalidTextRepresentation:
			// Malformed identifiers can't refer to anything.
			return errors.Wrap(model.ErrNotFound, wrapMsg)
		}
	}

	return errors.Wrap(err, wrapMsg)
}
