package logging

import (
	"fmt"
	"strings"

	gomodlog "github.com/cyverse-de/go-mod/logging"
	"github.com/cyverse/pdfa/config"
	"github.com/sirupsen/logrus"
)

// GetLogger returns the base log entry for the service. Packages derive their own entries from it.
func GetLogger() *logrus.Entry {
	return gomodlog.Log.WithFields(logrus.Fields{"service": config.ServiceName})
}

// LevelNames returns the accepted log level names, most verbose first.
func LevelNames() string {
	names := make([]string, 0, len(logrus.AllLevels))
	for i := len(logrus.AllLevels) - 1; i >= 0; i-- {
		names = append(names, logrus.AllLevels[i].String())
	}
	return strings.Join(names, ", ")
}

// SetupLogging configures the shared logger. Unknown level names are rejected instead of silently falling back to a
// default level.
func SetupLogging(level string) error {
	if _, err := logrus.ParseLevel(level); err != nil {
		return fmt.Errorf("invalid log level %q: expected one of %s", level, LevelNames())
	}
	gomodlog.SetupLogging(level)
	return nil
}
