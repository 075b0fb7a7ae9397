package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cyverse/pdfa/config"
	"github.com/cyverse/pdfa/internal/conversion"
	"github.com/cyverse/pdfa/internal/db"
	"github.com/cyverse/pdfa/internal/jobs"
	"github.com/cyverse/pdfa/internal/maintenance"
	"github.com/cyverse/pdfa/internal/model/timestamp"
	"github.com/cyverse/pdfa/internal/quota"
	"github.com/cyverse/pdfa/internal/storage"
	"github.com/cyverse/pdfa/logging"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
	"github.com/pkg/errors"
)

const envPrefix = "PDFA_"

// envKey converts an environment variable name to a configuration key. Only the first underscore separates the
// section from the setting name, so PDFA_QUOTA_DEFAULT_LIMIT becomes quota.default_limit.
func envKey(name string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(name, envPrefix)), "_", ".", 1)
}

// loadConfig loads configuration settings from the environment. We're using koanf directly here so that the
// configuration files don't have to be present to run the maintenance utility.
func loadConfig() (*config.Specification, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", envKey), nil)
	if err != nil {
		return nil, err
	}

	return config.FromKoanf(k)
}

// buildRunner wires the maintenance tasks to the database and the file store. The conversion orchestrator is only
// used to remove old conversions, so it doesn't need a renderer or an inspector.
func buildRunner(spec *config.Specification, cleanup bool) (*maintenance.Runner, error) {
	_, gormdb, err := db.Init("postgres", spec.DatabaseURI)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to the database")
	}

	ledger := quota.New(db.NewQuotaRepository(gormdb), spec.DefaultDailyLimit)
	if !cleanup {
		return maintenance.NewRunner(ledger, nil, 0), nil
	}

	store, err := storage.New(spec)
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize the file store")
	}

	tracker := jobs.NewTracker(db.NewJobRepository(gormdb), ledger)
	conversions := conversion.NewOrchestrator(ledger, tracker, nil, store, nil, conversion.Settings{})

	return maintenance.NewRunner(ledger, conversions, spec.RetentionDays), nil
}

func main() {
	var (
		asOfValue = flag.String("as-of", "", "Clear expansions that expired before this time (default: now)")
		cleanup   = flag.Bool("cleanup", false, "Also remove conversions older than the retention period")
		logLevel  = flag.String("log-level", "info", "One of "+logging.LevelNames())
	)

	flag.Parse()
	if err := logging.SetupLogging(*logLevel); err != nil {
		log.Fatal(err)
	}

	asOf, err := timestamp.ParseOr(*asOfValue, time.Now())
	if err != nil {
		log.Fatalf("invalid as-of time: %s", err)
	}

	// Load the configuration.
	spec, err := loadConfig()
	if err != nil {
		log.Fatalf("unable to load the configuration: %s", err)
	}

	runner, err := buildRunner(spec, *cleanup)
	if err != nil {
		log.Fatal(err)
	}

	report, err := runner.RunOnce(context.Background(), asOf)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("cleared %d expired expansions as of %s\n", report.ExpiredExpansions, report.AsOf.Format(time.RFC3339))
	if *cleanup {
		fmt.Printf("removed %d conversions older than %d days\n", report.RemovedJobs, spec.RetentionDays)
	}
}
