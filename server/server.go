package server

import (
	"context"
	"fmt"
	"time"

	"github.com/cyverse/pdfa/config"
	"github.com/cyverse/pdfa/internal/controllers"
	"github.com/cyverse/pdfa/internal/conversion"
	"github.com/cyverse/pdfa/internal/db"
	"github.com/cyverse/pdfa/internal/expansion"
	"github.com/cyverse/pdfa/internal/jobs"
	"github.com/cyverse/pdfa/internal/maintenance"
	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/internal/notify"
	"github.com/cyverse/pdfa/internal/pdfinfo"
	"github.com/cyverse/pdfa/internal/quota"
	"github.com/cyverse/pdfa/internal/render"
	"github.com/cyverse/pdfa/internal/storage"
	"github.com/cyverse/pdfa/internal/throttle"
	"github.com/cyverse/pdfa/logging"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "server"})

// Version is the service version reported by the root endpoints. It's set at build time.
var Version = "dev"

// InitNotifier builds the notifier used to tell the administrator about new expansion requests. Notifications are
// always logged and are also published to NATS when a cluster is configured.
func InitNotifier(spec *config.Specification) (notify.Notifier, error) {
	notifiers := notify.Multi{notify.NewLogNotifier(spec.AdminEmail)}

	if spec.NatsCluster != "" {
		conn, err := notify.Connect(spec)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, notify.NewNATSNotifier(conn, spec.NotifySubject, spec.AdminEmail))
		log.Infof("publishing expansion request notifications to %s", spec.NotifySubject)
	}

	return notifiers, nil
}

// InitLimiter builds the API call limiter. Redis is used when it's configured so that the limit is shared by every
// instance of the service; otherwise each instance keeps its own counters in memory.
func InitLimiter(ctx context.Context, spec *config.Specification) (throttle.Limiter, error) {
	if spec.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     spec.RedisAddr,
			Password: spec.RedisPassword,
		})
		log.Infof("sharing API call limits through redis at %s", spec.RedisAddr)
		return throttle.NewRedisLimiter(client, "pdfa:throttle", spec.ThrottlePerMinute, time.Minute)
	}

	limiter := throttle.NewMemoryLimiter(spec.ThrottlePerMinute)
	limiter.StartJanitor(ctx, 10*time.Minute)
	return limiter, nil
}

// Formats describes the files accepted by the service.
func Formats(spec *config.Specification) model.Formats {
	return model.Formats{
		InputFormats:   []string{conversion.PDFContentType},
		OutputFormats:  []string{fmt.Sprintf("PDF/A-%sb", spec.PDFAVersion)},
		MaxFileSizeKB:  spec.MaxFileSizeKB,
		MaxFiles:       spec.MaxFiles,
		PDFAVersion:    spec.PDFAVersion,
		DailyLimit:     spec.DefaultDailyLimit,
		RetentionDays:  spec.RetentionDays,
		MaxRequestable: spec.MaxRequestedLimit,
	}
}

func Init(spec *config.Specification) {
	log := log.WithFields(logrus.Fields{"context": "server init"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, err := InitRouter(spec)
	if err != nil {
		log.Fatalf("service initialization failed: %s", err.Error())
	}

	// Establish the database connection.
	log.Info("establishing the database connection")
	_, gormdb, err := db.Init("postgres", spec.DatabaseURI)
	if err != nil {
		log.Fatalf("service initialization failed: %s", err.Error())
	}

	// Set up the file store.
	store, err := storage.New(spec)
	if err != nil {
		log.Fatalf("unable to initialize the file store: %s", err.Error())
	}

	notifier, err := InitNotifier(spec)
	if err != nil {
		log.Fatalf("unable to initialize the notifier: %s", err.Error())
	}

	limiter, err := InitLimiter(ctx, spec)
	if err != nil {
		log.Fatalf("unable to initialize the API call limiter: %s", err.Error())
	}

	ledger := quota.New(db.NewQuotaRepository(gormdb), spec.DefaultDailyLimit)
	tracker := jobs.NewTracker(db.NewJobRepository(gormdb), ledger)

	renderer := render.NewGhostscript(spec.GhostscriptPath, spec.PDFAVersion, spec.ColorConversion)
	conversions := conversion.NewOrchestrator(ledger, tracker, renderer, store, pdfinfo.New(), conversion.Settings{
		MaxFiles:      spec.MaxFiles,
		MaxFileSizeKB: spec.MaxFileSizeKB,
		MaxPages:      spec.MaxPages,
		Concurrency:   spec.Concurrency,
		RenderTimeout: spec.RenderTimeout,
		WorkDir:       spec.WorkDir,
	})

	workflow := expansion.NewWorkflow(
		db.NewRequestRepository(gormdb), ledger, notifier, spec.MaxRequestedLimit, spec.ExpansionDays,
	)

	runner := maintenance.NewRunner(ledger, conversions, spec.RetentionDays)
	runner.Start(ctx, spec.MaintenanceEvery)

	s := controllers.Server{
		Router:      e,
		Service:     "pdfa",
		Title:       "CyVerse PDF/A Conversion Service",
		Version:     Version,
		Ledger:      ledger,
		Conversions: conversions,
		Expansions:  expansion.NewOrchestrator(workflow),
		Maintenance: runner,
		Formats:     Formats(spec),
	}

	// Register the handlers.
	RegisterHandlers(s, limiter)

	log.Info("starting the service")
	log.Fatal(e.Start(fmt.Sprintf(":%d", spec.ListenPort)))
}
