package server

import (
	"fmt"
	"net"

	"github.com/cyverse-de/echo-middleware/v2/redoc"
	"github.com/cyverse/pdfa/config"
	"github.com/cyverse/pdfa/internal/controllers"
	"github.com/cyverse/pdfa/internal/throttle"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	echolog "github.com/spirosoik/echo-logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// ipExtractor determines how client addresses are obtained. The X-Forwarded-For header is only trusted when the
// request comes from one of the trusted proxy networks; otherwise the address of the peer is used.
func ipExtractor(trustedProxies []string) (echo.IPExtractor, error) {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect(), nil
	}

	options := make([]echo.TrustOption, len(trustedProxies))
	for i, cidr := range trustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid trusted proxy network: %s", cidr)
		}
		options[i] = echo.TrustIPRange(network)
	}

	return echo.ExtractIPFromXFFHeader(options...), nil
}

func InitRouter(spec *config.Specification) (*echo.Echo, error) {
	log := log.WithFields(logrus.Fields{"context": "router"})

	// Create the web server.
	e := echo.New()

	// Set a custom logger.
	echoLogger := echolog.NewLoggerMiddleware(log)
	e.Logger = echoLogger

	// Determine how client addresses are extracted.
	extractor, err := ipExtractor(spec.TrustedProxies)
	if err != nil {
		return nil, err
	}
	e.IPExtractor = extractor

	// Add middleware.
	e.Use(otelecho.Middleware(config.ServiceName))
	e.Use(echoLogger.Hook())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit(spec)))
	e.Use(redoc.Serve(redoc.Opts{Title: "CyVerse PDF/A Conversion Service"}))

	return e, nil
}

// bodyLimit returns the largest request body accepted by the server, which has to accommodate a full batch of files.
func bodyLimit(spec *config.Specification) string {
	limitKB := spec.MaxFileSizeKB*spec.MaxFiles + 1024
	return fmt.Sprintf("%dK", limitKB)
}

func registerPDFEndpoints(pdf *echo.Group, s *controllers.Server) {
	// Converts a batch of files.
	pdf.POST("/convert", s.ConvertPDFs)

	// Checks whether a number of files could be converted right now.
	pdf.POST("/check", s.CheckUsage)

	// Returns the status of a single conversion.
	pdf.GET("/status/:id", s.GetConversion)

	// Downloads a converted file.
	pdf.GET("/download/:id", s.DownloadConversion)

	// Lists the client's conversions.
	pdf.GET("/history", s.ListConversions)

	// Summarizes the client's conversions.
	pdf.GET("/stats", s.GetStats)
}

func registerExpansionEndpoints(expansions *echo.Group, s *controllers.Server) {
	// Submits a request for a higher daily limit.
	expansions.POST("/request", s.SubmitExpansionRequest)

	// Returns the client's most recent request.
	expansions.GET("/status", s.GetExpansionStatus)

	// Lists the client's requests.
	expansions.GET("/history", s.ListExpansionHistory)

	// Describes what the client may request.
	expansions.GET("/info", s.GetExpansionInfo)

	// Cancels the client's pending request.
	expansions.DELETE("/cancel", s.CancelExpansionRequest)
}

func registerValidationEndpoints(validate *echo.Group, s *controllers.Server) {
	// Examines a file without converting it.
	validate.POST("/pdf", s.ValidatePDF)

	// Estimates the processing time for a file.
	validate.POST("/estimate", s.EstimateProcessing)

	// Reports whether a file already declares PDF/A conformance.
	validate.POST("/pdf-a", s.CheckPDFA)

	// Lists the accepted formats and limits.
	validate.GET("/formats", s.GetFormats)
}

// Note: the administrative endpoints aren't authenticated by the service itself. They're expected to be exposed only
// on an internal network or behind an authenticating proxy.
func registerAdminEndpoints(admin *echo.Group, s *controllers.Server) {
	// Lists expansion requests for review.
	admin.GET("/expansions", s.ListExpansionRequests)

	// Approves a pending expansion request.
	admin.POST("/expansions/:id/approve", s.ApproveExpansionRequest)

	// Rejects a pending expansion request.
	admin.POST("/expansions/:id/reject", s.RejectExpansionRequest)

	// Revokes a client's expansion.
	admin.POST("/quotas/:ip/clear-expansion", s.ClearQuotaExpansion)

	// Resets a client's usage for the current day.
	admin.POST("/quotas/:ip/reset", s.ResetQuota)

	// Clears expired expansions on demand.
	admin.POST("/maintenance/sweep", s.RunMaintenance)
}

func RegisterHandlers(s controllers.Server, limiter throttle.Limiter) {

	// The base URL acts as a health check endpoint.
	s.Router.GET("/", s.RootHandler)

	// API version 1 endpoints.
	v1 := s.Router.Group("/v1")
	if limiter != nil {
		v1.Use(throttle.Middleware(limiter))
	}
	v1.GET("", s.V1RootHandler)
	v1.GET("/health", s.HealthHandler)

	pdf := v1.Group("/pdf")
	registerPDFEndpoints(pdf, &s)

	v1.GET("/quota", s.GetQuota)

	expansions := v1.Group("/expansion")
	registerExpansionEndpoints(expansions, &s)

	validate := v1.Group("/validate")
	registerValidationEndpoints(validate, &s)

	admin := v1.Group("/admin")
	registerAdminEndpoints(admin, &s)
}
