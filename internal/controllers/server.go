package controllers

import (
	"net/http"

	"github.com/cyverse/pdfa/internal/conversion"
	"github.com/cyverse/pdfa/internal/expansion"
	"github.com/cyverse/pdfa/internal/maintenance"
	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/internal/quota"
	"github.com/cyverse/pdfa/logging"
	"github.com/cyverse/pdfa/utils"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "controllers"})

// Server contains the dependencies shared by the HTTP handlers.
type Server struct {
	Router      *echo.Echo
	Service     string
	Title       string
	Version     string
	Ledger      *quota.Ledger
	Conversions *conversion.Orchestrator
	Expansions  *expansion.Orchestrator
	Maintenance *maintenance.Runner
	Formats     model.Formats
}

// clientIdentity returns the identity used for quota accounting for the client that sent the request.
func clientIdentity(ctx echo.Context) string {
	return utils.NormalizeIdentity(ctx.RealIP())
}

func httpStatusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, model.ErrDuplicatePending):
		return http.StatusConflict
	case errors.Is(err, model.ErrAlreadyExpanded):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrRendererFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// sendError logs an error and sends the corresponding error response. Quota errors carry the client's remaining
// allowance so that the client can retry with a smaller batch.
func sendError(ctx echo.Context, log *logrus.Entry, err error) error {
	status := httpStatusCode(err)
	if status == http.StatusInternalServerError {
		log.Error(err)
	} else {
		log.Debug(err)
	}

	var quotaErr *model.QuotaExceededError
	if errors.As(err, &quotaErr) {
		data := map[string]int{
			"requested_files":        quotaErr.Requested,
			"remaining_conversions":  quotaErr.Remaining,
			"daily_limit":            quotaErr.Limit,
			"conversions_used_today": quotaErr.Consumed,
		}
		return model.ErrorWithData(ctx, err.Error(), data, status)
	}

	return model.Error(ctx, err.Error(), status)
}

// RootHandler is the handler for the base URL, which acts as a health check.
//
// swagger:route GET / misc getRoot
//
// # General API Information
//
// Lists general information about the service API itself.
//
// responses:
//
//	200: rootResponse
func (s Server) RootHandler(ctx echo.Context) error {
	resp := model.RootResponse{
		Service: s.Service,
		Title:   s.Title,
		Version: s.Version,
	}
	return model.Success(ctx, resp, http.StatusOK)
}

// HealthHandler is the handler for the GET /v1/health endpoint.
//
// swagger:route GET /v1/health misc getHealth
//
// # Health Check
//
// Reports that the API is accepting requests.
//
// responses:
//
//	200: healthResponse
func (s Server) HealthHandler(ctx echo.Context) error {
	resp := model.HealthResponse{
		Service:   s.Title,
		Version:   s.Version,
		Status:    "online",
		Timestamp: s.Ledger.Now().UTC(),
	}
	return model.Success(ctx, resp, http.StatusOK)
}

// V1RootHandler is the handler for the base URL of version 1 of the API.
//
// swagger:route GET /v1 misc getV1Root
//
// # API Version Information
//
// Lists information about version 1 of the API.
//
// responses:
//
//	200: apiVersionResponse
func (s Server) V1RootHandler(ctx echo.Context) error {
	resp := model.APIVersionResponse{
		Service:    s.Service,
		Title:      s.Title,
		Version:    s.Version,
		APIVersion: "v1",
	}
	return model.Success(ctx, resp, http.StatusOK)
}
