package controllers

import (
	"fmt"
	"net/http"

	"github.com/cyverse-de/echo-middleware/v2/params"
	"github.com/cyverse/pdfa/internal/httpmodel"
	"github.com/cyverse/pdfa/internal/maintenance"
	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/internal/model/timestamp"
	"github.com/cyverse/pdfa/internal/query"
	"github.com/cyverse/pdfa/utils"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var requestStatuses = []string{
	string(model.RequestPending),
	string(model.RequestApproved),
	string(model.RequestRejected),
	string(model.RequestCancelled),
}

// extractRequestID extracts and validates the expansion request ID path parameter.
func extractRequestID(ctx echo.Context) (string, error) {
	requestID, err := params.ValidatedPathParam(ctx, "id", "uuid_rfc4122")
	if err != nil {
		return "", fmt.Errorf("the expansion request ID must be a valid UUID")
	}
	return requestID, nil
}

// extractIdentity extracts and validates the client address path parameter.
func extractIdentity(ctx echo.Context) (string, error) {
	ip, err := params.ValidatedPathParam(ctx, "ip", "ip")
	if err != nil {
		return "", fmt.Errorf("the client address must be a valid IP address")
	}
	return utils.NormalizeIdentity(ip), nil
}

// extractDecision parses the optional body of an approval or rejection.
func extractDecision(ctx echo.Context) (*httpmodel.AdminDecision, error) {
	var decision httpmodel.AdminDecision
	if err := ctx.Bind(&decision); err != nil {
		return nil, fmt.Errorf("invalid request body")
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}
	return &decision, nil
}

// ListExpansionRequests is the handler for the GET /v1/admin/expansions endpoint.
//
// swagger:route GET /v1/admin/expansions admin listExpansionRequests
//
// # List Expansion Requests
//
// Lists the expansion requests in a given state, oldest first. Pending requests are listed by default.
//
// responses:
//
//	200: expansionListing
//	400: badRequestResponse
//	500: internalServerErrorResponse
func (s Server) ListExpansionRequests(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "listing expansion requests for review"})

	defaultStatus := string(model.RequestPending)
	status, err := query.ValidateEnumQueryParam(ctx, "status", requestStatuses, &defaultStatus)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	page, perPage, err := query.ValidatePagination(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	listing, err := s.Expansions.Workflow().ListByStatus(
		ctx.Request().Context(), model.RequestStatus(status), page, perPage,
	)
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, listing, http.StatusOK)
}

// ApproveExpansionRequest is the handler for the POST /v1/admin/expansions/:id/approve endpoint.
//
// swagger:route POST /v1/admin/expansions/{id}/approve admin approveExpansionRequest
//
// # Approve an Expansion Request
//
// Approves a pending expansion request and raises the requester's daily limit.
//
// responses:
//
//	200: expansionRequestResponse
//	400: badRequestResponse
//	404: notFoundResponse
//	409: conflictResponse
//	500: internalServerErrorResponse
func (s Server) ApproveExpansionRequest(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "approving expansion request"})

	requestID, err := extractRequestID(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	decision, err := extractDecision(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	log = log.WithFields(logrus.Fields{"request": requestID})

	req, err := s.Expansions.Workflow().Approve(ctx.Request().Context(), requestID, decision.Notes)
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, req, http.StatusOK)
}

// RejectExpansionRequest is the handler for the POST /v1/admin/expansions/:id/reject endpoint.
//
// swagger:route POST /v1/admin/expansions/{id}/reject admin rejectExpansionRequest
//
// # Reject an Expansion Request
//
// Rejects a pending expansion request. The requester's daily limit isn't changed.
//
// responses:
//
//	200: expansionRequestResponse
//	400: badRequestResponse
//	404: notFoundResponse
//	409: conflictResponse
//	500: internalServerErrorResponse
func (s Server) RejectExpansionRequest(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "rejecting expansion request"})

	requestID, err := extractRequestID(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	decision, err := extractDecision(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	log = log.WithFields(logrus.Fields{"request": requestID})

	req, err := s.Expansions.Workflow().Reject(ctx.Request().Context(), requestID, decision.Notes)
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, req, http.StatusOK)
}

// RunMaintenance is the handler for the POST /v1/admin/maintenance/sweep endpoint.
//
// swagger:route POST /v1/admin/maintenance/sweep admin runMaintenance
//
// # Clear Expired Expansions
//
// Clears every expansion that expired before the as-of time, which defaults to the current time. Old conversions
// are removed as well if cleanup is true.
//
// responses:
//
//	200: maintenanceResponse
//	400: badRequestResponse
//	500: internalServerErrorResponse
func (s Server) RunMaintenance(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "running maintenance"})

	context := ctx.Request().Context()

	value, err := query.ValidatedQueryParam(ctx, "as-of", "omitempty,max=32")
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}
	asOf, err := timestamp.ParseOr(value, s.Ledger.Now())
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	defaultCleanup := false
	cleanup, err := query.ValidateBooleanQueryParam(ctx, "cleanup", &defaultCleanup)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	var report *maintenance.Report
	if cleanup {
		report, err = s.Maintenance.RunOnce(context, asOf)
	} else {
		report, err = s.Maintenance.Sweep(context, asOf)
	}
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, report, http.StatusOK)
}

// ClearQuotaExpansion is the handler for the POST /v1/admin/quotas/:ip/clear-expansion endpoint.
//
// swagger:route POST /v1/admin/quotas/{ip}/clear-expansion admin clearQuotaExpansion
//
// # Revoke an Expansion
//
// Restores the default daily limit for a client address, ending any expansion that is in effect. Conversions
// already used today still count against the restored limit.
//
// responses:
//
//	200: usageResponse
//	400: badRequestResponse
//	500: internalServerErrorResponse
func (s Server) ClearQuotaExpansion(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "revoking expansion"})

	identity, err := extractIdentity(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	log = log.WithFields(logrus.Fields{"identity": identity})

	record, err := s.Ledger.ClearExpansion(ctx.Request().Context(), identity, s.Ledger.Today())
	if err != nil {
		return sendError(ctx, log, err)
	}

	log.Info("expansion revoked")

	return model.Success(ctx, model.UsageFromRecord(record), http.StatusOK)
}

// ResetQuota is the handler for the POST /v1/admin/quotas/:ip/reset endpoint.
//
// swagger:route POST /v1/admin/quotas/{ip}/reset admin resetQuota
//
// # Reset Daily Usage
//
// Sets the number of conversions used today by a client address back to zero.
//
// responses:
//
//	200: usageResponse
//	400: badRequestResponse
//	500: internalServerErrorResponse
func (s Server) ResetQuota(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "resetting daily usage"})

	identity, err := extractIdentity(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	log = log.WithFields(logrus.Fields{"identity": identity})

	record, err := s.Ledger.Reset(ctx.Request().Context(), identity, s.Ledger.Today())
	if err != nil {
		return sendError(ctx, log, err)
	}

	log.Info("daily usage reset")

	return model.Success(ctx, model.UsageFromRecord(record), http.StatusOK)
}
