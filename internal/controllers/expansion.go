package controllers

import (
	"net/http"

	"github.com/cyverse/pdfa/internal/httpmodel"
	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/internal/query"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// SubmitExpansionRequest is the handler for the POST /v1/expansion/request endpoint.
//
// swagger:route POST /v1/expansion/request expansion submitExpansionRequest
//
// # Request a Higher Daily Limit
//
// Submits a request to raise the client's daily conversion limit. A client may only have one pending request at a
// time and may not submit a request while an earlier expansion is still in effect.
//
// responses:
//
//	201: expansionRequestResponse
//	400: badRequestResponse
//	409: conflictResponse
//	500: internalServerErrorResponse
func (s Server) SubmitExpansionRequest(ctx echo.Context) error {
	var err error

	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "submitting expansion request", "identity": identity})

	context := ctx.Request().Context()

	var body httpmodel.NewExpansionRequest
	if err = ctx.Bind(&body); err != nil {
		return model.Error(ctx, "invalid request body", http.StatusBadRequest)
	}
	if err = body.Validate(); err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	req, err := s.Expansions.Submit(context, identity, body.ToSubmission(ctx.Request().UserAgent()))
	if err != nil {
		return sendError(ctx, log, err)
	}

	log.Infof("expansion request %s submitted", req.RequestID())

	return model.Success(ctx, req, http.StatusCreated)
}

// GetExpansionStatus is the handler for the GET /v1/expansion/status endpoint.
//
// swagger:route GET /v1/expansion/status expansion getExpansionStatus
//
// # Get Expansion Request Status
//
// Returns the client's most recent expansion request along with its current daily usage.
//
// responses:
//
//	200: expansionStatusResponse
//	404: notFoundResponse
//	500: internalServerErrorResponse
func (s Server) GetExpansionStatus(ctx echo.Context) error {
	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "getting expansion request status", "identity": identity})

	report, err := s.Expansions.Status(ctx.Request().Context(), identity)
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, report, http.StatusOK)
}

// ListExpansionHistory is the handler for the GET /v1/expansion/history endpoint.
//
// swagger:route GET /v1/expansion/history expansion listExpansionHistory
//
// # List Expansion Requests
//
// Lists the client's expansion requests, newest first.
//
// responses:
//
//	200: expansionListing
//	400: badRequestResponse
//	500: internalServerErrorResponse
func (s Server) ListExpansionHistory(ctx echo.Context) error {
	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "listing expansion requests", "identity": identity})

	page, perPage, err := query.ValidatePagination(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	listing, err := s.Expansions.History(ctx.Request().Context(), identity, page, perPage)
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, listing, http.StatusOK)
}

// GetExpansionInfo is the handler for the GET /v1/expansion/info endpoint.
//
// swagger:route GET /v1/expansion/info expansion getExpansionInfo
//
// # Get Expansion Request Information
//
// Describes whether the client may request a higher limit and what it may ask for.
//
// responses:
//
//	200: expansionInfoResponse
//	500: internalServerErrorResponse
func (s Server) GetExpansionInfo(ctx echo.Context) error {
	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "getting expansion request info", "identity": identity})

	info, err := s.Expansions.Info(ctx.Request().Context(), identity)
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, info, http.StatusOK)
}

// CancelExpansionRequest is the handler for the DELETE /v1/expansion/cancel endpoint.
//
// swagger:route DELETE /v1/expansion/cancel expansion cancelExpansionRequest
//
// # Cancel an Expansion Request
//
// Cancels the client's pending expansion request.
//
// responses:
//
//	200: expansionRequestResponse
//	404: notFoundResponse
//	409: conflictResponse
//	500: internalServerErrorResponse
func (s Server) CancelExpansionRequest(ctx echo.Context) error {
	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "cancelling expansion request", "identity": identity})

	req, err := s.Expansions.Cancel(ctx.Request().Context(), identity)
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, req, http.StatusOK)
}
