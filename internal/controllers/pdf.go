package controllers

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/cyverse-de/echo-middleware/v2/params"
	"github.com/cyverse/pdfa/internal/conversion"
	"github.com/cyverse/pdfa/internal/httpmodel"
	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/internal/query"
	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// extractJobID extracts and validates the conversion job ID path parameter.
func extractJobID(ctx echo.Context) (string, error) {
	jobID, err := params.ValidatedPathParam(ctx, "id", "uuid_rfc4122")
	if err != nil {
		return "", fmt.Errorf("the conversion ID must be a valid UUID")
	}
	return jobID, nil
}

// uploadFromHeader wraps a multipart file so that the conversion orchestrator can open it as often as it needs to.
func uploadFromHeader(fh *multipart.FileHeader) conversion.Upload {
	return conversion.Upload{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// sniffPDF verifies that the content of an uploaded file looks like a PDF document regardless of its name.
func sniffPDF(fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return errors.Wrapf(err, "unable to read %s", fh.Filename)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return errors.Wrapf(err, "unable to determine the content type of %s", fh.Filename)
	}
	if !mtype.Is(conversion.PDFContentType) {
		return model.NewValidationError("files", "%s is not a PDF file: detected %s", fh.Filename, mtype.String())
	}

	return nil
}

// ConvertPDFs is the handler for the POST /v1/pdf/convert endpoint.
//
// swagger:route POST /v1/pdf/convert pdf convertPDFs
//
// # Convert Files to PDF/A
//
// Converts a batch of PDF files to PDF/A. The batch is refused if the client doesn't have enough conversions left
// today for every file in it. Each file that converts successfully uses one conversion.
//
// Consumes:
//   - multipart/form-data
//
// responses:
//
//	200: conversionBatchResponse
//	400: badRequestResponse
//	422: conversionBatchResponse
//	429: quotaExceededResponse
//	500: internalServerErrorResponse
func (s Server) ConvertPDFs(ctx echo.Context) error {
	var err error

	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "converting files", "identity": identity})

	context := ctx.Request().Context()

	form, err := ctx.MultipartForm()
	if err != nil {
		return model.Error(ctx, "the files to convert must be sent as multipart form data", http.StatusBadRequest)
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["files[]"]
	}

	uploads := make([]conversion.Upload, len(headers))
	for i, fh := range headers {
		if err = sniffPDF(fh); err != nil {
			return sendError(ctx, log, err)
		}
		uploads[i] = uploadFromHeader(fh)
	}

	result, err := s.Conversions.Convert(context, identity, ctx.Request().UserAgent(), uploads)
	if err != nil {
		return sendError(ctx, log, err)
	}

	if !result.Success {
		return model.ErrorWithData(ctx, "none of the files could be converted", result, http.StatusUnprocessableEntity)
	}

	return model.Success(ctx, result, http.StatusOK)
}

// CheckUsage is the handler for the POST /v1/pdf/check endpoint.
//
// swagger:route POST /v1/pdf/check pdf checkUsage
//
// # Check Remaining Conversions
//
// Reports whether the client could convert the given number of files right now. No conversions are used.
//
// responses:
//
//	200: usageCheckResponse
//	400: badRequestResponse
//	500: internalServerErrorResponse
func (s Server) CheckUsage(ctx echo.Context) error {
	var err error

	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "checking usage", "identity": identity})

	context := ctx.Request().Context()

	var body httpmodel.UsageCheck
	if err = ctx.Bind(&body); err != nil {
		return model.Error(ctx, "invalid request body", http.StatusBadRequest)
	}
	if err = body.Validate(); err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	check, err := s.Conversions.CheckUsage(context, identity, body.Count())
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, check, http.StatusOK)
}

// GetConversion is the handler for the GET /v1/pdf/status/:id endpoint.
//
// swagger:route GET /v1/pdf/status/{id} pdf getConversion
//
// # Get Conversion Status
//
// Returns the status of one of the client's conversions.
//
// responses:
//
//	200: conversionResponse
//	400: badRequestResponse
//	404: notFoundResponse
//	500: internalServerErrorResponse
func (s Server) GetConversion(ctx echo.Context) error {
	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "getting conversion status", "identity": identity})

	context := ctx.Request().Context()

	jobID, err := extractJobID(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	job, err := s.Conversions.GetJob(context, jobID, identity)
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, job, http.StatusOK)
}

// DownloadConversion is the handler for the GET /v1/pdf/download/:id endpoint.
//
// swagger:route GET /v1/pdf/download/{id} pdf downloadConversion
//
// # Download a Converted File
//
// Downloads the PDF/A file produced by one of the client's completed conversions.
//
// Produces:
//   - application/pdf
//
// responses:
//
//	200: pdfFile
//	400: badRequestResponse
//	404: notFoundResponse
//	500: internalServerErrorResponse
func (s Server) DownloadConversion(ctx echo.Context) error {
	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "downloading converted file", "identity": identity})

	context := ctx.Request().Context()

	jobID, err := extractJobID(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	download, err := s.Conversions.Download(context, jobID, identity)
	if err != nil {
		return sendError(ctx, log, err)
	}
	defer download.Body.Close()

	header := ctx.Response().Header()
	header.Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": download.Name}))
	header.Set(echo.HeaderContentLength, strconv.FormatInt(download.Size, 10))

	return ctx.Stream(http.StatusOK, conversion.PDFContentType, download.Body)
}

// ListConversions is the handler for the GET /v1/pdf/history endpoint.
//
// swagger:route GET /v1/pdf/history pdf listConversions
//
// # List Conversions
//
// Lists the client's conversions, newest first.
//
// responses:
//
//	200: conversionListing
//	400: badRequestResponse
//	500: internalServerErrorResponse
func (s Server) ListConversions(ctx echo.Context) error {
	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "listing conversions", "identity": identity})

	context := ctx.Request().Context()

	page, perPage, err := query.ValidatePagination(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	listing, err := s.Conversions.ListJobs(context, identity, page, perPage)
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, listing, http.StatusOK)
}

// GetStats is the handler for the GET /v1/pdf/stats endpoint.
//
// swagger:route GET /v1/pdf/stats pdf getStats
//
// # Get Conversion Statistics
//
// Summarizes the client's conversions along with its current daily usage.
//
// responses:
//
//	200: statsResponse
//	500: internalServerErrorResponse
func (s Server) GetStats(ctx echo.Context) error {
	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "getting conversion stats", "identity": identity})

	stats, err := s.Conversions.Stats(ctx.Request().Context(), identity)
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, stats, http.StatusOK)
}

// GetQuota is the handler for the GET /v1/quota endpoint.
//
// swagger:route GET /v1/quota quota getQuota
//
// # Get Daily Usage
//
// Returns the client's daily limit and the number of conversions it has used today.
//
// responses:
//
//	200: usageResponse
//	500: internalServerErrorResponse
func (s Server) GetQuota(ctx echo.Context) error {
	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "getting daily usage", "identity": identity})

	usage, err := s.Ledger.Info(ctx.Request().Context(), identity)
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, usage, http.StatusOK)
}
