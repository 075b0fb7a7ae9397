package controllers

import (
	"net/http"
	"strings"

	"github.com/cyverse/pdfa/internal/conversion"
	"github.com/cyverse/pdfa/internal/httpmodel"
	"github.com/cyverse/pdfa/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ValidatePDF is the handler for the POST /v1/validate/pdf endpoint.
//
// swagger:route POST /v1/validate/pdf validate validatePDF
//
// # Validate a PDF File
//
// Examines a PDF file without converting it. The report indicates whether the file is readable, whether it already
// declares PDF/A conformance and how long a conversion is likely to take. No conversions are used.
//
// Consumes:
//   - multipart/form-data
//
// responses:
//
//	200: pdfReportResponse
//	400: badRequestResponse
//	500: internalServerErrorResponse
func (s Server) ValidatePDF(ctx echo.Context) error {
	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "validating file", "identity": identity})

	fh, err := ctx.FormFile("file")
	if err != nil {
		return model.Error(ctx, "the file to validate must be sent in the file form field", http.StatusBadRequest)
	}

	report, err := s.Conversions.Inspect(ctx.Request().Context(), uploadFromHeader(fh))
	if err != nil {
		return sendError(ctx, log, err)
	}

	return model.Success(ctx, report, http.StatusOK)
}

// CheckPDFA is the handler for the POST /v1/validate/pdf-a endpoint.
//
// swagger:route POST /v1/validate/pdf-a validate checkPDFA
//
// # Check PDF/A Conformance
//
// Reports whether a file already declares PDF/A conformance, and at which level. No conversions are used.
//
// Consumes:
//   - multipart/form-data
//
// responses:
//
//	200: pdfaCheckResponse
//	400: badRequestResponse
//	500: internalServerErrorResponse
func (s Server) CheckPDFA(ctx echo.Context) error {
	identity := clientIdentity(ctx)
	log := log.WithFields(logrus.Fields{"context": "checking PDF/A conformance", "identity": identity})

	fh, err := ctx.FormFile("file")
	if err != nil {
		return model.Error(ctx, "the file to check must be sent in the file form field", http.StatusBadRequest)
	}

	report, err := s.Conversions.Inspect(ctx.Request().Context(), uploadFromHeader(fh))
	if err != nil {
		return sendError(ctx, log, err)
	}

	check := model.PDFACheck{
		Filename:        fh.Filename,
		Size:            fh.Size,
		FormattedSize:   conversion.FormatBytes(fh.Size),
		Valid:           report.Valid,
		IsPDFA:          report.IsPDFA,
		PDFALevel:       report.PDFALevel,
		Recommendations: report.Recommendations,
	}
	if check.Recommendations == nil {
		check.Recommendations = []string{}
	}

	return model.Success(ctx, check, http.StatusOK)
}

// EstimateProcessing is the handler for the POST /v1/validate/estimate endpoint.
//
// swagger:route POST /v1/validate/estimate validate estimateProcessing
//
// # Estimate the Processing Time
//
// Estimates how long it will take to convert a file. The file may either be uploaded in the file form field or
// described by its size in bytes.
//
// responses:
//
//	200: estimateResponse
//	400: badRequestResponse
func (s Server) EstimateProcessing(ctx echo.Context) error {
	var size int64

	contentType := ctx.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		fh, err := ctx.FormFile("file")
		if err != nil {
			return model.Error(ctx, "the file must be sent in the file form field", http.StatusBadRequest)
		}
		size = fh.Size
	} else {
		var body httpmodel.EstimateRequest
		if err := ctx.Bind(&body); err != nil {
			return model.Error(ctx, "invalid request body", http.StatusBadRequest)
		}
		if err := body.Validate(); err != nil {
			return model.Error(ctx, err.Error(), http.StatusBadRequest)
		}
		size = body.FileSize
	}

	if size <= 0 {
		return model.Error(ctx, "the file is empty", http.StatusBadRequest)
	}

	return model.Success(ctx, conversion.Estimate(size), http.StatusOK)
}

// GetFormats is the handler for the GET /v1/validate/formats endpoint.
//
// swagger:route GET /v1/validate/formats validate getFormats
//
// # List Supported Formats
//
// Describes the files accepted by the service and the limits that apply to them.
//
// responses:
//
//	200: formatsResponse
func (s Server) GetFormats(ctx echo.Context) error {
	return model.Success(ctx, s.Formats, http.StatusOK)
}
