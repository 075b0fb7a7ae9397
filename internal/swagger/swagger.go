// Package api PDF/A Conversion Service
//
// Documentation of the PDF/A Conversion Service API
//
//	Schemes: http
//	BasePath: /
//	Version: V1
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package swagger

import (
	"github.com/cyverse/pdfa/internal/conversion"
	"github.com/cyverse/pdfa/internal/httpmodel"
	"github.com/cyverse/pdfa/internal/maintenance"
	"github.com/cyverse/pdfa/internal/model"
)

// Note: the comments in this package don't conform to the convention of including the name of the entity that the
// comment describes. The reason for this is because the comments appear as-is in the API documentation. Confusing
// documentation is produced when the structure names appear in the API documentation.

// Error
//
// Having the same object definition for multiple HTTP response status codes seems to confuse ReDoc, so we're using
// aliases as a workaround.
//
// swagger:response errorResponse
type ErrorResponse struct {

	// in: body
	Body struct {

		// A brief description of the error
		Error string `json:"error"`

		// The status of the request
		Status string `json:"status"`
	}
}

// Bad Request
//
// swagger:response badRequestResponse
type BadRequestResponse struct {
	ErrorResponse
}

// Not Found
//
// swagger:response notFoundResponse
type NotFoundResponse struct {
	ErrorResponse
}

// Conflict
//
// swagger:response conflictResponse
type ConflictResponse struct {
	ErrorResponse
}

// Internal Server Error
//
// swagger:response internalServerErrorResponse
type InternalServerErrorResponse struct {
	ErrorResponse
}

// Daily Limit Exceeded
//
// swagger:response quotaExceededResponse
type QuotaExceededResponse struct {

	// in: body
	Body struct {

		// A brief description of the error
		Error string `json:"error"`

		// The status of the request
		Status string `json:"status"`

		// The client's remaining allowance
		Result struct {
			RequestedFiles       int `json:"requested_files"`
			RemainingConversions int `json:"remaining_conversions"`
			DailyLimit           int `json:"daily_limit"`
			ConversionsUsedToday int `json:"conversions_used_today"`
		} `json:"result"`
	}
}

// Documentation for the successful response body wrapper. The `Error` field could be included here as well, but it's
// being omitted for now simply because it produces less confusing documentation when the erorr and success response
// bodies are treated separately.
//
// swagger:model
type ResponseBodyWrapper struct {

	// The status of the request
	Status string `json:"status"`
}

// Service Information
//
// swagger:response rootResponse
type RootResponseWrapper struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The service information
		Result model.RootResponse `json:"result"`
	}
}

// Health Check
//
// swagger:response healthResponse
type HealthResponseWrapper struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The health information
		Result model.HealthResponse `json:"result"`
	}
}

// Service API Version Information
//
// swagger:response apiVersionResponse
type APIVersionResponseWrapper struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The API version information
		Result model.APIVersionResponse `json:"result"`
	}
}

// Conversions

// Parameters for the endpoint used to convert files.
//
// swagger:parameters convertPDFs
type ConvertPDFsParameters struct {

	// The files to convert
	//
	// in: formData
	// required: true
	// swagger:file
	Files []byte `json:"files"`
}

// Conversion Batch Results
//
// swagger:response conversionBatchResponse
type ConversionBatchResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The results of the batch
		Result conversion.BatchResult `json:"result"`
	}
}

// Parameters for the endpoint used to check the remaining conversions.
//
// swagger:parameters checkUsage
type CheckUsageParameters struct {

	// in: body
	Body httpmodel.UsageCheck
}

// Usage Check Results
//
// swagger:response usageCheckResponse
type UsageCheckResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The result of the check
		Result conversion.Check `json:"result"`
	}
}

// Conversion ID
//
// swagger:parameters getConversion downloadConversion
type ConversionIDParameter struct {

	// The conversion identifier
	//
	// in: path
	// required: true
	ID string `json:"id"`
}

// Conversion Details
//
// swagger:response conversionResponse
type ConversionResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The conversion details
		Result model.ConversionJob `json:"result"`
	}
}

// Converted File
//
// swagger:response pdfFile
type PDFFile struct {

	// in: body
	// swagger:file
	Body []byte
}

// Paging parameters.
//
// swagger:parameters listConversions listExpansionHistory listExpansionRequests
type PagingParameters struct {

	// The one-based page number
	//
	// in: query
	// minimum: 1
	Page int `json:"page"`

	// The number of items per page
	//
	// in: query
	// minimum: 1
	// maximum: 100
	PerPage int `json:"per-page"`
}

// Conversion Listing
//
// swagger:response conversionListing
type ConversionListing struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The page of conversions
		Result model.JobPage `json:"result"`
	}
}

// Conversion Statistics
//
// swagger:response statsResponse
type StatsResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The statistics
		Result model.JobStats `json:"result"`
	}
}

// Daily Usage
//
// swagger:response usageResponse
type UsageResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The daily usage
		Result model.Usage `json:"result"`
	}
}

// Expansion Requests

// Parameters for the endpoint used to submit expansion requests.
//
// swagger:parameters submitExpansionRequest
type SubmitExpansionRequestParameters struct {

	// in: body
	Body httpmodel.NewExpansionRequest
}

// Expansion Request Details
//
// swagger:response expansionRequestResponse
type ExpansionRequestResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The expansion request
		Result model.ExpansionRequest `json:"result"`
	}
}

// Expansion Request Status
//
// swagger:response expansionStatusResponse
type ExpansionStatusResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The most recent request and the current usage
		Result model.RequestStatusReport `json:"result"`
	}
}

// Expansion Request Listing
//
// swagger:response expansionListing
type ExpansionListing struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The page of requests
		Result model.RequestPage `json:"result"`
	}
}

// Expansion Request Information
//
// swagger:response expansionInfoResponse
type ExpansionInfoResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The expansion request information
		Result model.ExpansionInfo `json:"result"`
	}
}

// Validation

// Parameters for the endpoint used to validate files.
//
// swagger:parameters validatePDF checkPDFA
type ValidatePDFParameters struct {

	// The file to validate
	//
	// in: formData
	// required: true
	// swagger:file
	File []byte `json:"file"`
}

// PDF Report
//
// swagger:response pdfReportResponse
type PDFReportResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The report
		Result model.PDFReport `json:"result"`
	}
}

// PDF/A Conformance Check
//
// swagger:response pdfaCheckResponse
type PDFACheckResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The conformance check
		Result model.PDFACheck `json:"result"`
	}
}

// Parameters for the endpoints that manage a client's daily quota.
//
// swagger:parameters clearQuotaExpansion resetQuota
type QuotaAddressParameters struct {

	// The client IP address
	//
	// in: path
	// required: true
	IP string `json:"ip"`
}

// Parameters for the endpoint used to estimate processing times.
//
// swagger:parameters estimateProcessing
type EstimateProcessingParameters struct {

	// in: body
	Body httpmodel.EstimateRequest
}

// Processing Time Estimate
//
// swagger:response estimateResponse
type EstimateResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The estimate
		Result model.Estimate `json:"result"`
	}
}

// Supported Formats
//
// swagger:response formatsResponse
type FormatsResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The supported formats and limits
		Result model.Formats `json:"result"`
	}
}

// Administration

// Parameters for the endpoint used to list expansion requests for review.
//
// swagger:parameters listExpansionRequests
type ListExpansionRequestsParameters struct {

	// The status of the requests to list
	//
	// in: query
	// enum: pending,approved,rejected,cancelled
	Status string `json:"status"`
}

// Parameters for the endpoints used to approve or reject expansion requests.
//
// swagger:parameters approveExpansionRequest rejectExpansionRequest
type AdminDecisionParameters struct {

	// The expansion request identifier
	//
	// in: path
	// required: true
	ID string `json:"id"`

	// in: body
	Body httpmodel.AdminDecision
}

// Parameters for the endpoint used to run maintenance.
//
// swagger:parameters runMaintenance
type RunMaintenanceParameters struct {

	// Expansions that expired before this time are cleared. Defaults to the current time.
	//
	// in: query
	AsOf string `json:"as-of"`

	// If `true`, conversions older than the retention period are removed as well.
	//
	// in: query
	Cleanup *bool `json:"cleanup"`
}

// Maintenance Report
//
// swagger:response maintenanceResponse
type MaintenanceResponse struct {

	// in:body
	Body struct {
		ResponseBodyWrapper

		// The maintenance report
		Result maintenance.Report `json:"result"`
	}
}
