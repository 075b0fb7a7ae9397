package model

import "time"

// RootResponse describes the service. It's returned by the base URL, which acts as a health check.
//
// swagger:model
type RootResponse struct {

	// The name of the service
	Service string `json:"service"`

	// The service title
	Title string `json:"title"`

	// The service version
	Version string `json:"version"`
}

// APIVersionResponse describes a single version of the API.
//
// swagger:model
type APIVersionResponse struct {

	// The name of the service
	Service string `json:"service"`

	// The service title
	Title string `json:"title"`

	// The service version
	Version string `json:"version"`

	// The API version
	APIVersion string `json:"api_version"`
}

// HealthResponse reports that the API is accepting requests.
//
// swagger:model
type HealthResponse struct {

	// The name of the service
	Service string `json:"service"`

	// The service version
	Version string `json:"version"`

	// Always online
	Status string `json:"status"`

	// The time the response was generated
	Timestamp time.Time `json:"timestamp"`
}
