package model

// PDFReport describes an uploaded file as seen before conversion.
//
// swagger:model
type PDFReport struct {
	// True if the file is a readable PDF document
	Valid bool `json:"is_valid"`

	// True if the file already declares PDF/A conformance
	IsPDFA bool `json:"is_pdf_a"`

	// The declared PDF/A conformance level, for example PDF/A-1b
	PDFALevel string `json:"pdf_a_level,omitempty"`

	// The PDF version from the file header
	Version string `json:"pdf_version,omitempty"`

	// The number of pages in the document
	PageCount int `json:"page_count"`

	// The detected media type of the file
	MimeType string `json:"mime_type"`

	// Problems found in the file
	Issues []string `json:"issues"`

	// Suggestions for the client
	Recommendations []string `json:"recommendations"`

	// True if the file can be submitted for conversion
	CanConvert bool `json:"can_convert"`

	// The estimated processing time, if the file can be converted
	Estimate *Estimate `json:"estimate,omitempty"`
}

// PDFACheck reports whether an uploaded file already declares PDF/A conformance.
//
// swagger:model
type PDFACheck struct {
	// The name of the uploaded file
	Filename string `json:"filename"`

	// The size of the uploaded file in bytes
	Size int64 `json:"size"`

	// The size of the uploaded file in a human readable format
	FormattedSize string `json:"formatted_size"`

	// True if the file is a readable PDF document
	Valid bool `json:"is_valid"`

	// True if the file already declares PDF/A conformance
	IsPDFA bool `json:"is_pdf_a"`

	// The declared PDF/A conformance level, for example PDF/A-1b
	PDFALevel string `json:"pdf_a_level,omitempty"`

	// Suggestions for the client
	Recommendations []string `json:"recommendations"`
}

// Estimate is a rough prediction of how long a conversion will take.
//
// swagger:model
type Estimate struct {
	// The estimated processing time in milliseconds
	Milliseconds int64 `json:"estimated_time"`

	// The estimated processing time in a human readable format
	Human string `json:"estimated_time_human"`

	// One of low, medium or high
	Complexity string `json:"complexity_score"`

	// The factors that were taken into account
	Factors []string `json:"factors"`
}

// Formats describes the files accepted by the service.
//
// swagger:model
type Formats struct {
	InputFormats   []string `json:"input_formats"`
	OutputFormats  []string `json:"output_formats"`
	MaxFileSizeKB  int      `json:"max_file_size_kb"`
	MaxFiles       int      `json:"max_files_per_request"`
	PDFAVersion    string   `json:"pdf_a_version"`
	DailyLimit     int      `json:"default_daily_limit"`
	RetentionDays  int      `json:"retention_days"`
	MaxRequestable int      `json:"max_requested_limit"`
}
