package model

import "time"

// JobStatus is the state of a single file conversion.
type JobStatus string

// The states that a conversion job can be in. Completed and failed jobs are terminal.
const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Valid returns true if the status is one of the known job states.
func (s JobStatus) Valid() bool {
	switch s {
	case JobPending, JobProcessing, JobCompleted, JobFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transitions are possible from the status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobPending, JobProcessing:
		return false
	case JobCompleted, JobFailed:
		return true
	default:
		return true
	}
}

// CanTransitionTo determines whether a job in this state may move to the next state. Transitions are monotonic: a
// job never returns to pending once it has left it and terminal states are final.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobPending:
		return next == JobProcessing || next == JobCompleted || next == JobFailed
	case JobProcessing:
		return next == JobCompleted || next == JobFailed
	case JobCompleted, JobFailed:
		return false
	default:
		return false
	}
}

// ConversionJob records a single file's conversion attempt and its outcome.
//
// swagger:model
type ConversionJob struct {
	// The job identifier
	//
	// readOnly: true
	ID *string `gorm:"type:uuid;default:uuid_generate_v1()" json:"id,omitempty"`

	// The client IP address that submitted the file
	Identity string `gorm:"column:ip_address;not null;index" json:"-"`

	// The user agent of the client that submitted the file
	UserAgent *string `json:"-"`

	// The name of the uploaded file
	OriginalName string `gorm:"column:original_filename;not null" json:"original_filename"`

	// The size of the uploaded file in bytes
	OriginalSize int64 `gorm:"not null" json:"original_size"`

	// The storage key of the uploaded file
	OriginalKey *string `json:"-"`

	// The name of the converted file
	ConvertedName *string `gorm:"column:converted_filename" json:"converted_filename,omitempty"`

	// The size of the converted file in bytes
	ConvertedSize *int64 `json:"converted_size,omitempty"`

	// The storage key of the converted file
	ConvertedKey *string `json:"-"`

	// The number of pages in the uploaded file, if known
	PageCount *int `json:"page_count,omitempty"`

	// The job status
	Status JobStatus `gorm:"type:text;not null;index" json:"status"`

	// The reason the conversion failed
	Error *string `gorm:"column:error_message" json:"error_message,omitempty"`

	// The amount of time spent processing the file in milliseconds
	ProcessingDurationMs *int64 `gorm:"column:processing_time" json:"processing_time_ms,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name to use the database.
func (j *ConversionJob) TableName() string {
	return "conversion_jobs"
}

// JobID returns the job identifier or an empty string if the job hasn't been saved yet.
func (j *ConversionJob) JobID() string {
	if j.ID == nil {
		return ""
	}
	return *j.ID
}

// JobPage is a single page of a conversion job listing.
//
// swagger:model
type JobPage struct {
	// The jobs on this page
	Jobs []ConversionJob `json:"conversions"`

	// The pagination details
	Pagination Pagination `json:"pagination"`
}

// JobStats summarizes the conversions performed by an identity.
//
// swagger:model
type JobStats struct {
	// The current daily usage
	DailyUsage Usage `json:"daily_usage"`

	// The number of successful conversions ever recorded for the identity
	TotalConversions int64 `json:"total_conversions"`

	// The number of successful conversions recorded today
	TodayConversions int64 `json:"today_conversions"`
}
