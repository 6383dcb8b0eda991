package api

import (
	"time"

	"github.com/pawzhq/pawz-api/internal/domain"
)

// EnqueueCandidateRequest is the request body for enqueueing a candidate.
// Exactly one of PayloadText and PayloadBase64 must be set, matching
// SourceType: text profiles arrive as plain text, PDFs as base64.
type EnqueueCandidateRequest struct {
	JobID         string `json:"job_id"         validate:"required,uuid"`
	SourceURL     string `json:"source_url"     validate:"omitempty,url"`
	SourceType    string `json:"source_type"    validate:"required,oneof=text pdf"`
	Priority      string `json:"priority"       validate:"omitempty,oneof=normal high"`
	Model         string `json:"model"          validate:"omitempty"`
	PayloadText   string `json:"payload_text"   validate:"required_without=PayloadBase64,excluded_with=PayloadBase64"`
	PayloadBase64 string `json:"payload_base64" validate:"required_without=PayloadText,excluded_with=PayloadText,omitempty,base64"`
}

// CreateJobRequest is the request body for creating a job.
type CreateJobRequest struct {
	Title    string             `json:"title"     validate:"required,max=200"`
	RawBrief string             `json:"raw_brief" validate:"omitempty,max=20000"`
	Criteria domain.JobCriteria `json:"criteria"`
}

// ParseJobRequest is the request body for structuring a raw job description.
type ParseJobRequest struct {
	RawBrief string `json:"raw_brief" validate:"required,max=20000"`
}

// UpdateSettingsRequest is the request body for updating service settings.
// An empty APIKey leaves the stored key untouched.
type UpdateSettingsRequest struct {
	APIKey  string `json:"api_key"  validate:"omitempty,min=8"`
	ModelID string `json:"model_id" validate:"required"`
}

// UpdateWeightsRequest is the request body for replacing the scoring weights.
type UpdateWeightsRequest struct {
	Name   string             `json:"name"   validate:"required,max=100"`
	Values map[string]float64 `json:"values" validate:"required,min=1,dive,gte=0,lte=1"`
}

// SettingsResponse is the settings payload returned to clients. The API key
// is never echoed back, only whether one is configured.
type SettingsResponse struct {
	ModelID      string `json:"model_id"`
	APIKeySet    bool   `json:"api_key_set"`
	ActiveTuning string `json:"active_tuning,omitempty"`
}

// QueueStatsResponse summarizes the queue by status.
type QueueStatsResponse struct {
	Pending    int       `json:"pending"`
	Processing int       `json:"processing"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
	AsOf       time.Time `json:"as_of"`
}
