package entity

import (
	"strings"
	"time"
)

// Status represents the lifecycle status of a lab. Workflows may report
// arbitrary free-text statuses; the constants below cover the values this
// service assigns itself or maps to the webhook vocabulary.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// String implements the Stringer interface for Status
func (s Status) String() string {
	return string(s)
}

// WebhookValue maps an internal status to the content-management
// vocabulary. The mapping is total: any status outside the known set
// reports as "pending".
func (s Status) WebhookValue() string {
	switch s {
	case StatusReady:
		return "success"
	case StatusFailed:
		return "error"
	default:
		return "pending"
	}
}

// LabRecord is the sole persisted entity: one provisioned (or pending)
// lab environment, keyed by the generated student username.
type LabRecord struct {
	LabName       string     `json:"lab_name"`
	CloudProvider string     `json:"cloud_provider"`
	TTLSeconds    int        `json:"lab_ttl"`
	Username      string     `json:"username"`
	Password      string     `json:"password"`
	Email         string     `json:"email"`
	Status        Status     `json:"status"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	ErrorAt       *time.Time `json:"error_at,omitempty"`
}

// IsReady reports whether the lab has reached its terminal ready state
func (r *LabRecord) IsReady() bool {
	return r.Status == StatusReady
}

// MarkReady transitions the record to the terminal ready state
func (r *LabRecord) MarkReady(now time.Time) {
	r.Status = StatusReady
	r.StartedAt = &now
}

// MarkStatus records a non-ready status report. Repeated reports
// overwrite the previous status and error timestamp.
func (r *LabRecord) MarkStatus(status Status, now time.Time) {
	r.Status = status
	r.ErrorAt = &now
}

// WebhookLabID synthesizes the composite lab identifier used by the
// content-management webhook: lowercased cloud provider and lab name
// joined by a hyphen, or "unknown" when either is blank.
func (r *LabRecord) WebhookLabID() string {
	cloud := strings.ToLower(strings.TrimSpace(r.CloudProvider))
	name := strings.ToLower(strings.TrimSpace(r.LabName))
	if cloud == "" || name == "" {
		return "unknown"
	}
	return cloud + "-" + name
}

// ValidateForDestroy checks the record carries the fields required to
// rebuild a destroy workflow request
func (r *LabRecord) ValidateForDestroy() error {
	var missing []string
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if r.LabName == "" {
		missing = append(missing, "lab_name")
	}
	if r.CloudProvider == "" {
		missing = append(missing, "cloud_provider")
	}
	if len(missing) > 0 {
		return NewIncompleteRecordError(missing)
	}
	return nil
}

// LabWithTTL pairs a stored record with the store's remaining
// time-to-live in seconds. TTL is informational only: -1 means the key
// has no expiry, which is the normal case since records are stored
// without one.
type LabWithTTL struct {
	LabRecord
	TTL int64 `json:"ttl"`
}

// IncompleteRecordError reports which fields a stored record is missing
type IncompleteRecordError struct {
	Missing []string
}

// NewIncompleteRecordError creates an incomplete record error
func NewIncompleteRecordError(missing []string) *IncompleteRecordError {
	return &IncompleteRecordError{Missing: missing}
}

// Error implements the error interface
func (e *IncompleteRecordError) Error() string {
	return "lab record is missing fields: " + strings.Join(e.Missing, ", ")
}
