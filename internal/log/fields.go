// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID     = "session_id"
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"
	FieldJobID         = "job_id"
	FieldSeriesID      = "series_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOp        = "op"
	FieldOutcome   = "outcome"
	FieldDuration  = "duration_ms"

	// Storage fields
	FieldBackend    = "backend"
	FieldPath       = "path"
	FieldBaseURL    = "base_url"
	FieldTargetPath = "target_path"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
)
