// SPDX-License-Identifier: MIT

// Package telemetry provides OpenTelemetry tracing utilities.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	StorageBackendKey = "storage.backend" // "alist" | "webdav"
	StorageOpKey      = "storage.op"      // list, move, copy, ...
	StoragePathKey    = "storage.path"

	SessionIDKey = "session.id"
	SeriesIDKey  = "series.id"

	MaterializeModeKey = "materialize.mode" // "organize" | "strm"
	MaterializeTaskKey = "materialize.task"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// StorageAttributes creates span attributes for a single storage operation.
func StorageAttributes(backend, op, path string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(StorageBackendKey, backend),
		attribute.String(StorageOpKey, op),
		attribute.String(StoragePathKey, path),
	}
}

// SessionAttributes creates span attributes identifying the owning session.
func SessionAttributes(sessionID string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String(SessionIDKey, sessionID)}
}

// MaterializeAttributes creates span attributes for a materializer task.
func MaterializeAttributes(mode, task string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(MaterializeModeKey, mode),
		attribute.String(MaterializeTaskKey, task),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
