package logger

// Temporary field name constants for structured logging
// These constants provide type safety and prevent typos when adding temporary fields to logs.
//
// Usage:
//   logger.With(ctx, logger.FieldBindAddress, addr).Info("Server starting")
//
// For high-frequency fields (>10 occurrences), use helper functions instead (e.g., WithError).

// Server/Config related fields
const (
	FieldBindAddress = "bind_address"
	FieldEnvironment = "environment"
	FieldLogLevel    = "level"
	FieldLogFormat   = "format"
	FieldLogOutput   = "output"
)

// Reconciliation related fields
// Note: resource_type, resource_id, adapter, pulse_id are context fields (see context.go)
const (
	FieldKind               = "kind"
	FieldGeneration         = "generation"
	FieldObservedGeneration = "observed_generation"
	FieldConditionType      = "condition_type"
	FieldConditionStatus    = "condition_status"
	FieldOutcome            = "outcome"
	FieldPhase              = "phase"
	FieldReason             = "reason"
	FieldTaskState          = "task_state"
	FieldExternalRef        = "external_ref"
	FieldNextWake           = "next_wake"
	FieldTTL                = "ttl"
)

// Database related fields
const (
	FieldMigrationID = "migration_id"
	// FieldConnectionString - WARNING: Always sanitize connection strings before logging
	// to prevent exposing passwords. Never log raw connection strings.
	FieldConnectionString = "connection_string"
	FieldTable            = "table"
	FieldChannel          = "channel"
	// Note: transaction_id is a context field (see context.go)
)

// OpenTelemetry related fields
const (
	FieldOTelEnabled      = "otel_enabled"
	FieldSamplingRate     = "sampling_rate"
	FieldExporterEndpoint = "exporter_endpoint"
)

// Generic fields
const (
	FieldErrorCode = "error_code"
	FieldFlag      = "flag"
	FieldData      = "data"
	FieldCount     = "count"
)

// Endpoint related fields (used in handlers and clients)
const (
	FieldEndpoint = "endpoint"
)

// Note: HTTP-related field constants are defined in http.go
// Note: For error field, use WithError(ctx, err) helper function instead of FieldError constant
