// Package handler implements the v1 HTTP API of the registry.
//
// This package provides JSON endpoints for:
// - /v1/namespaces, /v1/sources, /v1/topics: registry lookups
// - /v1/schemas/avro, /v1/schemas/redshift: schema registration
// - /v1/compatibility/schemas/*: dry-run compatibility checks
// - /v1/schemas/{schema_id}/status: readonly and disable transitions
// - /health, /status: liveness and registry counts
//
// All handlers extract context from requests and pass to services.
// Domain errors map onto status codes: invalid input 400, missing docs
// and unconvertible column types 422, unknown entities 404, duplicate
// keys 409, anything else 500.
package handler
