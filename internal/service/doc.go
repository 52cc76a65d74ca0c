// Package service contains the registration logic of the schema registry.
//
// RegistryService orchestrates between the domain repositories and the
// avro/convert packages:
// - RegisterAvroSchema / RegisterRedshiftSchema: validate, resolve the
//   target topic by compatibility, persist schema and elements
// - CheckAvroCompatibility / CheckRedshiftCompatibility: dry-run the
//   topic resolution
// - lookups over namespaces, sources, topics and schemas
// - schema status transitions (readonly, disabled)
//
// All operations accept context for cancellation support; registrations
// and status changes are serialized by a single writer lock.
package service
