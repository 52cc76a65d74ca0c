// Package domain defines the core business entities and interfaces for
// the schema registry.
//
// This package contains the registry models (Source, Topic, AvroSchema,
// SchemaElement) and repository interfaces that define the contract for
// data access. All interfaces accept context for cancellation and
// timeout support.
package domain
