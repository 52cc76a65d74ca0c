// Package storage provides BoltDB-based implementations of domain repositories.
//
// This package contains concrete implementations of SourceRepository,
// TopicRepository and SchemaRepository using BoltHold for data persistence.
// All operations support context cancellation and proper error wrapping, and
// a schema is always persisted together with its extracted elements in a
// single transaction.
package storage
