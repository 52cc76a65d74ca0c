package domain

import (
	"context"
	"fmt"
	"time"
)

// SchemaStatus is the lifecycle state of a registered schema. Producers
// may only write with RW schemas; R schemas remain readable; Disabled
// schemas are hidden from normal lookups but never deleted.
type SchemaStatus string

const (
	StatusReadWrite SchemaStatus = "RW"
	StatusReadOnly  SchemaStatus = "R"
	StatusDisabled  SchemaStatus = "Disabled"
)

// Enabled reports whether the schema still participates in lookups and
// compatibility checks.
func (s SchemaStatus) Enabled() bool {
	return s != StatusDisabled
}

// ParseSchemaStatus validates a status string from the API surface.
func ParseSchemaStatus(value string) (SchemaStatus, error) {
	switch SchemaStatus(value) {
	case StatusReadWrite, StatusReadOnly, StatusDisabled:
		return SchemaStatus(value), nil
	}
	return "", fmt.Errorf("%w: unknown schema status %q", ErrInvalidInput, value)
}

// Source is a (namespace, name) pair schemas are registered under,
// unique on the pair.
type Source struct {
	ID         uint64    `boltholdKey:"ID" json:"source_id"`
	Namespace  string    `boltholdIndex:"Namespace" json:"namespace"`
	Name       string    `json:"source"`
	OwnerEmail string    `json:"source_owner_email"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Topic groups the mutually compatible schemas of one source. Names are
// globally unique.
type Topic struct {
	ID        uint64    `boltholdKey:"ID" json:"topic_id"`
	Name      string    `boltholdUnique:"Name" json:"name"`
	SourceID  uint64    `boltholdIndex:"SourceID" json:"source_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AvroSchema is one registered schema revision. SchemaJSON holds the
// canonical serialization, so equal schemas have equal text.
// BaseSchemaID points at the schema this one was derived from, as with
// schemas converted from SQL table definitions.
type AvroSchema struct {
	ID           uint64       `boltholdKey:"ID" json:"schema_id"`
	TopicID      uint64       `boltholdIndex:"TopicID" json:"topic_id"`
	SchemaJSON   string       `json:"schema"`
	Status       SchemaStatus `json:"status"`
	BaseSchemaID *uint64      `json:"base_schema_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// SchemaElement is one documentable node extracted from a registered
// schema: a record, enum, fixed or field, keyed the way the avro
// package keys elements.
type SchemaElement struct {
	ID          uint64 `boltholdKey:"ID" json:"id"`
	SchemaID    uint64 `boltholdIndex:"SchemaID" json:"schema_id"`
	Key         string `json:"key"`
	ElementType string `json:"element_type"`
	Doc         string `json:"doc,omitempty"`
}

type SourceRepository interface {
	Insert(ctx context.Context, source *Source) error
	GetByID(ctx context.Context, id uint64) (*Source, error)
	GetByNamespaceAndName(ctx context.Context, namespace, name string) (*Source, error)
	FindAll(ctx context.Context) ([]Source, error)
	FindByNamespace(ctx context.Context, namespace string) ([]Source, error)
	DistinctNamespaces(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}

type TopicRepository interface {
	Insert(ctx context.Context, topic *Topic) error
	GetByName(ctx context.Context, name string) (*Topic, error)
	FindBySourceID(ctx context.Context, sourceID uint64) ([]Topic, error)
	LatestBySourceID(ctx context.Context, sourceID uint64) (*Topic, error)
	Count(ctx context.Context) (int, error)
}

type SchemaRepository interface {
	Insert(ctx context.Context, schema *AvroSchema, elements []SchemaElement) error
	GetByID(ctx context.Context, id uint64) (*AvroSchema, error)
	FindByTopicID(ctx context.Context, topicID uint64, includeDisabled bool) ([]AvroSchema, error)
	LatestEnabledByTopicID(ctx context.Context, topicID uint64) (*AvroSchema, error)
	UpdateStatus(ctx context.Context, id uint64, status SchemaStatus) error
	ElementsBySchemaID(ctx context.Context, schemaID uint64) ([]SchemaElement, error)
	Count(ctx context.Context) (int, error)
}
