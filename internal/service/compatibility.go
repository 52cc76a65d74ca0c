package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/schematizer/internal/avro"
	"github.com/amaumene/schematizer/internal/domain"
)

// CheckAvroCompatibility reports whether the schema could register into
// the source's latest topic without starting a new one. Unknown sources
// yield ErrNotFound; a source without topics accepts anything.
func (s *RegistryService) CheckAvroCompatibility(ctx context.Context, schemaJSON, namespace, sourceName string) (bool, error) {
	schema, err := avro.Parse(schemaJSON)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrInvalidSchema, err)
	}
	return s.checkCompatibility(ctx, schema, namespace, sourceName)
}

// CheckRedshiftCompatibility answers the same question for a CREATE
// TABLE statement by converting it first.
func (s *RegistryService) CheckRedshiftCompatibility(ctx context.Context, statements []string, namespace, sourceName string) (bool, error) {
	schema, err := redshiftToAvro(statements)
	if err != nil {
		return false, err
	}
	return s.checkCompatibility(ctx, schema, namespace, sourceName)
}

func (s *RegistryService) checkCompatibility(ctx context.Context, schema avro.Schema, namespace, sourceName string) (bool, error) {
	source, err := s.sourceRepo.GetByNamespaceAndName(ctx, namespace, sourceName)
	if err != nil {
		return false, fmt.Errorf("looking up source: %w", err)
	}

	topic, err := s.topicRepo.LatestBySourceID(ctx, source.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("finding latest topic: %w", err)
	}
	return s.topicAccepts(ctx, topic.ID, schema)
}
