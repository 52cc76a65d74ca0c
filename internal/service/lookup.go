package service

import (
	"context"
	"fmt"

	"github.com/amaumene/schematizer/internal/domain"
)

// ListNamespaces returns the distinct namespaces of all registered
// sources, sorted.
func (s *RegistryService) ListNamespaces(ctx context.Context) ([]string, error) {
	return s.sourceRepo.DistinctNamespaces(ctx)
}

func (s *RegistryService) ListSources(ctx context.Context) ([]domain.Source, error) {
	return s.sourceRepo.FindAll(ctx)
}

func (s *RegistryService) ListSourcesByNamespace(ctx context.Context, namespace string) ([]domain.Source, error) {
	return s.sourceRepo.FindByNamespace(ctx, namespace)
}

func (s *RegistryService) GetSource(ctx context.Context, sourceID uint64) (*domain.Source, error) {
	return s.sourceRepo.GetByID(ctx, sourceID)
}

// ListTopicsBySource returns the source's topics in creation order.
// Unknown sources yield ErrNotFound rather than an empty list.
func (s *RegistryService) ListTopicsBySource(ctx context.Context, sourceID uint64) ([]domain.Topic, error) {
	if _, err := s.sourceRepo.GetByID(ctx, sourceID); err != nil {
		return nil, fmt.Errorf("looking up source: %w", err)
	}
	return s.topicRepo.FindBySourceID(ctx, sourceID)
}

func (s *RegistryService) LatestTopicBySource(ctx context.Context, sourceID uint64) (*domain.Topic, error) {
	if _, err := s.sourceRepo.GetByID(ctx, sourceID); err != nil {
		return nil, fmt.Errorf("looking up source: %w", err)
	}
	return s.topicRepo.LatestBySourceID(ctx, sourceID)
}

func (s *RegistryService) GetTopicByName(ctx context.Context, name string) (*domain.Topic, error) {
	return s.topicRepo.GetByName(ctx, name)
}

// ListSchemasByTopicName returns the topic's schemas in registration
// order, skipping disabled ones unless includeDisabled is set.
func (s *RegistryService) ListSchemasByTopicName(ctx context.Context, name string, includeDisabled bool) ([]domain.AvroSchema, error) {
	topic, err := s.topicRepo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("looking up topic: %w", err)
	}
	return s.schemaRepo.FindByTopicID(ctx, topic.ID, includeDisabled)
}

func (s *RegistryService) LatestSchemaByTopicName(ctx context.Context, name string) (*domain.AvroSchema, error) {
	topic, err := s.topicRepo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("looking up topic: %w", err)
	}
	return s.schemaRepo.LatestEnabledByTopicID(ctx, topic.ID)
}

// GetSchema returns a schema together with its extracted elements.
func (s *RegistryService) GetSchema(ctx context.Context, schemaID uint64) (*domain.AvroSchema, []domain.SchemaElement, error) {
	schema, err := s.schemaRepo.GetByID(ctx, schemaID)
	if err != nil {
		return nil, nil, err
	}
	elements, err := s.schemaRepo.ElementsBySchemaID(ctx, schemaID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading elements: %w", err)
	}
	return schema, elements, nil
}

// DisableSchema retires a schema from reads and writes. The schema row
// stays in place so existing data remains decodable.
func (s *RegistryService) DisableSchema(ctx context.Context, schemaID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schemaRepo.UpdateStatus(ctx, schemaID, domain.StatusDisabled)
}

// MarkSchemaReadonly stops new writes against a schema while keeping it
// readable.
func (s *RegistryService) MarkSchemaReadonly(ctx context.Context, schemaID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schemaRepo.UpdateStatus(ctx, schemaID, domain.StatusReadOnly)
}

// RegistryCounts is a point-in-time size snapshot of the registry.
type RegistryCounts struct {
	Namespaces int `json:"namespaces"`
	Sources    int `json:"sources"`
	Topics     int `json:"topics"`
	Schemas    int `json:"schemas"`
}

func (s *RegistryService) Counts(ctx context.Context) (*RegistryCounts, error) {
	namespaces, err := s.sourceRepo.DistinctNamespaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting namespaces: %w", err)
	}
	sources, err := s.sourceRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting sources: %w", err)
	}
	topics, err := s.topicRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting topics: %w", err)
	}
	schemas, err := s.schemaRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting schemas: %w", err)
	}

	return &RegistryCounts{
		Namespaces: len(namespaces),
		Sources:    sources,
		Topics:     topics,
		Schemas:    schemas,
	}, nil
}
