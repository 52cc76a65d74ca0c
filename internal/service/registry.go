package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/amaumene/schematizer/internal/avro"
	"github.com/amaumene/schematizer/internal/domain"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RegistryService implements schema registration on top of the domain
// repositories. Registrations are serialized by a single writer lock so
// topic resolution and the idempotency check observe a stable store.
type RegistryService struct {
	mu         sync.Mutex
	sourceRepo domain.SourceRepository
	topicRepo  domain.TopicRepository
	schemaRepo domain.SchemaRepository
}

func NewRegistryService(sourceRepo domain.SourceRepository, topicRepo domain.TopicRepository, schemaRepo domain.SchemaRepository) *RegistryService {
	return &RegistryService{
		sourceRepo: sourceRepo,
		topicRepo:  topicRepo,
		schemaRepo: schemaRepo,
	}
}

// RegisterAvroRequest carries one avro schema registration.
type RegisterAvroRequest struct {
	SchemaJSON       string
	Namespace        string
	Source           string
	SourceOwnerEmail string
	BaseSchemaID     *uint64
}

// RegisterAvroSchema validates and registers a schema for a source. The
// schema lands in the source's latest topic when it is full-compatible
// with every enabled schema already there, otherwise in a fresh topic.
// Re-registering the latest schema returns the stored row unchanged.
func (s *RegistryService) RegisterAvroSchema(ctx context.Context, req RegisterAvroRequest) (*domain.AvroSchema, error) {
	if err := validateSourceInput(req.Namespace, req.Source, req.SourceOwnerEmail); err != nil {
		return nil, err
	}

	schema, err := avro.Parse(req.SchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchema, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.register(ctx, schema, req.Namespace, req.Source, req.SourceOwnerEmail, req.BaseSchemaID)
}

func (s *RegistryService) register(ctx context.Context, schema avro.Schema, namespace, sourceName, ownerEmail string, baseSchemaID *uint64) (*domain.AvroSchema, error) {
	source, err := s.getOrCreateSource(ctx, namespace, sourceName, ownerEmail)
	if err != nil {
		return nil, err
	}

	topic, latest, err := s.resolveTopic(ctx, source, schema)
	if err != nil {
		return nil, err
	}

	canonical := schema.String()
	if latest != nil && latest.SchemaJSON == canonical && equalBaseSchemaID(latest.BaseSchemaID, baseSchemaID) {
		log.WithFields(log.Fields{
			"schemaID": latest.ID,
			"topic":    topic.Name,
		}).Info("schema already registered, returning existing")
		return latest, nil
	}

	elements, err := documentedElements(schema)
	if err != nil {
		return nil, err
	}

	registered := &domain.AvroSchema{
		TopicID:      topic.ID,
		SchemaJSON:   canonical,
		Status:       domain.StatusReadWrite,
		BaseSchemaID: baseSchemaID,
	}
	if err := s.schemaRepo.Insert(ctx, registered, elements); err != nil {
		return nil, fmt.Errorf("inserting schema: %w", err)
	}

	log.WithFields(log.Fields{
		"schemaID": registered.ID,
		"topic":    topic.Name,
		"source":   sourceName,
	}).Info("registered avro schema")
	return registered, nil
}

func (s *RegistryService) getOrCreateSource(ctx context.Context, namespace, name, ownerEmail string) (*domain.Source, error) {
	source, err := s.sourceRepo.GetByNamespaceAndName(ctx, namespace, name)
	if err == nil {
		return source, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("looking up source: %w", err)
	}

	source = &domain.Source{
		Namespace:  namespace,
		Name:       name,
		OwnerEmail: ownerEmail,
	}
	if err := s.sourceRepo.Insert(ctx, source); err != nil {
		return nil, fmt.Errorf("creating source: %w", err)
	}

	log.WithFields(log.Fields{
		"namespace": namespace,
		"source":    name,
	}).Info("created source")
	return source, nil
}

// resolveTopic picks the topic the schema registers into and returns the
// topic's latest enabled schema when one exists. A missing or
// incompatible latest topic yields a freshly created one.
func (s *RegistryService) resolveTopic(ctx context.Context, source *domain.Source, schema avro.Schema) (*domain.Topic, *domain.AvroSchema, error) {
	topic, err := s.topicRepo.LatestBySourceID(ctx, source.ID)
	if errors.Is(err, domain.ErrNotFound) {
		created, err := s.createTopic(ctx, source)
		return created, nil, err
	}
	if err != nil {
		return nil, nil, fmt.Errorf("finding latest topic: %w", err)
	}

	compatible, err := s.topicAccepts(ctx, topic.ID, schema)
	if err != nil {
		return nil, nil, err
	}
	if !compatible {
		created, err := s.createTopic(ctx, source)
		return created, nil, err
	}

	latest, err := s.schemaRepo.LatestEnabledByTopicID(ctx, topic.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return topic, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("finding latest schema: %w", err)
	}
	return topic, latest, nil
}

// topicAccepts reports whether the schema is full-compatible with every
// enabled schema in the topic. An empty topic accepts anything.
func (s *RegistryService) topicAccepts(ctx context.Context, topicID uint64, schema avro.Schema) (bool, error) {
	stored, err := s.schemaRepo.FindByTopicID(ctx, topicID, false)
	if err != nil {
		return false, fmt.Errorf("listing topic schemas: %w", err)
	}

	for _, existing := range stored {
		existingSchema, err := avro.Parse(existing.SchemaJSON)
		if err != nil {
			return false, fmt.Errorf("parsing stored schema %d: %w", existing.ID, err)
		}
		if !avro.FullCompatible(existingSchema, schema) {
			return false, nil
		}
	}
	return true, nil
}

func (s *RegistryService) createTopic(ctx context.Context, source *domain.Source) (*domain.Topic, error) {
	topic := &domain.Topic{
		Name:     newTopicName(source.Namespace, source.Name),
		SourceID: source.ID,
	}
	if err := s.topicRepo.Insert(ctx, topic); err != nil {
		return nil, fmt.Errorf("creating topic: %w", err)
	}

	log.WithFields(log.Fields{
		"topic":  topic.Name,
		"source": source.Name,
	}).Info("created topic")
	return topic, nil
}

func newTopicName(namespace, source string) string {
	id := uuid.New()
	return fmt.Sprintf("%s.%s.%s", namespace, source, hex.EncodeToString(id[:]))
}

// documentedElements extracts the schema's elements, rejecting any record
// or field that lacks a doc.
func documentedElements(schema avro.Schema) ([]domain.SchemaElement, error) {
	elements := avro.Elements(schema)
	converted := make([]domain.SchemaElement, 0, len(elements))
	for _, element := range elements {
		needsDoc := element.Type == avro.TypeRecord || element.Type == avro.ElementField
		if needsDoc && strings.TrimSpace(element.Doc) == "" {
			return nil, fmt.Errorf("element %q: %w", element.Key, domain.ErrMissingDoc)
		}
		converted = append(converted, domain.SchemaElement{
			Key:         element.Key,
			ElementType: element.Type,
			Doc:         element.Doc,
		})
	}
	return converted, nil
}

func equalBaseSchemaID(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func validateSourceInput(namespace, source, ownerEmail string) error {
	if namespace == "" || source == "" || ownerEmail == "" {
		return fmt.Errorf("namespace, source and source owner email are required: %w", domain.ErrInvalidInput)
	}
	for _, forbidden := range []string{".", "|"} {
		if strings.Contains(namespace, forbidden) || strings.Contains(source, forbidden) {
			return fmt.Errorf("namespace and source must not contain %q: %w", forbidden, domain.ErrInvalidInput)
		}
	}
	return nil
}
