package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/amaumene/schematizer/internal/domain"
	"github.com/amaumene/schematizer/internal/storage"
	"github.com/timshannon/bolthold"
)

const (
	businessV1 = `{"type":"record","name":"biz","doc":"Business.","fields":[{"name":"id","type":"int","doc":"Id."}]}`

	// Adds a defaulted field, readable in both directions against v1.
	businessV2 = `{"type":"record","name":"biz","doc":"Business.","fields":[{"name":"id","type":"int","doc":"Id."},{"name":"city","type":"string","doc":"City.","default":"unknown"}]}`

	// Changes the id type, incompatible with v1 either way.
	businessBreaking = `{"type":"record","name":"biz","doc":"Business.","fields":[{"name":"id","type":"string","doc":"Id."}]}`

	businessNoDoc = `{"type":"record","name":"biz","doc":"Business.","fields":[{"name":"id","type":"int"}]}`
)

type registryFixture struct {
	svc     *RegistryService
	sources domain.SourceRepository
	topics  domain.TopicRepository
	schemas domain.SchemaRepository
}

func setupRegistry(t *testing.T) *registryFixture {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "test_*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	tmpfile.Close()

	store, err := bolthold.Open(tmpfile.Name(), 0666, nil)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
		os.Remove(tmpfile.Name())
	})

	sources := storage.NewSourceRepository(store)
	topics := storage.NewTopicRepository(store)
	schemas := storage.NewSchemaRepository(store)
	return &registryFixture{
		svc:     NewRegistryService(sources, topics, schemas),
		sources: sources,
		topics:  topics,
		schemas: schemas,
	}
}

func registerRequest(schemaJSON string) RegisterAvroRequest {
	return RegisterAvroRequest{
		SchemaJSON:       schemaJSON,
		Namespace:        "yelp",
		Source:           "biz",
		SourceOwnerEmail: "biz@yelp.com",
	}
}

func TestRegisterAvroSchema(t *testing.T) {
	f := setupRegistry(t)
	ctx := context.Background()

	registered, err := f.svc.RegisterAvroSchema(ctx, registerRequest(businessV1))
	if err != nil {
		t.Fatalf("RegisterAvroSchema() error = %v", err)
	}
	if registered.ID == 0 {
		t.Fatal("RegisterAvroSchema() did not assign an ID")
	}
	if registered.Status != domain.StatusReadWrite {
		t.Errorf("Status = %q, want %q", registered.Status, domain.StatusReadWrite)
	}
	if registered.SchemaJSON != businessV1 {
		t.Errorf("SchemaJSON = %s, want canonical form %s", registered.SchemaJSON, businessV1)
	}

	source, err := f.sources.GetByNamespaceAndName(ctx, "yelp", "biz")
	if err != nil {
		t.Fatalf("source was not created: %v", err)
	}
	if source.OwnerEmail != "biz@yelp.com" {
		t.Errorf("OwnerEmail = %q", source.OwnerEmail)
	}

	topic, err := f.topics.LatestBySourceID(ctx, source.ID)
	if err != nil {
		t.Fatalf("topic was not created: %v", err)
	}
	if !strings.HasPrefix(topic.Name, "yelp.biz.") {
		t.Errorf("topic name = %q, want yelp.biz.<uuid> pattern", topic.Name)
	}
	if got := len(topic.Name) - len("yelp.biz."); got != 32 {
		t.Errorf("topic name suffix length = %d, want 32 hex chars", got)
	}

	elements, err := f.schemas.ElementsBySchemaID(ctx, registered.ID)
	if err != nil {
		t.Fatalf("ElementsBySchemaID() error = %v", err)
	}
	if len(elements) != 2 {
		t.Fatalf("element count = %d, want 2", len(elements))
	}
	if elements[0].Key != "biz" || elements[1].Key != "biz.id" {
		t.Errorf("element keys = %q, %q", elements[0].Key, elements[1].Key)
	}
}

func TestRegisterAvroSchema_Idempotent(t *testing.T) {
	f := setupRegistry(t)
	ctx := context.Background()

	first, err := f.svc.RegisterAvroSchema(ctx, registerRequest(businessV1))
	if err != nil {
		t.Fatalf("RegisterAvroSchema() error = %v", err)
	}
	second, err := f.svc.RegisterAvroSchema(ctx, registerRequest(businessV1))
	if err != nil {
		t.Fatalf("RegisterAvroSchema() second call error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second registration ID = %d, want %d", second.ID, first.ID)
	}

	count, err := f.schemas.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("schema count = %d, want 1", count)
	}
}

func TestRegisterAvroSchema_BaseSchemaIDBreaksIdempotency(t *testing.T) {
	f := setupRegistry(t)
	ctx := context.Background()

	first, err := f.svc.RegisterAvroSchema(ctx, registerRequest(businessV1))
	if err != nil {
		t.Fatalf("RegisterAvroSchema() error = %v", err)
	}

	base := uint64(42)
	req := registerRequest(businessV1)
	req.BaseSchemaID = &base
	second, err := f.svc.RegisterAvroSchema(ctx, req)
	if err != nil {
		t.Fatalf("RegisterAvroSchema() with base error = %v", err)
	}
	if second.ID == first.ID {
		t.Error("registration with a different base schema ID returned the existing schema")
	}
	if second.BaseSchemaID == nil || *second.BaseSchemaID != base {
		t.Errorf("BaseSchemaID = %v, want %d", second.BaseSchemaID, base)
	}
}

func TestRegisterAvroSchema_CompatibleSharesTopic(t *testing.T) {
	f := setupRegistry(t)
	ctx := context.Background()

	first, err := f.svc.RegisterAvroSchema(ctx, registerRequest(businessV1))
	if err != nil {
		t.Fatalf("RegisterAvroSchema() error = %v", err)
	}
	second, err := f.svc.RegisterAvroSchema(ctx, registerRequest(businessV2))
	if err != nil {
		t.Fatalf("RegisterAvroSchema() v2 error = %v", err)
	}

	if second.TopicID != first.TopicID {
		t.Errorf("v2 TopicID = %d, want same topic %d", second.TopicID, first.TopicID)
	}
	if second.ID == first.ID {
		t.Error("v2 should be a new schema row")
	}

	topicCount, err := f.topics.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if topicCount != 1 {
		t.Errorf("topic count = %d, want 1", topicCount)
	}
}

func TestRegisterAvroSchema_IncompatibleStartsNewTopic(t *testing.T) {
	f := setupRegistry(t)
	ctx := context.Background()

	first, err := f.svc.RegisterAvroSchema(ctx, registerRequest(businessV1))
	if err != nil {
		t.Fatalf("RegisterAvroSchema() error = %v", err)
	}
	second, err := f.svc.RegisterAvroSchema(ctx, registerRequest(businessBreaking))
	if err != nil {
		t.Fatalf("RegisterAvroSchema() breaking error = %v", err)
	}

	if second.TopicID == first.TopicID {
		t.Error("incompatible schema landed in the same topic")
	}

	topicCount, err := f.topics.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if topicCount != 2 {
		t.Errorf("topic count = %d, want 2", topicCount)
	}
}

func TestRegisterAvroSchema_DisabledSchemasDoNotConstrain(t *testing.T) {
	f := setupRegistry(t)
	ctx := context.Background()

	first, err := f.svc.RegisterAvroSchema(ctx, registerRequest(businessV1))
	if err != nil {
		t.Fatalf("RegisterAvroSchema() error = %v", err)
	}
	if err := f.svc.DisableSchema(ctx, first.ID); err != nil {
		t.Fatalf("DisableSchema() error = %v", err)
	}

	second, err := f.svc.RegisterAvroSchema(ctx, registerRequest(businessBreaking))
	if err != nil {
		t.Fatalf("RegisterAvroSchema() breaking error = %v", err)
	}
	if second.TopicID != first.TopicID {
		t.Errorf("TopicID = %d, want disabled schema's topic %d reused", second.TopicID, first.TopicID)
	}
}

func TestRegisterAvroSchema_MissingDoc(t *testing.T) {
	f := setupRegistry(t)
	ctx := context.Background()

	_, err := f.svc.RegisterAvroSchema(ctx, registerRequest(businessNoDoc))
	if !errors.Is(err, domain.ErrMissingDoc) {
		t.Fatalf("RegisterAvroSchema() error = %v, want ErrMissingDoc", err)
	}

	count, err := f.schemas.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("schema count = %d, want 0 after rejection", count)
	}
}

func TestRegisterAvroSchema_InvalidSchema(t *testing.T) {
	f := setupRegistry(t)

	_, err := f.svc.RegisterAvroSchema(context.Background(), registerRequest(`{"type":"record"}`))
	if !errors.Is(err, domain.ErrInvalidSchema) {
		t.Fatalf("RegisterAvroSchema() error = %v, want ErrInvalidSchema", err)
	}
}

func TestRegisterAvroSchema_InputValidation(t *testing.T) {
	f := setupRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		namespace string
		source    string
		email     string
	}{
		{name: "empty namespace", namespace: "", source: "biz", email: "a@b.com"},
		{name: "empty source", namespace: "yelp", source: "", email: "a@b.com"},
		{name: "empty email", namespace: "yelp", source: "biz", email: ""},
		{name: "dot in namespace", namespace: "yelp.main", source: "biz", email: "a@b.com"},
		{name: "dot in source", namespace: "yelp", source: "biz.v2", email: "a@b.com"},
		{name: "pipe in namespace", namespace: "yelp|main", source: "biz", email: "a@b.com"},
		{name: "pipe in source", namespace: "yelp", source: "biz|v2", email: "a@b.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RegisterAvroSchema(ctx, RegisterAvroRequest{
				SchemaJSON:       businessV1,
				Namespace:        tt.namespace,
				Source:           tt.source,
				SourceOwnerEmail: tt.email,
			})
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("RegisterAvroSchema() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRegisterAvroSchema_ExistingSourceKeepsOwner(t *testing.T) {
	f := setupRegistry(t)
	ctx := context.Background()

	if _, err := f.svc.RegisterAvroSchema(ctx, registerRequest(businessV1)); err != nil {
		t.Fatalf("RegisterAvroSchema() error = %v", err)
	}

	req := registerRequest(businessV2)
	req.SourceOwnerEmail = "other@yelp.com"
	if _, err := f.svc.RegisterAvroSchema(ctx, req); err != nil {
		t.Fatalf("RegisterAvroSchema() second error = %v", err)
	}

	source, err := f.sources.GetByNamespaceAndName(ctx, "yelp", "biz")
	if err != nil {
		t.Fatalf("GetByNamespaceAndName() error = %v", err)
	}
	if source.OwnerEmail != "biz@yelp.com" {
		t.Errorf("OwnerEmail = %q, want the original owner kept", source.OwnerEmail)
	}

	count, err := f.sources.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("source count = %d, want 1", count)
	}
}
