package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/schematizer/internal/domain"
	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"
)

type schemaRepository struct {
	store *bolthold.Store
}

func NewSchemaRepository(store *bolthold.Store) domain.SchemaRepository {
	return &schemaRepository{store: store}
}

// Insert stores the schema and its extracted elements in one bolt
// transaction, so a schema is never visible without its elements.
func (r *schemaRepository) Insert(ctx context.Context, schema *domain.AvroSchema, elements []domain.SchemaElement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	schema.CreatedAt = time.Now().UTC()
	err := r.store.Bolt().Update(func(tx *bolt.Tx) error {
		if err := r.store.TxInsert(tx, bolthold.NextSequence(), schema); err != nil {
			return err
		}
		for i := range elements {
			elements[i].SchemaID = schema.ID
			if err := r.store.TxInsert(tx, bolthold.NextSequence(), &elements[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, bolthold.ErrKeyExists) {
		return domain.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("inserting schema: %w", err)
	}
	return nil
}

func (r *schemaRepository) GetByID(ctx context.Context, id uint64) (*domain.AvroSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var schema domain.AvroSchema
	err := r.store.Get(id, &schema)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting schema: %w", err)
	}
	return &schema, nil
}

func (r *schemaRepository) FindByTopicID(ctx context.Context, topicID uint64, includeDisabled bool) ([]domain.AvroSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := bolthold.Where("TopicID").Eq(topicID)
	if !includeDisabled {
		query = query.And("Status").Ne(domain.StatusDisabled)
	}

	var schemas []domain.AvroSchema
	if err := r.store.Find(&schemas, query.SortBy("ID")); err != nil {
		return nil, fmt.Errorf("finding schemas by topic: %w", err)
	}
	return schemas, nil
}

func (r *schemaRepository) LatestEnabledByTopicID(ctx context.Context, topicID uint64) (*domain.AvroSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := bolthold.Where("TopicID").Eq(topicID).
		And("Status").Ne(domain.StatusDisabled).
		SortBy("ID").Reverse().Limit(1)

	var schemas []domain.AvroSchema
	if err := r.store.Find(&schemas, query); err != nil {
		return nil, fmt.Errorf("finding latest schema by topic: %w", err)
	}
	if len(schemas) == 0 {
		return nil, domain.ErrNotFound
	}
	return &schemas[0], nil
}

func (r *schemaRepository) UpdateStatus(ctx context.Context, id uint64, status domain.SchemaStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var schema domain.AvroSchema
	err := r.store.Get(id, &schema)
	if errors.Is(err, bolthold.ErrNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting schema for status update: %w", err)
	}

	schema.Status = status
	if err := r.store.Update(id, &schema); err != nil {
		return fmt.Errorf("updating schema status: %w", err)
	}
	return nil
}

func (r *schemaRepository) ElementsBySchemaID(ctx context.Context, schemaID uint64) ([]domain.SchemaElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var elements []domain.SchemaElement
	err := r.store.Find(&elements, bolthold.Where("SchemaID").Eq(schemaID).SortBy("ID"))
	if err != nil {
		return nil, fmt.Errorf("finding schema elements: %w", err)
	}
	return elements, nil
}

func (r *schemaRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count, err := r.store.Count(&domain.AvroSchema{}, &bolthold.Query{})
	if err != nil {
		return 0, fmt.Errorf("counting schemas: %w", err)
	}
	return count, nil
}
