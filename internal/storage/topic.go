package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/schematizer/internal/domain"
	"github.com/timshannon/bolthold"
)

type topicRepository struct {
	store *bolthold.Store
}

func NewTopicRepository(store *bolthold.Store) domain.TopicRepository {
	return &topicRepository{store: store}
}

func (r *topicRepository) Insert(ctx context.Context, topic *domain.Topic) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	topic.CreatedAt = time.Now().UTC()
	err := r.store.Insert(bolthold.NextSequence(), topic)
	if errors.Is(err, bolthold.ErrKeyExists) || errors.Is(err, bolthold.ErrUniqueExists) {
		return domain.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("inserting topic: %w", err)
	}
	return nil
}

func (r *topicRepository) GetByName(ctx context.Context, name string) (*domain.Topic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var topic domain.Topic
	err := r.store.FindOne(&topic, bolthold.Where("Name").Eq(name))
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding topic by name: %w", err)
	}
	return &topic, nil
}

func (r *topicRepository) FindBySourceID(ctx context.Context, sourceID uint64) ([]domain.Topic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var topics []domain.Topic
	err := r.store.Find(&topics, bolthold.Where("SourceID").Eq(sourceID).SortBy("ID"))
	if err != nil {
		return nil, fmt.Errorf("finding topics by source: %w", err)
	}
	return topics, nil
}

func (r *topicRepository) LatestBySourceID(ctx context.Context, sourceID uint64) (*domain.Topic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var topics []domain.Topic
	err := r.store.Find(&topics, bolthold.Where("SourceID").Eq(sourceID).SortBy("ID").Reverse().Limit(1))
	if err != nil {
		return nil, fmt.Errorf("finding latest topic by source: %w", err)
	}
	if len(topics) == 0 {
		return nil, domain.ErrNotFound
	}
	return &topics[0], nil
}

func (r *topicRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count, err := r.store.Count(&domain.Topic{}, &bolthold.Query{})
	if err != nil {
		return 0, fmt.Errorf("counting topics: %w", err)
	}
	return count, nil
}
