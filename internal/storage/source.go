package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/amaumene/schematizer/internal/domain"
	"github.com/timshannon/bolthold"
)

type sourceRepository struct {
	store *bolthold.Store
}

func NewSourceRepository(store *bolthold.Store) domain.SourceRepository {
	return &sourceRepository{store: store}
}

func (r *sourceRepository) Insert(ctx context.Context, source *domain.Source) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	source.CreatedAt = now
	source.UpdatedAt = now
	err := r.store.Insert(bolthold.NextSequence(), source)
	if errors.Is(err, bolthold.ErrKeyExists) || errors.Is(err, bolthold.ErrUniqueExists) {
		return domain.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("inserting source: %w", err)
	}
	return nil
}

func (r *sourceRepository) GetByID(ctx context.Context, id uint64) (*domain.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var source domain.Source
	err := r.store.Get(id, &source)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting source: %w", err)
	}
	return &source, nil
}

func (r *sourceRepository) GetByNamespaceAndName(ctx context.Context, namespace, name string) (*domain.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var source domain.Source
	err := r.store.FindOne(&source, bolthold.Where("Namespace").Eq(namespace).And("Name").Eq(name))
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding source by namespace and name: %w", err)
	}
	return &source, nil
}

func (r *sourceRepository) FindAll(ctx context.Context) ([]domain.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sources []domain.Source
	if err := r.store.Find(&sources, (&bolthold.Query{}).SortBy("ID")); err != nil {
		return nil, fmt.Errorf("finding sources: %w", err)
	}
	return sources, nil
}

func (r *sourceRepository) FindByNamespace(ctx context.Context, namespace string) ([]domain.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sources []domain.Source
	err := r.store.Find(&sources, bolthold.Where("Namespace").Eq(namespace).SortBy("ID"))
	if err != nil {
		return nil, fmt.Errorf("finding sources by namespace: %w", err)
	}
	return sources, nil
}

func (r *sourceRepository) DistinctNamespaces(ctx context.Context) ([]string, error) {
	sources, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(sources))
	var namespaces []string
	for _, source := range sources {
		if !seen[source.Namespace] {
			seen[source.Namespace] = true
			namespaces = append(namespaces, source.Namespace)
		}
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

func (r *sourceRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count, err := r.store.Count(&domain.Source{}, &bolthold.Query{})
	if err != nil {
		return 0, fmt.Errorf("counting sources: %w", err)
	}
	return count, nil
}
