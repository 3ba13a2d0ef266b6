// Package store persists practice records through gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/ca-practice/internal/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter holds equality conditions keyed by column. A slice value matches
// any of its elements.
type Filter map[string]any

// Repository is the CRUD surface shared by every record type. T must have a
// string primary key column named id.
type Repository[T any] struct {
	db       *gorm.DB
	entity   string
	order    string
	preloads []string
}

// NewRepository returns a repository for T. entity names the record in
// errors; order is the default ORDER BY of List.
func NewRepository[T any](db *gorm.DB, entity, order string, preloads ...string) *Repository[T] {
	return &Repository[T]{db: db, entity: entity, order: order, preloads: preloads}
}

func (r *Repository[T]) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	for _, p := range r.preloads {
		q = q.Preload(p)
	}
	return q
}

// Scoped lists records matching scope, with relations preloaded.
func (r *Repository[T]) Scoped(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]T, error) {
	out := []T{}
	q := r.query(ctx)
	if scope != nil {
		q = scope(q)
	}
	if r.order != "" {
		q = q.Order(r.order)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", r.entity, err)
	}
	return out, nil
}

func (r *Repository[T]) List(ctx context.Context, f Filter) ([]T, error) {
	return r.Scoped(ctx, f.apply)
}

func (r *Repository[T]) Count(ctx context.Context, f Filter) (int64, error) {
	var n int64
	if err := f.apply(r.db.WithContext(ctx).Model(new(T))).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", r.entity, err)
	}
	return n, nil
}

func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	var rec T
	if err := r.query(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(r.entity, id)
		}
		return nil, fmt.Errorf("get %s: %w", r.entity, err)
	}
	return &rec, nil
}

func (r *Repository[T]) Create(ctx context.Context, rec *T) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		return fmt.Errorf("create %s: %w", r.entity, err)
	}
	return nil
}

// Update replaces every mutable column of record id with rec. id and
// created_at are preserved. The stored record is returned.
func (r *Repository[T]) Update(ctx context.Context, id string, rec *T) (*T, error) {
	res := r.db.WithContext(ctx).
		Model(new(T)).
		Where("id = ?", id).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(rec)
	if res.Error != nil {
		return nil, fmt.Errorf("update %s: %w", r.entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound(r.entity, id)
	}
	return r.Get(ctx, id)
}

// UpdateColumns sets selected columns of record id.
func (r *Repository[T]) UpdateColumns(ctx context.Context, id string, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update %s: %w", r.entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(r.entity, id)
	}
	return nil
}

func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", r.entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(r.entity, id)
	}
	return nil
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if len(f) == 0 {
		return q
	}
	return q.Where(map[string]any(f))
}
