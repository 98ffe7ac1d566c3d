// Package repository provides data access interfaces and implementations.
//
// Every adapter and transaction manager in this package is bound to exactly
// one logical database (see datasource.Name). Adapters only join a
// transaction that was opened for their own database.
package repository

import (
	"context"
	"errors"

	"github.com/jnst/layered-crud-template/internal/datasource"
	"github.com/jnst/layered-crud-template/internal/model"
)

var (
	// ErrRecordNotFound is returned when an update or delete matches no row.
	ErrRecordNotFound = errors.New("record not found")
	// ErrAppendOnly is returned when saving an analytics record that already has an id.
	ErrAppendOnly = errors.New("analytics data is append-only")
)

// SampleRepository defines methods for sample data access.
type SampleRepository interface {
	datasource.TableBound
	// Save inserts a sample without id and updates one with id.
	Save(ctx context.Context, sample *model.Sample) (*model.Sample, error)
	// FindByID returns nil without error when no row matches.
	FindByID(ctx context.Context, id int64) (*model.Sample, error)
	FindAll(ctx context.Context) ([]*model.Sample, error)
	// FindByTitleContaining matches a case-insensitive substring of the title.
	FindByTitleContaining(ctx context.Context, text string) ([]*model.Sample, error)
	Delete(ctx context.Context, id int64) error
}

// AnalyticsDataRepository defines methods for analytics data access in one GPDB.
type AnalyticsDataRepository interface {
	datasource.TableBound
	Save(ctx context.Context, data *model.AnalyticsData) (*model.AnalyticsData, error)
	// FindByID returns nil without error when no row matches.
	FindByID(ctx context.Context, id int64) (*model.AnalyticsData, error)
	FindByEventType(ctx context.Context, eventType string) ([]*model.AnalyticsData, error)
	FindAll(ctx context.Context) ([]*model.AnalyticsData, error)
}

// TransactionManager defines methods for transaction management of one logical database.
type TransactionManager interface {
	datasource.Bound
	// WithTransaction executes fn in a read-write transaction, joining one
	// already present in ctx for the same database.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// WithReadOnlyTransaction executes fn in a read-only transaction.
	WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
