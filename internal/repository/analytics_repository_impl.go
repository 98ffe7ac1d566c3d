package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jnst/layered-crud-template/internal/datasource"
	"github.com/jnst/layered-crud-template/internal/model"
)

const (
	insertAnalyticsData = `
		INSERT INTO analytics_data (event_type, event_data, occurred_at)
		VALUES ($1, $2, $3)
		RETURNING id, event_type, event_data, occurred_at, created_at`

	selectAnalyticsDataByID = `
		SELECT id, event_type, event_data, occurred_at, created_at
		FROM analytics_data WHERE id = $1`

	selectAnalyticsDataByEventType = `
		SELECT id, event_type, event_data, occurred_at, created_at
		FROM analytics_data WHERE event_type = $1 ORDER BY id`

	selectAllAnalyticsData = `
		SELECT id, event_type, event_data, occurred_at, created_at
		FROM analytics_data ORDER BY id`
)

// AnalyticsDataRepositoryImpl implements AnalyticsDataRepository on one GPDB.
type AnalyticsDataRepositoryImpl struct {
	db     *sqlx.DB
	name   datasource.Name
	mapper AnalyticsDataMapper
}

// NewAnalyticsDataRepositoryImpl creates an AnalyticsDataRepository bound to the named GPDB.
func NewAnalyticsDataRepositoryImpl(name datasource.Name, db *sqlx.DB) AnalyticsDataRepository {
	return &AnalyticsDataRepositoryImpl{db: db, name: name}
}

// Database returns the GPDB the adapter is bound to.
func (r *AnalyticsDataRepositoryImpl) Database() datasource.Name {
	return r.name
}

// Table returns the table managed by the adapter.
func (*AnalyticsDataRepositoryImpl) Table() string {
	return datasource.TableAnalyticsData
}

func (r *AnalyticsDataRepositoryImpl) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := sqlxTxFrom(ctx, r.name); ok {
		return tx
	}

	return r.db
}

// Save appends a new analytics record.
func (r *AnalyticsDataRepositoryImpl) Save(ctx context.Context, data *model.AnalyticsData) (*model.AnalyticsData, error) {
	if data.ID != 0 {
		return nil, fmt.Errorf("%s: analytics data %d: %w", r.name, data.ID, ErrAppendOnly)
	}

	rec := r.mapper.ToRecord(data)

	var saved AnalyticsDataRecord
	if err := sqlx.GetContext(ctx, r.ext(ctx), &saved, insertAnalyticsData,
		rec.EventType, rec.EventData, rec.OccurredAt,
	); err != nil {
		return nil, fmt.Errorf("%s: failed to insert analytics data: %w", r.name, err)
	}

	return r.mapper.ToDomain(saved), nil
}

// FindByID retrieves an analytics record by ID.
func (r *AnalyticsDataRepositoryImpl) FindByID(ctx context.Context, id int64) (*model.AnalyticsData, error) {
	var rec AnalyticsDataRecord

	err := sqlx.GetContext(ctx, r.ext(ctx), &rec, selectAnalyticsDataByID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%s: failed to get analytics data %d: %w", r.name, id, err)
	}

	return r.mapper.ToDomain(rec), nil
}

// FindByEventType retrieves analytics records with exactly the given event type.
func (r *AnalyticsDataRepositoryImpl) FindByEventType(ctx context.Context, eventType string) ([]*model.AnalyticsData, error) {
	var recs []AnalyticsDataRecord
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &recs, selectAnalyticsDataByEventType, eventType); err != nil {
		return nil, fmt.Errorf("%s: failed to query analytics data: %w", r.name, err)
	}

	return r.mapper.ToDomainList(recs), nil
}

// FindAll retrieves every analytics record in id order.
func (r *AnalyticsDataRepositoryImpl) FindAll(ctx context.Context) ([]*model.AnalyticsData, error) {
	var recs []AnalyticsDataRecord
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &recs, selectAllAnalyticsData); err != nil {
		return nil, fmt.Errorf("%s: failed to list analytics data: %w", r.name, err)
	}

	return r.mapper.ToDomainList(recs), nil
}
