package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jnst/layered-crud-template/internal/datasource"
	"github.com/jnst/layered-crud-template/internal/db"
	"github.com/jnst/layered-crud-template/internal/model"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SampleRepositoryImpl implements SampleRepository on the primary database.
type SampleRepositoryImpl struct {
	pool   db.DBTX
	mapper SampleMapper
}

// NewSampleRepositoryImpl creates a new SampleRepository implementation.
func NewSampleRepositoryImpl(pool db.DBTX) SampleRepository {
	return &SampleRepositoryImpl{pool: pool}
}

// Database returns datasource.Primary.
func (*SampleRepositoryImpl) Database() datasource.Name {
	return datasource.Primary
}

// Table returns the table managed by the adapter.
func (*SampleRepositoryImpl) Table() string {
	return datasource.TableSamples
}

func (r *SampleRepositoryImpl) queries(ctx context.Context) *db.Queries {
	if tx, ok := pgxTxFrom(ctx, datasource.Primary); ok {
		return db.New(tx)
	}

	return db.New(r.pool)
}

// Save inserts or updates a sample depending on whether it has an id.
func (r *SampleRepositoryImpl) Save(ctx context.Context, sample *model.Sample) (*model.Sample, error) {
	rec := r.mapper.ToRecord(sample)
	q := r.queries(ctx)

	if sample.IsNew() {
		saved, err := q.CreateSample(ctx, &db.CreateSampleParams{
			Title:   rec.Title,
			Content: rec.Content,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to insert sample: %w", err)
		}

		return r.mapper.ToDomain(saved), nil
	}

	saved, err := q.UpdateSample(ctx, &db.UpdateSampleParams{
		ID:      rec.ID,
		Title:   rec.Title,
		Content: rec.Content,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sample %d: %w", sample.ID, ErrRecordNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to update sample %d: %w", sample.ID, err)
	}

	return r.mapper.ToDomain(saved), nil
}

// FindByID retrieves a sample by ID.
func (r *SampleRepositoryImpl) FindByID(ctx context.Context, id int64) (*model.Sample, error) {
	rec, err := r.queries(ctx).GetSample(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get sample %d: %w", id, err)
	}

	return r.mapper.ToDomain(rec), nil
}

// FindAll retrieves every sample in id order.
func (r *SampleRepositoryImpl) FindAll(ctx context.Context) ([]*model.Sample, error) {
	recs, err := r.queries(ctx).ListSamples(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}

	return r.mapper.ToDomainList(recs), nil
}

// FindByTitleContaining retrieves samples whose title contains text, ignoring case.
func (r *SampleRepositoryImpl) FindByTitleContaining(ctx context.Context, text string) ([]*model.Sample, error) {
	recs, err := r.queries(ctx).SearchSamplesByTitle(ctx, likeEscaper.Replace(text))
	if err != nil {
		return nil, fmt.Errorf("failed to search samples: %w", err)
	}

	return r.mapper.ToDomainList(recs), nil
}

// Delete removes a sample by ID.
func (r *SampleRepositoryImpl) Delete(ctx context.Context, id int64) error {
	n, err := r.queries(ctx).DeleteSample(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete sample %d: %w", id, err)
	}

	if n == 0 {
		return fmt.Errorf("sample %d: %w", id, ErrRecordNotFound)
	}

	return nil
}
