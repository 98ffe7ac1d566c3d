package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jnst/layered-crud-template/internal/datasource"
	"github.com/jnst/layered-crud-template/internal/model"
	"github.com/jnst/layered-crud-template/internal/repository"
)

// SampleServiceImpl implements SampleService on the primary database.
type SampleServiceImpl struct {
	sampleRepo     repository.SampleRepository
	transactionMgr repository.TransactionManager
}

// NewSampleServiceImpl creates a new SampleService implementation. It fails
// when the repository and the transaction manager target different databases.
func NewSampleServiceImpl(
	sampleRepo repository.SampleRepository,
	transactionMgr repository.TransactionManager,
) (SampleService, error) {
	if err := datasource.CheckBinding(transactionMgr, sampleRepo); err != nil {
		return nil, fmt.Errorf("sample service: %w", err)
	}

	return &SampleServiceImpl{
		sampleRepo:     sampleRepo,
		transactionMgr: transactionMgr,
	}, nil
}

// Create validates and persists a new sample.
func (s *SampleServiceImpl) Create(ctx context.Context, title, content string) (*model.Sample, error) {
	sample, err := model.NewSample(title, content)
	if err != nil {
		return nil, err
	}

	var created *model.Sample

	err = s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		saved, err := s.sampleRepo.Save(ctx, sample)
		if err != nil {
			return fmt.Errorf("failed to create sample: %w", err)
		}

		created = saved

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("sample created", slog.Int64("sample_id", created.ID))

	return created, nil
}

// Update replaces title and content of an existing sample.
func (s *SampleServiceImpl) Update(ctx context.Context, id int64, title, content string) (*model.Sample, error) {
	if err := model.ValidateTitle(title); err != nil {
		return nil, err
	}

	var updated *model.Sample

	err := s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		sample, err := s.findExisting(ctx, id)
		if err != nil {
			return err
		}

		if err := sample.Update(title, content); err != nil {
			return err
		}

		saved, err := s.sampleRepo.Save(ctx, sample)
		if errors.Is(err, repository.ErrRecordNotFound) {
			return model.ErrSampleNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to update sample: %w", err)
		}

		updated = saved

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("sample updated", slog.Int64("sample_id", id))

	return updated, nil
}

// GetByID retrieves a sample by ID.
func (s *SampleServiceImpl) GetByID(ctx context.Context, id int64) (*model.Sample, error) {
	var sample *model.Sample

	err := s.transactionMgr.WithReadOnlyTransaction(ctx, func(ctx context.Context) error {
		found, err := s.findExisting(ctx, id)
		sample = found

		return err
	})
	if err != nil {
		return nil, err
	}

	return sample, nil
}

// GetAll retrieves every sample.
func (s *SampleServiceImpl) GetAll(ctx context.Context) ([]*model.Sample, error) {
	var samples []*model.Sample

	err := s.transactionMgr.WithReadOnlyTransaction(ctx, func(ctx context.Context) error {
		found, err := s.sampleRepo.FindAll(ctx)
		samples = found

		return err
	})
	if err != nil {
		return nil, err
	}

	return samples, nil
}

// SearchByTitle retrieves samples whose title contains text, ignoring case.
func (s *SampleServiceImpl) SearchByTitle(ctx context.Context, text string) ([]*model.Sample, error) {
	var samples []*model.Sample

	err := s.transactionMgr.WithReadOnlyTransaction(ctx, func(ctx context.Context) error {
		found, err := s.sampleRepo.FindByTitleContaining(ctx, text)
		samples = found

		return err
	})
	if err != nil {
		return nil, err
	}

	return samples, nil
}

// Delete removes an existing sample.
func (s *SampleServiceImpl) Delete(ctx context.Context, id int64) error {
	err := s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.findExisting(ctx, id); err != nil {
			return err
		}

		err := s.sampleRepo.Delete(ctx, id)
		if errors.Is(err, repository.ErrRecordNotFound) {
			return model.ErrSampleNotFound
		}

		return err
	})
	if err != nil {
		return err
	}

	slog.Info("sample deleted", slog.Int64("sample_id", id))

	return nil
}

func (s *SampleServiceImpl) findExisting(ctx context.Context, id int64) (*model.Sample, error) {
	sample, err := s.sampleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sample: %w", err)
	}

	if sample == nil {
		return nil, model.ErrSampleNotFound
	}

	return sample, nil
}
