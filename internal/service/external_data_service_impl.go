package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jnst/layered-crud-template/internal/datasource"
	"github.com/jnst/layered-crud-template/internal/event"
	"github.com/jnst/layered-crud-template/internal/model"
	"github.com/jnst/layered-crud-template/internal/repository"
)

// ErrMissingAnalyticsStore is returned when a required GPDB has no adapter registered.
var ErrMissingAnalyticsStore = errors.New("analytics store not registered")

// AnalyticsStore pairs an analytics adapter with the transaction manager of the same GPDB.
type AnalyticsStore struct {
	Repo           repository.AnalyticsDataRepository
	TransactionMgr repository.TransactionManager
}

// ExternalDataServiceImpl implements ExternalDataService.
type ExternalDataServiceImpl struct {
	client    PostFetcher
	stores    map[datasource.Name]AnalyticsStore
	publisher event.Publisher
}

// NewExternalDataServiceImpl creates a new ExternalDataService implementation.
// Both GPDB1 and GPDB2 must be registered and every store must be bound to
// the database it is registered under.
func NewExternalDataServiceImpl(
	client PostFetcher,
	stores map[datasource.Name]AnalyticsStore,
	publisher event.Publisher,
) (ExternalDataService, error) {
	for _, name := range []datasource.Name{datasource.GPDB1, datasource.GPDB2} {
		if _, ok := stores[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingAnalyticsStore, name)
		}
	}

	for name, store := range stores {
		if err := datasource.CheckBinding(store.TransactionMgr, store.Repo); err != nil {
			return nil, fmt.Errorf("analytics store %s: %w", name, err)
		}

		if store.Repo.Database() != name {
			return nil, fmt.Errorf("%w: store registered as %s targets %s",
				datasource.ErrBindingMismatch, name, store.Repo.Database())
		}
	}

	if publisher == nil {
		publisher = event.NopPublisher{}
	}

	return &ExternalDataServiceImpl{
		client:    client,
		stores:    stores,
		publisher: publisher,
	}, nil
}

// GetExternalPosts lists every post of the external API.
func (s *ExternalDataServiceImpl) GetExternalPosts(ctx context.Context) ([]model.Post, error) {
	return s.client.ListPosts(ctx)
}

// GetExternalPost fetches one post of the external API.
func (s *ExternalDataServiceImpl) GetExternalPost(ctx context.Context, id int64) (*model.Post, error) {
	return s.client.GetPost(ctx, id)
}

// GetExternalPostsByUser lists the posts of one user of the external API.
func (s *ExternalDataServiceImpl) GetExternalPostsByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	return s.client.ListPostsByUser(ctx, userID)
}

// SaveAnalytics appends a record to the given GPDB in its own transaction.
func (s *ExternalDataServiceImpl) SaveAnalytics(
	ctx context.Context,
	db datasource.Name,
	eventType, eventData string,
) (*model.AnalyticsData, error) {
	store, err := s.store(db)
	if err != nil {
		return nil, err
	}

	data, err := model.NewAnalyticsData(eventType, eventData)
	if err != nil {
		return nil, err
	}

	var saved *model.AnalyticsData

	err = store.TransactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		result, err := store.Repo.Save(ctx, data)
		if err != nil {
			return fmt.Errorf("failed to save analytics data to %s: %w", db, err)
		}

		saved = result

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("analytics data saved",
		slog.String("database", db.String()),
		slog.Int64("id", saved.ID),
		slog.String("event_type", saved.EventType))

	return saved, nil
}

// GetAnalyticsByID retrieves one record of the given GPDB.
func (s *ExternalDataServiceImpl) GetAnalyticsByID(
	ctx context.Context,
	db datasource.Name,
	id int64,
) (*model.AnalyticsData, error) {
	store, err := s.store(db)
	if err != nil {
		return nil, err
	}

	var data *model.AnalyticsData

	err = store.TransactionMgr.WithReadOnlyTransaction(ctx, func(ctx context.Context) error {
		found, err := store.Repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get analytics data from %s: %w", db, err)
		}

		if found == nil {
			return model.ErrAnalyticsNotFound
		}

		data = found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

// GetAnalyticsByEventType retrieves the records of one event type in the given GPDB.
func (s *ExternalDataServiceImpl) GetAnalyticsByEventType(
	ctx context.Context,
	db datasource.Name,
	eventType string,
) ([]*model.AnalyticsData, error) {
	store, err := s.store(db)
	if err != nil {
		return nil, err
	}

	var records []*model.AnalyticsData

	err = store.TransactionMgr.WithReadOnlyTransaction(ctx, func(ctx context.Context) error {
		found, err := store.Repo.FindByEventType(ctx, eventType)
		records = found

		return err
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// GetAllAnalytics retrieves every record of the given GPDB.
func (s *ExternalDataServiceImpl) GetAllAnalytics(ctx context.Context, db datasource.Name) ([]*model.AnalyticsData, error) {
	store, err := s.store(db)
	if err != nil {
		return nil, err
	}

	var records []*model.AnalyticsData

	err = store.TransactionMgr.WithReadOnlyTransaction(ctx, func(ctx context.Context) error {
		found, err := store.Repo.FindAll(ctx)
		records = found

		return err
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// FetchAndStore fetches a post and writes its title to GPDB1 and its body to
// GPDB2. The two writes commit independently: when the GPDB2 write fails the
// GPDB1 record stays committed.
func (s *ExternalDataServiceImpl) FetchAndStore(ctx context.Context, postID int64) (*model.ETLResult, error) {
	post, err := s.client.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	gpdb1, err := s.SaveAnalytics(ctx, datasource.GPDB1, model.EventTypePostTitle, post.Title)
	if err != nil {
		return nil, err
	}

	gpdb2, err := s.SaveAnalytics(ctx, datasource.GPDB2, model.EventTypePostBody, post.Body)
	if err != nil {
		slog.Error("ETL partially applied",
			slog.Int64("post_id", postID),
			slog.Int64("gpdb1_id", gpdb1.ID),
			slog.String("error", err.Error()))

		return nil, err
	}

	completed := &model.ETLCompletedEvent{
		EventID:     uuid.NewString(),
		PostID:      postID,
		Gpdb1ID:     gpdb1.ID,
		Gpdb2ID:     gpdb2.ID,
		Action:      model.EventActionETLCompleted,
		CompletedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishETLCompleted(ctx, completed); err != nil {
		slog.Warn("failed to publish ETL event",
			slog.Int64("post_id", postID),
			slog.String("error", err.Error()))
	}

	slog.Info("ETL completed",
		slog.Int64("post_id", postID),
		slog.Int64("gpdb1_id", gpdb1.ID),
		slog.Int64("gpdb2_id", gpdb2.ID))

	return &model.ETLResult{PostID: postID, Gpdb1: gpdb1, Gpdb2: gpdb2}, nil
}

func (s *ExternalDataServiceImpl) store(db datasource.Name) (AnalyticsStore, error) {
	store, ok := s.stores[db]
	if !ok {
		return AnalyticsStore{}, fmt.Errorf("%w: %s", ErrMissingAnalyticsStore, db)
	}

	return store, nil
}
