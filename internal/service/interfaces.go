// Package service provides business logic layer implementations.
package service

import (
	"context"

	"github.com/jnst/layered-crud-template/internal/datasource"
	"github.com/jnst/layered-crud-template/internal/model"
)

// SampleService defines business logic methods for sample management.
type SampleService interface {
	Create(ctx context.Context, title, content string) (*model.Sample, error)
	Update(ctx context.Context, id int64, title, content string) (*model.Sample, error)
	GetByID(ctx context.Context, id int64) (*model.Sample, error)
	GetAll(ctx context.Context) ([]*model.Sample, error)
	SearchByTitle(ctx context.Context, text string) ([]*model.Sample, error)
	Delete(ctx context.Context, id int64) error
}

// ExternalDataService defines business logic methods for the external API and the analytics databases.
type ExternalDataService interface {
	GetExternalPosts(ctx context.Context) ([]model.Post, error)
	GetExternalPost(ctx context.Context, id int64) (*model.Post, error)
	GetExternalPostsByUser(ctx context.Context, userID int64) ([]model.Post, error)

	SaveAnalytics(ctx context.Context, db datasource.Name, eventType, eventData string) (*model.AnalyticsData, error)
	GetAnalyticsByID(ctx context.Context, db datasource.Name, id int64) (*model.AnalyticsData, error)
	GetAnalyticsByEventType(ctx context.Context, db datasource.Name, eventType string) ([]*model.AnalyticsData, error)
	GetAllAnalytics(ctx context.Context, db datasource.Name) ([]*model.AnalyticsData, error)

	// FetchAndStore copies an external post into GPDB1 (title) and GPDB2 (body).
	FetchAndStore(ctx context.Context, postID int64) (*model.ETLResult, error)
}

// PostFetcher is the external posts API as seen by the services.
type PostFetcher interface {
	ListPosts(ctx context.Context) ([]model.Post, error)
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	ListPostsByUser(ctx context.Context, userID int64) ([]model.Post, error)
}
