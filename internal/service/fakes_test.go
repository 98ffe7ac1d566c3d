package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jnst/layered-crud-template/internal/datasource"
	"github.com/jnst/layered-crud-template/internal/model"
	"github.com/jnst/layered-crud-template/internal/repository"
)

type fakeTransactionManager struct {
	db       datasource.Name
	calls    int
	readOnly int
}

func (m *fakeTransactionManager) Database() datasource.Name { return m.db }

func (m *fakeTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

func (m *fakeTransactionManager) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	m.readOnly++

	return fn(ctx)
}

type fakeSampleRepository struct {
	db      datasource.Name
	samples map[int64]*model.Sample
	nextID  int64
	saves   int
	deletes int
	saveErr error
}

func newFakeSampleRepository() *fakeSampleRepository {
	return &fakeSampleRepository{db: datasource.Primary, samples: map[int64]*model.Sample{}}
}

func (r *fakeSampleRepository) Database() datasource.Name { return r.db }
func (*fakeSampleRepository) Table() string               { return datasource.TableSamples }

func (r *fakeSampleRepository) Save(_ context.Context, sample *model.Sample) (*model.Sample, error) {
	r.saves++
	if r.saveErr != nil {
		return nil, r.saveErr
	}

	saved := sample.Clone()
	if saved.IsNew() {
		r.nextID++
		saved.ID = r.nextID
	} else if _, ok := r.samples[saved.ID]; !ok {
		return nil, repository.ErrRecordNotFound
	}

	r.samples[saved.ID] = saved

	return saved.Clone(), nil
}

func (r *fakeSampleRepository) FindByID(_ context.Context, id int64) (*model.Sample, error) {
	s, ok := r.samples[id]
	if !ok {
		return nil, nil
	}

	return s.Clone(), nil
}

func (r *fakeSampleRepository) FindAll(_ context.Context) ([]*model.Sample, error) {
	out := make([]*model.Sample, 0, len(r.samples))
	for id := int64(1); id <= r.nextID; id++ {
		if s, ok := r.samples[id]; ok {
			out = append(out, s.Clone())
		}
	}

	return out, nil
}

func (r *fakeSampleRepository) FindByTitleContaining(ctx context.Context, text string) ([]*model.Sample, error) {
	all, _ := r.FindAll(ctx)

	var out []*model.Sample
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.Title), strings.ToLower(text)) {
			out = append(out, s)
		}
	}

	return out, nil
}

func (r *fakeSampleRepository) Delete(_ context.Context, id int64) error {
	r.deletes++
	if _, ok := r.samples[id]; !ok {
		return repository.ErrRecordNotFound
	}

	delete(r.samples, id)

	return nil
}

type fakeAnalyticsRepository struct {
	db      datasource.Name
	records []*model.AnalyticsData
	saveErr error
}

func (r *fakeAnalyticsRepository) Database() datasource.Name { return r.db }
func (*fakeAnalyticsRepository) Table() string               { return datasource.TableAnalyticsData }

func (r *fakeAnalyticsRepository) Save(_ context.Context, data *model.AnalyticsData) (*model.AnalyticsData, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}

	if data.ID != 0 {
		return nil, repository.ErrAppendOnly
	}

	saved := data.Clone()
	saved.ID = int64(len(r.records) + 1)
	saved.CreatedAt = saved.OccurredAt
	r.records = append(r.records, saved)

	return saved.Clone(), nil
}

func (r *fakeAnalyticsRepository) FindByID(_ context.Context, id int64) (*model.AnalyticsData, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec.Clone(), nil
		}
	}

	return nil, nil
}

func (r *fakeAnalyticsRepository) FindByEventType(_ context.Context, eventType string) ([]*model.AnalyticsData, error) {
	var out []*model.AnalyticsData
	for _, rec := range r.records {
		if rec.EventType == eventType {
			out = append(out, rec.Clone())
		}
	}

	return out, nil
}

func (r *fakeAnalyticsRepository) FindAll(_ context.Context) ([]*model.AnalyticsData, error) {
	out := make([]*model.AnalyticsData, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}

	return out, nil
}

type fakePostClient struct {
	posts map[int64]model.Post
	err   error
}

func (c *fakePostClient) ListPosts(_ context.Context) ([]model.Post, error) {
	if c.err != nil {
		return nil, c.err
	}

	out := make([]model.Post, 0, len(c.posts))
	for _, p := range c.posts {
		out = append(out, p)
	}

	return out, nil
}

func (c *fakePostClient) GetPost(_ context.Context, id int64) (*model.Post, error) {
	if c.err != nil {
		return nil, c.err
	}

	p, ok := c.posts[id]
	if !ok {
		return nil, model.NewBusinessError(model.CodeExternalNotFound, "post not found")
	}

	return &p, nil
}

func (c *fakePostClient) ListPostsByUser(_ context.Context, userID int64) ([]model.Post, error) {
	if c.err != nil {
		return nil, c.err
	}

	var out []model.Post
	for _, p := range c.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}

	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*model.ETLCompletedEvent
	err    error
}

func (p *fakePublisher) PublishETLCompleted(_ context.Context, event *model.ETLCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	p.events = append(p.events, event)

	return nil
}

var errStorage = errors.New("storage unavailable")
