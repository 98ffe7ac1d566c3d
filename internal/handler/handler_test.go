package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/layered-crud-template/internal/datasource"
	"github.com/jnst/layered-crud-template/internal/model"
)

type stubSampleService struct {
	samples map[int64]*model.Sample
	created int
	err     error
}

func (s *stubSampleService) Create(_ context.Context, title, content string) (*model.Sample, error) {
	if s.err != nil {
		return nil, s.err
	}

	s.created++

	return &model.Sample{ID: int64(s.created), Title: title, Content: content}, nil
}

func (s *stubSampleService) Update(_ context.Context, id int64, title, content string) (*model.Sample, error) {
	if _, ok := s.samples[id]; !ok {
		return nil, model.ErrSampleNotFound
	}

	return &model.Sample{ID: id, Title: title, Content: content}, nil
}

func (s *stubSampleService) GetByID(_ context.Context, id int64) (*model.Sample, error) {
	sample, ok := s.samples[id]
	if !ok {
		return nil, model.ErrSampleNotFound
	}

	return sample, nil
}

func (s *stubSampleService) GetAll(_ context.Context) ([]*model.Sample, error) {
	if s.err != nil {
		return nil, s.err
	}

	return nil, nil
}

func (s *stubSampleService) SearchByTitle(_ context.Context, text string) ([]*model.Sample, error) {
	return []*model.Sample{{ID: 1, Title: text}}, nil
}

func (s *stubSampleService) Delete(_ context.Context, id int64) error {
	if _, ok := s.samples[id]; !ok {
		return model.ErrSampleNotFound
	}

	return nil
}

type stubExternalService struct {
	saved   []datasource.Name
	lastReq [2]string
	etlErr  error
}

func (*stubExternalService) GetExternalPosts(context.Context) ([]model.Post, error) {
	return []model.Post{{ID: 1, UserID: 1, Title: "t", Body: "b"}}, nil
}

func (*stubExternalService) GetExternalPost(_ context.Context, id int64) (*model.Post, error) {
	if id == 404 {
		return nil, model.NewBusinessError(model.CodeExternalNotFound, "resource not found")
	}

	return &model.Post{ID: id}, nil
}

func (*stubExternalService) GetExternalPostsByUser(context.Context, int64) ([]model.Post, error) {
	return nil, nil
}

func (s *stubExternalService) SaveAnalytics(
	_ context.Context,
	db datasource.Name,
	eventType, eventData string,
) (*model.AnalyticsData, error) {
	s.saved = append(s.saved, db)
	s.lastReq = [2]string{eventType, eventData}

	return &model.AnalyticsData{ID: 1, EventType: eventType, EventData: eventData}, nil
}

func (*stubExternalService) GetAnalyticsByID(context.Context, datasource.Name, int64) (*model.AnalyticsData, error) {
	return nil, model.ErrAnalyticsNotFound
}

func (*stubExternalService) GetAnalyticsByEventType(
	context.Context,
	datasource.Name,
	string,
) ([]*model.AnalyticsData, error) {
	return nil, nil
}

func (*stubExternalService) GetAllAnalytics(context.Context, datasource.Name) ([]*model.AnalyticsData, error) {
	return nil, nil
}

func (s *stubExternalService) FetchAndStore(_ context.Context, postID int64) (*model.ETLResult, error) {
	if s.etlErr != nil {
		return nil, s.etlErr
	}

	return &model.ETLResult{PostID: postID}, nil
}

type stubHealth map[datasource.Name]error

func (h stubHealth) Ping(context.Context) map[datasource.Name]error { return h }

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	ErrorCode *string         `json:"errorCode"`
}

type routerFixture struct {
	handler  http.Handler
	samples  *stubSampleService
	external *stubExternalService
}

func newRouterFixture(health stubHealth) *routerFixture {
	f := &routerFixture{
		samples:  &stubSampleService{samples: map[int64]*model.Sample{1: {ID: 1, Title: "one"}}},
		external: &stubExternalService{},
	}
	if health == nil {
		health = stubHealth{datasource.Primary: nil, datasource.GPDB1: nil, datasource.GPDB2: nil}
	}

	f.handler = NewRouter(f.samples, f.external, health)

	return f
}

func (f *routerFixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(contentTypeJSON, applicationJSON)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())

	return rec, env
}

func errorCode(env envelope) string {
	if env.ErrorCode == nil {
		return ""
	}

	return *env.ErrorCode
}

func TestSampleRoutes(t *testing.T) {
	f := newRouterFixture(nil)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"create", http.MethodPost, "/api/v1/samples", `{"title":"Hello","content":"World"}`, http.StatusOK, ""},
		{"create blank title", http.MethodPost, "/api/v1/samples", `{"title":"   "}`, http.StatusBadRequest, model.CodeValidation},
		{"create missing title", http.MethodPost, "/api/v1/samples", `{"content":"x"}`, http.StatusBadRequest, model.CodeValidation},
		{"create malformed body", http.MethodPost, "/api/v1/samples", `{"title":`, http.StatusBadRequest, model.CodeInvalidInput},
		{"create trailing garbage", http.MethodPost, "/api/v1/samples", `{"title":"a"}garbage`, http.StatusBadRequest, model.CodeInvalidInput},
		{"create two objects", http.MethodPost, "/api/v1/samples", `{"title":"a"} {"title":"b"}`, http.StatusBadRequest, model.CodeInvalidInput},
		{"create trailing whitespace", http.MethodPost, "/api/v1/samples", "{\"title\":\"a\"}\n", http.StatusOK, ""},
		{"update trailing garbage", http.MethodPut, "/api/v1/samples/1", `{"title":"New"}]`, http.StatusBadRequest, model.CodeInvalidInput},
		{"get", http.MethodGet, "/api/v1/samples/1", "", http.StatusOK, ""},
		{"get missing", http.MethodGet, "/api/v1/samples/9", "", http.StatusBadRequest, model.CodeSampleNotFound},
		{"get bad id", http.MethodGet, "/api/v1/samples/abc", "", http.StatusBadRequest, model.CodeInvalidInput},
		{"update", http.MethodPut, "/api/v1/samples/1", `{"title":"New"}`, http.StatusOK, ""},
		{"update missing", http.MethodPut, "/api/v1/samples/9", `{"title":"New"}`, http.StatusBadRequest, model.CodeSampleNotFound},
		{"delete", http.MethodDelete, "/api/v1/samples/1", "", http.StatusOK, ""},
		{"delete missing", http.MethodDelete, "/api/v1/samples/9", "", http.StatusBadRequest, model.CodeSampleNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := f.do(t, tt.method, tt.target, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode == "", env.Success)
			assert.Equal(t, tt.wantCode, errorCode(env))
			assert.Equal(t, applicationJSON, rec.Header().Get(contentTypeJSON))
		})
	}
}

func TestSampleRoutes_ListAndSearch(t *testing.T) {
	f := newRouterFixture(nil)

	_, env := f.do(t, http.MethodGet, "/api/v1/samples", "")
	assert.True(t, env.Success)
	assert.JSONEq(t, `[]`, string(env.Data))

	_, env = f.do(t, http.MethodGet, "/api/v1/samples?title=abc", "")
	var found []model.Sample
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "abc", found[0].Title)
}

func TestSampleRoutes_InternalErrorHidesDetail(t *testing.T) {
	f := newRouterFixture(nil)
	f.samples.err = errors.New("pq: connection refused to 10.0.0.5")

	rec, env := f.do(t, http.MethodGet, "/api/v1/samples", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, model.CodeInternal, errorCode(env))
	assert.NotContains(t, env.Message, "10.0.0.5")
	assert.JSONEq(t, `null`, string(env.Data))
}

func TestExternalRoutes(t *testing.T) {
	f := newRouterFixture(nil)

	rec, env := f.do(t, http.MethodGet, "/api/v1/external/posts", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, env = f.do(t, http.MethodGet, "/api/v1/external/posts/404", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.CodeExternalNotFound, errorCode(env))

	_, env = f.do(t, http.MethodGet, "/api/v1/external/posts/user/3", "")
	assert.JSONEq(t, `[]`, string(env.Data))

	rec, env = f.do(t, http.MethodPost, "/api/v1/external/etl/7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"postId":7,"gpdb1":null,"gpdb2":null}`, string(env.Data))
}

func TestExternalRoutes_AnalyticsTargetsDatabaseFromPath(t *testing.T) {
	f := newRouterFixture(nil)

	rec, _ := f.do(t, http.MethodPost, "/api/v1/external/gpdb2/analytics?eventType=CLICK&eventData=btn", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/external/gpdb1/analytics", `{"eventType":"VIEW","eventData":"home"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []datasource.Name{datasource.GPDB2, datasource.GPDB1}, f.external.saved)
	assert.Equal(t, [2]string{"VIEW", "home"}, f.external.lastReq)

	rec, env := f.do(t, http.MethodPost, "/api/v1/external/gpdb1/analytics", `{"eventType":"VIEW"}x`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.CodeInvalidInput, errorCode(env))
	assert.Len(t, f.external.saved, 2)
}

func TestExternalRoutes_AnalyticsValidation(t *testing.T) {
	f := newRouterFixture(nil)

	rec, env := f.do(t, http.MethodPost, "/api/v1/external/gpdb1/analytics", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.CodeValidation, errorCode(env))
	assert.Contains(t, env.Message, "eventType")
	assert.Empty(t, f.external.saved)

	rec, env = f.do(t, http.MethodGet, "/api/v1/external/gpdb2/analytics", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.CodeValidation, errorCode(env))

	rec, env = f.do(t, http.MethodGet, "/api/v1/external/gpdb2/analytics/5", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.CodeAnalyticsNotFound, errorCode(env))

	_, env = f.do(t, http.MethodGet, "/api/v1/external/gpdb1/analytics/all", "")
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestExternalRoutes_ETLPartialFailure(t *testing.T) {
	f := newRouterFixture(nil)
	f.external.etlErr = errors.New("failed to save analytics data to gpdb2: timeout")

	rec, env := f.do(t, http.MethodPost, "/api/v1/external/etl/1", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, model.CodeInternal, errorCode(env))
}

func TestHealth(t *testing.T) {
	rec, env := newRouterFixture(nil).do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"primary":"ok","gpdb1":"ok","gpdb2":"ok"}`, string(env.Data))

	down := stubHealth{datasource.Primary: nil, datasource.GPDB1: errors.New("dial tcp: refused"), datasource.GPDB2: nil}
	rec, env = newRouterFixture(down).do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, string(env.Data), "refused")
}
