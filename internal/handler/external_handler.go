package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jnst/layered-crud-template/internal/datasource"
	"github.com/jnst/layered-crud-template/internal/model"
	"github.com/jnst/layered-crud-template/internal/service"
)

// ExternalHandler serves /api/v1/external.
type ExternalHandler struct {
	externalService service.ExternalDataService
}

// NewExternalHandler creates a new external data handler.
func NewExternalHandler(externalService service.ExternalDataService) *ExternalHandler {
	return &ExternalHandler{externalService: externalService}
}

// Routes mounts the external posts, analytics and ETL endpoints.
func (h *ExternalHandler) Routes(r chi.Router) {
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{id}", h.GetPost)
	r.Get("/posts/user/{userId}", h.ListPostsByUser)

	for _, db := range []datasource.Name{datasource.GPDB1, datasource.GPDB2} {
		r.Route("/"+db.String()+"/analytics", func(r chi.Router) {
			r.Post("/", h.saveAnalytics(db))
			r.Get("/", h.analyticsByEventType(db))
			r.Get("/all", h.allAnalytics(db))
			r.Get("/{id}", h.analyticsByID(db))
		})
	}

	r.Post("/etl/{postId}", h.FetchAndStore)
}

// ListPosts handles GET /api/v1/external/posts.
func (h *ExternalHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.externalService.GetExternalPosts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, nonNilPosts(posts))
}

// GetPost handles GET /api/v1/external/posts/{id}.
func (h *ExternalHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	post, err := h.externalService.GetExternalPost(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, post)
}

// ListPostsByUser handles GET /api/v1/external/posts/user/{userId}.
func (h *ExternalHandler) ListPostsByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	posts, err := h.externalService.GetExternalPostsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, nonNilPosts(posts))
}

// FetchAndStore handles POST /api/v1/external/etl/{postId}.
func (h *ExternalHandler) FetchAndStore(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.externalService.FetchAndStore(r.Context(), postID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, result)
}

// saveAnalytics accepts eventType/eventData as query parameters or as a JSON
// body; body fields win.
func (h *ExternalHandler) saveAnalytics(db datasource.Name) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		req := analyticsRequest{EventType: q.Get("eventType"), EventData: q.Get("eventData")}

		if err := decodeJSON(r, &req, true); err != nil {
			writeError(w, r, err)
			return
		}

		if err := validateStruct(&req); err != nil {
			writeError(w, r, err)
			return
		}

		data, err := h.externalService.SaveAnalytics(r.Context(), db, req.EventType, req.EventData)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeSuccess(w, data)
	}
}

func (h *ExternalHandler) analyticsByEventType(db datasource.Name) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := eventTypeQuery{EventType: r.URL.Query().Get("eventType")}
		if err := validateStruct(&query); err != nil {
			writeError(w, r, err)
			return
		}

		records, err := h.externalService.GetAnalyticsByEventType(r.Context(), db, query.EventType)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeSuccess(w, nonNilAnalytics(records))
	}
}

func (h *ExternalHandler) allAnalytics(db datasource.Name) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := h.externalService.GetAllAnalytics(r.Context(), db)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeSuccess(w, nonNilAnalytics(records))
	}
}

func (h *ExternalHandler) analyticsByID(db datasource.Name) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}

		data, err := h.externalService.GetAnalyticsByID(r.Context(), db, id)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeSuccess(w, data)
	}
}

func nonNilPosts(posts []model.Post) []model.Post {
	if posts == nil {
		return []model.Post{}
	}

	return posts
}

func nonNilAnalytics(records []*model.AnalyticsData) []*model.AnalyticsData {
	if records == nil {
		return []*model.AnalyticsData{}
	}

	return records
}
