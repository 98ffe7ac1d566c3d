package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jnst/layered-crud-template/internal/model"
	"github.com/jnst/layered-crud-template/internal/service"
)

// SampleHandler serves /api/v1/samples.
type SampleHandler struct {
	sampleService service.SampleService
}

// NewSampleHandler creates a new sample handler.
func NewSampleHandler(sampleService service.SampleService) *SampleHandler {
	return &SampleHandler{sampleService: sampleService}
}

// Routes mounts the sample endpoints.
func (h *SampleHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// Create handles POST /api/v1/samples.
func (h *SampleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sampleRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	if err := validateStruct(&req); err != nil {
		writeError(w, r, err)
		return
	}

	sample, err := h.sampleService.Create(r.Context(), req.Title, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, sample)
}

// Update handles PUT /api/v1/samples/{id}.
func (h *SampleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req sampleRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	if err := validateStruct(&req); err != nil {
		writeError(w, r, err)
		return
	}

	sample, err := h.sampleService.Update(r.Context(), id, req.Title, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, sample)
}

// Get handles GET /api/v1/samples/{id}.
func (h *SampleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	sample, err := h.sampleService.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, sample)
}

// List handles GET /api/v1/samples, filtering by ?title= when present.
func (h *SampleHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		samples []*model.Sample
		err     error
	)

	if title := r.URL.Query().Get("title"); title != "" {
		samples, err = h.sampleService.SearchByTitle(r.Context(), title)
	} else {
		samples, err = h.sampleService.GetAll(r.Context())
	}

	if err != nil {
		writeError(w, r, err)
		return
	}

	if samples == nil {
		samples = []*model.Sample{}
	}

	writeSuccess(w, samples)
}

// Delete handles DELETE /api/v1/samples/{id}.
func (h *SampleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.sampleService.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, nil)
}
