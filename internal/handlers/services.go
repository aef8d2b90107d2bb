package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"printsite/internal/images"
	"printsite/internal/slug"
	"printsite/internal/storage"
)

const suggestedCount = 4

// ServiceStore is the slice of the store the service handler needs.
type ServiceStore interface {
	CreateService(ctx context.Context, s *storage.Service) (*storage.Service, error)
	GetServiceByID(ctx context.Context, id int64) (*storage.Service, error)
	ListServices(ctx context.Context, f storage.ServiceFilter) ([]*storage.Service, error)
	UpdateService(ctx context.Context, s *storage.Service) (*storage.Service, error)
	DeleteService(ctx context.Context, id int64) error
	CreateServiceReview(ctx context.Context, rv *storage.Review) (*storage.Review, error)
	ListServiceReviews(ctx context.Context, serviceID int64) ([]*storage.Review, error)
}

type ServiceHandler struct {
	Store    ServiceStore
	Pipeline *images.Pipeline
	Logger   *slog.Logger
}

type serviceResponse struct {
	*storage.Service
	Slug string `json:"slug"`
}

func serviceToResponse(s *storage.Service) serviceResponse {
	return serviceResponse{Service: s, Slug: slug.Generate(s.Name)}
}

func (h *ServiceHandler) HandleList() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		services, err := h.Store.ListServices(r.Context(), storage.ServiceFilter{
			IsActive: queryBool(r, "is_active"),
			Featured: queryBool(r, "featured"),
			Category: r.URL.Query().Get("category"),
			Offset:   queryInt64(r, "offset", 0),
			Limit:    queryInt64(r, "limit", 0),
		})
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		out := make([]serviceResponse, 0, len(services))
		for _, s := range services {
			out = append(out, serviceToResponse(s))
		}
		respondJSON(w, http.StatusOK, out)
	})
}

func (h *ServiceHandler) HandleGet() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid service id")
			return
		}
		svc, err := h.Store.GetServiceByID(r.Context(), id)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, serviceToResponse(svc))
	})
}

// HandleSuggested returns up to four other services: featured active first,
// then remaining active, then anything else.
func (h *ServiceHandler) HandleSuggested() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		currentID := queryInt64(r, "current_id", 0)

		all, err := h.Store.ListServices(r.Context(), storage.ServiceFilter{})
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		picked := make([]serviceResponse, 0, suggestedCount)
		taken := make(map[int64]bool)

		passes := []func(*storage.Service) bool{
			func(s *storage.Service) bool { return s.Featured && s.IsActive },
			func(s *storage.Service) bool { return s.IsActive },
			func(s *storage.Service) bool { return true },
		}
		for _, keep := range passes {
			for _, s := range all {
				if len(picked) == suggestedCount {
					break
				}
				if s.ID == currentID || taken[s.ID] || !keep(s) {
					continue
				}
				taken[s.ID] = true
				picked = append(picked, serviceToResponse(s))
			}
		}

		respondJSON(w, http.StatusOK, picked)
	})
}

// parseServiceForm reads the multipart body shared by create and update. The
// image part is optional; when present it is ingested under the service
// category and its id stored on the row.
func (h *ServiceHandler) parseServiceForm(r *http.Request, svc *storage.Service) error {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return err
	}

	if v := r.FormValue("name"); v != "" {
		svc.Name = v
	}
	if v := r.FormValue("description"); v != "" {
		svc.Description = v
	}
	if v := r.FormValue("content"); v != "" {
		svc.Content = v
	}
	if v := r.FormValue("category"); v != "" {
		svc.Category = v
	}
	if v := r.FormValue("featured"); v != "" {
		svc.Featured, _ = strconv.ParseBool(v)
	}
	if v := r.FormValue("is_active"); v != "" {
		svc.IsActive, _ = strconv.ParseBool(v)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil // no image part
	}
	defer file.Close()

	img, err := h.Pipeline.Ingest(r.Context(), images.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, "service", formUserID(r))
	if err != nil {
		return err
	}
	svc.ImageID = &img.ID
	return nil
}

func (h *ServiceHandler) HandleCreate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		svc := &storage.Service{IsActive: true}
		if err := h.parseServiceForm(r, svc); err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		if svc.Name == "" {
			respondError(w, http.StatusBadRequest, "name is required")
			return
		}

		created, err := h.Store.CreateService(r.Context(), svc)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusCreated, serviceToResponse(created))
	})
}

func (h *ServiceHandler) HandleUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid service id")
			return
		}
		svc, err := h.Store.GetServiceByID(r.Context(), id)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		if err := h.parseServiceForm(r, svc); err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		updated, err := h.Store.UpdateService(r.Context(), svc)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, serviceToResponse(updated))
	})
}

func (h *ServiceHandler) HandleListReviews() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid service id")
			return
		}
		if _, err := h.Store.GetServiceByID(r.Context(), id); err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		reviews, err := h.Store.ListServiceReviews(r.Context(), id)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		if reviews == nil {
			reviews = []*storage.Review{}
		}
		respondJSON(w, http.StatusOK, reviews)
	})
}

type createReviewRequest struct {
	AuthorName  string `json:"author_name"`
	IsAnonymous bool   `json:"is_anonymous"`
	Rating      int    `json:"rating"`
	Content     string `json:"content"`
}

// HandleCreateReview accepts visitor reviews; an anonymous review drops the
// author name entirely.
func (h *ServiceHandler) HandleCreateReview() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid service id")
			return
		}
		if _, err := h.Store.GetServiceByID(r.Context(), id); err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		var req createReviewRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Rating < 1 || req.Rating > 5 {
			respondError(w, http.StatusBadRequest, "rating must be between 1 and 5")
			return
		}

		review := &storage.Review{
			ServiceID:   id,
			IsAnonymous: req.IsAnonymous,
			Rating:      req.Rating,
			Content:     req.Content,
		}
		if !req.IsAnonymous && req.AuthorName != "" {
			review.AuthorName = &req.AuthorName
		}

		created, err := h.Store.CreateServiceReview(r.Context(), review)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusCreated, created)
	})
}

func (h *ServiceHandler) HandleDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid service id")
			return
		}
		if err := h.Store.DeleteService(r.Context(), id); err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "service deleted"})
	})
}
