package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"printsite/internal/images"
	"printsite/internal/storage"
)

// BannerStore is the slice of the store the banner handler needs.
type BannerStore interface {
	CreateBanner(ctx context.Context, b *storage.Banner) (*storage.Banner, error)
	GetBannerByID(ctx context.Context, id int64) (*storage.Banner, error)
	ListBanners(ctx context.Context, activeOnly bool) ([]*storage.Banner, error)
	UpdateBanner(ctx context.Context, b *storage.Banner) (*storage.Banner, error)
	DeleteBanner(ctx context.Context, id int64) error
	GetImageByID(ctx context.Context, id int64) (*storage.Image, error)
}

type BannerHandler struct {
	Store    BannerStore
	Pipeline *images.Pipeline
	Logger   *slog.Logger
}

type bannerResponse struct {
	*storage.Banner
	Image *storage.Image `json:"image,omitempty"`
}

func (h *BannerHandler) toResponse(ctx context.Context, b *storage.Banner) bannerResponse {
	resp := bannerResponse{Banner: b}
	if img, err := h.Store.GetImageByID(ctx, b.ImageID); err == nil {
		resp.Image = img
	}
	return resp
}

func (h *BannerHandler) HandleList() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		activeOnly := true
		if v := queryBool(r, "active_only"); v != nil {
			activeOnly = *v
		}

		banners, err := h.Store.ListBanners(r.Context(), activeOnly)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		out := make([]bannerResponse, 0, len(banners))
		for _, b := range banners {
			out = append(out, h.toResponse(r.Context(), b))
		}
		respondJSON(w, http.StatusOK, out)
	})
}

// HandleActive lists only the banners a visitor should see, in display
// order.
func (h *BannerHandler) HandleActive() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		banners, err := h.Store.ListBanners(r.Context(), true)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		out := make([]bannerResponse, 0, len(banners))
		for _, b := range banners {
			out = append(out, h.toResponse(r.Context(), b))
		}
		respondJSON(w, http.StatusOK, out)
	})
}

func (h *BannerHandler) HandleGet() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid banner id")
			return
		}
		banner, err := h.Store.GetBannerByID(r.Context(), id)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, h.toResponse(r.Context(), banner))
	})
}

type createBannerRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	LinkURL     *string `json:"link_url"`
	ImageID     int64   `json:"image_id"`
	IsActive    *bool   `json:"is_active"`
	Ord         int     `json:"order"`
}

// HandleCreate makes a banner from an image that was already uploaded.
func (h *BannerHandler) HandleCreate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createBannerRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Title == "" {
			respondError(w, http.StatusBadRequest, "title is required")
			return
		}

		// the referenced image must exist
		if _, err := h.Store.GetImageByID(r.Context(), req.ImageID); err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		banner := &storage.Banner{
			Title:       req.Title,
			Description: req.Description,
			LinkURL:     req.LinkURL,
			ImageID:     req.ImageID,
			IsActive:    true,
			Ord:         req.Ord,
		}
		if req.IsActive != nil {
			banner.IsActive = *req.IsActive
		}

		created, err := h.Store.CreateBanner(r.Context(), banner)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusCreated, h.toResponse(r.Context(), created))
	})
}

// HandleToggle flips a banner between shown and hidden.
func (h *BannerHandler) HandleToggle() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid banner id")
			return
		}
		banner, err := h.Store.GetBannerByID(r.Context(), id)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		banner.IsActive = !banner.IsActive
		updated, err := h.Store.UpdateBanner(r.Context(), banner)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, h.toResponse(r.Context(), updated))
	})
}

// HandleUploadWithBanner ingests the image (banner limits apply) and creates
// the banner row in one request.
func (h *BannerHandler) HandleUploadWithBanner() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "file part is required")
			return
		}
		defer file.Close()

		title := r.FormValue("title")
		if title == "" {
			respondError(w, http.StatusBadRequest, "title is required")
			return
		}

		img, err := h.Pipeline.Ingest(r.Context(), images.UploadInput{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}, "banner", formUserID(r))
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		banner := &storage.Banner{
			Title:    title,
			ImageID:  img.ID,
			IsActive: true,
		}
		if v := r.FormValue("description"); v != "" {
			banner.Description = &v
		}
		if v := r.FormValue("link_url"); v != "" {
			banner.LinkURL = &v
		}
		if v := r.FormValue("order"); v != "" {
			banner.Ord, _ = strconv.Atoi(v)
		}
		if v := r.FormValue("is_active"); v != "" {
			banner.IsActive, _ = strconv.ParseBool(v)
		}

		created, err := h.Store.CreateBanner(r.Context(), banner)
		if err != nil {
			// don't orphan the freshly stored image
			if remErr := h.Pipeline.Remove(r.Context(), img, true); remErr != nil {
				h.Logger.Error("banner image cleanup failed", "image_id", img.ID, "err", remErr)
			}
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusCreated, h.toResponse(r.Context(), created))
	})
}

type bannerUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	LinkURL     *string `json:"link_url"`
	Ord         *int    `json:"order"`
	IsActive    *bool   `json:"is_active"`
}

func (h *BannerHandler) HandleUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid banner id")
			return
		}
		banner, err := h.Store.GetBannerByID(r.Context(), id)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		var req bannerUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		if req.Title != nil {
			banner.Title = *req.Title
		}
		if req.Description != nil {
			banner.Description = req.Description
		}
		if req.LinkURL != nil {
			banner.LinkURL = req.LinkURL
		}
		if req.Ord != nil {
			banner.Ord = *req.Ord
		}
		if req.IsActive != nil {
			banner.IsActive = *req.IsActive
		}

		updated, err := h.Store.UpdateBanner(r.Context(), banner)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, h.toResponse(r.Context(), updated))
	})
}

func (h *BannerHandler) HandleDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid banner id")
			return
		}

		banner, err := h.Store.GetBannerByID(r.Context(), id)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		if err := h.Store.DeleteBanner(r.Context(), banner.ID); err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		// remove the backing image as well; banners own their image
		if img, err := h.Store.GetImageByID(r.Context(), banner.ImageID); err == nil {
			if err := h.Pipeline.Remove(r.Context(), img, true); err != nil {
				h.Logger.Warn("banner image not removed", "image_id", img.ID, "err", err)
			}
		}

		respondJSON(w, http.StatusOK, map[string]string{"message": "banner deleted"})
	})
}
