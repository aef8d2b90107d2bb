package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"printsite/internal/images"
	"printsite/internal/storage"
)

// ImageStore is the slice of the store the image handler needs.
type ImageStore interface {
	GetImageByID(ctx context.Context, id int64) (*storage.Image, error)
	ListImages(ctx context.Context, category string) ([]*storage.Image, error)
	UpdateImage(ctx context.Context, id int64, altText *string, visible *bool) (*storage.Image, error)
}

type ImageHandler struct {
	Store    ImageStore
	Pipeline *images.Pipeline
	Logger   *slog.Logger
}

func (h *ImageHandler) HandleList() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		imgs, err := h.Store.ListImages(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		if imgs == nil {
			imgs = []*storage.Image{}
		}
		respondJSON(w, http.StatusOK, imgs)
	})
}

type imagePatchRequest struct {
	AltText   *string `json:"alt_text"`
	IsVisible *bool   `json:"is_visible"`
}

// HandlePatch updates the two mutable fields of an image descriptor.
func (h *ImageHandler) HandlePatch() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid image id")
			return
		}

		var req imagePatchRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		updated, err := h.Store.UpdateImage(r.Context(), id, req.AltText, req.IsVisible)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, updated)
	})
}

func (h *ImageHandler) HandleDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid image id")
			return
		}

		img, err := h.Store.GetImageByID(r.Context(), id)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		removeFile := true
		if v := queryBool(r, "remove_file"); v != nil {
			removeFile = *v
		}

		if err := h.Pipeline.Remove(r.Context(), img, removeFile); err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "image deleted"})
	})
}
