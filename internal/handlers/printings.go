package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"printsite/internal/content"
	"printsite/internal/images"
	"printsite/internal/slug"
	"printsite/internal/storage"
)

// PrintingStore is the slice of the store the printing handler needs.
type PrintingStore interface {
	CreatePrinting(ctx context.Context, p *storage.Printing) (*storage.Printing, error)
	ListPrintings(ctx context.Context, f storage.PrintingFilter) ([]*storage.Printing, error)
	CountPrintings(ctx context.Context, f storage.PrintingFilter) (int64, error)
	UpdatePrinting(ctx context.Context, p *storage.Printing) (*storage.Printing, error)
	DeletePrinting(ctx context.Context, id int64) error
	ListPrintingImages(ctx context.Context, printingID int64) ([]*storage.Image, error)
	ClearPrintingImages(ctx context.Context, printingID int64) ([]*storage.Image, error)
}

type PrintingHandler struct {
	Store    PrintingStore
	Pipeline *images.Pipeline
	Renderer *content.Renderer
	Files    storage.Provider
	Logger   *slog.Logger
}

type printingResponse struct {
	*storage.Printing
	Slug        string           `json:"slug"`
	ContentHTML string           `json:"content_html"`
	Images      []*storage.Image `json:"images"`
}

func (h *PrintingHandler) toResponse(ctx context.Context, p *storage.Printing) (printingResponse, error) {
	rendered, err := h.Renderer.Render(ctx, p.Content)
	if err != nil {
		return printingResponse{}, err
	}

	gallery, err := h.Store.ListPrintingImages(ctx, p.ID)
	if err != nil {
		h.Logger.Warn("gallery lookup failed", "printing_id", p.ID, "err", err)
	}
	if gallery == nil {
		gallery = []*storage.Image{}
	}
	return printingResponse{
		Printing:    p,
		Slug:        slug.Generate(p.Title),
		ContentHTML: rendered,
		Images:      gallery,
	}, nil
}

func (h *PrintingHandler) findBySlug(ctx context.Context, target string) (*storage.Printing, error) {
	printings, err := h.Store.ListPrintings(ctx, storage.PrintingFilter{})
	if err != nil {
		return nil, err
	}
	found, ok := slug.Find(printings, target, func(p *storage.Printing) string { return p.Title })
	if !ok {
		return nil, storage.ErrNotFound
	}
	return found, nil
}

type printingListResponse struct {
	Items []printingResponse `json:"items"`
	Total int64              `json:"total"`
}

func (h *PrintingHandler) HandleList() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filter := storage.PrintingFilter{
			IsVisible: queryBool(r, "is_visible"),
			Search:    r.URL.Query().Get("search"),
			Offset:    queryInt64(r, "offset", 0),
			Limit:     queryInt64(r, "limit", 0),
		}

		printings, err := h.Store.ListPrintings(r.Context(), filter)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		total, err := h.Store.CountPrintings(r.Context(), filter)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		items := make([]printingResponse, 0, len(printings))
		for _, p := range printings {
			item, err := h.toResponse(r.Context(), p)
			if err != nil {
				respondStoreError(w, h.Logger, err)
				return
			}
			items = append(items, item)
		}
		respondJSON(w, http.StatusOK, printingListResponse{Items: items, Total: total})
	})
}

func (h *PrintingHandler) HandleGet() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := h.findBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		resp, err := h.toResponse(r.Context(), p)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	})
}

// parsePrintingForm fills p from the multipart fields; file parts are handled
// separately by the caller.
func parsePrintingForm(r *http.Request, p *storage.Printing) error {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		return err
	}
	if v := r.FormValue("title"); v != "" {
		p.Title = v
	}
	if v := r.FormValue("time"); v != "" {
		p.Time = v
	}
	if v := r.FormValue("content"); v != "" {
		p.Content = v
	}
	if v := r.FormValue("is_visible"); v != "" {
		p.IsVisible, _ = strconv.ParseBool(v)
	}
	return nil
}

func formUploads(r *http.Request) []images.UploadInput {
	if r.MultipartForm == nil {
		return nil
	}
	var uploads []images.UploadInput
	for _, header := range r.MultipartForm.File["images"] {
		file, err := header.Open()
		if err != nil {
			continue
		}
		// closed when the multipart form is removed
		uploads = append(uploads, images.UploadInput{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		})
	}
	return uploads
}

func (h *PrintingHandler) HandleCreate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := &storage.Printing{IsVisible: true}
		if err := parsePrintingForm(r, p); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if p.Title == "" {
			respondError(w, http.StatusBadRequest, "title is required")
			return
		}
		p.CreatedBy = formUserID(r)

		created, err := h.Store.CreatePrinting(r.Context(), p)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		if uploads := formUploads(r); len(uploads) > 0 {
			if _, err := h.Pipeline.IngestBatch(r.Context(), created.ID, uploads, false, created.CreatedBy); err != nil {
				// the printing row stays; the batch cleaned up after itself
				respondStoreError(w, h.Logger, err)
				return
			}
		}

		resp, err := h.toResponse(r.Context(), created)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusCreated, resp)
	})
}

func (h *PrintingHandler) HandleUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := h.findBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		if err := parsePrintingForm(r, p); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		updated, err := h.Store.UpdatePrinting(r.Context(), p)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		if uploads := formUploads(r); len(uploads) > 0 {
			keepExisting, _ := strconv.ParseBool(r.FormValue("keep_existing_images"))
			if _, err := h.Pipeline.IngestBatch(r.Context(), updated.ID, uploads, keepExisting, updated.CreatedBy); err != nil {
				respondStoreError(w, h.Logger, err)
				return
			}
		}

		resp, err := h.toResponse(r.Context(), updated)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	})
}

func (h *PrintingHandler) HandleDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := h.findBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		// gallery files go first, then rows, then the printing itself
		removed, err := h.Store.ClearPrintingImages(r.Context(), p.ID)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		for _, img := range removed {
			if err := h.Files.Delete(r.Context(), img.FilePath); err != nil {
				h.Logger.Warn("gallery file not removed", "key", img.FilePath, "err", err)
			}
		}

		if err := h.Store.DeletePrinting(r.Context(), p.ID); err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "printing deleted"})
	})
}

type visibilityRequest struct {
	IsVisible bool `json:"is_visible"`
}

func (h *PrintingHandler) HandleVisibility() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := h.findBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		var req visibilityRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		p.IsVisible = req.IsVisible
		updated, err := h.Store.UpdatePrinting(r.Context(), p)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		resp, err := h.toResponse(r.Context(), updated)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	})
}

type contentImageResponse struct {
	Shortcode string         `json:"shortcode"`
	Image     *storage.Image `json:"image"`
}

// HandleUploadContentImage stores an editor upload and returns the shortcode
// to paste into the body.
func (h *PrintingHandler) HandleUploadContentImage() http.Handler {
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

		var alt *string
		if v := r.FormValue("alt_text"); v != "" {
			alt = &v
		}

		img, err := h.Pipeline.Ingest(r.Context(), images.UploadInput{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
			AltText:     alt,
		}, "printing", formUserID(r))
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		altText := ""
		if alt != nil {
			altText = *alt
		}
		respondJSON(w, http.StatusCreated, contentImageResponse{
			Shortcode: content.Marker(img.ID, altText),
			Image:     img,
		})
	})
}

// HandlePasteImage accepts clipboard uploads, which arrive without a real
// filename; one is synthesised from the content type.
func (h *PrintingHandler) HandlePasteImage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			respondError(w, http.StatusBadRequest, "image part is required")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		filename := header.Filename
		if filename == "" || filename == "blob" {
			filename = synthesiseFilename(contentType)
		}

		img, err := h.Pipeline.Ingest(r.Context(), images.UploadInput{
			Filename:    filename,
			ContentType: contentType,
			Body:        file,
		}, "printing", formUserID(r))
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		respondJSON(w, http.StatusCreated, contentImageResponse{
			Shortcode: content.Marker(img.ID, ""),
			Image:     img,
		})
	})
}

func synthesiseFilename(contentType string) string {
	ext := ".png"
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	case "image/bmp":
		ext = ".bmp"
	}
	return fmt.Sprintf("paste-%s%s", time.Now().UTC().Format("20060102T150405"), ext)
}

type parseContentRequest struct {
	Content string `json:"content"`
}

type parseContentResponse struct {
	ContentHTML string `json:"content_html"`
	ImagesFound int    `json:"images_found"`
}

// HandleParseContent previews a body without saving anything.
func (h *PrintingHandler) HandleParseContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req parseContentRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		rendered, err := h.Renderer.Render(r.Context(), req.Content)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		respondJSON(w, http.StatusOK, parseContentResponse{
			ContentHTML: rendered,
			ImagesFound: content.CountMarkers(req.Content),
		})
	})
}
