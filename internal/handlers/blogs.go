package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"printsite/internal/content"
	"printsite/internal/slug"
	"printsite/internal/storage"
)

// BlogStore is the slice of the store the blog handler needs.
type BlogStore interface {
	CreateBlog(ctx context.Context, b *storage.Blog) (*storage.Blog, error)
	ListBlogs(ctx context.Context, f storage.BlogFilter) ([]*storage.Blog, error)
	UpdateBlog(ctx context.Context, b *storage.Blog) (*storage.Blog, error)
	DeleteBlog(ctx context.Context, id int64) error
}

type BlogHandler struct {
	Store    BlogStore
	Markdown *content.MarkDownRenderer
	Logger   *slog.Logger
}

// blogResponse adds the derived slug and rendered body to the stored row.
type blogResponse struct {
	*storage.Blog
	Slug        string `json:"slug"`
	ContentHTML string `json:"content_html,omitempty"`
}

func (h *BlogHandler) toResponse(b *storage.Blog, withBody bool) blogResponse {
	resp := blogResponse{Blog: b, Slug: slug.Generate(b.Title)}
	if withBody {
		html, err := h.Markdown.Render([]byte(b.Content))
		if err != nil {
			h.Logger.Warn("markdown rendering failed, serving raw body", "blog_id", b.ID, "err", err)
			html = []byte(b.Content)
		}
		resp.ContentHTML = string(html)
	}
	return resp
}

// findBySlug scans the full list; blogs have no slug column.
func (h *BlogHandler) findBySlug(ctx context.Context, target string) (*storage.Blog, error) {
	blogs, err := h.Store.ListBlogs(ctx, storage.BlogFilter{})
	if err != nil {
		return nil, err
	}
	found, ok := slug.Find(blogs, target, func(b *storage.Blog) string { return b.Title })
	if !ok {
		return nil, storage.ErrNotFound
	}
	return found, nil
}

func (h *BlogHandler) HandleList() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blogs, err := h.Store.ListBlogs(r.Context(), storage.BlogFilter{
			IsActive: queryBool(r, "is_active"),
			Category: r.URL.Query().Get("category"),
			Offset:   queryInt64(r, "offset", 0),
			Limit:    queryInt64(r, "limit", 0),
		})
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		out := make([]blogResponse, 0, len(blogs))
		for _, b := range blogs {
			out = append(out, h.toResponse(b, false))
		}
		respondJSON(w, http.StatusOK, out)
	})
}

func (h *BlogHandler) HandleGet() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blog, err := h.findBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, h.toResponse(blog, true))
	})
}

type blogRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	IsActive  *bool  `json:"is_active"`
	CreatedBy int64  `json:"created_by"`
}

func (h *BlogHandler) HandleCreate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req blogRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Title == "" {
			respondError(w, http.StatusBadRequest, "title is required")
			return
		}

		active := true
		if req.IsActive != nil {
			active = *req.IsActive
		}

		blog, err := h.Store.CreateBlog(r.Context(), &storage.Blog{
			Title:     req.Title,
			Content:   req.Content,
			Category:  req.Category,
			IsActive:  active,
			CreatedBy: req.CreatedBy,
		})
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusCreated, h.toResponse(blog, false))
	})
}

func (h *BlogHandler) HandleUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blog, err := h.findBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}

		var req blogRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		if req.Title != "" {
			blog.Title = req.Title
		}
		if req.Content != "" {
			blog.Content = req.Content
		}
		if req.Category != "" {
			blog.Category = req.Category
		}
		if req.IsActive != nil {
			blog.IsActive = *req.IsActive
		}

		updated, err := h.Store.UpdateBlog(r.Context(), blog)
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, h.toResponse(updated, false))
	})
}

func (h *BlogHandler) HandleDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blog, err := h.findBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		if err := h.Store.DeleteBlog(r.Context(), blog.ID); err != nil {
			respondStoreError(w, h.Logger, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "blog deleted"})
	})
}
