package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"printsite/internal/storage"
)

type fakeBannerStore struct {
	banners []*storage.Banner
	images  map[int64]*storage.Image
	updated *storage.Banner
}

func (f *fakeBannerStore) CreateBanner(_ context.Context, b *storage.Banner) (*storage.Banner, error) {
	out := *b
	out.ID = int64(len(f.banners) + 1)
	f.banners = append(f.banners, &out)
	return &out, nil
}

func (f *fakeBannerStore) GetBannerByID(_ context.Context, id int64) (*storage.Banner, error) {
	for _, b := range f.banners {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeBannerStore) ListBanners(_ context.Context, activeOnly bool) ([]*storage.Banner, error) {
	var out []*storage.Banner
	for _, b := range f.banners {
		if activeOnly && !b.IsActive {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBannerStore) UpdateBanner(_ context.Context, b *storage.Banner) (*storage.Banner, error) {
	f.updated = b
	return b, nil
}

func (f *fakeBannerStore) DeleteBanner(context.Context, int64) error { return nil }

func (f *fakeBannerStore) GetImageByID(_ context.Context, id int64) (*storage.Image, error) {
	img, ok := f.images[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return img, nil
}

func TestBannerCreateFromImage(t *testing.T) {
	t.Parallel()

	newHandler := func() (*BannerHandler, *fakeBannerStore) {
		store := &fakeBannerStore{images: map[int64]*storage.Image{
			7: {ID: 7, URL: "/static/images/banners/hero.png"},
		}}
		return &BannerHandler{Store: store, Logger: testLogger()}, store
	}

	post := func(t *testing.T, h *BannerHandler, body string) *httptest.ResponseRecorder {
		t.Helper()
		r := httptest.NewRequest(http.MethodPost, "/api/banners", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.HandleCreate().ServeHTTP(w, r)
		return w
	}

	t.Run("referenced image must exist", func(t *testing.T) {
		t.Parallel()
		h, _ := newHandler()

		w := post(t, h, `{"title": "Khuyến mãi", "image_id": 404}`)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("happy path defaults to active", func(t *testing.T) {
		t.Parallel()
		h, store := newHandler()

		w := post(t, h, `{"title": "Khuyến mãi", "image_id": 7, "order": 2}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", w.Code, w.Body)
		}
		created := store.banners[0]
		if !created.IsActive {
			t.Error("expected the new banner to default to active")
		}
		if created.ImageID != 7 || created.Ord != 2 {
			t.Errorf("banner = %+v, want image 7 at order 2", created)
		}
	})

	t.Run("title required", func(t *testing.T) {
		t.Parallel()
		h, _ := newHandler()

		if w := post(t, h, `{"image_id": 7}`); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestBannerToggle(t *testing.T) {
	t.Parallel()
	store := &fakeBannerStore{banners: []*storage.Banner{
		{ID: 2, Title: "Giảm giá", ImageID: 7, IsActive: true},
	}}
	h := &BannerHandler{Store: store, Logger: testLogger()}

	toggle := func(t *testing.T) *httptest.ResponseRecorder {
		t.Helper()
		r := httptest.NewRequest(http.MethodPatch, "/api/banners/2/toggle", nil)
		r.SetPathValue("id", "2")
		w := httptest.NewRecorder()
		h.HandleToggle().ServeHTTP(w, r)
		return w
	}

	if w := toggle(t); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
	}
	if store.updated == nil || store.updated.IsActive {
		t.Fatal("expected the banner to be hidden after the first toggle")
	}

	if w := toggle(t); w.Code != http.StatusOK {
		t.Fatalf("second toggle status = %d, want 200", w.Code)
	}
	if !store.updated.IsActive {
		t.Error("expected the banner to be shown again after the second toggle")
	}
}

func TestBannerActiveListing(t *testing.T) {
	t.Parallel()
	store := &fakeBannerStore{banners: []*storage.Banner{
		{ID: 1, Title: "Hiện", IsActive: true, Ord: 1},
		{ID: 2, Title: "Ẩn", IsActive: false, Ord: 2},
	}}
	h := &BannerHandler{Store: store, Logger: testLogger()}

	r := httptest.NewRequest(http.MethodGet, "/api/banners/active", nil)
	w := httptest.NewRecorder()
	h.HandleActive().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got []*storage.Banner
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("got %d banners, want only the active one", len(got))
	}
}
