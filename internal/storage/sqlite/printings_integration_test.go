//go:build integration

package sqlite

import (
	"context"
	"errors"
	"testing"

	"printsite/internal/storage"
)

func TestPrintingLifecycle(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "printing.author")

	created, err := store.CreatePrinting(ctx, &storage.Printing{
		Title:     "In tờ rơi khổ A5",
		Time:      "2-3 ngày",
		Content:   "Nội dung mô tả dịch vụ.",
		IsVisible: true,
		CreatedBy: author.ID,
	})
	if err != nil {
		t.Fatalf("CreatePrinting failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected a non-zero id")
	}

	created.Content = "Nội dung đã chỉnh sửa."
	created.IsVisible = false
	updated, err := store.UpdatePrinting(ctx, created)
	if err != nil {
		t.Fatalf("UpdatePrinting failed: %v", err)
	}
	if updated.Content != created.Content {
		t.Errorf("content = %q, want %q", updated.Content, created.Content)
	}
	if updated.IsVisible {
		t.Error("expected printing to be hidden")
	}

	if err := store.DeletePrinting(ctx, created.ID); err != nil {
		t.Fatalf("DeletePrinting failed: %v", err)
	}
	if _, err := store.GetPrintingByID(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCreatePrintingUnknownAuthor(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)

	_, err := store.CreatePrinting(context.Background(), &storage.Printing{
		Title: "In không chủ", Time: "1 ngày", Content: "x",
		CreatedBy: 9999,
	})
	if !errors.Is(err, storage.ErrFKViolation) {
		t.Errorf("expected ErrFKViolation, got %v", err)
	}
}

func TestListPrintingsFilters(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "printing.lister")

	seed := []struct {
		title   string
		content string
		visible bool
	}{
		{"In danh thiếp", "giấy couche 300gsm", true},
		{"In tờ rơi", "giấy couche 150gsm", true},
		{"In bảng hiệu", "bạt hiflex", false},
	}
	for _, p := range seed {
		if _, err := store.CreatePrinting(ctx, &storage.Printing{
			Title: p.title, Time: "1 ngày", Content: p.content,
			IsVisible: p.visible, CreatedBy: author.ID,
		}); err != nil {
			t.Fatalf("seeding %q: %v", p.title, err)
		}
	}

	visible := true
	got, err := store.ListPrintings(ctx, storage.PrintingFilter{IsVisible: &visible})
	if err != nil {
		t.Fatalf("ListPrintings failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("visible filter returned %d printings, want 2", len(got))
	}

	got, err = store.ListPrintings(ctx, storage.PrintingFilter{Search: "couche"})
	if err != nil {
		t.Fatalf("ListPrintings search failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("content search returned %d printings, want 2", len(got))
	}

	got, err = store.ListPrintings(ctx, storage.PrintingFilter{Search: "danh thiếp"})
	if err != nil {
		t.Fatalf("ListPrintings search failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("title search returned %d printings, want 1", len(got))
	}

	total, err := store.CountPrintings(ctx, storage.PrintingFilter{Search: "couche"})
	if err != nil {
		t.Fatalf("CountPrintings failed: %v", err)
	}
	if total != 2 {
		t.Errorf("count = %d, want 2", total)
	}
}

func TestPrintingImageLinks(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "gallery.owner")
	printing, err := store.CreatePrinting(ctx, &storage.Printing{
		Title: "In catalogue", Time: "5 ngày", Content: "x",
		IsVisible: true, CreatedBy: author.ID,
	})
	if err != nil {
		t.Fatalf("CreatePrinting failed: %v", err)
	}

	// link in reverse so ORDER BY ord is actually exercised
	var linked []*storage.Image
	for ord := 3; ord >= 1; ord-- {
		img := createTestImage(t, store, author.ID, "printing")
		if err := store.AddPrintingImage(ctx, printing.ID, img.ID, ord); err != nil {
			t.Fatalf("AddPrintingImage ord %d: %v", ord, err)
		}
		linked = append(linked, img)
	}

	count, err := store.CountPrintingImages(ctx, printing.ID)
	if err != nil {
		t.Fatalf("CountPrintingImages failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	gallery, err := store.ListPrintingImages(ctx, printing.ID)
	if err != nil {
		t.Fatalf("ListPrintingImages failed: %v", err)
	}
	if len(gallery) != 3 {
		t.Fatalf("expected 3 gallery images, got %d", len(gallery))
	}
	// linked was built ord 3,2,1 so the listing should reverse it
	for i, img := range gallery {
		if want := linked[2-i].ID; img.ID != want {
			t.Errorf("gallery[%d].ID = %d, want %d", i, img.ID, want)
		}
	}

	if err := store.AddPrintingImage(ctx, printing.ID, gallery[0].ID, 4); err == nil {
		t.Error("expected the ord check to reject a fourth slot")
	}

	removed, err := store.ClearPrintingImages(ctx, printing.ID)
	if err != nil {
		t.Fatalf("ClearPrintingImages failed: %v", err)
	}
	if len(removed) != 3 {
		t.Errorf("expected 3 removed descriptors, got %d", len(removed))
	}

	count, err = store.CountPrintingImages(ctx, printing.ID)
	if err != nil {
		t.Fatalf("CountPrintingImages after clear: %v", err)
	}
	if count != 0 {
		t.Errorf("count after clear = %d, want 0", count)
	}

	// image rows themselves are gone, not just the links
	if _, err := store.GetImageByID(ctx, removed[0].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for cleared image, got %v", err)
	}
}

func TestDeletePrintingCascadesLinks(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "cascade.owner")
	printing, err := store.CreatePrinting(ctx, &storage.Printing{
		Title: "In decal", Time: "1 ngày", Content: "x",
		IsVisible: true, CreatedBy: author.ID,
	})
	if err != nil {
		t.Fatalf("CreatePrinting failed: %v", err)
	}

	img := createTestImage(t, store, author.ID, "printing")
	if err := store.AddPrintingImage(ctx, printing.ID, img.ID, 1); err != nil {
		t.Fatalf("AddPrintingImage failed: %v", err)
	}

	if err := store.DeletePrinting(ctx, printing.ID); err != nil {
		t.Fatalf("DeletePrinting failed: %v", err)
	}

	var links int64
	if err := store.db.Get(&links, `SELECT COUNT(*) FROM printing_images WHERE printing_id = ?`, printing.ID); err != nil {
		t.Fatalf("counting links: %v", err)
	}
	if links != 0 {
		t.Errorf("expected links to cascade away, found %d", links)
	}
}
