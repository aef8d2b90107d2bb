package sqlite

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"os"
	"testing"

	"printsite/internal/storage"
)

func gen60CharString() string {
	hashBytes := make([]byte, 45)
	_, _ = rand.Read(hashBytes)
	return base64.RawURLEncoding.EncodeToString(hashBytes)
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	tempDir := t.TempDir()
	dbFile, _ := os.CreateTemp(tempDir, "test_printsite.*.db")

	store, err := NewStore(dbFile.Name())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := store.Migrate("../../../migrations"); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func createTestUser(t *testing.T, store *Store, username string) *storage.User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), username, username+"@example.com", gen60CharString(), "editor")
	if err != nil {
		t.Fatalf("failed to create user %q: %v", username, err)
	}
	return user
}

func createTestImage(t *testing.T, store *Store, uploadedBy int64, category string) *storage.Image {
	t.Helper()

	img, err := store.CreateImage(context.Background(), &storage.Image{
		Filename:  gen60CharString() + ".png",
		FilePath:  "static/images/uploads/" + gen60CharString() + ".png",
		URL:       "/static/images/uploads/test.png",
		FileSize:  1024,
		MimeType:  "image/png",
		IsVisible: true,
		Category:  category,
		CreatedBy: uploadedBy,
	})
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	return img
}
