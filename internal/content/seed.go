package content

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"printsite/internal/storage"

	"github.com/adrg/frontmatter"
)

type blogMeta struct {
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	Draft    bool   `yaml:"draft"`
}

// BlogSeedStore is the slice of the store the seeder needs.
type BlogSeedStore interface {
	ListBlogs(ctx context.Context, f storage.BlogFilter) ([]*storage.Blog, error)
	CreateBlog(ctx context.Context, b *storage.Blog) (*storage.Blog, error)
}

// Seeder imports markdown files as blog posts on startup. It exists so a
// fresh deployment can ship with editorial content checked into the repo.
type Seeder struct {
	store  BlogSeedStore
	logger *slog.Logger
}

func NewSeeder(store BlogSeedStore, logger *slog.Logger) *Seeder {
	return &Seeder{store: store, logger: logger}
}

// SeedFromDisk parses each markdown file's frontmatter and inserts a blog row
// for every title not already present. Files that cannot be read are logged
// and skipped; a store failure aborts the run.
func (s *Seeder) SeedFromDisk(ctx context.Context, paths []string, createdBy int64) error {
	if len(paths) == 0 {
		return ErrNoFilePaths
	}

	existing, err := s.store.ListBlogs(ctx, storage.BlogFilter{})
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, b := range existing {
		seen[b.Title] = true
	}

	for _, fileName := range paths {
		cleanPath := strings.TrimSpace(fileName)

		file, err := os.OpenInRoot(filepath.Split(cleanPath))
		if err != nil {
			s.logger.Warn("skipping unreadable seed file", "path", cleanPath, "error", err)
			continue
		}
		raw, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			s.logger.Warn("skipping unreadable seed file", "path", cleanPath, "error", err)
			continue
		}

		var meta blogMeta
		body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)

		// fallback for files without frontmatter
		if err != nil || meta.Title == "" {
			meta.Title = fallbackTitleScan(bytes.NewReader(raw))
			body = raw
		}

		if meta.Draft {
			continue
		}
		if seen[meta.Title] {
			s.logger.Debug("seed already present", "title", meta.Title)
			continue
		}

		blog := &storage.Blog{
			Title:     meta.Title,
			Content:   string(body),
			Category:  meta.Category,
			IsActive:  true,
			CreatedBy: createdBy,
		}
		if _, err := s.store.CreateBlog(ctx, blog); err != nil {
			return err
		}
		seen[meta.Title] = true

		s.logger.Info("seeded blog post", "path", cleanPath, "title", meta.Title)
	}
	return nil
}

func fallbackTitleScan(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	// if title is not within first 20 lines, it's likely not there at all
	linesScanned := 0
	for scanner.Scan() {
		linesScanned++
		if linesScanned > 20 {
			break
		}
		if _, title, found := strings.Cut(scanner.Text(), "# "); found {
			return strings.TrimSpace(title)
		}
	}
	return "Untitled Post"
}
