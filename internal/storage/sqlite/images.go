package sqlite

import (
	"context"
	"fmt"
	"strings"

	"printsite/internal/storage"
)

func (s *Store) CreateImage(ctx context.Context, img *storage.Image) (*storage.Image, error) {
	query := `INSERT INTO images (filename, file_path, url, alt_text, file_size, mime_type, width, height, is_visible, category, uploaded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING *`

	var out storage.Image
	err := s.db.GetContext(ctx, &out, query,
		img.Filename, img.FilePath, img.URL, img.AltText, img.FileSize,
		img.MimeType, img.Width, img.Height, img.IsVisible, img.Category, img.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("cannot create image %q: %w", img.Filename, mapSqlError(err))
	}
	return &out, nil
}

func (s *Store) GetImageByID(ctx context.Context, id int64) (*storage.Image, error) {
	query := `SELECT * FROM images
		WHERE id = ?
		LIMIT 1`

	var out storage.Image
	if err := s.db.GetContext(ctx, &out, query, id); err != nil {
		return nil, fmt.Errorf("cannot find image id %d: %w", id, mapSqlError(err))
	}
	return &out, nil
}

func (s *Store) ListImages(ctx context.Context, category string) ([]*storage.Image, error) {
	var (
		where []string
		args  []any
	)

	if category != "" {
		where = append(where, "category = ?")
		args = append(args, category)
	}

	query := `SELECT * FROM images`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var images []*storage.Image
	if err := s.db.SelectContext(ctx, &images, query, args...); err != nil {
		return nil, fmt.Errorf("cannot list images: %w", mapSqlError(err))
	}
	return images, nil
}

// UpdateImage patches only the fields that are non-nil. Everything else on an
// image row is immutable after upload.
func (s *Store) UpdateImage(ctx context.Context, id int64, altText *string, visible *bool) (*storage.Image, error) {
	var (
		set  []string
		args []any
	)

	if altText != nil {
		set = append(set, "alt_text = ?")
		args = append(args, *altText)
	}
	if visible != nil {
		set = append(set, "is_visible = ?")
		args = append(args, *visible)
	}

	if len(set) == 0 {
		return s.GetImageByID(ctx, id)
	}

	query := `UPDATE images SET ` + strings.Join(set, ", ") + `
		WHERE id = ?
		RETURNING *`
	args = append(args, id)

	var out storage.Image
	if err := s.db.GetContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("cannot update image id %d: %w", id, mapSqlError(err))
	}
	return &out, nil
}

func (s *Store) DeleteImage(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete image: %w", mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}
