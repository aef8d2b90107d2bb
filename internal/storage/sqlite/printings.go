package sqlite

import (
	"context"
	"fmt"
	"strings"

	"printsite/internal/storage"

	"github.com/jmoiron/sqlx"
)

func (s *Store) CreatePrinting(ctx context.Context, p *storage.Printing) (*storage.Printing, error) {
	query := `INSERT INTO printings (title, time, content, is_visible, created_by)
		VALUES (?, ?, ?, ?, ?)
		RETURNING *`

	var out storage.Printing
	err := s.db.GetContext(ctx, &out, query, p.Title, p.Time, p.Content, p.IsVisible, p.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("cannot create printing %q: %w", p.Title, mapSqlError(err))
	}
	return &out, nil
}

func (s *Store) GetPrintingByID(ctx context.Context, id int64) (*storage.Printing, error) {
	query := `SELECT * FROM printings
		WHERE id = ?
		LIMIT 1`

	var out storage.Printing
	if err := s.db.GetContext(ctx, &out, query, id); err != nil {
		return nil, fmt.Errorf("cannot find printing id %d: %w", id, mapSqlError(err))
	}
	return &out, nil
}

func printingWhere(f storage.PrintingFilter) (string, []any) {
	var (
		where []string
		args  []any
	)

	if f.IsVisible != nil {
		where = append(where, "is_visible = ?")
		args = append(args, *f.IsVisible)
	}
	if f.Search != "" {
		where = append(where, "(title LIKE ? OR content LIKE ?)")
		term := "%" + f.Search + "%"
		args = append(args, term, term)
	}

	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (s *Store) ListPrintings(ctx context.Context, f storage.PrintingFilter) ([]*storage.Printing, error) {
	clause, args := printingWhere(f)

	query := `SELECT * FROM printings` + clause + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	var printings []*storage.Printing
	if err := s.db.SelectContext(ctx, &printings, query, args...); err != nil {
		return nil, fmt.Errorf("cannot list printings: %w", mapSqlError(err))
	}
	return printings, nil
}

func (s *Store) CountPrintings(ctx context.Context, f storage.PrintingFilter) (int64, error) {
	clause, args := printingWhere(f)

	var total int64
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM printings`+clause, args...); err != nil {
		return 0, fmt.Errorf("cannot count printings: %w", mapSqlError(err))
	}
	return total, nil
}

func (s *Store) UpdatePrinting(ctx context.Context, p *storage.Printing) (*storage.Printing, error) {
	query := `UPDATE printings
		SET title = ?, time = ?, content = ?, is_visible = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING *`

	var out storage.Printing
	err := s.db.GetContext(ctx, &out, query, p.Title, p.Time, p.Content, p.IsVisible, p.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot update printing id %d: %w", p.ID, mapSqlError(err))
	}
	return &out, nil
}

func (s *Store) DeletePrinting(ctx context.Context, id int64) error {
	// printing_images rows go with it via ON DELETE CASCADE
	result, err := s.db.ExecContext(ctx, `DELETE FROM printings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete printing: %w", mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *Store) AddPrintingImage(ctx context.Context, printingID, imageID int64, ord int) error {
	query := `INSERT INTO printing_images (printing_id, image_id, ord)
		VALUES (?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, printingID, imageID, ord); err != nil {
		return fmt.Errorf("could not link image %d to printing %d: %w", imageID, printingID, mapSqlError(err))
	}
	return nil
}

func (s *Store) ListPrintingImages(ctx context.Context, printingID int64) ([]*storage.Image, error) {
	query := `SELECT i.* FROM images AS i
		JOIN printing_images AS pi ON pi.image_id = i.id
		WHERE pi.printing_id = ?
		ORDER BY pi.ord`

	var images []*storage.Image
	if err := s.db.SelectContext(ctx, &images, query, printingID); err != nil {
		return nil, fmt.Errorf("cannot list images for printing %d: %w", printingID, mapSqlError(err))
	}
	return images, nil
}

func (s *Store) CountPrintingImages(ctx context.Context, printingID int64) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM printing_images WHERE printing_id = ?`

	if err := s.db.GetContext(ctx, &count, query, printingID); err != nil {
		return 0, fmt.Errorf("cannot count images for printing %d: %w", printingID, mapSqlError(err))
	}
	return count, nil
}

// ClearPrintingImages removes all image links and descriptors for a printing
// and returns the removed descriptors so the caller can delete the stored
// files as well. Links and rows go in one transaction.
func (s *Store) ClearPrintingImages(ctx context.Context, printingID int64) ([]*storage.Image, error) {
	var images []*storage.Image

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `SELECT i.* FROM images AS i
			JOIN printing_images AS pi ON pi.image_id = i.id
			WHERE pi.printing_id = ?
			ORDER BY pi.ord`
		if err := tx.SelectContext(ctx, &images, query, printingID); err != nil {
			return fmt.Errorf("cannot list images for printing %d: %w", printingID, mapSqlError(err))
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM printing_images WHERE printing_id = ?`, printingID); err != nil {
			return fmt.Errorf("cannot clear image links for printing %d: %w", printingID, mapSqlError(err))
		}

		for _, img := range images {
			if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, img.ID); err != nil {
				return fmt.Errorf("cannot delete image %d: %w", img.ID, mapSqlError(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return images, nil
}
