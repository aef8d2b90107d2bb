package sqlite

import (
	"context"
	"fmt"

	"printsite/internal/storage"
)

func (s *Store) CreateBanner(ctx context.Context, b *storage.Banner) (*storage.Banner, error) {
	query := `INSERT INTO banners (title, description, link_url, image_id, is_active, ord)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING *`

	var out storage.Banner
	err := s.db.GetContext(ctx, &out, query, b.Title, b.Description, b.LinkURL, b.ImageID, b.IsActive, b.Ord)
	if err != nil {
		return nil, fmt.Errorf("cannot create banner %q: %w", b.Title, mapSqlError(err))
	}
	return &out, nil
}

func (s *Store) GetBannerByID(ctx context.Context, id int64) (*storage.Banner, error) {
	query := `SELECT * FROM banners
		WHERE id = ?
		LIMIT 1`

	var out storage.Banner
	if err := s.db.GetContext(ctx, &out, query, id); err != nil {
		return nil, fmt.Errorf("cannot find banner id %d: %w", id, mapSqlError(err))
	}
	return &out, nil
}

func (s *Store) ListBanners(ctx context.Context, activeOnly bool) ([]*storage.Banner, error) {
	query := `SELECT * FROM banners`
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY ord, id"

	var banners []*storage.Banner
	if err := s.db.SelectContext(ctx, &banners, query); err != nil {
		return nil, fmt.Errorf("cannot list banners: %w", mapSqlError(err))
	}
	return banners, nil
}

func (s *Store) UpdateBanner(ctx context.Context, b *storage.Banner) (*storage.Banner, error) {
	query := `UPDATE banners
		SET title = ?, description = ?, link_url = ?, image_id = ?, is_active = ?, ord = ?
		WHERE id = ?
		RETURNING *`

	var out storage.Banner
	err := s.db.GetContext(ctx, &out, query, b.Title, b.Description, b.LinkURL, b.ImageID, b.IsActive, b.Ord, b.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot update banner id %d: %w", b.ID, mapSqlError(err))
	}
	return &out, nil
}

func (s *Store) DeleteBanner(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM banners WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete banner: %w", mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}
