package sqlite

import (
	"context"
	"fmt"
	"strings"

	"printsite/internal/storage"
)

func (s *Store) CreateBlog(ctx context.Context, b *storage.Blog) (*storage.Blog, error) {
	query := `INSERT INTO blogs (title, content, category, is_active, created_by)
		VALUES (?, ?, ?, ?, ?)
		RETURNING *`

	var blog storage.Blog
	if err := s.db.GetContext(ctx, &blog, query, b.Title, b.Content, b.Category, b.IsActive, b.CreatedBy); err != nil {
		return nil, fmt.Errorf("cannot create blog %q: %w", b.Title, mapSqlError(err))
	}
	return &blog, nil
}

func (s *Store) GetBlogByID(ctx context.Context, id int64) (*storage.Blog, error) {
	query := `SELECT * FROM blogs
		WHERE id = ?
		LIMIT 1`

	var blog storage.Blog
	if err := s.db.GetContext(ctx, &blog, query, id); err != nil {
		return nil, fmt.Errorf("cannot find blog id %d: %w", id, mapSqlError(err))
	}
	return &blog, nil
}

func (s *Store) ListBlogs(ctx context.Context, f storage.BlogFilter) ([]*storage.Blog, error) {
	var (
		where []string
		args  []any
	)

	if f.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *f.IsActive)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}

	query := `SELECT * FROM blogs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	var blogs []*storage.Blog
	if err := s.db.SelectContext(ctx, &blogs, query, args...); err != nil {
		return nil, fmt.Errorf("cannot list blogs: %w", mapSqlError(err))
	}
	return blogs, nil
}

func (s *Store) UpdateBlog(ctx context.Context, b *storage.Blog) (*storage.Blog, error) {
	query := `UPDATE blogs
		SET title = ?, content = ?, category = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING *`

	var blog storage.Blog
	if err := s.db.GetContext(ctx, &blog, query, b.Title, b.Content, b.Category, b.IsActive, b.ID); err != nil {
		return nil, fmt.Errorf("cannot update blog id %d: %w", b.ID, mapSqlError(err))
	}
	return &blog, nil
}

func (s *Store) DeleteBlog(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete blog: %w", mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}
