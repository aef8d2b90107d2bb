package sqlite

import (
	"context"
	"fmt"
	"strings"

	"printsite/internal/storage"
)

func (s *Store) CreateService(ctx context.Context, svc *storage.Service) (*storage.Service, error) {
	query := `INSERT INTO services (name, description, content, category, featured, is_active, image_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING *`

	var out storage.Service
	err := s.db.GetContext(ctx, &out, query,
		svc.Name, svc.Description, svc.Content, svc.Category, svc.Featured, svc.IsActive, svc.ImageID)
	if err != nil {
		return nil, fmt.Errorf("cannot create service %q: %w", svc.Name, mapSqlError(err))
	}
	return &out, nil
}

func (s *Store) GetServiceByID(ctx context.Context, id int64) (*storage.Service, error) {
	query := `SELECT * FROM services
		WHERE id = ?
		LIMIT 1`

	var out storage.Service
	if err := s.db.GetContext(ctx, &out, query, id); err != nil {
		return nil, fmt.Errorf("cannot find service id %d: %w", id, mapSqlError(err))
	}
	return &out, nil
}

func (s *Store) ListServices(ctx context.Context, f storage.ServiceFilter) ([]*storage.Service, error) {
	var (
		where []string
		args  []any
	)

	if f.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *f.IsActive)
	}
	if f.Featured != nil {
		where = append(where, "featured = ?")
		args = append(args, *f.Featured)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}

	query := `SELECT * FROM services`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	// featured services first so suggestion queries can just take the head
	query += " ORDER BY featured DESC, created_at DESC"

	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	var services []*storage.Service
	if err := s.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, fmt.Errorf("cannot list services: %w", mapSqlError(err))
	}
	return services, nil
}

func (s *Store) UpdateService(ctx context.Context, svc *storage.Service) (*storage.Service, error) {
	query := `UPDATE services
		SET name = ?, description = ?, content = ?, category = ?, featured = ?, is_active = ?, image_id = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING *`

	var out storage.Service
	err := s.db.GetContext(ctx, &out, query,
		svc.Name, svc.Description, svc.Content, svc.Category, svc.Featured, svc.IsActive, svc.ImageID, svc.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot update service id %d: %w", svc.ID, mapSqlError(err))
	}
	return &out, nil
}

func (s *Store) DeleteService(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete service: %w", mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}
