package sqlite

import (
	"context"
	"fmt"

	"printsite/internal/storage"
)

func (s *Store) CreateServiceReview(ctx context.Context, r *storage.Review) (*storage.Review, error) {
	query := `INSERT INTO service_reviews (service_id, author_name, is_anonymous, rating, content)
		VALUES (?, ?, ?, ?, ?)
		RETURNING *`

	var out storage.Review
	err := s.db.GetContext(ctx, &out, query, r.ServiceID, r.AuthorName, r.IsAnonymous, r.Rating, r.Content)
	if err != nil {
		return nil, fmt.Errorf("cannot create review for service %d: %w", r.ServiceID, mapSqlError(err))
	}
	return &out, nil
}

func (s *Store) ListServiceReviews(ctx context.Context, serviceID int64) ([]*storage.Review, error) {
	query := `SELECT * FROM service_reviews
		WHERE service_id = ?
		ORDER BY created_at DESC`

	var reviews []*storage.Review
	if err := s.db.SelectContext(ctx, &reviews, query, serviceID); err != nil {
		return nil, fmt.Errorf("cannot list reviews for service %d: %w", serviceID, mapSqlError(err))
	}
	return reviews, nil
}
