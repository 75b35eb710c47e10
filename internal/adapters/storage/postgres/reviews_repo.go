package postgres

import (
	"context"
	"database/sql"
	"errors"

	"petport/internal/domain/reviews"
)

type ReviewsRepo struct {
	db *sql.DB
}

func NewReviewsRepo(db *sql.DB) *ReviewsRepo {
	return &ReviewsRepo{db: db}
}

var _ reviews.Repository = (*ReviewsRepo)(nil)

const reviewColumns = `id, user_id, display_name, rating, body, status, created_at, moderated_at, moderated_by`

func scanReview(s scanner) (reviews.Review, error) {
	var rv reviews.Review
	var status string
	var moderatedAt sql.NullTime
	if err := s.Scan(&rv.ID, &rv.UserID, &rv.DisplayName, &rv.Rating, &rv.Body, &status, &rv.CreatedAt, &moderatedAt, &rv.ModeratedBy); err != nil {
		return reviews.Review{}, err
	}
	rv.Status = reviews.Status(status)
	rv.ModeratedAt = timePtr(moderatedAt)
	return rv, nil
}

func (r *ReviewsRepo) Create(ctx context.Context, rv reviews.Review) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (`+reviewColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, rv.ID, rv.UserID, rv.DisplayName, rv.Rating, rv.Body, string(rv.Status), rv.CreatedAt, nullTime(rv.ModeratedAt), rv.ModeratedBy)
	return err
}

func (r *ReviewsRepo) GetByID(ctx context.Context, id string) (reviews.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return reviews.Review{}, reviews.ErrNotFound
	}
	return rv, err
}

func (r *ReviewsRepo) ListByStatus(ctx context.Context, status reviews.Status, limit int) ([]reviews.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reviews.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Moderate: UPDATE condicional; 0 filas => no existe o ya moderada.
func (r *ReviewsRepo) Moderate(ctx context.Context, rv reviews.Review) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reviews
		SET status = $2, moderated_at = $3, moderated_by = $4
		WHERE id = $1 AND status = 'pending'
	`, rv.ID, string(rv.Status), nullTime(rv.ModeratedAt), rv.ModeratedBy)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, rv.ID); err != nil {
		return err
	}
	return reviews.ErrBadState
}
