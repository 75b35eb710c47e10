package postgres

import (
	"context"
	"database/sql"
	"errors"

	"petport/internal/domain/photos"
)

type PhotosRepo struct {
	db *sql.DB
}

func NewPhotosRepo(db *sql.DB) *PhotosRepo {
	return &PhotosRepo{db: db}
}

var _ photos.Repository = (*PhotosRepo)(nil)

const photoColumns = `id, pet_id, url, public_id, caption, created_at`

func scanPhoto(s scanner) (photos.Photo, error) {
	var p photos.Photo
	err := s.Scan(&p.ID, &p.PetID, &p.URL, &p.PublicID, &p.Caption, &p.CreatedAt)
	return p, err
}

func (r *PhotosRepo) Create(ctx context.Context, p photos.Photo) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pet_photos (`+photoColumns+`) VALUES ($1,$2,$3,$4,$5,$6)
	`, p.ID, p.PetID, p.URL, p.PublicID, p.Caption, p.CreatedAt)
	return err
}

func (r *PhotosRepo) GetByID(ctx context.Context, id string) (photos.Photo, error) {
	p, err := scanPhoto(r.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM pet_photos WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return photos.Photo{}, photos.ErrNotFound
	}
	return p, err
}

func (r *PhotosRepo) ListByPet(ctx context.Context, petID string) ([]photos.Photo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+photoColumns+` FROM pet_photos WHERE pet_id = $1 ORDER BY created_at ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]photos.Photo, 0)
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PhotosRepo) CountByPet(ctx context.Context, petID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pet_photos WHERE pet_id = $1`, petID).Scan(&n)
	return n, err
}

func (r *PhotosRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pet_photos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return photos.ErrNotFound
	}
	return nil
}
