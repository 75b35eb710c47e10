package postgres

import (
	"context"
	"database/sql"
	"errors"

	"petport/internal/domain/care"
)

type CareRepo struct {
	db *sql.DB
}

func NewCareRepo(db *sql.DB) *CareRepo {
	return &CareRepo{db: db}
}

var _ care.Repository = (*CareRepo)(nil)

func (r *CareRepo) Get(ctx context.Context, petID string) (care.Instructions, error) {
	var in care.Instructions
	err := r.db.QueryRowContext(ctx, `
		SELECT pet_id, feeding, medication, exercise, behavior, grooming, other, updated_by, updated_at
		FROM care_instructions
		WHERE pet_id = $1
	`, petID).Scan(
		&in.PetID, &in.Feeding, &in.Medication, &in.Exercise, &in.Behavior, &in.Grooming, &in.Other,
		&in.UpdatedBy, &in.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return care.Instructions{}, care.ErrNotFound
	}
	return in, err
}

func (r *CareRepo) Put(ctx context.Context, in care.Instructions) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO care_instructions (pet_id, feeding, medication, exercise, behavior, grooming, other, updated_by, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (pet_id) DO UPDATE SET
			feeding = EXCLUDED.feeding,
			medication = EXCLUDED.medication,
			exercise = EXCLUDED.exercise,
			behavior = EXCLUDED.behavior,
			grooming = EXCLUDED.grooming,
			other = EXCLUDED.other,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`, in.PetID, in.Feeding, in.Medication, in.Exercise, in.Behavior, in.Grooming, in.Other, in.UpdatedBy, in.UpdatedAt)
	return err
}

func (r *CareRepo) Delete(ctx context.Context, petID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM care_instructions WHERE pet_id = $1`, petID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return care.ErrNotFound
	}
	return nil
}
