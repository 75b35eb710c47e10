package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"petport/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

var _ pets.Repository = (*PetsRepo)(nil)

const petColumns = `
	id, owner_user_id,
	name, species, breed, sex,
	birth_date, age, weight, microchip,
	bio, notes, legacy_contacts,
	is_public, has_allergies, needs_medication, special_needs,
	is_lost, lost_since, lost_location, lost_message,
	created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
	`,
		p.ID,
		p.OwnerUserID,
		p.Name,
		p.Species,
		p.Breed,
		p.Sex,
		nullTime(p.BirthDate),
		p.Age,
		p.Weight,
		p.Microchip,
		p.Bio,
		p.Notes,
		p.LegacyContacts,
		p.IsPublic,
		p.Alerts.HasAllergies,
		p.Alerts.NeedsMedication,
		p.Alerts.SpecialNeeds,
		p.Lost.IsLost,
		nullTime(p.Lost.LostSince),
		p.Lost.LostLocation,
		p.Lost.LostMessage,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			sex = $5,
			birth_date = $6,
			age = $7,
			weight = $8,
			microchip = $9,
			bio = $10,
			notes = $11,
			legacy_contacts = $12,
			is_public = $13,
			has_allergies = $14,
			needs_medication = $15,
			special_needs = $16,
			is_lost = $17,
			lost_since = $18,
			lost_location = $19,
			lost_message = $20,
			updated_at = $21
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Species,
		p.Breed,
		p.Sex,
		nullTime(p.BirthDate),
		p.Age,
		p.Weight,
		p.Microchip,
		p.Bio,
		p.Notes,
		p.LegacyContacts,
		p.IsPublic,
		p.Alerts.HasAllergies,
		p.Alerts.NeedsMedication,
		p.Alerts.SpecialNeeds,
		p.Lost.IsLost,
		nullTime(p.Lost.LostSince),
		p.Lost.LostLocation,
		p.Lost.LostMessage,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func scanPet(s scanner) (pets.Pet, error) {
	var p pets.Pet
	var bd, lostSince sql.NullTime
	if err := s.Scan(
		&p.ID,
		&p.OwnerUserID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&p.Sex,
		&bd,
		&p.Age,
		&p.Weight,
		&p.Microchip,
		&p.Bio,
		&p.Notes,
		&p.LegacyContacts,
		&p.IsPublic,
		&p.Alerts.HasAllergies,
		&p.Alerts.NeedsMedication,
		&p.Alerts.SpecialNeeds,
		&p.Lost.IsLost,
		&lostSince,
		&p.Lost.LostLocation,
		&p.Lost.LostMessage,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}
	// ojo: birth_date es date, pgx lo mapea a time.Time midnight UTC
	p.BirthDate = timePtr(bd)
	p.Lost.LostSince = timePtr(lostSince)
	return p, nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, err
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE owner_user_id = $1
		ORDER BY created_at ASC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) CountByOwner(ctx context.Context, ownerUserID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets WHERE owner_user_id = $1`, ownerUserID).Scan(&n)
	return n, err
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}
