package postgres

import (
	"context"
	"database/sql"
	"errors"

	"petport/internal/domain/contacts"
)

type ContactsRepo struct {
	db *sql.DB
}

func NewContactsRepo(db *sql.DB) *ContactsRepo {
	return &ContactsRepo{db: db}
}

var _ contacts.Repository = (*ContactsRepo)(nil)

const contactColumns = `id, pet_id, type, name, phone, email, notes, created_at, updated_at`

func scanContact(s scanner) (contacts.Contact, error) {
	var c contacts.Contact
	var typ string
	if err := s.Scan(&c.ID, &c.PetID, &typ, &c.Name, &c.Phone, &c.Email, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return contacts.Contact{}, err
	}
	c.Type = contacts.Type(typ)
	return c, nil
}

// ListByPet ordena por el orden fijo de slots.
func (r *ContactsRepo) ListByPet(ctx context.Context, petID string) ([]contacts.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+contactColumns+`
		FROM pet_contacts
		WHERE pet_id = $1
		ORDER BY CASE type
			WHEN 'emergency' THEN 0
			WHEN 'secondary_emergency' THEN 1
			WHEN 'veterinary' THEN 2
			WHEN 'caretaker' THEN 3
			ELSE 4
		END
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]contacts.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ContactsRepo) GetByType(ctx context.Context, petID string, t contacts.Type) (contacts.Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+` FROM pet_contacts WHERE pet_id = $1 AND type = $2
	`, petID, string(t)))
	if errors.Is(err, sql.ErrNoRows) {
		return contacts.Contact{}, contacts.ErrNotFound
	}
	return c, err
}

func (r *ContactsRepo) Upsert(ctx context.Context, c contacts.Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pet_contacts (`+contactColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (pet_id, type) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
	`, c.ID, c.PetID, string(c.Type), c.Name, c.Phone, c.Email, c.Notes, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *ContactsRepo) Delete(ctx context.Context, petID string, t contacts.Type) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pet_contacts WHERE pet_id = $1 AND type = $2`, petID, string(t))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return contacts.ErrNotFound
	}
	return nil
}

func (r *ContactsRepo) DeleteByPet(ctx context.Context, petID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pet_contacts WHERE pet_id = $1`, petID)
	return err
}
