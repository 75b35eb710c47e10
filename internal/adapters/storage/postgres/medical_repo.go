package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"petport/internal/domain/medical"
)

type MedicalRepo struct {
	db *sql.DB
}

func NewMedicalRepo(db *sql.DB) *MedicalRepo {
	return &MedicalRepo{db: db}
}

var _ medical.Repository = (*MedicalRepo)(nil)

const recordColumns = `
	id, pet_id,
	type, title, notes,
	occurred_at, due_at, recorded_at, recorded_by,
	status`

func (r *MedicalRepo) Create(ctx context.Context, rec medical.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medical_records (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		rec.ID,
		rec.PetID,
		string(rec.Type),
		rec.Title,
		rec.Notes,
		rec.OccurredAt,
		nullTime(rec.DueAt),
		rec.RecordedAt,
		rec.RecordedBy,
		string(rec.Status),
	)
	return err
}

func scanRecord(s scanner) (medical.Record, error) {
	var rec medical.Record
	var typ, status string
	var due sql.NullTime
	if err := s.Scan(
		&rec.ID,
		&rec.PetID,
		&typ,
		&rec.Title,
		&rec.Notes,
		&rec.OccurredAt,
		&due,
		&rec.RecordedAt,
		&rec.RecordedBy,
		&status,
	); err != nil {
		return medical.Record{}, err
	}
	rec.Type = medical.RecordType(typ)
	rec.Status = medical.Status(status)
	rec.DueAt = timePtr(due)
	return rec, nil
}

func (r *MedicalRepo) GetByID(ctx context.Context, id string) (medical.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medical.Record{}, medical.ErrNotFound
	}

	rec, err := scanRecord(r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM medical_records WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return medical.Record{}, medical.ErrNotFound
	}
	return rec, err
}

func (r *MedicalRepo) ListByPet(ctx context.Context, petID string, filter medical.ListFilter) ([]medical.Record, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + recordColumns + ` FROM medical_records WHERE pet_id = $1`)

	args := []any{petID}
	argN := 2

	if !filter.IncludeVoided {
		sb.WriteString(" AND status = 'active'")
	}

	if len(filter.Types) > 0 {
		placeholders := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(t))
			argN++
		}
		sb.WriteString(" AND type IN (" + strings.Join(placeholders, ",") + ")")
	}

	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND occurred_at >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND occurred_at <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	// q: búsqueda simple en title + notes
	if q := strings.TrimSpace(filter.Query); q != "" {
		sb.WriteString(fmt.Sprintf(" AND (title ILIKE $%d OR notes ILIKE $%d)", argN, argN))
		args = append(args, "%"+q+"%")
		argN++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	sb.WriteString(" ORDER BY occurred_at DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medical.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *MedicalRepo) Void(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE medical_records SET status = 'voided' WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medical.ErrNotFound
	}
	return nil
}

func (r *MedicalRepo) DeleteByPet(ctx context.Context, petID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM medical_records WHERE pet_id = $1`, petID)
	return err
}
