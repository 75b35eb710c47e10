package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"petport/internal/domain/gifts"
)

type GiftsRepo struct {
	db *sql.DB
}

func NewGiftsRepo(db *sql.DB) *GiftsRepo {
	return &GiftsRepo{db: db}
}

var _ gifts.Repository = (*GiftsRepo)(nil)

const giftColumns = `
	id, code, session_id,
	purchaser_email, recipient_email, recipient_name, message, additional_pets,
	status, redeemed_by_user_id, redeemed_by_email,
	activated_at, expires_at, reminder_sent_at,
	created_at`

func scanGift(s scanner) (gifts.GiftMembership, error) {
	var g gifts.GiftMembership
	var session sql.NullString
	var status string
	var activated, expires, reminder sql.NullTime
	if err := s.Scan(
		&g.ID, &g.Code, &session,
		&g.PurchaserEmail, &g.RecipientEmail, &g.RecipientName, &g.Message, &g.AdditionalPets,
		&status, &g.RedeemedByUserID, &g.RedeemedByEmail,
		&activated, &expires, &reminder,
		&g.CreatedAt,
	); err != nil {
		return gifts.GiftMembership{}, err
	}
	g.SessionID = session.String
	g.Status = gifts.Status(status)
	g.ActivatedAt = timePtr(activated)
	g.ExpiresAt = timePtr(expires)
	g.ReminderSentAt = timePtr(reminder)
	return g, nil
}

func scanGifts(rows *sql.Rows) ([]gifts.GiftMembership, error) {
	defer rows.Close()
	out := make([]gifts.GiftMembership, 0)
	for rows.Next() {
		g, err := scanGift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// session_id es NULL para gifts sin checkout (p.ej. cargados a mano).
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *GiftsRepo) Create(ctx context.Context, g gifts.GiftMembership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gift_memberships (`+giftColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		g.ID, g.Code, nullString(g.SessionID),
		g.PurchaserEmail, g.RecipientEmail, g.RecipientName, g.Message, g.AdditionalPets,
		string(g.Status), g.RedeemedByUserID, g.RedeemedByEmail,
		nullTime(g.ActivatedAt), nullTime(g.ExpiresAt), nullTime(g.ReminderSentAt),
		g.CreatedAt,
	)
	if isUniqueViolation(err) {
		return gifts.ErrConflict
	}
	return err
}

func (r *GiftsRepo) getBy(ctx context.Context, column, value string) (gifts.GiftMembership, error) {
	g, err := scanGift(r.db.QueryRowContext(ctx, `SELECT `+giftColumns+` FROM gift_memberships WHERE `+column+` = $1`, value))
	if errors.Is(err, sql.ErrNoRows) {
		return gifts.GiftMembership{}, gifts.ErrNotFound
	}
	return g, err
}

func (r *GiftsRepo) GetByCode(ctx context.Context, code string) (gifts.GiftMembership, error) {
	return r.getBy(ctx, "code", code)
}

func (r *GiftsRepo) GetBySession(ctx context.Context, sessionID string) (gifts.GiftMembership, error) {
	if sessionID == "" {
		return gifts.GiftMembership{}, gifts.ErrNotFound
	}
	return r.getBy(ctx, "session_id", sessionID)
}

func (r *GiftsRepo) List(ctx context.Context) ([]gifts.GiftMembership, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+giftColumns+` FROM gift_memberships ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanGifts(rows)
}

// Redeem es un único UPDATE condicional: de dos canjes concurrentes solo uno
// ve la fila en pending.
func (r *GiftsRepo) Redeem(ctx context.Context, code, userID, email string, activatedAt, expiresAt time.Time) (gifts.GiftMembership, error) {
	g, err := scanGift(r.db.QueryRowContext(ctx, `
		UPDATE gift_memberships
		SET status = 'active',
			redeemed_by_user_id = $2,
			redeemed_by_email = $3,
			activated_at = $4,
			expires_at = $5
		WHERE code = $1 AND status = 'pending'
		RETURNING `+giftColumns,
		code, userID, email, activatedAt, expiresAt,
	))
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return gifts.GiftMembership{}, err
	}

	// 0 filas: o no existe o ya no está pending
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM gift_memberships WHERE code = $1)`, code).Scan(&exists); err != nil {
		return gifts.GiftMembership{}, err
	}
	if !exists {
		return gifts.GiftMembership{}, gifts.ErrNotFound
	}
	return gifts.GiftMembership{}, gifts.ErrNotPending
}

func (r *GiftsRepo) ExpireDue(ctx context.Context, now time.Time) ([]gifts.GiftMembership, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE gift_memberships
		SET status = 'expired'
		WHERE status = 'active' AND expires_at <= $1
		RETURNING `+giftColumns, now)
	if err != nil {
		return nil, err
	}
	return scanGifts(rows)
}

func (r *GiftsRepo) ListExpiring(ctx context.Context, now, before time.Time) ([]gifts.GiftMembership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+giftColumns+`
		FROM gift_memberships
		WHERE status = 'active'
			AND reminder_sent_at IS NULL
			AND expires_at > $1 AND expires_at <= $2
		ORDER BY expires_at ASC
	`, now, before)
	if err != nil {
		return nil, err
	}
	return scanGifts(rows)
}

func (r *GiftsRepo) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE gift_memberships SET reminder_sent_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return gifts.ErrNotFound
	}
	return nil
}

const scheduledColumns = `
	id, session_id,
	purchaser_email, recipient_email, recipient_name, message, additional_pets,
	scheduled_send_date, status, error_message, gift_membership_id, sent_at,
	created_at`

func scanScheduled(s scanner) (gifts.ScheduledGift, error) {
	var sg gifts.ScheduledGift
	var status string
	var sent sql.NullTime
	if err := s.Scan(
		&sg.ID, &sg.SessionID,
		&sg.PurchaserEmail, &sg.RecipientEmail, &sg.RecipientName, &sg.Message, &sg.AdditionalPets,
		&sg.ScheduledSendDate, &status, &sg.ErrorMessage, &sg.GiftMembershipID, &sent,
		&sg.CreatedAt,
	); err != nil {
		return gifts.ScheduledGift{}, err
	}
	sg.Status = gifts.ScheduleStatus(status)
	sg.SentAt = timePtr(sent)
	return sg, nil
}

func (r *GiftsRepo) listScheduled(ctx context.Context, where string, args ...any) ([]gifts.ScheduledGift, error) {
	q := `SELECT ` + scheduledColumns + ` FROM scheduled_gifts`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY scheduled_send_date ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]gifts.ScheduledGift, 0)
	for rows.Next() {
		sg, err := scanScheduled(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

func (r *GiftsRepo) CreateScheduled(ctx context.Context, s gifts.ScheduledGift) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scheduled_gifts (`+scheduledColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		s.ID, s.SessionID,
		s.PurchaserEmail, s.RecipientEmail, s.RecipientName, s.Message, s.AdditionalPets,
		s.ScheduledSendDate, string(s.Status), s.ErrorMessage, s.GiftMembershipID, nullTime(s.SentAt),
		s.CreatedAt,
	)
	if isUniqueViolation(err) {
		return gifts.ErrConflict
	}
	return err
}

func (r *GiftsRepo) GetScheduledBySession(ctx context.Context, sessionID string) (gifts.ScheduledGift, error) {
	sg, err := scanScheduled(r.db.QueryRowContext(ctx, `
		SELECT `+scheduledColumns+` FROM scheduled_gifts WHERE session_id = $1
	`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return gifts.ScheduledGift{}, gifts.ErrNotFound
	}
	return sg, err
}

func (r *GiftsRepo) ListDueScheduled(ctx context.Context, day time.Time) ([]gifts.ScheduledGift, error) {
	return r.listScheduled(ctx, "status = 'scheduled' AND scheduled_send_date <= $1", day)
}

func (r *GiftsRepo) ListScheduled(ctx context.Context) ([]gifts.ScheduledGift, error) {
	return r.listScheduled(ctx, "")
}

func (r *GiftsRepo) MarkScheduledSent(ctx context.Context, id, giftID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_gifts
		SET status = 'sent', gift_membership_id = $2, sent_at = $3, error_message = ''
		WHERE id = $1
	`, id, giftID, at)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return gifts.ErrNotFound
	}
	return nil
}

func (r *GiftsRepo) MarkScheduledFailed(ctx context.Context, id, giftID, msg string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_gifts
		SET status = 'failed', error_message = $3,
			gift_membership_id = CASE WHEN $2 = '' THEN gift_membership_id ELSE $2 END
		WHERE id = $1
	`, id, giftID, msg)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return gifts.ErrNotFound
	}
	return nil
}
