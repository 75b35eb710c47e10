package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"petport/internal/domain/subscribers"
)

type SubscribersRepo struct {
	db *sql.DB
}

func NewSubscribersRepo(db *sql.DB) *SubscribersRepo {
	return &SubscribersRepo{db: db}
}

var _ subscribers.Repository = (*SubscribersRepo)(nil)

const subscriberColumns = `
	id, email, user_id,
	customer_id, subscription_id,
	status, plan_interval, tier,
	base_pets, additional_pets, gift_pets,
	grace_ends_at, current_period_end, gift_expires_at,
	created_at, updated_at`

func scanSubscriber(s scanner) (subscribers.Subscriber, error) {
	var sub subscribers.Subscriber
	var status, interval, tier string
	var grace, period, gift sql.NullTime
	if err := s.Scan(
		&sub.ID, &sub.Email, &sub.UserID,
		&sub.CustomerID, &sub.SubscriptionID,
		&status, &interval, &tier,
		&sub.BasePets, &sub.AdditionalPets, &sub.GiftPets,
		&grace, &period, &gift,
		&sub.CreatedAt, &sub.UpdatedAt,
	); err != nil {
		return subscribers.Subscriber{}, err
	}
	sub.Status = subscribers.Status(status)
	sub.PlanInterval = subscribers.PlanInterval(interval)
	sub.Tier = subscribers.Tier(tier)
	sub.GraceEndsAt = timePtr(grace)
	sub.CurrentPeriodEnd = timePtr(period)
	sub.GiftExpiresAt = timePtr(gift)
	return sub, nil
}

func (r *SubscribersRepo) GetByEmail(ctx context.Context, email string) (subscribers.Subscriber, error) {
	sub, err := scanSubscriber(r.db.QueryRowContext(ctx, `
		SELECT `+subscriberColumns+` FROM subscribers WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, sql.ErrNoRows) {
		return subscribers.Subscriber{}, subscribers.ErrNotFound
	}
	return sub, err
}

// Upsert: una fila por email; id y created_at de la fila original se conservan.
func (r *SubscribersRepo) Upsert(ctx context.Context, s subscribers.Subscriber) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers (`+subscriberColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (email) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			customer_id = EXCLUDED.customer_id,
			subscription_id = EXCLUDED.subscription_id,
			status = EXCLUDED.status,
			plan_interval = EXCLUDED.plan_interval,
			tier = EXCLUDED.tier,
			base_pets = EXCLUDED.base_pets,
			additional_pets = EXCLUDED.additional_pets,
			gift_pets = EXCLUDED.gift_pets,
			grace_ends_at = EXCLUDED.grace_ends_at,
			current_period_end = EXCLUDED.current_period_end,
			gift_expires_at = EXCLUDED.gift_expires_at,
			updated_at = EXCLUDED.updated_at
	`,
		s.ID, strings.ToLower(strings.TrimSpace(s.Email)), s.UserID,
		s.CustomerID, s.SubscriptionID,
		string(s.Status), string(s.PlanInterval), string(s.Tier),
		s.BasePets, s.AdditionalPets, s.GiftPets,
		nullTime(s.GraceEndsAt), nullTime(s.CurrentPeriodEnd), nullTime(s.GiftExpiresAt),
		s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *SubscribersRepo) List(ctx context.Context) ([]subscribers.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+subscriberColumns+` FROM subscribers ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]subscribers.Subscriber, 0)
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
