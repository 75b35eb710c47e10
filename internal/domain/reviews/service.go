package reviews

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"petport/internal/platform/logger"
	"petport/internal/ports/email"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("review not found")
	ErrBadState     = errors.New("review already moderated")
)

const (
	maxBodyLen        = 2000
	maxDisplayNameLen = 80
	defaultListLimit  = 50
	maxListLimit      = 200
)

type Service struct {
	repo   Repository
	sender email.Sender
	admins []string
	log    logger.Logger
	now    func() time.Time
}

// NewService: admins recibe review-notification en cada envío nuevo.
func NewService(repo Repository, sender email.Sender, admins []string, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		sender: sender,
		admins: admins,
		log:    log,
		now:    time.Now,
	}
}

type SubmitInput struct {
	DisplayName string
	Rating      int
	Body        string
}

func (s *Service) Submit(ctx context.Context, userID string, in SubmitInput) (Review, error) {
	userID = strings.TrimSpace(userID)
	name := strings.TrimSpace(in.DisplayName)
	body := strings.TrimSpace(in.Body)

	if userID == "" || name == "" || body == "" {
		return Review{}, ErrInvalidInput
	}
	if in.Rating < 1 || in.Rating > 5 {
		return Review{}, ErrInvalidInput
	}
	if utf8.RuneCountInString(name) > maxDisplayNameLen || utf8.RuneCountInString(body) > maxBodyLen {
		return Review{}, ErrInvalidInput
	}

	rv := Review{
		ID:          uuid.NewString(),
		UserID:      userID,
		DisplayName: name,
		Rating:      in.Rating,
		Body:        body,
		Status:      StatusPending,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, rv); err != nil {
		return Review{}, err
	}

	s.notifyAdmins(ctx, rv)
	return rv, nil
}

// notifyAdmins es best effort: la review ya quedó guardada.
func (s *Service) notifyAdmins(ctx context.Context, rv Review) {
	if s.sender == nil {
		return
	}
	for _, to := range s.admins {
		err := s.sender.Send(ctx, email.Message{
			To:       to,
			Template: email.TemplateReviewNotification,
			Tag:      "reviews",
			Model: map[string]any{
				"review_id":    rv.ID,
				"display_name": rv.DisplayName,
				"rating":       rv.Rating,
				"body":         rv.Body,
			},
		})
		if err != nil {
			s.log.Warn("review notification failed", map[string]any{"review_id": rv.ID, "to": to, "error": err})
		}
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func (s *Service) Published(ctx context.Context, limit int) ([]Review, error) {
	return s.repo.ListByStatus(ctx, StatusPublished, clampLimit(limit))
}

func (s *Service) Pending(ctx context.Context, limit int) ([]Review, error) {
	return s.repo.ListByStatus(ctx, StatusPending, clampLimit(limit))
}

func (s *Service) Publish(ctx context.Context, id, adminEmail string) (Review, error) {
	return s.moderate(ctx, id, adminEmail, StatusPublished)
}

func (s *Service) Reject(ctx context.Context, id, adminEmail string) (Review, error) {
	return s.moderate(ctx, id, adminEmail, StatusRejected)
}

func (s *Service) moderate(ctx context.Context, id, adminEmail string, to Status) (Review, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Review{}, ErrInvalidInput
	}
	rv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Review{}, err
	}

	// Idempotente
	if rv.Status == to {
		return rv, nil
	}
	if rv.Status != StatusPending {
		return Review{}, ErrBadState
	}

	now := s.now()
	rv.Status = to
	rv.ModeratedAt = &now
	rv.ModeratedBy = strings.ToLower(strings.TrimSpace(adminEmail))

	if err := s.repo.Moderate(ctx, rv); err != nil {
		return Review{}, err
	}
	return rv, nil
}
