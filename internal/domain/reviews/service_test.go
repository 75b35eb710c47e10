package reviews

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"petport/internal/ports/email"
	"petport/internal/ports/email/emailtest"
)

type testRepo struct {
	byID map[string]Review
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Review{}} }

func (r *testRepo) Create(_ context.Context, rv Review) error {
	r.byID[rv.ID] = rv
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Review, error) {
	rv, ok := r.byID[id]
	if !ok {
		return Review{}, ErrNotFound
	}
	return rv, nil
}

func (r *testRepo) ListByStatus(_ context.Context, status Status, limit int) ([]Review, error) {
	out := make([]Review, 0)
	for _, rv := range r.byID {
		if rv.Status == status {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *testRepo) Moderate(_ context.Context, rv Review) error {
	cur, ok := r.byID[rv.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status != StatusPending {
		return ErrBadState
	}
	r.byID[rv.ID] = rv
	return nil
}

func newTestService(mail email.Sender) (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, mail, []string{"ops@petport.app", "cto@petport.app"}, nil)
	tick := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return svc, repo
}

func TestSubmit_CreatesPendingAndNotifiesAdmins(t *testing.T) {
	mail := &emailtest.Recorder{}
	svc, _ := newTestService(mail)

	rv, err := svc.Submit(context.Background(), "user-1", SubmitInput{DisplayName: " Ana ", Rating: 5, Body: "Great app"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rv.Status != StatusPending || rv.DisplayName != "Ana" {
		t.Fatalf("unexpected review: %+v", rv)
	}

	sent := mail.ByTemplate(email.TemplateReviewNotification)
	if len(sent) != 2 {
		t.Fatalf("expected 2 admin emails, got %d", len(sent))
	}
	if sent[0].Model["review_id"] != rv.ID {
		t.Fatalf("expected review id in model, got %v", sent[0].Model["review_id"])
	}
}

func TestSubmit_EmailFailureKeepsReview(t *testing.T) {
	svc, repo := newTestService(&emailtest.Recorder{Err: errors.New("down")})

	if _, err := svc.Submit(context.Background(), "user-1", SubmitInput{DisplayName: "Ana", Rating: 4, Body: "ok"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected review stored")
	}
}

func TestSubmit_Validation(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	cases := []struct {
		name string
		uid  string
		in   SubmitInput
	}{
		{"no user", "", SubmitInput{DisplayName: "a", Rating: 3, Body: "b"}},
		{"rating zero", "u", SubmitInput{DisplayName: "a", Rating: 0, Body: "b"}},
		{"rating six", "u", SubmitInput{DisplayName: "a", Rating: 6, Body: "b"}},
		{"empty body", "u", SubmitInput{DisplayName: "a", Rating: 3, Body: "  "}},
		{"empty name", "u", SubmitInput{Rating: 3, Body: "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Submit(ctx, tc.uid, tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestModeration_Flow(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	a, _ := svc.Submit(ctx, "u1", SubmitInput{DisplayName: "A", Rating: 5, Body: "a"})
	b, _ := svc.Submit(ctx, "u2", SubmitInput{DisplayName: "B", Rating: 2, Body: "b"})

	pending, err := svc.Pending(ctx, 0)
	if err != nil || len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d (%v)", len(pending), err)
	}

	pub, err := svc.Publish(ctx, a.ID, "Ops@PetPort.app")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if pub.ModeratedBy != "ops@petport.app" || pub.ModeratedAt == nil {
		t.Fatalf("expected moderation stamp, got %+v", pub)
	}

	// idempotente
	if _, err := svc.Publish(ctx, a.ID, "ops@petport.app"); err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	// publicada no se puede rechazar
	if _, err := svc.Reject(ctx, a.ID, "ops@petport.app"); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState, got %v", err)
	}

	if _, err := svc.Reject(ctx, b.ID, "ops@petport.app"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	published, _ := svc.Published(ctx, 10)
	if len(published) != 1 || published[0].ID != a.ID {
		t.Fatalf("expected only A published, got %+v", published)
	}

	if _, err := svc.Publish(ctx, "missing", "ops@petport.app"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
