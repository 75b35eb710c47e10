package pets

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Pet
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Pet{}}
}

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	if _, ok := r.byID[p.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Pet) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, owner string) ([]Pet, error) {
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if p.OwnerUserID == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) CountByOwner(ctx context.Context, owner string) (int, error) {
	items, _ := r.ListByOwner(ctx, owner)
	return len(items), nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type fixedSlots map[string]int

func (f fixedSlots) PetSlots(ctx context.Context, email string) (int, error) {
	if n, ok := f[email]; ok {
		return n, nil
	}
	return 1, nil
}

type staticContacts []PublicContact

func (s staticContacts) PublicContacts(ctx context.Context, p Pet) ([]PublicContact, error) {
	return s, nil
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, fixedSlots{"premium@example.com": 3}, nil)
	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func mustCreate(t *testing.T, svc *Service, owner, email, name string) Pet {
	t.Helper()
	p, err := svc.Create(context.Background(), owner, email, CreateInput{Name: name, Species: "dog"})
	if err != nil {
		t.Fatalf("Create %s: %v", name, err)
	}
	return p
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_Validates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []CreateInput{
		{Name: "", Species: "dog"},
		{Name: "Rex", Species: "dragon"},
		{Name: "Rex", Species: "dog", Sex: "both"},
	}
	for _, in := range cases {
		if _, err := svc.Create(ctx, "owner-1", "a@example.com", in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %#v, got %v", in, err)
		}
	}

	p, err := svc.Create(ctx, "owner-1", "a@example.com", CreateInput{Name: " Rex ", Species: "DOG"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Name != "Rex" || p.Species != SpeciesDog || p.Sex != SexUnknown {
		t.Fatalf("unexpected pet %#v", p)
	}
}

func TestService_Create_EnforcesPetSlots(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, "free-1", "free@example.com", "One")
	if _, err := svc.Create(ctx, "free-1", "free@example.com", CreateInput{Name: "Two", Species: "cat"}); !errors.Is(err, ErrPetLimit) {
		t.Fatalf("expected ErrPetLimit, got %v", err)
	}

	for _, name := range []string{"A", "B", "C"} {
		mustCreate(t, svc, "prem-1", "premium@example.com", name)
	}
	if _, err := svc.Create(ctx, "prem-1", "premium@example.com", CreateInput{Name: "D", Species: "cat"}); !errors.Is(err, ErrPetLimit) {
		t.Fatalf("expected ErrPetLimit on 4th pet, got %v", err)
	}
}

func TestService_UpdateProfile_PatchSemantics(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	p := mustCreate(t, svc, "owner-1", "a@example.com", "Rex")

	bd := "2020-05-01"
	notes := "  friendly  "
	updated, err := svc.UpdateProfile(ctx, p.ID, "owner-1", UpdateProfileInput{
		BirthDate: BirthDatePatch{Present: true, Value: &bd},
		Notes:     &notes,
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Name != "Rex" {
		t.Fatalf("name should be untouched, got %q", updated.Name)
	}
	if updated.BirthDate == nil || updated.BirthDate.Format(dateLayout) != bd {
		t.Fatalf("birth_date not set: %v", updated.BirthDate)
	}
	if updated.Notes != "friendly" {
		t.Fatalf("notes not trimmed: %q", updated.Notes)
	}

	// birth_date: null limpia
	cleared, err := svc.UpdateProfile(ctx, p.ID, "owner-1", UpdateProfileInput{
		BirthDate: BirthDatePatch{Present: true},
	})
	if err != nil {
		t.Fatalf("UpdateProfile clear: %v", err)
	}
	if cleared.BirthDate != nil {
		t.Fatalf("expected birth_date cleared")
	}

	// ausente no toca
	name := "Max"
	kept, err := svc.UpdateProfile(ctx, p.ID, "owner-1", UpdateProfileInput{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile name: %v", err)
	}
	if kept.Notes != "friendly" || kept.Name != "Max" {
		t.Fatalf("unexpected pet %#v", kept)
	}
}

func TestService_UpdateProfile_OwnerOnly(t *testing.T) {
	svc, _ := newTestService()
	p := mustCreate(t, svc, "owner-1", "a@example.com", "Rex")

	name := "Hacked"
	_, err := svc.UpdateProfile(context.Background(), p.ID, "intruder", UpdateProfileInput{Name: &name})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	_, err = svc.UpdateProfile(context.Background(), "missing", "owner-1", UpdateProfileInput{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Delete_RunsHooks(t *testing.T) {
	svc, repo := newTestService()
	p := mustCreate(t, svc, "owner-1", "a@example.com", "Rex")

	var calls []string
	svc.AddDeleteHook(func(ctx context.Context, petID string) error {
		calls = append(calls, "contacts:"+petID)
		return nil
	})
	svc.AddDeleteHook(func(ctx context.Context, petID string) error {
		calls = append(calls, "photos:"+petID)
		return nil
	})

	if err := svc.Delete(context.Background(), p.ID, "intruder"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("hooks must not run for non-owner")
	}

	if err := svc.Delete(context.Background(), p.ID, "owner-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(calls) != 2 || calls[0] != "contacts:"+p.ID || calls[1] != "photos:"+p.ID {
		t.Fatalf("unexpected hook calls %v", calls)
	}
	if _, ok := repo.byID[p.ID]; ok {
		t.Fatalf("pet should be gone")
	}
}

func TestService_Delete_HookFailureKeepsPet(t *testing.T) {
	svc, repo := newTestService()
	p := mustCreate(t, svc, "owner-1", "a@example.com", "Rex")
	svc.AddDeleteHook(func(ctx context.Context, petID string) error { return errors.New("media down") })

	if err := svc.Delete(context.Background(), p.ID, "owner-1"); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := repo.byID[p.ID]; !ok {
		t.Fatalf("pet should remain")
	}
}

func TestService_LostAndFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	p := mustCreate(t, svc, "owner-1", "a@example.com", "Rex")

	lost, err := svc.ReportLost(ctx, p.ID, "owner-1", LostInput{Location: "Central Park", Message: "Call me"})
	if err != nil {
		t.Fatalf("ReportLost: %v", err)
	}
	if !lost.Lost.IsLost || lost.Lost.LostSince == nil || lost.Lost.LostLocation != "Central Park" {
		t.Fatalf("unexpected lost status %#v", lost.Lost)
	}
	since := *lost.Lost.LostSince

	svc.now = func() time.Time { return since.Add(time.Hour) }
	again, err := svc.ReportLost(ctx, p.ID, "owner-1", LostInput{Location: "5th Ave"})
	if err != nil {
		t.Fatalf("ReportLost #2: %v", err)
	}
	if !again.Lost.LostSince.Equal(since) {
		t.Fatalf("lost_since should be kept")
	}

	found, err := svc.MarkFound(ctx, p.ID, "owner-1")
	if err != nil {
		t.Fatalf("MarkFound: %v", err)
	}
	if found.Lost.IsLost || found.Lost.LostSince != nil {
		t.Fatalf("expected lost status cleared, got %#v", found.Lost)
	}
}

func TestService_PublicProfile_Visibility(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.SetContactLister(staticContacts{{Type: "emergency", Name: "Jane", Phone: "555-1234"}})
	p := mustCreate(t, svc, "owner-1", "a@example.com", "Rex")

	if _, err := svc.PublicProfile(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("private pet must not be visible, got %v", err)
	}

	if _, err := svc.ReportLost(ctx, p.ID, "owner-1", LostInput{}); err != nil {
		t.Fatalf("ReportLost: %v", err)
	}
	prof, err := svc.PublicProfile(ctx, p.ID)
	if err != nil {
		t.Fatalf("PublicProfile: %v", err)
	}
	if !prof.IsLost || len(prof.Contacts) != 1 || prof.Contacts[0].Name != "Jane" {
		t.Fatalf("unexpected profile %#v", prof)
	}
}
