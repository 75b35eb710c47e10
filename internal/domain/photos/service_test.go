package photos

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"petport/internal/domain/pets"
	"petport/internal/ports/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Photo
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Photo{}} }

func (r *testRepo) Create(_ context.Context, p Photo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return Photo{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByPet(_ context.Context, petID string) ([]Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Photo, 0)
	for _, p := range r.byID {
		if p.PetID == petID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *testRepo) CountByPet(ctx context.Context, petID string) (int, error) {
	list, _ := r.ListByPet(ctx, petID)
	return len(list), nil
}

func (r *testRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type testPets map[string]pets.Pet

func (p testPets) GetByID(_ context.Context, id string) (pets.Pet, error) {
	pet, ok := p[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return pet, nil
}

func (p testPets) GetOwned(ctx context.Context, petID, userID string) (pets.Pet, error) {
	pet, err := p.GetByID(ctx, petID)
	if err != nil {
		return pets.Pet{}, err
	}
	if pet.OwnerUserID != userID {
		return pets.Pet{}, pets.ErrForbidden
	}
	return pet, nil
}

type fakeStore struct {
	uploaded map[string]string
	deleted  []string
	failDel  error
}

func newFakeStore() *fakeStore { return &fakeStore{uploaded: map[string]string{}} }

func (f *fakeStore) Upload(_ context.Context, r io.Reader, folder, name string) (media.Uploaded, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return media.Uploaded{}, err
	}
	id := folder + "/" + name
	f.uploaded[id] = string(b)
	return media.Uploaded{URL: "https://cdn.test/" + id + ".jpg", PublicID: id}, nil
}

func (f *fakeStore) Delete(_ context.Context, publicID string) error {
	if f.failDel != nil {
		return f.failDel
	}
	f.deleted = append(f.deleted, publicID)
	delete(f.uploaded, publicID)
	return nil
}

var fixturePets = testPets{
	"pet-1": {ID: "pet-1", OwnerUserID: "owner-1", Name: "Rex"},
	"pet-2": {ID: "pet-2", OwnerUserID: "owner-1", Name: "Luna", IsPublic: true},
}

func newTestService(store media.Store, limit int) (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, fixturePets, store, Config{MaxPerPet: limit}, nil)
	tick := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return svc, repo
}

func TestUpload_StoresInPetFolder(t *testing.T) {
	store := newFakeStore()
	svc, repo := newTestService(store, 3)

	ph, err := svc.Upload(context.Background(), "pet-1", "owner-1", UploadInput{Body: strings.NewReader("jpeg"), Caption: " beach "})
	require.NoError(t, err)
	assert.Equal(t, "beach", ph.Caption)
	assert.Equal(t, "petport/pets/pet-1/"+ph.ID, ph.PublicID)
	assert.Contains(t, store.uploaded, ph.PublicID)
	assert.Len(t, repo.byID, 1)
}

func TestUpload_LimitPerPet(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), 2)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := svc.Upload(ctx, "pet-1", "owner-1", UploadInput{Body: strings.NewReader("x")})
		require.NoError(t, err)
	}
	_, err := svc.Upload(ctx, "pet-1", "owner-1", UploadInput{Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrLimitReached)

	// el límite es por mascota
	_, err = svc.Upload(ctx, "pet-2", "owner-1", UploadInput{Body: strings.NewReader("x")})
	assert.NoError(t, err)
}

func TestUpload_Errors(t *testing.T) {
	svc, _ := newTestService(nil, 0)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "pet-1", "owner-1", UploadInput{Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = svc.Upload(ctx, "pet-1", "intruder", UploadInput{Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, pets.ErrForbidden)

	_, err = svc.Upload(ctx, "pet-1", "owner-1", UploadInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestList_Visibility(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), 0)
	ctx := context.Background()
	_, err := svc.Upload(ctx, "pet-1", "owner-1", UploadInput{Body: strings.NewReader("a")})
	require.NoError(t, err)
	_, err = svc.Upload(ctx, "pet-2", "owner-1", UploadInput{Body: strings.NewReader("b")})
	require.NoError(t, err)

	list, err := svc.List(ctx, "pet-1", "owner-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.List(ctx, "pet-1", "")
	assert.ErrorIs(t, err, pets.ErrNotFound)
	_, err = svc.List(ctx, "pet-1", "someone")
	assert.ErrorIs(t, err, pets.ErrForbidden)

	list, err = svc.List(ctx, "pet-2", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDelete_RemovesFromStoreFirst(t *testing.T) {
	store := newFakeStore()
	svc, repo := newTestService(store, 0)
	ctx := context.Background()
	ph, err := svc.Upload(ctx, "pet-1", "owner-1", UploadInput{Body: strings.NewReader("a")})
	require.NoError(t, err)

	store.failDel = errors.New("cdn down")
	assert.Error(t, svc.Delete(ctx, "pet-1", "owner-1", ph.ID))
	assert.Len(t, repo.byID, 1, "row stays when the asset could not be removed")

	store.failDel = nil
	require.NoError(t, svc.Delete(ctx, "pet-1", "owner-1", ph.ID))
	assert.Empty(t, repo.byID)
	assert.Equal(t, []string{ph.PublicID}, store.deleted)
}

func TestDelete_WrongPet(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), 0)
	ctx := context.Background()
	ph, err := svc.Upload(ctx, "pet-1", "owner-1", UploadInput{Body: strings.NewReader("a")})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "pet-2", "owner-1", ph.ID), ErrNotFound)
}

func TestDeleteByPet_RemovesAllAssets(t *testing.T) {
	store := newFakeStore()
	svc, repo := newTestService(store, 0)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Upload(ctx, "pet-1", "owner-1", UploadInput{Body: strings.NewReader("a")})
		require.NoError(t, err)
	}
	_, err := svc.Upload(ctx, "pet-2", "owner-1", UploadInput{Body: strings.NewReader("b")})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByPet(ctx, "pet-1"))
	assert.Len(t, store.deleted, 3)
	assert.Len(t, repo.byID, 1)
	assert.Len(t, store.uploaded, 1)
}
