package service

import (
	"context"
	"sync"
	"testing"

	"inmueble_backend/internal/clients/repository"
	"inmueble_backend/platform/apperr"
	"inmueble_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore implements Store in memory. Upserts are guarded by a mutex and
// keyed like the partial unique indexes, mirroring the insert-if-absent
// semantics of the real repository.
type fakeStore struct {
	mu      sync.Mutex
	byEmail map[string]*repository.Client
	byPhone map[string]*repository.Client
	touched int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byEmail: make(map[string]*repository.Client),
		byPhone: make(map[string]*repository.Client),
	}
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*repository.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byEmail[email], nil
}

func (f *fakeStore) FindByPhoneKey(_ context.Context, key string) (*repository.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byPhone[key], nil
}

func (f *fakeStore) UpsertByEmail(_ context.Context, p repository.CreateParams) (*repository.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byEmail[p.Email]; ok {
		return existing, nil
	}
	return f.insert(p), nil
}

func (f *fakeStore) UpsertByPhone(_ context.Context, p repository.CreateParams) (*repository.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byPhone[p.PhoneKey]; ok {
		existing.Phone = p.Phone
		return existing, nil
	}
	return f.insert(p), nil
}

func (f *fakeStore) insert(p repository.CreateParams) *repository.Client {
	client := &repository.Client{
		ID:       uuid.New(),
		Name:     p.Name,
		Email:    p.Email,
		Phone:    p.Phone,
		PhoneKey: p.PhoneKey,
		Role:     "prospect",
		Origin:   p.Origin,
	}
	if p.Email != "" {
		f.byEmail[p.Email] = client
	}
	if p.PhoneKey != "" {
		f.byPhone[p.PhoneKey] = client
	}
	return client
}

func (f *fakeStore) TouchLastSeen(_ context.Context, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched++
	return nil
}

func (f *fakeStore) UpdatePhone(_ context.Context, id uuid.UUID, phoneNumber, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byPhone {
		if c.ID == id {
			c.Phone = phoneNumber
			c.PhoneKey = key
		}
	}
	return nil
}

func newTestService(store Store) *Service {
	return New(store, logger.New("development"))
}

func TestResolveCreatesProspectOnFirstContact(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	client, err := svc.Resolve(context.Background(), "Ana Torres", "ana@example.com", "55 1234 5678")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if client.Role != "prospect" {
		t.Fatalf("expected role prospect, got %q", client.Role)
	}
	if client.Email != "ana@example.com" {
		t.Fatalf("unexpected email %q", client.Email)
	}
	if len(store.byEmail) != 1 {
		t.Fatalf("expected 1 client, got %d", len(store.byEmail))
	}
}

func TestResolveReturnsExistingByEmailWithoutMutation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	first, err := svc.Resolve(context.Background(), "Ana", "ana@example.com", "5512345678")
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}

	second, err := svc.Resolve(context.Background(), "Ana Torres", "ana@example.com", "5599999999")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same client id, got %s and %s", first.ID, second.ID)
	}
	if len(store.byEmail) != 1 {
		t.Fatalf("expected 1 client, got %d", len(store.byEmail))
	}
	if store.touched == 0 {
		t.Fatal("expected last_seen refresh on email match")
	}
	// Email matches do not rewrite the stored phone.
	if second.Phone != first.Phone {
		t.Fatalf("email match must not mutate phone, got %q", second.Phone)
	}
}

func TestResolveMatchesByPhoneAndRefreshesIt(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	first, err := svc.Resolve(context.Background(), "Luis", "", "55-1234-5678")
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}

	// Same number, different formatting, no email.
	second, err := svc.Resolve(context.Background(), "Luis", "", "+52 55 1234 5678")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected phone formats to resolve to the same client")
	}
	if len(store.byPhone) != 1 {
		t.Fatalf("expected 1 client, got %d", len(store.byPhone))
	}
}

func TestResolveRejectsEmptyContact(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Resolve(context.Background(), "Nadie", "", "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveConcurrentFirstContactYieldsOneClient(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	const n = 32
	ids := make(chan uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client, err := svc.Resolve(context.Background(), "Ana", "ana@example.com", "5512345678")
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			ids <- client.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uuid.UUID]bool)
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Fatalf("expected all resolutions to converge on 1 client, got %d", len(seen))
	}
	if len(store.byEmail) != 1 {
		t.Fatalf("expected 1 stored client, got %d", len(store.byEmail))
	}
}
