package service

import (
	"context"
	"testing"

	"inmueble_backend/internal/advisors/repository"
	"inmueble_backend/platform/apperr"
	"inmueble_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore keys rows by phone_key like the unique index does.
type fakeStore struct {
	byPhone     map[string]*repository.ExternalAdvisor
	assignments []repository.Assignment
	appendErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byPhone: make(map[string]*repository.ExternalAdvisor)}
}

func (f *fakeStore) FindByPhoneKey(_ context.Context, key string) (*repository.ExternalAdvisor, error) {
	return f.byPhone[key], nil
}

func (f *fakeStore) Upsert(_ context.Context, p repository.UpsertParams) (*repository.ExternalAdvisor, error) {
	if existing, ok := f.byPhone[p.PhoneKey]; ok {
		existing.Name = p.Name
		existing.Email = p.Email
		existing.Position = p.Position
		return existing, nil
	}
	advisor := &repository.ExternalAdvisor{
		ID:          uuid.New(),
		Name:        p.Name,
		Phone:       p.Phone,
		PhoneKey:    p.PhoneKey,
		Email:       p.Email,
		Position:    p.Position,
		DeveloperID: p.DeveloperID,
		Active:      true,
	}
	f.byPhone[p.PhoneKey] = advisor
	return advisor, nil
}

func (f *fakeStore) ListByDeveloper(_ context.Context, developerID string) ([]repository.ExternalAdvisor, error) {
	items := make([]repository.ExternalAdvisor, 0)
	for _, a := range f.byPhone {
		if a.DeveloperID == developerID {
			items = append(items, *a)
		}
	}
	return items, nil
}

func (f *fakeStore) AppendAssignment(_ context.Context, advisorID, leadID uuid.UUID, summary string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.assignments = append(f.assignments, repository.Assignment{
		AdvisorID: advisorID,
		LeadID:    leadID,
		Summary:   summary,
	})
	return nil
}

func newTestService(store Store) *Service {
	return New(store, logger.New("development"))
}

func TestCreateOrUpdateRegistersWithDefaultPosition(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	advisor, err := svc.CreateOrUpdate(context.Background(), RegisterParams{
		Name:        "Carlos Mena",
		Phone:       "55 8765 4321",
		DeveloperID: "dev-altozano",
	})
	if err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}
	if advisor.Position != DefaultPosition {
		t.Fatalf("expected default position %q, got %q", DefaultPosition, advisor.Position)
	}
	if advisor.WonCount != 0 || advisor.LostCount != 0 || advisor.CloseRate != 0 {
		t.Fatal("new advisor metrics must start at zero")
	}
}

func TestCreateOrUpdateDedupsAcrossPhoneFormats(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	first, err := svc.CreateOrUpdate(context.Background(), RegisterParams{
		Name:        "Carlos",
		Phone:       "5587654321",
		DeveloperID: "dev-altozano",
	})
	if err != nil {
		t.Fatalf("first CreateOrUpdate: %v", err)
	}

	second, err := svc.CreateOrUpdate(context.Background(), RegisterParams{
		Name:        "Carlos Mena",
		Phone:       "+52 55 8765 4321",
		Email:       "carlos@altozano.mx",
		DeveloperID: "dev-altozano",
	})
	if err != nil {
		t.Fatalf("second CreateOrUpdate: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected phone formats to resolve to the same advisor")
	}
	if second.Name != "Carlos Mena" || second.Email != "carlos@altozano.mx" {
		t.Fatal("expected re-registration to refresh name and email")
	}
	if len(store.byPhone) != 1 {
		t.Fatalf("expected 1 advisor, got %d", len(store.byPhone))
	}
}

func TestCreateOrUpdateValidation(t *testing.T) {
	svc := newTestService(newFakeStore())

	cases := []RegisterParams{
		{Phone: "5587654321", DeveloperID: "dev-1"},
		{Name: "Carlos", DeveloperID: "dev-1"},
		{Name: "Carlos", Phone: "5587654321"},
	}
	for i, p := range cases {
		if _, err := svc.CreateOrUpdate(context.Background(), p); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestFindByPhoneReturnsNilWhenAbsent(t *testing.T) {
	svc := newTestService(newFakeStore())

	advisor, err := svc.FindByPhone(context.Background(), "5500000000")
	if err != nil {
		t.Fatalf("FindByPhone: %v", err)
	}
	if advisor != nil {
		t.Fatalf("expected nil for unknown phone, got %+v", advisor)
	}
}

func TestRecordAssignmentSwallowsStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.appendErr = context.DeadlineExceeded
	svc := newTestService(store)

	// Must not panic or propagate.
	svc.RecordAssignment(context.Background(), uuid.New(), uuid.New(), "Lead: Ana Torres")
	if len(store.assignments) != 0 {
		t.Fatal("expected no assignment recorded on store failure")
	}
}
