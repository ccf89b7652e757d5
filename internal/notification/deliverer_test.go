package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"inmueble_backend/internal/events"
	"inmueble_backend/internal/notification/outbox"
	"inmueble_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeOutboxStore struct {
	records   map[uuid.UUID]*outbox.Record
	succeeded []uuid.UUID
	failed    map[uuid.UUID]string
	pending   map[uuid.UUID]string
}

func newFakeOutboxStore() *fakeOutboxStore {
	return &fakeOutboxStore{
		records: make(map[uuid.UUID]*outbox.Record),
		failed:  make(map[uuid.UUID]string),
		pending: make(map[uuid.UUID]string),
	}
}

func (f *fakeOutboxStore) add(template string, payload any, attempts int) uuid.UUID {
	data, _ := json.Marshal(payload)
	id := uuid.New()
	f.records[id] = &outbox.Record{
		ID: id, Kind: KindWhatsApp, Template: template,
		Payload: data, Status: outbox.StatusEnqueued, Attempts: attempts,
	}
	return id
}

func (f *fakeOutboxStore) GetByID(_ context.Context, id uuid.UUID) (outbox.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return outbox.Record{}, errors.New("record not found")
	}
	return *rec, nil
}

func (f *fakeOutboxStore) MarkProcessing(_ context.Context, id uuid.UUID) error {
	f.records[id].Status = outbox.StatusProcessing
	f.records[id].Attempts++
	return nil
}

func (f *fakeOutboxStore) MarkSucceeded(_ context.Context, id uuid.UUID) error {
	f.records[id].Status = outbox.StatusSucceeded
	f.succeeded = append(f.succeeded, id)
	return nil
}

func (f *fakeOutboxStore) MarkFailed(_ context.Context, id uuid.UUID, lastError string) error {
	f.records[id].Status = outbox.StatusFailed
	f.failed[id] = lastError
	return nil
}

func (f *fakeOutboxStore) MarkPending(_ context.Context, id uuid.UUID, lastError *string) error {
	f.records[id].Status = outbox.StatusPending
	if lastError != nil {
		f.pending[id] = *lastError
	}
	return nil
}

type fakeSender struct {
	sent []struct{ phone, message string }
	fail error
}

func (f *fakeSender) SendMessage(_ context.Context, phoneNumber, message string) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, struct{ phone, message string }{phoneNumber, message})
	return nil
}

type staticWhatsAppConfig struct {
	salesDesk string
}

func (c staticWhatsAppConfig) GetWhatsAppURL() string      { return "http://gowa.local" }
func (c staticWhatsAppConfig) GetWhatsAppKey() string      { return "" }
func (c staticWhatsAppConfig) GetWhatsAppDeviceID() string { return "" }
func (c staticWhatsAppConfig) GetSalesDeskPhone() string   { return c.salesDesk }

func newTestDeliverer(store *fakeOutboxStore, sender *fakeSender) *Deliverer {
	return NewDeliverer(store, sender, staticWhatsAppConfig{salesDesk: "+525511122233"}, logger.New("development"))
}

func dueEvent(id uuid.UUID) events.NotificationOutboxDue {
	return events.NotificationOutboxDue{BaseEvent: events.NewBaseEvent(), OutboxID: id}
}

func TestDeliverLeadSubmittedToSalesDesk(t *testing.T) {
	store := newFakeOutboxStore()
	sender := &fakeSender{}
	id := store.add(TemplateLeadSubmitted, LeadSubmittedPayload{
		LeadID:          uuid.New(),
		ContactName:     "Ana Torres",
		ContactPhone:    "+525512345678",
		DevelopmentName: "Altozano Norte",
		AppointmentDate: "2026-04-20",
		AppointmentTime: "11:00",
	}, 0)

	if err := newTestDeliverer(store, sender).Handle(context.Background(), dueEvent(id)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sender.sent))
	}
	if sender.sent[0].phone != "+525511122233" {
		t.Fatalf("new-lead alert must go to the sales desk, went to %s", sender.sent[0].phone)
	}
	if store.records[id].Status != outbox.StatusSucceeded {
		t.Fatalf("record status = %s, want succeeded", store.records[id].Status)
	}
}

func TestDeliverLeadAssignedToAdvisor(t *testing.T) {
	store := newFakeOutboxStore()
	sender := &fakeSender{}
	id := store.add(TemplateLeadAssigned, LeadAssignedPayload{
		LeadID:       uuid.New(),
		ContactName:  "Ana Torres",
		AdvisorName:  "Carlos Mena",
		AdvisorPhone: "+525587654321",
	}, 0)

	if err := newTestDeliverer(store, sender).Handle(context.Background(), dueEvent(id)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].phone != "+525587654321" {
		t.Fatalf("hand-off must go to the advisor, got %+v", sender.sent)
	}
}

func TestTransientSendFailureReturnsToPending(t *testing.T) {
	store := newFakeOutboxStore()
	sender := &fakeSender{fail: errors.New("gateway timeout")}
	id := store.add(TemplateLeadAssigned, LeadAssignedPayload{
		ContactName: "Ana", AdvisorName: "Carlos", AdvisorPhone: "+525587654321",
	}, 0)

	if err := newTestDeliverer(store, sender).Handle(context.Background(), dueEvent(id)); err != nil {
		t.Fatalf("Handle must swallow transient failures, got %v", err)
	}
	if store.records[id].Status != outbox.StatusPending {
		t.Fatalf("record status = %s, want pending for retry", store.records[id].Status)
	}
	if store.pending[id] == "" {
		t.Fatal("expected last error recorded on requeue")
	}
}

func TestExhaustedAttemptsParkAsFailed(t *testing.T) {
	store := newFakeOutboxStore()
	sender := &fakeSender{fail: errors.New("gateway down")}
	id := store.add(TemplateLeadAssigned, LeadAssignedPayload{
		ContactName: "Ana", AdvisorName: "Carlos", AdvisorPhone: "+525587654321",
	}, maxDeliveryAttempts-1)

	if err := newTestDeliverer(store, sender).Handle(context.Background(), dueEvent(id)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if store.records[id].Status != outbox.StatusFailed {
		t.Fatalf("record status = %s, want failed after attempt budget", store.records[id].Status)
	}
}

func TestUnknownTemplateFailsImmediately(t *testing.T) {
	store := newFakeOutboxStore()
	sender := &fakeSender{}
	id := store.add("newsletter", map[string]string{}, 0)

	if err := newTestDeliverer(store, sender).Handle(context.Background(), dueEvent(id)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if store.records[id].Status != outbox.StatusFailed {
		t.Fatalf("unknown template must fail, got %s", store.records[id].Status)
	}
	if len(sender.sent) != 0 {
		t.Fatal("nothing must be sent for an unknown template")
	}
}

func TestAlreadySucceededRecordIsSkipped(t *testing.T) {
	store := newFakeOutboxStore()
	sender := &fakeSender{}
	id := store.add(TemplateLeadAssigned, LeadAssignedPayload{
		ContactName: "Ana", AdvisorName: "Carlos", AdvisorPhone: "+525587654321",
	}, 1)
	store.records[id].Status = outbox.StatusSucceeded

	if err := newTestDeliverer(store, sender).Handle(context.Background(), dueEvent(id)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("redelivery of a succeeded record must be a no-op")
	}
}
