package scheduler

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

func TestOutboxDueTaskRoundTrip(t *testing.T) {
	task, err := NewNotificationOutboxDueTask(NotificationOutboxDuePayload{
		OutboxID: "0d4c7b9e-9d2f-4e7a-8f32-0a6f8f1a2b3c",
	})
	if err != nil {
		t.Fatalf("NewNotificationOutboxDueTask: %v", err)
	}
	if task.Type() != TaskNotificationOutboxDue {
		t.Fatalf("task type = %s", task.Type())
	}

	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		t.Fatalf("ParseNotificationOutboxDuePayload: %v", err)
	}
	if payload.OutboxID != "0d4c7b9e-9d2f-4e7a-8f32-0a6f8f1a2b3c" {
		t.Fatalf("outbox id = %s", payload.OutboxID)
	}
}

func TestEnqueueOutboxDueTask(t *testing.T) {
	mr := miniredis.RunT(t)

	opt := asynq.RedisClientOpt{Addr: mr.Addr()}
	client := asynq.NewClient(opt)
	defer client.Close()

	task, err := NewNotificationOutboxDueTask(NotificationOutboxDuePayload{OutboxID: "abc"})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if _, err := client.Enqueue(task, asynq.Queue("notifications")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()
	pending, err := inspector.ListPendingTasks("notifications")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Type != TaskNotificationOutboxDue {
		t.Fatalf("expected 1 pending outbox-due task, got %+v", pending)
	}
}
