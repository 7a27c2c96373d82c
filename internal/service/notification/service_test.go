package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/sse"
)

func receive(t *testing.T, ch <-chan sse.Event) sse.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return sse.Event{}
	}
}

func TestBroadcaster_RoutesToAdminAndEmployeeTopics(t *testing.T) {
	hub := sse.NewHub()
	admin, closeAdmin := hub.Subscribe(sse.AdminTopic)
	defer closeAdmin()
	own, closeOwn := hub.Subscribe(EmployeeTopic("emp-1"))
	defer closeOwn()
	other, closeOther := hub.Subscribe(EmployeeTopic("emp-2"))
	defer closeOther()

	b := NewBroadcaster(hub, Config{WorkerCount: 1})
	defer b.Close()

	b.Notify("employee.clocked_in", map[string]interface{}{"employeeId": "emp-1"})

	got := receive(t, admin)
	assert.Equal(t, "employee.clocked_in", got.Event)
	assert.Equal(t, sse.AdminTopic, got.Topic)
	msg, ok := got.Data.(Message)
	require.True(t, ok)
	assert.Equal(t, "emp-1", msg.Payload["employeeId"])
	assert.NotEmpty(t, msg.ID)

	got = receive(t, own)
	assert.Equal(t, EmployeeTopic("emp-1"), got.Topic)

	select {
	case e := <-other:
		t.Fatalf("unexpected event for other employee: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcaster_AdminOnlyWithoutEmployee(t *testing.T) {
	hub := sse.NewHub()
	admin, closeAdmin := hub.Subscribe(sse.AdminTopic)
	defer closeAdmin()

	b := NewBroadcaster(hub, Config{})
	defer b.Close()

	b.Notify("settings.updated", map[string]interface{}{"updatedBy": "admin-1"})

	got := receive(t, admin)
	assert.Equal(t, "settings.updated", got.Event)
}

func TestBroadcaster_CloseFlushesAndStopsAccepting(t *testing.T) {
	hub := sse.NewHub()
	admin, closeAdmin := hub.Subscribe(sse.AdminTopic)
	defer closeAdmin()

	b := NewBroadcaster(hub, Config{WorkerCount: 1})
	b.Notify("request.submitted", nil)
	b.Close()
	b.Close()

	got := receive(t, admin)
	assert.Equal(t, "request.submitted", got.Event)

	b.Notify("request.processed", nil)
	select {
	case e := <-admin:
		t.Fatalf("event published after close: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}
