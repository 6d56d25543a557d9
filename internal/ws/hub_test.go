package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, buffer int) *Client {
	return &Client{
		id:   uuid.New(),
		hub:  hub,
		send: make(chan []byte, buffer),
	}
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.done)
}

func TestHub_AddAndRemoveClient(t *testing.T) {
	hub := runHub(t)
	client := newTestClient(hub, 1)

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, hub.ConnectedClients())

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.ConnectedClients())
	_, open := <-client.send
	assert.False(t, open, "send channel is closed on unregister")
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := runHub(t)

	client1 := newTestClient(hub, 10)
	client2 := newTestClient(hub, 10)
	hub.register <- client1
	hub.register <- client2
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(EventBlinkConfirmed, map[string]int{"blink_count": 1})

	for _, c := range []*Client{client1, client2} {
		select {
		case msg := <-c.send:
			var event Event
			require.NoError(t, json.Unmarshal(msg, &event))
			assert.Equal(t, EventBlinkConfirmed, event.Type)
			assert.False(t, event.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := runHub(t)

	slow := newTestClient(hub, 0)
	hub.register <- slow
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(EventStatusUpdated, nil)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.ConnectedClients())
}

func TestHub_BroadcastWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Broadcast(EventStatusUpdated, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked with a full queue")
	}
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := newTestClient(hub, 1)
	hub.register <- client
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 0, hub.ConnectedClients())
}

func TestHub_JoinAndLeaveAfterStop(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	connected := newTestClient(hub, 1)
	require.True(t, hub.join(connected))
	cancel()
	<-stopped

	done := make(chan bool)
	go func() {
		hub.leave(connected)
		done <- hub.join(newTestClient(hub, 1))
	}()

	select {
	case joined := <-done:
		assert.False(t, joined, "a stopped hub takes no new subscribers")
	case <-time.After(time.Second):
		t.Fatal("leave or join blocked on a stopped hub")
	}
	assert.Equal(t, 0, hub.ConnectedClients())
}

func TestHub_LeaveWhileRunning(t *testing.T) {
	hub := runHub(t)
	client := newTestClient(hub, 1)

	require.True(t, hub.join(client))
	hub.leave(client)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.ConnectedClients())
}
