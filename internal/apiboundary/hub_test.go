package apiboundary

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient() *client {
	return &client{conn: nil, send: make(chan Message, 256), logger: zap.NewNop()}
}

func TestHub_registerIncrementsClientCount(t *testing.T) {
	h := newHub(zap.NewNop())
	c := newTestClient()

	h.register(c)

	if h.clientCount() != 1 {
		t.Errorf("clientCount() = %d, want 1", h.clientCount())
	}
}

func TestHub_unregisterClosesSendChannel(t *testing.T) {
	h := newHub(zap.NewNop())
	c := newTestClient()
	h.register(c)

	h.unregister(c)

	if h.clientCount() != 0 {
		t.Errorf("clientCount() = %d, want 0", h.clientCount())
	}
	if _, ok := <-c.send; ok {
		t.Error("client.send channel should be closed after unregister")
	}
}

func TestHub_unregisterUnknownClientIsNoop(t *testing.T) {
	h := newHub(zap.NewNop())
	c := newTestClient()

	h.unregister(c)

	if h.clientCount() != 0 {
		t.Errorf("clientCount() = %d, want 0", h.clientCount())
	}
}

func TestHub_broadcastDeliversToAllClients(t *testing.T) {
	h := newHub(zap.NewNop())
	c1, c2 := newTestClient(), newTestClient()
	h.register(c1)
	h.register(c2)

	msg := Message{Type: MessageDeviceCreated, Timestamp: time.Now()}
	h.broadcast(msg)

	for i, c := range []*client{c1, c2} {
		select {
		case got := <-c.send:
			if got.Type != MessageDeviceCreated {
				t.Errorf("client %d got type %v, want %v", i, got.Type, MessageDeviceCreated)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %d did not receive message", i)
		}
	}
}

func TestHub_broadcastDropsWhenBufferFull(t *testing.T) {
	h := newHub(zap.NewNop())
	c := newTestClient()
	h.register(c)

	for i := 0; i < 256; i++ {
		c.send <- Message{Type: MessageDeviceUpdated}
	}

	h.broadcast(Message{Type: MessageDeviceWentOffline})

	if len(c.send) != 256 {
		t.Fatalf("send buffer length = %d, want still full at 256", len(c.send))
	}
	first := <-c.send
	if first.Type == MessageDeviceWentOffline {
		t.Error("dropped message should not have been enqueued")
	}
}
