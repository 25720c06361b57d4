package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastJSONQueuesMessage(t *testing.T) {
	hub := NewHub()
	hub.BroadcastJSON(map[string]string{"type": "status_update"})

	select {
	case msg := <-hub.Broadcast:
		assert.Contains(t, string(msg), `"type":"status_update"`)
	default:
		t.Fatal("expected a queued broadcast message")
	}
}

func TestBroadcastJSONDropsWhenFull(t *testing.T) {
	hub := NewHub()
	for i := 0; i < cap(hub.Broadcast); i++ {
		hub.Broadcast <- []byte("{}")
	}

	// Queue is full and nothing is draining it; this must return instead of
	// blocking the calling worker.
	hub.BroadcastJSON(map[string]string{"type": "status_update"})
	require.Len(t, hub.Broadcast, cap(hub.Broadcast))
}
