package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
)

func TestMatchChannel(t *testing.T) {
	tests := []struct {
		pattern, channel string
		want             bool
	}{
		{"*", ChannelControllerPhase, true},
		{ChannelActuatorState, ChannelActuatorState, true},
		{ChannelActuatorState, ChannelAutomationFired, false},
		{"actuator.*", ChannelActuatorState, true},
		{"actuator.*", ChannelAutomationFired, false},
		{"act*", ChannelActuatorState, false},
	}
	for _, tt := range tests {
		if got := matchChannel(tt.pattern, tt.channel); got != tt.want {
			t.Errorf("matchChannel(%q, %q) = %v, want %v", tt.pattern, tt.channel, got, tt.want)
		}
	}
}

func TestHub_BroadcastToMatching(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, testLogger())
	actuators := newSubscriber(hub, nil, subscriberQueue, "actuator.*")
	automations := newSubscriber(hub, nil, subscriberQueue, ChannelAutomationFired)
	hub.add(actuators)
	hub.add(automations)

	hub.Broadcast(ChannelActuatorState, map[string]any{"id": "lamp", "state": "on"})

	select {
	case raw := <-actuators.queue:
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if f.Type != FrameEvent || f.Channel != ChannelActuatorState || f.Time.IsZero() {
			t.Errorf("frame = %+v", f)
		}
	case <-time.After(time.Second):
		t.Fatal("no event for wildcard subscriber")
	}

	select {
	case <-automations.queue:
		t.Error("non-matching subscriber received the event")
	default:
	}
}

func TestHub_RemoveIsIdempotent(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, testLogger())
	s := newSubscriber(hub, nil, 1, "*")

	hub.add(s)
	if hub.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", hub.Subscribers())
	}
	hub.remove(s)
	hub.remove(s)
	if hub.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", hub.Subscribers())
	}

	// Offering to a closed subscriber is dropped.
	s.offer([]byte("late"))
	hub.Broadcast(ChannelControllerPhase, "Run")
}

func TestHub_RunDisconnects(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, testLogger())
	s := newSubscriber(hub, nil, 1, "*")
	hub.add(s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, ok := <-s.queue; ok {
		t.Error("queue still open after Run returned")
	}
	if hub.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d after Run", hub.Subscribers())
	}
}

func TestWebSocket_SubscribeAndReceive(t *testing.T) {
	srv := testServer(t, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v (resp: %v)", err, resp)
	}
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // test deadline

	read := func() Frame {
		t.Helper()
		var f Frame
		if err := ws.ReadJSON(&f); err != nil {
			t.Fatalf("read: %v", err)
		}
		return f
	}

	if err := ws.WriteJSON(Frame{Type: FrameSubscribe, ID: "sub-1", Channels: []string{"actuator.*"}}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}
	if ack := read(); ack.Type != FrameAck || ack.ID != "sub-1" || len(ack.Channels) != 1 {
		t.Fatalf("ack = %+v", ack)
	}

	srv.Hub().Broadcast(ChannelAutomationFired, map[string]string{"id": "evening"})
	srv.Hub().Broadcast(ChannelActuatorState, map[string]string{"id": "lamp"})
	if ev := read(); ev.Type != FrameEvent || ev.Channel != ChannelActuatorState {
		t.Errorf("event = %+v, want only the actuator event", ev)
	}

	if err := ws.WriteJSON(Frame{Type: FramePing, ID: "p"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if pong := read(); pong.Type != FramePong || pong.ID != "p" {
		t.Errorf("pong = %+v", pong)
	}

	if err := ws.WriteJSON(Frame{Type: "bogus", ID: "x"}); err != nil {
		t.Fatalf("write bogus: %v", err)
	}
	if f := read(); f.Type != FrameError || f.ID != "x" {
		t.Errorf("error frame = %+v", f)
	}
}
