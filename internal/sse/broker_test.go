package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "recipe.created", Data: map[string]string{"slug": "pesto"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: recipe.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"slug":"pesto"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishVaultEvent_InvalidationThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First change triggers list.invalidated, the rest fall inside the window.
	b.PublishVaultEvent("created", "recipes/pesto.yaml")
	b.PublishVaultEvent("updated", "stores/corner-shop.yaml")
	b.PublishVaultEvent("updated", "notes/readme.yaml")

	time.Sleep(50 * time.Millisecond)
	var types []string
loop:
	for {
		select {
		case msg := <-ch:
			for _, line := range strings.Split(string(msg), "\n") {
				if name, ok := strings.CutPrefix(line, "event: "); ok {
					types = append(types, name)
				}
			}
		default:
			break loop
		}
	}

	want := []string{"recipe.created", "list.invalidated", "store.updated"}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestEventFor(t *testing.T) {
	tests := []struct {
		kind, path, want string
	}{
		{"deleted", "recipes/pesto.yaml", "recipe.deleted"},
		{"created", "stores/shop.yml", "store.updated"},
		{"updated", "ingredients.yaml", "ingredients.updated"},
	}
	for _, tt := range tests {
		ev, ok := eventFor(tt.kind, tt.path)
		if !ok || ev.Type != tt.want {
			t.Errorf("eventFor(%q, %q) = %q, %v", tt.kind, tt.path, ev.Type, ok)
		}
	}
	if _, ok := eventFor("updated", "random.yaml"); ok {
		t.Error("unknown paths should not produce events")
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: "recipe.updated", Data: map[string]string{"slug": "x"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: recipe.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "recipe.updated", Data: map[string]string{"slug": "x"}})
	b.PublishVaultEvent("updated", "recipes/x.yaml")
}
