package relay

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

type fakePeer struct {
	id     string
	userID int
	full   bool

	mu       sync.Mutex
	received [][]byte
	closed   bool
}

func (f *fakePeer) ID() string  { return f.id }
func (f *fakePeer) UserID() int { return f.userID }

func (f *fakePeer) Send(payload []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full || f.closed {
		return false
	}
	f.received = append(f.received, payload)
	return true
}

func (f *fakePeer) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakePeer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.received)
}

func TestHubBroadcastReachesOnlyRoomPeers(t *testing.T) {
	hub := NewHub()
	a := &fakePeer{id: "a", userID: 1}
	b := &fakePeer{id: "b", userID: 2}
	other := &fakePeer{id: "c", userID: 3}

	for _, join := range []struct {
		room int
		peer *fakePeer
	}{{1, a}, {1, b}, {2, other}} {
		if err := hub.Join(join.room, join.peer); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	if got := hub.Broadcast(1, []byte(`{}`)); got != 2 {
		t.Fatalf("delivered = %d, want 2", got)
	}
	if a.count() != 1 || b.count() != 1 || other.count() != 0 {
		t.Fatalf("unexpected deliveries a=%d b=%d c=%d", a.count(), b.count(), other.count())
	}
}

func TestHubBroadcastFromSkipsSender(t *testing.T) {
	hub := NewHub()
	a := &fakePeer{id: "a"}
	b := &fakePeer{id: "b"}
	_ = hub.Join(7, a)
	_ = hub.Join(7, b)

	if got := hub.BroadcastFrom(7, "a", []byte(`{}`)); got != 1 {
		t.Fatalf("delivered = %d, want 1", got)
	}
	if a.count() != 0 {
		t.Fatal("sender received its own frame")
	}
}

func TestHubCountsOnlyAcceptedSends(t *testing.T) {
	hub := NewHub()
	_ = hub.Join(1, &fakePeer{id: "ok"})
	_ = hub.Join(1, &fakePeer{id: "slow", full: true})

	if got := hub.Broadcast(1, []byte(`{}`)); got != 1 {
		t.Fatalf("delivered = %d, want 1", got)
	}
}

func TestHubLeave(t *testing.T) {
	hub := NewHub()
	a := &fakePeer{id: "a"}
	_ = hub.Join(1, a)
	hub.Leave(1, a)
	hub.Leave(1, a)
	hub.Leave(99, a)

	if hub.Count(1) != 0 {
		t.Fatalf("count = %d, want 0", hub.Count(1))
	}
	if got := hub.Broadcast(1, []byte(`{}`)); got != 0 {
		t.Fatalf("delivered = %d, want 0", got)
	}
}

func TestHubCloseDisconnectsAndRefusesJoins(t *testing.T) {
	hub := NewHub()
	a := &fakePeer{id: "a"}
	_ = hub.Join(1, a)

	hub.Close()
	hub.Close()

	if !a.closed {
		t.Fatal("peer not closed")
	}
	if err := hub.Join(1, &fakePeer{id: "late"}); err != ErrHubClosed {
		t.Fatalf("join after close: %v, want ErrHubClosed", err)
	}
	if hub.Count(1) != 0 {
		t.Fatal("registry not emptied")
	}
}

func TestHubConcurrentJoinBroadcastLeave(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := &fakePeer{id: fmt.Sprintf("p%d", i)}
			_ = hub.Join(1, p)
			hub.Broadcast(1, []byte(`{}`))
			hub.Leave(1, p)
		}(i)
	}
	wg.Wait()

	if hub.Count(1) != 0 {
		t.Fatalf("count = %d, want 0", hub.Count(1))
	}
}

func TestMemoryPresenceCountsConnections(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPresence()

	_ = p.Join(ctx, 1, 20)
	_ = p.Join(ctx, 1, 10)
	_ = p.Join(ctx, 1, 10)

	online, _ := p.Online(ctx, 1)
	if !reflect.DeepEqual(online, []int{10, 20}) {
		t.Fatalf("online = %v", online)
	}

	_ = p.Leave(ctx, 1, 10)
	online, _ = p.Online(ctx, 1)
	if !reflect.DeepEqual(online, []int{10, 20}) {
		t.Fatalf("user 10 still has a connection, online = %v", online)
	}

	_ = p.Leave(ctx, 1, 10)
	_ = p.Leave(ctx, 1, 20)
	online, _ = p.Online(ctx, 1)
	if len(online) != 0 {
		t.Fatalf("online = %v, want empty", online)
	}

	if err := p.Leave(ctx, 5, 1); err != nil {
		t.Fatalf("leave unknown room: %v", err)
	}
}

func TestOnlineKey(t *testing.T) {
	if got := onlineKey(12); got != "nutricare:room:12:online" {
		t.Fatalf("onlineKey = %q", got)
	}
}
