package tui

import (
	"testing"
	"time"

	"github.com/theirongolddev/fintrack/internal/app"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/notify"
)

func TestBridgeNeverBlocksProducers(t *testing.T) {
	b := NewBridge()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.ShowExpenses(nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked with no consumer")
	}
	if b.Len() != 1000 {
		t.Fatalf("queued = %d, want 1000", b.Len())
	}
}

func TestBridgeDeliversInOrder(t *testing.T) {
	b := NewBridge()
	b.ShowState(app.State{Screen: app.ScreenAuthenticated})
	b.Notify(notify.Success("saved"))
	b.ShowProfile(model.Profile{Name: "Aisha"})

	next := b.Next()
	if _, ok := next().(stateMsg); !ok {
		t.Fatal("first message should be the state change")
	}
	if n, ok := next().(noticeMsg); !ok || n.Message != "saved" {
		t.Fatal("second message should be the notice")
	}
	if p, ok := next().(profileMsg); !ok || p.Name != "Aisha" {
		t.Fatal("third message should be the profile")
	}
}

func TestBridgeNextWaitsForPush(t *testing.T) {
	b := NewBridge()
	got := make(chan any, 1)
	go func() { got <- b.Next()() }()

	time.Sleep(10 * time.Millisecond)
	b.ShowBudget(nil)

	select {
	case msg := <-got:
		if _, ok := msg.(budgetMsg); !ok {
			t.Fatalf("got %T, want budgetMsg", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next never returned")
	}
}

func TestBridgeCloseReleasesWaiter(t *testing.T) {
	b := NewBridge()
	got := make(chan any, 1)
	go func() { got <- b.Next()() }()
	b.Close()

	select {
	case msg := <-got:
		if msg != nil {
			t.Fatalf("got %v, want nil after close", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not release Next")
	}
	b.ShowExpenses(nil)
	if b.Len() != 0 {
		t.Fatal("push after close should be dropped")
	}
}
