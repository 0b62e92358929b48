package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func TestReplayBufferRangeSinceWraparound(t *testing.T) {
	rb := newReplayBuffer(5)
	for i := int64(1); i <= 8; i++ {
		rb.push(i, []byte("msg"))
	}

	if rb.len() != 5 {
		t.Fatalf("len() = %d, want 5", rb.len())
	}

	got := rb.rangeSince(0)
	if len(got) != 5 {
		t.Fatalf("rangeSince(0): expected 5, got %d", len(got))
	}
	if got[0].Seq != 4 {
		t.Errorf("oldest entry seq = %d, want 4", got[0].Seq)
	}
	if got[len(got)-1].Seq != 8 {
		t.Errorf("newest entry seq = %d, want 8", got[len(got)-1].Seq)
	}
}

func TestReplayBufferRangeSinceExcludesAtOrBefore(t *testing.T) {
	rb := newReplayBuffer(10)
	for i := int64(1); i <= 4; i++ {
		rb.push(i, []byte("msg"))
	}
	got := rb.rangeSince(2)
	if len(got) != 2 {
		t.Fatalf("rangeSince(2): expected 2, got %d", len(got))
	}
	if got[0].Seq != 3 || got[1].Seq != 4 {
		t.Errorf("unexpected seqs: %+v", got)
	}
}

func TestClientIsSubscribedDefaultsToAllWhenNoSubs(t *testing.T) {
	c := &Client{subs: make(map[string]bool)}
	if !c.isSubscribed("root.a.out") {
		t.Fatal("client with no explicit subscriptions should receive everything")
	}
}

func TestClientIsSubscribedFiltersByPath(t *testing.T) {
	c := &Client{subs: map[string]bool{"root.a.out": true}}
	if !c.isSubscribed("root.a.out") {
		t.Fatal("expected subscribed path to match")
	}
	if c.isSubscribed("root.b.out") {
		t.Fatal("expected unsubscribed path to be filtered out")
	}
}

func TestHubPublishThenSnapshotRoundTrips(t *testing.T) {
	h := NewHub()
	payload, _ := json.Marshal(map[string]int{"value": 42})

	h.Publish("root.a.out", time.Unix(0, 0), payload)
	h.Publish("root.a.out", time.Unix(1, 0), payload)

	entry, history, ok := h.snapshot("root.a.out")
	if !ok {
		t.Fatal("expected snapshot to exist after Publish")
	}
	if entry.Seq != 2 {
		t.Fatalf("entry.Seq = %d, want 2", entry.Seq)
	}
	if len(history) != 2 {
		t.Fatalf("history len = %d, want 2", len(history))
	}
}

func TestHubSnapshotMissingPath(t *testing.T) {
	h := NewHub()
	if _, _, ok := h.snapshot("root.never.published"); ok {
		t.Fatal("expected ok=false for a path that was never published")
	}
}
