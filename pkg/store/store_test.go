package store

import (
	"sync"
	"testing"
)

func TestMemoryGetSet(t *testing.T) {
	s := NewMemory()
	if s.Get("ui.route.view") != nil {
		t.Error("unset path should be nil")
	}

	s.Set("ui.route.view", "user")
	if got := s.Get("ui.route.view"); got != "user" {
		t.Errorf("Get = %v, want user", got)
	}

	s.Set("ui.route.view", nil)
	if s.Get("ui.route.view") != nil {
		t.Error("Set(nil) should clear the path")
	}
	if _, ok := s.Snapshot()["ui.route.view"]; ok {
		t.Error("cleared path should not appear in Snapshot")
	}
}

func TestMemorySubscribeOrder(t *testing.T) {
	s := NewMemory()
	var got []string

	s.Subscribe("a", func(v any) { got = append(got, "first:"+v.(string)) })
	s.Subscribe("a", func(v any) { got = append(got, "second:"+v.(string)) })
	s.Subscribe("b", func(v any) { got = append(got, "other") })

	s.Set("a", "x")
	s.Set("a", "x")

	want := []string{"first:x", "second:x", "first:x", "second:x"}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMemoryUnsubscribe(t *testing.T) {
	s := NewMemory()
	calls := 0
	unsub := s.Subscribe("a", func(any) { calls++ })
	keep := s.Subscribe("a", func(any) {})
	defer keep()

	s.Set("a", 1)
	unsub()
	unsub()
	s.Set("a", 2)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if n := s.Subscribers("a"); n != 1 {
		t.Errorf("Subscribers = %d, want 1", n)
	}
}

func TestMemorySubscriberMaySetReentrantly(t *testing.T) {
	s := NewMemory()
	s.Subscribe("cmd", func(v any) {
		s.Set("result", v)
	})
	s.Set("cmd", "go")
	if s.Get("result") != "go" {
		t.Errorf("result = %v", s.Get("result"))
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	s := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unsub := s.Subscribe("k", func(any) {})
			for j := 0; j < 100; j++ {
				s.Set("k", j)
				_ = s.Get("k")
			}
			unsub()
		}(i)
	}
	wg.Wait()
	if n := s.Subscribers("k"); n != 0 {
		t.Errorf("Subscribers = %d, want 0", n)
	}
}

var _ Store = (*Memory)(nil)
