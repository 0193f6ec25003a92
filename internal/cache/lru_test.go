package cache

import (
	"errors"
	"strconv"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)
	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4") // evicts key1

	if _, ok := c.Get("key1"); ok {
		t.Error("key1 should have been evicted")
	}
	for _, k := range []string{"key2", "key3", "key4"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if c.Size() != 3 {
		t.Errorf("expected size 3, got %d", c.Size())
	}
}

func TestLRUCacheRecencyOnGet(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3) // evicts b, the least recently used

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a should survive, got %v %v", v, ok)
	}
}

func TestLRUCacheTTL(t *testing.T) {
	clk := newClock()
	c := NewLRUCacheWithClock[string](100, 50*time.Millisecond, clk.now)
	c.Set("key1", "value1")

	if _, ok := c.Get("key1"); !ok {
		t.Fatal("key1 should be cached")
	}
	clk.advance(60 * time.Millisecond)
	if _, ok := c.Get("key1"); ok {
		t.Fatal("key1 should have expired")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed on read")
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	clk := newClock()
	c := NewLRUCacheWithClock[string](100, 50*time.Millisecond, clk.now)
	c.Set("key1", "value1")
	c.Set("key2", "value2")
	clk.advance(30 * time.Millisecond)
	c.Set("key3", "value3")
	clk.advance(30 * time.Millisecond)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("expected 2 items cleaned, got %d", removed)
	}
	if _, ok := c.Get("key3"); !ok {
		t.Errorf("key3 should still be fresh")
	}
}

func TestGetOrCompute(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	v, hit, err := c.GetOrCompute("k", compute)
	if err != nil || hit || v != 42 {
		t.Fatalf("first call: v=%d hit=%v err=%v", v, hit, err)
	}
	v, hit, err = c.GetOrCompute("k", compute)
	if err != nil || !hit || v != 42 {
		t.Fatalf("second call: v=%d hit=%v err=%v", v, hit, err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 computation, got %d", calls)
	}

	boom := errors.New("boom")
	if _, _, err := c.GetOrCompute("bad", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Fatalf("errors must not be cached")
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 3 {
		t.Fatalf("unexpected stats hits=%d misses=%d", hits, misses)
	}
}

func TestViewKey(t *testing.T) {
	cases := []struct {
		version int64
		view    string
		params  []string
		want    string
	}{
		{3, "dashboard", nil, "dashboard@3"},
		{3, "report", []string{"custom", "2026-01-01", "2026-01-31"}, "report@3|custom|2026-01-01|2026-01-31"},
		{4, "report", []string{"weekly", "", ""}, "report@4|weekly||"},
	}
	for _, tc := range cases {
		if got := ViewKey(tc.version, tc.view, tc.params...); got != tc.want {
			t.Errorf("got %q want %q", got, tc.want)
		}
	}
}

func TestManagerCleanAll(t *testing.T) {
	clk := newClock()
	a := NewLRUCacheWithClock[int](10, time.Minute, clk.now)
	b := NewLRUCacheWithClock[string](10, time.Minute, clk.now)
	for i := 0; i < 3; i++ {
		a.Set(strconv.Itoa(i), i)
	}
	b.Set("x", "y")

	m := NewManager(a)
	m.Register(b)
	clk.advance(2 * time.Minute)
	if n := m.CleanAll(); n != 4 {
		t.Fatalf("expected 4 removed, got %d", n)
	}
}

func BenchmarkLRUCache(b *testing.B) {
	c := NewLRUCache[string](1000, time.Hour)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			c.Set("bench-key", "value")
		} else {
			c.Get("bench-key")
		}
	}
}
