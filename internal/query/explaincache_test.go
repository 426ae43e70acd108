package query

import (
	"testing"
	"time"
)

func TestExplanationCacheKeyChangesWithTasks(t *testing.T) {
	t.Parallel()

	c := NewExplanationCache(4, time.Minute)
	tasks := fixtureTasks()

	base := c.Key("not done", tasks)

	if got := c.Key("done", tasks); got == base {
		t.Error("different queries share a key")
	}

	// Touching a task's modification time must change the key.
	touched := fixtureTasks()
	when := testRef.Add(time.Hour)
	touched[0].Updated = &when

	if got := c.Key("not done", touched); got == base {
		t.Error("modified task set shares a key")
	}

	// Identical inputs key identically.
	if got := c.Key("not done", fixtureTasks()); got != base {
		t.Error("identical inputs produced different keys")
	}
}

func TestExplanationCacheTTLExpiry(t *testing.T) {
	t.Parallel()

	c := NewExplanationCache(4, time.Minute)

	current := testRef
	c.now = func() time.Time { return current }

	exp := &Explanation{QueryText: "done"}
	c.Put(1, exp)

	if c.Get(1) != exp {
		t.Fatal("fresh entry missing")
	}

	// Just inside the TTL.
	current = testRef.Add(time.Minute)

	if c.Get(1) != exp {
		t.Error("entry expired before its TTL")
	}

	// Past the TTL: expired lazily on access and removed.
	current = testRef.Add(time.Minute + time.Second)

	if c.Get(1) != nil {
		t.Error("entry survived past its TTL")
	}

	if c.Len() != 0 {
		t.Errorf("Len = %d after lazy expiry, want 0", c.Len())
	}
}

func TestExplanationCacheCapacityEviction(t *testing.T) {
	t.Parallel()

	c := NewExplanationCache(2, time.Hour)

	c.Put(1, &Explanation{})
	c.Put(2, &Explanation{})
	c.Put(3, &Explanation{})

	if c.Get(1) != nil {
		t.Error("oldest entry survived eviction")
	}

	if c.Get(2) == nil || c.Get(3) == nil {
		t.Error("younger entries were evicted")
	}
}

func TestExplanationCacheClear(t *testing.T) {
	t.Parallel()

	c := NewExplanationCache(4, time.Hour)
	c.Put(1, &Explanation{})
	c.Clear()

	if c.Len() != 0 || c.Get(1) != nil {
		t.Error("Clear left entries behind")
	}
}
