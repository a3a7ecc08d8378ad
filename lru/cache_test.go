// Copyright (c) 2021-2022 The bchnode developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package lru

import "testing"

func TestAddGet(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)

	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a") // touch a, making b the LRU entry

	evicted := c.Add("c", 3)
	if !evicted {
		t.Fatalf("expected eviction when exceeding capacity")
	}
	if c.Contains("b") {
		t.Fatalf("expected b to have been evicted")
	}
	if !c.Contains("a") || !c.Contains("c") {
		t.Fatalf("expected a and c to remain cached")
	}
}

func TestRemove(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Remove("a")
	if c.Contains("a") {
		t.Fatalf("expected a to have been removed")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
}

func TestUnboundedCapacityNeverEvicts(t *testing.T) {
	c := New[int, int](0)
	for i := 0; i < 1000; i++ {
		c.Add(i, i)
	}
	if c.Len() != 1000 {
		t.Fatalf("Len() = %d, want 1000", c.Len())
	}
}
