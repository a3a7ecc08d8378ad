// Copyright (c) 2021-2022 The bchnode developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package apbf

import "testing"

func TestInsertContains(t *testing.T) {
	f := New(4, 1000, 0.01)
	item := []byte("deadbeef")

	if f.Contains(item) {
		t.Fatalf("expected item to be absent before insertion")
	}
	f.Insert(item)
	if !f.Contains(item) {
		t.Fatalf("expected item to be present after insertion")
	}
}

func TestRotateEventuallyAgesOut(t *testing.T) {
	f := New(3, 1000, 0.01)
	item := []byte("ephemeral")
	f.Insert(item)

	for i := 0; i < 3; i++ {
		f.Rotate()
	}

	if f.Contains(item) {
		t.Fatalf("expected item to have aged out after rotating past all generations")
	}
}

func TestRotatePreservesRecentInsert(t *testing.T) {
	f := New(3, 1000, 0.01)
	item := []byte("still-recent")
	f.Insert(item)
	f.Rotate()

	if !f.Contains(item) {
		t.Fatalf("expected item to still be visible one rotation later")
	}
}
