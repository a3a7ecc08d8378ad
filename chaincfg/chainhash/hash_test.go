// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainhash

import (
	"bytes"
	"testing"
)

func TestHashStrRoundTrip(t *testing.T) {
	want := Hash{}
	for i := range want {
		want[i] = byte(i)
	}

	h, err := NewHashFromStr(want.String())
	if err != nil {
		t.Fatalf("NewHashFromStr: unexpected error: %v", err)
	}
	if !h.IsEqual(&want) {
		t.Fatalf("round trip mismatch: got %v, want %v", h, want)
	}
}

func TestHashFromStrTooLong(t *testing.T) {
	overflow := make([]byte, MaxHashStringSize+1)
	for i := range overflow {
		overflow[i] = 'a'
	}
	_, err := NewHashFromStr(string(overflow))
	if err != ErrHashStrSize {
		t.Fatalf("got error %v, want %v", err, ErrHashStrSize)
	}
}

func TestHashLess(t *testing.T) {
	var a, b Hash
	a[31] = 1
	b[31] = 2
	if !a.Less(b) {
		t.Fatalf("expected a < b")
	}
	if b.Less(a) {
		t.Fatalf("expected b !< a")
	}
	if a.Less(a) {
		t.Fatalf("expected a !< a")
	}
}

func TestHashHDeterministic(t *testing.T) {
	data := []byte("block header bytes")
	h1 := HashH(data)
	h2 := HashH(data)
	if !bytes.Equal(h1[:], h2[:]) {
		t.Fatalf("HashH not deterministic")
	}
}
