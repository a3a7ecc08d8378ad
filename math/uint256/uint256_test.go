// Copyright (c) 2021-2022 The bchnode developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package uint256

import "testing"

func TestAddNoCarry(t *testing.T) {
	a := NewFromBig64(5)
	b := NewFromBig64(7)
	got := Add(a, b)
	if got != NewFromBig64(12) {
		t.Fatalf("Add(5,7) = %v, want 12", got)
	}
}

func TestAddCarriesAcrossWords(t *testing.T) {
	a := Uint256{Words: [4]uint64{^uint64(0), 0, 0, 0}}
	b := NewFromBig64(1)
	got := Add(a, b)
	want := Uint256{Words: [4]uint64{0, 1, 0, 0}}
	if got != want {
		t.Fatalf("Add carry mismatch: got %v, want %v", got, want)
	}
}

func TestCmp(t *testing.T) {
	a := NewFromBig64(10)
	b := NewFromBig64(20)
	if Cmp(a, b) != -1 {
		t.Fatalf("Cmp(10,20) = %d, want -1", Cmp(a, b))
	}
	if Cmp(b, a) != 1 {
		t.Fatalf("Cmp(20,10) = %d, want 1", Cmp(b, a))
	}
	if Cmp(a, a) != 0 {
		t.Fatalf("Cmp(10,10) = %d, want 0", Cmp(a, a))
	}
}

func TestSetCompactMatchesKnownDifficultyOneTarget(t *testing.T) {
	// 0x1d00ffff is the genesis difficulty-1 target: mantissa 0x00ffff
	// shifted left by 8*(0x1d-3) = 208 bits, i.e. 0xffff0000 in the most
	// significant 64-bit word.
	target := SetCompact(0x1d00ffff)
	want := Uint256{Words: [4]uint64{0, 0, 0, 0xffff0000}}
	if target != want {
		t.Fatalf("SetCompact(0x1d00ffff) = %x, want %x", target.Bytes(), want.Bytes())
	}
}

func TestSetCompactSmallExponent(t *testing.T) {
	// exponent == 3 takes the mantissa as-is, with no shift.
	got := SetCompact(0x03123456)
	want := NewFromBig64(0x123456)
	if got != want {
		t.Fatalf("SetCompact(0x03123456) = %v, want %v", got, want)
	}
}

func TestWorkFromCompactIsMonotonicInDifficulty(t *testing.T) {
	easy := WorkFromCompact(0x1d00ffff)
	harder := WorkFromCompact(0x1c00ffff)
	if Cmp(harder, easy) <= 0 {
		t.Fatalf("expected harder target to contribute more work: easy=%v harder=%v", easy, harder)
	}
}

func TestWorkFromCompactZeroTarget(t *testing.T) {
	got := WorkFromCompact(0)
	if !got.IsZero() {
		t.Fatalf("expected zero work for a zero compact encoding, got %v", got)
	}
}
