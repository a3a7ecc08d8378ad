// Copyright (c) 2021-2022 The bchnode developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bech32

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31}
	encoded := Encode("bitcoincash", payload)

	prefix, decoded, err := Decode(encoded, "bitcoincash")
	if err != nil {
		t.Fatalf("Decode: unexpected error: %v", err)
	}
	if prefix != "bitcoincash" {
		t.Fatalf("prefix = %q, want %q", prefix, "bitcoincash")
	}
	if !bytes.Equal(decoded, payload) {
		t.Fatalf("decoded payload = %v, want %v", decoded, payload)
	}
}

func TestDecodeDefaultPrefix(t *testing.T) {
	payload := []byte{1, 2, 3}
	full := Encode("bitcoincash", payload)
	noPrefix := full[len("bitcoincash")+1:]

	prefix, decoded, err := Decode(noPrefix, "bitcoincash")
	if err != nil {
		t.Fatalf("Decode: unexpected error: %v", err)
	}
	if prefix != "bitcoincash" {
		t.Fatalf("prefix = %q, want %q", prefix, "bitcoincash")
	}
	if !bytes.Equal(decoded, payload) {
		t.Fatalf("decoded payload = %v, want %v", decoded, payload)
	}
}

func TestDecodeRejectsMixedCase(t *testing.T) {
	encoded := Encode("bitcoincash", []byte{1, 2, 3})
	mixed := string(encoded[0]-32) + encoded[1:]

	if _, _, err := Decode(mixed, "bitcoincash"); err != ErrMixedCase {
		t.Fatalf("got error %v, want %v", err, ErrMixedCase)
	}
}

func TestDecodeRejectsCorruptedChecksum(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	encoded := Encode("bitcoincash", payload)
	corrupted := []byte(encoded)
	// Flip the last payload character to a different valid charset letter.
	last := corrupted[len(corrupted)-1]
	for _, c := range Charset {
		if byte(c) != last {
			corrupted[len(corrupted)-1] = byte(c)
			break
		}
	}

	if _, _, err := Decode(string(corrupted), "bitcoincash"); err == nil {
		t.Fatalf("expected checksum verification to fail")
	}
}

func TestConvertBits8to5to8RoundTrip(t *testing.T) {
	original := []byte{0x00, 0xff, 0x80, 0x7f, 0x01, 0x10, 0x20, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, 0x55, 0x66, 0x77, 0x88, 0x01, 0x02}

	packed, err := ConvertBits(original, 8, 5, true)
	if err != nil {
		t.Fatalf("ConvertBits 8->5: unexpected error: %v", err)
	}
	unpacked, err := ConvertBits(packed, 5, 8, false)
	if err != nil {
		t.Fatalf("ConvertBits 5->8: unexpected error: %v", err)
	}
	if !bytes.Equal(unpacked, original) {
		t.Fatalf("round trip mismatch: got %x, want %x", unpacked, original)
	}
}

func TestConvertBitsRejectsOutOfRangeValue(t *testing.T) {
	if _, err := ConvertBits([]byte{32}, 5, 8, true); err == nil {
		t.Fatalf("expected error for a value exceeding 5 bits")
	}
}
