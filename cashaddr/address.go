// Copyright (c) 2021-2022 The bchnode developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cashaddr

// Network prefixes recognized by EncodeAddress/DecodeAddress.
const (
	PrefixMainNet = "bitcoincash"
	PrefixTestNet = "bchtest"
	PrefixRegNet  = "bchreg"
)

// EncodeAddress formats a 20-byte hash160 as a CashAddr string for the given
// network prefix and address type. This is the common case most callers
// want; Encode remains available for arbitrary hash sizes and prefixes.
func EncodeAddress(prefix string, typ AddressType, hash160 []byte) (string, error) {
	return Encode(prefix, Content{Type: typ, Hash: hash160})
}

// DecodeAddress parses addr, trying each of the known network prefixes in
// turn when addr omits its own "prefix:" part, and returns both the decoded
// content and the prefix it matched under.
func DecodeAddress(addr string) (string, Content, error) {
	for _, prefix := range []string{PrefixMainNet, PrefixTestNet, PrefixRegNet} {
		content, err := Decode(addr, prefix)
		if err == nil {
			return prefix, content, nil
		}
	}
	// Fall through to mainnet's error for the common case so a bad address
	// reports a single, consistent failure reason.
	_, err := Decode(addr, PrefixMainNet)
	return "", Content{}, err
}
