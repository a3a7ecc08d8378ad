// Copyright (c) 2021-2022 The bchnode developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cashaddr

import "golang.org/x/crypto/ripemd160" //lint:ignore SA1019 BCH address hashing requires this exact primitive

func ripemd160Sum(b []byte) []byte {
	h := ripemd160.New()
	h.Write(b)
	return h.Sum(nil)
}
