// Copyright (c) 2021-2022 The bchnode developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package apbf implements an age-partitioned bloom filter: a ring of
// generations of ordinary bloom filters, rotated on a schedule so that
// membership naturally ages out instead of requiring an explicit delete.
// It backs transport.Manager's seen-recently filter (MarkSeen), which only
// needs to remember "have I seen this recently" for a bounded window, not
// forever.
package apbf

import (
	"hash/maphash"
	"math"
)

// Filter is an age-partitioned bloom filter over generations of
// fixed-size bit arrays. Insert always writes to the newest generation;
// Contains checks all live generations; Rotate retires the oldest
// generation and starts a fresh one, bounding memory and false-positive
// growth to a sliding window of Rotate calls instead of the filter's whole
// lifetime.
type Filter struct {
	seed        maphash.Seed
	numHashes   int
	bitsPerGen  int
	generations [][]uint64
	numGens     int
	newestGen   int
	populated   int // number of generations actually populated so far, <= numGens
}

// New builds a Filter with numGenerations generations, each sized to hold
// itemsPerGen items at the given falsePositiveRate.
func New(numGenerations, itemsPerGen int, falsePositiveRate float64) *Filter {
	if numGenerations < 1 {
		numGenerations = 1
	}
	if itemsPerGen < 1 {
		itemsPerGen = 1
	}

	m := optimalBits(itemsPerGen, falsePositiveRate)
	k := optimalHashCount(itemsPerGen, m)

	gens := make([][]uint64, numGenerations)
	for i := range gens {
		gens[i] = make([]uint64, (m+63)/64)
	}

	return &Filter{
		seed:        maphash.MakeSeed(),
		numHashes:   k,
		bitsPerGen:  m,
		generations: gens,
		numGens:     numGenerations,
		newestGen:   0,
		populated:   1,
	}
}

func optimalBits(n int, p float64) int {
	m := -float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)
	if m < 64 {
		m = 64
	}
	return int(m)
}

func optimalHashCount(n, m int) int {
	k := int(math.Round(float64(m) / float64(n) * math.Ln2))
	if k < 1 {
		k = 1
	}
	if k > 30 {
		k = 30
	}
	return k
}

// Insert adds item to the newest generation.
func (f *Filter) Insert(item []byte) {
	h1, h2 := f.hashPair(item)
	gen := f.generations[f.newestGen]
	for i := 0; i < f.numHashes; i++ {
		bit := (h1 + uint64(i)*h2) % uint64(f.bitsPerGen)
		gen[bit/64] |= 1 << (bit % 64)
	}
}

// Contains reports whether item may have been inserted into any currently
// live generation. Like any bloom filter, false positives are possible;
// false negatives are not, as long as the insert predates the generations
// that have since rotated out.
func (f *Filter) Contains(item []byte) bool {
	h1, h2 := f.hashPair(item)
	for g := 0; g < f.populated; g++ {
		idx := (f.newestGen - g + f.numGens) % f.numGens
		gen := f.generations[idx]
		found := true
		for i := 0; i < f.numHashes; i++ {
			bit := (h1 + uint64(i)*h2) % uint64(f.bitsPerGen)
			if gen[bit/64]&(1<<(bit%64)) == 0 {
				found = false
				break
			}
		}
		if found {
			return true
		}
	}
	return false
}

// Rotate advances to a new, empty generation, causing the oldest
// generation currently held to age out of Contains once numGenerations
// rotations have passed since an item was inserted.
func (f *Filter) Rotate() {
	f.newestGen = (f.newestGen + 1) % f.numGens
	gen := f.generations[f.newestGen]
	for i := range gen {
		gen[i] = 0
	}
	if f.populated < f.numGens {
		f.populated++
	}
}

func (f *Filter) hashPair(item []byte) (uint64, uint64) {
	var h1, h2 maphash.Hash
	h1.SetSeed(f.seed)
	h2.SetSeed(f.seed)
	h1.Write(item)
	h2.Write(item)
	h2.WriteByte(0xff) // perturb the second hash so h1 != h2
	return h1.Sum64(), h2.Sum64()
}
