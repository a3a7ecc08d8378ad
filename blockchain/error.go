// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "fmt"

// ErrorCode identifies a kind of error the validation engine can return.
type ErrorCode int

// Recognized error codes.
const (
	ErrMissingParent ErrorCode = iota
	ErrBadMerkleRoot
	ErrUnexpectedDifficulty
	ErrHighHash
	ErrNoTransactions
	ErrBadCoinbaseScriptLen
	ErrFirstTxNotCoinbase
	ErrMultipleCoinbases
	ErrDuplicateTx
	ErrImmatureSpend
	ErrSpendTooHigh
	ErrBadFees
	ErrTooManySigOps
	ErrMissingTxOut
	ErrDoubleSpend
	ErrBlockTooBig
	ErrBlockVersionTooOld
	ErrInvalidTime
	ErrTimeTooOld
	ErrTimeTooNew
	ErrScriptValidation
)

var errorCodeNames = map[ErrorCode]string{
	ErrMissingParent:        "ErrMissingParent",
	ErrBadMerkleRoot:        "ErrBadMerkleRoot",
	ErrUnexpectedDifficulty: "ErrUnexpectedDifficulty",
	ErrHighHash:             "ErrHighHash",
	ErrNoTransactions:       "ErrNoTransactions",
	ErrBadCoinbaseScriptLen: "ErrBadCoinbaseScriptLen",
	ErrFirstTxNotCoinbase:   "ErrFirstTxNotCoinbase",
	ErrMultipleCoinbases:    "ErrMultipleCoinbases",
	ErrDuplicateTx:          "ErrDuplicateTx",
	ErrImmatureSpend:        "ErrImmatureSpend",
	ErrSpendTooHigh:         "ErrSpendTooHigh",
	ErrBadFees:              "ErrBadFees",
	ErrTooManySigOps:        "ErrTooManySigOps",
	ErrMissingTxOut:         "ErrMissingTxOut",
	ErrDoubleSpend:          "ErrDoubleSpend",
	ErrBlockTooBig:          "ErrBlockTooBig",
	ErrBlockVersionTooOld:   "ErrBlockVersionTooOld",
	ErrInvalidTime:          "ErrInvalidTime",
	ErrTimeTooOld:           "ErrTimeTooOld",
	ErrTimeTooNew:           "ErrTimeTooNew",
	ErrScriptValidation:     "ErrScriptValidation",
}

func (e ErrorCode) String() string {
	if name, ok := errorCodeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(e))
}

// RuleError identifies a block or transaction that violates a consensus
// rule. CorruptionPossible distinguishes a violation that could only arise
// from a misbehaving peer sending deliberately invalid data (candidate for
// banning) from one that could arise from, e.g., a reorg racing validation.
type RuleError struct {
	ErrorCode          ErrorCode
	Description        string
	CorruptionPossible bool
}

func (e RuleError) Error() string {
	return e.Description
}

func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// AssertError identifies an internal code invariant violation — a bug, not
// a consensus-rule violation — and is meant to be recovered by a top-level
// handler that shuts the process down in an orderly fashion rather than
// continue operating on inconsistent state.
type AssertError string

func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}
