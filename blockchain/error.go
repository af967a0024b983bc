// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "fmt"

// ErrorCode identifies a specific kind of rule violation, mirroring the
// teacher's blockchain.ErrorCode / ruleError convention (originally in
// blockchain/validate.go, not part of this retrieved pack, but the same
// pattern recurs across the teacher's rule-checking code).
type ErrorCode int

const (
	ErrMissingParent ErrorCode = iota
	ErrDuplicateBlock
	ErrBadSequence
	ErrBadPreviousBlockHash
	ErrTimestampTooFarInFuture
	ErrTimestampTooOld
	ErrBadTarget
	ErrBadWork
	ErrNoTransactions
	ErrFirstTxNotCoinbase
	ErrMultipleCoinbase
	ErrBadNoteCommitmentRoot
	ErrBadTransactionCommitment
	ErrNullifierAlreadySpent
	ErrDuplicateNullifierInBlock
	ErrInvalidSpendProof
	ErrInvalidOutputProof
	ErrInvalidMintProof
	ErrInvalidBurnProof
	ErrInvalidBindingSignature
	ErrBadRetarget
	ErrBadReward
	ErrBelowCheckpoint
	ErrReorgTooDeep
	ErrTransactionExpired
	ErrAssetOwnerMismatch
	ErrUnknownAsset
	ErrAssetSupplyUnderflow
)

var errorCodeStrings = map[ErrorCode]string{
	ErrMissingParent:             "ErrMissingParent",
	ErrDuplicateBlock:            "ErrDuplicateBlock",
	ErrBadSequence:               "ErrBadSequence",
	ErrBadPreviousBlockHash:      "ErrBadPreviousBlockHash",
	ErrTimestampTooFarInFuture:   "ErrTimestampTooFarInFuture",
	ErrTimestampTooOld:           "ErrTimestampTooOld",
	ErrBadTarget:                 "ErrBadTarget",
	ErrBadWork:                   "ErrBadWork",
	ErrNoTransactions:            "ErrNoTransactions",
	ErrFirstTxNotCoinbase:        "ErrFirstTxNotCoinbase",
	ErrMultipleCoinbase:          "ErrMultipleCoinbase",
	ErrBadNoteCommitmentRoot:     "ErrBadNoteCommitmentRoot",
	ErrBadTransactionCommitment:  "ErrBadTransactionCommitment",
	ErrNullifierAlreadySpent:     "ErrNullifierAlreadySpent",
	ErrDuplicateNullifierInBlock: "ErrDuplicateNullifierInBlock",
	ErrInvalidSpendProof:         "ErrInvalidSpendProof",
	ErrInvalidOutputProof:        "ErrInvalidOutputProof",
	ErrInvalidMintProof:          "ErrInvalidMintProof",
	ErrInvalidBurnProof:          "ErrInvalidBurnProof",
	ErrInvalidBindingSignature:   "ErrInvalidBindingSignature",
	ErrBadRetarget:               "ErrBadRetarget",
	ErrBadReward:                 "ErrBadReward",
	ErrBelowCheckpoint:           "ErrBelowCheckpoint",
	ErrReorgTooDeep:              "ErrReorgTooDeep",
	ErrTransactionExpired:        "ErrTransactionExpired",
	ErrAssetOwnerMismatch:        "ErrAssetOwnerMismatch",
	ErrUnknownAsset:              "ErrUnknownAsset",
	ErrAssetSupplyUnderflow:      "ErrAssetSupplyUnderflow",
}

func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("ErrorCode(%d)", int(e))
}

// RuleError identifies a rule violation encountered while connecting a
// block. It implements the error interface.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

func (e RuleError) Error() string {
	return e.Description
}

func ruleError(code ErrorCode, description string) RuleError {
	return RuleError{ErrorCode: code, Description: description}
}

// IsRuleError reports whether err is a RuleError of the given code.
func IsRuleError(err error, code ErrorCode) bool {
	re, ok := err.(RuleError)
	return ok && re.ErrorCode == code
}
