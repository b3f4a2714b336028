// Copyright 2023 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"github.com/corevm/corevm/common"
	"github.com/holiman/uint256"
)

// InterruptKind discriminates the requests a suspended frame can carry.
type InterruptKind byte

const (
	// InterruptCall asks the executor to run a sub-call or a contract
	// creation and deliver its result.
	InterruptCall InterruptKind = iota + 1
	// InterruptQuery asks the executor to resolve a piece of external state.
	InterruptQuery
)

// Interrupt is the request a frame parks on when an opcode cannot complete
// without the executor. The program counter still points at the suspending
// opcode; Resume completes the opcode and advances past it.
type Interrupt struct {
	Kind  InterruptKind
	Call  *CallRequest
	Query *StateQuery
}

// CallScheme distinguishes the opcodes that spawn a child frame.
type CallScheme byte

const (
	SchemeCall CallScheme = iota
	SchemeCallCode
	SchemeDelegateCall
	SchemeStaticCall
	SchemeCreate
	SchemeCreate2
)

func (s CallScheme) String() string {
	switch s {
	case SchemeCall:
		return "CALL"
	case SchemeCallCode:
		return "CALLCODE"
	case SchemeDelegateCall:
		return "DELEGATECALL"
	case SchemeStaticCall:
		return "STATICCALL"
	case SchemeCreate:
		return "CREATE"
	case SchemeCreate2:
		return "CREATE2"
	}
	return "UNKNOWN"
}

// IsCreate reports whether the scheme spawns a contract creation frame.
func (s CallScheme) IsCreate() bool {
	return s == SchemeCreate || s == SchemeCreate2
}

// CallRequest carries the parameters of a suspended call opcode. Gas is the
// amount already carved out of the caller (63/64 rule applied, value stipend
// included); the caller's own gas counter no longer includes it.
type CallRequest struct {
	Scheme CallScheme
	Target common.Address // callee (unused for creations)
	Value  uint256.Int
	Input  []byte // calldata, or init code for creations
	Gas    uint64
	Salt   uint256.Int // CREATE2 only

	// Return-data landing zone in the caller's memory.
	RetOffset uint64
	RetSize   uint64
}

// QueryKind enumerates the external state reads that suspend a frame.
type QueryKind byte

const (
	QueryBalance QueryKind = iota + 1
	QueryStorage
	QueryCodeSize
	QueryCodeHash
	QueryCode
	QueryBlockHash
)

func (k QueryKind) String() string {
	switch k {
	case QueryBalance:
		return "balance"
	case QueryStorage:
		return "storage"
	case QueryCodeSize:
		return "codesize"
	case QueryCodeHash:
		return "codehash"
	case QueryCode:
		return "code"
	case QueryBlockHash:
		return "blockhash"
	}
	return "unknown"
}

// StateQuery identifies a single piece of external state.
type StateQuery struct {
	Kind        QueryKind
	Address     common.Address
	Slot        common.Hash // QueryStorage
	BlockNumber uint64      // QueryBlockHash
}

// QueryResult is the executor's answer to a StateQuery. Word carries every
// fixed-size answer; Code carries the raw bytecode for QueryCode.
type QueryResult struct {
	Word uint256.Int
	Code []byte
}

// CallResult is the executor's answer to a CallRequest.
type CallResult struct {
	Success        bool
	ReturnData     []byte // revert data on failure, return data on success
	GasLeft        uint64 // unused gas credited back to the caller
	CreatedAddress common.Address
}

// ResumeValue delivers exactly one of the two result kinds into a suspended
// frame. Resuming with the wrong kind is an unhandled interrupt and aborts
// the execution.
type ResumeValue struct {
	Query *QueryResult
	Call  *CallResult
}
