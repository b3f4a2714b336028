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

// BlockContext provides the block-level values visible to contract code.
type BlockContext struct {
	Coinbase    common.Address
	Number      uint64
	Timestamp   uint64
	Difficulty  uint256.Int // pre-merge difficulty
	Random      common.Hash // post-merge PREVRANDAO
	GasLimit    uint64
	BaseFee     uint256.Int
	BlobBaseFee uint256.Int
}

// TxContext provides the transaction-level values visible to contract code.
type TxContext struct {
	Origin     common.Address
	GasPrice   uint256.Int
	BlobHashes []common.Hash
}

// PrecompileResult is the outcome of a native contract invocation.
type PrecompileResult struct {
	Output  []byte
	GasCost uint64
	Success bool
}

// Handler is the host's side of the execution: account and storage access,
// block context, journaling control and precompile dispatch. The handler is
// shared by every frame of one execution; its checkpoint stack mirrors the
// frame stack.
//
// Read methods may return an error to refuse the request; any such error
// aborts the whole call tree as a fatal exit. Every such error is wrapped in
// ErrHostAbort and reported as a host abort, with the original error's text
// kept in the message.
type Handler interface {
	// Account reads.
	Balance(addr common.Address) (*uint256.Int, error)
	Nonce(addr common.Address) (uint64, error)
	CodeSize(addr common.Address) (uint64, error)
	CodeHash(addr common.Address) (common.Hash, error)
	Code(addr common.Address) ([]byte, error)
	Exists(addr common.Address) (bool, error)
	Empty(addr common.Address) (bool, error)

	// Storage reads. OriginalStorage returns the value as of the start of
	// the transaction, needed by the net gas metering rules.
	Storage(addr common.Address, slot common.Hash) (common.Hash, error)
	OriginalStorage(addr common.Address, slot common.Hash) (common.Hash, error)
	TransientStorage(addr common.Address, slot common.Hash) common.Hash

	// Environment.
	BlockHash(number uint64) (common.Hash, error)
	BlockContext() BlockContext
	TxContext() TxContext

	// Mutations. All of them must be undoable via the checkpoint protocol.
	SetStorage(addr common.Address, slot, value common.Hash) error
	SetTransientStorage(addr common.Address, slot, value common.Hash)
	CreateAccount(addr common.Address) error
	Transfer(from, to common.Address, value *uint256.Int) error
	IncrementNonce(addr common.Address) error
	DepositCode(addr common.Address, code []byte) error
	EmitLog(log *Log)
	MarkSelfdestruct(addr, beneficiary common.Address) error

	// MarkWarm tells the handler an address (slot == nil) or a storage slot
	// was charged the cold access cost. Warmth for gas pricing is tracked by
	// the core itself; this is a notification for hosts that maintain their
	// own access lists.
	MarkWarm(addr common.Address, slot *common.Hash)

	// Checkpoint protocol. Checkpoint returns an identifier that a later
	// Commit or Revert consumes. Checkpoints nest to the call depth limit.
	Checkpoint() int
	Commit(id int)
	Revert(id int)

	// RunPrecompile executes the native contract at addr, if there is one.
	// The second return value reports whether addr is a precompile at all.
	RunPrecompile(addr common.Address, input []byte, gas uint64) (*PrecompileResult, bool)
}
