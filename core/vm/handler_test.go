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
	"github.com/corevm/corevm/crypto"
	"github.com/holiman/uint256"
)

// hostStub is a minimal map-backed Handler for interpreter and executor
// tests. It does not journal; tests that need revert semantics use the
// runtime package's state instead.
type hostStub struct {
	balances map[common.Address]uint256.Int
	nonces   map[common.Address]uint64
	codes    map[common.Address][]byte
	storage  map[common.Address]map[common.Hash]common.Hash
	trans    map[common.Address]map[common.Hash]common.Hash
	logs     []*Log

	block BlockContext
	tx    TxContext

	nextCheckpoint int
}

func newHostStub() *hostStub {
	return &hostStub{
		balances: make(map[common.Address]uint256.Int),
		nonces:   make(map[common.Address]uint64),
		codes:    make(map[common.Address][]byte),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		trans:    make(map[common.Address]map[common.Hash]common.Hash),
	}
}

func (h *hostStub) Balance(addr common.Address) (*uint256.Int, error) {
	b := h.balances[addr]
	return new(uint256.Int).Set(&b), nil
}

func (h *hostStub) Nonce(addr common.Address) (uint64, error) { return h.nonces[addr], nil }

func (h *hostStub) CodeSize(addr common.Address) (uint64, error) {
	return uint64(len(h.codes[addr])), nil
}

func (h *hostStub) CodeHash(addr common.Address) (common.Hash, error) {
	code, ok := h.codes[addr]
	if !ok {
		return common.Hash{}, nil
	}
	return crypto.Keccak256Hash(code), nil
}

func (h *hostStub) Code(addr common.Address) ([]byte, error) { return h.codes[addr], nil }

func (h *hostStub) Exists(addr common.Address) (bool, error) {
	if _, ok := h.codes[addr]; ok {
		return true, nil
	}
	if _, ok := h.balances[addr]; ok {
		return true, nil
	}
	_, ok := h.nonces[addr]
	return ok, nil
}

func (h *hostStub) Empty(addr common.Address) (bool, error) {
	b := h.balances[addr]
	return h.nonces[addr] == 0 && b.IsZero() && len(h.codes[addr]) == 0, nil
}

func (h *hostStub) Storage(addr common.Address, slot common.Hash) (common.Hash, error) {
	return h.storage[addr][slot], nil
}

func (h *hostStub) OriginalStorage(addr common.Address, slot common.Hash) (common.Hash, error) {
	return h.storage[addr][slot], nil
}

func (h *hostStub) TransientStorage(addr common.Address, slot common.Hash) common.Hash {
	return h.trans[addr][slot]
}

func (h *hostStub) BlockHash(number uint64) (common.Hash, error) {
	return crypto.Keccak256Hash(common.LeftPadBytes(new(uint256.Int).SetUint64(number).Bytes(), 8)), nil
}

func (h *hostStub) BlockContext() BlockContext { return h.block }
func (h *hostStub) TxContext() TxContext       { return h.tx }

func (h *hostStub) SetStorage(addr common.Address, slot, value common.Hash) error {
	m := h.storage[addr]
	if m == nil {
		m = make(map[common.Hash]common.Hash)
		h.storage[addr] = m
	}
	m[slot] = value
	return nil
}

func (h *hostStub) SetTransientStorage(addr common.Address, slot, value common.Hash) {
	m := h.trans[addr]
	if m == nil {
		m = make(map[common.Hash]common.Hash)
		h.trans[addr] = m
	}
	m[slot] = value
}

func (h *hostStub) CreateAccount(addr common.Address) error {
	if _, ok := h.nonces[addr]; !ok {
		h.nonces[addr] = 0
	}
	return nil
}

func (h *hostStub) Transfer(from, to common.Address, value *uint256.Int) error {
	fb := h.balances[from]
	if fb.Cmp(value) < 0 {
		return ErrInsufficientBalance
	}
	tb := h.balances[to]
	fb.Sub(&fb, value)
	tb.Add(&tb, value)
	h.balances[from] = fb
	h.balances[to] = tb
	return nil
}

func (h *hostStub) IncrementNonce(addr common.Address) error {
	h.nonces[addr]++
	return nil
}

func (h *hostStub) DepositCode(addr common.Address, code []byte) error {
	h.codes[addr] = code
	return nil
}

func (h *hostStub) EmitLog(log *Log) { h.logs = append(h.logs, log) }

func (h *hostStub) MarkSelfdestruct(addr, beneficiary common.Address) error { return nil }

func (h *hostStub) MarkWarm(addr common.Address, slot *common.Hash) {}

func (h *hostStub) Checkpoint() int {
	id := h.nextCheckpoint
	h.nextCheckpoint++
	return id
}

func (h *hostStub) Commit(id int) {}
func (h *hostStub) Revert(id int) {}

func (h *hostStub) RunPrecompile(addr common.Address, input []byte, gas uint64) (*PrecompileResult, bool) {
	return nil, false
}
