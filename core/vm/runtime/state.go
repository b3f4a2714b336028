// Copyright 2015 The go-ethereum Authors
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

package runtime

import (
	"fmt"
	"sort"

	"github.com/corevm/corevm/common"
	"github.com/corevm/corevm/core/vm"
	"github.com/corevm/corevm/crypto"
	"github.com/holiman/uint256"
)

// PrecompiledContract is a native contract dispatched by address.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

// account is the in-memory representation of one address.
type account struct {
	nonce   uint64
	balance uint256.Int
	code    []byte
	storage map[common.Hash]common.Hash
}

type storageKey struct {
	addr common.Address
	slot common.Hash
}

// journalEntry undoes one state mutation.
type journalEntry interface {
	revert(*StateHandler)
}

type (
	createAccountChange struct{ addr common.Address }
	balanceChange       struct {
		addr common.Address
		prev uint256.Int
	}
	nonceChange struct {
		addr common.Address
		prev uint64
	}
	storageChange struct {
		addr common.Address
		slot common.Hash
		prev common.Hash
	}
	codeChange struct {
		addr common.Address
		prev []byte
	}
	transientChange struct {
		key  storageKey
		prev common.Hash
	}
	logEmitted         struct{}
	selfdestructChange struct{ addr common.Address }
)

func (c createAccountChange) revert(h *StateHandler) { delete(h.accounts, c.addr) }
func (c balanceChange) revert(h *StateHandler)       { h.accounts[c.addr].balance = c.prev }
func (c nonceChange) revert(h *StateHandler)         { h.accounts[c.addr].nonce = c.prev }
func (c storageChange) revert(h *StateHandler) {
	h.accounts[c.addr].storage[c.slot] = c.prev
}
func (c codeChange) revert(h *StateHandler) { h.accounts[c.addr].code = c.prev }
func (c transientChange) revert(h *StateHandler) {
	if c.prev == (common.Hash{}) {
		delete(h.transient, c.key)
	} else {
		h.transient[c.key] = c.prev
	}
}
func (logEmitted) revert(h *StateHandler) { h.logs = h.logs[:len(h.logs)-1] }
func (c selfdestructChange) revert(h *StateHandler) {
	h.selfdestructs = h.selfdestructs[:len(h.selfdestructs)-1]
	delete(h.destructed, c.addr)
}

type revision struct {
	id           int
	journalIndex int
}

// StateHandler is an in-memory vm.Handler backed by plain maps and an undo
// journal. It is what the package tests and standalone embedders run
// against; production hosts bring their own state.
//
// Checkpoints follow the snapshot/revert discipline: Checkpoint records the
// journal length, Revert replays the journal backwards to it, Commit merely
// retires the revision. It is not safe for concurrent use.
type StateHandler struct {
	accounts  map[common.Address]*account
	original  map[storageKey]common.Hash // value at transaction start, recorded on first write
	transient map[storageKey]common.Hash

	journal        []journalEntry
	validRevisions []revision
	nextRevisionID int

	logs          []*vm.Log
	selfdestructs []vm.SelfdestructRecord
	destructed    map[common.Address]struct{}

	accessedAddrs map[common.Address]struct{}
	accessedSlots map[storageKey]struct{}

	block       vm.BlockContext
	tx          vm.TxContext
	blockHashFn func(uint64) common.Hash
	precompiles map[common.Address]PrecompiledContract
}

// NewStateHandler returns an empty state.
func NewStateHandler() *StateHandler {
	return &StateHandler{
		accounts:      make(map[common.Address]*account),
		original:      make(map[storageKey]common.Hash),
		transient:     make(map[storageKey]common.Hash),
		destructed:    make(map[common.Address]struct{}),
		accessedAddrs: make(map[common.Address]struct{}),
		accessedSlots: make(map[storageKey]struct{}),
		precompiles:   make(map[common.Address]PrecompiledContract),
	}
}

func (h *StateHandler) getOrNewAccount(addr common.Address) *account {
	acc := h.accounts[addr]
	if acc == nil {
		acc = &account{storage: make(map[common.Hash]common.Hash)}
		h.accounts[addr] = acc
		h.journal = append(h.journal, createAccountChange{addr: addr})
	}
	return acc
}

// Seeding helpers for tests and embedders. These bypass the journal; use
// them only before execution starts.

// SetCode installs code at addr, creating the account if needed.
func (h *StateHandler) SetCode(addr common.Address, code []byte) {
	acc := h.accounts[addr]
	if acc == nil {
		acc = &account{storage: make(map[common.Hash]common.Hash)}
		h.accounts[addr] = acc
	}
	acc.code = code
}

// SetBalance sets the balance of addr, creating the account if needed.
func (h *StateHandler) SetBalance(addr common.Address, balance *uint256.Int) {
	acc := h.accounts[addr]
	if acc == nil {
		acc = &account{storage: make(map[common.Hash]common.Hash)}
		h.accounts[addr] = acc
	}
	acc.balance = *balance
}

// SetNonce sets the nonce of addr, creating the account if needed.
func (h *StateHandler) SetNonce(addr common.Address, nonce uint64) {
	acc := h.accounts[addr]
	if acc == nil {
		acc = &account{storage: make(map[common.Hash]common.Hash)}
		h.accounts[addr] = acc
	}
	acc.nonce = nonce
}

// SetState seeds one storage slot of addr.
func (h *StateHandler) SetState(addr common.Address, slot, value common.Hash) {
	acc := h.accounts[addr]
	if acc == nil {
		acc = &account{storage: make(map[common.Hash]common.Hash)}
		h.accounts[addr] = acc
	}
	acc.storage[slot] = value
}

// SetPrecompile installs a native contract at addr.
func (h *StateHandler) SetPrecompile(addr common.Address, p PrecompiledContract) {
	h.precompiles[addr] = p
}

// GetState reads one storage slot without any gas or warmth bookkeeping.
func (h *StateHandler) GetState(addr common.Address, slot common.Hash) common.Hash {
	if acc := h.accounts[addr]; acc != nil {
		return acc.storage[slot]
	}
	return common.Hash{}
}

// GetBalance reads the balance of addr.
func (h *StateHandler) GetBalance(addr common.Address) *uint256.Int {
	if acc := h.accounts[addr]; acc != nil {
		return new(uint256.Int).Set(&acc.balance)
	}
	return new(uint256.Int)
}

// GetNonce reads the nonce of addr.
func (h *StateHandler) GetNonce(addr common.Address) uint64 {
	if acc := h.accounts[addr]; acc != nil {
		return acc.nonce
	}
	return 0
}

// GetCode reads the code of addr.
func (h *StateHandler) GetCode(addr common.Address) []byte {
	if acc := h.accounts[addr]; acc != nil {
		return acc.code
	}
	return nil
}

// Logs returns the logs emitted so far, net of reverted frames.
func (h *StateHandler) Logs() []*vm.Log { return h.logs }

// Handler implementation.

func (h *StateHandler) Balance(addr common.Address) (*uint256.Int, error) {
	return h.GetBalance(addr), nil
}

func (h *StateHandler) Nonce(addr common.Address) (uint64, error) {
	return h.GetNonce(addr), nil
}

func (h *StateHandler) CodeSize(addr common.Address) (uint64, error) {
	return uint64(len(h.GetCode(addr))), nil
}

func (h *StateHandler) CodeHash(addr common.Address) (common.Hash, error) {
	acc := h.accounts[addr]
	if acc == nil {
		return common.Hash{}, nil
	}
	return crypto.Keccak256Hash(acc.code), nil
}

func (h *StateHandler) Code(addr common.Address) ([]byte, error) {
	return h.GetCode(addr), nil
}

func (h *StateHandler) Exists(addr common.Address) (bool, error) {
	_, ok := h.accounts[addr]
	return ok, nil
}

func (h *StateHandler) Empty(addr common.Address) (bool, error) {
	acc := h.accounts[addr]
	if acc == nil {
		return true, nil
	}
	return acc.nonce == 0 && acc.balance.IsZero() && len(acc.code) == 0, nil
}

func (h *StateHandler) Storage(addr common.Address, slot common.Hash) (common.Hash, error) {
	return h.GetState(addr, slot), nil
}

func (h *StateHandler) OriginalStorage(addr common.Address, slot common.Hash) (common.Hash, error) {
	if orig, ok := h.original[storageKey{addr: addr, slot: slot}]; ok {
		return orig, nil
	}
	return h.GetState(addr, slot), nil
}

func (h *StateHandler) TransientStorage(addr common.Address, slot common.Hash) common.Hash {
	return h.transient[storageKey{addr: addr, slot: slot}]
}

func (h *StateHandler) BlockHash(number uint64) (common.Hash, error) {
	if h.blockHashFn != nil {
		return h.blockHashFn(number), nil
	}
	return crypto.Keccak256Hash([]byte(fmt.Sprintf("%d", number))), nil
}

func (h *StateHandler) BlockContext() vm.BlockContext { return h.block }

func (h *StateHandler) TxContext() vm.TxContext { return h.tx }

func (h *StateHandler) SetStorage(addr common.Address, slot, value common.Hash) error {
	acc := h.getOrNewAccount(addr)
	prev := acc.storage[slot]
	key := storageKey{addr: addr, slot: slot}
	if _, ok := h.original[key]; !ok {
		h.original[key] = prev
	}
	h.journal = append(h.journal, storageChange{addr: addr, slot: slot, prev: prev})
	acc.storage[slot] = value
	return nil
}

func (h *StateHandler) SetTransientStorage(addr common.Address, slot, value common.Hash) {
	key := storageKey{addr: addr, slot: slot}
	h.journal = append(h.journal, transientChange{key: key, prev: h.transient[key]})
	if value == (common.Hash{}) {
		delete(h.transient, key)
	} else {
		h.transient[key] = value
	}
}

func (h *StateHandler) CreateAccount(addr common.Address) error {
	h.getOrNewAccount(addr)
	return nil
}

func (h *StateHandler) Transfer(from, to common.Address, value *uint256.Int) error {
	sender := h.getOrNewAccount(from)
	if sender.balance.Cmp(value) < 0 {
		return vm.ErrInsufficientBalance
	}
	receiver := h.getOrNewAccount(to)
	h.journal = append(h.journal,
		balanceChange{addr: from, prev: sender.balance},
		balanceChange{addr: to, prev: receiver.balance},
	)
	sender.balance.Sub(&sender.balance, value)
	receiver.balance.Add(&receiver.balance, value)
	return nil
}

func (h *StateHandler) IncrementNonce(addr common.Address) error {
	acc := h.getOrNewAccount(addr)
	h.journal = append(h.journal, nonceChange{addr: addr, prev: acc.nonce})
	acc.nonce++
	return nil
}

func (h *StateHandler) DepositCode(addr common.Address, code []byte) error {
	acc := h.getOrNewAccount(addr)
	h.journal = append(h.journal, codeChange{addr: addr, prev: acc.code})
	acc.code = code
	return nil
}

func (h *StateHandler) EmitLog(log *vm.Log) {
	h.journal = append(h.journal, logEmitted{})
	h.logs = append(h.logs, log)
}

func (h *StateHandler) MarkSelfdestruct(addr, beneficiary common.Address) error {
	if _, ok := h.destructed[addr]; ok {
		return nil
	}
	h.destructed[addr] = struct{}{}
	h.journal = append(h.journal, selfdestructChange{addr: addr})
	h.selfdestructs = append(h.selfdestructs, vm.SelfdestructRecord{Address: addr, Beneficiary: beneficiary})
	return nil
}

func (h *StateHandler) MarkWarm(addr common.Address, slot *common.Hash) {
	if slot == nil {
		h.accessedAddrs[addr] = struct{}{}
		return
	}
	h.accessedSlots[storageKey{addr: addr, slot: *slot}] = struct{}{}
}

// AddressAccessed reports whether addr was ever reported warm.
func (h *StateHandler) AddressAccessed(addr common.Address) bool {
	_, ok := h.accessedAddrs[addr]
	return ok
}

// SlotAccessed reports whether (addr, slot) was ever reported warm.
func (h *StateHandler) SlotAccessed(addr common.Address, slot common.Hash) bool {
	_, ok := h.accessedSlots[storageKey{addr: addr, slot: slot}]
	return ok
}

func (h *StateHandler) Checkpoint() int {
	id := h.nextRevisionID
	h.nextRevisionID++
	h.validRevisions = append(h.validRevisions, revision{id: id, journalIndex: len(h.journal)})
	return id
}

func (h *StateHandler) Commit(id int) {
	idx := h.findRevision(id)
	// Keep the journal so an outer Revert still undoes the committed
	// mutations; only the revision itself retires.
	h.validRevisions = h.validRevisions[:idx]
}

func (h *StateHandler) Revert(id int) {
	idx := h.findRevision(id)
	snapshot := h.validRevisions[idx].journalIndex
	for i := len(h.journal) - 1; i >= snapshot; i-- {
		h.journal[i].revert(h)
	}
	h.journal = h.journal[:snapshot]
	h.validRevisions = h.validRevisions[:idx]
}

func (h *StateHandler) findRevision(id int) int {
	idx := sort.Search(len(h.validRevisions), func(i int) bool {
		return h.validRevisions[i].id >= id
	})
	if idx == len(h.validRevisions) || h.validRevisions[idx].id != id {
		panic(fmt.Errorf("revision id %v cannot be reverted", id))
	}
	return idx
}

func (h *StateHandler) RunPrecompile(addr common.Address, input []byte, gas uint64) (*vm.PrecompileResult, bool) {
	p, ok := h.precompiles[addr]
	if !ok {
		return nil, false
	}
	cost := p.RequiredGas(input)
	if cost > gas {
		return &vm.PrecompileResult{GasCost: cost}, true
	}
	output, err := p.Run(input)
	return &vm.PrecompileResult{Output: output, GasCost: cost, Success: err == nil}, true
}

// Finalise applies the selfdestruct queue of a successful execution: the
// recorded accounts are deleted. Call it once per transaction, after the
// result has been inspected.
func (h *StateHandler) Finalise(records []vm.SelfdestructRecord) {
	for _, rec := range records {
		delete(h.accounts, rec.Address)
	}
	h.journal = h.journal[:0]
	h.validRevisions = h.validRevisions[:0]
	h.original = make(map[storageKey]common.Hash)
	h.transient = make(map[storageKey]common.Hash)
	h.destructed = make(map[common.Address]struct{})
}
