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
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/corevm/corevm/common"
)

// Log is a contract event emitted by one of the LOG opcodes.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// SelfdestructRecord remembers one SELFDESTRUCT in enqueue order.
type SelfdestructRecord struct {
	Address     common.Address
	Beneficiary common.Address
}

// slotKey addresses one storage slot for the warm-slot set.
type slotKey struct {
	addr common.Address
	slot common.Hash
}

// Substate accumulates the side effects of one frame: ordered logs, the
// selfdestruct queue, the warm address/slot sets and the refund counter.
// Substates form a chain mirroring the frame stack; lookups consult the whole
// chain, mutations only the top. On a successful child exit the child substate
// merges into its parent, on failure it is dropped as a unit.
type Substate struct {
	parent *Substate

	logs          []*Log
	selfdestructs []SelfdestructRecord
	destructed    mapset.Set[common.Address]
	created       mapset.Set[common.Address]
	warmAddrs     mapset.Set[common.Address]
	warmSlots     mapset.Set[slotKey]

	// refund is this frame's delta against the transaction-wide counter.
	// It may go negative when a frame undoes a refund granted higher up.
	refund int64
}

func newSubstate(parent *Substate) *Substate {
	return &Substate{
		parent:     parent,
		destructed: mapset.NewThreadUnsafeSet[common.Address](),
		created:    mapset.NewThreadUnsafeSet[common.Address](),
		warmAddrs:  mapset.NewThreadUnsafeSet[common.Address](),
		warmSlots:  mapset.NewThreadUnsafeSet[slotKey](),
	}
}

// AddLog appends a log record.
func (s *Substate) AddLog(l *Log) {
	s.logs = append(s.logs, l)
}

// AddRefund credits the refund counter.
func (s *Substate) AddRefund(gas uint64) {
	s.refund += int64(gas)
}

// SubRefund debits the refund counter. The debit may exceed this frame's own
// credits when it cancels a refund granted by an outer frame.
func (s *Substate) SubRefund(gas uint64) {
	s.refund -= int64(gas)
}

// Refund returns the effective refund along the substate chain, floored at
// zero.
func (s *Substate) Refund() uint64 {
	var total int64
	for cur := s; cur != nil; cur = cur.parent {
		total += cur.refund
	}
	if total < 0 {
		return 0
	}
	return uint64(total)
}

// MarkSelfdestruct enqueues a destruction record unless the account is
// already scheduled.
func (s *Substate) MarkSelfdestruct(addr, beneficiary common.Address) {
	if s.HasSelfdestructed(addr) {
		return
	}
	s.destructed.Add(addr)
	s.selfdestructs = append(s.selfdestructs, SelfdestructRecord{Address: addr, Beneficiary: beneficiary})
}

// HasSelfdestructed reports whether addr is scheduled for destruction.
func (s *Substate) HasSelfdestructed(addr common.Address) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.destructed.Contains(addr) {
			return true
		}
	}
	return false
}

// MarkCreated records that addr was brought into existence during this
// transaction.
func (s *Substate) MarkCreated(addr common.Address) {
	s.created.Add(addr)
}

// WasCreated reports whether addr came into existence during this
// transaction.
func (s *Substate) WasCreated(addr common.Address) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.created.Contains(addr) {
			return true
		}
	}
	return false
}

// MarkWarmAddress adds addr to the warm set.
func (s *Substate) MarkWarmAddress(addr common.Address) {
	s.warmAddrs.Add(addr)
}

// AddressWarm reports whether addr has been accessed in this transaction.
func (s *Substate) AddressWarm(addr common.Address) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.warmAddrs.Contains(addr) {
			return true
		}
	}
	return false
}

// MarkWarmSlot adds (addr, slot) to the warm set.
func (s *Substate) MarkWarmSlot(addr common.Address, slot common.Hash) {
	s.warmSlots.Add(slotKey{addr: addr, slot: slot})
}

// SlotWarm reports whether (addr, slot) has been accessed in this
// transaction.
func (s *Substate) SlotWarm(addr common.Address, slot common.Hash) bool {
	key := slotKey{addr: addr, slot: slot}
	for cur := s; cur != nil; cur = cur.parent {
		if cur.warmSlots.Contains(key) {
			return true
		}
	}
	return false
}

// Logs returns the log records accumulated so far, in emission order.
func (s *Substate) Logs() []*Log {
	return s.logs
}

// Selfdestructs returns the destruction queue in enqueue order.
func (s *Substate) Selfdestructs() []SelfdestructRecord {
	return s.selfdestructs
}

// merge folds a successful child substate into its parent.
func (s *Substate) merge(child *Substate) {
	s.logs = append(s.logs, child.logs...)
	s.selfdestructs = append(s.selfdestructs, child.selfdestructs...)
	s.destructed = s.destructed.Union(child.destructed)
	s.created = s.created.Union(child.created)
	s.warmAddrs = s.warmAddrs.Union(child.warmAddrs)
	s.warmSlots = s.warmSlots.Union(child.warmSlots)
	s.refund += child.refund
}
