// Copyright 2021 The go-ethereum Authors
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
	"errors"

	"github.com/corevm/corevm/common"
	"github.com/corevm/corevm/common/math"
	"github.com/corevm/corevm/params"
)

// gasSLoadEIP2929 charges the cold or warm access cost for the slot.
// The slot is deliberately NOT marked warm here: the opcode handler still has
// to see the cold state to decide whether the read can be answered locally.
func gasSLoadEIP2929(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	loc := stack.peek()
	slot := common.Hash(loc.Bytes32())
	if !f.substate.SlotWarm(f.scope.Contract.Address, slot) {
		return params.ColdSloadCostEIP2929, nil
	}
	return params.WarmStorageReadCostEIP2929, nil
}

// gasAccountCheck returns a gas function charging the cold account access
// surcharge for the address on top of the stack. Like gasSLoadEIP2929
// it leaves the warmth marking to the party that resolves the access.
func gasAccountCheck(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	addr := common.Address(stack.peek().Bytes20())
	if !f.substate.AddressWarm(addr) {
		// The warm storage read cost is already charged as constantGas.
		return params.ColdAccountAccessCostEIP2929 - params.WarmStorageReadCostEIP2929, nil
	}
	return 0, nil
}

var (
	gasBalanceEIP2929     = gasAccountCheck
	gasExtCodeSizeEIP2929 = gasAccountCheck
	gasExtCodeHashEIP2929 = gasAccountCheck
)

func gasExtCodeCopyEIP2929(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	// memory expansion first (dynamic part of pre-2929 implementation)
	gas, err := gasExtCodeCopy(in, f, stack, mem, memorySize)
	if err != nil {
		return 0, err
	}
	addr := common.Address(stack.peek().Bytes20())
	if !f.substate.AddressWarm(addr) {
		var overflow bool
		if gas, overflow = math.SafeAdd(gas, params.ColdAccountAccessCostEIP2929-params.WarmStorageReadCostEIP2929); overflow {
			return 0, ErrGasUintOverflow
		}
	}
	return gas, nil
}

// makeCallVariantGasEIP2929 wraps the legacy call gas functions with the cold
// account surcharge. Unlike the query opcodes, the callee address is marked
// warm here: the subsequent sub-call executes against warm state regardless
// of how it resolves.
func makeCallVariantGasEIP2929(oldCalculator gasFunc) gasFunc {
	return func(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		addr := common.Address(stack.Back(1).Bytes20())
		warmAccess := f.substate.AddressWarm(addr)
		// The WarmStorageReadCostEIP2929 (100) is already deducted in the
		// form of a constant cost, so the cold path only needs to charge the
		// remainder.
		coldCost := params.ColdAccountAccessCostEIP2929 - params.WarmStorageReadCostEIP2929
		if !warmAccess {
			f.substate.MarkWarmAddress(addr)
			in.handler.MarkWarm(addr, nil)
			// Charge the remaining difference here already, to correctly
			// calculate available gas for call
			if !f.scope.Contract.UseGas(coldCost) {
				return 0, ErrOutOfGas
			}
		}
		// Now call the old calculator, which takes into account
		// - create new account
		// - transfer value
		// - memory expansion
		// - 63/64ths rule
		gas, err := oldCalculator(in, f, stack, mem, memorySize)
		if warmAccess || err != nil {
			return gas, err
		}
		// In case of a cold access, we temporarily add the cold charge back,
		// and also add it to the returned gas. By adding it to the return, it
		// will be charged outside of this function, as part of the dynamic
		// gas, and that guarantees the gas counter is kept consistent for
		// tracing.
		f.scope.Contract.Gas += coldCost

		var overflow bool
		if gas, overflow = math.SafeAdd(gas, coldCost); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasCallEIP2929         = makeCallVariantGasEIP2929(gasCall)
	gasCallCodeEIP2929     = makeCallVariantGasEIP2929(gasCallCode)
	gasDelegateCallEIP2929 = makeCallVariantGasEIP2929(gasDelegateCall)
	gasStaticCallEIP2929   = makeCallVariantGasEIP2929(gasStaticCall)
)

// makeSelfdestructGasEIP2929 builds the SELFDESTRUCT gas function with the
// cold beneficiary surcharge. refundsEnabled selects whether the legacy
// selfdestruct refund is still credited (dropped by the London rules).
func makeSelfdestructGasEIP2929(refundsEnabled bool) gasFunc {
	return func(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		var (
			gas         uint64
			beneficiary = common.Address(stack.peek().Bytes20())
			self        = f.scope.Contract.Address
		)
		if !f.substate.AddressWarm(beneficiary) {
			f.substate.MarkWarmAddress(beneficiary)
			in.handler.MarkWarm(beneficiary, nil)
			gas = params.ColdAccountAccessCostEIP2929
		}
		// if beneficiary needs to be created
		empty, err := in.handler.Empty(beneficiary)
		if err != nil {
			return 0, hostAbort(err)
		}
		if empty {
			balance, err := in.handler.Balance(self)
			if err != nil {
				return 0, hostAbort(err)
			}
			if !balance.IsZero() {
				gas += in.fork.CreateBySelfdestructGas
			}
		} else {
			exists, err := in.handler.Exists(beneficiary)
			if err != nil {
				return 0, hostAbort(err)
			}
			if !exists {
				gas += in.fork.CreateBySelfdestructGas
			}
		}
		if refundsEnabled && !f.substate.HasSelfdestructed(self) {
			f.substate.AddRefund(params.SelfdestructRefundGas)
		}
		return gas, nil
	}
}

// makeGasSStoreFunc builds the SSTORE gas function for the access-list rules:
// the EIP-2200 net metering schedule with warm/cold slot pricing layered on
// top. clearingRefund is the refund credited when a slot is cleared, which
// the London rules lowered from 15000 to 4800.
func makeGasSStoreFunc(clearingRefund uint64) gasFunc {
	return func(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		// If we fail the minimum gas availability invariant, fail (0)
		if f.scope.Contract.Gas <= params.SstoreSentryGasEIP2200 {
			return 0, errors.New("not enough gas for reentrancy sentry")
		}
		// Gas sentry honoured, do the actual gas calculation based on the stored value
		var (
			y, x = stack.Back(1), stack.peek()
			slot = common.Hash(x.Bytes32())
			addr = f.scope.Contract.Address
			cost = uint64(0)
		)
		// Check slot presence in the access list
		if !f.substate.SlotWarm(addr, slot) {
			cost = params.ColdSloadCostEIP2929
			f.substate.MarkWarmSlot(addr, slot)
			in.handler.MarkWarm(addr, &slot)
		}
		current, err := in.handler.Storage(addr, slot)
		if err != nil {
			return 0, hostAbort(err)
		}
		value := common.Hash(y.Bytes32())

		if current == value { // noop (1)
			// EIP 2200 original clause:
			//		return params.SloadGasEIP2200, nil
			return cost + params.WarmStorageReadCostEIP2929, nil // SLOAD_GAS
		}
		original, err := in.handler.OriginalStorage(addr, slot)
		if err != nil {
			return 0, hostAbort(err)
		}
		if original == current {
			if original == (common.Hash{}) { // create slot (2.1.1)
				return cost + params.SstoreSetGasEIP2200, nil
			}
			if value == (common.Hash{}) { // delete slot (2.1.2b)
				f.substate.AddRefund(clearingRefund)
			}
			// EIP-2200 original clause:
			//		return params.SstoreResetGasEIP2200, nil // write existing slot (2.1.2)
			return cost + (params.SstoreResetGasEIP2200 - params.ColdSloadCostEIP2929), nil // write existing slot (2.1.2)
		}
		if original != (common.Hash{}) {
			if current == (common.Hash{}) { // recreate slot (2.2.1.1)
				f.substate.SubRefund(clearingRefund)
			} else if value == (common.Hash{}) { // delete slot (2.2.1.2)
				f.substate.AddRefund(clearingRefund)
			}
		}
		if original == value {
			if original == (common.Hash{}) { // reset to original inexistent slot (2.2.2.1)
				// EIP 2200 Original clause:
				//		evm.StateDB.AddRefund(params.SstoreSetGasEIP2200 - params.SloadGasEIP2200)
				f.substate.AddRefund(params.SstoreSetGasEIP2200 - params.WarmStorageReadCostEIP2929)
			} else { // reset to original existing slot (2.2.2.2)
				// EIP 2200 Original clause:
				//	evm.StateDB.AddRefund(params.SstoreResetGasEIP2200 - params.SloadGasEIP2200)
				// Clarification:
				//   With SLOAD_GAS replaced by the warm read cost (100) and
				//   the cold slot cost (2100) taken out of the reset price,
				//   this becomes 5000 - 2100 - 100 = 2800.
				f.substate.AddRefund((params.SstoreResetGasEIP2200 - params.ColdSloadCostEIP2929) - params.WarmStorageReadCostEIP2929)
			}
		}
		// EIP-2200 original clause:
		//		return params.SloadGasEIP2200, nil // dirty update (2.2)
		return cost + params.WarmStorageReadCostEIP2929, nil // dirty update (2.2)
	}
}
