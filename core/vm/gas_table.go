// Copyright 2017 The go-ethereum Authors
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
	"fmt"

	"github.com/corevm/corevm/common"
	"github.com/corevm/corevm/common/math"
	"github.com/corevm/corevm/params"
)

// hostAbort wraps a handler failure so the interpreter classifies it as a
// fatal exit rather than an exceptional halt.
func hostAbort(err error) error {
	return fmt.Errorf("%w: %v", ErrHostAbort, err)
}

// memoryGasCost calculates the quadratic gas for memory expansion. It does so
// only for the memory region that is expanded, not the total memory.
func memoryGasCost(mem *Memory, newMemSize uint64) (uint64, error) {
	if newMemSize == 0 {
		return 0, nil
	}
	// The maximum that will fit in a uint64 is max_word_count - 1. Anything above
	// that will result in an overflow. Additionally, a newMemSize which results in
	// a newMemSizeWords larger than 0xFFFFFFFF will cause the square operation to
	// overflow. The constant 0x1FFFFFFFE0 is the highest number that can be used
	// without overflowing the gas calculation.
	if newMemSize > 0x1FFFFFFFE0 {
		return 0, ErrGasUintOverflow
	}
	newMemSizeWords := toWordSize(newMemSize)
	newMemSize = newMemSizeWords * 32

	if newMemSize > uint64(mem.Len()) {
		square := newMemSizeWords * newMemSizeWords
		linCoef := newMemSizeWords * params.MemoryGas
		quadCoef := square / params.QuadCoeffDiv
		newTotalFee := linCoef + quadCoef

		fee := newTotalFee - mem.lastGasCost
		mem.lastGasCost = newTotalFee

		return fee, nil
	}
	return 0, nil
}

// memoryCopierGas creates the gas functions for the following opcodes, and
// takes the stack position of the operand which determines the size of the data
// to copy as argument:
// CALLDATACOPY (stack position 2)
// CODECOPY (stack position 2)
// MCOPY (stack position 2)
// EXTCODECOPY (stack position 3)
// RETURNDATACOPY (stack position 2)
func memoryCopierGas(stackpos int) gasFunc {
	return func(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		// Gas for expanding the memory
		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}
		// And gas for copying data, charged per word at param.CopyGas
		words, overflow := stack.Back(stackpos).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		if words, overflow = math.SafeMul(toWordSize(words), params.CopyGas); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, words); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasCallDataCopy   = memoryCopierGas(2)
	gasCodeCopy       = memoryCopierGas(2)
	gasMcopy          = memoryCopierGas(2)
	gasExtCodeCopy    = memoryCopierGas(3)
	gasReturnDataCopy = memoryCopierGas(2)
)

// gasSStore implements the pre-net-metering SSTORE pricing:
//
// 1. From a zero-value slot to a non-zero value (NEW VALUE)
// 2. From a non-zero value to a zero-value slot (DELETE)
// 3. From a non-zero to a non-zero (CHANGE)
func gasSStore(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	x, y := stack.Back(0), stack.Back(1)
	current, err := in.handler.Storage(f.scope.Contract.Address, common.Hash(x.Bytes32()))
	if err != nil {
		return 0, hostAbort(err)
	}
	switch {
	case current == (common.Hash{}) && !y.IsZero(): // 0 => non 0
		return params.SstoreSetGas, nil
	case current != (common.Hash{}) && y.IsZero(): // non 0 => 0
		f.substate.AddRefund(params.SstoreRefundGas)
		return params.SstoreClearGas, nil
	default: // non 0 => non 0 (or 0 => 0)
		return params.SstoreResetGas, nil
	}
}

// gasSStoreNetMetered implements the original/current/new tri-state pricing:
//
//  1. If current value equals new value (this is a no-op), 200 gas is deducted.
//  2. If current value does not equal new value:
//     2.1. If original value equals current value (this storage slot has not
//     been changed by the current execution context):
//     2.1.1. If original value is 0, 20000 gas is deducted.
//     2.1.2. Otherwise, 5000 gas is deducted. If new value is 0, add 15000 gas
//     to refund counter.
//     2.2. If original value does not equal current value (this storage slot is
//     dirty), 200 gas is deducted. Apply both of the following clauses:
//     2.2.1. If original value is not 0:
//     2.2.1.1. If current value is 0 (also means that new value is not 0),
//     remove 15000 gas from refund counter.
//     2.2.1.2. If new value is 0 (also means that current value is not 0), add
//     15000 gas to refund counter.
//     2.2.2. If original value equals new value (this storage slot is reset):
//     2.2.2.1. If original value is 0, add 19800 gas to refund counter.
//     2.2.2.2. Otherwise, add 4800 gas to refund counter.
func gasSStoreNetMetered(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	// The reentrancy sentry makes the net metering rules safe to apply in the
	// presence of low-gas reentrant calls.
	if in.fork.HasEIP2200 && f.scope.Contract.Gas <= params.SstoreSentryGasEIP2200 {
		return 0, errors.New("not enough gas for reentrancy sentry")
	}
	var (
		x, y    = stack.Back(0), stack.Back(1)
		slot    = common.Hash(x.Bytes32())
		addr    = f.scope.Contract.Address
	)
	current, err := in.handler.Storage(addr, slot)
	if err != nil {
		return 0, hostAbort(err)
	}
	value := common.Hash(y.Bytes32())
	if current == value { // noop (1)
		return params.NetSstoreNoopGas, nil
	}
	original, err := in.handler.OriginalStorage(addr, slot)
	if err != nil {
		return 0, hostAbort(err)
	}
	if original == current {
		if original == (common.Hash{}) { // create slot (2.1.1)
			return params.NetSstoreInitGas, nil
		}
		if value == (common.Hash{}) { // delete slot (2.1.2)
			f.substate.AddRefund(params.NetSstoreClearRefund)
		}
		return params.NetSstoreCleanGas, nil // write existing slot (2.1.2)
	}
	if original != (common.Hash{}) {
		if current == (common.Hash{}) { // recreate slot (2.2.1.1)
			f.substate.SubRefund(params.NetSstoreClearRefund)
		} else if value == (common.Hash{}) { // delete slot (2.2.1.2)
			f.substate.AddRefund(params.NetSstoreClearRefund)
		}
	}
	if original == value {
		if original == (common.Hash{}) { // reset to original inexistent slot (2.2.2.1)
			f.substate.AddRefund(params.NetSstoreResetClearRefund)
		} else { // reset to original existing slot (2.2.2.2)
			f.substate.AddRefund(params.NetSstoreResetRefund)
		}
	}
	return params.NetSstoreDirtyGas, nil
}

func makeGasLog(n uint64) gasFunc {
	return func(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		requestedSize, overflow := stack.Back(1).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}

		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}

		if gas, overflow = math.SafeAdd(gas, params.LogGas); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, n*params.LogTopicGas); overflow {
			return 0, ErrGasUintOverflow
		}

		var memorySizeGas uint64
		if memorySizeGas, overflow = math.SafeMul(requestedSize, params.LogDataGas); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, memorySizeGas); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

func gasKeccak256(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	wordGas, overflow := stack.Back(1).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if wordGas, overflow = math.SafeMul(toWordSize(wordGas), params.Keccak256WordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	if gas, overflow = math.SafeAdd(gas, wordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// pureMemoryGascost is used by several operations, which aside from their
// static cost have a dynamic cost which is solely based on the memory
// expansion
func pureMemoryGascost(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return memoryGasCost(mem, memorySize)
}

var (
	gasReturn  = pureMemoryGascost
	gasRevert  = pureMemoryGascost
	gasMLoad   = pureMemoryGascost
	gasMStore8 = pureMemoryGascost
	gasMStore  = pureMemoryGascost
	gasCreate  = pureMemoryGascost
)

func gasCreate2(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	wordGas, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if wordGas, overflow = math.SafeMul(toWordSize(wordGas), params.Keccak256WordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	if gas, overflow = math.SafeAdd(gas, wordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCreateEip3860(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if size > in.fork.MaxInitCodeSize {
		return 0, ErrMaxInitCodeSizeExceeded
	}
	// Since size <= MaxInitCodeSize, these multiplication cannot overflow
	moreGas := params.InitCodeWordGas * ((size + 31) / 32)
	if gas, overflow = math.SafeAdd(gas, moreGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCreate2Eip3860(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if size > in.fork.MaxInitCodeSize {
		return 0, ErrMaxInitCodeSizeExceeded
	}
	// Since size <= MaxInitCodeSize, these multiplication cannot overflow
	moreGas := (params.InitCodeWordGas + params.Keccak256WordGas) * ((size + 31) / 32)
	if gas, overflow = math.SafeAdd(gas, moreGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasExp(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	expByteLen := uint64((stack.data[stack.len()-2].BitLen() + 7) / 8)

	var (
		gas      = expByteLen * in.fork.GasExpByte // no overflow check required. Max is 256 * ExpByte gas
		overflow bool
	)
	if gas, overflow = math.SafeAdd(gas, GasSlowStep); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCall(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var (
		gas            uint64
		transfersValue = !stack.Back(2).IsZero()
		address        = common.Address(stack.Back(1).Bytes20())
	)
	if in.fork.HasEmptyAccounts {
		if transfersValue {
			empty, err := in.handler.Empty(address)
			if err != nil {
				return 0, hostAbort(err)
			}
			if empty {
				gas += params.CallNewAccountGas
			}
		}
	} else {
		exists, err := in.handler.Exists(address)
		if err != nil {
			return 0, hostAbort(err)
		}
		if !exists {
			gas += params.CallNewAccountGas
		}
	}
	if transfersValue {
		gas += params.CallValueTransferGas
	}
	memoryGas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, memoryGas); overflow {
		return 0, ErrGasUintOverflow
	}

	in.callGasTemp, err = callGas(in.fork.Has63of64, f.scope.Contract.Gas, gas, stack.Back(0))
	if err != nil {
		return 0, err
	}
	if gas, overflow = math.SafeAdd(gas, in.callGasTemp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCallCode(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memoryGas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	var (
		gas      uint64
		overflow bool
	)
	if !stack.Back(2).IsZero() {
		gas += params.CallValueTransferGas
	}
	if gas, overflow = math.SafeAdd(gas, memoryGas); overflow {
		return 0, ErrGasUintOverflow
	}
	in.callGasTemp, err = callGas(in.fork.Has63of64, f.scope.Contract.Gas, gas, stack.Back(0))
	if err != nil {
		return 0, err
	}
	if gas, overflow = math.SafeAdd(gas, in.callGasTemp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasDelegateCall(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	in.callGasTemp, err = callGas(in.fork.Has63of64, f.scope.Contract.Gas, gas, stack.Back(0))
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, in.callGasTemp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasStaticCall(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	in.callGasTemp, err = callGas(in.fork.Has63of64, f.scope.Contract.Gas, gas, stack.Back(0))
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, in.callGasTemp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasSelfdestruct(in *Interpreter, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var gas uint64
	// The charge arrived together with the 63/64 repricing.
	if in.fork.Has63of64 {
		address := common.Address(stack.Back(0).Bytes20())
		if in.fork.HasEmptyAccounts {
			// if empty and transfers value
			empty, err := in.handler.Empty(address)
			if err != nil {
				return 0, hostAbort(err)
			}
			balance, err := in.handler.Balance(f.scope.Contract.Address)
			if err != nil {
				return 0, hostAbort(err)
			}
			if empty && !balance.IsZero() {
				gas += in.fork.CreateBySelfdestructGas
			}
		} else {
			exists, err := in.handler.Exists(address)
			if err != nil {
				return 0, hostAbort(err)
			}
			if !exists {
				gas += in.fork.CreateBySelfdestructGas
			}
		}
	}
	if in.fork.HasSelfdestructRefund && !f.substate.HasSelfdestructed(f.scope.Contract.Address) {
		f.substate.AddRefund(params.SelfdestructRefundGas)
	}
	return gas, nil
}
