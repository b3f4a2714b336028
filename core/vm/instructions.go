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

package vm

import (
	"math"

	"github.com/corevm/corevm/common"
	"github.com/corevm/corevm/crypto"
	"github.com/corevm/corevm/params"
	"github.com/holiman/uint256"
)

func opAdd(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Mul(&x, y)
	return nil, nil
}

func opDiv(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.SMod(&x, y)
	return nil, nil
}

func opExp(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	base, exponent := scope.Stack.pop(), scope.Stack.peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	back, num := scope.Stack.pop(), scope.Stack.peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

func opNot(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.peek()
	x.Not(x)
	return nil, nil
}

func opLt(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Xor(&x, y)
	return nil, nil
}

func opByte(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	th, val := scope.Stack.pop(), scope.Stack.peek()
	val.Byte(&th)
	return nil, nil
}

func opAddmod(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y, z := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y, z := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

// opSHL implements Shift Left
// The SHL instruction (shift left) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the left by arg1 number of bits.
func opSHL(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.pop(), scope.Stack.peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

// opSHR implements Logical Shift Right
// The SHR instruction (logical shift right) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the right by arg1 number of bits with zero fill.
func opSHR(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.pop(), scope.Stack.peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

// opSAR implements Arithmetic Shift Right
// The SAR instruction (arithmetic shift right) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the right by arg1 number of bits with sign extension.
func opSAR(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.pop(), scope.Stack.peek()
	if shift.GtUint64(255) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}
		return nil, nil
	}
	n := uint(shift.Uint64())
	value.SRsh(value, n)
	return nil, nil
}

func opKeccak256(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.peek()
	data := scope.Memory.GetPtr(offset.Uint64(), size.Uint64())

	if interpreter.hasher == nil {
		interpreter.hasher = crypto.NewKeccakState()
	} else {
		interpreter.hasher.Reset()
	}
	interpreter.hasher.Write(data)
	interpreter.hasher.Read(interpreter.hasherBuf[:])

	size.SetBytes(interpreter.hasherBuf[:])
	return nil, nil
}

func opAddress(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(scope.Contract.Address.Bytes()))
	return nil, nil
}

// opBalance answers from warm state when it can and defers the cold read to
// the host via a suspension.
func opBalance(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	address := common.Address(slot.Bytes20())
	if scope.frame.substate.AddressWarm(address) {
		balance, err := interpreter.handler.Balance(address)
		if err != nil {
			return nil, hostAbort(err)
		}
		slot.Set(balance)
		return nil, nil
	}
	return scope.suspend(&Interrupt{
		Kind:  InterruptQuery,
		Query: &StateQuery{Kind: QueryBalance, Address: address},
	})
}

func opOrigin(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(interpreter.tx.Origin.Bytes()))
	return nil, nil
}

func opCaller(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(scope.Contract.Caller().Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(scope.Contract.Value())
	return nil, nil
}

func opCallDataLoad(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		data := getData(scope.Contract.Input, offset, 32)
		x.SetBytes(data)
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(len(scope.Contract.Input))))
	return nil, nil
}

func opCallDataCopy(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		memOffset  = scope.Stack.pop()
		dataOffset = scope.Stack.pop()
		length     = scope.Stack.pop()
	)
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = math.MaxUint64
	}
	// These values are checked for overflow during gas cost calculation
	memOffset64 := memOffset.Uint64()
	length64 := length.Uint64()
	scope.Memory.Set(memOffset64, length64, getData(scope.Contract.Input, dataOffset64, length64))
	return nil, nil
}

func opReturnDataSize(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(len(scope.frame.returnData))))
	return nil, nil
}

func opReturnDataCopy(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		memOffset  = scope.Stack.pop()
		dataOffset = scope.Stack.pop()
		length     = scope.Stack.pop()
	)
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, ErrReturnDataOutOfBounds
	}
	// we can reuse dataOffset now (aliasing it for clarity)
	var end = dataOffset
	end.Add(&dataOffset, &length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(scope.frame.returnData)) < end64 {
		return nil, ErrReturnDataOutOfBounds
	}
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), scope.frame.returnData[offset64:end64])
	return nil, nil
}

func opExtCodeSize(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	address := common.Address(slot.Bytes20())
	if scope.frame.substate.AddressWarm(address) {
		size, err := interpreter.handler.CodeSize(address)
		if err != nil {
			return nil, hostAbort(err)
		}
		slot.SetUint64(size)
		return nil, nil
	}
	return scope.suspend(&Interrupt{
		Kind:  InterruptQuery,
		Query: &StateQuery{Kind: QueryCodeSize, Address: address},
	})
}

func opCodeSize(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(len(scope.Contract.Code))))
	return nil, nil
}

func opCodeCopy(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		memOffset  = scope.Stack.pop()
		codeOffset = scope.Stack.pop()
		length     = scope.Stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = math.MaxUint64
	}
	codeCopy := getData(scope.Contract.Code, uint64CodeOffset, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return nil, nil
}

// opExtCodeCopy leaves its operands on the stack when the target is cold;
// the resume path pops them once the code has been fetched.
func opExtCodeCopy(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	stack := scope.Stack
	address := common.Address(stack.Back(0).Bytes20())
	if !scope.frame.substate.AddressWarm(address) {
		return scope.suspend(&Interrupt{
			Kind:  InterruptQuery,
			Query: &StateQuery{Kind: QueryCode, Address: address},
		})
	}
	code, err := interpreter.handler.Code(address)
	if err != nil {
		return nil, hostAbort(err)
	}
	stack.pop() // address, already resolved
	var (
		memOffset  = stack.pop()
		codeOffset = stack.pop()
		length     = stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = math.MaxUint64
	}
	codeCopy := getData(code, uint64CodeOffset, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return nil, nil
}

// opExtCodeHash returns the code hash of the specified account.
// Several cases exist:
//  1. The account doesn't exist or is empty: the zero hash is pushed.
//  2. Otherwise the hash of the account's code is pushed.
func opExtCodeHash(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	address := common.Address(slot.Bytes20())
	if scope.frame.substate.AddressWarm(address) {
		empty, err := interpreter.handler.Empty(address)
		if err != nil {
			return nil, hostAbort(err)
		}
		if empty {
			slot.Clear()
			return nil, nil
		}
		hash, err := interpreter.handler.CodeHash(address)
		if err != nil {
			return nil, hostAbort(err)
		}
		slot.SetBytes(hash.Bytes())
		return nil, nil
	}
	return scope.suspend(&Interrupt{
		Kind:  InterruptQuery,
		Query: &StateQuery{Kind: QueryCodeHash, Address: address},
	})
}

func opGasprice(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(&interpreter.tx.GasPrice)
	return nil, nil
}

// opBlockhash resolves the 256 block lookback window locally; hashes inside
// the window come from the host.
func opBlockhash(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	num := scope.Stack.peek()
	num64, overflow := num.Uint64WithOverflow()
	if overflow {
		num.Clear()
		return nil, nil
	}
	var upper, lower uint64
	upper = interpreter.block.Number
	if upper < 257 {
		lower = 0
	} else {
		lower = upper - 256
	}
	if num64 >= upper || num64 < lower {
		num.Clear()
		return nil, nil
	}
	return scope.suspend(&Interrupt{
		Kind:  InterruptQuery,
		Query: &StateQuery{Kind: QueryBlockHash, BlockNumber: num64},
	})
}

func opCoinbase(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(interpreter.block.Coinbase.Bytes()))
	return nil, nil
}

func opTimestamp(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(interpreter.block.Timestamp))
	return nil, nil
}

func opNumber(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(interpreter.block.Number))
	return nil, nil
}

func opDifficulty(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(&interpreter.block.Difficulty)
	return nil, nil
}

func opRandom(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(interpreter.block.Random.Bytes()))
	return nil, nil
}

func opGasLimit(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(interpreter.block.GasLimit))
	return nil, nil
}

func opPop(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.pop()
	return nil, nil
}

func opMload(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	v := scope.Stack.peek()
	offset := v.Uint64()
	v.SetBytes(scope.Memory.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	mStart, val := scope.Stack.pop(), scope.Stack.pop()
	scope.Memory.Set32(mStart.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	off, val := scope.Stack.pop(), scope.Stack.pop()
	scope.Memory.store[off.Uint64()] = byte(val.Uint64())
	return nil, nil
}

// opSload answers warm slots synchronously and suspends on cold ones.
func opSload(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.peek()
	slot := common.Hash(loc.Bytes32())
	addr := scope.Contract.Address
	if scope.frame.substate.SlotWarm(addr, slot) {
		val, err := interpreter.handler.Storage(addr, slot)
		if err != nil {
			return nil, hostAbort(err)
		}
		loc.SetBytes(val.Bytes())
		return nil, nil
	}
	return scope.suspend(&Interrupt{
		Kind:  InterruptQuery,
		Query: &StateQuery{Kind: QueryStorage, Address: addr, Slot: slot},
	})
}

func opSstore(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	if scope.frame.readOnly {
		return nil, ErrWriteProtection
	}
	loc := scope.Stack.pop()
	val := scope.Stack.pop()
	err := interpreter.handler.SetStorage(scope.Contract.Address,
		common.Hash(loc.Bytes32()), common.Hash(val.Bytes32()))
	if err != nil {
		return nil, hostAbort(err)
	}
	return nil, nil
}

func opJump(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	pos := scope.Stack.pop()
	if !scope.Contract.validJumpdest(&pos) {
		return nil, ErrInvalidJump
	}
	*pc = pos.Uint64() - 1 // pc will be increased by the interpreter loop
	return nil, nil
}

func opJumpi(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	pos, cond := scope.Stack.pop(), scope.Stack.pop()
	if !cond.IsZero() {
		if !scope.Contract.validJumpdest(&pos) {
			return nil, ErrInvalidJump
		}
		*pc = pos.Uint64() - 1 // pc will be increased by the interpreter loop
	}
	return nil, nil
}

func opJumpdest(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	return nil, nil
}

func opPc(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(scope.Memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(scope.Contract.Gas))
	return nil, nil
}

func opCreate(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	if scope.frame.readOnly {
		return nil, ErrWriteProtection
	}
	var (
		value  = scope.Stack.pop()
		offset = scope.Stack.pop()
		size   = scope.Stack.pop()
		input  = scope.Memory.GetCopy(offset.Uint64(), size.Uint64())
		gas    = scope.Contract.Gas
	)
	if interpreter.fork.Has63of64 {
		gas -= gas / 64
	}
	scope.Contract.UseGas(gas)

	req := &CallRequest{
		Scheme: SchemeCreate,
		Input:  input,
		Gas:    gas,
	}
	req.Value.Set(&value)
	return scope.suspend(&Interrupt{Kind: InterruptCall, Call: req})
}

func opCreate2(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	if scope.frame.readOnly {
		return nil, ErrWriteProtection
	}
	var (
		endowment = scope.Stack.pop()
		offset    = scope.Stack.pop()
		size      = scope.Stack.pop()
		salt      = scope.Stack.pop()
		input     = scope.Memory.GetCopy(offset.Uint64(), size.Uint64())
	)
	// Apply EIP150
	gas := scope.Contract.Gas
	gas -= gas / 64
	scope.Contract.UseGas(gas)

	req := &CallRequest{
		Scheme: SchemeCreate2,
		Input:  input,
		Gas:    gas,
	}
	req.Value.Set(&endowment)
	req.Salt.Set(&salt)
	return scope.suspend(&Interrupt{Kind: InterruptCall, Call: req})
}

func opCall(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	stack := scope.Stack
	// Pop gas. The actual gas is in interpreter.callGasTemp.
	stack.pop()
	addr, value, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	if !value.IsZero() && scope.frame.readOnly {
		return nil, ErrWriteProtection
	}
	// Get the arguments from the memory.
	args := scope.Memory.GetPtr(inOffset.Uint64(), inSize.Uint64())

	gas := interpreter.callGasTemp
	if !value.IsZero() {
		gas += params.CallStipend
	}
	req := &CallRequest{
		Scheme:    SchemeCall,
		Target:    toAddr,
		Input:     args,
		Gas:       gas,
		RetOffset: retOffset.Uint64(),
		RetSize:   retSize.Uint64(),
	}
	req.Value.Set(&value)
	return scope.suspend(&Interrupt{Kind: InterruptCall, Call: req})
}

func opCallCode(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	stack := scope.Stack
	// Pop gas. The actual gas is in interpreter.callGasTemp.
	stack.pop()
	addr, value, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	args := scope.Memory.GetPtr(inOffset.Uint64(), inSize.Uint64())

	gas := interpreter.callGasTemp
	if !value.IsZero() {
		gas += params.CallStipend
	}
	req := &CallRequest{
		Scheme:    SchemeCallCode,
		Target:    toAddr,
		Input:     args,
		Gas:       gas,
		RetOffset: retOffset.Uint64(),
		RetSize:   retSize.Uint64(),
	}
	req.Value.Set(&value)
	return scope.suspend(&Interrupt{Kind: InterruptCall, Call: req})
}

func opDelegateCall(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	stack := scope.Stack
	// Pop gas. The actual gas is in interpreter.callGasTemp.
	stack.pop()
	addr, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	args := scope.Memory.GetPtr(inOffset.Uint64(), inSize.Uint64())

	req := &CallRequest{
		Scheme:    SchemeDelegateCall,
		Target:    toAddr,
		Input:     args,
		Gas:       interpreter.callGasTemp,
		RetOffset: retOffset.Uint64(),
		RetSize:   retSize.Uint64(),
	}
	return scope.suspend(&Interrupt{Kind: InterruptCall, Call: req})
}

func opStaticCall(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	stack := scope.Stack
	// Pop gas. The actual gas is in interpreter.callGasTemp.
	stack.pop()
	addr, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	args := scope.Memory.GetPtr(inOffset.Uint64(), inSize.Uint64())

	req := &CallRequest{
		Scheme:    SchemeStaticCall,
		Target:    toAddr,
		Input:     args,
		Gas:       interpreter.callGasTemp,
		RetOffset: retOffset.Uint64(),
		RetSize:   retSize.Uint64(),
	}
	return scope.suspend(&Interrupt{Kind: InterruptCall, Call: req})
}

func opReturn(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.pop()
	ret := scope.Memory.GetCopy(offset.Uint64(), size.Uint64())
	scope.frame.stopReason = SucceedReturned
	return ret, errStopToken
}

func opRevert(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.pop()
	ret := scope.Memory.GetCopy(offset.Uint64(), size.Uint64())
	return ret, ErrExecutionReverted
}

func makeUndefined(op OpCode) executionFunc {
	return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
		return nil, &ErrInvalidOpCode{opcode: op}
	}
}

func opStop(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.frame.stopReason = SucceedStopped
	return nil, errStopToken
}

func opSelfdestruct(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	if scope.frame.readOnly {
		return nil, ErrWriteProtection
	}
	beneficiary := scope.Stack.pop()
	benAddr := common.Address(beneficiary.Bytes20())
	self := scope.Contract.Address

	balance, err := interpreter.handler.Balance(self)
	if err != nil {
		return nil, hostAbort(err)
	}
	if err := interpreter.handler.Transfer(self, benAddr, balance); err != nil {
		return nil, hostAbort(err)
	}
	// Post-Cancun the account is only slated for deletion when it came into
	// existence inside the current transaction; an established account just
	// loses its balance.
	if !interpreter.fork.HasEIP6780Selfdestruct || scope.frame.substate.WasCreated(self) {
		scope.frame.substate.MarkSelfdestruct(self, benAddr)
		if err := interpreter.handler.MarkSelfdestruct(self, benAddr); err != nil {
			return nil, hostAbort(err)
		}
	}
	scope.frame.stopReason = SucceedSelfdestructed
	return nil, errStopToken
}

// opTload implements TLOAD
func opTload(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.peek()
	hash := common.Hash(loc.Bytes32())
	val := interpreter.handler.TransientStorage(scope.Contract.Address, hash)
	loc.SetBytes(val.Bytes())
	return nil, nil
}

// opTstore implements TSTORE
func opTstore(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	if scope.frame.readOnly {
		return nil, ErrWriteProtection
	}
	loc := scope.Stack.pop()
	val := scope.Stack.pop()
	interpreter.handler.SetTransientStorage(scope.Contract.Address,
		common.Hash(loc.Bytes32()), common.Hash(val.Bytes32()))
	return nil, nil
}

// opBaseFee implements BASEFEE opcode
func opBaseFee(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(&interpreter.block.BaseFee)
	return nil, nil
}

// opBlobHash implements the BLOBHASH opcode
func opBlobHash(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	index := scope.Stack.peek()
	if index.LtUint64(uint64(len(interpreter.tx.BlobHashes))) {
		blobHash := interpreter.tx.BlobHashes[index.Uint64()]
		index.SetBytes32(blobHash[:])
	} else {
		index.Clear()
	}
	return nil, nil
}

// opBlobBaseFee implements BLOBBASEFEE opcode
func opBlobBaseFee(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(&interpreter.block.BlobBaseFee)
	return nil, nil
}

// opMcopy implements the MCOPY memory copy instruction
func opMcopy(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		dst    = scope.Stack.pop()
		src    = scope.Stack.pop()
		length = scope.Stack.pop()
	)
	// These values are checked for overflow during memory expansion calculation
	scope.Memory.Copy(dst.Uint64(), src.Uint64(), length.Uint64())
	return nil, nil
}

// opPush0 implements the PUSH0 opcode
func opPush0(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int))
	return nil, nil
}

// opPush1 is a specialized version of pushN
func opPush1(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		codeLen = uint64(len(scope.Contract.Code))
		integer = new(uint256.Int)
	)
	*pc += 1
	if *pc < codeLen {
		scope.Stack.push(integer.SetUint64(uint64(scope.Contract.Code[*pc])))
	} else {
		scope.Stack.push(integer.Clear())
	}
	return nil, nil
}

// make push instruction function
func makePush(size uint64, pushByteSize int) executionFunc {
	return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
		var (
			codeLen = len(scope.Contract.Code)
			start   = min(codeLen, int(*pc+1))
			end     = min(codeLen, start+pushByteSize)
		)
		scope.Stack.push(new(uint256.Int).SetBytes(
			common.RightPadBytes(scope.Contract.Code[start:end], pushByteSize)))
		*pc += size
		return nil, nil
	}
}

// make dup instruction function
func makeDup(size int64) executionFunc {
	return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
		scope.Stack.dup(int(size))
		return nil, nil
	}
}

// make swap instruction function
func makeSwap(size int64) executionFunc {
	switch size {
	case 1:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap1()
			return nil, nil
		}
	case 2:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap2()
			return nil, nil
		}
	case 3:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap3()
			return nil, nil
		}
	case 4:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap4()
			return nil, nil
		}
	case 5:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap5()
			return nil, nil
		}
	case 6:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap6()
			return nil, nil
		}
	case 7:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap7()
			return nil, nil
		}
	case 8:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap8()
			return nil, nil
		}
	case 9:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap9()
			return nil, nil
		}
	case 10:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap10()
			return nil, nil
		}
	case 11:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap11()
			return nil, nil
		}
	case 12:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap12()
			return nil, nil
		}
	case 13:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap13()
			return nil, nil
		}
	case 14:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap14()
			return nil, nil
		}
	case 15:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap15()
			return nil, nil
		}
	case 16:
		return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
			scope.Stack.swap16()
			return nil, nil
		}
	default:
		panic("unsupported swap size")
	}
}

// make log instruction function
func makeLog(size int) executionFunc {
	return func(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
		if scope.frame.readOnly {
			return nil, ErrWriteProtection
		}
		topics := make([]common.Hash, size)
		stack := scope.Stack
		mStart, mSize := stack.pop(), stack.pop()
		for i := 0; i < size; i++ {
			addr := stack.pop()
			topics[i] = common.Hash(addr.Bytes32())
		}
		d := scope.Memory.GetCopy(mStart.Uint64(), mSize.Uint64())
		log := &Log{
			Address: scope.Contract.Address,
			Topics:  topics,
			Data:    d,
		}
		scope.frame.substate.AddLog(log)
		interpreter.handler.EmitLog(log)
		return nil, nil
	}
}

// opSelfBalance reads the executing account's balance. The account is warm
// by definition, so the read never suspends.
func opSelfBalance(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	balance, err := interpreter.handler.Balance(scope.Contract.Address)
	if err != nil {
		return nil, hostAbort(err)
	}
	scope.Stack.push(balance)
	return nil, nil
}

// opChainID implements CHAINID opcode
func opChainID(pc *uint64, interpreter *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(interpreter.fork.ChainID))
	return nil, nil
}
