// Copyright 2014 The go-ethereum Authors
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
	"math"

	"github.com/corevm/corevm/common"
	cmath "github.com/corevm/corevm/common/math"
	"github.com/corevm/corevm/crypto"
	"github.com/corevm/corevm/params"
	"github.com/holiman/uint256"
)

// Config are the configuration options for the Interpreter.
type Config struct {
	Tracer Tracer // Opcode and frame tracer, nil disables tracing

	// NoRecursion disables sub-calls and creations; requests for either
	// fail cleanly with all gas returned.
	NoRecursion bool
}

// Interpreter advances frames one instruction at a time. It holds everything
// shared between frames of one execution: the rule set, the instruction
// table, the host handler and the block and transaction environment.
//
// An instruction either completes, halts the frame, or suspends it with an
// interrupt. A suspended frame keeps its program counter on the suspending
// instruction; Resume finishes that instruction with the host-provided value
// and moves past it.
type Interpreter struct {
	fork    *params.ForkConfig
	table   *JumpTable
	handler Handler
	block   BlockContext
	tx      TxContext
	cfg     Config

	hasher    crypto.KeccakState // Keccak256 hasher instance shared across opcodes
	hasherBuf common.Hash        // Keccak256 hasher result array shared across opcodes

	// callGasTemp holds the gas available for the current sub-call. It is
	// needed because the available gas is calculated in the gas functions
	// while the requested amount sits on the stack.
	callGasTemp uint64
}

// NewInterpreter builds an interpreter for the given rule set and host.
func NewInterpreter(fork *params.ForkConfig, handler Handler, cfg Config) *Interpreter {
	table := NewJumpTable(fork)
	return &Interpreter{
		fork:    fork,
		table:   &table,
		handler: handler,
		block:   handler.BlockContext(),
		tx:      handler.TxContext(),
		cfg:     cfg,
	}
}

// Fork returns the active rule configuration.
func (in *Interpreter) Fork() *params.ForkConfig { return in.fork }

// Handler returns the host handler.
func (in *Interpreter) Handler() Handler { return in.handler }

// Step executes exactly one instruction of a running frame. Suspended and
// exited frames are left untouched. Any outcome is recorded on the frame
// itself: status, interrupt or exit reason.
func (in *Interpreter) Step(f *Frame) {
	if f.status != FrameRunning {
		return
	}
	var (
		contract  = f.scope.Contract
		op        = contract.GetOp(f.pc)
		operation = in.table[op]
		cost      = operation.constantGas
	)
	// Validate stack
	if sLen := f.scope.Stack.len(); sLen < operation.minStack {
		f.exitWithError(&ErrStackUnderflow{stackLen: sLen, required: operation.minStack})
		return
	} else if sLen > operation.maxStack {
		f.exitWithError(&ErrStackOverflow{stackLen: sLen, limit: operation.maxStack})
		return
	}
	if !contract.UseGas(cost) {
		f.exitWithError(ErrOutOfGas)
		return
	}
	// All ops with a dynamic memory usage also have a dynamic gas cost.
	var memorySize uint64
	if operation.memorySize != nil {
		memSize, overflow := operation.memorySize(f.scope.Stack)
		if overflow {
			f.exitWithError(ErrGasUintOverflow)
			return
		}
		// memory is expanded in words of 32 bytes. Gas is also calculated in
		// words.
		if memorySize, overflow = cmath.SafeMul(toWordSize(memSize), 32); overflow {
			f.exitWithError(ErrGasUintOverflow)
			return
		}
	}
	if operation.dynamicGas != nil {
		dynamicCost, err := operation.dynamicGas(in, f, f.scope.Stack, f.scope.Memory, memorySize)
		if err != nil {
			if errors.Is(err, ErrHostAbort) {
				f.exitWithError(err)
				return
			}
			f.exitWithError(fmt.Errorf("%w: %v", ErrOutOfGas, err))
			return
		}
		cost += dynamicCost
		if !contract.UseGas(dynamicCost) {
			f.exitWithError(ErrOutOfGas)
			return
		}
	}
	if memorySize > 0 {
		f.scope.Memory.Resize(memorySize)
	}
	if in.cfg.Tracer != nil {
		in.cfg.Tracer.OnOpcode(f.pc, op, contract.Gas+cost, cost, f.scope, f.depth)
	}
	res, err := operation.execute(&f.pc, in, f.scope)
	switch {
	case err == nil:
		f.pc++
	case err == errSuspendToken:
		f.status = FrameSuspended
	case err == errStopToken:
		f.exitSucceed(f.stopReason, res)
	case errors.Is(err, ErrExecutionReverted):
		f.exitRevert(res)
	default:
		if in.cfg.Tracer != nil {
			in.cfg.Tracer.OnFault(f.pc, op, contract.Gas, f.scope, f.depth, err)
		}
		f.exitWithError(err)
	}
}

// Resume completes the suspended instruction of a frame with the value the
// executor obtained from the host. A value that does not answer the pending
// interrupt is a fatal protocol violation.
func (in *Interpreter) Resume(f *Frame, v ResumeValue) {
	if f.status != FrameSuspended || f.interrupt == nil {
		f.exitWithError(fmt.Errorf("%w: frame not suspended", ErrUnhandledInterrupt))
		return
	}
	intr := f.interrupt
	switch {
	case intr.Kind == InterruptQuery && v.Query != nil:
		in.resumeQuery(f, intr.Query, v.Query)
	case intr.Kind == InterruptCall && v.Call != nil:
		in.resumeCall(f, intr.Call, v.Call)
	default:
		f.exitWithError(fmt.Errorf("%w: interrupt answered with wrong value kind", ErrUnhandledInterrupt))
		return
	}
	f.interrupt = nil
	f.status = FrameRunning
	f.pc++
}

// resumeQuery finishes a read instruction. Most queries replace the operand
// on top of the stack with the answer; the code query finishes the copy into
// memory instead.
func (in *Interpreter) resumeQuery(f *Frame, q *StateQuery, res *QueryResult) {
	stack := f.scope.Stack
	if q.Kind == QueryCode {
		stack.pop() // address, resolved by the executor
		var (
			memOffset  = stack.pop()
			codeOffset = stack.pop()
			length     = stack.pop()
		)
		uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
		if overflow {
			uint64CodeOffset = math.MaxUint64
		}
		codeCopy := getData(res.Code, uint64CodeOffset, length.Uint64())
		f.scope.Memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
		return
	}
	*stack.peek() = res.Word
}

// resumeCall finishes a call or create instruction: unspent gas flows back
// into the frame, the result lands on the stack and, for message calls, the
// output is copied to the reserved memory area.
func (in *Interpreter) resumeCall(f *Frame, req *CallRequest, res *CallResult) {
	stack := f.scope.Stack
	f.scope.Contract.RefundGas(res.GasLeft)

	if req.Scheme.IsCreate() {
		if res.Success {
			stack.push(new(uint256.Int).SetBytes(res.CreatedAddress.Bytes()))
		} else {
			stack.push(new(uint256.Int))
		}
		// Only a reverted initcode run exposes its output.
		f.returnData = res.ReturnData
		return
	}
	if res.Success {
		stack.push(new(uint256.Int).SetOne())
	} else {
		stack.push(new(uint256.Int))
	}
	if ret := res.ReturnData; len(ret) > 0 && req.RetSize > 0 {
		n := min(uint64(len(ret)), req.RetSize)
		f.scope.Memory.Set(req.RetOffset, n, ret[:n])
	}
	f.returnData = res.ReturnData
}
