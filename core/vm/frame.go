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
)

// FrameStatus is the lifecycle state of a frame.
type FrameStatus byte

const (
	// FrameRunning frames make progress on every Step.
	FrameRunning FrameStatus = iota
	// FrameSuspended frames carry an Interrupt and wait for Resume.
	FrameSuspended
	// FrameExited frames carry an ExitReason and never run again.
	FrameExited
)

// ScopeContext contains the things that are per-call, such as stack and
// memory, but not transients like pc and gas.
type ScopeContext struct {
	Memory   *Memory
	Stack    *Stack
	Contract *Contract

	frame *Frame
}

// Address returns the address where this scope of execution is taking place.
func (ctx *ScopeContext) Address() common.Address { return ctx.Contract.Address }

// Caller returns the current caller.
func (ctx *ScopeContext) Caller() common.Address { return ctx.Contract.Caller() }

// CallValue returns the value supplied with this call.
func (ctx *ScopeContext) CallValue() []byte {
	v := ctx.Contract.Value().Bytes32()
	return v[:]
}

// CallInput returns the input/calldata of the current call.
func (ctx *ScopeContext) CallInput() []byte { return ctx.Contract.Input }

// suspend parks the frame on the given interrupt. The caller must propagate
// the returned token unchanged.
func (ctx *ScopeContext) suspend(intr *Interrupt) ([]byte, error) {
	ctx.frame.interrupt = intr
	return nil, errSuspendToken
}

// Frame is one invocation's execution record: the scope (stack, memory,
// contract), the program counter and the suspension bookkeeping. A frame
// exclusively owns its stack, memory, return-data buffer and substate; the
// executor owns the ordered collection of frames.
type Frame struct {
	scope *ScopeContext
	pc    uint64
	depth int

	status    FrameStatus
	interrupt *Interrupt

	// returnData is the buffer filled by the most recently completed
	// sub-call, readable via RETURNDATASIZE/RETURNDATACOPY.
	returnData []byte

	// Terminal state, valid once status == FrameExited.
	exit ExitReason
	ret  []byte

	readOnly bool
	substate *Substate

	// stopReason records how a clean halt was reached; consulted when the
	// stop token surfaces from an instruction.
	stopReason SucceedReason

	// Creation bookkeeping.
	isCreate   bool
	checkpoint int

	// initialGas is the gas the frame was entered with, kept for reporting
	// how much the frame consumed.
	initialGas uint64
}

// NewFrame assembles a frame around the given contract. The stack and memory
// come from their pools and are released when the executor discards the
// frame.
func NewFrame(contract *Contract, substate *Substate, depth int, readOnly bool) *Frame {
	f := &Frame{
		depth:      depth,
		readOnly:   readOnly,
		substate:   substate,
		initialGas: contract.Gas,
	}
	f.scope = &ScopeContext{
		Memory:   NewMemory(),
		Stack:    newstack(),
		Contract: contract,
		frame:    f,
	}
	return f
}

// Status returns the frame's lifecycle state.
func (f *Frame) Status() FrameStatus { return f.status }

// Interrupt returns the pending request of a suspended frame, nil otherwise.
func (f *Frame) Interrupt() *Interrupt { return f.interrupt }

// Exit returns the terminal state of an exited frame.
func (f *Frame) Exit() ExitReason { return f.exit }

// ReturnData returns the output of a terminated frame.
func (f *Frame) ReturnData() []byte { return f.ret }

// PC returns the current program counter.
func (f *Frame) PC() uint64 { return f.pc }

// Depth returns the frame's position in the call stack, starting at 0.
func (f *Frame) Depth() int { return f.depth }

// Gas returns the gas remaining in this frame.
func (f *Frame) Gas() uint64 { return f.scope.Contract.Gas }

// Contract returns the contract under execution.
func (f *Frame) Contract() *Contract { return f.scope.Contract }

// Scope returns the frame's scope context.
func (f *Frame) Scope() *ScopeContext { return f.scope }

// Static reports whether the frame runs under write protection.
func (f *Frame) Static() bool { return f.readOnly }

func (f *Frame) exitSucceed(reason SucceedReason, ret []byte) {
	f.status = FrameExited
	f.exit = ExitReason{Kind: ExitSucceed, Succeed: reason}
	f.ret = ret
}

func (f *Frame) exitRevert(ret []byte) {
	f.status = FrameExited
	f.exit = ExitReason{Kind: ExitRevert, Err: ErrExecutionReverted}
	f.ret = ret
}

func (f *Frame) exitWithError(err error) {
	f.status = FrameExited
	f.exit = exitReasonForError(err)
	// Exceptional halts consume everything left in the frame.
	if f.exit.Kind == ExitError {
		f.scope.Contract.Gas = 0
	}
	f.ret = nil
}

// release returns the pooled resources. Must only be called by the executor
// once the frame has been popped.
func (f *Frame) release() {
	returnStack(f.scope.Stack)
	f.scope.Stack = nil
}
