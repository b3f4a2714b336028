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
	"sync/atomic"

	"github.com/corevm/corevm/common"
	"github.com/corevm/corevm/crypto"
	"github.com/corevm/corevm/params"
	"github.com/holiman/uint256"
)

// ExecutionResult is the outcome of one complete call tree.
type ExecutionResult struct {
	ExitReason ExitReason
	GasUsed    uint64
	GasLeft    uint64
	GasRefund  uint64
	ReturnData []byte

	// CreatedAddress is set for successful contract creations.
	CreatedAddress common.Address

	// Logs and Selfdestructs are only populated when the execution
	// succeeded; a reverted or failed root discards them.
	Logs          []*Log
	Selfdestructs []SelfdestructRecord
}

// Executor owns the ordered collection of frames of one execution and drives
// them to completion. The executor is the only component that talks to the
// host for suspended frames: it resolves queries, spawns sub-frames for
// calls, and folds terminated frames back into their parents.
//
// An executor is single-use: one root invocation, one result.
type Executor struct {
	interp  *Interpreter
	handler Handler
	fork    *params.ForkConfig
	cfg     Config

	frames   []*Frame
	gasLimit uint64

	cancelled atomic.Bool
}

// NewExecutor sets up an executor against the given rule set and host.
func NewExecutor(fork *params.ForkConfig, handler Handler, cfg Config) *Executor {
	return &Executor{
		interp:  NewInterpreter(fork, handler, cfg),
		handler: handler,
		fork:    fork,
		cfg:     cfg,
	}
}

// Cancel aborts the execution at the next instruction boundary. Safe to call
// from another goroutine.
func (ex *Executor) Cancel() {
	ex.cancelled.Store(true)
}

// Interpreter exposes the executor's interpreter, mainly for tests and
// debugging tools that want to single-step.
func (ex *Executor) Interpreter() *Interpreter { return ex.interp }

// Call runs the code at addr with the given input as the root frame of a new
// call tree. The value is transferred before execution starts.
func (ex *Executor) Call(caller, addr common.Address, input []byte, gas uint64, value *uint256.Int) (*ExecutionResult, error) {
	ex.gasLimit = gas
	substate := newSubstate(nil)
	ex.prewarm(substate, caller, addr)

	if !value.IsZero() {
		ok, err := ex.canTransfer(caller, value)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInsufficientBalance
		}
	}
	checkpoint := ex.handler.Checkpoint()

	exists, err := ex.handler.Exists(addr)
	if err != nil {
		ex.handler.Revert(checkpoint)
		return nil, err
	}
	if !exists && (!value.IsZero() || !ex.fork.HasEmptyAccounts) {
		if err := ex.handler.CreateAccount(addr); err != nil {
			ex.handler.Revert(checkpoint)
			return nil, err
		}
	}
	if !value.IsZero() {
		if err := ex.handler.Transfer(caller, addr, value); err != nil {
			ex.handler.Revert(checkpoint)
			return nil, err
		}
	}
	if ex.cfg.Tracer != nil {
		ex.cfg.Tracer.OnEnter(0, SchemeCall, caller, addr, input, gas, value)
	}
	// Native contracts short-circuit the interpreter entirely.
	if pres, isPrecompile := ex.handler.RunPrecompile(addr, input, gas); isPrecompile {
		return ex.finishPrecompile(substate, checkpoint, pres, gas), nil
	}
	code, codeHash, err := ex.loadCode(addr)
	if err != nil {
		ex.handler.Revert(checkpoint)
		return nil, err
	}
	if len(code) == 0 {
		ex.handler.Commit(checkpoint)
		res := &ExecutionResult{
			ExitReason: ExitReason{Kind: ExitSucceed, Succeed: SucceedStopped},
			GasLeft:    gas,
		}
		res.Logs = substate.Logs()
		res.Selfdestructs = substate.Selfdestructs()
		if ex.cfg.Tracer != nil {
			ex.cfg.Tracer.OnExit(0, nil, 0, nil, false)
		}
		return res, nil
	}
	contract := NewContract(caller, addr, value, gas)
	contract.SetCallCode(addr, codeHash, code)
	contract.Input = input

	frame := NewFrame(contract, substate, 0, false)
	frame.checkpoint = checkpoint
	ex.frames = append(ex.frames, frame)
	return ex.run(), nil
}

// Create deploys the given init code as the root frame, deriving the new
// contract address from the caller's nonce.
func (ex *Executor) Create(caller common.Address, code []byte, gas uint64, value *uint256.Int) (*ExecutionResult, error) {
	nonce, err := ex.handler.Nonce(caller)
	if err != nil {
		return nil, err
	}
	return ex.create(caller, code, gas, value, crypto.CreateAddress(caller, nonce), SchemeCreate)
}

// Create2 deploys the given init code at the salt-derived address.
func (ex *Executor) Create2(caller common.Address, code []byte, gas uint64, value *uint256.Int, salt *uint256.Int) (*ExecutionResult, error) {
	inithash := crypto.Keccak256(code)
	addr := crypto.CreateAddress2(caller, salt.Bytes32(), inithash)
	return ex.create(caller, code, gas, value, addr, SchemeCreate2)
}

func (ex *Executor) create(caller common.Address, code []byte, gas uint64, value *uint256.Int, addr common.Address, scheme CallScheme) (*ExecutionResult, error) {
	ex.gasLimit = gas
	substate := newSubstate(nil)
	ex.prewarm(substate, caller, addr)

	if ex.fork.HasInitCodeMetering && uint64(len(code)) > ex.fork.MaxInitCodeSize {
		return nil, ErrMaxInitCodeSizeExceeded
	}
	if !value.IsZero() {
		ok, err := ex.canTransfer(caller, value)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInsufficientBalance
		}
	}
	nonce, err := ex.handler.Nonce(caller)
	if err != nil {
		return nil, err
	}
	if nonce+1 < nonce {
		return nil, ErrNonceUintOverflow
	}
	if err := ex.handler.IncrementNonce(caller); err != nil {
		return nil, err
	}
	collided, err := ex.hasCollision(addr)
	if err != nil {
		return nil, err
	}
	if collided {
		// An address collision burns everything.
		return &ExecutionResult{
			ExitReason: exitReasonForError(ErrContractAddressCollision),
			GasUsed:    gas,
		}, nil
	}
	checkpoint := ex.handler.Checkpoint()
	substate.MarkCreated(addr)
	if err := ex.handler.CreateAccount(addr); err != nil {
		ex.handler.Revert(checkpoint)
		return nil, err
	}
	if ex.fork.HasEmptyAccounts {
		if err := ex.handler.IncrementNonce(addr); err != nil {
			ex.handler.Revert(checkpoint)
			return nil, err
		}
	}
	if !value.IsZero() {
		if err := ex.handler.Transfer(caller, addr, value); err != nil {
			ex.handler.Revert(checkpoint)
			return nil, err
		}
	}
	if ex.cfg.Tracer != nil {
		ex.cfg.Tracer.OnEnter(0, scheme, caller, addr, code, gas, value)
	}
	contract := NewContract(caller, addr, value, gas)
	contract.SetCallCode(addr, common.Hash{}, code)

	frame := NewFrame(contract, substate, 0, false)
	frame.isCreate = true
	frame.checkpoint = checkpoint
	ex.frames = append(ex.frames, frame)
	return ex.run(), nil
}

// run drives the frame stack until the root frame terminates.
func (ex *Executor) run() *ExecutionResult {
	for {
		top := ex.frames[len(ex.frames)-1]
		if ex.cancelled.Load() && top.status != FrameExited {
			top.exitWithError(errExecutionCancelled())
		}
		switch top.status {
		case FrameRunning:
			ex.interp.Step(top)
		case FrameSuspended:
			ex.dispatch(top)
		case FrameExited:
			if len(ex.frames) == 1 {
				ex.frames = ex.frames[:0]
				return ex.finish(top)
			}
			ex.popFrame(top)
		}
	}
}

func errExecutionCancelled() error {
	return hostAbort(ErrExecutionCancelled)
}

// dispatch resolves the pending interrupt of a suspended frame.
func (ex *Executor) dispatch(f *Frame) {
	intr := f.interrupt
	switch {
	case intr == nil:
		f.exitWithError(ErrUnhandledInterrupt)
	case intr.Kind == InterruptQuery:
		ex.resolveQuery(f, intr.Query)
	case intr.Kind == InterruptCall:
		ex.startCall(f, intr.Call)
	default:
		f.exitWithError(ErrUnhandledInterrupt)
	}
}

// resolveQuery answers a state read through the handler, marks the touched
// entity warm and resumes the frame.
func (ex *Executor) resolveQuery(f *Frame, q *StateQuery) {
	var res QueryResult
	var err error
	switch q.Kind {
	case QueryBalance:
		var v *uint256.Int
		if v, err = ex.handler.Balance(q.Address); err == nil {
			res.Word.Set(v)
		}
	case QueryStorage:
		var h common.Hash
		if h, err = ex.handler.Storage(q.Address, q.Slot); err == nil {
			res.Word.SetBytes(h.Bytes())
		}
	case QueryCodeSize:
		var n uint64
		if n, err = ex.handler.CodeSize(q.Address); err == nil {
			res.Word.SetUint64(n)
		}
	case QueryCodeHash:
		var empty bool
		if empty, err = ex.handler.Empty(q.Address); err == nil && !empty {
			var h common.Hash
			if h, err = ex.handler.CodeHash(q.Address); err == nil {
				res.Word.SetBytes(h.Bytes())
			}
		}
	case QueryCode:
		res.Code, err = ex.handler.Code(q.Address)
	case QueryBlockHash:
		var h common.Hash
		if h, err = ex.handler.BlockHash(q.BlockNumber); err == nil {
			res.Word.SetBytes(h.Bytes())
		}
	default:
		f.exitWithError(ErrUnhandledInterrupt)
		return
	}
	if err != nil {
		f.exitWithError(hostAbort(err))
		return
	}
	switch q.Kind {
	case QueryBlockHash:
		// no warmth attached to block hashes
	case QueryStorage:
		f.substate.MarkWarmSlot(q.Address, q.Slot)
		ex.handler.MarkWarm(q.Address, &q.Slot)
	default:
		f.substate.MarkWarmAddress(q.Address)
		ex.handler.MarkWarm(q.Address, nil)
	}
	ex.interp.Resume(f, ResumeValue{Query: &res})
}

// startCall spawns a child frame for a call or create request, or settles
// the request immediately when no frame is needed (depth limit, precompile,
// missing code, balance shortfall).
func (ex *Executor) startCall(parent *Frame, req *CallRequest) {
	fail := func(gasLeft uint64) {
		ex.interp.Resume(parent, ResumeValue{Call: &CallResult{GasLeft: gasLeft}})
	}
	depth := parent.depth + 1
	if depth >= int(params.CallCreateDepth) {
		fail(req.Gas)
		return
	}
	if ex.cfg.NoRecursion {
		fail(req.Gas)
		return
	}
	if req.Scheme.IsCreate() {
		ex.startCreate(parent, req, depth, fail)
		return
	}
	var (
		callerAddr = parent.scope.Contract.Address
		ctxAddr    = req.Target
		codeAddr   = req.Target
		value      = new(uint256.Int).Set(&req.Value)
		readOnly   = parent.readOnly
	)
	switch req.Scheme {
	case SchemeCallCode:
		ctxAddr = parent.scope.Contract.Address
	case SchemeDelegateCall:
		callerAddr = parent.scope.Contract.Caller()
		ctxAddr = parent.scope.Contract.Address
		value = parent.scope.Contract.Value()
	case SchemeStaticCall:
		readOnly = true
	}
	transfersValue := req.Scheme == SchemeCall && !value.IsZero()
	if !value.IsZero() && (req.Scheme == SchemeCall || req.Scheme == SchemeCallCode) {
		ok, err := ex.canTransfer(parent.scope.Contract.Address, value)
		if err != nil {
			parent.exitWithError(hostAbort(err))
			return
		}
		if !ok {
			fail(req.Gas)
			return
		}
	}
	checkpoint := ex.handler.Checkpoint()
	if transfersValue {
		exists, err := ex.handler.Exists(req.Target)
		if err != nil {
			parent.exitWithError(hostAbort(err))
			return
		}
		if !exists {
			if err := ex.handler.CreateAccount(req.Target); err != nil {
				parent.exitWithError(hostAbort(err))
				return
			}
		}
		if err := ex.handler.Transfer(parent.scope.Contract.Address, req.Target, value); err != nil {
			parent.exitWithError(hostAbort(err))
			return
		}
	}
	if ex.cfg.Tracer != nil {
		ex.cfg.Tracer.OnEnter(depth, req.Scheme, callerAddr, req.Target, req.Input, req.Gas, value)
	}
	if pres, isPrecompile := ex.handler.RunPrecompile(codeAddr, req.Input, req.Gas); isPrecompile {
		res := ex.settlePrecompile(checkpoint, pres, req.Gas)
		if ex.cfg.Tracer != nil {
			ex.cfg.Tracer.OnExit(depth, res.ReturnData, req.Gas-res.GasLeft, nil, !res.Success)
		}
		ex.interp.Resume(parent, ResumeValue{Call: res})
		return
	}
	code, codeHash, err := ex.loadCode(codeAddr)
	if err != nil {
		ex.handler.Revert(checkpoint)
		parent.exitWithError(hostAbort(err))
		return
	}
	if len(code) == 0 {
		ex.handler.Commit(checkpoint)
		if ex.cfg.Tracer != nil {
			ex.cfg.Tracer.OnExit(depth, nil, 0, nil, false)
		}
		ex.interp.Resume(parent, ResumeValue{Call: &CallResult{Success: true, GasLeft: req.Gas}})
		return
	}
	contract := NewContract(callerAddr, ctxAddr, value, req.Gas)
	contract.SetCallCode(codeAddr, codeHash, code)
	contract.Input = req.Input

	child := NewFrame(contract, newSubstate(parent.substate), depth, readOnly)
	child.checkpoint = checkpoint
	ex.frames = append(ex.frames, child)
}

func (ex *Executor) startCreate(parent *Frame, req *CallRequest, depth int, fail func(uint64)) {
	caller := parent.scope.Contract.Address
	if !req.Value.IsZero() {
		ok, err := ex.canTransfer(caller, &req.Value)
		if err != nil {
			parent.exitWithError(hostAbort(err))
			return
		}
		if !ok {
			fail(req.Gas)
			return
		}
	}
	nonce, err := ex.handler.Nonce(caller)
	if err != nil {
		parent.exitWithError(hostAbort(err))
		return
	}
	if nonce+1 < nonce {
		// Nonce space exhausted; the request fails without burning gas.
		fail(req.Gas)
		return
	}
	if err := ex.handler.IncrementNonce(caller); err != nil {
		parent.exitWithError(hostAbort(err))
		return
	}
	var addr common.Address
	if req.Scheme == SchemeCreate2 {
		inithash := crypto.Keccak256(req.Input)
		addr = crypto.CreateAddress2(caller, req.Salt.Bytes32(), inithash)
	} else {
		addr = crypto.CreateAddress(caller, nonce)
	}
	// The new address is warm from the moment the creation is attempted,
	// whether or not it succeeds.
	parent.substate.MarkWarmAddress(addr)
	ex.handler.MarkWarm(addr, nil)

	collided, err := ex.hasCollision(addr)
	if err != nil {
		parent.exitWithError(hostAbort(err))
		return
	}
	if collided {
		ex.interp.Resume(parent, ResumeValue{Call: &CallResult{GasLeft: 0}})
		return
	}
	checkpoint := ex.handler.Checkpoint()
	substate := newSubstate(parent.substate)
	substate.MarkCreated(addr)
	if err := ex.handler.CreateAccount(addr); err != nil {
		ex.handler.Revert(checkpoint)
		parent.exitWithError(hostAbort(err))
		return
	}
	if ex.fork.HasEmptyAccounts {
		if err := ex.handler.IncrementNonce(addr); err != nil {
			ex.handler.Revert(checkpoint)
			parent.exitWithError(hostAbort(err))
			return
		}
	}
	if !req.Value.IsZero() {
		if err := ex.handler.Transfer(caller, addr, &req.Value); err != nil {
			ex.handler.Revert(checkpoint)
			parent.exitWithError(hostAbort(err))
			return
		}
	}
	if ex.cfg.Tracer != nil {
		ex.cfg.Tracer.OnEnter(depth, req.Scheme, caller, addr, req.Input, req.Gas, &req.Value)
	}
	contract := NewContract(caller, addr, new(uint256.Int).Set(&req.Value), req.Gas)
	contract.SetCallCode(addr, common.Hash{}, req.Input)

	child := NewFrame(contract, substate, depth, false)
	child.isCreate = true
	child.checkpoint = checkpoint
	ex.frames = append(ex.frames, child)
}

// popFrame folds a terminated child frame into its parent.
func (ex *Executor) popFrame(child *Frame) {
	ex.frames = ex.frames[:len(ex.frames)-1]
	parent := ex.frames[len(ex.frames)-1]

	exit := child.exit
	if exit.IsFatal() {
		// Fatal exits unwind the whole tree without resuming anyone.
		child.release()
		parent.status = FrameExited
		parent.exit = exit
		parent.ret = nil
		parent.scope.Contract.Gas = 0
		return
	}
	res := &CallResult{}
	switch exit.Kind {
	case ExitSucceed:
		if child.isCreate {
			if err := ex.depositCode(child); err != nil {
				ex.handler.Revert(child.checkpoint)
				if ex.cfg.Tracer != nil {
					ex.cfg.Tracer.OnExit(child.depth, nil, child.initialGas-child.Gas(), err, false)
				}
				child.release()
				ex.interp.Resume(parent, ResumeValue{Call: res})
				return
			}
			res.CreatedAddress = child.scope.Contract.Address
		} else {
			res.ReturnData = child.ret
		}
		ex.handler.Commit(child.checkpoint)
		parent.substate.merge(child.substate)
		res.Success = true
		res.GasLeft = child.Gas()
	case ExitRevert:
		ex.handler.Revert(child.checkpoint)
		res.GasLeft = child.Gas()
		res.ReturnData = child.ret
	default: // ExitError
		ex.handler.Revert(child.checkpoint)
	}
	if ex.cfg.Tracer != nil {
		ex.cfg.Tracer.OnExit(child.depth, res.ReturnData, child.initialGas-child.Gas(), exit.Err, exit.Reverted())
	}
	child.release()
	ex.interp.Resume(parent, ResumeValue{Call: res})
}

// depositCode finalises a successful initcode run: validate the returned
// code, charge the per-byte deposit cost and hand the code to the host. Any
// failure consumes the remaining frame gas.
func (ex *Executor) depositCode(f *Frame) error {
	var err error
	ret := f.ret
	switch {
	case ex.fork.HasRejectEFCode && len(ret) >= 1 && ret[0] == 0xEF:
		err = ErrInvalidCode
	case ex.fork.MaxCodeSize > 0 && uint64(len(ret)) > ex.fork.MaxCodeSize:
		err = ErrMaxCodeSizeExceeded
	case !f.scope.Contract.UseGas(uint64(len(ret)) * params.CreateDataGas):
		err = ErrCodeStoreOutOfGas
	default:
		if err = ex.handler.DepositCode(f.scope.Contract.Address, ret); err != nil {
			f.exitWithError(hostAbort(err))
			return err
		}
		return nil
	}
	f.scope.Contract.Gas = 0
	f.exit = exitReasonForError(err)
	f.ret = nil
	return err
}

// finish converts the terminated root frame into the execution result.
func (ex *Executor) finish(root *Frame) *ExecutionResult {
	exit := root.exit
	if exit.Kind == ExitSucceed && root.isCreate {
		if err := ex.depositCode(root); err != nil {
			exit = root.exit
		}
	}
	res := &ExecutionResult{ExitReason: exit, GasLeft: root.Gas()}
	switch exit.Kind {
	case ExitSucceed:
		ex.handler.Commit(root.checkpoint)
		if root.isCreate {
			res.CreatedAddress = root.scope.Contract.Address
		}
		res.ReturnData = root.ret
		res.Logs = root.substate.Logs()
		res.Selfdestructs = root.substate.Selfdestructs()
	case ExitRevert:
		ex.handler.Revert(root.checkpoint)
		res.ReturnData = root.ret
	default: // ExitError, ExitFatal
		ex.handler.Revert(root.checkpoint)
		res.GasLeft = 0
	}
	res.GasUsed = ex.gasLimit - res.GasLeft
	if exit.Kind == ExitSucceed {
		refund := root.substate.Refund()
		if maxRefund := res.GasUsed / ex.fork.RefundQuotient; refund > maxRefund {
			refund = maxRefund
		}
		res.GasRefund = refund
	}
	if ex.cfg.Tracer != nil {
		ex.cfg.Tracer.OnExit(0, res.ReturnData, res.GasUsed, exit.Err, exit.Reverted())
	}
	root.release()
	return res
}

// finishPrecompile wraps a root-level native contract invocation.
func (ex *Executor) finishPrecompile(substate *Substate, checkpoint int, pres *PrecompileResult, gas uint64) *ExecutionResult {
	cres := ex.settlePrecompile(checkpoint, pres, gas)
	res := &ExecutionResult{
		GasLeft:    cres.GasLeft,
		ReturnData: cres.ReturnData,
	}
	if cres.Success {
		res.ExitReason = ExitReason{Kind: ExitSucceed, Succeed: SucceedReturned}
		res.Logs = substate.Logs()
		res.Selfdestructs = substate.Selfdestructs()
	} else {
		res.ExitReason = exitReasonForError(ErrOutOfGas)
	}
	res.GasUsed = gas - res.GasLeft
	if ex.cfg.Tracer != nil {
		ex.cfg.Tracer.OnExit(0, res.ReturnData, res.GasUsed, res.ExitReason.Err, false)
	}
	return res
}

// settlePrecompile charges the native contract's cost and commits or reverts
// around it. Failures consume all gas passed in.
func (ex *Executor) settlePrecompile(checkpoint int, pres *PrecompileResult, gas uint64) *CallResult {
	if !pres.Success || pres.GasCost > gas {
		ex.handler.Revert(checkpoint)
		return &CallResult{}
	}
	ex.handler.Commit(checkpoint)
	return &CallResult{
		Success:    true,
		GasLeft:    gas - pres.GasCost,
		ReturnData: pres.Output,
	}
}

// prewarm seeds the warm sets for a new execution.
func (ex *Executor) prewarm(substate *Substate, caller, target common.Address) {
	if !ex.fork.HasAccessLists {
		return
	}
	coinbase := ex.interp.block.Coinbase
	for _, addr := range []common.Address{caller, target, coinbase} {
		substate.MarkWarmAddress(addr)
		ex.handler.MarkWarm(addr, nil)
	}
}

func (ex *Executor) canTransfer(from common.Address, value *uint256.Int) (bool, error) {
	balance, err := ex.handler.Balance(from)
	if err != nil {
		return false, err
	}
	return balance.Cmp(value) >= 0, nil
}

func (ex *Executor) loadCode(addr common.Address) ([]byte, common.Hash, error) {
	code, err := ex.handler.Code(addr)
	if err != nil {
		return nil, common.Hash{}, err
	}
	if len(code) == 0 {
		return nil, common.Hash{}, nil
	}
	hash, err := ex.handler.CodeHash(addr)
	if err != nil {
		return nil, common.Hash{}, err
	}
	return code, hash, nil
}

func (ex *Executor) hasCollision(addr common.Address) (bool, error) {
	nonce, err := ex.handler.Nonce(addr)
	if err != nil {
		return false, err
	}
	if nonce != 0 {
		return true, nil
	}
	size, err := ex.handler.CodeSize(addr)
	if err != nil {
		return false, err
	}
	return size != 0, nil
}
