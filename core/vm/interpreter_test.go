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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/corevm/corevm/common"
	"github.com/corevm/corevm/crypto"
	"github.com/corevm/corevm/params"
)

func newTestFrame(t *testing.T, code []byte, gas uint64, readOnly bool) (*Interpreter, *Frame) {
	t.Helper()
	host := newHostStub()
	in := NewInterpreter(params.CancunConfig(), host, Config{})
	addr := common.HexToAddress("0x0a")
	contract := NewContract(common.HexToAddress("0x01"), addr, new(uint256.Int), gas)
	contract.SetCallCode(addr, crypto.Keccak256Hash(code), code)
	return in, NewFrame(contract, newSubstate(nil), 0, readOnly)
}

func TestStepArithmetic(t *testing.T) {
	// PUSH1 0xff, PUSH1 0xff, ADD
	in, f := newTestFrame(t, common.Hex2Bytes("60ff60ff01"), 100_000, false)

	for i := 0; i < 3; i++ {
		in.Step(f)
		require.Equal(t, FrameRunning, f.Status())
	}
	require.Equal(t, uint64(100_000-9), f.Gas())
	require.Equal(t, "0x1fe", f.Scope().Stack.peek().Hex())
}

func TestStepStackUnderflow(t *testing.T) {
	in, f := newTestFrame(t, []byte{byte(ADD)}, 100_000, false)

	in.Step(f)
	require.Equal(t, FrameExited, f.Status())
	require.Equal(t, ExitError, f.Exit().Kind)
	require.Zero(t, f.Gas(), "exceptional halt must consume the remaining gas")
}

func TestStepOutOfGas(t *testing.T) {
	in, f := newTestFrame(t, common.Hex2Bytes("60ff"), 2, false)

	in.Step(f)
	require.Equal(t, FrameExited, f.Status())
	require.ErrorIs(t, f.Exit().Err, ErrOutOfGas)
	require.Zero(t, f.Gas())
}

func TestColdSloadSuspends(t *testing.T) {
	// PUSH1 0x00, SLOAD
	in, f := newTestFrame(t, common.Hex2Bytes("600054"), 100_000, false)

	in.Step(f)
	in.Step(f)
	require.Equal(t, FrameSuspended, f.Status())

	intr := f.Interrupt()
	require.NotNil(t, intr)
	require.Equal(t, InterruptQuery, intr.Kind)
	require.Equal(t, QueryStorage, intr.Query.Kind)
	require.Equal(t, f.Contract().Address, intr.Query.Address)
	require.Equal(t, common.Hash{}, intr.Query.Slot)

	// The program counter stays on the suspending instruction.
	require.Equal(t, uint64(2), f.PC())

	var answer QueryResult
	answer.Word.SetUint64(42)
	in.Resume(f, ResumeValue{Query: &answer})
	require.Equal(t, FrameRunning, f.Status())
	require.Equal(t, uint64(3), f.PC())
	require.Equal(t, uint64(42), f.Scope().Stack.peek().Uint64())
}

func TestWarmSloadReadsSynchronously(t *testing.T) {
	host := newHostStub()
	addr := common.HexToAddress("0x0a")
	slot := common.Hash{}
	value := common.BytesToHash([]byte{0x07})
	require.NoError(t, host.SetStorage(addr, slot, value))

	in := NewInterpreter(params.CancunConfig(), host, Config{})
	code := common.Hex2Bytes("600054")
	contract := NewContract(common.HexToAddress("0x01"), addr, new(uint256.Int), 100_000)
	contract.SetCallCode(addr, crypto.Keccak256Hash(code), code)
	f := NewFrame(contract, newSubstate(nil), 0, false)
	f.substate.MarkWarmSlot(addr, slot)

	in.Step(f)
	in.Step(f)
	require.Equal(t, FrameRunning, f.Status())
	require.Equal(t, uint64(7), f.Scope().Stack.peek().Uint64())
}

func TestCallSuspendsWithCarvedGas(t *testing.T) {
	target := common.HexToAddress("0xbb")

	// PUSH1 x6 (ret size/offset, arg size/offset, value, addr), PUSH3 gas, CALL.
	code := common.Hex2Bytes("60006000600060006000" + "60bb" + "62030d40" + "f1")
	// 7 pushes cost 21 gas; the warm CALL constant is 100, leaving 64_000
	// available for the carve-out: forwarded = 64_000 - 64_000/64 = 63_000.
	in, f := newTestFrame(t, code, 64_121, false)
	f.substate.MarkWarmAddress(target)

	for i := 0; i < 7; i++ {
		in.Step(f)
		require.Equal(t, FrameRunning, f.Status())
	}
	in.Step(f)
	require.Equal(t, FrameSuspended, f.Status())

	intr := f.Interrupt()
	require.Equal(t, InterruptCall, intr.Kind)
	require.Equal(t, SchemeCall, intr.Call.Scheme)
	require.Equal(t, target, intr.Call.Target)
	require.Equal(t, uint64(63_000), intr.Call.Gas)
	require.Equal(t, uint64(1_000), f.Gas(), "caller retains the 64th while the child runs")

	in.Resume(f, ResumeValue{Call: &CallResult{Success: true, GasLeft: 62_000}})
	require.Equal(t, FrameRunning, f.Status())
	require.Equal(t, uint64(1), f.Scope().Stack.peek().Uint64())
	require.Equal(t, uint64(63_000), f.Gas())
}

func TestStaticFrameRejectsSstore(t *testing.T) {
	// PUSH1 0x01, PUSH1 0x00, SSTORE under write protection.
	in, f := newTestFrame(t, common.Hex2Bytes("6001600055"), 100_000, true)

	in.Step(f)
	in.Step(f)
	in.Step(f)
	require.Equal(t, FrameExited, f.Status())
	require.ErrorIs(t, f.Exit().Err, ErrWriteProtection)
	require.Zero(t, f.Gas())
}

func TestResumeWithWrongKindFails(t *testing.T) {
	in, f := newTestFrame(t, common.Hex2Bytes("600054"), 100_000, false)

	in.Step(f)
	in.Step(f)
	require.Equal(t, FrameSuspended, f.Status())

	in.Resume(f, ResumeValue{Call: &CallResult{Success: true}})
	require.Equal(t, FrameExited, f.Status())
	require.ErrorIs(t, f.Exit().Err, ErrUnhandledInterrupt)
	require.Equal(t, ExitFatal, f.Exit().Kind)
}

func TestInvalidJumpFails(t *testing.T) {
	// PUSH1 0x03, JUMP: target 3 is not a JUMPDEST.
	in, f := newTestFrame(t, common.Hex2Bytes("600356"), 100_000, false)

	in.Step(f)
	in.Step(f)
	require.Equal(t, FrameExited, f.Status())
	require.ErrorIs(t, f.Exit().Err, ErrInvalidJump)
}

func TestJumpOverPushData(t *testing.T) {
	// PUSH1 0x05, JUMP, PUSH1 0x5b(data), JUMPDEST, PUSH1 0x01
	in, f := newTestFrame(t, common.Hex2Bytes("600556605b5b6001"), 100_000, false)

	in.Step(f)
	in.Step(f)
	require.Equal(t, FrameRunning, f.Status())
	require.Equal(t, uint64(5), f.PC())

	in.Step(f) // JUMPDEST
	in.Step(f) // PUSH1 0x01
	require.Equal(t, uint64(1), f.Scope().Stack.peek().Uint64())
}

func TestBlockhashOutOfWindowIsLocal(t *testing.T) {
	host := newHostStub()
	host.block.Number = 1000

	in := NewInterpreter(params.CancunConfig(), host, Config{})
	addr := common.HexToAddress("0x0a")
	// PUSH2 0x1234 (future block), BLOCKHASH
	code := common.Hex2Bytes("61123440")
	contract := NewContract(common.HexToAddress("0x01"), addr, new(uint256.Int), 100_000)
	contract.SetCallCode(addr, crypto.Keccak256Hash(code), code)
	f := NewFrame(contract, newSubstate(nil), 0, false)

	in.Step(f)
	in.Step(f)
	require.Equal(t, FrameRunning, f.Status(), "out-of-window lookups answer locally")
	require.True(t, f.Scope().Stack.peek().IsZero())
}

func TestBlockhashInWindowSuspends(t *testing.T) {
	host := newHostStub()
	host.block.Number = 1000

	in := NewInterpreter(params.CancunConfig(), host, Config{})
	addr := common.HexToAddress("0x0a")
	// PUSH2 999, BLOCKHASH
	code := common.Hex2Bytes("6103e740")
	contract := NewContract(common.HexToAddress("0x01"), addr, new(uint256.Int), 100_000)
	contract.SetCallCode(addr, crypto.Keccak256Hash(code), code)
	f := NewFrame(contract, newSubstate(nil), 0, false)

	in.Step(f)
	in.Step(f)
	require.Equal(t, FrameSuspended, f.Status())
	require.Equal(t, QueryBlockHash, f.Interrupt().Query.Kind)
	require.Equal(t, uint64(999), f.Interrupt().Query.BlockNumber)
}

func TestRevertReturnsData(t *testing.T) {
	// PUSH1 0xaa, PUSH1 0x00, MSTORE, PUSH1 0x20, PUSH1 0x00, REVERT
	in, f := newTestFrame(t, common.Hex2Bytes("60aa60005260206000fd"), 100_000, false)

	for f.Status() == FrameRunning {
		in.Step(f)
	}
	require.Equal(t, FrameExited, f.Status())
	require.Equal(t, ExitRevert, f.Exit().Kind)
	require.Len(t, f.ReturnData(), 32)
	require.Equal(t, byte(0xaa), f.ReturnData()[31])
	require.NotZero(t, f.Gas(), "revert returns the unused gas")
}
