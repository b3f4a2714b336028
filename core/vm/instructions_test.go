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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/corevm/corevm/common"
	"github.com/corevm/corevm/crypto"
	"github.com/corevm/corevm/params"
)

type twoOperandTestcase struct {
	X        string
	Y        string
	Expected string
}

func testScope(gas uint64) (*Interpreter, *ScopeContext) {
	in := NewInterpreter(params.CancunConfig(), newHostStub(), Config{})
	addr := common.HexToAddress("0x0a")
	contract := NewContract(common.HexToAddress("0x01"), addr, new(uint256.Int), gas)
	f := NewFrame(contract, newSubstate(nil), 0, false)
	return in, f.Scope()
}

// testTwoOperandOp pushes X then Y and expects the result on the stack top.
// The operand naming follows the stack order: Y is popped first.
func testTwoOperandOp(t *testing.T, tests []twoOperandTestcase, opFn executionFunc, name string) {
	t.Helper()
	in, scope := testScope(0)
	stack := scope.Stack
	var pc uint64

	for i, test := range tests {
		x := new(uint256.Int).SetBytes(common.Hex2Bytes(test.X))
		y := new(uint256.Int).SetBytes(common.Hex2Bytes(test.Y))
		expected := new(uint256.Int).SetBytes(common.Hex2Bytes(test.Expected))
		stack.push(x)
		stack.push(y)
		_, err := opFn(&pc, in, scope)
		require.NoError(t, err)
		actual := stack.pop()
		require.Equalf(t, expected, &actual, "testcase %v %d: %v %v", name, i, test.X, test.Y)
	}
}

func TestOpAdd(t *testing.T) {
	tests := []twoOperandTestcase{
		{"ff", "ff", "01fe"},
		{"00", "00", "00"},
		{"ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", "01", "00"},
	}
	testTwoOperandOp(t, tests, opAdd, "add")
}

func TestOpSub(t *testing.T) {
	tests := []twoOperandTestcase{
		// y - x with y on top.
		{"01", "03", "02"},
		{"03", "01", "fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffe"},
	}
	testTwoOperandOp(t, tests, opSub, "sub")
}

func TestOpDiv(t *testing.T) {
	tests := []twoOperandTestcase{
		{"02", "06", "03"},
		{"00", "06", "00"}, // division by zero yields zero
	}
	testTwoOperandOp(t, tests, opDiv, "div")
}

func TestOpSdiv(t *testing.T) {
	intMin := "8000000000000000000000000000000000000000000000000000000000000000"
	minusOne := "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
	tests := []twoOperandTestcase{
		{minusOne, intMin, intMin}, // INT_MIN / -1 overflows back to INT_MIN
		{"00", "05", "00"},
	}
	testTwoOperandOp(t, tests, opSdiv, "sdiv")
}

func TestOpMod(t *testing.T) {
	tests := []twoOperandTestcase{
		{"03", "07", "01"},
		{"00", "07", "00"}, // modulo zero yields zero
	}
	testTwoOperandOp(t, tests, opMod, "mod")
}

func TestOpSLT(t *testing.T) {
	minusOne := "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
	tests := []twoOperandTestcase{
		{"01", minusOne, "01"}, // -1 < 1
		{minusOne, "01", "00"},
		{minusOne, minusOne, "00"},
	}
	testTwoOperandOp(t, tests, opSlt, "slt")
}

func TestOpSGT(t *testing.T) {
	minusOne := "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
	tests := []twoOperandTestcase{
		{minusOne, "01", "01"}, // 1 > -1
		{"01", minusOne, "00"},
	}
	testTwoOperandOp(t, tests, opSgt, "sgt")
}

func TestOpByte(t *testing.T) {
	tests := []twoOperandTestcase{
		{"102030405060708090a0b0c0d0e0ff00", "1e", "ff"},
		{"ab", "20", "00"}, // index out of range
	}
	testTwoOperandOp(t, tests, opByte, "byte")
}

func TestOpSHL(t *testing.T) {
	tests := []twoOperandTestcase{
		{"01", "01", "02"},
		{"01", "0100", "00"}, // shift of 256 clears
	}
	testTwoOperandOp(t, tests, opSHL, "shl")
}

func TestOpSHR(t *testing.T) {
	tests := []twoOperandTestcase{
		{"04", "01", "02"},
		{"04", "0100", "00"},
	}
	testTwoOperandOp(t, tests, opSHR, "shr")
}

func TestOpSAR(t *testing.T) {
	minusOne := "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
	tests := []twoOperandTestcase{
		{minusOne, "01", minusOne},   // sign extends
		{minusOne, "0100", minusOne}, // oversized shift of a negative collapses to -1
		{"04", "0100", "00"},         // oversized shift of a positive collapses to 0
		{"08", "02", "02"},
	}
	testTwoOperandOp(t, tests, opSAR, "sar")
}

func TestOpSignExtend(t *testing.T) {
	tests := []twoOperandTestcase{
		{"ff", "00", "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"},
		{"7f", "00", "7f"},
	}
	testTwoOperandOp(t, tests, opSignExtend, "signextend")
}

func TestOpExpEdgeCases(t *testing.T) {
	in, scope := testScope(0)
	stack := scope.Stack
	var pc uint64

	// a^0 = 1, including 0^0.
	for _, base := range []uint64{0, 1, 77} {
		stack.push(new(uint256.Int)) // exponent
		stack.push(new(uint256.Int).SetUint64(base))
		_, err := opExp(&pc, in, scope)
		require.NoError(t, err)
		v := stack.pop()
		require.Equal(t, uint64(1), v.Uint64())
	}
	// 0^b = 0 for b > 0.
	stack.push(new(uint256.Int).SetUint64(5)) // exponent
	stack.push(new(uint256.Int))
	_, err := opExp(&pc, in, scope)
	require.NoError(t, err)
	v := stack.pop()
	require.True(t, v.IsZero())
}

func TestOpMstore(t *testing.T) {
	in, scope := testScope(0)
	stack := scope.Stack
	scope.Memory.Resize(64)
	var pc uint64

	v := "abcdef00000000000000abba000000000deaf000000c0de00100000000133700"
	stack.push(new(uint256.Int).SetBytes(common.Hex2Bytes(v)))
	stack.push(new(uint256.Int)) // offset 0 on top
	_, err := opMstore(&pc, in, scope)
	require.NoError(t, err)
	require.Equal(t, common.Hex2Bytes(v), scope.Memory.GetCopy(0, 32))
}

func TestOpMstore8(t *testing.T) {
	in, scope := testScope(0)
	stack := scope.Stack
	scope.Memory.Resize(32)
	var pc uint64

	stack.push(new(uint256.Int).SetUint64(0xffab))
	stack.push(new(uint256.Int).SetUint64(3))
	_, err := opMstore8(&pc, in, scope)
	require.NoError(t, err)
	require.Equal(t, byte(0xab), scope.Memory.Data()[3], "only the low byte lands")
}

func TestOpKeccak256EmptyRegion(t *testing.T) {
	in, scope := testScope(0)
	stack := scope.Stack
	var pc uint64

	stack.push(new(uint256.Int)) // size 0
	stack.push(new(uint256.Int)) // offset 0 on top
	_, err := opKeccak256(&pc, in, scope)
	require.NoError(t, err)
	v := stack.pop()
	require.Equal(t,
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		common.Hash(v.Bytes32()).Hex()[2:])
}

func TestOpSelfBalanceReadsHost(t *testing.T) {
	host := newHostStub()
	addr := common.HexToAddress("0x0a")
	host.balances[addr] = *uint256.NewInt(1234)

	in := NewInterpreter(params.CancunConfig(), host, Config{})
	contract := NewContract(common.HexToAddress("0x01"), addr, new(uint256.Int), 0)
	f := NewFrame(contract, newSubstate(nil), 0, false)
	var pc uint64

	_, err := opSelfBalance(&pc, in, f.Scope())
	require.NoError(t, err)
	require.Equal(t, uint64(1234), f.Scope().Stack.peek().Uint64())
}

func TestMakePushPadsShortCode(t *testing.T) {
	in, scope := testScope(0)
	code := common.Hex2Bytes("7f0102")
	scope.Contract.SetCallCode(scope.Contract.Address, crypto.Keccak256Hash(code), code)
	var pc uint64

	op := makePush(32, 32)
	_, err := op(&pc, in, scope)
	require.NoError(t, err)
	v := scope.Stack.pop()
	// The missing immediate bytes read as zero.
	expected := new(uint256.Int).SetBytes(common.RightPadBytes([]byte{0x01, 0x02}, 32))
	require.Equal(t, expected, &v)
}
