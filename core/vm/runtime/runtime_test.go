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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/corevm/corevm/common"
	"github.com/corevm/corevm/core/vm"
	"github.com/corevm/corevm/crypto"
	"github.com/corevm/corevm/params"
)

func TestExecuteAdd(t *testing.T) {
	// PUSH1 0xff, PUSH1 0xff, ADD, then fall off the code end.
	result, _, err := Execute(common.Hex2Bytes("60ff60ff01"), nil, &Config{GasLimit: 100_000})
	require.NoError(t, err)
	require.True(t, result.ExitReason.Succeeded())
	require.Empty(t, result.ReturnData)
	require.Equal(t, uint64(9), result.GasUsed)
	require.Equal(t, uint64(100_000-9), result.GasLeft)
}

func TestExecuteOutOfGasOnMemoryBlowup(t *testing.T) {
	// PUSH1 0x00, PUSH2 0xffff, MSTORE: the expansion to 64 KiB costs far
	// more than the 100 gas supplied.
	result, _, err := Execute(common.Hex2Bytes("600061ffff5260006000f3"), nil, &Config{GasLimit: 100})
	require.NoError(t, err)
	require.Equal(t, vm.ExitError, result.ExitReason.Kind)
	require.ErrorIs(t, result.ExitReason.Err, vm.ErrOutOfGas)
	require.Equal(t, uint64(100), result.GasUsed, "an exceptional halt consumes everything")
	require.Zero(t, result.GasLeft)
	require.Empty(t, result.ReturnData)
}

func TestExecuteRevertPreservesGasAndData(t *testing.T) {
	payload := common.Hex2Bytes("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	code := append([]byte{byte(vm.PUSH32)}, payload...)
	code = append(code, common.Hex2Bytes("60005260206000fd")...)

	result, state, err := Execute(code, nil, &Config{GasLimit: 100_000})
	require.NoError(t, err)
	require.True(t, result.ExitReason.Reverted())
	require.Equal(t, payload, result.ReturnData)
	require.Less(t, result.GasUsed, uint64(100_000))
	require.NotZero(t, result.GasLeft)
	require.Empty(t, result.Logs)
	require.Empty(t, state.Logs())
}

func TestExecuteRevertDiscardsStateAndLogs(t *testing.T) {
	// SSTORE(0, 1), LOG0, REVERT(0, 0)
	result, state, err := Execute(common.Hex2Bytes("600160005560006000a060006000fd"), nil, &Config{GasLimit: 1_000_000})
	require.NoError(t, err)
	require.True(t, result.ExitReason.Reverted())
	require.Empty(t, result.Logs)

	addr := common.BytesToAddress([]byte("contract"))
	require.Equal(t, common.Hash{}, state.GetState(addr, common.Hash{}), "the reverted store is rolled back")
	require.Empty(t, state.Logs())
}

func TestExecuteCommitsStateAndLogs(t *testing.T) {
	// SSTORE(0, 1), LOG0, STOP
	result, state, err := Execute(common.Hex2Bytes("600160005560006000a000"), nil, &Config{GasLimit: 1_000_000})
	require.NoError(t, err)
	require.True(t, result.ExitReason.Succeeded())
	require.Len(t, result.Logs, 1)

	addr := common.BytesToAddress([]byte("contract"))
	require.Equal(t, common.BytesToHash([]byte{1}), state.GetState(addr, common.Hash{}))
	require.Len(t, state.Logs(), 1)
	require.Equal(t, addr, state.Logs()[0].Address)
}

func staticCallCode(callee common.Address) []byte {
	// STATICCALL(gas, callee, 0, 0, 0, 0): push retSize, retOffset,
	// argSize, argOffset, callee, gas.
	code := common.Hex2Bytes("6000600060006000")
	code = append(code, byte(vm.PUSH20))
	code = append(code, callee.Bytes()...)
	code = append(code, common.Hex2Bytes("620186a0fa")...)
	// Store the success flag and return it.
	code = append(code, common.Hex2Bytes("60005260206000f3")...)
	return code
}

func TestStaticCallViolation(t *testing.T) {
	callee := common.HexToAddress("0xcafe")
	state := NewStateHandler()
	// The callee attempts SSTORE(0, 1) under write protection.
	state.SetCode(callee, common.Hex2Bytes("6001600055"))

	caller := common.HexToAddress("0xdead")
	state.SetCode(caller, staticCallCode(callee))

	result, err := Call(caller, nil, &Config{State: state, GasLimit: 1_000_000})
	require.NoError(t, err)
	require.True(t, result.ExitReason.Succeeded(), "the parent survives the child's failure")
	require.Len(t, result.ReturnData, 32)
	require.Equal(t, common.Hash{}, common.BytesToHash(result.ReturnData), "the success flag is zero")
	require.Equal(t, common.Hash{}, state.GetState(callee, common.Hash{}), "no storage change leaks out")
}

func TestNestedCallReturnsData(t *testing.T) {
	callee := common.HexToAddress("0xcafe")
	state := NewStateHandler()
	// The callee returns the 32-byte word 0x2a.
	state.SetCode(callee, common.Hex2Bytes("602a60005260206000f3"))

	caller := common.HexToAddress("0xdead")
	// CALL(gas, callee, 0, 0, 0, 0, 32) and return the landing zone.
	code := common.Hex2Bytes("6020600060006000" + "6000")
	code = append(code, byte(vm.PUSH20))
	code = append(code, callee.Bytes()...)
	code = append(code, common.Hex2Bytes("620186a0f1")...)
	code = append(code, common.Hex2Bytes("60206000f3")...)
	state.SetCode(caller, code)

	result, err := Call(caller, nil, &Config{State: state, GasLimit: 1_000_000})
	require.NoError(t, err)
	require.True(t, result.ExitReason.Succeeded())
	require.Len(t, result.ReturnData, 32)
	require.Equal(t, byte(0x2a), result.ReturnData[31])
}

func TestNoRecursionFailsSubCalls(t *testing.T) {
	callee := common.HexToAddress("0xcafe")
	state := NewStateHandler()
	state.SetCode(callee, common.Hex2Bytes("00"))

	caller := common.HexToAddress("0xdead")
	state.SetCode(caller, staticCallCode(callee))

	result, err := Call(caller, nil, &Config{
		State:    state,
		GasLimit: 1_000_000,
		VMConfig: vm.Config{NoRecursion: true},
	})
	require.NoError(t, err)
	require.True(t, result.ExitReason.Succeeded())
	require.Equal(t, common.Hash{}, common.BytesToHash(result.ReturnData), "the disabled call reports failure")
}

func TestCreateDeploysCode(t *testing.T) {
	// Init code: MSTORE8(0, 0x2a), RETURN(0, 1) deploys the one-byte
	// program 0x2a.
	initCode := common.Hex2Bytes("602a60005360016000f3")

	cfg := &Config{GasLimit: 1_000_000, Origin: common.HexToAddress("0x42")}
	result, addr, err := Create(initCode, cfg)
	require.NoError(t, err)
	require.True(t, result.ExitReason.Succeeded())
	require.Equal(t, crypto.CreateAddress(cfg.Origin, 0), addr)
	require.Equal(t, []byte{0x2a}, cfg.State.GetCode(addr))
	require.Equal(t, uint64(1), cfg.State.GetNonce(cfg.Origin), "the creation bumps the creator nonce")
}

func TestCreate2Determinism(t *testing.T) {
	state := NewStateHandler()
	// MSTORE8(0, 0x00), CREATE2(0, 0, 1, 0), MSTORE(0, addr), RETURN(0, 32)
	code := common.Hex2Bytes("6000600053" + "6000" + "6001" + "6000" + "6000" + "f5" + "600052" + "60206000f3")
	// The zero address is the deploying contract, matching the canonical
	// CREATE2 vector for sender 0x00..00, salt 0, init code 0x00.
	state.SetCode(common.Address{}, code)

	result, err := Call(common.Address{}, nil, &Config{State: state, GasLimit: 1_000_000})
	require.NoError(t, err)
	require.True(t, result.ExitReason.Succeeded())
	require.Len(t, result.ReturnData, 32)
	require.Equal(t,
		common.HexToAddress("0x4d1a2e2bb4f88f0250f26ffff098b0b30b26bf38"),
		common.BytesToAddress(result.ReturnData[12:]))
}

func TestSelfdestructCancun(t *testing.T) {
	contract := common.HexToAddress("0xaaaa")
	heir := common.HexToAddress("0xbbbb")
	state := NewStateHandler()
	code := append([]byte{byte(vm.PUSH20)}, heir.Bytes()...)
	code = append(code, byte(vm.SELFDESTRUCT))
	state.SetCode(contract, code)
	state.SetBalance(contract, uint256.NewInt(100))

	result, err := Call(contract, nil, &Config{State: state, GasLimit: 1_000_000})
	require.NoError(t, err)
	require.True(t, result.ExitReason.Succeeded())
	require.Equal(t, uint64(100), state.GetBalance(heir).Uint64(), "the balance always moves")
	require.Empty(t, result.Selfdestructs, "a pre-existing account survives post-6780")
}

func TestSelfdestructPre6780(t *testing.T) {
	contract := common.HexToAddress("0xaaaa")
	heir := common.HexToAddress("0xbbbb")
	state := NewStateHandler()
	code := append([]byte{byte(vm.PUSH20)}, heir.Bytes()...)
	code = append(code, byte(vm.SELFDESTRUCT))
	state.SetCode(contract, code)
	state.SetBalance(contract, uint256.NewInt(100))

	result, err := Call(contract, nil, &Config{
		State:    state,
		GasLimit: 1_000_000,
		Fork:     params.ShanghaiConfig(),
	})
	require.NoError(t, err)
	require.True(t, result.ExitReason.Succeeded())
	require.Len(t, result.Selfdestructs, 1)
	require.Equal(t, contract, result.Selfdestructs[0].Address)
	require.Equal(t, heir, result.Selfdestructs[0].Beneficiary)

	state.Finalise(result.Selfdestructs)
	require.Nil(t, state.GetCode(contract), "finalising removes the destructed account")
}

// identity echoes its input, priced like the canonical data-copy contract.
type identity struct{}

func (identity) RequiredGas(input []byte) uint64 {
	return uint64(len(input)+31)/32*params.IdentityPerWordGas + params.IdentityBaseGas
}

func (identity) Run(input []byte) ([]byte, error) { return common.CopyBytes(input), nil }

func TestPrecompileShortCircuits(t *testing.T) {
	addr := common.BytesToAddress([]byte{4})
	state := NewStateHandler()
	state.SetPrecompile(addr, identity{})

	input := []byte("echo me")
	result, err := Call(addr, input, &Config{State: state, GasLimit: 10_000})
	require.NoError(t, err)
	require.True(t, result.ExitReason.Succeeded())
	require.Equal(t, input, result.ReturnData)
	require.Equal(t, uint64(params.IdentityBaseGas+params.IdentityPerWordGas), result.GasUsed)
}

func TestPrecompileOutOfGas(t *testing.T) {
	addr := common.BytesToAddress([]byte{4})
	state := NewStateHandler()
	state.SetPrecompile(addr, identity{})

	result, err := Call(addr, []byte("echo me"), &Config{State: state, GasLimit: 5})
	require.NoError(t, err)
	require.False(t, result.ExitReason.Succeeded())
	require.Equal(t, uint64(5), result.GasUsed)
	require.Zero(t, result.GasLeft)
}

func TestValueTransferInsufficientBalance(t *testing.T) {
	state := NewStateHandler()
	target := common.HexToAddress("0xcafe")
	state.SetCode(target, []byte{0x00})

	cfg := &Config{State: state, GasLimit: 100_000}
	cfg.Value = *uint256.NewInt(10)
	_, err := Call(target, nil, cfg)
	require.ErrorIs(t, err, vm.ErrInsufficientBalance)
}

func TestCallValueTransfer(t *testing.T) {
	state := NewStateHandler()
	origin := common.HexToAddress("0x42")
	target := common.HexToAddress("0xcafe")
	state.SetCode(target, []byte{0x00})
	state.SetBalance(origin, uint256.NewInt(1000))

	cfg := &Config{State: state, GasLimit: 100_000, Origin: origin}
	cfg.Value = *uint256.NewInt(10)
	result, err := Call(target, nil, cfg)
	require.NoError(t, err)
	require.True(t, result.ExitReason.Succeeded())
	require.Equal(t, uint64(990), state.GetBalance(origin).Uint64())
	require.Equal(t, uint64(10), state.GetBalance(target).Uint64())
}

func TestGasRemainingNeverIncreases(t *testing.T) {
	// A straight-line program observed through the struct logger: the gas
	// column must be non-increasing step over step.
	logger := vm.NewStructLogger(nil)
	_, _, err := Execute(common.Hex2Bytes("60ff60ff0160005260206000f3"), nil, &Config{
		GasLimit: 100_000,
		VMConfig: vm.Config{Tracer: logger},
	})
	require.NoError(t, err)

	logs := logger.StructLogs()
	require.NotEmpty(t, logs)
	for i := 1; i < len(logs); i++ {
		require.LessOrEqual(t, logs[i].Gas, logs[i-1].Gas)
	}
}
