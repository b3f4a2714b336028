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

	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/corevm/corevm/common"
	"github.com/corevm/corevm/crypto"
)

func TestJumpDestAnalysis(t *testing.T) {
	tests := []struct {
		code []byte
		data []uint64 // positions expected to be immediate data
	}{
		{[]byte{byte(PUSH1), 0x01, 0x01, 0x01}, []uint64{1}},
		{[]byte{byte(PUSH1), byte(PUSH1), byte(PUSH1), byte(PUSH1)}, []uint64{1, 3}},
		{[]byte{0x00, byte(PUSH1), 0x00, byte(PUSH1), 0x00}, []uint64{2, 4}},
		{[]byte{byte(PUSH8), 1, 2, 3, 4, 5, 6, 7, 8, byte(STOP)}, []uint64{1, 2, 3, 4, 5, 6, 7, 8}},
		{[]byte{byte(PUSH32)}, []uint64{1, 2, 3, 4, 5, 6, 7, 8}}, // truncated immediates still count
		{[]byte{byte(STOP), byte(STOP)}, nil},
	}
	for i, test := range tests {
		bits := codeBitmap(test.code)
		data := make(map[uint64]bool)
		for _, pos := range test.data {
			data[pos] = true
		}
		for pos := uint64(0); pos < uint64(len(test.code)); pos++ {
			require.Equalf(t, !data[pos], bits.codeSegment(pos), "test %d, position %d", i, pos)
		}
	}
}

func TestValidJumpdest(t *testing.T) {
	// PUSH1 0x5b, JUMPDEST, STOP
	code := []byte{byte(PUSH1), 0x5b, byte(JUMPDEST), byte(STOP)}
	contract := NewContract(common.Address{}, common.HexToAddress("0x0a"), new(uint256.Int), 0)
	contract.SetCallCode(contract.Address, crypto.Keccak256Hash(code), code)

	require.True(t, contract.validJumpdest(uint256.NewInt(2)))
	require.False(t, contract.validJumpdest(uint256.NewInt(1)), "0x5b inside push data is not a target")
	require.False(t, contract.validJumpdest(uint256.NewInt(0)))
	require.False(t, contract.validJumpdest(uint256.NewInt(3)), "STOP is not a target")
	require.False(t, contract.validJumpdest(uint256.NewInt(100)), "out of bounds")
	require.False(t, contract.validJumpdest(new(uint256.Int).Lsh(uint256.NewInt(1), 64)), "overflowing target")
}

func TestAnalysisIsTotal(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for i := 0; i < 50; i++ {
		var code []byte
		f.NumElements(0, 512).Fuzz(&code)
		bits := codeBitmap(code)
		for pos := uint64(0); pos < uint64(len(code)); pos++ {
			bits.codeSegment(pos) // must not panic on any byte string
		}
	}
}
