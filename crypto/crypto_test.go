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

package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corevm/corevm/common"
)

func TestKeccak256EmptyInput(t *testing.T) {
	require.Equal(t,
		common.FromHex("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		Keccak256())
	require.Equal(t,
		common.FromHex("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		Keccak256(nil))
}

func TestKeccak256KnownVector(t *testing.T) {
	require.Equal(t,
		common.HexToHash("4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"),
		Keccak256Hash([]byte("abc")))
}

func TestHashDataMatchesKeccak256(t *testing.T) {
	kh := NewKeccakState()
	for _, msg := range [][]byte{nil, []byte("a"), []byte("hello world")} {
		require.Equal(t, Keccak256Hash(msg), HashData(kh, msg))
	}
}

func TestCreateAddress(t *testing.T) {
	// Nonce-based addresses follow the RLP(sender, nonce) derivation.
	sender := common.HexToAddress("0x970e8128ab834e8eac17ab8e3812f010678cf791")
	require.Equal(t,
		common.HexToAddress("0x333c3310824b7c685133f2bedb2ca4b8b4df633d"),
		CreateAddress(sender, 0))
	require.Equal(t,
		common.HexToAddress("0x8bda78331c916a08481428e4b07c96d3e916d165"),
		CreateAddress(sender, 1))
	require.Equal(t,
		common.HexToAddress("0xc9ddedf451bc62ce88bf9292afb13df35b670699"),
		CreateAddress(sender, 2))
}

func TestCreateAddress2(t *testing.T) {
	// Salt-based addresses: keccak256(0xff ++ sender ++ salt ++ keccak256(init))[12:].
	tests := []struct {
		sender   string
		salt     string
		initCode string
		expected string
	}{
		{
			"0x0000000000000000000000000000000000000000",
			"0x0000000000000000000000000000000000000000000000000000000000000000",
			"0x00",
			"0x4d1a2e2bb4f88f0250f26ffff098b0b30b26bf38",
		},
		{
			"0xdeadbeef00000000000000000000000000000000",
			"0x0000000000000000000000000000000000000000000000000000000000000000",
			"0x00",
			"0xb928f69bb1d91cd65274e3c79d8986362984fda3",
		},
		{
			"0x00000000000000000000000000000000deadbeef",
			"0x00000000000000000000000000000000000000000000000000000000cafebabe",
			"0xdeadbeef",
			"0x60f3f640a8508fc6a86d45df051962668e1e8ac7",
		},
		{
			"0x0000000000000000000000000000000000000000",
			"0x0000000000000000000000000000000000000000000000000000000000000000",
			"0x",
			"0xe33c0c7f7df4809055c3eba6c09cfe4baf1bd9e0",
		},
	}
	for i, tt := range tests {
		sender := common.HexToAddress(tt.sender)
		salt := common.HexToHash(tt.salt)
		got := CreateAddress2(sender, salt, Keccak256(common.FromHex(tt.initCode)))
		require.Equalf(t, common.HexToAddress(tt.expected), got, "test %d", i)
	}
}
