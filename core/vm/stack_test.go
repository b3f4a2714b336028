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
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestStackPushPop(t *testing.T) {
	st := newstack()
	defer returnStack(st)

	for i := uint64(1); i <= 5; i++ {
		st.push(uint256.NewInt(i))
	}
	require.Equal(t, 5, st.len())
	require.Equal(t, uint64(5), st.peek().Uint64())
	require.Equal(t, uint64(3), st.Back(2).Uint64())

	for i := uint64(5); i >= 1; i-- {
		v := st.pop()
		require.Equal(t, i, v.Uint64())
	}
	require.Zero(t, st.len())
}

func TestStackDup(t *testing.T) {
	st := newstack()
	defer returnStack(st)

	st.push(uint256.NewInt(11))
	st.push(uint256.NewInt(22))
	st.dup(2)
	require.Equal(t, 3, st.len())
	require.Equal(t, uint64(11), st.peek().Uint64())
}

func TestStackSwap(t *testing.T) {
	st := newstack()
	defer returnStack(st)

	for i := uint64(1); i <= 17; i++ {
		st.push(uint256.NewInt(i))
	}
	st.swap1()
	require.Equal(t, uint64(16), st.peek().Uint64())
	st.swap1()
	st.swap16()
	require.Equal(t, uint64(1), st.peek().Uint64())
	require.Equal(t, uint64(17), st.Back(16).Uint64())
}

func TestStackPooledReuseIsClean(t *testing.T) {
	st := newstack()
	st.push(uint256.NewInt(1))
	returnStack(st)

	st2 := newstack()
	defer returnStack(st2)
	require.Zero(t, st2.len(), "pooled stacks come back empty")
}

func TestStackRandomRoundTrip(t *testing.T) {
	f := fuzz.New().NilChance(0)
	st := newstack()
	defer returnStack(st)

	var words [][32]byte
	f.NumElements(64, 64).Fuzz(&words)
	for _, w := range words {
		st.push(new(uint256.Int).SetBytes(w[:]))
	}
	for i := len(words) - 1; i >= 0; i-- {
		v := st.pop()
		b := v.Bytes32()
		require.Equal(t, words[i], b)
	}
}
