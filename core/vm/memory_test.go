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

func TestMemoryResizeAndSet(t *testing.T) {
	m := NewMemory()
	require.Zero(t, m.Len())

	m.Resize(64)
	require.Equal(t, 64, m.Len())

	m.Set(32, 4, []byte{1, 2, 3, 4})
	require.Equal(t, []byte{1, 2, 3, 4}, m.GetCopy(32, 4))

	// Resizing never shrinks.
	m.Resize(32)
	require.Equal(t, 64, m.Len())
}

func TestMemorySet32(t *testing.T) {
	m := NewMemory()
	m.Resize(64)

	v := uint256.NewInt(0xdead)
	m.Set32(16, v)
	got := m.GetCopy(16, 32)
	require.Equal(t, byte(0xde), got[30])
	require.Equal(t, byte(0xad), got[31])
	for _, b := range got[:30] {
		require.Zero(t, b, "high bytes are zero padded")
	}
}

func TestMemoryGetCopyIsDetached(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set(0, 2, []byte{7, 7})

	cpy := m.GetCopy(0, 2)
	cpy[0] = 9
	require.Equal(t, byte(7), m.Data()[0])

	ptr := m.GetPtr(0, 2)
	ptr[0] = 9
	require.Equal(t, byte(9), m.Data()[0])
}

func TestMemoryCopyOverlap(t *testing.T) {
	tests := []struct {
		dst, src, len uint64
		pre           string
		want          string
	}{
		{0, 0, 0, "", ""},
		{0, 2, 2, "aabbccdd", "ccddccdd"},
		{2, 0, 2, "aabbccdd", "aabbaabb"},
		{1, 0, 3, "aabbccdd", "aaaabbcc"},
		{0, 1, 3, "aabbccdd", "bbccdddd"},
	}
	for i, tc := range tests {
		m := NewMemory()
		if len(tc.pre) > 0 {
			m.Resize(uint64(len(tc.pre) / 2))
			m.Set(0, uint64(len(tc.pre)/2), hexToBytes(tc.pre))
		}
		m.Copy(tc.dst, tc.src, tc.len)
		require.Equalf(t, hexToBytes(tc.want), m.Data(), "test %d", i)
	}
}

func hexToBytes(s string) []byte {
	if s == "" {
		return nil
	}
	b := make([]byte, len(s)/2)
	for i := range b {
		b[i] = fromHexChar(s[2*i])<<4 | fromHexChar(s[2*i+1])
	}
	return b
}

func fromHexChar(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	default:
		return c - 'a' + 10
	}
}

func TestMemoryWordRoundTrip(t *testing.T) {
	f := fuzz.New().NilChance(0)
	m := NewMemory()
	m.Resize(32 * 128)

	for i := 0; i < 128; i++ {
		var w [32]byte
		f.Fuzz(&w)
		v := new(uint256.Int).SetBytes(w[:])
		m.Set32(uint64(i)*32, v)

		got := new(uint256.Int).SetBytes(m.GetCopy(uint64(i)*32, 32))
		require.Zero(t, v.Cmp(got))
		require.Len(t, m.GetCopy(uint64(i)*32, 32), 32)
	}
}
