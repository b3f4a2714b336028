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
	"math"

	"github.com/corevm/corevm/common"
	"github.com/corevm/corevm/core/vm"
	"github.com/corevm/corevm/params"
	"github.com/holiman/uint256"
)

// Config is a basic type specifying certain configuration flags for running
// the interpreter.
type Config struct {
	Fork        *params.ForkConfig
	Origin      common.Address
	Coinbase    common.Address
	BlockNumber uint64
	Time        uint64
	GasLimit    uint64
	GasPrice    uint256.Int
	Value       uint256.Int
	Difficulty  uint256.Int
	Random      common.Hash
	BaseFee     uint256.Int
	BlobBaseFee uint256.Int
	BlobHashes  []common.Hash
	BlockHashFn func(n uint64) common.Hash

	State    *StateHandler
	VMConfig vm.Config
}

// sets defaults on the config
func setDefaults(cfg *Config) {
	if cfg.Fork == nil {
		cfg.Fork = params.CancunConfig()
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = math.MaxUint64
	}
	if cfg.State == nil {
		cfg.State = NewStateHandler()
	}
	cfg.State.block = vm.BlockContext{
		Coinbase:    cfg.Coinbase,
		Number:      cfg.BlockNumber,
		Timestamp:   cfg.Time,
		Difficulty:  cfg.Difficulty,
		Random:      cfg.Random,
		GasLimit:    cfg.GasLimit,
		BaseFee:     cfg.BaseFee,
		BlobBaseFee: cfg.BlobBaseFee,
	}
	cfg.State.tx = vm.TxContext{
		Origin:     cfg.Origin,
		GasPrice:   cfg.GasPrice,
		BlobHashes: cfg.BlobHashes,
	}
	cfg.State.blockHashFn = cfg.BlockHashFn
}

// Execute executes the code using the input as call data during the
// execution. It returns the executor's result, the in-memory state and an
// error if it failed.
//
// Execute sets up an in-memory environment if cfg.State is nil, deploys the
// code at a fixed address and calls it with the given input. It makes no
// attempt at charging the intrinsic transaction cost.
func Execute(code, input []byte, cfg *Config) (*vm.ExecutionResult, *StateHandler, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	address := common.BytesToAddress([]byte("contract"))
	cfg.State.SetCode(address, code)
	if !cfg.Value.IsZero() {
		cfg.State.SetBalance(cfg.Origin, &cfg.Value)
	}
	ex := vm.NewExecutor(cfg.Fork, cfg.State, cfg.VMConfig)
	result, err := ex.Call(cfg.Origin, address, input, cfg.GasLimit, &cfg.Value)
	return result, cfg.State, err
}

// Call executes the code of the account at address with the given input. It
// runs against cfg.State, which must be preloaded with the callee.
func Call(address common.Address, input []byte, cfg *Config) (*vm.ExecutionResult, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	ex := vm.NewExecutor(cfg.Fork, cfg.State, cfg.VMConfig)
	return ex.Call(cfg.Origin, address, input, cfg.GasLimit, &cfg.Value)
}

// Create runs the initcode and deploys the returned code into cfg.State.
func Create(input []byte, cfg *Config) (*vm.ExecutionResult, common.Address, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	if !cfg.Value.IsZero() {
		cfg.State.SetBalance(cfg.Origin, &cfg.Value)
	}
	ex := vm.NewExecutor(cfg.Fork, cfg.State, cfg.VMConfig)
	result, err := ex.Create(cfg.Origin, input, cfg.GasLimit, &cfg.Value)
	if err != nil {
		return result, common.Address{}, err
	}
	return result, result.CreatedAddress, nil
}
