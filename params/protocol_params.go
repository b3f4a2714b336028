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

// Package params holds the gas cost schedule and the fork feature
// configuration consumed by the interpreter.
package params

const (
	StackLimit      uint64 = 1024 // Maximum size of VM stack allowed.
	CallCreateDepth uint64 = 1024 // Maximum depth of call/create stack.

	MemoryGas   uint64 = 3   // Times the address of the (highest referenced byte in memory + 1). NOTE: referencing happens on read, write and in instructions such as RETURN and CALL.
	QuadCoeffDiv uint64 = 512 // Divisor for the quadratic particle of the memory cost equation.
	CopyGas      uint64 = 3   // Multiplied by the number of words copied, rounded up.

	Keccak256Gas     uint64 = 30 // Once per KECCAK256 operation.
	Keccak256WordGas uint64 = 6  // Once per word of the KECCAK256 operation's data.

	LogGas      uint64 = 375 // Per LOG* operation.
	LogTopicGas uint64 = 375 // Multiplied by the * of the LOG*, per LOG transaction. e.g. LOG0 incurs 0 * c_txLogTopicGas, LOG4 incurs 4 * c_txLogTopicGas.
	LogDataGas  uint64 = 8   // Per byte in a LOG* operation's data.

	ExpGas      uint64 = 10 // Once per EXP instruction.
	JumpdestGas uint64 = 1  // Once per JUMPDEST operation.

	SstoreSetGas    uint64 = 20000 // Once per SSTORE operation from clean zero.
	SstoreResetGas  uint64 = 5000  // Once per SSTORE operation from clean non-zero.
	SstoreClearGas  uint64 = 5000  // Once per SSTORE operation from non-zero to zero.
	SstoreRefundGas uint64 = 15000 // Once per SSTORE operation if the zeroness changes to zero.

	NetSstoreNoopGas  uint64 = 200   // Once per SSTORE operation if the value doesn't change.
	NetSstoreInitGas  uint64 = 20000 // Once per SSTORE operation from clean zero.
	NetSstoreCleanGas uint64 = 5000  // Once per SSTORE operation from clean non-zero.
	NetSstoreDirtyGas uint64 = 200   // Once per SSTORE operation if the value changes again.

	NetSstoreClearRefund      uint64 = 15000 // Once per SSTORE operation for clearing an originally existing storage slot
	NetSstoreResetRefund      uint64 = 4800  // Once per SSTORE operation for resetting to the original non-zero value
	NetSstoreResetClearRefund uint64 = 19800 // Once per SSTORE operation for resetting to the original zero value

	SstoreSentryGasEIP2200 uint64 = 2300  // Minimum gas required to be present for an SSTORE call, not consumed
	SstoreSetGasEIP2200    uint64 = 20000 // Once per SSTORE operation from clean zero to non-zero
	SstoreResetGasEIP2200  uint64 = 5000  // Once per SSTORE operation from clean non-zero to something else

	SstoreClearsScheduleRefundEIP2200 uint64 = 15000 // Once per SSTORE operation for clearing an originally existing storage slot
	// In EIP-3529: SSTORE_CLEARS_SCHEDULE is defined as SSTORE_RESET_GAS + ACCESS_LIST_STORAGE_KEY_COST
	// Which becomes: 5000 - 2100 + 1900 = 4800
	SstoreClearsScheduleRefundEIP3529 uint64 = 4800

	ColdAccountAccessCostEIP2929 uint64 = 2600 // COLD_ACCOUNT_ACCESS_COST
	ColdSloadCostEIP2929         uint64 = 2100 // COLD_SLOAD_COST
	WarmStorageReadCostEIP2929   uint64 = 100  // WARM_STORAGE_READ_COST

	CallValueTransferGas   uint64 = 9000  // Paid for CALL when the value transfer is non-zero.
	CallNewAccountGas      uint64 = 25000 // Paid for CALL when the destination address didn't exist prior.
	CallStipend            uint64 = 2300  // Free gas given at beginning of call.
	CreateBySelfdestructGas uint64 = 25000 // Paid when SELFDESTRUCT sends funds to a previously non-existent account.

	CreateGas       uint64 = 32000 // Once per CREATE operation & contract-creation transaction.
	Create2Gas      uint64 = 32000 // Once per CREATE2 operation
	CreateDataGas   uint64 = 200   // Per byte of code deposited by a successful CREATE.
	InitCodeWordGas uint64 = 2     // Once per word of the init code when creating a contract.

	SelfdestructRefundGas uint64 = 24000 // Refunded following a selfdestruct operation.

	ExpByteFrontier uint64 = 10 // was raised to 50 during Eip158 (Spurious Dragon)
	ExpByteEIP158   uint64 = 50 // was raised to 50 during Eip158 (Spurious Dragon)

	BalanceGasFrontier     uint64 = 20 // The cost of a BALANCE operation
	ExtcodeSizeGasFrontier uint64 = 20 // Cost of EXTCODESIZE before EIP 150 (Tangerine)
	SloadGasFrontier       uint64 = 50
	CallGasFrontier        uint64 = 40 // Once per CALL operation & message call transaction.

	ExtcodeCopyBaseFrontier uint64 = 20
	ExtcodeCopyBaseEIP150   uint64 = 700

	RefundQuotient        uint64 = 2 // Maximum refund quotient; max refund is min(gas_used/2, refund_counter)
	RefundQuotientEIP3529 uint64 = 5 // Maximum refund quotient after EIP-3529

	MaxCodeSize     uint64 = 24576           // Maximum bytecode to permit for a contract
	MaxInitCodeSize uint64 = 2 * MaxCodeSize // Maximum initcode to permit in a creation transaction and create instructions

	BlobHashGas    uint64 = 3 // Cost of BLOBHASH opcode
	BlobBaseFeeGas uint64 = 2 // Cost of BLOBBASEFEE opcode

	IdentityBaseGas    uint64 = 15 // Base price for a data copy operation
	IdentityPerWordGas uint64 = 3  // Per-work price for a data copy operation
)
