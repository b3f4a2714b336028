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

import "errors"

// ExitKind is the top-level classification of a frame's terminal state.
type ExitKind uint8

const (
	// ExitSucceed: the frame ended normally, unused gas is returned and the
	// substate merges into the parent.
	ExitSucceed ExitKind = iota
	// ExitRevert: explicit REVERT, unused gas is returned, the substate is
	// dropped and the revert data propagates.
	ExitRevert
	// ExitError: exceptional halt, all remaining gas is consumed and the
	// substate is dropped. The parent observes a failed call and continues.
	ExitError
	// ExitFatal: the whole execution aborts without a state commit.
	ExitFatal
)

// SucceedReason refines ExitSucceed.
type SucceedReason uint8

const (
	SucceedStopped SucceedReason = iota
	SucceedReturned
	SucceedSelfdestructed
)

// ExitReason describes why a frame (or the whole execution) terminated.
// Err is nil exactly when Kind is ExitSucceed; for ExitRevert it is
// ErrExecutionReverted; for ExitError and ExitFatal it is one of the typed
// errors of this package.
type ExitReason struct {
	Kind    ExitKind
	Succeed SucceedReason
	Err     error
}

// Succeeded reports a normal termination.
func (e ExitReason) Succeeded() bool { return e.Kind == ExitSucceed }

// Reverted reports an explicit REVERT termination.
func (e ExitReason) Reverted() bool { return e.Kind == ExitRevert }

// IsFatal reports an execution-aborting failure.
func (e ExitReason) IsFatal() bool { return e.Kind == ExitFatal }

func (e ExitReason) String() string {
	switch e.Kind {
	case ExitSucceed:
		switch e.Succeed {
		case SucceedReturned:
			return "returned"
		case SucceedSelfdestructed:
			return "selfdestructed"
		default:
			return "stopped"
		}
	case ExitRevert:
		return "reverted"
	case ExitError:
		return "error: " + e.Err.Error()
	case ExitFatal:
		return "fatal: " + e.Err.Error()
	}
	return "unknown"
}

// exitReasonForError classifies an execution error into the exit taxonomy.
func exitReasonForError(err error) ExitReason {
	switch {
	case err == nil:
		return ExitReason{Kind: ExitSucceed, Succeed: SucceedStopped}
	case errors.Is(err, ErrExecutionReverted):
		return ExitReason{Kind: ExitRevert, Err: ErrExecutionReverted}
	case errors.Is(err, ErrHostAbort), errors.Is(err, ErrUnhandledInterrupt):
		return ExitReason{Kind: ExitFatal, Err: err}
	default:
		return ExitReason{Kind: ExitError, Err: err}
	}
}
