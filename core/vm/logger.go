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

package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/corevm/corevm/common"
	"github.com/holiman/uint256"
)

// Tracer receives a stream of events as execution proceeds. All hooks are
// optional in spirit but the interface keeps them mandatory to stay cheap on
// the hot path; embed NoopTracer to pick only the ones needed.
type Tracer interface {
	// OnEnter is called when a new frame starts executing, including the
	// root frame.
	OnEnter(depth int, scheme CallScheme, from, to common.Address, input []byte, gas uint64, value *uint256.Int)

	// OnExit is called when a frame terminates. reverted distinguishes a
	// clean revert from an exceptional failure.
	OnExit(depth int, output []byte, gasUsed uint64, err error, reverted bool)

	// OnOpcode is called before each instruction with the full cost already
	// charged.
	OnOpcode(pc uint64, op OpCode, gas, cost uint64, scope *ScopeContext, depth int)

	// OnFault is called when an instruction fails with an exceptional halt.
	OnFault(pc uint64, op OpCode, gas uint64, scope *ScopeContext, depth int, err error)
}

// NoopTracer implements Tracer doing nothing; embed it to override selected
// hooks.
type NoopTracer struct{}

func (NoopTracer) OnEnter(int, CallScheme, common.Address, common.Address, []byte, uint64, *uint256.Int) {
}
func (NoopTracer) OnExit(int, []byte, uint64, error, bool)                 {}
func (NoopTracer) OnOpcode(uint64, OpCode, uint64, uint64, *ScopeContext, int) {}
func (NoopTracer) OnFault(uint64, OpCode, uint64, *ScopeContext, int, error)   {}

// StructLog is emitted to the logger for each instruction.
type StructLog struct {
	Pc         uint64
	Op         OpCode
	Gas        uint64
	GasCost    uint64
	Memory     []byte
	MemorySize int
	Stack      []uint256.Int
	Depth      int
	Err        error
}

// ErrorString formats the log's error as a string.
func (s *StructLog) ErrorString() string {
	if s.Err != nil {
		return s.Err.Error()
	}
	return ""
}

// StructLogConfig are the configuration options for structured logging.
type StructLogConfig struct {
	EnableMemory bool // enable memory capture
	DisableStack bool // disable stack capture
	Limit        int  // maximum number of entries to keep, 0 means unlimited
}

// StructLogger collects one StructLog per executed instruction. It is not
// safe for concurrent use.
type StructLogger struct {
	NoopTracer

	cfg  StructLogConfig
	logs []StructLog
	err  error
}

// NewStructLogger returns a new logger.
func NewStructLogger(cfg *StructLogConfig) *StructLogger {
	logger := &StructLogger{}
	if cfg != nil {
		logger.cfg = *cfg
	}
	return logger
}

// Reset clears the collected log entries.
func (l *StructLogger) Reset() {
	l.logs = l.logs[:0]
	l.err = nil
}

// OnOpcode records a new structured log entry.
func (l *StructLogger) OnOpcode(pc uint64, op OpCode, gas, cost uint64, scope *ScopeContext, depth int) {
	if l.cfg.Limit != 0 && len(l.logs) >= l.cfg.Limit {
		return
	}
	log := StructLog{
		Pc:         pc,
		Op:         op,
		Gas:        gas,
		GasCost:    cost,
		MemorySize: scope.Memory.Len(),
		Depth:      depth,
	}
	if l.cfg.EnableMemory {
		log.Memory = common.CopyBytes(scope.Memory.Data())
	}
	if !l.cfg.DisableStack {
		log.Stack = append([]uint256.Int(nil), scope.Stack.Data()...)
	}
	l.logs = append(l.logs, log)
}

// OnFault attaches the halting error to the last recorded entry.
func (l *StructLogger) OnFault(pc uint64, op OpCode, gas uint64, scope *ScopeContext, depth int, err error) {
	if n := len(l.logs); n > 0 {
		l.logs[n-1].Err = err
	}
	l.err = err
}

// StructLogs returns the captured log entries.
func (l *StructLogger) StructLogs() []StructLog { return l.logs }

// Error returns the VM error captured by the trace, if any.
func (l *StructLogger) Error() error { return l.err }

// WriteTrace writes a formatted trace to the given writer.
func WriteTrace(writer io.Writer, logs []StructLog) {
	for _, log := range logs {
		fmt.Fprintf(writer, "%-16spc=%08d gas=%v cost=%v", log.Op, log.Pc, log.Gas, log.GasCost)
		if log.Err != nil {
			fmt.Fprintf(writer, " ERROR: %v", log.Err)
		}
		fmt.Fprintln(writer)

		if len(log.Stack) > 0 {
			fmt.Fprintln(writer, "Stack:")
			for i := len(log.Stack) - 1; i >= 0; i-- {
				fmt.Fprintf(writer, "%08d  %s\n", len(log.Stack)-i-1, log.Stack[i].Hex())
			}
		}
		if len(log.Memory) > 0 {
			fmt.Fprintln(writer, "Memory:")
			fmt.Fprint(writer, formatMemory(log.Memory))
		}
		fmt.Fprintln(writer)
	}
}

func formatMemory(mem []byte) string {
	var sb strings.Builder
	for i := 0; i+32 <= len(mem); i += 32 {
		fmt.Fprintf(&sb, "%04d: %x\n", i, mem[i:i+32])
	}
	return sb.String()
}
