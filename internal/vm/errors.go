package vm

import (
	"errors"
	"fmt"
)

var (
	// ErrStackOverflow is reported when a subroutine call would exceed the
	// call stack capacity.
	ErrStackOverflow = errors.New("stack overflow")

	// ErrStackUnderflow is reported when a return is executed with no
	// pending subroutine call.
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrProgramTooLarge is reported when a program image does not fit into
	// the memory above ProgramStart.
	ErrProgramTooLarge = errors.New("program too large")
)

// InvalidOpcodeError reports an instruction word that matches no known
// encoding.
type InvalidOpcodeError struct {
	Opcode uint16
}

func (e *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("invalid opcode 0x%04X", e.Opcode)
}

// OutOfBoundsError reports a computed address outside the 4K address space.
type OutOfBoundsError struct {
	Addr uint16
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("memory address 0x%04X out of bounds", e.Addr)
}
