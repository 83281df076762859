package cpu

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOpcode                       = errors.New("invalid opcode")
	ErrInvalidAluOpcode                    = errors.New("invalid ALU opcode")
	ErrInvalidBusWriteAddr                 = errors.New("invalid bus write address")
	ErrInvalidBusReadAddr                  = errors.New("invalid bus read address")
	ErrAttemptedReadFromControlUnit        = errors.New("attempted read from control unit")
	ErrExecutionPointerExceededProgramSize = errors.New("execution pointer exceeded program size")
	ErrProgramTooLarge                     = errors.New("program too large")
	ErrDeviceStateMissing                  = errors.New("snapshot has no state for device")
)

// ExecutionError is returned by Step. Address is the execution pointer of the
// failing instruction and Value the offending field, where there is one.
type ExecutionError struct {
	Err     error
	Address uint16
	Value   uint8
}

func (e *ExecutionError) Error() string {
	switch e.Err {
	case ErrExecutionPointerExceededProgramSize, ErrAttemptedReadFromControlUnit:
		return fmt.Sprintf("%v at 0x%04X", e.Err, e.Address)
	}
	return fmt.Sprintf("%v 0x%X at 0x%04X", e.Err, e.Value, e.Address)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
