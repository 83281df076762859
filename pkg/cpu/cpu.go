package cpu

import (
	"fmt"
	"strings"
)

// AddressSpace is the size of every memory region and of program memory.
const AddressSpace = 0x10000

// CallStackDepth is the number of return addresses the call stack holds.
const CallStackDepth = 256

const (
	OpMOVE   uint8 = 0x0
	OpWRITE  uint8 = 0x1
	OpGOTO   uint8 = 0x2
	OpGOTOIF uint8 = 0x3
	OpHALT   uint8 = 0x4
	OpCALL   uint8 = 0x5
	OpRETURN uint8 = 0x6
)

// Bus sources: components that drive the bus during a MOVE.
const (
	SrcStackPop        uint8 = 0x0
	SrcStackNoPop      uint8 = 0x1
	SrcALU             uint8 = 0x2
	SrcControlUnit     uint8 = 0x3 // the WRITE immediate port; not readable by MOVE
	SrcStackOffsetRead uint8 = 0x4
	SrcGPRAM           uint8 = 0x5
	SrcGPRAMIncAddr    uint8 = 0x6
	SrcGPRAMAddrA      uint8 = 0x7
	SrcGPRAMAddrB      uint8 = 0x8
	SrcGPIOReadA       uint8 = 0x9
	SrcGPIOReadB       uint8 = 0xA
	SrcClockA          uint8 = 0xB
	SrcClockB          uint8 = 0xC
)

// Bus destinations: components that latch the bus value.
const (
	DstNone             uint8 = 0x0
	DstStackPush        uint8 = 0x1
	DstALUA             uint8 = 0x2
	DstALUB             uint8 = 0x3
	DstALUC             uint8 = 0x4
	DstGotoA            uint8 = 0x5
	DstGotoB            uint8 = 0x6
	DstGotoDecider      uint8 = 0x7
	DstGPRAM            uint8 = 0x8
	DstGPRAMIncAddr     uint8 = 0x9
	DstGPRAMAddrA       uint8 = 0xA
	DstGPRAMAddrB       uint8 = 0xB
	DstGPIOWriteA       uint8 = 0xC
	DstGPIOWriteB       uint8 = 0xD
	DstStackOffset      uint8 = 0xE
	DstStackOffsetWrite uint8 = 0xF
)

// Machine is the complete state of the computer. Every region is allocated
// for the full address space up front.
type Machine struct {
	Program     [AddressSpace]uint16
	ProgramSize int

	StackMem   [AddressSpace]byte
	GeneralMem [AddressSpace]byte

	Stack StackController
	GPRAM GeneralMemController
	ALU   ALU

	CallStack [CallStackDepth]uint16
	CallTop   uint8

	// GotoA and GotoB hold the low and high byte of the pending jump target.
	GotoA   uint8
	GotoB   uint8
	Decider bool

	EP     uint16 // execution pointer
	Cycles uint64 // instructions executed
	Halted bool
}

// NewMachine copies program into program memory. Everything else starts zeroed.
func NewMachine(program []uint16) (*Machine, error) {
	if len(program) > AddressSpace {
		return nil, fmt.Errorf("%w: %d words > %d", ErrProgramTooLarge, len(program), AddressSpace)
	}
	m := &Machine{ProgramSize: len(program)}
	copy(m.Program[:], program)
	return m, nil
}

// EncodeMove builds a MOVE word. Mirrors the assembler's bit layout.
func EncodeMove(alu, src, dst uint8) uint16 {
	return uint16(OpMOVE) | uint16(alu&0x0F)<<4 | uint16(src&0x0F)<<8 | uint16(dst&0x0F)<<12
}

// EncodeWrite builds a WRITE word carrying an 8-bit immediate.
func EncodeWrite(value, dst uint8) uint16 {
	return uint16(OpWRITE) | uint16(value)<<4 | uint16(dst&0x0F)<<12
}

// Step executes the instruction at EP. It reports true once HALT is reached.
func (m *Machine) Step(gpio GPIO) (bool, error) {
	if int(m.EP) >= m.ProgramSize {
		return false, m.fault(ErrExecutionPointerExceededProgramSize, 0)
	}
	if gpio == nil {
		gpio = NopGPIO{}
	}

	instr := m.Program[m.EP]
	opcode := uint8(instr & 0x0F)
	pre := uint8(instr>>4) & 0x0F
	second := uint8(instr >> 8)

	switch opcode {
	case OpMOVE:
		src := second & 0x0F
		dst := second >> 4
		v, err := m.busRead(src, pre, gpio)
		if err != nil {
			return false, err
		}
		if err := m.busWrite(dst, v, gpio); err != nil {
			return false, err
		}

	case OpWRITE:
		value := uint8(instr >> 4)
		dst := uint8(instr>>12) & 0x0F
		if err := m.busWrite(dst, value, gpio); err != nil {
			return false, err
		}

	case OpGOTO:
		m.EP = m.gotoTarget()

	case OpGOTOIF:
		if m.Decider {
			m.EP = m.gotoTarget()
		}

	case OpHALT:
		m.Cycles++
		m.Halted = true
		return true, nil

	case OpCALL:
		m.CallStack[m.CallTop] = m.EP
		m.CallTop++
		m.EP = m.gotoTarget()

	case OpRETURN:
		m.CallTop--
		m.EP = m.CallStack[m.CallTop]

	default:
		return false, m.fault(ErrInvalidOpcode, opcode)
	}

	m.EP++
	m.Cycles++
	return false, nil
}

// Run steps until HALT or the first error.
func (m *Machine) Run(gpio GPIO) error {
	for {
		halted, err := m.Step(gpio)
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
}

// RunFor steps at most n instructions. It reports whether the machine halted.
func (m *Machine) RunFor(gpio GPIO, n int) (bool, error) {
	for i := 0; i < n; i++ {
		halted, err := m.Step(gpio)
		if err != nil || halted {
			return halted, err
		}
	}
	return false, nil
}

// The compiler loads target-1 into the latches; the post-increment in Step
// lands on the target itself.
func (m *Machine) gotoTarget() uint16 {
	return uint16(m.GotoA) | uint16(m.GotoB)<<8
}

func (m *Machine) busRead(src, aluOp uint8, gpio GPIO) (uint8, error) {
	switch src {
	case SrcStackPop:
		return m.Stack.Pop(&m.StackMem), nil
	case SrcStackNoPop:
		return m.Stack.Peek(&m.StackMem), nil
	case SrcALU:
		v, err := m.ALU.Compute(aluOp)
		if err != nil {
			return 0, m.fault(err, aluOp)
		}
		return v, nil
	case SrcControlUnit:
		return 0, m.fault(ErrAttemptedReadFromControlUnit, src)
	case SrcStackOffsetRead:
		return m.Stack.OffsetRead(&m.StackMem), nil
	case SrcGPRAM:
		return m.GPRAM.Read(&m.GeneralMem, false), nil
	case SrcGPRAMIncAddr:
		return m.GPRAM.Read(&m.GeneralMem, true), nil
	case SrcGPRAMAddrA:
		return uint8(m.GPRAM.Pointer), nil
	case SrcGPRAMAddrB:
		return uint8(m.GPRAM.Pointer >> 8), nil
	case SrcGPIOReadA:
		return gpio.ReadA(), nil
	case SrcGPIOReadB:
		return gpio.ReadB(), nil
	case SrcClockA:
		return uint8(m.Cycles), nil
	case SrcClockB:
		return uint8(m.Cycles >> 8), nil
	}
	return 0, m.fault(ErrInvalidBusWriteAddr, src)
}

func (m *Machine) busWrite(dst, v uint8, gpio GPIO) error {
	switch dst {
	case DstNone:
	case DstStackPush:
		m.Stack.Push(v, &m.StackMem)
	case DstALUA:
		m.ALU.A = v
	case DstALUB:
		m.ALU.B = v
	case DstALUC:
		m.ALU.C = v
	case DstGotoA:
		m.GotoA = v
	case DstGotoB:
		m.GotoB = v
	case DstGotoDecider:
		m.Decider = v&0x01 != 0
	case DstGPRAM:
		m.GPRAM.Write(v, &m.GeneralMem, false)
	case DstGPRAMIncAddr:
		m.GPRAM.Write(v, &m.GeneralMem, true)
	case DstGPRAMAddrA:
		m.GPRAM.SetLow(v)
	case DstGPRAMAddrB:
		m.GPRAM.SetHigh(v)
	case DstGPIOWriteA:
		gpio.WriteA(v)
	case DstGPIOWriteB:
		gpio.WriteB(v)
	case DstStackOffset:
		m.Stack.Offset = v
	case DstStackOffsetWrite:
		m.Stack.OffsetWrite(v, &m.StackMem)
	default:
		return m.fault(ErrInvalidBusReadAddr, dst)
	}
	return nil
}

func (m *Machine) fault(err error, value uint8) error {
	return &ExecutionError{Err: err, Address: m.EP, Value: value}
}

// DumpState renders the control registers, one per line.
func (m *Machine) DumpState() string {
	var b strings.Builder
	fmt.Fprintf(&b, "EP=0x%04X cycles=%d halted=%t\n", m.EP, m.Cycles, m.Halted)
	fmt.Fprintf(&b, "stack top=0x%04X offset=0x%02X tos=0x%02X\n", m.Stack.Top, m.Stack.Offset, m.StackMem[m.Stack.Top])
	fmt.Fprintf(&b, "gpram ptr=0x%04X\n", m.GPRAM.Pointer)
	fmt.Fprintf(&b, "alu a=0x%02X b=0x%02X c=0x%02X\n", m.ALU.A, m.ALU.B, m.ALU.C)
	fmt.Fprintf(&b, "goto a=0x%02X b=0x%02X decider=%t\n", m.GotoA, m.GotoB, m.Decider)
	fmt.Fprintf(&b, "call top=%d\n", m.CallTop)
	return b.String()
}
