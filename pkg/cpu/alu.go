package cpu

const (
	AluAdd       uint8 = 0x0
	AluAddCarry  uint8 = 0x1
	AluNot       uint8 = 0x2
	AluOr        uint8 = 0x3
	AluAnd       uint8 = 0x4
	AluXnor      uint8 = 0x5
	AluShiftLeft uint8 = 0x6
	AluEq        uint8 = 0x7
	AluPassA     uint8 = 0x8
	AluPassB     uint8 = 0x9
)

// ALU holds the three input latches. Output is computed on demand when the
// ALU drives the bus.
type ALU struct {
	A, B, C uint8
}

// Compute evaluates op over the current latches. Only bit 0 of C takes part
// as carry-in.
func (a *ALU) Compute(op uint8) (uint8, error) {
	switch op {
	case AluAdd:
		return uint8(a.sum()), nil
	case AluAddCarry:
		return uint8(a.sum() >> 8), nil
	case AluNot:
		return ^a.A, nil
	case AluOr:
		return a.A | a.B, nil
	case AluAnd:
		return a.A & a.B, nil
	case AluXnor:
		return ^(a.A ^ a.B), nil
	case AluShiftLeft:
		return a.A << (a.B % 8), nil
	case AluEq:
		if a.A == a.B {
			return 1, nil
		}
		return 0, nil
	case AluPassA:
		return a.A, nil
	case AluPassB:
		return a.B, nil
	}
	return 0, ErrInvalidAluOpcode
}

func (a *ALU) sum() uint16 {
	return uint16(a.A) + uint16(a.B) + uint16(a.C&0x01)
}
