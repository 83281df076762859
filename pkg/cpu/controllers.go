package cpu

// StackController owns the stack pointer and the offset register used for
// random access below the top of the stack. Top points at the last pushed
// byte and wraps across the full address space.
type StackController struct {
	Top    uint16
	Offset uint8
}

func (s *StackController) Push(v uint8, mem *[AddressSpace]byte) {
	s.Top++
	mem[s.Top] = v
}

func (s *StackController) Pop(mem *[AddressSpace]byte) uint8 {
	v := mem[s.Top]
	s.Top--
	return v
}

func (s *StackController) Peek(mem *[AddressSpace]byte) uint8 {
	return mem[s.Top]
}

// OffsetIndex is the slot addressed by the offset register. An offset of 0xFF
// names the top itself, 0xFE the slot below it, and so on.
func (s *StackController) OffsetIndex() uint16 {
	return s.Top - (0xFF - uint16(s.Offset))
}

func (s *StackController) OffsetRead(mem *[AddressSpace]byte) uint8 {
	return mem[s.OffsetIndex()]
}

func (s *StackController) OffsetWrite(v uint8, mem *[AddressSpace]byte) {
	mem[s.OffsetIndex()] = v
}

// GeneralMemController addresses general purpose RAM through a 16-bit pointer
// that can be set a byte at a time and optionally advances after access.
type GeneralMemController struct {
	Pointer uint16
}

func (g *GeneralMemController) SetLow(v uint8) {
	g.Pointer = g.Pointer&0xFF00 | uint16(v)
}

func (g *GeneralMemController) SetHigh(v uint8) {
	g.Pointer = g.Pointer&0x00FF | uint16(v)<<8
}

func (g *GeneralMemController) Read(mem *[AddressSpace]byte, inc bool) uint8 {
	v := mem[g.Pointer]
	if inc {
		g.Pointer++
	}
	return v
}

func (g *GeneralMemController) Write(v uint8, mem *[AddressSpace]byte, inc bool) {
	mem[g.Pointer] = v
	if inc {
		g.Pointer++
	}
}
