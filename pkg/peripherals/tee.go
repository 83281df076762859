package peripherals

import "stackcpu/pkg/cpu"

// Tee reads from a primary device and copies every write to the primary and
// each tap, in order.
type Tee struct {
	Primary cpu.GPIO
	Taps    []cpu.GPIO
}

func NewTee(primary cpu.GPIO, taps ...cpu.GPIO) *Tee {
	return &Tee{Primary: primary, Taps: taps}
}

func (t *Tee) ReadA() uint8 { return t.Primary.ReadA() }
func (t *Tee) ReadB() uint8 { return t.Primary.ReadB() }

func (t *Tee) WriteA(v uint8) {
	t.Primary.WriteA(v)
	for _, tap := range t.Taps {
		tap.WriteA(v)
	}
}

func (t *Tee) WriteB(v uint8) {
	t.Primary.WriteB(v)
	for _, tap := range t.Taps {
		tap.WriteB(v)
	}
}
