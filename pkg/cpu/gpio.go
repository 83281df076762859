package cpu

// GPIO is the machine's only window to the outside world: two byte-wide input
// ports and two byte-wide output ports. Step calls into it synchronously.
type GPIO interface {
	ReadA() uint8
	ReadB() uint8
	WriteA(v uint8)
	WriteB(v uint8)
}

// NopGPIO reads zero and discards writes. Embed it to implement only the
// ports a device cares about.
type NopGPIO struct{}

func (NopGPIO) ReadA() uint8   { return 0 }
func (NopGPIO) ReadB() uint8   { return 0 }
func (NopGPIO) WriteA(v uint8) {}
func (NopGPIO) WriteB(v uint8) {}
