package peripherals

import (
	"fmt"
	"image/color"
	"sync"

	"stackcpu/pkg/cpu"
	"stackcpu/pkg/grid"
)

const DisplayType = "Display"

const (
	DisplayWidth  = 32
	DisplayHeight = 32

	// DisplayBytes is the size of the framebuffer: one bit per pixel, rows
	// of DisplayWidth/8 bytes, least significant bit leftmost.
	DisplayBytes = DisplayWidth * DisplayHeight / 8
	bytesPerRow  = DisplayWidth / 8
)

// Display is a 32x32 monochrome matrix with a 16-bit input mask.
// Writing port A latches a framebuffer address; writing port B stores a byte
// there. Ports A and B read the low and high bytes of the input mask.
type Display struct {
	cpu.NopGPIO

	mu      sync.RWMutex
	frame   [DisplayBytes]byte
	address uint8
	input   uint16
	writes  uint64
}

func NewDisplay() *Display { return &Display{} }

func (d *Display) Type() string { return DisplayType }

func (d *Display) WriteA(v uint8) {
	d.mu.Lock()
	d.address = v
	d.mu.Unlock()
}

func (d *Display) WriteB(v uint8) {
	d.mu.Lock()
	d.frame[d.address&(DisplayBytes-1)] = v
	d.writes++
	d.mu.Unlock()
}

func (d *Display) ReadA() uint8 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return uint8(d.input)
}

func (d *Display) ReadB() uint8 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return uint8(d.input >> 8)
}

// SetInput replaces the key mask the program sees.
func (d *Display) SetInput(mask uint16) {
	d.mu.Lock()
	d.input = mask
	d.mu.Unlock()
}

func (d *Display) Input() uint16 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.input
}

// Writes counts framebuffer stores and state loads. The desktop front end
// re-renders the matrix only when it changes.
func (d *Display) Writes() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.writes
}

// Pixel reports whether (x, y) is lit. Out of range coordinates are dark.
func (d *Display) Pixel(x, y int) bool {
	if x < 0 || x >= DisplayWidth || y < 0 || y >= DisplayHeight {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	b := d.frame[y*bytesPerRow+x/8]
	return b>>(x%8)&1 == 1
}

// Frame returns a copy of the framebuffer.
func (d *Display) Frame() [DisplayBytes]byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frame
}

// RGBA renders the matrix into a DisplayWidth*DisplayHeight*4 byte slice,
// reusing dst when it is large enough.
func (d *Display) RGBA(dst []byte, on, off color.RGBA) []byte {
	n := DisplayWidth * DisplayHeight * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]

	frame := d.Frame()
	for i := 0; i < DisplayWidth*DisplayHeight; i++ {
		x, y := grid.GetGridCoords(i, DisplayWidth)
		c := off
		if frame[y*bytesPerRow+x/8]>>(x%8)&1 == 1 {
			c = on
		}
		dst[i*4+0] = c.R
		dst[i*4+1] = c.G
		dst[i*4+2] = c.B
		dst[i*4+3] = c.A
	}
	return dst
}

// String draws the matrix with '#' and '.', one row per line.
func (d *Display) String() string {
	frame := d.Frame()
	buf := make([]byte, 0, (DisplayWidth+1)*DisplayHeight)
	for y := 0; y < DisplayHeight; y++ {
		for x := 0; x < DisplayWidth; x++ {
			if frame[y*bytesPerRow+x/8]>>(x%8)&1 == 1 {
				buf = append(buf, '#')
			} else {
				buf = append(buf, '.')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

// SaveState serialises the framebuffer followed by the latched address.
func (d *Display) SaveState() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	buf := make([]byte, DisplayBytes+1)
	copy(buf, d.frame[:])
	buf[DisplayBytes] = d.address
	return buf
}

func (d *Display) LoadState(data []byte) error {
	if len(data) < DisplayBytes+1 {
		return fmt.Errorf("%s.LoadState: need %d bytes, got %d", DisplayType, DisplayBytes+1, len(data))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.frame[:], data[:DisplayBytes])
	d.address = data[DisplayBytes]
	d.writes++
	return nil
}

var _ cpu.Device = (*Display)(nil)
