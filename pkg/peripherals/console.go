package peripherals

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"sync"

	"stackcpu/pkg/cpu"
)

const TextConsoleType = "TextConsole"

// LineFunc receives every completed output line, without the trailing newline.
type LineFunc func(line string)

// TextConsole is a line-buffered character device. Port A carries characters
// in both directions, port B writes decimal numbers and reads the number of
// queued input bytes.
type TextConsole struct {
	cpu.NopGPIO

	out    io.Writer
	onLine LineFunc

	mu      sync.Mutex
	line    bytes.Buffer
	input   []byte
	written uint64
}

// NewTextConsole writes to out. Either argument may be nil.
func NewTextConsole(out io.Writer, onLine LineFunc) *TextConsole {
	return &TextConsole{out: out, onLine: onLine}
}

func (c *TextConsole) Type() string { return TextConsoleType }

func (c *TextConsole) WriteA(v uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.written++
	if v == '\n' {
		c.flushLocked()
		return
	}
	c.line.WriteByte(v)
}

func (c *TextConsole) WriteB(v uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.written++
	if c.line.Len() > 0 {
		c.flushLocked()
	}
	c.line.WriteString(strconv.Itoa(int(v)))
	c.flushLocked()
}

// ReadA pops the next input byte, or returns 0 when the queue is empty.
func (c *TextConsole) ReadA() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.input) == 0 {
		return 0
	}
	b := c.input[0]
	c.input = c.input[1:]
	return b
}

func (c *TextConsole) ReadB() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.input) > 0xFF {
		return 0xFF
	}
	return uint8(len(c.input))
}

// Feed queues input bytes for the program. Safe to call from another goroutine.
func (c *TextConsole) Feed(b ...byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = append(c.input, b...)
}

// Flush emits a partially written line, if any.
func (c *TextConsole) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.line.Len() > 0 {
		c.flushLocked()
	}
}

// Pending returns the unterminated output line.
func (c *TextConsole) Pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.line.String()
}

// Written counts port writes since creation.
func (c *TextConsole) Written() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written
}

func (c *TextConsole) flushLocked() {
	s := c.line.String()
	c.line.Reset()
	if c.out != nil {
		fmt.Fprintln(c.out, s)
	}
	if c.onLine != nil {
		c.onLine(s)
	}
}

// SaveState serialises the pending line and the input queue as
// [lineLen u16][line][inputLen u16][input], little-endian.
func (c *TextConsole) SaveState() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := c.line.Bytes()
	buf := make([]byte, 4+len(line)+len(c.input))
	binary.LittleEndian.PutUint16(buf[0:], uint16(len(line)))
	copy(buf[2:], line)
	off := 2 + len(line)
	binary.LittleEndian.PutUint16(buf[off:], uint16(len(c.input)))
	copy(buf[off+2:], c.input)
	return buf
}

// LoadState restores what SaveState produced.
func (c *TextConsole) LoadState(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%s.LoadState: need at least 4 bytes, got %d", TextConsoleType, len(data))
	}
	lineLen := int(binary.LittleEndian.Uint16(data[0:]))
	if len(data) < 4+lineLen {
		return fmt.Errorf("%s.LoadState: truncated line (%d bytes)", TextConsoleType, len(data))
	}
	off := 2 + lineLen
	inputLen := int(binary.LittleEndian.Uint16(data[off:]))
	if len(data) < off+2+inputLen {
		return fmt.Errorf("%s.LoadState: truncated input (%d bytes)", TextConsoleType, len(data))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.line.Reset()
	c.line.Write(data[2:off])
	c.input = append([]byte(nil), data[off+2:off+2+inputLen]...)
	return nil
}

var _ cpu.Device = (*TextConsole)(nil)
