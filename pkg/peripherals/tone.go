package peripherals

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"stackcpu/pkg/cpu"
)

const ToneType = "Tone"

const (
	ToneSampleRate = 44100

	// ToneStep is the frequency of one unit written to port A.
	ToneStep = 4

	toneAmplitude = 0x1FFF
)

// Tone is a square-wave generator. Writing port A sets the pitch in ToneStep
// Hz units, 0 silences it. Read produces signed 16-bit little-endian mono PCM
// at ToneSampleRate, so a Tone can feed an audio player directly. WriteA and
// Read may be called from different goroutines.
type Tone struct {
	cpu.NopGPIO

	freq  atomic.Uint32
	phase uint64 // only touched by Read
}

func NewTone() *Tone { return &Tone{} }

func (t *Tone) Type() string { return ToneType }

func (t *Tone) WriteA(v uint8) { t.freq.Store(uint32(v) * ToneStep) }

// ReadA returns the current pitch register.
func (t *Tone) ReadA() uint8 { return uint8(t.freq.Load() / ToneStep) }

// Frequency returns the current pitch in Hz.
func (t *Tone) Frequency() int { return int(t.freq.Load()) }

// SaveState stores the pitch register.
func (t *Tone) SaveState() []byte { return []byte{t.ReadA()} }

func (t *Tone) LoadState(data []byte) error {
	if len(data) < 1 {
		return fmt.Errorf("%s.LoadState: need 1 byte, got 0", ToneType)
	}
	t.WriteA(data[0])
	return nil
}

func (t *Tone) Read(p []byte) (int, error) {
	freq := uint64(t.freq.Load())
	n := len(p) &^ 1
	for i := 0; i < n; i += 2 {
		var s int16
		if freq != 0 {
			// phase counts in units of 1/ToneSampleRate of a cycle
			if t.phase < ToneSampleRate/2 {
				s = toneAmplitude
			} else {
				s = -toneAmplitude
			}
			t.phase = (t.phase + freq) % ToneSampleRate
		} else {
			t.phase = 0
		}
		binary.LittleEndian.PutUint16(p[i:], uint16(s))
	}
	return n, nil
}

var _ cpu.Device = (*Tone)(nil)
