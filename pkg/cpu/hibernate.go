package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// humanReadableState is the JSON-serializable snapshot of the control state.
// Memory regions travel as separate binary entries.
type humanReadableState struct {
	EP          uint16   `json:"ep"`
	Cycles      uint64   `json:"cycles"`
	Halted      bool     `json:"halted"`
	ProgramSize int      `json:"program_size"`
	StackTop    uint16   `json:"stack_top"`
	StackOffset uint8    `json:"stack_offset"`
	GPRAMPtr    uint16   `json:"gpram_ptr"`
	AluA        uint8    `json:"alu_a"`
	AluB        uint8    `json:"alu_b"`
	AluC        uint8    `json:"alu_c"`
	GotoA       uint8    `json:"goto_a"`
	GotoB       uint8    `json:"goto_b"`
	Decider     bool     `json:"decider"`
	CallTop     uint8    `json:"call_top"`
	Devices     []string `json:"devices,omitempty"`
}

// Device is a GPIO device whose state travels with a hibernation archive,
// stored under devices/<Type>.bin.
type Device interface {
	Type() string
	SaveState() []byte
	LoadState(data []byte) error
}

func deviceEntry(d Device) string { return "devices/" + d.Type() + ".bin" }

// HibernateToBytes serialises the complete machine state, plus the state of
// each device, into an in-memory ZIP archive and returns the raw bytes.
func (m *Machine) HibernateToBytes(devices ...Device) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := humanReadableState{
		EP:          m.EP,
		Cycles:      m.Cycles,
		Halted:      m.Halted,
		ProgramSize: m.ProgramSize,
		StackTop:    m.Stack.Top,
		StackOffset: m.Stack.Offset,
		GPRAMPtr:    m.GPRAM.Pointer,
		AluA:        m.ALU.A,
		AluB:        m.ALU.B,
		AluC:        m.ALU.C,
		GotoA:       m.GotoA,
		GotoB:       m.GotoB,
		Decider:     m.Decider,
		CallTop:     m.CallTop,
	}
	for _, d := range devices {
		state.Devices = append(state.Devices, d.Type())
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal machine_state: %w", err)
	}

	entries := []struct {
		name string
		data []byte
	}{
		{"machine_state.json", jsonData},
		{"program.bin", uint16SliceToLE(m.Program[:m.ProgramSize])},
		{"stack.bin", m.StackMem[:]},
		{"gpram.bin", m.GeneralMem[:]},
		{"call_stack.bin", uint16SliceToLE(m.CallStack[:])},
	}
	for _, e := range entries {
		if err := writeZipEntry(zw, e.name, e.data); err != nil {
			return nil, err
		}
	}
	for _, d := range devices {
		if err := writeZipEntry(zw, deviceEntry(d), d.SaveState()); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes deserialises a ZIP archive produced by HibernateToBytes and
// replaces the machine's state with it. Missing memory entries leave the
// corresponding region zeroed. Every device passed must have its state in
// the archive. Nothing changes unless the whole archive restores: a device
// that rejects its state rolls back the devices already loaded.
func (m *Machine) RestoreFromBytes(data []byte, devices ...Device) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, "machine_state.json")
	if err != nil {
		return err
	}
	var state humanReadableState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return fmt.Errorf("unmarshal machine_state: %w", err)
	}
	if state.ProgramSize < 0 || state.ProgramSize > AddressSpace {
		return fmt.Errorf("%w: %d words", ErrProgramTooLarge, state.ProgramSize)
	}

	deviceStates := make([][]byte, len(devices))
	for i, d := range devices {
		if !slices.Contains(state.Devices, d.Type()) {
			return fmt.Errorf("%w: %s", ErrDeviceStateMissing, d.Type())
		}
		if deviceStates[i], err = readZipEntry(fileMap, deviceEntry(d)); err != nil {
			return err
		}
	}

	restored := &Machine{
		ProgramSize: state.ProgramSize,
		Stack:       StackController{Top: state.StackTop, Offset: state.StackOffset},
		GPRAM:       GeneralMemController{Pointer: state.GPRAMPtr},
		ALU:         ALU{A: state.AluA, B: state.AluB, C: state.AluC},
		CallTop:     state.CallTop,
		GotoA:       state.GotoA,
		GotoB:       state.GotoB,
		Decider:     state.Decider,
		EP:          state.EP,
		Cycles:      state.Cycles,
		Halted:      state.Halted,
	}

	if raw, err := readZipEntry(fileMap, "program.bin"); err == nil {
		leToUint16Slice(raw, restored.Program[:restored.ProgramSize])
	}
	if d, err := readZipEntry(fileMap, "stack.bin"); err == nil {
		copy(restored.StackMem[:], d)
	}
	if d, err := readZipEntry(fileMap, "gpram.bin"); err == nil {
		copy(restored.GeneralMem[:], d)
	}
	if raw, err := readZipEntry(fileMap, "call_stack.bin"); err == nil {
		leToUint16Slice(raw, restored.CallStack[:])
	}

	if err := loadDevices(devices, deviceStates); err != nil {
		return err
	}
	*m = *restored
	return nil
}

// loadDevices hands each device its state. On failure the devices already
// loaded get their previous state back.
func loadDevices(devices []Device, states [][]byte) error {
	previous := make([][]byte, len(devices))
	for i, d := range devices {
		previous[i] = d.SaveState()
		if err := d.LoadState(states[i]); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = devices[j].LoadState(previous[j])
			}
			return fmt.Errorf("restore %s: %w", d.Type(), err)
		}
	}
	return nil
}

// HibernateToFile writes the hibernation archive to the given file path.
func (m *Machine) HibernateToFile(path string, devices ...Device) error {
	data, err := m.HibernateToBytes(devices...)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RestoreFromFile reads a hibernation archive from the given file path and
// restores the machine state.
func (m *Machine) RestoreFromFile(path string, devices ...Device) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.RestoreFromBytes(data, devices...)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func uint16SliceToLE(src []uint16) []byte {
	out := make([]byte, len(src)*2)
	for i, v := range src {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func leToUint16Slice(src []byte, dst []uint16) {
	for i := range dst {
		if i*2+1 < len(src) {
			dst[i] = binary.LittleEndian.Uint16(src[i*2:])
		}
	}
}
