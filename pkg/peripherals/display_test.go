package peripherals

import (
	"image/color"
	"strings"
	"testing"

	"stackcpu/pkg/compiler"
	"stackcpu/pkg/cpu"
)

func TestDisplay_Pixels(t *testing.T) {
	d := NewDisplay()
	d.WriteA(0)
	d.WriteB(0x81)
	d.WriteA(0x85) // wraps to byte 5: row 1, pixels 8..15
	d.WriteB(0x02)

	tests := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{1, 0, false},
		{7, 0, true},
		{8, 0, false},
		{9, 1, true},
		{8, 1, false},
		{-1, 0, false},
		{0, 32, false},
	}
	for _, tc := range tests {
		if got := d.Pixel(tc.x, tc.y); got != tc.want {
			t.Errorf("Pixel(%d, %d) = %v; want %v", tc.x, tc.y, got, tc.want)
		}
	}
	if d.Writes() != 2 {
		t.Errorf("Writes() = %d; want 2", d.Writes())
	}
	if f := d.Frame(); f[5] != 0x02 || f[0x85&0x7F] != 0x02 {
		t.Errorf("frame[5] = 0x%02X", f[5])
	}
}

func TestDisplay_Input(t *testing.T) {
	d := NewDisplay()
	d.SetInput(0x1203)
	if d.ReadA() != 0x03 || d.ReadB() != 0x12 {
		t.Errorf("ReadA/ReadB = 0x%02X 0x%02X", d.ReadA(), d.ReadB())
	}
	if d.Input() != 0x1203 {
		t.Errorf("Input() = 0x%04X", d.Input())
	}
}

func TestDisplay_Render(t *testing.T) {
	d := NewDisplay()
	d.WriteA(4)
	d.WriteB(0x01)

	rows := strings.Split(d.String(), "\n")
	if len(rows) != DisplayHeight+1 {
		t.Fatalf("String() has %d lines", len(rows))
	}
	if rows[1] != "#"+strings.Repeat(".", 31) {
		t.Errorf("row 1 = %q", rows[1])
	}

	on := color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	off := color.RGBA{0, 0, 0x20, 0xFF}
	px := d.RGBA(nil, on, off)
	if len(px) != DisplayWidth*DisplayHeight*4 {
		t.Fatalf("RGBA() returned %d bytes", len(px))
	}
	lit := DisplayWidth * 4
	if px[lit] != 0xFF || px[lit+2] != 0xFF {
		t.Errorf("pixel (0,1) = % X", px[lit:lit+4])
	}
	if px[2] != 0x20 {
		t.Errorf("pixel (0,0) = % X", px[0:4])
	}
	if again := d.RGBA(px, on, off); &again[0] != &px[0] {
		t.Error("RGBA() should reuse a large enough buffer")
	}
}

func TestDisplay_State(t *testing.T) {
	d := NewDisplay()
	d.WriteA(127)
	d.WriteB(0xFF)
	d.WriteA(9)

	r := NewDisplay()
	if err := r.LoadState(d.SaveState()); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if r.Writes() != 1 {
		t.Errorf("Writes() = %d after LoadState; want 1 so the matrix is redrawn", r.Writes())
	}
	if r.Type() != DisplayType {
		t.Errorf("Type() = %q", r.Type())
	}
	if r.Frame() != d.Frame() || !r.Pixel(31, 31) {
		t.Error("frame not restored")
	}
	r.WriteB(0x01)
	if !r.Pixel(8, 2) {
		t.Error("latched address not restored")
	}
	if err := r.LoadState(make([]byte, 10)); err == nil {
		t.Error("expected error for short state")
	}
}

// Draws a vertical line down column 0 from a loop, then copies the key mask
// into the last byte.
func TestDisplay_Machine(t *testing.T) {
	prog := `
write 0x00 alu-a;
@anchor(loop);
move pass-a alu gpio-write-a;
write 0x01 gpio-write-b;
write 0x04 alu-b;
move add alu alu-a;
move pass-a alu stack-push;
write 0x80 alu-b;
move eq alu alu-a;
move not alu goto-decider;
move stack-pop alu-a;
@goto_if(loop);
write 0x7F gpio-write-a;
move gpio-read-a gpio-write-b;
halt;
`
	words, _, err := compiler.Compile(prog, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	m, err := cpu.NewMachine(words)
	if err != nil {
		t.Fatal(err)
	}
	d := NewDisplay()
	d.SetInput(0x00A5)
	if err := m.Run(d); err != nil {
		t.Fatalf("Run: %v\n%s", err, m.DumpState())
	}
	for y := 0; y < DisplayHeight; y++ {
		if !d.Pixel(0, y) {
			t.Errorf("pixel (0, %d) not lit", y)
		}
		if d.Pixel(1, y) {
			t.Errorf("pixel (1, %d) lit", y)
		}
	}
	if f := d.Frame(); f[0x7F] != 0xA5 {
		t.Errorf("frame[0x7F] = 0x%02X; want 0xA5", f[0x7F])
	}
}
