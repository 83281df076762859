package peripherals

import (
	"bytes"
	"reflect"
	"testing"

	"stackcpu/pkg/compiler"
	"stackcpu/pkg/cpu"
)

func TestTextConsole_Lines(t *testing.T) {
	var out bytes.Buffer
	var lines []string
	c := NewTextConsole(&out, func(line string) { lines = append(lines, line) })

	for _, b := range []byte("hi\nthere") {
		c.WriteA(b)
	}
	if got := c.Pending(); got != "there" {
		t.Errorf("Pending() = %q; want %q", got, "there")
	}
	c.WriteB(42)
	c.Flush()

	want := []string{"hi", "there", "42"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q; want %q", lines, want)
	}
	if out.String() != "hi\nthere\n42\n" {
		t.Errorf("output = %q", out.String())
	}
	if c.Written() != 9 {
		t.Errorf("Written() = %d; want 9", c.Written())
	}
}

func TestTextConsole_Input(t *testing.T) {
	c := NewTextConsole(nil, nil)
	if c.ReadA() != 0 || c.ReadB() != 0 {
		t.Fatal("empty console should read zero")
	}
	c.Feed('o', 'k')
	if n := c.ReadB(); n != 2 {
		t.Errorf("ReadB() = %d; want 2", n)
	}
	if a, b := c.ReadA(), c.ReadA(); a != 'o' || b != 'k' {
		t.Errorf("ReadA() = %q %q", a, b)
	}
	if c.ReadA() != 0 {
		t.Error("drained queue should read zero")
	}

	c.Feed(make([]byte, 300)...)
	if n := c.ReadB(); n != 0xFF {
		t.Errorf("ReadB() = %d; want saturation at 255", n)
	}
}

func TestTextConsole_State(t *testing.T) {
	c := NewTextConsole(nil, nil)
	c.WriteA('a')
	c.WriteA('b')
	c.Feed(1, 2, 3)

	restored := NewTextConsole(nil, nil)
	if err := restored.LoadState(c.SaveState()); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if restored.Pending() != "ab" || restored.ReadB() != 3 || restored.ReadA() != 1 {
		t.Errorf("restored console = %q, %d queued", restored.Pending(), restored.ReadB())
	}

	if err := restored.LoadState([]byte{5, 0, 'x'}); err == nil {
		t.Error("expected error for short state")
	}
	if err := restored.LoadState([]byte{5, 0, 'x', 0}); err == nil {
		t.Error("expected error for truncated line")
	}
}

// A program echoing its input back as text and as a number.
func TestTextConsole_Machine(t *testing.T) {
	src := `
move gpio-read-a gpio-write-a;
move gpio-read-a gpio-write-a;
move gpio-read-b gpio-write-b;
halt;
`
	words, _, err := compiler.Compile(src, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	m, err := cpu.NewMachine(words)
	if err != nil {
		t.Fatal(err)
	}

	var lines []string
	c := NewTextConsole(nil, func(line string) { lines = append(lines, line) })
	c.Feed('g', 'o', 'x')
	if err := m.Run(c); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := []string{"go", "1"}; !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q; want %q", lines, want)
	}
}
