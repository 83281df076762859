package asm

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestEncodeProgram(t *testing.T) {
	got := EncodeProgram([]uint16{0x1011, 0x2000})
	want := []byte{0x11, 0x10, 0x00, 0x20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EncodeProgram() = % X; want % X", got, want)
	}
	words, err := DecodeProgram(want)
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if !reflect.DeepEqual(words, []uint16{0x1011, 0x2000}) {
		t.Errorf("DecodeProgram() = %04X", words)
	}
}

func TestDecodeProgram_Errors(t *testing.T) {
	if _, err := DecodeProgram([]byte{1, 2, 3}); !errors.Is(err, ErrOddLength) {
		t.Errorf("expected ErrOddLength, got %v", err)
	}
	if _, err := DecodeProgram(make([]byte, 2*MaxProgramWords+2)); err == nil {
		t.Error("expected error for oversized program")
	}
}

func TestBinaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.bin")
	words := []uint16{0x0004, 0xFFF1, 0x1280}
	if err := WriteBinary(path, words); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}
	got, err := ReadBinary(path)
	if err != nil {
		t.Fatalf("ReadBinary: %v", err)
	}
	if !reflect.DeepEqual(got, words) {
		t.Errorf("ReadBinary() = %04X; want %04X", got, words)
	}
}

func TestDecList(t *testing.T) {
	words := []uint16{4113, 8192, 4}
	s := FormatDecList(words)
	if s != "4113,8192,4" {
		t.Errorf("FormatDecList() = %q", s)
	}
	got, err := ParseDecList(" 4113, 8192 ,4\n")
	if err != nil {
		t.Fatalf("ParseDecList: %v", err)
	}
	if !reflect.DeepEqual(got, words) {
		t.Errorf("ParseDecList() = %v", got)
	}
	if got, err := ParseDecList(""); err != nil || got != nil {
		t.Errorf("empty list = %v, %v", got, err)
	}
	if _, err := ParseDecList("1,70000"); err == nil {
		t.Error("expected out-of-range error")
	}
}
