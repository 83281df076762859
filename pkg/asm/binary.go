package asm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MaxProgramWords is the size of program memory.
const MaxProgramWords = 0x10000

var ErrOddLength = errors.New("binary program has odd length")

// EncodeProgram lays the words out little-endian, the format shipped to hardware.
func EncodeProgram(words []uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		binary.LittleEndian.PutUint16(out[i*2:], w)
	}
	return out
}

// DecodeProgram is the inverse of EncodeProgram.
func DecodeProgram(data []byte) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrOddLength, len(data))
	}
	if len(data)/2 > MaxProgramWords {
		return nil, fmt.Errorf("program too large: %d words > %d", len(data)/2, MaxProgramWords)
	}
	words := make([]uint16, len(data)/2)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return words, nil
}

func WriteBinary(path string, words []uint16) error {
	return os.WriteFile(path, EncodeProgram(words), 0o644)
}

func ReadBinary(path string) ([]uint16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeProgram(data)
}

// FormatDecList renders the program as comma-separated decimal words.
func FormatDecList(words []uint16) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = strconv.FormatUint(uint64(w), 10)
	}
	return strings.Join(parts, ",")
}

// ParseDecList reads the FormatDecList format; whitespace around entries is ignored.
func ParseDecList(s string) ([]uint16, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	words := make([]uint16, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		words[i] = uint16(v)
	}
	return words, nil
}
