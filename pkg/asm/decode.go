package asm

import (
	"fmt"
	"strings"
)

// Decode renders a machine word back into assembly text. Fields whose id has
// no mnemonic in cfg are printed as "?N".
func Decode(word uint16, cfg *Config) string {
	opID := uint8(word & 0x0F)
	opName, ok := cfg.Name(OpcodeContext, opID)
	if !ok {
		return fmt.Sprintf(".word 0x%04X", word)
	}

	switch strings.ToLower(opName) {
	case moveOpcode:
		alu := uint8(word>>4) & 0x0F
		src := uint8(word>>8) & 0x0F
		dst := uint8(word>>12) & 0x0F
		parts := []string{opName}
		if alu != 0 {
			parts = append(parts, nameOr(cfg, AluOpcodeContext, alu))
		}
		parts = append(parts, nameOr(cfg, ToBusContext, src), nameOr(cfg, FromBusContext, dst))
		return strings.Join(parts, " ") + ";"
	case writeOpcode:
		value := uint8(word >> 4)
		dst := uint8(word>>12) & 0x0F
		return fmt.Sprintf("%s 0x%02X %s;", opName, value, nameOr(cfg, FromBusContext, dst))
	}
	if word>>4 != 0 {
		return fmt.Sprintf("%s; # operand bits 0x%03X ignored", opName, word>>4)
	}
	return opName + ";"
}

// Disassemble decodes a whole program, one numbered line per word.
func Disassemble(program []uint16, cfg *Config) string {
	var b strings.Builder
	for addr, w := range program {
		fmt.Fprintf(&b, "%04X  %04X  %s\n", addr, w, Decode(w, cfg))
	}
	return b.String()
}

func nameOr(cfg *Config, ctx Context, id uint8) string {
	if name, ok := cfg.Name(ctx, id); ok {
		return name
	}
	return fmt.Sprintf("?%d", id)
}
