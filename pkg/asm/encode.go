package asm

import (
	"errors"
	"fmt"
	"strings"
)

// Opcode family names; every other opcode takes no operands.
const (
	moveOpcode  = "move"
	writeOpcode = "write"
)

var (
	ErrInvalidToken               = errors.New("invalid token")
	ErrIncorrectNumberOfTokens    = errors.New("incorrect number of tokens for opcode")
	ErrTokenWordInWrongContext    = errors.New("assembly word in wrong context")
	ErrLiteralTokenInWrongContext = errors.New("literal token in wrong context")
	ErrExpectedLiteral            = errors.New("expected hex literal")
	ErrHexLiteralWrongLength      = errors.New("hex literal wrong length")
	ErrEmptyLine                  = errors.New("empty instruction line")
)

// EncodeError describes why a single instruction line could not be encoded.
// Kind is one of the Err* values above and is what errors.Is matches against.
type EncodeError struct {
	Kind    error
	Token   string
	Context Context
	Message string
}

func (e *EncodeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Token != "" {
		fmt.Fprintf(&b, " %q", e.Token)
	}
	switch e.Kind {
	case ErrTokenWordInWrongContext, ErrLiteralTokenInWrongContext:
		fmt.Fprintf(&b, " (expected %s)", e.Context)
	}
	return b.String()
}

func (e *EncodeError) Unwrap() error { return e.Kind }

// Encode turns one instruction line into its 16-bit machine word.
//
//	move [alu-op] <to-bus> <from-bus>   opcode | alu<<4 | (src | dst<<4)<<8
//	write 0xHH <from-bus>               opcode | HH<<4 | dst<<12
//	<other>                             opcode
func Encode(line []Token, cfg *Config) (uint16, error) {
	if len(line) == 0 {
		return 0, &EncodeError{Kind: ErrEmptyLine}
	}
	first := line[0]
	if first.Kind != Word {
		return 0, &EncodeError{Kind: ErrInvalidToken, Token: first.Raw, Message: "First token in line must be an assembly word corresponding to an opcode"}
	}
	opcode, ok := cfg.Lookup(OpcodeContext, first.Word)
	if !ok {
		return 0, &EncodeError{Kind: ErrInvalidToken, Token: first.Raw}
	}
	instr := uint16(opcode.ID & 0x0F)

	switch strings.ToLower(opcode.Name) {
	case moveOpcode:
		var alu uint8
		operands := line[1:]
		switch len(line) {
		case 3:
		case 4:
			w, err := wordFor(line[1], AluOpcodeContext, cfg)
			if err != nil {
				return 0, err
			}
			alu = w.ID
			operands = line[2:]
		default:
			return 0, &EncodeError{Kind: ErrIncorrectNumberOfTokens, Token: opcode.Name, Message: fmt.Sprintf("There must be either 3 or 4 tokens in a `MOVE` line, found %d", len(line))}
		}
		src, err := wordFor(operands[0], ToBusContext, cfg)
		if err != nil {
			return 0, err
		}
		dst, err := wordFor(operands[1], FromBusContext, cfg)
		if err != nil {
			return 0, err
		}
		instr |= uint16(alu&0x0F)<<4 | uint16(src.ID&0x0F|(dst.ID&0x0F)<<4)<<8

	case writeOpcode:
		if len(line) != 3 {
			return 0, &EncodeError{Kind: ErrIncorrectNumberOfTokens, Token: opcode.Name, Message: fmt.Sprintf("There must be exactly 3 tokens in a `WRITE` line, found %d", len(line))}
		}
		value := line[1]
		if value.Kind != Literal {
			return 0, &EncodeError{Kind: ErrExpectedLiteral, Token: value.Raw}
		}
		if value.BitSize != 8 {
			return 0, &EncodeError{Kind: ErrHexLiteralWrongLength, Token: value.Raw, Message: fmt.Sprintf("expected 8 bits, got %d", value.BitSize)}
		}
		dst, err := wordFor(line[2], FromBusContext, cfg)
		if err != nil {
			return 0, err
		}
		instr |= uint16(value.N)<<4 | uint16(dst.ID&0x0F)<<12

	default:
		if len(line) != 1 {
			return 0, &EncodeError{Kind: ErrIncorrectNumberOfTokens, Token: opcode.Name, Message: fmt.Sprintf("`%s` takes no operands, found %d", strings.ToUpper(opcode.Name), len(line)-1)}
		}
	}
	return instr, nil
}

func wordFor(t Token, ctx Context, cfg *Config) (AssemblyWord, error) {
	if t.Kind != Word {
		return AssemblyWord{}, &EncodeError{Kind: ErrLiteralTokenInWrongContext, Token: t.Raw, Context: ctx}
	}
	w, ok := cfg.Lookup(ctx, t.Word)
	if !ok {
		return AssemblyWord{}, &EncodeError{Kind: ErrTokenWordInWrongContext, Token: t.Raw, Context: ctx}
	}
	return w, nil
}
