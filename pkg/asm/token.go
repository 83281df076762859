package asm

import "fmt"

// TokenKind distinguishes hex literals from mnemonics inside an instruction line.
type TokenKind int

const (
	Word    TokenKind = iota // opcode / bus / ALU mnemonic
	Literal                  // hex constant such as 0x2A
)

// ExpandedRaw is the raw text carried by tokens that a macro produced.
const ExpandedRaw = "<Expanded macro>"

// Token is one unit of an instruction line.
//
//	write 0x2A stack-push;
//	^^^^^ ^^^^ ^^^^^^^^^^
//	Word  Literal{N: 0x2A, BitSize: 8}  Word
//
// BitSize is 4 × the number of hex digits written, not the minimum width of N.
type Token struct {
	Kind    TokenKind
	N       byte
	BitSize int
	Word    string
	Raw     string
}

// NewWord returns a mnemonic token.
func NewWord(word, raw string) Token {
	return Token{Kind: Word, Word: word, Raw: raw}
}

// NewLiteral returns a hex literal token.
func NewLiteral(n byte, bitSize int, raw string) Token {
	return Token{Kind: Literal, N: n, BitSize: bitSize, Raw: raw}
}

func (t Token) String() string {
	if t.Kind == Literal {
		return fmt.Sprintf("0x%02X/%d", t.N, t.BitSize)
	}
	return t.Word
}
