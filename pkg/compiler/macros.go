package compiler

import (
	"fmt"

	"stackcpu/pkg/asm"
)

type MacroKind int

const (
	AnchorMacro MacroKind = iota
	CallMacro
	GotoMacro
	GotoIfMacro
	WriteStringMacro
	PushAnchorAddressMacro
)

var macroNames = map[string]MacroKind{
	"anchor":              AnchorMacro,
	"call":                CallMacro,
	"goto":                GotoMacro,
	"goto_if":             GotoIfMacro,
	"write_string":        WriteStringMacro,
	"push_anchor_address": PushAnchorAddressMacro,
}

func (k MacroKind) String() string {
	for name, kind := range macroNames {
		if kind == k {
			return name
		}
	}
	return fmt.Sprintf("MacroKind(%d)", int(k))
}

// NumArgs is the exact argument count the macro accepts.
func (k MacroKind) NumArgs() int {
	return 1
}

func (k MacroKind) argKind() ArgKind {
	if k == WriteStringMacro {
		return StringArg
	}
	return IdentifierArg
}

type ArgKind int

const (
	IdentifierArg ArgKind = iota
	StringArg
)

func (k ArgKind) String() string {
	if k == StringArg {
		return "string"
	}
	return "identifier"
}

type MacroArg struct {
	Kind  ArgKind
	Value string
}

// Macro is a parsed @name(args) invocation. Args has already been checked
// against the macro's argument count but not against its argument types.
type Macro struct {
	Kind MacroKind
	Args []MacroArg
}

// ParseMacro parses a macro invocation whose name starts at start, just after
// the '@'. It returns the macro and the index just past the closing ')'.
func ParseMacro(src []rune, start int) (*Macro, int, error) {
	name, i := scanIdentifier(src, start)
	if name == "" {
		if i >= len(src) {
			return nil, 0, unfinished(src, start, MacroContext)
		}
		return nil, 0, &ParseError{Begin: start, End: start + 1, Kind: MissingMacroIdentifier, Context: MacroContext}
	}

	i = skipWhitespace(src, i)
	if i >= len(src) {
		return nil, 0, unfinished(src, start, MacroContext)
	}
	if src[i] != '(' {
		return nil, 0, invalidChar(src, i, MacroContext, `Expected "("`)
	}
	i++

	var args []MacroArg
	i = skipWhitespace(src, i)
	if i < len(src) && src[i] == ')' {
		i++
	} else {
		for {
			i = skipWhitespace(src, i)
			if i >= len(src) {
				return nil, 0, unfinished(src, start, MacroContext)
			}
			switch c := src[i]; {
			case c == stringQuote:
				s, next, err := parseStringLiteral(src, i+1)
				if err != nil {
					return nil, 0, err
				}
				args = append(args, MacroArg{Kind: StringArg, Value: s})
				i = next
			case isIdentChar(c):
				var id string
				id, i = scanIdentifier(src, i)
				args = append(args, MacroArg{Kind: IdentifierArg, Value: id})
			default:
				return nil, 0, invalidChar(src, i, MacroContext, "Expected an identifier or a string")
			}

			i = skipWhitespace(src, i)
			if i >= len(src) {
				return nil, 0, unfinished(src, start, MacroContext)
			}
			if src[i] == ')' {
				i++
				break
			}
			if src[i] != ',' {
				return nil, 0, invalidChar(src, i, MacroContext, `Expected ","`)
			}
			i++
		}
	}

	kind, ok := macroNames[name]
	if !ok {
		return nil, 0, &ParseError{Begin: start, End: i, Kind: InvalidMacroIdentifier, Context: MacroContext, Name: name}
	}
	if len(args) != kind.NumArgs() {
		return nil, 0, &ParseError{Begin: start, End: i, Kind: MacroWrongNumArgs, Context: MacroContext, Name: name, Actual: len(args), Correct: kind.NumArgs()}
	}
	return &Macro{Kind: kind, Args: args}, i, nil
}

func (m *Macro) checkArgs() error {
	want := m.Kind.argKind()
	for _, a := range m.Args {
		if a.Kind != want {
			return &SkeletonError{Err: ErrMacroArgumentWrongType, Detail: fmt.Sprintf("@%s expects %s, got %s %q", m.Kind, want, a.Kind, a.Value)}
		}
	}
	return nil
}

// Instructions is the number of machine words the macro expands to.
func (m *Macro) Instructions() int {
	switch m.Kind {
	case AnchorMacro:
		return 0
	case CallMacro, GotoMacro, GotoIfMacro:
		return 3
	case WriteStringMacro:
		return len([]rune(m.Args[0].Value)) + 2
	case PushAnchorAddressMacro:
		return 2
	}
	return 0
}

// Expand produces the instruction lines the macro stands for. Anchor
// addresses are loaded as address-1 to cancel the execution pointer's
// post-increment.
func (m *Macro) Expand(anchors map[string]uint16) ([][]asm.Token, error) {
	switch m.Kind {
	case AnchorMacro:
		return nil, nil

	case CallMacro, GotoMacro, GotoIfMacro:
		addr, err := resolveAnchor(anchors, m.Args[0].Value)
		if err != nil {
			return nil, err
		}
		jump := map[MacroKind]string{CallMacro: "call", GotoMacro: "goto", GotoIfMacro: "goto-if"}[m.Kind]
		return [][]asm.Token{
			writeLine(uint8(addr), "goto-a"),
			writeLine(uint8(addr>>8), "goto-b"),
			{asm.NewWord(jump, asm.ExpandedRaw)},
		}, nil

	case WriteStringMacro:
		chars := []rune(m.Args[0].Value)
		if len(chars) >= asm.MaxProgramWords {
			return nil, &SkeletonError{Err: ErrMacroWriteStringArgumentTooLong, Detail: fmt.Sprintf("%d characters", len(chars))}
		}
		lines := make([][]asm.Token, 0, len(chars)+2)
		for _, c := range chars {
			lines = append(lines, writeLine(uint8(c), "gpram-inc-addr"))
		}
		n := uint16(len(chars))
		lines = append(lines, writeLine(uint8(n), "stack-push"), writeLine(uint8(n>>8), "stack-push"))
		return lines, nil

	case PushAnchorAddressMacro:
		addr, err := resolveAnchor(anchors, m.Args[0].Value)
		if err != nil {
			return nil, err
		}
		return [][]asm.Token{
			writeLine(uint8(addr), "stack-push"),
			writeLine(uint8(addr>>8), "stack-push"),
		}, nil
	}
	return nil, fmt.Errorf("unhandled macro kind %d", int(m.Kind))
}

func resolveAnchor(anchors map[string]uint16, name string) (uint16, error) {
	addr, ok := anchors[name]
	if !ok {
		return 0, &SkeletonError{Err: ErrMacroInvalidAnchor, Detail: name}
	}
	return addr - 1, nil
}

func writeLine(v uint8, dst string) []asm.Token {
	return []asm.Token{
		asm.NewWord("write", asm.ExpandedRaw),
		asm.NewLiteral(v, 8, asm.ExpandedRaw),
		asm.NewWord(dst, asm.ExpandedRaw),
	}
}

func invalidChar(src []rune, i int, ctx ParseContext, hint string) *ParseError {
	return &ParseError{Begin: i, End: i + 1, Kind: InvalidCharacterInContext, Context: ctx, Char: src[i], Message: hint}
}

func unfinished(src []rune, begin int, ctx ParseContext) *ParseError {
	return &ParseError{Begin: begin, End: len(src), Kind: UnfinishedNode, Context: ctx}
}
