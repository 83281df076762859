package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ParseContext names the grammatical construct being parsed when an error occurs.
type ParseContext int

const (
	ProgramContext ParseContext = iota
	MacroContext
	InstructionContext
	InstructionTokenContext
	CommentContext
	StringLiteralContext
)

func (c ParseContext) String() string {
	switch c {
	case ProgramContext:
		return "Program"
	case MacroContext:
		return "Macro"
	case InstructionContext:
		return "Instruction"
	case InstructionTokenContext:
		return "InstructionToken"
	case CommentContext:
		return "Comment"
	case StringLiteralContext:
		return "StringLiteral"
	}
	return fmt.Sprintf("ParseContext(%d)", int(c))
}

type ParseErrorKind int

const (
	InvalidCharacterInContext ParseErrorKind = iota
	UnfinishedNode
	MissingMacroIdentifier
	StringInvalidEscapeSequence
	StringEscapeEOF
	HexParseError
	InvalidMacroIdentifier
	MacroWrongNumArgs
)

// ParseError is a structural failure. Begin and End are rune offsets into the
// source. Which of Char, Name, Actual and Correct are meaningful depends on Kind.
type ParseError struct {
	Begin, End int
	Kind       ParseErrorKind
	Context    ParseContext
	Char       rune
	Name       string
	Actual     int
	Correct    int
	Message    string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case InvalidCharacterInContext:
		return fmt.Sprintf("invalid character %q in %s", e.Char, e.Context)
	case UnfinishedNode:
		return fmt.Sprintf("unfinished %s", e.Context)
	case MissingMacroIdentifier:
		return "missing macro identifier"
	case StringInvalidEscapeSequence:
		return fmt.Sprintf("invalid escape sequence \\%c in string literal", e.Char)
	case StringEscapeEOF:
		return "end of input after escape character"
	case HexParseError:
		return fmt.Sprintf("invalid hex literal %q", e.Name)
	case InvalidMacroIdentifier:
		return fmt.Sprintf("unknown macro %q", e.Name)
	case MacroWrongNumArgs:
		return fmt.Sprintf("macro takes %d argument(s), got %d", e.Correct, e.Actual)
	}
	return fmt.Sprintf("parse error %d", int(e.Kind))
}

var (
	ErrProgramTooLarge                 = errors.New("program too large")
	ErrBadSyntaxNodeType               = errors.New("bad syntax node type")
	ErrMacroArgumentWrongType          = errors.New("macro argument has wrong type")
	ErrMacroInvalidAnchor              = errors.New("reference to undefined anchor")
	ErrAnchorRedefinition              = errors.New("anchor redefinition")
	ErrMacroWriteStringArgumentTooLong = errors.New("write_string argument too long")
)

// SkeletonError ties a skeleton failure to the source line of the node that
// caused it.
type SkeletonError struct {
	Err    error
	Line   int
	Detail string
}

func (e *SkeletonError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *SkeletonError) Unwrap() error { return e.Err }

// SkeletonErrors collects every failure found while building a skeleton.
type SkeletonErrors []*SkeletonError

func (l SkeletonErrors) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		if e.Line > 0 {
			msgs[i] = fmt.Sprintf("line %d: %v", e.Line, e)
		} else {
			msgs[i] = e.Error()
		}
	}
	return strings.Join(msgs, "\n")
}

func (l SkeletonErrors) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// CompileError is one reportable failure with the offending source line.
type CompileError struct {
	Line     int
	LineText string
	Err      error
	Message  string
}

func (e *CompileError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "Error on line %d: %v", e.Line, e.Err)
	} else {
		fmt.Fprintf(&b, "Error: %v", e.Err)
	}
	if e.LineText != "" {
		fmt.Fprintf(&b, "\n    %s", strings.TrimSpace(e.LineText))
	}
	if e.Message != "" {
		fmt.Fprintf(&b, "\n    %s", e.Message)
	}
	return b.String()
}

func (e *CompileError) Unwrap() error { return e.Err }

// ErrorList is returned by Compile when anything fails.
type ErrorList []*CompileError

func (l ErrorList) Error() string {
	var b strings.Builder
	for _, e := range l {
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Could not complete assembly due to %d error(s)", len(l))
	return b.String()
}

func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}
