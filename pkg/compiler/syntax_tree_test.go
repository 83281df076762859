package compiler

import (
	"errors"
	"reflect"
	"testing"

	"stackcpu/pkg/asm"
)

func TestHelperFunctions(t *testing.T) {
	for _, r := range "azAZ09_-" {
		if !isIdentChar(r) {
			t.Errorf("isIdentChar(%q) = false; want true", r)
		}
	}
	for _, r := range "@#;( \"é" {
		if isIdentChar(r) {
			t.Errorf("isIdentChar(%q) = true; want false", r)
		}
	}
	for _, r := range " \t\r\n" {
		if !isWhitespace(r) {
			t.Errorf("isWhitespace(%q) = false; want true", r)
		}
	}

	tests := []struct {
		src    string
		offset int
		want   int
	}{
		{"abc", 0, 1},
		{"a\nb", 2, 2},
		{"a\nb", 1, 1},
		{"a\n\n\nb", 4, 4},
	}
	for _, tc := range tests {
		if got := LineNumber(tc.src, tc.offset); got != tc.want {
			t.Errorf("LineNumber(%q, %d) = %d; want %d", tc.src, tc.offset, got, tc.want)
		}
	}
}

func TestParseHexDigits(t *testing.T) {
	tests := []struct {
		digits string
		n      byte
		bits   int
		ok     bool
	}{
		{"2A", 0x2A, 8, true},
		{"2a", 0x2A, 8, true},
		{"F", 0x0F, 4, true},
		{"0001", 0x01, 16, true},
		{"", 0, 0, false},
		{"G1", 0, 0, false},
	}
	for _, tc := range tests {
		n, bits, ok := parseHexDigits(tc.digits)
		if n != tc.n || bits != tc.bits || ok != tc.ok {
			t.Errorf("parseHexDigits(%q) = %#x, %d, %v; want %#x, %d, %v", tc.digits, n, bits, ok, tc.n, tc.bits, tc.ok)
		}
	}
}

func tokensOf(n *Node) []asm.Token {
	var out []asm.Token
	for _, c := range n.Children {
		out = append(out, *c.Token)
	}
	return out
}

func TestBuildTree(t *testing.T) {
	src := "write 0x2A stack-push;\n# note\n@anchor(top);\nmove add alu stack-push;"
	root, err := BuildTree(src)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if root.Kind != ProgramNode || root.Begin != 0 || root.End != len([]rune(src)) {
		t.Fatalf("bad root %v [%d,%d)", root.Kind, root.Begin, root.End)
	}
	kinds := []NodeKind{}
	for _, c := range root.Children {
		kinds = append(kinds, c.Kind)
	}
	want := []NodeKind{InstructionNode, CommentNode, MacroNode, InstructionNode}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("children kinds = %v; want %v", kinds, want)
	}

	first := root.Children[0]
	wantTokens := []asm.Token{
		asm.NewWord("write", "write"),
		asm.NewLiteral(0x2A, 8, "0x2A"),
		asm.NewWord("stack-push", "stack-push"),
	}
	if got := tokensOf(first); !reflect.DeepEqual(got, wantTokens) {
		t.Errorf("tokens = %v; want %v", got, wantTokens)
	}
	// the terminating ';' belongs to the instruction
	if first.Begin != 0 || first.End != 22 {
		t.Errorf("instruction span = [%d,%d); want [0,22)", first.Begin, first.End)
	}
	if root.Children[1].Text != " note" {
		t.Errorf("comment text = %q", root.Children[1].Text)
	}
	m := root.Children[2].Macro
	if m.Kind != AnchorMacro || !reflect.DeepEqual(m.Args, []MacroArg{{IdentifierArg, "top"}}) {
		t.Errorf("macro = %+v", m)
	}
}

func TestBuildTree_Accepted(t *testing.T) {
	tests := []struct {
		name string
		src  string
		n    int
	}{
		{"empty", "", 0},
		{"only whitespace", " \t\r\n", 0},
		{"empty statements", ";;; ;", 0},
		{"comment at eof", "# trailing", 1},
		{"instruction over lines", "move\n  stack-pop\n  alu-a\n;", 1},
		{"macro whitespace", "@goto ( loop ) ;", 1},
		{"no space before semicolon", "halt;halt;", 2},
		{"comment after instruction", "halt; # stop", 2},
		{"non-ascii in comment", "# héllo\nhalt;", 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root, err := BuildTree(tc.src)
			if err != nil {
				t.Fatalf("BuildTree: %v", err)
			}
			if len(root.Children) != tc.n {
				t.Errorf("got %d children; want %d", len(root.Children), tc.n)
			}
		})
	}
}

func TestBuildTree_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		kind  ParseErrorKind
		ctx   ParseContext
		char  rune
		begin int
	}{
		{"bad program char", "halt;\n$", InvalidCharacterInContext, ProgramContext, '$', 6},
		{"bad instruction char", "move a,b;", InvalidCharacterInContext, InstructionContext, ',', 6},
		{"unterminated instruction", "halt", UnfinishedNode, InstructionContext, 0, 0},
		{"macro without semicolon", "@goto(a) halt;", InvalidCharacterInContext, ProgramContext, 'h', 9},
		{"macro at eof", "@goto(a)", UnfinishedNode, MacroContext, 0, 8},
		{"missing macro name", "@(a);", MissingMacroIdentifier, MacroContext, 0, 1},
		{"missing paren", "@goto a;", InvalidCharacterInContext, MacroContext, 'a', 6},
		{"missing comma", "@goto(a b);", InvalidCharacterInContext, MacroContext, 'b', 8},
		{"trailing comma", "@goto(a,);", InvalidCharacterInContext, MacroContext, ')', 8},
		{"unfinished macro", "@goto(a", UnfinishedNode, MacroContext, 0, 1},
		{"unknown macro", "@jump(a);", InvalidMacroIdentifier, MacroContext, 0, 1},
		{"wrong arg count", "@goto(a, b);", MacroWrongNumArgs, MacroContext, 0, 1},
		{"no args", "@goto();", MacroWrongNumArgs, MacroContext, 0, 1},
		{"bad hex", "write 0xZZ alu-a;", HexParseError, InstructionTokenContext, 0, 6},
		{"empty hex", "write 0x alu-a;", HexParseError, InstructionTokenContext, 0, 6},
		{"bad escape", `@write_string("a\q");`, StringInvalidEscapeSequence, StringLiteralContext, 'q', 16},
		{"escape at eof", `@write_string("a\`, StringEscapeEOF, StringLiteralContext, 0, 16},
		{"unterminated string", `@write_string("abc`, UnfinishedNode, StringLiteralContext, 0, 15},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildTree(tc.src)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if pe.Kind != tc.kind || pe.Context != tc.ctx {
				t.Errorf("got kind %d in %s; want %d in %s (%v)", pe.Kind, pe.Context, tc.kind, tc.ctx, pe)
			}
			if tc.char != 0 && pe.Char != tc.char {
				t.Errorf("char = %q; want %q", pe.Char, tc.char)
			}
			if pe.Begin != tc.begin {
				t.Errorf("begin = %d; want %d", pe.Begin, tc.begin)
			}
		})
	}
}

func TestBuildTree_WrongNumArgsCounts(t *testing.T) {
	_, err := BuildTree("@anchor(a, b, c);")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != MacroWrongNumArgs {
		t.Fatalf("expected MacroWrongNumArgs, got %v", err)
	}
	if pe.Actual != 3 || pe.Correct != 1 {
		t.Errorf("actual=%d correct=%d; want 3 1", pe.Actual, pe.Correct)
	}
}

func TestDump(t *testing.T) {
	root, err := BuildTree("halt;")
	if err != nil {
		t.Fatal(err)
	}
	want := "Program [0,5)\n  Instruction [0,5)\n    InstructionToken [0,4) halt\n"
	if got := root.Dump(); got != want {
		t.Errorf("Dump() = %q; want %q", got, want)
	}
}
