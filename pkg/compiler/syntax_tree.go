package compiler

import (
	"fmt"
	"strings"

	"stackcpu/pkg/asm"
)

type NodeKind int

const (
	ProgramNode NodeKind = iota
	MacroNode
	InstructionNode
	InstructionTokenNode
	CommentNode
	StringLiteralNode
)

func (k NodeKind) String() string {
	return [...]string{"Program", "Macro", "Instruction", "InstructionToken", "Comment", "StringLiteral"}[k]
}

// Node is one element of the syntax tree. Begin is inclusive and End
// exclusive, both rune offsets into the source. Macro is set for MacroNode,
// Token for InstructionTokenNode and Text for CommentNode and StringLiteralNode.
type Node struct {
	Kind     NodeKind
	Macro    *Macro
	Token    *asm.Token
	Text     string
	Begin    int
	End      int
	Children []*Node
}

// BuildTree parses a whole source file into a Program node. The first
// structural error aborts the parse.
func BuildTree(src string) (*Node, error) {
	return buildTree([]rune(src))
}

func buildTree(src []rune) (*Node, error) {
	root := &Node{Kind: ProgramNode, Begin: 0}
	i := 0
	for {
		i = skipWhitespace(src, i)
		if i >= len(src) {
			break
		}
		c := src[i]
		switch {
		case isIdentChar(c):
			n, err := parseInstruction(src, i)
			if err != nil {
				return nil, err
			}
			root.Children = append(root.Children, n)
			i = n.End

		case c == macroBegin:
			m, end, err := ParseMacro(src, i+1)
			if err != nil {
				return nil, err
			}
			root.Children = append(root.Children, &Node{Kind: MacroNode, Macro: m, Begin: i, End: end})
			i = skipWhitespace(src, end)
			if i >= len(src) {
				return nil, &ParseError{Begin: end, End: len(src), Kind: UnfinishedNode, Context: MacroContext, Message: `Expected ";"`}
			}
			if src[i] != statementEnd {
				return nil, invalidChar(src, i, ProgramContext, `Expected ";"`)
			}
			i++

		case c == commentBegin:
			n := parseComment(src, i)
			root.Children = append(root.Children, n)
			i = n.End

		case c == statementEnd:
			i++

		default:
			return nil, invalidChar(src, i, ProgramContext, "Expected an instruction, a macro or a comment")
		}
	}
	root.End = len(src)
	return root, nil
}

// parseInstruction reads whitespace separated tokens up to and including the
// terminating ';'.
func parseInstruction(src []rune, start int) (*Node, error) {
	n := &Node{Kind: InstructionNode, Begin: start}
	i := start
	for {
		i = skipWhitespace(src, i)
		if i >= len(src) {
			return nil, &ParseError{Begin: start, End: len(src), Kind: UnfinishedNode, Context: InstructionContext, Message: `Expected ";"`}
		}
		c := src[i]
		switch {
		case c == statementEnd:
			n.End = i + 1
			return n, nil
		case isIdentChar(c):
			tok, err := parseInstructionToken(src, i)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, tok)
			i = tok.End
		default:
			return nil, invalidChar(src, i, InstructionContext, "")
		}
	}
}

func parseInstructionToken(src []rune, start int) (*Node, error) {
	word, end := scanIdentifier(src, start)
	var tok asm.Token
	if strings.HasPrefix(word, hexPrefix) {
		n, bits, ok := parseHexDigits(word[len(hexPrefix):])
		if !ok {
			return nil, &ParseError{Begin: start, End: end, Kind: HexParseError, Context: InstructionTokenContext, Name: word}
		}
		tok = asm.NewLiteral(n, bits, word)
	} else {
		tok = asm.NewWord(word, word)
	}
	return &Node{Kind: InstructionTokenNode, Token: &tok, Begin: start, End: end}, nil
}

// parseComment runs from the '#' up to, not including, the next newline.
func parseComment(src []rune, start int) *Node {
	i := start + 1
	for i < len(src) && src[i] != '\n' {
		i++
	}
	return &Node{Kind: CommentNode, Text: string(src[start+1 : i]), Begin: start, End: i}
}

// Dump renders the tree one node per line, children indented.
func (n *Node) Dump() string {
	var b strings.Builder
	n.dump(&b, 0)
	return b.String()
}

func (n *Node) dump(b *strings.Builder, depth int) {
	fmt.Fprintf(b, "%s%s [%d,%d)", strings.Repeat("  ", depth), n.Kind, n.Begin, n.End)
	switch n.Kind {
	case MacroNode:
		fmt.Fprintf(b, " @%s%v", n.Macro.Kind, n.Macro.Args)
	case InstructionTokenNode:
		fmt.Fprintf(b, " %s", n.Token)
	case CommentNode, StringLiteralNode:
		fmt.Fprintf(b, " %q", n.Text)
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		c.dump(b, depth+1)
	}
}
