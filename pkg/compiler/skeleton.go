package compiler

import (
	"fmt"

	"stackcpu/pkg/asm"
)

// SkeletonNode is one top-level statement: either a plain instruction or a
// macro still waiting for expansion.
type SkeletonNode struct {
	Instruction []asm.Token
	Macro       *Macro
	Line        int
}

// Instructions is the number of machine words the node occupies.
func (n SkeletonNode) Instructions() int {
	if n.Macro != nil {
		return n.Macro.Instructions()
	}
	return 1
}

// Line is one fully expanded instruction and the source line it came from.
type Line struct {
	Tokens []asm.Token
	Number int
}

type skeletonBuilder struct {
	nodes   []SkeletonNode
	anchors map[string]uint16
	errs    SkeletonErrors
}

func (b *skeletonBuilder) fail(err error, line int) {
	se, ok := err.(*SkeletonError)
	if !ok {
		se = &SkeletonError{Err: err}
	}
	se.Line = line
	b.errs = append(b.errs, se)
}

// BuildSkeleton flattens the tree and expands every macro. Errors are
// collected per node and returned together as SkeletonErrors.
func BuildSkeleton(root *Node, src string) ([]Line, error) {
	b := &skeletonBuilder{}
	b.flatten(root, newLineIndex([]rune(src)))
	if len(b.errs) == 0 {
		b.pass1()
	}
	if len(b.errs) > 0 {
		return nil, b.errs
	}
	lines := b.pass2()
	if len(b.errs) > 0 {
		return nil, b.errs
	}
	return lines, nil
}

// Anchors resolves the anchor table without expanding anything.
func Anchors(root *Node, src string) (map[string]uint16, error) {
	b := &skeletonBuilder{}
	b.flatten(root, newLineIndex([]rune(src)))
	if len(b.errs) == 0 {
		b.pass1()
	}
	if len(b.errs) > 0 {
		return nil, b.errs
	}
	return b.anchors, nil
}

// Flatten turns the top level of the tree into skeleton nodes, dropping comments.
func Flatten(root *Node, src string) ([]SkeletonNode, error) {
	b := &skeletonBuilder{}
	b.flatten(root, newLineIndex([]rune(src)))
	if len(b.errs) > 0 {
		return nil, b.errs
	}
	return b.nodes, nil
}

func (b *skeletonBuilder) flatten(root *Node, lines lineIndex) {
	if root.Kind != ProgramNode {
		b.fail(&SkeletonError{Err: ErrBadSyntaxNodeType, Detail: root.Kind.String()}, lines.line(root.Begin))
		return
	}
	for _, n := range root.Children {
		line := lines.line(n.Begin)
		switch n.Kind {
		case InstructionNode:
			tokens := make([]asm.Token, 0, len(n.Children))
			bad := false
			for _, c := range n.Children {
				if c.Kind != InstructionTokenNode || c.Token == nil {
					b.fail(&SkeletonError{Err: ErrBadSyntaxNodeType, Detail: c.Kind.String()}, lines.line(c.Begin))
					bad = true
					break
				}
				tokens = append(tokens, *c.Token)
			}
			if !bad {
				b.nodes = append(b.nodes, SkeletonNode{Instruction: tokens, Line: line})
			}
		case MacroNode:
			b.nodes = append(b.nodes, SkeletonNode{Macro: n.Macro, Line: line})
		case CommentNode:
		default:
			b.fail(&SkeletonError{Err: ErrBadSyntaxNodeType, Detail: n.Kind.String()}, line)
		}
	}
}

// pass1 sizes the program and records every anchor's address.
func (b *skeletonBuilder) pass1() {
	b.anchors = make(map[string]uint16)
	address, overLine := 0, 0
	for _, n := range b.nodes {
		if n.Macro != nil {
			if err := n.Macro.checkArgs(); err != nil {
				b.fail(err, n.Line)
				continue
			}
			if n.Macro.Kind == AnchorMacro {
				name := n.Macro.Args[0].Value
				if _, exists := b.anchors[name]; exists {
					b.fail(&SkeletonError{Err: ErrAnchorRedefinition, Detail: name}, n.Line)
					continue
				}
				b.anchors[name] = uint16(address)
			}
		}
		address += n.Instructions()
		if address > asm.MaxProgramWords && overLine == 0 {
			overLine = n.Line
		}
	}
	if address > asm.MaxProgramWords {
		b.fail(&SkeletonError{Err: ErrProgramTooLarge, Detail: fmt.Sprintf("%d instructions", address)}, overLine)
	}
}

// pass2 expands macros against the complete anchor table.
func (b *skeletonBuilder) pass2() []Line {
	var out []Line
	for _, n := range b.nodes {
		if n.Macro == nil {
			out = append(out, Line{Tokens: n.Instruction, Number: n.Line})
			continue
		}
		expanded, err := n.Macro.Expand(b.anchors)
		if err != nil {
			b.fail(err, n.Line)
			continue
		}
		for _, tokens := range expanded {
			out = append(out, Line{Tokens: tokens, Number: n.Line})
		}
	}
	return out
}
