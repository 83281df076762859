package main

import (
	"fmt"
	"os"
	"strings"

	"stackcpu/pkg/asm"
	"stackcpu/pkg/compiler"
)

const testSource = `@anchor(start);
write 0x42 stack-push; # answer
@goto(start);
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}
	cfg := asm.DefaultConfig()

	fmt.Printf("Source:\n%s\n", src)

	// Syntax tree
	root, err := compiler.BuildTree(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}
	fmt.Println("Syntax tree")
	fmt.Print(root.Dump())
	fmt.Println()

	// Anchors
	anchors, err := compiler.Anchors(root, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "skeleton error:", err)
		os.Exit(1)
	}
	fmt.Printf("Anchors (%d)\n", len(anchors))
	for name, addr := range anchors {
		fmt.Printf("  %-20s 0x%04X\n", name, addr)
	}
	fmt.Println()

	// Skeleton
	lines, err := compiler.BuildSkeleton(root, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "skeleton error:", err)
		os.Exit(1)
	}
	fmt.Println("Skeleton")
	for i, l := range lines {
		raw := make([]string, len(l.Tokens))
		for j, t := range l.Tokens {
			raw[j] = t.String()
		}
		fmt.Printf("  %04X  line %-4d %s\n", i, l.Number, strings.Join(raw, " "))
	}
	fmt.Println()

	// Machine code
	words, _, err := compiler.Compile(src, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Words: %s\n\n", asm.FormatDecList(words))
	fmt.Println("Disassembly")
	fmt.Print(asm.Disassemble(words, cfg))
}
