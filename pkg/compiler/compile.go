package compiler

import (
	"errors"

	"stackcpu/pkg/asm"
)

// Compile assembles src into program words. The returned map takes each
// instruction address to its 1-based source line; every word expanded from a
// macro maps to the macro's line.
//
// A parse failure stops compilation at once. Skeleton and encoding failures
// are collected so that one call reports every bad line. Any failure is
// returned as an ErrorList.
func Compile(src string, cfg *asm.Config) ([]uint16, map[uint16]int, error) {
	if cfg == nil {
		cfg = asm.DefaultConfig()
	}
	runes := []rune(src)
	lines := newLineIndex(runes)

	root, err := buildTree(runes)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, nil, ErrorList{{
				Line:     lines.line(pe.Begin),
				LineText: lineText(runes, pe.Begin),
				Err:      pe,
				Message:  pe.Message,
			}}
		}
		return nil, nil, ErrorList{{Err: err}}
	}

	skeleton, err := BuildSkeleton(root, src)
	if err != nil {
		var errs ErrorList
		var se SkeletonErrors
		if errors.As(err, &se) {
			for _, e := range se {
				errs = append(errs, &CompileError{Line: e.Line, LineText: sourceLine(runes, lines, e.Line), Err: e})
			}
		} else {
			errs = append(errs, &CompileError{Err: err})
		}
		return nil, nil, errs
	}

	words := make([]uint16, 0, len(skeleton))
	sourceMap := make(map[uint16]int, len(skeleton))
	var errs ErrorList
	for _, l := range skeleton {
		w, err := asm.Encode(l.Tokens, cfg)
		if err != nil {
			ce := &CompileError{Line: l.Number, LineText: sourceLine(runes, lines, l.Number), Err: err}
			var ee *asm.EncodeError
			if errors.As(err, &ee) {
				ce.Message = ee.Message
			}
			errs = append(errs, ce)
			continue
		}
		sourceMap[uint16(len(words))] = l.Number
		words = append(words, w)
	}
	if len(errs) > 0 {
		return nil, nil, errs
	}
	return words, sourceMap, nil
}

// sourceLine returns the text of the 1-based line n, or "" when n is out of range.
func sourceLine(src []rune, lines lineIndex, n int) string {
	if n < 1 || n > len(lines)+1 {
		return ""
	}
	start := 0
	if n > 1 {
		start = lines[n-2] + 1
	}
	return lineText(src, start)
}
