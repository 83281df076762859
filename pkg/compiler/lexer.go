package compiler

import "sort"

const (
	macroBegin   = '@'
	commentBegin = '#'
	statementEnd = ';'
	stringQuote  = '"'
	escapeChar   = '\\'
	hexPrefix    = "0x"
)

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func isIdentChar(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-'
}

func skipWhitespace(src []rune, i int) int {
	for i < len(src) && isWhitespace(src[i]) {
		i++
	}
	return i
}

// scanIdentifier returns the run of identifier characters starting at i and
// the index just past it. The result is empty if src[i] does not start one.
func scanIdentifier(src []rune, i int) (string, int) {
	start := i
	for i < len(src) && isIdentChar(src[i]) {
		i++
	}
	return string(src[start:i]), i
}

var escapes = map[rune]rune{
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'n':  '\n',
	't':  '\t',
}

// parseStringLiteral scans a quoted string whose body starts at start (just
// after the opening quote). It returns the unescaped text and the index just
// past the closing quote.
func parseStringLiteral(src []rune, start int) (string, int, error) {
	var out []rune
	i := start
	for i < len(src) {
		c := src[i]
		switch c {
		case stringQuote:
			return string(out), i + 1, nil
		case escapeChar:
			if i+1 >= len(src) {
				return "", 0, &ParseError{Begin: i, End: i + 1, Kind: StringEscapeEOF, Context: StringLiteralContext}
			}
			sub, ok := escapes[src[i+1]]
			if !ok {
				return "", 0, &ParseError{
					Begin: i, End: i + 2, Kind: StringInvalidEscapeSequence, Context: StringLiteralContext, Char: src[i+1],
					Message: `valid escapes are \\ \' \" \n \t`,
				}
			}
			out = append(out, sub)
			i += 2
		default:
			out = append(out, c)
			i++
		}
	}
	return "", 0, &ParseError{Begin: start, End: len(src), Kind: UnfinishedNode, Context: StringLiteralContext, Message: `Expected closing '"'`}
}

// parseHexDigits reads the digits of a 0x literal. The result keeps the low
// byte of the value and reports 4 bits per digit.
func parseHexDigits(digits string) (byte, int, bool) {
	if digits == "" {
		return 0, 0, false
	}
	var n byte
	for _, d := range digits {
		var v byte
		switch {
		case d >= '0' && d <= '9':
			v = byte(d - '0')
		case d >= 'a' && d <= 'f':
			v = byte(d-'a') + 10
		case d >= 'A' && d <= 'F':
			v = byte(d-'A') + 10
		default:
			return 0, 0, false
		}
		n = n<<4 | v
	}
	return n, 4 * len(digits), true
}

// lineIndex maps rune offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(src []rune) lineIndex {
	var idx lineIndex
	for i, r := range src {
		if r == '\n' {
			idx = append(idx, i)
		}
	}
	return idx
}

// line counts the newlines strictly before offset.
func (l lineIndex) line(offset int) int {
	return sort.SearchInts(l, offset) + 1
}

// LineNumber converts a rune offset into src to a 1-based line number.
func LineNumber(src string, offset int) int {
	return newLineIndex([]rune(src)).line(offset)
}

// lineText returns the source line containing offset, without its newline.
func lineText(src []rune, offset int) string {
	if offset > len(src) {
		offset = len(src)
	}
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := offset
	for end < len(src) && src[end] != '\n' {
		end++
	}
	return string(src[start:end])
}
