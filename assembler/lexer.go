package assembler

import (
	"strings"
)

// lexLine tokenizes one source line. Diagnostics for malformed lexemes are
// appended to diags; lexing continues past them so later errors on the same
// line still surface.
func lexLine(line string, lineNum int, diags *[]Diagnostic) []Token {
	var tokens []Token
	i := 0
	seenWord := false

	emit := func(kind TokenKind, text string, col int) {
		tokens = append(tokens, Token{Kind: kind, Text: text, Line: lineNum, Col: col})
	}

	for i < len(line) {
		c := line[i]

		if c == ' ' || c == '\t' || c == '\r' {
			i++
			continue
		}
		if c == '#' || c == ';' {
			break
		}

		start := i
		switch {
		case c == '$':
			i++
			for i < len(line) && isWordChar(line[i]) {
				i++
			}
			if i == start+1 {
				*diags = append(*diags, Errors.SyntaxError(
					Token{Kind: TokenRegister, Text: "$", Line: lineNum, Col: start}.Range(),
					"'$' must be followed by a register name"))
				continue
			}
			emit(TokenRegister, line[start+1:i], start)

		case c == '.':
			i++
			for i < len(line) && isWordChar(line[i]) {
				i++
			}
			emit(TokenDirective, strings.ToLower(line[start+1:i]), start)
			seenWord = true

		case c == '"':
			text, end, ok := lexString(line, i)
			if !ok {
				*diags = append(*diags, Errors.SyntaxError(
					Token{Kind: TokenString, Text: line[start:], Line: lineNum, Col: start}.Range(),
					"unterminated string literal"))
				i = len(line)
				continue
			}
			emit(TokenString, text, start)
			i = end

		case c >= '0' && c <= '9' || c == '-' || c == '+':
			i++
			for i < len(line) && (isWordChar(line[i])) {
				i++
			}
			emit(TokenImmediate, line[start:i], start)

		case isWordChar(c):
			i++
			for i < len(line) && isWordChar(line[i]) {
				i++
			}
			word := line[start:i]
			if i < len(line) && line[i] == ':' {
				i++
				emit(TokenLabel, word, start)
				continue
			}
			// The first bare word of a line is its mnemonic; anything
			// after is a label reference or expression identifier.
			if !seenWord {
				emit(TokenMnemonic, strings.ToLower(word), start)
				seenWord = true
			} else {
				emit(TokenIdentifier, word, start)
			}

		default:
			i++
			emit(TokenPunct, string(c), start)
		}
	}

	return tokens
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// lexString decodes a double-quoted literal starting at line[start]. It
// returns the decoded text, the index past the closing quote, and whether a
// closing quote was found.
func lexString(line string, start int) (string, int, bool) {
	var sb strings.Builder
	i := start + 1
	for i < len(line) {
		c := line[i]
		if c == '"' {
			return sb.String(), i + 1, true
		}
		if c == '\\' && i+1 < len(line) {
			i++
			switch line[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '0':
				sb.WriteByte(0)
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				sb.WriteByte(line[i])
			}
			i++
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return "", i, false
}
