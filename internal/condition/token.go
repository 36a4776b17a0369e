// Package condition implements the boolean expression language that decides
// screening-question visibility from prior answers. Expressions are stored as
// opaque text and must parse and evaluate identically everywhere, so the
// lexer and parser are hand-written rather than delegated to a library.
package condition

import (
	"fmt"
	"strings"
)

// ParseError reports malformed expression text, including the byte offset of
// the offending character.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("condition: parse error at offset %d: %s", e.Offset, e.Message)
}

type tokenKind int

const (
	tkEOF tokenKind = iota
	tkIdent
	tkString
	tkNumber
	tkBool
	tkAnd
	tkOr
	tkNot
	tkIn
	tkOp // ==, !=, >, >=, <, <=
	tkLParen
	tkRParen
	tkLBracket
	tkRBracket
	tkComma
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

// tokenize scans the full input up front. Working over a complete token
// stream keeps the parser a textbook recursive descent with one token of
// lookahead.
func tokenize(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(':
			toks = append(toks, token{tkLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tkRParen, ")", i})
			i++
		case c == '[':
			toks = append(toks, token{tkLBracket, "[", i})
			i++
		case c == ']':
			toks = append(toks, token{tkRBracket, "]", i})
			i++
		case c == ',':
			toks = append(toks, token{tkComma, ",", i})
			i++

		case c == '=':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, &ParseError{Offset: i, Message: "expected '=='"}
			}
			toks = append(toks, token{tkOp, "==", i})
			i += 2
		case c == '!':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, &ParseError{Offset: i, Message: "expected '!='"}
			}
			toks = append(toks, token{tkOp, "!=", i})
			i += 2
		case c == '>' || c == '<':
			op := string(c)
			start := i
			i++
			if i < len(input) && input[i] == '=' {
				op += "="
				i++
			}
			toks = append(toks, token{tkOp, op, start})

		case c == '\'' || c == '"':
			quote := c
			start := i
			i++
			j := i
			for j < len(input) && input[j] != quote {
				j++
			}
			if j >= len(input) {
				return nil, &ParseError{Offset: start, Message: "unterminated string literal"}
			}
			toks = append(toks, token{tkString, input[i:j], start})
			i = j + 1

		case c == '-' && i+1 < len(input) && isDigit(input[i+1]):
			start := i
			i++
			for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
				i++
			}
			toks = append(toks, token{tkNumber, input[start:i], start})

		case isWordByte(c):
			start := i
			for i < len(input) && isWordByte(input[i]) {
				i++
			}
			toks = append(toks, classifyWord(input[start:i], start))

		default:
			return nil, &ParseError{Offset: i, Message: fmt.Sprintf("unexpected character %q", c)}
		}
	}

	toks = append(toks, token{tkEOF, "", len(input)})
	return toks, nil
}

// classifyWord decides whether a bare word is a keyword, a literal, or an
// identifier. Identifiers are opaque answer keys and may be UUID-shaped, so
// digit-led and hyphenated words stay identifiers unless the whole word is a
// number.
func classifyWord(word string, offset int) token {
	switch strings.ToUpper(word) {
	case "AND":
		return token{tkAnd, word, offset}
	case "OR":
		return token{tkOr, word, offset}
	case "NOT":
		return token{tkNot, word, offset}
	case "IN":
		return token{tkIn, word, offset}
	case "TRUE", "FALSE":
		return token{tkBool, word, offset}
	}
	if isNumeric(word) {
		return token{tkNumber, word, offset}
	}
	return token{tkIdent, word, offset}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isWordByte covers identifier bytes: letters, digits, underscore, hyphen,
// and dot (for decimal numbers scanned as words).
func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) || c == '_' || c == '-' || c == '.'
}

func isNumeric(word string) bool {
	dot := false
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c == '.' {
			if dot {
				return false
			}
			dot = true
			continue
		}
		if !isDigit(c) {
			return false
		}
	}
	return len(word) > 0 && word[0] != '.' && word[len(word)-1] != '.'
}
