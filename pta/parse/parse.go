// Package parse implements the line-oriented PTA file grammar:
//
//	root: <state> # <weight>
//	transition: <q> -> <f>(<q1>, <q2>, ..., <qk>) # <weight>
//
// Lines starting with '#' or '%' are comments. Tokens are either a bare run
// of non-reserved characters, or a double-quoted, backslash-escaped string
// for identifiers that need a reserved character.
package parse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cirdeirf/mpt/mpterr"
	"github.com/cirdeirf/mpt/pta"
)

// reservedRunes matches pta.reservedChars plus the comment/weight marker;
// duplicated here rather than exported so the tokenizer and the model's
// identifier validator stay independently checkable.
const reservedRunes = "\" ->→,;()[]%#"

// Parse reads a full PTA file and returns the validated Automaton.
func Parse(r io.Reader) (*pta.Automaton, error) {
	b := pta.NewBuilder()
	arities := make(map[string]int)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "%") {
			continue
		}
		if err := parseLine(b, arities, trimmed, lineNo); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, mpterr.Io(err, "reading PTA input")
	}
	return b.Build()
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*pta.Automaton, error) {
	return Parse(strings.NewReader(s))
}

func parseLine(b *pta.Builder, arities map[string]int, line string, lineNo int) error {
	cur := &cursor{s: line, line: lineNo}

	switch {
	case cur.consumeLiteral("root:"):
		return parseRoot(b, cur)
	case cur.consumeLiteral("transition:"):
		return parseTransition(b, arities, cur)
	default:
		return mpterr.Parse(lineNo, mpterr.ReasonUnknownDirective, "unrecognised line %q", line)
	}
}

func parseRoot(b *pta.Builder, cur *cursor) error {
	cur.skipSpace()
	state, err := cur.token()
	if err != nil {
		return err
	}
	p, err := cur.weight(1.0)
	if err != nil {
		return err
	}
	b.AddRoot(state, p)
	return builderErr(b, cur.line)
}

func parseTransition(b *pta.Builder, arities map[string]int, cur *cursor) error {
	cur.skipSpace()
	source, err := cur.token()
	if err != nil {
		return err
	}
	cur.skipSpace()
	if !cur.consumeArrow() {
		return mpterr.Parse(cur.line, mpterr.ReasonMalformedLine, "expected '->' or '→' after state %q", source)
	}
	cur.skipSpace()
	symbol, err := cur.token()
	if err != nil {
		return err
	}
	cur.skipSpace()
	children, err := cur.childList()
	if err != nil {
		return err
	}
	p, err := cur.weight(1.0)
	if err != nil {
		return err
	}

	if prev, ok := arities[symbol]; ok && prev != len(children) {
		return mpterr.Parse(cur.line, mpterr.ReasonArityMismatch,
			"symbol %q previously used with arity %d, now %d", symbol, prev, len(children))
	}
	arities[symbol] = len(children)

	b.AddTransition(source, symbol, children, p)
	return builderErr(b, cur.line)
}

// builderErr surfaces the Builder's eager validation error (weight or
// identifier) as a line-tagged ParseError, so parse-time problems carry
// a line number even when the underlying check lives in the automaton
// model.
func builderErr(b *pta.Builder, line int) error {
	me := b.Err()
	if me == nil {
		return nil
	}
	reason := mpterr.ReasonBadWeight
	if strings.Contains(me.Msg, "reserved character") {
		reason = mpterr.ReasonReservedChar
	}
	return mpterr.Parse(line, reason, "%s", me.Msg)
}

// cursor is a small scanner over one source line.
type cursor struct {
	s    string
	pos  int
	line int
}

func (c *cursor) consumeLiteral(lit string) bool {
	if strings.HasPrefix(c.s[c.pos:], lit) {
		c.pos += len(lit)
		return true
	}
	return false
}

func (c *cursor) consumeArrow() bool {
	if c.consumeLiteral("->") {
		return true
	}
	if strings.HasPrefix(c.s[c.pos:], "→") {
		c.pos += utf8.RuneLen('→')
		return true
	}
	return false
}

func (c *cursor) skipSpace() {
	for c.pos < len(c.s) && (c.s[c.pos] == ' ' || c.s[c.pos] == '\t') {
		c.pos++
	}
}

func (c *cursor) eof() bool { return c.pos >= len(c.s) }

// token reads one identifier: either a "-quoted, backslash-escaped string,
// or a bare run of characters none of which is in reservedRunes.
func (c *cursor) token() (string, error) {
	if c.eof() {
		return "", mpterr.Parse(c.line, mpterr.ReasonMalformedLine, "expected a token, found end of line")
	}
	if c.s[c.pos] == '"' {
		return c.quotedToken()
	}
	start := c.pos
	for c.pos < len(c.s) {
		r, size := utf8.DecodeRuneInString(c.s[c.pos:])
		if strings.ContainsRune(reservedRunes, r) {
			break
		}
		c.pos += size
	}
	if c.pos == start {
		return "", mpterr.Parse(c.line, mpterr.ReasonMalformedLine, "expected a token at %q", c.s[c.pos:])
	}
	return c.s[start:c.pos], nil
}

func (c *cursor) quotedToken() (string, error) {
	c.pos++ // opening quote
	var b strings.Builder
	for {
		if c.pos >= len(c.s) {
			return "", mpterr.Parse(c.line, mpterr.ReasonMalformedLine, "unterminated quoted token")
		}
		r := c.s[c.pos]
		switch r {
		case '"':
			c.pos++
			return b.String(), nil
		case '\\':
			c.pos++
			if c.pos >= len(c.s) {
				return "", mpterr.Parse(c.line, mpterr.ReasonMalformedLine, "dangling escape in quoted token")
			}
			b.WriteByte(c.s[c.pos])
			c.pos++
		default:
			b.WriteByte(r)
			c.pos++
		}
	}
}

// childList reads "(<q1>, <q2>, ...)" — empty for a 0-ary symbol.
func (c *cursor) childList() ([]string, error) {
	if c.eof() || c.s[c.pos] != '(' {
		return nil, mpterr.Parse(c.line, mpterr.ReasonMalformedLine, "expected '(' to open child list")
	}
	c.pos++
	var children []string
	c.skipSpace()
	if !c.eof() && c.s[c.pos] == ')' {
		c.pos++
		return children, nil
	}
	for {
		c.skipSpace()
		tok, err := c.token()
		if err != nil {
			return nil, err
		}
		children = append(children, tok)
		c.skipSpace()
		if c.eof() {
			return nil, mpterr.Parse(c.line, mpterr.ReasonMalformedLine, "unterminated child list")
		}
		switch c.s[c.pos] {
		case ',':
			c.pos++
			continue
		case ')':
			c.pos++
			return children, nil
		default:
			return nil, mpterr.Parse(c.line, mpterr.ReasonMalformedLine, "expected ',' or ')' in child list")
		}
	}
}

// weight reads an optional "# <number>" suffix, defaulting to def when
// absent. An omitted weight means 1.0, so hand-written deterministic
// automata can leave the marker off entirely.
func (c *cursor) weight(def float64) (float64, error) {
	c.skipSpace()
	if c.eof() {
		return def, nil
	}
	if c.s[c.pos] != '#' {
		return 0, mpterr.Parse(c.line, mpterr.ReasonMalformedLine, "unexpected trailing characters %q", c.s[c.pos:])
	}
	c.pos++
	c.skipSpace()
	rest := strings.TrimSpace(c.s[c.pos:])
	if rest == "" {
		return def, nil
	}
	p, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return 0, mpterr.Parse(c.line, mpterr.ReasonBadWeight, "cannot parse weight %q", rest)
	}
	c.pos = len(c.s)
	return p, nil
}
