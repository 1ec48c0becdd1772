// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfextract

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

type tokenKind int

const (
	tokOperator tokenKind = iota
	tokNumber
	tokString
	tokName
	tokArrayStart
	tokArrayEnd
	tokDictStart
	tokDictEnd
)

type token struct {
	kind tokenKind
	text string // operator, name, or decoded string
	num  float64
}

// lexer tokenizes a decoded page content stream.
type lexer struct {
	data []byte
	pos  int
}

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (lx *lexer) next() (token, bool) {
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		switch {
		case isSpace(c):
			lx.pos++
		case c == '%':
			for lx.pos < len(lx.data) && lx.data[lx.pos] != '\n' && lx.data[lx.pos] != '\r' {
				lx.pos++
			}
		case c == '(':
			lx.pos++
			return token{kind: tokString, text: decodeText(lx.literal())}, true
		case c == '<':
			if lx.peek(1) == '<' {
				lx.pos += 2
				return token{kind: tokDictStart}, true
			}
			lx.pos++
			return token{kind: tokString, text: decodeText(lx.hex())}, true
		case c == '>':
			lx.pos++
			if lx.peek(0) == '>' {
				lx.pos++
				return token{kind: tokDictEnd}, true
			}
		case c == '[':
			lx.pos++
			return token{kind: tokArrayStart}, true
		case c == ']':
			lx.pos++
			return token{kind: tokArrayEnd}, true
		case c == '{' || c == '}' || c == ')':
			lx.pos++
		case c == '/':
			lx.pos++
			return token{kind: tokName, text: lx.regular()}, true
		default:
			word := lx.regular()
			if f, err := strconv.ParseFloat(word, 64); err == nil {
				return token{kind: tokNumber, num: f}, true
			}
			return token{kind: tokOperator, text: word}, true
		}
	}
	return token{}, false
}

func (lx *lexer) peek(off int) byte {
	if lx.pos+off < len(lx.data) {
		return lx.data[lx.pos+off]
	}
	return 0
}

func (lx *lexer) regular() string {
	start := lx.pos
	for lx.pos < len(lx.data) && !isSpace(lx.data[lx.pos]) && !isDelim(lx.data[lx.pos]) {
		lx.pos++
	}
	if lx.pos == start {
		// Lone delimiter we do not model; consume it so the lexer advances.
		lx.pos++
	}
	return string(lx.data[start:lx.pos])
}

// literal reads a parenthesised string body; the opening paren is consumed.
func (lx *lexer) literal() []byte {
	var out []byte
	depth := 1
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		case '\\':
			if lx.pos >= len(lx.data) {
				return out
			}
			e := lx.data[lx.pos]
			lx.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if lx.peek(0) == '\n' {
					lx.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && lx.pos < len(lx.data); i++ {
						d := lx.data[lx.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						lx.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
		default:
			out = append(out, c)
		}
	}
	return out
}

// hex reads a hex string body; the opening angle bracket is consumed.
func (lx *lexer) hex() []byte {
	var digits []byte
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		if c == '>' {
			break
		}
		if isSpace(c) {
			continue
		}
		digits = append(digits, c)
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i+1 < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			continue
		}
		out = append(out, byte(v))
	}
	return out
}

// skipInlineImage advances past BI ... ID <binary> EI.
func (lx *lexer) skipInlineImage() {
	idx := bytes.Index(lx.data[lx.pos:], []byte("ID"))
	if idx < 0 {
		lx.pos = len(lx.data)
		return
	}
	i := lx.pos + idx + 2
	for ; i+1 < len(lx.data); i++ {
		if isSpace(lx.data[i-1]) && lx.data[i] == 'E' && lx.data[i+1] == 'I' &&
			(i+2 == len(lx.data) || isSpace(lx.data[i+2])) {
			lx.pos = i + 2
			return
		}
	}
	lx.pos = len(lx.data)
}

// decodeText converts a PDF string to UTF-8: UTF-16BE when it carries a
// byte order mark, Windows-1252 otherwise.
func decodeText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		dec := xunicode.UTF16(xunicode.BigEndian, xunicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(b); err == nil {
			return string(out)
		}
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// textWriter accumulates shown strings with separators collapsed.
type textWriter struct {
	sb strings.Builder
}

func (w *textWriter) text(s string) { w.sb.WriteString(s) }

func (w *textWriter) newline() {
	s := w.sb.String()
	if s == "" || strings.HasSuffix(s, "\n") {
		return
	}
	w.sb.WriteByte('\n')
}

func (w *textWriter) space() {
	s := w.sb.String()
	if s == "" || strings.HasSuffix(s, "\n") || strings.HasSuffix(s, " ") {
		return
	}
	w.sb.WriteByte(' ')
}

// contentText returns the text shown by a content stream. Td/TD with a
// vertical offset, T*, the quote operators, and Tm with a new baseline start
// new lines; large negative TJ kerning becomes a space.
func contentText(data []byte) string {
	lx := &lexer{data: data}
	var w textWriter
	var operands []token
	var array []token
	inArray := false
	var arrayOperand []token
	lastY, haveY := 0.0, false

	lastString := func() (string, bool) {
		for i := len(operands) - 1; i >= 0; i-- {
			if operands[i].kind == tokString {
				return operands[i].text, true
			}
		}
		return "", false
	}
	number := func(i int) (float64, bool) {
		if i < 0 || i >= len(operands) || operands[i].kind != tokNumber {
			return 0, false
		}
		return operands[i].num, true
	}

	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		if inArray {
			if tok.kind == tokArrayEnd {
				inArray = false
				arrayOperand = append(arrayOperand[:0], array...)
				continue
			}
			array = append(array, tok)
			continue
		}

		switch tok.kind {
		case tokArrayStart:
			inArray = true
			array = array[:0]
		case tokOperator:
			switch tok.text {
			case "Tj":
				if s, ok := lastString(); ok {
					w.text(s)
				}
			case "'", "\"":
				w.newline()
				if s, ok := lastString(); ok {
					w.text(s)
				}
			case "TJ":
				for _, el := range arrayOperand {
					switch el.kind {
					case tokString:
						w.text(el.text)
					case tokNumber:
						if el.num < -200 {
							w.space()
						}
					}
				}
			case "Td", "TD":
				if ty, ok := number(len(operands) - 1); ok && ty != 0 {
					w.newline()
				} else {
					w.space()
				}
			case "T*":
				w.newline()
			case "Tm":
				if f, ok := number(len(operands) - 1); ok {
					if haveY && f != lastY {
						w.newline()
					} else if haveY {
						w.space()
					}
					lastY, haveY = f, true
				}
			case "ET":
				w.space()
			case "BI":
				lx.skipInlineImage()
			}
			operands = operands[:0]
			arrayOperand = arrayOperand[:0]
		default:
			operands = append(operands, tok)
		}
	}
	return cleanText(w.sb.String())
}

// cleanText drops control characters, collapses runs of blanks, and
// removes empty lines.
func cleanText(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Map(func(r rune) rune {
			switch {
			case r == '\t':
				return ' '
			case r == unicode.ReplacementChar, !unicode.IsPrint(r) && r != ' ':
				return -1
			}
			return r
		}, line)
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
