package provider

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/nao1215/pagediff/internal/model"
)

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m x n, i.e. m applied first.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

// token is one lexical element of a content stream.
type token struct {
	kind  tokenKind
	text  string
	num   float64
	items []token
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokName
	tokString
	tokArray
	tokOperator
	tokOther
)

// lexer splits a content stream into tokens.
type lexer struct {
	data []byte
	pos  int
}

func isWhite(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (l *lexer) skip() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isWhite(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

// next returns the next token, or false at the end of the stream.
func (l *lexer) next() (token, bool) {
	l.skip()
	if l.pos >= len(l.data) {
		return token{}, false
	}
	c := l.data[l.pos]
	switch {
	case c == '(':
		return token{kind: tokString, text: l.literal()}, true
	case c == '<' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '<':
		l.pos += 2
		l.skipDict()
		return token{kind: tokOther}, true
	case c == '<':
		return token{kind: tokString, text: l.hex()}, true
	case c == '[':
		l.pos++
		var items []token
		for {
			l.skip()
			if l.pos >= len(l.data) {
				break
			}
			if l.data[l.pos] == ']' {
				l.pos++
				break
			}
			t, ok := l.next()
			if !ok {
				break
			}
			items = append(items, t)
		}
		return token{kind: tokArray, items: items}, true
	case c == '/':
		l.pos++
		return token{kind: tokName, text: l.word()}, true
	case c == ']' || c == '>' || c == ')' || c == '{' || c == '}':
		l.pos++
		return token{kind: tokOther}, true
	}

	w := l.word()
	if f, err := strconv.ParseFloat(w, 64); err == nil {
		return token{kind: tokNumber, num: f}, true
	}
	return token{kind: tokOperator, text: w}, true
}

func (l *lexer) word() string {
	start := l.pos
	for l.pos < len(l.data) && !isWhite(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	if l.pos == start && l.pos < len(l.data) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

func (l *lexer) skipDict() {
	depth := 1
	for l.pos < len(l.data) && depth > 0 {
		switch {
		case l.pos+1 < len(l.data) && l.data[l.pos] == '<' && l.data[l.pos+1] == '<':
			depth++
			l.pos += 2
		case l.pos+1 < len(l.data) && l.data[l.pos] == '>' && l.data[l.pos+1] == '>':
			depth--
			l.pos += 2
		default:
			l.pos++
		}
	}
}

// skipInlineImage moves past the binary data of an inline image up to
// and including its EI operator.
func (l *lexer) skipInlineImage() {
	for l.pos+2 <= len(l.data) {
		if l.data[l.pos] == 'E' && l.data[l.pos+1] == 'I' &&
			(l.pos == 0 || isWhite(l.data[l.pos-1])) &&
			(l.pos+2 == len(l.data) || isWhite(l.data[l.pos+2])) {
			l.pos += 2
			return
		}
		l.pos++
	}
	l.pos = len(l.data)
}

// literal reads a (...) string with nesting and escapes.
func (l *lexer) literal() string {
	l.pos++
	var out []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '\\':
			if l.pos >= len(l.data) {
				continue
			}
			e := l.data[l.pos]
			l.pos++
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
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; k++ {
						v = v*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return decodeText(out)
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return decodeText(out)
}

// hex reads a <...> string.
func (l *lexer) hex() string {
	l.pos++
	var digits []byte
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		if c := l.data[l.pos]; !isWhite(c) {
			digits = append(digits, c)
		}
		l.pos++
	}
	l.pos++
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
	return decodeText(out)
}

// decodeText interprets string bytes as UTF-16BE when they carry a byte
// order mark and as Latin-1 otherwise.
func decodeText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	}
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}

// placement is an XObject drawn by a Do operator.
type placement struct {
	name   string
	bounds model.Rect
}

// contentResult is what a page content stream draws.
type contentResult struct {
	runs   []model.TextRun
	images []placement
}

// interpreter tracks the graphics and text state of a content stream.
type interpreter struct {
	height float64

	ctm   matrix
	stack []matrix

	tm, lm   matrix
	font     string
	size     float64
	leading  float64
	inText   bool
	operands []token

	out contentResult
}

// interpretContent extracts text runs and image placements from a page
// content stream. Coordinates are converted to a top-left origin using
// the page height. Text widths are estimated from the font size.
func interpretContent(data []byte, pageHeight float64) contentResult {
	in := &interpreter{height: pageHeight, ctm: identity, tm: identity, lm: identity}
	lx := &lexer{data: data}
	for {
		t, ok := lx.next()
		if !ok {
			break
		}
		if t.kind != tokOperator {
			in.operands = append(in.operands, t)
			continue
		}
		if t.text == "ID" {
			lx.skipInlineImage()
		}
		in.apply(t.text)
		in.operands = in.operands[:0]
	}
	return in.out
}

func (in *interpreter) nums(n int) ([]float64, bool) {
	if len(in.operands) < n {
		return nil, false
	}
	ops := in.operands[len(in.operands)-n:]
	out := make([]float64, n)
	for i, t := range ops {
		if t.kind != tokNumber {
			return nil, false
		}
		out[i] = t.num
	}
	return out, true
}

func (in *interpreter) lastString() (string, bool) {
	if len(in.operands) == 0 {
		return "", false
	}
	t := in.operands[len(in.operands)-1]
	return t.text, t.kind == tokString
}

func (in *interpreter) apply(op string) {
	switch op {
	case "q":
		in.stack = append(in.stack, in.ctm)
	case "Q":
		if n := len(in.stack); n > 0 {
			in.ctm = in.stack[n-1]
			in.stack = in.stack[:n-1]
		}
	case "cm":
		if v, ok := in.nums(6); ok {
			in.ctm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}.mul(in.ctm)
		}
	case "BT":
		in.inText = true
		in.tm, in.lm = identity, identity
	case "ET":
		in.inText = false
	case "Tf":
		if len(in.operands) >= 2 {
			if name := in.operands[len(in.operands)-2]; name.kind == tokName {
				in.font = name.text
			}
			if size := in.operands[len(in.operands)-1]; size.kind == tokNumber {
				in.size = size.num
			}
		}
	case "TL":
		if v, ok := in.nums(1); ok {
			in.leading = v[0]
		}
	case "Td":
		if v, ok := in.nums(2); ok {
			in.moveLine(v[0], v[1])
		}
	case "TD":
		if v, ok := in.nums(2); ok {
			in.leading = -v[1]
			in.moveLine(v[0], v[1])
		}
	case "Tm":
		if v, ok := in.nums(6); ok {
			in.tm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
			in.lm = in.tm
		}
	case "T*":
		in.moveLine(0, -in.leading)
	case "Tj":
		if s, ok := in.lastString(); ok {
			in.show(s)
		}
	case "'", "\"":
		in.moveLine(0, -in.leading)
		if s, ok := in.lastString(); ok {
			in.show(s)
		}
	case "TJ":
		if len(in.operands) > 0 {
			if arr := in.operands[len(in.operands)-1]; arr.kind == tokArray {
				var sb strings.Builder
				for _, it := range arr.items {
					switch {
					case it.kind == tokString:
						sb.WriteString(it.text)
					case it.kind == tokNumber && it.num < -200:
						// A large negative kern is a word gap.
						sb.WriteByte(' ')
					}
				}
				in.show(sb.String())
			}
		}
	case "Do":
		if len(in.operands) > 0 {
			if name := in.operands[len(in.operands)-1]; name.kind == tokName {
				in.place(name.text)
			}
		}
	}
}

func (in *interpreter) moveLine(tx, ty float64) {
	in.lm = translate(tx, ty).mul(in.lm)
	in.tm = in.lm
}

func (in *interpreter) show(s string) {
	if !in.inText || strings.TrimSpace(s) == "" {
		return
	}
	m := in.tm.mul(in.ctm)
	scale := m[3]
	if scale < 0 {
		scale = -scale
	}
	if scale == 0 {
		scale = 1
	}
	size := in.size * scale
	width := 0.5 * size * float64(len([]rune(s)))

	in.out.runs = append(in.out.runs, model.TextRun{
		Text:     s,
		X:        m[4],
		Y:        in.height - m[5] - size,
		Width:    width,
		Height:   size,
		FontName: in.font,
		FontSize: size,
	})

	// Advance so that consecutive shows on one line do not overlap.
	if in.size > 0 {
		in.tm = translate(0.5*in.size*float64(len([]rune(s))), 0).mul(in.tm)
	}
}

func (in *interpreter) place(name string) {
	m := in.ctm
	w, h := m[0], m[3]
	x, y := m[4], m[5]
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	in.out.images = append(in.out.images, placement{
		name:   name,
		bounds: model.Rect{X: x, Y: in.height - y - h, Width: w, Height: h},
	})
}
