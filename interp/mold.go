package interp

import (
	"fmt"
	"strconv"
	"strings"
)

// Mold renders c as canonical Rebol source text, spec.md §6.3: "Canonical
// value molding to UTF-8 text is defined for every kind (round-trip
// through the scanner is guaranteed for non-image types)."
func Mold(c *Cell) string {
	var b strings.Builder
	moldInto(&b, c)
	return b.String()
}

func moldInto(b *strings.Builder, c *Cell) {
	if d := c.LiteralDepth(); d > 0 {
		for i := 0; i < d; i++ {
			b.WriteByte('\'')
		}
		inner := *c
		for inner.kind == KindLiteral {
			inner = inner.node[0]
		}
		inner = unescape(inner)
		moldInto(b, &inner)
		return
	}
	switch c.kind {
	case KindEnd:
		// nothing: an end marker never appears in molded output.
	case KindNull:
		// Null has no literal read syntax; mold emits nothing, matching
		// spec.md's framing of null as "distinct from absence" rather
		// than a moldable datum.
	case KindBlank:
		b.WriteByte('_')
	case KindLogic:
		if c.Truthy() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindInteger:
		b.WriteString(strconv.FormatInt(c.i, 10))
	case KindDecimal:
		b.WriteString(strconv.FormatFloat(c.d, 'g', -1, 64))
	case KindChar:
		moldChar(b, rune(c.i))
	case KindWord:
		b.WriteString(symName(c.sym))
	case KindSetWord:
		b.WriteString(symName(c.sym))
		b.WriteByte(':')
	case KindGetWord:
		b.WriteByte(':')
		b.WriteString(symName(c.sym))
	case KindSymWord:
		b.WriteByte('\'')
		b.WriteString(symName(c.sym))
	case KindText:
		moldText(b, c.GoString())
	case KindFile:
		b.WriteByte('%')
		b.WriteString(c.GoString())
	case KindURL, KindEmail, KindTag, KindIssue:
		b.WriteString(c.GoString())
	case KindBinary:
		moldBinary(b, c.ser.Bytes())
	case KindBlock:
		moldArray(b, c, '[', ']')
	case KindSetBlock:
		moldArray(b, c, '[', ']')
		b.WriteByte(':')
	case KindGetBlock:
		b.WriteByte(':')
		moldArray(b, c, '[', ']')
	case KindGroup:
		moldArray(b, c, '(', ')')
	case KindPath:
		moldPath(b, c)
	case KindSetPath:
		moldPath(b, c)
		b.WriteByte(':')
	case KindGetPath:
		b.WriteByte(':')
		moldPath(b, c)
	case KindMap:
		b.WriteString("#(")
		if hl, ok := c.ser.Misc.(*Series); ok {
			hm := &HashMap{Pairs: c.ser, Hash: hl}
			first := true
			for i := 0; i < len(hm.Pairs.cells)/2; i++ {
				v := hm.Pairs.cells[i*2+1]
				if v.IsNull() {
					continue
				}
				if !first {
					b.WriteByte(' ')
				}
				first = false
				k := hm.Pairs.cells[i*2]
				moldInto(b, &k)
				b.WriteByte(' ')
				moldInto(b, &v)
			}
		}
		b.WriteByte(')')
	case KindObject:
		b.WriteString("make object! [")
		moldContextBody(b, c.ctx)
		b.WriteByte(']')
	case KindError:
		b.WriteString("make error! [")
		moldContextBody(b, c.ctx)
		b.WriteByte(']')
	case KindAction:
		b.WriteString(fmt.Sprintf("make action! [%d params]", len(c.act.Params)-1))
	case KindDatatype:
		b.WriteString(c.dt.String())
	default:
		b.WriteString(fmt.Sprintf("#[%s]", c.kind))
	}
}

func moldChar(b *strings.Builder, r rune) {
	b.WriteString("#\"")
	b.WriteRune(r)
	b.WriteByte('"')
}

// moldText implements spec.md §6.3: "Strings are molded with paired
// quotes if short and newline-poor, else braced with escape markers
// ^(xxxx) for non-printables and 0x1e, 0xfeff."
func moldText(b *strings.Builder, s string) {
	if len(s) <= 64 && !strings.Contains(s, "\n") && !needsEscaping(s) {
		b.WriteByte('"')
		for _, r := range s {
			if r == '"' || r == '^' {
				b.WriteByte('^')
			}
			b.WriteRune(r)
		}
		b.WriteByte('"')
		return
	}
	b.WriteString("{")
	for _, r := range s {
		switch {
		case r == '{' || r == '}' || r == '^':
			b.WriteByte('^')
			b.WriteRune(r)
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r == 0x1e || r == 0xfeff || !strconv.IsPrint(r):
			fmt.Fprintf(b, "^(%04x)", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString("}")
}

func needsEscaping(s string) bool {
	for _, r := range s {
		if r == 0x1e || r == 0xfeff || !strconv.IsPrint(r) {
			return true
		}
	}
	return false
}

// moldBinary implements spec.md §6.3: "Binary literals mold as
// #{hexbytes}."
func moldBinary(b *strings.Builder, bytes []byte) {
	b.WriteString("#{")
	const hex = "0123456789ABCDEF"
	for _, c := range bytes {
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0xf])
	}
	b.WriteByte('}')
}

func moldArray(b *strings.Builder, c *Cell, open, close byte) {
	b.WriteByte(open)
	if c.ser != nil {
		for i, cell := range c.ser.Cells() {
			if i > 0 {
				b.WriteByte(' ')
			}
			moldInto(b, &cell)
		}
	}
	b.WriteByte(close)
}

func moldPath(b *strings.Builder, c *Cell) {
	if c.ser == nil {
		return
	}
	for i, cell := range c.ser.Cells() {
		if i > 0 {
			b.WriteByte('/')
		}
		moldInto(b, &cell)
	}
}

func moldContextBody(b *strings.Builder, ctx *Context) {
	for i := 1; i < len(ctx.Vars); i++ {
		if i > 1 {
			b.WriteByte(' ')
		}
		b.WriteString(symName(ctx.Keys[i].Sym))
		b.WriteString(": ")
		v := ctx.Vars[i]
		moldInto(b, &v)
	}
}

// Form renders c as "display" text: a text! value renders without quotes
// or braces; every other kind forms exactly as it molds.
func Form(c *Cell) string {
	if c.kind == KindText {
		return c.GoString()
	}
	return Mold(c)
}
