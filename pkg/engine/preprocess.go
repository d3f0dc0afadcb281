package engine

import "strings"

// preprocessSource rewrites model source into something zygomys reads:
//
//   - :element becomes the string "__kw_element", so keyword arguments
//     never collide with user bindings;
//   - bond-type becomes bond_type, since zygomys reads a hyphen as minus;
//   - ; and ;; comments become // comments.
//
// String literals and comment bodies are copied untouched.
func preprocessSource(source string) string {
	p := preprocessor{src: source}
	p.out.Grow(len(source) + len(source)/4)
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == '"':
			p.quoted('"', true)
		case c == '`':
			p.quoted('`', false)
		case c == ';':
			p.comment()
		case c == ':':
			p.keyword()
		case c == '-' && p.joinsIdentifier():
			p.out.WriteByte('_')
			p.pos++
		default:
			p.out.WriteByte(c)
			p.pos++
		}
	}
	return p.out.String()
}

type preprocessor struct {
	src string
	pos int
	out strings.Builder
}

// quoted copies a literal delimited by delim, honouring backslash escapes
// when escapes is set. An unterminated literal runs to the end of input.
func (p *preprocessor) quoted(delim byte, escapes bool) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) && p.src[p.pos] != delim {
		if escapes && p.src[p.pos] == '\\' && p.pos+1 < len(p.src) {
			p.pos++
		}
		p.pos++
	}
	if p.pos < len(p.src) {
		p.pos++
	}
	p.out.WriteString(p.src[start:p.pos])
}

func (p *preprocessor) comment() {
	p.pos += len(p.src[p.pos:]) - len(strings.TrimLeft(p.src[p.pos:], ";"))
	end := strings.IndexByte(p.src[p.pos:], '\n')
	if end < 0 {
		end = len(p.src) - p.pos
	}
	p.out.WriteString("//")
	p.out.WriteString(p.src[p.pos : p.pos+end])
	p.pos += end
}

// keyword rewrites :name. A colon not followed by a letter, including the
// := operator, is copied as is.
func (p *preprocessor) keyword() {
	if p.pos+1 < len(p.src) && p.src[p.pos+1] == '=' {
		p.out.WriteString(":=")
		p.pos += 2
		return
	}
	end := p.pos + 1
	for end < len(p.src) && (isIdentChar(p.src[end]) || p.src[end] == '-') {
		end++
	}
	if end == p.pos+1 || !isLetter(p.src[p.pos+1]) {
		p.out.WriteByte(':')
		p.pos++
		return
	}
	p.out.WriteByte('"')
	p.out.WriteString(kwPrefix)
	p.out.WriteString(p.src[p.pos+1 : end])
	p.out.WriteByte('"')
	p.pos = end
}

// joinsIdentifier reports whether the hyphen at pos sits inside a name
// rather than standing as the minus operator or a sign.
func (p *preprocessor) joinsIdentifier() bool {
	return p.pos > 0 && p.pos+1 < len(p.src) &&
		isIdentChar(p.src[p.pos-1]) && isLetter(p.src[p.pos+1])
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}
