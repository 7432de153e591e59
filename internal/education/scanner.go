package education

import (
	"strconv"
	"strings"
)

// bodyMode controls whether an element body may span lines.
type bodyMode int

const (
	// inline bodies end on the line they start. An occurrence whose body
	// crosses a newline is skipped and the scan moves on.
	inline bodyMode = iota
	// block bodies may contain newlines.
	block
)

// element is a matched <name attrs>body</name> region.
type element struct {
	attrs map[string]string
	body  string
}

// attr returns a trimmed attribute value.
func (e element) attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return strings.TrimSpace(v), ok
}

// id returns the integer id attribute. Only plain digit strings count.
func (e element) id() (int, bool) {
	v, ok := e.attr("id")
	if !ok || v == "" {
		return 0, false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// findElement returns the first element called name in s.
func findElement(s, name string, mode bodyMode) (element, bool) {
	el, _, ok := scanElement(s, 0, name, mode)
	return el, ok
}

// findAllElements returns every non-overlapping element called name in s,
// in source order.
func findAllElements(s, name string, mode bodyMode) []element {
	var out []element
	pos := 0
	for pos < len(s) {
		el, end, ok := scanElement(s, pos, name, mode)
		if !ok {
			break
		}
		out = append(out, el)
		pos = end
	}
	return out
}

// findText returns the trimmed inline body of the first element called name.
func findText(s, name string) (string, bool) {
	el, ok := findElement(s, name, inline)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(el.body), true
}

// findBlockText is findText for bodies that may span lines.
func findBlockText(s, name string) (string, bool) {
	el, ok := findElement(s, name, block)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(el.body), true
}

// textOr returns the inline text of name, or fallback when it is absent.
func textOr(s, name, fallback string) string {
	if v, ok := findText(s, name); ok {
		return v
	}
	return fallback
}

// scanElement finds the first element called name starting at or after
// from. It returns the element and the offset just past its closing tag.
// Close tag and newline lookups are cached across candidates, so a failed
// candidate never rescans the rest of the input.
func scanElement(s string, from int, name string, mode bodyMode) (element, int, bool) {
	open := "<" + name
	closeTag := "</" + name + ">"
	closes := nextIndex{sub: closeTag}
	newlines := nextIndex{newline: true}

	for from < len(s) {
		i := strings.Index(s[from:], open)
		if i < 0 {
			return element{}, 0, false
		}
		start := from + i
		from = start + 1

		attrs, bodyStart, ok := parseOpenTag(s, start+len(open))
		if !ok {
			continue
		}

		end := closes.find(s, bodyStart)
		if end < 0 {
			// No later opening tag can be closed either.
			return element{}, 0, false
		}
		if mode == inline {
			if nl := newlines.find(s, bodyStart); nl >= 0 && nl < end {
				continue
			}
		}

		return element{attrs: attrs, body: s[bodyStart:end]}, end + len(closeTag), true
	}
	return element{}, 0, false
}

// nextIndex remembers the last match of sub (or of a line break) so that
// repeated lookups from increasing offsets cost linear time overall.
type nextIndex struct {
	sub     string
	newline bool

	valid bool
	from  int // offset the cached search started at
	at    int // match offset, or -1
}

// find returns the offset of the first match at or after pos, or -1.
func (n *nextIndex) find(s string, pos int) int {
	if n.valid && pos >= n.from && (n.at < 0 || pos <= n.at) {
		return n.at
	}
	var i int
	if n.newline {
		i = strings.IndexAny(s[pos:], "\r\n")
	} else {
		i = strings.Index(s[pos:], n.sub)
	}
	n.valid, n.from, n.at = true, pos, -1
	if i >= 0 {
		n.at = pos + i
	}
	return n.at
}

// parseOpenTag parses the attribute list of an opening tag. pos points just
// past the tag name. It returns the attributes and the offset of the first
// body byte. Self-closing tags and tags whose name merely shares a prefix
// (<options> when looking for <option>) are rejected.
func parseOpenTag(s string, pos int) (map[string]string, int, bool) {
	if pos >= len(s) {
		return nil, 0, false
	}
	if c := s[pos]; c != '>' && !isSpace(c) {
		return nil, 0, false
	}

	attrs := map[string]string{}
	for {
		pos = skipSpace(s, pos)
		if pos >= len(s) {
			return nil, 0, false
		}
		switch s[pos] {
		case '>':
			return attrs, pos + 1, true
		case '/', '<':
			return nil, 0, false
		}

		nameStart := pos
		for pos < len(s) && !isSpace(s[pos]) && s[pos] != '=' && s[pos] != '>' && s[pos] != '/' && s[pos] != '<' {
			pos++
		}
		key := s[nameStart:pos]

		pos = skipSpace(s, pos)
		if pos >= len(s) || s[pos] != '=' {
			attrs[key] = ""
			continue
		}
		pos = skipSpace(s, pos+1)
		if pos >= len(s) {
			return nil, 0, false
		}

		var value string
		if q := s[pos]; q == '"' || q == '\'' {
			end := strings.IndexByte(s[pos+1:], q)
			if end < 0 {
				return nil, 0, false
			}
			value = s[pos+1 : pos+1+end]
			pos = pos + 1 + end + 1
		} else {
			valStart := pos
			for pos < len(s) && !isSpace(s[pos]) && s[pos] != '>' && s[pos] != '<' {
				pos++
			}
			value = s[valStart:pos]
		}
		attrs[key] = value
	}
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && isSpace(s[pos]) {
		pos++
	}
	return pos
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// leadingInt reads an optionally signed run of leading digits, returning 0
// when there is none. "15 min" yields 15.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
