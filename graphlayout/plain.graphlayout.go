package graphlayout

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Position is a node centre in inches as graphviz reports it in plain output.
type Position struct {
	X, Y float64
}

// Pinned formats p as a neato pos attribute that must not move.
func (p Position) Pinned() string {
	return strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64) + "!"
}

// ParsePlain reads the node positions of a graphviz -Tplain document:
//
//	node name x y width height label style shape color fillcolor
func ParsePlain(data []byte) (map[string]Position, error) {
	pos := map[string]Position{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields, err := splitPlain(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("plain output line %d: %w", line, err)
		}
		if len(fields) == 0 || fields[0] != "node" {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("plain output line %d: node statement has %d fields", line, len(fields))
		}
		x, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("plain output line %d: bad x %q", line, fields[2])
		}
		y, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("plain output line %d: bad y %q", line, fields[3])
		}
		pos[fields[1]] = Position{X: x, Y: y}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return pos, nil
}

// splitPlain splits a plain output line on blanks. Double quoted fields may
// hold blanks and backslash escapes; the quotes are removed.
func splitPlain(s string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inField, quoted := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quoted && c == '\\' && i+1 < len(s):
			i++
			cur.WriteByte(s[i])
		case quoted && c == '"':
			quoted = false
		case quoted:
			cur.WriteByte(c)
		case c == '"':
			quoted, inField = true, true
		case c == ' ' || c == '\t' || c == '\r':
			if inField {
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
			}
		default:
			inField = true
			cur.WriteByte(c)
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if inField {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
