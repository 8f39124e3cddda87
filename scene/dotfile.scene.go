package scene

import (
	"bytes"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph/formats/dot"
	"gonum.org/v1/gonum/graph/formats/dot/ast"
)

// statement is one graph, node or edge statement of an xdot document with
// its attributes unquoted.
type statement struct {
	kind  statementKind
	id    string // node id; empty for graph statements
	to    string // edge destination
	attrs map[string]string
}

type statementKind int

const (
	graphStatement statementKind = iota
	nodeStatement
	edgeStatement
)

// parseDocument returns the statements of the first graph in doc in file order.
func parseDocument(doc []byte) ([]statement, error) {
	// graphviz wraps long attribute values with a backslash-newline.
	doc = bytes.ReplaceAll(doc, []byte("\\\r\n"), nil)
	doc = bytes.ReplaceAll(doc, []byte("\\\n"), nil)

	file, err := dot.ParseBytes(doc)
	if err != nil {
		return nil, fmt.Errorf("parsing layout document: %w", err)
	}
	if len(file.Graphs) == 0 {
		return nil, fmt.Errorf("layout document has no graph")
	}

	var out []statement
	for _, stmt := range file.Graphs[0].Stmts {
		switch s := stmt.(type) {
		case *ast.AttrStmt:
			if s.Kind == ast.GraphKind {
				out = append(out, statement{kind: graphStatement, attrs: attrMap(s.Attrs)})
			}
		case *ast.Attr:
			out = append(out, statement{kind: graphStatement, attrs: attrMap([]*ast.Attr{s})})
		case *ast.NodeStmt:
			out = append(out, statement{kind: nodeStatement, id: unquote(s.Node.ID), attrs: attrMap(s.Attrs)})
		case *ast.EdgeStmt:
			from, ok := vertexID(s.From)
			if !ok || s.To == nil {
				continue
			}
			to, ok := vertexID(s.To.Vertex)
			if !ok {
				continue
			}
			out = append(out, statement{kind: edgeStatement, id: from, to: to, attrs: attrMap(s.Attrs)})
		}
	}
	return out, nil
}

func vertexID(v ast.Vertex) (string, bool) {
	n, ok := v.(*ast.Node)
	if !ok {
		return "", false
	}
	return unquote(n.ID), true
}

func attrMap(attrs []*ast.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[unquote(a.Key)] = unquote(a.Val)
	}
	return m
}

// unquote strips DOT double quotes and their \" escapes. Other backslash
// sequences (\N, \l) are kept as written.
func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
}
