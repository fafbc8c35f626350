// Package filter compiles the AND/OR filter trees built by the dashboards
// into SQL WHERE fragments.
package filter

import (
	"fmt"
	"strings"

	"github.com/autoperception/dataset-explorer/schema"
)

type Combinator string

const (
	And Combinator = "AND"
	Or  Combinator = "OR"
)

// ParseCombinator accepts AND/OR in any case, empty defaults to AND
func ParseCombinator(value string) (Combinator, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", "AND":
		return And, nil
	case "OR":
		return Or, nil
	default:
		return "", fmt.Errorf("unknown combinator %q", value)
	}
}

// Node is either a leaf comparing a column to a value, or a group joining
// its children with a combinator. Removed nodes are skipped.
type Node struct {
	Column   string
	Operator schema.Operator
	Value    interface{}

	Combinator Combinator
	Children   []*Node

	Removed bool
}

func Leaf(column string, op schema.Operator, value interface{}) *Node {
	return &Node{Column: column, Operator: op, Value: value}
}

func Group(combinator Combinator, children ...*Node) *Node {
	return &Node{Combinator: combinator, Children: children}
}

// Remove marks the node removed and returns it
func (n *Node) Remove() *Node {
	n.Removed = true
	return n
}

func (n *Node) IsGroup() bool {
	return n.Combinator != "" || len(n.Children) > 0
}

// Compile renders the tree as a SQL boolean expression. Columns declare the
// types used to render literals and check operators; unknown columns are
// rendered from the value's own type. A nil, removed or empty tree compiles
// to "".
func Compile(node *Node, columns schema.Columns) (string, error) {
	if node == nil || node.Removed {
		return "", nil
	}

	if node.IsGroup() {
		return compileGroup(node, columns)
	}
	return compileLeaf(node, columns)
}

func compileGroup(node *Node, columns schema.Columns) (string, error) {
	combinator := node.Combinator
	if combinator == "" {
		combinator = And
	}

	parts := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		expr, err := Compile(child, columns)
		if err != nil {
			return "", err
		}
		if expr != "" {
			parts = append(parts, expr)
		}
	}

	return join(combinator, parts), nil
}

func compileLeaf(node *Node, columns schema.Columns) (string, error) {
	if node.Column == "" {
		return "", fmt.Errorf("filter on operator %s has no column", node.Operator)
	}

	op := node.Operator
	if op == "" {
		op = schema.OpEq
	}

	column := columns.Lookup(node.Column)
	if !column.Allows(op) {
		return "", fmt.Errorf("operator %s is not supported on %s column %s", op, column.Type, column.Name)
	}

	if !op.TakesValue() {
		return fmt.Sprintf("%s %s", node.Column, op), nil
	}

	if op.TakesList() {
		list, err := listLiteral(column, node.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", node.Column, op, list), nil
	}

	literal, err := column.Literal(node.Value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", node.Column, op, literal), nil
}

func listLiteral(column schema.Column, value interface{}) (string, error) {
	var values []interface{}
	switch v := value.(type) {
	case []interface{}:
		values = v
	case []string:
		for _, s := range v {
			values = append(values, s)
		}
	default:
		values = []interface{}{v}
	}

	if len(values) == 0 {
		return "", fmt.Errorf("operator IN on column %s needs at least one value", column.Name)
	}

	literals := make([]string, len(values))
	for i, v := range values {
		literal, err := column.Literal(v)
		if err != nil {
			return "", err
		}
		literals[i] = literal
	}
	return "(" + strings.Join(literals, ", ") + ")", nil
}

// join parenthesizes every part when there is more than one
func join(combinator Combinator, parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}

	wrapped := make([]string, len(parts))
	for i, part := range parts {
		wrapped[i] = "(" + part + ")"
	}
	return strings.Join(wrapped, " "+string(combinator)+" ")
}

// Where AND-combines WHERE fragments, skipping empty ones
func Where(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return join(And, nonEmpty)
}

// Population restricts rows to a named data split such as "train"
func Population(column string, population string) string {
	if population == "" {
		return ""
	}
	return fmt.Sprintf("%s = %s", column, schema.Quote(population))
}
