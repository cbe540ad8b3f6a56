// Package formula evaluates the arithmetic expressions derived fields are
// configured with. Only a whitelisted operator set is supported; configuration
// text can never execute code.
package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// node is an AST node.
type node interface {
	eval(vars map[string]float64) (float64, error)
}

// Expression is a parsed, reusable formula.
type Expression struct {
	root node
	text string
}

// Parse tokenizes and parses a formula. Supported syntax: numbers,
// identifiers, + - * /, unary minus, parentheses, comparisons yielding 1/0,
// and the min/max builtins (Math.min/Math.max accepted for compatibility
// with formulas written for the console UI).
func Parse(text string) (*Expression, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("formula: unexpected %q", p.peek().value)
	}
	return &Expression{root: root, text: text}, nil
}

// Evaluate computes the expression over the given variables. Unknown
// identifiers, division by zero and non-finite results are errors.
func (e *Expression) Evaluate(vars map[string]float64) (float64, error) {
	v, err := e.root.eval(vars)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("formula %q: result is not finite", e.text)
	}
	return v, nil
}

// Variables returns the identifiers referenced by the expression.
func (e *Expression) Variables() []string {
	seen := map[string]bool{}
	var out []string
	var walk func(n node)
	walk = func(n node) {
		switch t := n.(type) {
		case identNode:
			if !seen[string(t)] {
				seen[string(t)] = true
				out = append(out, string(t))
			}
		case binaryNode:
			walk(t.left)
			walk(t.right)
		case unaryNode:
			walk(t.operand)
		case callNode:
			for _, arg := range t.args {
				walk(arg)
			}
		}
	}
	walk(e.root)
	return out
}

// --- tokenizer ---

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind  tokenKind
	value string
}

func tokenize(text string) ([]token, error) {
	var tokens []token
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c) || c == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1]):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, token{tokNumber, string(runes[start:i])})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_' || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, token{tokIdent, string(runes[start:i])})
		case c == '(':
			tokens = append(tokens, token{tokLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")"})
			i++
		case c == ',':
			tokens = append(tokens, token{tokComma, ","})
			i++
		case strings.ContainsRune("+-*/", c):
			tokens = append(tokens, token{tokOp, string(c)})
			i++
		case c == '<' || c == '>':
			op := string(c)
			i++
			if i < len(runes) && runes[i] == '=' {
				op += "="
				i++
			}
			tokens = append(tokens, token{tokOp, op})
		case c == '=' || c == '!':
			if i+1 >= len(runes) || runes[i+1] != '=' {
				return nil, fmt.Errorf("formula: unexpected character %q", string(c))
			}
			tokens = append(tokens, token{tokOp, string(c) + "="})
			i += 2
		default:
			return nil, fmt.Errorf("formula: unexpected character %q", string(c))
		}
	}
	return tokens, nil
}

// --- parser ---

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() token {
	if p.atEnd() {
		return token{}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) matchOp(ops ...string) (string, bool) {
	if p.atEnd() || p.peek().kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if p.peek().value == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := p.matchOp("<", "<=", ">", ">=", "==", "!="); ok {
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: op, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOp("*", "/")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if _, ok := p.matchOp("-"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{operand: operand}, nil
	}
	return p.parsePrimary()
}

var builtins = map[string]string{
	"min":      "min",
	"max":      "max",
	"Math.min": "min",
	"Math.max": "max",
}

func (p *parser) parsePrimary() (node, error) {
	if p.atEnd() {
		return nil, fmt.Errorf("formula: unexpected end of expression")
	}
	t := p.advance()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.value, 64)
		if err != nil {
			return nil, fmt.Errorf("formula: bad number %q", t.value)
		}
		return numberNode(v), nil
	case tokIdent:
		if fn, ok := builtins[t.value]; ok && !p.atEnd() && p.peek().kind == tokLParen {
			return p.parseCall(fn)
		}
		if strings.Contains(t.value, ".") {
			return nil, fmt.Errorf("formula: unknown function %q", t.value)
		}
		return identNode(t.value), nil
	case tokLParen:
		inner, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.atEnd() || p.peek().kind != tokRParen {
			return nil, fmt.Errorf("formula: missing closing parenthesis")
		}
		p.advance()
		return inner, nil
	default:
		return nil, fmt.Errorf("formula: unexpected %q", t.value)
	}
}

func (p *parser) parseCall(fn string) (node, error) {
	p.advance() // consume '('
	var args []node
	for {
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.atEnd() {
			return nil, fmt.Errorf("formula: missing closing parenthesis in %s()", fn)
		}
		if p.peek().kind == tokComma {
			p.advance()
			continue
		}
		if p.peek().kind == tokRParen {
			p.advance()
			break
		}
		return nil, fmt.Errorf("formula: unexpected %q in %s()", p.peek().value, fn)
	}
	if len(args) < 2 {
		return nil, fmt.Errorf("formula: %s() requires at least two arguments", fn)
	}
	return callNode{fn: fn, args: args}, nil
}

// --- AST nodes ---

type numberNode float64

func (n numberNode) eval(map[string]float64) (float64, error) { return float64(n), nil }

type identNode string

func (n identNode) eval(vars map[string]float64) (float64, error) {
	v, ok := vars[string(n)]
	if !ok {
		return 0, fmt.Errorf("formula: unknown identifier %q", string(n))
	}
	return v, nil
}

type unaryNode struct {
	operand node
}

func (n unaryNode) eval(vars map[string]float64) (float64, error) {
	v, err := n.operand.eval(vars)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

type binaryNode struct {
	op          string
	left, right node
}

func (n binaryNode) eval(vars map[string]float64) (float64, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, fmt.Errorf("formula: division by zero")
		}
		return l / r, nil
	case "<":
		return boolToFloat(l < r), nil
	case "<=":
		return boolToFloat(l <= r), nil
	case ">":
		return boolToFloat(l > r), nil
	case ">=":
		return boolToFloat(l >= r), nil
	case "==":
		return boolToFloat(l == r), nil
	case "!=":
		return boolToFloat(l != r), nil
	}
	return 0, fmt.Errorf("formula: unsupported operator %q", n.op)
}

type callNode struct {
	fn   string
	args []node
}

func (n callNode) eval(vars map[string]float64) (float64, error) {
	result, err := n.args[0].eval(vars)
	if err != nil {
		return 0, err
	}
	for _, arg := range n.args[1:] {
		v, err := arg.eval(vars)
		if err != nil {
			return 0, err
		}
		switch n.fn {
		case "min":
			result = math.Min(result, v)
		case "max":
			result = math.Max(result, v)
		}
	}
	return result, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
