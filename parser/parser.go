// Package parser implements a recursive-descent parser over token.Token,
// producing an ast.Program. Grounded on the original source's
// src/compiler/parser/parser.py — same grammar, same (slightly unusual)
// right-associative arithmetic, restructured around Go-idiomatic error
// returns instead of exceptions.
package parser

import (
	"fmt"

	"github.com/csa-toolchain/csam/ast"
	"github.com/csa-toolchain/csam/token"
)

// ParseError reports an unexpected or incorrect token, carrying a window of
// nearby tokens per spec.md §7.
type ParseError struct {
	Msg     string
	Window  []token.Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s (near %v)", e.Msg, e.Window)
}

// parserContext tracks IN_FUNCTION/IN_CYCLE nesting the way the original
// Parser does, so break/continue/return are only legal where the grammar
// permits them.
type parserContext int

const (
	ctxFunction parserContext = iota
	ctxCycle
)

type Parser struct {
	tokens []token.Token
	idx    int

	counts map[parserContext]int
	stack  []parserContext
}

// Parse scans source tokens into an ast.Program.
func Parse(tokens []token.Token) (*ast.Program, error) {
	p := &Parser{
		tokens: tokens,
		idx:    -1,
		counts: map[parserContext]int{ctxFunction: 0, ctxCycle: 0},
	}
	p.advance()

	var terms []ast.Statement
	for p.cur().Kind != token.KindEOF {
		term, err := p.parseTermNode()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return &ast.Program{Terms: terms}, nil
}

func (p *Parser) enterContext(c parserContext) {
	p.counts[c]++
	p.stack = append(p.stack, c)
}

// exitContext pops the context stack. An empty stack here is a parser bug
// (every enterContext is matched by exactly one exitContext along any
// control-flow path) — spec.md §7 marks this invariant "must be
// unreachable at runtime", so it panics rather than returning an error.
func (p *Parser) exitContext() {
	if len(p.stack) == 0 {
		panic("parser: context stack underflow")
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.counts[top]--
}

func (p *Parser) isInContext(c parserContext) bool { return p.counts[c] != 0 }

func (p *Parser) isInDirectContext(c parserContext) bool {
	return len(p.stack) != 0 && p.stack[len(p.stack)-1] == c
}

func (p *Parser) advance() token.Token {
	p.idx++
	return p.cur()
}

func (p *Parser) cur() token.Token {
	if p.idx < 0 || p.idx >= len(p.tokens) {
		return token.Token{Kind: token.KindEOF}
	}
	return p.tokens[p.idx]
}

func (p *Parser) peek() token.Token {
	if p.idx+1 >= len(p.tokens) {
		return token.Token{Kind: token.KindEOF}
	}
	return p.tokens[p.idx+1]
}

func (p *Parser) window() []token.Token {
	const back = 5
	start := p.idx - back
	if start < 0 {
		start = 0
	}
	end := p.idx + 1
	if end > len(p.tokens) {
		end = len(p.tokens)
	}
	if start > end {
		start = end
	}
	return p.tokens[start:end]
}

func (p *Parser) errUnexpected() error {
	return &ParseError{Msg: fmt.Sprintf("unexpected token %v", p.cur()), Window: p.window()}
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	t := p.cur()
	if t.Kind != k {
		return token.Token{}, &ParseError{Msg: fmt.Sprintf("expected %s, got %v", k, t), Window: p.window()}
	}
	p.advance()
	return t, nil
}

func (p *Parser) parseTermNode() (ast.Statement, error) {
	switch p.cur().Kind {
	case token.KindDataType:
		return p.parseFuncDef()
	case token.KindFor:
		return p.parseFor()
	case token.KindIf:
		return p.parseIf()
	case token.KindIdentifier:
		return p.parseIdentifierNode()
	case token.KindPrint:
		return p.parsePrint()
	case token.KindReturn:
		if p.isInContext(ctxFunction) {
			return p.parseReturn()
		}
	case token.KindContinue:
		if p.isInDirectContext(ctxCycle) {
			return p.parseContinue()
		}
	case token.KindBreak:
		if p.isInDirectContext(ctxCycle) {
			return p.parseBreak()
		}
	}
	return nil, p.errUnexpected()
}

func (p *Parser) dataType(t token.Token) (ast.DataType, error) {
	switch t.Text {
	case "str":
		return ast.TypeStr, nil
	case "int":
		return ast.TypeInt, nil
	case "void":
		return ast.TypeVoid, nil
	}
	return "", &ParseError{Msg: fmt.Sprintf("unknown data type %q", t.Text), Window: p.window()}
}

func (p *Parser) parseFuncDef() (*ast.FunctionDefinition, error) {
	p.enterContext(ctxFunction)
	defer p.exitContext()

	dtTok, err := p.expect(token.KindDataType)
	if err != nil {
		return nil, err
	}
	dt, err := p.dataType(dtTok)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.KindIdentifier)
	if err != nil {
		return nil, err
	}
	args, err := p.parseFuncArgs()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDefinition{ReturnType: dt, Name: nameTok.Text, Args: args, Body: body}, nil
}

func (p *Parser) parseFuncArgs() ([]ast.FunctionArgument, error) {
	if _, err := p.expect(token.KindLSquare); err != nil {
		return nil, err
	}
	var args []ast.FunctionArgument
	for p.cur().Kind != token.KindRSquare {
		nameTok, err := p.expect(token.KindIdentifier)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.KindColon); err != nil {
			return nil, err
		}
		dtTok, err := p.expect(token.KindDataType)
		if err != nil {
			return nil, err
		}
		dt, err := p.dataType(dtTok)
		if err != nil {
			return nil, err
		}
		args = append(args, ast.FunctionArgument{Name: nameTok.Text, DType: dt})

		if p.cur().Kind == token.KindRSquare {
			break
		}
		if _, err := p.expect(token.KindComma); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.KindRSquare); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseReturn() (*ast.Return, error) {
	if _, err := p.expect(token.KindReturn); err != nil {
		return nil, err
	}
	var expr ast.Expression
	if p.cur().Kind == token.KindColon {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		expr = e
	}
	return &ast.Return{Expr: expr}, nil
}

func (p *Parser) parseFor() (*ast.For, error) {
	p.enterContext(ctxCycle)
	defer p.exitContext()

	if _, err := p.expect(token.KindFor); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindLSquare); err != nil {
		return nil, err
	}

	var start ast.Statement
	if p.cur().Kind != token.KindColon && p.cur().Kind != token.KindSemicolon {
		if p.cur().Kind == token.KindIdentifier && p.peek().Kind == token.KindColon {
			s, err := p.parseVariableDef()
			if err != nil {
				return nil, err
			}
			start = s
		} else if p.cur().Kind == token.KindIdentifier {
			s, err := p.parseVariableAssign()
			if err != nil {
				return nil, err
			}
			start = s
		}
	}

	if _, err := p.expect(token.KindSemicolon); err != nil {
		return nil, err
	}

	condition, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.KindSemicolon); err != nil {
		return nil, err
	}

	var end *ast.VariableAssignment
	if p.cur().Kind != token.KindColon && p.cur().Kind == token.KindIdentifier {
		e, err := p.parseVariableAssign()
		if err != nil {
			return nil, err
		}
		end = e
	}

	if _, err := p.expect(token.KindRSquare); err != nil {
		return nil, err
	}

	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	return &ast.For{Start: start, Condition: condition, End: end, Body: body}, nil
}

func (p *Parser) parseContinue() (*ast.Continue, error) {
	if _, err := p.expect(token.KindContinue); err != nil {
		return nil, err
	}
	return &ast.Continue{}, nil
}

func (p *Parser) parseBreak() (*ast.Break, error) {
	if _, err := p.expect(token.KindBreak); err != nil {
		return nil, err
	}
	return &ast.Break{}, nil
}

func (p *Parser) parseIf() (*ast.Branch, error) {
	if _, err := p.expect(token.KindIf); err != nil {
		return nil, err
	}
	return p.parseBranchWithCondition()
}

func (p *Parser) parseElif() (*ast.Branch, error) {
	if _, err := p.expect(token.KindElif); err != nil {
		return nil, err
	}
	return p.parseBranchWithCondition()
}

func (p *Parser) parseBranchWithCondition() (*ast.Branch, error) {
	cond, err := p.parseIfCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	var next *ast.Branch
	switch p.cur().Kind {
	case token.KindElif:
		n, err := p.parseElif()
		if err != nil {
			return nil, err
		}
		next = n
	case token.KindElse:
		n, err := p.parseElse()
		if err != nil {
			return nil, err
		}
		next = n
	}

	return &ast.Branch{Condition: cond, Body: body, NextBranch: next}, nil
}

func (p *Parser) parseElse() (*ast.Branch, error) {
	if _, err := p.expect(token.KindElse); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.Branch{Condition: nil, Body: body, NextBranch: nil}, nil
}

func (p *Parser) parseIfCondition() (ast.Expression, error) {
	if _, err := p.expect(token.KindLSquare); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindRSquare); err != nil {
		return nil, err
	}
	return cond, nil
}

func (p *Parser) parseBody() ([]ast.Statement, error) {
	if _, err := p.expect(token.KindLCurly); err != nil {
		return nil, err
	}
	var terms []ast.Statement
	for p.cur().Kind != token.KindRCurly {
		term, err := p.parseTermNode()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	if _, err := p.expect(token.KindRCurly); err != nil {
		return nil, err
	}
	return terms, nil
}

func (p *Parser) parsePrint() (*ast.Print, error) {
	if _, err := p.expect(token.KindPrint); err != nil {
		return nil, err
	}
	args, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	return &ast.Print{Args: args}, nil
}

func (p *Parser) parseIdentifierNode() (ast.Statement, error) {
	switch p.peek().Kind {
	case token.KindLParen:
		return p.parseFunctionCallStatement()
	case token.KindAssign:
		return p.parseVariableAssign()
	case token.KindColon:
		return p.parseVariableDef()
	}
	return nil, p.errUnexpected()
}

func (p *Parser) parseFunctionCallStatement() (*ast.ExprStatement, error) {
	call, err := p.parseFunctionCall()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStatement{Expr: call}, nil
}

func (p *Parser) parseFunctionCall() (*ast.FunctionCall, error) {
	nameTok, err := p.expect(token.KindIdentifier)
	if err != nil {
		return nil, err
	}
	args, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionCall{Name: nameTok.Text, Args: args}, nil
}

func (p *Parser) parseExprList() ([]ast.Expression, error) {
	if _, err := p.expect(token.KindLParen); err != nil {
		return nil, err
	}
	var args []ast.Expression
	for p.cur().Kind != token.KindRParen {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.cur().Kind == token.KindRParen {
			break
		}
		if _, err := p.expect(token.KindComma); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.KindRParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseVariableAssign() (*ast.VariableAssignment, error) {
	nameTok, err := p.expect(token.KindIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindAssign); err != nil {
		return nil, err
	}
	value, err := p.parseVariableValueNode()
	if err != nil {
		return nil, err
	}
	return &ast.VariableAssignment{Name: nameTok.Text, Value: value}, nil
}

func (p *Parser) parseVariableDef() (*ast.VariableDefinition, error) {
	nameTok, err := p.expect(token.KindIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindColon); err != nil {
		return nil, err
	}
	dtTok, err := p.expect(token.KindDataType)
	if err != nil {
		return nil, err
	}
	dt, err := p.dataType(dtTok)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindAssign); err != nil {
		return nil, err
	}
	value, err := p.parseVariableValueNode()
	if err != nil {
		return nil, err
	}
	return &ast.VariableDefinition{Name: nameTok.Text, DType: dt, Value: value}, nil
}

// parseVariableValueNode returns either *ast.Input or an ast.Expression.
func (p *Parser) parseVariableValueNode() (ast.Term, error) {
	if p.cur().Kind == token.KindInput {
		return p.parseInput()
	}
	return p.parseExpr()
}

func (p *Parser) parseInput() (*ast.Input, error) {
	if _, err := p.expect(token.KindInput); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindLParen); err != nil {
		return nil, err
	}

	term := &ast.Input{}
	if p.cur().Kind != token.KindRParen {
		numTok, err := p.expect(token.KindNumber)
		if err != nil {
			return nil, err
		}
		count := parseIntLiteral(numTok.Text)
		term.Count = &count
		if _, err := p.expect(token.KindRParen); err != nil {
			return nil, err
		}
	} else {
		p.advance()
	}
	return term, nil
}

func (p *Parser) parseExpr() (ast.Expression, error) { return p.parseBooleanOr() }

func (p *Parser) parseBooleanOr() (ast.Expression, error) {
	expr, err := p.parseBooleanAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.KindOr {
		p.advance()
		right, err := p.parseBooleanAnd()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinOp{Left: expr, Op: ast.OpOr, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseBooleanAnd() (ast.Expression, error) {
	expr, err := p.parseBooleanNot()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.KindAnd {
		p.advance()
		right, err := p.parseBooleanNot()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinOp{Left: expr, Op: ast.OpAnd, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseBooleanNot() (ast.Expression, error) {
	if p.cur().Kind == token.KindNot {
		p.advance()
		expr, err := p.parseBooleanNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: ast.OpNot, Expr: expr}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[token.Kind]ast.ComparisonOp{
	token.KindEqual:        ast.OpEQ,
	token.KindNotEqual:     ast.OpNEQ,
	token.KindLess:         ast.OpLT,
	token.KindLessEqual:    ast.OpLTE,
	token.KindGreater:      ast.OpGT,
	token.KindGreaterEqual: ast.OpGTE,
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseArithmeticExpr()
	if err != nil {
		return nil, err
	}
	if op, ok := comparisonOps[p.cur().Kind]; ok {
		p.advance()
		right, err := p.parseArithmeticExpr()
		if err != nil {
			return nil, err
		}
		return &ast.BinOp{Left: left, Op: op, Right: right}, nil
	}
	return left, nil
}

// parseArithmeticExpr is right-associative for +/-, matching the original
// parser.py's recursive (not iterative) right-hand call — e.g. "10 - 3 - 2"
// parses as 10 - (3 - 2), not (10 - 3) - 2. This is a quirk of the source
// grammar, preserved deliberately (spec.md §9 instructs implementers to
// follow the original's concrete behavior where the distilled spec is
// silent).
func (p *Parser) parseArithmeticExpr() (ast.Expression, error) {
	if p.cur().Kind == token.KindMinus {
		p.advance()
		expr, err := p.parseArithmeticExpr()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: ast.OpSub, Expr: expr}, nil
	}

	expr, err := p.parseAddendum()
	if err != nil {
		return nil, err
	}

	for p.cur().Kind == token.KindPlus || p.cur().Kind == token.KindMinus {
		op := ast.OpAdd
		if p.cur().Kind == token.KindMinus {
			op = ast.OpSub
		}
		p.advance()
		right, err := p.parseArithmeticExpr()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinOp{Left: expr, Op: op, Right: right}
	}

	return expr, nil
}

// parseAddendum is right-associative for * / %, same rationale as
// parseArithmeticExpr above.
func (p *Parser) parseAddendum() (ast.Expression, error) {
	expr, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.ArithmeticOp
		switch p.cur().Kind {
		case token.KindAsterisk:
			op = ast.OpMul
		case token.KindSlash:
			op = ast.OpDiv
		case token.KindPercent:
			op = ast.OpMod
		default:
			return expr, nil
		}
		p.advance()
		right, err := p.parseAddendum()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinOp{Left: expr, Op: op, Right: right}
	}
}

// parseFactor is right-associative for << >>, same rationale as above.
func (p *Parser) parseFactor() (ast.Expression, error) {
	expr, err := p.parseBitwiseOperand()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.BitwiseOp
		switch p.cur().Kind {
		case token.KindShiftLeft:
			op = ast.OpSHL
		case token.KindShiftRight:
			op = ast.OpSHR
		default:
			return expr, nil
		}
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinOp{Left: expr, Op: op, Right: right}
	}
}

func (p *Parser) parseBitwiseOperand() (ast.Expression, error) {
	if p.cur().Kind == token.KindLParen {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.KindRParen); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return p.parseBaseElement()
}

func (p *Parser) parseBaseElement() (ast.Expression, error) {
	switch p.cur().Kind {
	case token.KindIdentifier:
		if p.peek().Kind == token.KindLParen {
			return p.parseFunctionCall()
		}
		return p.parseVariable()
	case token.KindNumber:
		return p.parseNumberLiteral()
	case token.KindString:
		return p.parseStringLiteral()
	}
	return nil, p.errUnexpected()
}

func (p *Parser) parseNumberLiteral() (*ast.NumberLiteral, error) {
	t, err := p.expect(token.KindNumber)
	if err != nil {
		return nil, err
	}
	return &ast.NumberLiteral{Value: parseIntLiteral(t.Text)}, nil
}

func (p *Parser) parseStringLiteral() (*ast.StringLiteral, error) {
	t, err := p.expect(token.KindString)
	if err != nil {
		return nil, err
	}
	return &ast.StringLiteral{Value: t.Text}, nil
}

func (p *Parser) parseVariable() (*ast.Variable, error) {
	t, err := p.expect(token.KindIdentifier)
	if err != nil {
		return nil, err
	}
	return &ast.Variable{Name: t.Text}, nil
}

func parseIntLiteral(s string) int64 {
	var v int64
	for _, c := range s {
		v = v*10 + int64(c-'0')
	}
	return v
}
