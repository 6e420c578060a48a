package formula

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a formula that could not be parsed. Callers treat a
// parse failure as a classification input (spec §4.3's "parse failure on
// either side" rules), not a hard error.
type ParseError struct {
	Msg string
	Pos int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("formula: %s (at byte %d)", e.Msg, e.Pos)
}

type parser struct {
	lex  *lexer
	cur  token
	peek token
	hasPeek bool
}

// Parse parses formula text after a leading '=' has already been stripped.
func Parse(src string) (Node, error) {
	p := &parser{lex: newLexer(src)}
	p.advance()
	node, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, &ParseError{Msg: "trailing input after expression", Pos: p.lex.pos}
	}
	return node, nil
}

func (p *parser) advance() {
	if p.hasPeek {
		p.cur = p.peek
		p.hasPeek = false
		return
	}
	p.cur = p.lex.next()
}

func (p *parser) peekTok() token {
	if !p.hasPeek {
		p.peek = p.lex.next()
		p.hasPeek = true
	}
	return p.peek
}

// infixBindingPower returns the binding power of a binary operator, per the
// precedence table in spec §4.3 (comparisons 30, concat 40, add/sub 50,
// mul/div 60, power 70).
func infixBindingPower(op string) (int, bool) {
	switch op {
	case "=", "<>", "<", "<=", ">", ">=":
		return 30, true
	case "&":
		return 40, true
	case "+", "-":
		return 50, true
	case "*", "/":
		return 60, true
	case "^":
		return 70, true
	}
	return 0, false
}

func (p *parser) parseExpr(minBp int) (Node, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		if p.cur.kind != tokOp {
			break
		}
		bp, ok := infixBindingPower(p.cur.text)
		if !ok || bp < minBp {
			break
		}
		op := p.cur.text
		p.advance()
		// '^' is right-associative: recurse at the same bp so a chain like
		// 2^3^2 groups as 2^(3^2).
		nextMin := bp + 1
		if op == "^" {
			nextMin = bp
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePrefix() (Node, error) {
	if p.cur.kind == tokOp && (p.cur.text == "+" || p.cur.text == "-") {
		op := p.cur.text
		p.advance()
		arg, err := p.parseExpr(90)
		if err != nil {
			return nil, err
		}
		return p.parsePostfix(UnaryOp{Op: op, Arg: arg})
	}
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(node)
}

func (p *parser) parsePostfix(node Node) (Node, error) {
	for p.cur.kind == tokOp && p.cur.text == "%" {
		p.advance()
		node = UnaryOp{Op: "%", Arg: node, Post: true}
	}
	return node, nil
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.cur.kind {
	case tokNumber:
		// A whole-row range ("1:3") arrives as number, colon, number.
		if isWholeRowSpec(p.cur.text) && p.peekTok().kind == tokColon {
			fromText := p.cur.text
			p.advance()
			p.advance()
			if p.cur.kind != tokNumber || !isWholeRowSpec(p.cur.text) {
				return nil, &ParseError{Msg: "expected row number after ':'", Pos: p.lex.pos}
			}
			toText := p.cur.text
			p.advance()
			return RangeRef{WholeRow: true, From: CellRef{Row: parseRowSpec(fromText)}, To: CellRef{Row: parseRowSpec(toText)}}, nil
		}
		n := Number(p.cur.num)
		p.advance()
		return n, nil
	case tokString:
		s := Text(p.cur.text)
		p.advance()
		return s, nil
	case tokError:
		e := Error{Code: ExcelError(p.cur.text)}
		p.advance()
		return e, nil
	case tokLParen:
		p.advance()
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, &ParseError{Msg: "expected ')'", Pos: p.lex.pos}
		}
		p.advance()
		return inner, nil
	case tokLBrace:
		return p.parseArray()
	case tokIdent:
		return p.parseIdentOrRefOrCall("")
	}
	return nil, &ParseError{Msg: "unexpected token in expression", Pos: p.lex.pos}
}

func (p *parser) parseArray() (Node, error) {
	p.advance() // '{'
	var rows [][]Node
	row := []Node{}
	for p.cur.kind != tokRBrace {
		elem, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		row = append(row, elem)
		switch p.cur.kind {
		case tokComma:
			p.advance()
			continue
		case tokSemicolon:
			rows = append(rows, row)
			row = []Node{}
			p.advance()
			continue
		case tokRBrace:
		default:
			return nil, &ParseError{Msg: "expected ',', ';' or '}' in array", Pos: p.lex.pos}
		}
	}
	rows = append(rows, row)
	p.advance() // '}'
	return Array{Rows: rows}, nil
}

// parseIdentOrRefOrCall handles everything that starts with a bare word:
// sheet-qualified references ("Sheet1!A1", "'My Sheet'!A1:B2"), A1/R1C1 cell
// and range refs, function calls, and named/structured references. sheet is
// the already-consumed sheet qualifier, if any.
func (p *parser) parseIdentOrRefOrCall(sheet string) (Node, error) {
	text := p.cur.text
	p.advance()

	if sheet == "" && p.cur.kind != tokLParen {
		switch strings.ToUpper(text) {
		case "TRUE":
			return Boolean(true), nil
		case "FALSE":
			return Boolean(false), nil
		}
	}

	if p.cur.kind == tokBang {
		p.advance()
		if p.cur.kind != tokIdent {
			return nil, &ParseError{Msg: "expected reference after '!'", Pos: p.lex.pos}
		}
		return p.parseIdentOrRefOrCall(text)
	}

	if p.cur.kind == tokLParen && sheet == "" {
		return p.parseFunctionCall(text)
	}

	if p.cur.kind == tokLBracket {
		raw, err := p.consumeBracketBlob()
		if err != nil {
			return nil, err
		}
		// R1C1 offsets ("R[-3]C", "R[1]C[2]", "RC[2]") arrive as a bare word,
		// a bracket run and, after a row offset, the column part.
		r1c1 := text + raw
		if strings.EqualFold(text, "R") && p.cur.kind == tokIdent && (p.cur.text[0] == 'C' || p.cur.text[0] == 'c') {
			r1c1 += p.cur.text
			p.advance()
			if p.cur.kind == tokLBracket {
				colRaw, err := p.consumeBracketBlob()
				if err != nil {
					return nil, err
				}
				r1c1 += colRaw
			}
		}
		if ref, ok := tryParseCellRef(sheet, r1c1); ok {
			return ref, nil
		}
		return NamedRef{Name: text, Raw: raw}, nil
	}

	if ref, ok := tryParseCellRef(sheet, text); ok {
		if p.cur.kind == tokColon {
			p.advance()
			return p.parseRangeTail(sheet, ref)
		}
		return ref, nil
	}

	if isWholeRowSpec(text) {
		if p.cur.kind == tokColon {
			p.advance()
			endText := p.cur.text
			p.advance()
			return RangeRef{Sheet: sheet, WholeRow: true, From: CellRef{Row: parseRowSpec(text)}, To: CellRef{Row: parseRowSpec(endText)}}, nil
		}
	}

	return NamedRef{Name: text}, nil
}

func (p *parser) parseRangeTail(sheet string, from CellRef) (Node, error) {
	if p.cur.kind != tokIdent {
		return nil, &ParseError{Msg: "expected range end reference", Pos: p.lex.pos}
	}
	endText := p.cur.text
	p.advance()
	if to, ok := tryParseCellRef(sheet, endText); ok {
		return RangeRef{Sheet: sheet, From: from, To: to}, nil
	}
	// whole-column range, e.g. "A:C"
	return RangeRef{Sheet: sheet, WholeCol: true, From: from, To: CellRef{Sheet: sheet, Col: colFromLetters(endText)}}, nil
}

func (p *parser) parseFunctionCall(name string) (Node, error) {
	p.advance() // '('
	var args []Node
	for p.cur.kind != tokRParen {
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur.kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if p.cur.kind != tokRParen {
		return nil, &ParseError{Msg: "expected ')' to close function call", Pos: p.lex.pos}
	}
	p.advance()
	return FunctionCall{Name: strings.ToUpper(name), Args: args}, nil
}

// consumeBracketBlob captures a structured-reference bracket run verbatim,
// including nested brackets, since its internal grammar does not
// participate in shift or canonical sorting (spec §4.3).
func (p *parser) consumeBracketBlob() (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		switch p.cur.kind {
		case tokLBracket:
			depth++
			sb.WriteByte('[')
			p.advance()
		case tokRBracket:
			depth--
			sb.WriteByte(']')
			p.advance()
			if depth == 0 {
				return sb.String(), nil
			}
		case tokEOF:
			return "", &ParseError{Msg: "unterminated structured reference", Pos: p.lex.pos}
		default:
			sb.WriteString(p.cur.text)
			p.advance()
		}
	}
}

// tryParseCellRef attempts to read text as an A1-style or R1C1-style single
// cell reference, returning ok=false if text does not match either shape
// (in which case the caller treats it as a named reference).
func tryParseCellRef(sheet, text string) (CellRef, bool) {
	spill := false
	if strings.HasSuffix(text, "#") {
		spill = true
		text = strings.TrimSuffix(text, "#")
	}

	if ref, ok := tryParseA1(text); ok {
		ref.Sheet = sheet
		ref.Spill = spill
		return ref, true
	}
	if ref, ok := tryParseR1C1(text); ok {
		ref.Sheet = sheet
		ref.Spill = spill
		return ref, true
	}
	return CellRef{}, false
}

func tryParseA1(text string) (CellRef, bool) {
	i := 0
	colAbs := false
	if i < len(text) && text[i] == '$' {
		colAbs = true
		i++
	}
	start := i
	for i < len(text) && text[i] >= 'A' && text[i] <= 'Z' {
		i++
	}
	if i == start {
		return CellRef{}, false
	}
	colLetters := text[start:i]

	rowAbs := false
	if i < len(text) && text[i] == '$' {
		rowAbs = true
		i++
	}
	rowStart := i
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	if i == rowStart || i != len(text) {
		return CellRef{}, false
	}
	rowNum, err := strconv.ParseUint(text[rowStart:i], 10, 32)
	if err != nil {
		return CellRef{}, false
	}

	col := colFromLetters(colLetters)
	if colAbs {
		col.Kind = Absolute
	}
	row := RefComponent{Kind: Relative, Value: uint32(rowNum) - 1}
	if rowAbs {
		row.Kind = Absolute
	}
	return CellRef{Row: row, Col: col}, true
}

// tryParseR1C1 recognizes "R5C2", "RC", "R[-3]C", "RC[2]" style references.
func tryParseR1C1(text string) (CellRef, bool) {
	if len(text) == 0 || (text[0] != 'R' && text[0] != 'r') {
		return CellRef{}, false
	}
	i := 1
	row, ni, ok := parseR1C1Component(text, i)
	if !ok {
		return CellRef{}, false
	}
	i = ni
	if i >= len(text) || (text[i] != 'C' && text[i] != 'c') {
		return CellRef{}, false
	}
	i++
	col, ni, ok := parseR1C1Component(text, i)
	if !ok || ni != len(text) {
		return CellRef{}, false
	}
	return CellRef{Row: row, Col: col}, true
}

// parseR1C1Component reads an optional "[delta]" or a bare absolute number
// following the 'R' or 'C' marker; with neither, the reference is relative
// with an implicit zero offset (bare "RC" means "this cell").
func parseR1C1Component(text string, i int) (RefComponent, int, bool) {
	if i < len(text) && text[i] == '[' {
		j := i + 1
		start := j
		if j < len(text) && text[j] == '-' {
			j++
		}
		for j < len(text) && isDigit(text[j]) {
			j++
		}
		if j >= len(text) || text[j] != ']' || j == start {
			return RefComponent{}, i, false
		}
		n, err := strconv.Atoi(text[start:j])
		if err != nil {
			return RefComponent{}, i, false
		}
		return RefComponent{Kind: Offset, Offset: int32(n)}, j + 1, true
	}
	start := i
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	if i == start {
		return RefComponent{Kind: Offset, Offset: 0}, i, true
	}
	n, err := strconv.ParseUint(text[start:i], 10, 32)
	if err != nil {
		return RefComponent{}, i, false
	}
	return RefComponent{Kind: Absolute, Value: uint32(n) - 1}, i, true
}

func colFromLetters(letters string) RefComponent {
	var n uint32
	for _, ch := range letters {
		n = n*26 + uint32(ch-'A'+1)
	}
	return RefComponent{Kind: Relative, Value: n - 1}
}

func isWholeRowSpec(text string) bool {
	for _, b := range []byte(text) {
		if !isDigit(b) {
			return false
		}
	}
	return len(text) > 0
}

func parseRowSpec(text string) RefComponent {
	n, _ := strconv.ParseUint(text, 10, 32)
	return RefComponent{Kind: Relative, Value: uint32(n) - 1}
}
