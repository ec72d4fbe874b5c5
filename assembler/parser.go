package assembler

import (
	"strings"
)

// parser turns the token stream of one source file into statements. It
// accumulates diagnostics instead of stopping; a line that fails to parse
// contributes no statement.
type parser struct {
	config       Config
	statements   []Statement
	diags        []Diagnostic
	usesPseudo   bool
	atWriteSites []Token
}

func (p *parser) parseLine(tokens []Token, lineNum int) {
	for len(tokens) > 0 && tokens[0].Kind == TokenLabel {
		p.statements = append(p.statements, Statement{
			Kind:  StmtLabel,
			Line:  lineNum,
			Label: tokens[0].Text,
		})
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		return
	}

	switch tokens[0].Kind {
	case TokenDirective:
		p.parseDirective(tokens, lineNum)
	case TokenMnemonic:
		p.parseInstruction(tokens, lineNum)
	default:
		p.diags = append(p.diags, Errors.SyntaxError(tokens[0].Range(),
			"expected an instruction, directive or label"))
	}
}

func (p *parser) parseDirective(tokens []Token, lineNum int) {
	dir := tokens[0]
	rest := tokens[1:]

	switch dir.Text {
	case "text":
		p.statements = append(p.statements, Statement{Kind: StmtSegment, Line: lineNum, Segment: SegmentText})
		return
	case "data":
		p.statements = append(p.statements, Statement{Kind: StmtSegment, Line: lineNum, Segment: SegmentData})
		return
	}

	var kind DataKind
	switch dir.Text {
	case "word":
		kind = DataWord
	case "half":
		kind = DataHalf
	case "byte":
		kind = DataByte
	case "ascii":
		kind = DataAscii
	case "asciiz", "stringz":
		kind = DataAsciiz
	case "space":
		kind = DataSpace
	case "align":
		kind = DataAlign
	default:
		p.diags = append(p.diags, Errors.InvalidDirective(dir.Text, dir.Range()))
		return
	}

	groups := splitOperands(rest)
	if len(groups) == 0 {
		p.diags = append(p.diags, Errors.InvalidDirectiveValue("", dir.Text, dir.Range()))
		return
	}
	if (kind == DataSpace || kind == DataAlign) && len(groups) != 1 {
		p.diags = append(p.diags, Errors.InvalidInstructionFormat("."+dir.Text+" value", "."+dir.Text, dir.Range()))
		return
	}

	var operands []Operand
	ok := true
	for _, g := range groups {
		if kind == DataAscii || kind == DataAsciiz {
			if len(g) != 1 || g[0].Kind != TokenString {
				p.diags = append(p.diags, Errors.InvalidDirectiveValue(joinTokens(g), dir.Text, rangeOf(g, dir)))
				ok = false
				continue
			}
			operands = append(operands, Operand{Kind: OperandString, Str: g[0].Text, Token: g[0]})
			continue
		}
		op, good := p.parseValueOperand(g, dir)
		if !good {
			ok = false
			continue
		}
		operands = append(operands, op)
	}
	if !ok {
		return
	}

	p.statements = append(p.statements, Statement{
		Kind:     StmtData,
		Line:     lineNum,
		Data:     kind,
		Operands: operands,
	})
}

func (p *parser) parseInstruction(tokens []Token, lineNum int) {
	mnem := tokens[0]
	groups := splitOperands(tokens[1:])

	if pseudo := LookupPseudo(mnem.Text); pseudo != nil {
		p.usesPseudo = true
		operands, ok := p.parseGenericOperands(groups, mnem)
		if !ok {
			return
		}
		p.statements = append(p.statements, Statement{
			Kind:     StmtInstruction,
			Line:     lineNum,
			Pseudo:   mnem.Text,
			Operands: operands,
		})
		return
	}

	inst := LookupMnemonic(mnem.Text)
	if inst == nil {
		p.diags = append(p.diags, Errors.InvalidInstruction(mnem.Text, mnem.Range()))
		return
	}

	var operands []Operand
	var ok bool
	if inst.Format == FormatILoadStore {
		operands, ok = p.parseLoadStoreOperands(groups, inst, mnem)
	} else {
		operands, ok = p.parseTableOperands(groups, inst, mnem)
	}
	if !ok {
		return
	}

	p.recordScratchWrite(inst, operands)
	p.statements = append(p.statements, Statement{
		Kind:     StmtInstruction,
		Line:     lineNum,
		Inst:     inst,
		Operands: operands,
	})
}

// parseTableOperands checks a comma-separated operand list against the
// instruction's argument shape and produces operands in source order.
func (p *parser) parseTableOperands(groups [][]Token, inst *Inst, mnem Token) ([]Operand, bool) {
	want := argCount(inst)
	if len(groups) != want {
		p.diags = append(p.diags, Errors.InvalidInstructionFormat(formatHint(inst), inst.Mnemonic, mnem.Range()))
		return nil, false
	}

	var operands []Operand
	for i, g := range groups {
		if i >= len(inst.Args) || inst.Args[i] == ArgNone {
			p.diags = append(p.diags, Errors.InvalidInstructionFormat(formatHint(inst), inst.Mnemonic, mnem.Range()))
			return nil, false
		}
		switch inst.Args[i] {
		case ArgRd, ArgRs, ArgRt:
			op, ok := p.parseRegisterOperand(g, mnem)
			if !ok {
				return nil, false
			}
			operands = append(operands, op)
		default:
			op, ok := p.parseValueOperand(g, mnem)
			if !ok {
				return nil, false
			}
			operands = append(operands, op)
		}
	}
	return operands, true
}

// parseLoadStoreOperands handles the "op $rt, offset($rs)" shape, with the
// offset optional and possibly a label or expression.
func (p *parser) parseLoadStoreOperands(groups [][]Token, inst *Inst, mnem Token) ([]Operand, bool) {
	if len(groups) != 2 {
		p.diags = append(p.diags, Errors.InvalidInstructionFormat(formatHint(inst), inst.Mnemonic, mnem.Range()))
		return nil, false
	}

	rt, ok := p.parseRegisterOperand(groups[0], mnem)
	if !ok {
		return nil, false
	}

	mem := groups[1]
	open := -1
	for i, t := range mem {
		if t.Kind == TokenPunct && t.Text == "(" {
			open = i
			break
		}
	}
	if open < 0 || len(mem) < open+3 ||
		mem[len(mem)-1].Kind != TokenPunct || mem[len(mem)-1].Text != ")" {
		p.diags = append(p.diags, Errors.InvalidInstructionFormat(formatHint(inst), inst.Mnemonic, mnem.Range()))
		return nil, false
	}

	var offset Operand
	if open == 0 {
		offset = Operand{Kind: OperandImmediate, Value: 0, Token: mem[0]}
	} else {
		offset, ok = p.parseValueOperand(mem[:open], mnem)
		if !ok {
			return nil, false
		}
	}

	base, ok := p.parseRegisterOperand(mem[open+1:len(mem)-1], mnem)
	if !ok {
		return nil, false
	}

	return []Operand{rt, offset, base}, true
}

// parseGenericOperands parses without a shape: registers stay registers,
// everything else becomes a value operand. The pseudo expander validates.
func (p *parser) parseGenericOperands(groups [][]Token, mnem Token) ([]Operand, bool) {
	var operands []Operand
	for _, g := range groups {
		if len(g) == 1 && g[0].Kind == TokenRegister {
			op, ok := p.parseRegisterOperand(g, mnem)
			if !ok {
				return nil, false
			}
			operands = append(operands, op)
			continue
		}
		op, ok := p.parseValueOperand(g, mnem)
		if !ok {
			return nil, false
		}
		operands = append(operands, op)
	}
	return operands, true
}

func (p *parser) parseRegisterOperand(g []Token, ctx Token) (Operand, bool) {
	if len(g) != 1 || g[0].Kind != TokenRegister {
		p.diags = append(p.diags, Errors.InvalidRegister(joinTokens(g), rangeOf(g, ctx)))
		return Operand{}, false
	}
	idx, ok := RegisterIndex(g[0].Text)
	if !ok {
		p.diags = append(p.diags, Errors.InvalidRegister("$"+g[0].Text, g[0].Range()))
		return Operand{}, false
	}
	return Operand{Kind: OperandRegister, Reg: idx, Token: g[0]}, true
}

// parseValueOperand produces either a resolved immediate or a deferred
// symbol/expression operand for pass 2.
func (p *parser) parseValueOperand(g []Token, ctx Token) (Operand, bool) {
	if len(g) == 0 {
		p.diags = append(p.diags, Errors.InvalidExpression("", ctx.Range()))
		return Operand{}, false
	}
	if len(g) == 1 && g[0].Kind == TokenImmediate {
		v, err := parseNumber(g[0].Text)
		if err != nil {
			p.diags = append(p.diags, Errors.InvalidExpression(g[0].Text, g[0].Range()))
			return Operand{}, false
		}
		return Operand{Kind: OperandImmediate, Value: v, Token: g[0]}, true
	}
	return Operand{Kind: OperandSymbol, Expr: joinTokens(g), Token: g[0]}, true
}

// recordScratchWrite notes instructions whose destination is the reserved
// scratch register. The warning is only raised when the program also uses
// pseudo-instructions.
func (p *parser) recordScratchWrite(inst *Inst, operands []Operand) {
	if len(operands) == 0 || inst.Args[0] != ArgRd && inst.Args[0] != ArgRt {
		return
	}
	if operands[0].Kind == OperandRegister && operands[0].Reg == p.config.ScratchRegister {
		p.atWriteSites = append(p.atWriteSites, operands[0].Token)
	}
}

// splitOperands divides the tokens after a mnemonic into comma-separated
// groups.
func splitOperands(tokens []Token) [][]Token {
	var groups [][]Token
	var cur []Token
	for _, t := range tokens {
		if t.Kind == TokenPunct && t.Text == "," {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 || len(groups) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

func joinTokens(g []Token) string {
	var sb strings.Builder
	for _, t := range g {
		sb.WriteString(t.Text)
	}
	return sb.String()
}

func rangeOf(g []Token, fallback Token) TextRange {
	if len(g) == 0 {
		return fallback.Range()
	}
	r := g[0].Range()
	r.End = g[len(g)-1].Range().End
	return r
}

func argCount(inst *Inst) int {
	n := 0
	for _, a := range inst.Args {
		if a != ArgNone {
			n++
		}
	}
	return n
}

func formatHint(inst *Inst) string {
	parts := []string{inst.Mnemonic}
	names := map[ArgKind]string{
		ArgRd: "$rd", ArgRs: "$rs", ArgRt: "$rt",
		ArgShamt: "shamt", ArgSImm: "imm", ArgUImm: "imm",
		ArgBranch: "label", ArgTarget: "addr",
	}
	if inst.Format == FormatILoadStore {
		return inst.Mnemonic + " $rt, imm($rs)"
	}
	for _, a := range inst.Args {
		if a == ArgNone {
			break
		}
		parts = append(parts, names[a])
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + " " + strings.Join(parts[1:], ", ")
}
