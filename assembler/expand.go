package assembler

// expandPseudo rewrites every pseudo-instruction statement into one or more
// real instruction statements so that pass 1 sees final instruction counts.
// li with a known immediate picks its short form here; la and symbolic li
// always take the two-instruction lui+ori form, with the halves marked for
// resolution in pass 2.
func expandPseudo(statements []Statement, config Config, diags *[]Diagnostic) []Statement {
	out := make([]Statement, 0, len(statements))
	for _, stmt := range statements {
		if stmt.Kind != StmtInstruction || stmt.Pseudo == "" {
			out = append(out, stmt)
			continue
		}
		out = appendExpansion(out, stmt, config, diags)
	}
	return out
}

func appendExpansion(out []Statement, stmt Statement, config Config, diags *[]Diagnostic) []Statement {
	scratch := config.ScratchRegister
	zero := regOperand(RegZero, stmt)

	synth := func(mnemonic string, operands ...Operand) Statement {
		return Statement{
			Kind:     StmtInstruction,
			Line:     stmt.Line,
			Inst:     LookupMnemonic(mnemonic),
			Operands: operands,
			expanded: true,
		}
	}
	badShape := func(hint string) []Statement {
		*diags = append(*diags, Errors.InvalidInstructionFormat(hint, stmt.Pseudo, pseudoRange(stmt)))
		return out
	}

	ops := stmt.Operands
	switch stmt.Pseudo {
	case "li":
		if len(ops) != 2 || ops[0].Kind != OperandRegister {
			return badShape("li $rt, imm")
		}
		value := ops[1]
		if value.Kind == OperandImmediate && fitsSigned(value.Value, 16) {
			return append(out, synth("addiu", ops[0], zero, value))
		}
		hi, lo := splitValueOperand(value)
		return append(out,
			synth("lui", ops[0], hi),
			synth("ori", ops[0], ops[0], lo))

	case "la":
		if len(ops) != 2 || ops[0].Kind != OperandRegister {
			return badShape("la $rt, addr")
		}
		hi, lo := splitValueOperand(ops[1])
		return append(out,
			synth("lui", ops[0], hi),
			synth("ori", ops[0], ops[0], lo))

	case "move":
		if len(ops) != 2 || ops[0].Kind != OperandRegister || ops[1].Kind != OperandRegister {
			return badShape("move $rd, $rs")
		}
		return append(out, synth("addu", ops[0], ops[1], zero))

	case "nop":
		if len(ops) != 0 {
			return badShape("nop")
		}
		return append(out, synth("sll", zero, zero, immOperand(0, stmt)))

	case "b":
		if len(ops) != 1 || ops[0].Kind == OperandRegister {
			return badShape("b label")
		}
		return append(out, synth("beq", zero, zero, ops[0]))

	case "beqz", "bnez":
		if len(ops) != 2 || ops[0].Kind != OperandRegister {
			return badShape(stmt.Pseudo + " $rs, label")
		}
		real := "beq"
		if stmt.Pseudo == "bnez" {
			real = "bne"
		}
		return append(out, synth(real, ops[0], zero, ops[1]))

	case "not":
		if len(ops) != 2 || ops[0].Kind != OperandRegister || ops[1].Kind != OperandRegister {
			return badShape("not $rd, $rs")
		}
		return append(out, synth("nor", ops[0], ops[1], zero))

	case "neg":
		if len(ops) != 2 || ops[0].Kind != OperandRegister || ops[1].Kind != OperandRegister {
			return badShape("neg $rd, $rs")
		}
		return append(out, synth("sub", ops[0], zero, ops[1]))

	case "blt", "bgt", "ble", "bge":
		if len(ops) != 3 || ops[0].Kind != OperandRegister || ops[1].Kind != OperandRegister {
			return badShape(stmt.Pseudo + " $rs, $rt, label")
		}
		at := regOperand(scratch, stmt)
		a, b := ops[0], ops[1]
		if stmt.Pseudo == "bgt" || stmt.Pseudo == "ble" {
			a, b = b, a
		}
		branch := "bne"
		if stmt.Pseudo == "ble" || stmt.Pseudo == "bge" {
			branch = "beq"
		}
		return append(out,
			synth("slt", at, a, b),
			synth(branch, at, zero, ops[2]))
	}

	*diags = append(*diags, Errors.InvalidInstruction(stmt.Pseudo, pseudoRange(stmt)))
	return out
}

// splitValueOperand produces the high and low half operands of a lui+ori
// pair. Known immediates split now; symbolic operands carry part markers
// until the symbol resolves in pass 2.
func splitValueOperand(op Operand) (hi, lo Operand) {
	if op.Kind == OperandImmediate {
		v := uint32(op.Value)
		hi = Operand{Kind: OperandImmediate, Value: int64(v >> 16), Token: op.Token}
		lo = Operand{Kind: OperandImmediate, Value: int64(v & 0xffff), Token: op.Token}
		return
	}
	hi = op
	hi.Part = SymbolHigh
	lo = op
	lo.Part = SymbolLow
	return
}

func regOperand(reg uint32, stmt Statement) Operand {
	tok := Token{Kind: TokenRegister, Text: RegisterNames[reg], Line: stmt.Line}
	if len(stmt.Operands) > 0 {
		tok.Col = stmt.Operands[0].Token.Col
	}
	return Operand{Kind: OperandRegister, Reg: reg, Token: tok}
}

func immOperand(v int64, stmt Statement) Operand {
	return Operand{Kind: OperandImmediate, Value: v, Token: Token{Kind: TokenImmediate, Line: stmt.Line}}
}

func pseudoRange(stmt Statement) TextRange {
	if len(stmt.Operands) > 0 {
		r := stmt.Operands[0].Token.Range()
		r.End = stmt.Operands[len(stmt.Operands)-1].Token.Range().End
		return r
	}
	return TextRange{
		Start: TextPosition{Line: stmt.Line},
		End:   TextPosition{Line: stmt.Line},
	}
}
