package assembler

import (
	"encoding/binary"
	"strings"
)

// Assemble runs both passes over the source and returns every diagnostic
// found. The Program is non-nil only when no diagnostic is an error. There
// is no shared state between calls; config is the only input besides the
// source text.
func Assemble(source string, config Config) *Result {
	result := &Result{
		config:  config,
		source:  strings.Split(source, "\n"),
		Symbols: SymbolTable{},
	}

	p := parser{config: config}
	for lineNum, line := range result.source {
		tokens := lexLine(line, lineNum, &result.Diagnostics)
		p.parseLine(tokens, lineNum)
	}
	result.Diagnostics = append(result.Diagnostics, p.diags...)
	result.usesPseudo = p.usesPseudo
	result.atWriteSites = p.atWriteSites

	result.statements = expandPseudo(p.statements, config, &result.Diagnostics)

	if result.usesPseudo {
		for _, tok := range result.atWriteSites {
			result.Diagnostics = append(result.Diagnostics,
				Warnings.ScratchRegisterWrite(tok.Text, tok.Range()))
		}
	}

	layout := passOne(result)
	passTwo(result, layout)

	if !result.HasErrors() {
		result.Program = layout.program(result, config)
	}
	return result
}

// AssembleDefault assembles with the conventional memory map.
func AssembleDefault(source string) *Result {
	return Assemble(source, DefaultConfig())
}

// segmentLayout is the outcome of pass 1: per-statement placement plus the
// final size of both segments.
type segmentLayout struct {
	offsets  []uint32  // byte offset of each statement within its segment
	segments []Segment // segment each statement landed in
	textSize uint32
	dataSize uint32

	text []byte
	data []byte

	instructions  []EncodedInstruction
	addressToLine map[uint32]int
	referenced    map[string]bool
}

// passOne lays out both segments and builds the symbol table. Sizes are
// final after this pass; the pseudo expander has already fixed instruction
// counts.
func passOne(result *Result) *segmentLayout {
	layout := &segmentLayout{
		offsets:       make([]uint32, len(result.statements)),
		segments:      make([]Segment, len(result.statements)),
		addressToLine: map[uint32]int{},
		referenced:    map[string]bool{},
	}

	segment := SegmentText
	cursors := map[Segment]*uint32{
		SegmentText: new(uint32),
		SegmentData: new(uint32),
	}

	// Labels bind to the address of the next emitted item so that a label
	// sharing a line with an aligned directive lands after the padding.
	var pendingLabels []int
	bindLabels := func(offset uint32) {
		base := result.config.TextBase
		if segment == SegmentData {
			base = result.config.DataBase
		}
		for _, idx := range pendingLabels {
			stmt := result.statements[idx]
			layout.offsets[idx] = offset
			layout.segments[idx] = segment
			if prev, exists := result.Symbols[stmt.Label]; exists {
				result.Diagnostics = append(result.Diagnostics,
					Errors.DuplicateSymbol(stmt.Label, prev.Line, labelRange(result, stmt)))
				continue
			}
			result.Symbols[stmt.Label] = Symbol{
				Name:    stmt.Label,
				Address: base + offset,
				Line:    stmt.Line,
				Segment: segment,
			}
		}
		pendingLabels = pendingLabels[:0]
	}

	for i, stmt := range result.statements {
		cursor := cursors[segment]
		layout.segments[i] = segment

		switch stmt.Kind {
		case StmtSegment:
			bindLabels(*cursor)
			segment = stmt.Segment

		case StmtLabel:
			pendingLabels = append(pendingLabels, i)

		case StmtInstruction:
			layout.offsets[i] = *cursor
			bindLabels(*cursor)
			*cursor += 4

		case StmtData:
			if segment == SegmentText {
				result.Diagnostics = append(result.Diagnostics,
					Warnings.DataInTextSegment(statementRange(result, stmt)))
			}
			if stmt.Data == DataAlign {
				n, good := dataSize(stmt, result)
				if good {
					*cursor += alignPadding(*cursor, 1<<n)
				}
				layout.offsets[i] = *cursor
				bindLabels(*cursor)
				continue
			}
			*cursor += alignPadding(*cursor, dataAlignment(stmt.Data))
			layout.offsets[i] = *cursor
			bindLabels(*cursor)
			size, ok := dataSize(stmt, result)
			if !ok {
				continue
			}
			*cursor += size
		}
	}
	bindLabels(*cursors[segment])

	layout.textSize = *cursors[SegmentText]
	layout.dataSize = *cursors[SegmentData]
	layout.text = make([]byte, layout.textSize)
	layout.data = make([]byte, layout.dataSize)
	return layout
}

// passTwo resolves symbols, validates field ranges and emits the binary
// image into the buffers sized by pass 1.
func passTwo(result *Result, layout *segmentLayout) {
	for i, stmt := range result.statements {
		segment := layout.segments[i]
		offset := layout.offsets[i]
		buf := layout.text
		base := result.config.TextBase
		if segment == SegmentData {
			buf = layout.data
			base = result.config.DataBase
		}

		switch stmt.Kind {
		case StmtInstruction:
			word, ok := encodeStatement(result, layout, stmt, base+offset)
			if !ok {
				continue
			}
			binary.BigEndian.PutUint32(buf[offset:], word)
			layout.instructions = append(layout.instructions, EncodedInstruction{
				Address: base + offset,
				Word:    word,
				Line:    stmt.Line,
			})
			layout.addressToLine[base+offset] = stmt.Line

		case StmtData:
			emitData(result, layout, stmt, buf, offset)
		}
	}

	for name, sym := range result.Symbols {
		if !layout.referenced[name] && name != "main" {
			r := TextRange{
				Start: TextPosition{Line: sym.Line},
				End:   TextPosition{Line: sym.Line, Char: len(name)},
			}
			result.Diagnostics = append(result.Diagnostics, Warnings.UnusedLabel(name, r))
		}
	}
}

func (layout *segmentLayout) program(result *Result, config Config) *Program {
	entry := config.TextBase
	if main, ok := result.Symbols["main"]; ok && main.Segment == SegmentText {
		entry = main.Address
	}
	return &Program{
		Text:          layout.text,
		Data:          layout.data,
		Entry:         entry,
		TextBase:      config.TextBase,
		DataBase:      config.DataBase,
		Symbols:       result.Symbols,
		AddressToLine: layout.addressToLine,
		Instructions:  layout.instructions,
	}
}

// encodeStatement resolves a single instruction statement into its word.
func encodeStatement(result *Result, layout *segmentLayout, stmt Statement, address uint32) (uint32, bool) {
	inst := stmt.Inst
	var rd, rs, rt, shamt, imm, target uint32
	ok := true

	for i, op := range stmt.Operands {
		switch inst.Args[i] {
		case ArgRd:
			rd = op.Reg
		case ArgRs:
			rs = op.Reg
		case ArgRt:
			rt = op.Reg

		case ArgShamt:
			v, good := resolveValue(result, layout, op)
			if !good {
				ok = false
				continue
			}
			if !fitsUnsigned(v, 5) {
				result.Diagnostics = append(result.Diagnostics,
					Errors.UnsignedImmediateOverflow(operandText(result, op), 5, op.Token.Range()))
				ok = false
				continue
			}
			shamt = uint32(v)

		case ArgSImm, ArgUImm:
			v, good := resolveValue(result, layout, op)
			if !good {
				ok = false
				continue
			}
			if op.Kind == OperandSymbol && op.Part != SymbolWhole {
				if op.Part == SymbolHigh {
					v = (v >> 16) & 0xffff
				} else {
					v = v & 0xffff
				}
			}
			if inst.Args[i] == ArgSImm && !fitsSigned(v, 16) {
				result.Diagnostics = append(result.Diagnostics,
					Errors.ImmediateOverflow(operandText(result, op), 16, op.Token.Range()))
				ok = false
				continue
			}
			if inst.Args[i] == ArgUImm && !fitsUnsigned(v, 16) {
				result.Diagnostics = append(result.Diagnostics,
					Errors.UnsignedImmediateOverflow(operandText(result, op), 16, op.Token.Range()))
				ok = false
				continue
			}
			imm = uint32(v) & 0xffff

		case ArgBranch:
			v, good := resolveValue(result, layout, op)
			if !good {
				ok = false
				continue
			}
			delta := v - int64(address) - 4
			if delta%4 != 0 {
				result.Diagnostics = append(result.Diagnostics,
					Errors.BranchTargetMisaligned(operandText(result, op), op.Token.Range()))
				ok = false
				continue
			}
			words := delta / 4
			if !fitsSigned(words, 16) {
				result.Diagnostics = append(result.Diagnostics,
					Errors.BranchTargetTooFar(operandText(result, op), op.Token.Range()))
				ok = false
				continue
			}
			imm = uint32(words) & 0xffff

		case ArgTarget:
			v, good := resolveValue(result, layout, op)
			if !good {
				ok = false
				continue
			}
			if v%4 != 0 || v < 0 || (v>>2) > 0x03ffffff {
				result.Diagnostics = append(result.Diagnostics,
					Errors.JumpTargetOutOfRange(operandText(result, op), op.Token.Range()))
				ok = false
				continue
			}
			target = uint32(v >> 2)
		}
	}

	if !ok {
		return 0, false
	}

	switch inst.Format {
	case FormatR:
		if inst.Funct == FunctJALR {
			rd = RegRA
		}
		return makeRTypeInstruction(inst.Funct, rd, rs, rt, shamt), true
	case FormatJ:
		return makeJTypeInstruction(inst.Opcode, target), true
	default:
		return makeITypeInstruction(inst.Opcode, rt, rs, imm), true
	}
}

// resolveValue evaluates an operand to its numeric value, marking any
// symbols it touches as referenced.
func resolveValue(result *Result, layout *segmentLayout, op Operand) (int64, bool) {
	if op.Kind == OperandImmediate {
		return op.Value, true
	}
	if op.Kind != OperandSymbol {
		result.Diagnostics = append(result.Diagnostics,
			Errors.InvalidExpression(operandText(result, op), op.Token.Range()))
		return 0, false
	}

	if _, ok := result.Symbols[op.Expr]; ok {
		layout.referenced[op.Expr] = true
	} else if isIdentifier(op.Expr) {
		result.Diagnostics = append(result.Diagnostics,
			Errors.UnresolvedSymbolName(op.Expr, op.Token.Range()))
		return 0, false
	} else {
		for name := range result.Symbols {
			if strings.Contains(op.Expr, name) {
				layout.referenced[name] = true
			}
		}
	}

	v, err := Evaluate(op.Expr, result.Symbols)
	if err != nil {
		if EvaluationErrors.IsUnresolvedSymbolError(err) {
			result.Diagnostics = append(result.Diagnostics,
				Errors.UnresolvedSymbolName(op.Expr, op.Token.Range()))
		} else {
			result.Diagnostics = append(result.Diagnostics,
				Errors.InvalidExpression(op.Expr, op.Token.Range()))
		}
		return 0, false
	}
	return v, true
}

// emitData writes one data directive's bytes at its pass 1 offset.
func emitData(result *Result, layout *segmentLayout, stmt Statement, buf []byte, offset uint32) {
	switch stmt.Data {
	case DataAlign, DataSpace:
		// Size-only directives; bytes stay zero.
		return

	case DataAscii, DataAsciiz:
		for _, op := range stmt.Operands {
			n := copy(buf[offset:], op.Str)
			offset += uint32(n)
			if stmt.Data == DataAsciiz {
				buf[offset] = 0
				offset++
			}
		}
		return
	}

	width := dataAlignment(stmt.Data)
	for _, op := range stmt.Operands {
		v, ok := resolveValue(result, layout, op)
		if !ok {
			offset += width
			continue
		}
		bits := int(width) * 8
		if !fitsSigned(v, bits) && !fitsUnsigned(v, bits) {
			result.Diagnostics = append(result.Diagnostics,
				Errors.ImmediateOverflow(operandText(result, op), bits, op.Token.Range()))
			offset += width
			continue
		}
		switch width {
		case 4:
			binary.BigEndian.PutUint32(buf[offset:], uint32(v))
		case 2:
			binary.BigEndian.PutUint16(buf[offset:], uint16(v))
		default:
			buf[offset] = byte(v)
		}
		offset += width
	}
}

// dataSize computes the byte footprint of a data directive during pass 1.
// Space and align operands must be constant expressions since layout cannot
// depend on addresses it is still assigning.
func dataSize(stmt Statement, result *Result) (uint32, bool) {
	switch stmt.Data {
	case DataWord:
		return 4 * uint32(len(stmt.Operands)), true
	case DataHalf:
		return 2 * uint32(len(stmt.Operands)), true
	case DataByte:
		return uint32(len(stmt.Operands)), true
	case DataAscii, DataAsciiz:
		total := uint32(0)
		for _, op := range stmt.Operands {
			total += uint32(len(op.Str))
			if stmt.Data == DataAsciiz {
				total++
			}
		}
		return total, true
	case DataSpace, DataAlign:
		op := stmt.Operands[0]
		v := op.Value
		if op.Kind != OperandImmediate {
			var err error
			v, err = Evaluate(op.Expr, nil)
			if err != nil {
				result.Diagnostics = append(result.Diagnostics,
					Errors.InvalidDirectiveValue(op.Expr, directiveName(stmt.Data), op.Token.Range()))
				return 0, false
			}
		}
		if stmt.Data == DataSpace {
			if v < 0 || v > 1<<24 {
				result.Diagnostics = append(result.Diagnostics,
					Errors.InvalidDirectiveValue(operandText(result, op), "space", op.Token.Range()))
				return 0, false
			}
			return uint32(v), true
		}
		// .align n returns n; the caller pads the cursor to 2^n.
		if v < 0 || v > 16 {
			result.Diagnostics = append(result.Diagnostics,
				Errors.InvalidDirectiveValue(operandText(result, op), "align", op.Token.Range()))
			return 0, false
		}
		return uint32(v), true
	}
	return 0, true
}

// dataAlignment returns the natural alignment (and element width for the
// numeric kinds) of a data directive.
func dataAlignment(kind DataKind) uint32 {
	switch kind {
	case DataWord:
		return 4
	case DataHalf:
		return 2
	default:
		return 1
	}
}

func alignPadding(cursor, alignment uint32) uint32 {
	if alignment <= 1 {
		return 0
	}
	rem := cursor % alignment
	if rem == 0 {
		return 0
	}
	return alignment - rem
}

func directiveName(kind DataKind) string {
	switch kind {
	case DataWord:
		return "word"
	case DataHalf:
		return "half"
	case DataByte:
		return "byte"
	case DataAscii:
		return "ascii"
	case DataAsciiz:
		return "asciiz"
	case DataSpace:
		return "space"
	default:
		return "align"
	}
}

func operandText(result *Result, op Operand) string {
	if op.Kind == OperandSymbol {
		return op.Expr
	}
	return op.Token.Text
}

func labelRange(result *Result, stmt Statement) TextRange {
	return TextRange{
		Start: TextPosition{Line: stmt.Line},
		End:   TextPosition{Line: stmt.Line, Char: len(stmt.Label) + 1},
	}
}

func statementRange(result *Result, stmt Statement) TextRange {
	line := ""
	if stmt.Line < len(result.source) {
		line = result.source[stmt.Line]
	}
	return TextRange{
		Start: TextPosition{Line: stmt.Line},
		End:   TextPosition{Line: stmt.Line, Char: len(line)},
	}
}
