package assembler

import (
	"fmt"
	"strconv"
)

// EvaluateHover returns the markdown hover text for a position in the
// assembled source, and whether there is anything to show. The line is
// re-lexed so hover works even when assembly produced errors.
func (r *Result) EvaluateHover(position TextPosition) (string, bool) {
	if position.Line < 0 || position.Line >= len(r.source) {
		return "", false
	}

	var scratch []Diagnostic
	tokens := lexLine(r.source[position.Line], position.Line, &scratch)
	for _, tok := range tokens {
		end := tok.Col + len(tok.Text)
		if tok.Kind == TokenRegister || tok.Kind == TokenDirective || tok.Kind == TokenLabel {
			end++ // account for the '$', '.' or ':' the text omits
		}
		if position.Char < tok.Col || position.Char >= end {
			continue
		}

		switch tok.Kind {
		case TokenMnemonic:
			return hoverForMnemonic(tok.Text)
		case TokenRegister:
			return hoverForRegister(tok.Text)
		case TokenLabel:
			if sym, ok := r.Symbols[tok.Text]; ok {
				return fmt.Sprintf(hoverInfoFormats.labelDefinition, sym.Name, sym.Address), true
			}
			return "", false
		case TokenIdentifier:
			if sym, ok := r.Symbols[tok.Text]; ok {
				return fmt.Sprintf(hoverInfoFormats.labelReference, sym.Name, sym.Address), true
			}
			return "", false
		case TokenImmediate:
			v, err := parseNumber(tok.Text)
			if err != nil {
				return "", false
			}
			hex := "0x" + strconv.FormatUint(uint64(uint32(v)), 16)
			return fmt.Sprintf(hoverInfoFormats.integerLiteral, v, hex), true
		}
		return "", false
	}

	return "", false
}

func hoverForMnemonic(mnemonic string) (string, bool) {
	if inst := LookupMnemonic(mnemonic); inst != nil {
		return fmt.Sprintf(hoverInfoFormats.instruction, inst.Name, formatHint(inst), inst.Desc), true
	}
	if pseudo := LookupPseudo(mnemonic); pseudo != nil {
		return fmt.Sprintf(hoverInfoFormats.pseudo, pseudo.Name, pseudo.Mnemonic, pseudo.Desc), true
	}
	return "", false
}

func hoverForRegister(name string) (string, bool) {
	idx, ok := RegisterIndex(name)
	if !ok {
		return "", false
	}
	switch idx {
	case RegZero:
		return hoverInfoFormats.zeroRegister, true
	case RegAT:
		return hoverInfoFormats.atRegister, true
	case RegGP:
		return hoverInfoFormats.gpRegister, true
	case RegSP:
		return hoverInfoFormats.spRegister, true
	case RegFP:
		return hoverInfoFormats.fpRegister, true
	case RegRA:
		return hoverInfoFormats.raRegister, true
	}
	return fmt.Sprintf(hoverInfoFormats.genericRegister, RegisterNames[idx], idx), true
}
