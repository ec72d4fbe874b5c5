package assembler

import (
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Evaluate resolves an operand expression against the symbol table: a known
// label yields its address, a plain number literal its value, and anything
// else is handed to starlark with every label predeclared as an int. symbols
// may be nil during pass 1, in which case label references are unresolved.
func Evaluate(expr string, symbols SymbolTable) (int64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, EvaluationErrors.InvalidExpression(expr)
	}

	if symbols != nil {
		if sym, ok := symbols[expr]; ok {
			return int64(sym.Address), nil
		}
	}

	if v, err := parseNumber(expr); err == nil {
		return v, nil
	}

	if isIdentifier(expr) {
		// A bare identifier that is not a known label never evaluates;
		// reporting it as unresolved beats a starlark NameError.
		return 0, EvaluationErrors.UnresolvedSymbol(expr)
	}

	v, err := evalStarlark(expr, symbols)
	if err != nil {
		return 0, EvaluationErrors.InvalidExpression(expr)
	}
	return v, nil
}

func parseNumber(expr string) (int64, error) {
	neg := false
	s := expr
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	var v uint64
	var err error
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseUint(s[2:], 16, 64)
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		v, err = strconv.ParseUint(s[2:], 2, 64)
	default:
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil || v > 0xFFFFFFFF {
		return 0, EvaluationErrors.InvalidNumberLiteral(expr)
	}
	if neg {
		return -int64(v), nil
	}
	return int64(v), nil
}

func isIdentifier(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isWordChar(s[i]) {
			return false
		}
	}
	return len(s) > 0 && !(s[0] >= '0' && s[0] <= '9')
}

func evalStarlark(expr string, symbols SymbolTable) (int64, error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for name, sym := range symbols {
		pred[name] = starlark.MakeInt(int(sym.Address))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return 0, err
	}
	rc, ok := dict["rc"]
	if !ok {
		return 0, EvaluationErrors.InvalidExpression(expr)
	}
	rcInt, ok := rc.(starlark.Int)
	if !ok {
		return 0, EvaluationErrors.InvalidExpression(expr)
	}
	v, ok := rcInt.Int64()
	if !ok {
		return 0, EvaluationErrors.InvalidExpression(expr)
	}
	return v, nil
}
