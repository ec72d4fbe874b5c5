package assembler

import (
	"strconv"
)

func AdjustRange(r TextRange, errorText string) (TextRange, string) {
	// Removes the leading and trailing whitespace from the error text, and adjusts the range accordingly
	text := errorText
	for len(text) > 0 && text[0] == ' ' {
		text = text[1:]
		r.Start.Char += 1
	}

	for len(text) > 0 && text[len(text)-1] == ' ' {
		text = text[:len(text)-1]
		r.End.Char -= 1
	}

	return r, text
}

// Errors
type assemblyError struct{}

var Errors assemblyError

func (assemblyError) SyntaxError(r TextRange, message string) Diagnostic {
	return Diagnostic{
		Range:    r,
		Message:  message,
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) InvalidInstruction(instruction string, r TextRange) Diagnostic {
	r, instruction = AdjustRange(r, instruction)
	return Diagnostic{
		Range:    r,
		Message:  "Invalid instruction: \"" + instruction + "\"",
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) InvalidInstructionFormat(format string, mnemonic string, r TextRange) Diagnostic {
	return Diagnostic{
		Range:    r,
		Message:  "Invalid instruction format for " + mnemonic + "\nFormat: " + format,
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) InvalidRegister(register string, r TextRange) Diagnostic {
	r, register = AdjustRange(r, register)
	return Diagnostic{
		Range:    r,
		Message:  "Expected register, got: \"" + register + "\"",
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) InvalidDirective(directive string, r TextRange) Diagnostic {
	r, directive = AdjustRange(r, directive)
	return Diagnostic{
		Range:    r,
		Message:  "Invalid directive: \"." + directive + "\"",
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) InvalidDirectiveValue(value string, directive string, r TextRange) Diagnostic {
	r, value = AdjustRange(r, value)
	return Diagnostic{
		Range:    r,
		Message:  "Invalid value for ." + directive + ": \"" + value + "\"",
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) DuplicateSymbol(symbolName string, firstLine int, r TextRange) Diagnostic {
	r, symbolName = AdjustRange(r, symbolName)
	return Diagnostic{
		Range:    r,
		Message:  "Duplicate label: \"" + symbolName + "\", first defined on line " + strconv.Itoa(firstLine+1),
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) UnresolvedSymbolName(symbolName string, r TextRange) Diagnostic {
	r, symbolName = AdjustRange(r, symbolName)
	return Diagnostic{
		Range:    r,
		Message:  "Unresolved symbol name: \"" + symbolName + "\"",
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) InvalidExpression(expression string, r TextRange) Diagnostic {
	r, expression = AdjustRange(r, expression)
	return Diagnostic{
		Range:    r,
		Message:  "Invalid expression: \"" + expression + "\"",
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) ImmediateOverflow(value string, maxSize int, r TextRange) Diagnostic {
	r, value = AdjustRange(r, value)
	low := -(1 << (maxSize - 1))
	high := 1 << (maxSize - 1)
	return Diagnostic{
		Range:    r,
		Message:  "Immediate value \"" + value + "\" is out of range of " + strconv.Itoa(maxSize) + " bits [" + strconv.Itoa(low) + ", " + strconv.Itoa(high) + ")",
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) UnsignedImmediateOverflow(value string, maxSize int, r TextRange) Diagnostic {
	r, value = AdjustRange(r, value)
	return Diagnostic{
		Range:    r,
		Message:  "Immediate value \"" + value + "\" is too large. Must be less than " + strconv.Itoa(maxSize) + " bits (" + strconv.Itoa(1<<maxSize) + ")",
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) BranchTargetTooFar(label string, r TextRange) Diagnostic {
	r, label = AdjustRange(r, label)
	return Diagnostic{
		Range:    r,
		Message:  "Branch target \"" + label + "\" is too far away and the offset overflows. Use j instead",
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) BranchTargetMisaligned(label string, r TextRange) Diagnostic {
	r, label = AdjustRange(r, label)
	return Diagnostic{
		Range:    r,
		Message:  "Branch target \"" + label + "\" is not word aligned",
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) JumpTargetOutOfRange(target string, r TextRange) Diagnostic {
	r, target = AdjustRange(r, target)
	return Diagnostic{
		Range:    r,
		Message:  "Jump target \"" + target + "\" does not fit a 26-bit word address",
		Source:   "Assembler",
		Severity: Error,
	}
}

func (assemblyError) AnonymousError(message string, r TextRange) Diagnostic {
	return Diagnostic{
		Range:    r,
		Message:  message,
		Source:   "Assembler",
		Severity: Error,
	}
}

// Warnings
type assemblyWarning struct{}

var Warnings assemblyWarning

func (assemblyWarning) ScratchRegisterWrite(register string, r TextRange) Diagnostic {
	r, register = AdjustRange(r, register)
	return Diagnostic{
		Range:    r,
		Message:  "Write to $" + register + " may be clobbered by pseudo-instruction expansion",
		Source:   "Assembler",
		Severity: Warning,
	}
}

func (assemblyWarning) UnusedLabel(label string, r TextRange) Diagnostic {
	r, label = AdjustRange(r, label)
	return Diagnostic{
		Range:    r,
		Message:  "Unused label: \"" + label + "\"",
		Source:   "Assembler",
		Severity: Warning,
	}
}

func (assemblyWarning) DataInTextSegment(r TextRange) Diagnostic {
	return Diagnostic{
		Range:    r,
		Message:  "Data directive in the .text segment",
		Source:   "Assembler",
		Severity: Warning,
	}
}

// Evaluate-Specific Errors
type evaluationErrors struct{}

var EvaluationErrors evaluationErrors

type EvaluationUnresolvedSymbol struct {
	symbolName string
}

func (e *EvaluationUnresolvedSymbol) Error() string {
	return "Unresolved symbol: " + e.symbolName
}

type EvaluationInvalidNumberLiteral struct {
	expression string
}

func (e *EvaluationInvalidNumberLiteral) Error() string {
	return "Invalid number literal: " + e.expression
}

type EvaluationInvalidExpression struct {
	expression string
}

func (e *EvaluationInvalidExpression) Error() string {
	return "Invalid expression: " + e.expression
}

func (evaluationErrors) InvalidExpression(expression string) *EvaluationInvalidExpression {
	return &EvaluationInvalidExpression{expression: expression}
}

func (evaluationErrors) UnresolvedSymbol(symbolName string) *EvaluationUnresolvedSymbol {
	return &EvaluationUnresolvedSymbol{symbolName: symbolName}
}

func (evaluationErrors) InvalidNumberLiteral(expression string) *EvaluationInvalidNumberLiteral {
	return &EvaluationInvalidNumberLiteral{expression: expression}
}

func (evaluationErrors) IsUnresolvedSymbolError(err error) bool {
	_, ok := err.(*EvaluationUnresolvedSymbol)
	return ok
}

func (evaluationErrors) IsInvalidNumberLiteralError(err error) bool {
	_, ok := err.(*EvaluationInvalidNumberLiteral)
	return ok
}

func (evaluationErrors) IsInvalidExpressionError(err error) bool {
	_, ok := err.(*EvaluationInvalidExpression)
	return ok
}
