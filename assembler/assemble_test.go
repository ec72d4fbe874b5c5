package assembler_test

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/asmsuite/MIPS-Emulator/assembler"
)

func validateResult(t *testing.T, result *assembler.Result, expectedText []uint32, expectedData []byte) {
	t.Helper()

	for _, d := range result.Diagnostics {
		if d.Severity == assembler.Error {
			t.Errorf("unexpected error diagnostic: %s (line %d)", d.Message, d.Range.Start.Line+1)
		}
	}
	if result.Program == nil {
		t.Fatal("expected a program, got none")
	}

	if len(result.Program.Text) != 4*len(expectedText) {
		t.Fatalf("expected %d text words, got %d bytes", len(expectedText), len(result.Program.Text))
	}
	for i, want := range expectedText {
		got := binary.BigEndian.Uint32(result.Program.Text[4*i:])
		if got != want {
			t.Errorf("text word %d: expected 0x%08x, got 0x%08x", i, want, got)
		}
	}

	if expectedData != nil {
		if len(result.Program.Data) != len(expectedData) {
			t.Fatalf("expected %d data bytes, got %d", len(expectedData), len(result.Program.Data))
		}
		for i, want := range expectedData {
			if result.Program.Data[i] != want {
				t.Errorf("data byte %d: expected 0x%02x, got 0x%02x", i, want, result.Program.Data[i])
			}
		}
	}
}

func expectError(t *testing.T, result *assembler.Result, fragment string) {
	t.Helper()
	if !result.HasErrors() {
		t.Fatalf("expected an error mentioning %q, got none", fragment)
	}
	for _, d := range result.Diagnostics {
		if d.Severity == assembler.Error && strings.Contains(d.Message, fragment) {
			return
		}
	}
	t.Errorf("no error diagnostic mentions %q; got %v", fragment, result.Diagnostics)
}

func TestProgramRType(t *testing.T) {
	source := `
	.text
		add $t2, $t0, $t1
		sub $t2, $t0, $t1
		sll $t0, $t1, 2
		jr $ra
		syscall
	`
	expected := []uint32{
		0x01095020,
		0x01095022,
		0x00094080,
		0x03e00008,
		0x0000000c,
	}

	validateResult(t, assembler.AssembleDefault(source), expected, nil)
}

func TestProgramIType(t *testing.T) {
	source := `
	.text
		addi $t0, $zero, 5
		addiu $t1, $zero, -1
		ori $t2, $zero, 0xffff
		lui $t3, 0x1234
	`
	expected := []uint32{
		0x20080005,
		0x2409ffff,
		0x340affff,
		0x3c0b1234,
	}

	validateResult(t, assembler.AssembleDefault(source), expected, nil)
}

func TestProgramLoadStore(t *testing.T) {
	source := `
	.text
		lw $t0, 4($sp)
		sw $t0, ($sp)
		lb $t1, -1($gp)
	`
	expected := []uint32{
		0x8fa80004,
		0xafa80000,
		0x8389ffff,
	}

	validateResult(t, assembler.AssembleDefault(source), expected, nil)
}

func TestProgramBranchesAndLabels(t *testing.T) {
	source := `
	.text
	main:
		addi $t0, $zero, 0
	loop:
		addi $t0, $t0, 1
		beq $t0, $t1, loop # should evaluate to -2 words
		bne $t0, $t1, loop
	`
	expected := []uint32{
		0x20080000,
		0x21080001,
		0x1109fffe,
		0x1509fffd,
	}

	validateResult(t, assembler.AssembleDefault(source), expected, nil)
}

func TestProgramJumps(t *testing.T) {
	source := `
	.text
	main:
		j end
		jal main
	end:
		jr $ra
	`
	expected := []uint32{
		0x08100002,
		0x0c100000,
		0x03e00008,
	}

	validateResult(t, assembler.AssembleDefault(source), expected, nil)
}

func TestPseudoLiShort(t *testing.T) {
	source := `
	.text
		li $t0, 5
		li $t1, -32768
	`
	expected := []uint32{
		0x24080005,
		0x24098000,
	}

	validateResult(t, assembler.AssembleDefault(source), expected, nil)
}

func TestPseudoLiLong(t *testing.T) {
	source := `
	.text
		li $t0, 0x12345678
	`
	expected := []uint32{
		0x3c081234,
		0x35085678,
	}

	result := assembler.AssembleDefault(source)
	validateResult(t, result, expected, nil)
	if len(result.Program.Instructions) != 2 {
		t.Errorf("expected li to expand to exactly 2 instructions, got %d", len(result.Program.Instructions))
	}
}

func TestPseudoLa(t *testing.T) {
	source := `
	.data
	msg: .asciiz "hi"
	.text
		la $a0, msg
	`
	expected := []uint32{
		0x3c041000,
		0x34840000,
	}

	validateResult(t, assembler.AssembleDefault(source), expected, []byte{'h', 'i', 0})
}

func TestPseudoMoveNopNotNeg(t *testing.T) {
	source := `
	.text
		move $t0, $t1
		nop
		not $t0, $t1
		neg $t0, $t1
	`
	expected := []uint32{
		0x01204021,
		0x00000000,
		0x01204027,
		0x00094022,
	}

	validateResult(t, assembler.AssembleDefault(source), expected, nil)
}

func TestPseudoComparisonBranches(t *testing.T) {
	source := `
	.text
	loop:
		blt $t0, $t1, loop
		bge $t0, $t1, loop
	`
	expected := []uint32{
		0x0109082a, // slt $at, $t0, $t1
		0x1420fffe, // bne $at, $zero, loop
		0x0109082a, // slt $at, $t0, $t1
		0x1020fffc, // beq $at, $zero, loop
	}

	validateResult(t, assembler.AssembleDefault(source), expected, nil)
}

func TestDataDirectives(t *testing.T) {
	source := `
	.data
	bytes: .byte 1, 2, 3
	half: .half 0x0304
	word: .word 0x05060708
	.text
		la $t0, word
	`
	expectedData := []byte{
		1, 2, 3, // .byte
		0, 0x03, 0x04, // .half, padded to even
		0, 0, 0x05, 0x06, 0x07, 0x08, // .word, padded to 4
	}

	result := assembler.AssembleDefault(source)
	if result.Program == nil {
		t.Fatalf("expected a program, diagnostics: %v", result.Diagnostics)
	}
	if len(result.Program.Data) != len(expectedData) {
		t.Fatalf("expected %d data bytes, got %d", len(expectedData), len(result.Program.Data))
	}
	for i, want := range expectedData {
		if result.Program.Data[i] != want {
			t.Errorf("data byte %d: expected 0x%02x, got 0x%02x", i, want, result.Program.Data[i])
		}
	}
	if result.Symbols["word"].Address != 0x10000008 {
		t.Errorf("expected word at 0x10000008, got 0x%08x", result.Symbols["word"].Address)
	}
}

func TestDataAlign(t *testing.T) {
	source := `
	.data
	a: .byte 1
	.align 3
	b: .byte 2
	`

	result := assembler.AssembleDefault(source)
	if result.Program == nil {
		t.Fatalf("expected a program, diagnostics: %v", result.Diagnostics)
	}
	if got := result.Symbols["b"].Address; got != 0x10000008 {
		t.Errorf("expected b aligned to 0x10000008, got 0x%08x", got)
	}
}

func TestEntryPointIsMain(t *testing.T) {
	source := `
	.text
		nop
	main:
		nop
	`

	result := assembler.AssembleDefault(source)
	if result.Program == nil {
		t.Fatalf("expected a program, diagnostics: %v", result.Diagnostics)
	}
	if result.Program.Entry != 0x00400004 {
		t.Errorf("expected entry 0x00400004, got 0x%08x", result.Program.Entry)
	}
}

func TestDuplicateLabel(t *testing.T) {
	source := `
	.text
	here: nop
	here: nop
	`

	result := assembler.AssembleDefault(source)
	expectError(t, result, "Duplicate label")
	expectError(t, result, "line 3")
	if result.Program != nil {
		t.Error("expected no program when assembly has errors")
	}
}

func TestUndefinedLabel(t *testing.T) {
	source := `
	.text
		j nowhere
	`

	result := assembler.AssembleDefault(source)
	expectError(t, result, "nowhere")
}

func TestImmediateOverflow(t *testing.T) {
	source := `
	.text
		addi $t0, $zero, 70000
	`

	result := assembler.AssembleDefault(source)
	expectError(t, result, "out of range")
}

func TestShamtOverflow(t *testing.T) {
	source := `
	.text
		sll $t0, $t1, 32
	`

	result := assembler.AssembleDefault(source)
	expectError(t, result, "too large")
}

func TestInvalidInstruction(t *testing.T) {
	source := `
	.text
		frobnicate $t0, $t1
	`

	result := assembler.AssembleDefault(source)
	expectError(t, result, "frobnicate")
}

func TestUnterminatedString(t *testing.T) {
	source := `
	.data
	msg: .asciiz "oops
	`

	result := assembler.AssembleDefault(source)
	expectError(t, result, "unterminated")
}

func TestScratchRegisterWarning(t *testing.T) {
	source := `
	.text
		li $t0, 0x12345678
		add $at, $t0, $t0
	`

	result := assembler.AssembleDefault(source)
	if result.HasErrors() {
		t.Fatalf("expected warnings only, got errors: %v", result.Diagnostics)
	}
	found := false
	for _, d := range result.Diagnostics {
		if d.Severity == assembler.Warning && strings.Contains(d.Message, "pseudo-instruction") {
			found = true
		}
	}
	if !found {
		t.Error("expected a scratch register warning")
	}
}

func TestAllDiagnosticsCollected(t *testing.T) {
	source := `
	.text
		frobnicate $t0
		addi $t0, $zero, 70000
		j nowhere
	`

	result := assembler.AssembleDefault(source)
	errors := 0
	for _, d := range result.Diagnostics {
		if d.Severity == assembler.Error {
			errors++
		}
	}
	if errors != 3 {
		t.Errorf("expected 3 errors collected, got %d: %v", errors, result.Diagnostics)
	}
}

func TestExpressionOperands(t *testing.T) {
	source := `
	.data
	vals: .word 2*16, 1 << 8
	.text
		addi $t0, $zero, 4+4
		la $t1, vals
	`
	expectedData := []byte{0, 0, 0, 32, 0, 0, 1, 0}

	result := assembler.AssembleDefault(source)
	if result.Program == nil {
		t.Fatalf("expected a program, diagnostics: %v", result.Diagnostics)
	}
	for i, want := range expectedData {
		if result.Program.Data[i] != want {
			t.Errorf("data byte %d: expected 0x%02x, got 0x%02x", i, want, result.Program.Data[i])
		}
	}
	word := binary.BigEndian.Uint32(result.Program.Text[0:])
	if word != 0x20080008 {
		t.Errorf("expected addi with evaluated immediate 8, got 0x%08x", word)
	}
}

func TestListing(t *testing.T) {
	source := `.text
main:
	addi $t0, $zero, 5`

	result := assembler.AssembleDefault(source)
	if result.Program == nil {
		t.Fatalf("expected a program, diagnostics: %v", result.Diagnostics)
	}
	listing := result.Listing()
	if !strings.Contains(listing, "00400000: 20080005") {
		t.Errorf("listing missing encoded instruction:\n%s", listing)
	}
	if !strings.Contains(listing, "addi $t0, $zero, 5") {
		t.Errorf("listing missing source text:\n%s", listing)
	}
}
