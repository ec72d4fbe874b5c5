package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexOne(t *testing.T, line string) []Token {
	t.Helper()
	var diags []Diagnostic
	tokens := lexLine(line, 0, &diags)
	require.Empty(t, diags, "unexpected diagnostics for %q", line)
	return tokens
}

func TestLexInstructionLine(t *testing.T) {
	assert := assert.New(t)

	tokens := lexOne(t, "loop: addi $t0, $t0, 1 # increment")
	require.Len(t, tokens, 7)
	assert.Equal(TokenLabel, tokens[0].Kind)
	assert.Equal("loop", tokens[0].Text)
	assert.Equal(TokenMnemonic, tokens[1].Kind)
	assert.Equal("addi", tokens[1].Text)
	assert.Equal(TokenRegister, tokens[2].Kind)
	assert.Equal("t0", tokens[2].Text)
	assert.Equal(TokenPunct, tokens[3].Kind)
	assert.Equal(TokenRegister, tokens[4].Kind)
	assert.Equal(TokenPunct, tokens[5].Kind)
	assert.Equal(TokenImmediate, tokens[6].Kind)
	assert.Equal("1", tokens[6].Text)
}

func TestLexCommentStyles(t *testing.T) {
	assert := assert.New(t)

	assert.Empty(lexOne(t, "# whole line comment"))
	assert.Empty(lexOne(t, "; semicolon comment"))
	assert.Len(lexOne(t, "nop ; trailing"), 1)
}

func TestLexMnemonicCaseInsensitive(t *testing.T) {
	tokens := lexOne(t, "ADDI $T0, $t0, 1")
	assert.Equal(t, "addi", tokens[0].Text)
	// register names stay case-sensitive
	assert.Equal(t, "T0", tokens[1].Text)
}

func TestLexDirective(t *testing.T) {
	tokens := lexOne(t, ".WORD 5")
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenDirective, tokens[0].Kind)
	assert.Equal(t, "word", tokens[0].Text)
}

func TestLexStringEscapes(t *testing.T) {
	tokens := lexOne(t, `.asciiz "a\tb\n\0\\\""`)
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenString, tokens[1].Kind)
	assert.Equal(t, "a\tb\n\x00\\\"", tokens[1].Text)
}

func TestLexUnterminatedString(t *testing.T) {
	var diags []Diagnostic
	lexLine(`.asciiz "oops`, 0, &diags)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "unterminated")
}

func TestLexLoadStoreOperand(t *testing.T) {
	assert := assert.New(t)

	tokens := lexOne(t, "lw $t0, 4($sp)")
	require.Len(t, tokens, 7)
	assert.Equal(TokenImmediate, tokens[3].Kind)
	assert.Equal("(", tokens[4].Text)
	assert.Equal("sp", tokens[5].Text)
	assert.Equal(")", tokens[6].Text)
}

func TestLexTokenColumns(t *testing.T) {
	tokens := lexOne(t, "  add $t0, $t1, $t2")
	require.NotEmpty(t, tokens)
	assert.Equal(t, 2, tokens[0].Col)
	r := tokens[0].Range()
	assert.Equal(t, 0, r.Start.Line)
	assert.Equal(t, 2+len("add"), r.End.Char)
}
