package assembler

// Config carries the layout constants the assembler works against. The
// defaults follow the conventional MIPS memory map; callers may override
// them per assembly call, there is no package-level state.
type Config struct {
	TextBase        uint32 // base address of the .text segment
	DataBase        uint32 // base address of the .data segment
	ScratchRegister uint32 // register reserved for pseudo-instruction expansion
}

func DefaultConfig() Config {
	return Config{
		TextBase:        0x00400000,
		DataBase:        0x10000000,
		ScratchRegister: RegAT,
	}
}

type TokenKind int

const (
	TokenLabel TokenKind = iota // "name:" definition
	TokenMnemonic
	TokenRegister // "$t0", "$31" (text stored without the '$')
	TokenImmediate
	TokenIdentifier // bare word after a mnemonic, usually a label reference
	TokenString
	TokenDirective // ".word", ".text", ... (text stored without the '.')
	TokenPunct     // ',', '(', ')' and any other stray character
)

// Token is one lexeme of a source line. Immutable once produced.
type Token struct {
	Kind TokenKind
	Text string
	Line int
	Col  int
}

func (t Token) Range() TextRange {
	return TextRange{
		Start: TextPosition{Line: t.Line, Char: t.Col},
		End:   TextPosition{Line: t.Line, Char: t.Col + len(t.Text)},
	}
}

type StatementKind int

const (
	StmtInstruction StatementKind = iota
	StmtData
	StmtSegment
	StmtLabel
)

type Segment int

const (
	SegmentText Segment = iota
	SegmentData
)

type DataKind int

const (
	DataWord DataKind = iota
	DataHalf
	DataByte
	DataAscii
	DataAsciiz
	DataSpace
	DataAlign
)

type OperandKind int

const (
	OperandRegister OperandKind = iota
	OperandImmediate
	OperandSymbol // label reference or constant expression, resolved in pass 2
	OperandString // string literal for .ascii/.asciiz
)

// SymbolPart marks which half of a resolved address an expanded
// pseudo-instruction operand wants. Whole operands take the full value.
type SymbolPart int

const (
	SymbolWhole SymbolPart = iota
	SymbolHigh // upper 16 bits, for the lui half of a la/li split
	SymbolLow  // lower 16 bits, for the ori half of a la/li split
)

type Operand struct {
	Kind  OperandKind
	Reg   uint32
	Value int64
	Expr  string // label name or constant expression (OperandSymbol)
	Str   string // decoded string literal (OperandString)
	Part  SymbolPart
	Token Token
}

// Statement is one logical source line after comment stripping. The
// expander replaces pseudo-instruction statements 1:N with real ones.
type Statement struct {
	Kind     StatementKind
	Line     int
	Inst     *Inst  // real instruction, nil while Pseudo is set
	Pseudo   string // pseudo mnemonic prior to expansion
	Operands []Operand
	Data     DataKind
	Segment  Segment
	Label    string
	// expanded marks statements synthesized by the pseudo expander so
	// diagnostics can refer back to the originating source line.
	expanded bool
}

type Symbol struct {
	Name    string
	Address uint32
	Line    int
	Segment Segment
}

// SymbolTable maps case-sensitive label names to their resolved addresses.
// Built during pass 1 and read-only during pass 2.
type SymbolTable map[string]Symbol

// EncodedInstruction pairs an emitted word with its address and source line.
type EncodedInstruction struct {
	Address uint32
	Word    uint32
	Line    int
}

// Program is the binary image produced by a fully successful assembly.
type Program struct {
	Text          []byte // big-endian instruction words
	Data          []byte
	Entry         uint32
	TextBase      uint32
	DataBase      uint32
	Symbols       SymbolTable
	AddressToLine map[uint32]int
	Instructions  []EncodedInstruction
}

// Result is what Assemble always returns: the diagnostics gathered across
// both passes and, only when none of them is an error, the Program.
type Result struct {
	Program     *Program
	Diagnostics []Diagnostic
	Symbols     SymbolTable

	config       Config
	source       []string
	statements   []Statement
	usesPseudo   bool
	atWriteSites []Token
}

// HasErrors reports whether any collected diagnostic is of error severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

type TextPosition struct {
	Line int `json:"line"`
	Char int `json:"character"`
}

type TextRange struct {
	Start TextPosition `json:"start"`
	End   TextPosition `json:"end"`
}

type CodeDescription struct {
	URL string `json:"href"`
}

type DiagnosticSeverity int

const (
	Error       DiagnosticSeverity = 1
	Warning     DiagnosticSeverity = 2
	Information DiagnosticSeverity = 3
	Hint        DiagnosticSeverity = 4
)

type Diagnostic struct {
	Range           TextRange          `json:"range"`
	Message         string             `json:"message"`
	Source          string             `json:"source,omitempty"`
	CodeDescription *CodeDescription   `json:"codeDescription,omitempty"`
	Severity        DiagnosticSeverity `json:"severity,omitempty"`
}
