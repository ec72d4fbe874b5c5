package assembler

type hoverInfoFormatsType struct {
	labelDefinition string
	labelReference  string
	integerLiteral  string
	instruction     string
	pseudo          string

	// registers
	zeroRegister    string
	atRegister      string
	gpRegister      string
	spRegister      string
	fpRegister      string
	raRegister      string
	genericRegister string
}

var hoverInfoFormats = hoverInfoFormatsType{
	labelDefinition: "Definition of label `%s`.\n\nAddress 0x%08X",
	labelReference:  "Reference to label `%s`\n\nEvaluates to `0x%08X`",
	integerLiteral:  "Integer Literal `%d` (`%s`)",
	instruction:     "**%s** (`%s`)\n\n%s",
	pseudo:          "**%s** (`%s`, pseudo-instruction)\n\n%s",

	zeroRegister:    "Zero Register `zero` (`$0`)\n\nAlways evaluates to `0`; writes are discarded",
	atRegister:      "Assembler Temporary `at` (`$1`)\n\nReserved for pseudo-instruction expansion",
	gpRegister:      "Global Pointer `gp` (`$28`)\n\nPoints into the static data segment",
	spRegister:      "Stack Pointer `sp` (`$29`)",
	fpRegister:      "Frame Pointer `fp` (`$30`)",
	raRegister:      "Return Address `ra` (`$31`)\n\nWritten by jal and jalr",
	genericRegister: "Register `%s` (`$%d`)",
}
