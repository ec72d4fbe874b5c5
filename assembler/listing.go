package assembler

import (
	"fmt"
	"sort"
	"strings"
)

// Listing renders the assembled program side by side with its source:
// address, encoded word and the originating line. Lines that emitted no
// code (labels, directives, blanks) appear without an address column.
func (r *Result) Listing() string {
	if r.Program == nil {
		return ""
	}

	byLine := map[int][]EncodedInstruction{}
	for _, enc := range r.Program.Instructions {
		byLine[enc.Line] = append(byLine[enc.Line], enc)
	}

	var sb strings.Builder
	for lineNum, line := range r.source {
		encs := byLine[lineNum]
		if len(encs) == 0 {
			fmt.Fprintf(&sb, "%19s%s\n", "", line)
			continue
		}
		sort.Slice(encs, func(i, j int) bool { return encs[i].Address < encs[j].Address })
		fmt.Fprintf(&sb, "%08x: %08x %s\n", encs[0].Address, encs[0].Word, line)
		for _, enc := range encs[1:] {
			fmt.Fprintf(&sb, "%08x: %08x\n", enc.Address, enc.Word)
		}
	}
	return sb.String()
}
