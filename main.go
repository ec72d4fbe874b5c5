package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/asmsuite/MIPS-Emulator/assembler"
	"github.com/asmsuite/MIPS-Emulator/emulator"
	"github.com/asmsuite/MIPS-Emulator/languageServer"
	"github.com/asmsuite/MIPS-Emulator/util"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "languageServer" {
		if len(os.Args) >= 3 && os.Args[2] == "debug" {
			util.LoggingEnabled = true
		}
		languageServer.ListenAndServe()
	} else if len(os.Args) >= 2 && os.Args[1] == "debug" {
		// websocket debug sessions for interactive stepping
		addr := ":2036"
		if len(os.Args) >= 3 {
			addr = os.Args[2]
		}
		log.Fatal(emulator.RunDebugServer(addr))
	} else if len(os.Args) == 3 && os.Args[1] == "assemble" {
		assembleFile(os.Args[2])
	} else if len(os.Args) >= 3 && os.Args[1] == "run" {
		limit := uint64(0)
		if len(os.Args) >= 4 {
			limit, _ = strconv.ParseUint(os.Args[3], 10, 64)
		}
		runFile(os.Args[2], limit)
	} else if len(os.Args) == 1 {
		// language server in tcp mode so it can be remotely debugged
		languageServer.ListenAndServeTCP()
	} else {
		log.Fatalln("Invalid arguments:", os.Args)
	}
}

func assembleFile(path string) {
	result := mustAssemble(path)
	fmt.Print(result.Listing())
}

func runFile(path string, limit uint64) {
	result := mustAssemble(path)

	config := emulator.DefaultConfig()
	config.IO = emulator.NewConsoleIO(os.Stdin, os.Stdout)
	ctx := emulator.NewContext(config)
	ctx.Load(result.Program)

	state := ctx.Run(limit)
	switch state {
	case emulator.StateFaulted:
		log.Fatalf("runtime fault after %d instructions: %s", ctx.StepCount(), ctx.Fault().Message)
	case emulator.StateHalted:
		// normal exit
	default:
		log.Fatalf("instruction limit of %d reached at pc 0x%08X", limit, ctx.PC())
	}
}

func mustAssemble(path string) *assembler.Result {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Could not read file %s: %v", path, err)
	}

	result := assembler.AssembleDefault(string(b))
	for _, diag := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "%s:%d:%d: %s\n",
			filepath.Base(path), diag.Range.Start.Line+1, diag.Range.Start.Char, diag.Message)
	}
	if result.HasErrors() {
		os.Exit(1)
	}
	return result
}
