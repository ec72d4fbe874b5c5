package languageServer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/asmsuite/MIPS-Emulator/assembler"
	"github.com/asmsuite/MIPS-Emulator/util"
)

var documentMap = make(map[string]TextDocumentItem) // map from uri to document

func assembleAndReportDiagnostics(conn *jsonrpc2.Conn, uri DocumentUri) []assembler.Diagnostic {
	doc := documentMap[string(uri)]

	result := assembler.AssembleDefault(doc.Text)
	if result.Diagnostics == nil {
		result.Diagnostics = make([]assembler.Diagnostic, 0)
	}
	doc.lastAssembledResult = result
	documentMap[string(uri)] = doc
	return result.Diagnostics
}

func documentOpenNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DidOpenTextDocumentParams{}
	err := json.Unmarshal(*req.Params, &decodedParams)
	if err != nil {
		rpcErr := jsonrpc2.Error{}
		rpcErr.SetError("invalid parameters")
		conn.ReplyWithError(context.Background(), req.ID, &rpcErr)
		return
	}

	documentMap[string(decodedParams.TextDocument.URI)] = decodedParams.TextDocument

	diagnostics := assembleAndReportDiagnostics(conn, decodedParams.TextDocument.URI)
	conn.Notify(context.Background(), "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         decodedParams.TextDocument.URI,
		Diagnostics: diagnostics,
	})
}

func documentCloseNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DidCloseTextDocumentParams{}
	err := json.Unmarshal(*req.Params, &decodedParams)
	if err != nil {
		rpcErr := jsonrpc2.Error{}
		rpcErr.SetError("invalid parameters")
		conn.ReplyWithError(context.Background(), req.ID, &rpcErr)
		return
	}

	delete(documentMap, string(decodedParams.TextDocument.URI))
}

func documentChangeNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DidChangeTextDocumentParams{}
	err := json.Unmarshal(*req.Params, &decodedParams)
	if err != nil {
		rpcErr := jsonrpc2.Error{}
		rpcErr.SetError("invalid parameters")
		conn.ReplyWithError(context.Background(), req.ID, &rpcErr)
		return
	}

	doc := documentMap[string(decodedParams.TextDocument.URI)]
	doc.Text = decodedParams.ContentChanges[0].Text
	doc.Version = decodedParams.TextDocument.Version
	documentMap[string(decodedParams.TextDocument.URI)] = doc

	diagnostics := assembleAndReportDiagnostics(conn, decodedParams.TextDocument.URI)
	conn.Notify(context.Background(), "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         decodedParams.TextDocument.URI,
		Version:     doc.Version,
		Diagnostics: diagnostics,
	})
}

func documentDiagnostics(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DocumentDiagnosticsParams{}
	err := json.Unmarshal(*req.Params, &decodedParams)
	if err != nil {
		rpcErr := jsonrpc2.Error{}
		rpcErr.SetError("invalid parameters")
		conn.ReplyWithError(context.Background(), req.ID, &rpcErr)
		return
	}

	diagnostics := assembleAndReportDiagnostics(conn, decodedParams.TextDocument.URI)
	conn.Reply(context.Background(), req.ID, DocumentDiagnosticsReport{
		Kind:  "full",
		Items: diagnostics,
	})
}

// reformatDocument normalizes whitespace: directives flush left, labels
// followed by a single space, instructions indented past the longest label.
func reformatDocument(uri DocumentUri) string {
	doc := documentMap[string(uri)]
	result := assembler.AssembleDefault(doc.Text)

	lines := strings.Split(doc.Text, "\n")
	maxLabelLength := 0
	for label := range result.Symbols {
		if len(label) > maxLabelLength {
			maxLabelLength = len(label)
		}
	}

	for i, line := range lines {
		withoutComment := strings.Split(line, "#")[0]
		withComment := ""
		if strings.Contains(line, "#") {
			withComment = "#" + strings.SplitN(line, "#", 2)[1]
		}
		trimmed := strings.TrimLeft(withoutComment, " \t")
		trimmed = strings.ReplaceAll(trimmed, "\t", " ")
		for strings.Contains(trimmed, "  ") {
			trimmed = strings.ReplaceAll(trimmed, "  ", " ")
		}

		if strings.HasPrefix(trimmed, ".") {
			lines[i] = trimmed + withComment
		} else if colon := strings.Index(trimmed, ":"); colon != -1 {
			rest := strings.TrimLeft(trimmed[colon+1:], " \t")
			if rest == "" {
				lines[i] = trimmed[:colon+1] + withComment
			} else {
				lines[i] = trimmed[:colon+1] + " " + rest + withComment
			}
		} else {
			lines[i] = strings.Repeat(" ", maxLabelLength+2) + trimmed + withComment
		}
	}
	return strings.Join(lines, "\n")
}

func documentWillSaveWaitUntil(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DocumentWillSaveWaitUntilParams{}
	err := json.Unmarshal(*req.Params, &decodedParams)
	if err != nil {
		rpcErr := jsonrpc2.Error{}
		rpcErr.SetError("invalid parameters")
		conn.ReplyWithError(context.Background(), req.ID, &rpcErr)
		return
	}

	lines := strings.Split(documentMap[string(decodedParams.TextDocument.URI)].Text, "\n")

	edits := make([]TextEdit, 0)
	edits = append(edits, TextEdit{
		Range: assembler.TextRange{
			Start: assembler.TextPosition{Line: 0, Char: 0},
			End:   assembler.TextPosition{Line: len(lines) - 1, Char: len(lines[len(lines)-1])},
		},
		NewText: reformatDocument(decodedParams.TextDocument.URI),
	})

	conn.Reply(context.Background(), req.ID, edits)
	util.LogF("MIPS Language Server: reformatted document")
}
