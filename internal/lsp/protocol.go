package lsp

import (
	"os"
	"strings"

	"go.lsp.dev/uri"

	"github.com/jarredhawkins/velocity-lsp/internal/types"
)

// LSP Protocol types - minimal set for document sync and folding

// TextDocumentSyncKind defines how text document changes are synced
type TextDocumentSyncKind int

const (
	TextDocumentSyncKindNone        TextDocumentSyncKind = 0
	TextDocumentSyncKindFull        TextDocumentSyncKind = 1
	TextDocumentSyncKindIncremental TextDocumentSyncKind = 2
)

// FoldingRangeKind is the editor-facing category of a fold
type FoldingRangeKind string

const (
	FoldingRangeKindComment FoldingRangeKind = "comment"
	FoldingRangeKindImports FoldingRangeKind = "imports"
	FoldingRangeKindRegion  FoldingRangeKind = "region"
)

// TextDocumentIdentifier identifies a text document
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// VersionedTextDocumentIdentifier identifies a versioned text document
type VersionedTextDocumentIdentifier struct {
	TextDocumentIdentifier
	Version int `json:"version"`
}

// TextDocumentItem represents an open text document
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// FoldingRangeClientCapabilities describes the client's folding support
type FoldingRangeClientCapabilities struct {
	// Maximum number of folding ranges the client wants per document
	RangeLimit *int `json:"rangeLimit,omitempty"`
	// Client ignores startCharacter/endCharacter
	LineFoldingOnly bool `json:"lineFoldingOnly,omitempty"`
}

// TextDocumentClientCapabilities holds per-feature client capabilities
type TextDocumentClientCapabilities struct {
	FoldingRange *FoldingRangeClientCapabilities `json:"foldingRange,omitempty"`
}

// ClientCapabilities is the subset of client capabilities the server reads
type ClientCapabilities struct {
	TextDocument *TextDocumentClientCapabilities `json:"textDocument,omitempty"`
}

// InitializeParams for initialize
type InitializeParams struct {
	ProcessID    *int               `json:"processId"`
	RootURI      string             `json:"rootUri,omitempty"`
	Capabilities ClientCapabilities `json:"capabilities"`
}

// TextDocumentSyncOptions defines text document sync options
type TextDocumentSyncOptions struct {
	OpenClose bool                 `json:"openClose,omitempty"`
	Change    TextDocumentSyncKind `json:"change,omitempty"`
}

// ServerCapabilities defines what the server can do
type ServerCapabilities struct {
	TextDocumentSync     *TextDocumentSyncOptions `json:"textDocumentSync,omitempty"`
	FoldingRangeProvider bool                     `json:"foldingRangeProvider,omitempty"`
}

// ServerInfo contains information about the server
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult is the result of the initialize request
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// DidOpenTextDocumentParams for textDocument/didOpen
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// TextDocumentContentChangeEvent describes changes to a text document
type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

// DidChangeTextDocumentParams for textDocument/didChange
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidCloseTextDocumentParams for textDocument/didClose
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// FoldingRangeParams for textDocument/foldingRange
type FoldingRangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// FoldingRange is a line span the client may collapse
type FoldingRange struct {
	StartLine uint32           `json:"startLine"`
	EndLine   uint32           `json:"endLine"`
	Kind      FoldingRangeKind `json:"kind,omitempty"`
}

// Helper functions

// uriToPath converts a file:// URI to a file path, decoding percent escapes.
// Anything that is not a parseable file URI is returned unchanged.
func uriToPath(s string) string {
	if !strings.HasPrefix(s, "file://") {
		return s
	}
	u, err := uri.Parse(s)
	if err != nil {
		return s
	}
	return u.Filename()
}

// toFoldingRanges converts scanner output to LSP folding ranges, keeping at most limit (0 = all)
func toFoldingRanges(ranges []types.FoldingRange, limit int) []FoldingRange {
	if limit > 0 && len(ranges) > limit {
		ranges = ranges[:limit]
	}
	result := make([]FoldingRange, len(ranges))
	for i, r := range ranges {
		result[i] = FoldingRange{
			StartLine: uint32(r.StartLine),
			EndLine:   uint32(r.EndLine),
			Kind:      FoldingRangeKindRegion,
		}
	}
	return result
}

// readFile reads a file from disk
func readFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
