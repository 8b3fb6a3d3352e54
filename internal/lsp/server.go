package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/jarredhawkins/velocity-lsp/internal/index"
	"github.com/jarredhawkins/velocity-lsp/internal/parser"
	"github.com/jarredhawkins/velocity-lsp/internal/types"
	"go.lsp.dev/jsonrpc2"
)

// codeRequestCancelled is the LSP error code for a request aborted by the client or server
const codeRequestCancelled jsonrpc2.Code = -32800

// Server implements the LSP server
type Server struct {
	index     *index.Index // may be nil when no workspace is indexed
	scanner   *parser.Scanner
	documents *DocumentStore

	mu         sync.Mutex
	rangeLimit int // client's foldingRange.rangeLimit, 0 = unlimited

	exited   chan struct{} // closed by the exit notification
	exitOnce sync.Once
}

// NewServer creates a new LSP server
func NewServer(scanner *parser.Scanner, idx *index.Index) *Server {
	return &Server{
		index:     idx,
		scanner:   scanner,
		documents: NewDocumentStore(),
		exited:    make(chan struct{}),
	}
}

// Serve starts the LSP server on the given reader/writer.
// It returns nil once the client sends exit.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stream := jsonrpc2.NewStream(&readWriteCloser{in, out})
	conn := jsonrpc2.NewConn(stream)

	conn.Go(ctx, s.handler)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.exited:
		log.Println("exit notification received")
		return conn.Close()
	case <-conn.Done():
		return conn.Err()
	}
}

func (s *Server) handler(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	log.Printf("LSP request: %s", req.Method())

	switch req.Method() {
	case "initialize":
		return s.handleInitialize(ctx, reply, req)
	case "initialized":
		return reply(ctx, nil, nil)
	case "shutdown":
		return reply(ctx, nil, nil)
	case "exit":
		s.exitOnce.Do(func() { close(s.exited) })
		return nil
	case "$/cancelRequest", "$/setTrace":
		return nil
	case "textDocument/foldingRange":
		return s.handleFoldingRange(ctx, reply, req)
	case "textDocument/didOpen":
		return s.handleDidOpen(ctx, reply, req)
	case "textDocument/didChange":
		return s.handleDidChange(ctx, reply, req)
	case "textDocument/didClose":
		return s.handleDidClose(ctx, reply, req)
	default:
		// Method not found
		return reply(ctx, nil, &jsonrpc2.Error{
			Code:    jsonrpc2.MethodNotFound,
			Message: "method not supported: " + req.Method(),
		})
	}
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params InitializeParams
	if len(req.Params()) > 0 {
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, &jsonrpc2.Error{
				Code:    jsonrpc2.InvalidParams,
				Message: err.Error(),
			})
		}
	}

	if td := params.Capabilities.TextDocument; td != nil && td.FoldingRange != nil && td.FoldingRange.RangeLimit != nil {
		s.mu.Lock()
		s.rangeLimit = max(*td.FoldingRange.RangeLimit, 0)
		s.mu.Unlock()
	}

	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncKindFull,
			},
			FoldingRangeProvider: true,
		},
		ServerInfo: &ServerInfo{
			Name:    "velocity-lsp",
			Version: "0.1.0",
		},
	}
	return reply(ctx, result, nil)
}

func (s *Server) handleFoldingRange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params FoldingRangeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, &jsonrpc2.Error{
			Code:    jsonrpc2.InvalidParams,
			Message: err.Error(),
		})
	}

	uri := params.TextDocument.URI
	ranges, err := s.foldingRanges(ctx, uri)
	if errors.Is(err, parser.ErrCancelled) {
		return reply(ctx, nil, &jsonrpc2.Error{
			Code:    codeRequestCancelled,
			Message: "folding range request cancelled",
		})
	}
	if err != nil {
		log.Printf("folding ranges for %s: %v", uri, err)
		return reply(ctx, nil, nil)
	}

	s.mu.Lock()
	limit := s.rangeLimit
	s.mu.Unlock()

	log.Printf("folding range request for %s: %d ranges", uri, len(ranges))
	return reply(ctx, toFoldingRanges(ranges, limit), nil)
}

// foldingRanges resolves a document's ranges from the open documents, then the
// workspace index, then disk.
func (s *Server) foldingRanges(ctx context.Context, uri string) ([]types.FoldingRange, error) {
	ranges, open, err := s.documents.FoldingRanges(ctx, uri, s.scanner)
	if open {
		return ranges, err
	}

	path := uriToPath(uri)
	if s.index != nil {
		if ranges, ok := s.index.RangesInFile(path); ok {
			return ranges, nil
		}
	}

	content, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s.scanner.FoldingRanges(parser.NewTextDocument(content), parser.ContextCanceller(ctx))
}

func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	doc := params.TextDocument
	s.documents.Open(doc.URI, doc.Version, doc.Text)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	if len(params.ContentChanges) > 0 {
		// Full sync mode - just take the last content
		text := params.ContentChanges[len(params.ContentChanges)-1].Text
		s.documents.Update(params.TextDocument.URI, params.TextDocument.Version, text)
	}
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	s.documents.Close(params.TextDocument.URI)
	return reply(ctx, nil, nil)
}

// readWriteCloser wraps reader and writer into a ReadWriteCloser
type readWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwc *readWriteCloser) Close() error {
	return nil
}
