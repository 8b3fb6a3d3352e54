package lsp

import (
	"context"
	"sync"

	"github.com/jarredhawkins/velocity-lsp/internal/parser"
	"github.com/jarredhawkins/velocity-lsp/internal/types"
)

// DocumentStore manages open text documents
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// Document represents an open text document
type Document struct {
	URI     string
	Version int
	Content string

	// Folding ranges computed for Version; nil until first requested
	ranges []types.FoldingRange
}

// NewDocumentStore creates a new document store
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string]*Document),
	}
}

// Open adds or replaces a document
func (ds *DocumentStore) Open(uri string, version int, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.docs[uri] = &Document{
		URI:     uri,
		Version: version,
		Content: content,
	}
}

// Update replaces a document's content and drops its cached ranges
func (ds *DocumentStore) Update(uri string, version int, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if doc, ok := ds.docs[uri]; ok {
		doc.Version = version
		doc.Content = content
		doc.ranges = nil
	}
}

// Close removes a document
func (ds *DocumentStore) Close(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.docs, uri)
}

// IsOpen checks if a document is open
func (ds *DocumentStore) IsOpen(uri string) bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	_, ok := ds.docs[uri]
	return ok
}

// FoldingRanges returns the folding ranges of an open document, scanning at most once per version.
// ok is false when the document is not open.
func (ds *DocumentStore) FoldingRanges(ctx context.Context, uri string, scanner *parser.Scanner) (ranges []types.FoldingRange, ok bool, err error) {
	ds.mu.RLock()
	doc, open := ds.docs[uri]
	if !open {
		ds.mu.RUnlock()
		return nil, false, nil
	}
	version, content, cached := doc.Version, doc.Content, doc.ranges
	ds.mu.RUnlock()

	if cached != nil {
		return cached, true, nil
	}

	ranges, err = scanner.FoldingRanges(parser.NewTextDocument(content), parser.ContextCanceller(ctx))
	if err != nil {
		return nil, true, err
	}

	ds.mu.Lock()
	// Only cache if no edit arrived while scanning
	if current, still := ds.docs[uri]; still && current.Version == version && current.Content == content {
		current.ranges = ranges
	}
	ds.mu.Unlock()

	return ranges, true, nil
}
