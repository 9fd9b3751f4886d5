// Copyright © 2024 The LISPC authors

package lsp

import (
	"context"
	"sync"

	"github.com/luthersystems/lispc/analyzer"
	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/parser"
	"github.com/luthersystems/lispc/parser/cst"
)

// Document represents an open text document tracked by the LSP server.
type Document struct {
	mu      sync.Mutex
	URI     string
	Version int32
	Content string

	// file holds the forms parsed before parseErr, if any.
	file     *cst.File
	parseErr error

	compiled   bool
	compileErr error
	// registry holds the definitions made by the forms that compiled.
	registry *analyzer.Registry
}

// parse parses the document content into a syntax tree.  On error the
// tree keeps the forms parsed before the error.
func (d *Document) parse() {
	d.file, d.parseErr = parser.ParseString(uriToPath(d.URI), d.Content)
	d.compiled = false
}

// compile compiles the document with a fresh session.
func (d *Document) compile(opts []compiler.Option) {
	session := compiler.NewSession(opts...)
	_, d.compileErr = session.CompileString(context.Background(), d.Content, uriToPath(d.URI))
	d.registry = session.Registry()
	d.compiled = true
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store and parses it.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
	}
	doc.parse()
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change updates a document's content (full sync) and re-parses it.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.parse()
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}
