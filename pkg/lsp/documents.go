package lsp

import (
	"sync"

	"github.com/Sumatoshi-tech/displayname/pkg/jsast"
)

// document is an open text document. program caches the parse of text and is never
// transformed in place.
type document struct {
	text       string
	languageID string
	version    int32
	program    *jsast.Program
}

// DocumentStore is a thread-safe store of open documents keyed by URI.
type DocumentStore struct {
	documents map[string]document
	mu        sync.RWMutex
}

// NewDocumentStore creates an empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{documents: make(map[string]document)}
}

// Open records a newly opened document.
func (ds *DocumentStore) Open(uri, languageID, text string, version int32) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = document{text: text, languageID: languageID, version: version}
}

// Update replaces the text of an open document. Unknown URIs are opened with no
// language id.
func (ds *DocumentStore) Update(uri, text string, version int32) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	doc := ds.documents[uri]
	doc.text = text
	doc.version = version
	doc.program = nil
	ds.documents[uri] = doc
}

// SetProgram caches the parse of text for uri. It is dropped when the document has
// changed since text was read.
func (ds *DocumentStore) SetProgram(uri, text string, prog *jsast.Program) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	doc, ok := ds.documents[uri]
	if !ok || doc.text != text {
		return
	}

	doc.program = prog
	ds.documents[uri] = doc
}

// Get returns the document stored for uri.
func (ds *DocumentStore) Get(uri string) (document, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	doc, ok := ds.documents[uri]

	return doc, ok
}

// Delete forgets uri.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}
