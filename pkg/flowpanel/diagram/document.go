package diagram

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrDuplicateID indicates two elements of a document share an id.
var ErrDuplicateID = errors.New("duplicate element id")

// Document is a serialized diagram: the node and edge lists a canvas
// exports.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// ReadDocument decodes a Document from r and checks that ids are non-empty
// and unique across nodes and edges.
func ReadDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ReadDocumentFile reads a Document from path.
func ReadDocumentFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	return ReadDocument(f)
}

// Validate reports empty or duplicate ids, joined.
func (d Document) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(d.Nodes)+len(d.Edges))
	check := func(kind, id string) {
		if id == "" {
			errs = append(errs, fmt.Errorf("%s with empty id", kind))
			return
		}
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateID, id))
			return
		}
		seen[id] = struct{}{}
	}
	for _, n := range d.Nodes {
		check("node", n.ID)
	}
	for _, e := range d.Edges {
		check("edge", e.ID)
	}
	return errors.Join(errs...)
}

// Graph returns an in-memory graph holding the document's nodes and edges.
func (d Document) Graph() *MemoryGraph {
	return NewMemoryGraph(d.Nodes, d.Edges)
}
