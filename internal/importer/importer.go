// Package importer converts authored YAML content into the JSON documents
// the content store serves, validating each document before it is written.
package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/torbridge/conquest/internal/content"
	"github.com/torbridge/conquest/internal/game/board"
	"github.com/torbridge/conquest/internal/game/rulebook"
)

// Sink receives validated documents. content.SQLiteStore satisfies it
// directly; FSSink writes the filesystem layout FSStore reads.
type Sink interface {
	Put(kind content.Kind, name string, body []byte) error
}

// FSSink writes documents as JSON files under a root directory, one
// subdirectory per kind.
type FSSink struct {
	Root string
}

// Put writes the document to <root>/<kind dir>/<name>.json.
func (s FSSink) Put(kind content.Kind, name string, body []byte) error {
	dir, err := content.Dir(kind)
	if err != nil {
		return err
	}
	outDir := filepath.Join(s.Root, dir)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", outDir, err)
	}
	outPath := filepath.Join(outDir, name+".json")
	if err := os.WriteFile(outPath, body, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}

// Importer orchestrates content import from a Source to a Sink.
type Importer struct {
	source Source
}

// New constructs an Importer backed by the given Source.
//
// Precondition: source must be non-nil.
func New(source Source) *Importer {
	return &Importer{source: source}
}

// Run loads documents from sourceDir, validates each against its kind's
// schema, and writes them to the sink. Nothing is written for a document
// that fails validation; earlier documents may already have been written.
//
// Postcondition: every emitted document decodes and validates under its
// kind's loader, or an error is returned naming the failing document.
func (imp *Importer) Run(sourceDir string, sink Sink) error {
	overall := time.Now()

	t0 := time.Now()
	docs, err := imp.source.Load(sourceDir)
	if err != nil {
		return fmt.Errorf("loading source: %w", err)
	}
	fmt.Printf("load    %d document(s) in %s\n", len(docs), time.Since(t0).Round(time.Millisecond))

	for _, doc := range docs {
		t1 := time.Now()

		if err := validate(doc); err != nil {
			return fmt.Errorf("document %s/%s failed validation: %w", doc.Kind, doc.Name, err)
		}
		if err := sink.Put(doc.Kind, doc.Name, doc.Body); err != nil {
			return fmt.Errorf("storing %s/%s: %w", doc.Kind, doc.Name, err)
		}

		fmt.Printf("wrote   %s/%s  (%d bytes)  in %s\n",
			doc.Kind, doc.Name, len(doc.Body), time.Since(t1).Round(time.Millisecond))
	}

	fmt.Printf("total   %s\n", time.Since(overall).Round(time.Millisecond))
	return nil
}

// validate decodes the document with the same loader the game uses, so a
// document that imports cleanly is guaranteed to load at runtime.
func validate(doc Document) error {
	switch doc.Kind {
	case content.KindBaseRulebook:
		var rb rulebook.Rulebook
		if err := json.Unmarshal(doc.Body, &rb); err != nil {
			return err
		}
		return rb.Validate()
	case content.KindPackModifiers:
		var p rulebook.PackModifiers
		if err := json.Unmarshal(doc.Body, &p); err != nil {
			return err
		}
		return p.Validate()
	case content.KindBoardTopology:
		_, err := board.LoadBoardFromBytes(doc.Body)
		return err
	default:
		return fmt.Errorf("unknown document kind %q", doc.Kind)
	}
}
