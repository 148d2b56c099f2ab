// Package content provides the named-document store that sources rulebook
// and board documents. Documents are addressed by (kind, name) and stored
// as raw JSON; the storage medium is an implementation detail.
package content

import (
	"errors"
	"fmt"
)

// Kind identifies a class of stored documents.
type Kind string

// Document kinds known to the store.
const (
	KindBaseRulebook  Kind = "base-rulebook"
	KindPackModifiers Kind = "pack-modifiers"
	KindBoardTopology Kind = "board-topology"
)

// Kinds lists every document kind in a stable order.
var Kinds = []Kind{KindBaseRulebook, KindPackModifiers, KindBoardTopology}

// ErrNotFound is returned when a document does not exist in the store.
var ErrNotFound = errors.New("document not found")

// Store is a byte-addressable, named-document store.
type Store interface {
	// Load returns the raw document for (kind, name), or an error wrapping
	// ErrNotFound if no such document exists.
	Load(kind Kind, name string) ([]byte, error)
	// List enumerates the names of all documents of the given kind.
	List(kind Kind) ([]string, error)
}

// BaseRulebookName is the fixed document name for the base rulebook.
const BaseRulebookName = "base"

// Dir maps a document kind to its directory name in filesystem layouts.
// FSStore reads this layout and the content importer writes it.
//
// Postcondition: Returns a non-empty directory name or an error for unknown kinds.
func Dir(kind Kind) (string, error) {
	switch kind {
	case KindBaseRulebook:
		return "rulebook", nil
	case KindPackModifiers:
		return "packs", nil
	case KindBoardTopology:
		return "boards", nil
	default:
		return "", fmt.Errorf("unknown document kind %q", kind)
	}
}
