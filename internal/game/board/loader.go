package board

import (
	"encoding/json"
	"fmt"

	"github.com/torbridge/conquest/internal/content"
)

// LoadBoard reads and validates the board document for the given version
// from the content store.
//
// Postcondition: Returns a validated Board or a non-nil error. A malformed
// or missing document is a fatal load error; the board cannot be used.
func LoadBoard(store content.Store, version string) (*Board, error) {
	data, err := store.Load(content.KindBoardTopology, version)
	if err != nil {
		return nil, fmt.Errorf("loading board %q: %w", version, err)
	}
	return LoadBoardFromBytes(data)
}

// LoadBoardFromBytes parses and validates a board from JSON bytes.
//
// Postcondition: Returns a validated Board or a non-nil error.
func LoadBoardFromBytes(data []byte) (*Board, error) {
	var b Board
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing board JSON: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("validating board: %w", err)
	}
	return &b, nil
}
