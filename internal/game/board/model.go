// Package board provides the board topology model: territories, continents,
// and the adjacency graph used for movement and attack legality checks.
package board

import "fmt"

// Coordinates positions a territory for rendering. Optional.
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Territory represents a single territory on the board.
type Territory struct {
	// ID uniquely identifies this territory, kebab-case.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Continent is the ID of the owning continent.
	Continent string `json:"continent"`
	// AdjacentTo lists the IDs of territories this territory borders.
	// The list is directed as authored; symmetry is audited, not enforced.
	AdjacentTo []string `json:"adjacent_to"`
	// Population is an optional flavor statistic.
	Population int `json:"population,omitempty"`
	// Coordinates optionally positions the territory for rendering.
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Continent groups territories and grants a troop bonus for full control.
type Continent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Bonus int    `json:"bonus"`
	// Color is the display hex color.
	Color string `json:"color"`
	// Territories lists the IDs of member territories.
	Territories []string `json:"territories"`
}

// Metadata describes a board document.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Board is the root topology document for one board version.
type Board struct {
	// Version tags the topology generation, e.g. "original" or "advanced".
	Version     string      `json:"version"`
	Metadata    Metadata    `json:"metadata"`
	Territories []Territory `json:"territories"`
	Continents  []Continent `json:"continents"`
}

// Validate checks the board's structural invariants. Graph-level checks
// (dangling adjacency, symmetry, continent cross-references) belong to
// topology construction and VerifyIntegrity.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (b *Board) Validate() error {
	if b.Version == "" {
		return fmt.Errorf("board version must not be empty")
	}
	if len(b.Territories) == 0 {
		return fmt.Errorf("board %q: must contain at least one territory", b.Version)
	}
	if len(b.Continents) == 0 {
		return fmt.Errorf("board %q: must contain at least one continent", b.Version)
	}

	seenTerritories := make(map[string]bool, len(b.Territories))
	for _, t := range b.Territories {
		if t.ID == "" {
			return fmt.Errorf("board %q: territory with empty ID", b.Version)
		}
		if t.Name == "" {
			return fmt.Errorf("board %q: territory %q: name must not be empty", b.Version, t.ID)
		}
		if t.Continent == "" {
			return fmt.Errorf("board %q: territory %q: continent must not be empty", b.Version, t.ID)
		}
		if seenTerritories[t.ID] {
			return fmt.Errorf("board %q: duplicate territory ID %q", b.Version, t.ID)
		}
		seenTerritories[t.ID] = true
	}

	seenContinents := make(map[string]bool, len(b.Continents))
	for _, c := range b.Continents {
		if c.ID == "" {
			return fmt.Errorf("board %q: continent with empty ID", b.Version)
		}
		if c.Name == "" {
			return fmt.Errorf("board %q: continent %q: name must not be empty", b.Version, c.ID)
		}
		if c.Bonus < 0 {
			return fmt.Errorf("board %q: continent %q: bonus must not be negative, got %d", b.Version, c.ID, c.Bonus)
		}
		if seenContinents[c.ID] {
			return fmt.Errorf("board %q: duplicate continent ID %q", b.Version, c.ID)
		}
		seenContinents[c.ID] = true
	}

	return nil
}
