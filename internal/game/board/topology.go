package board

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// ErrTerritoryNotFound is returned when a territory lookup yields no result.
var ErrTerritoryNotFound = errors.New("territory not found")

// ErrContinentNotFound is returned when a continent lookup yields no result.
var ErrContinentNotFound = errors.New("continent not found")

// Topology provides indexed, read-only access to a validated board.
// It is immutable after construction and safe for concurrent readers.
type Topology struct {
	board       *Board
	territories map[string]*Territory
	continents  map[string]*Continent
	// adjacency mirrors each territory's AdjacentTo list exactly; it is not
	// symmetrized. Asymmetric source data stays asymmetric here.
	adjacency map[string]map[string]struct{}
}

// NewTopology indexes the given board and verifies the adjacency graph's
// hard invariants.
//
// Precondition: b must have passed Board.Validate.
// Postcondition: Returns an indexed topology, or a non-nil error if any
// adjacency entry references a non-existent territory. Non-reciprocated
// adjacencies are logged at warning level and do not fail construction.
func NewTopology(b *Board, logger *zap.Logger) (*Topology, error) {
	t := &Topology{
		board:       b,
		territories: make(map[string]*Territory, len(b.Territories)),
		continents:  make(map[string]*Continent, len(b.Continents)),
		adjacency:   make(map[string]map[string]struct{}, len(b.Territories)),
	}

	for i := range b.Territories {
		terr := &b.Territories[i]
		t.territories[terr.ID] = terr
	}
	for i := range b.Continents {
		cont := &b.Continents[i]
		t.continents[cont.ID] = cont
	}

	for i := range b.Territories {
		terr := &b.Territories[i]
		set := make(map[string]struct{}, len(terr.AdjacentTo))
		for _, adj := range terr.AdjacentTo {
			if _, ok := t.territories[adj]; !ok {
				return nil, fmt.Errorf("board %q: territory %q: adjacency references unknown territory %q",
					b.Version, terr.ID, adj)
			}
			set[adj] = struct{}{}
		}
		t.adjacency[terr.ID] = set
	}

	for i := range b.Territories {
		terr := &b.Territories[i]
		for _, adj := range terr.AdjacentTo {
			if _, ok := t.adjacency[adj][terr.ID]; !ok {
				logger.Warn("one-way adjacency",
					zap.String("board", b.Version),
					zap.String("from", terr.ID),
					zap.String("to", adj),
				)
			}
		}
	}

	return t, nil
}

// Board returns the underlying board document.
func (t *Topology) Board() *Board {
	return t.board
}

// Territory returns the territory with the given ID.
//
// Postcondition: Returns (territory, true) if found, or (nil, false) otherwise.
func (t *Topology) Territory(id string) (*Territory, bool) {
	terr, ok := t.territories[id]
	return terr, ok
}

// TerritoryByID returns the territory with the given ID or a NotFound error
// naming the missing ID.
func (t *Topology) TerritoryByID(id string) (*Territory, error) {
	terr, ok := t.territories[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrTerritoryNotFound)
	}
	return terr, nil
}

// Continent returns the continent with the given ID.
//
// Postcondition: Returns (continent, true) if found, or (nil, false) otherwise.
func (t *Topology) Continent(id string) (*Continent, bool) {
	cont, ok := t.continents[id]
	return cont, ok
}

// ContinentByID returns the continent with the given ID or a NotFound error
// naming the missing ID.
func (t *Topology) ContinentByID(id string) (*Continent, error) {
	cont, ok := t.continents[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrContinentNotFound)
	}
	return cont, nil
}

// AreAdjacent reports whether b appears in a's adjacency set. The relation is
// not guaranteed symmetric; callers needing symmetric behavior must check
// both directions.
func (t *Topology) AreAdjacent(a, b string) bool {
	_, ok := t.adjacency[a][b]
	return ok
}

// ValidateMovement reports whether a move from one territory to another is
// legal: both must exist and the destination must be adjacent to the origin.
//
// Postcondition: Returns false (never an error) for unknown IDs.
func (t *Topology) ValidateMovement(from, to string) bool {
	if _, ok := t.territories[from]; !ok {
		return false
	}
	if _, ok := t.territories[to]; !ok {
		return false
	}
	return t.AreAdjacent(from, to)
}

// ContinentTerritories resolves a continent's member list to territories.
//
// Postcondition: Returns the member territories in document order, or a
// NotFound error if the continent ID is unknown. Member IDs that do not
// resolve are skipped; VerifyIntegrity reports them.
func (t *Topology) ContinentTerritories(continentID string) ([]*Territory, error) {
	cont, ok := t.continents[continentID]
	if !ok {
		return nil, fmt.Errorf("%q: %w", continentID, ErrContinentNotFound)
	}
	territories := make([]*Territory, 0, len(cont.Territories))
	for _, id := range cont.Territories {
		if terr, ok := t.territories[id]; ok {
			territories = append(territories, terr)
		}
	}
	return territories, nil
}

// AdjacentTerritories resolves a territory's adjacency list to territories.
//
// Postcondition: Returns the neighbors in document order, or a NotFound error
// if the territory ID is unknown. Every adjacency entry resolves because
// construction rejects dangling references.
func (t *Topology) AdjacentTerritories(territoryID string) ([]*Territory, error) {
	terr, ok := t.territories[territoryID]
	if !ok {
		return nil, fmt.Errorf("%q: %w", territoryID, ErrTerritoryNotFound)
	}
	neighbors := make([]*Territory, 0, len(terr.AdjacentTo))
	for _, id := range terr.AdjacentTo {
		if adj, ok := t.territories[id]; ok {
			neighbors = append(neighbors, adj)
		}
	}
	return neighbors, nil
}

// FindTerritoriesByName returns all territories whose display name contains
// the given substring, case-insensitively, in document order.
func (t *Topology) FindTerritoriesByName(substring string) []*Territory {
	needle := strings.ToLower(substring)
	var matches []*Territory
	for i := range t.board.Territories {
		terr := &t.board.Territories[i]
		if strings.Contains(strings.ToLower(terr.Name), needle) {
			matches = append(matches, terr)
		}
	}
	return matches
}

// Statistics aggregates counts over the board.
type Statistics struct {
	TerritoryCount          int            `json:"territory_count"`
	ContinentCount          int            `json:"continent_count"`
	TerritoriesPerContinent map[string]int `json:"territories_per_continent"`
	// AverageAdjacency is the mean adjacency degree, rounded to one decimal.
	AverageAdjacency float64 `json:"average_adjacency"`
}

// Statistics computes aggregate counts for the board.
func (t *Topology) Statistics() Statistics {
	stats := Statistics{
		TerritoryCount:          len(t.board.Territories),
		ContinentCount:          len(t.board.Continents),
		TerritoriesPerContinent: make(map[string]int, len(t.board.Continents)),
	}
	for i := range t.board.Continents {
		cont := &t.board.Continents[i]
		stats.TerritoriesPerContinent[cont.ID] = len(cont.Territories)
	}
	if len(t.board.Territories) > 0 {
		total := 0
		for i := range t.board.Territories {
			total += len(t.board.Territories[i].AdjacentTo)
		}
		avg := float64(total) / float64(len(t.board.Territories))
		stats.AverageAdjacency = math.Round(avg*10) / 10
	}
	return stats
}

// IntegrityReport is the result of a full board audit.
type IntegrityReport struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// VerifyIntegrity audits the board for soft inconsistencies: isolated
// territories, dangling references, and continent/territory mutual-reference
// mismatches. It never fails; findings are reported, not corrected.
//
// Postcondition: Returns a report with Valid == (len(Issues) == 0).
func (t *Topology) VerifyIntegrity() IntegrityReport {
	var issues []string

	for i := range t.board.Territories {
		terr := &t.board.Territories[i]

		if len(terr.AdjacentTo) == 0 {
			issues = append(issues, fmt.Sprintf("territory %q is isolated (no adjacencies)", terr.ID))
		}

		// Unreachable for a topology built by NewTopology; kept as a
		// defense-in-depth check over the raw document.
		for _, adj := range terr.AdjacentTo {
			if _, ok := t.territories[adj]; !ok {
				issues = append(issues, fmt.Sprintf("territory %q lists unknown adjacent territory %q", terr.ID, adj))
			}
		}

		cont, ok := t.continents[terr.Continent]
		if !ok {
			issues = append(issues, fmt.Sprintf("territory %q references unknown continent %q", terr.ID, terr.Continent))
		} else if !containsString(cont.Territories, terr.ID) {
			issues = append(issues, fmt.Sprintf("territory %q claims continent %q, which does not list it", terr.ID, cont.ID))
		}
	}

	for i := range t.board.Continents {
		cont := &t.board.Continents[i]
		for _, id := range cont.Territories {
			member, ok := t.territories[id]
			if !ok {
				issues = append(issues, fmt.Sprintf("continent %q lists unknown territory %q", cont.ID, id))
				continue
			}
			if member.Continent != cont.ID {
				issues = append(issues, fmt.Sprintf("continent %q lists territory %q, which claims continent %q",
					cont.ID, id, member.Continent))
			}
		}
	}

	return IntegrityReport{Valid: len(issues) == 0, Issues: issues}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
