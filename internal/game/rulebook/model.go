// Package rulebook provides the rulebook model, the unlock-pack modifier
// engine, and search over compiled rulebooks.
package rulebook

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ProvenanceModified is appended to a rule's modifier tags every time a
// pack modifier rewrites it.
const ProvenanceModified = "modified"

// Rule is an atomic statement of game law.
type Rule struct {
	// ID is a dotted hierarchical identifier, e.g. "combat.attacking.minimum_troops",
	// unique within a compiled rulebook.
	ID string `json:"id"`
	// Text is the rule statement shown to players.
	Text string `json:"text"`
	// Priority records provenance weight; higher packs override lower on
	// conflict. It is informational, not used for automatic resolution.
	Priority int `json:"priority"`
	// Modifiers is the ordered list of provenance tags appended by pack
	// application. Never replaced, only appended to.
	Modifiers []string `json:"modifiers,omitempty"`
	// Tags are free-text search labels.
	Tags []string `json:"tags,omitempty"`
	// Phase optionally associates the rule with a game phase.
	Phase string `json:"phase,omitempty"`
	// AppliesTo scopes the rule; defaults to "all".
	AppliesTo string `json:"applies_to,omitempty"`
}

// UnmarshalJSON decodes a rule, defaulting AppliesTo to "all".
func (r *Rule) UnmarshalJSON(data []byte) error {
	type alias Rule
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.AppliesTo == "" {
		a.AppliesTo = "all"
	}
	*r = Rule(a)
	return nil
}

// Clone returns a deep copy of the rule.
func (r Rule) Clone() Rule {
	out := r
	out.Modifiers = append([]string(nil), r.Modifiers...)
	out.Tags = append([]string(nil), r.Tags...)
	return out
}

// Example pairs a scenario with its ruling.
type Example struct {
	Scenario    string `json:"scenario"`
	Explanation string `json:"explanation"`
}

// Subsection groups rules under a section with explanatory content.
type Subsection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Rules   []Rule `json:"rules,omitempty"`
	// Examples illustrate edge cases.
	Examples []Example `json:"examples,omitempty"`
	// Related cross-references other section/subsection IDs. Not validated
	// for existence.
	Related []string `json:"related,omitempty"`
}

// Clone returns a deep copy of the subsection.
func (s *Subsection) Clone() *Subsection {
	if s == nil {
		return nil
	}
	out := &Subsection{
		Title:    s.Title,
		Content:  s.Content,
		Examples: append([]Example(nil), s.Examples...),
		Related:  append([]string(nil), s.Related...),
	}
	for _, r := range s.Rules {
		out.Rules = append(out.Rules, r.Clone())
	}
	return out
}

// Section is a top-level rulebook division.
type Section struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Summary     string                 `json:"summary"`
	Subsections map[string]*Subsection `json:"subsections,omitempty"`
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	if s == nil {
		return nil
	}
	out := &Section{ID: s.ID, Title: s.Title, Summary: s.Summary}
	if s.Subsections != nil {
		out.Subsections = make(map[string]*Subsection, len(s.Subsections))
		for key, sub := range s.Subsections {
			out.Subsections[key] = sub.Clone()
		}
	}
	return out
}

// Metadata describes a rulebook document.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	LastUpdated string `json:"last_updated"`
}

// Faction is a playable faction with special abilities.
type Faction struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Abilities   []string `json:"abilities,omitempty"`
}

// GlossaryEntry defines one term of art.
type GlossaryEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Rulebook is the root rules document. The loaded base instance is treated
// as read-only; compilation always works on a deep clone.
type Rulebook struct {
	Version  string              `json:"version"`
	Metadata Metadata            `json:"metadata"`
	Sections map[string]*Section `json:"sections"`
	Factions map[string]*Faction `json:"factions,omitempty"`
	Glossary []GlossaryEntry     `json:"glossary,omitempty"`
}

// Validate checks the rulebook's structural invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (rb *Rulebook) Validate() error {
	if rb.Version == "" {
		return fmt.Errorf("rulebook version must not be empty")
	}
	if len(rb.Sections) == 0 {
		return fmt.Errorf("rulebook must contain at least one section")
	}

	seenRules := make(map[string]bool)
	for _, sec := range sortedSections(rb) {
		if sec.section.ID != sec.key {
			return fmt.Errorf("section key %q does not match section ID %q", sec.key, sec.section.ID)
		}
		if sec.section.Title == "" {
			return fmt.Errorf("section %q: title must not be empty", sec.key)
		}
		for _, sub := range sortedSubsections(sec.section) {
			if sub.subsection.Title == "" {
				return fmt.Errorf("section %q: subsection %q: title must not be empty", sec.key, sub.key)
			}
			for _, r := range sub.subsection.Rules {
				if r.ID == "" {
					return fmt.Errorf("section %q: subsection %q: rule with empty ID", sec.key, sub.key)
				}
				if r.Priority < 1 {
					return fmt.Errorf("rule %q: priority must be >= 1, got %d", r.ID, r.Priority)
				}
				if seenRules[r.ID] {
					return fmt.Errorf("duplicate rule ID %q", r.ID)
				}
				seenRules[r.ID] = true
			}
		}
	}
	return nil
}

// Clone returns a deep structural copy of the rulebook. The copy shares no
// mutable state with the original.
func (rb *Rulebook) Clone() *Rulebook {
	out := &Rulebook{
		Version:  rb.Version,
		Metadata: rb.Metadata,
		Glossary: append([]GlossaryEntry(nil), rb.Glossary...),
	}
	if rb.Sections != nil {
		out.Sections = make(map[string]*Section, len(rb.Sections))
		for key, sec := range rb.Sections {
			out.Sections[key] = sec.Clone()
		}
	}
	if rb.Factions != nil {
		out.Factions = make(map[string]*Faction, len(rb.Factions))
		for key, f := range rb.Factions {
			clone := *f
			clone.Abilities = append([]string(nil), f.Abilities...)
			out.Factions[key] = &clone
		}
	}
	return out
}

// keyedSection pairs a section with its map key for deterministic traversal.
type keyedSection struct {
	key     string
	section *Section
}

type keyedSubsection struct {
	key        string
	subsection *Subsection
}

// sortedSections returns the rulebook's sections in sorted key order.
// Go maps have no iteration order; sorting keeps traversal deterministic.
func sortedSections(rb *Rulebook) []keyedSection {
	keys := make([]string, 0, len(rb.Sections))
	for key := range rb.Sections {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]keyedSection, 0, len(keys))
	for _, key := range keys {
		out = append(out, keyedSection{key: key, section: rb.Sections[key]})
	}
	return out
}

// sortedSubsections returns a section's subsections in sorted key order.
func sortedSubsections(sec *Section) []keyedSubsection {
	keys := make([]string, 0, len(sec.Subsections))
	for key := range sec.Subsections {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]keyedSubsection, 0, len(keys))
	for _, key := range keys {
		out = append(out, keyedSubsection{key: key, subsection: sec.Subsections[key]})
	}
	return out
}
