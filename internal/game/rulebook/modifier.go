package rulebook

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Modifier is one atomic change to a rulebook, decoded from a pack
// document's "type" tag. The interface is sealed: every variant lives in
// this package and implements apply, so the compiler guarantees all
// variants are handled.
//
// Application never fails. A modifier whose target is missing logs a
// warning and leaves the document unchanged, so inconsistent pack
// authoring degrades instead of taking the service down.
type Modifier interface {
	// Kind returns the wire-format type tag.
	Kind() string
	apply(rb *Rulebook, logger *zap.Logger)
}

// ApplyModifier applies a single modifier to the rulebook in place.
//
// Precondition: rb must be a mutable working copy, never the base document.
func ApplyModifier(rb *Rulebook, m Modifier, logger *zap.Logger) {
	m.apply(rb, logger)
}

// UnmarshalModifier decodes one modifier from its JSON representation,
// dispatching on the "type" tag.
//
// Postcondition: Returns a concrete Modifier or a non-nil error for an
// unknown type or malformed payload.
func UnmarshalModifier(data []byte) (Modifier, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing modifier: %w", err)
	}

	var m Modifier
	switch probe.Type {
	case "add_section":
		m = &AddSection{}
	case "add_subsection":
		m = &AddSubsection{}
	case "add_rule":
		m = &AddRule{}
	case "modify_rule":
		m = &ModifyRule{}
	case "remove_rule":
		m = &RemoveRule{}
	case "replace_section":
		m = &ReplaceSection{}
	default:
		return nil, fmt.Errorf("unknown modifier type %q", probe.Type)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing %s modifier: %w", probe.Type, err)
	}
	return m, nil
}

// AddSection inserts (or overwrites) a whole section by ID.
type AddSection struct {
	Section *Section `json:"section"`
}

// Kind returns "add_section".
func (m *AddSection) Kind() string { return "add_section" }

func (m *AddSection) apply(rb *Rulebook, logger *zap.Logger) {
	if m.Section == nil || m.Section.ID == "" {
		logger.Warn("add_section modifier without a section payload")
		return
	}
	if rb.Sections == nil {
		rb.Sections = make(map[string]*Section)
	}
	rb.Sections[m.Section.ID] = m.Section.Clone()
}

// AddSubsection inserts a subsection into an existing section.
type AddSubsection struct {
	SectionID    string      `json:"section_id"`
	SubsectionID string      `json:"subsection_id"`
	Subsection   *Subsection `json:"subsection"`
}

// Kind returns "add_subsection".
func (m *AddSubsection) Kind() string { return "add_subsection" }

func (m *AddSubsection) apply(rb *Rulebook, logger *zap.Logger) {
	sec, ok := rb.Sections[m.SectionID]
	if !ok {
		logger.Warn("add_subsection target section missing",
			zap.String("section", m.SectionID),
			zap.String("subsection", m.SubsectionID),
		)
		return
	}
	if m.Subsection == nil || m.SubsectionID == "" {
		logger.Warn("add_subsection modifier without a subsection payload",
			zap.String("section", m.SectionID),
		)
		return
	}
	if sec.Subsections == nil {
		sec.Subsections = make(map[string]*Subsection)
	}
	sec.Subsections[m.SubsectionID] = m.Subsection.Clone()
}

// AddRule appends a rule to an existing subsection's rule list.
type AddRule struct {
	SectionID    string `json:"section_id"`
	SubsectionID string `json:"subsection_id"`
	Rule         Rule   `json:"rule"`
}

// Kind returns "add_rule".
func (m *AddRule) Kind() string { return "add_rule" }

func (m *AddRule) apply(rb *Rulebook, logger *zap.Logger) {
	sec, ok := rb.Sections[m.SectionID]
	if !ok {
		logger.Warn("add_rule target section missing",
			zap.String("section", m.SectionID),
			zap.String("rule", m.Rule.ID),
		)
		return
	}
	sub, ok := sec.Subsections[m.SubsectionID]
	if !ok {
		logger.Warn("add_rule target subsection missing",
			zap.String("section", m.SectionID),
			zap.String("subsection", m.SubsectionID),
			zap.String("rule", m.Rule.ID),
		)
		return
	}
	sub.Rules = append(sub.Rules, m.Rule.Clone())
}

// RuleChanges holds the fields a modify_rule modifier replaces. Nil fields
// are left untouched.
type RuleChanges struct {
	Text      *string  `json:"text,omitempty"`
	Priority  *int     `json:"priority,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Phase     *string  `json:"phase,omitempty"`
	AppliesTo *string  `json:"applies_to,omitempty"`
}

// ModifyRule rewrites the first rule matching RuleID anywhere in the
// document, replacing only the fields present in Changes and appending the
// "modified" provenance tag.
type ModifyRule struct {
	RuleID  string      `json:"rule_id"`
	Changes RuleChanges `json:"changes"`
}

// Kind returns "modify_rule".
func (m *ModifyRule) Kind() string { return "modify_rule" }

func (m *ModifyRule) apply(rb *Rulebook, logger *zap.Logger) {
	for _, sec := range sortedSections(rb) {
		for _, sub := range sortedSubsections(sec.section) {
			for i := range sub.subsection.Rules {
				r := &sub.subsection.Rules[i]
				if r.ID != m.RuleID {
					continue
				}
				if m.Changes.Text != nil {
					r.Text = *m.Changes.Text
				}
				if m.Changes.Priority != nil {
					r.Priority = *m.Changes.Priority
				}
				if m.Changes.Tags != nil {
					r.Tags = append([]string(nil), m.Changes.Tags...)
				}
				if m.Changes.Phase != nil {
					r.Phase = *m.Changes.Phase
				}
				if m.Changes.AppliesTo != nil {
					r.AppliesTo = *m.Changes.AppliesTo
				}
				r.Modifiers = append(r.Modifiers, ProvenanceModified)
				return
			}
		}
	}
	logger.Warn("modify_rule target missing", zap.String("rule", m.RuleID))
}

// RemoveRule deletes the first rule matching RuleID.
type RemoveRule struct {
	RuleID string `json:"rule_id"`
}

// Kind returns "remove_rule".
func (m *RemoveRule) Kind() string { return "remove_rule" }

func (m *RemoveRule) apply(rb *Rulebook, logger *zap.Logger) {
	for _, sec := range sortedSections(rb) {
		for _, sub := range sortedSubsections(sec.section) {
			rules := sub.subsection.Rules
			for i := range rules {
				if rules[i].ID != m.RuleID {
					continue
				}
				sub.subsection.Rules = append(rules[:i:i], rules[i+1:]...)
				return
			}
		}
	}
	logger.Warn("remove_rule target missing", zap.String("rule", m.RuleID))
}

// ReplaceSection overwrites a section wholesale. No merge: the previous
// section's subsections are discarded.
type ReplaceSection struct {
	Section *Section `json:"section"`
}

// Kind returns "replace_section".
func (m *ReplaceSection) Kind() string { return "replace_section" }

func (m *ReplaceSection) apply(rb *Rulebook, logger *zap.Logger) {
	if m.Section == nil || m.Section.ID == "" {
		logger.Warn("replace_section modifier without a section payload")
		return
	}
	if rb.Sections == nil {
		rb.Sections = make(map[string]*Section)
	}
	rb.Sections[m.Section.ID] = m.Section.Clone()
}

// PackModifiers is a named bundle of modifiers belonging to one unlock pack.
type PackModifiers struct {
	// Pack is the pack identifier; it matches the document name in the store.
	Pack        string
	Name        string
	Description string
	// Modifiers apply in array order. Order is significant and preserved.
	Modifiers []Modifier
}

// UnmarshalJSON decodes a pack document, dispatching each modifier on its
// type tag.
func (p *PackModifiers) UnmarshalJSON(data []byte) error {
	var raw struct {
		Pack        string            `json:"pack"`
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Modifiers   []json.RawMessage `json:"modifiers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := PackModifiers{
		Pack:        raw.Pack,
		Name:        raw.Name,
		Description: raw.Description,
	}
	for i, rm := range raw.Modifiers {
		m, err := UnmarshalModifier(rm)
		if err != nil {
			return fmt.Errorf("pack %q: modifier %d: %w", raw.Pack, i, err)
		}
		out.Modifiers = append(out.Modifiers, m)
	}
	*p = out
	return nil
}

// Validate checks the pack bundle's structural invariants.
func (p *PackModifiers) Validate() error {
	if p.Pack == "" {
		return fmt.Errorf("pack identifier must not be empty")
	}
	return nil
}
