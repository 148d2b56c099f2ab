package rulebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUnmarshalModifier_UnknownType(t *testing.T) {
	_, err := UnmarshalModifier([]byte(`{"type":"rename_rule"}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown modifier type")
}

func TestAddSection(t *testing.T) {
	rb := testRulebook()
	m, err := UnmarshalModifier([]byte(`{
		"type": "add_section",
		"section": {
			"id": "missions",
			"title": "Missions",
			"subsections": {
				"drafting": {
					"title": "Drafting",
					"rules": [
						{"id": "missions.drafting.draw", "text": "Draw one mission card.", "priority": 1}
					]
				}
			}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "add_section", m.Kind())

	ApplyModifier(rb, m, zap.NewNop())
	sec := SectionByID(rb, "missions")
	require.NotNil(t, sec)
	assert.Equal(t, "Missions", sec.Title)
	require.NotNil(t, RuleByID(rb, "missions.drafting.draw"))
}

func TestAddSection_PayloadIsCloned(t *testing.T) {
	rb := testRulebook()
	m := &AddSection{Section: &Section{
		ID:    "missions",
		Title: "Missions",
		Subsections: map[string]*Subsection{
			"drafting": {Title: "Drafting", Rules: []Rule{
				{ID: "missions.drafting.draw", Text: "Draw one mission card.", Priority: 1},
			}},
		},
	}}
	ApplyModifier(rb, m, zap.NewNop())

	// Mutating the applied copy must not leak back into the modifier payload,
	// which is shared across compilations via the pack cache.
	rb.Sections["missions"].Subsections["drafting"].Rules[0].Text = "changed"
	assert.Equal(t, "Draw one mission card.", m.Section.Subsections["drafting"].Rules[0].Text)
}

func TestAddSubsection(t *testing.T) {
	rb := testRulebook()
	m := &AddSubsection{
		SectionID:    "combat",
		SubsectionID: "retreating",
		Subsection: &Subsection{Title: "Retreating", Rules: []Rule{
			{ID: "combat.retreating.voluntary", Text: "The attacker may stop at any time.", Priority: 1},
		}},
	}
	ApplyModifier(rb, m, zap.NewNop())
	require.Contains(t, rb.Sections["combat"].Subsections, "retreating")
	require.NotNil(t, RuleByID(rb, "combat.retreating.voluntary"))
}

func TestAddSubsection_MissingSectionIsNoop(t *testing.T) {
	rb := testRulebook()
	m := &AddSubsection{SectionID: "diplomacy", SubsectionID: "treaties", Subsection: &Subsection{Title: "Treaties"}}
	ApplyModifier(rb, m, zap.NewNop())
	assert.Nil(t, SectionByID(rb, "diplomacy"))
	assert.NoError(t, rb.Validate())
}

func TestAddRule(t *testing.T) {
	rb := testRulebook()
	m := &AddRule{
		SectionID:    "victory",
		SubsectionID: "conditions",
		Rule:         Rule{ID: "victory.conditions.mission", Text: "Complete your mission to win.", Priority: 2, AppliesTo: "all"},
	}
	ApplyModifier(rb, m, zap.NewNop())
	rules := rb.Sections["victory"].Subsections["conditions"].Rules
	require.Len(t, rules, 2)
	assert.Equal(t, "victory.conditions.mission", rules[1].ID)
}

func TestAddRule_MissingTargetIsNoop(t *testing.T) {
	rb := testRulebook()

	ApplyModifier(rb, &AddRule{SectionID: "diplomacy", SubsectionID: "x", Rule: Rule{ID: "a.b.c", Priority: 1}}, zap.NewNop())
	ApplyModifier(rb, &AddRule{SectionID: "combat", SubsectionID: "sieges", Rule: Rule{ID: "a.b.c", Priority: 1}}, zap.NewNop())

	assert.Nil(t, RuleByID(rb, "a.b.c"))
}

func TestModifyRule_PartialFieldReplacement(t *testing.T) {
	rb := testRulebook()
	newText := "You need three troops to attack."
	m := &ModifyRule{
		RuleID:  "combat.attacking.minimum_troops",
		Changes: RuleChanges{Text: &newText},
	}
	ApplyModifier(rb, m, zap.NewNop())

	r := RuleByID(rb, "combat.attacking.minimum_troops")
	require.NotNil(t, r)
	assert.Equal(t, newText, r.Text)
	// Untouched fields survive.
	assert.Equal(t, 1, r.Priority)
	assert.Equal(t, []string{"combat", "attack"}, r.Tags)
	assert.Equal(t, "attack", r.Phase)
	// Exactly one provenance entry per application.
	assert.Equal(t, []string{ProvenanceModified}, r.Modifiers)
}

func TestModifyRule_AppliedTwiceRecordsTwice(t *testing.T) {
	rb := testRulebook()
	p2 := 2
	m := &ModifyRule{RuleID: "combat.attacking.dice", Changes: RuleChanges{Priority: &p2}}
	ApplyModifier(rb, m, zap.NewNop())
	ApplyModifier(rb, m, zap.NewNop())

	r := RuleByID(rb, "combat.attacking.dice")
	require.NotNil(t, r)
	assert.Equal(t, 2, r.Priority)
	assert.Equal(t, []string{ProvenanceModified, ProvenanceModified}, r.Modifiers)
}

func TestModifyRule_MissingTargetIsNoop(t *testing.T) {
	rb := testRulebook()
	before := len(SearchRules(rb, "", nil, nil))
	text := "x"
	ApplyModifier(rb, &ModifyRule{RuleID: "no.such.rule", Changes: RuleChanges{Text: &text}}, zap.NewNop())
	assert.Len(t, SearchRules(rb, "", nil, nil), before)
}

func TestRemoveRule(t *testing.T) {
	rb := testRulebook()
	ApplyModifier(rb, &RemoveRule{RuleID: "combat.attacking.dice"}, zap.NewNop())

	assert.Nil(t, RuleByID(rb, "combat.attacking.dice"))
	rules := rb.Sections["combat"].Subsections["attacking"].Rules
	require.Len(t, rules, 1)
	assert.Equal(t, "combat.attacking.minimum_troops", rules[0].ID)
}

func TestRemoveRule_MissingTargetIsNoop(t *testing.T) {
	rb := testRulebook()
	before := len(SearchRules(rb, "", nil, nil))
	ApplyModifier(rb, &RemoveRule{RuleID: "no.such.rule"}, zap.NewNop())
	assert.Len(t, SearchRules(rb, "", nil, nil), before)
}

func TestReplaceSection_DiscardsPrevious(t *testing.T) {
	rb := testRulebook()
	m := &ReplaceSection{Section: &Section{
		ID:    "victory",
		Title: "Winning the Game",
		Subsections: map[string]*Subsection{
			"scoring": {Title: "Scoring", Rules: []Rule{
				{ID: "victory.scoring.points", Text: "Most points after ten rounds wins.", Priority: 1},
			}},
		},
	}}
	ApplyModifier(rb, m, zap.NewNop())

	sec := SectionByID(rb, "victory")
	require.NotNil(t, sec)
	assert.Equal(t, "Winning the Game", sec.Title)
	assert.NotContains(t, sec.Subsections, "conditions")
	assert.Nil(t, RuleByID(rb, "victory.conditions.elimination"))
	require.NotNil(t, RuleByID(rb, "victory.scoring.points"))
}

func TestPackModifiersUnmarshal_PreservesOrder(t *testing.T) {
	var p PackModifiers
	err := p.UnmarshalJSON([]byte(`{
		"pack": "secondwin",
		"name": "Second Win",
		"description": "Mission victory rules.",
		"modifiers": [
			{"type": "remove_rule", "rule_id": "a"},
			{"type": "add_rule", "section_id": "victory", "subsection_id": "conditions",
			 "rule": {"id": "victory.conditions.mission", "text": "t", "priority": 1}},
			{"type": "modify_rule", "rule_id": "b", "changes": {"priority": 2}}
		]
	}`))
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	require.Len(t, p.Modifiers, 3)
	assert.Equal(t, "remove_rule", p.Modifiers[0].Kind())
	assert.Equal(t, "add_rule", p.Modifiers[1].Kind())
	assert.Equal(t, "modify_rule", p.Modifiers[2].Kind())
}

func TestPackModifiersUnmarshal_BadModifier(t *testing.T) {
	var p PackModifiers
	err := p.UnmarshalJSON([]byte(`{"pack":"x","modifiers":[{"type":"bogus"}]}`))
	assert.Error(t, err)
}

func TestPackModifiersValidate_EmptyPack(t *testing.T) {
	p := PackModifiers{Name: "Nameless"}
	assert.Error(t, p.Validate())
}
