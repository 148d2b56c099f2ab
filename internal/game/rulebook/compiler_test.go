package rulebook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/torbridge/conquest/internal/content"
)

func secondwinDoc() []byte {
	return []byte(`{
		"pack": "secondwin",
		"name": "Second Win",
		"description": "Mission-based victory.",
		"modifiers": [
			{"type": "modify_rule", "rule_id": "combat.attacking.minimum_troops",
			 "changes": {"text": "You need three troops on a territory to attack from it."}},
			{"type": "add_rule", "section_id": "victory", "subsection_id": "conditions",
			 "rule": {"id": "victory.conditions.mission", "text": "Complete your secret mission to win.", "priority": 2}}
		]
	}`)
}

func testCompiler(t *testing.T, store *stubStore) *Compiler {
	t.Helper()
	c := NewCompiler(NewRepository(store, zap.NewNop()), zap.NewNop())
	c.now = func() time.Time { return time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestBuildCampaignRulebook_NoPacks(t *testing.T) {
	c := testCompiler(t, storeWithBase(t))

	cr, err := c.BuildCampaignRulebook("camp-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "camp-1", cr.CampaignID)
	assert.Empty(t, cr.UnlockedPacks)
	assert.Empty(t, cr.AppliedModifiers)
	assert.Equal(t, "1.0.0", cr.Version)
	assert.Equal(t, "2026-08-27T12:00:00Z", cr.Compiled.Metadata.LastUpdated)

	// Without modifiers the compiled document matches the base rule for rule.
	r := RuleByID(cr.Compiled, "combat.attacking.minimum_troops")
	require.NotNil(t, r)
	assert.Empty(t, r.Modifiers)
}

func TestBuildCampaignRulebook_AppliesPackModifiers(t *testing.T) {
	store := storeWithBase(t)
	store.put(content.KindPackModifiers, "secondwin", secondwinDoc())
	c := testCompiler(t, store)

	cr, err := c.BuildCampaignRulebook("camp-1", []string{"secondwin"})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0+secondwin", cr.Version)
	assert.Len(t, cr.AppliedModifiers, 2)

	modified := RuleByID(cr.Compiled, "combat.attacking.minimum_troops")
	require.NotNil(t, modified)
	assert.Equal(t, "You need three troops on a territory to attack from it.", modified.Text)
	assert.Equal(t, []string{ProvenanceModified}, modified.Modifiers)
	require.NotNil(t, RuleByID(cr.Compiled, "victory.conditions.mission"))
}

func TestBuildCampaignRulebook_BaseIsNeverMutated(t *testing.T) {
	store := storeWithBase(t)
	store.put(content.KindPackModifiers, "secondwin", secondwinDoc())
	c := testCompiler(t, store)

	cr, err := c.BuildCampaignRulebook("camp-1", []string{"secondwin"})
	require.NoError(t, err)

	base := cr.Base
	assert.NotSame(t, base, cr.Compiled)
	r := RuleByID(base, "combat.attacking.minimum_troops")
	require.NotNil(t, r)
	assert.Equal(t, "You must have at least two troops on a territory to attack from it.", r.Text)
	assert.Empty(t, r.Modifiers)
	assert.Nil(t, RuleByID(base, "victory.conditions.mission"))
}

func TestBuildCampaignRulebook_CachedResultIsReused(t *testing.T) {
	store := storeWithBase(t)
	store.put(content.KindPackModifiers, "secondwin", secondwinDoc())
	c := testCompiler(t, store)

	first, err := c.BuildCampaignRulebook("camp-1", []string{"secondwin"})
	require.NoError(t, err)
	loadsAfterFirst := store.loads

	second, err := c.BuildCampaignRulebook("camp-1", []string{"secondwin"})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, loadsAfterFirst, store.loads)
}

func TestBuildCampaignRulebook_PackOrderIsCanonical(t *testing.T) {
	store := storeWithBase(t)
	store.put(content.KindPackModifiers, "secondwin", secondwinDoc())
	store.put(content.KindPackModifiers, "fortifications", []byte(`{
		"pack": "fortifications",
		"modifiers": [{"type": "remove_rule", "rule_id": "combat.defending.dice"}]
	}`))
	c := testCompiler(t, store)

	ab, err := c.BuildCampaignRulebook("camp-1", []string{"secondwin", "fortifications"})
	require.NoError(t, err)
	ba, err := c.BuildCampaignRulebook("camp-1", []string{"fortifications", "secondwin"})
	require.NoError(t, err)

	assert.Same(t, ab, ba)
	assert.Equal(t, []string{"fortifications", "secondwin"}, ab.UnlockedPacks)
	assert.Equal(t, "1.0.0+fortifications+secondwin", ab.Version)
}

func TestBuildCampaignRulebook_SeparateCampaignsSeparateEntries(t *testing.T) {
	c := testCompiler(t, storeWithBase(t))

	one, err := c.BuildCampaignRulebook("camp-1", nil)
	require.NoError(t, err)
	two, err := c.BuildCampaignRulebook("camp-2", nil)
	require.NoError(t, err)
	assert.NotSame(t, one, two)
	assert.Equal(t, "camp-2", two.CampaignID)
}

func TestBuildCampaignRulebook_UnknownPackIsNoop(t *testing.T) {
	c := testCompiler(t, storeWithBase(t))

	cr, err := c.BuildCampaignRulebook("camp-1", []string{"ghost"})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0+ghost", cr.Version)
	assert.Empty(t, cr.AppliedModifiers)
	r := RuleByID(cr.Compiled, "combat.attacking.minimum_troops")
	require.NotNil(t, r)
	assert.Empty(t, r.Modifiers)
}

func TestBuildCampaignRulebook_MissingBaseFails(t *testing.T) {
	c := testCompiler(t, newStubStore())
	_, err := c.BuildCampaignRulebook("camp-1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestCompilerClearCache(t *testing.T) {
	store := storeWithBase(t)
	c := testCompiler(t, store)

	first, err := c.BuildCampaignRulebook("camp-1", nil)
	require.NoError(t, err)

	c.ClearCache()
	second, err := c.BuildCampaignRulebook("camp-1", nil)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	// The repository cache was dropped too, so the base reloaded from the store.
	assert.Equal(t, 2, store.loads)
}

func TestCompilerClearCampaignCache(t *testing.T) {
	c := testCompiler(t, storeWithBase(t))

	one, err := c.BuildCampaignRulebook("camp-1", nil)
	require.NoError(t, err)
	two, err := c.BuildCampaignRulebook("camp-2", nil)
	require.NoError(t, err)

	c.ClearCampaignCache("camp-1")

	oneAgain, err := c.BuildCampaignRulebook("camp-1", nil)
	require.NoError(t, err)
	assert.NotSame(t, one, oneAgain)

	twoAgain, err := c.BuildCampaignRulebook("camp-2", nil)
	require.NoError(t, err)
	assert.Same(t, two, twoAgain)
}

func TestBuildCampaignRulebook_ShippedContent(t *testing.T) {
	repo := NewRepository(content.Embedded(), zap.NewNop())
	c := NewCompiler(repo, zap.NewNop())

	plain, err := c.BuildCampaignRulebook("camp-plain", nil)
	require.NoError(t, err)
	assert.Equal(t, plain.Base.Version, plain.Version)
	assert.Nil(t, SectionByID(plain.Compiled, "missions"))

	cr, err := c.BuildCampaignRulebook("camp-missions", []string{"secondwin"})
	require.NoError(t, err)
	assert.Equal(t, plain.Base.Version+"+secondwin", cr.Version)

	modified := RuleByID(cr.Compiled, "combat.attacking.minimum_troops")
	require.NotNil(t, modified)
	assert.Contains(t, modified.Modifiers, ProvenanceModified)

	require.NotNil(t, SectionByID(cr.Compiled, "missions"))
	require.NotNil(t, RuleByID(cr.Compiled, "victory.conditions.mission"))
}
