package rulebook

import (
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CampaignRulebook is the derived, cached artifact of compiling a campaign's
// unlocked packs onto the base rulebook.
type CampaignRulebook struct {
	CampaignID string `json:"campaign_id"`
	// Base is the unmodified base rulebook the compilation started from.
	Base *Rulebook `json:"-"`
	// UnlockedPacks is the canonical (sorted) pack set used for this
	// compilation. Pack order is canonicalized so that equivalent pack sets
	// share one cache entry, one version string, and one application order.
	UnlockedPacks []string `json:"unlocked_packs"`
	// AppliedModifiers is the flat ordered list of every modifier applied,
	// concatenated across packs.
	AppliedModifiers []Modifier `json:"-"`
	// Compiled is the deep-cloned base with all modifiers applied.
	Compiled *Rulebook `json:"compiled_rulebook"`
	// Version is the base version, extended with "+<pack>" per unlocked pack.
	Version string `json:"version"`
}

// Compiler builds and caches compiled campaign rulebooks. Construct one at
// startup and inject it; the cache is instance state, not module state.
type Compiler struct {
	repo   *Repository
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]*CampaignRulebook
}

// NewCompiler creates a Compiler over the given repository.
//
// Precondition: repo and logger must be non-nil.
func NewCompiler(repo *Repository, logger *zap.Logger) *Compiler {
	return &Compiler{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		cache:  make(map[string]*CampaignRulebook),
	}
}

// canonicalPacks returns a sorted copy of the pack list. The canonical order
// drives the cache key, the version string, and modifier application order.
func canonicalPacks(packs []string) []string {
	out := append([]string(nil), packs...)
	sort.Strings(out)
	return out
}

// cacheKey builds the compiled-rulebook cache key for a campaign and its
// canonical pack set.
func cacheKey(campaignID string, canonical []string) string {
	return campaignID + ":" + strings.Join(canonical, ",")
}

// BuildCampaignRulebook compiles (or returns the cached) rulebook for the
// campaign and its unlocked packs.
//
// The base document is never mutated: compilation deep-clones it, loads each
// pack via the repository, and applies every modifier in canonical pack
// order, preserving array order within each pack. Compilation is a pure
// function of its inputs, so racing requests at worst duplicate work before
// the last writer overwrites the cache with an equivalent value.
//
// Postcondition: Returns the compiled rulebook, or a non-nil error only if
// the base rulebook itself cannot be loaded.
func (c *Compiler) BuildCampaignRulebook(campaignID string, unlockedPacks []string) (*CampaignRulebook, error) {
	canonical := canonicalPacks(unlockedPacks)
	key := cacheKey(campaignID, canonical)

	c.mu.Lock()
	if cached, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	base, err := c.repo.BaseRules()
	if err != nil {
		return nil, err
	}

	compiled := base.Clone()

	var applied []Modifier
	for _, pack := range canonical {
		bundle := c.repo.PackModifiers(pack)
		applied = append(applied, bundle.Modifiers...)
	}
	for _, m := range applied {
		ApplyModifier(compiled, m, c.logger)
	}

	compiled.Metadata.LastUpdated = c.now().UTC().Format(time.RFC3339)

	version := base.Version
	if len(canonical) > 0 {
		version += "+" + strings.Join(canonical, "+")
	}

	result := &CampaignRulebook{
		CampaignID:       campaignID,
		Base:             base,
		UnlockedPacks:    canonical,
		AppliedModifiers: applied,
		Compiled:         compiled,
		Version:          version,
	}

	c.logger.Info("campaign rulebook compiled",
		zap.String("campaign", campaignID),
		zap.Strings("packs", canonical),
		zap.String("version", version),
		zap.Int("modifiers", len(applied)),
	)

	c.mu.Lock()
	c.cache[key] = result
	c.mu.Unlock()
	return result, nil
}

// ClearCache drops every compiled rulebook and the repository's cached base
// and pack documents, forcing a full reload on next use.
func (c *Compiler) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]*CampaignRulebook)
	c.mu.Unlock()
	c.repo.ClearCache()
}

// ClearCampaignCache drops only the cached compilations of one campaign,
// across every pack-set permutation.
func (c *Compiler) ClearCampaignCache(campaignID string) {
	prefix := campaignID + ":"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.cache {
		if strings.HasPrefix(key, prefix) {
			delete(c.cache, key)
		}
	}
}
