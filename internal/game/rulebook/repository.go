package rulebook

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/torbridge/conquest/internal/content"
)

// Repository sources the base rulebook and pack-modifier documents from a
// content store, validating and caching them.
//
// Failure policy: an invalid base rulebook is fatal (nothing downstream is
// safe to use), but a missing or invalid pack degrades to an empty modifier
// set with a logged warning, so an unlocked-but-not-yet-authored pack is a
// no-op rather than a crash.
type Repository struct {
	store  content.Store
	logger *zap.Logger

	mu    sync.Mutex
	base  *Rulebook
	packs map[string]*PackModifiers
}

// NewRepository creates a Repository over the given content store.
//
// Precondition: store and logger must be non-nil.
func NewRepository(store content.Store, logger *zap.Logger) *Repository {
	return &Repository{
		store:  store,
		logger: logger,
		packs:  make(map[string]*PackModifiers),
	}
}

// BaseRules returns the base rulebook, loading and validating it on first
// use. The returned document is shared and must be treated as read-only;
// the compiler clones it before applying modifiers.
//
// Postcondition: Returns the cached rulebook, or a non-nil error if the
// document is missing or fails validation.
func (r *Repository) BaseRules() (*Rulebook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.base != nil {
		return r.base, nil
	}

	data, err := r.store.Load(content.KindBaseRulebook, content.BaseRulebookName)
	if err != nil {
		return nil, fmt.Errorf("loading base rulebook: %w", err)
	}
	var rb Rulebook
	if err := json.Unmarshal(data, &rb); err != nil {
		return nil, fmt.Errorf("parsing base rulebook: %w", err)
	}
	if err := rb.Validate(); err != nil {
		return nil, fmt.Errorf("validating base rulebook: %w", err)
	}

	r.logger.Info("base rulebook loaded",
		zap.String("version", rb.Version),
		zap.Int("sections", len(rb.Sections)),
	)
	r.base = &rb
	return r.base, nil
}

// PackModifiers returns the modifier bundle for the named pack.
//
// Postcondition: Never fails. A missing or invalid pack document yields a
// synthetic empty bundle and a logged warning; the result is cached either way.
func (r *Repository) PackModifiers(name string) *PackModifiers {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.packs[name]; ok {
		return p
	}

	p := r.loadPack(name)
	r.packs[name] = p
	return p
}

func (r *Repository) loadPack(name string) *PackModifiers {
	empty := &PackModifiers{
		Pack:        name,
		Name:        name,
		Description: "No modifiers available",
	}

	data, err := r.store.Load(content.KindPackModifiers, name)
	if err != nil {
		r.logger.Warn("pack modifiers unavailable, treating as empty",
			zap.String("pack", name),
			zap.Error(err),
		)
		return empty
	}

	var p PackModifiers
	if err := json.Unmarshal(data, &p); err != nil {
		r.logger.Warn("pack modifiers invalid, treating as empty",
			zap.String("pack", name),
			zap.Error(err),
		)
		return empty
	}
	if err := p.Validate(); err != nil {
		r.logger.Warn("pack modifiers invalid, treating as empty",
			zap.String("pack", name),
			zap.Error(err),
		)
		return empty
	}

	r.logger.Debug("pack modifiers loaded",
		zap.String("pack", name),
		zap.Int("modifiers", len(p.Modifiers)),
	)
	return &p
}

// AvailablePacks enumerates the pack identifiers known to the content store.
//
// Postcondition: Returns the available pack names, or an empty slice with a
// logged warning if the store is unreachable. Never returns an error.
func (r *Repository) AvailablePacks() []string {
	names, err := r.store.List(content.KindPackModifiers)
	if err != nil {
		r.logger.Warn("listing pack modifiers", zap.Error(err))
		return nil
	}
	return names
}

// ClearCache drops the cached base rulebook and all cached packs, forcing a
// reload from the content store on next use.
func (r *Repository) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.base = nil
	r.packs = make(map[string]*PackModifiers)
}
