package rulebook

import (
	"sort"
	"strings"
)

// SearchRules scans every rule in the rulebook and returns those matching
// the query, in deterministic traversal order (sorted section keys, sorted
// subsection keys, rule array order). No ranking happens at this layer.
//
// A rule matches when its lower-cased text contains the lower-cased query,
// the sections filter is empty or contains the enclosing section's ID, and
// the tags filter is empty or intersects the rule's tags.
//
// Postcondition: Returns rule copies; mutating them does not touch the document.
func SearchRules(rb *Rulebook, query string, sections, tags []string) []Rule {
	needle := strings.ToLower(query)

	sectionFilter := make(map[string]bool, len(sections))
	for _, s := range sections {
		sectionFilter[s] = true
	}
	tagFilter := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tagFilter[tag] = true
	}

	var matches []Rule
	for _, sec := range sortedSections(rb) {
		if len(sectionFilter) > 0 && !sectionFilter[sec.section.ID] {
			continue
		}
		for _, sub := range sortedSubsections(sec.section) {
			for _, r := range sub.subsection.Rules {
				if !strings.Contains(strings.ToLower(r.Text), needle) {
					continue
				}
				if len(tagFilter) > 0 && !anyTagMatches(r.Tags, tagFilter) {
					continue
				}
				matches = append(matches, r.Clone())
			}
		}
	}
	return matches
}

func anyTagMatches(tags []string, filter map[string]bool) bool {
	for _, tag := range tags {
		if filter[tag] {
			return true
		}
	}
	return false
}

// SearchResult is one ranked search hit.
type SearchResult struct {
	Rule Rule `json:"rule"`
	// Relevance is 1.0 for an exact text match; substring matches score
	// 0.5 + (1 - position/length) * 0.4, so earlier matches rank higher.
	Relevance float64 `json:"relevance"`
	// Section is the "<sectionKey>.<subsectionKey>" path of the rule, or
	// "unknown" if the rule cannot be located in the document.
	Section string `json:"section"`
}

// RankResults scores matched rules against the query and sorts them by
// descending relevance. The sort is stable: ties keep their prior relative
// order.
func RankResults(rb *Rulebook, query string, matches []Rule) []SearchResult {
	needle := strings.ToLower(query)

	results := make([]SearchResult, 0, len(matches))
	for _, r := range matches {
		results = append(results, SearchResult{
			Rule:      r,
			Relevance: relevance(r.Text, needle),
			Section:   sectionPath(rb, r.ID),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	return results
}

// relevance scores a rule text against a lower-cased query.
func relevance(text, needle string) float64 {
	haystack := strings.ToLower(text)
	if haystack == needle {
		return 1.0
	}
	pos := strings.Index(haystack, needle)
	if pos < 0 {
		return 0
	}
	return 0.5 + (1-float64(pos)/float64(len(haystack)))*0.4
}

// sectionPath finds the first section/subsection containing the rule ID.
func sectionPath(rb *Rulebook, ruleID string) string {
	for _, sec := range sortedSections(rb) {
		for _, sub := range sortedSubsections(sec.section) {
			for i := range sub.subsection.Rules {
				if sub.subsection.Rules[i].ID == ruleID {
					return sec.key + "." + sub.key
				}
			}
		}
	}
	return "unknown"
}

// RuleByID returns the first rule with the given ID, or nil if absent.
// Absence is a normal outcome, not an error: callers use this for optional
// enrichment.
func RuleByID(rb *Rulebook, id string) *Rule {
	for _, sec := range sortedSections(rb) {
		for _, sub := range sortedSubsections(sec.section) {
			for i := range sub.subsection.Rules {
				if sub.subsection.Rules[i].ID == id {
					return &sub.subsection.Rules[i]
				}
			}
		}
	}
	return nil
}

// SectionByID returns the section with the given ID, or nil if absent.
func SectionByID(rb *Rulebook, id string) *Section {
	if sec, ok := rb.Sections[id]; ok {
		return sec
	}
	return nil
}
