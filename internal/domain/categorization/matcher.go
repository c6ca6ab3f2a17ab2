// Package categorization infers spending categories from transaction
// descriptions. Exact keyword matching runs through an Aho-Corasick
// state machine so the full rule set is scanned in a single pass over
// the text; a fuzzy fallback catches bank-mangled merchant names like
// "STARBCKS 0042 LISBOA".
package categorization

import (
	"sort"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Rule maps a merchant or keyword pattern to a category. Longer
// patterns win over shorter ones when several match the same
// description.
type Rule struct {
	Pattern  string
	Category string
}

// Matcher resolves descriptions to categories. Safe for concurrent use;
// Build can be called to swap the rule set at runtime.
type Matcher struct {
	mu       sync.RWMutex
	matcher  *ahocorasick.Matcher
	patterns []string
	rules    []Rule
}

func NewMatcher(rules []Rule) *Matcher {
	m := &Matcher{}
	m.Build(rules)
	return m
}

// Build rebuilds the state machine from a new rule set. Empty patterns
// are dropped.
func (m *Matcher) Build(rules []Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := make([]Rule, 0, len(rules))
	patterns := make([][]byte, 0, len(rules))
	normalized := make([]string, 0, len(rules))
	for _, r := range rules {
		p := strings.ToUpper(strings.TrimSpace(r.Pattern))
		if p == "" {
			continue
		}
		kept = append(kept, r)
		normalized = append(normalized, p)
		patterns = append(patterns, []byte(p))
	}

	m.rules = kept
	m.patterns = normalized
	if len(patterns) > 0 {
		m.matcher = ahocorasick.NewMatcher(patterns)
	} else {
		m.matcher = nil
	}
}

// Infer returns the category for a description. Exact substring hits
// win; when none fire, a fuzzy pass over the rule patterns catches
// near-miss spellings. The boolean reports whether any rule matched.
func (m *Matcher) Infer(description string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.matcher == nil || strings.TrimSpace(description) == "" {
		return "", false
	}

	input := strings.ToUpper(description)
	if hits := m.matcher.Match([]byte(input)); len(hits) > 0 {
		best := hits[0]
		for _, idx := range hits[1:] {
			if len(m.patterns[idx]) > len(m.patterns[best]) {
				best = idx
			}
		}
		return m.rules[best].Category, true
	}

	return m.fuzzyInfer(input)
}

// fuzzyInfer compares each word of the description against the rule
// patterns with Levenshtein ranking. Only close matches on reasonably
// long words count, so short tokens like "TRF" never trigger it.
func (m *Matcher) fuzzyInfer(input string) (string, bool) {
	words := strings.Fields(input)
	type candidate struct {
		rule Rule
		rank int
	}
	var candidates []candidate
	for _, w := range words {
		if len(w) < 5 {
			continue
		}
		ranks := fuzzy.RankFindNormalizedFold(w, m.patterns)
		for _, r := range ranks {
			if r.Distance > 2 {
				continue
			}
			candidates = append(candidates, candidate{rule: m.rules[r.OriginalIndex], rank: r.Distance})
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].rank < candidates[j].rank })
	return candidates[0].rule.Category, true
}

// DefaultRules is a starter rule set covering common statement
// merchants. Callers with user-defined rules should prepend them.
func DefaultRules() []Rule {
	return []Rule{
		{"STARBUCKS", "Food & Drink"},
		{"MCDONALD", "Food & Drink"},
		{"UBER EATS", "Food & Drink"},
		{"UBER", "Transport"},
		{"LYFT", "Transport"},
		{"SHELL", "Transport"},
		{"NETFLIX", "Entertainment"},
		{"SPOTIFY", "Entertainment"},
		{"STEAM", "Entertainment"},
		{"AMAZON", "Shopping"},
		{"WALMART", "Groceries"},
		{"LIDL", "Groceries"},
		{"ALDI", "Groceries"},
		{"PINGO DOCE", "Groceries"},
		{"CONTINENTE", "Groceries"},
		{"PHARMACY", "Health"},
		{"FARMACIA", "Health"},
		{"RENT", "Housing"},
		{"SALARY", "Income"},
		{"PAYROLL", "Income"},
	}
}
