package routing

import "strings"

// ChainRegistry is the static retail reference data used by the matcher:
// which chains belong to which retail group, and which name tokens mark a
// chain's private-label products. It is injected rather than accessed as a
// package singleton so tests can substitute fixtures.
type ChainRegistry struct {
	parents     map[string]string   // chain slug -> retail group
	houseBrands map[string][]string // chain slug -> private-label tokens
}

// NewChainRegistry builds a registry from explicit tables. Keys and tokens
// are normalized to lowercase.
func NewChainRegistry(parents map[string]string, houseBrands map[string][]string) *ChainRegistry {
	r := &ChainRegistry{
		parents:     make(map[string]string, len(parents)),
		houseBrands: make(map[string][]string, len(houseBrands)),
	}
	for chain, parent := range parents {
		r.parents[strings.ToLower(chain)] = strings.ToLower(parent)
	}
	for chain, tokens := range houseBrands {
		normalized := make([]string, 0, len(tokens))
		for _, t := range tokens {
			normalized = append(normalized, NormalizeName(t))
		}
		r.houseBrands[strings.ToLower(chain)] = normalized
	}
	return r
}

// DefaultChainRegistry covers the Croatian retail chains the service knows
// about. Chains without a listed parent are their own group.
func DefaultChainRegistry() *ChainRegistry {
	return NewChainRegistry(
		map[string]string{
			"konzum":     "fortenova",
			"tisak":      "fortenova",
			"lidl":       "schwarz",
			"kaufland":   "schwarz",
			"interspar":  "spar",
			"spar":       "spar",
			"metro":      "metro",
			"plodine":    "plodine",
			"studenac":   "studenac",
			"eurospin":   "eurospin",
			"dm":         "dm",
			"ktc":        "ktc",
			"trgocentar": "trgocentar",
		},
		map[string][]string{
			"konzum":    {"k plus"},
			"lidl":      {"milbona", "pilos", "freeway", "cien"},
			"kaufland":  {"k-classic", "k classic"},
			"interspar": {"s-budget", "s budget", "spar"},
			"spar":      {"s-budget", "s budget", "spar"},
			"plodine":   {"dobro"},
			"eurospin":  {"amo essere", "land"},
			"dm":        {"dmbio", "balea", "denkmit"},
		},
	)
}

// Parent returns the retail group a chain belongs to, or the chain itself
// when it is not part of a larger group.
func (r *ChainRegistry) Parent(chain string) string {
	c := strings.ToLower(chain)
	if p, ok := r.parents[c]; ok {
		return p
	}
	return c
}

// SameParent reports whether two distinct chains share a retail group.
func (r *ChainRegistry) SameParent(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return r.Parent(a) == r.Parent(b)
}

// HouseBrandTokens returns the normalized private-label tokens for a chain.
func (r *ChainRegistry) HouseBrandTokens(chain string) []string {
	return r.houseBrands[strings.ToLower(chain)]
}
