package routing

import (
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Matcher resolves a requested item to the best candidate offer at a given
// store, honoring the BRANCH > CHAIN > PARENT match hierarchy and the
// house-brand ranking bonus.
type Matcher struct {
	registry *ChainRegistry
	config   *Config
	logger   zerolog.Logger
}

// NewMatcher creates a matcher over the given chain reference data.
func NewMatcher(registry *ChainRegistry, config *Config) *Matcher {
	return &Matcher{
		registry: registry,
		config:   config,
		logger:   log.With().Str("component", "matcher").Logger(),
	}
}

type rankedOffer struct {
	offer    *ProductOffer
	level    MatchLevel
	adjusted int64 // Price minus ranking-only house-brand bonus
}

// SelectBestOffer ranks the candidate offers for one requested item at one
// store and returns the single best offer with its match level. Returns
// (nil, MatchNone) when no candidate corresponds to the store at any level.
//
// The house-brand bonus adjusts only the sort key, never the charged price.
func (m *Matcher) SelectBestOffer(itemName string, candidates []*ProductOffer, store *Store) (*ProductOffer, MatchLevel) {
	if store == nil || len(candidates) == 0 {
		return nil, MatchNone
	}

	best := MatchNone
	ranked := make([]rankedOffer, 0, len(candidates))
	for _, offer := range candidates {
		level := m.matchLevel(offer, store)
		if level == MatchNone {
			continue
		}
		if level > best {
			best = level
		}
		ranked = append(ranked, rankedOffer{offer: offer, level: level})
	}
	if best == MatchNone {
		return nil, MatchNone
	}

	// Only the best available match level competes on price.
	pool := ranked[:0]
	for _, r := range ranked {
		if r.level != best {
			continue
		}
		r.adjusted = r.offer.Price
		if m.isHouseBrand(r.offer, store) {
			r.adjusted -= m.config.HouseBrandBonus
		}
		pool = append(pool, r)
	}

	sort.Slice(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if a.adjusted != b.adjusted {
			return a.adjusted < b.adjusted
		}
		// Exact tie: prefer the offer with richer metadata, then the
		// lowest ID so identical inputs always produce identical output.
		if ra, rb := a.offer.Richness(), b.offer.Richness(); ra != rb {
			return ra > rb
		}
		return a.offer.ID < b.offer.ID
	})

	winner := pool[0]
	m.logger.Debug().
		Str("item", itemName).
		Str("store", store.Name).
		Str("offer", winner.offer.ID).
		Str("level", best.String()).
		Msg("Resolved item")
	return winner.offer, best
}

// matchLevel classifies how specifically an offer corresponds to a store.
func (m *Matcher) matchLevel(offer *ProductOffer, store *Store) MatchLevel {
	if offer.StoreName != "" && strings.EqualFold(offer.StoreName, store.Name) {
		return MatchBranch
	}
	if strings.EqualFold(offer.Chain, store.Chain) {
		return MatchChain
	}
	if m.registry.SameParent(offer.Chain, store.Chain) {
		return MatchParent
	}
	return MatchNone
}

// isHouseBrand reports whether an offer looks like the store chain's own
// private-label product: the name contains the chain name itself or one of
// the chain's known house-brand tokens.
func (m *Matcher) isHouseBrand(offer *ProductOffer, store *Store) bool {
	name := NormalizeName(offer.Name)
	if chain := NormalizeName(store.Chain); chain != "" && strings.Contains(name, chain) {
		return true
	}
	for _, token := range m.registry.HouseBrandTokens(store.Chain) {
		if token != "" && strings.Contains(name, token) {
			return true
		}
	}
	return false
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases a product or brand name, folds Croatian
// diacritics (dj for đ, plain letters for č/ć/š/ž) and collapses
// whitespace, so that name containment checks are accent-insensitive.
func NormalizeName(s string) string {
	replacer := strings.NewReplacer(
		"đ", "dj", "Đ", "dj",
	)
	s = replacer.Replace(s)
	folded, _, err := transform.String(diacriticFolder, s)
	if err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
