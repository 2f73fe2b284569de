package routing

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// OptionBuilder assembles a full "buy everything here" plan for one store.
type OptionBuilder struct {
	matcher *Matcher
	logger  zerolog.Logger
}

// NewOptionBuilder creates a builder over the given matcher.
func NewOptionBuilder(matcher *Matcher) *OptionBuilder {
	return &OptionBuilder{
		matcher: matcher,
		logger:  log.With().Str("component", "option_builder").Logger(),
	}
}

// Build resolves every requested item against the store's candidate offers
// and accumulates cost over resolved items only. Items with no acceptable
// offer go to MissingItems; no zero-price placeholder is ever substituted.
func (b *OptionBuilder) Build(store *Store, items []*RequestedItem, offersByItem map[string][]*ProductOffer) *StoreOption {
	option := &StoreOption{
		Store: store,
		Items: make([]*ResolvedItem, 0, len(items)),
	}

	for _, item := range items {
		candidates := offersByItem[item.Name]

		if item.LockedProductID != "" && (item.LockedStore == "" || item.LockedStore == store.Name) {
			// The pin targets this store: use the exact offer or nothing.
			if offer := findOffer(candidates, item.LockedProductID, store); offer != nil {
				option.Items = append(option.Items, &ResolvedItem{
					Item:      item,
					Offer:     offer,
					Level:     MatchBranch,
					Locked:    true,
					LineTotal: offer.Price * int64(item.Quantity),
				})
				option.TotalCost += offer.Price * int64(item.Quantity)
				continue
			}
			option.MissingItems = append(option.MissingItems, item.Name)
			continue
		}

		offer, level := b.matcher.SelectBestOffer(item.Name, candidates, store)
		if offer == nil {
			option.MissingItems = append(option.MissingItems, item.Name)
			continue
		}

		resolved := &ResolvedItem{
			Item:      item,
			Offer:     offer,
			Level:     level,
			LineTotal: offer.Price * int64(item.Quantity),
		}
		option.Items = append(option.Items, resolved)
		option.TotalCost += resolved.LineTotal

		// A pin to some other store still resolves here, but the shopper
		// should see that their locked choice was not honored.
		if item.LockedProductID != "" && item.LockedStore != "" && item.LockedStore != store.Name {
			option.Mismatches = append(option.Mismatches, &PreferenceMismatch{
				ItemName:     item.Name,
				LockedStore:  item.LockedStore,
				ResolvedName: offer.Name,
			})
		}
	}

	return option
}

// findOffer looks up an exact offer ID among candidates that belong to the
// store's branch or chain.
func findOffer(candidates []*ProductOffer, id string, store *Store) *ProductOffer {
	for _, offer := range candidates {
		if offer.ID != id {
			continue
		}
		if offer.StoreName == store.Name || offer.Chain == store.Chain {
			return offer
		}
	}
	return nil
}
