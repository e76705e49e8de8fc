package promo

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pattibytes-backend/internal/apperrors"
)

// Resolution is the outcome of conflict resolution: at most one promotion is
// ever applied to an order.
type Resolution struct {
	Applied  *PromoCode
	Discount decimal.Decimal

	// Bxgy carries the matched sets when the applied deal is a bxgy one.
	Bxgy *MatchResult
}

type scored struct {
	promo    PromoCode
	discount decimal.Decimal
	bxgy     *MatchResult
	manual   bool
}

// Resolve filters the candidates down to the eligible ones, prices each, and
// picks the winner: highest priority first, then a manually entered code over
// auto-apply candidates, then largest discount. The customer's explicit code
// is never displaced by an auto-apply promo of equal or lower priority, even
// one worth more. An ineligible or unknown manual code is a hard error
// carrying the user-facing reason; ineligible auto-apply candidates are
// silently skipped.
func Resolve(cart Cart, candidates []PromoCode, manualCode string, perUserUsed map[string]int, now time.Time) (Resolution, error) {
	manualCode = strings.ToUpper(strings.TrimSpace(manualCode))

	var contenders []scored
	manualSeen := false
	for _, p := range candidates {
		isManual := manualCode != "" && strings.EqualFold(p.Code, manualCode)
		if !p.AutoApply && !isManual {
			continue
		}
		if isManual {
			manualSeen = true
		}
		reason, ok := CheckEligibility(p, cart, perUserUsed[p.ID], now)
		if !ok {
			if isManual {
				return Resolution{}, apperrors.NewIneligiblePromotion(manualCode, reason)
			}
			continue
		}
		entry := scored{promo: p, manual: isManual}
		switch p.DealType {
		case DealBxgy:
			match, err := MatchSets(FromCartLines(cart.Lines), *p.Bxgy)
			if err != nil {
				return Resolution{}, err
			}
			entry.discount = match.Discount
			entry.bxgy = &match
		default:
			entry.discount = CartDiscount(p, cart)
		}
		contenders = append(contenders, entry)
	}

	if manualCode != "" && !manualSeen {
		return Resolution{}, apperrors.NewIneligiblePromotion(manualCode, "Invalid promo code")
	}
	if len(contenders) == 0 {
		return Resolution{Discount: decimal.Zero}, nil
	}

	best := contenders[0]
	for _, c := range contenders[1:] {
		if beats(c, best) {
			best = c
		}
	}

	applied := best.promo
	return Resolution{Applied: &applied, Discount: best.discount, Bxgy: best.bxgy}, nil
}

func beats(a, b scored) bool {
	if a.promo.Priority != b.promo.Priority {
		return a.promo.Priority > b.promo.Priority
	}
	if a.manual != b.manual {
		return a.manual
	}
	return a.discount.GreaterThan(b.discount)
}
