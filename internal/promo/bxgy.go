package promo

import (
	"sort"

	"github.com/shopspring/decimal"

	"pattibytes-backend/internal/apperrors"
	"pattibytes-backend/internal/pricing"
)

// BuyGetLine is the matcher's view of a cart line. DiscountedUnits marks units
// already granted a BXGY discount so layered deals can never discount the same
// unit twice.
type BuyGetLine struct {
	MenuItemID      string
	UnitPrice       decimal.Decimal
	Quantity        int
	DiscountedUnits int
}

// FromCartLines snapshots cart lines at their effective (post item-markdown)
// unit price.
func FromCartLines(lines []pricing.CartLine) []BuyGetLine {
	out := make([]BuyGetLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, BuyGetLine{
			MenuItemID: l.MenuItemID,
			UnitPrice:  l.EffectiveUnitPrice(),
			Quantity:   l.Quantity,
		})
	}
	return out
}

// GiftUnit is a concrete discounted allocation: Quantity units of one item,
// each reduced by UnitDiscount.
type GiftUnit struct {
	MenuItemID   string
	Quantity     int
	UnitDiscount decimal.Decimal
}

// GiftSelection is a customer-chosen allocation awaiting validation.
type GiftSelection struct {
	MenuItemID string
	Quantity   int
}

type MatchResult struct {
	Sets     int
	Gifts    []GiftUnit
	Discount decimal.Decimal

	// customer_choice deals defer unit selection to the checkout flow.
	RequiresSelection bool
	RequiredUnits     int
	EligibleGetIDs    []string
}

// MatchSets pairs qualifying buy units with get units under the rule.
//
// A unit counted toward "buy" is excluded from "get" eligibility, so when the
// buy and get target sets overlap each set effectively needs buy+get units of
// the shared items. The matcher picks the set count that maximizes the number
// of gifted units actually present in the cart; it never fabricates free items.
func MatchSets(lines []BuyGetLine, rule BxgyRule) (MatchResult, error) {
	if rule.BuyQuantity < 1 || rule.GetQuantity < 1 {
		return MatchResult{}, apperrors.NewValidation("deal", "buy and get quantities must be at least 1")
	}

	buyTargets := idSet(rule.BuyTargets)
	getTargets := idSet(rule.GetTargets)

	availableBuyUnits := 0
	for _, l := range lines {
		if buyTargets[l.MenuItemID] {
			availableBuyUnits += l.Quantity
		}
	}
	maxSets := availableBuyUnits / rule.BuyQuantity
	if rule.MaxSetsPerOrder > 0 && maxSets > rule.MaxSetsPerOrder {
		maxSets = rule.MaxSetsPerOrder
	}
	if maxSets <= 0 {
		return MatchResult{Discount: decimal.Zero}, nil
	}

	bestSets, bestGifts := 0, []GiftUnit(nil)
	bestCount := 0
	bestDiscount := decimal.Zero
	for sets := 1; sets <= maxSets; sets++ {
		gifts := allocateGifts(lines, rule, buyTargets, getTargets, sets)
		count, discount := giftValue(gifts)
		if count > bestCount || (count == bestCount && discount.GreaterThan(bestDiscount)) {
			bestSets, bestGifts, bestCount, bestDiscount = sets, gifts, count, discount
		}
	}
	if bestCount == 0 {
		return MatchResult{Discount: decimal.Zero}, nil
	}

	if rule.Selection == SelectCustomerChoice {
		return MatchResult{
			Sets:              bestSets,
			Discount:          decimal.Zero,
			RequiresSelection: true,
			RequiredUnits:     bestCount,
			EligibleGetIDs:    rule.GetTargets,
		}, nil
	}

	return MatchResult{Sets: bestSets, Gifts: bestGifts, Discount: bestDiscount}, nil
}

// ValidateSelection checks a customer_choice allocation against the cart and
// rule, and prices it. The core validates but does not choose.
func ValidateSelection(lines []BuyGetLine, rule BxgyRule, selection []GiftSelection) (MatchResult, error) {
	auto, err := MatchSets(lines, rule)
	if err != nil {
		return MatchResult{}, err
	}
	if !auto.RequiresSelection {
		return MatchResult{}, apperrors.NewValidation("selection", "deal does not take a customer selection")
	}

	buyTargets := idSet(rule.BuyTargets)
	getTargets := idSet(rule.GetTargets)
	remaining := remainingGetUnits(lines, rule, buyTargets, getTargets, auto.Sets)

	total := 0
	gifts := make([]GiftUnit, 0, len(selection))
	discount := decimal.Zero
	for _, sel := range selection {
		if sel.Quantity < 1 {
			return MatchResult{}, apperrors.NewValidation("selection", "quantities must be positive")
		}
		if !getTargets[sel.MenuItemID] {
			return MatchResult{}, apperrors.NewValidation("selection", "item is not an eligible get target")
		}
		avail, price, ok := remaining[sel.MenuItemID], unitPriceOf(lines, sel.MenuItemID), inCart(lines, sel.MenuItemID)
		if !ok || sel.Quantity > avail {
			return MatchResult{}, apperrors.NewValidation("selection", "more units selected than present in the cart")
		}
		remaining[sel.MenuItemID] -= sel.Quantity
		total += sel.Quantity
		unitDisc := unitDiscount(rule, price)
		gifts = append(gifts, GiftUnit{MenuItemID: sel.MenuItemID, Quantity: sel.Quantity, UnitDiscount: unitDisc})
		discount = discount.Add(unitDisc.Mul(decimal.NewFromInt(int64(sel.Quantity))))
	}
	if total > auto.RequiredUnits {
		return MatchResult{}, apperrors.NewValidation("selection", "more units selected than the deal grants")
	}

	return MatchResult{Sets: auto.Sets, Gifts: gifts, Discount: discount.Round(2)}, nil
}

// allocateGifts consumes sets*buy qualifying units (most expensive first, so
// cheap units stay giftable) and then gifts the cheapest remaining get units.
func allocateGifts(lines []BuyGetLine, rule BxgyRule, buyTargets, getTargets map[string]bool, sets int) []GiftUnit {
	remaining := remainingGetUnits(lines, rule, buyTargets, getTargets, sets)

	type priced struct {
		id    string
		price decimal.Decimal
	}
	eligible := make([]priced, 0, len(lines))
	for _, l := range lines {
		if getTargets[l.MenuItemID] && remaining[l.MenuItemID] > 0 {
			eligible = append(eligible, priced{l.MenuItemID, l.UnitPrice})
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].price.LessThan(eligible[j].price) })

	want := sets * rule.GetQuantity
	gifts := make([]GiftUnit, 0, len(eligible))
	for _, e := range eligible {
		if want <= 0 {
			break
		}
		take := remaining[e.id]
		if take > want {
			take = want
		}
		if take <= 0 {
			continue
		}
		remaining[e.id] -= take
		want -= take
		gifts = append(gifts, GiftUnit{MenuItemID: e.id, Quantity: take, UnitDiscount: unitDiscount(rule, e.price)})
	}
	return gifts
}

// remainingGetUnits is what each get-target line can still gift after buy
// consumption and prior BXGY layers are excluded. Buy units are consumed from
// the most expensive qualifying lines first.
func remainingGetUnits(lines []BuyGetLine, rule BxgyRule, buyTargets, getTargets map[string]bool, sets int) map[string]int {
	remaining := make(map[string]int, len(lines))
	for _, l := range lines {
		if getTargets[l.MenuItemID] {
			avail := l.Quantity - l.DiscountedUnits
			if avail > 0 {
				remaining[l.MenuItemID] += avail
			}
		}
	}

	toConsume := sets * rule.BuyQuantity
	buyLines := make([]BuyGetLine, 0, len(lines))
	for _, l := range lines {
		if buyTargets[l.MenuItemID] {
			buyLines = append(buyLines, l)
		}
	}
	sort.Slice(buyLines, func(i, j int) bool { return buyLines[i].UnitPrice.GreaterThan(buyLines[j].UnitPrice) })
	for _, l := range buyLines {
		if toConsume <= 0 {
			break
		}
		consume := l.Quantity
		if consume > toConsume {
			consume = toConsume
		}
		toConsume -= consume
		if getTargets[l.MenuItemID] {
			left := remaining[l.MenuItemID] - consume
			if left < 0 {
				left = 0
			}
			remaining[l.MenuItemID] = left
		}
	}
	return remaining
}

func unitDiscount(rule BxgyRule, price decimal.Decimal) decimal.Decimal {
	switch rule.GetDiscount {
	case GetFree:
		return price
	case GetPercentage:
		return price.Mul(rule.GetDiscountValue).Div(decimal.NewFromInt(100))
	case GetFixed:
		if rule.GetDiscountValue.GreaterThan(price) {
			return price
		}
		return rule.GetDiscountValue
	}
	return decimal.Zero
}

func giftValue(gifts []GiftUnit) (int, decimal.Decimal) {
	count := 0
	sum := decimal.Zero
	for _, g := range gifts {
		count += g.Quantity
		sum = sum.Add(g.UnitDiscount.Mul(decimal.NewFromInt(int64(g.Quantity))))
	}
	return count, sum.Round(2)
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func unitPriceOf(lines []BuyGetLine, id string) decimal.Decimal {
	for _, l := range lines {
		if l.MenuItemID == id {
			return l.UnitPrice
		}
	}
	return decimal.Zero
}

func inCart(lines []BuyGetLine, id string) bool {
	for _, l := range lines {
		if l.MenuItemID == id {
			return true
		}
	}
	return false
}
