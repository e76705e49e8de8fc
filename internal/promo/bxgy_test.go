package promo

import (
	"testing"

	"pattibytes-backend/internal/pricing"
)

func bxgyLine(id, price string, qty int) BuyGetLine {
	return BuyGetLine{MenuItemID: id, UnitPrice: d(price), Quantity: qty}
}

func b1g1(buy, get []string) BxgyRule {
	return BxgyRule{
		BuyQuantity: 1, GetQuantity: 1, MaxSetsPerOrder: 10,
		BuyTargets: buy, GetTargets: get,
		Selection: SelectAutoCheapest, GetDiscount: GetFree,
	}
}

func TestMatchSetsDisjointTargets(t *testing.T) {
	rule := b1g1([]string{"pizza"}, []string{"soda"})
	lines := []BuyGetLine{bxgyLine("pizza", "300", 2), bxgyLine("soda", "50", 2)}

	match, err := MatchSets(lines, rule)
	if err != nil {
		t.Fatal(err)
	}
	if match.Sets != 2 || !match.Discount.Equal(d("100")) {
		t.Fatalf("sets=%d discount=%s, want 2 sets with both sodas free", match.Sets, match.Discount)
	}
}

func TestMatchSetsOverlappingTargets(t *testing.T) {
	// Buy and get both target X: a buy-consumed unit cannot also be gifted,
	// so 3 units yield one gift and 4 units yield two.
	rule := b1g1([]string{"x"}, []string{"x"})

	match, err := MatchSets([]BuyGetLine{bxgyLine("x", "100", 3)}, rule)
	if err != nil {
		t.Fatal(err)
	}
	if got := giftedUnits(match); got != 1 {
		t.Errorf("3 units gifted %d, want 1", got)
	}

	match, err = MatchSets([]BuyGetLine{bxgyLine("x", "100", 4)}, rule)
	if err != nil {
		t.Fatal(err)
	}
	if got := giftedUnits(match); got != 2 {
		t.Errorf("4 units gifted %d, want 2", got)
	}
}

func TestMatchSetsGiftsCheapestFirst(t *testing.T) {
	rule := b1g1([]string{"pizza"}, []string{"soda", "juice"})
	lines := []BuyGetLine{
		bxgyLine("pizza", "300", 1),
		bxgyLine("soda", "50", 1),
		bxgyLine("juice", "80", 1),
	}

	match, err := MatchSets(lines, rule)
	if err != nil {
		t.Fatal(err)
	}
	if len(match.Gifts) != 1 || match.Gifts[0].MenuItemID != "soda" {
		t.Fatalf("gifts = %+v, want the cheaper soda", match.Gifts)
	}
}

func TestMatchSetsHonorsMaxSets(t *testing.T) {
	rule := b1g1([]string{"pizza"}, []string{"soda"})
	rule.MaxSetsPerOrder = 1
	lines := []BuyGetLine{bxgyLine("pizza", "300", 5), bxgyLine("soda", "50", 5)}

	match, err := MatchSets(lines, rule)
	if err != nil {
		t.Fatal(err)
	}
	if match.Sets != 1 || giftedUnits(match) != 1 {
		t.Fatalf("sets=%d gifts=%d, want capped at 1 set", match.Sets, giftedUnits(match))
	}
}

func TestMatchSetsNeverGiftsMissingUnits(t *testing.T) {
	rule := b1g1([]string{"pizza"}, []string{"soda"})
	lines := []BuyGetLine{bxgyLine("pizza", "300", 3)} // no soda in cart

	match, err := MatchSets(lines, rule)
	if err != nil {
		t.Fatal(err)
	}
	if match.Sets != 0 || !match.Discount.IsZero() {
		t.Fatalf("got sets=%d discount=%s, want no match when the gift is absent", match.Sets, match.Discount)
	}
}

func TestMatchSetsPercentageAndFixedGifts(t *testing.T) {
	rule := b1g1([]string{"pizza"}, []string{"soda"})
	rule.GetDiscount = GetPercentage
	rule.GetDiscountValue = d("50")
	lines := []BuyGetLine{bxgyLine("pizza", "300", 1), bxgyLine("soda", "60", 1)}

	match, err := MatchSets(lines, rule)
	if err != nil {
		t.Fatal(err)
	}
	if !match.Discount.Equal(d("30")) {
		t.Errorf("percentage gift discount = %s, want 30", match.Discount)
	}

	rule.GetDiscount = GetFixed
	rule.GetDiscountValue = d("100") // above the soda's price
	match, err = MatchSets(lines, rule)
	if err != nil {
		t.Fatal(err)
	}
	if !match.Discount.Equal(d("60")) {
		t.Errorf("fixed gift discount = %s, want capped at the unit price 60", match.Discount)
	}
}

func TestCustomerChoiceDefersPricing(t *testing.T) {
	rule := b1g1([]string{"pizza"}, []string{"soda", "juice"})
	rule.Selection = SelectCustomerChoice
	lines := []BuyGetLine{
		bxgyLine("pizza", "300", 1),
		bxgyLine("soda", "50", 1),
		bxgyLine("juice", "80", 1),
	}

	match, err := MatchSets(lines, rule)
	if err != nil {
		t.Fatal(err)
	}
	if !match.RequiresSelection || match.RequiredUnits != 1 {
		t.Fatalf("match = %+v, want a pending selection of 1 unit", match)
	}
	if !match.Discount.IsZero() {
		t.Errorf("discount = %s, want 0 until the customer chooses", match.Discount)
	}
}

func TestValidateSelection(t *testing.T) {
	rule := b1g1([]string{"pizza"}, []string{"soda", "juice"})
	rule.Selection = SelectCustomerChoice
	lines := []BuyGetLine{
		bxgyLine("pizza", "300", 1),
		bxgyLine("soda", "50", 1),
		bxgyLine("juice", "80", 1),
	}

	match, err := ValidateSelection(lines, rule, []GiftSelection{{MenuItemID: "juice", Quantity: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if !match.Discount.Equal(d("80")) {
		t.Errorf("chosen juice discount = %s, want 80", match.Discount)
	}

	bad := [][]GiftSelection{
		{{MenuItemID: "pizza", Quantity: 1}},               // not a get target
		{{MenuItemID: "soda", Quantity: 5}},                // more than in cart
		{{MenuItemID: "soda", Quantity: 1}, {MenuItemID: "juice", Quantity: 1}}, // more than granted
		{{MenuItemID: "soda", Quantity: 0}},                // non-positive
	}
	for i, sel := range bad {
		if _, err := ValidateSelection(lines, rule, sel); err == nil {
			t.Errorf("selection %d should have been rejected", i)
		}
	}
}

func TestFromCartLinesUsesEffectivePrice(t *testing.T) {
	lines := FromCartLines([]pricing.CartLine{
		{MenuItemID: "a", UnitPrice: d("100"), DiscountPercentage: d("20"), Quantity: 1},
	})
	if len(lines) != 1 || !lines[0].UnitPrice.Equal(d("80")) {
		t.Fatalf("lines = %+v, want the post-markdown price 80", lines)
	}
}

func giftedUnits(m MatchResult) int {
	n := 0
	for _, g := range m.Gifts {
		n += g.Quantity
	}
	return n
}
