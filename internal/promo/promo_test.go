package promo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pattibytes-backend/internal/pricing"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Tuesday, 2026-03-10 13:00 UTC.
var testNow = time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)

func cartOf(merchantID string, lines ...pricing.CartLine) Cart {
	return Cart{MerchantID: merchantID, Lines: lines}
}

func cartLine(id, price string, qty int) pricing.CartLine {
	return pricing.CartLine{MenuItemID: id, Name: id, UnitPrice: d(price), Quantity: qty}
}

func percentPromo(code string, value, cap string) PromoCode {
	return PromoCode{
		ID:                "p-" + code,
		Code:              code,
		Scope:             ScopeGlobal,
		DealType:          DealCartDiscount,
		DiscountType:      DiscountPercentage,
		DiscountValue:     d(value),
		MaxDiscountAmount: d(cap),
		IsActive:          true,
	}
}

func TestCheckEligibilityValidityWindow(t *testing.T) {
	p := percentPromo("WINDOW", "10", "0")

	from := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC) // later today
	p.ValidFrom = &from
	if reason, ok := CheckEligibility(p, cartOf("m1", cartLine("a", "100", 1)), 0, testNow); !ok {
		t.Errorf("valid_from on the same day should be inclusive, got refused: %s", reason)
	}

	until := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC) // earlier today
	p.ValidFrom = nil
	p.ValidUntil = &until
	if reason, ok := CheckEligibility(p, cartOf("m1", cartLine("a", "100", 1)), 0, testNow); !ok {
		t.Errorf("valid_until on the same day should be inclusive, got refused: %s", reason)
	}

	yesterday := testNow.AddDate(0, 0, -1)
	p.ValidUntil = &yesterday
	if reason, ok := CheckEligibility(p, cartOf("m1", cartLine("a", "100", 1)), 0, testNow); ok || reason != ReasonExpired {
		t.Errorf("got (%s, %v), want expired", reason, ok)
	}
}

func TestCheckEligibilityDays(t *testing.T) {
	p := percentPromo("TUESDAYS", "10", "0")
	p.ValidDays = []time.Weekday{time.Tuesday}
	if _, ok := CheckEligibility(p, cartOf("m1", cartLine("a", "100", 1)), 0, testNow); !ok {
		t.Error("Tuesday promo refused on a Tuesday")
	}
	p.ValidDays = []time.Weekday{time.Friday}
	if reason, ok := CheckEligibility(p, cartOf("m1", cartLine("a", "100", 1)), 0, testNow); ok || reason != ReasonWrongDay {
		t.Errorf("got (%s, %v), want wrong day", reason, ok)
	}
}

func TestCheckEligibilityDailyWindowWrapsMidnight(t *testing.T) {
	p := percentPromo("NIGHTOWL", "10", "0")
	p.StartTime, p.EndTime = "22:00", "02:00"

	at := func(hour int) time.Time {
		return time.Date(2026, 3, 10, hour, 30, 0, 0, time.UTC)
	}
	if _, ok := CheckEligibility(p, cartOf("m1", cartLine("a", "100", 1)), 0, at(23)); !ok {
		t.Error("23:30 should be inside a 22:00-02:00 window")
	}
	if _, ok := CheckEligibility(p, cartOf("m1", cartLine("a", "100", 1)), 0, at(1)); !ok {
		t.Error("01:30 should be inside a 22:00-02:00 window")
	}
	if reason, ok := CheckEligibility(p, cartOf("m1", cartLine("a", "100", 1)), 0, at(12)); ok || reason != ReasonOutsideHours {
		t.Errorf("got (%s, %v), want outside hours", reason, ok)
	}
}

func TestCheckEligibilityScopeAndLimits(t *testing.T) {
	cart := cartOf("m1", cartLine("a", "100", 1))

	p := percentPromo("MERCH", "10", "0")
	p.Scope = ScopeMerchant
	p.MerchantID = "m2"
	if reason, ok := CheckEligibility(p, cart, 0, testNow); ok || reason != ReasonWrongMerchant {
		t.Errorf("got (%s, %v), want wrong merchant", reason, ok)
	}

	p = percentPromo("TARGET", "10", "0")
	p.Scope = ScopeTargets
	p.MerchantID = "m1"
	p.TargetItemIDs = []string{"missing"}
	if reason, ok := CheckEligibility(p, cart, 0, testNow); ok || reason != ReasonNoTargetItems {
		t.Errorf("got (%s, %v), want no target items", reason, ok)
	}

	p = percentPromo("MIN", "10", "0")
	p.MinOrderAmount = d("500")
	if _, ok := CheckEligibility(p, cart, 0, testNow); ok {
		t.Error("minimum order should refuse a 100 cart")
	}

	p = percentPromo("LIMIT", "10", "0")
	p.UsageLimit, p.UsedCount = 5, 5
	if reason, ok := CheckEligibility(p, cart, 0, testNow); ok || reason != ReasonUsageLimit {
		t.Errorf("got (%s, %v), want usage limit", reason, ok)
	}

	p = percentPromo("ONCE", "10", "0")
	p.MaxUsesPerUser = 1
	if reason, ok := CheckEligibility(p, cart, 1, testNow); ok || reason != ReasonAlreadyUsed {
		t.Errorf("got (%s, %v), want already used", reason, ok)
	}
}

func TestCartDiscountCaps(t *testing.T) {
	cart := cartOf("m1", cartLine("a", "200", 1))

	p := percentPromo("HALF", "50", "40")
	if got := CartDiscount(p, cart); !got.Equal(d("40")) {
		t.Errorf("capped percentage = %s, want 40", got)
	}

	fixed := PromoCode{
		Code: "FLAT500", Scope: ScopeGlobal, DealType: DealCartDiscount,
		DiscountType: DiscountFixed, DiscountValue: d("500"), IsActive: true,
	}
	if got := CartDiscount(fixed, cart); !got.Equal(d("200")) {
		t.Errorf("fixed discount = %s, want capped at base 200", got)
	}
}

func TestCartDiscountTargetedBase(t *testing.T) {
	cart := cartOf("m1", cartLine("pizza", "300", 1), cartLine("soda", "50", 2))

	p := percentPromo("PIZZA10", "10", "0")
	p.Scope = ScopeTargets
	p.MerchantID = "m1"
	p.TargetItemIDs = []string{"pizza"}
	if got := CartDiscount(p, cart); !got.Equal(d("30")) {
		t.Errorf("targeted discount = %s, want 30 (10%% of pizza only)", got)
	}
}

func TestValidateRejectsGlobalBxgy(t *testing.T) {
	p := PromoCode{
		Code: "B1G1", Scope: ScopeGlobal, DealType: DealBxgy, IsActive: true,
		Bxgy: &BxgyRule{BuyQuantity: 1, GetQuantity: 1},
	}
	if err := p.Validate(); err == nil {
		t.Error("a global bxgy deal should not validate")
	}
}
