package promo

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pattibytes-backend/internal/apperrors"
	"pattibytes-backend/internal/pricing"
)

type Scope string

const (
	ScopeGlobal   Scope = "global"
	ScopeMerchant Scope = "merchant"
	ScopeTargets  Scope = "targets"
)

type DealType string

const (
	DealCartDiscount DealType = "cart_discount"
	DealBxgy         DealType = "bxgy"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type SelectionMode string

const (
	SelectAutoCheapest   SelectionMode = "auto_cheapest"
	SelectCustomerChoice SelectionMode = "customer_choice"
)

type GetDiscountKind string

const (
	GetFree       GetDiscountKind = "free"
	GetPercentage GetDiscountKind = "percentage"
	GetFixed      GetDiscountKind = "fixed"
)

// BxgyRule configures a Buy-X-Get-Y deal: buy BuyQuantity units from the buy
// targets, get GetQuantity units from the get targets free or discounted.
type BxgyRule struct {
	BuyQuantity      int
	GetQuantity      int
	GetDiscount      GetDiscountKind
	GetDiscountValue decimal.Decimal
	MaxSetsPerOrder  int
	Selection        SelectionMode
	BuyTargets       []string
	GetTargets       []string
}

// PromoCode is the single canonical promotion representation. Storage adapters
// translate whatever shape the backing rows carry into this type.
type PromoCode struct {
	ID                string
	Code              string
	Description       string
	Scope             Scope
	MerchantID        string
	DealType          DealType
	DiscountType      DiscountType
	DiscountValue     decimal.Decimal
	MinOrderAmount    decimal.Decimal
	MaxDiscountAmount decimal.Decimal // zero means uncapped
	UsageLimit        int             // zero means unlimited
	UsedCount         int
	MaxUsesPerUser    int // zero means unlimited
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	ValidDays         []time.Weekday // empty means every day
	StartTime         string         // "HH:MM", optional daily window
	EndTime           string
	AutoApply         bool
	Priority          int
	IsActive          bool
	Bxgy              *BxgyRule
	TargetItemIDs     []string // scope=targets: restricts the discount base
}

// Validate enforces the structural invariants of a promotion.
func (p PromoCode) Validate() error {
	switch p.Scope {
	case ScopeGlobal, ScopeMerchant, ScopeTargets:
	default:
		return apperrors.NewValidation("scope", fmt.Sprintf("unknown scope %q", p.Scope))
	}
	if p.Scope != ScopeGlobal && p.MerchantID == "" {
		return apperrors.NewValidation("merchant_id", "required unless scope is global")
	}
	if !p.AutoApply && strings.TrimSpace(p.Code) == "" {
		return apperrors.NewValidation("code", "required when auto_apply is false")
	}
	if p.DealType == DealBxgy {
		if p.Scope == ScopeGlobal {
			return apperrors.NewValidation("scope", "a bxgy deal cannot be global")
		}
		if p.Bxgy == nil {
			return apperrors.NewValidation("deal", "bxgy deal requires a rule")
		}
		if p.Bxgy.BuyQuantity < 1 || p.Bxgy.GetQuantity < 1 {
			return apperrors.NewValidation("deal", "buy and get quantities must be at least 1")
		}
	}
	if p.DiscountValue.IsNegative() || p.MinOrderAmount.IsNegative() || p.MaxDiscountAmount.IsNegative() {
		return apperrors.NewValidation("discount", "amounts must not be negative")
	}
	return nil
}

// Cart is the promotion view of a checkout: snapshot lines plus the merchant
// they belong to. Amounts are post item-discount, since promotions apply to
// what the customer actually pays.
type Cart struct {
	MerchantID string
	Lines      []pricing.CartLine
}

func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

// targetedBase sums only the lines in the target set.
func (c Cart) targetedBase(targetIDs []string) decimal.Decimal {
	targets := make(map[string]bool, len(targetIDs))
	for _, id := range targetIDs {
		targets[id] = true
	}
	sum := decimal.Zero
	for _, l := range c.Lines {
		if targets[l.MenuItemID] {
			sum = sum.Add(l.LineTotal())
		}
	}
	return sum
}

// Eligibility reasons surfaced to customers when their code is refused.
const (
	ReasonInactive      = "This promo code is not active"
	ReasonExpired       = "This promo code has expired"
	ReasonNotStarted    = "This promo code is not active yet"
	ReasonWrongDay      = "This promo code is not valid today"
	ReasonOutsideHours  = "This promo code is not valid at this time"
	ReasonWrongMerchant = "This code is not valid for this restaurant"
	ReasonNoTargetItems = "This code does not apply to any item in your cart"
	ReasonUsageLimit    = "This promo code has reached its usage limit"
	ReasonAlreadyUsed   = "You have already used this promo code"
)

// CheckEligibility runs every eligibility filter against the cart at the
// given instant. perUserUsed is how many times this user has redeemed p.
// It returns a customer-facing reason when the promo does not apply.
func CheckEligibility(p PromoCode, cart Cart, perUserUsed int, now time.Time) (string, bool) {
	if !p.IsActive {
		return ReasonInactive, false
	}
	if p.ValidFrom != nil && now.Before(startOfDay(*p.ValidFrom)) {
		return ReasonNotStarted, false
	}
	if p.ValidUntil != nil && now.After(endOfDay(*p.ValidUntil)) {
		return ReasonExpired, false
	}
	if len(p.ValidDays) > 0 && !weekdayIn(now.Weekday(), p.ValidDays) {
		return ReasonWrongDay, false
	}
	if p.StartTime != "" && p.EndTime != "" && !withinDailyWindow(now, p.StartTime, p.EndTime) {
		return ReasonOutsideHours, false
	}
	switch p.Scope {
	case ScopeMerchant:
		if p.MerchantID != cart.MerchantID {
			return ReasonWrongMerchant, false
		}
	case ScopeTargets:
		if p.MerchantID != cart.MerchantID {
			return ReasonWrongMerchant, false
		}
		if p.targetedBaseFor(cart).IsZero() {
			return ReasonNoTargetItems, false
		}
	}
	if p.MinOrderAmount.IsPositive() && cart.Subtotal().LessThan(p.MinOrderAmount) {
		return fmt.Sprintf("Minimum order %s required", p.MinOrderAmount.StringFixed(0)), false
	}
	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return ReasonUsageLimit, false
	}
	if p.MaxUsesPerUser > 0 && perUserUsed >= p.MaxUsesPerUser {
		return ReasonAlreadyUsed, false
	}
	return "", true
}

func (p PromoCode) targetedBaseFor(cart Cart) decimal.Decimal {
	return cart.targetedBase(p.TargetItemIDs)
}

// CartDiscount computes the discount for a cart_discount promo against its
// base. Percentage discounts are capped by max_discount_amount; fixed
// discounts never exceed the base itself.
func CartDiscount(p PromoCode, cart Cart) decimal.Decimal {
	base := cart.Subtotal()
	if p.Scope == ScopeTargets {
		base = p.targetedBaseFor(cart)
	}
	var discount decimal.Decimal
	switch p.DiscountType {
	case DiscountPercentage:
		discount = base.Mul(p.DiscountValue).Div(decimal.NewFromInt(100))
		if p.MaxDiscountAmount.IsPositive() && discount.GreaterThan(p.MaxDiscountAmount) {
			discount = p.MaxDiscountAmount
		}
	case DiscountFixed:
		discount = p.DiscountValue
		if discount.GreaterThan(base) {
			discount = base
		}
	}
	return discount.Round(2)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func weekdayIn(day time.Weekday, days []time.Weekday) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// withinDailyWindow compares only the time of day, in now's location.
// Windows crossing midnight (22:00-02:00) wrap.
func withinDailyWindow(now time.Time, start, end string) bool {
	parse := func(s string) (int, bool) {
		var h, m int
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, false
		}
		return h*60 + m, true
	}
	startMin, ok := parse(start)
	if !ok {
		return true
	}
	endMin, ok := parse(end)
	if !ok {
		return true
	}
	nowMin := now.Hour()*60 + now.Minute()
	if startMin <= endMin {
		return nowMin >= startMin && nowMin <= endMin
	}
	return nowMin >= startMin || nowMin <= endMin
}
