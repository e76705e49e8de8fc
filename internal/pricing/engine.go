package pricing

import (
	"github.com/shopspring/decimal"

	"pattibytes-backend/internal/apperrors"
)

var hundred = decimal.NewFromInt(100)

const (
	MinLineQuantity = 1
	MaxLineQuantity = 99
)

// CartLine is a snapshot of a menu item at add-time. Later catalog edits must
// never alter a line that is already part of a cart or placed order.
type CartLine struct {
	MenuItemID         string
	Name               string
	UnitPrice          decimal.Decimal
	DiscountPercentage decimal.Decimal
	Quantity           int
}

// EffectiveUnitPrice applies the item-level markdown.
func (l CartLine) EffectiveUnitPrice() decimal.Decimal {
	if l.DiscountPercentage.IsZero() {
		return l.UnitPrice
	}
	factor := hundred.Sub(l.DiscountPercentage).Div(hundred)
	return l.UnitPrice.Mul(factor)
}

// LineTotal is the effective unit price times quantity, unrounded.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.EffectiveUnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OriginalLineTotal ignores the item-level markdown so invoices can show
// was/now pricing.
func (l CartLine) OriginalLineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l CartLine) validate() error {
	if l.Quantity < MinLineQuantity || l.Quantity > MaxLineQuantity {
		return apperrors.NewValidation("quantity", "must be between 1 and 99")
	}
	if l.UnitPrice.IsNegative() {
		return apperrors.NewValidation("price", "must not be negative")
	}
	if l.DiscountPercentage.IsNegative() || l.DiscountPercentage.GreaterThan(hundred) {
		return apperrors.NewValidation("discount_percentage", "must be between 0 and 100")
	}
	return nil
}

// GSTRule carries the merchant's tax configuration. When AutoApply is off the
// operator-entered ManualTax is charged verbatim instead of being recomputed.
type GSTRule struct {
	AutoApply  bool
	Percentage decimal.Decimal
	ManualTax  decimal.Decimal
}

type Totals struct {
	Subtotal          decimal.Decimal
	ItemDiscountTotal decimal.Decimal
	ManualDiscount    decimal.Decimal
	PromoDiscount     decimal.Decimal
	TaxableBase       decimal.Decimal
	DeliveryFee       decimal.Decimal
	ExtraCharges      decimal.Decimal
	Tax               decimal.Decimal
	TotalAmount       decimal.Decimal
}

// ComputeTotals composes the final amount for an order. Rounding happens at
// combination points, not per line, so many small lines cannot drift by cents.
// Discounts can never drive the taxable base below zero; every other negative
// input is rejected outright.
func ComputeTotals(lines []CartLine, promoDiscount, deliveryFee, manualDiscount, extraCharges decimal.Decimal, gst GSTRule) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, apperrors.NewValidation("lines", "cart is empty")
	}
	for _, amount := range []struct {
		field string
		value decimal.Decimal
	}{
		{"promo_discount", promoDiscount},
		{"delivery_fee", deliveryFee},
		{"manual_discount", manualDiscount},
		{"extra_charges", extraCharges},
		{"tax", gst.ManualTax},
		{"gst_percentage", gst.Percentage},
	} {
		if amount.value.IsNegative() {
			return Totals{}, apperrors.NewValidation(amount.field, "must not be negative")
		}
	}

	subtotal := decimal.Zero
	itemDiscountTotal := decimal.Zero
	for _, line := range lines {
		if err := line.validate(); err != nil {
			return Totals{}, err
		}
		subtotal = subtotal.Add(line.OriginalLineTotal())
		itemDiscountTotal = itemDiscountTotal.Add(line.OriginalLineTotal().Sub(line.LineTotal()))
	}
	subtotal = subtotal.Round(2)
	itemDiscountTotal = itemDiscountTotal.Round(2)

	taxableBase := subtotal.Sub(itemDiscountTotal).Sub(manualDiscount).Sub(promoDiscount)
	if taxableBase.IsNegative() {
		taxableBase = decimal.Zero
	}
	taxableBase = taxableBase.Round(2)

	tax := gst.ManualTax.Round(2)
	if gst.AutoApply {
		tax = taxableBase.Mul(gst.Percentage).Div(hundred).Round(2)
	}

	total := taxableBase.Add(deliveryFee).Add(extraCharges).Add(tax).Round(2)

	return Totals{
		Subtotal:          subtotal,
		ItemDiscountTotal: itemDiscountTotal,
		ManualDiscount:    manualDiscount.Round(2),
		PromoDiscount:     promoDiscount.Round(2),
		TaxableBase:       taxableBase,
		DeliveryFee:       deliveryFee.Round(2),
		ExtraCharges:      extraCharges.Round(2),
		Tax:               tax,
		TotalAmount:       total,
	}, nil
}
