package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"pattibytes-backend/internal/apperrors"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func line(price string, qty int) CartLine {
	return CartLine{MenuItemID: "item", Name: "Item", UnitPrice: d(price), DiscountPercentage: decimal.Zero, Quantity: qty}
}

func TestComputeTotalsWithAutoGST(t *testing.T) {
	lines := []CartLine{line("100", 1), line("100", 1)}
	gst := GSTRule{AutoApply: true, Percentage: d("5")}

	totals, err := ComputeTotals(lines, decimal.Zero, d("50"), decimal.Zero, decimal.Zero, gst)
	if err != nil {
		t.Fatal(err)
	}
	if !totals.Subtotal.Equal(d("200")) {
		t.Errorf("subtotal = %s, want 200", totals.Subtotal)
	}
	if !totals.Tax.Equal(d("10")) {
		t.Errorf("tax = %s, want 10", totals.Tax)
	}
	if !totals.TotalAmount.Equal(d("260")) {
		t.Errorf("total = %s, want 260", totals.TotalAmount)
	}
}

func TestComputeTotalsWithPromoDiscount(t *testing.T) {
	// 50% off capped at 40: base 160, 5% GST 8, fee 50.
	lines := []CartLine{line("100", 1), line("100", 1)}
	gst := GSTRule{AutoApply: true, Percentage: d("5")}

	totals, err := ComputeTotals(lines, d("40"), d("50"), decimal.Zero, decimal.Zero, gst)
	if err != nil {
		t.Fatal(err)
	}
	if !totals.TaxableBase.Equal(d("160")) {
		t.Errorf("taxable base = %s, want 160", totals.TaxableBase)
	}
	if !totals.Tax.Equal(d("8")) {
		t.Errorf("tax = %s, want 8", totals.Tax)
	}
	if !totals.TotalAmount.Equal(d("218")) {
		t.Errorf("total = %s, want 218", totals.TotalAmount)
	}
}

func TestComputeTotalsItemMarkdown(t *testing.T) {
	lines := []CartLine{{MenuItemID: "a", UnitPrice: d("200"), DiscountPercentage: d("25"), Quantity: 2}}

	totals, err := ComputeTotals(lines, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, GSTRule{})
	if err != nil {
		t.Fatal(err)
	}
	if !totals.Subtotal.Equal(d("400")) {
		t.Errorf("subtotal = %s, want 400", totals.Subtotal)
	}
	if !totals.ItemDiscountTotal.Equal(d("100")) {
		t.Errorf("item discount = %s, want 100", totals.ItemDiscountTotal)
	}
	if !totals.TotalAmount.Equal(d("300")) {
		t.Errorf("total = %s, want 300", totals.TotalAmount)
	}
}

func TestTaxableBaseNeverNegative(t *testing.T) {
	lines := []CartLine{line("100", 1)}
	gst := GSTRule{AutoApply: true, Percentage: d("5")}

	totals, err := ComputeTotals(lines, d("80"), d("30"), d("80"), decimal.Zero, gst)
	if err != nil {
		t.Fatal(err)
	}
	if !totals.TaxableBase.IsZero() {
		t.Errorf("taxable base = %s, want 0", totals.TaxableBase)
	}
	if !totals.Tax.IsZero() {
		t.Errorf("tax = %s, want 0", totals.Tax)
	}
	if !totals.TotalAmount.Equal(d("30")) {
		t.Errorf("total = %s, want 30 (delivery fee only)", totals.TotalAmount)
	}
}

func TestManualTaxChargedVerbatim(t *testing.T) {
	lines := []CartLine{line("100", 2)}
	gst := GSTRule{AutoApply: false, Percentage: d("5"), ManualTax: d("12.34")}

	totals, err := ComputeTotals(lines, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, gst)
	if err != nil {
		t.Fatal(err)
	}
	if !totals.Tax.Equal(d("12.34")) {
		t.Errorf("tax = %s, want manual 12.34", totals.Tax)
	}
}

func TestComputeTotalsRejectsBadInput(t *testing.T) {
	lines := []CartLine{line("100", 1)}

	cases := []struct {
		name string
		run  func() error
	}{
		{"empty cart", func() error {
			_, err := ComputeTotals(nil, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, GSTRule{})
			return err
		}},
		{"negative promo", func() error {
			_, err := ComputeTotals(lines, d("-1"), decimal.Zero, decimal.Zero, decimal.Zero, GSTRule{})
			return err
		}},
		{"negative fee", func() error {
			_, err := ComputeTotals(lines, decimal.Zero, d("-1"), decimal.Zero, decimal.Zero, GSTRule{})
			return err
		}},
		{"zero quantity", func() error {
			_, err := ComputeTotals([]CartLine{line("100", 0)}, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, GSTRule{})
			return err
		}},
		{"quantity over cap", func() error {
			_, err := ComputeTotals([]CartLine{line("100", 100)}, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, GSTRule{})
			return err
		}},
		{"markdown over 100", func() error {
			bad := CartLine{MenuItemID: "a", UnitPrice: d("10"), DiscountPercentage: d("101"), Quantity: 1}
			_, err := ComputeTotals([]CartLine{bad}, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, GSTRule{})
			return err
		}},
	}
	for _, tc := range cases {
		if err := tc.run(); !apperrors.IsValidation(err) {
			t.Errorf("%s: got %v, want validation error", tc.name, err)
		}
	}
}

func TestComputeTotalsDeterministic(t *testing.T) {
	lines := []CartLine{
		{MenuItemID: "a", UnitPrice: d("33.33"), DiscountPercentage: d("10"), Quantity: 3},
		{MenuItemID: "b", UnitPrice: d("19.99"), Quantity: 2},
	}
	gst := GSTRule{AutoApply: true, Percentage: d("12")}

	first, err := ComputeTotals(lines, d("5"), d("25"), d("2"), d("3"), gst)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := ComputeTotals(lines, d("5"), d("25"), d("2"), d("3"), gst)
		if err != nil {
			t.Fatal(err)
		}
		if !again.TotalAmount.Equal(first.TotalAmount) {
			t.Fatalf("run %d: total %s != %s", i, again.TotalAmount, first.TotalAmount)
		}
	}
}
