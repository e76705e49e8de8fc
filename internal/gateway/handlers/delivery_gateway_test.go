package handlers

import (
	"testing"

	"github.com/shopspring/decimal"

	"pattibytes-backend/internal/schedule"
)

func TestQuoteBodyAlwaysCarriesFee(t *testing.T) {
	fee := decimal.NewFromInt(45)

	body := quoteBody(schedule.Quote{DistanceKm: 4.2, Fee: fee, ShowToCustomer: false})
	if body["fee"] != "45.00" {
		t.Errorf("fee = %v, want 45.00 even when not itemized: the fee is charged either way", body["fee"])
	}
	if body["itemized"] != false {
		t.Errorf("itemized = %v, want false so clients fold the fee into the item total", body["itemized"])
	}

	body = quoteBody(schedule.Quote{DistanceKm: 4.2, Fee: fee, ShowToCustomer: true})
	if body["itemized"] != true || body["fee"] != "45.00" {
		t.Errorf("body = %v, want an itemized 45.00 fee", body)
	}
}
