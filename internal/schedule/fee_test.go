package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func testSchedule() Schedule {
	return Schedule{
		Timezone: "Asia/Kolkata",
		Weekly: map[time.Weekday]DayRule{
			time.Monday:  {Enabled: true, Fee: d("30")},
			time.Tuesday: {Enabled: false},
		},
		Overrides:       map[string]DayRule{},
		BaseRadiusKm:    d("3"),
		PerKmBeyondBase: d("15"),
		ShowToCustomer:  true,
	}
}

// Monday 2026-03-09 12:00 IST.
var mondayNoon = time.Date(2026, 3, 9, 6, 30, 0, 0, time.UTC)

func TestQuoteFeeWithinBaseRadius(t *testing.T) {
	q, err := QuoteFee(testSchedule(), 2.0, mondayNoon)
	if err != nil {
		t.Fatal(err)
	}
	if !q.Fee.Equal(d("30")) {
		t.Errorf("fee = %s, want the flat day fee 30", q.Fee)
	}
}

func TestQuoteFeeBeyondBaseRoundsUp(t *testing.T) {
	// 30 + 2.5km * 15 = 67.5, ceiled to 68.
	q, err := QuoteFee(testSchedule(), 5.5, mondayNoon)
	if err != nil {
		t.Fatal(err)
	}
	if !q.Fee.Equal(d("68")) {
		t.Errorf("fee = %s, want 68", q.Fee)
	}
}

func TestQuoteFeeDisabledDayIsFree(t *testing.T) {
	tuesday := mondayNoon.AddDate(0, 0, 1)
	q, err := QuoteFee(testSchedule(), 10, tuesday)
	if err != nil {
		t.Fatal(err)
	}
	if !q.Fee.IsZero() {
		t.Errorf("fee = %s, want 0 on a disabled day", q.Fee)
	}
}

func TestQuoteFeeOverrideBeatsWeekly(t *testing.T) {
	s := testSchedule()
	s.Overrides["2026-03-09"] = DayRule{Enabled: true, Fee: d("99")}

	q, err := QuoteFee(s, 1, mondayNoon)
	if err != nil {
		t.Fatal(err)
	}
	if !q.Fee.Equal(d("99")) {
		t.Errorf("fee = %s, want the override 99", q.Fee)
	}
}

func TestQuoteFeeUsesScheduleTimezone(t *testing.T) {
	// 20:00 UTC Monday is already Tuesday 01:30 in Kolkata, which is disabled.
	lateMonday := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	q, err := QuoteFee(testSchedule(), 1, lateMonday)
	if err != nil {
		t.Fatal(err)
	}
	if !q.Fee.IsZero() {
		t.Errorf("fee = %s, want 0: the schedule day must resolve in Asia/Kolkata", q.Fee)
	}
}

func TestQuoteFeeRejectsBadInput(t *testing.T) {
	if _, err := QuoteFee(testSchedule(), -1, mondayNoon); err == nil {
		t.Error("negative distance should be rejected")
	}
	s := testSchedule()
	s.Timezone = "Mars/Olympus"
	if _, err := QuoteFee(s, 1, mondayNoon); err == nil {
		t.Error("unknown timezone should be rejected")
	}
}

func TestQuoteFeeMissingDayIsFree(t *testing.T) {
	// No rule configured for Wednesday at all.
	wednesday := mondayNoon.AddDate(0, 0, 2)
	q, err := QuoteFee(testSchedule(), 4, wednesday)
	if err != nil {
		t.Fatal(err)
	}
	if !q.Fee.IsZero() {
		t.Errorf("fee = %s, want 0 for an unconfigured day", q.Fee)
	}
}
