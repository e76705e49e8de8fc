package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"pattibytes-backend/internal/apperrors"
)

// DayRule is one weekday's (or date override's) delivery fee setting.
type DayRule struct {
	Enabled bool
	Fee     decimal.Decimal
}

// Schedule is a merchant's weekly delivery fee configuration. Overrides are
// keyed by "2006-01-02" dates in the schedule's timezone and beat the weekly
// rule for that day.
type Schedule struct {
	Timezone        string
	Weekly          map[time.Weekday]DayRule
	Overrides       map[string]DayRule
	BaseRadiusKm    decimal.Decimal
	PerKmBeyondBase decimal.Decimal
	ShowToCustomer  bool
}

// Quote is what delivery costs for one drop. ShowToCustomer only instructs
// presentation layers whether to itemize the fee; the fee is charged either way.
type Quote struct {
	DistanceKm     float64
	Fee            decimal.Decimal
	ShowToCustomer bool
}

// QuoteFee resolves now's weekday in the schedule's timezone (never the
// server's local time) and applies the distance-tiered rate: the day fee
// covers the base radius, each km beyond accrues the per-km increment, and the
// result is rounded up to the next whole currency unit so delivery is never
// under-quoted.
func QuoteFee(s Schedule, distanceKm float64, now time.Time) (Quote, error) {
	if distanceKm < 0 {
		return Quote{}, apperrors.NewValidation("distance_km", "must not be negative")
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return Quote{}, apperrors.NewValidation("timezone", "unknown timezone "+s.Timezone)
	}
	local := now.In(loc)

	rule, ok := s.Overrides[local.Format("2006-01-02")]
	if !ok {
		rule, ok = s.Weekly[local.Weekday()]
	}
	if !ok || !rule.Enabled {
		return Quote{DistanceKm: distanceKm, Fee: decimal.Zero, ShowToCustomer: s.ShowToCustomer}, nil
	}

	fee := rule.Fee
	distance := decimal.NewFromFloat(distanceKm)
	if distance.GreaterThan(s.BaseRadiusKm) {
		beyond := distance.Sub(s.BaseRadiusKm)
		fee = fee.Add(beyond.Mul(s.PerKmBeyondBase)).Ceil()
	}

	return Quote{DistanceKm: distanceKm, Fee: fee, ShowToCustomer: s.ShowToCustomer}, nil
}
