package models

import (
	"reflect"
	"strings"
	"testing"
)

func TestPromoUsageIndexIsUnique(t *testing.T) {
	// The per-user redemption cap is a conditional upsert against this index;
	// a plain index would let two concurrent first uses create two rows.
	typ := reflect.TypeOf(PromoUsage{})
	for _, name := range []string{"PromoCodeID", "UserID"} {
		field, ok := typ.FieldByName(name)
		if !ok {
			t.Fatalf("PromoUsage has no field %s", name)
		}
		if !strings.Contains(field.Tag.Get("gorm"), "uniqueIndex:idx_promo_user") {
			t.Errorf("%s must be part of the unique promo/user index", name)
		}
	}
}
