package analytics

import "github.com/shopspring/decimal"

// round rounds v half away from zero to the given number of decimal places
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// roundPtr rounds a nullable value, keeping nil as nil
func roundPtr(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, places)
	return &r
}
