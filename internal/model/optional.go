package model

import "encoding/json"

// Sentinels emitted for figures that could not be computed.
const (
	amountUnavailable     = "Not Available"
	percentageUnavailable = "N/A"
)

// Amount is a USD figure that may be unavailable. The zero value is the
// unavailable amount.
type Amount struct {
	Value float64
	Valid bool
}

// USD returns an available Amount.
func USD(v float64) Amount {
	return Amount{Value: v, Valid: true}
}

// Positive reports whether the amount is available and greater than zero.
// Upstream systems send 0 for "no figure", so only positive values count.
func (a Amount) Positive() bool {
	return a.Valid && a.Value > 0
}

// MarshalJSON renders the number, or the "Not Available" sentinel.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return json.Marshal(amountUnavailable)
	}
	return json.Marshal(a.Value)
}

// Percentage is a percent figure that may be unavailable. The zero value is
// the unavailable percentage.
type Percentage struct {
	Value float64
	Valid bool
}

// Percent returns an available Percentage.
func Percent(v float64) Percentage {
	return Percentage{Value: v, Valid: true}
}

// MarshalJSON renders the number, or the "N/A" sentinel.
func (p Percentage) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return json.Marshal(percentageUnavailable)
	}
	return json.Marshal(p.Value)
}
