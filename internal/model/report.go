package model

import (
	"encoding/json"

	"github.com/The-Vigil/DAT-vs-market-Rate/pkg/rateview"
)

// Result is the report produced for one job: the original match counters plus
// one processed entry per priceable match, in input order.
type Result struct {
	MatchCounts      json.RawMessage  `json:"matchCounts"`
	ProcessedMatches []ProcessedMatch `json:"processedMatches"`
}

// ProcessedMatch is the enriched view of one load. Key casing is part of the
// service contract and preserved as-is, including the snake_case driver_pay.
type ProcessedMatch struct {
	MatchID        string         `json:"matchId"`
	Origin         ReportPlace    `json:"origin"`
	Destination    ReportPlace    `json:"destination"`
	EquipmentType  EquipmentInfo  `json:"equipmentType"`
	TripMiles      float64        `json:"tripMiles"`
	RateComparison RateComparison `json:"rateComparison"`
	DriverPay      DriverPay      `json:"driver_pay"`
	MarketData     *MarketData    `json:"marketData,omitempty"`
}

// ReportPlace renames stateProv to state for report consumers.
type ReportPlace struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// EquipmentInfo pairs the source equipment code with the Rateview category it
// was priced under.
type EquipmentInfo struct {
	Code         string `json:"code"`
	RateviewType string `json:"rateviewType"`
}

// RateComparison is the broker vs market verdict for one load.
type RateComparison struct {
	BrokerRatePerMile    Amount     `json:"broker_rate_per_mile"`
	MarketRatePerMile    Amount     `json:"market_rate_per_mile"`
	DifferencePercentage Percentage `json:"difference_percentage"`
	Comparison           string     `json:"comparison"`
}

// DriverPay is the estimated driver payout and how it was derived.
type DriverPay struct {
	Amount Amount `json:"amount"`
	Method string `json:"calculation_method"`
}

// MarketData is the Rateview snapshot attached to a match: either a lookup
// error marker or the rate subset. A non-empty Error selects the marker form.
type MarketData struct {
	Error                string
	Mileage              *float64
	Reports              *int
	Companies            *int
	StandardDeviation    *float64
	PerMile              rateview.RateFigure
	PerTrip              rateview.RateFigure
	FuelSurchargePerMile *float64
	FuelSurchargePerTrip *float64
	Escalation           json.RawMessage
}

// MarshalJSON emits the error marker or the rate subset. Absent figures
// serialize as null, absent breakdowns as empty objects, and escalation only
// when the lookup reported one.
func (m MarketData) MarshalJSON() ([]byte, error) {
	if m.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: m.Error})
	}
	return json.Marshal(struct {
		Mileage              *float64            `json:"mileage"`
		Reports              *int                `json:"reports"`
		Companies            *int                `json:"companies"`
		StandardDeviation    *float64            `json:"standardDeviation"`
		PerMile              rateview.RateFigure `json:"perMile"`
		PerTrip              rateview.RateFigure `json:"perTrip"`
		FuelSurchargePerMile *float64            `json:"averageFuelSurchargePerMileUsd"`
		FuelSurchargePerTrip *float64            `json:"averageFuelSurchargePerTripUsd"`
		Escalation           json.RawMessage     `json:"escalation,omitempty"`
	}{
		Mileage:              m.Mileage,
		Reports:              m.Reports,
		Companies:            m.Companies,
		StandardDeviation:    m.StandardDeviation,
		PerMile:              m.PerMile,
		PerTrip:              m.PerTrip,
		FuelSurchargePerMile: m.FuelSurchargePerMile,
		FuelSurchargePerTrip: m.FuelSurchargePerTrip,
		Escalation:           m.Escalation,
	})
}
