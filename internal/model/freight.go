package model

import "encoding/json"

// FreightData is the load-search payload a job carries: the match list plus
// the search-level counters, which pass through to the report untouched.
type FreightData struct {
	MatchCounts json.RawMessage `json:"matchCounts"`
	Matches     []Match         `json:"matches"`
}

// Match is a single load-search result. Every field is optional on the wire,
// and numeric rates report 0 when the source has no figure.
type Match struct {
	MatchID                string                 `json:"matchId"`
	TripLength             TripLength             `json:"tripLength"`
	EstimatedRatePerMile   float64                `json:"estimatedRatePerMile"`
	PrivateNetworkRateInfo PrivateNetworkRateInfo `json:"privateNetworkRateInfo"`
	LoadBoardRateInfo      LoadBoardRateInfo      `json:"loadBoardRateInfo"`
	MatchingAssetInfo      MatchingAssetInfo      `json:"matchingAssetInfo"`
}

// TripLength holds the trip distance.
type TripLength struct {
	Miles float64 `json:"miles"`
}

// PrivateNetworkRateInfo carries the broker's bookable offer when one exists.
type PrivateNetworkRateInfo struct {
	Bookable Bookable `json:"bookable"`
}

// Bookable wraps the private network rate.
type Bookable struct {
	Rate BookableRate `json:"rate"`
}

// BookableRate is the private network total for the load in USD.
type BookableRate struct {
	RateUsd float64 `json:"rateUsd"`
}

// LoadBoardRateInfo carries the public load board posting.
type LoadBoardRateInfo struct {
	NonBookable NonBookable `json:"nonBookable"`
}

// NonBookable is the load board total for the load in USD.
type NonBookable struct {
	RateUsd float64 `json:"rateUsd"`
}

// MatchingAssetInfo locates the load and names its equipment. The destination
// nests its place one level deeper than the origin on the wire.
type MatchingAssetInfo struct {
	EquipmentType string      `json:"equipmentType"`
	Origin        *Place      `json:"origin"`
	Destination   Destination `json:"destination"`
}

// Destination wraps the destination place.
type Destination struct {
	Place *Place `json:"place"`
}

// Place is a city and state pair as the load-search API spells it.
type Place struct {
	City      string `json:"city"`
	StateProv string `json:"stateProv"`
}

// Empty reports whether the place carries no location at all. A match with an
// empty origin or destination cannot be priced and is skipped.
func (p *Place) Empty() bool {
	return p == nil || (p.City == "" && p.StateProv == "")
}
