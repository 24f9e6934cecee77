// Package rateview provides a client for the DAT Rateview linehaul rate API.
package rateview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Rateview operations.
type Client interface {
	// Lookup fetches the current spot market rate for one lane and equipment
	// category.
	Lookup(ctx context.Context, accessToken string, req LookupRequest) (*LookupResponse, error)
}

// LookupRequest identifies the lane and equipment to price.
type LookupRequest struct {
	Origin      Place
	Destination Place
	Equipment   string
}

// Place is a city and state pair as the Rateview API spells it.
type Place struct {
	City            string `json:"city"`
	StateOrProvince string `json:"stateOrProvince"`
}

// lookupBody is the wire shape of one lookup element. The API accepts a batch
// array; we always send a single element.
type lookupBody struct {
	Origin           Place            `json:"origin"`
	Destination      Place            `json:"destination"`
	RateType         string           `json:"rateType"`
	Equipment        string           `json:"equipment"`
	IncludeMyRate    bool             `json:"includeMyRate"`
	TargetEscalation targetEscalation `json:"targetEscalation"`
}

type targetEscalation struct {
	EscalationType string `json:"escalationType"`
}

// LookupResponse is the parsed Rateview response.
type LookupResponse struct {
	RateResponses []RateResponseEntry `json:"rateResponses"`
}

// RateResponseEntry wraps one response object. Single-element requests get a
// single entry back.
type RateResponseEntry struct {
	Response RateResponse `json:"response"`
}

// RateResponse holds the rate payload plus the escalation the service settled
// on for the lane.
type RateResponse struct {
	Rate       *Rate           `json:"rate,omitempty"`
	Escalation json.RawMessage `json:"escalation,omitempty"`
}

// Rate is the market rate detail for a lane. Figures the service omits stay
// nil.
type Rate struct {
	Mileage                        *float64    `json:"mileage,omitempty"`
	Reports                        *int        `json:"reports,omitempty"`
	Companies                      *int        `json:"companies,omitempty"`
	StandardDeviation              *float64    `json:"standardDeviation,omitempty"`
	PerMile                        *RateFigure `json:"perMile,omitempty"`
	PerTrip                        *RateFigure `json:"perTrip,omitempty"`
	AverageFuelSurchargePerMileUsd *float64    `json:"averageFuelSurchargePerMileUsd,omitempty"`
	AverageFuelSurchargePerTripUsd *float64    `json:"averageFuelSurchargePerTripUsd,omitempty"`
}

// RateFigure is a rate amount with its reported spread. The zero value
// marshals to an empty object.
type RateFigure struct {
	RateUsd *float64 `json:"rateUsd,omitempty"`
	HighUsd *float64 `json:"highUsd,omitempty"`
	LowUsd  *float64 `json:"lowUsd,omitempty"`
}

// APIError is a non-success response from the Rateview API. The message
// format is part of the report contract.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error: %d", e.StatusCode)
}

// Option configures the Rateview client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new Rateview client. The access token travels per call
// rather than per client because every job supplies its own credential.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://analytics.api.staging.dat.com/linehaulrates",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, accessToken string, req LookupRequest) (*LookupResponse, error) {
	payload := []lookupBody{{
		Origin:           req.Origin,
		Destination:      req.Destination,
		RateType:         "SPOT",
		Equipment:        req.Equipment,
		IncludeMyRate:    true,
		TargetEscalation: targetEscalation{EscalationType: "BEST_FIT"},
	}}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "rateview: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/lookups", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "rateview: create request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	// Single attempt: a failed lookup is reported on its match, never retried.
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "rateview: execute request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "rateview: read response body")
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: string(respBody)}
	}

	var result LookupResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "rateview: unmarshal response")
	}

	return &result, nil
}
