package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/The-Vigil/DAT-vs-market-Rate/internal/config"
	"github.com/The-Vigil/DAT-vs-market-Rate/internal/model"
	"github.com/The-Vigil/DAT-vs-market-Rate/pkg/rateview"
	"github.com/The-Vigil/DAT-vs-market-Rate/pkg/rateview/mocks"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Batch.MaxConcurrentLookups = 4
	return cfg
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// rateResponse builds a lookup response with the given per-mile market rate.
func rateResponse(perMile float64) *rateview.LookupResponse {
	return &rateview.LookupResponse{
		RateResponses: []rateview.RateResponseEntry{{
			Response: rateview.RateResponse{
				Rate: &rateview.Rate{
					Mileage:                        ptrFloat64(645),
					Reports:                        ptrInt(18),
					Companies:                      ptrInt(11),
					StandardDeviation:              ptrFloat64(0.31),
					PerMile:                        &rateview.RateFigure{RateUsd: ptrFloat64(perMile), HighUsd: ptrFloat64(perMile + 0.4), LowUsd: ptrFloat64(perMile - 0.4)},
					PerTrip:                        &rateview.RateFigure{RateUsd: ptrFloat64(perMile * 645)},
					AverageFuelSurchargePerMileUsd: ptrFloat64(0.42),
				},
				Escalation: json.RawMessage(`{"escalationType": "BEST_FIT"}`),
			},
		}},
	}
}

func TestProcess_EnrichesMatch(t *testing.T) {
	t.Parallel()

	freight := json.RawMessage(`{
		"matchCounts": {"totalMatches": 1},
		"matches": [{
			"matchId": "m-001",
			"tripLength": {"miles": 500},
			"estimatedRatePerMile": 2.15,
			"privateNetworkRateInfo": {"bookable": {"rate": {"rateUsd": 1400}}},
			"matchingAssetInfo": {
				"equipmentType": "V",
				"origin": {"city": "Dallas", "stateProv": "TX"},
				"destination": {"place": {"city": "Atlanta", "stateProv": "GA"}}
			}
		}]
	}`)

	client := mocks.NewMockClient(t)
	client.On("Lookup", mock.Anything, "job-token", rateview.LookupRequest{
		Origin:      rateview.Place{City: "Dallas", StateOrProvince: "TX"},
		Destination: rateview.Place{City: "Atlanta", StateOrProvince: "GA"},
		Equipment:   "VAN",
	}).Return(rateResponse(2.50), nil).Once()

	p := New(testConfig(), client)
	result, err := p.Process(context.Background(), freight, "job-token")
	require.NoError(t, err)

	assert.JSONEq(t, `{"totalMatches": 1}`, string(result.MatchCounts))
	require.Len(t, result.ProcessedMatches, 1)

	pm := result.ProcessedMatches[0]
	assert.Equal(t, "m-001", pm.MatchID)
	assert.Equal(t, model.ReportPlace{City: "Dallas", State: "TX"}, pm.Origin)
	assert.Equal(t, model.ReportPlace{City: "Atlanta", State: "GA"}, pm.Destination)
	assert.Equal(t, model.EquipmentInfo{Code: "V", RateviewType: "VAN"}, pm.EquipmentType)
	assert.InDelta(t, 500.0, pm.TripMiles, 0.001)

	// (2.15 - 2.50) / 2.50 * 100 = -14
	assert.Equal(t, "14% below market rate", pm.RateComparison.Comparison)
	assert.InDelta(t, -14.0, pm.RateComparison.DifferencePercentage.Value, 0.001)
	assert.InDelta(t, 2.15, pm.RateComparison.BrokerRatePerMile.Value, 0.001)
	assert.InDelta(t, 2.50, pm.RateComparison.MarketRatePerMile.Value, 0.001)

	// 25% of the 1400 total.
	assert.Equal(t, "percentage_of_total", pm.DriverPay.Method)
	assert.InDelta(t, 350.0, pm.DriverPay.Amount.Value, 0.001)

	require.NotNil(t, pm.MarketData)
	assert.Empty(t, pm.MarketData.Error)
	require.NotNil(t, pm.MarketData.Mileage)
	assert.InDelta(t, 645.0, *pm.MarketData.Mileage, 0.001)
	require.NotNil(t, pm.MarketData.PerMile.RateUsd)
	assert.InDelta(t, 2.50, *pm.MarketData.PerMile.RateUsd, 0.001)
	assert.JSONEq(t, `{"escalationType": "BEST_FIT"}`, string(pm.MarketData.Escalation))
}

func TestProcess_SkipsMatchesWithoutPlaces(t *testing.T) {
	t.Parallel()

	freight := json.RawMessage(`{
		"matches": [
			{
				"matchId": "m-no-origin",
				"matchingAssetInfo": {
					"equipmentType": "V",
					"destination": {"place": {"city": "Atlanta", "stateProv": "GA"}}
				}
			},
			{
				"matchId": "m-ok",
				"matchingAssetInfo": {
					"equipmentType": "V",
					"origin": {"city": "Dallas", "stateProv": "TX"},
					"destination": {"place": {"city": "Atlanta", "stateProv": "GA"}}
				}
			},
			{
				"matchId": "m-no-dest",
				"matchingAssetInfo": {
					"equipmentType": "V",
					"origin": {"city": "Dallas", "stateProv": "TX"},
					"destination": {"place": {}}
				}
			}
		]
	}`)

	client := mocks.NewMockClient(t)
	client.On("Lookup", mock.Anything, mock.Anything, mock.Anything).Return(rateResponse(2.50), nil).Once()

	p := New(testConfig(), client)
	result, err := p.Process(context.Background(), freight, "job-token")
	require.NoError(t, err)

	require.Len(t, result.ProcessedMatches, 1)
	assert.Equal(t, "m-ok", result.ProcessedMatches[0].MatchID)
	client.AssertNumberOfCalls(t, "Lookup", 1)
}

func TestProcess_MissingMatchCountsDefaultsToEmptyObject(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockClient(t)

	p := New(testConfig(), client)
	result, err := p.Process(context.Background(), json.RawMessage(`{"matches": []}`), "job-token")
	require.NoError(t, err)

	assert.JSONEq(t, `{}`, string(result.MatchCounts))
	assert.Empty(t, result.ProcessedMatches)
}

func TestProcess_APIErrorBecomesMarker(t *testing.T) {
	t.Parallel()

	freight := json.RawMessage(`{
		"matches": [
			{
				"matchId": "m-001",
				"estimatedRatePerMile": 2.15,
				"matchingAssetInfo": {
					"equipmentType": "V",
					"origin": {"city": "Dallas", "stateProv": "TX"},
					"destination": {"place": {"city": "Atlanta", "stateProv": "GA"}}
				}
			},
			{
				"matchId": "m-002",
				"estimatedRatePerMile": 2.50,
				"matchingAssetInfo": {
					"equipmentType": "V",
					"origin": {"city": "Chicago", "stateProv": "IL"},
					"destination": {"place": {"city": "Denver", "stateProv": "CO"}}
				}
			}
		]
	}`)

	client := mocks.NewMockClient(t)
	client.On("Lookup", mock.Anything, mock.Anything, mock.MatchedBy(func(req rateview.LookupRequest) bool {
		return req.Origin.City == "Dallas"
	})).Return(nil, &rateview.APIError{StatusCode: 500, Detail: "upstream exploded"}).Once()
	client.On("Lookup", mock.Anything, mock.Anything, mock.MatchedBy(func(req rateview.LookupRequest) bool {
		return req.Origin.City == "Chicago"
	})).Return(rateResponse(2.50), nil).Once()

	p := New(testConfig(), client)
	result, err := p.Process(context.Background(), freight, "job-token")
	require.NoError(t, err)

	require.Len(t, result.ProcessedMatches, 2)
	pm := result.ProcessedMatches[0]

	require.NotNil(t, pm.MarketData)
	assert.Equal(t, "API Error: 500", pm.MarketData.Error)

	// The broker side still reports; the market side does not.
	assert.Equal(t, "Rate comparison not possible", pm.RateComparison.Comparison)
	assert.True(t, pm.RateComparison.BrokerRatePerMile.Valid)
	assert.False(t, pm.RateComparison.MarketRatePerMile.Valid)

	// The failure stays scoped to its match.
	other := result.ProcessedMatches[1]
	require.NotNil(t, other.MarketData)
	assert.Empty(t, other.MarketData.Error)
	assert.Equal(t, "At market rate", other.RateComparison.Comparison)
}

func TestProcess_TransportErrorBecomesExceptionMarker(t *testing.T) {
	t.Parallel()

	freight := json.RawMessage(`{
		"matches": [{
			"matchId": "m-001",
			"matchingAssetInfo": {
				"origin": {"city": "Dallas", "stateProv": "TX"},
				"destination": {"place": {"city": "Atlanta", "stateProv": "GA"}}
			}
		}]
	}`)

	client := mocks.NewMockClient(t)
	client.On("Lookup", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, eris.New("rateview: execute request: connection refused")).Once()

	p := New(testConfig(), client)
	result, err := p.Process(context.Background(), freight, "job-token")
	require.NoError(t, err)

	require.Len(t, result.ProcessedMatches, 1)
	require.NotNil(t, result.ProcessedMatches[0].MarketData)
	assert.Contains(t, result.ProcessedMatches[0].MarketData.Error, "Exception: ")
	assert.Contains(t, result.ProcessedMatches[0].MarketData.Error, "connection refused")
}

func TestProcess_NoRateDataOmitsMarketData(t *testing.T) {
	t.Parallel()

	freight := json.RawMessage(`{
		"matches": [
			{
				"matchId": "m-empty-responses",
				"matchingAssetInfo": {
					"origin": {"city": "Dallas", "stateProv": "TX"},
					"destination": {"place": {"city": "Atlanta", "stateProv": "GA"}}
				}
			},
			{
				"matchId": "m-no-rate",
				"matchingAssetInfo": {
					"origin": {"city": "Chicago", "stateProv": "IL"},
					"destination": {"place": {"city": "Denver", "stateProv": "CO"}}
				}
			}
		]
	}`)

	client := mocks.NewMockClient(t)
	client.On("Lookup", mock.Anything, mock.Anything, mock.MatchedBy(func(req rateview.LookupRequest) bool {
		return req.Origin.City == "Dallas"
	})).Return(&rateview.LookupResponse{}, nil).Once()
	client.On("Lookup", mock.Anything, mock.Anything, mock.MatchedBy(func(req rateview.LookupRequest) bool {
		return req.Origin.City == "Chicago"
	})).Return(&rateview.LookupResponse{
		RateResponses: []rateview.RateResponseEntry{{Response: rateview.RateResponse{}}},
	}, nil).Once()

	p := New(testConfig(), client)
	result, err := p.Process(context.Background(), freight, "job-token")
	require.NoError(t, err)

	require.Len(t, result.ProcessedMatches, 2)
	assert.Nil(t, result.ProcessedMatches[0].MarketData)
	assert.Nil(t, result.ProcessedMatches[1].MarketData)
	assert.Equal(t, "Rate comparison not possible", result.ProcessedMatches[0].RateComparison.Comparison)
}

func TestProcess_EquipmentCategories(t *testing.T) {
	t.Parallel()

	freight := json.RawMessage(`{
		"matches": [
			{"matchId": "m-van", "matchingAssetInfo": {"equipmentType": "VA", "origin": {"city": "A", "stateProv": "TX"}, "destination": {"place": {"city": "B", "stateProv": "GA"}}}},
			{"matchId": "m-reefer", "matchingAssetInfo": {"equipmentType": "R2", "origin": {"city": "A", "stateProv": "TX"}, "destination": {"place": {"city": "B", "stateProv": "GA"}}}},
			{"matchId": "m-unknown", "matchingAssetInfo": {"equipmentType": "ZZ", "origin": {"city": "A", "stateProv": "TX"}, "destination": {"place": {"city": "B", "stateProv": "GA"}}}}
		]
	}`)

	var mu sync.Mutex
	seen := map[string]string{}

	client := mocks.NewMockClient(t)
	client.On("Lookup", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			req := args.Get(2).(rateview.LookupRequest)
			mu.Lock()
			seen[req.Equipment] = req.Equipment
			mu.Unlock()
		}).
		Return(rateResponse(2.50), nil).Times(3)

	p := New(testConfig(), client)
	result, err := p.Process(context.Background(), freight, "job-token")
	require.NoError(t, err)

	require.Len(t, result.ProcessedMatches, 3)
	assert.Equal(t, "VAN", result.ProcessedMatches[0].EquipmentType.RateviewType)
	assert.Equal(t, "REEFER", result.ProcessedMatches[1].EquipmentType.RateviewType)
	assert.Equal(t, "FLATBED", result.ProcessedMatches[2].EquipmentType.RateviewType)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, "VAN")
	assert.Contains(t, seen, "REEFER")
	assert.Contains(t, seen, "FLATBED")
}

func TestProcess_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	matches := make([]string, 6)
	for i := range matches {
		matches[i] = `{
			"matchId": "m-` + string(rune('0'+i)) + `",
			"matchingAssetInfo": {
				"equipmentType": "V",
				"origin": {"city": "City` + string(rune('0'+i)) + `", "stateProv": "TX"},
				"destination": {"place": {"city": "B", "stateProv": "GA"}}
			}
		}`
	}
	freight := json.RawMessage(`{"matches": [` + matches[0] + `,` + matches[1] + `,` + matches[2] + `,` + matches[3] + `,` + matches[4] + `,` + matches[5] + `]}`)

	client := mocks.NewMockClient(t)
	client.On("Lookup", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			// The first lane is the slowest, so completion order inverts
			// submission order unless the pipeline re-assembles it.
			req := args.Get(2).(rateview.LookupRequest)
			if req.Origin.City == "City0" {
				time.Sleep(50 * time.Millisecond)
			}
		}).
		Return(rateResponse(2.50), nil).Times(6)

	cfg := testConfig()
	cfg.Batch.MaxConcurrentLookups = 3

	p := New(cfg, client)
	result, err := p.Process(context.Background(), freight, "job-token")
	require.NoError(t, err)

	require.Len(t, result.ProcessedMatches, 6)
	for i, pm := range result.ProcessedMatches {
		assert.Equal(t, "m-"+string(rune('0'+i)), pm.MatchID)
	}
}

func TestProcess_ProgressCallback(t *testing.T) {
	t.Parallel()

	freight := json.RawMessage(`{
		"matches": [
			{"matchId": "a", "matchingAssetInfo": {"origin": {"city": "A", "stateProv": "TX"}, "destination": {"place": {"city": "B", "stateProv": "GA"}}}},
			{"matchId": "b", "matchingAssetInfo": {"origin": {"city": "A", "stateProv": "TX"}, "destination": {"place": {"city": "B", "stateProv": "GA"}}}}
		]
	}`)

	client := mocks.NewMockClient(t)
	client.On("Lookup", mock.Anything, mock.Anything, mock.Anything).Return(rateResponse(2.50), nil).Times(2)

	var mu sync.Mutex
	var calls []int

	p := New(testConfig(), client).WithProgress(func(done, total int) {
		mu.Lock()
		calls = append(calls, done)
		mu.Unlock()
		assert.Equal(t, 2, total)
	})

	_, err := p.Process(context.Background(), freight, "job-token")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, calls, 2)
	assert.Contains(t, calls, 1)
	assert.Contains(t, calls, 2)
}

func TestProcess_BadFreightJSON(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockClient(t)

	p := New(testConfig(), client)
	_, err := p.Process(context.Background(), json.RawMessage(`"not an object"`), "job-token")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse freight data")
}

func TestProcess_ZeroConcurrencyStillRuns(t *testing.T) {
	t.Parallel()

	freight := json.RawMessage(`{
		"matches": [{
			"matchId": "m-001",
			"matchingAssetInfo": {
				"origin": {"city": "Dallas", "stateProv": "TX"},
				"destination": {"place": {"city": "Atlanta", "stateProv": "GA"}}
			}
		}]
	}`)

	client := mocks.NewMockClient(t)
	client.On("Lookup", mock.Anything, mock.Anything, mock.Anything).Return(rateResponse(2.50), nil).Once()

	cfg := &config.Config{} // MaxConcurrentLookups left at 0
	p := New(cfg, client)
	result, err := p.Process(context.Background(), freight, "job-token")

	require.NoError(t, err)
	assert.Len(t, result.ProcessedMatches, 1)
}
