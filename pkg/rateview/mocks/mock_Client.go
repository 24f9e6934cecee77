// Package mocks provides test doubles for the rateview client.
package mocks

import (
	"context"

	rateview "github.com/The-Vigil/DAT-vs-market-Rate/pkg/rateview"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Lookup provides a mock function with given fields: ctx, accessToken, req
func (_m *MockClient) Lookup(ctx context.Context, accessToken string, req rateview.LookupRequest) (*rateview.LookupResponse, error) {
	ret := _m.Called(ctx, accessToken, req)

	if len(ret) == 0 {
		panic("no return value specified for Lookup")
	}

	var r0 *rateview.LookupResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, rateview.LookupRequest) (*rateview.LookupResponse, error)); ok {
		return rf(ctx, accessToken, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, rateview.LookupRequest) *rateview.LookupResponse); ok {
		r0 = rf(ctx, accessToken, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*rateview.LookupResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, rateview.LookupRequest) error); ok {
		r1 = rf(ctx, accessToken, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
