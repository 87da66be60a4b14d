package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/crystul/auth-server/internal/model"
)

// Provider is a mock type for the provider.Provider type.
type Provider struct {
	mock.Mock
}

// Name provides a mock function with no fields
func (_m *Provider) Name() string {
	ret := _m.Called()
	return ret.String(0)
}

// AuthCodeURL provides a mock function with given fields: state, verifier
func (_m *Provider) AuthCodeURL(state, verifier string) string {
	ret := _m.Called(state, verifier)
	return ret.String(0)
}

// Exchange provides a mock function with given fields: ctx, code, verifier
func (_m *Provider) Exchange(ctx context.Context, code, verifier string) (model.Assertion, error) {
	ret := _m.Called(ctx, code, verifier)
	return ret.Get(0).(model.Assertion), ret.Error(1)
}

// NewProvider creates a new instance of Provider. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *Provider {
	m := &Provider{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
