package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/crystul/auth-server/internal/model"
)

// TokenManager is a mock type for the model.TokenManager type.
type TokenManager struct {
	mock.Mock
}

// Sign provides a mock function with given fields: token
func (_m *TokenManager) Sign(token model.Token) (string, error) {
	ret := _m.Called(token)
	return ret.String(0), ret.Error(1)
}

// Parse provides a mock function with given fields: raw
func (_m *TokenManager) Parse(raw string) (model.Token, error) {
	ret := _m.Called(raw)
	return ret.Get(0).(model.Token), ret.Error(1)
}

// NewTokenManager creates a new instance of TokenManager. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewTokenManager(t interface {
	mock.TestingT
	Cleanup(func())
}) *TokenManager {
	m := &TokenManager{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
