package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// Denylist is a mock type for the model.Denylist type.
type Denylist struct {
	mock.Mock
}

// Revoke provides a mock function with given fields: ctx, id, until
func (_m *Denylist) Revoke(ctx context.Context, id string, until time.Time) error {
	ret := _m.Called(ctx, id, until)
	return ret.Error(0)
}

// IsRevoked provides a mock function with given fields: ctx, id
func (_m *Denylist) IsRevoked(ctx context.Context, id string) (bool, error) {
	ret := _m.Called(ctx, id)
	return ret.Bool(0), ret.Error(1)
}

// NewDenylist creates a new instance of Denylist. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewDenylist(t interface {
	mock.TestingT
	Cleanup(func())
}) *Denylist {
	m := &Denylist{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
