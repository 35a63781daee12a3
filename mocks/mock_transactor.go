package mocks

import (
	"context"
)

// MockTransactor is a passthrough implementation of port.Transactor for
// tests: the callback runs against the plain context, and a rollback is
// simulated by the callback's own error return.
type MockTransactor struct{}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
