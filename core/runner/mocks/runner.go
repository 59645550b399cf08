package mocks

import (
	"context"

	"inventory-agent/core/runner"

	"github.com/stretchr/testify/mock"
)

// Runner is a mock implementation of runner.Runner
type Runner struct {
	mock.Mock
}

func (m *Runner) Run(ctx context.Context, cmd runner.Command) (runner.Result, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(runner.Result), args.Error(1)
}
