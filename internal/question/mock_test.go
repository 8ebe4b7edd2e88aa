package question

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/eduflow/eduflow-cli/pkg/llm"
)

var _ llm.Client = (*mockLLM)(nil)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
