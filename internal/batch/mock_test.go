package batch

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/eduflow/eduflow-cli/internal/sidecar"
	"github.com/eduflow/eduflow-cli/pkg/llm"
)

var (
	_ llm.Client = (*mockLLM)(nil)
	_ Persister  = (*mockPersister)(nil)
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockPersister struct {
	mock.Mock
}

func (m *mockPersister) Save(f *sidecar.File) error {
	args := m.Called(f)
	return args.Error(0)
}
