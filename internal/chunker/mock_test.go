package chunker

import (
	"context"

	"github.com/stretchr/testify/mock"
)

var (
	_ Recognizer = (*mockRecognizer)(nil)
	_ Rasterizer = (*mockRasterizer)(nil)
)

type mockRecognizer struct {
	mock.Mock
}

func (m *mockRecognizer) Recognize(ctx context.Context, mime string, image []byte) (string, error) {
	args := m.Called(ctx, mime, image)
	return args.String(0), args.Error(1)
}

type mockRasterizer struct {
	mock.Mock
}

func (m *mockRasterizer) RenderPage(ctx context.Context, pdf []byte, page int) ([]byte, error) {
	args := m.Called(ctx, pdf, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
