package mediaservice

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	args := m.Called(filename, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockUploader) Delete(ctx context.Context, fileURL string) error {
	args := m.Called(fileURL)
	return args.Error(0)
}
