package mocks

import (
	"context"

	"github.com/kdduha/image-captioner/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockCaptionProvider struct {
	mock.Mock
}

func (m *MockCaptionProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCaptionProvider) GenerateCaption(ctx context.Context, req *models.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
