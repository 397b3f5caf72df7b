package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"connext-backend/internal/imagestore"
	"connext-backend/internal/models"
	"connext-backend/internal/ws"
)

type ImageStoreMock struct {
	mock.Mock
}

var _ imagestore.Store = (*ImageStoreMock)(nil)

func (m *ImageStoreMock) Upload(ctx context.Context, payload string) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *ImageStoreMock) Destroy(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Deliver(ctx context.Context, event models.Event, audience ws.Audience) ws.Report {
	args := m.Called(ctx, event, audience)
	if report, ok := args.Get(0).(ws.Report); ok {
		return report
	}
	return ws.Report{}
}
