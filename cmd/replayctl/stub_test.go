package main

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/polisai/polis-replay/pkg/domain"
)

// stubSDK is a testify mock of the replay SDK.
type stubSDK struct {
	mock.Mock
}

func (m *stubSDK) Init(appID string, opts domain.InitOptions) error {
	return m.Called(appID, opts).Error(0)
}

func (m *stubSDK) AddTag(ctx context.Context, name string, value any, typ domain.TagType) error {
	return m.Called(ctx, name, value, typ).Error(0)
}

func (m *stubSDK) AddTags(ctx context.Context, tags []domain.Tag) error {
	return m.Called(ctx, tags).Error(0)
}

func (m *stubSDK) UpdateUserData(ctx context.Context, data domain.UserData) error {
	return m.Called(ctx, data).Error(0)
}

func (m *stubSDK) TrackStateTransition(from, to, trigger string) error {
	return m.Called(from, to, trigger).Error(0)
}
