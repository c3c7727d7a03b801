package notifications_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/notifyhub/pkg/notifications"
)

type MockMembershipProvider struct {
	mock.Mock
}

func (m *MockMembershipProvider) CourseMemberships(ctx context.Context, courseID uuid.UUID) ([]notifications.Membership, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notifications.Membership), args.Error(1)
}

type MockSettingsProvider struct {
	mock.Mock
}

func (m *MockSettingsProvider) UserSettings(ctx context.Context, userID uuid.UUID) (*notifications.Preferences, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notifications.Preferences), args.Error(1)
}

type MockBatchSettingsProvider struct {
	MockSettingsProvider
}

func (m *MockBatchSettingsProvider) UsersSettings(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*notifications.Preferences, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*notifications.Preferences), args.Error(1)
}

// MockStorage lets manager tests inject storage failures.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateWithRecipients(ctx context.Context, n notifications.Notification, recipients []notifications.Recipient) (*notifications.Notification, []notifications.Recipient, error) {
	args := m.Called(ctx, n, recipients)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*notifications.Notification), args.Get(1).([]notifications.Recipient), args.Error(2)
}

func (m *MockStorage) Get(ctx context.Context, id uuid.UUID) (*notifications.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notifications.Notification), args.Error(1)
}

func (m *MockStorage) Recipients(ctx context.Context, notificationID uuid.UUID) ([]notifications.Recipient, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notifications.Recipient), args.Error(1)
}

func (m *MockStorage) ListForUser(ctx context.Context, userID uuid.UUID) ([]notifications.View, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notifications.View), args.Error(1)
}

func (m *MockStorage) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) MarkOneRead(ctx context.Context, userID, notificationID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID, notificationID)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) DeleteOne(ctx context.Context, userID, notificationID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID, notificationID)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) DeleteAll(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
