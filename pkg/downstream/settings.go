package downstream

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifyhub/pkg/notifications"
)

const userSettingsQuery = `query UserSettings($userId: UUID!) {
  findUserSettings(userId: $userId) {
    notification {
      lecture
      gamification
    }
  }
}`

// SettingsClient queries notification preferences from the user service.
type SettingsClient struct {
	gql *Client
}

// NewSettingsClient wraps a GraphQL client pointed at the user service.
func NewSettingsClient(gql *Client) *SettingsClient {
	return &SettingsClient{gql: gql}
}

// UserSettings returns the user's notification preferences, or nil when
// the user has none on file.
func (c *SettingsClient) UserSettings(ctx context.Context, userID uuid.UUID) (*notifications.Preferences, error) {
	var out struct {
		Settings *struct {
			Notification *notifications.Preferences `json:"notification"`
		} `json:"findUserSettings"`
	}
	if err := c.gql.Do(ctx, userSettingsQuery, map[string]any{"userId": userID}, &out); err != nil {
		return nil, err
	}
	if out.Settings == nil {
		return nil, nil
	}
	return out.Settings.Notification, nil
}

var _ notifications.SettingsProvider = (*SettingsClient)(nil)
