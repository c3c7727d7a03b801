package downstream

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifyhub/pkg/notifications"
)

const courseMembershipsQuery = `query CourseMemberships($courseId: UUID!) {
  courseMembershipsByCourseId(courseId: $courseId) {
    userId
  }
}`

// CourseClient queries course memberships from the course service.
type CourseClient struct {
	gql *Client
}

// NewCourseClient wraps a GraphQL client pointed at the course service.
func NewCourseClient(gql *Client) *CourseClient {
	return &CourseClient{gql: gql}
}

// CourseMemberships returns every membership of the course.
func (c *CourseClient) CourseMemberships(ctx context.Context, courseID uuid.UUID) ([]notifications.Membership, error) {
	var out struct {
		Memberships []notifications.Membership `json:"courseMembershipsByCourseId"`
	}
	if err := c.gql.Do(ctx, courseMembershipsQuery, map[string]any{"courseId": courseID}, &out); err != nil {
		return nil, err
	}
	if out.Memberships == nil {
		return []notifications.Membership{}, nil
	}
	return out.Memberships, nil
}

var _ notifications.MembershipProvider = (*CourseClient)(nil)
