// Package downstream talks to the platform services notifications depend on.
//
// Both services expose GraphQL over HTTP. Client sends one operation per
// call with a per-call timeout and an optional circuit breaker, so a service
// that keeps failing is skipped quickly instead of slowing down every event.
//
//	courses := downstream.NewCourseClient(downstream.NewClient(cfg.CourseServiceURL,
//	    downstream.WithTimeout(cfg.Timeout),
//	    downstream.WithCircuitBreaker(downstream.NewCircuitBreaker(5, 2, 30*time.Second)),
//	))
//
//	members, err := courses.CourseMemberships(ctx, courseID)
//
// CourseClient satisfies notifications.MembershipProvider and SettingsClient
// satisfies notifications.SettingsProvider.
package downstream
