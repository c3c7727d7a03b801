package notifications

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	DefaultTitle         = "Notification"
	DefaultHref          = "/"
	MaxDescriptionLength = 1000 // characters, matches the notifications.description column
)

// Status is a recipient's visibility and read state for one notification.
type Status string

const (
	StatusUnread      Status = "UNREAD"
	StatusRead        Status = "READ"
	StatusDoNotNotify Status = "DO_NOT_NOTIFY"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUnread, StatusRead, StatusDoNotNotify:
		return true
	}
	return false
}

// Source names the service area an event originated from.
type Source string

const (
	SourceCourse       Source = "COURSE"
	SourceChapter      Source = "CHAPTER"
	SourceContent      Source = "CONTENT"
	SourceMedia        Source = "MEDIA"
	SourceSkillLevel   Source = "SKILL_LEVEL"
	SourceReward       Source = "REWARD"
	SourceGamification Source = "GAMIFICATION"
	SourceSystem       Source = "SYSTEM"
	SourceForum        Source = "FORUM"
	SourceQuiz         Source = "QUIZ"
)

// IsLecture reports whether the source is governed by the lecture
// notification preference. Everything else, including unknown and empty
// sources, falls under the gamification preference.
func (s Source) IsLecture() bool {
	switch Source(strings.ToUpper(string(s))) {
	case SourceCourse, SourceChapter, SourceContent, SourceMedia:
		return true
	}
	return false
}

// Notification is one message instance shown to a set of users.
// It is immutable once stored.
type Notification struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Href        string     `json:"href"`
	CourseID    *uuid.UUID `json:"course_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Recipient links one user to one notification.
type Recipient struct {
	ID             uuid.UUID  `json:"id"`
	NotificationID uuid.UUID  `json:"notification_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Status         Status     `json:"status"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// View is a notification as seen by one recipient.
type View struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Href        string     `json:"href"`
	CourseID    *uuid.UUID `json:"course_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Read        bool       `json:"read"`
}

// NewView projects n for a recipient in the given status.
func NewView(n Notification, status Status) View {
	return View{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Href:        n.Href,
		CourseID:    n.CourseID,
		CreatedAt:   n.CreatedAt,
		Read:        status != StatusUnread,
	}
}

// Event is the inbound message produced by other services.
// Field names follow the platform's event contract.
type Event struct {
	UserIDs   []uuid.UUID `json:"userIds,omitempty"`
	CourseID  *uuid.UUID  `json:"courseId,omitempty"`
	Source    Source      `json:"serverSource,omitempty"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Link      string      `json:"link"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
}

// NotificationFromEvent builds the notification fields for e, applying
// defaults for blank title, link and timestamp and truncating the
// description to MaxDescriptionLength characters. NUL characters and
// invalid UTF-8 are removed since Postgres text columns reject them.
func NotificationFromEvent(e *Event, now time.Time) Notification {
	n := Notification{
		ID:          uuid.New(),
		Title:       orDefault(e.Title, DefaultTitle),
		Description: truncate(orDefault(e.Message, ""), MaxDescriptionLength),
		Href:        orDefault(e.Link, DefaultHref),
		CreatedAt:   now,
	}
	if e.Timestamp != nil && !e.Timestamp.IsZero() {
		n.CreatedAt = *e.Timestamp
	}
	if e.CourseID != nil && *e.CourseID != uuid.Nil {
		id := *e.CourseID
		n.CourseID = &id
	}
	return n
}

func orDefault(s, def string) string {
	s = sanitize(s)
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func sanitize(s string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
