package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

// Membership is one course membership record.
// UserID is kept as text since upstream services do not guarantee its format.
type Membership struct {
	UserID string `json:"userId"`
}

// MembershipProvider lists the members of a course.
type MembershipProvider interface {
	CourseMemberships(ctx context.Context, courseID uuid.UUID) ([]Membership, error)
}

// Preferences holds a user's notification switches. A nil flag means the
// user never set it and counts as off.
type Preferences struct {
	Lecture      *bool `json:"lecture"`
	Gamification *bool `json:"gamification"`
}

// SettingsProvider fetches one user's preferences. A nil result with a nil
// error means the user has no settings on file.
type SettingsProvider interface {
	UserSettings(ctx context.Context, userID uuid.UUID) (*Preferences, error)
}

// BatchSettingsProvider is implemented by providers that can fetch many
// users in one call. Users missing from the result have no settings.
type BatchSettingsProvider interface {
	SettingsProvider
	UsersSettings(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*Preferences, error)
}

// DecideStatus maps preferences and event source to a recipient status.
// Missing preferences fail open to UNREAD.
func DecideStatus(p *Preferences, source Source) Status {
	if p == nil {
		return StatusUnread
	}
	flag := p.Gamification
	if source.IsLecture() {
		flag = p.Lecture
	}
	if flag != nil && *flag {
		return StatusUnread
	}
	return StatusDoNotNotify
}

// RecipientResolver turns an event into the set of users to notify.
type RecipientResolver struct {
	provider MembershipProvider
	timeout  time.Duration
	logger   *slog.Logger
}

// ResolverOption configures RecipientResolver and PreferenceResolver.
type ResolverOption func(*resolverOptions)

type resolverOptions struct {
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

func newResolverOptions(opts []ResolverOption) resolverOptions {
	cfg := DefaultConfig()
	o := resolverOptions{
		timeout:     cfg.ProviderTimeout,
		concurrency: cfg.LookupConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithProviderTimeout bounds every individual provider call.
func WithProviderTimeout(d time.Duration) ResolverOption {
	return func(o *resolverOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLookupConcurrency caps parallel per-user settings lookups.
func WithLookupConcurrency(n int) ResolverOption {
	return func(o *resolverOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithResolverLogger sets the logger used to report provider failures.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(o *resolverOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewRecipientResolver creates a resolver. provider may be nil, in which
// case course-addressed events resolve to nobody.
func NewRecipientResolver(provider MembershipProvider, opts ...ResolverOption) *RecipientResolver {
	o := newResolverOptions(opts)
	return &RecipientResolver{
		provider: provider,
		timeout:  o.timeout,
		logger:   o.logger,
	}
}

// Resolve returns the deduplicated recipients of e. An explicit user list
// wins and the membership provider is not consulted. Otherwise course
// members are looked up. Lookup failures yield an empty set.
func (r *RecipientResolver) Resolve(ctx context.Context, e *Event) []uuid.UUID {
	if e == nil {
		return nil
	}
	if len(e.UserIDs) > 0 {
		return dedupe(e.UserIDs)
	}
	if e.CourseID == nil || *e.CourseID == uuid.Nil {
		return nil
	}
	if r.provider == nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "No membership provider configured, skipping course event",
			logger.CourseID(*e.CourseID),
		)
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	memberships, err := r.provider.CourseMemberships(callCtx, *e.CourseID)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to query course memberships",
			logger.CourseID(*e.CourseID),
			logger.Error(err),
		)
		return nil
	}

	ids := make([]uuid.UUID, 0, len(memberships))
	invalid := 0
	for _, m := range memberships {
		id, err := uuid.Parse(m.UserID)
		if err != nil {
			invalid++
			continue
		}
		ids = append(ids, id)
	}
	if invalid > 0 {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "Dropped memberships with unparsable user ids",
			logger.CourseID(*e.CourseID),
			logger.Count(invalid),
		)
	}
	return dedupe(ids)
}

// dedupe keeps the first occurrence of every non-nil id.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// PreferenceResolver decides each recipient's status from their settings.
type PreferenceResolver struct {
	provider    SettingsProvider
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// NewPreferenceResolver creates a resolver. provider may be nil, in which
// case every recipient is UNREAD.
func NewPreferenceResolver(provider SettingsProvider, opts ...ResolverOption) *PreferenceResolver {
	o := newResolverOptions(opts)
	return &PreferenceResolver{
		provider:    provider,
		timeout:     o.timeout,
		concurrency: o.concurrency,
		logger:      o.logger,
	}
}

// Decide returns a status for every user. Lookups run concurrently, each
// bounded by the provider timeout. A failed lookup affects only that user
// and fails open.
func (p *PreferenceResolver) Decide(ctx context.Context, userIDs []uuid.UUID, source Source) map[uuid.UUID]Status {
	prefs := p.fetch(ctx, userIDs)

	out := make(map[uuid.UUID]Status, len(userIDs))
	for i, id := range userIDs {
		out[id] = DecideStatus(prefs[i], source)
	}
	return out
}

func (p *PreferenceResolver) fetch(ctx context.Context, userIDs []uuid.UUID) []*Preferences {
	prefs := make([]*Preferences, len(userIDs))
	if p.provider == nil || len(userIDs) == 0 {
		return prefs
	}

	if batch, ok := p.provider.(BatchSettingsProvider); ok {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		byUser, err := batch.UsersSettings(callCtx, userIDs)
		if err != nil {
			p.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to fetch settings batch, defaulting to visible",
				logger.Count(len(userIDs)),
				logger.Error(err),
			)
			return prefs
		}
		for i, id := range userIDs {
			prefs[i] = byUser[id]
		}
		return prefs
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, id := range userIDs {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()

			s, err := p.provider.UserSettings(callCtx, id)
			if err != nil {
				p.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to fetch user settings, defaulting to visible",
					logger.UserID(id),
					logger.Error(err),
				)
				return nil
			}
			prefs[i] = s
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return prefs
}
