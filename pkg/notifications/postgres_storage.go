package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/pg"
)

// DB is the subset of *pgxpool.Pool used by PostgresStorage.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStorage keeps notifications in PostgreSQL. The schema is shipped
// as goose migrations, see Migrations.
type PostgresStorage struct {
	db   DB
	opts storageOptions
}

// NewPostgresStorage creates a storage backed by db.
func NewPostgresStorage(db DB, opts ...StorageOption) *PostgresStorage {
	return &PostgresStorage{
		db:   db,
		opts: newStorageOptions(opts),
	}
}

const (
	insertNotificationSQL = `
		INSERT INTO notifications (id, title, description, href, course_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	insertRecipientSQL = `
		INSERT INTO notification_recipients (id, notification_id, user_id, status, read_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (notification_id, user_id) DO NOTHING`

	selectNotificationSQL = `
		SELECT id, title, description, href, course_id, created_at
		FROM notifications
		WHERE id = $1`

	selectRecipientsSQL = `
		SELECT id, notification_id, user_id, status, read_at
		FROM notification_recipients
		WHERE notification_id = $1
		ORDER BY user_id`

	listForUserSQL = `
		SELECT n.id, n.title, n.description, n.href, n.course_id, n.created_at, r.status
		FROM notification_recipients r
		JOIN notifications n ON n.id = r.notification_id
		WHERE r.user_id = $1 AND r.status <> 'DO_NOT_NOTIFY'
		ORDER BY n.created_at DESC, n.seq ASC`

	countUnreadSQL = `
		SELECT COUNT(*)
		FROM notification_recipients
		WHERE user_id = $1 AND status = 'UNREAD'`

	markAllReadSQL = `
		UPDATE notification_recipients
		SET status = 'READ', read_at = $2
		WHERE user_id = $1 AND status = 'UNREAD'`

	markOneReadSQL = `
		UPDATE notification_recipients
		SET status = 'READ', read_at = COALESCE(read_at, $3)
		WHERE user_id = $1 AND notification_id = $2 AND status <> 'DO_NOT_NOTIFY'`

	lockNotificationSQL = `
		SELECT id FROM notifications WHERE id = $1 FOR UPDATE`

	lockUserNotificationsSQL = `
		SELECT id FROM notifications
		WHERE id IN (SELECT notification_id FROM notification_recipients WHERE user_id = $1)
		ORDER BY id
		FOR UPDATE`

	deleteRecipientSQL = `
		DELETE FROM notification_recipients
		WHERE user_id = $1 AND notification_id = $2`

	deleteUserRecipientsSQL = `
		DELETE FROM notification_recipients
		WHERE user_id = $1 AND notification_id = ANY($2::uuid[])`

	deleteOrphansSQL = `
		DELETE FROM notifications n
		WHERE n.id = ANY($1::uuid[])
		  AND NOT EXISTS (SELECT 1 FROM notification_recipients r WHERE r.notification_id = n.id)`
)

func (s *PostgresStorage) CreateWithRecipients(ctx context.Context, n Notification, recipients []Recipient) (*Notification, []Recipient, error) {
	if len(recipients) == 0 {
		return nil, nil, ErrNoRecipients
	}
	for _, r := range recipients {
		if !r.Status.Valid() {
			return nil, nil, ErrInvalidStatus
		}
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	rows := make([]Recipient, len(recipients))
	for i, r := range recipients {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		r.NotificationID = n.ID
		rows[i] = r
	}

	var saved []Recipient
	err := pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertNotificationSQL,
			n.ID, n.Title, n.Description, n.Href, n.CourseID, n.CreatedAt,
		); err != nil {
			if pg.IsDuplicateKeyError(err) {
				return errors.Join(ErrDuplicateNotification, err)
			}
			return fmt.Errorf("insert notification: %w", err)
		}

		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(insertRecipientSQL, r.ID, r.NotificationID, r.UserID, string(r.Status), r.ReadAt)
		}

		br := tx.SendBatch(ctx, batch)
		saved = make([]Recipient, 0, len(rows))
		for _, r := range rows {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("insert recipient: %w", err)
			}
			if tag.RowsAffected() == 0 {
				s.opts.logger.LogAttrs(ctx, slog.LevelWarn, "Dropped duplicate notification recipient",
					logger.NotificationID(n.ID),
					logger.UserID(r.UserID),
				)
				continue
			}
			saved = append(saved, r)
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("insert recipients: %w", err)
		}

		if len(saved) == 0 {
			return ErrNoRecipients
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoRecipients) {
			return nil, nil, ErrNoRecipients
		}
		return nil, nil, errors.Join(ErrStorage, err)
	}

	return &n, saved, nil
}

func (s *PostgresStorage) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var n Notification
	err := s.db.QueryRow(ctx, selectNotificationSQL, id).Scan(
		&n.ID, &n.Title, &n.Description, &n.Href, &n.CourseID, &n.CreatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, errors.Join(ErrStorage, err)
	}
	return &n, nil
}

func (s *PostgresStorage) Recipients(ctx context.Context, notificationID uuid.UUID) ([]Recipient, error) {
	rows, err := s.db.Query(ctx, selectRecipientsSQL, notificationID)
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Recipient, error) {
		var (
			r      Recipient
			status string
		)
		err := row.Scan(&r.ID, &r.NotificationID, &r.UserID, &status, &r.ReadAt)
		r.Status = Status(status)
		return r, err
	})
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return out, nil
}

func (s *PostgresStorage) ListForUser(ctx context.Context, userID uuid.UUID) ([]View, error) {
	rows, err := s.db.Query(ctx, listForUserSQL, userID)
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	views, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (View, error) {
		var (
			n      Notification
			status string
		)
		if err := row.Scan(&n.ID, &n.Title, &n.Description, &n.Href, &n.CourseID, &n.CreatedAt, &status); err != nil {
			return View{}, err
		}
		return NewView(n, Status(status)), nil
	})
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return views, nil
}

func (s *PostgresStorage) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, countUnreadSQL, userID).Scan(&count); err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return count, nil
}

func (s *PostgresStorage) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := s.db.Exec(ctx, markAllReadSQL, userID, s.opts.now())
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStorage) MarkOneRead(ctx context.Context, userID, notificationID uuid.UUID) (int, error) {
	tag, err := s.db.Exec(ctx, markOneReadSQL, userID, notificationID, s.opts.now())
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteOne locks the notification row first so that two recipients
// deleting concurrently cannot both see the other's row and leave an orphan.
func (s *PostgresStorage) DeleteOne(ctx context.Context, userID, notificationID uuid.UUID) (int, error) {
	var deleted int
	err := pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, lockNotificationSQL, notificationID).Scan(&locked); err != nil {
			if pg.IsNotFoundError(err) {
				return nil
			}
			return fmt.Errorf("lock notification: %w", err)
		}

		tag, err := tx.Exec(ctx, deleteRecipientSQL, userID, notificationID)
		if err != nil {
			return fmt.Errorf("delete recipient: %w", err)
		}
		deleted = int(tag.RowsAffected())
		if deleted == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, deleteOrphansSQL, []string{notificationID.String()}); err != nil {
			return fmt.Errorf("delete orphan: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return deleted, nil
}

// DeleteAll locks every affected notification in id order, then removes the
// user's rows and whatever notifications they leave empty.
func (s *PostgresStorage) DeleteAll(ctx context.Context, userID uuid.UUID) (int, error) {
	var deleted int
	err := pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, lockUserNotificationsSQL, userID)
		if err != nil {
			return fmt.Errorf("lock notifications: %w", err)
		}
		ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
			var id uuid.UUID
			err := row.Scan(&id)
			return id.String(), err
		})
		if err != nil {
			return fmt.Errorf("lock notifications: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		tag, err := tx.Exec(ctx, deleteUserRecipientsSQL, userID, ids)
		if err != nil {
			return fmt.Errorf("delete recipients: %w", err)
		}
		deleted = int(tag.RowsAffected())

		if _, err := tx.Exec(ctx, deleteOrphansSQL, ids); err != nil {
			return fmt.Errorf("delete orphans: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return deleted, nil
}

var _ Storage = (*PostgresStorage)(nil)
