package notifications

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres. sent_via is stored comma separated.
type PGRepo struct {
	DB *sql.DB
}

const notificationColumns = `id, user_id, course_id, notification_type, subject, message, sent_via, is_read, created_at`

func (r *PGRepo) Create(ctx context.Context, n Notification) error {
	const query = `
INSERT INTO notifications (id, user_id, course_id, notification_type, subject, message, sent_via, is_read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	var courseID any
	if n.CourseID != "" {
		courseID = n.CourseID
	}
	_, err := r.DB.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		courseID,
		n.Type,
		n.Subject,
		n.Message,
		strings.Join(n.SentVia, ", "),
		n.IsRead,
		n.CreatedAt,
	)
	return err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + `
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PGRepo) MarkRead(ctx context.Context, userID, notificationID string) (Notification, error) {
	query := `UPDATE notifications SET is_read = TRUE
WHERE id = $1 AND user_id = $2
RETURNING ` + notificationColumns
	n, err := scanNotification(r.DB.QueryRowContext(ctx, query, notificationID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (Notification, error) {
	var n Notification
	var courseID sql.NullString
	var sentVia sql.NullString
	if err := row.Scan(&n.ID, &n.UserID, &courseID, &n.Type, &n.Subject, &n.Message, &sentVia, &n.IsRead, &n.CreatedAt); err != nil {
		return Notification{}, err
	}
	n.CourseID = courseID.String
	n.SentVia = splitSentVia(sentVia.String)
	return n, nil
}

func splitSentVia(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ Repo = (*PGRepo)(nil)
