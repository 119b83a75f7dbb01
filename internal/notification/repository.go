package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const pageSize = 5

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, userID string, notificationType Type, text string) (Notification, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Notification{}, fmt.Errorf("generate notification id: %w", err)
	}

	n := Notification{
		ID:        id.String(),
		UserID:    userID,
		Type:      notificationType,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, n.ID, n.UserID, n.Type, n.Text, n.CreatedAt)
	if err != nil {
		return Notification{}, fmt.Errorf("insert notification: %w", err)
	}

	return n, nil
}

// ListPage returns one fixed-size page of the user's feed, newest first,
// along with the total page count.
func (r *Repository) ListPage(ctx context.Context, userID string, page int) (Page, error) {
	if page < 1 {
		page = 1
	}

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1
	`, userID).Scan(&total)
	if err != nil {
		return Page{}, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, text, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return Page{}, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	items := make([]Notification, 0, pageSize)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Text, &n.CreatedAt); err != nil {
			return Page{}, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}

	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterate notifications: %w", err)
	}

	return Page{
		Items:       items,
		Pages:       (total + pageSize - 1) / pageSize,
		CurrentPage: page,
	}, nil
}

// Delete removes one notification if it belongs to userID. Missing or
// foreign ids are a no-op.
func (r *Repository) Delete(ctx context.Context, userID, notificationID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM notifications WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}

	return nil
}
