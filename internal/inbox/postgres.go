package inbox

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// PostgresStore persists notifications in the notification service's private
// store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, recipient_id, actor_id, post_id, comment_id, type, title, body, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ID, n.RecipientID, n.ActorID, n.PostID, n.CommentID, n.Type, n.Title, n.Body, n.IsRead, n.CreatedAt)
	return err
}

func (s *PostgresStore) List(ctx context.Context, recipientID string, limit int, cursor string) (Page, error) {
	if limit <= 0 {
		limit = 20
	}
	// Keyset pagination on (created_at DESC, id DESC); the cursor is the id
	// of the last item seen.
	query := `SELECT id, recipient_id, actor_id, post_id, comment_id, type, title, body, is_read, created_at
		 FROM notifications WHERE recipient_id = $1`
	args := []interface{}{recipientID}
	if cursor != "" {
		query += ` AND (created_at, id) < (SELECT created_at, id FROM notifications WHERE id = $2)`
		args = append(args, cursor)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.ActorID, &n.PostID, &n.CommentID,
			&n.Type, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return Page{}, err
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}
	return paginate(items, limit), nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, recipientID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`,
		id, recipientID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkAllRead(ctx context.Context, recipientID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`,
		recipientID)
	return err
}

func (s *PostgresStore) DeleteByActor(ctx context.Context, recipientID, actorID, notifType string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE recipient_id = $1 AND actor_id = $2 AND type = $3`,
		recipientID, actorID, notifType)
	return err
}

// paginate trims the limit+1 probe row into a page with cursor metadata.
func paginate(items []Notification, limit int) Page {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	page := Page{Items: items, HasMore: hasMore}
	if hasMore && len(items) > 0 {
		page.NextCursor = items[len(items)-1].ID
	}
	return page
}
