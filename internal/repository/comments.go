package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID              string    `json:"id"`
	PostID          string    `json:"post_id"`
	UserID          string    `json:"user_id"`
	Content         string    `json:"content"`
	ParentCommentID *string   `json:"parent_comment_id,omitempty"`
	LikeCount       int       `json:"like_count"`
	CreatedAt       time.Time `json:"created_at"`
}

type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

func (r *CommentRepo) Create(ctx context.Context, c *Comment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, user_id, content, parent_comment_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.PostID, c.UserID, c.Content, c.ParentCommentID, c.CreatedAt)
	return err
}

func (r *CommentRepo) GetByID(ctx context.Context, id string) (*Comment, error) {
	var c Comment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, post_id, user_id, content, parent_comment_id, like_count, created_at
		 FROM comments WHERE id = $1 AND is_deleted = FALSE`, id).
		Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.ParentCommentID, &c.LikeCount, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete soft-deletes a comment owned by userID. Returns false when no
// matching live comment exists.
func (r *CommentRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE comments SET is_deleted = TRUE
		 WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID string, limit int) ([]Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, user_id, content, parent_comment_id, like_count, created_at
		 FROM comments WHERE post_id = $1 AND is_deleted = FALSE
		 ORDER BY created_at DESC, id DESC LIMIT $2`, postID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.ParentCommentID, &c.LikeCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ApplyLikeDelta adjusts the like counter, clamped at zero.
func (r *CommentRepo) ApplyLikeDelta(ctx context.Context, commentID string, delta int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE comments SET like_count = GREATEST(like_count + $1, 0) WHERE id = $2`,
		delta, commentID)
	return err
}

func (r *CommentRepo) InsertLike(ctx context.Context, commentID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO comment_likes (comment_id, user_id) VALUES ($1, $2)
		 ON CONFLICT (comment_id, user_id) DO NOTHING`, commentID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *CommentRepo) DeleteLike(ctx context.Context, commentID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`, commentID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
