package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Content      string    `json:"content"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PostRepo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{db: db}
}

func (r *PostRepo) Create(ctx context.Context, p *Post) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.AuthorID, p.Content, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PostRepo) GetByID(ctx context.Context, id string) (*Post, error) {
	var p Post
	err := r.db.QueryRowContext(ctx,
		`SELECT id, author_id, content, like_count, comment_count, created_at, updated_at
		 FROM posts WHERE id = $1`, id).
		Scan(&p.ID, &p.AuthorID, &p.Content, &p.LikeCount, &p.CommentCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepo) ListRecent(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, author_id, content, like_count, comment_count, created_at, updated_at
		 FROM posts ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Content, &p.LikeCount, &p.CommentCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ApplyCommentCountDelta folds a relative change into the denormalized
// comment counter, clamped at zero. The single atomic UPDATE relies on the
// database's row lock for correctness under concurrent projector invocations.
func (r *PostRepo) ApplyCommentCountDelta(ctx context.Context, postID string, delta int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET comment_count = GREATEST(comment_count + $1, 0), updated_at = NOW()
		 WHERE id = $2`, delta, postID)
	return err
}

// ApplyLikeDelta adjusts the like counter, clamped at zero.
func (r *PostRepo) ApplyLikeDelta(ctx context.Context, postID string, delta int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET like_count = GREATEST(like_count + $1, 0), updated_at = NOW()
		 WHERE id = $2`, delta, postID)
	return err
}

// InsertLike records the like fact. Returns false when the user already
// liked the post, in which case no event must be published.
func (r *PostRepo) InsertLike(ctx context.Context, postID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
		 ON CONFLICT (post_id, user_id) DO NOTHING`, postID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteLike removes the like fact. Returns false when there was nothing to
// remove.
func (r *PostRepo) DeleteLike(ctx context.Context, postID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
