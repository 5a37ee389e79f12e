package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Entities resolves post and comment authorship for the notification
// projector. Unlike the read-path directory lookups these calls do return
// errors: a failed resolution fails the handler, which retries and finally
// dead-letters instead of silently dropping the event.
type Entities struct {
	postURL    string
	commentURL string
	hc         *http.Client
}

func NewEntities(postURL, commentURL string, timeout time.Duration) *Entities {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Entities{
		postURL:    strings.TrimRight(postURL, "/"),
		commentURL: strings.TrimRight(commentURL, "/"),
		hc:         &http.Client{Timeout: timeout},
	}
}

// PostAuthor returns the author id of a post.
func (e *Entities) PostAuthor(ctx context.Context, postID string) (string, error) {
	return e.fetchAuthor(ctx, e.postURL+"/posts/"+postID)
}

// CommentAuthor returns the author id of a comment.
func (e *Entities) CommentAuthor(ctx context.Context, commentID string) (string, error) {
	return e.fetchAuthor(ctx, e.commentURL+"/comments/"+commentID)
}

func (e *Entities) fetchAuthor(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	var decoded struct {
		AuthorID string `json:"author_id"`
		UserID   string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	if decoded.AuthorID != "" {
		return decoded.AuthorID, nil
	}
	return decoded.UserID, nil
}
